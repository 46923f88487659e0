package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"tacacs-admin/internal/app"
	"tacacs-admin/internal/dto"

	"github.com/google/uuid"
)

func init() {
	commands["user put"] = command{summary: "Create or update a user", run: runUserPut}
	commands["user get"] = command{summary: "Show a user", run: runUserGet}
	commands["user list"] = command{summary: "List users", run: runUserList}
	commands["user delete"] = command{summary: "Delete a user with its memberships and TOTP profile", run: runUserDelete}

	commands["group put"] = command{summary: "Create or update a user group", run: runGroupPut}
	commands["group list"] = command{summary: "List user groups", run: runGroupList}
	commands["group delete"] = command{summary: "Delete a user group and its policies", run: runGroupDelete}
	commands["member put"] = command{summary: "Add a user to a group or change its priority", run: runMemberPut}
	commands["member delete"] = command{summary: "Remove a user from a group", run: runMemberDelete}
	commands["member list"] = command{summary: "List a group's members", run: runMemberList}

	commands["host put"] = command{summary: "Create or update a device", run: runHostPut}
	commands["host get"] = command{summary: "Show a device", run: runHostGet}
	commands["host list"] = command{summary: "List devices", run: runHostList}
	commands["host delete"] = command{summary: "Delete a device", run: runHostDelete}

	commands["hostgroup put"] = command{summary: "Create or update a host group", run: runHostGroupPut}
	commands["hostgroup list"] = command{summary: "List host groups", run: runHostGroupList}
	commands["hostgroup delete"] = command{summary: "Delete a host group and its policies", run: runHostGroupDelete}
	commands["hostmember put"] = command{summary: "Add a device to a host group", run: runHostMemberPut}
	commands["hostmember delete"] = command{summary: "Remove a device from a host group", run: runHostMemberDelete}
	commands["hostmember list"] = command{summary: "List a host group's devices", run: runHostMemberList}

	commands["policy put"] = command{summary: "Grant or deny a user group access to a host group", run: runPolicyPut}
	commands["policy get"] = command{summary: "Show a policy", run: runPolicyGet}
	commands["policy list"] = command{summary: "List policies", run: runPolicyList}
	commands["policy delete"] = command{summary: "Delete a policy with its rules and av-pairs", run: runPolicyDelete}

	commands["rule add"] = command{summary: "Append a command rule to a policy", run: runRuleAdd}
	commands["rule list"] = command{summary: "List a policy's command rules in order", run: runRuleList}
	commands["rule delete"] = command{summary: "Delete a command rule", run: runRuleDelete}

	commands["avpair add"] = command{summary: "Attach an attribute-value pair to a policy", run: runAVPairAdd}
	commands["avpair list"] = command{summary: "List a policy's av-pairs", run: runAVPairList}
	commands["avpair delete"] = command{summary: "Delete a policy's av-pairs, optionally only one key", run: runAVPairDelete}
}

// parseWith parses args and checks the listed flags are non-empty.
func parseWith(fs *flag.FlagSet, args []string, names ...string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	return required(fs, names...)
}

func parseID(fs *flag.FlagSet, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(fs.Lookup(name).Value.String()))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid -%s: %w", name, err)
	}
	return id, nil
}

func runUserPut(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("user put")
	name := fs.String("name", "", "username")
	var req dto.PutUserRequest
	fs.StringVar(&req.Password, "password", "", "plain password, hashed with bcrypt")
	stdin := fs.Bool("password-stdin", false, "read the plain password from stdin")
	fs.StringVar(&req.PasswordHash, "password-hash", "", "pre-computed crypt hash stored verbatim")
	fs.StringVar(&req.FullName, "full-name", "", "full name")
	fs.StringVar(&req.Description, "description", "", "description")
	enabled := fs.Bool("enabled", true, "whether the user may authenticate")
	if err := parseWith(fs, args, "name"); err != nil {
		return nil, err
	}
	if *stdin {
		pw, err := readSecretLine(os.Stdin)
		if err != nil {
			return nil, err
		}
		req.Password = pw
	}
	if isSet(fs, "enabled") {
		req.Enabled = enabled
	}
	return a.Records.PutUser(ctx, *name, req)
}

func runUserGet(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("user get")
	name := fs.String("name", "", "username")
	if err := parseWith(fs, args, "name"); err != nil {
		return nil, err
	}
	return a.Records.GetUser(ctx, *name)
}

func runUserList(ctx context.Context, a *app.App, args []string) (any, error) {
	if err := newFlags("user list").Parse(args); err != nil {
		return nil, err
	}
	return a.Records.ListUsers(ctx)
}

func runUserDelete(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("user delete")
	name := fs.String("name", "", "username")
	if err := parseWith(fs, args, "name"); err != nil {
		return nil, err
	}
	return a.Records.DeleteUser(ctx, *name)
}

func runGroupPut(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("group put")
	name := fs.String("name", "", "user group name")
	var req dto.PutGroupRequest
	fs.StringVar(&req.Description, "description", "", "description")
	if err := parseWith(fs, args, "name"); err != nil {
		return nil, err
	}
	return a.Records.PutUserGroup(ctx, *name, req)
}

func runGroupList(ctx context.Context, a *app.App, args []string) (any, error) {
	if err := newFlags("group list").Parse(args); err != nil {
		return nil, err
	}
	return a.Records.ListUserGroups(ctx)
}

func runGroupDelete(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("group delete")
	name := fs.String("name", "", "user group name")
	if err := parseWith(fs, args, "name"); err != nil {
		return nil, err
	}
	if err := a.Records.DeleteUserGroup(ctx, *name); err != nil {
		return nil, err
	}
	return dto.DeleteResponse{Deleted: true}, nil
}

func runMemberPut(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("member put")
	group := fs.String("group", "", "user group name")
	user := fs.String("user", "", "username")
	priority := fs.Int("priority", 10, "lower sorts first")
	if err := parseWith(fs, args, "group", "user"); err != nil {
		return nil, err
	}
	return a.Records.PutMember(ctx, *group, *user, dto.PutMemberRequest{Priority: priority})
}

func runMemberDelete(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("member delete")
	group := fs.String("group", "", "user group name")
	user := fs.String("user", "", "username")
	if err := parseWith(fs, args, "group", "user"); err != nil {
		return nil, err
	}
	return a.Records.DeleteMember(ctx, *group, *user)
}

func runMemberList(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("member list")
	group := fs.String("group", "", "user group name")
	if err := parseWith(fs, args, "group"); err != nil {
		return nil, err
	}
	return a.Records.ListMembers(ctx, *group)
}

func runHostPut(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("host put")
	address := fs.String("address", "", "IP address or CIDR prefix")
	hostname := fs.String("hostname", "", "DNS name used as the stanza name")
	var req dto.PutHostRequest
	fs.StringVar(&req.TacacsKey, "key", "", "per-device TACACS+ key")
	fs.StringVar(&req.Description, "description", "", "description")
	if err := parseWith(fs, args, "address"); err != nil {
		return nil, err
	}
	if *hostname != "" {
		req.Hostname = hostname
	}
	return a.Records.PutHost(ctx, *address, req)
}

func runHostGet(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("host get")
	address := fs.String("address", "", "IP address or CIDR prefix")
	if err := parseWith(fs, args, "address"); err != nil {
		return nil, err
	}
	return a.Records.GetHost(ctx, *address)
}

func runHostList(ctx context.Context, a *app.App, args []string) (any, error) {
	if err := newFlags("host list").Parse(args); err != nil {
		return nil, err
	}
	return a.Records.ListHosts(ctx)
}

func runHostDelete(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("host delete")
	address := fs.String("address", "", "IP address or CIDR prefix")
	if err := parseWith(fs, args, "address"); err != nil {
		return nil, err
	}
	if err := a.Records.DeleteHost(ctx, *address); err != nil {
		return nil, err
	}
	return dto.DeleteResponse{Deleted: true}, nil
}

func runHostGroupPut(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("hostgroup put")
	name := fs.String("name", "", "host group name")
	var req dto.PutGroupRequest
	fs.StringVar(&req.TacacsKey, "key", "", "TACACS+ key shared by the group's devices")
	fs.StringVar(&req.Description, "description", "", "description")
	if err := parseWith(fs, args, "name"); err != nil {
		return nil, err
	}
	return a.Records.PutHostGroup(ctx, *name, req)
}

func runHostGroupList(ctx context.Context, a *app.App, args []string) (any, error) {
	if err := newFlags("hostgroup list").Parse(args); err != nil {
		return nil, err
	}
	return a.Records.ListHostGroups(ctx)
}

func runHostGroupDelete(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("hostgroup delete")
	name := fs.String("name", "", "host group name")
	if err := parseWith(fs, args, "name"); err != nil {
		return nil, err
	}
	if err := a.Records.DeleteHostGroup(ctx, *name); err != nil {
		return nil, err
	}
	return dto.DeleteResponse{Deleted: true}, nil
}

func runHostMemberPut(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("hostmember put")
	group := fs.String("group", "", "host group name")
	address := fs.String("address", "", "device address")
	if err := parseWith(fs, args, "group", "address"); err != nil {
		return nil, err
	}
	return a.Records.PutHostMember(ctx, *group, *address)
}

func runHostMemberDelete(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("hostmember delete")
	group := fs.String("group", "", "host group name")
	address := fs.String("address", "", "device address")
	if err := parseWith(fs, args, "group", "address"); err != nil {
		return nil, err
	}
	return a.Records.DeleteHostMember(ctx, *group, *address)
}

func runHostMemberList(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("hostmember list")
	group := fs.String("group", "", "host group name")
	if err := parseWith(fs, args, "group"); err != nil {
		return nil, err
	}
	return a.Records.ListHostMembers(ctx, *group)
}

func runPolicyPut(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("policy put")
	var req dto.PutPolicyRequest
	fs.StringVar(&req.UserGroup, "user-group", "", "user group name")
	fs.StringVar(&req.HostGroup, "host-group", "", "host group name")
	priv := fs.Int("priv-lvl", 1, "privilege level 0-15")
	deny := fs.Bool("deny", false, "record an explicit deny instead of a grant")
	if err := parseWith(fs, args, "user-group", "host-group"); err != nil {
		return nil, err
	}
	allow := !*deny
	req.PrivLevel = priv
	req.AllowAccess = &allow
	return a.Records.PutPolicy(ctx, req)
}

func runPolicyGet(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("policy get")
	fs.String("id", "", "policy id")
	if err := parseWith(fs, args, "id"); err != nil {
		return nil, err
	}
	id, err := parseID(fs, "id")
	if err != nil {
		return nil, err
	}
	return a.Records.GetPolicy(ctx, id)
}

func runPolicyList(ctx context.Context, a *app.App, args []string) (any, error) {
	if err := newFlags("policy list").Parse(args); err != nil {
		return nil, err
	}
	return a.Records.ListPolicies(ctx)
}

func runPolicyDelete(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("policy delete")
	fs.String("id", "", "policy id")
	if err := parseWith(fs, args, "id"); err != nil {
		return nil, err
	}
	id, err := parseID(fs, "id")
	if err != nil {
		return nil, err
	}
	if err := a.Records.DeletePolicy(ctx, id); err != nil {
		return nil, err
	}
	return dto.DeleteResponse{Deleted: true}, nil
}

func runRuleAdd(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("rule add")
	fs.String("policy", "", "policy id")
	var req dto.AddRuleRequest
	fs.StringVar(&req.Pattern, "pattern", "", `command pattern, e.g. "show **"`)
	fs.StringVar(&req.Action, "action", "PERMIT", "PERMIT or DENY")
	if err := parseWith(fs, args, "policy", "pattern"); err != nil {
		return nil, err
	}
	id, err := parseID(fs, "policy")
	if err != nil {
		return nil, err
	}
	return a.Records.AddRule(ctx, id, req)
}

func runRuleList(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("rule list")
	fs.String("policy", "", "policy id")
	if err := parseWith(fs, args, "policy"); err != nil {
		return nil, err
	}
	id, err := parseID(fs, "policy")
	if err != nil {
		return nil, err
	}
	return a.Records.ListRules(ctx, id)
}

func runRuleDelete(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("rule delete")
	fs.String("id", "", "rule id")
	if err := parseWith(fs, args, "id"); err != nil {
		return nil, err
	}
	id, err := parseID(fs, "id")
	if err != nil {
		return nil, err
	}
	if err := a.Records.DeleteRule(ctx, id); err != nil {
		return nil, err
	}
	return dto.DeleteResponse{Deleted: true}, nil
}

func runAVPairAdd(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("avpair add")
	fs.String("policy", "", "policy id")
	var pair dto.AVPair
	fs.StringVar(&pair.Key, "key", "", "attribute, e.g. shell:roles")
	fs.StringVar(&pair.Value, "value", "", "value")
	if err := parseWith(fs, args, "policy", "key"); err != nil {
		return nil, err
	}
	id, err := parseID(fs, "policy")
	if err != nil {
		return nil, err
	}
	return a.Records.AddAVPair(ctx, id, pair)
}

func runAVPairList(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("avpair list")
	fs.String("policy", "", "policy id")
	if err := parseWith(fs, args, "policy"); err != nil {
		return nil, err
	}
	id, err := parseID(fs, "policy")
	if err != nil {
		return nil, err
	}
	return a.Records.ListAVPairs(ctx, id)
}

func runAVPairDelete(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := newFlags("avpair delete")
	fs.String("policy", "", "policy id")
	key := fs.String("key", "", "only delete pairs with this key")
	if err := parseWith(fs, args, "policy"); err != nil {
		return nil, err
	}
	id, err := parseID(fs, "policy")
	if err != nil {
		return nil, err
	}
	return a.Records.DeleteAVPairs(ctx, id, *key)
}
