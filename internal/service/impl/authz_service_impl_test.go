package impl

import (
	"context"
	"errors"
	"testing"

	"tacacs-admin/internal/domain"
	"tacacs-admin/internal/dto"

	"github.com/google/uuid"
)

type authzFixture struct {
	records *RecordServiceImpl
	authz   *AuthzServiceImpl
	policy  map[string]uuid.UUID
}

// newAuthzFixture builds:
//
//	alice in ops (priority 5) and audit (priority 20)
//	core  = 10.0.0.1 (core1), 10.0.0.2
//	edge  = 10.0.0.2, 10.0.0.3
//	lab   = 10.0.0.9
//	ops   -> core priv 15, ops -> edge priv 7, audit -> core priv 1
//	audit -> lab deny
func newAuthzFixture(t *testing.T) *authzFixture {
	t.Helper()
	records, st := newTestRecordService(t)
	ctx := context.Background()
	f := &authzFixture{records: records, authz: NewAuthzServiceImpl(st), policy: map[string]uuid.UUID{}}

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	_, err := records.PutUser(ctx, "alice", dto.PutUserRequest{Password: "pw"})
	must(err)
	_, err = records.PutUser(ctx, "bob", dto.PutUserRequest{Password: "pw"})
	must(err)
	for _, g := range []string{"ops", "audit"} {
		_, err = records.PutUserGroup(ctx, g, dto.PutGroupRequest{})
		must(err)
	}
	_, err = records.PutMember(ctx, "ops", "alice", dto.PutMemberRequest{Priority: intPtr(5)})
	must(err)
	_, err = records.PutMember(ctx, "audit", "alice", dto.PutMemberRequest{Priority: intPtr(20)})
	must(err)

	_, err = records.PutHost(ctx, "10.0.0.1", dto.PutHostRequest{Hostname: strPtr("core1")})
	must(err)
	for _, a := range []string{"10.0.0.2", "10.0.0.3", "10.0.0.9"} {
		_, err = records.PutHost(ctx, a, dto.PutHostRequest{})
		must(err)
	}
	members := map[string][]string{
		"core": {"10.0.0.1", "10.0.0.2"},
		"edge": {"10.0.0.2", "10.0.0.3"},
		"lab":  {"10.0.0.9"},
	}
	for g, hosts := range members {
		_, err = records.PutHostGroup(ctx, g, dto.PutGroupRequest{TacacsKey: g + "-key"})
		must(err)
		for _, h := range hosts {
			_, err = records.PutHostMember(ctx, g, h)
			must(err)
		}
	}

	grants := []struct {
		name, ug, hg string
		priv         int
		allow        bool
	}{
		{"ops-core", "ops", "core", 15, true},
		{"ops-edge", "ops", "edge", 7, true},
		{"audit-core", "audit", "core", 1, true},
		{"audit-lab", "audit", "lab", 1, false},
	}
	for _, g := range grants {
		p, err := records.PutPolicy(ctx, dto.PutPolicyRequest{UserGroup: g.ug, HostGroup: g.hg, PrivLevel: intPtr(g.priv), AllowAccess: boolPtr(g.allow)})
		must(err)
		f.policy[g.name] = uuid.MustParse(p.ID)
	}
	_, err = records.AddAVPair(ctx, f.policy["ops-core"], dto.AVPair{Key: "shell:roles", Value: "network-admin"})
	must(err)
	return f
}

func hostAddresses(hosts []dto.HostView) []string {
	out := make([]string, 0, len(hosts))
	for _, h := range hosts {
		out = append(out, h.Address)
	}
	return out
}

func TestResolveHostsForUser(t *testing.T) {
	f := newAuthzFixture(t)
	ctx := context.Background()

	res, err := f.authz.ResolveHostsForUser(ctx, "alice")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	got := hostAddresses(res.Hosts)
	want := []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	res, err = f.authz.ResolveHostsForUser(ctx, "bob")
	if err != nil || len(res.Hosts) != 0 {
		t.Fatalf("bob has no groups: %+v %v", res, err)
	}
	if _, err := f.authz.ResolveHostsForUser(ctx, "nobody"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestResolveHostsDenyWins(t *testing.T) {
	f := newAuthzFixture(t)
	ctx := context.Background()

	// ops is also allowed on lab, but audit denies it.
	if _, err := f.records.PutPolicy(ctx, dto.PutPolicyRequest{UserGroup: "ops", HostGroup: "lab"}); err != nil {
		t.Fatalf("policy: %v", err)
	}
	res, err := f.authz.ResolveHostsForUser(ctx, "alice")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	for _, a := range hostAddresses(res.Hosts) {
		if a == "10.0.0.9" {
			t.Fatalf("denied host leaked into %v", hostAddresses(res.Hosts))
		}
	}

	access, err := f.authz.ResolveAccess(ctx, "alice", "10.0.0.9")
	if err != nil {
		t.Fatalf("access: %v", err)
	}
	if access.Allowed || len(access.DeniedBy) != 1 || access.DeniedBy[0] != "lab" || len(access.Policies) != 0 {
		t.Fatalf("expected explicit deny by lab, got %+v", access)
	}
}

func TestResolveAccessTakesHighestPrivilege(t *testing.T) {
	f := newAuthzFixture(t)
	ctx := context.Background()

	res, err := f.authz.ResolveAccess(ctx, "alice", "core1")
	if err != nil {
		t.Fatalf("access: %v", err)
	}
	if !res.Allowed || res.PrivLevel != 15 || res.Host != "10.0.0.1" {
		t.Fatalf("unexpected access: %+v", res)
	}
	if len(res.Policies) != 2 || res.Policies[0].UserGroup != "ops" || res.Policies[0].Priority != 5 {
		t.Fatalf("expected ops grant first by priority, got %+v", res.Policies)
	}
	if len(res.Policies[0].AVPairs) != 1 || res.Policies[0].AVPairs[0].Value != "network-admin" {
		t.Fatalf("expected av-pairs on ops grant, got %+v", res.Policies[0].AVPairs)
	}

	res, err = f.authz.ResolveAccess(ctx, "alice", "10.0.0.2")
	if err != nil {
		t.Fatalf("access: %v", err)
	}
	if res.PrivLevel != 15 || len(res.Policies) != 3 {
		t.Fatalf("host in two groups should collect every grant: %+v", res)
	}

	res, err = f.authz.ResolveAccess(ctx, "bob", "10.0.0.1")
	if err != nil {
		t.Fatalf("access: %v", err)
	}
	if res.Allowed || res.PrivLevel != 0 || len(res.Policies) != 0 {
		t.Fatalf("bob should have no access: %+v", res)
	}

	if _, err := f.authz.ResolveAccess(ctx, "alice", "10.8.8.8"); !errors.Is(err, domain.ErrHostNotFound) {
		t.Fatalf("expected ErrHostNotFound, got %v", err)
	}
	if _, err := f.authz.ResolveAccess(ctx, "alice", " "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestEvaluateCommandFirstMatchWins(t *testing.T) {
	f := newAuthzFixture(t)
	ctx := context.Background()
	id := f.policy["ops-core"]

	rules := []dto.AddRuleRequest{
		{Pattern: "show running-config", Action: "DENY"},
		{Pattern: "show **", Action: "PERMIT"},
		{Pattern: "configure terminal", Action: "PERMIT"},
	}
	for _, r := range rules {
		if _, err := f.records.AddRule(ctx, id, r); err != nil {
			t.Fatalf("rule: %v", err)
		}
	}

	cases := []struct {
		command  string
		decision dto.Decision
		position int
	}{
		{"show running-config", dto.DecisionDeny, 1},
		{"show  interfaces  brief", dto.DecisionPermit, 2},
		{"show", dto.DecisionPermit, 2},
		{"configure terminal", dto.DecisionPermit, 3},
		{"reload", dto.DecisionNoMatch, 0},
	}
	for _, tc := range cases {
		res, err := f.authz.EvaluateCommand(ctx, id, tc.command)
		if err != nil {
			t.Fatalf("%q: %v", tc.command, err)
		}
		if res.Decision != tc.decision || res.Position != tc.position {
			t.Fatalf("%q: expected %s@%d, got %s@%d", tc.command, tc.decision, tc.position, res.Decision, res.Position)
		}
	}

	if _, err := f.authz.EvaluateCommand(ctx, uuid.New(), "show"); !errors.Is(err, domain.ErrPolicyNotFound) {
		t.Fatalf("expected ErrPolicyNotFound, got %v", err)
	}
	if _, err := f.authz.EvaluateCommand(ctx, id, "   "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestEvaluateCommandWithoutRulesIsNoMatch(t *testing.T) {
	f := newAuthzFixture(t)

	res, err := f.authz.EvaluateCommand(context.Background(), f.policy["audit-core"], "show version")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.Decision != dto.DecisionNoMatch || res.RuleID != "" {
		t.Fatalf("expected NO_MATCH, got %+v", res)
	}
}

func TestEvaluateCommandMatchesSlashArguments(t *testing.T) {
	f := newAuthzFixture(t)
	ctx := context.Background()
	id := f.policy["ops-edge"]

	for _, r := range []dto.AddRuleRequest{
		{Pattern: "interface Gi*", Action: "DENY"},
		{Pattern: "interface *", Action: "PERMIT"},
		{Pattern: "copy * tftp", Action: "DENY"},
		{Pattern: "show ip route *", Action: "PERMIT"},
	} {
		if _, err := f.records.AddRule(ctx, id, r); err != nil {
			t.Fatalf("rule %q: %v", r.Pattern, err)
		}
	}

	cases := []struct {
		command  string
		decision dto.Decision
		position int
	}{
		{"interface Gi0/1", dto.DecisionDeny, 1},
		{"interface TenGigabitEthernet1/0/1", dto.DecisionPermit, 2},
		{"copy flash:/a.bin tftp", dto.DecisionDeny, 3},
		{"show ip route 10.0.0.0/8", dto.DecisionPermit, 4},
		{"copy flash:/a.bin scp", dto.DecisionNoMatch, 0},
	}
	for _, tc := range cases {
		res, err := f.authz.EvaluateCommand(ctx, id, tc.command)
		if err != nil {
			t.Fatalf("%q: %v", tc.command, err)
		}
		if res.Decision != tc.decision || res.Position != tc.position {
			t.Fatalf("%q: expected %s@%d, got %s@%d", tc.command, tc.decision, tc.position, res.Decision, res.Position)
		}
	}
}
