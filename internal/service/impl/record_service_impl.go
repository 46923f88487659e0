package impl

import (
	"context"
	"errors"
	"strings"

	"tacacs-admin/internal/cmdmatch"
	"tacacs-admin/internal/domain"
	"tacacs-admin/internal/dto"
	"tacacs-admin/internal/netutil"
	"tacacs-admin/internal/service"
	"tacacs-admin/internal/store"

	"github.com/google/uuid"
)

const (
	DefaultMemberPriority = 10
	DefaultPrivLevel      = 1
	maxNameLength         = 64
)

// RecordServiceImpl validates and stores the AAA records. Names that end up in
// the exported configuration are restricted to characters that cannot break
// its syntax.
type RecordServiceImpl struct {
	Store           *store.Store
	PasswordService service.PasswordService
}

func NewRecordServiceImpl(st *store.Store, passwords service.PasswordService) *RecordServiceImpl {
	return &RecordServiceImpl{Store: st, PasswordService: passwords}
}

func (s *RecordServiceImpl) PutUser(ctx context.Context, username string, r dto.PutUserRequest) (*dto.UserView, error) {
	if err := validateName("username", username); err != nil {
		return nil, err
	}
	if r.Password != "" && r.PasswordHash != "" {
		return nil, invalid("password and passwordHash are mutually exclusive")
	}
	if r.PasswordHash != "" && !singleToken(r.PasswordHash) {
		return nil, invalid("passwordHash must be a single token")
	}
	if !singleLine(r.FullName) || !singleLine(r.Description) {
		return nil, invalid("fullName and description must be single lines")
	}

	var out dto.UserView
	err := s.Store.WithTx(ctx, func(tx *store.Store) error {
		existing, err := tx.Users().GetByUsername(ctx, username)
		if err != nil && !errors.Is(err, store.ErrRecordNotFound) {
			return err
		}

		usr := domain.User{Username: username, FullName: r.FullName, Description: r.Description, Enabled: true}
		if existing != nil {
			usr.ID = existing.ID
			usr.CreatedAt = existing.CreatedAt
			usr.PasswordHash = existing.PasswordHash
			usr.Enabled = existing.Enabled
		}
		if r.Enabled != nil {
			usr.Enabled = *r.Enabled
		}
		switch {
		case r.Password != "":
			hash, err := s.PasswordService.Hash(r.Password)
			if err != nil {
				return err
			}
			usr.PasswordHash = hash
		case r.PasswordHash != "":
			usr.PasswordHash = r.PasswordHash
		case existing == nil:
			return invalid("password or passwordHash is required for a new user")
		}

		if err := tx.Users().Upsert(ctx, &usr); err != nil {
			return err
		}
		out = userView(usr)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *RecordServiceImpl) GetUser(ctx context.Context, username string) (*dto.UserView, error) {
	usr, err := s.Store.Users().GetByUsername(ctx, username)
	if err != nil {
		return nil, notFoundAs(err, domain.ErrUserNotFound)
	}
	out := userView(*usr)
	return &out, nil
}

func (s *RecordServiceImpl) ListUsers(ctx context.Context) ([]dto.UserView, error) {
	users, err := s.Store.Users().List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserView, 0, len(users))
	for _, u := range users {
		out = append(out, userView(u))
	}
	return out, nil
}

func (s *RecordServiceImpl) DeleteUser(ctx context.Context, username string) (*dto.DeleteUserResponse, error) {
	usr, err := s.Store.Users().GetByUsername(ctx, username)
	if err != nil {
		return nil, notFoundAs(err, domain.ErrUserNotFound)
	}
	counts, err := s.Store.DeleteUser(ctx, usr.ID)
	if err != nil {
		return nil, notFoundAs(err, domain.ErrUserNotFound)
	}
	return &dto.DeleteUserResponse{Username: username, Deleted: counts}, nil
}

func (s *RecordServiceImpl) PutUserGroup(ctx context.Context, name string, r dto.PutGroupRequest) (*dto.GroupView, error) {
	if err := validateName("group name", name); err != nil {
		return nil, err
	}
	if r.TacacsKey != "" {
		return nil, invalid("user groups do not carry a tacacs key")
	}
	if !singleLine(r.Description) {
		return nil, invalid("description must be a single line")
	}
	grp := domain.UserGroup{Name: name, Description: r.Description}
	if err := s.Store.UserGroups().Upsert(ctx, &grp); err != nil {
		return nil, err
	}
	out := userGroupView(grp)
	return &out, nil
}

func (s *RecordServiceImpl) GetUserGroup(ctx context.Context, name string) (*dto.GroupView, error) {
	grp, err := s.Store.UserGroups().GetByName(ctx, name)
	if err != nil {
		return nil, notFoundAs(err, domain.ErrGroupNotFound)
	}
	out := userGroupView(*grp)
	return &out, nil
}

func (s *RecordServiceImpl) ListUserGroups(ctx context.Context) ([]dto.GroupView, error) {
	groups, err := s.Store.UserGroups().List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.GroupView, 0, len(groups))
	for _, g := range groups {
		out = append(out, userGroupView(g))
	}
	return out, nil
}

func (s *RecordServiceImpl) DeleteUserGroup(ctx context.Context, name string) error {
	grp, err := s.Store.UserGroups().GetByName(ctx, name)
	if err != nil {
		return notFoundAs(err, domain.ErrGroupNotFound)
	}
	return notFoundAs(s.Store.DeleteUserGroup(ctx, grp.ID), domain.ErrGroupNotFound)
}

func (s *RecordServiceImpl) PutMember(ctx context.Context, group, username string, r dto.PutMemberRequest) (*dto.MemberView, error) {
	priority := DefaultMemberPriority
	if r.Priority != nil {
		priority = *r.Priority
	}
	if priority < 0 {
		return nil, invalid("priority must not be negative")
	}

	err := s.Store.WithTx(ctx, func(tx *store.Store) error {
		grp, err := tx.UserGroups().GetByName(ctx, group)
		if err != nil {
			return notFoundAs(err, domain.ErrGroupNotFound)
		}
		usr, err := tx.Users().GetByUsername(ctx, username)
		if err != nil {
			return notFoundAs(err, domain.ErrUserNotFound)
		}
		return tx.Memberships().Put(ctx, usr.ID, grp.ID, priority)
	})
	if err != nil {
		return nil, err
	}
	return &dto.MemberView{Username: username, Priority: priority}, nil
}

func (s *RecordServiceImpl) DeleteMember(ctx context.Context, group, username string) (*dto.DeleteResponse, error) {
	grp, err := s.Store.UserGroups().GetByName(ctx, group)
	if err != nil {
		return nil, notFoundAs(err, domain.ErrGroupNotFound)
	}
	usr, err := s.Store.Users().GetByUsername(ctx, username)
	if err != nil {
		return nil, notFoundAs(err, domain.ErrUserNotFound)
	}
	deleted, err := s.Store.Memberships().Delete(ctx, usr.ID, grp.ID)
	if err != nil {
		return nil, err
	}
	return &dto.DeleteResponse{Deleted: deleted}, nil
}

func (s *RecordServiceImpl) ListMembers(ctx context.Context, group string) ([]dto.MemberView, error) {
	grp, err := s.Store.UserGroups().GetByName(ctx, group)
	if err != nil {
		return nil, notFoundAs(err, domain.ErrGroupNotFound)
	}
	rows, err := s.Store.Memberships().ListByGroup(ctx, grp.ID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MemberView, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.MemberView{Username: r.Username, Priority: r.Priority})
	}
	return out, nil
}

func (s *RecordServiceImpl) PutHost(ctx context.Context, address string, r dto.PutHostRequest) (*dto.HostView, error) {
	addr, ok := netutil.NormalizeHostAddress(address)
	if !ok {
		return nil, invalid("%q is not an IP address or CIDR prefix", address)
	}
	host := domain.Host{IPAddress: addr, TacacsKey: r.TacacsKey, Description: r.Description}
	if r.Hostname != nil && strings.TrimSpace(*r.Hostname) != "" {
		name := strings.TrimSpace(*r.Hostname)
		if !netutil.ValidHostname(name) {
			return nil, invalid("%q is not a valid hostname", name)
		}
		host.Hostname = &name
	}
	if !singleToken(r.TacacsKey) && r.TacacsKey != "" {
		return nil, invalid("tacacsKey must not contain whitespace")
	}
	if !singleLine(r.Description) {
		return nil, invalid("description must be a single line")
	}
	if err := s.Store.Hosts().Upsert(ctx, &host); err != nil {
		return nil, err
	}
	out := hostView(host)
	return &out, nil
}

func (s *RecordServiceImpl) GetHost(ctx context.Context, address string) (*dto.HostView, error) {
	host, err := s.hostByAddress(ctx, s.Store, address)
	if err != nil {
		return nil, err
	}
	out := hostView(*host)
	return &out, nil
}

func (s *RecordServiceImpl) ListHosts(ctx context.Context) ([]dto.HostView, error) {
	hosts, err := s.Store.Hosts().List(ctx)
	if err != nil {
		return nil, err
	}
	return hostViews(hosts), nil
}

func (s *RecordServiceImpl) DeleteHost(ctx context.Context, address string) error {
	host, err := s.hostByAddress(ctx, s.Store, address)
	if err != nil {
		return err
	}
	return notFoundAs(s.Store.DeleteHost(ctx, host.ID), domain.ErrHostNotFound)
}

func (s *RecordServiceImpl) PutHostGroup(ctx context.Context, name string, r dto.PutGroupRequest) (*dto.GroupView, error) {
	if err := validateName("host group name", name); err != nil {
		return nil, err
	}
	if r.TacacsKey != "" && !singleToken(r.TacacsKey) {
		return nil, invalid("tacacsKey must not contain whitespace")
	}
	if !singleLine(r.Description) {
		return nil, invalid("description must be a single line")
	}
	grp := domain.HostGroup{Name: name, TacacsKey: r.TacacsKey, Description: r.Description}
	if err := s.Store.HostGroups().Upsert(ctx, &grp); err != nil {
		return nil, err
	}
	out := hostGroupView(grp)
	return &out, nil
}

func (s *RecordServiceImpl) GetHostGroup(ctx context.Context, name string) (*dto.GroupView, error) {
	grp, err := s.Store.HostGroups().GetByName(ctx, name)
	if err != nil {
		return nil, notFoundAs(err, domain.ErrGroupNotFound)
	}
	out := hostGroupView(*grp)
	return &out, nil
}

func (s *RecordServiceImpl) ListHostGroups(ctx context.Context) ([]dto.GroupView, error) {
	groups, err := s.Store.HostGroups().List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.GroupView, 0, len(groups))
	for _, g := range groups {
		out = append(out, hostGroupView(g))
	}
	return out, nil
}

func (s *RecordServiceImpl) DeleteHostGroup(ctx context.Context, name string) error {
	grp, err := s.Store.HostGroups().GetByName(ctx, name)
	if err != nil {
		return notFoundAs(err, domain.ErrGroupNotFound)
	}
	return notFoundAs(s.Store.DeleteHostGroup(ctx, grp.ID), domain.ErrGroupNotFound)
}

func (s *RecordServiceImpl) PutHostMember(ctx context.Context, group, address string) (*dto.HostView, error) {
	var out dto.HostView
	err := s.Store.WithTx(ctx, func(tx *store.Store) error {
		grp, err := tx.HostGroups().GetByName(ctx, group)
		if err != nil {
			return notFoundAs(err, domain.ErrGroupNotFound)
		}
		host, err := s.hostByAddress(ctx, tx, address)
		if err != nil {
			return err
		}
		out = hostView(*host)
		return tx.HostMemberships().Put(ctx, host.ID, grp.ID)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *RecordServiceImpl) DeleteHostMember(ctx context.Context, group, address string) (*dto.DeleteResponse, error) {
	grp, err := s.Store.HostGroups().GetByName(ctx, group)
	if err != nil {
		return nil, notFoundAs(err, domain.ErrGroupNotFound)
	}
	host, err := s.hostByAddress(ctx, s.Store, address)
	if err != nil {
		return nil, err
	}
	deleted, err := s.Store.HostMemberships().Delete(ctx, host.ID, grp.ID)
	if err != nil {
		return nil, err
	}
	return &dto.DeleteResponse{Deleted: deleted}, nil
}

func (s *RecordServiceImpl) ListHostMembers(ctx context.Context, group string) ([]dto.HostView, error) {
	grp, err := s.Store.HostGroups().GetByName(ctx, group)
	if err != nil {
		return nil, notFoundAs(err, domain.ErrGroupNotFound)
	}
	hosts, err := s.Store.HostMemberships().ListHosts(ctx, grp.ID)
	if err != nil {
		return nil, err
	}
	return hostViews(hosts), nil
}

func (s *RecordServiceImpl) PutPolicy(ctx context.Context, r dto.PutPolicyRequest) (*dto.PolicyView, error) {
	priv := DefaultPrivLevel
	if r.PrivLevel != nil {
		priv = *r.PrivLevel
	}
	if priv < domain.MinPrivLevel || priv > domain.MaxPrivLevel {
		return nil, invalid("privLevel must be within %d..%d", domain.MinPrivLevel, domain.MaxPrivLevel)
	}
	allow := true
	if r.AllowAccess != nil {
		allow = *r.AllowAccess
	}

	var out dto.PolicyView
	err := s.Store.WithTx(ctx, func(tx *store.Store) error {
		ug, err := tx.UserGroups().GetByName(ctx, r.UserGroup)
		if err != nil {
			return notFoundAs(err, domain.ErrGroupNotFound)
		}
		hg, err := tx.HostGroups().GetByName(ctx, r.HostGroup)
		if err != nil {
			return notFoundAs(err, domain.ErrGroupNotFound)
		}
		pol := domain.AccessPolicy{UserGroupID: ug.ID, HostGroupID: hg.ID, PrivLevel: priv, AllowAccess: allow}
		if err := tx.Policies().Upsert(ctx, &pol); err != nil {
			return err
		}
		out = policyView(store.PolicyRow{AccessPolicy: pol, UserGroupName: ug.Name, HostGroupName: hg.Name})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *RecordServiceImpl) GetPolicy(ctx context.Context, id uuid.UUID) (*dto.PolicyView, error) {
	row, err := s.Store.Policies().Get(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, domain.ErrPolicyNotFound)
	}
	out := policyView(*row)
	return &out, nil
}

func (s *RecordServiceImpl) ListPolicies(ctx context.Context) ([]dto.PolicyView, error) {
	rows, err := s.Store.Policies().List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PolicyView, 0, len(rows))
	for _, r := range rows {
		out = append(out, policyView(r))
	}
	return out, nil
}

func (s *RecordServiceImpl) DeletePolicy(ctx context.Context, id uuid.UUID) error {
	return notFoundAs(s.Store.DeletePolicy(ctx, id), domain.ErrPolicyNotFound)
}

func (s *RecordServiceImpl) AddRule(ctx context.Context, policyID uuid.UUID, r dto.AddRuleRequest) (*dto.RuleView, error) {
	pattern := strings.Join(strings.Fields(r.Pattern), " ")
	if err := cmdmatch.Validate(pattern); err != nil {
		return nil, invalid("%v", err)
	}
	action := domain.RuleAction(strings.ToUpper(strings.TrimSpace(r.Action)))
	if !action.Valid() {
		return nil, invalid("action must be PERMIT or DENY")
	}

	var out dto.RuleView
	err := s.Store.WithTx(ctx, func(tx *store.Store) error {
		ok, err := tx.Policies().Exists(ctx, policyID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrPolicyNotFound
		}
		rule := domain.CommandRule{PolicyID: policyID, Pattern: pattern, Action: action}
		if err := tx.CommandRules().Append(ctx, &rule); err != nil {
			return err
		}
		out = ruleView(rule)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *RecordServiceImpl) GetRule(ctx context.Context, id uuid.UUID) (*dto.RuleView, error) {
	rule, err := s.Store.CommandRules().Get(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, domain.ErrRuleNotFound)
	}
	out := ruleView(*rule)
	return &out, nil
}

func (s *RecordServiceImpl) ListRules(ctx context.Context, policyID uuid.UUID) ([]dto.RuleView, error) {
	if err := s.requirePolicy(ctx, policyID); err != nil {
		return nil, err
	}
	rules, err := s.Store.CommandRules().ListByPolicy(ctx, policyID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.RuleView, 0, len(rules))
	for _, r := range rules {
		out = append(out, ruleView(r))
	}
	return out, nil
}

func (s *RecordServiceImpl) DeleteRule(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.Store.CommandRules().Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrRuleNotFound
	}
	return nil
}

func (s *RecordServiceImpl) AddAVPair(ctx context.Context, policyID uuid.UUID, r dto.AVPair) ([]dto.AVPair, error) {
	key := strings.TrimSpace(r.Key)
	if key == "" || !singleToken(key) || strings.Contains(key, "=") {
		return nil, invalid("key must be a single token without '='")
	}
	if !singleLine(r.Value) {
		return nil, invalid("value must be a single line")
	}
	if err := s.requirePolicy(ctx, policyID); err != nil {
		return nil, err
	}
	pair := domain.PolicyAVPair{PolicyID: policyID, Key: key, Value: strings.TrimSpace(r.Value)}
	if err := s.Store.AVPairs().Add(ctx, &pair); err != nil {
		return nil, err
	}
	return s.ListAVPairs(ctx, policyID)
}

func (s *RecordServiceImpl) ListAVPairs(ctx context.Context, policyID uuid.UUID) ([]dto.AVPair, error) {
	if err := s.requirePolicy(ctx, policyID); err != nil {
		return nil, err
	}
	pairs, err := s.Store.AVPairs().ListByPolicies(ctx, []uuid.UUID{policyID})
	if err != nil {
		return nil, err
	}
	out := make([]dto.AVPair, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, dto.AVPair{Key: p.Key, Value: p.Value})
	}
	return out, nil
}

func (s *RecordServiceImpl) DeleteAVPairs(ctx context.Context, policyID uuid.UUID, key string) (*dto.DeleteCountResponse, error) {
	if err := s.requirePolicy(ctx, policyID); err != nil {
		return nil, err
	}
	n, err := s.Store.AVPairs().Delete(ctx, policyID, strings.TrimSpace(key))
	if err != nil {
		return nil, err
	}
	return &dto.DeleteCountResponse{Deleted: n}, nil
}

func (s *RecordServiceImpl) requirePolicy(ctx context.Context, id uuid.UUID) error {
	ok, err := s.Store.Policies().Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrPolicyNotFound
	}
	return nil
}

func (s *RecordServiceImpl) hostByAddress(ctx context.Context, st *store.Store, address string) (*domain.Host, error) {
	addr, ok := netutil.NormalizeHostAddress(address)
	if !ok {
		return nil, invalid("%q is not an IP address or CIDR prefix", address)
	}
	host, err := st.Hosts().GetByAddress(ctx, addr)
	if err != nil {
		return nil, notFoundAs(err, domain.ErrHostNotFound)
	}
	return host, nil
}

func validateName(field, name string) error {
	if name == "" {
		return invalid("%s: %v", field, ErrEmptyName)
	}
	if len(name) > maxNameLength {
		return invalid("%s longer than %d characters", field, maxNameLength)
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '.', c == '_', c == '-', c == '@':
		default:
			return invalid("%s %q may only contain letters, digits and . _ - @", field, name)
		}
	}
	return nil
}

func singleToken(s string) bool {
	return s != "" && len(strings.Fields(s)) == 1 && strings.TrimSpace(s) == s
}

func singleLine(s string) bool {
	return !strings.ContainsAny(s, "\r\n")
}

func userView(u domain.User) dto.UserView {
	return dto.UserView{
		ID:          u.ID.String(),
		Username:    u.Username,
		FullName:    u.FullName,
		Description: u.Description,
		Enabled:     u.Enabled,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func userGroupView(g domain.UserGroup) dto.GroupView {
	return dto.GroupView{ID: g.ID.String(), Name: g.Name, Description: g.Description, CreatedAt: g.CreatedAt, UpdatedAt: g.UpdatedAt}
}

func hostGroupView(g domain.HostGroup) dto.GroupView {
	return dto.GroupView{
		ID:          g.ID.String(),
		Name:        g.Name,
		Description: g.Description,
		HasKey:      g.TacacsKey != "",
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

func hostViews(hosts []domain.Host) []dto.HostView {
	out := make([]dto.HostView, 0, len(hosts))
	for _, h := range hosts {
		out = append(out, hostView(h))
	}
	return out
}

func policyView(p store.PolicyRow) dto.PolicyView {
	return dto.PolicyView{
		ID:          p.ID.String(),
		UserGroup:   p.UserGroupName,
		HostGroup:   p.HostGroupName,
		PrivLevel:   p.PrivLevel,
		AllowAccess: p.AllowAccess,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func ruleView(r domain.CommandRule) dto.RuleView {
	return dto.RuleView{
		ID:       r.ID.String(),
		PolicyID: r.PolicyID.String(),
		Position: r.Position,
		Pattern:  r.Pattern,
		Action:   string(r.Action),
	}
}
