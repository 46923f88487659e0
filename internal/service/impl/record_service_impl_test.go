package impl

import (
	"context"
	"errors"
	"testing"

	"tacacs-admin/internal/domain"
	"tacacs-admin/internal/dto"
	"tacacs-admin/internal/store"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSQLiteStore(t *testing.T) *store.Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	st := store.New(db)
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return st
}

func newTestRecordService(t *testing.T) (*RecordServiceImpl, *store.Store) {
	t.Helper()
	st := setupSQLiteStore(t)
	return NewRecordServiceImpl(st, NewPasswordServiceBcrypt(bcrypt.MinCost)), st
}

func intPtr(v int) *int { return &v }
func boolPtr(v bool) *bool { return &v }
func strPtr(v string) *string { return &v }

func TestPutUserRequiresPasswordOnCreate(t *testing.T) {
	svc, _ := newTestRecordService(t)

	_, err := svc.PutUser(context.Background(), "alice", dto.PutUserRequest{FullName: "Alice"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestPutUserKeepsHashWhenPasswordOmitted(t *testing.T) {
	svc, st := newTestRecordService(t)
	ctx := context.Background()

	created, err := svc.PutUser(ctx, "alice", dto.PutUserRequest{Password: "s3cret"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created.Enabled {
		t.Fatalf("new users should be enabled")
	}

	updated, err := svc.PutUser(ctx, "alice", dto.PutUserRequest{FullName: "Alice A", Enabled: boolPtr(false)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != created.ID || updated.Enabled || updated.FullName != "Alice A" {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	stored, err := st.Users().GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !svc.PasswordService.Verify("s3cret", stored.PasswordHash) {
		t.Fatalf("password hash was not preserved")
	}
}

func TestPutUserAcceptsPrecomputedHash(t *testing.T) {
	svc, st := newTestRecordService(t)
	ctx := context.Background()

	const hash = "$1$abc$0123456789abcdefghijkl"
	if _, err := svc.PutUser(ctx, "bob", dto.PutUserRequest{PasswordHash: hash}); err != nil {
		t.Fatalf("put: %v", err)
	}
	stored, err := st.Users().GetByUsername(ctx, "bob")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.PasswordHash != hash {
		t.Fatalf("expected hash stored verbatim, got %q", stored.PasswordHash)
	}

	cases := []dto.PutUserRequest{
		{PasswordHash: "two words"},
		{Password: "x", PasswordHash: hash},
		{Password: "x", Description: "line\nbreak"},
	}
	for _, r := range cases {
		if _, err := svc.PutUser(ctx, "bob", r); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("request %+v: expected ErrValidation, got %v", r, err)
		}
	}
}

func TestNameValidation(t *testing.T) {
	svc, _ := newTestRecordService(t)
	ctx := context.Background()

	for _, name := range []string{"", "has space", "brace{", "a\"b", string(make([]byte, 65))} {
		if _, err := svc.PutUserGroup(ctx, name, dto.PutGroupRequest{}); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("name %q: expected ErrValidation, got %v", name, err)
		}
	}
	for _, name := range []string{"net-ops", "svc.backup", "a_b@corp"} {
		if _, err := svc.PutUserGroup(ctx, name, dto.PutGroupRequest{}); err != nil {
			t.Fatalf("name %q: %v", name, err)
		}
	}
}

func TestUserGroupRejectsKey(t *testing.T) {
	svc, _ := newTestRecordService(t)

	_, err := svc.PutUserGroup(context.Background(), "ops", dto.PutGroupRequest{TacacsKey: "k"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestMembershipDefaultsAndLookups(t *testing.T) {
	svc, _ := newTestRecordService(t)
	ctx := context.Background()

	if _, err := svc.PutUser(ctx, "alice", dto.PutUserRequest{Password: "pw"}); err != nil {
		t.Fatalf("user: %v", err)
	}
	if _, err := svc.PutUser(ctx, "bob", dto.PutUserRequest{Password: "pw"}); err != nil {
		t.Fatalf("user: %v", err)
	}
	if _, err := svc.PutUserGroup(ctx, "ops", dto.PutGroupRequest{}); err != nil {
		t.Fatalf("group: %v", err)
	}

	m, err := svc.PutMember(ctx, "ops", "bob", dto.PutMemberRequest{})
	if err != nil {
		t.Fatalf("member: %v", err)
	}
	if m.Priority != DefaultMemberPriority {
		t.Fatalf("expected default priority %d, got %d", DefaultMemberPriority, m.Priority)
	}
	if _, err := svc.PutMember(ctx, "ops", "alice", dto.PutMemberRequest{Priority: intPtr(1)}); err != nil {
		t.Fatalf("member: %v", err)
	}

	members, err := svc.ListMembers(ctx, "ops")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(members) != 2 || members[0].Username != "alice" || members[1].Username != "bob" {
		t.Fatalf("unexpected member order: %+v", members)
	}

	if _, err := svc.PutMember(ctx, "nope", "alice", dto.PutMemberRequest{}); !errors.Is(err, domain.ErrGroupNotFound) {
		t.Fatalf("expected ErrGroupNotFound, got %v", err)
	}
	if _, err := svc.PutMember(ctx, "ops", "carol", dto.PutMemberRequest{}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := svc.PutMember(ctx, "ops", "alice", dto.PutMemberRequest{Priority: intPtr(-1)}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	res, err := svc.DeleteMember(ctx, "ops", "bob")
	if err != nil || !res.Deleted {
		t.Fatalf("delete member: %+v %v", res, err)
	}
	res, err = svc.DeleteMember(ctx, "ops", "bob")
	if err != nil || res.Deleted {
		t.Fatalf("second delete should report false: %+v %v", res, err)
	}
}

func TestPutHostNormalizesAddress(t *testing.T) {
	svc, _ := newTestRecordService(t)
	ctx := context.Background()

	h, err := svc.PutHost(ctx, "10.0.0.1/32", dto.PutHostRequest{Hostname: strPtr("core1"), TacacsKey: "k1"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if h.Address != "10.0.0.1" || h.Hostname == nil || *h.Hostname != "core1" || !h.HasKey {
		t.Fatalf("unexpected host: %+v", h)
	}

	got, err := svc.GetHost(ctx, "10.0.0.1")
	if err != nil || got.ID != h.ID {
		t.Fatalf("get by normalized address: %+v %v", got, err)
	}

	if _, err := svc.PutHost(ctx, "not-an-ip", dto.PutHostRequest{}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for address, got %v", err)
	}
	if _, err := svc.PutHost(ctx, "10.0.0.2", dto.PutHostRequest{Hostname: strPtr("bad_host!")}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for hostname, got %v", err)
	}
	if _, err := svc.PutHost(ctx, "10.0.0.3", dto.PutHostRequest{Hostname: strPtr("core1")}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate hostname, got %v", err)
	}
	if _, err := svc.GetHost(ctx, "10.9.9.9"); !errors.Is(err, domain.ErrHostNotFound) {
		t.Fatalf("expected ErrHostNotFound, got %v", err)
	}
}

func TestHostGroupMembership(t *testing.T) {
	svc, _ := newTestRecordService(t)
	ctx := context.Background()

	if _, err := svc.PutHost(ctx, "10.0.0.1", dto.PutHostRequest{}); err != nil {
		t.Fatalf("host: %v", err)
	}
	g, err := svc.PutHostGroup(ctx, "core", dto.PutGroupRequest{TacacsKey: "secret"})
	if err != nil {
		t.Fatalf("group: %v", err)
	}
	if !g.HasKey {
		t.Fatalf("expected HasKey")
	}
	if _, err := svc.PutHostMember(ctx, "core", "10.0.0.1"); err != nil {
		t.Fatalf("member: %v", err)
	}
	// idempotent
	if _, err := svc.PutHostMember(ctx, "core", "10.0.0.1"); err != nil {
		t.Fatalf("member again: %v", err)
	}
	hosts, err := svc.ListHostMembers(ctx, "core")
	if err != nil || len(hosts) != 1 {
		t.Fatalf("list: %+v %v", hosts, err)
	}
	if _, err := svc.PutHostMember(ctx, "core", "10.0.0.2"); !errors.Is(err, domain.ErrHostNotFound) {
		t.Fatalf("expected ErrHostNotFound, got %v", err)
	}

	if err := svc.DeleteHost(ctx, "10.0.0.1"); err != nil {
		t.Fatalf("delete host: %v", err)
	}
	hosts, err = svc.ListHostMembers(ctx, "core")
	if err != nil || len(hosts) != 0 {
		t.Fatalf("membership should be gone: %+v %v", hosts, err)
	}
}

func seedPolicy(t *testing.T, svc *RecordServiceImpl) *dto.PolicyView {
	t.Helper()
	ctx := context.Background()
	if _, err := svc.PutUserGroup(ctx, "ops", dto.PutGroupRequest{}); err != nil {
		t.Fatalf("user group: %v", err)
	}
	if _, err := svc.PutHostGroup(ctx, "core", dto.PutGroupRequest{TacacsKey: "k"}); err != nil {
		t.Fatalf("host group: %v", err)
	}
	pol, err := svc.PutPolicy(ctx, dto.PutPolicyRequest{UserGroup: "ops", HostGroup: "core"})
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	return pol
}

func TestPutPolicyDefaultsAndValidation(t *testing.T) {
	svc, _ := newTestRecordService(t)
	ctx := context.Background()

	pol := seedPolicy(t, svc)
	if pol.PrivLevel != DefaultPrivLevel || !pol.AllowAccess || pol.UserGroup != "ops" || pol.HostGroup != "core" {
		t.Fatalf("unexpected defaults: %+v", pol)
	}

	again, err := svc.PutPolicy(ctx, dto.PutPolicyRequest{UserGroup: "ops", HostGroup: "core", PrivLevel: intPtr(15), AllowAccess: boolPtr(false)})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if again.ID != pol.ID || again.PrivLevel != 15 || again.AllowAccess {
		t.Fatalf("expected same policy replaced, got %+v", again)
	}

	for _, lvl := range []int{-1, 16} {
		_, err := svc.PutPolicy(ctx, dto.PutPolicyRequest{UserGroup: "ops", HostGroup: "core", PrivLevel: intPtr(lvl)})
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("priv %d: expected ErrValidation, got %v", lvl, err)
		}
	}
	if _, err := svc.PutPolicy(ctx, dto.PutPolicyRequest{UserGroup: "ops", HostGroup: "edge"}); !errors.Is(err, domain.ErrGroupNotFound) {
		t.Fatalf("expected ErrGroupNotFound, got %v", err)
	}

	list, err := svc.ListPolicies(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %+v %v", list, err)
	}
}

func TestRulesAppendInOrder(t *testing.T) {
	svc, _ := newTestRecordService(t)
	ctx := context.Background()
	pol := seedPolicy(t, svc)
	id := uuid.MustParse(pol.ID)

	r1, err := svc.AddRule(ctx, id, dto.AddRuleRequest{Pattern: "show   **", Action: "permit"})
	if err != nil {
		t.Fatalf("rule 1: %v", err)
	}
	r2, err := svc.AddRule(ctx, id, dto.AddRuleRequest{Pattern: "configure **", Action: "DENY"})
	if err != nil {
		t.Fatalf("rule 2: %v", err)
	}
	if r1.Position != 1 || r2.Position != 2 || r1.Pattern != "show **" || r1.Action != "PERMIT" {
		t.Fatalf("unexpected rules: %+v %+v", r1, r2)
	}

	if _, err := svc.AddRule(ctx, id, dto.AddRuleRequest{Pattern: "show", Action: "maybe"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for action, got %v", err)
	}
	if _, err := svc.AddRule(ctx, id, dto.AddRuleRequest{Pattern: "** show", Action: "PERMIT"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for pattern, got %v", err)
	}
	if _, err := svc.AddRule(ctx, uuid.New(), dto.AddRuleRequest{Pattern: "show", Action: "PERMIT"}); !errors.Is(err, domain.ErrPolicyNotFound) {
		t.Fatalf("expected ErrPolicyNotFound, got %v", err)
	}

	rules, err := svc.ListRules(ctx, id)
	if err != nil || len(rules) != 2 || rules[0].ID != r1.ID {
		t.Fatalf("list: %+v %v", rules, err)
	}

	if err := svc.DeleteRule(ctx, uuid.MustParse(r1.ID)); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteRule(ctx, uuid.MustParse(r1.ID)); !errors.Is(err, domain.ErrRuleNotFound) {
		t.Fatalf("expected ErrRuleNotFound, got %v", err)
	}
	r3, err := svc.AddRule(ctx, id, dto.AddRuleRequest{Pattern: "ping *", Action: "PERMIT"})
	if err != nil {
		t.Fatalf("rule 3: %v", err)
	}
	if r3.Position != 3 {
		t.Fatalf("positions must not be reused, got %d", r3.Position)
	}
}

func TestAVPairs(t *testing.T) {
	svc, _ := newTestRecordService(t)
	ctx := context.Background()
	pol := seedPolicy(t, svc)
	id := uuid.MustParse(pol.ID)

	if _, err := svc.AddAVPair(ctx, id, dto.AVPair{Key: "shell:roles", Value: "network-admin"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.AddAVPair(ctx, id, dto.AVPair{Key: "shell:roles", Value: "network-admin"}); err != nil {
		t.Fatalf("add duplicate: %v", err)
	}
	pairs, err := svc.AddAVPair(ctx, id, dto.AVPair{Key: "priv-lvl", Value: "15"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(pairs) != 2 || pairs[0].Key != "priv-lvl" {
		t.Fatalf("unexpected pairs: %+v", pairs)
	}

	if _, err := svc.AddAVPair(ctx, id, dto.AVPair{Key: "a=b", Value: "x"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	res, err := svc.DeleteAVPairs(ctx, id, "shell:roles")
	if err != nil || res.Deleted != 1 {
		t.Fatalf("delete: %+v %v", res, err)
	}
	res, err = svc.DeleteAVPairs(ctx, id, "")
	if err != nil || res.Deleted != 1 {
		t.Fatalf("delete all: %+v %v", res, err)
	}
	if _, err := svc.ListAVPairs(ctx, uuid.New()); !errors.Is(err, domain.ErrPolicyNotFound) {
		t.Fatalf("expected ErrPolicyNotFound, got %v", err)
	}
}

func TestDeleteUserReportsCounts(t *testing.T) {
	svc, _ := newTestRecordService(t)
	ctx := context.Background()

	if _, err := svc.PutUser(ctx, "alice", dto.PutUserRequest{Password: "pw"}); err != nil {
		t.Fatalf("user: %v", err)
	}
	if _, err := svc.PutUserGroup(ctx, "ops", dto.PutGroupRequest{}); err != nil {
		t.Fatalf("group: %v", err)
	}
	if _, err := svc.PutMember(ctx, "ops", "alice", dto.PutMemberRequest{}); err != nil {
		t.Fatalf("member: %v", err)
	}

	res, err := svc.DeleteUser(ctx, "alice")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if res.Deleted["users"] != 1 || res.Deleted["memberships"] != 1 || res.Deleted["totpProfiles"] != 0 {
		t.Fatalf("unexpected counts: %+v", res.Deleted)
	}
	if _, err := svc.DeleteUser(ctx, "alice"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
