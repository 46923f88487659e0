package impl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tacacs-admin/internal/domain"
	"tacacs-admin/internal/dto"
	"tacacs-admin/internal/store"
	"tacacs-admin/internal/tacconf"

	"github.com/google/uuid"
)

func TestExportWritesAllFiles(t *testing.T) {
	records, st := newTestRecordService(t)
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "tac_plus-ng")

	seed := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	_, err := records.PutUser(ctx, "zed", dto.PutUserRequest{PasswordHash: "$6$z"})
	seed(err)
	_, err = records.PutUser(ctx, "alice", dto.PutUserRequest{PasswordHash: "$6$a", Enabled: boolPtr(false)})
	seed(err)
	for _, g := range []string{"ops", "audit"} {
		_, err = records.PutUserGroup(ctx, g, dto.PutGroupRequest{})
		seed(err)
		_, err = records.PutMember(ctx, g, "alice", dto.PutMemberRequest{})
		seed(err)
	}
	_, err = records.PutHost(ctx, "10.0.0.1", dto.PutHostRequest{Hostname: strPtr("core1")})
	seed(err)
	_, err = records.PutHost(ctx, "10.0.0.2", dto.PutHostRequest{})
	seed(err)
	_, err = records.PutHostGroup(ctx, "edge", dto.PutGroupRequest{TacacsKey: "e"})
	seed(err)
	_, err = records.PutHostGroup(ctx, "core", dto.PutGroupRequest{TacacsKey: "c"})
	seed(err)
	_, err = records.PutHostMember(ctx, "edge", "10.0.0.1")
	seed(err)
	_, err = records.PutHostMember(ctx, "core", "10.0.0.1")
	seed(err)

	svc := NewExportServiceImpl(st, dir)
	res, err := svc.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	wantUsers := "user alice {\n\tpassword login = crypt $6$a\n\tmember = audit,ops\n}\n\n" +
		"user zed {\n\tpassword login = crypt $6$z\n\tmember = \n}\n"
	wantHosts := "host 10.0.0.2 {\n\taddress = 10.0.0.2\n\ttemplate = \n}\n\n" +
		"host core1 {\n\taddress = 10.0.0.1\n\ttemplate = core\n}\n"
	wantGroups := "hostgroup core {\n\tkey = c\n}\n\nhostgroup edge {\n\tkey = e\n}\n"

	for file, want := range map[string]string{FileUsers: wantUsers, FileHosts: wantHosts, FileHostGroups: wantGroups} {
		if res.FileContents[file] != want {
			t.Fatalf("%s content:\n%q\nwant:\n%q", file, res.FileContents[file], want)
		}
		raw, err := os.ReadFile(filepath.Join(dir, file))
		if err != nil {
			t.Fatalf("read %s: %v", file, err)
		}
		if string(raw) != want {
			t.Fatalf("%s on disk differs from response", file)
		}
		info, err := os.Stat(filepath.Join(dir, file))
		if err != nil {
			t.Fatalf("stat %s: %v", file, err)
		}
		if info.Mode().Perm() != exportFileMode {
			t.Fatalf("%s mode %v", file, info.Mode().Perm())
		}
	}

	if len(res.Files) != 3 || res.Files[0].Records != 2 || res.Files[1].Records != 2 || res.Files[2].Records != 2 {
		t.Fatalf("unexpected file summary: %+v", res.Files)
	}

	stanzas, err := tacconf.Parse(strings.NewReader(wantHosts))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	hosts := tacconf.Hosts(stanzas)
	if len(hosts) != 2 || hosts[1].Template != "core" {
		t.Fatalf("round trip: %+v", hosts)
	}
}

func TestExportEmptyStoreWritesEmptyFiles(t *testing.T) {
	st := setupSQLiteStore(t)
	dir := t.TempDir()

	res, err := NewExportServiceImpl(st, dir).Export(context.Background())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	for _, f := range res.Files {
		raw, err := os.ReadFile(filepath.Join(dir, f.File))
		if err != nil {
			t.Fatalf("read %s: %v", f.File, err)
		}
		if len(raw) != 0 || f.Records != 0 {
			t.Fatalf("%s should be empty, got %q", f.File, raw)
		}
	}
}

func TestExportRequiresDirectory(t *testing.T) {
	st := setupSQLiteStore(t)

	if _, err := NewExportServiceImpl(st, "").Export(context.Background()); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestBuildHostEntriesTemplateTieBreak(t *testing.T) {
	rows := []store.HostGroupRow{
		{IPAddress: "10.0.0.5", GroupName: strPtr("zeta")},
		{IPAddress: "10.0.0.5", GroupName: strPtr("alpha")},
		{IPAddress: "10.0.0.4", Hostname: strPtr("b-host")},
	}
	got := BuildHostEntries(rows)
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %+v", got)
	}
	if got[0].Name != "10.0.0.5" || got[0].Template != "alpha" {
		t.Fatalf("unexpected first entry: %+v", got[0])
	}
	if got[1].Name != "b-host" || got[1].Template != "" {
		t.Fatalf("unexpected second entry: %+v", got[1])
	}
}

func TestBuildUserEntriesDeduplicatesMembers(t *testing.T) {
	rows := []store.UserGroupRow{
		{Username: "bob", PasswordHash: "h", GroupName: strPtr("ops")},
		{Username: "bob", PasswordHash: "h", GroupName: strPtr("audit")},
		{Username: "bob", PasswordHash: "h", GroupName: strPtr("ops")},
		{Username: "amy", PasswordHash: "g"},
	}
	got := BuildUserEntries(rows)
	if len(got) != 2 || got[0].Name != "amy" || len(got[0].Members) != 0 {
		t.Fatalf("unexpected entries: %+v", got)
	}
	if strings.Join(got[1].Members, ",") != "audit,ops" {
		t.Fatalf("unexpected members: %v", got[1].Members)
	}
}

func TestExportWithPoliciesInStore(t *testing.T) {
	records, st := newTestRecordService(t)
	ctx := context.Background()
	dir := t.TempDir()

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	_, err := records.PutUser(ctx, "alice", dto.PutUserRequest{PasswordHash: "$6$a"})
	must(err)
	for _, g := range []string{"ops", "audit"} {
		_, err = records.PutUserGroup(ctx, g, dto.PutGroupRequest{})
		must(err)
		_, err = records.PutMember(ctx, g, "alice", dto.PutMemberRequest{})
		must(err)
	}
	_, err = records.PutHost(ctx, "10.0.0.1", dto.PutHostRequest{Hostname: strPtr("core1")})
	must(err)
	for _, g := range []string{"core", "lab"} {
		_, err = records.PutHostGroup(ctx, g, dto.PutGroupRequest{TacacsKey: g + "-key"})
		must(err)
		_, err = records.PutHostMember(ctx, g, "10.0.0.1")
		must(err)
	}
	pol, err := records.PutPolicy(ctx, dto.PutPolicyRequest{UserGroup: "ops", HostGroup: "core", PrivLevel: intPtr(15)})
	must(err)
	_, err = records.PutPolicy(ctx, dto.PutPolicyRequest{UserGroup: "audit", HostGroup: "lab", AllowAccess: boolPtr(false)})
	must(err)
	id := uuid.MustParse(pol.ID)
	_, err = records.AddRule(ctx, id, dto.AddRuleRequest{Pattern: "show **", Action: "PERMIT"})
	must(err)
	_, err = records.AddAVPair(ctx, id, dto.AVPair{Key: "shell:roles", Value: "network-admin"})
	must(err)

	res, err := NewExportServiceImpl(st, dir).Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	want := map[string]string{
		FileUsers:      "user alice {\n\tpassword login = crypt $6$a\n\tmember = audit,ops\n}\n",
		FileHosts:      "host core1 {\n\taddress = 10.0.0.1\n\ttemplate = core\n}\n",
		FileHostGroups: "hostgroup core {\n\tkey = core-key\n}\n\nhostgroup lab {\n\tkey = lab-key\n}\n",
	}
	for file, content := range want {
		if res.FileContents[file] != content {
			t.Fatalf("%s content:\n%q\nwant:\n%q", file, res.FileContents[file], content)
		}
	}
	for _, f := range res.Files {
		raw, err := os.ReadFile(filepath.Join(dir, f.File))
		if err != nil {
			t.Fatalf("read %s: %v", f.File, err)
		}
		stanzas, err := tacconf.Parse(strings.NewReader(string(raw)))
		if err != nil {
			t.Fatalf("parse %s: %v", f.File, err)
		}
		if len(stanzas) != f.Records {
			t.Fatalf("%s: parsed %d stanzas, exported %d", f.File, len(stanzas), f.Records)
		}
	}
}
