package tacconf

import (
	"reflect"
	"strings"
	"testing"
)

func TestRenderUsers(t *testing.T) {
	got := RenderUsers([]UserEntry{
		{Name: "alice", PasswordHash: "$2a$10$abc", Members: []string{"netops", "noc"}},
		{Name: "bob", PasswordHash: "$2a$10$def"},
	})
	want := "user alice {\n\tpassword login = crypt $2a$10$abc\n\tmember = netops,noc\n}\n\n" +
		"user bob {\n\tpassword login = crypt $2a$10$def\n\tmember = \n}\n"
	if got != want {
		t.Fatalf("unexpected users file:\n%q\nwant:\n%q", got, want)
	}
}

func TestRenderEmpty(t *testing.T) {
	if got := RenderHosts(nil); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}

func TestRenderHostsAndGroups(t *testing.T) {
	hosts := RenderHosts([]HostEntry{{Name: "core1", Address: "10.0.0.1", Template: "core"}})
	if hosts != "host core1 {\n\taddress = 10.0.0.1\n\ttemplate = core\n}\n" {
		t.Fatalf("unexpected hosts file %q", hosts)
	}
	groups := RenderHostGroups([]HostGroupEntry{{Name: "core", Key: "s3cret"}, {Name: "edge"}})
	if groups != "hostgroup core {\n\tkey = s3cret\n}\n\nhostgroup edge {\n\tkey = \n}\n" {
		t.Fatalf("unexpected host_groups file %q", groups)
	}
}

func TestRoundTrip(t *testing.T) {
	users := []UserEntry{
		{Name: "alice", PasswordHash: "$2a$10$abc", Members: []string{"netops", "noc"}},
		{Name: "bob", PasswordHash: "$2a$10$def"},
	}
	hosts := []HostEntry{
		{Name: "core1", Address: "10.0.0.1", Template: "core"},
		{Name: "10.0.0.9", Address: "10.0.0.9"},
	}
	groups := []HostGroupEntry{{Name: "core", Key: "k1"}, {Name: "edge", Key: ""}}

	parsedUsers, err := Parse(strings.NewReader(RenderUsers(users)))
	if err != nil {
		t.Fatalf("parse users: %v", err)
	}
	if got := Users(parsedUsers); !reflect.DeepEqual(got, users) {
		t.Fatalf("users round trip:\n%+v\nwant\n%+v", got, users)
	}

	parsedHosts, err := Parse(strings.NewReader(RenderHosts(hosts)))
	if err != nil {
		t.Fatalf("parse hosts: %v", err)
	}
	if got := Hosts(parsedHosts); !reflect.DeepEqual(got, hosts) {
		t.Fatalf("hosts round trip:\n%+v\nwant\n%+v", got, hosts)
	}

	parsedGroups, err := Parse(strings.NewReader(RenderHostGroups(groups)))
	if err != nil {
		t.Fatalf("parse groups: %v", err)
	}
	if got := HostGroups(parsedGroups); !reflect.DeepEqual(got, groups) {
		t.Fatalf("groups round trip:\n%+v\nwant\n%+v", got, groups)
	}
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"missing brace":   "user alice\n",
		"unterminated":    "user alice {\n\tmember = x\n",
		"attribute no eq": "host h {\n\taddress 10.0.0.1\n}\n",
	}
	for name, input := range cases {
		if _, err := Parse(strings.NewReader(input)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
