// Package tacconf renders and parses the stanza files consumed by tac_plus-ng.
package tacconf

import (
	"strings"
)

const (
	KindUser      = "user"
	KindHost      = "host"
	KindHostGroup = "hostgroup"
)

type UserEntry struct {
	Name         string
	PasswordHash string
	Members      []string
}

type HostEntry struct {
	Name     string
	Address  string
	Template string
}

type HostGroupEntry struct {
	Name string
	Key  string
}

func RenderUsers(users []UserEntry) string {
	blocks := make([]string, 0, len(users))
	for _, u := range users {
		blocks = append(blocks, stanza(KindUser, u.Name,
			"password login = crypt "+u.PasswordHash,
			"member = "+strings.Join(u.Members, ","),
		))
	}
	return join(blocks)
}

func RenderHosts(hosts []HostEntry) string {
	blocks := make([]string, 0, len(hosts))
	for _, h := range hosts {
		blocks = append(blocks, stanza(KindHost, h.Name,
			"address = "+h.Address,
			"template = "+h.Template,
		))
	}
	return join(blocks)
}

func RenderHostGroups(groups []HostGroupEntry) string {
	blocks := make([]string, 0, len(groups))
	for _, g := range groups {
		blocks = append(blocks, stanza(KindHostGroup, g.Name, "key = "+g.Key))
	}
	return join(blocks)
}

func stanza(kind, name string, attrs ...string) string {
	var b strings.Builder
	b.WriteString(kind + " " + name + " {\n")
	for _, a := range attrs {
		b.WriteString("\t" + a + "\n")
	}
	b.WriteString("}")
	return b.String()
}

// join separates stanzas by one blank line. Non-empty output ends in a newline.
func join(blocks []string) string {
	if len(blocks) == 0 {
		return ""
	}
	return strings.Join(blocks, "\n\n") + "\n"
}
