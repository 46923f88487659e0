package tacconf

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

type Attr struct {
	Key   string
	Value string
}

type Stanza struct {
	Kind  string
	Name  string
	Attrs []Attr
}

// Get returns the value of the first attribute named key.
func (s Stanza) Get(key string) (string, bool) {
	for _, a := range s.Attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Parse reads stanzas written by the Render functions. Blank lines and lines
// starting with '#' are skipped.
func Parse(r io.Reader) ([]Stanza, error) {
	var (
		out  []Stanza
		cur  *Stanza
		line int
	)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		if cur == nil {
			fields := strings.Fields(text)
			if len(fields) != 3 || fields[2] != "{" {
				return nil, fmt.Errorf("line %d: expected \"<kind> <name> {\", got %q", line, text)
			}
			cur = &Stanza{Kind: fields[0], Name: fields[1]}
			continue
		}

		if text == "}" {
			out = append(out, *cur)
			cur = nil
			continue
		}
		key, value, ok := strings.Cut(text, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: expected \"key = value\", got %q", line, text)
		}
		cur.Attrs = append(cur.Attrs, Attr{Key: strings.TrimSpace(key), Value: strings.TrimSpace(value)})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if cur != nil {
		return nil, fmt.Errorf("line %d: unterminated %s %s", line, cur.Kind, cur.Name)
	}
	return out, nil
}

// Users converts parsed user stanzas back into entries.
func Users(stanzas []Stanza) []UserEntry {
	var out []UserEntry
	for _, s := range stanzas {
		if s.Kind != KindUser {
			continue
		}
		e := UserEntry{Name: s.Name}
		if pw, ok := s.Get("password login"); ok {
			e.PasswordHash = strings.TrimSpace(strings.TrimPrefix(pw, "crypt"))
		}
		if m, _ := s.Get("member"); m != "" {
			e.Members = strings.Split(m, ",")
		}
		out = append(out, e)
	}
	return out
}

func Hosts(stanzas []Stanza) []HostEntry {
	var out []HostEntry
	for _, s := range stanzas {
		if s.Kind != KindHost {
			continue
		}
		addr, _ := s.Get("address")
		tmpl, _ := s.Get("template")
		out = append(out, HostEntry{Name: s.Name, Address: addr, Template: tmpl})
	}
	return out
}

func HostGroups(stanzas []Stanza) []HostGroupEntry {
	var out []HostGroupEntry
	for _, s := range stanzas {
		if s.Kind != KindHostGroup {
			continue
		}
		key, _ := s.Get("key")
		out = append(out, HostGroupEntry{Name: s.Name, Key: key})
	}
	return out
}
