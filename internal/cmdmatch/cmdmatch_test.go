package cmdmatch

import (
	"errors"
	"testing"
)

func TestMatch(t *testing.T) {
	cases := []struct {
		pattern string
		command string
		want    bool
	}{
		{"**", "anything at all", true},
		{"**", "", true},
		{"show running-config", "show running-config", true},
		{"show running-config", "show  running-config ", true},
		{"show", "show running-config", false},
		{"show *", "show version", true},
		{"show *", "show ip route", false},
		{"show **", "show", true},
		{"show **", "show ip route", true},
		{"sh* ver*", "show version", true},
		{"show ?", "show a", true},
		{"show ?", "show ab", false},
		{"interface [Gg]i*", "interface Gi0/1", true},
		{"interface [Gg]i*", "interface te0/1", false},
		{"interface *", "interface GigabitEthernet0/1", true},
		{"show ip route *", "show ip route 10.0.0.0/8", true},
		{"copy * tftp", "copy flash:/a.bin tftp", true},
		{"copy * tftp", "copy flash:/a.bin tftp extra", false},
		{"show ip? route", "show ipv6 route", false},
		{"show {ip,ipv6} route", "show ipv6 route", true},
		{"show int*/?", "show interface0/1", true},
		{"Show *", "show version", false},
		{"reload", "", false},
		{"show [", "show [", false},
		{"** show", "show", false},
	}
	for _, tc := range cases {
		if got := Match(tc.pattern, tc.command); got != tc.want {
			t.Fatalf("Match(%q, %q): expected %v, got %v", tc.pattern, tc.command, tc.want, got)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := []string{"**", "show *", "configure terminal", "interface [a-z]*", "show **"}
	for _, p := range valid {
		if err := Validate(p); err != nil {
			t.Fatalf("Validate(%q): %v", p, err)
		}
	}

	invalid := []string{"", "   ", "show [", "** show", "show x**", "show ** run"}
	for _, p := range invalid {
		if err := Validate(p); !errors.Is(err, ErrBadPattern) {
			t.Fatalf("Validate(%q): expected ErrBadPattern, got %v", p, err)
		}
	}
}
