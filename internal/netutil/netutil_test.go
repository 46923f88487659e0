package netutil

import "testing"

func TestNormalizeIP(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{name: "ipv4 with port", input: "192.0.2.4:8080", expected: "192.0.2.4", ok: true},
		{name: "ipv6 with port", input: "[2001:db8::1]:443", expected: "2001:db8::1", ok: true},
		{name: "ipv6 textual port", input: "[::1]:port", expected: "::1", ok: true},
		{name: "plain ipv4", input: "203.0.113.9", expected: "203.0.113.9", ok: true},
		{name: "invalid", input: "not-an-ip", expected: "not-an-ip", ok: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NormalizeIP(tc.input)
			if ok != tc.ok {
				t.Fatalf("expected ok=%v, got %v", tc.ok, ok)
			}
			if got != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestNormalizeHostAddress(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{name: "ipv4", input: " 10.0.0.1 ", expected: "10.0.0.1", ok: true},
		{name: "ipv6 compressed", input: "2001:0db8:0000::0001", expected: "2001:db8::1", ok: true},
		{name: "ipv4 full prefix", input: "10.0.0.1/32", expected: "10.0.0.1", ok: true},
		{name: "ipv4 network", input: "10.1.0.0/16", expected: "10.1.0.0/16", ok: true},
		{name: "host bits kept", input: "10.1.2.3/16", expected: "10.1.2.3/16", ok: true},
		{name: "mapped", input: "::ffff:192.0.2.1", expected: "192.0.2.1", ok: true},
		{name: "mapped prefix", input: "::ffff:192.0.2.0/120", expected: "192.0.2.0/24", ok: true},
		{name: "zone", input: "fe80::1%eth0", expected: "fe80::1%eth0", ok: false},
		{name: "bad prefix", input: "10.0.0.0/33", expected: "10.0.0.0/33", ok: false},
		{name: "hostname", input: "core1", expected: "core1", ok: false},
		{name: "empty", input: "", expected: "", ok: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NormalizeHostAddress(tc.input)
			if ok != tc.ok {
				t.Fatalf("expected ok=%v, got %v", tc.ok, ok)
			}
			if got != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestValidHostname(t *testing.T) {
	for _, name := range []string{"core1", "core-1.dc1.example.net", "sw_01", "a.b."} {
		if !ValidHostname(name) {
			t.Fatalf("expected %q to be valid", name)
		}
	}
	for _, name := range []string{"", "-core", "core-", "a..b", "has space", "host/1"} {
		if ValidHostname(name) {
			t.Fatalf("expected %q to be invalid", name)
		}
	}
}

func TestTruncateUserAgent(t *testing.T) {
	longUA := make([]rune, MaxUserAgentLength+10)
	for i := range longUA {
		longUA[i] = 'a'
	}
	truncated := TruncateUserAgent(string(longUA))
	if len([]rune(truncated)) != MaxUserAgentLength {
		t.Fatalf("expected %d runes, got %d", MaxUserAgentLength, len([]rune(truncated)))
	}
}
