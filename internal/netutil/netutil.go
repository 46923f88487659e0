package netutil

import (
	"net/netip"
	"strings"
	"unicode/utf8"
)

const MaxUserAgentLength = 512

// NormalizeIP takes either a bare IP string or an address that may include a port
// (e.g. "192.0.2.4:1234" or "[2001:db8::1]:443") and returns the canonical IP
// portion without any zone identifiers. The second return value indicates if the
// address was successfully parsed as an IP address.
func NormalizeIP(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if addrPort, err := netip.ParseAddrPort(raw); err == nil {
		if addr := addrPort.Addr().WithZone(""); addr.IsValid() {
			return addr.String(), true
		}
	}
	if addr, err := netip.ParseAddr(raw); err == nil {
		if addr = addr.WithZone(""); addr.IsValid() {
			return addr.String(), true
		}
	}
	// Bracketed IPv6 with a non-numeric port (e.g. "[::1]:port").
	if strings.HasPrefix(raw, "[") && strings.Contains(raw, "]") {
		if addr, err := netip.ParseAddr(raw[1:strings.LastIndex(raw, "]")]); err == nil {
			return addr.WithZone("").String(), true
		}
	}
	return raw, false
}

// NormalizeHostAddress canonicalizes a device address given as an IP or a
// CIDR prefix. Host bits of a prefix are kept; a full-length prefix such as
// "10.0.0.1/32" collapses to the bare address. IPv4-mapped IPv6 addresses are
// unmapped.
func NormalizeHostAddress(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if strings.Contains(raw, "/") {
		prefix, err := netip.ParsePrefix(raw)
		if err != nil {
			return raw, false
		}
		addr := prefix.Addr().Unmap()
		bits := prefix.Bits()
		if prefix.Addr().Is4In6() {
			bits -= 96
			if bits < 0 {
				return raw, false
			}
		}
		if bits == addr.BitLen() {
			return addr.String(), true
		}
		return netip.PrefixFrom(addr, bits).String(), true
	}
	addr, err := netip.ParseAddr(raw)
	if err != nil || addr.Zone() != "" {
		return raw, false
	}
	return addr.Unmap().String(), true
}

// ValidHostname reports whether name is a DNS hostname made of RFC 1123
// labels.
func ValidHostname(name string) bool {
	if name == "" || len(name) > 253 {
		return false
	}
	for _, label := range strings.Split(strings.TrimSuffix(name, "."), ".") {
		if label == "" || len(label) > 63 {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for i := 0; i < len(label); i++ {
			c := label[i]
			if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c == '_') {
				return false
			}
		}
	}
	return true
}

// TruncateUserAgent trims overly long user agents to MaxUserAgentLength runes.
func TruncateUserAgent(ua string) string {
	if utf8.RuneCountInString(ua) <= MaxUserAgentLength {
		return ua
	}
	var builder strings.Builder
	builder.Grow(len(ua))
	count := 0
	for _, r := range ua {
		builder.WriteRune(r)
		count++
		if count >= MaxUserAgentLength {
			break
		}
	}
	return builder.String()
}
