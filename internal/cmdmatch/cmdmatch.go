// Package cmdmatch matches device commands against command rule patterns.
//
// Commands and patterns are compared token by token after splitting on
// whitespace:
//
//   - Each pattern token is a glob with no separators: "*" matches any run of
//     characters including "/", "?" one character, "[Gg]" a class and
//     "{ip,ipv6}" either alternative
//   - A trailing "**" token matches zero or more remaining command tokens
//   - The pattern "**" matches every command, including the empty one
//
// Every command token must be consumed, so "show" does not match
// "show running-config". Matching is case-sensitive.
package cmdmatch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

const rest = "**"

var ErrBadPattern = errors.New("bad command pattern")

// Validate rejects patterns that could never match because a token is not a
// well-formed glob, or that use "**" anywhere but the last position.
func Validate(pattern string) error {
	tokens := strings.Fields(pattern)
	if len(tokens) == 0 {
		return fmt.Errorf("%w: empty pattern", ErrBadPattern)
	}
	for i, tok := range tokens {
		if tok == rest {
			if i != len(tokens)-1 {
				return fmt.Errorf("%w: %q only allowed as the last token", ErrBadPattern, rest)
			}
			continue
		}
		if strings.Contains(tok, rest) {
			return fmt.Errorf("%w: %q must be a whole token", ErrBadPattern, rest)
		}
		if _, err := glob.Compile(tok); err != nil {
			return fmt.Errorf("%w: token %q: %v", ErrBadPattern, tok, err)
		}
	}
	return nil
}

// compile turns the tokens before a trailing "**" into matchers.
func compile(pattern string) (globs []glob.Glob, open bool, err error) {
	if err := Validate(pattern); err != nil {
		return nil, false, err
	}
	for _, tok := range strings.Fields(pattern) {
		if tok == rest {
			return globs, true, nil
		}
		g, err := glob.Compile(tok)
		if err != nil {
			return nil, false, err
		}
		globs = append(globs, g)
	}
	return globs, false, nil
}

// Match reports whether command matches pattern. Malformed patterns never
// match.
func Match(pattern, command string) bool {
	globs, open, err := compile(pattern)
	if err != nil {
		return false
	}
	ct := strings.Fields(command)
	if len(ct) < len(globs) || (!open && len(ct) != len(globs)) {
		return false
	}
	for i, g := range globs {
		if !g.Match(ct[i]) {
			return false
		}
	}
	return true
}
