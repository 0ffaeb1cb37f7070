// Package pathmatch matches slash-separated names against find -path patterns.
//
// Patterns follow fnmatch(3) without FNM_PATHNAME, so wildcards cross directory
// separators: "uploads/*.pdf" matches "uploads/2024/consent.pdf".
//   - "*" matches any sequence of characters
//   - "?" matches one character
//   - "[a-z]" matches one character from the class, "[!a-z]" negates it
//   - a backslash makes the next character literal
package pathmatch

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// Match reports whether name matches pattern.
func Match(pattern, name string) (bool, error) {
	re, err := compile(pattern)
	if err != nil {
		return false, err
	}

	return re.MatchString(name), nil
}

// Set is a compiled group of patterns.
type Set struct {
	patterns []*regexp.Regexp
}

// Compile compiles patterns into a Set. An empty Set matches nothing.
func Compile(patterns ...string) (*Set, error) {
	set := &Set{patterns: make([]*regexp.Regexp, 0, len(patterns))}

	for _, p := range patterns {
		re, err := compile(p)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}

		set.patterns = append(set.patterns, re)
	}

	return set, nil
}

// Len returns the number of patterns in the set.
func (s *Set) Len() int {
	return len(s.patterns)
}

// MatchAny reports whether name matches any pattern of the set.
func (s *Set) MatchAny(name string) bool {
	for _, re := range s.patterns {
		if re.MatchString(name) {
			return true
		}
	}

	return false
}

var compiled sync.Map //nolint:gochecknoglobals // compiled patterns are immutable

func compile(pattern string) (*regexp.Regexp, error) {
	if v, ok := compiled.Load(pattern); ok {
		return v.(*regexp.Regexp), nil //nolint:forcetypeassert // only *regexp.Regexp is stored
	}

	expr, err := translate(pattern)
	if err != nil {
		return nil, err
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compiling pattern %q: %w", pattern, err)
	}

	compiled.Store(pattern, re)

	return re, nil
}

// translate rewrites a pattern as an anchored regular expression.
func translate(pattern string) (string, error) {
	var b strings.Builder

	b.WriteString(`^(?s:`)

	runes := []rune(pattern)

	for i := 0; i < len(runes); i++ {
		switch r := runes[i]; r {
		case '*':
			b.WriteString(`.*`)
		case '?':
			b.WriteString(`.`)
		case '\\':
			if i+1 == len(runes) {
				return "", fmt.Errorf("trailing backslash in pattern %q", pattern)
			}

			i++
			b.WriteString(regexp.QuoteMeta(string(runes[i])))
		case '[':
			end := classEnd(runes, i)
			if end < 0 {
				return "", fmt.Errorf("unclosed character class in pattern %q", pattern)
			}

			b.WriteString(class(runes[i+1 : end]))

			i = end
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}

	b.WriteString(`)$`)

	return b.String(), nil
}

// classEnd returns the index of the ] closing the class opened at start, or -1.
// A ] directly after the opening bracket (or its negation) is literal.
func classEnd(runes []rune, start int) int {
	i := start + 1

	if i < len(runes) && runes[i] == '!' {
		i++
	}

	if i < len(runes) && runes[i] == ']' {
		i++
	}

	for ; i < len(runes); i++ {
		if runes[i] == ']' {
			return i
		}
	}

	return -1
}

// class renders the body of a bracket expression as a regexp class.
func class(body []rune) string {
	var b strings.Builder

	b.WriteByte('[')

	if len(body) > 0 && body[0] == '!' {
		b.WriteByte('^')

		body = body[1:]
	}

	for _, r := range body {
		switch r {
		case '\\', '[', ']', '^':
			b.WriteByte('\\')
		}

		b.WriteRune(r)
	}

	b.WriteByte(']')

	return b.String()
}
