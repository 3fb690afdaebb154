package util

import (
	"strings"
	"unicode"
)

// NormalizeCode canonicalizes a free-text product code for catalogue
// identity: upper-case, with whitespace, parentheses, hyphens and
// underscores removed. Every lookup in the pipeline and every UI surface
// must go through this one function; a second normalizer would make
// catalogue entries silently stop matching.
func NormalizeCode(input string) string {
	s := strings.ToUpper(input)
	out := strings.Builder{}
	out.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		switch r {
		case '(', ')', '-', '_':
			continue
		}
		out.WriteRune(r)
	}
	return out.String()
}

// CollapseSpaces trims and squeezes runs of whitespace to single spaces.
func CollapseSpaces(input string) string {
	return strings.Join(strings.Fields(input), " ")
}

func StringPtr(v string) *string { return &v }

func FloatPtr(v float64) *float64 { return &v }

func IntPtr(v int) *int { return &v }
