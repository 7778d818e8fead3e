// Package slug derives URL path segments from category names and book titles.
package slug

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Fallback is used when a title has no ASCII letters or digits at all.
const Fallback = "book"

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// reserved collide with fixed route segments under /tech/{category}/.
var reserved = map[string]bool{
	"json":   true,
	"edit":   true,
	"delete": true,
	"new":    true,
}

// Make converts text to a slug. It is deterministic:
// "Deep Work" -> "deep-work", "Café Society" -> "cafe-society".
func Make(text string) string {
	s := norm.NFKD.String(text)
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)
	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return Fallback
	}
	return s
}

// IsReserved reports whether s is a route keyword.
func IsReserved(s string) bool {
	return reserved[s]
}

// Unique returns base, or base-2, base-3, ... for the first candidate that
// taken reports as free. Reserved words are never returned.
func Unique(base string, taken func(candidate string) (bool, error)) (string, error) {
	for n := 1; ; n++ {
		candidate := base
		if n > 1 {
			candidate = base + "-" + strconv.Itoa(n)
		}
		if IsReserved(candidate) {
			continue
		}
		used, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !used {
			return candidate, nil
		}
	}
}
