// Package normalizers holds the named string normalizers applied to record
// fields on their way in and out of the service.
package normalizers

import (
	"strings"
	"unicode"
)

// Normalizer is a function that normalizes a string value
type Normalizer func(string) string

var registry = make(map[string]Normalizer)

const (
	NameTrim     = "trim"
	NameSquash   = "squash_spaces"
	NameLower    = "lowercase"
	NameEmail    = "nemail"
	NamePhone    = "nphone"
	NameHostname = "nhostname"
)

func init() {
	Register(NameTrim, Trim)
	Register(NameSquash, SquashSpaces)
	Register(NameLower, Lowercase)
	Register(NameEmail, NormalizeEmail)
	Register(NamePhone, NormalizePhone)
	Register(NameHostname, NormalizeHostname)
}

// Register adds a normalizer to the registry
func Register(name string, fn Normalizer) {
	registry[name] = fn
}

// Get retrieves a normalizer by name
func Get(name string) (Normalizer, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Apply applies a named normalizer to a value. Unknown names are ignored.
func Apply(value, normalizer string) string {
	fn, ok := registry[normalizer]
	if !ok {
		return value
	}
	return fn(value)
}

// ApplyChain applies multiple normalizers in sequence
func ApplyChain(value string, normalizers ...string) string {
	for _, name := range normalizers {
		value = Apply(value, name)
	}
	return value
}

// Trim removes leading and trailing whitespace
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// SquashSpaces trims and collapses inner runs of whitespace to one space.
func SquashSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func Lowercase(s string) string {
	return strings.ToLower(s)
}

// NormalizeEmail normalizes an email address (lowercase, trim)
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizePhone keeps digits and a leading plus sign.
func NormalizePhone(s string) string {
	s = strings.TrimSpace(s)
	var result strings.Builder
	for i, r := range s {
		if unicode.IsDigit(r) || (i == 0 && r == '+') {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// NormalizeHostname lowercases a domain and strips a scheme, "www." and any path.
func NormalizeHostname(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	s = strings.TrimPrefix(s, "www.")
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	return s
}
