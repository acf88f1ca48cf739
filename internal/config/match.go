package config

import "strings"

// Match reports whether the value matches the pattern.
// *x* matches contains, *x suffix, x* prefix, anything else exactly.
func Match(pattern, value string) bool {
	if pattern == "" {
		return false
	}
	if pattern == "*" {
		return true
	}

	// *x* matches contains
	if strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*") {
		inner := pattern[1 : len(pattern)-1]
		return strings.Contains(value, inner)
	}

	// *x matches suffix
	if strings.HasPrefix(pattern, "*") {
		return strings.HasSuffix(value, pattern[1:])
	}

	// x* matches prefix
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(value, pattern[:len(pattern)-1])
	}

	return value == pattern
}

// MatchAny reports whether the value matches any of the patterns.
func MatchAny(patterns []string, value string) bool {
	for _, p := range patterns {
		if Match(p, value) {
			return true
		}
	}
	return false
}
