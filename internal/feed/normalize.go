package feed

import "strings"

// normalizeName lowercases and strips everything but letters and digits, so
// "Arsenal F.C." and "arsenal fc" compare equal.
func normalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// namesMatch reports whether a provider display name refers to the same team
// as an internal record name. Provider names are frequently abbreviated or
// expanded relative to ours, so containment runs both ways.
func namesMatch(query, candidate string) bool {
	q := normalizeName(query)
	c := normalizeName(candidate)
	if q == "" || c == "" {
		return false
	}
	return strings.Contains(q, c) || strings.Contains(c, q)
}
