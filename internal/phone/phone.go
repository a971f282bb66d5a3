// Package phone normalizes phone identifiers into comparable session keys.
package phone

import "strings"

// Canonicalizer rewrites phone identifiers into the canonical form used as
// the session key: digits only, with the country code prefixed when the
// sender supplied a bare 10-digit local number.
type Canonicalizer struct {
	CountryCode string
}

// Canonical strips separators and a leading plus sign, then prefixes the
// country code for bare 10-digit local numbers. The operation is idempotent:
// once a number carries the country code its length is no longer 10.
func (c Canonicalizer) Canonical(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 10 {
		return c.CountryCode + digits
	}
	return digits
}

// CanonicalAll maps Canonical over a list of identifiers.
func (c Canonicalizer) CanonicalAll(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		out = append(out, c.Canonical(r))
	}
	return out
}
