// Package enrich links on-chain addresses to human-readable metadata —
// publicly known owner aliases and exchange on-ramp user IDs — gathered
// from operator-supplied JSON files, not from the chain itself.
package enrich

import "strings"

// NormalizeAddress accepts an address string in any of the casings and
// "0x"-or-not prefixing an operator's source files tend to use, and
// returns the canonical lowercase "0x"-prefixed hex literal. It never
// fails and does not validate: every input, malformed or not, is trimmed,
// lowercased and given a "0x" prefix.
func NormalizeAddress(s string) string {
	lower := strings.ToLower(strings.TrimSpace(s))
	if !strings.HasPrefix(lower, "0x") {
		lower = "0x" + lower
	}
	return lower
}
