// Package normalize implements the single label-normalization function
// shared by the DOM indexer and the matcher (spec §4.4).
package normalize

import "strings"

// Normalize lower-cases s, trims leading/trailing whitespace, and collapses
// internal runs of whitespace to a single space. It performs no punctuation
// stripping and no Unicode folding (spec §4.4, §3 "Normalized Label").
//
// Normalize is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	lower := strings.ToLower(s)
	fields := strings.Fields(lower)
	return strings.Join(fields, " ")
}
