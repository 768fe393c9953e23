// Package contentfilter classifies words and free text as appropriate or not
// for a viewer of a given age.
//
// Every function is pure: the result depends only on the input text and the
// age. The blocklists and category patterns are package-level tables built
// once at init and never mutated.
//
// # Age Groups
//
//	2-5   max complexity 3, full blocklist
//	6-8   max complexity 5, full blocklist
//	9-12  max complexity 7, full blocklist
//	13+   max complexity 10, only the most explicit part of the blocklist
//
// Ages below 2 are treated as the youngest group.
//
// # Severity
//
// A blocked word (exact blocklist hit or category pattern) is high severity.
// Definitions or examples that merely contain a blocklisted word are medium.
// Words shorter than two characters are rejected with low severity.
package contentfilter
