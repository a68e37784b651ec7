package core

import "strings"

// Format identifies which of the two known export layouts a CSV uses.
type Format string

const (
	// FormatOld is the legacy positional export: 36 columns in a fixed
	// order matching the delivery_success table exactly.
	FormatOld Format = "old"

	// FormatNew is the current export: 33 columns addressed by header name,
	// with renamed columns and per-reason failure counts.
	FormatNew Format = "new"
)

// DetectFormat classifies a header row as FormatOld or FormatNew.
//
// The heuristic is layered because header naming is inconsistent across
// real exports, and each layer was tuned against files seen in production:
//
//  1. Exactly 33 columns with a "cluster" column, or a column named exactly
//     "ciclo" (not "ciclo_final"), marks the new layout.
//  2. Any column containing "ciclo_final" as a substring, or named exactly
//     "clus", marks the old layout. Substring-vs-exact matters here:
//     "ciclo_final" shows up embedded in decorated headers, "clus" does not.
//  3. Otherwise fall back on the column count: exactly 36 is old, anything
//     else is new.
//
// The precedence between the named-marker checks and the count fallback is
// intentional; do not simplify it.
func DetectFormat(headers []string) Format {
	if len(headers) == 33 {
		hasCluster := false
		hasCiclo := false
		for _, h := range headers {
			lower := strings.ToLower(strings.TrimSpace(h))
			if lower == "cluster" {
				hasCluster = true
			}
			if lower == "ciclo" && !strings.Contains(strings.ToLower(h), "final") {
				hasCiclo = true
			}
		}
		if hasCluster || hasCiclo {
			return FormatNew
		}
	}

	for _, h := range headers {
		if strings.Contains(strings.ToLower(h), "ciclo_final") {
			return FormatOld
		}
		if strings.ToLower(strings.TrimSpace(h)) == "clus" {
			return FormatOld
		}
	}

	if len(headers) == 36 {
		return FormatOld
	}
	return FormatNew
}
