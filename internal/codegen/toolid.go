// Package codegen produces tool identifiers, barcode strings, QR payloads and
// barcode images. Everything here is pure except the clock and random source
// used for barcodes and QR payloads.
package codegen

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultPrefix is used for workshops outside the known mapping.
const DefaultPrefix = "TL"

var toolPrefixes = map[string]string{
	"Aviation":   "AVT",
	"Mechanical": "MCH",
	"Electrical": "ELC",
}

// ToolPrefix maps a workshop name to its identifier prefix. Matching is
// case-sensitive; unknown names (including "" and "All") get DefaultPrefix.
func ToolPrefix(workshop string) string {
	if p, ok := toolPrefixes[workshop]; ok {
		return p
	}
	return DefaultPrefix
}

// GenerateToolID returns the next identifier for workshop given the
// identifiers already in use, e.g. "AVT-006" after "AVT-005".
func GenerateToolID(workshop string, existingIDs []string) string {
	return NextSequenceID(ToolPrefix(workshop), existingIDs)
}

// NextSequenceID returns prefix-NNN where NNN is one more than the highest
// sequence already used for prefix. Entries that do not parse are ignored,
// as is a suffix of math.MaxInt, which has no successor. The number is
// zero-padded to at least three digits.
func NextSequenceID(prefix string, existingIDs []string) string {
	highest := 0
	for _, id := range existingIDs {
		if n, ok := ParseSequence(prefix, id); ok && n < math.MaxInt && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s-%03d", prefix, highest+1)
}

// ParseSequence extracts the numeric suffix of id when it has the form
// prefix-digits.
func ParseSequence(prefix, id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, prefix+"-")
	if !ok || rest == "" {
		return 0, false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}
