package diff

import (
	"strings"

	"golang.org/x/text/cases"
)

// Normalizer produces comparison-only canonical forms of identifiers. The
// result is never meant for display.
type Normalizer struct {
	fold   bool
	folder cases.Caser
}

// NewNormalizer creates a normalizer for the given gate. Case folding is
// disabled when the backend preserves identifier case (NoNameNormalize).
func NewNormalizer(gate Gate) *Normalizer {
	return &Normalizer{
		fold:   !gate.Enabled(NoNameNormalize),
		folder: cases.Fold(),
	}
}

// Name returns the canonical form of a raw identifier
func (n *Normalizer) Name(raw string) string {
	if !n.fold {
		return raw
	}
	return n.folder.String(raw)
}

// Names normalizes each identifier, preserving order
func (n *Normalizer) Names(raw []string) []string {
	out := make([]string, len(raw))
	for i, r := range raw {
		out[i] = n.Name(r)
	}
	return out
}

// normalizeToken canonicalizes an option keyword: case-insensitive and
// insensitive to repeated whitespace ("set  null" == "SET NULL").
func normalizeToken(value *string) string {
	if value == nil {
		return ""
	}
	return strings.ToUpper(strings.Join(strings.Fields(*value), " "))
}
