package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Header turns a raw column name into its match key: NFKC folded, lower
// cased, without punctuation or underscores, single spaced and trimmed.
// Header(Header(x)) == Header(x).
func Header(raw string) string {
	if raw == "" {
		return ""
	}

	folded := norm.NFKC.String(raw)

	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
		case r == '_' || unicode.IsPunct(r) || unicode.IsSymbol(r):
			// dropped without leaving a gap: "Up-to" matches "upto"
		default:
			if pendingSpace {
				b.WriteByte(' ')
				pendingSpace = false
			}
			b.WriteRune(r)
		}
	}

	return b.String()
}
