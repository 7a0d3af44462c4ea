package normalize

import (
	"strings"
	"unicode"

	"personnel-registry/internal/excel"
)

// Text coerces a cell to a trimmed string. Absent cells give "".
func Text(v excel.Value) string {
	return strings.TrimSpace(v.Text())
}

// Name is Text, upper cased when upper is set.
func Name(v excel.Value, upper bool) string {
	s := Text(v)
	if upper {
		s = strings.ToUpper(s)
	}
	return s
}

// CodeNo trims the institutional code. Case is preserved; comparisons fold
// it through model.FoldCode.
func CodeNo(v excel.Value) string {
	return Text(v)
}

// AdhaarNo removes every whitespace character, wherever it appears.
func AdhaarNo(v excel.Value) string {
	return StripSpaces(v.Text())
}

func StripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
