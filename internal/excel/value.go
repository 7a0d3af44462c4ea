package excel

import (
	"strconv"
	"strings"
)

type Kind int

const (
	KindAbsent Kind = iota
	KindString
	KindNumber
)

// Value is a single cell: a string, a number or nothing at all.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
}

func Absent() Value { return Value{} }

func String(s string) Value { return Value{Kind: KindString, Str: s} }

func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }

func (v Value) IsAbsent() bool { return v.Kind == KindAbsent }

func (v Value) IsNumber() bool { return v.Kind == KindNumber }

// Text renders the value as a string. Numbers never use exponent notation,
// so long identifiers stored as numbers keep every digit.
func (v Value) Text() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	default:
		return ""
	}
}

// IsBlank reports whether the value carries no visible content.
func (v Value) IsBlank() bool {
	return strings.TrimSpace(v.Text()) == ""
}

// ValueOf converts a decoded JSON scalar into a Value.
func ValueOf(raw interface{}) Value {
	switch t := raw.(type) {
	case nil:
		return Absent()
	case string:
		return String(t)
	case float64:
		return Number(t)
	case int:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case Value:
		return t
	default:
		return Absent()
	}
}

type Cell struct {
	Header string
	Value  Value
}

// Row is one data row as ordered header/value pairs. Number is the 1-based
// row number in the source sheet.
type Row struct {
	Number int
	Cells  []Cell
}

func (r Row) Headers() []string {
	headers := make([]string, len(r.Cells))
	for i, c := range r.Cells {
		headers[i] = c.Header
	}
	return headers
}

func (r Row) Get(header string) (Value, bool) {
	for _, c := range r.Cells {
		if c.Header == header {
			return c.Value, true
		}
	}
	return Absent(), false
}

// Map flattens the row for diagnostics.
func (r Row) Map() map[string]string {
	out := make(map[string]string, len(r.Cells))
	for _, c := range r.Cells {
		out[c.Header] = c.Value.Text()
	}
	return out
}

// Sheet is the first worksheet of a workbook after decoding.
type Sheet struct {
	Name    string
	Headers []string
	Rows    []Row
}
