package normalize

// Field names a canonical record field.
type Field string

const (
	FieldName        Field = "name"
	FieldDesignation Field = "designation"
	FieldWorkingArea Field = "workingArea"
	FieldValidUpto   Field = "validUpto"
	FieldCodeNo      Field = "codeNo"
	FieldAdhaarNo    Field = "adhaarNo"
)

// Fields lists the canonical fields in column order.
var Fields = []Field{
	FieldName,
	FieldDesignation,
	FieldWorkingArea,
	FieldValidUpto,
	FieldCodeNo,
	FieldAdhaarNo,
}

// AliasTable lists, per field, the header spellings accepted for it in
// priority order.
type AliasTable map[Field][]string

// DefaultAliases is the header vocabulary seen in personnel sheets.
var DefaultAliases = AliasTable{
	FieldName:        {"Name", "name"},
	FieldDesignation: {"Designation", "designation", "job title"},
	FieldWorkingArea: {"Working Area", "working area", "workingarea", "area"},
	FieldValidUpto:   {"Valid Up-to", "Valid Upto", "Valid U pto", "valid upto", "valid up to", "validupto", "valid"},
	FieldCodeNo:      {"Code No", "Code No.", "CodeNo", "code no", "codeno"},
	FieldAdhaarNo:    {"Adhaar no", "Aadhaar No", "Aadhaar", "adhaar", "aadhaar no", "aadhaar"},
}

// Resolve returns the sheet header matching the first alias, in alias
// order, whose normalized form equals a normalized sheet header.
func Resolve(headers []string, aliases []string) (string, bool) {
	return resolveIn(headerIndex(headers), aliases)
}

// headerIndex keys sheet headers by their normalized form. When two headers
// normalize alike the rightmost one wins.
func headerIndex(headers []string) map[string]string {
	index := make(map[string]string, len(headers))
	for _, h := range headers {
		key := Header(h)
		if key == "" {
			continue
		}
		index[key] = h
	}
	return index
}

func resolveIn(index map[string]string, aliases []string) (string, bool) {
	for _, alias := range aliases {
		if h, ok := index[Header(alias)]; ok {
			return h, true
		}
	}
	return "", false
}

// Columns maps each field to the sheet header that carries it. Fields with
// no matching header are absent.
type Columns map[Field]string

// ResolveAll resolves every canonical field against one set of headers.
// Table entries for fields outside Fields are ignored.
func ResolveAll(headers []string, table AliasTable) Columns {
	index := headerIndex(headers)
	cols := make(Columns, len(Fields))
	for _, field := range Fields {
		if h, ok := resolveIn(index, table[field]); ok {
			cols[field] = h
		}
	}
	return cols
}
