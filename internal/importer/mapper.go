package importer

import (
	"personnel-registry/internal/excel"
	"personnel-registry/internal/model"
	"personnel-registry/internal/normalize"
)

// Mapper turns decoded rows into record candidates.
type Mapper struct {
	aliases        normalize.AliasTable
	uppercaseNames bool
	strictDates    bool
}

func NewMapper(aliases normalize.AliasTable, uppercaseNames, strictDates bool) *Mapper {
	if aliases == nil {
		aliases = normalize.DefaultAliases
	}
	return &Mapper{
		aliases:        aliases,
		uppercaseNames: uppercaseNames,
		strictDates:    strictDates,
	}
}

// Columns resolves the field columns for one set of headers. All rows of a
// sheet share the same headers, so this runs once per sheet.
func (m *Mapper) Columns(headers []string) normalize.Columns {
	return normalize.ResolveAll(headers, m.aliases)
}

// Map builds a candidate from row. When the row has to be skipped, the
// reason is returned and the record is the zero value.
func (m *Mapper) Map(row excel.Row, cols normalize.Columns) (model.Record, model.SkipReason) {
	get := func(f normalize.Field) excel.Value {
		header, ok := cols[f]
		if !ok {
			return excel.Absent()
		}
		v, _ := row.Get(header)
		return v
	}

	rec := model.Record{
		Name:        normalize.Name(get(normalize.FieldName), m.uppercaseNames),
		Designation: normalize.Text(get(normalize.FieldDesignation)),
		WorkingArea: normalize.Text(get(normalize.FieldWorkingArea)),
		CodeNo:      normalize.CodeNo(get(normalize.FieldCodeNo)),
		AdhaarNo:    normalize.AdhaarNo(get(normalize.FieldAdhaarNo)),
	}
	if !rec.HasIdentity() {
		return model.Record{}, model.SkipMissingIdentity
	}

	validUpto := get(normalize.FieldValidUpto)
	rec.ValidUpto = normalize.Date(validUpto)
	if rec.ValidUpto == nil && m.strictDates && !validUpto.IsBlank() {
		return model.Record{}, model.SkipInvalidDate
	}

	return rec, ""
}
