package excel

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"personnel-registry/pkg/errors"

	"github.com/xuri/excelize/v2"
)

// grid is the first worksheet read as raw rows with typed cells.
type grid struct {
	name string
	rows [][]Value
}

func readFirstSheet(ctx context.Context, data []byte) (*grid, error) {
	if len(data) == 0 {
		return nil, errors.ErrInvalidFileFormat
	}

	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open Excel file: %v", errors.ErrInvalidFileFormat, err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.ErrInvalidFileFormat
	}

	sheetName := sheets[0]
	rows, err := file.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get rows: %v", errors.ErrInvalidFileFormat, err)
	}

	g := &grid{name: sheetName, rows: make([][]Value, len(rows))}
	for r, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		values := make([]Value, len(row))
		for c, raw := range row {
			values[c] = typedCell(file, sheetName, c+1, r+1, raw)
		}
		g.rows[r] = values
	}

	return g, nil
}

// typedCell keeps text cells as strings and turns every other non-empty
// cell that reads as a number into a Number, so date serials survive.
func typedCell(file *excelize.File, sheet string, col, row int, raw string) Value {
	if raw == "" {
		return Absent()
	}

	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return String(raw)
	}

	cellType, err := file.GetCellType(sheet, axis)
	if err != nil {
		return String(raw)
	}

	switch cellType {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeBool, excelize.CellTypeError:
		return String(raw)
	}

	if n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
		return Number(n)
	}
	return String(raw)
}

func blankRow(values []Value) bool {
	for _, v := range values {
		if !v.IsBlank() {
			return false
		}
	}
	return true
}

func cellAt(values []Value, idx int) Value {
	if idx < len(values) {
		return values[idx]
	}
	return Absent()
}

// AssociativeDecoder keys every row by the header spellings found in the
// sheet, the way a row-object export would. Missing cells default to the
// empty string and repeated headers get a numeric suffix.
type AssociativeDecoder struct{}

func NewAssociativeDecoder() *AssociativeDecoder {
	return &AssociativeDecoder{}
}

func (d *AssociativeDecoder) Decode(ctx context.Context, data []byte) (*Sheet, error) {
	g, err := readFirstSheet(ctx, data)
	if err != nil {
		return nil, err
	}

	sheet := &Sheet{Name: g.name}
	if len(g.rows) == 0 {
		return sheet, nil
	}

	sheet.Headers = uniqueHeaders(g.rows[0])
	for i, values := range g.rows[1:] {
		if blankRow(values) {
			continue
		}

		row := Row{Number: i + 2, Cells: make([]Cell, 0, len(sheet.Headers))}
		for c, header := range sheet.Headers {
			if header == "" {
				continue
			}
			v := cellAt(values, c)
			if v.IsAbsent() {
				v = String("")
			}
			row.Cells = append(row.Cells, Cell{Header: header, Value: v})
		}
		sheet.Rows = append(sheet.Rows, row)
	}

	return sheet, nil
}

func uniqueHeaders(headerRow []Value) []string {
	seen := make(map[string]int, len(headerRow))
	headers := make([]string, len(headerRow))
	for i, v := range headerRow {
		h := strings.TrimSpace(v.Text())
		if h == "" {
			continue
		}
		if n, dup := seen[h]; dup {
			seen[h] = n + 1
			h = fmt.Sprintf("%s_%d", h, n)
		} else {
			seen[h] = 1
		}
		headers[i] = h
	}
	return headers
}

// PositionalDecoder reads rows as arrays and pairs them with a header list
// rewritten by KeyFunc once per sheet. Absent cells stay absent.
type PositionalDecoder struct {
	KeyFunc func(string) string
}

func NewPositionalDecoder(keyFunc func(string) string) *PositionalDecoder {
	return &PositionalDecoder{KeyFunc: keyFunc}
}

func (d *PositionalDecoder) Decode(ctx context.Context, data []byte) (*Sheet, error) {
	g, err := readFirstSheet(ctx, data)
	if err != nil {
		return nil, err
	}

	sheet := &Sheet{Name: g.name}
	if len(g.rows) == 0 {
		return sheet, nil
	}

	header := g.rows[0]
	sheet.Headers = make([]string, len(header))
	for i, v := range header {
		key := v.Text()
		if d.KeyFunc != nil {
			key = d.KeyFunc(key)
		}
		sheet.Headers[i] = key
	}

	for i, values := range g.rows[1:] {
		if blankRow(values) {
			continue
		}

		row := Row{Number: i + 2, Cells: make([]Cell, 0, len(sheet.Headers))}
		for c, key := range sheet.Headers {
			if key == "" {
				continue
			}
			row.Cells = append(row.Cells, Cell{Header: key, Value: cellAt(values, c)})
		}
		sheet.Rows = append(sheet.Rows, row)
	}

	return sheet, nil
}
