package excel

import (
	"context"
	"testing"

	apperrors "personnel-registry/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", axis, v))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestAssociativeDecoder_Decode(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"Name", "Code No.", "Valid Up-to", "Aadhaar"},
		{"Asha", "A100", 45000, "1234 5678 9012"},
		{nil, nil, nil, nil},
		{"Ravi", nil, "15-03-2024", 123456789013},
	})

	sheet, err := NewAssociativeDecoder().Decode(context.Background(), data)
	require.NoError(t, err)

	assert.Equal(t, "Sheet1", sheet.Name)
	assert.Equal(t, []string{"Name", "Code No.", "Valid Up-to", "Aadhaar"}, sheet.Headers)
	require.Len(t, sheet.Rows, 2, "blank rows are dropped")

	first := sheet.Rows[0]
	assert.Equal(t, 2, first.Number)
	serial, ok := first.Get("Valid Up-to")
	require.True(t, ok)
	assert.True(t, serial.IsNumber())
	assert.Equal(t, float64(45000), serial.Num)
	code, _ := first.Get("Code No.")
	assert.Equal(t, String("A100"), code)

	second := sheet.Rows[1]
	assert.Equal(t, 4, second.Number)
	missing, ok := second.Get("Code No.")
	require.True(t, ok)
	assert.Equal(t, String(""), missing, "missing cells default to empty strings")
	aadhaar, _ := second.Get("Aadhaar")
	assert.Equal(t, "123456789013", aadhaar.Text())
}

func TestPositionalDecoder_Decode(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"Name", "Code_No"},
		{"Asha"},
	})

	sheet, err := NewPositionalDecoder(func(h string) string { return "k:" + h }).Decode(context.Background(), data)
	require.NoError(t, err)

	assert.Equal(t, []string{"k:Name", "k:Code_No"}, sheet.Headers)
	require.Len(t, sheet.Rows, 1)
	code, ok := sheet.Rows[0].Get("k:Code_No")
	require.True(t, ok)
	assert.True(t, code.IsAbsent())
}

func TestDecode_Errors(t *testing.T) {
	t.Run("should reject corrupt bytes as an invalid format", func(t *testing.T) {
		_, err := NewAssociativeDecoder().Decode(context.Background(), []byte("not a workbook"))
		assert.ErrorIs(t, err, apperrors.ErrInvalidFileFormat)
	})

	t.Run("should reject empty input", func(t *testing.T) {
		_, err := NewPositionalDecoder(nil).Decode(context.Background(), nil)
		assert.ErrorIs(t, err, apperrors.ErrInvalidFileFormat)
	})

	t.Run("should return no rows for a header only sheet", func(t *testing.T) {
		sheet, err := NewAssociativeDecoder().Decode(context.Background(), buildWorkbook(t, [][]interface{}{{"Name"}}))
		require.NoError(t, err)
		assert.Empty(t, sheet.Rows)
	})
}

func TestUniqueHeaders(t *testing.T) {
	headers := uniqueHeaders([]Value{String("Name"), String(" Name "), Absent(), String("Area")})
	assert.Equal(t, []string{"Name", "Name_1", "", "Area"}, headers)
}

func TestValue_Text(t *testing.T) {
	assert.Equal(t, "123456789012", Number(123456789012).Text())
	assert.Equal(t, "45000.5", Number(45000.5).Text())
	assert.Equal(t, "", Absent().Text())
	assert.Equal(t, Number(3), ValueOf(3))
	assert.Equal(t, String("x"), ValueOf("x"))
	assert.True(t, ValueOf(nil).IsAbsent())
}
