package importer

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"personnel-registry/internal/db"
	"personnel-registry/internal/excel"
	"personnel-registry/internal/model"
	"personnel-registry/pkg/errors"

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

func sheetOf(headers []string, rows ...[]excel.Value) *excel.Sheet {
	sheet := &excel.Sheet{Name: "Sheet1", Headers: headers}
	for i, values := range rows {
		row := excel.Row{Number: i + 2}
		for c, h := range headers {
			row.Cells = append(row.Cells, excel.Cell{Header: h, Value: values[c]})
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet
}

func newImporter(t *testing.T, repo db.Repository, opts Options) *Importer {
	t.Helper()
	im, err := New(repo, opts)
	require.NoError(t, err)
	return im
}

func TestImporter_ImportFile(t *testing.T) {
	ctx := context.Background()
	repo := db.NewMemoryRepository()
	require.NoError(t, repo.Insert(ctx, &model.Record{Name: "Existing", CodeNo: "E-002"}))

	data := buildWorkbook(t, [][]interface{}{
		{"Name", "Code No.", "Adhaar no", "Valid Up-to"},
		{"Asha", "E-001", "1234 5678 9012", 45000},
		{"Bina", "", "", "15-03-2024"},
		{"Chitra", "e-002", "", ""},
	})

	im := newImporter(t, repo, Options{SkipSampleSize: 10})
	report, err := im.ImportFile(ctx, data)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Processed)
	assert.Equal(t, 1, report.Inserted)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, "Upload complete. Inserted: 1, Skipped: 2", report.Message)

	require.Len(t, report.SkippedDetails, 2)
	assert.Equal(t, 3, report.SkippedDetails[0].Row)
	assert.Equal(t, model.SkipMissingIdentity, report.SkippedDetails[0].Reason)
	assert.Equal(t, "Bina", report.SkippedDetails[0].Data["Name"])
	assert.Equal(t, 4, report.SkippedDetails[1].Row)
	assert.Equal(t, model.SkipDuplicate, report.SkippedDetails[1].Reason)
	assert.NotEmpty(t, report.SkippedDetails[1].ExistingID)

	found, err := repo.Find(ctx, model.IdentityFilter{CodeNoKey: "e-001"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "123456789012", found[0].AdhaarNo)
	require.NotNil(t, found[0].ValidUpto)
	assert.Equal(t, time.Date(2023, time.March, 15, 0, 0, 0, 0, time.UTC), *found[0].ValidUpto)
}

func TestImporter_PositionalLayout(t *testing.T) {
	ctx := context.Background()
	repo := db.NewMemoryRepository()

	data := buildWorkbook(t, [][]interface{}{
		{"NAME", "Code_No", "AADHAAR NO"},
		{"Asha", "E-001", nil},
		{"Bina", nil, "5555 6666 7777"},
	})

	im := newImporter(t, repo, Options{Layout: excel.LayoutPositional, UppercaseNames: true})
	report, err := im.ImportFile(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Inserted)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "BINA", all[0].Name)
	assert.Equal(t, "555566667777", all[0].AdhaarNo)
}

func TestImporter_IntraBatchDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := db.NewMemoryRepository()

	headers := []string{"Name", "Code No"}
	sheet := sheetOf(headers,
		[]excel.Value{excel.String("A"), excel.String("X1")},
		[]excel.Value{excel.String("B"), excel.String("x1")},
	)

	report, err := newImporter(t, repo, Options{}).Import(ctx, sheet)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Inserted)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, model.SkipDuplicate, report.SkippedDetails[0].Reason)
}

func TestImporter_EmptySheet(t *testing.T) {
	report, err := newImporter(t, db.NewMemoryRepository(), Options{}).
		Import(context.Background(), &excel.Sheet{Name: "Sheet1"})
	require.NoError(t, err)
	assert.Equal(t, "No rows found in Excel", report.Message)
	assert.Equal(t, 0, report.Processed)
	assert.NotNil(t, report.SkippedDetails)
}

func TestImporter_StrictDates(t *testing.T) {
	ctx := context.Background()
	headers := []string{"Code No", "Valid Upto"}
	rows := [][]excel.Value{
		{excel.String("A1"), excel.String("not a date")},
		{excel.String("A2"), excel.String("")},
	}

	lenient, err := newImporter(t, db.NewMemoryRepository(), Options{}).Import(ctx, sheetOf(headers, rows...))
	require.NoError(t, err)
	assert.Equal(t, 2, lenient.Inserted)

	strict, err := newImporter(t, db.NewMemoryRepository(), Options{StrictDates: true}).Import(ctx, sheetOf(headers, rows...))
	require.NoError(t, err)
	assert.Equal(t, 1, strict.Inserted)
	require.Len(t, strict.SkippedDetails, 1)
	assert.Equal(t, model.SkipInvalidDate, strict.SkippedDetails[0].Reason)
}

func TestImporter_SampleSize(t *testing.T) {
	headers := []string{"Name"}
	var rows [][]excel.Value
	for i := 0; i < 5; i++ {
		rows = append(rows, []excel.Value{excel.String("nobody")})
	}

	report, err := newImporter(t, db.NewMemoryRepository(), Options{SkipSampleSize: 2}).
		Import(context.Background(), sheetOf(headers, rows...))
	require.NoError(t, err)
	assert.Equal(t, 5, report.Skipped)
	assert.Len(t, report.SkippedDetails, 2)
}

type failingRepository struct {
	*db.MemoryRepository
	failAfter int
	inserts   int
}

func (r *failingRepository) Insert(ctx context.Context, record *model.Record) error {
	r.inserts++
	if r.inserts > r.failAfter {
		return stderrors.New("write concern timeout")
	}
	return r.MemoryRepository.Insert(ctx, record)
}

type racingRepository struct {
	*db.MemoryRepository
}

func (r *racingRepository) Insert(ctx context.Context, record *model.Record) error {
	return errors.ErrDuplicate
}

func TestImporter_StoreFailures(t *testing.T) {
	ctx := context.Background()
	headers := []string{"Code No"}
	sheet := sheetOf(headers,
		[]excel.Value{excel.String("A1")},
		[]excel.Value{excel.String("A2")},
		[]excel.Value{excel.String("A3")},
	)

	t.Run("insert failure aborts", func(t *testing.T) {
		repo := &failingRepository{MemoryRepository: db.NewMemoryRepository(), failAfter: 1}
		_, err := newImporter(t, repo, Options{}).Import(ctx, sheet)
		require.Error(t, err)

		var importErr errors.ImportError
		require.ErrorAs(t, err, &importErr)
		assert.Equal(t, 3, importErr.Row)
		assert.Equal(t, 1, importErr.Inserted)
	})

	t.Run("unique violation is a duplicate skip", func(t *testing.T) {
		repo := &racingRepository{MemoryRepository: db.NewMemoryRepository()}
		report, err := newImporter(t, repo, Options{}).Import(ctx, sheet)
		require.NoError(t, err)
		assert.Equal(t, 0, report.Inserted)
		assert.Equal(t, 3, report.Skipped)
		assert.Equal(t, model.SkipDuplicate, report.SkippedDetails[0].Reason)
	})
}

func TestImporter_CorruptFile(t *testing.T) {
	_, err := newImporter(t, db.NewMemoryRepository(), Options{}).
		ImportFile(context.Background(), []byte("not a workbook"))
	assert.ErrorIs(t, err, errors.ErrInvalidFileFormat)
}
