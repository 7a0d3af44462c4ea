package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"personnel-registry/internal/model"
	"personnel-registry/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, dir string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Name", "Code No", "Valid Upto"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"Asha", "E-001", "15-03-2024"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"Bina", "E-001", ""}))

	path := filepath.Join(dir, "staff.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestImportCmd(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	path := writeWorkbook(t, t.TempDir())

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"import", path, "--driver", "memory"})
	require.NoError(t, cmd.Execute())

	var report model.ImportReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, 1, report.Inserted)
	assert.Equal(t, 1, report.Skipped)
}

func TestRestoreCmd(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	dir := t.TempDir()

	records := []model.Record{
		{Name: "B", CodeNo: "E-002"},
		{Name: "A", CodeNo: "E-001"},
		{Name: "no identity"},
	}
	data, err := json.Marshal(records)
	require.NoError(t, err)
	path := filepath.Join(dir, "backup.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"restore", path, "--driver", "memory"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "Restored 2 of 3 records\n", out.String())
}

func TestRestoreCmd_NormalizesRecords(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	dir := t.TempDir()

	write := func(name string, records []model.Record) string {
		data, err := json.Marshal(records)
		require.NoError(t, err)
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, data, 0o600))
		return path
	}

	t.Run("blank identities are skipped", func(t *testing.T) {
		path := write("blank.json", []model.Record{
			{Name: "A", CodeNo: " E-001 "},
			{Name: "blank", CodeNo: "   ", AdhaarNo: " \t "},
		})

		var out bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"restore", path, "--driver", "memory"})
		require.NoError(t, cmd.Execute())
		assert.Equal(t, "Restored 1 of 2 records\n", out.String())
	})

	t.Run("spellings that normalize alike collide", func(t *testing.T) {
		path := write("spaced.json", []model.Record{
			{Name: "A", AdhaarNo: "1234 5678 9012"},
			{Name: "B", AdhaarNo: "123456789012"},
		})

		cmd := newRootCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"restore", path, "--driver", "memory"})
		err := cmd.Execute()
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrDuplicate)
	})
}

func TestImportCmd_MissingFile(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"import", filepath.Join(t.TempDir(), "nope.xlsx")})
	assert.Error(t, cmd.Execute())
}
