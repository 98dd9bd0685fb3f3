package excel

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"insightminer/domain/dataset"
	"insightminer/internal"
	"insightminer/ports"
)

var _ ports.RowSource = (*DataReader)(nil)

func TestReadRows_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "students.csv")
	content := "name,height,gender,age\nAlice,160,f,18\nBob,175,m,\n Carol ,165,f,17\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r := NewDataReader(path, internal.NewNopLogger())
	assert.Equal(t, "students.csv", r.Name())

	rows, err := r.ReadRows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.True(t, rows[0].Get("height").Equal(dataset.Number(160)))
	assert.True(t, rows[0].Get("gender").Equal(dataset.String("f")))
	assert.True(t, rows[1].Get("age").IsNull())
	assert.Equal(t, "Carol", rows[2].Get("name").Text())
}

func TestReadRows_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	cells := [][]interface{}{
		{"region", "month", "sales"},
		{"north", "2024-01-01", 120.5},
		{"south", "2024-02-01", 80},
	}
	for i, row := range cells {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	rows, err := NewDataReader(path, nil).ReadRows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].Get("sales").Equal(dataset.Number(120.5)))
	assert.Equal(t, "south", rows[1].Get("region").Text())
	assert.Equal(t, "2024-02-01", rows[1].Get("month").Text())
}

func TestReadData_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewDataReader(filepath.Join(dir, "absent.csv"), nil).ReadData()
	assert.ErrorContains(t, err, "not found")

	headerOnly := filepath.Join(dir, "header.csv")
	require.NoError(t, os.WriteFile(headerOnly, []byte("a,b\n"), 0o644))
	_, err = NewDataReader(headerOnly, nil).ReadData()
	assert.ErrorContains(t, err, "at least a header row")

	dup := filepath.Join(dir, "dup.csv")
	require.NoError(t, os.WriteFile(dup, []byte("a,a\n1,2\n"), 0o644))
	_, err = NewDataReader(dup, nil).ReadData()
	assert.ErrorContains(t, err, "duplicate column")
}

func TestReadRows_Canceled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.csv")
	require.NoError(t, os.WriteFile(path, []byte("a\n1\n"), 0o644))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewDataReader(path, nil).ReadRows(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
