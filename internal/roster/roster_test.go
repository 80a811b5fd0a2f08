package roster

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseEntry(t *testing.T) {
	tests := []struct {
		in       string
		wantName string
		wantID   string
	}{
		{in: "张三, E12345", wantName: "张三", wantID: "E12345"},
		{in: "E12345, 张三", wantName: "张三", wantID: "E12345"},
		{in: "张三，E12345", wantName: "张三", wantID: "E12345"},
		{in: " 12345 ， 李四 ", wantName: "李四", wantID: "12345"},
		{in: "Alice Smith, A-001", wantName: "Alice Smith", wantID: "A-001"},
		{in: "王五", wantName: "王五"},
		{in: "E777", wantID: "E777"},
		{in: "", wantName: "", wantID: ""},
		{in: "a, b, c", wantName: "a, b, c"},
		{in: "E1, E2", wantName: "E1", wantID: "E2"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			name, id := ParseEntry(tt.in)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestLooksLikeID(t *testing.T) {
	assert.True(t, LooksLikeID("E12345"))
	assert.True(t, LooksLikeID("12345"))
	assert.True(t, LooksLikeID("ab_1-x"))
	assert.False(t, LooksLikeID("Alice"))
	assert.False(t, LooksLikeID("张三1"))
	assert.False(t, LooksLikeID(""))
}

func writeRoster(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	path := filepath.Join(t.TempDir(), "roster.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoad(t *testing.T) {
	path := writeRoster(t, [][]any{
		{"序号", "员工名字工号", "操作是否正确"},
		{"1", "张三, E1001"},
		{},
		{"3", "E1003, 李四", "否"},
	})

	r, err := Load(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Sheet1", r.Sheet)
	assert.Equal(t, 1, r.Column)
	require.Len(t, r.Employees, 2)

	first := r.Employees[0]
	assert.Equal(t, "张三", first.Name)
	assert.Equal(t, "E1001", first.ID)
	assert.Equal(t, 2, first.Row)
	assert.Equal(t, []string{"1", "张三, E1001", ""}, first.Columns)

	second := r.Employees[1]
	assert.Equal(t, "李四", second.Name)
	assert.Equal(t, 4, second.Row)
	assert.Equal(t, "否", r.Value(second, "操作是否正确"))
}

func TestLoad_MissingColumn(t *testing.T) {
	path := writeRoster(t, [][]any{
		{"姓名", "工号"},
		{"张三", "E1001"},
	})

	_, err := Load(path, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrColumnNotFound))
}

func TestLoad_CustomColumn(t *testing.T) {
	path := writeRoster(t, [][]any{
		{"employee"},
		{"Bob, B42"},
	})

	r, err := Load(path, Options{Column: "employee"})
	require.NoError(t, err)
	require.Len(t, r.Employees, 1)
	assert.Equal(t, "Bob", r.Employees[0].Name)
	assert.Equal(t, "B42", r.Employees[0].ID)
}
