package table

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multiLevelFrame(t *testing.T) *Frame {
	t.Helper()
	f := NewFrame("Date",
		Column{"Close", "^NSEI"},
		Column{"High", "^NSEI"},
		Column{"Volume", "^NSEI"},
	)
	f.LevelNames = []string{"Price", "Ticker"}
	require.NoError(t, f.Append("2024-01-01", "21000.5", "21100", "1000"))
	require.NoError(t, f.Append("2024-01-02", "21050.25", "21120", "1200"))
	return f
}

func TestWriteCSV_MultiLevelLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, multiLevelFrame(t).WriteCSV(&buf))

	want := strings.Join([]string{
		"Price,Close,High,Volume",
		"Ticker,^NSEI,^NSEI,^NSEI",
		"Date,,,",
		"2024-01-01,21000.5,21100,1000",
		"2024-01-02,21050.25,21120,1200",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestReadCSV_RoundTripMultiLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "NIFTY_50.csv")
	orig := multiLevelFrame(t)
	require.NoError(t, orig.SaveCSV(path))

	got, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, orig, got)
	assert.True(t, got.MultiLevel())
}

func TestReadCSV_Flat(t *testing.T) {
	in := "Datetime,Open,Close\n2024-01-01,1,2\n2024-01-02,,3\n"
	f, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, "Datetime", f.IndexName)
	assert.False(t, f.MultiLevel())
	assert.Equal(t, []Column{{"Open"}, {"Close"}}, f.Columns)
	assert.Equal(t, []string{"2024-01-01", "2024-01-02"}, f.Index)
	assert.Equal(t, "", f.Cell(1, 0))

	j, ok := f.Lookup("Close")
	require.True(t, ok)
	assert.Equal(t, "3", f.Cell(1, j))
}

func TestReadCSV_FlatWithEmptyDataRowIsNotHeader(t *testing.T) {
	in := "Date,Close\n2024-01-01,\n2024-01-02,5\n"
	f, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, "Date", f.IndexName)
	assert.Equal(t, 2, f.Len())
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestAppend_WrongWidth(t *testing.T) {
	f := NewFrame("Date", Column{"Close"})
	assert.Error(t, f.Append("2024-01-01", "1", "2"))
}

func TestColumnNames(t *testing.T) {
	assert.Equal(t, []string{"Date", "Close ^NSEI", "High ^NSEI", "Volume ^NSEI"}, multiLevelFrame(t).ColumnNames())
}
