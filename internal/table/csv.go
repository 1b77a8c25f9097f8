package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// WriteCSV persists the frame. Multi-level headers are written one row per
// level, led by the level name, followed by a row carrying only the index name.
func (f *Frame) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	levels := f.Levels()

	if levels == 1 {
		header := make([]string, 0, len(f.Columns)+1)
		header = append(header, f.IndexName)
		for _, c := range f.Columns {
			header = append(header, c.Flat())
		}
		if err := cw.Write(header); err != nil {
			return err
		}
	} else {
		for lvl := 0; lvl < levels; lvl++ {
			row := make([]string, 0, len(f.Columns)+1)
			if lvl < len(f.LevelNames) {
				row = append(row, f.LevelNames[lvl])
			} else {
				row = append(row, "")
			}
			for _, c := range f.Columns {
				if lvl < len(c) {
					row = append(row, c[lvl])
				} else {
					row = append(row, "")
				}
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		indexRow := make([]string, len(f.Columns)+1)
		indexRow[0] = f.IndexName
		if err := cw.Write(indexRow); err != nil {
			return err
		}
	}

	for i, idx := range f.Index {
		row := make([]string, 0, len(f.Columns)+1)
		row = append(row, idx)
		row = append(row, f.Rows[i]...)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes the frame to path, creating parent directories.
func (f *Frame) SaveCSV(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := f.WriteCSV(file); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}

// ReadCSV parses a frame written by WriteCSV, or any flat CSV whose first
// column is the index.
func ReadCSV(r io.Reader) (*Frame, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read csv: empty input")
	}

	width := len(records[0])
	if width < 1 {
		return nil, fmt.Errorf("read csv: empty header")
	}

	headerRows, indexName := 1, records[0][0]
	if idx := findIndexRow(records); idx > 0 {
		headerRows, indexName = idx+1, records[idx][0]
	}

	f := &Frame{IndexName: indexName}
	levels := headerRows
	if headerRows > 1 {
		levels = headerRows - 1
		for lvl := 0; lvl < levels; lvl++ {
			f.LevelNames = append(f.LevelNames, records[lvl][0])
		}
	}
	for j := 1; j < width; j++ {
		col := make(Column, 0, levels)
		for lvl := 0; lvl < levels; lvl++ {
			col = append(col, cellAt(records[lvl], j))
		}
		f.Columns = append(f.Columns, col)
	}

	for _, rec := range records[headerRows:] {
		if len(rec) == 0 || (len(rec) == 1 && rec[0] == "") {
			continue
		}
		cells := make([]string, width-1)
		for j := 1; j < width; j++ {
			cells[j-1] = cellAt(rec, j)
		}
		f.Index = append(f.Index, rec[0])
		f.Rows = append(f.Rows, cells)
	}
	return f, nil
}

// LoadCSV reads a frame from path.
func LoadCSV(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()
	f, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// findIndexRow locates the row that carries only the index name in a
// multi-level header, or returns -1 for a flat file. Only the leading rows
// are searched and a row starting with a digit is data, never a header.
func findIndexRow(records [][]string) int {
	const maxHeaderRows = 8
	for i := 1; i < len(records) && i < maxHeaderRows; i++ {
		rec := records[i]
		if len(rec) == 0 || rec[0] == "" || startsWithDigit(rec[0]) {
			return -1
		}
		if allEmpty(rec[1:]) {
			return i
		}
	}
	return -1
}

func startsWithDigit(s string) bool {
	for _, r := range strings.TrimSpace(s) {
		return unicode.IsDigit(r)
	}
	return false
}

func allEmpty(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func cellAt(rec []string, j int) string {
	if j < len(rec) {
		return rec[j]
	}
	return ""
}
