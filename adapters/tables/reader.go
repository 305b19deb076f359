// Package tables reads the interaction, mechanism and trait reference tables from CSV or XLSX files.
package tables

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"guildscore/internal"

	"github.com/xuri/excelize/v2"
)

// sheet is a header-indexed table read from either file type.
type sheet struct {
	source  string
	columns map[string]int
	rows    [][]string
	lines   []int // 1-based file line of each data row
}

// readSheet loads a CSV file, or the first worksheet of an XLSX file, into memory.
func readSheet(path string) (*sheet, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("table file not found: %s", path)
	}

	start := time.Now()
	var (
		rows  [][]string
		lines []int
		err   error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, lines, err = readCSV(path)
	case ".xlsx":
		rows, lines, err = readXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported table format: %s", path)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: table has no header row", path)
	}

	s := &sheet{source: filepath.Base(path), columns: make(map[string]int), rows: rows[1:], lines: lines[1:]}
	for i, h := range rows[0] {
		name := normalizeHeader(h)
		if name == "" {
			continue
		}
		if _, dup := s.columns[name]; dup {
			return nil, fmt.Errorf("%s: duplicate column %q", path, name)
		}
		s.columns[name] = i
	}
	internal.DefaultLogger.Debug("[TableReader] %s read in %.2fms (%d rows)",
		s.source, float64(time.Since(start).Nanoseconds())/1e6, len(s.rows))
	return s, nil
}

// readCSV returns the records and the line each one starts on. Comment and empty lines are
// skipped by the reader, so lines are taken from it rather than counted.
func readCSV(path string) ([][]string, []int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	var (
		rows  [][]string
		lines []int
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read CSV file: %w", err)
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, record)
		lines = append(lines, line)
	}
	return rows, lines, nil
}

func readXLSX(path string) ([][]string, []int, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("%s: workbook has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	// GetRows keeps empty rows in place, so row i sits on sheet row i+1
	lines := make([]int, len(rows))
	for i := range lines {
		lines[i] = i + 1
	}
	return rows, lines, nil
}

// normalizeHeader lower-cases a header and folds spaces and hyphens to underscores.
func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(h)
}

// column resolves the first present alias.
func (s *sheet) column(aliases ...string) (int, bool) {
	for _, a := range aliases {
		if i, ok := s.columns[a]; ok {
			return i, true
		}
	}
	return -1, false
}

func (s *sheet) require(aliases ...string) (int, error) {
	i, ok := s.column(aliases...)
	if !ok {
		return -1, fmt.Errorf("%s: missing required column %q", s.source, aliases[0])
	}
	return i, nil
}

// cell returns the trimmed value or "" for short rows.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// line returns the 1-based file line of data row i.
func (s *sheet) line(i int) int { return s.lines[i] }
