// Package convert turns spreadsheet exports into the curriculum and content
// JSON documents the service reads.
package convert

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Row is one data row keyed by header name.
type Row map[string]string

// Get returns the value of column name, or "" when the column is absent.
func (r Row) Get(name string) string {
	return r[name]
}

// ReadFile reads rows from a .csv or .xlsx file. The first row is the header.
func ReadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(f)
	case ".xlsx", ".xlsm":
		return ReadXLSX(f)
	default:
		return nil, fmt.Errorf("unsupported input %s: want .csv or .xlsx", path)
	}
}

// ReadCSV reads rows from CSV. A UTF-8 or UTF-16 byte order mark is honored
// and stripped; quoted fields may span lines.
func ReadCSV(r io.Reader) ([]Row, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	return toRows(records)
}

// ReadXLSX reads rows from the first sheet of a workbook.
func ReadXLSX(r io.Reader) ([]Row, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	records, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheets[0], err)
	}
	return toRows(records)
}

func toRows(records [][]string) ([]Row, error) {
	if len(records) == 0 {
		return nil, errors.New("input has no header row")
	}
	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		row := make(Row, len(header))
		for i, name := range header {
			if name == "" {
				continue
			}
			if i < len(rec) {
				row[name] = rec[i]
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
