// Package dataset loads genotype tables from disk for upload.
//
// The portal API accepts CSV text only; spreadsheets are converted on the
// client, taking the first sheet.
package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported file type")

// ErrEmpty is returned for tables without a header and at least one row.
var ErrEmpty = errors.New("file must have a header row and at least one data row")

// ReadAsCSV returns the content of path as CSV text along with the file
// name to report to the server.
func ReadAsCSV(path string) (data, filename string, err error) {
	filename = filepath.Base(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", "", fmt.Errorf("failed to read CSV file: %w", err)
		}
		rows, err := csv.NewReader(bytes.NewReader(raw)).ReadAll()
		if err != nil {
			return "", "", fmt.Errorf("failed to parse CSV file: %w", err)
		}
		if len(rows) < 2 {
			return "", "", ErrEmpty
		}
		return string(raw), filename, nil
	case ".xlsx":
		rows, err := readFirstSheet(path)
		if err != nil {
			return "", "", err
		}
		if len(rows) < 2 {
			return "", "", ErrEmpty
		}
		text, err := toCSV(rows)
		if err != nil {
			return "", "", err
		}
		return text, filename, nil
	default:
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func readFirstSheet(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmpty
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// toCSV pads ragged spreadsheet rows to the header width.
func toCSV(rows [][]string) (string, error) {
	width := len(rows[0])
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range rows {
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			row = padded
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return buf.String(), w.Error()
}
