package findings

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	MimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MimeCSV  = "text/csv"
)

// Parse reads an uploaded action plan and returns its findings in row order.
func Parse(ctx context.Context, data []byte, mimeType, fileName string, opts Options) ([]Finding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.HeaderRow < 0 {
		opts.HeaderRow = 0
	}

	var (
		rows [][]string
		err  error
	)
	switch normalizeMimeType(mimeType, fileName, data) {
	case MimeXLSX:
		rows, err = readXLSX(data, opts.Sheet)
	case MimeCSV:
		rows, err = readCSV(data)
	default:
		return nil, &LoadError{Err: fmt.Errorf("%w: %s", ErrUnsupportedFormat, fileName)}
	}
	if err != nil {
		return nil, &LoadError{Err: err}
	}
	return fromRows(rows, opts.HeaderRow)
}

func fromRows(rows [][]string, headerRow int) ([]Finding, error) {
	if headerRow >= len(rows) {
		return nil, &LoadError{Err: fmt.Errorf("header row %d not found (%d rows)", headerRow+1, len(rows))}
	}

	positions := map[string]int{}
	for i, name := range rows[headerRow] {
		name = strings.TrimSpace(name)
		if _, seen := positions[name]; !seen && name != "" {
			positions[name] = i
		}
	}
	var missing []string
	for _, col := range []string{ColumnRequirementID, ColumnRequirementText, ColumnAuditorComment} {
		if _, ok := positions[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &LoadError{Missing: missing}
	}

	out := []Finding{}
	for _, row := range rows[headerRow+1:] {
		f := Finding{
			RequirementID:   cell(row, positions[ColumnRequirementID]),
			RequirementText: cell(row, positions[ColumnRequirementText]),
			AuditorComment:  cell(row, positions[ColumnAuditorComment]),
		}
		if f.RequirementID == "" && f.RequirementText == "" && f.AuditorComment == "" {
			continue
		}
		f.Index = len(out)
		out = append(out, f)
	}
	return out, nil
}

func readXLSX(data []byte, sheet string) ([][]string, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	if sheet == "" {
		sheets := wb.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := wb.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readCSV(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

func cell(row []string, pos int) string {
	if pos < 0 || pos >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[pos])
}

func normalizeMimeType(mimeType string, fileName string, data []byte) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	switch clean {
	case MimeXLSX, MimeCSV:
		return clean
	case "application/csv", "application/vnd.ms-excel":
		if strings.EqualFold(filepath.Ext(fileName), ".csv") {
			return MimeCSV
		}
	}

	if isWorkbookZip(data) {
		return MimeXLSX
	}
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx":
		return MimeXLSX
	case ".csv":
		return MimeCSV
	default:
		return clean
	}
}

func isWorkbookZip(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "xl/workbook.xml" {
			return true
		}
	}
	return false
}
