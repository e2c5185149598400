package guide

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

const utf8BOM = "\uFEFF"

// Parse reads a CSV guide. The header row must carry every RequiredColumns entry;
// other columns are ignored.
func Parse(source string, r io.Reader) (*Index, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &LoadError{Source: source, Err: errors.New("empty guide")}
		}
		return nil, &LoadError{Source: source, Err: fmt.Errorf("read header: %w", err)}
	}

	positions := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, utf8BOM))
		if _, seen := positions[name]; !seen {
			positions[name] = i
		}
	}
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := positions[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &LoadError{Source: source, Missing: missing}
	}

	var rows []Row
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &LoadError{Source: source, Err: fmt.Errorf("line %d: %w", line, err)}
		}
		rows = append(rows, Row{
			RequirementID:    cell(record, positions[ColumnRequirementID]),
			GoodPractice:     cell(record, positions[ColumnGoodPractice]),
			ElementsToCheck:  cell(record, positions[ColumnElementsToCheck]),
			ExampleQuestions: cell(record, positions[ColumnExampleQuestions]),
		})
	}
	return NewIndex(source, rows), nil
}

func cell(record []string, pos int) string {
	if pos < 0 || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
