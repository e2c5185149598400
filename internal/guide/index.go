package guide

import "strings"

// Index holds the guide rows in load order. It is read-only after construction
// and safe for concurrent use.
type Index struct {
	source string
	rows   []Row
}

// NewIndex builds an index over rows, keeping their order.
func NewIndex(source string, rows []Row) *Index {
	cp := make([]Row, len(rows))
	copy(cp, rows)
	return &Index{source: source, rows: cp}
}

// Lookup returns the first row whose identifier contains requirementID.
// Matching is case-sensitive substring containment, so "4.1" also matches "4.1.2".
func (idx *Index) Lookup(requirementID string) (Row, error) {
	if idx == nil {
		return Row{}, ErrNotFound
	}
	for _, row := range idx.rows {
		if strings.Contains(row.RequirementID, requirementID) {
			return row, nil
		}
	}
	return Row{}, ErrNotFound
}

// Len returns the number of rows.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.rows)
}

// Source names where the rows were loaded from.
func (idx *Index) Source() string {
	if idx == nil {
		return ""
	}
	return idx.source
}
