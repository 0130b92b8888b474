// Package table persists the flattened curriculum as CSV and rewrites
// individual cells of it in place.
package table

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/agentic-research/kaextract/api"
)

// Table is the full content of a stored CSV file. Rows are kept verbatim,
// including columns this package does not know about.
type Table struct {
	Header []string
	Rows   [][]string
}

// New builds a table from flattened records using the api.Columns header.
func New(records []api.FlatRecord) *Table {
	t := &Table{
		Header: append([]string(nil), api.Columns...),
		Rows:   make([][]string, 0, len(records)),
	}
	for i := range records {
		t.Rows = append(t.Rows, records[i].Row())
	}
	return t
}

// Cell returns the value at (row, col) and whether it exists.
func (t *Table) Cell(row int, col api.Column) (string, bool) {
	if row < 0 || row >= len(t.Rows) {
		return "", false
	}
	r := t.Rows[row]
	if col < 0 || int(col) >= len(r) {
		return "", false
	}
	return r[col], true
}

// Find returns the index of the first row for which match is true, or -1.
func (t *Table) Find(match func(row []string) bool) int {
	for i, r := range t.Rows {
		if match(r) {
			return i
		}
	}
	return -1
}

// Encode writes t as CSV.
func (t *Table) Encode(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// Bytes returns the CSV encoding of t.
func (t *Table) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads a CSV table. The first record is the header. Rows may differ
// in width from the header; Apply reports cells that do not exist.
func Decode(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read csv: missing header")
	}
	return &Table{Header: records[0], Rows: records[1:]}, nil
}
