package table

import (
	"fmt"

	"github.com/agentic-research/kaextract/api"
)

// Instruction sets one cell.
type Instruction struct {
	Row    int
	Column api.Column
	Value  string
}

// Set is shorthand for an Instruction literal.
func Set(row int, col api.Column, value string) Instruction {
	return Instruction{Row: row, Column: col, Value: value}
}

// ColumnIndexError reports an instruction addressing a cell outside a row,
// which means the stored header and the schema disagree.
type ColumnIndexError struct {
	Row    int
	Column api.Column
	Width  int
}

func (e *ColumnIndexError) Error() string {
	if e.Width < 0 {
		return fmt.Sprintf("row %d does not exist", e.Row)
	}
	return fmt.Sprintf("row %d has %d columns, cannot set %s (index %d)",
		e.Row, e.Width, e.Column.Name(), int(e.Column))
}

// Apply executes a batch of instructions against t. The batch is checked
// before any cell changes, so on error t is left as it was.
func Apply(t *Table, batch []Instruction) error {
	for _, in := range batch {
		if in.Row < 0 || in.Row >= len(t.Rows) {
			return &ColumnIndexError{Row: in.Row, Column: in.Column, Width: -1}
		}
		if w := len(t.Rows[in.Row]); in.Column < 0 || int(in.Column) >= w {
			return &ColumnIndexError{Row: in.Row, Column: in.Column, Width: w}
		}
	}
	for _, in := range batch {
		t.Rows[in.Row][in.Column] = api.CellValue(in.Value)
	}
	return nil
}
