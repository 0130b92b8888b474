// Package export mirrors a curriculum table into a SQLite database.
package export

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/agentic-research/kaextract/internal/table"
)

// TableName is the SQLite table holding the mirrored rows.
const TableName = "curriculum"

// Columns the exporter adds in front of the CSV columns.
const (
	RowIndexColumn = "_row_idx"
	RunIDColumn    = "_run_id"
)

const runsSchema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	row_count INTEGER NOT NULL,
	exported_at TEXT NOT NULL
);`

// Run describes the export being written.
type Run struct {
	ID     uuid.UUID
	Source string // CSV file the rows came from
}

// Result is what a successful export wrote.
type Result struct {
	RunID uuid.UUID
	Rows  int
}

// SQLite replaces the curriculum table in the database at dbPath with the
// rows of t and records the run. Every CSV column becomes a TEXT column of
// the same name; _row_idx keeps the CSV row order and _run_id ties each row
// to its run. The database is created if it does not exist.
func SQLite(ctx context.Context, dbPath string, t *table.Table, run Run) (Result, error) {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if err := checkHeader(t.Header); err != nil {
		return Result{}, fmt.Errorf("export %s: %w", dbPath, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return Result{}, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	defer func() { _ = db.Close() }()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, fmt.Errorf("begin export: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, runsSchema); err != nil {
		return Result{}, fmt.Errorf("create runs table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quote(TableName)); err != nil {
		return Result{}, fmt.Errorf("drop %s: %w", TableName, err)
	}
	if _, err := tx.ExecContext(ctx, createTable(t.Header)); err != nil {
		return Result{}, fmt.Errorf("create %s: %w", TableName, err)
	}

	stmt, err := tx.PrepareContext(ctx, insertRow(t.Header))
	if err != nil {
		return Result{}, fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	args := make([]any, len(t.Header)+2)
	for i, row := range t.Rows {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		args[0] = i
		args[1] = run.ID.String()
		for c := range t.Header {
			// short rows export NULL for the missing cells
			if c < len(row) {
				args[c+2] = row[c]
			} else {
				args[c+2] = nil
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return Result{}, fmt.Errorf("insert row %d: %w", i, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, source, row_count, exported_at) VALUES (?, ?, ?, ?)`,
		run.ID.String(), run.Source, len(t.Rows), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return Result{}, fmt.Errorf("record run: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Result{}, fmt.Errorf("commit export: %w", err)
	}
	return Result{RunID: run.ID, Rows: len(t.Rows)}, nil
}

// checkHeader rejects headers SQLite cannot take as column names. SQLite
// compares identifiers case-insensitively.
func checkHeader(header []string) error {
	if len(header) == 0 {
		return fmt.Errorf("table has no header")
	}
	seen := map[string]int{
		strings.ToLower(RowIndexColumn): -1,
		strings.ToLower(RunIDColumn):    -1,
	}
	for i, h := range header {
		key := strings.ToLower(h)
		if j, ok := seen[key]; ok {
			if j < 0 {
				return fmt.Errorf("column %d %q clashes with the exporter's own column", i, h)
			}
			return fmt.Errorf("column %d %q duplicates column %d %q", i, h, j, header[j])
		}
		seen[key] = i
	}
	return nil
}

func createTable(header []string) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(quote(TableName))
	fmt.Fprintf(&b, " (%s INTEGER PRIMARY KEY, %s TEXT NOT NULL", quote(RowIndexColumn), quote(RunIDColumn))
	for _, h := range header {
		b.WriteString(", ")
		b.WriteString(quote(h))
		b.WriteString(" TEXT")
	}
	b.WriteString(")")
	return b.String()
}

func insertRow(header []string) string {
	cols := make([]string, 0, len(header)+2)
	cols = append(cols, quote(RowIndexColumn), quote(RunIDColumn))
	for _, h := range header {
		cols = append(cols, quote(h))
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quote(TableName), strings.Join(cols, ", "), marks)
}

// quote makes s a SQLite identifier.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
