package export

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/kaextract/api"
	"github.com/agentic-research/kaextract/internal/table"
)

func sample() *table.Table {
	pk := "ke1"
	course := api.FlatRecord{ID: "c1", Type: api.TypeCourse, Order: 1, Title: "Algebra", Slug: "algebra", RelativeURL: "/math/algebra"}
	item := api.FlatRecord{ID: "e1", Type: api.TypeExercise, Order: 1, Title: "Slope", Slug: "slope", RelativeURL: "/e/slope", ProgressKey: &pk}
	item.ChildOf(&course)
	return table.New([]api.FlatRecord{course, item})
}

func TestSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "out.db")
	runID := uuid.New()

	res, err := SQLite(context.Background(), dbPath, sample(), Run{ID: runID, Source: "information.csv"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Rows)
	assert.Equal(t, runID, res.RunID)

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM curriculum`).Scan(&n))
	assert.Equal(t, 2, n)

	var id, parentID, progressKey string
	require.NoError(t, db.QueryRow(
		`SELECT id, parentId, progressKey FROM curriculum WHERE _row_idx = 1`).Scan(&id, &parentID, &progressKey))
	assert.Equal(t, "e1", id)
	assert.Equal(t, "c1", parentID)
	assert.Equal(t, "ke1", progressKey)

	var source string
	var count int
	require.NoError(t, db.QueryRow(`SELECT source, row_count FROM runs WHERE run_id = ?`, runID.String()).Scan(&source, &count))
	assert.Equal(t, "information.csv", source)
	assert.Equal(t, 2, count)
}

func TestSQLite_ReplacesPreviousMirror(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "out.db")
	ctx := context.Background()

	_, err := SQLite(ctx, dbPath, sample(), Run{Source: "a.csv"})
	require.NoError(t, err)

	smaller := sample()
	smaller.Rows = smaller.Rows[:1]
	second, err := SQLite(ctx, dbPath, smaller, Run{Source: "b.csv"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, second.RunID)

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var rows, runs int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM curriculum`).Scan(&rows))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&runs))
	assert.Equal(t, 1, rows)
	assert.Equal(t, 2, runs)

	var runID string
	require.NoError(t, db.QueryRow(`SELECT DISTINCT _run_id FROM curriculum`).Scan(&runID))
	assert.Equal(t, second.RunID.String(), runID)
}

func TestSQLite_UnknownAndShortColumns(t *testing.T) {
	tbl := &table.Table{
		Header: []string{"id", `odd "name"`},
		Rows:   [][]string{{"x", "y"}, {"z"}},
	}
	dbPath := filepath.Join(t.TempDir(), "out.db")
	_, err := SQLite(context.Background(), dbPath, tbl, Run{})
	require.NoError(t, err)

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var odd sql.NullString
	require.NoError(t, db.QueryRow(`SELECT "odd ""name""" FROM curriculum WHERE _row_idx = 1`).Scan(&odd))
	assert.False(t, odd.Valid)
}

func TestSQLite_NoHeader(t *testing.T) {
	_, err := SQLite(context.Background(), filepath.Join(t.TempDir(), "x.db"), &table.Table{}, Run{})
	assert.Error(t, err)
}

func TestSQLite_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := SQLite(ctx, filepath.Join(t.TempDir(), "x.db"), sample(), Run{})
	assert.Error(t, err)
}

func TestSQLite_HeaderNamesLikeExporterColumns(t *testing.T) {
	tbl := &table.Table{
		Header: []string{"row_idx", "run_id", "id"},
		Rows:   [][]string{{"7", "r", "x"}},
	}
	dbPath := filepath.Join(t.TempDir(), "out.db")
	_, err := SQLite(context.Background(), dbPath, tbl, Run{})
	require.NoError(t, err)

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var idx int
	var rowIdx, runID string
	require.NoError(t, db.QueryRow(`SELECT _row_idx, row_idx, run_id FROM curriculum`).Scan(&idx, &rowIdx, &runID))
	assert.Equal(t, 0, idx)
	assert.Equal(t, "7", rowIdx)
	assert.Equal(t, "r", runID)
}

func TestSQLite_RejectsClashingHeader(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		msg    string
	}{
		{name: "row index", header: []string{"id", "_row_idx"}, msg: `column 1 "_row_idx" clashes`},
		{name: "run id any case", header: []string{"_RUN_ID"}, msg: `column 0 "_RUN_ID" clashes`},
		{name: "duplicate", header: []string{"id", "title", "ID"}, msg: `column 2 "ID" duplicates column 0 "id"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbPath := filepath.Join(t.TempDir(), "out.db")
			_, err := SQLite(context.Background(), dbPath, &table.Table{Header: tt.header}, Run{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)

			_, statErr := os.Stat(dbPath)
			assert.True(t, os.IsNotExist(statErr), "no database created")
		})
	}
}
