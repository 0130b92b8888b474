// Package pipeline runs an extraction: discover the snapshots, flatten the
// curriculum into a table, merge progress into it and optionally mirror the
// result into SQLite. Stages run strictly in that order.
package pipeline

import (
	"context"
	"fmt"
	"path"

	billy "github.com/go-git/go-billy/v5"
	"github.com/google/uuid"

	"github.com/agentic-research/kaextract/api"
	"github.com/agentic-research/kaextract/internal/export"
	"github.com/agentic-research/kaextract/internal/ingest"
	"github.com/agentic-research/kaextract/internal/logger"
	"github.com/agentic-research/kaextract/internal/merge"
	"github.com/agentic-research/kaextract/internal/table"
)

type Options struct {
	// Prefix is shared by every snapshot file of one capture.
	Prefix string
	// SQLitePath, when set, receives a mirror of the final table.
	SQLitePath string
	// RunID tags log lines and the SQLite export. Generated when zero.
	RunID uuid.UUID
}

// Result describes what a stage produced.
type Result struct {
	RunID  uuid.UUID
	Output string // table file name inside the snapshot directory
	Rows   int
	Report *merge.Report
	Export *export.Result
}

type Pipeline struct {
	fs     billy.Filesystem
	opts   Options
	log    *logger.Logger
	store  *table.Store
	merger *merge.Merger
}

// New prepares a pipeline over the snapshot directory fsys. The output
// table is written into the same directory.
func New(fsys billy.Filesystem, opts Options, log *logger.Logger) *Pipeline {
	if opts.RunID == uuid.Nil {
		opts.RunID = uuid.New()
	}
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("run_id", opts.RunID.String())
	return &Pipeline{
		fs:     fsys,
		opts:   opts,
		log:    log,
		store:  table.NewStore(fsys),
		merger: merge.New(log),
	}
}

func (p *Pipeline) output() string {
	return ingest.OutputName(p.opts.Prefix)
}

func (p *Pipeline) result() *Result {
	return &Result{RunID: p.opts.RunID, Output: p.output()}
}

// Run executes every stage. All inputs are parsed before the table is
// written, so a malformed progress file leaves no output behind.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	snap, err := ingest.Discover(p.fs, p.opts.Prefix)
	if err != nil {
		return nil, err
	}
	p.log.Info("discovered snapshots",
		"content", snap.Content.Name,
		"course_progress", snap.CourseProgress.Name,
		"item_batches", len(snap.ItemBatches),
		"attempt_batches", len(snap.AttemptBatches))

	in, err := parseProgress(snap)
	if err != nil {
		return nil, err
	}
	records, err := flatten(snap.Content)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := p.result()
	if res.Rows, err = p.create(records); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if res.Report, err = p.merge(in); err != nil {
		return nil, err
	}
	if p.opts.SQLitePath != "" {
		if res.Export, err = p.export(ctx, p.opts.SQLitePath); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Flatten writes a fresh table from the content snapshot alone.
func (p *Pipeline) Flatten(ctx context.Context) (*Result, error) {
	doc, err := ingest.DiscoverContent(p.fs, p.opts.Prefix)
	if err != nil {
		return nil, err
	}
	records, err := flatten(doc)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := p.result()
	if res.Rows, err = p.create(records); err != nil {
		return nil, err
	}
	return res, nil
}

// Merge overlays the progress snapshots onto an existing table.
func (p *Pipeline) Merge(ctx context.Context) (*Result, error) {
	snap, err := ingest.DiscoverProgress(p.fs, p.opts.Prefix)
	if err != nil {
		return nil, err
	}
	in, err := parseProgress(snap)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := p.result()
	if res.Report, err = p.merge(in); err != nil {
		return nil, err
	}
	res.Rows = res.Report.RowCount
	return res, nil
}

// Export mirrors the existing table into the SQLite database at dbPath.
func (p *Pipeline) Export(ctx context.Context, dbPath string) (*Result, error) {
	res := p.result()
	var err error
	if res.Export, err = p.export(ctx, dbPath); err != nil {
		return nil, err
	}
	res.Rows = res.Export.Rows
	return res, nil
}

func flatten(doc ingest.Document) ([]api.FlatRecord, error) {
	course, err := ingest.CourseRoot(doc)
	if err != nil {
		return nil, err
	}
	records, err := ingest.Flatten(course)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", doc.Name, err)
	}
	return records, nil
}

func parseProgress(snap *ingest.Snapshot) (merge.Input, error) {
	cp, err := ingest.ParseCourseProgress(snap.CourseProgress)
	if err != nil {
		return merge.Input{}, err
	}
	in := merge.FromCourseProgress(cp)
	for _, doc := range snap.ItemBatches {
		items, err := ingest.ParseItemProgress(doc)
		if err != nil {
			return merge.Input{}, err
		}
		in.Items = append(in.Items, items)
	}
	for _, doc := range snap.AttemptBatches {
		batch, err := ingest.ParseAttempts(doc)
		if err != nil {
			return merge.Input{}, err
		}
		in.Attempts = append(in.Attempts, batch)
	}
	return in, nil
}

func (p *Pipeline) create(records []api.FlatRecord) (int, error) {
	if err := p.store.Create(p.output(), records); err != nil {
		return 0, err
	}
	p.log.Info("created table", "file", p.output(), "rows", len(records))
	return len(records), nil
}

func (p *Pipeline) merge(in merge.Input) (*merge.Report, error) {
	var report *merge.Report
	err := p.store.Update(p.output(), func(t *table.Table) ([]table.Instruction, error) {
		var batch []table.Instruction
		batch, report = p.merger.Plan(t, in)
		return batch, nil
	})
	if err != nil {
		return nil, err
	}
	p.log.Info("merged progress",
		"file", p.output(),
		"rows", report.RowCount,
		"touched", report.Touched().GetCardinality(),
		"untouched", len(report.Untouched()),
		"clamped", report.Clamped)
	for _, st := range report.Phases {
		p.log.Debug("merge phase", "phase", st.Phase.String(),
			"sources", st.Sources, "matched", st.Matched, "missed", st.Missed)
	}
	return report, nil
}

func (p *Pipeline) export(ctx context.Context, dbPath string) (*export.Result, error) {
	t, err := p.store.Read(p.output())
	if err != nil {
		return nil, err
	}
	res, err := export.SQLite(ctx, dbPath, t, export.Run{
		ID:     p.opts.RunID,
		Source: path.Join(p.fs.Root(), p.output()),
	})
	if err != nil {
		return nil, err
	}
	p.log.Info("exported table", "sqlite", dbPath, "rows", res.Rows)
	return &res, nil
}
