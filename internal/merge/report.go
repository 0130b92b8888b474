package merge

import (
	"fmt"
	"strings"

	"github.com/RoaringBitmap/roaring"
)

// Phase is one of the six update passes, in the order they are applied.
type Phase int

const (
	PhaseCourseMastery Phase = iota
	PhaseMasteryMap
	PhaseUnitMastery
	PhaseItemProgress
	PhaseQuizAttempts
	PhaseUnitTestAttempts
)

var phaseNames = [...]string{
	PhaseCourseMastery:    "course-mastery",
	PhaseMasteryMap:       "mastery-map",
	PhaseUnitMastery:      "unit-mastery",
	PhaseItemProgress:     "item-progress",
	PhaseQuizAttempts:     "quiz-attempts",
	PhaseUnitTestAttempts: "unit-test-attempts",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// PhaseStats counts what one phase did. Rows holds the indices of the rows
// it wrote to.
type PhaseStats struct {
	Phase   Phase
	Sources int
	Matched int
	Missed  int
	Rows    *roaring.Bitmap
}

// Report summarizes a merge over a table of RowCount rows.
type Report struct {
	RowCount int
	Phases   []PhaseStats
	// Clamped counts attempts reporting more correct answers than attempts.
	Clamped int
}

func newReport(rows int) *Report {
	r := &Report{RowCount: rows, Phases: make([]PhaseStats, len(phaseNames))}
	for i := range r.Phases {
		r.Phases[i] = PhaseStats{Phase: Phase(i), Rows: roaring.New()}
	}
	return r
}

func (r *Report) phase(p Phase) *PhaseStats { return &r.Phases[p] }

// Touched is the set of rows written by any phase.
func (r *Report) Touched() *roaring.Bitmap {
	all := roaring.New()
	for _, p := range r.Phases {
		all.Or(p.Rows)
	}
	return all
}

// Untouched lists rows no phase wrote to, in ascending order.
func (r *Report) Untouched() []uint32 {
	all := roaring.New()
	if r.RowCount > 0 {
		all.AddRange(0, uint64(r.RowCount))
	}
	all.AndNot(r.Touched())
	return all.ToArray()
}

// Overlapping is the set of rows written by more than one phase. Cells of
// those rows may have been overwritten by a later phase.
func (r *Report) Overlapping() *roaring.Bitmap {
	seen := roaring.New()
	twice := roaring.New()
	for _, p := range r.Phases {
		twice.Or(roaring.And(seen, p.Rows))
		seen.Or(p.Rows)
	}
	return twice
}

func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "rows: %d, touched: %d, untouched: %d, overlapping: %d, clamped: %d\n",
		r.RowCount, r.Touched().GetCardinality(), len(r.Untouched()), r.Overlapping().GetCardinality(), r.Clamped)
	for _, p := range r.Phases {
		fmt.Fprintf(&b, "  %-18s sources=%d matched=%d missed=%d\n", p.Phase, p.Sources, p.Matched, p.Missed)
	}
	return b.String()
}
