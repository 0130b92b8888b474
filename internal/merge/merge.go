// Package merge overlays progress data onto a flattened curriculum table.
//
// Updates run in six fixed phases (see Phase). Each source record updates
// at most the first row it matches; a later phase may overwrite cells an
// earlier phase wrote. Records that match nothing are skipped.
package merge

import (
	"strconv"

	"github.com/agentic-research/kaextract/api"
	"github.com/agentic-research/kaextract/internal/logger"
	"github.com/agentic-research/kaextract/internal/table"
)

const (
	statusComplete    = "COMPLETE"
	statusUncompleted = "UNCOMPLETED"
)

// Input is every progress source of one run.
type Input struct {
	Mastery    api.MasteryV2
	MasteryMap []api.MasteryMapItem
	Units      []api.UnitProgress
	// Items holds one slice per getUserInfoForTopicProgressMastery batch.
	Items [][]api.ContentItemProgress
	// Attempts holds one entry per quizAndUnitTestAttemptsQuery batch,
	// with parent ids already decoded.
	Attempts []api.AttemptBatch
}

// FromCourseProgress starts an Input from a parsed course progress document.
func FromCourseProgress(cp api.CourseProgress) Input {
	return Input{Mastery: cp.Mastery, MasteryMap: cp.MasteryMap, Units: cp.Units}
}

type Merger struct {
	log *logger.Logger
}

func New(log *logger.Logger) *Merger {
	if log == nil {
		log = logger.Nop()
	}
	return &Merger{log: log}
}

// Plan computes the cell updates for t, in phase order. Matching only reads
// identity columns, which no phase writes, so the plan is the same as
// matching each phase against the table left by the previous one.
func (m *Merger) Plan(t *table.Table, in Input) ([]table.Instruction, *Report) {
	p := &planner{log: m.log, idx: buildIndex(t), report: newReport(len(t.Rows))}

	p.courseMastery(len(t.Rows), in.Mastery)
	for _, item := range in.MasteryMap {
		p.masteryItem(item)
	}
	for _, unit := range in.Units {
		p.unitMastery(unit)
	}
	for _, batch := range in.Items {
		for _, item := range batch {
			p.itemProgress(item)
		}
	}
	for _, batch := range in.Attempts {
		for _, q := range batch.Quizzes {
			p.attempt(PhaseQuizAttempts, api.TypeTopicQuiz, q.ParentID, q.IsCompleted, q.NumAttempted, q.NumCorrect)
		}
	}
	for _, batch := range in.Attempts {
		for _, u := range batch.UnitTests {
			p.attempt(PhaseUnitTestAttempts, api.TypeTopicUnitTest, u.ParentID, u.IsCompleted, u.NumAttempted, u.NumCorrect)
		}
	}
	return p.out, p.report
}

// Apply plans the merge and applies it to t in place.
func (m *Merger) Apply(t *table.Table, in Input) (*Report, error) {
	batch, report := m.Plan(t, in)
	if err := table.Apply(t, batch); err != nil {
		return nil, err
	}
	return report, nil
}

type planner struct {
	log    *logger.Logger
	idx    *index
	report *Report
	out    []table.Instruction
}

func (p *planner) set(phase Phase, row int, values map[api.Column]string) {
	// fixed column order keeps plans deterministic
	for c := api.ColPercentage; c <= api.ColNumIncorrect; c++ {
		if v, ok := values[c]; ok {
			p.out = append(p.out, table.Set(row, c, v))
		}
	}
	st := p.report.phase(phase)
	st.Matched++
	st.Rows.Add(uint32(row))
}

func (p *planner) miss(phase Phase) {
	p.report.phase(phase).Missed++
}

func (p *planner) courseMastery(rows int, mastery api.MasteryV2) {
	st := p.report.phase(PhaseCourseMastery)
	st.Sources++
	if rows == 0 {
		p.miss(PhaseCourseMastery)
		return
	}
	p.set(PhaseCourseMastery, 0, map[api.Column]string{
		api.ColPercentage:   formatUint(mastery.Percentage),
		api.ColPointsEarned: formatUint(mastery.PointsEarned),
	})
}

func (p *planner) masteryItem(item api.MasteryMapItem) {
	p.report.phase(PhaseMasteryMap).Sources++
	row, ok := p.idx.byProgressKey(item.ProgressKey)
	if !ok {
		p.miss(PhaseMasteryMap)
		p.log.Debug("mastery map item matches no row", "progress_key", item.ProgressKey)
		return
	}
	p.set(PhaseMasteryMap, row, map[api.Column]string{api.ColStatus: item.Status})
}

func (p *planner) unitMastery(unit api.UnitProgress) {
	p.report.phase(PhaseUnitMastery).Sources++
	row, ok := p.idx.byID(unit.UnitID)
	if !ok {
		p.miss(PhaseUnitMastery)
		p.log.Debug("unit progress matches no row", "unit_id", unit.UnitID)
		return
	}
	p.set(PhaseUnitMastery, row, map[api.Column]string{
		api.ColPercentage:   formatUint(unit.CurrentMasteryV2.Percentage),
		api.ColPointsEarned: formatUint(unit.CurrentMasteryV2.PointsEarned),
	})
}

func (p *planner) itemProgress(item api.ContentItemProgress) {
	p.report.phase(PhaseItemProgress).Sources++
	row, ok := p.idx.byProgressKey(item.Content.ProgressKey)
	if !ok {
		p.miss(PhaseItemProgress)
		p.log.Debug("content item progress matches no row",
			"progress_key", item.Content.ProgressKey, "content_id", item.Content.ID)
		return
	}
	values := map[api.Column]string{api.ColCompletionStatus: item.CompletionStatus}
	if bs := item.BestScore; bs != nil {
		values[api.ColNumAttempted] = formatOptional(bs.NumAttempted)
		values[api.ColNumCorrect] = formatOptional(bs.NumCorrect)
		values[api.ColNumIncorrect] = ""
		if bs.NumAttempted != nil && bs.NumCorrect != nil {
			values[api.ColNumIncorrect] = p.incorrect(row, *bs.NumAttempted, *bs.NumCorrect)
		}
	}
	p.set(PhaseItemProgress, row, values)
}

func (p *planner) attempt(phase Phase, typ api.NodeType, parentID string, completed bool, attempted, correct uint32) {
	p.report.phase(phase).Sources++
	row, ok := p.idx.attemptRow(typ, parentID)
	if !ok {
		p.miss(phase)
		p.log.Info("attempt references no row in this curriculum snapshot",
			"phase", phase.String(), "parent_id", parentID, "type", string(typ))
		return
	}
	status := statusUncompleted
	if completed {
		status = statusComplete
	}
	p.set(phase, row, map[api.Column]string{
		api.ColCompletionStatus: status,
		api.ColNumAttempted:     formatUint(attempted),
		api.ColNumCorrect:       formatUint(correct),
		api.ColNumIncorrect:     p.incorrect(row, attempted, correct),
	})
}

// incorrect is attempted - correct, clamped at zero.
func (p *planner) incorrect(row int, attempted, correct uint32) string {
	if correct > attempted {
		p.report.Clamped++
		p.log.Warn("more correct answers than attempts, clamping incorrect count to 0",
			"row", row, "num_attempted", attempted, "num_correct", correct)
		return "0"
	}
	return formatUint(attempted - correct)
}

func formatUint(v uint32) string {
	return strconv.FormatUint(uint64(v), 10)
}

func formatOptional(v *uint32) string {
	if v == nil {
		return ""
	}
	return formatUint(*v)
}
