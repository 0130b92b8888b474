package ingest

import (
	"fmt"

	"github.com/agentic-research/kaextract/api"
	"github.com/agentic-research/kaextract/internal/keydecode"
)

const (
	courseProgressPath = "$.data.user.courseProgress"
	itemProgressPath   = "$.data.user.contentItemProgresses"
	quizAttemptsPath   = "$.data.user.latestQuizAttempts"
	unitTestsPath      = "$.data.user.latestUnitTestAttempts"
)

// ParseCourseProgress extracts the course mastery, the mastery map and the
// per-unit rollups from a courseProgressQuery document.
func ParseCourseProgress(doc Document) (api.CourseProgress, error) {
	var cp api.CourseProgress
	data, err := decodeDocument(doc.Name, doc.Data)
	if err != nil {
		return cp, err
	}
	w := NewJSONWalker()

	mastery, err := w.Lookup(data, courseProgressPath+".currentMasteryV2", "currentMasteryV2")
	if err != nil {
		return cp, err
	}
	if err := into(doc.Name, mastery, &cp.Mastery); err != nil {
		return cp, err
	}

	masteryMap, err := w.LookupArray(data, courseProgressPath+".masteryMap", "masteryMap")
	if err != nil {
		return cp, err
	}
	if err := into(doc.Name, masteryMap, &cp.MasteryMap); err != nil {
		return cp, err
	}

	units, err := w.LookupArray(data, courseProgressPath+".unitProgresses", "unitProgresses")
	if err != nil {
		return cp, err
	}
	if err := into(doc.Name, units, &cp.Units); err != nil {
		return cp, err
	}
	return cp, nil
}

// ParseItemProgress extracts the content item progress list of one
// getUserInfoForTopicProgressMastery batch.
func ParseItemProgress(doc Document) ([]api.ContentItemProgress, error) {
	data, err := decodeDocument(doc.Name, doc.Data)
	if err != nil {
		return nil, err
	}
	items, err := NewJSONWalker().LookupArray(data, itemProgressPath, "contentItemProgresses")
	if err != nil {
		return nil, err
	}
	var out []api.ContentItemProgress
	if err := into(doc.Name, items, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ParseAttempts extracts the quiz and unit-test attempts of one
// quizAndUnitTestAttemptsQuery batch and recovers each attempt's parent id.
// A missing attempt list is treated as empty; an undecodable token is fatal.
func ParseAttempts(doc Document) (api.AttemptBatch, error) {
	var batch api.AttemptBatch
	data, err := decodeDocument(doc.Name, doc.Data)
	if err != nil {
		return batch, err
	}
	w := NewJSONWalker()

	quizzes, err := optionalArray(w, data, quizAttemptsPath)
	if err != nil {
		return batch, err
	}
	if err := into(doc.Name, quizzes, &batch.Quizzes); err != nil {
		return batch, err
	}
	for i := range batch.Quizzes {
		q := &batch.Quizzes[i]
		if q.ParentID, err = keydecode.QuizParent(q.PositionKey); err != nil {
			return batch, fmt.Errorf("%s: quiz attempt %d: %w", doc.Name, i, err)
		}
	}

	tests, err := optionalArray(w, data, unitTestsPath)
	if err != nil {
		return batch, err
	}
	if err := into(doc.Name, tests, &batch.UnitTests); err != nil {
		return batch, err
	}
	for i := range batch.UnitTests {
		u := &batch.UnitTests[i]
		if u.ParentID, err = keydecode.UnitTestParent(u.ID); err != nil {
			return batch, fmt.Errorf("%s: unit test attempt %d: %w", doc.Name, i, err)
		}
	}
	return batch, nil
}

func optionalArray(w *JSONWalker, data any, selector string) ([]any, error) {
	matches, err := w.Query(data, selector)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return []any{}, nil
	}
	arr, ok := matches[0].([]any)
	if !ok {
		return []any{}, nil
	}
	return arr, nil
}
