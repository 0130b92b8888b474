package ingest

import (
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/agentic-research/kaextract/internal/keydecode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawToken(s string) string {
	return base64.RawStdEncoding.EncodeToString([]byte(s))
}

func TestParseCourseProgress(t *testing.T) {
	doc := Document{Name: "courseProgressQuery.json", Data: []byte(`{
	  "data": {"user": {"courseProgress": {
	    "currentMasteryV2": {"percentage": 42, "pointsEarned": 1300},
	    "masteryMap": [
	      {"progressKey": "pk-e1", "status": "PROFICIENT"},
	      {"progressKey": "pk-e2", "status": "ATTEMPTED"}
	    ],
	    "unitProgresses": [
	      {"unitId": "u1", "currentMasteryV2": {"percentage": 80, "pointsEarned": 400}}
	    ]
	  }}}
	}`)}

	cp, err := ParseCourseProgress(doc)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), cp.Mastery.Percentage)
	assert.Equal(t, uint32(1300), cp.Mastery.PointsEarned)
	require.Len(t, cp.MasteryMap, 2)
	assert.Equal(t, "pk-e2", cp.MasteryMap[1].ProgressKey)
	assert.Equal(t, "ATTEMPTED", cp.MasteryMap[1].Status)
	require.Len(t, cp.Units, 1)
	assert.Equal(t, "u1", cp.Units[0].UnitID)
	assert.Equal(t, uint32(400), cp.Units[0].CurrentMasteryV2.PointsEarned)
}

func TestParseCourseProgress_MissingSection(t *testing.T) {
	for _, field := range []string{"currentMasteryV2", "masteryMap", "unitProgresses"} {
		t.Run(field, func(t *testing.T) {
			sections := map[string]string{
				"currentMasteryV2": `"currentMasteryV2": {"percentage": 1, "pointsEarned": 2}`,
				"masteryMap":       `"masteryMap": []`,
				"unitProgresses":   `"unitProgresses": []`,
			}
			delete(sections, field)
			body := ""
			for _, s := range sections {
				if body != "" {
					body += ","
				}
				body += s
			}
			doc := Document{Name: "p.json", Data: []byte(fmt.Sprintf(`{"data":{"user":{"courseProgress":{%s}}}}`, body))}
			_, err := ParseCourseProgress(doc)
			var mf *MissingFieldError
			require.ErrorAs(t, err, &mf)
			assert.Equal(t, field, mf.Field)
		})
	}
}

func TestParseCourseProgress_WrongShape(t *testing.T) {
	doc := Document{Name: "p.json", Data: []byte(`{"data":{"user":{"courseProgress":{
	  "currentMasteryV2": {"percentage": "lots", "pointsEarned": 2},
	  "masteryMap": [], "unitProgresses": []}}}}`)}
	_, err := ParseCourseProgress(doc)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}

func TestParseItemProgress(t *testing.T) {
	doc := Document{Name: "getUserInfoForTopicProgressMastery-1.json", Data: []byte(`{
	  "data": {"user": {"contentItemProgresses": [
	    {"__typename": "ExerciseItemProgress", "completionStatus": "COMPLETE",
	     "content": {"__typename": "Exercise", "id": "e1", "progressKey": "pk-e1"},
	     "bestScore": {"numAttempted": 5, "numCorrect": 3, "completedDate": "2024-01-02T00:00:00Z"}},
	    {"__typename": "BasicContentItemProgress", "completionStatus": "UNSTARTED",
	     "content": {"__typename": "Video", "id": "v1", "progressKey": "pk-v1"},
	     "bestScore": null},
	    {"__typename": "ExerciseItemProgress", "completionStatus": "STARTED",
	     "content": {"__typename": "Exercise", "id": "e2", "progressKey": "pk-e2"},
	     "bestScore": {"numAttempted": 4, "numCorrect": null}}
	  ]}}
	}`)}

	items, err := ParseItemProgress(doc)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "pk-e1", items[0].Content.ProgressKey)
	require.NotNil(t, items[0].BestScore)
	assert.Equal(t, uint32(5), *items[0].BestScore.NumAttempted)
	assert.Equal(t, uint32(3), *items[0].BestScore.NumCorrect)
	assert.Nil(t, items[1].BestScore)
	require.NotNil(t, items[2].BestScore)
	assert.Nil(t, items[2].BestScore.NumCorrect)
}

func TestParseItemProgress_Missing(t *testing.T) {
	_, err := ParseItemProgress(Document{Name: "b.json", Data: []byte(`{"data":{"user":{}}}`)})
	var mf *MissingFieldError
	require.ErrorAs(t, err, &mf)
	assert.Equal(t, "contentItemProgresses", mf.Field)
}

func TestParseAttempts(t *testing.T) {
	doc := Document{Name: "quizAndUnitTestAttemptsQuery-1.json", Data: []byte(fmt.Sprintf(`{
	  "data": {"user": {
	    "latestQuizAttempts": [
	      {"__typename": "TopicQuizAttempt", "isCompleted": true, "numAttempted": 6, "numCorrect": 5,
	       "positionKey": %q}
	    ],
	    "latestUnitTestAttempts": [
	      {"__typename": "TopicUnitTestAttempt", "id": %q, "isCompleted": false,
	       "numAttempted": 10, "numCorrect": 7}
	    ]
	  }}
	}`, rawToken("\x08\u0011q1\u000c\x10"), rawToken("TopicUnitTestAttempt:ut1\u000c9")))}

	batch, err := ParseAttempts(doc)
	require.NoError(t, err)
	require.Len(t, batch.Quizzes, 1)
	assert.Equal(t, "q1", batch.Quizzes[0].ParentID)
	assert.True(t, batch.Quizzes[0].IsCompleted)
	assert.Equal(t, uint32(6), batch.Quizzes[0].NumAttempted)
	require.Len(t, batch.UnitTests, 1)
	assert.Equal(t, "ut1", batch.UnitTests[0].ParentID)
	assert.False(t, batch.UnitTests[0].IsCompleted)
}

func TestParseAttempts_AbsentListsAreEmpty(t *testing.T) {
	batch, err := ParseAttempts(Document{Name: "a.json", Data: []byte(`{"data":{"user":{"latestQuizAttempts":null}}}`)})
	require.NoError(t, err)
	assert.Empty(t, batch.Quizzes)
	assert.Empty(t, batch.UnitTests)
}

func TestParseAttempts_BadToken(t *testing.T) {
	doc := Document{Name: "a.json", Data: []byte(fmt.Sprintf(
		`{"data":{"user":{"latestQuizAttempts":[{"positionKey":%q}]}}}`, rawToken("no delimiters here")))}
	_, err := ParseAttempts(doc)
	var de *keydecode.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Contains(t, err.Error(), "a.json")
}
