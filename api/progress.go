package api

// MasteryV2 is the aggregate score the platform computes for a course or unit.
type MasteryV2 struct {
	Percentage   uint32 `json:"percentage"`
	PointsEarned uint32 `json:"pointsEarned"`
}

// MasteryMapItem is the mastery status of one progress-bearing node.
type MasteryMapItem struct {
	ProgressKey string `json:"progressKey"`
	Status      string `json:"status"`
}

// UnitProgress is the mastery rollup of one unit.
type UnitProgress struct {
	UnitID           string    `json:"unitId"`
	CurrentMasteryV2 MasteryV2 `json:"currentMasteryV2"`
}

// CourseProgress groups the payloads of a courseProgressQuery document.
type CourseProgress struct {
	Mastery    MasteryV2
	MasteryMap []MasteryMapItem
	Units      []UnitProgress
}

// Content identifies the curriculum node a ContentItemProgress refers to.
type Content struct {
	TypeName    string `json:"__typename"`
	ID          string `json:"id"`
	ProgressKey string `json:"progressKey"`
}

// BestScore is the best recorded attempt at a content item. Any field may
// be missing upstream.
type BestScore struct {
	CompletedDate *string `json:"completedDate"`
	NumAttempted  *uint32 `json:"numAttempted"`
	NumCorrect    *uint32 `json:"numCorrect"`
}

// ContentItemProgress is one entry of a getUserInfoForTopicProgressMastery batch.
type ContentItemProgress struct {
	TypeName         string     `json:"__typename"`
	CompletionStatus string     `json:"completionStatus"`
	Content          Content    `json:"content"`
	BestScore        *BestScore `json:"bestScore"`
}

// QuizAttempt is the latest attempt at a topic quiz. ParentID is not part of
// the payload; it is recovered from PositionKey.
type QuizAttempt struct {
	TypeName     string `json:"__typename"`
	IsCompleted  bool   `json:"isCompleted"`
	NumAttempted uint32 `json:"numAttempted"`
	NumCorrect   uint32 `json:"numCorrect"`
	PositionKey  string `json:"positionKey"`
	ParentID     string `json:"-"`
}

// UnitTestAttempt is the latest attempt at a unit test. ParentID is not part
// of the payload; it is recovered from ID.
type UnitTestAttempt struct {
	TypeName     string `json:"__typename"`
	ID           string `json:"id"`
	IsCompleted  bool   `json:"isCompleted"`
	NumAttempted uint32 `json:"numAttempted"`
	NumCorrect   uint32 `json:"numCorrect"`
	ParentID     string `json:"-"`
}

// AttemptBatch groups the attempts of one quizAndUnitTestAttemptsQuery document.
type AttemptBatch struct {
	Quizzes   []QuizAttempt
	UnitTests []UnitTestAttempt
}
