package api

import (
	"strconv"
	"strings"
)

// Column is a position in the output table.
type Column int

// Output columns, in header order.
const (
	ColID Column = iota
	ColTypeName
	ColOrder
	ColTitle
	ColSlug
	ColRelativeURL
	ColProgressKey
	ColParentTopic
	ColParentID
	ColParentType
	ColParentTitle
	ColParentSlug
	ColParentRelativeURL
	ColPercentage
	ColPointsEarned
	ColStatus
	ColCompletionStatus
	ColNumAttempted
	ColNumCorrect
	ColNumIncorrect
)

// Columns is the header of the output table. Create and update both
// address cells through it, so the two can never drift apart.
var Columns = []string{
	ColID:                "id",
	ColTypeName:          "typeName",
	ColOrder:             "order",
	ColTitle:             "title",
	ColSlug:              "slug",
	ColRelativeURL:       "relativeUrl",
	ColProgressKey:       "progressKey",
	ColParentTopic:       "parentTopic",
	ColParentID:          "parentId",
	ColParentType:        "parentType",
	ColParentTitle:       "parentTitle",
	ColParentSlug:        "parentSlug",
	ColParentRelativeURL: "parentRelativeUrl",
	ColPercentage:        "percentage",
	ColPointsEarned:      "pointsEarned",
	ColStatus:            "status",
	ColCompletionStatus:  "completionStatus",
	ColNumAttempted:      "numAttempted",
	ColNumCorrect:        "numCorrect",
	ColNumIncorrect:      "numIncorrect",
}

// Name returns the header name of c, or its index when c is outside the schema.
func (c Column) Name() string {
	if c < 0 || int(c) >= len(Columns) {
		return "column " + strconv.Itoa(int(c))
	}
	return Columns[c]
}

// NodeType is the upstream __typename of a curriculum node. The set is open:
// values not listed below are carried through unchanged.
type NodeType string

const (
	TypeCourse        NodeType = "Course"
	TypeUnit          NodeType = "Unit"
	TypeLesson        NodeType = "Lesson"
	TypeTopic         NodeType = "Topic"
	TypeTopicQuiz     NodeType = "TopicQuiz"
	TypeTopicUnitTest NodeType = "TopicUnitTest"
	TypeVideo         NodeType = "Video"
	TypeArticle       NodeType = "Article"
	TypeExercise      NodeType = "Exercise"
)

// Known reports whether t is one of the node types observed upstream.
func (t NodeType) Known() bool {
	switch t {
	case TypeCourse, TypeUnit, TypeLesson, TypeTopic, TypeTopicQuiz,
		TypeTopicUnitTest, TypeVideo, TypeArticle, TypeExercise:
		return true
	}
	return false
}

// FlatRecord is one row of the output table: a curriculum node with copies
// of its structural parent's display fields and, after merging, its progress.
type FlatRecord struct {
	ID          string
	Type        NodeType
	Order       uint32 // 1-based position among siblings
	Title       string
	Slug        string
	RelativeURL string
	ProgressKey *string
	ParentTopic string

	ParentID          *string
	ParentType        *NodeType
	ParentTitle       *string
	ParentSlug        *string
	ParentRelativeURL *string

	Percentage       *string
	PointsEarned     *string
	Status           *string
	CompletionStatus *string
	NumAttempted     *string
	NumCorrect       *string
	NumIncorrect     *string
}

// Row renders r in Columns order. Absent optional fields become "".
func (r *FlatRecord) Row() []string {
	row := make([]string, len(Columns))
	row[ColID] = r.ID
	row[ColTypeName] = string(r.Type)
	row[ColOrder] = strconv.FormatUint(uint64(r.Order), 10)
	row[ColTitle] = r.Title
	row[ColSlug] = r.Slug
	row[ColRelativeURL] = r.RelativeURL
	row[ColProgressKey] = deref(r.ProgressKey)
	row[ColParentTopic] = r.ParentTopic
	row[ColParentID] = deref(r.ParentID)
	if r.ParentType != nil {
		row[ColParentType] = string(*r.ParentType)
	}
	row[ColParentTitle] = deref(r.ParentTitle)
	row[ColParentSlug] = deref(r.ParentSlug)
	row[ColParentRelativeURL] = deref(r.ParentRelativeURL)
	row[ColPercentage] = deref(r.Percentage)
	row[ColPointsEarned] = deref(r.PointsEarned)
	row[ColStatus] = deref(r.Status)
	row[ColCompletionStatus] = deref(r.CompletionStatus)
	row[ColNumAttempted] = deref(r.NumAttempted)
	row[ColNumCorrect] = deref(r.NumCorrect)
	row[ColNumIncorrect] = deref(r.NumIncorrect)
	for i := range row {
		row[i] = CellValue(row[i])
	}
	return row
}

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// CellValue normalizes line endings in a cell to "\n". CSV readers drop the
// "\r" of a quoted "\r\n", so only normalized cells survive a rewrite of
// the table unchanged.
func CellValue(s string) string {
	if !strings.ContainsRune(s, '\r') {
		return s
	}
	return lineEndings.Replace(s)
}

// ChildOf fills r's parent fields with copies of p's identity fields.
func (r *FlatRecord) ChildOf(p *FlatRecord) {
	id, typ, title, slug, url := p.ID, p.Type, p.Title, p.Slug, p.RelativeURL
	r.ParentID = &id
	r.ParentType = &typ
	r.ParentTitle = &title
	r.ParentSlug = &slug
	r.ParentRelativeURL = &url
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
