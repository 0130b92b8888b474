package merge

import (
	"github.com/agentic-research/kaextract/api"
	"github.com/agentic-research/kaextract/internal/table"
)

type typedKey struct {
	typ api.NodeType
	key string
}

// index maps identity cells to the first row holding them. Empty keys are
// never indexed.
type index struct {
	ids          map[string]int
	progressKeys map[string]int
	typedIDs     map[typedKey]int
	// attempt fallbacks: quizzes by parentTopic, unit tests by parentId
	quizParents map[string]int
	testParents map[string]int
}

func buildIndex(t *table.Table) *index {
	idx := &index{
		ids:          make(map[string]int),
		progressKeys: make(map[string]int),
		typedIDs:     make(map[typedKey]int),
		quizParents:  make(map[string]int),
		testParents:  make(map[string]int),
	}
	for i := range t.Rows {
		id, _ := t.Cell(i, api.ColID)
		typ, _ := t.Cell(i, api.ColTypeName)
		pk, _ := t.Cell(i, api.ColProgressKey)

		first(idx.ids, id, i)
		first(idx.progressKeys, pk, i)
		if id != "" {
			k := typedKey{api.NodeType(typ), id}
			if _, ok := idx.typedIDs[k]; !ok {
				idx.typedIDs[k] = i
			}
		}
		switch api.NodeType(typ) {
		case api.TypeTopicQuiz:
			parent, _ := t.Cell(i, api.ColParentTopic)
			first(idx.quizParents, parent, i)
		case api.TypeTopicUnitTest:
			parent, _ := t.Cell(i, api.ColParentID)
			first(idx.testParents, parent, i)
		}
	}
	return idx
}

func first(m map[string]int, key string, row int) {
	if key == "" {
		return
	}
	if _, ok := m[key]; !ok {
		m[key] = row
	}
}

func (idx *index) byID(id string) (int, bool) {
	row, ok := idx.ids[id]
	return row, ok
}

func (idx *index) byProgressKey(key string) (int, bool) {
	row, ok := idx.progressKeys[key]
	return row, ok
}

// attemptRow finds the row an attempt belongs to: the first row of type typ
// whose id is parentID, else the first such row whose parent column
// (parentTopic for quizzes, parentId for unit tests) is parentID.
func (idx *index) attemptRow(typ api.NodeType, parentID string) (int, bool) {
	if parentID == "" {
		return 0, false
	}
	if row, ok := idx.typedIDs[typedKey{typ, parentID}]; ok {
		return row, true
	}
	var fallback map[string]int
	switch typ {
	case api.TypeTopicQuiz:
		fallback = idx.quizParents
	case api.TypeTopicUnitTest:
		fallback = idx.testParents
	default:
		return 0, false
	}
	row, ok := fallback[parentID]
	return row, ok
}
