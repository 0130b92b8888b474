package ingest

import (
	"fmt"

	"github.com/agentic-research/kaextract/api"
)

const coursePath = "$.data.contentRoute.listedPathData.course"

// Child arrays of the curriculum tree, by depth.
const (
	unitChildren    = "unitChildren"
	lessonChildren  = "allOrderedChildren"
	contentChildren = "curatedChildren"
)

// CourseRoot parses a contentForPath document and returns its course node.
func CourseRoot(doc Document) (any, error) {
	data, err := decodeDocument(doc.Name, doc.Data)
	if err != nil {
		return nil, err
	}
	return NewJSONWalker().Lookup(data, coursePath, "course")
}

// Flatten walks a course node in pre-order and returns one record per
// curriculum node: the course, then each unit followed by its children,
// with content items only under children whose type is exactly "Lesson".
// Order is the 1-based position among siblings. Any malformed node fails
// the whole walk.
func Flatten(course any) ([]api.FlatRecord, error) {
	var out []api.FlatRecord

	root, err := newRecord(course, "$", nil, 1)
	if err != nil {
		return nil, err
	}
	out = append(out, root)

	units, err := children(course, "$", unitChildren)
	if err != nil {
		return nil, err
	}
	for i, unit := range units {
		unitPath := fmt.Sprintf("$.%s[%d]", unitChildren, i)
		unitRec, err := newRecord(unit, unitPath, &root, i+1)
		if err != nil {
			return nil, err
		}
		out = append(out, unitRec)

		lessons, err := children(unit, unitPath, lessonChildren)
		if err != nil {
			return nil, err
		}
		for j, lesson := range lessons {
			lessonPath := fmt.Sprintf("%s.%s[%d]", unitPath, lessonChildren, j)
			lessonRec, err := newRecord(lesson, lessonPath, &unitRec, j+1)
			if err != nil {
				return nil, err
			}
			out = append(out, lessonRec)

			if lessonRec.Type != api.TypeLesson {
				continue
			}
			items, err := children(lesson, lessonPath, contentChildren)
			if err != nil {
				return nil, err
			}
			for k, item := range items {
				itemPath := fmt.Sprintf("%s.%s[%d]", lessonPath, contentChildren, k)
				itemRec, err := newRecord(item, itemPath, &lessonRec, k+1)
				if err != nil {
					return nil, err
				}
				out = append(out, itemRec)
			}
		}
	}
	return out, nil
}

func children(node any, path, field string) ([]any, error) {
	obj, _ := node.(map[string]any)
	arr, ok := obj[field].([]any)
	if !ok {
		return nil, &MissingFieldError{Field: field, Path: path}
	}
	return arr, nil
}

func newRecord(node any, path string, parent *api.FlatRecord, order int) (api.FlatRecord, error) {
	obj, ok := node.(map[string]any)
	if !ok {
		return api.FlatRecord{}, &MissingFieldError{Field: "id", Path: path}
	}
	field := func(name string) (string, error) {
		s, ok := obj[name].(string)
		if !ok {
			return "", &MissingFieldError{Field: name, Path: path}
		}
		return s, nil
	}

	var rec api.FlatRecord
	var err error
	if rec.ID, err = field("id"); err != nil {
		return rec, err
	}
	typeName, err := field("__typename")
	if err != nil {
		return rec, err
	}
	rec.Type = api.NodeType(typeName)
	rec.Order = uint32(order)
	if rec.Title, err = field("translatedTitle"); err != nil {
		return rec, err
	}
	if rec.Slug, err = field("slug"); err != nil {
		return rec, err
	}
	if url, ok := obj["relativeUrl"].(string); ok {
		rec.RelativeURL = url
	} else if url, ok := obj["urlWithinCurationNode"].(string); ok {
		rec.RelativeURL = url
	} else {
		return rec, &MissingFieldError{Field: "relativeUrl or urlWithinCurationNode", Path: path}
	}

	if key, ok := obj["progressKey"].(string); ok {
		rec.ProgressKey = &key
	}
	if topic, ok := obj["parentTopic"].(map[string]any); ok {
		rec.ParentTopic, _ = topic["id"].(string)
	}
	if parent != nil {
		rec.ChildOf(parent)
	}
	return rec, nil
}
