package ingest

import (
	"encoding/json"
	"fmt"

	"github.com/ohler55/ojg/jp"
)

// JSONWalker evaluates JSONPath selectors against decoded snapshot documents.
// Compiled selectors are cached, since every batch file is queried with the
// same handful of paths.
type JSONWalker struct {
	cache map[string]jp.Expr
}

func NewJSONWalker() *JSONWalker {
	return &JSONWalker{cache: make(map[string]jp.Expr)}
}

func (w *JSONWalker) compile(selector string) (jp.Expr, error) {
	if x, ok := w.cache[selector]; ok {
		return x, nil
	}
	x, err := jp.ParseString(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath '%s': %w", selector, err)
	}
	w.cache[selector] = x
	return x, nil
}

// Query returns every value selector matches under root.
func (w *JSONWalker) Query(root any, selector string) ([]any, error) {
	x, err := w.compile(selector)
	if err != nil {
		return nil, err
	}
	return x.Get(root), nil
}

// Lookup returns the single value at selector. A selector with no match, or
// one matching JSON null, is reported as a MissingFieldError naming field.
func (w *JSONWalker) Lookup(root any, selector, field string) (any, error) {
	matches, err := w.Query(root, selector)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 || matches[0] == nil {
		return nil, &MissingFieldError{Field: field, Path: selector}
	}
	return matches[0], nil
}

// LookupArray is Lookup for values that must be JSON arrays.
func (w *JSONWalker) LookupArray(root any, selector, field string) ([]any, error) {
	v, err := w.Lookup(root, selector, field)
	if err != nil {
		return nil, err
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, &MissingFieldError{Field: field, Path: selector}
	}
	return arr, nil
}

// decodeDocument parses raw snapshot bytes into generic JSON values.
func decodeDocument(name string, data []byte) (any, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{File: name, Err: err}
	}
	return doc, nil
}

// into converts a generic JSON value into a typed payload.
func into(name string, v any, out any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return &ParseError{File: name, Err: err}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &ParseError{File: name, Err: err}
	}
	return nil
}
