package ingest

import "fmt"

// IOError wraps a filesystem failure while reading or listing snapshots.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ParseError reports a snapshot that is not valid JSON or whose payload
// does not fit the expected shape.
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// MissingFieldError reports a required field absent from a source document.
// Path is the JSON location searched, when known.
type MissingFieldError struct {
	Field string
	Path  string
}

func (e *MissingFieldError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("missing field %q", e.Field)
	}
	return fmt.Sprintf("missing field %q at %s", e.Field, e.Path)
}

// MissingFileError reports a required snapshot that could not be found by
// naming convention. Name is the logical file name, without prefix.
type MissingFileError struct {
	Name string
	Dir  string
}

func (e *MissingFileError) Error() string {
	if e.Dir == "" {
		return fmt.Sprintf("%s file not found", e.Name)
	}
	return fmt.Sprintf("%s file not found in %s", e.Name, e.Dir)
}
