package pipeline

import (
	"encoding/csv"
	"errors"
	"io/fs"
	"os"

	"github.com/agentic-research/kaextract/internal/ingest"
	"github.com/agentic-research/kaextract/internal/keydecode"
	"github.com/agentic-research/kaextract/internal/table"
)

// Error kinds reported by the CLI.
const (
	KindIO           = "IoError"
	KindParse        = "ParseError"
	KindMissingField = "MissingFieldError"
	KindMissingFile  = "MissingFileError"
	KindDecode       = "DecodeError"
	KindColumnIndex  = "ColumnIndexError"
	KindOther        = "Error"
)

// Kind classifies err by the most specific failure it wraps.
func Kind(err error) string {
	var (
		decodeErr *keydecode.DecodeError
		colErr    *table.ColumnIndexError
		fileErr   *ingest.MissingFileError
		fieldErr  *ingest.MissingFieldError
		parseErr  *ingest.ParseError
		csvErr    *csv.ParseError
		ioErr     *ingest.IOError
		pathErr   *fs.PathError
		linkErr   *os.LinkError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &decodeErr):
		return KindDecode
	case errors.As(err, &colErr):
		return KindColumnIndex
	case errors.As(err, &fileErr):
		return KindMissingFile
	case errors.As(err, &fieldErr):
		return KindMissingField
	case errors.As(err, &parseErr), errors.As(err, &csvErr):
		return KindParse
	case errors.As(err, &ioErr), errors.As(err, &pathErr), errors.As(err, &linkErr),
		errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		return KindIO
	}
	return KindOther
}
