package table

import (
	"bytes"
	"fmt"
	"os"
	"path"

	"github.com/agentic-research/kaextract/api"
	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// Store reads and writes tables on a billy filesystem.
type Store struct {
	fs billy.Filesystem
}

func NewStore(fs billy.Filesystem) *Store {
	return &Store{fs: fs}
}

// Create writes a fresh table for records, replacing any existing file.
func (s *Store) Create(name string, records []api.FlatRecord) error {
	return s.Write(name, New(records))
}

// Read loads the table stored under name.
func (s *Store) Read(name string) (*Table, error) {
	data, err := util.ReadFile(s.fs, name)
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", name, err)
	}
	t, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode table %s: %w", name, err)
	}
	return t, nil
}

// Update reads the table, asks build for instructions, applies them and
// writes the result back. Nothing is written if any step fails.
func (s *Store) Update(name string, build func(*Table) ([]Instruction, error)) error {
	t, err := s.Read(name)
	if err != nil {
		return err
	}
	batch, err := build(t)
	if err != nil {
		return err
	}
	if err := Apply(t, batch); err != nil {
		return fmt.Errorf("update table %s: %w", name, err)
	}
	return s.Write(name, t)
}

// Write replaces the file under name with t.
// The write is atomic: content is written to a temp file first, then renamed.
func (s *Store) Write(name string, t *Table) error {
	data, err := t.Bytes()
	if err != nil {
		return fmt.Errorf("encode table %s: %w", name, err)
	}

	dir := path.Dir(name)
	tmp, err := util.TempFile(s.fs, dir, ".kaextract-table-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("close temp: %w", err)
	}

	// Preserve original file permissions
	if ch, ok := s.fs.(billy.Change); ok {
		mode := os.FileMode(0o644)
		if info, err := s.fs.Stat(name); err == nil {
			mode = info.Mode().Perm()
		}
		_ = ch.Chmod(tmpName, mode) // best-effort permission sync
	}

	if err := s.fs.Rename(tmpName, name); err != nil {
		_ = s.fs.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("rename temp to %s: %w", name, err)
	}
	return nil
}
