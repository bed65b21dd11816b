// Package spool is the durable staging area for not-yet-delivered events.
// One file per record, written atomically so a reader never observes a
// partial record. The directory is treated as a set: listing order carries
// no meaning.
package spool

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

const dirPerm = 0750

// ext is the suffix for fully-written records. Writes land under a .tmp
// name first, so anything without ext is invisible to List and Get.
const ext = ".json"

// validName matches alphanumeric, dash, underscore, and dot characters only.
var validName = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// validateName rejects record names that could escape the spool directory.
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("record name must not be empty")
	}
	if strings.Contains(name, "..") {
		return fmt.Errorf("record name must not contain '..'")
	}
	if !validName.MatchString(name) {
		return fmt.Errorf("record name %q contains invalid characters", name)
	}
	return nil
}

// Store manages staged records in a single directory.
type Store struct {
	dir string
}

// NewStore returns a Store over dir. The directory is not created until
// the first Put; a store over a directory that never existed is valid.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the staging directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Put durably writes a record. The write is atomic: data lands in a temp
// file and is renamed into place, so List and Get never see a truncated
// record. Creating the directory is idempotent.
func (s *Store) Put(name string, data []byte) error {
	if err := validateName(name); err != nil {
		return fmt.Errorf("invalid record name: %w", err)
	}
	if err := os.MkdirAll(s.dir, dirPerm); err != nil {
		return fmt.Errorf("create spool dir: %w", err)
	}

	final := filepath.Join(s.dir, name+ext)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write temp record: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("publish record %s: %w", name, err)
	}
	return nil
}

// List returns the names of all fully-written records. A missing spool
// directory is a valid empty store, not an error. Names are sorted for
// stable output; callers must not treat the order as delivery order.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list spool dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || !strings.HasSuffix(n, ext) || strings.HasSuffix(n, ".tmp") {
			continue
		}
		names = append(names, strings.TrimSuffix(n, ext))
	}
	sort.Strings(names)
	return names, nil
}

// Get reads the contents of a record.
func (s *Store) Get(name string) ([]byte, error) {
	if err := validateName(name); err != nil {
		return nil, fmt.Errorf("invalid record name: %w", err)
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name+ext))
	if err != nil {
		return nil, fmt.Errorf("read record %s: %w", name, err)
	}
	return data, nil
}

// Delete removes a record. Deleting a record that is already gone is not
// an error: the sweep and an inline post-delivery cleanup may race.
func (s *Store) Delete(name string) error {
	if err := validateName(name); err != nil {
		return fmt.Errorf("invalid record name: %w", err)
	}
	err := os.Remove(filepath.Join(s.dir, name+ext))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete record %s: %w", name, err)
	}
	return nil
}
