package vidcrypt

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/absfs/absfs"
	"github.com/google/uuid"
)

// Store reads plaintext inputs and writes recovered files through an
// absfs.FileSystem. Paths use forward slashes.
type Store struct {
	fs absfs.FileSystem

	// commitMu makes the existence check and rename in Commit atomic for
	// callers sharing this Store
	commitMu sync.Mutex
}

// NewStore creates a store over fs
func NewStore(fs absfs.FileSystem) (*Store, error) {
	if fs == nil {
		return nil, NewValidationError("fs", nil, "filesystem cannot be nil", ErrInvalidArgument)
	}
	return &Store{fs: fs}, nil
}

// ReadFile returns the contents of name as a File carrying its base name
func (s *Store) ReadFile(name string) (File, error) {
	f, err := s.fs.Open(name)
	if err != nil {
		return File{}, NewIOError("open", StageHandoff, -1, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return File{}, NewIOError("read", StageHandoff, -1, err)
	}
	return File{Name: path.Base(name), Data: data}, nil
}

// Exists reports whether name exists
func (s *Store) Exists(name string) (bool, error) {
	_, err := s.fs.Stat(name)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) || errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, NewIOError("stat", StageHandoff, -1, err)
}

// TempPath returns an unused sibling of name for staging output before
// Commit. The extension is kept so tools that sniff it still work.
func (s *Store) TempPath(name string) string {
	dir, base := path.Split(name)
	return dir + "." + strings.TrimSuffix(base, path.Ext(base)) + "-" + uuid.New().String() + path.Ext(base)
}

// Commit renames a staged file to name. It fails with ErrOutputExists and
// removes the staged file if name already exists. Commits through the same
// Store never replace each other's output; absfs has no no-replace rename,
// so another process creating name concurrently is not detected.
func (s *Store) Commit(staged, name string) error {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	exists, err := s.Exists(name)
	if err != nil {
		s.fs.Remove(staged)
		return err
	}
	if exists {
		s.fs.Remove(staged)
		return NewValidationError("output", name, "refusing to overwrite", ErrOutputExists)
	}
	if err := s.fs.Rename(staged, name); err != nil {
		s.fs.Remove(staged)
		return NewIOError("rename", StageHandoff, -1, err)
	}
	return nil
}

// WriteFile writes data to name through a staged temporary file. It never
// replaces an existing file.
func (s *Store) WriteFile(name string, data []byte, perm os.FileMode) error {
	exists, err := s.Exists(name)
	if err != nil {
		return err
	}
	if exists {
		return NewValidationError("output", name, "refusing to overwrite", ErrOutputExists)
	}

	staged := s.TempPath(name)
	f, err := s.fs.OpenFile(staged, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return NewIOError("create", StageHandoff, -1, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		s.fs.Remove(staged)
		return NewIOError("write", StageHandoff, -1, err)
	}
	if err := f.Close(); err != nil {
		s.fs.Remove(staged)
		return NewIOError("close", StageHandoff, -1, err)
	}

	return s.Commit(staged, name)
}

// Remove deletes name
func (s *Store) Remove(name string) error {
	if err := s.fs.Remove(name); err != nil {
		return NewIOError("remove", StageHandoff, -1, err)
	}
	return nil
}

// OutputPath names the output for one of several inputs: "<stem>_<base of
// output>" placed next to output. With a single input the output is used
// as is.
func OutputPath(input, output string, inputs int) string {
	if inputs <= 1 {
		return output
	}
	base := path.Base(input)
	stem := strings.TrimSuffix(base, path.Ext(base))
	dir, out := path.Split(output)
	return dir + fmt.Sprintf("%s_%s", stem, out)
}
