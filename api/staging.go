package api

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Staging is a private scratch directory for partially assembled files.  The
// directory and everything in it is removed by Close.
type Staging struct {
	dir string
}

// NewStaging creates a staging directory inside parent, or inside the default
// temporary directory if parent is empty.
func NewStaging(parent string) (*Staging, error) {
	dir, err := ioutil.TempDir(parent, "cram-slice-")
	if err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}
	return &Staging{dir}, nil
}

// Dir returns the staging directory.
func (s *Staging) Dir() string {
	return s.dir
}

// Path returns a new unique file name with extension ext inside the staging
// directory.  The file is not created.
func (s *Staging) Path(ext string) string {
	return filepath.Join(s.dir, uuid.New().String()+ext)
}

// Close removes the staging directory.
func (s *Staging) Close() error {
	return os.RemoveAll(s.dir)
}

// Keep moves the staged file to dest.  When a rename is not possible, for
// example across file systems, the file is copied instead.
func Keep(staged, dest string) error {
	if err := os.Rename(staged, dest); err == nil {
		return nil
	}

	src, err := os.Open(staged)
	if err != nil {
		return fmt.Errorf("opening staged file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dest)
		return fmt.Errorf("copying to %s: %w", dest, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dest)
		return fmt.Errorf("closing %s: %w", dest, err)
	}
	return nil
}
