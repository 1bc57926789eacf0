// Package storage owns the per-job on-disk layout: under the configured
// work directory each job gets an isolated uploads and outputs directory.
// Input files are deleted as soon as their processing succeeds; the whole
// job directory is removed when the job expires.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	uploadsDirName = "uploads"
	outputsDirName = "outputs"
)

// StorageError classifies I/O failures on job artifacts, including the
// expected races where a file disappears because its job's TTL fired
// mid-processing.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Store manages job directories under a single work directory.
type Store struct {
	workDir string
}

// NewStore creates the work directory if needed and returns a store
// rooted at it.
func NewStore(workDir string) (*Store, error) {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, &StorageError{Op: "mkdir", Path: workDir, Err: err}
	}
	return &Store{workDir: workDir}, nil
}

// CreateJobDirs creates the uploads and outputs directories for a job and
// returns their paths.
func (s *Store) CreateJobDirs(jobID string) (uploadDir, outputDir string, err error) {
	jobDir := filepath.Join(s.workDir, jobID)
	uploadDir = filepath.Join(jobDir, uploadsDirName)
	outputDir = filepath.Join(jobDir, outputsDirName)
	for _, dir := range []string{uploadDir, outputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", "", &StorageError{Op: "mkdir", Path: dir, Err: err}
		}
	}
	return uploadDir, outputDir, nil
}

// SaveUpload writes one uploaded file into dir under a sanitized name and
// returns the stored path.
func (s *Store) SaveUpload(dir, name string, r io.Reader) (string, error) {
	path := filepath.Join(dir, SanitizeName(name))
	f, err := os.Create(path)
	if err != nil {
		return "", &StorageError{Op: "create", Path: path, Err: err}
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", &StorageError{Op: "write", Path: path, Err: err}
	}
	return path, nil
}

// RemoveInput deletes a processed input file. Called right after the
// file's output has been produced.
func (s *Store) RemoveInput(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return &StorageError{Op: "remove", Path: path, Err: err}
	}
	return nil
}

// RemoveJob deletes a job's entire directory tree.
func (s *Store) RemoveJob(jobID string) error {
	jobDir := filepath.Join(s.workDir, jobID)
	if err := os.RemoveAll(jobDir); err != nil {
		return &StorageError{Op: "removeall", Path: jobDir, Err: err}
	}
	return nil
}

// OutputPath resolves name inside outputDir, rejecting anything that
// would escape it.
func (s *Store) OutputPath(outputDir, name string) (string, error) {
	clean := SanitizeName(name)
	if clean == "" || clean != name {
		return "", &StorageError{Op: "resolve", Path: name, Err: os.ErrInvalid}
	}
	return filepath.Join(outputDir, clean), nil
}

// SanitizeName reduces a client-supplied filename to a safe base name.
func SanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return ""
	}
	return name
}
