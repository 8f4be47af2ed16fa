// Package storage keeps the task list in a single JSON file. Saves overwrite
// the whole file; there is no journal and no atomic rename.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/harrisonrobin/nudge/pkg/model"
)

// Snapshotter is anything that can hand out a consistent copy of the tasks.
// *store.Store satisfies it.
type Snapshotter interface {
	Snapshot() []model.Task
}

// LoadError means the file exists but does not hold a task array. The file
// is left untouched.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to decode tasks file %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

type File struct {
	Path   string
	logger *slog.Logger
}

func NewFile(path string, logger *slog.Logger) *File {
	if logger == nil {
		logger = slog.Default()
	}
	return &File{Path: path, logger: logger}
}

// Load reads the task array. A missing file is created empty, together with
// its parent directories, and yields no tasks.
func (f *File) Load() ([]model.Task, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read tasks file: %w", err)
		}
		f.logger.Warn("tasks file not found, creating it", "path", f.Path)
		if err := os.MkdirAll(filepath.Dir(f.Path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create tasks directory: %w", err)
		}
		if err := os.WriteFile(f.Path, nil, 0600); err != nil {
			return nil, fmt.Errorf("failed to create tasks file: %w", err)
		}
		return []model.Task{}, nil
	}

	// An empty file is what the missing-file path leaves behind.
	if len(bytes.TrimSpace(data)) == 0 {
		return []model.Task{}, nil
	}

	var tasks []model.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, &LoadError{Path: f.Path, Err: err}
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

// Save writes a snapshot of src over the file. If the parent directory is
// gone it is recreated and the write retried once.
func (f *File) Save(src Snapshotter) error {
	data, err := json.MarshalIndent(src.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode tasks: %w", err)
	}

	err = os.WriteFile(f.Path, data, 0600)
	if errors.Is(err, fs.ErrNotExist) {
		f.logger.Warn("tasks directory missing, recreating it", "path", f.Path)
		if mkErr := os.MkdirAll(filepath.Dir(f.Path), 0700); mkErr != nil {
			return fmt.Errorf("failed to create tasks directory: %w", mkErr)
		}
		err = os.WriteFile(f.Path, data, 0600)
	}
	if err != nil {
		return fmt.Errorf("failed to write tasks file: %w", err)
	}
	f.logger.Info("saved tasks", "path", f.Path)
	return nil
}

func Load(path string) ([]model.Task, error) {
	return NewFile(path, nil).Load()
}

func Save(src Snapshotter, path string) error {
	return NewFile(path, nil).Save(src)
}
