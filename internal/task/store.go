package task

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/twiced-technology-gmbh/taskplan/internal/clierr"
	"github.com/twiced-technology-gmbh/taskplan/internal/config"
	"github.com/twiced-technology-gmbh/taskplan/internal/filelock"
)

// Store is the task persistence the plan executor mutates.
type Store interface {
	Get(ctx context.Context, id string) (*Task, error)
	List(ctx context.Context) ([]*Task, error)
	Create(ctx context.Context, t *Task) (*Task, error)
	Update(ctx context.Context, id string, p Patch) (*Task, error)
	Delete(ctx context.Context, id string) error
}

// FileStore keeps tasks as markdown files in the workspace tasks directory.
type FileStore struct {
	cfg *config.Config
	now func() time.Time
}

// NewFileStore returns a Store backed by cfg's tasks directory.
func NewFileStore(cfg *config.Config) *FileStore {
	return &FileStore{cfg: cfg, now: time.Now}
}

// lock serializes writers across processes sharing the workspace.
func (s *FileStore) lock() (func() error, error) {
	lk, err := filelock.Acquire(filepath.Join(s.cfg.Dir(), ".lock"))
	if err != nil {
		return nil, err
	}
	return lk.Release, nil
}

// Get reads the task with the given ID.
func (s *FileStore) Get(ctx context.Context, id string) (*Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := FindByID(s.cfg.TasksPath(), id)
	if err != nil {
		return nil, err
	}
	return Read(path)
}

// List reads every task in the workspace.
func (s *FileStore) List(ctx context.Context) ([]*Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ReadAll(s.cfg.TasksPath())
}

// Create validates t, fills configured defaults, and writes it. An empty ID
// is replaced by a fresh UUID. The stored task is returned.
func (s *FileStore) Create(ctx context.Context, t *Task) (*Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := t.Clone()
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if err := ValidateTaskID(out.ID); err != nil {
		return nil, err
	}
	if out.Title == "" {
		return nil, clierr.New(clierr.InvalidInput, "task title is required")
	}
	s.applyDefaults(out)
	if err := s.validate(out); err != nil {
		return nil, err
	}

	unlock, err := s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock() //nolint:errcheck // best-effort unlock on exit

	if _, err := FindByID(s.cfg.TasksPath(), out.ID); err == nil {
		return nil, clierr.Newf(clierr.InvalidTaskID, "task %s already exists", out.ID).
			WithDetails(map[string]any{"id": out.ID})
	}

	now := s.now()
	out.Created = now
	out.Updated = now
	lifecycleOf(s.cfg).transition(out, s.cfg.InitialStatus(), now)

	path := filepath.Join(s.cfg.TasksPath(), GenerateFilename(out.ID, GenerateSlug(out.Title)))
	if _, err := os.Stat(path); err == nil {
		return nil, clierr.Newf(clierr.InvalidTaskID, "task file %s already exists", filepath.Base(path)).
			WithDetails(map[string]any{"id": out.ID})
	}
	out.File = path
	if err := Write(path, out); err != nil {
		return nil, fmt.Errorf("writing task: %w", err)
	}
	return out, nil
}

// Update applies p to the task with the given ID. A title change renames
// the task file to match the new slug.
func (s *FileStore) Update(ctx context.Context, id string, p Patch) (*Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unlock, err := s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock() //nolint:errcheck // best-effort unlock on exit

	path, err := FindByID(s.cfg.TasksPath(), id)
	if err != nil {
		return nil, err
	}
	t, err := Read(path)
	if err != nil {
		return nil, err
	}

	oldStatus := t.Status
	p.Apply(t)
	if t.Title == "" {
		return nil, clierr.New(clierr.InvalidInput, "task title cannot be empty")
	}
	if err := s.validate(t); err != nil {
		return nil, err
	}

	now := s.now()
	if t.Status != oldStatus {
		lifecycleOf(s.cfg).transition(t, oldStatus, now)
	}
	t.Updated = now

	newPath := filepath.Join(s.cfg.TasksPath(), GenerateFilename(t.ID, GenerateSlug(t.Title)))
	t.File = newPath
	if err := Write(newPath, t); err != nil {
		return nil, fmt.Errorf("writing task: %w", err)
	}
	if newPath != path {
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("removing old task file: %w", err)
		}
	}
	return t, nil
}

// Delete removes the task file for the given ID.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock, err := s.lock()
	if err != nil {
		return err
	}
	defer unlock() //nolint:errcheck // best-effort unlock on exit

	path, err := FindByID(s.cfg.TasksPath(), id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	return nil
}

func (s *FileStore) applyDefaults(t *Task) {
	if t.Status == "" {
		t.Status = s.cfg.Defaults.Status
	}
	if t.Priority == "" {
		t.Priority = s.cfg.Defaults.Priority
	}
	if t.Effort == "" {
		t.Effort = s.cfg.Defaults.Effort
	}
}

func (s *FileStore) validate(t *Task) error {
	if err := ValidateStatus(t.Status, s.cfg.Statuses); err != nil {
		return err
	}
	if err := ValidatePriority(t.Priority, s.cfg.Priorities); err != nil {
		return err
	}
	if t.Effort != "" {
		effort, err := NormalizeEffort(t.Effort, s.cfg.EffortNames())
		if err != nil {
			return err
		}
		t.Effort = effort
	}
	return ValidateSelfReference(t)
}
