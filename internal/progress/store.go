package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/twiced-technology-gmbh/taskplan/internal/clierr"
)

const (
	fileMode = 0o600
	dirMode  = 0o750
	fileExt  = ".json"
)

// Store persists job progress records keyed by job ID.
type Store interface {
	// Create persists a new record and fails if the job ID is taken.
	Create(ctx context.Context, p *ExecutionProgress) error
	// Save overwrites an existing record.
	Save(ctx context.Context, p *ExecutionProgress) error
	Get(ctx context.Context, jobID string) (*ExecutionProgress, error)
}

// FileStore keeps one JSON file per job in a directory.
type FileStore struct {
	dir    string
	encode func(*ExecutionProgress) ([]byte, error)
}

// NewFileStore returns a Store writing to dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir, encode: encodeIndented}
}

// Path returns the file holding jobID's record.
func (s *FileStore) Path(jobID string) string {
	return filepath.Join(s.dir, jobID+fileExt)
}

// Create reserves the job's file exclusively, then writes the record.
func (s *FileStore) Create(ctx context.Context, p *ExecutionProgress) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateJobID(p.JobID); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, dirMode); err != nil {
		return fmt.Errorf("creating jobs directory: %w", err)
	}

	f, err := os.OpenFile(s.Path(p.JobID), os.O_CREATE|os.O_EXCL|os.O_WRONLY, fileMode)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return clierr.Newf(clierr.JobExists, "job %s already exists", p.JobID).
				WithDetails(map[string]any{"job_id": p.JobID})
		}
		return fmt.Errorf("reserving job file: %w", err)
	}
	_ = f.Close()

	if err := s.write(p); err != nil {
		// An empty reservation would make the job ID unusable.
		_ = os.Remove(s.Path(p.JobID))
		return err
	}
	return nil
}

// Save overwrites the record for p.JobID.
func (s *FileStore) Save(ctx context.Context, p *ExecutionProgress) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateJobID(p.JobID); err != nil {
		return err
	}
	return s.write(p)
}

// Get reads the record for jobID.
func (s *FileStore) Get(ctx context.Context, jobID string) (*ExecutionProgress, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateJobID(jobID); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(jobID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, clierr.Newf(clierr.JobNotFound, "job not found: %s", jobID).
				WithDetails(map[string]any{"job_id": jobID})
		}
		return nil, fmt.Errorf("reading job: %w", err)
	}
	var p ExecutionProgress
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing job %s: %w", jobID, err)
	}
	return &p, nil
}

// List returns all records, most recent first. Unreadable files are skipped.
func (s *FileStore) List(ctx context.Context) ([]*ExecutionProgress, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading jobs directory: %w", err)
	}
	var out []*ExecutionProgress
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != fileExt || strings.HasPrefix(name, ".") {
			continue
		}
		p, err := s.Get(ctx, strings.TrimSuffix(name, fileExt))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// write replaces the job file atomically via a temp file and rename.
func (s *FileStore) write(p *ExecutionProgress) error {
	data, err := s.encode(p)
	if err != nil {
		return fmt.Errorf("marshaling progress: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".job-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path(p.JobID)); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming job file: %w", err)
	}
	return nil
}

func encodeIndented(p *ExecutionProgress) ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

func validateJobID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") {
		return clierr.Newf(clierr.InvalidInput, "invalid job ID %q", id).
			WithDetails(map[string]any{"job_id": id})
	}
	return nil
}
