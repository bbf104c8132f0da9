// Package activity keeps an append-only JSONL journal of task mutations.
package activity

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	logFileName   = "activity.jsonl"
	logFileMode   = 0o600
	maxLogEntries = 10000 // truncate oldest entries when log exceeds this size
)

// Journal actions.
const (
	ActionCreate   = "create"
	ActionUpdate   = "update"
	ActionDelete   = "delete"
	ActionJobStart = "job-start"
	ActionJobDone  = "job-done"
	ActionJobError = "job-error"
)

// Entry represents a single activity log entry.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	TaskID    string    `json:"task_id,omitempty"`
	JobID     string    `json:"job_id,omitempty"`
	Actor     string    `json:"actor,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// Journal appends entries to the activity log of a workspace directory.
type Journal struct {
	path string
}

// New returns the journal stored in dir.
func New(dir string) *Journal {
	return &Journal{path: filepath.Join(dir, logFileName)}
}

// Append writes an entry to the log. A zero Timestamp is set to now.
// If the log exceeds maxLogEntries, the oldest entries are truncated.
func (j *Journal) Append(entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, logFileMode) //nolint:gosec // log path from trusted workspace dir
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling log entry: %w", err)
	}

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing log entry: %w", err)
	}

	// Best-effort; a long log is not an error.
	_ = truncateIfNeeded(j.path)

	return nil
}

// Record appends an entry and discards errors, since journaling should
// never fail a command.
func (j *Journal) Record(action, actor, jobID, taskID, detail string) {
	_ = j.Append(Entry{
		Action: action,
		Actor:  actor,
		JobID:  jobID,
		TaskID: taskID,
		Detail: detail,
	})
}

// Read returns every entry in the log, oldest first. Malformed lines are
// skipped. A missing log yields no entries.
func (j *Journal) Read() ([]Entry, error) {
	f, err := os.Open(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading log file: %w", err)
	}
	return entries, nil
}

// ForJob returns the entries recorded for jobID.
func (j *Journal) ForJob(jobID string) ([]Entry, error) {
	all, err := j.Read()
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, e := range all {
		if e.JobID == jobID {
			out = append(out, e)
		}
	}
	return out, nil
}

// truncateIfNeeded rewrites the log keeping only the most recent
// maxLogEntries lines.
func truncateIfNeeded(path string) error {
	f, err := os.Open(path) //nolint:gosec // trusted path
	if err != nil {
		return err
	}

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	_ = f.Close()

	if err := scanner.Err(); err != nil {
		return err
	}

	if len(lines) <= maxLogEntries {
		return nil
	}

	lines = lines[len(lines)-maxLogEntries:]

	var buf strings.Builder
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	return os.WriteFile(path, []byte(buf.String()), logFileMode)
}
