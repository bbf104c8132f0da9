// Package fingerprint derives a stable hash from a prompt and the tasks it
// was issued against, so identical planning requests can be recognized.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/twiced-technology-gmbh/taskplan/internal/task"
)

// Subtask is the hashed view of a task's checklist item.
type Subtask struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Snapshot holds the task fields that influence planning. Anything else,
// such as the description or timestamps, does not affect the fingerprint.
type Snapshot struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	PlannedDate string    `json:"plannedDate"`
	DueDate     string    `json:"dueDate"`
	Priority    string    `json:"priority"`
	Assignee    string    `json:"assignee"`
	Blocked     bool      `json:"blocked"`
	DependsOn   []string  `json:"dependsOn"`
	Blocks      []string  `json:"blocks"`
	Subtasks    []Subtask `json:"subtasks"`
}

// FromTask builds the snapshot of t.
func FromTask(t *task.Task) Snapshot {
	s := Snapshot{
		ID:        t.ID,
		Title:     t.Title,
		Status:    t.Status,
		Priority:  t.Priority,
		Assignee:  t.Assignee,
		Blocked:   t.Blocked,
		DependsOn: append([]string(nil), t.DependsOn...),
		Blocks:    append([]string(nil), t.Blocks...),
	}
	if t.PlannedDate != nil {
		s.PlannedDate = t.PlannedDate.String()
	}
	if t.DueDate != nil {
		s.DueDate = t.DueDate.String()
	}
	for _, st := range t.Subtasks {
		s.Subtasks = append(s.Subtasks, Subtask{Title: st.Title, Completed: st.Completed})
	}
	return s
}

// FromTasks builds snapshots for every task.
func FromTasks(tasks []*task.Task) []Snapshot {
	out := make([]Snapshot, len(tasks))
	for i, t := range tasks {
		out[i] = FromTask(t)
	}
	return out
}

// request is the canonical structure that gets hashed. Field order is fixed
// by the struct, so the JSON encoding is deterministic.
type request struct {
	Prompt string     `json:"prompt"`
	Tasks  []Snapshot `json:"tasks"`
}

// Fingerprint returns the lowercase hex SHA-256 of prompt and tasks in
// canonical form. The order of tasks and of dependsOn/blocks entries does
// not matter; subtask order does.
func Fingerprint(prompt string, tasks []Snapshot) string {
	data, err := json.Marshal(request{Prompt: prompt, Tasks: canonical(tasks)})
	if err != nil {
		// Only strings, bools and slices of them; encoding cannot fail.
		panic(err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// canonical returns a sorted copy of tasks with set fields normalized.
// Tasks sharing an ID and title are ordered by their encoded form, so
// duplicates hash the same in any input order.
func canonical(tasks []Snapshot) []Snapshot {
	type keyed struct {
		snap Snapshot
		enc  string
	}
	ks := make([]keyed, len(tasks))
	for i, s := range tasks {
		s.DependsOn = sortedSet(s.DependsOn)
		s.Blocks = sortedSet(s.Blocks)
		s.Subtasks = append([]Subtask{}, s.Subtasks...)
		enc, err := json.Marshal(s)
		if err != nil {
			panic(err)
		}
		ks[i] = keyed{snap: s, enc: string(enc)}
	}
	sort.Slice(ks, func(i, j int) bool {
		a, b := ks[i].snap, ks[j].snap
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return ks[i].enc < ks[j].enc
	})
	out := make([]Snapshot, len(ks))
	for i, k := range ks {
		out[i] = k.snap
	}
	return out
}

// sortedSet returns ids sorted with duplicates removed. Nil and empty
// inputs both produce an empty, non-nil slice.
func sortedSet(ids []string) []string {
	out := append([]string{}, ids...)
	sort.Strings(out)
	n := 0
	for i, id := range out {
		if i > 0 && id == out[n-1] {
			continue
		}
		out[n] = id
		n++
	}
	return out[:n]
}
