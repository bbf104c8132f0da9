// Package task handles task files, their frontmatter, and the task store.
package task

import (
	"time"

	"github.com/twiced-technology-gmbh/taskplan/internal/date"
)

// Task represents a planned task parsed from a markdown file.
type Task struct {
	ID          string     `yaml:"id" json:"id"`
	Title       string     `yaml:"title" json:"title"`
	Status      string     `yaml:"status" json:"status"`
	Priority    string     `yaml:"priority" json:"priority"`
	Effort      string     `yaml:"effort,omitempty" json:"effort,omitempty"`
	Assignee    string     `yaml:"assignee,omitempty" json:"assignee,omitempty"`
	PlannedDate *date.Date `yaml:"planned_date,omitempty" json:"plannedDate,omitempty"`
	DueDate     *date.Date `yaml:"due_date,omitempty" json:"dueDate,omitempty"`
	Blocked     bool       `yaml:"blocked,omitempty" json:"blocked,omitempty"`
	DependsOn   []string   `yaml:"depends_on,omitempty" json:"dependsOn,omitempty"`
	Blocks      []string   `yaml:"blocks,omitempty" json:"blocks,omitempty"`
	Subtasks    []Subtask  `yaml:"subtasks,omitempty" json:"subtasks,omitempty"`
	CreatedBy   string     `yaml:"created_by,omitempty" json:"createdBy,omitempty"`
	Created     time.Time  `yaml:"created" json:"created"`
	Updated     time.Time  `yaml:"updated" json:"updated"`
	Started     *time.Time `yaml:"started,omitempty" json:"started,omitempty"`
	Completed   *time.Time `yaml:"completed,omitempty" json:"completed,omitempty"`

	// Body is the markdown description below the frontmatter (not in YAML).
	Body string `yaml:"-" json:"description,omitempty"`

	// File is the path to the task file (not in YAML).
	File string `yaml:"-" json:"file,omitempty"`
}

// Subtask is a checklist item on a task.
type Subtask struct {
	Title     string `yaml:"title" json:"title"`
	Completed bool   `yaml:"completed" json:"completed"`
}

// Clone returns a deep copy of t.
func (t *Task) Clone() *Task {
	c := *t
	if t.PlannedDate != nil {
		d := *t.PlannedDate
		c.PlannedDate = &d
	}
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.Started != nil {
		s := *t.Started
		c.Started = &s
	}
	if t.Completed != nil {
		s := *t.Completed
		c.Completed = &s
	}
	c.DependsOn = append([]string(nil), t.DependsOn...)
	c.Blocks = append([]string(nil), t.Blocks...)
	c.Subtasks = append([]Subtask(nil), t.Subtasks...)
	return &c
}
