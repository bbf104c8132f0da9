package task

import "github.com/twiced-technology-gmbh/taskplan/internal/date"

// Patch is a partial task update. Nil fields are left untouched.
type Patch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *string    `json:"status,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	Effort      *string    `json:"effort,omitempty"`
	Assignee    *string    `json:"assignee,omitempty"`
	PlannedDate *date.Date `json:"plannedDate,omitempty"`
	DueDate     *date.Date `json:"dueDate,omitempty"`
	Blocked     *bool      `json:"blocked,omitempty"`
	DependsOn   *[]string  `json:"dependsOn,omitempty"`
	Blocks      *[]string  `json:"blocks,omitempty"`
	Subtasks    *[]Subtask `json:"subtasks,omitempty"`

	// ClearPlannedDate and ClearDueDate remove the date entirely.
	ClearPlannedDate bool `json:"clearPlannedDate,omitempty"`
	ClearDueDate     bool `json:"clearDueDate,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil &&
		p.Priority == nil && p.Effort == nil && p.Assignee == nil &&
		p.PlannedDate == nil && p.DueDate == nil && p.Blocked == nil &&
		p.DependsOn == nil && p.Blocks == nil && p.Subtasks == nil &&
		!p.ClearPlannedDate && !p.ClearDueDate
}

// Apply overlays the patch onto t in place.
func (p Patch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Body = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Effort != nil {
		t.Effort = *p.Effort
	}
	if p.Assignee != nil {
		t.Assignee = *p.Assignee
	}
	if p.ClearPlannedDate {
		t.PlannedDate = nil
	}
	if p.PlannedDate != nil {
		d := *p.PlannedDate
		t.PlannedDate = &d
	}
	if p.ClearDueDate {
		t.DueDate = nil
	}
	if p.DueDate != nil {
		d := *p.DueDate
		t.DueDate = &d
	}
	if p.Blocked != nil {
		t.Blocked = *p.Blocked
	}
	if p.DependsOn != nil {
		t.DependsOn = append([]string(nil), (*p.DependsOn)...)
	}
	if p.Blocks != nil {
		t.Blocks = append([]string(nil), (*p.Blocks)...)
	}
	if p.Subtasks != nil {
		t.Subtasks = append([]Subtask(nil), (*p.Subtasks)...)
	}
}
