package fingerprint

import (
	"regexp"
	"testing"
	"time"

	"github.com/twiced-technology-gmbh/taskplan/internal/date"
	"github.com/twiced-technology-gmbh/taskplan/internal/task"
)

func sampleTasks() []Snapshot {
	return []Snapshot{
		{
			ID:          "task-1",
			Title:       "Revisar reporte",
			Status:      "pending",
			PlannedDate: "2025-05-20",
			DueDate:     "2025-05-22",
			Priority:    "high",
			Assignee:    "ana",
			DependsOn:   []string{"task-3", "task-2"},
			Subtasks:    []Subtask{{Title: "leer"}, {Title: "comentar", Completed: true}},
		},
		{ID: "task-2", Title: "Preparar datos", Status: "in_progress", Blocks: []string{"task-1"}},
		{ID: "task-3", Title: "Pedir acceso", Status: "completed"},
	}
}

var hexPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

func TestFingerprint_Format(t *testing.T) {
	got := Fingerprint("organiza mi semana", sampleTasks())
	if !hexPattern.MatchString(got) {
		t.Errorf("fingerprint %q is not 64 lowercase hex characters", got)
	}
	if Fingerprint("organiza mi semana", sampleTasks()) != got {
		t.Error("fingerprint is not deterministic")
	}
}

func TestFingerprint_PermutationInvariant(t *testing.T) {
	a := sampleTasks()
	b := []Snapshot{a[2], a[0], a[1]}
	b[0].DependsOn = nil
	b[1].DependsOn = []string{"task-2", "task-3", "task-2"}
	if Fingerprint("p", a) != Fingerprint("p", b) {
		t.Error("reordering tasks or dependsOn changed the fingerprint")
	}
}

func TestFingerprint_DuplicateIDsOrderInvariant(t *testing.T) {
	a := Snapshot{ID: "task-1", Title: "Revisar", Status: "pending"}
	b := Snapshot{ID: "task-1", Title: "Revisar", Status: "completed", Priority: "high"}
	if Fingerprint("p", []Snapshot{a, b}) != Fingerprint("p", []Snapshot{b, a}) {
		t.Error("order of tasks sharing an ID changed the fingerprint")
	}
}

func TestFingerprint_NilAndEmptyEquivalent(t *testing.T) {
	a := []Snapshot{{ID: "x", Title: "t"}}
	b := []Snapshot{{ID: "x", Title: "t", DependsOn: []string{}, Blocks: []string{}, Subtasks: []Subtask{}}}
	if Fingerprint("p", a) != Fingerprint("p", b) {
		t.Error("nil and empty collections hash differently")
	}
	if Fingerprint("p", nil) != Fingerprint("p", []Snapshot{}) {
		t.Error("nil and empty task lists hash differently")
	}
}

func TestFingerprint_SensitiveToCriticalFields(t *testing.T) {
	base := Fingerprint("p", sampleTasks())

	tests := []struct {
		name   string
		prompt string
		mutate func(s []Snapshot)
	}{
		{"prompt", "q", func([]Snapshot) {}},
		{"id", "p", func(s []Snapshot) { s[2].ID = "task-9" }},
		{"title", "p", func(s []Snapshot) { s[0].Title = "Otro" }},
		{"status", "p", func(s []Snapshot) { s[0].Status = "completed" }},
		{"planned date", "p", func(s []Snapshot) { s[0].PlannedDate = "2025-05-21" }},
		{"due date", "p", func(s []Snapshot) { s[0].DueDate = "" }},
		{"priority", "p", func(s []Snapshot) { s[0].Priority = "low" }},
		{"assignee", "p", func(s []Snapshot) { s[0].Assignee = "luis" }},
		{"blocked", "p", func(s []Snapshot) { s[1].Blocked = true }},
		{"dependsOn", "p", func(s []Snapshot) { s[0].DependsOn = []string{"task-2"} }},
		{"blocks", "p", func(s []Snapshot) { s[1].Blocks = nil }},
		{"subtask completion", "p", func(s []Snapshot) { s[0].Subtasks[0].Completed = true }},
		{"subtask order", "p", func(s []Snapshot) {
			s[0].Subtasks[0], s[0].Subtasks[1] = s[0].Subtasks[1], s[0].Subtasks[0]
		}},
		{"task removed", "p", func(s []Snapshot) { s[2] = s[1] }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := sampleTasks()
			tt.mutate(tasks)
			if Fingerprint(tt.prompt, tasks) == base {
				t.Errorf("changing %s did not change the fingerprint", tt.name)
			}
		})
	}
}

func TestFingerprint_DoesNotModifyInput(t *testing.T) {
	tasks := sampleTasks()
	Fingerprint("p", tasks)
	if tasks[0].ID != "task-1" || tasks[0].DependsOn[0] != "task-3" {
		t.Errorf("input was modified: %+v", tasks[0])
	}
}

func TestFromTask_IgnoresDescriptionAndTimestamps(t *testing.T) {
	planned := date.MustParse("2025-05-20")
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	a := &task.Task{
		ID:          "task-1",
		Title:       "Revisar",
		Status:      "pending",
		PlannedDate: &planned,
		Subtasks:    []task.Subtask{{Title: "uno"}},
		Body:        "primera versión",
		Created:     now,
	}
	b := a.Clone()
	b.Body = "segunda versión"
	b.Updated = now.Add(time.Hour)

	sa, sb := FromTask(a), FromTask(b)
	if sa.PlannedDate != "2025-05-20" || sa.DueDate != "" {
		t.Errorf("dates = %q/%q", sa.PlannedDate, sa.DueDate)
	}
	if Fingerprint("p", []Snapshot{sa}) != Fingerprint("p", []Snapshot{sb}) {
		t.Error("description or timestamps affected the fingerprint")
	}

	b.Effort = "high"
	if Fingerprint("p", FromTasks([]*task.Task{a})) != Fingerprint("p", FromTasks([]*task.Task{b})) {
		t.Error("effort is not part of the snapshot")
	}
}

func TestCache_LookupAndRecord(t *testing.T) {
	c := NewCache(t.TempDir())
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	if _, ok, err := c.Lookup("abc"); err != nil || ok {
		t.Fatalf("Lookup on empty cache = %v, %v", ok, err)
	}
	if err := c.Record("abc", "job-1", now); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := c.Record("def", "job-2", now); err != nil {
		t.Fatalf("Record: %v", err)
	}
	e, ok, err := c.Lookup("abc")
	if err != nil || !ok {
		t.Fatalf("Lookup = %v, %v", ok, err)
	}
	if e.JobID != "job-1" || !e.CreatedAt.Equal(now) {
		t.Errorf("entry = %+v", e)
	}

	if err := c.Record("abc", "job-3", now); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if e, _, _ := c.Lookup("abc"); e.JobID != "job-3" {
		t.Errorf("JobID = %q, want job-3", e.JobID)
	}
}
