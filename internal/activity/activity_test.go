package activity

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/twiced-technology-gmbh/taskplan/internal/plan"
	"github.com/twiced-technology-gmbh/taskplan/internal/progress"
	"github.com/twiced-technology-gmbh/taskplan/internal/task"
)

func TestJournal_AppendAndRead(t *testing.T) {
	dir := t.TempDir()
	j := New(dir)

	j.Record(ActionJobStart, "ana", "job-1", "", "2 steps")
	j.Record(ActionCreate, "ana", "job-1", "t1", "Preparar informe")
	j.Record(ActionCreate, "luis", "job-2", "t2", "Otra")

	all, err := j.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
	if all[1].TaskID != "t1" || all[1].Actor != "ana" || all[1].Timestamp.IsZero() {
		t.Errorf("unexpected entry %+v", all[1])
	}

	job1, err := j.ForJob("job-1")
	if err != nil {
		t.Fatalf("ForJob: %v", err)
	}
	if len(job1) != 2 {
		t.Errorf("expected 2 entries for job-1, got %d", len(job1))
	}
}

func TestJournal_ReadMissing(t *testing.T) {
	entries, err := New(t.TempDir()).Read()
	if err != nil || entries != nil {
		t.Errorf("Read on missing log = %v, %v", entries, err)
	}
}

func TestJournal_SkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	content := `{"action":"create","task_id":"a"}` + "\nnot json\n"
	if err := os.WriteFile(filepath.Join(dir, logFileName), []byte(content), logFileMode); err != nil {
		t.Fatal(err)
	}
	entries, err := New(dir).Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(entries) != 1 || entries[0].TaskID != "a" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestTruncateIfNeeded(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, logFileName)
	var b strings.Builder
	for range maxLogEntries + 5 {
		b.WriteString(`{"action":"create"}` + "\n")
	}
	if err := os.WriteFile(path, []byte(b.String()), logFileMode); err != nil {
		t.Fatal(err)
	}
	if err := truncateIfNeeded(path); err != nil {
		t.Fatalf("truncateIfNeeded: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "\n"); n != maxLogEntries {
		t.Errorf("lines = %d, want %d", n, maxLogEntries)
	}
}

func TestRecorder_JournalsJob(t *testing.T) {
	j := New(t.TempDir())
	r := NewRecorder(j, "ana")

	p := progress.New("job-7", "ana", []progress.StepInfo{{Action: "create"}, {Action: "delete", Ref: "t2"}}, time.Now())
	r.OnJobStart(p)
	r.OnStepComplete(0, plan.Create{Task: task.Task{Title: "Preparar informe"}}, "t1")
	r.OnStepComplete(1, plan.Delete{Target: "t2"}, "t2")
	r.OnJobFailed(p, errors.New("boom"))

	entries, err := j.ForJob("job-7")
	if err != nil {
		t.Fatalf("ForJob: %v", err)
	}
	want := []struct{ action, taskID, detail string }{
		{ActionJobStart, "", "2 steps"},
		{ActionCreate, "t1", "Preparar informe"},
		{ActionDelete, "t2", ""},
		{ActionJobError, "", "boom"},
	}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries: %+v", len(entries), entries)
	}
	for i, w := range want {
		e := entries[i]
		if e.Action != w.action || e.TaskID != w.taskID || e.Detail != w.detail || e.Actor != "ana" {
			t.Errorf("entry %d = %+v, want %+v", i, e, w)
		}
	}
}
