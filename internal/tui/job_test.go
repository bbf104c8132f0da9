package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/twiced-technology-gmbh/taskplan/internal/clierr"
	"github.com/twiced-technology-gmbh/taskplan/internal/progress"
)

type fakeSource map[string]*progress.ExecutionProgress

func (f fakeSource) Get(_ context.Context, id string) (*progress.ExecutionProgress, error) {
	p, ok := f[id]
	if !ok {
		return nil, clierr.Newf(clierr.JobNotFound, "job not found: %s", id)
	}
	return p, nil
}

func sampleJob() *progress.ExecutionProgress {
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	p := progress.New("job-1", "ana", []progress.StepInfo{
		{Action: "create", Ref: "temp-0"},
		{Action: "update", Ref: "task-9"},
		{Action: "delete", Ref: "task-8"},
	}, now)
	_ = p.MarkCompleted(0, "task-1", now)
	return p
}

func TestJob_LoadAndRender(t *testing.T) {
	m := NewJob(fakeSource{"job-1": sampleJob()}, "job-1", false)

	msg := m.load()()
	m.Update(msg)

	view := m.View()
	for _, want := range []string{"Job job-1", "running", "1/3 steps", "temp-0", "task-1", "task-9"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if got := m.currentStep(); got != 1 {
		t.Errorf("currentStep = %d, want 1", got)
	}
}

func TestJob_FailedJobShowsError(t *testing.T) {
	job := sampleJob()
	now := job.CreatedAt
	_ = job.MarkFailed(1, "task not found: task-9", now)
	m := NewJob(fakeSource{"job-1": job}, "job-1", false)
	m.Update(m.load()())

	view := m.View()
	if !strings.Contains(view, "failed") || !strings.Contains(view, "task not found: task-9") {
		t.Errorf("view does not show the failure:\n%s", view)
	}
	if m.currentStep() != -1 {
		t.Error("finished job should have no current step")
	}
}

func TestJob_MissingJob(t *testing.T) {
	m := NewJob(fakeSource{}, "nope", false)
	m.Update(m.load()())
	if !clierr.HasCode(m.err, clierr.JobNotFound) {
		t.Fatalf("err = %v, want JOB_NOT_FOUND", m.err)
	}
	if !strings.Contains(m.View(), "job not found") {
		t.Errorf("view does not show the error:\n%s", m.View())
	}
}

func TestJob_QuitKey(t *testing.T) {
	m := NewJob(fakeSource{}, "job-1", false)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestJob_ExitOnFinish(t *testing.T) {
	job := sampleJob()
	_ = job.MarkCompleted(1, "task-9", job.CreatedAt)
	_ = job.MarkCompleted(2, "task-8", job.CreatedAt)
	_ = job.MarkDone(job.CreatedAt)

	m := NewJob(fakeSource{"job-1": job}, "job-1", true)
	_, cmd := m.Update(m.load()())
	if cmd == nil {
		t.Fatal("expected a command after loading a finished job")
	}
	if m.percent() != 1 {
		t.Errorf("percent = %v, want 1", m.percent())
	}
}

func TestJob_RefreshErrorKeepsLastState(t *testing.T) {
	m := NewJob(fakeSource{"job-1": sampleJob()}, "job-1", false)
	m.Update(m.load()())
	m.Update(loadedMsg{err: errors.New("disk unplugged")})
	if m.job == nil {
		t.Fatal("last known state was dropped")
	}
	if !strings.Contains(m.View(), "refresh failed: disk unplugged") {
		t.Errorf("view:\n%s", m.View())
	}
}
