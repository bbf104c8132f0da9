package progress

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/twiced-technology-gmbh/taskplan/internal/clierr"
)

var t0 = time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)

func twoSteps() []StepInfo {
	return []StepInfo{{Action: "create", Ref: "temp-1"}, {Action: "update", Ref: "temp-1"}}
}

func TestNew_AllPending(t *testing.T) {
	p := New("job-1", "ana", twoSteps(), t0)
	if p.Status != JobRunning {
		t.Errorf("status = %s, want running", p.Status)
	}
	if len(p.Steps) != 2 {
		t.Fatalf("steps = %d, want 2", len(p.Steps))
	}
	for i, s := range p.Steps {
		if s.Status != StepPending || s.Index != i {
			t.Errorf("step %d = %+v", i, s)
		}
	}
}

func TestTransitions(t *testing.T) {
	p := New("job-1", "ana", twoSteps(), t0)
	if err := p.MarkCompleted(0, "t1", t0); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	if err := p.MarkCompleted(0, "t1", t0); err == nil {
		t.Error("expected error completing a step twice")
	}
	if err := p.MarkDone(t0); err == nil {
		t.Error("expected error finishing with a pending step")
	}
	if err := p.MarkFailed(1, "boom", t0); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	if p.Status != JobError || p.Error != "boom" || p.Steps[1].Error != "boom" {
		t.Errorf("unexpected progress %+v", p)
	}
	if p.FinishedAt == nil || !p.Finished() {
		t.Error("failed job should be finished")
	}
	if err := p.MarkDone(t0); err == nil {
		t.Error("expected error finishing a failed job")
	}

	completed, failed, pending := p.Counts()
	if completed != 1 || failed != 1 || pending != 0 {
		t.Errorf("counts = %d/%d/%d", completed, failed, pending)
	}
}

func TestMarkFailed_StopsFurtherSteps(t *testing.T) {
	p := New("job-1", "", []StepInfo{{Action: "create"}, {Action: "create"}, {Action: "delete"}}, t0)
	if err := p.MarkFailed(0, "nope", t0); err != nil {
		t.Fatal(err)
	}
	if err := p.MarkCompleted(1, "x", t0); err == nil {
		t.Error("expected error touching a step after the job failed")
	}
	if p.Steps[1].Status != StepPending || p.Steps[2].Status != StepPending {
		t.Error("later steps must stay pending")
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(t.TempDir())
	p := New("job-1", "ana", twoSteps(), t0)
	if err := s.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := p.MarkCompleted(0, "t1", t0.Add(time.Second)); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, p); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Actor != "ana" || got.Status != JobRunning || len(got.Steps) != 2 {
		t.Errorf("unexpected record %+v", got)
	}
	if got.Steps[0].Status != StepCompleted || got.Steps[0].TaskID != "t1" || got.Steps[1].Status != StepPending {
		t.Errorf("unexpected steps %+v", got.Steps)
	}
}

func TestFileStore_DuplicateJob(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(t.TempDir())
	if err := s.Create(ctx, New("job-1", "", twoSteps(), t0)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := s.Create(ctx, New("job-1", "", twoSteps(), t0))
	if !clierr.HasCode(err, clierr.JobExists) {
		t.Errorf("err = %v, want JOB_EXISTS", err)
	}
}

func TestFileStore_FailedCreateFreesJobID(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(t.TempDir())
	s.encode = func(*ExecutionProgress) ([]byte, error) { return nil, errors.New("boom") }

	if err := s.Create(ctx, New("job-1", "", twoSteps(), t0)); err == nil {
		t.Fatal("expected Create to fail")
	}
	if _, err := os.Stat(s.Path("job-1")); !os.IsNotExist(err) {
		t.Fatalf("job file left behind: %v", err)
	}

	s.encode = encodeIndented
	if err := s.Create(ctx, New("job-1", "", twoSteps(), t0)); err != nil {
		t.Errorf("retrying Create: %v", err)
	}
}

func TestFileStore_GetMissing(t *testing.T) {
	_, err := NewFileStore(t.TempDir()).Get(context.Background(), "nope")
	if !clierr.HasCode(err, clierr.JobNotFound) {
		t.Errorf("err = %v, want JOB_NOT_FOUND", err)
	}
}

func TestFileStore_RejectsBadJobID(t *testing.T) {
	err := NewFileStore(t.TempDir()).Create(context.Background(), New("../x", "", nil, t0))
	if !clierr.HasCode(err, clierr.InvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

func TestFileStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(t.TempDir())
	for i, id := range []string{"old", "new"} {
		if err := s.Create(ctx, New(id, "", nil, t0.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatal(err)
		}
	}
	jobs, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(jobs) != 2 || jobs[0].JobID != "new" {
		t.Errorf("jobs = %+v", jobs)
	}
}
