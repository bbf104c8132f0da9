// Package progress tracks the step-by-step state of a plan execution job.
package progress

import (
	"fmt"
	"time"
)

// JobStatus is the overall state of a job.
type JobStatus string

// Job states.
const (
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobError     JobStatus = "error"
)

// StepStatus is the state of one plan step.
type StepStatus string

// Step states. A step moves from pending to exactly one of the others.
const (
	StepPending   StepStatus = "pending"
	StepCompleted StepStatus = "completed"
	StepError     StepStatus = "error"
)

// StepProgress records the outcome of one plan step.
type StepProgress struct {
	Index     int        `json:"index"`
	Action    string     `json:"action"`
	Ref       string     `json:"ref,omitempty"`
	TaskID    string     `json:"taskId,omitempty"`
	Status    StepStatus `json:"status"`
	Error     string     `json:"error,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// ExecutionProgress is the persisted record of one job.
type ExecutionProgress struct {
	JobID      string         `json:"jobId"`
	Actor      string         `json:"actor,omitempty"`
	Status     JobStatus      `json:"status"`
	Error      string         `json:"error,omitempty"`
	Steps      []StepProgress `json:"steps"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	FinishedAt *time.Time     `json:"finishedAt,omitempty"`
}

// StepInfo describes a step when the record is created.
type StepInfo struct {
	Action string
	Ref    string
}

// New returns a running record with every step pending.
func New(jobID, actor string, steps []StepInfo, now time.Time) *ExecutionProgress {
	p := &ExecutionProgress{
		JobID:     jobID,
		Actor:     actor,
		Status:    JobRunning,
		Steps:     make([]StepProgress, len(steps)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i, s := range steps {
		p.Steps[i] = StepProgress{
			Index:  i,
			Action: s.Action,
			Ref:    s.Ref,
			Status: StepPending,
		}
	}
	return p
}

func (p *ExecutionProgress) pendingStep(i int) (*StepProgress, error) {
	if i < 0 || i >= len(p.Steps) {
		return nil, fmt.Errorf("step %d out of range (job has %d steps)", i, len(p.Steps))
	}
	s := &p.Steps[i]
	if s.Status != StepPending {
		return nil, fmt.Errorf("step %d is already %s", i, s.Status)
	}
	if p.Status != JobRunning {
		return nil, fmt.Errorf("job %s is already %s", p.JobID, p.Status)
	}
	return s, nil
}

// MarkCompleted records that step i succeeded on the task with taskID.
func (p *ExecutionProgress) MarkCompleted(i int, taskID string, now time.Time) error {
	s, err := p.pendingStep(i)
	if err != nil {
		return err
	}
	s.Status = StepCompleted
	s.TaskID = taskID
	s.UpdatedAt = &now
	p.UpdatedAt = now
	return nil
}

// MarkFailed records that step i failed with msg and ends the job with the
// same message. Later steps stay pending.
func (p *ExecutionProgress) MarkFailed(i int, msg string, now time.Time) error {
	s, err := p.pendingStep(i)
	if err != nil {
		return err
	}
	s.Status = StepError
	s.Error = msg
	s.UpdatedAt = &now
	p.Status = JobError
	p.Error = msg
	p.UpdatedAt = now
	p.FinishedAt = &now
	return nil
}

// MarkDone ends a job whose steps all completed.
func (p *ExecutionProgress) MarkDone(now time.Time) error {
	if p.Status != JobRunning {
		return fmt.Errorf("job %s is already %s", p.JobID, p.Status)
	}
	for _, s := range p.Steps {
		if s.Status != StepCompleted {
			return fmt.Errorf("step %d is %s", s.Index, s.Status)
		}
	}
	p.Status = JobCompleted
	p.UpdatedAt = now
	p.FinishedAt = &now
	return nil
}

// Counts returns the number of completed, failed, and pending steps.
func (p *ExecutionProgress) Counts() (completed, failed, pending int) {
	for _, s := range p.Steps {
		switch s.Status {
		case StepCompleted:
			completed++
		case StepError:
			failed++
		default:
			pending++
		}
	}
	return completed, failed, pending
}

// Finished reports whether the job has reached a terminal status.
func (p *ExecutionProgress) Finished() bool {
	return p.Status != JobRunning
}
