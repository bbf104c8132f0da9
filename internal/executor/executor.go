// Package executor applies a plan to the task store one step at a time,
// persisting progress after every step.
package executor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/twiced-technology-gmbh/taskplan/internal/clierr"
	"github.com/twiced-technology-gmbh/taskplan/internal/date"
	"github.com/twiced-technology-gmbh/taskplan/internal/plan"
	"github.com/twiced-technology-gmbh/taskplan/internal/progress"
	"github.com/twiced-technology-gmbh/taskplan/internal/task"
)

// StepError reports the step that stopped a job. Its message is exactly the
// message recorded on the failing step and on the job.
type StepError struct {
	Index  int
	Action plan.Action
	Ref    string
	Err    error
}

func (e *StepError) Error() string { return e.Err.Error() }

// Unwrap returns the store error that failed the step.
func (e *StepError) Unwrap() error { return e.Err }

// Code returns the machine-readable error code for step failures.
func (e *StepError) Code() string { return clierr.StepFailed }

// Executor runs plans against a task store.
type Executor struct {
	tasks    task.Store
	jobs     progress.Store
	observer Observer
	logger   *slog.Logger
	newID    func() string
	now      func() time.Time
}

// New creates an Executor writing tasks to tasks and progress to jobs.
func New(tasks task.Store, jobs progress.Store) *Executor {
	return &Executor{
		tasks:    tasks,
		jobs:     jobs,
		observer: nopObserver{},
		logger:   slog.New(slog.DiscardHandler),
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// WithObserver sets the receiver of step and job callbacks.
func (e *Executor) WithObserver(o Observer) *Executor {
	if o == nil {
		o = nopObserver{}
	}
	e.observer = o
	return e
}

// WithLogger sets the diagnostic logger.
func (e *Executor) WithLogger(l *slog.Logger) *Executor {
	if l != nil {
		e.logger = l
	}
	return e
}

// WithIDGenerator sets how durable IDs are allocated for created tasks
// (useful for testing).
func (e *Executor) WithIDGenerator(fn func() string) *Executor {
	e.newID = fn
	return e
}

// WithClock sets the time source for progress timestamps (useful for testing).
func (e *Executor) WithClock(fn func() time.Time) *Executor {
	e.now = fn
	return e
}

// Execute validates p, records a running job under jobID with every step
// pending, then applies the steps in order. The first failing step is
// marked as error, the job is marked as error with the same message, and
// execution stops; earlier mutations are kept. On failure the returned error
// is a *StepError, joined with the save error if the failure could not be
// recorded.
//
// Malformed plans are rejected before the job record exists. Once the job
// exists, progress writes ignore cancellation of ctx so an interrupted job
// is still recorded with its failing step.
func (e *Executor) Execute(ctx context.Context, p plan.Plan, actor, jobID string) (*progress.ExecutionProgress, error) {
	if jobID == "" {
		return nil, clierr.New(clierr.InvalidInput, "job ID is required")
	}
	if err := plan.Validate(p); err != nil {
		return nil, err
	}

	infos := make([]progress.StepInfo, len(p))
	for i, s := range p {
		infos[i] = progress.StepInfo{Action: string(s.Action()), Ref: s.Ref()}
	}
	prog := progress.New(jobID, actor, infos, e.now())
	if err := e.jobs.Create(ctx, prog); err != nil {
		return nil, err
	}

	// saveCtx outlives a cancelled ctx so the final state reaches disk.
	saveCtx := context.WithoutCancel(ctx)
	log := e.logger.With("job", jobID)
	log.Info("job started", "steps", len(p), "actor", actor)
	e.observer.OnJobStart(prog)

	// refs maps temporary references to the durable IDs allocated in this
	// call. It lives only for the duration of Execute.
	refs := make(map[string]string)

	for i, s := range p {
		e.observer.OnStepStart(i, len(p), s)

		taskID, err := e.apply(ctx, s, actor, refs)
		if err != nil {
			stepErr := &StepError{Index: i, Action: s.Action(), Ref: s.Ref(), Err: err}
			log.Warn("step failed", "index", i, "action", s.Action(), "ref", s.Ref(), "error", err)
			if markErr := prog.MarkFailed(i, stepErr.Error(), e.now()); markErr != nil {
				return prog, markErr
			}
			var failErr error = stepErr
			if saveErr := e.jobs.Save(saveCtx, prog); saveErr != nil {
				log.Error("saving failed job", "error", saveErr)
				failErr = errors.Join(stepErr, saveErr)
			}
			e.observer.OnStepFailed(i, s, stepErr)
			e.observer.OnJobFailed(prog, stepErr)
			return prog, failErr
		}

		if err := prog.MarkCompleted(i, taskID, e.now()); err != nil {
			return prog, err
		}
		if err := e.jobs.Save(saveCtx, prog); err != nil {
			log.Error("saving progress", "index", i, "error", err)
			return prog, err
		}
		log.Debug("step completed", "index", i, "action", s.Action(), "task", taskID)
		e.observer.OnStepComplete(i, s, taskID)
	}

	if err := prog.MarkDone(e.now()); err != nil {
		return prog, err
	}
	if err := e.jobs.Save(saveCtx, prog); err != nil {
		log.Error("saving completed job", "error", err)
		return prog, err
	}
	log.Info("job completed")
	e.observer.OnJobComplete(prog)
	return prog, nil
}

// apply performs one step and returns the durable ID of the task it touched.
func (e *Executor) apply(ctx context.Context, s plan.Step, actor string, refs map[string]string) (string, error) {
	switch st := s.(type) {
	case plan.Create:
		t := st.Task.Clone()
		t.ID = e.newID()
		t.CreatedBy = actor
		t.DependsOn = resolveAll(refs, t.DependsOn)
		t.Blocks = resolveAll(refs, t.Blocks)
		if st.Override != nil {
			d, err := date.Parse(st.Override.ISODate)
			if err != nil {
				return "", err
			}
			t.PlannedDate = &d
		}
		created, err := e.tasks.Create(ctx, t)
		if err != nil {
			return "", err
		}
		if st.TempRef != "" {
			refs[st.TempRef] = created.ID
		}
		return created.ID, nil

	case plan.Update:
		id := resolve(refs, st.Target)
		patch := st.Patch
		if patch.DependsOn != nil {
			deps := resolveAll(refs, *patch.DependsOn)
			patch.DependsOn = &deps
		}
		if patch.Blocks != nil {
			blocks := resolveAll(refs, *patch.Blocks)
			patch.Blocks = &blocks
		}
		if st.Override != nil {
			d, err := date.Parse(st.Override.ISODate)
			if err != nil {
				return "", err
			}
			patch.PlannedDate = &d
			patch.ClearPlannedDate = false
		}
		if _, err := e.tasks.Update(ctx, id, patch); err != nil {
			return "", err
		}
		return id, nil

	case plan.Delete:
		id := resolve(refs, st.Target)
		if err := e.tasks.Delete(ctx, id); err != nil {
			return "", err
		}
		return id, nil
	}
	return "", clierr.Newf(clierr.InternalError, "unsupported step %T", s)
}

func resolve(refs map[string]string, ref string) string {
	if id, ok := refs[ref]; ok {
		return id
	}
	return ref
}

func resolveAll(refs map[string]string, ids []string) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = resolve(refs, id)
	}
	return out
}
