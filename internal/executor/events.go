package executor

import (
	"github.com/twiced-technology-gmbh/taskplan/internal/plan"
	"github.com/twiced-technology-gmbh/taskplan/internal/progress"
)

// Observer receives callbacks during plan execution.
type Observer interface {
	// OnJobStart is called once the job record exists.
	OnJobStart(p *progress.ExecutionProgress)

	// OnStepStart is called before a step is applied.
	OnStepStart(index, total int, s plan.Step)

	// OnStepComplete is called when a step succeeds.
	OnStepComplete(index int, s plan.Step, taskID string)

	// OnStepFailed is called when a step fails.
	OnStepFailed(index int, s plan.Step, err error)

	// OnJobComplete is called when every step succeeded.
	OnJobComplete(p *progress.ExecutionProgress)

	// OnJobFailed is called after a step failure ends the job.
	OnJobFailed(p *progress.ExecutionProgress, err error)
}

type nopObserver struct{}

func (nopObserver) OnJobStart(*progress.ExecutionProgress) {}
func (nopObserver) OnStepStart(int, int, plan.Step) {}
func (nopObserver) OnStepComplete(int, plan.Step, string) {}
func (nopObserver) OnStepFailed(int, plan.Step, error) {}
func (nopObserver) OnJobComplete(*progress.ExecutionProgress) {}
func (nopObserver) OnJobFailed(*progress.ExecutionProgress, error) {}

// multiObserver fans callbacks out in order.
type multiObserver []Observer

// Observers combines several observers into one.
func Observers(obs ...Observer) Observer {
	return multiObserver(obs)
}

func (m multiObserver) OnJobStart(p *progress.ExecutionProgress) {
	for _, o := range m {
		o.OnJobStart(p)
	}
}

func (m multiObserver) OnStepStart(index, total int, s plan.Step) {
	for _, o := range m {
		o.OnStepStart(index, total, s)
	}
}

func (m multiObserver) OnStepComplete(index int, s plan.Step, taskID string) {
	for _, o := range m {
		o.OnStepComplete(index, s, taskID)
	}
}

func (m multiObserver) OnStepFailed(index int, s plan.Step, err error) {
	for _, o := range m {
		o.OnStepFailed(index, s, err)
	}
}

func (m multiObserver) OnJobComplete(p *progress.ExecutionProgress) {
	for _, o := range m {
		o.OnJobComplete(p)
	}
}

func (m multiObserver) OnJobFailed(p *progress.ExecutionProgress, err error) {
	for _, o := range m {
		o.OnJobFailed(p, err)
	}
}
