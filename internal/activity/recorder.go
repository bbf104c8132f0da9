package activity

import (
	"fmt"

	"github.com/twiced-technology-gmbh/taskplan/internal/plan"
	"github.com/twiced-technology-gmbh/taskplan/internal/progress"
)

// Recorder journals the mutations of one plan execution. It satisfies the
// executor's Observer interface.
type Recorder struct {
	journal *Journal
	actor   string
	jobID   string
}

// NewRecorder returns a Recorder writing to j on behalf of actor.
func NewRecorder(j *Journal, actor string) *Recorder {
	return &Recorder{journal: j, actor: actor}
}

func (r *Recorder) OnJobStart(p *progress.ExecutionProgress) {
	r.jobID = p.JobID
	r.journal.Record(ActionJobStart, r.actor, r.jobID, "", fmt.Sprintf("%d steps", len(p.Steps)))
}

func (r *Recorder) OnStepStart(int, int, plan.Step) {}

func (r *Recorder) OnStepComplete(_ int, s plan.Step, taskID string) {
	switch st := s.(type) {
	case plan.Create:
		r.journal.Record(ActionCreate, r.actor, r.jobID, taskID, st.Task.Title)
	case plan.Update:
		r.journal.Record(ActionUpdate, r.actor, r.jobID, taskID, "")
	case plan.Delete:
		r.journal.Record(ActionDelete, r.actor, r.jobID, taskID, "")
	}
}

func (r *Recorder) OnStepFailed(int, plan.Step, error) {}

func (r *Recorder) OnJobComplete(*progress.ExecutionProgress) {
	r.journal.Record(ActionJobDone, r.actor, r.jobID, "", "")
}

func (r *Recorder) OnJobFailed(p *progress.ExecutionProgress, err error) {
	r.journal.Record(ActionJobError, r.actor, r.jobID, "", err.Error())
}
