package task

import (
	"time"

	"github.com/twiced-technology-gmbh/taskplan/internal/config"
)

// lifecycle stamps Started and Completed as a task moves through the
// configured statuses: the first status is "not started" and the last is
// "finished".
type lifecycle struct {
	initial  string
	terminal string
}

func lifecycleOf(cfg *config.Config) lifecycle {
	if len(cfg.Statuses) == 0 {
		return lifecycle{}
	}
	return lifecycle{initial: cfg.Statuses[0], terminal: cfg.Statuses[len(cfg.Statuses)-1]}
}

// transition records a move from the status from to t.Status at now.
// Started is set once, on leaving the initial status or on finishing.
// Completed is set on finishing and cleared when a finished task reopens.
func (l lifecycle) transition(t *Task, from string, now time.Time) {
	to := t.Status
	switch {
	case to == l.terminal:
		if from != l.terminal || t.Completed == nil {
			t.Completed = &now
		}
		if t.Started == nil {
			t.Started = &now
		}
	case from == l.terminal:
		t.Completed = nil
	case t.Started == nil && from == l.initial && to != l.initial:
		t.Started = &now
	}
}
