// Package plan models a proposed batch of task mutations and parses the
// JSON or YAML documents that carry one.
package plan

import (
	"strings"

	"github.com/twiced-technology-gmbh/taskplan/internal/task"
)

// Action names the kind of mutation a step performs.
type Action string

// Step actions.
const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// TempPrefix marks a reference as a placeholder for a task created earlier
// in the same plan.
const TempPrefix = "temp-"

// DateOverride pins a step's planned date to a date the user wrote explicitly.
type DateOverride struct {
	ISODate      string `json:"isoDate" yaml:"isoDate"`
	OriginalText string `json:"originalText,omitempty" yaml:"originalText,omitempty"`
}

// Step is one instruction of a plan. The concrete types are Create, Update
// and Delete.
type Step interface {
	Action() Action
	// Ref is the temporary reference a Create declares, or the task an
	// Update or Delete targets.
	Ref() string
	isStep()
}

// Create proposes a new task. TempRef, when set, lets later steps refer to
// the task before it has a durable ID.
type Create struct {
	TempRef  string
	Task     task.Task
	Override *DateOverride
}

// Update applies a partial change to an existing or earlier-created task.
type Update struct {
	Target   string
	Patch    task.Patch
	Override *DateOverride
}

// Delete removes a task.
type Delete struct {
	Target string
}

func (Create) Action() Action { return ActionCreate }
func (Update) Action() Action { return ActionUpdate }
func (Delete) Action() Action { return ActionDelete }

func (c Create) Ref() string { return c.TempRef }
func (u Update) Ref() string { return u.Target }
func (d Delete) Ref() string { return d.Target }

func (Create) isStep() {}
func (Update) isStep() {}
func (Delete) isStep() {}

// Plan is an ordered sequence of steps; order is execution order.
type Plan []Step

// IsTempRef reports whether ref uses the temporary reference prefix.
func IsTempRef(ref string) bool {
	return strings.HasPrefix(ref, TempPrefix)
}

// Creates returns the plan's Create steps in order.
func (p Plan) Creates() []Create {
	var out []Create
	for _, s := range p {
		if c, ok := s.(Create); ok {
			out = append(out, c)
		}
	}
	return out
}

// Counts returns how many steps of each action the plan holds.
func (p Plan) Counts() map[Action]int {
	counts := make(map[Action]int, 3) //nolint:mnd // one per action
	for _, s := range p {
		counts[s.Action()]++
	}
	return counts
}

// Override returns the date override carried by s, or nil.
func Override(s Step) *DateOverride {
	switch st := s.(type) {
	case Create:
		return st.Override
	case Update:
		return st.Override
	}
	return nil
}
