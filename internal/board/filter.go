// Package board provides workspace-level operations on task collections.
package board

import (
	"strings"

	"github.com/twiced-technology-gmbh/taskplan/internal/config"
	"github.com/twiced-technology-gmbh/taskplan/internal/date"
	"github.com/twiced-technology-gmbh/taskplan/internal/task"
)

// FilterOptions defines which tasks to include.
type FilterOptions struct {
	Statuses        []string
	ExcludeStatuses []string // statuses to exclude from results
	Priorities      []string
	Efforts         []string
	Assignee        string
	CreatedBy       string
	Search          string     // case-insensitive substring match across title, body, and subtasks
	Blocked         *bool      // nil=no filter, true=only blocked, false=only not-blocked
	PlannedFrom     *date.Date // inclusive lower bound on the planned date
	PlannedTo       *date.Date // inclusive upper bound on the planned date
}

// Filter returns tasks matching all specified criteria (AND logic).
func Filter(tasks []*task.Task, opts FilterOptions) []*task.Task {
	preds := opts.predicates()
	var result []*task.Task
next:
	for _, t := range tasks {
		for _, match := range preds {
			if !match(t) {
				continue next
			}
		}
		result = append(result, t)
	}
	return result
}

type predicate func(*task.Task) bool

// predicates returns one check per criterion that is set.
func (o FilterOptions) predicates() []predicate {
	var preds []predicate
	if len(o.Statuses) > 0 {
		preds = append(preds, func(t *task.Task) bool { return containsStr(o.Statuses, t.Status) })
	}
	if len(o.ExcludeStatuses) > 0 {
		preds = append(preds, func(t *task.Task) bool { return !containsStr(o.ExcludeStatuses, t.Status) })
	}
	if len(o.Priorities) > 0 {
		preds = append(preds, func(t *task.Task) bool { return containsStr(o.Priorities, t.Priority) })
	}
	if len(o.Efforts) > 0 {
		preds = append(preds, func(t *task.Task) bool { return containsFold(o.Efforts, t.Effort) })
	}
	if o.Assignee != "" {
		preds = append(preds, func(t *task.Task) bool { return t.Assignee == o.Assignee })
	}
	if o.CreatedBy != "" {
		preds = append(preds, func(t *task.Task) bool { return t.CreatedBy == o.CreatedBy })
	}
	if o.Blocked != nil {
		want := *o.Blocked
		preds = append(preds, func(t *task.Task) bool { return t.Blocked == want })
	}
	if o.Search != "" {
		q := strings.ToLower(o.Search)
		preds = append(preds, func(t *task.Task) bool { return matchesSearch(t, q) })
	}
	if o.PlannedFrom != nil || o.PlannedTo != nil {
		preds = append(preds, func(t *task.Task) bool { return plannedWithin(t.PlannedDate, o.PlannedFrom, o.PlannedTo) })
	}
	return preds
}

// matchesSearch reports whether the lowercase query q occurs in the title,
// the description, or a subtask.
func matchesSearch(t *task.Task, q string) bool {
	if strings.Contains(strings.ToLower(t.Title), q) || strings.Contains(strings.ToLower(t.Body), q) {
		return true
	}
	for _, st := range t.Subtasks {
		if strings.Contains(strings.ToLower(st.Title), q) {
			return true
		}
	}
	return false
}

// plannedWithin reports whether d lies in the inclusive range. Undated tasks
// never match a range.
func plannedWithin(d, from, to *date.Date) bool {
	if d == nil {
		return false
	}
	if from != nil && d.Before(*from) {
		return false
	}
	return to == nil || !d.After(*to)
}

// FilterUnblocked returns tasks whose dependencies are all at a terminal status.
// Tasks with no dependencies are always included.
func FilterUnblocked(tasks []*task.Task, cfg *config.Config) []*task.Task {
	return FilterUnblockedWithLookup(tasks, tasks, cfg)
}

// FilterUnblockedWithLookup returns tasks from candidates whose dependencies
// are all at a terminal status. lookupTasks is used to build the status map
// for dependency resolution and may include tasks not in candidates.
func FilterUnblockedWithLookup(candidates, lookupTasks []*task.Task, cfg *config.Config) []*task.Task {
	statusByID := make(map[string]string, len(lookupTasks))
	for _, t := range lookupTasks {
		statusByID[t.ID] = t.Status
	}

	var result []*task.Task
	for _, t := range candidates {
		if t.Blocked {
			continue
		}
		if allDepsSatisfied(t.DependsOn, statusByID, cfg) {
			result = append(result, t)
		}
	}
	return result
}

func allDepsSatisfied(deps []string, statusByID map[string]string, cfg *config.Config) bool {
	for _, depID := range deps {
		s, ok := statusByID[depID]
		if !ok {
			// Deleted dependencies no longer hold anything back.
			continue
		}
		if !cfg.IsTerminalStatus(s) {
			return false
		}
	}
	return true
}

func containsStr(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func containsFold(slice []string, item string) bool {
	for _, s := range slice {
		if strings.EqualFold(s, item) {
			return true
		}
	}
	return false
}
