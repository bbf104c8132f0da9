package board

import (
	"fmt"
	"sort"
	"strings"

	"github.com/twiced-technology-gmbh/taskplan/internal/clierr"
	"github.com/twiced-technology-gmbh/taskplan/internal/config"
	"github.com/twiced-technology-gmbh/taskplan/internal/date"
	"github.com/twiced-technology-gmbh/taskplan/internal/task"
)

// ListOptions controls how tasks are listed.
type ListOptions struct {
	Filter    FilterOptions
	SortBy    string
	Reverse   bool
	Limit     int
	Unblocked bool // only tasks with all dependencies at terminal status
}

// List loads all tasks, applies filters and sorting.
// Uses lenient parsing: malformed task files are skipped and returned as warnings.
func List(cfg *config.Config, opts ListOptions) ([]*task.Task, []task.ReadWarning, error) {
	allTasks, warnings, err := task.ReadAllLenient(cfg.TasksPath())
	if err != nil {
		return nil, nil, err
	}

	tasks := Filter(allTasks, opts.Filter)

	if opts.Unblocked {
		tasks = FilterUnblockedWithLookup(tasks, allTasks, cfg)
	}

	sortField := opts.SortBy
	if sortField == "" {
		sortField = fieldPlanned
	}
	Sort(tasks, sortField, opts.Reverse, cfg)

	if opts.Limit > 0 && len(tasks) > opts.Limit {
		tasks = tasks[:opts.Limit]
	}

	return tasks, warnings, nil
}

// FindDependents returns human-readable messages for tasks that reference the
// given ID as a dependency or blocker. Used to warn before deleting a task.
func FindDependents(tasksDir, id string) []string {
	allTasks, _, err := task.ReadAllLenient(tasksDir)
	if err != nil {
		return nil
	}

	var msgs []string
	for _, t := range allTasks {
		if containsStr(t.DependsOn, id) {
			msgs = append(msgs, fmt.Sprintf("task %s (%s) depends on this task", t.ID, t.Title))
		}
		if containsStr(t.Blocks, id) {
			msgs = append(msgs, fmt.Sprintf("task %s (%s) is blocking this task", t.ID, t.Title))
		}
	}
	return msgs
}

// StatusSummary holds metrics for a single status.
type StatusSummary struct {
	Status  string `json:"status"`
	Count   int    `json:"count"`
	Blocked int    `json:"blocked"`
	Overdue int    `json:"overdue"`
}

// PriorityCount holds a count for a priority level.
type PriorityCount struct {
	Priority string `json:"priority"`
	Count    int    `json:"count"`
}

// DayLoad is the open workload planned for one calendar day.
type DayLoad struct {
	Date   string `json:"date"`
	Tasks  int    `json:"tasks"`
	Effort int    `json:"effort"`
}

// Overview is the aggregate workspace overview.
type Overview struct {
	Name       string          `json:"name"`
	TotalTasks int             `json:"total_tasks"`
	Statuses   []StatusSummary `json:"statuses"`
	Priorities []PriorityCount `json:"priorities"`
	Agenda     []DayLoad       `json:"agenda,omitempty"`
}

// Summary computes a workspace overview from all tasks. The agenda lists
// planned days from today onward for tasks that are not yet finished.
func Summary(cfg *config.Config, tasks []*task.Task, today date.Date) Overview {
	statusMap := make(map[string]*StatusSummary, len(cfg.Statuses))
	for _, s := range cfg.Statuses {
		statusMap[s] = &StatusSummary{Status: s}
	}

	prioMap := make(map[string]int, len(cfg.Priorities))
	days := make(map[string]*DayLoad)
	weights := cfg.EffortWeights()

	for _, t := range tasks {
		terminal := cfg.IsTerminalStatus(t.Status)
		if ss, ok := statusMap[t.Status]; ok {
			ss.Count++
			if t.Blocked {
				ss.Blocked++
			}
			if t.DueDate != nil && t.DueDate.Before(today) && !terminal {
				ss.Overdue++
			}
		}
		prioMap[t.Priority]++

		if terminal || t.PlannedDate == nil || t.PlannedDate.Before(today) {
			continue
		}
		key := t.PlannedDate.String()
		dl, ok := days[key]
		if !ok {
			dl = &DayLoad{Date: key}
			days[key] = dl
		}
		dl.Tasks++
		w, ok := weights[strings.ToLower(t.Effort)]
		if !ok {
			w = weights[strings.ToLower(cfg.Defaults.Effort)]
		}
		dl.Effort += w
	}

	statuses := make([]StatusSummary, 0, len(cfg.Statuses))
	for _, s := range cfg.Statuses {
		statuses = append(statuses, *statusMap[s])
	}

	priorities := make([]PriorityCount, 0, len(cfg.Priorities))
	for _, p := range cfg.Priorities {
		priorities = append(priorities, PriorityCount{Priority: p, Count: prioMap[p]})
	}

	agenda := make([]DayLoad, 0, len(days))
	for _, dl := range days {
		agenda = append(agenda, *dl)
	}
	sort.Slice(agenda, func(i, j int) bool { return agenda[i].Date < agenda[j].Date })

	return Overview{
		Name:       cfg.Name,
		TotalTasks: len(tasks),
		Statuses:   statuses,
		Priorities: priorities,
		Agenda:     agenda,
	}
}

// ParseIDs splits a comma-separated ID string into deduplicated IDs.
func ParseIDs(arg string) ([]string, error) {
	parts := strings.Split(arg, ",")
	seen := make(map[string]bool, len(parts))
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if err := task.ValidateTaskID(p); err != nil {
			return nil, err
		}
		if !seen[p] {
			ids = append(ids, p)
			seen[p] = true
		}
	}
	if len(ids) == 0 {
		return nil, clierr.New(clierr.InvalidTaskID, "no valid task IDs provided")
	}
	return ids, nil
}
