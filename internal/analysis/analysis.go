// Package analysis reviews a proposed plan for workload overload and
// deadline conflicts before it is executed.
package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/twiced-technology-gmbh/taskplan/internal/config"
	"github.com/twiced-technology-gmbh/taskplan/internal/date"
	"github.com/twiced-technology-gmbh/taskplan/internal/plan"
	"github.com/twiced-technology-gmbh/taskplan/internal/task"
)

// Options tunes the analyzer.
type Options struct {
	// EffortWeights maps lowercase effort names to workload weights.
	EffortWeights map[string]int
	// DefaultEffort is assumed for tasks with a missing or unknown effort.
	DefaultEffort string
	// EffortThreshold is the largest summed weight a day may carry.
	EffortThreshold int
	// MaxTasksPerDay is the largest number of tasks a day may carry.
	MaxTasksPerDay int
	// IncludeUpdates makes Update steps that reschedule a task count
	// toward the daily workload and the deadline rule, using the existing
	// task merged with the patch.
	IncludeUpdates bool
}

// DefaultOptions returns the built-in weights and thresholds.
func DefaultOptions() Options {
	weights := make(map[string]int, len(config.DefaultEfforts))
	for _, e := range config.DefaultEfforts {
		weights[e.Name] = e.Weight
	}
	return Options{
		EffortWeights:   weights,
		DefaultEffort:   config.DefaultEffort,
		EffortThreshold: config.DefaultEffortThreshold,
		MaxTasksPerDay:  config.DefaultMaxTasksPerDay,
	}
}

// OptionsFromConfig returns options using a workspace's efforts and thresholds.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		EffortWeights:   cfg.EffortWeights(),
		DefaultEffort:   cfg.Defaults.Effort,
		EffortThreshold: cfg.Analysis.EffortThreshold,
		MaxTasksPerDay:  cfg.Analysis.MaxTasksPerDay,
	}
}

// Analyzer produces advisory suggestions for a plan.
type Analyzer struct {
	opts Options
}

// NewAnalyzer creates an analyzer with the given options.
func NewAnalyzer(opts Options) *Analyzer {
	return &Analyzer{opts: opts}
}

// Analyze reviews p using the default options.
func Analyze(p plan.Plan, existing []*task.Task) []string {
	return NewAnalyzer(DefaultOptions()).Analyze(p, existing)
}

// proposed is a task as it would look after the plan runs.
type proposed struct {
	title   string
	isNew   bool
	effort  string
	planned *date.Date
	due     *date.Date
}

// Analyze returns human-readable warnings about p. It never fails and does
// not modify p or existing. Day warnings come first in date order,
// followed by deadline conflicts in plan order. Duplicates are removed.
func (a *Analyzer) Analyze(p plan.Plan, existing []*task.Task) []string {
	tasks := a.project(p, existing)

	// ISO dates sort chronologically as strings.
	days := make(map[string][]proposed)
	for _, t := range tasks {
		if t.planned == nil {
			continue
		}
		day := t.planned.String()
		days[day] = append(days[day], t)
	}
	keys := make([]string, 0, len(days))
	for d := range days {
		keys = append(keys, d)
	}
	sort.Strings(keys)

	var suggestions []string
	for _, d := range keys {
		dayTasks := days[d]
		total := 0
		for _, t := range dayTasks {
			total += a.weight(t.effort)
		}
		if total > a.opts.EffortThreshold {
			suggestions = append(suggestions, fmt.Sprintf(
				"%s looks overloaded by effort (total %d, limit %d)", d, total, a.opts.EffortThreshold))
		}
		if len(dayTasks) > a.opts.MaxTasksPerDay {
			suggestions = append(suggestions, fmt.Sprintf(
				"%s has too many tasks (%d, limit %d)", d, len(dayTasks), a.opts.MaxTasksPerDay))
		}
	}

	for _, t := range tasks {
		if t.planned == nil || t.due == nil || !t.planned.After(*t.due) {
			continue
		}
		kind := "Task"
		if t.isNew {
			kind = "New task"
		}
		suggestions = append(suggestions, fmt.Sprintf(
			"%s %q is planned for %s, after its due date %s", kind, t.title, t.planned, t.due))
	}

	return deduplicate(suggestions)
}

// project computes the tasks the plan proposes, in plan order. Create
// steps always contribute; Update steps contribute only with IncludeUpdates.
// Later steps on the same reference replace the earlier projection.
func (a *Analyzer) project(p plan.Plan, existing []*task.Task) []proposed {
	byID := make(map[string]*task.Task, len(existing))
	for _, t := range existing {
		byID[t.ID] = t
	}

	var order []string
	listed := make(map[string]bool)
	current := make(map[string]*task.Task)
	isNew := make(map[string]bool)
	track := func(key string, t *task.Task) {
		if !listed[key] {
			listed[key] = true
			order = append(order, key)
		}
		current[key] = t
	}

	for i, s := range p {
		switch st := s.(type) {
		case plan.Create:
			t := st.Task.Clone()
			if o := st.Override; o != nil {
				if d, err := date.Parse(o.ISODate); err == nil {
					t.PlannedDate = &d
				}
			}
			key := st.TempRef
			if key == "" {
				key = fmt.Sprintf("#%d", i)
			}
			track(key, t)
			isNew[key] = true

		case plan.Update:
			if !a.opts.IncludeUpdates {
				continue
			}
			base, ok := current[st.Target]
			if !ok {
				orig, found := byID[st.Target]
				if !found {
					continue
				}
				base = orig
			}
			t := base.Clone()
			st.Patch.Apply(t)
			if o := st.Override; o != nil {
				if d, err := date.Parse(o.ISODate); err == nil {
					t.PlannedDate = &d
				}
			}
			track(st.Target, t)

		case plan.Delete:
			delete(current, st.Target)
		}
	}

	out := make([]proposed, 0, len(order))
	for _, key := range order {
		t, ok := current[key]
		if !ok {
			continue
		}
		out = append(out, proposed{
			title:   t.Title,
			isNew:   isNew[key],
			effort:  t.Effort,
			planned: t.PlannedDate,
			due:     t.DueDate,
		})
	}
	return out
}

// weight returns the workload weight of effort, matched case-insensitively.
func (a *Analyzer) weight(effort string) int {
	if w, ok := a.opts.EffortWeights[strings.ToLower(strings.TrimSpace(effort))]; ok {
		return w
	}
	return a.opts.EffortWeights[strings.ToLower(a.opts.DefaultEffort)]
}

// deduplicate removes repeated messages, keeping the first occurrence.
func deduplicate(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
