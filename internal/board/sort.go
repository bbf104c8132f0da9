package board

import (
	"sort"

	"github.com/twiced-technology-gmbh/taskplan/internal/config"
	"github.com/twiced-technology-gmbh/taskplan/internal/date"
	"github.com/twiced-technology-gmbh/taskplan/internal/task"
)

// Sort fields.
const (
	fieldID       = "id"
	fieldTitle    = "title"
	fieldStatus   = "status"
	fieldPriority = "priority"
	fieldPlanned  = "planned"
	fieldDue      = "due"
	fieldCreated  = "created"
	fieldUpdated  = "updated"
)

// SortFields lists the accepted values for Sort.
var SortFields = []string{fieldID, fieldTitle, fieldStatus, fieldPriority, fieldPlanned, fieldDue, fieldCreated, fieldUpdated}

// Sort sorts tasks by the given field. For status and priority,
// the config order is used (not alphabetical). Ties fall back to the ID.
func Sort(tasks []*task.Task, field string, reverse bool, cfg *config.Config) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if reverse {
			a, b = b, a
		}
		if c := compareTasks(a, b, field, cfg); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})
}

func compareTasks(a, b *task.Task, field string, cfg *config.Config) int {
	switch field {
	case fieldTitle:
		return compareStrings(a.Title, b.Title)
	case fieldStatus:
		return cfg.StatusIndex(a.Status) - cfg.StatusIndex(b.Status)
	case fieldPriority:
		return cfg.PriorityIndex(a.Priority) - cfg.PriorityIndex(b.Priority)
	case fieldPlanned:
		return compareDates(a.PlannedDate, b.PlannedDate)
	case fieldDue:
		return compareDates(a.DueDate, b.DueDate)
	case fieldCreated:
		return a.Created.Compare(b.Created)
	case fieldUpdated:
		return a.Updated.Compare(b.Updated)
	default:
		return compareStrings(a.ID, b.ID)
	}
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// compareDates orders missing dates last.
func compareDates(a, b *date.Date) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case a.Before(*b):
		return -1
	case a.After(*b):
		return 1
	}
	return 0
}
