package task

import (
	"strings"

	"github.com/twiced-technology-gmbh/taskplan/internal/clierr"
)

// ValidateStatus checks that a status is in the allowed list.
func ValidateStatus(status string, allowed []string) error {
	for _, s := range allowed {
		if s == status {
			return nil
		}
	}
	return clierr.Newf(clierr.InvalidStatus, "invalid status %q", status).
		WithDetails(map[string]any{
			"status":  status,
			"allowed": allowed,
		})
}

// ValidatePriority checks that a priority is in the allowed list.
func ValidatePriority(priority string, allowed []string) error {
	for _, p := range allowed {
		if p == priority {
			return nil
		}
	}
	return clierr.Newf(clierr.InvalidPriority, "invalid priority %q", priority).
		WithDetails(map[string]any{
			"priority": priority,
			"allowed":  allowed,
		})
}

// NormalizeEffort matches effort case-insensitively against the allowed list
// and returns the configured spelling.
func NormalizeEffort(effort string, allowed []string) (string, error) {
	for _, e := range allowed {
		if strings.EqualFold(e, effort) {
			return e, nil
		}
	}
	return "", clierr.Newf(clierr.InvalidEffort, "invalid effort %q", effort).
		WithDetails(map[string]any{
			"effort":  effort,
			"allowed": allowed,
		})
}

// ValidateDate returns a structured error for invalid date input.
func ValidateDate(field, input string, err error) *clierr.Error {
	return clierr.Newf(clierr.InvalidDate, "invalid %s date: %v", field, err).
		WithDetails(map[string]any{
			"field": field,
			"input": input,
		})
}

// ValidateTaskID rejects IDs that cannot name a task file.
func ValidateTaskID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\ `) || strings.HasPrefix(id, ".") {
		return clierr.Newf(clierr.InvalidTaskID, "invalid task ID %q", id).
			WithDetails(map[string]any{"input": id})
	}
	return nil
}

// ValidateSelfReference rejects a task that depends on or blocks itself.
func ValidateSelfReference(t *Task) error {
	for _, ids := range [][]string{t.DependsOn, t.Blocks} {
		for _, id := range ids {
			if id == t.ID {
				return clierr.Newf(clierr.SelfReference, "task cannot reference itself (ID %s)", id).
					WithDetails(map[string]any{"id": id})
			}
		}
	}
	return nil
}
