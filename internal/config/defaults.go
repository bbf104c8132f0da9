// Package config handles taskplan workspace configuration.
package config

const (
	// DefaultDir is the default workspace directory name.
	DefaultDir = ".taskplan"
	// DefaultTasksDir is the default tasks subdirectory name.
	DefaultTasksDir = "tasks"
	// DefaultJobsDir is the default subdirectory for job progress records.
	DefaultJobsDir = "jobs"
	// DefaultStatus is the default status for new tasks.
	DefaultStatus = "pending"
	// DefaultPriority is the default priority for new tasks.
	DefaultPriority = "medium"
	// DefaultEffort is the effort assumed when a task does not declare one.
	DefaultEffort = "medium"
	// DefaultEffortThreshold is the summed effort weight a single day may
	// carry before it is reported as overloaded.
	DefaultEffortThreshold = 6
	// DefaultMaxTasksPerDay is the number of tasks a single day may carry
	// before it is reported as having too many tasks.
	DefaultMaxTasksPerDay = 4

	// ConfigFileName is the name of the config file within the workspace directory.
	ConfigFileName = "config.yml"

	// CurrentVersion is the current config schema version.
	CurrentVersion = 3
)

// Environment variables that override configured values.
const (
	EnvTimeZone = "TASKPLAN_TIMEZONE"
	EnvActor    = "TASKPLAN_ACTOR"
	EnvOutput   = "TASKPLAN_OUTPUT"
)

// Default slice values for a new workspace (slices cannot be const).
var (
	DefaultStatuses = []string{
		"pending",
		"in_progress",
		"completed",
	}

	DefaultPriorities = []string{
		"low",
		"medium",
		"high",
	}

	DefaultEfforts = []EffortConfig{
		{Name: "low", Weight: 1},
		{Name: "medium", Weight: 2}, //nolint:mnd // default weights
		{Name: "high", Weight: 3},   //nolint:mnd // default weights
	}
)
