package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskplan/internal/clierr"
	"github.com/twiced-technology-gmbh/taskplan/internal/config"
	"github.com/twiced-technology-gmbh/taskplan/internal/date"
	"github.com/twiced-technology-gmbh/taskplan/internal/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify workspace configuration",
	Long: `View the full configuration, get a specific key, or set a writable value.
Values shown include TASKPLAN_* environment overrides; set writes the file only.`,
	RunE: runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2), //nolint:mnd // key and value
	RunE:  runConfigSet,
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

// configAccessor describes how to get and set a config key.
type configAccessor struct {
	get      func(*config.Config) any
	set      func(*config.Config, string) error
	writable bool
}

func configAccessors() map[string]configAccessor {
	accessors := baseConfigAccessors()
	addAnalysisConfigAccessors(accessors)
	return accessors
}

func baseConfigAccessors() map[string]configAccessor {
	return map[string]configAccessor{
		"name": {
			get:      func(c *config.Config) any { return c.Name },
			set:      func(c *config.Config, v string) error { c.Name = v; return nil },
			writable: true,
		},
		"time_zone": {
			get: func(c *config.Config) any { return c.TimeZone },
			set: func(c *config.Config, v string) error {
				if _, err := date.LoadLocation(v); err != nil {
					return err
				}
				c.TimeZone = v
				return nil
			},
			writable: true,
		},
		"actor": {
			get:      func(c *config.Config) any { return c.Actor },
			set:      func(c *config.Config, v string) error { c.Actor = v; return nil },
			writable: true,
		},
		"statuses": {
			get: func(c *config.Config) any { return c.Statuses },
		},
		"priorities": {
			get: func(c *config.Config) any { return c.Priorities },
		},
		"efforts": {
			get: func(c *config.Config) any { return c.Efforts },
		},
		"defaults.status": {
			get: func(c *config.Config) any { return c.Defaults.Status },
			set: func(c *config.Config, v string) error {
				if config.IndexOf(c.Statuses, v) < 0 {
					return clierr.Newf(clierr.InvalidInput,
						"invalid default status %q; allowed: %s", v, strings.Join(c.Statuses, ", "))
				}
				c.Defaults.Status = v
				return nil
			},
			writable: true,
		},
		"defaults.priority": {
			get: func(c *config.Config) any { return c.Defaults.Priority },
			set: func(c *config.Config, v string) error {
				if config.IndexOf(c.Priorities, v) < 0 {
					return clierr.Newf(clierr.InvalidInput,
						"invalid default priority %q; allowed: %s", v, strings.Join(c.Priorities, ", "))
				}
				c.Defaults.Priority = v
				return nil
			},
			writable: true,
		},
		"defaults.effort": {
			get: func(c *config.Config) any { return c.Defaults.Effort },
			set: func(c *config.Config, v string) error {
				if config.IndexOf(c.EffortNames(), v) < 0 {
					return clierr.Newf(clierr.InvalidInput,
						"invalid default effort %q; allowed: %s", v, strings.Join(c.EffortNames(), ", "))
				}
				c.Defaults.Effort = v
				return nil
			},
			writable: true,
		},
		"tasks_dir": {
			get: func(c *config.Config) any { return c.TasksDir },
		},
		"jobs_dir": {
			get: func(c *config.Config) any { return c.JobsDir },
		},
		"version": {
			get: func(c *config.Config) any { return c.Version },
		},
	}
}

func addAnalysisConfigAccessors(accessors map[string]configAccessor) {
	accessors["analysis.effort_threshold"] = configAccessor{
		get:      func(c *config.Config) any { return c.Analysis.EffortThreshold },
		set:      intSetter("analysis.effort_threshold", func(c *config.Config, n int) { c.Analysis.EffortThreshold = n }),
		writable: true,
	}
	accessors["analysis.max_tasks_per_day"] = configAccessor{
		get:      func(c *config.Config) any { return c.Analysis.MaxTasksPerDay },
		set:      intSetter("analysis.max_tasks_per_day", func(c *config.Config, n int) { c.Analysis.MaxTasksPerDay = n }),
		writable: true,
	}
}

func intSetter(key string, apply func(*config.Config, int)) func(*config.Config, string) error {
	return func(c *config.Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return clierr.Newf(clierr.InvalidInput, "invalid %s %q: must be an integer", key, v)
		}
		apply(c, n)
		return nil // validation handles range check
	}
}

// allConfigKeys returns config keys in display order.
func allConfigKeys() []string {
	return []string{
		"version",
		"name",
		"tasks_dir",
		"jobs_dir",
		"time_zone",
		"actor",
		"statuses",
		"priorities",
		"efforts",
		"defaults.status",
		"defaults.priority",
		"defaults.effort",
		"analysis.effort_threshold",
		"analysis.max_tasks_per_day",
	}
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	accessors := configAccessors()

	if outputFormat() == output.FormatJSON {
		m := make(map[string]any, len(accessors))
		for _, key := range allConfigKeys() {
			m[key] = accessors[key].get(cfg)
		}
		return output.JSON(os.Stdout, m)
	}

	for _, key := range allConfigKeys() {
		val := accessors[key].get(cfg)
		fmt.Fprintf(os.Stdout, "%-28s %v\n", key, formatConfigValue(val))
	}
	return nil
}

func runConfigGet(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	key := args[0]
	acc, ok := configAccessors()[key]
	if !ok {
		return clierr.Newf(clierr.InvalidInput, "unknown config key %q", key)
	}

	val := acc.get(cfg)

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, val)
	}

	fmt.Fprintln(os.Stdout, formatConfigValue(val))
	return nil
}

func runConfigSet(_ *cobra.Command, args []string) error {
	dir, err := resolveDir()
	if err != nil {
		return err
	}
	cfg, err := config.LoadFile(dir)
	if err != nil {
		return err
	}

	key, value := args[0], args[1]
	acc, ok := configAccessors()[key]
	if !ok {
		return clierr.Newf(clierr.InvalidInput, "unknown config key %q", key)
	}
	if !acc.writable {
		return clierr.Newf(clierr.InvalidInput, "config key %q is read-only", key)
	}

	if err := acc.set(cfg, value); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrInvalid) {
			return clierr.New(clierr.InvalidInput, err.Error())
		}
		return err
	}

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{"key": key, "value": acc.get(cfg)})
	}

	output.Messagef(os.Stdout, "Set %s = %v", key, formatConfigValue(acc.get(cfg)))
	return nil
}

func formatConfigValue(val any) string {
	switch v := val.(type) {
	case []string:
		return strings.Join(v, ", ")
	case []config.EffortConfig:
		parts := make([]string, 0, len(v))
		for _, e := range v {
			parts = append(parts, fmt.Sprintf("%s=%d", e.Name, e.Weight))
		}
		return strings.Join(parts, ", ")
	case string:
		if v == "" {
			return "--"
		}
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
