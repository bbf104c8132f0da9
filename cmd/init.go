package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskplan/internal/clierr"
	"github.com/twiced-technology-gmbh/taskplan/internal/config"
	"github.com/twiced-technology-gmbh/taskplan/internal/date"
	"github.com/twiced-technology-gmbh/taskplan/internal/output"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new taskplan workspace",
	Long:  `Creates a workspace directory with config.yml and the tasks/ and jobs/ subdirectories.`,
	RunE:  runInit,
}

func init() {
	initCmd.Flags().String("name", "", "workspace name (defaults to current directory name)")
	initCmd.Flags().StringSlice("statuses", nil, "comma-separated list of statuses; the last one is final")
	initCmd.Flags().String("time-zone", "", "IANA time zone used to resolve dates (default UTC)")
	initCmd.Flags().Int("effort-threshold", config.DefaultEffortThreshold, "largest daily effort before a plan is flagged")
	initCmd.Flags().Int("max-tasks-per-day", config.DefaultMaxTasksPerDay, "largest daily task count before a plan is flagged")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	dir := flagDir
	if dir == "" {
		dir = config.DefaultDir
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}

	if _, err := os.Stat(filepath.Join(absDir, config.ConfigFileName)); err == nil {
		return clierr.Newf(clierr.WorkspaceExists, "workspace already initialized in %s", absDir).
			WithDetails(map[string]any{"dir": absDir})
	}

	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		name = filepath.Base(cwd)
	}

	cfg := config.NewDefault(name)
	cfg.SetDir(absDir)

	if statuses, _ := cmd.Flags().GetStringSlice("statuses"); len(statuses) > 0 {
		cfg.Statuses = statuses
		cfg.Defaults.Status = statuses[0]
	}
	if tz, _ := cmd.Flags().GetString("time-zone"); tz != "" {
		if _, err := date.LoadLocation(tz); err != nil {
			return err
		}
		cfg.TimeZone = tz
	}
	cfg.Analysis.EffortThreshold, _ = cmd.Flags().GetInt("effort-threshold")
	cfg.Analysis.MaxTasksPerDay, _ = cmd.Flags().GetInt("max-tasks-per-day")

	if err := cfg.Validate(); err != nil {
		return clierr.New(clierr.InvalidInput, err.Error())
	}

	const dirMode = 0o750
	for _, p := range []string{cfg.TasksPath(), cfg.JobsPath()} {
		if err := os.MkdirAll(p, dirMode); err != nil {
			return fmt.Errorf("creating %s: %w", p, err)
		}
	}

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	format := outputFormat()
	if format == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]string{
			"status":   "initialized",
			"dir":      absDir,
			"name":     name,
			"config":   cfg.ConfigPath(),
			"tasks":    cfg.TasksPath(),
			"jobs":     cfg.JobsPath(),
			"statuses": strings.Join(cfg.Statuses, ","),
		})
	}

	output.Messagef(os.Stdout, "Initialized workspace %q in %s", name, absDir)
	output.Messagef(os.Stdout, "  Config:   %s", cfg.ConfigPath())
	output.Messagef(os.Stdout, "  Tasks:    %s", cfg.TasksPath())
	output.Messagef(os.Stdout, "  Jobs:     %s", cfg.JobsPath())
	output.Messagef(os.Stdout, "  Statuses: %s", strings.Join(cfg.Statuses, ", "))
	return nil
}
