// Package cmd implements the taskplan CLI commands.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskplan/internal/activity"
	"github.com/twiced-technology-gmbh/taskplan/internal/clierr"
	"github.com/twiced-technology-gmbh/taskplan/internal/config"
	"github.com/twiced-technology-gmbh/taskplan/internal/output"
	"github.com/twiced-technology-gmbh/taskplan/internal/task"
)

// version is set at build time via ldflags.
var version = "dev"

// Global flags.
var (
	flagJSON    bool
	flagTable   bool
	flagCompact bool
	flagDir     string
	flagNoColor bool
	flagVerbose bool
	flagActor   string
)

// logger receives engine diagnostics. It discards everything unless
// --verbose is set.
var logger = slog.New(slog.DiscardHandler)

var rootCmd = &cobra.Command{
	Use:   "taskplan",
	Short: "Validate and execute AI-generated task plans",
	Long: `taskplan applies batches of task changes proposed by an assistant to a
local task workspace. Plans are checked for overloaded days and missed
deadlines before they run, every step's progress is recorded, and repeated
requests are recognized by their fingerprint.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if flagNoColor || os.Getenv("NO_COLOR") != "" {
			output.DisableColor()
		}
		if flagVerbose {
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagTable, "table", false, "output as table")
	rootCmd.PersistentFlags().BoolVar(&flagCompact, "compact", false, "compact one-line-per-record output")
	rootCmd.PersistentFlags().BoolVar(&flagCompact, "oneline", false, "alias for --compact")
	rootCmd.PersistentFlags().StringVar(&flagDir, "dir", "", "path to the taskplan workspace directory")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable color output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log diagnostics to stderr")
	rootCmd.PersistentFlags().StringVar(&flagActor, "actor", "", "identity recorded on changes (default from config or $USER)")
}

// Execute runs the root command.
func Execute() {
	_, err := rootCmd.ExecuteC()
	if err == nil {
		return
	}

	// SilentError: exit with its code and print nothing.
	var silent *clierr.SilentError
	if errors.As(err, &silent) {
		os.Exit(silent.Code)
	}

	jsonMode := flagJSON
	if !jsonMode {
		jsonMode = os.Getenv(config.EnvOutput) == "json"
	}

	code, details := errorCode(err)

	if jsonMode {
		output.JSONError(os.Stdout, code, err.Error(), details)
		os.Exit(exitCode(err))
	}

	fmt.Fprintln(os.Stderr, "Error: "+err.Error())
	os.Exit(exitCode(err))
}

// errorCode extracts a machine-readable code from err. Step failures carry
// their own code; unknown errors are reported as internal.
func errorCode(err error) (string, map[string]any) {
	var cliErr *clierr.Error
	hasCLIErr := errors.As(err, &cliErr)

	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		if hasCLIErr {
			return coded.Code(), map[string]any{"cause": cliErr.Code}
		}
		return coded.Code(), nil
	}
	if hasCLIErr {
		return cliErr.Code, cliErr.Details
	}
	return clierr.InternalError, nil
}

func exitCode(err error) int {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		return 1
	}
	var cliErr *clierr.Error
	if errors.As(err, &cliErr) {
		return cliErr.ExitCode()
	}
	return 2 //nolint:mnd // exit code 2 for internal errors
}

// resolveDir returns the path to the workspace directory.
func resolveDir() (string, error) {
	if flagDir != "" {
		return flagDir, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}

	return config.FindDir(cwd)
}

// loadConfig finds and loads the workspace config.
func loadConfig() (*config.Config, error) {
	dir, err := resolveDir()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(dir)
	if errors.Is(err, config.ErrNotFound) {
		return nil, clierr.Newf(clierr.WorkspaceMissing, "%s: %s", err.Error(), dir).
			WithDetails(map[string]any{"dir": dir})
	}
	return cfg, err
}

// outputFormat returns the detected output format from flags/env.
func outputFormat() output.Format {
	return output.Detect(flagJSON, flagTable, flagCompact)
}

// printWarnings writes task read warnings to stderr.
func printWarnings(warnings []task.ReadWarning) {
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "Warning: skipping malformed file %s: %v\n", w.File, w.Err)
	}
}

// actorFor returns the identity recorded on mutations: the --actor flag,
// then the configured actor, then the login name.
func actorFor(cfg *config.Config) string {
	switch {
	case flagActor != "":
		return flagActor
	case cfg.Actor != "":
		return cfg.Actor
	default:
		return os.Getenv("USER")
	}
}

// logActivity appends an entry to the activity journal. Errors are
// discarded because journaling must never fail a command.
func logActivity(cfg *config.Config, action, actor, taskID, detail string) {
	activity.New(cfg.Dir()).Record(action, actor, "", taskID, detail)
}

// runBatch executes fn for each ID and collects results. Returns a SilentError
// with exit code 1 if any operation failed (after outputting results).
func runBatch(ids []string, fn func(string) error) error {
	results := make([]output.BatchResult, 0, len(ids))
	anyFailed := false

	for _, id := range ids {
		err := fn(id)
		if err != nil {
			anyFailed = true
			var cliErr *clierr.Error
			if errors.As(err, &cliErr) {
				results = append(results, output.BatchResult{ID: id, OK: false, Error: cliErr.Message, Code: cliErr.Code})
			} else {
				results = append(results, output.BatchResult{ID: id, OK: false, Error: err.Error()})
			}
		} else {
			results = append(results, output.BatchResult{ID: id, OK: true})
		}
	}

	if outputFormat() == output.FormatJSON {
		if err := output.JSON(os.Stdout, results); err != nil {
			return err
		}
	} else {
		var succeeded int
		for _, r := range results {
			if r.OK {
				succeeded++
			} else {
				fmt.Fprintf(os.Stderr, "Error: task %s: %s\n", r.ID, r.Error)
			}
		}
		output.Messagef(os.Stdout, "Completed %d/%d operations", succeeded, len(ids))
	}

	if anyFailed {
		return &clierr.SilentError{Code: 1}
	}
	return nil
}
