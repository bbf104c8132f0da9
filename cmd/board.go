package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskplan/internal/board"
	"github.com/twiced-technology-gmbh/taskplan/internal/config"
	"github.com/twiced-technology-gmbh/taskplan/internal/date"
	"github.com/twiced-technology-gmbh/taskplan/internal/output"
	"github.com/twiced-technology-gmbh/taskplan/internal/task"
	"github.com/twiced-technology-gmbh/taskplan/internal/watcher"
)

var flagWatch bool

var boardCmd = &cobra.Command{
	Use:     "board",
	Aliases: []string{"summary"},
	Short:   "Show workspace summary",
	Long: `Displays a summary of the workspace: task counts per status, blocked and
overdue counts, priority distribution, and the open workload per planned day.

Use --watch to keep the display live-updating. The summary re-renders
automatically whenever task files change on disk, for example while a plan
is running in another terminal. Press Ctrl+C to stop.`,
	RunE: runBoard,
}

func init() {
	rootCmd.AddCommand(boardCmd)
	boardCmd.Flags().BoolVarP(&flagWatch, "watch", "w", false, "live-update the summary on file changes")
}

func runBoard(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := renderBoard(cfg); err != nil {
		return err
	}

	if !flagWatch {
		return nil
	}

	return watchBoard(cfg)
}

func renderBoard(cfg *config.Config) error {
	tasks, warnings, err := task.ReadAllLenient(cfg.TasksPath())
	if err != nil {
		return err
	}
	printWarnings(warnings)

	summary := board.Summary(cfg, tasks, today(cfg))

	format := outputFormat()
	if format == output.FormatJSON {
		return output.JSON(os.Stdout, summary)
	}
	if format == output.FormatCompact {
		output.OverviewCompact(os.Stdout, summary)
		return nil
	}

	output.OverviewTable(os.Stdout, summary)
	return nil
}

// today returns the current calendar day in the workspace time zone.
func today(cfg *config.Config) date.Date {
	loc, err := cfg.Location()
	if err != nil {
		loc = time.UTC
	}
	return date.Of(time.Now(), loc)
}

func watchBoard(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w, err := watcher.New([]string{cfg.TasksPath(), cfg.Dir()}, func() {
		clearScreen()
		freshCfg, loadErr := config.Load(cfg.Dir())
		if loadErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: reloading config: %v\n", loadErr)
			freshCfg = cfg
		}
		if renderErr := renderBoard(freshCfg); renderErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: rendering summary: %v\n", renderErr)
		}
	})
	if err != nil {
		return fmt.Errorf("starting file watcher: %w", err)
	}
	defer w.Close()

	fmt.Fprintln(os.Stderr, "Watching for changes... (Ctrl+C to stop)")

	w.Run(ctx, func(watchErr error) {
		fmt.Fprintf(os.Stderr, "Warning: file watcher: %v\n", watchErr)
	})

	return nil
}

// clearScreen sends ANSI escape codes to clear the terminal and move the
// cursor to the top-left corner.
func clearScreen() {
	fmt.Fprint(os.Stdout, "\033[2J\033[H")
}
