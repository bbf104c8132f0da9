package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskplan/internal/activity"
	"github.com/twiced-technology-gmbh/taskplan/internal/output"
	"github.com/twiced-technology-gmbh/taskplan/internal/progress"
	"github.com/twiced-technology-gmbh/taskplan/internal/tui"
	"github.com/twiced-technology-gmbh/taskplan/internal/watcher"
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Inspect plan executions",
	Long:  `Every plan run is recorded as a job with the status of each of its steps.`,
}

var jobShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a job's step-by-step progress",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobShow,
}

var jobListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List recorded jobs, newest first",
	RunE:    runJobList,
}

var jobWatchCmd = &cobra.Command{
	Use:   "watch ID",
	Short: "Follow a running job live",
	Long: `Opens a progress view for a job and refreshes it whenever the job record
changes on disk, for example while "plan run" executes in another terminal.
Press q to quit.`,
	Args: cobra.ExactArgs(1),
	RunE: runJobWatch,
}

func init() {
	jobShowCmd.Flags().Bool("activity", false, "include the job's activity journal entries")
	jobListCmd.Flags().IntP("limit", "n", 0, "show at most N jobs")
	jobListCmd.Flags().String("status", "", "only jobs with this status (running, completed, error)")
	jobWatchCmd.Flags().Bool("exit", false, "quit once the job finishes")

	jobCmd.AddCommand(jobShowCmd, jobListCmd, jobWatchCmd)
	rootCmd.AddCommand(jobCmd)
}

// jobWithActivity is the JSON shape of job show --activity.
type jobWithActivity struct {
	*progress.ExecutionProgress
	Activity []activity.Entry `json:"activity"`
}

func runJobShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	job, err := progress.NewFileStore(cfg.JobsPath()).Get(context.Background(), args[0])
	if err != nil {
		return err
	}

	var entries []activity.Entry
	withActivity, _ := cmd.Flags().GetBool("activity")
	if withActivity {
		entries, err = activity.New(cfg.Dir()).ForJob(job.JobID)
		if err != nil {
			return err
		}
	}

	switch outputFormat() {
	case output.FormatJSON:
		if withActivity {
			if entries == nil {
				entries = []activity.Entry{}
			}
			return output.JSON(os.Stdout, jobWithActivity{ExecutionProgress: job, Activity: entries})
		}
		return output.JSON(os.Stdout, job)
	case output.FormatCompact:
		output.JobCompact(os.Stdout, job)
	default:
		output.JobDetail(os.Stdout, job)
	}

	if len(entries) > 0 {
		fmt.Fprintln(os.Stdout)
		for _, e := range entries {
			line := fmt.Sprintf("%s  %-9s %s", e.Timestamp.Local().Format("15:04:05"), e.Action, e.TaskID)
			if e.Detail != "" {
				line += "  " + e.Detail
			}
			fmt.Fprintln(os.Stdout, line)
		}
	}
	return nil
}

func runJobList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	jobs, err := progress.NewFileStore(cfg.JobsPath()).List(context.Background())
	if err != nil {
		return err
	}

	if status, _ := cmd.Flags().GetString("status"); status != "" {
		filtered := jobs[:0]
		for _, j := range jobs {
			if string(j.Status) == status {
				filtered = append(filtered, j)
			}
		}
		jobs = filtered
	}
	if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}

	switch outputFormat() {
	case output.FormatJSON:
		if jobs == nil {
			jobs = []*progress.ExecutionProgress{}
		}
		return output.JSON(os.Stdout, jobs)
	case output.FormatCompact:
		output.JobListCompact(os.Stdout, jobs)
	default:
		output.JobTable(os.Stdout, jobs)
	}
	return nil
}

func runJobWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	jobID := args[0]
	store := progress.NewFileStore(cfg.JobsPath())
	exitOnFinish, _ := cmd.Flags().GetBool("exit")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	model := tui.NewJob(store, jobID, exitOnFinish)
	p := tea.NewProgram(model, tea.WithContext(ctx))

	go startJobWatcher(ctx, cfg.JobsPath(), jobID, p)

	_, err = p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// startJobWatcher reloads the progress view whenever the job file changes.
func startJobWatcher(ctx context.Context, jobsDir, jobID string, p *tea.Program) {
	w, err := watcher.New([]string{jobsDir}, func() {
		p.Send(tui.ReloadMsg{})
	}, watcher.OnlyFile(jobID+".json"))
	if err != nil {
		logger.Warn("job watcher unavailable", "error", err)
		return // non-fatal: the view still shows the state at startup
	}
	defer w.Close()
	w.Run(ctx, func(err error) {
		logger.Warn("job watcher", "error", err)
	})
}
