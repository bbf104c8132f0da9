package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskplan/internal/activity"
	"github.com/twiced-technology-gmbh/taskplan/internal/analysis"
	"github.com/twiced-technology-gmbh/taskplan/internal/clierr"
	"github.com/twiced-technology-gmbh/taskplan/internal/config"
	"github.com/twiced-technology-gmbh/taskplan/internal/date"
	"github.com/twiced-technology-gmbh/taskplan/internal/executor"
	"github.com/twiced-technology-gmbh/taskplan/internal/fingerprint"
	"github.com/twiced-technology-gmbh/taskplan/internal/output"
	"github.com/twiced-technology-gmbh/taskplan/internal/plan"
	"github.com/twiced-technology-gmbh/taskplan/internal/progress"
	"github.com/twiced-technology-gmbh/taskplan/internal/task"
	"github.com/twiced-technology-gmbh/taskplan/internal/tui"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Check and run task plans",
	Long: `A plan is an ordered list of create, update and delete steps, usually
produced by an assistant from a natural-language request. Plans are read
from a JSON or YAML file, or from stdin when FILE is "-".`,
}

var planCheckCmd = &cobra.Command{
	Use:   "check FILE",
	Short: "Review a plan for overloaded days and missed deadlines",
	Long: `Parses and validates a plan, then reports days whose summed effort or task
count exceeds the workspace limits and tasks planned after their due date.
Nothing is written.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlanCheck,
}

var planRunCmd = &cobra.Command{
	Use:   "run FILE",
	Short: "Execute a plan against the workspace",
	Long: `Executes a plan step by step, recording the progress of every step under a
job ID. Execution stops at the first failing step; earlier changes are kept.

With --prompt, explicit dates in the request ("3/10", "2025-10-03") are
attached to the plan's create steps, and the request is fingerprinted
together with the current tasks. A request whose fingerprint was already
executed is refused unless --force is given.

The plan is reviewed before execution. When the review has suggestions the
command asks for confirmation, or proceeds directly with --yes.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlanRun,
}

func init() {
	planCheckCmd.Flags().Bool("include-updates", false, "count rescheduling updates toward daily workload")

	planRunCmd.Flags().String("prompt", "", "the request the plan was generated from")
	planRunCmd.Flags().String("prompt-file", "", "read the request from a file")
	planRunCmd.Flags().String("job-id", "", "job ID to record progress under (default: random UUID)")
	planRunCmd.Flags().Bool("force", false, "run even if the same request was already executed")
	planRunCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation when the review has suggestions")
	planRunCmd.Flags().Bool("skip-check", false, "skip the workload and deadline review")
	planRunCmd.Flags().Bool("include-updates", false, "count rescheduling updates toward daily workload")
	planRunCmd.Flags().BoolP("watch", "w", false, "show live progress while the plan runs")

	planCmd.AddCommand(planCheckCmd, planRunCmd)
	rootCmd.AddCommand(planCmd)
}

// PlanResult is the JSON shape of a plan run.
type PlanResult struct {
	Job         *progress.ExecutionProgress `json:"job,omitempty"`
	Fingerprint string                      `json:"fingerprint,omitempty"`
	Suggestions []string                    `json:"suggestions"`
	Error       *output.ErrorResponse       `json:"error,omitempty"`
}

// readPlan parses the plan at path, or stdin for "-".
func readPlan(path string) (plan.Plan, error) {
	if path != "-" {
		return plan.ReadFile(path)
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("reading plan from stdin: %w", err)
	}
	return plan.Parse(data)
}

func analyzerFor(cfg *config.Config, includeUpdates bool) *analysis.Analyzer {
	opts := analysis.OptionsFromConfig(cfg)
	opts.IncludeUpdates = includeUpdates
	return analysis.NewAnalyzer(opts)
}

func runPlanCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := readPlan(args[0])
	if err != nil {
		return err
	}
	if err := plan.Validate(p); err != nil {
		return err
	}

	existing, err := task.NewFileStore(cfg).List(cmd.Context())
	if err != nil {
		return err
	}
	includeUpdates, _ := cmd.Flags().GetBool("include-updates")
	suggestions := analyzerFor(cfg, includeUpdates).Analyze(p, existing)

	if outputFormat() == output.FormatJSON {
		counts := p.Counts()
		return output.JSON(os.Stdout, output.PlanReport{
			Steps:       len(p),
			Creates:     counts[plan.ActionCreate],
			Updates:     counts[plan.ActionUpdate],
			Deletes:     counts[plan.ActionDelete],
			Suggestions: nonNil(suggestions),
		})
	}

	if len(suggestions) == 0 {
		output.Messagef(os.Stdout, "No issues found in %d steps", len(p))
		return nil
	}
	fmt.Fprintln(os.Stdout, analysis.Format(suggestions))
	return nil
}

// planRunOptions collects the flags of plan run.
type planRunOptions struct {
	prompt         string
	jobID          string
	force          bool
	yes            bool
	skipCheck      bool
	includeUpdates bool
	watch          bool
}

func planRunFlags(cmd *cobra.Command) (planRunOptions, error) {
	var o planRunOptions
	o.prompt, _ = cmd.Flags().GetString("prompt")
	promptFile, _ := cmd.Flags().GetString("prompt-file")
	o.jobID, _ = cmd.Flags().GetString("job-id")
	o.force, _ = cmd.Flags().GetBool("force")
	o.yes, _ = cmd.Flags().GetBool("yes")
	o.skipCheck, _ = cmd.Flags().GetBool("skip-check")
	o.includeUpdates, _ = cmd.Flags().GetBool("include-updates")
	o.watch, _ = cmd.Flags().GetBool("watch")

	if promptFile != "" {
		if o.prompt != "" {
			return o, clierr.New(clierr.InvalidInput, "--prompt and --prompt-file are mutually exclusive")
		}
		data, err := os.ReadFile(promptFile) //nolint:gosec // prompt path supplied by the user
		if err != nil {
			return o, fmt.Errorf("reading prompt: %w", err)
		}
		o.prompt = strings.TrimSpace(string(data))
	}
	if o.jobID == "" {
		o.jobID = uuid.NewString()
	}
	return o, nil
}

func runPlanRun(cmd *cobra.Command, args []string) error {
	opts, err := planRunFlags(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := readPlan(args[0])
	if err != nil {
		return err
	}

	if opts.prompt != "" {
		candidates, extractErr := date.ExtractExplicitDates(opts.prompt, cfg.TimeZone, time.Now())
		if extractErr != nil {
			return extractErr
		}
		logger.Debug("explicit dates found", "count", len(candidates))
		p = plan.AttachDateOverrides(p, candidates)
	}
	if err := plan.Validate(p); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := task.NewFileStore(cfg)
	existing, err := store.List(ctx)
	if err != nil {
		return err
	}

	var suggestions []string
	if !opts.skipCheck {
		suggestions = analyzerFor(cfg, opts.includeUpdates).Analyze(p, existing)
		if err := confirmSuggestions(suggestions, opts.yes); err != nil {
			return err
		}
	}

	var fp string
	cache := fingerprint.NewCache(cfg.Dir())
	if opts.prompt != "" {
		fp = fingerprint.Fingerprint(opts.prompt, fingerprint.FromTasks(existing))
		entry, found, lookupErr := cache.Lookup(fp)
		if lookupErr != nil {
			return lookupErr
		}
		if found && !opts.force {
			return clierr.Newf(clierr.DuplicateRequest,
				"request was already executed as job %s (use --force to run again)", entry.JobID).
				WithDetails(map[string]any{"jobId": entry.JobID, "fingerprint": fp})
		}
	}

	actor := actorFor(cfg)
	jobs := progress.NewFileStore(cfg.JobsPath())
	observers := []executor.Observer{activity.NewRecorder(activity.New(cfg.Dir()), actor)}

	var job *progress.ExecutionProgress
	var execErr error
	switch {
	case opts.watch && outputFormat() != output.FormatJSON:
		job, execErr = executeWatched(ctx, p, store, jobs, observers, actor, opts.jobID)
	default:
		if outputFormat() != output.FormatJSON {
			observers = append(observers, &consoleObserver{w: os.Stderr})
		}
		exec := executor.New(store, jobs).
			WithObserver(executor.Observers(observers...)).
			WithLogger(logger)
		job, execErr = exec.Execute(ctx, p, actor, opts.jobID)
	}

	if execErr == nil && fp != "" {
		if err := cache.Record(fp, job.JobID, time.Now()); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: recording fingerprint: %v\n", err)
		}
	}

	return reportPlanRun(job, fp, suggestions, execErr)
}

// confirmSuggestions shows review suggestions and asks whether to proceed.
func confirmSuggestions(suggestions []string, yes bool) error {
	if len(suggestions) == 0 {
		return nil
	}
	fmt.Fprintln(os.Stderr, analysis.Format(suggestions))
	if yes {
		return nil
	}
	ok, err := confirm("Run the plan anyway?")
	if err != nil {
		var cliErr *clierr.Error
		if errors.As(err, &cliErr) {
			return cliErr.WithDetails(map[string]any{"suggestions": suggestions})
		}
		return err
	}
	if !ok {
		return clierr.New(clierr.ConfirmationReq, "plan not executed").
			WithDetails(map[string]any{"suggestions": suggestions})
	}
	return nil
}

// executeWatched runs the plan in the background while a progress view
// follows the job record.
func executeWatched(ctx context.Context, p plan.Plan, store task.Store, jobs *progress.FileStore,
	observers []executor.Observer, actor, jobID string,
) (*progress.ExecutionProgress, error) {
	model := tui.NewJob(jobs, jobID, true)
	program := tea.NewProgram(model, tea.WithContext(ctx))

	observers = append(observers, programObserver{program: program})
	exec := executor.New(store, jobs).
		WithObserver(executor.Observers(observers...)).
		WithLogger(logger)

	type result struct {
		job *progress.ExecutionProgress
		err error
	}
	done := make(chan result, 1)
	go func() {
		job, err := exec.Execute(ctx, p, actor, jobID)
		if job == nil {
			program.Quit()
		} else {
			program.Send(tui.ReloadMsg{})
		}
		done <- result{job, err}
	}()

	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		fmt.Fprintf(os.Stderr, "Warning: progress view: %v\n", err)
	}
	r := <-done
	return r.job, r.err
}

func reportPlanRun(job *progress.ExecutionProgress, fp string, suggestions []string, execErr error) error {
	if outputFormat() != output.FormatJSON {
		if job != nil {
			output.JobDetail(os.Stdout, job)
		}
		return execErr
	}

	if job == nil {
		// Nothing was recorded; report the error through the regular path.
		return execErr
	}
	res := PlanResult{Job: job, Fingerprint: fp, Suggestions: nonNil(suggestions)}
	if execErr != nil {
		code, details := errorCode(execErr)
		res.Error = &output.ErrorResponse{Error: execErr.Error(), Code: code, Details: details}
	}
	if err := output.JSON(os.Stdout, res); err != nil {
		return err
	}
	if execErr != nil {
		return &clierr.SilentError{Code: 1}
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// consoleObserver prints one line per step as the plan runs.
type consoleObserver struct {
	w io.Writer
}

func (o *consoleObserver) OnJobStart(p *progress.ExecutionProgress) {
	fmt.Fprintf(o.w, "Running job %s (%d steps)\n", p.JobID, len(p.Steps))
}

func (o *consoleObserver) OnStepStart(index, total int, s plan.Step) {
	fmt.Fprintf(o.w, "[%d/%d] %s %s\n", index+1, total, s.Action(), stepLabel(s))
}

func (o *consoleObserver) OnStepComplete(_ int, _ plan.Step, taskID string) {
	fmt.Fprintf(o.w, "      ok %s\n", taskID)
}

func (o *consoleObserver) OnStepFailed(_ int, _ plan.Step, err error) {
	fmt.Fprintf(o.w, "      failed: %v\n", err)
}

func (o *consoleObserver) OnJobComplete(*progress.ExecutionProgress) {}

func (o *consoleObserver) OnJobFailed(*progress.ExecutionProgress, error) {}

// stepLabel describes the task a step acts on.
func stepLabel(s plan.Step) string {
	if c, ok := s.(plan.Create); ok {
		return fmt.Sprintf("%q", c.Task.Title)
	}
	return s.Ref()
}

// programObserver nudges the progress view after every state change.
type programObserver struct {
	program *tea.Program
}

func (o programObserver) OnJobStart(*progress.ExecutionProgress) { o.program.Send(tui.ReloadMsg{}) }
func (o programObserver) OnStepStart(int, int, plan.Step) {}
func (o programObserver) OnStepComplete(int, plan.Step, string) { o.program.Send(tui.ReloadMsg{}) }
func (o programObserver) OnStepFailed(int, plan.Step, error) { o.program.Send(tui.ReloadMsg{}) }
func (o programObserver) OnJobComplete(*progress.ExecutionProgress) { o.program.Send(tui.ReloadMsg{}) }
func (o programObserver) OnJobFailed(*progress.ExecutionProgress, error) { o.program.Send(tui.ReloadMsg{}) }
