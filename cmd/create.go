package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/twiced-technology-gmbh/taskplan/internal/activity"
	"github.com/twiced-technology-gmbh/taskplan/internal/clierr"
	"github.com/twiced-technology-gmbh/taskplan/internal/config"
	"github.com/twiced-technology-gmbh/taskplan/internal/date"
	"github.com/twiced-technology-gmbh/taskplan/internal/output"
	"github.com/twiced-technology-gmbh/taskplan/internal/task"
)

var createCmd = &cobra.Command{
	Use:     "create [TITLE]",
	Aliases: []string{"add"},
	Short:   "Create a new task",
	Long: `Creates a new task file with the given title and optional fields.

Title can be provided as a positional argument or via --title flag.
Body/description can be provided via --body or --description flag.
The task ID is a generated UUID unless --id is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().String("id", "", "explicit task ID (default: generated UUID)")
	createCmd.Flags().String("title", "", "task title (alternative to positional argument)")
	createCmd.Flags().String("status", "", "task status (default from config)")
	createCmd.Flags().String("priority", "", "task priority (default from config)")
	createCmd.Flags().String("effort", "", "effort category (default from config)")
	createCmd.Flags().String("assignee", "", "task assignee")
	createCmd.Flags().String("planned", "", "planned date (YYYY-MM-DD)")
	createCmd.Flags().String("due", "", "due date (YYYY-MM-DD)")
	createCmd.Flags().StringSlice("depends-on", nil, "dependency task IDs (comma-separated)")
	createCmd.Flags().StringSlice("blocks", nil, "IDs of tasks this task blocks (comma-separated)")
	createCmd.Flags().StringArray("subtask", nil, "add a subtask (repeatable)")
	createCmd.Flags().Bool("blocked", false, "mark the task as blocked")
	createCmd.Flags().String("body", "", "task body/description (markdown)")
	createCmd.Flags().SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		switch name {
		case "description":
			name = "body"
		case "dep":
			name = "depends-on"
		}
		return pflag.NormalizedName(name)
	})
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	title, err := resolveCreateTitle(cmd, args)
	if err != nil {
		return err
	}

	actor := actorFor(cfg)
	t := &task.Task{Title: title, CreatedBy: actor}
	if err := applyCreateFlags(cmd, t); err != nil {
		return err
	}
	if err := validateRefs(cfg, t.ID, t.DependsOn, t.Blocks); err != nil {
		return err
	}

	created, err := task.NewFileStore(cfg).Create(context.Background(), t)
	if err != nil {
		return err
	}

	logActivity(cfg, activity.ActionCreate, actor, created.ID, created.Title)

	return outputCreateResult(created)
}

func outputCreateResult(t *task.Task) error {
	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, t)
	}

	output.Messagef(os.Stdout, "Created task %s: %s", t.ID, t.Title)
	output.Messagef(os.Stdout, "  File: %s", t.File)
	output.Messagef(os.Stdout, "  Status: %s | Priority: %s | Effort: %s", t.Status, t.Priority, t.Effort)
	if t.PlannedDate != nil {
		output.Messagef(os.Stdout, "  Planned: %s", t.PlannedDate)
	}
	if t.Assignee != "" {
		output.Messagef(os.Stdout, "  Assignee: %s", t.Assignee)
	}
	return nil
}

// resolveCreateTitle returns the task title from either the positional arg or --title flag.
func resolveCreateTitle(cmd *cobra.Command, args []string) (string, error) {
	flagTitle, _ := cmd.Flags().GetString("title")
	hasPositional := len(args) > 0
	hasFlag := flagTitle != ""

	switch {
	case hasPositional && hasFlag:
		return "", clierr.New(clierr.InvalidInput,
			"title provided both as argument and --title flag; use one or the other")
	case hasPositional:
		return args[0], nil
	case hasFlag:
		return flagTitle, nil
	default:
		return "", clierr.New(clierr.InvalidInput,
			"title is required: provide it as an argument or with --title")
	}
}

// applyCreateFlags copies flag values onto t. Status, priority and effort
// are validated by the store.
func applyCreateFlags(cmd *cobra.Command, t *task.Task) error {
	if v, _ := cmd.Flags().GetString("id"); v != "" {
		if err := task.ValidateTaskID(v); err != nil {
			return err
		}
		t.ID = v
	}
	t.Status, _ = cmd.Flags().GetString("status")
	t.Priority, _ = cmd.Flags().GetString("priority")
	t.Effort, _ = cmd.Flags().GetString("effort")
	t.Assignee, _ = cmd.Flags().GetString("assignee")
	t.Blocked, _ = cmd.Flags().GetBool("blocked")
	t.Body, _ = cmd.Flags().GetString("body")

	var err error
	if t.PlannedDate, err = dateFlag(cmd, "planned"); err != nil {
		return err
	}
	if t.DueDate, err = dateFlag(cmd, "due"); err != nil {
		return err
	}
	t.DependsOn, _ = cmd.Flags().GetStringSlice("depends-on")
	t.Blocks, _ = cmd.Flags().GetStringSlice("blocks")
	subtasks, _ := cmd.Flags().GetStringArray("subtask")
	for _, st := range subtasks {
		t.Subtasks = append(t.Subtasks, task.Subtask{Title: st})
	}
	return nil
}

// dateFlag parses a YYYY-MM-DD flag. An unset flag yields nil.
func dateFlag(cmd *cobra.Command, name string) (*date.Date, error) {
	v, _ := cmd.Flags().GetString(name)
	if v == "" {
		return nil, nil //nolint:nilnil // unset flag
	}
	d, err := date.Parse(v)
	if err != nil {
		return nil, task.ValidateDate(name, v, err)
	}
	return &d, nil
}

// validateRefs checks that every referenced task exists and none refers to selfID.
func validateRefs(cfg *config.Config, selfID string, lists ...[]string) error {
	for _, ids := range lists {
		for _, id := range ids {
			if selfID != "" && id == selfID {
				return clierr.Newf(clierr.SelfReference, "task %s cannot reference itself", id).
					WithDetails(map[string]any{"id": id})
			}
			if _, err := task.FindByID(cfg.TasksPath(), id); err != nil {
				return err
			}
		}
	}
	return nil
}
