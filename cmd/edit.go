package cmd

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskplan/internal/activity"
	"github.com/twiced-technology-gmbh/taskplan/internal/board"
	"github.com/twiced-technology-gmbh/taskplan/internal/clierr"
	"github.com/twiced-technology-gmbh/taskplan/internal/config"
	"github.com/twiced-technology-gmbh/taskplan/internal/output"
	"github.com/twiced-technology-gmbh/taskplan/internal/task"
)

var editCmd = &cobra.Command{
	Use:   "edit ID[,ID,...]",
	Short: "Edit a task",
	Long: `Modifies fields of an existing task. Only specified fields are changed.
Multiple IDs can be provided as a comma-separated list.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	editCmd.Flags().String("title", "", "new title")
	editCmd.Flags().String("status", "", "new status")
	editCmd.Flags().String("priority", "", "new priority")
	editCmd.Flags().String("effort", "", "new effort category")
	editCmd.Flags().String("assignee", "", "new assignee")
	editCmd.Flags().String("planned", "", "new planned date (YYYY-MM-DD)")
	editCmd.Flags().Bool("clear-planned", false, "clear planned date")
	editCmd.Flags().String("due", "", "new due date (YYYY-MM-DD)")
	editCmd.Flags().Bool("clear-due", false, "clear due date")
	editCmd.Flags().String("body", "", "new body text (replaces entire body)")
	editCmd.Flags().StringP("append-body", "a", "", "append text to task body")
	editCmd.Flags().BoolP("timestamp", "t", false, "prefix a timestamp line when appending")
	editCmd.Flags().StringSlice("add-dep", nil, "add dependency task IDs")
	editCmd.Flags().StringSlice("remove-dep", nil, "remove dependency task IDs")
	editCmd.Flags().StringSlice("add-block", nil, "add IDs of tasks this task blocks")
	editCmd.Flags().StringSlice("remove-block", nil, "remove IDs of tasks this task blocks")
	editCmd.Flags().StringArray("add-subtask", nil, "append a subtask (repeatable)")
	editCmd.Flags().IntSlice("complete-subtask", nil, "mark subtasks complete by 1-based position")
	editCmd.Flags().Bool("block", false, "mark task as blocked")
	editCmd.Flags().Bool("unblock", false, "clear blocked state")
	editCmd.MarkFlagsMutuallyExclusive("planned", "clear-planned")
	editCmd.MarkFlagsMutuallyExclusive("due", "clear-due")
	editCmd.MarkFlagsMutuallyExclusive("body", "append-body")
	editCmd.MarkFlagsMutuallyExclusive("block", "unblock")
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	ids, err := board.ParseIDs(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if len(ids) == 1 {
		return editSingleTask(cfg, ids[0], cmd)
	}

	return runBatch(ids, func(id string) error {
		_, err := executeEdit(cfg, id, cmd)
		return err
	})
}

// editSingleTask handles a single task edit with full output.
func editSingleTask(cfg *config.Config, id string, cmd *cobra.Command) error {
	t, err := executeEdit(cfg, id, cmd)
	if err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, t)
	}

	output.Messagef(os.Stdout, "Updated task %s: %s", t.ID, t.Title)
	return nil
}

// executeEdit builds a patch from the flags against the current task and
// applies it through the store.
func executeEdit(cfg *config.Config, id string, cmd *cobra.Command) (*task.Task, error) {
	ctx := context.Background()
	store := task.NewFileStore(cfg)

	current, err := store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	p, err := buildPatch(cmd, current)
	if err != nil {
		return nil, err
	}
	if p.IsEmpty() {
		return nil, clierr.New(clierr.NoChanges, "no changes specified")
	}
	if p.DependsOn != nil || p.Blocks != nil {
		var deps, blocks []string
		if p.DependsOn != nil {
			deps = *p.DependsOn
		}
		if p.Blocks != nil {
			blocks = *p.Blocks
		}
		if err := validateRefs(cfg, id, deps, blocks); err != nil {
			return nil, err
		}
	}

	t, err := store.Update(ctx, id, p)
	if err != nil {
		return nil, err
	}

	logActivity(cfg, activity.ActionUpdate, actorFor(cfg), t.ID, editDetail(current, t))
	return t, nil
}

// buildPatch translates edit flags into a patch relative to current.
func buildPatch(cmd *cobra.Command, current *task.Task) (task.Patch, error) {
	var p task.Patch
	flags := cmd.Flags()

	for name, dst := range map[string]**string{
		"title":    &p.Title,
		"status":   &p.Status,
		"priority": &p.Priority,
		"effort":   &p.Effort,
		"assignee": &p.Assignee,
		"body":     &p.Description,
	} {
		if flags.Changed(name) {
			v, _ := flags.GetString(name)
			*dst = &v
		}
	}

	if v, _ := flags.GetString("append-body"); v != "" {
		ts, _ := flags.GetBool("timestamp")
		body := appendBody(current.Body, v, ts)
		p.Description = &body
	}

	var err error
	if p.PlannedDate, err = dateFlag(cmd, "planned"); err != nil {
		return p, err
	}
	if p.DueDate, err = dateFlag(cmd, "due"); err != nil {
		return p, err
	}
	p.ClearPlannedDate, _ = flags.GetBool("clear-planned")
	p.ClearDueDate, _ = flags.GetBool("clear-due")

	if flags.Changed("add-dep") || flags.Changed("remove-dep") {
		add, _ := flags.GetStringSlice("add-dep")
		remove, _ := flags.GetStringSlice("remove-dep")
		deps := removeAll(appendUnique(append([]string(nil), current.DependsOn...), add...), remove...)
		p.DependsOn = &deps
	}
	if flags.Changed("add-block") || flags.Changed("remove-block") {
		add, _ := flags.GetStringSlice("add-block")
		remove, _ := flags.GetStringSlice("remove-block")
		blocks := removeAll(appendUnique(append([]string(nil), current.Blocks...), add...), remove...)
		p.Blocks = &blocks
	}

	if flags.Changed("add-subtask") || flags.Changed("complete-subtask") {
		subtasks, err := editSubtasks(cmd, current.Subtasks)
		if err != nil {
			return p, err
		}
		p.Subtasks = &subtasks
	}

	if v, _ := flags.GetBool("block"); v {
		p.Blocked = &v
	}
	if v, _ := flags.GetBool("unblock"); v {
		blocked := false
		p.Blocked = &blocked
	}
	return p, nil
}

func editSubtasks(cmd *cobra.Command, existing []task.Subtask) ([]task.Subtask, error) {
	subtasks := append([]task.Subtask(nil), existing...)
	complete, _ := cmd.Flags().GetIntSlice("complete-subtask")
	for _, n := range complete {
		if n < 1 || n > len(subtasks) {
			return nil, clierr.Newf(clierr.InvalidInput, "subtask %d does not exist (task has %d)", n, len(subtasks)).
				WithDetails(map[string]any{"subtask": n})
		}
		subtasks[n-1].Completed = true
	}
	add, _ := cmd.Flags().GetStringArray("add-subtask")
	for _, title := range add {
		subtasks = append(subtasks, task.Subtask{Title: title})
	}
	return subtasks, nil
}

// editDetail summarizes notable changes for the activity journal.
func editDetail(before, after *task.Task) string {
	var parts []string
	if before.Status != after.Status {
		parts = append(parts, before.Status+" -> "+after.Status)
	}
	if before.Blocked != after.Blocked {
		if after.Blocked {
			parts = append(parts, "blocked")
		} else {
			parts = append(parts, "unblocked")
		}
	}
	if len(parts) == 0 {
		return after.Title
	}
	return after.Title + " (" + strings.Join(parts, ", ") + ")"
}

func appendUnique(slice []string, items ...string) []string {
	seen := make(map[string]bool, len(slice))
	for _, s := range slice {
		seen[s] = true
	}
	for _, item := range items {
		if !seen[item] {
			slice = append(slice, item)
			seen[item] = true
		}
	}
	return slice
}

func removeAll(slice []string, items ...string) []string {
	remove := make(map[string]bool, len(items))
	for _, item := range items {
		remove[item] = true
	}
	result := make([]string, 0, len(slice))
	for _, s := range slice {
		if !remove[s] {
			result = append(result, s)
		}
	}
	return result
}

// appendBody appends text to the existing body, optionally prefixed with a timestamp line.
func appendBody(existing, text string, addTimestamp bool) string {
	var b strings.Builder

	if existing != "" {
		b.WriteString(strings.TrimRight(existing, "\n"))
		b.WriteString("\n\n")
	}

	if addTimestamp {
		b.WriteString(time.Now().Format("[[2006-01-02]] Mon 15:04"))
		b.WriteByte('\n')
	}

	b.WriteString(text)

	return b.String()
}
