package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskplan/internal/activity"
	"github.com/twiced-technology-gmbh/taskplan/internal/board"
	"github.com/twiced-technology-gmbh/taskplan/internal/clierr"
	"github.com/twiced-technology-gmbh/taskplan/internal/config"
	"github.com/twiced-technology-gmbh/taskplan/internal/output"
	"github.com/twiced-technology-gmbh/taskplan/internal/task"
)

var deleteCmd = &cobra.Command{
	Use:     "delete ID[,ID,...]",
	Aliases: []string{"rm"},
	Short:   "Delete a task",
	Long: `Removes a task file. Prompts for confirmation in interactive mode.
Multiple IDs can be provided as a comma-separated list (requires --yes).`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolP("yes", "y", false, "skip confirmation prompt")
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	ids, err := board.ParseIDs(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	yes, _ := cmd.Flags().GetBool("yes")

	if len(ids) > 1 && !yes {
		return clierr.New(clierr.ConfirmationReq, "batch delete requires --yes")
	}

	if len(ids) == 1 {
		return deleteSingleTask(cfg, ids[0], yes)
	}

	return runBatch(ids, func(id string) error {
		_, err := executeDelete(cfg, id)
		return err
	})
}

// deleteSingleTask handles a single task delete with confirmation and output.
func deleteSingleTask(cfg *config.Config, id string, yes bool) error {
	store := task.NewFileStore(cfg)
	t, err := store.Get(context.Background(), id)
	if err != nil {
		return err
	}

	if !yes {
		ok, err := confirm(fmt.Sprintf("Delete task %s %q?", t.ID, t.Title))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(os.Stderr, "Canceled.")
			return nil
		}
	}

	if _, err := executeDelete(cfg, id); err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{
			"status": "deleted",
			"id":     t.ID,
			"title":  t.Title,
		})
	}

	output.Messagef(os.Stdout, "Deleted task %s: %s", t.ID, t.Title)
	return nil
}

// executeDelete warns about dependents, removes the task, and journals it.
func executeDelete(cfg *config.Config, id string) (*task.Task, error) {
	ctx := context.Background()
	store := task.NewFileStore(cfg)

	t, err := store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	warnDependents(cfg.TasksPath(), t.ID)

	if err := store.Delete(ctx, id); err != nil {
		return nil, err
	}

	logActivity(cfg, activity.ActionDelete, actorFor(cfg), t.ID, t.Title)
	return t, nil
}

func warnDependents(tasksDir, id string) {
	for _, msg := range board.FindDependents(tasksDir, id) {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
	}
}
