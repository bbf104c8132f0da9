package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskplan/internal/board"
	"github.com/twiced-technology-gmbh/taskplan/internal/output"
	"github.com/twiced-technology-gmbh/taskplan/internal/task"
)

var showCmd = &cobra.Command{
	Use:   "show ID[,ID,...]",
	Short: "Show task details",
	Long: `Displays the full details of one or more tasks, including the rendered
markdown description. With --dependents, tasks that depend on or are
blocked by each task are listed as well.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().Bool("dependents", false, "list tasks that reference this task")
	rootCmd.AddCommand(showCmd)
}

// taskWithDependents is the JSON shape of show --dependents.
type taskWithDependents struct {
	*task.Task
	Dependents []string `json:"dependents"`
}

func runShow(cmd *cobra.Command, args []string) error {
	ids, err := board.ParseIDs(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	withDependents, _ := cmd.Flags().GetBool("dependents")

	store := task.NewFileStore(cfg)
	tasks := make([]*task.Task, 0, len(ids))
	for _, id := range ids {
		t, err := store.Get(context.Background(), id)
		if err != nil {
			return err
		}
		tasks = append(tasks, t)
	}

	dependents := func(t *task.Task) []string {
		if !withDependents {
			return nil
		}
		msgs := board.FindDependents(cfg.TasksPath(), t.ID)
		if msgs == nil {
			msgs = []string{}
		}
		return msgs
	}

	switch outputFormat() {
	case output.FormatJSON:
		out := make([]any, len(tasks))
		for i, t := range tasks {
			if withDependents {
				out[i] = taskWithDependents{Task: t, Dependents: dependents(t)}
			} else {
				out[i] = t
			}
		}
		if len(out) == 1 {
			return output.JSON(os.Stdout, out[0])
		}
		return output.JSON(os.Stdout, out)

	case output.FormatCompact:
		for _, t := range tasks {
			output.TaskDetailCompact(os.Stdout, t)
			for _, msg := range dependents(t) {
				fmt.Fprintln(os.Stdout, "  dependent: "+msg)
			}
		}

	default:
		for i, t := range tasks {
			if i > 0 {
				fmt.Fprintln(os.Stdout)
			}
			output.TaskDetail(os.Stdout, t)
			if deps := dependents(t); len(deps) > 0 {
				fmt.Fprintln(os.Stdout)
				output.Messagef(os.Stdout, "Referenced by:")
				for _, msg := range deps {
					fmt.Fprintln(os.Stdout, "  "+msg)
				}
			}
		}
	}
	return nil
}
