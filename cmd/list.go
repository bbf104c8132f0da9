package cmd

import (
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskplan/internal/board"
	"github.com/twiced-technology-gmbh/taskplan/internal/clierr"
	"github.com/twiced-technology-gmbh/taskplan/internal/output"
	"github.com/twiced-technology-gmbh/taskplan/internal/task"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	Long:    `Lists tasks with optional filtering, sorting, and output format control.`,
	RunE:    runList,
}

func init() {
	listCmd.Flags().StringSlice("status", nil, "filter by status (comma-separated)")
	listCmd.Flags().StringSlice("priority", nil, "filter by priority (comma-separated)")
	listCmd.Flags().StringSlice("effort", nil, "filter by effort (comma-separated)")
	listCmd.Flags().String("assignee", "", "filter by assignee")
	listCmd.Flags().String("created-by", "", "filter by the actor that created the task")
	listCmd.Flags().String("from", "", "only tasks planned on or after this date (YYYY-MM-DD)")
	listCmd.Flags().String("to", "", "only tasks planned on or before this date (YYYY-MM-DD)")
	listCmd.Flags().String("sort", "planned", "sort field ("+strings.Join(board.SortFields, ", ")+")")
	listCmd.Flags().BoolP("reverse", "r", false, "reverse sort order")
	listCmd.Flags().IntP("limit", "n", 0, "limit number of results")
	listCmd.Flags().Bool("blocked", false, "show only blocked tasks")
	listCmd.Flags().Bool("not-blocked", false, "show only non-blocked tasks")
	listCmd.Flags().Bool("unblocked", false, "show only tasks that are not blocked and whose dependencies are finished")
	listCmd.Flags().StringP("search", "s", "", "search tasks by title, body, or subtasks (case-insensitive)")
	listCmd.Flags().Bool("open", false, "hide tasks in the final status")
	listCmd.MarkFlagsMutuallyExclusive("blocked", "not-blocked")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sortBy, _ := cmd.Flags().GetString("sort")
	if !slices.Contains(board.SortFields, sortBy) {
		return clierr.Newf(clierr.InvalidInput, "invalid --sort field %q; valid: %s",
			sortBy, strings.Join(board.SortFields, ", "))
	}

	filter := board.FilterOptions{}
	filter.Statuses, _ = cmd.Flags().GetStringSlice("status")
	filter.Priorities, _ = cmd.Flags().GetStringSlice("priority")
	filter.Efforts, _ = cmd.Flags().GetStringSlice("effort")
	filter.Assignee, _ = cmd.Flags().GetString("assignee")
	filter.CreatedBy, _ = cmd.Flags().GetString("created-by")
	filter.Search, _ = cmd.Flags().GetString("search")
	if filter.PlannedFrom, err = dateFlag(cmd, "from"); err != nil {
		return err
	}
	if filter.PlannedTo, err = dateFlag(cmd, "to"); err != nil {
		return err
	}

	if open, _ := cmd.Flags().GetBool("open"); open && len(cfg.Statuses) > 0 {
		filter.ExcludeStatuses = []string{cfg.Statuses[len(cfg.Statuses)-1]}
	}

	if blocked, _ := cmd.Flags().GetBool("blocked"); blocked {
		v := true
		filter.Blocked = &v
	} else if notBlocked, _ := cmd.Flags().GetBool("not-blocked"); notBlocked {
		v := false
		filter.Blocked = &v
	}

	opts := board.ListOptions{Filter: filter, SortBy: sortBy}
	opts.Reverse, _ = cmd.Flags().GetBool("reverse")
	opts.Limit, _ = cmd.Flags().GetInt("limit")
	opts.Unblocked, _ = cmd.Flags().GetBool("unblocked")

	tasks, warnings, err := board.List(cfg, opts)
	if err != nil {
		return err
	}
	printWarnings(warnings)

	return outputTaskList(tasks)
}

func outputTaskList(tasks []*task.Task) error {
	format := outputFormat()
	if format == output.FormatJSON {
		if tasks == nil {
			tasks = []*task.Task{}
		}
		return output.JSON(os.Stdout, tasks)
	}
	if format == output.FormatCompact {
		output.TaskCompact(os.Stdout, tasks)
		return nil
	}

	output.TaskTable(os.Stdout, tasks)
	return nil
}
