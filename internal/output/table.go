package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/twiced-technology-gmbh/taskplan/internal/board"
	"github.com/twiced-technology-gmbh/taskplan/internal/date"
	"github.com/twiced-technology-gmbh/taskplan/internal/progress"
	"github.com/twiced-technology-gmbh/taskplan/internal/task"
)

const markdownWidth = 80

var (
	colorEnabled = true

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("244"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	statusStyles = map[string]lipgloss.Style{
		"pending":     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		"in_progress": lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		"completed":   lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
	}

	priorityStyles = map[string]lipgloss.Style{
		"high":   lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		"medium": lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
		"low":    lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
	}

	// Job and step states share one palette.
	stepStyles = map[string]lipgloss.Style{
		"pending":   lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
		"running":   lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		"completed": lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
		"error":     lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
)

// TaskTable renders a list of tasks as a formatted table.
func TaskTable(w io.Writer, tasks []*task.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(os.Stderr, "No tasks found.")
		return
	}

	const pad = 2
	idW, statusW, prioW, effortW, titleW, dateW := 4, 8, 10, 8, 5, 12
	for _, t := range tasks {
		idW = max(idW, len(t.ID)+pad)
		statusW = max(statusW, len(t.Status)+pad)
		prioW = max(prioW, len(t.Priority)+pad)
		effortW = max(effortW, len(t.Effort)+pad)
		titleW = max(titleW, min(len(t.Title)+pad, 50)) //nolint:mnd // max title column width
	}

	header := fmt.Sprintf("%-*s %-*s %-*s %-*s %-*s %-*s %-*s",
		idW, "ID", statusW, "STATUS", prioW, "PRIORITY", effortW, "EFFORT",
		titleW, "TITLE", dateW, "PLANNED", dateW, "DUE")
	fmt.Fprintln(w, headerStyle.Render(strings.TrimRight(header, " ")))

	for _, t := range tasks {
		title := t.Title
		const maxTitle = 48
		if len(title) > maxTitle {
			title = title[:maxTitle-3] + "..."
		}
		if t.Blocked {
			title = errorStyle.Render("⊘ ") + title
		}

		row := fmt.Sprintf("%-*s %s %s %s %s %s %s",
			idW, t.ID,
			padRight(styledValue(t.Status, statusStyles), statusW),
			padRight(styledValue(t.Priority, priorityStyles), prioW),
			padRight(stringOrDash(t.Effort), effortW),
			padRight(title, titleW),
			padRight(dateOrDash(t.PlannedDate), dateW),
			dateOrDash(t.DueDate))
		fmt.Fprintln(w, strings.TrimRight(row, " "))
	}
}

// TaskDetail renders a single task with full detail. The description is
// rendered as markdown.
func TaskDetail(w io.Writer, t *task.Task) {
	titleLine := fmt.Sprintf("Task %s: %s", t.ID, t.Title)
	fmt.Fprintln(w, lipgloss.NewStyle().Bold(true).Render(titleLine))
	fmt.Fprintln(w, strings.Repeat("─", lipgloss.Width(titleLine)))

	printField(w, "Status", styledValue(t.Status, statusStyles))
	printField(w, "Priority", styledValue(t.Priority, priorityStyles))
	printField(w, "Effort", stringOrDash(t.Effort))
	printField(w, "Assignee", stringOrDash(t.Assignee))
	printField(w, "Planned", dateOrDash(t.PlannedDate))
	printField(w, "Due", dateOrDash(t.DueDate))
	if t.Blocked {
		printField(w, "Blocked", errorStyle.Render("yes"))
	}
	if len(t.DependsOn) > 0 {
		printField(w, "Depends on", strings.Join(t.DependsOn, ", "))
	}
	if len(t.Blocks) > 0 {
		printField(w, "Blocks", strings.Join(t.Blocks, ", "))
	}
	printField(w, "Created by", stringOrDash(t.CreatedBy))
	printField(w, "Created", t.Created.Format("2006-01-02 15:04"))
	printField(w, "Updated", t.Updated.Format("2006-01-02 15:04"))
	if t.Started != nil {
		printField(w, "Started", t.Started.Format("2006-01-02 15:04"))
	}
	if t.Completed != nil {
		printField(w, "Completed", t.Completed.Format("2006-01-02 15:04"))
		printField(w, "Lead time", FormatDuration(t.Completed.Sub(t.Created)))
		if t.Started != nil {
			printField(w, "Cycle time", FormatDuration(t.Completed.Sub(*t.Started)))
		}
	}

	if len(t.Subtasks) > 0 {
		fmt.Fprintln(w)
		for _, st := range t.Subtasks {
			mark := "[ ]"
			if st.Completed {
				mark = "[x]"
			}
			fmt.Fprintf(w, "  %s %s\n", mark, st.Title)
		}
	}

	if t.Body != "" {
		fmt.Fprintln(w)
		fmt.Fprint(w, RenderMarkdown(t.Body))
	}
}

// RenderMarkdown renders md for the terminal. When color is disabled or
// rendering fails, md is returned unchanged with a trailing newline.
func RenderMarkdown(md string) string {
	plain := strings.TrimRight(md, "\n") + "\n"
	if !colorEnabled {
		return plain
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(markdownWidth),
	)
	if err != nil {
		return plain
	}
	out, err := r.Render(md)
	if err != nil {
		return plain
	}
	return out
}

// OverviewTable renders a workspace summary as a formatted dashboard.
func OverviewTable(w io.Writer, s board.Overview) {
	fmt.Fprintln(w, lipgloss.NewStyle().Bold(true).Render(s.Name))
	fmt.Fprintf(w, "Total: %d tasks\n\n", s.TotalTasks)

	header := fmt.Sprintf("%-16s %6s %8s %8s", "STATUS", "COUNT", "BLOCKED", "OVERDUE")
	fmt.Fprintln(w, headerStyle.Render(header))

	const statusColW = 16
	for _, ss := range s.Statuses {
		fmt.Fprintf(w, "%s %6d %8d %8d\n",
			padRight(styledValue(ss.Status, statusStyles), statusColW),
			ss.Count, ss.Blocked, ss.Overdue)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-16s %6s", "PRIORITY", "COUNT")))
	for _, pc := range s.Priorities {
		fmt.Fprintf(w, "%s %6d\n",
			padRight(styledValue(pc.Priority, priorityStyles), statusColW), pc.Count)
	}

	if len(s.Agenda) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-16s %6s %8s", "PLANNED", "TASKS", "EFFORT")))
		for _, dl := range s.Agenda {
			fmt.Fprintf(w, "%-16s %6d %8d\n", dl.Date, dl.Tasks, dl.Effort)
		}
	}
}

// JobDetail renders a job's progress with one line per step.
func JobDetail(w io.Writer, p *progress.ExecutionProgress) {
	completed, failed, pending := p.Counts()
	titleLine := "Job " + p.JobID
	fmt.Fprintln(w, lipgloss.NewStyle().Bold(true).Render(titleLine))
	fmt.Fprintln(w, strings.Repeat("─", lipgloss.Width(titleLine)))

	printField(w, "Status", styledValue(string(p.Status), stepStyles))
	printField(w, "Actor", stringOrDash(p.Actor))
	printField(w, "Steps", fmt.Sprintf("%d completed, %d failed, %d pending", completed, failed, pending))
	printField(w, "Created", p.CreatedAt.Format("2006-01-02 15:04:05"))
	if p.FinishedAt != nil {
		printField(w, "Finished", p.FinishedAt.Format("2006-01-02 15:04:05"))
		printField(w, "Duration", FormatDuration(p.FinishedAt.Sub(p.CreatedAt)))
	}
	if p.Error != "" {
		printField(w, "Error", errorStyle.Render(p.Error))
	}

	fmt.Fprintln(w)
	header := fmt.Sprintf("%-4s %-8s %-10s %-20s %s", "#", "ACTION", "STATUS", "REF", "TASK")
	fmt.Fprintln(w, headerStyle.Render(header))
	for _, s := range p.Steps {
		row := fmt.Sprintf("%-4d %-8s %s %-20s %s",
			s.Index+1, s.Action,
			padRight(styledValue(string(s.Status), stepStyles), 10), //nolint:mnd // column width
			stringOrDash(s.Ref), stringOrDash(s.TaskID))
		fmt.Fprintln(w, strings.TrimRight(row, " "))
		if s.Error != "" {
			fmt.Fprintln(w, "     "+errorStyle.Render(s.Error))
		}
	}
}

// JobTable renders a list of jobs.
func JobTable(w io.Writer, jobs []*progress.ExecutionProgress) {
	if len(jobs) == 0 {
		fmt.Fprintln(os.Stderr, "No jobs found.")
		return
	}

	idW := 6
	for _, p := range jobs {
		idW = max(idW, len(p.JobID)+2) //nolint:mnd // column padding
	}
	header := fmt.Sprintf("%-*s %-10s %-8s %-16s %s", idW, "JOB", "STATUS", "STEPS", "CREATED", "ACTOR")
	fmt.Fprintln(w, headerStyle.Render(header))
	for _, p := range jobs {
		completed, _, _ := p.Counts()
		steps := strconv.Itoa(completed) + "/" + strconv.Itoa(len(p.Steps))
		row := fmt.Sprintf("%-*s %s %-8s %-16s %s",
			idW, p.JobID,
			padRight(styledValue(string(p.Status), stepStyles), 10), //nolint:mnd // column width
			steps, p.CreatedAt.Format("2006-01-02 15:04"), stringOrDash(p.Actor))
		fmt.Fprintln(w, strings.TrimRight(row, " "))
	}
}

// CandidateTable renders resolved date mentions.
func CandidateTable(w io.Writer, candidates []date.Candidate) {
	if len(candidates) == 0 {
		fmt.Fprintln(os.Stderr, "No dates found.")
		return
	}
	header := fmt.Sprintf("%-14s %-12s %-18s %s", "TEXT", "DATE", "FORMAT", "ROLLED")
	fmt.Fprintln(w, headerStyle.Render(header))
	for _, c := range candidates {
		rolled := dimStyle.Render("--")
		if c.RolledToFuture {
			rolled = "yes"
		}
		fmt.Fprintf(w, "%-14s %-12s %-18s %s\n", c.OriginalText, c.ISODate, c.SourceFormat, rolled)
	}
}

// Messagef prints a simple formatted message line.
func Messagef(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format+"\n", args...)
}

func printField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %-12s %s\n", label+":", value)
}

// FormatDuration renders a duration as human-readable "Xd Yh", "Xh Ym" or "Xs".
func FormatDuration(d time.Duration) string {
	const hoursPerDay = 24
	if d < time.Minute {
		return strconv.Itoa(int(d.Seconds())) + "s"
	}
	days := int(d.Hours()) / hoursPerDay
	hours := int(d.Hours()) % hoursPerDay
	if days > 0 {
		return strconv.Itoa(days) + "d " + strconv.Itoa(hours) + "h"
	}
	minutes := int(d.Minutes()) % 60 //nolint:mnd // 60 minutes per hour
	return strconv.Itoa(hours) + "h " + strconv.Itoa(minutes) + "m"
}

// padRight pads s with spaces to the given visible width, accounting for ANSI
// escape codes that are invisible but consume bytes.
func padRight(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func stringOrDash(s string) string {
	if s == "" {
		return dimStyle.Render("--")
	}
	return s
}

func dateOrDash(d *date.Date) string {
	if d == nil {
		return dimStyle.Render("--")
	}
	return d.String()
}

// styledValue renders s using a matching style from the map, or returns s unchanged.
func styledValue(s string, styles map[string]lipgloss.Style) string {
	if st, ok := styles[s]; ok {
		return st.Render(s)
	}
	return s
}
