package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/twiced-technology-gmbh/taskplan/internal/board"
	"github.com/twiced-technology-gmbh/taskplan/internal/date"
	"github.com/twiced-technology-gmbh/taskplan/internal/progress"
	"github.com/twiced-technology-gmbh/taskplan/internal/task"
)

// TaskCompact renders a list of tasks in one-line-per-record compact format.
func TaskCompact(w io.Writer, tasks []*task.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(os.Stderr, "No tasks found.")
		return
	}

	for _, t := range tasks {
		fmt.Fprintln(w, formatTaskLine(t))
	}
}

// TaskDetailCompact renders a single task with detail in compact format.
func TaskDetailCompact(w io.Writer, t *task.Task) {
	line := formatTaskLine(t)
	if t.Effort != "" {
		line += " effort:" + t.Effort
	}
	fmt.Fprintln(w, line)

	ts := "  created:" + t.Created.Format("2006-01-02") +
		" updated:" + t.Updated.Format("2006-01-02")
	if t.Started != nil {
		ts += " started:" + t.Started.Format("2006-01-02")
	}
	if t.Completed != nil {
		ts += " completed:" + t.Completed.Format("2006-01-02")
	}
	fmt.Fprintln(w, ts)

	if len(t.DependsOn) > 0 {
		fmt.Fprintln(w, "  depends-on:"+strings.Join(t.DependsOn, ","))
	}
	if len(t.Blocks) > 0 {
		fmt.Fprintln(w, "  blocks:"+strings.Join(t.Blocks, ","))
	}
	for _, st := range t.Subtasks {
		mark := "[ ]"
		if st.Completed {
			mark = "[x]"
		}
		fmt.Fprintln(w, "  "+mark+" "+st.Title)
	}
	if t.Body != "" {
		for _, bodyLine := range strings.Split(t.Body, "\n") {
			fmt.Fprintln(w, "  "+bodyLine)
		}
	}
}

// OverviewCompact renders a workspace summary in compact format.
func OverviewCompact(w io.Writer, s board.Overview) {
	fmt.Fprintf(w, "%s (%d tasks)\n", s.Name, s.TotalTasks)

	for _, ss := range s.Statuses {
		line := "  " + ss.Status + ": " + strconv.Itoa(ss.Count)
		var annotations []string
		if ss.Blocked > 0 {
			annotations = append(annotations, strconv.Itoa(ss.Blocked)+" blocked")
		}
		if ss.Overdue > 0 {
			annotations = append(annotations, strconv.Itoa(ss.Overdue)+" overdue")
		}
		if len(annotations) > 0 {
			line += " (" + strings.Join(annotations, ", ") + ")"
		}
		fmt.Fprintln(w, line)
	}

	if len(s.Priorities) > 0 {
		parts := make([]string, 0, len(s.Priorities))
		for _, pc := range s.Priorities {
			parts = append(parts, pc.Priority+"="+strconv.Itoa(pc.Count))
		}
		fmt.Fprintln(w, "Priority: "+strings.Join(parts, " "))
	}

	for _, dl := range s.Agenda {
		fmt.Fprintf(w, "%s: %d tasks, effort %d\n", dl.Date, dl.Tasks, dl.Effort)
	}
}

// JobCompact renders a job's progress in compact format.
func JobCompact(w io.Writer, p *progress.ExecutionProgress) {
	completed, _, _ := p.Counts()
	line := p.JobID + " [" + string(p.Status) + "] " +
		strconv.Itoa(completed) + "/" + strconv.Itoa(len(p.Steps))
	if p.Error != "" {
		line += " error:" + p.Error
	}
	fmt.Fprintln(w, line)
	for _, s := range p.Steps {
		step := "  " + strconv.Itoa(s.Index+1) + " " + s.Action + " [" + string(s.Status) + "]"
		if s.Ref != "" {
			step += " ref:" + s.Ref
		}
		if s.TaskID != "" {
			step += " task:" + s.TaskID
		}
		fmt.Fprintln(w, step)
	}
}

// JobListCompact renders jobs one per line.
func JobListCompact(w io.Writer, jobs []*progress.ExecutionProgress) {
	if len(jobs) == 0 {
		fmt.Fprintln(os.Stderr, "No jobs found.")
		return
	}
	for _, p := range jobs {
		completed, _, _ := p.Counts()
		fmt.Fprintf(w, "%s [%s] %d/%d %s\n",
			p.JobID, p.Status, completed, len(p.Steps), p.CreatedAt.Format("2006-01-02T15:04"))
	}
}

// CandidateCompact renders date mentions one per line.
func CandidateCompact(w io.Writer, candidates []date.Candidate) {
	for _, c := range candidates {
		line := c.OriginalText + " -> " + c.ISODate + " (" + c.SourceFormat
		if c.RolledToFuture {
			line += ", rolled"
		}
		fmt.Fprintln(w, line+")")
	}
}

// formatTaskLine builds the one-line representation of a task.
func formatTaskLine(t *task.Task) string {
	line := t.ID + " [" + t.Status + "/" + t.Priority + "] " + t.Title

	if t.Assignee != "" {
		line += " @" + t.Assignee
	}
	if t.Blocked {
		line += " (blocked)"
	}
	if t.PlannedDate != nil {
		line += " planned:" + t.PlannedDate.String()
	}
	if t.DueDate != nil {
		line += " due:" + t.DueDate.String()
	}

	return line
}
