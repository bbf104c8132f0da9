// Package tui implements a live terminal view of a plan execution job.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	bar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/twiced-technology-gmbh/taskplan/internal/progress"
)

// Layout constants.
const (
	barWidth    = 40
	maxBarWidth = 80
	loadTimeout = 2 * time.Second
)

// JobSource loads a job's progress record.
type JobSource interface {
	Get(ctx context.Context, jobID string) (*progress.ExecutionProgress, error)
}

// ReloadMsg is sent by the file watcher to trigger a refresh.
type ReloadMsg struct{}

type loadedMsg struct {
	job *progress.ExecutionProgress
	err error
}

type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// Job is the bubbletea model following one job.
type Job struct {
	source JobSource
	jobID  string
	job    *progress.ExecutionProgress
	err    error

	spinner spinner.Model
	bar     bar.Model
	width   int

	exitOnFinish bool
}

// NewJob creates a model for jobID. With exitOnFinish the program quits once
// the job reaches a final state.
func NewJob(source JobSource, jobID string, exitOnFinish bool) *Job {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = runningStyle
	return &Job{
		source:       source,
		jobID:        jobID,
		spinner:      sp,
		bar:          bar.New(bar.WithDefaultGradient(), bar.WithWidth(barWidth)),
		exitOnFinish: exitOnFinish,
	}
}

// Init implements tea.Model.
func (m *Job) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load())
}

// Update implements tea.Model.
func (m *Job) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			return m, tea.Quit
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(max(msg.Width-4, 10), maxBarWidth) //nolint:mnd // margins and minimum width
		return m, nil
	case ReloadMsg:
		return m, m.load()
	case loadedMsg:
		m.err = msg.err
		if msg.err != nil {
			return m, nil
		}
		m.job = msg.job
		cmd := m.bar.SetPercent(m.percent())
		if m.exitOnFinish && m.job.Finished() {
			return m, tea.Sequence(cmd, tea.Quit)
		}
		return m, cmd
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case bar.FrameMsg:
		model, cmd := m.bar.Update(msg)
		if b, ok := model.(bar.Model); ok {
			m.bar = b
		}
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Job) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Job " + m.jobID))
	b.WriteString("\n\n")

	if m.job == nil {
		if m.err != nil {
			b.WriteString(errorStyle.Render(m.err.Error()))
		} else {
			b.WriteString(m.spinner.View() + " loading...")
		}
		b.WriteString("\n\n" + m.help())
		return b.String()
	}

	completed, failed, _ := m.job.Counts()
	fmt.Fprintf(&b, "%s  %s  %d/%d steps\n",
		m.statusLabel(), m.bar.View(), completed+failed, len(m.job.Steps))
	b.WriteString("\n")

	current := m.currentStep()
	for _, s := range m.job.Steps {
		b.WriteString(m.renderStep(s, s.Index == current))
		b.WriteString("\n")
	}

	if m.job.Error != "" {
		b.WriteString("\n" + errorStyle.Render(m.job.Error) + "\n")
	}
	if m.err != nil {
		b.WriteString("\n" + dimStyle.Render("refresh failed: "+m.err.Error()) + "\n")
	}
	b.WriteString("\n" + m.help())
	return b.String()
}

func (m *Job) load() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		job, err := m.source.Get(ctx, m.jobID)
		return loadedMsg{job: job, err: err}
	}
}

func (m *Job) percent() float64 {
	if m.job == nil || len(m.job.Steps) == 0 {
		return 0
	}
	completed, failed, _ := m.job.Counts()
	return float64(completed+failed) / float64(len(m.job.Steps))
}

// currentStep returns the index of the step being executed, or -1.
func (m *Job) currentStep() int {
	if m.job == nil || m.job.Status != progress.JobRunning {
		return -1
	}
	for _, s := range m.job.Steps {
		if s.Status == progress.StepPending {
			return s.Index
		}
	}
	return -1
}

func (m *Job) statusLabel() string {
	switch m.job.Status {
	case progress.JobCompleted:
		return completedStyle.Render("✓ completed")
	case progress.JobError:
		return errorStyle.Render("✗ failed")
	default:
		return m.spinner.View() + runningStyle.Render(" running")
	}
}

func (m *Job) renderStep(s progress.StepProgress, current bool) string {
	var icon string
	switch {
	case s.Status == progress.StepCompleted:
		icon = completedStyle.Render("✓")
	case s.Status == progress.StepError:
		icon = errorStyle.Render("✗")
	case current:
		icon = m.spinner.View()
	default:
		icon = dimStyle.Render("·")
	}

	line := fmt.Sprintf("%s %2d  %-7s", icon, s.Index+1, s.Action)
	if s.Ref != "" {
		line += " " + s.Ref
	}
	if s.TaskID != "" && s.TaskID != s.Ref {
		line += dimStyle.Render(" → " + s.TaskID)
	}
	if s.Error != "" {
		line += "\n      " + errorStyle.Render(s.Error)
	}
	if s.Status == progress.StepPending && !current {
		return dimStyle.Render(line)
	}
	return line
}

func (m *Job) help() string {
	h := keys.Quit.Help()
	return helpStyle.Render(h.Key + " " + h.Desc)
}

// --- Styles ---

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	runningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	completedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("34")).Bold(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)
