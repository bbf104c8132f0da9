package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/twiced-technology-gmbh/taskplan/internal/config"
	"github.com/twiced-technology-gmbh/taskplan/internal/date"
	"github.com/twiced-technology-gmbh/taskplan/internal/progress"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name  string
		flags [3]bool // json, table, compact
		env   string
		want  Format
	}{
		{"default", [3]bool{}, "", FormatTable},
		{"json flag", [3]bool{true, false, true}, "", FormatJSON},
		{"compact flag", [3]bool{false, true, true}, "", FormatCompact},
		{"env json", [3]bool{}, "json", FormatJSON},
		{"env oneline", [3]bool{}, "oneline", FormatCompact},
		{"flag beats env", [3]bool{false, true, false}, "json", FormatTable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(config.EnvOutput, tt.env)
			if got := Detect(tt.flags[0], tt.flags[1], tt.flags[2]); got != tt.want {
				t.Errorf("Detect = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{42 * time.Second, "42s"},
		{90 * time.Minute, "1h 30m"},
		{50 * time.Hour, "2d 2h"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func failedJob() *progress.ExecutionProgress {
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	p := progress.New("job-1", "ana", []progress.StepInfo{
		{Action: "create", Ref: "temp-0"},
		{Action: "update", Ref: "missing"},
		{Action: "delete", Ref: "t9"},
	}, now)
	_ = p.MarkCompleted(0, "t1", now)
	_ = p.MarkFailed(1, "task missing not found", now.Add(time.Second))
	return p
}

func TestJobCompact(t *testing.T) {
	var buf bytes.Buffer
	JobCompact(&buf, failedJob())

	want := []string{
		"job-1 [error] 1/3 error:task missing not found",
		"  1 create [completed] ref:temp-0 task:t1",
		"  2 update [error] ref:missing",
		"  3 delete [pending] ref:t9",
	}
	got := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(got) != len(want) {
		t.Fatalf("got:\n%s", buf.String())
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestJobDetail_ShowsStepError(t *testing.T) {
	DisableColor()
	var buf bytes.Buffer
	JobDetail(&buf, failedJob())
	out := buf.String()
	for _, s := range []string{"Job job-1", "1 completed, 1 failed, 1 pending", "task missing not found"} {
		if !strings.Contains(out, s) {
			t.Errorf("output missing %q:\n%s", s, out)
		}
	}
}

func TestCandidateCompact(t *testing.T) {
	var buf bytes.Buffer
	CandidateCompact(&buf, []date.Candidate{
		{OriginalText: "3/10", ISODate: "2025-10-03", SourceFormat: "day_month"},
		{OriginalText: "1/2", ISODate: "2026-02-02", SourceFormat: "day_month", RolledToFuture: true},
	})
	want := "3/10 -> 2025-10-03 (day_month)\n1/2 -> 2026-02-02 (day_month, rolled)\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}
