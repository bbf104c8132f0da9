package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskplan/internal/clierr"
	"github.com/twiced-technology-gmbh/taskplan/internal/config"
	"github.com/twiced-technology-gmbh/taskplan/internal/date"
	"github.com/twiced-technology-gmbh/taskplan/internal/output"
)

var datesCmd = &cobra.Command{
	Use:   "dates TEXT",
	Short: "Resolve explicit dates mentioned in text",
	Long: `Finds ISO dates (2025-10-03) and day/month mentions (3/10, 03-10) in TEXT
and resolves them to calendar dates. Day/month mentions take the current
year; one that has already passed moves to next year, and to the following
Monday if that falls on a weekend.

The time zone defaults to the workspace setting, or UTC outside a workspace.`,
	Args: cobra.ExactArgs(1),
	RunE: runDates,
}

func init() {
	datesCmd.Flags().String("tz", "", "IANA time zone used to determine today")
	datesCmd.Flags().String("base", "", "reference day as YYYY-MM-DD (default: today)")
	rootCmd.AddCommand(datesCmd)
}

func runDates(cmd *cobra.Command, args []string) error {
	tz, _ := cmd.Flags().GetString("tz")
	if tz == "" {
		tz = workspaceTimeZone()
	}

	base := time.Now()
	if s, _ := cmd.Flags().GetString("base"); s != "" {
		d, err := date.Parse(s)
		if err != nil {
			return clierr.Newf(clierr.InvalidDate, "invalid --base %q: expected YYYY-MM-DD", s)
		}
		loc, err := date.LoadLocation(tz)
		if err != nil {
			return err
		}
		base = time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, loc) //nolint:mnd // midday avoids zone edge cases
	}

	candidates, err := date.ExtractExplicitDates(args[0], tz, base)
	if err != nil {
		return err
	}

	switch outputFormat() {
	case output.FormatJSON:
		if candidates == nil {
			candidates = []date.Candidate{}
		}
		return output.JSON(os.Stdout, candidates)
	case output.FormatCompact:
		output.CandidateCompact(os.Stdout, candidates)
	default:
		output.CandidateTable(os.Stdout, candidates)
	}
	return nil
}

// workspaceTimeZone returns the configured zone when run inside a workspace.
func workspaceTimeZone() string {
	dir, err := resolveDir()
	if err != nil {
		return ""
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return ""
	}
	return cfg.TimeZone
}
