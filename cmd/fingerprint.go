package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskplan/internal/clierr"
	"github.com/twiced-technology-gmbh/taskplan/internal/fingerprint"
	"github.com/twiced-technology-gmbh/taskplan/internal/output"
	"github.com/twiced-technology-gmbh/taskplan/internal/task"
)

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint [PROMPT]",
	Short: "Compute the fingerprint of a request against the current tasks",
	Long: `Prints the SHA-256 fingerprint identifying a request together with the
current state of the workspace tasks, and whether a job already ran for it.
The prompt is taken from the argument, or --prompt.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFingerprint,
}

func init() {
	fingerprintCmd.Flags().String("prompt", "", "the request text")
	rootCmd.AddCommand(fingerprintCmd)
}

// fingerprintResult is the JSON shape of the fingerprint command.
type fingerprintResult struct {
	Fingerprint string `json:"fingerprint"`
	Tasks       int    `json:"tasks"`
	Executed    bool   `json:"executed"`
	JobID       string `json:"jobId,omitempty"`
}

func runFingerprint(cmd *cobra.Command, args []string) error {
	prompt, _ := cmd.Flags().GetString("prompt")
	if len(args) == 1 {
		if prompt != "" {
			return clierr.New(clierr.InvalidInput, "give the prompt either as argument or with --prompt")
		}
		prompt = args[0]
	}
	if strings.TrimSpace(prompt) == "" {
		return clierr.New(clierr.InvalidInput, "prompt is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tasks, err := task.NewFileStore(cfg).List(context.Background())
	if err != nil {
		return err
	}

	fp := fingerprint.Fingerprint(prompt, fingerprint.FromTasks(tasks))
	entry, found, err := fingerprint.NewCache(cfg.Dir()).Lookup(fp)
	if err != nil {
		return err
	}

	res := fingerprintResult{Fingerprint: fp, Tasks: len(tasks), Executed: found, JobID: entry.JobID}
	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(os.Stdout, res)
	case output.FormatCompact:
		fmt.Fprintln(os.Stdout, fp)
	default:
		fmt.Fprintln(os.Stdout, fp)
		if found {
			fmt.Fprintf(os.Stderr, "Already executed as job %s on %s\n",
				entry.JobID, entry.CreatedAt.Local().Format("2006-01-02 15:04"))
		}
	}
	return nil
}
