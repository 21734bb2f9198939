package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"arkfeed.dev/arkfeed/internal/job"
	"arkfeed.dev/arkfeed/internal/output"
)

// newRunCmd creates the run command
func newRunCmd(flags *globalFlags) *cobra.Command {
	var (
		noPush      bool
		showSteps   bool
		skipRuntime bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the job once: setup, generate, commit and push",
		Long: `Run the job once.

Setup steps run first, then the generate step. If the working tree changed,
exactly one commit is created with the bot identity and pushed. A run that
changes nothing succeeds without committing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rc, cleanup, err := flags.openContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if noPush {
				push := false
				rc.Job.Git.Push = &push
			}
			if skipRuntime {
				rc.Job.Runtime = nil
			}

			var opts []job.Option
			if showSteps {
				opts = append(opts, job.WithStepOutput(cmd.OutOrStdout()))
			}
			runner, locker, err := rc.NewJobRunner(opts...)
			if err != nil {
				return err
			}
			defer func() { _ = locker.Close() }()

			result, err := runner.Run(cmd.Context(), job.TriggerManual)
			printResult(cmd.OutOrStdout(), result, flags.quiet)
			return err
		},
	}

	cmd.Flags().BoolVar(&noPush, "no-push", false, "Commit without pushing")
	cmd.Flags().BoolVar(&showSteps, "show-steps", false, "Stream setup and generate output")
	cmd.Flags().BoolVar(&skipRuntime, "skip-runtime-check", false, "Do not verify the pinned runtime")

	return cmd
}

func printResult(w io.Writer, result *job.Result, quiet bool) {
	if result == nil || quiet {
		return
	}

	line := fmt.Sprintf("%s %s", output.ColorStatus(string(result.Status)), output.Dim(short(result.RunID)))
	switch result.Status {
	case job.StatusCommitted:
		line += fmt.Sprintf(" %s %s", short(result.CommitSHA), result.Message)
		if result.Pushed {
			line += " (pushed)"
		}
	case job.StatusUnchanged:
		if result.Pushed {
			line += " (pushed earlier commits)"
		}
	}
	_, _ = fmt.Fprintln(w, line)
}

func short(s string) string {
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
