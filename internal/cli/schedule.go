package cli

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"arkfeed.dev/arkfeed/internal/schedule"
	"arkfeed.dev/arkfeed/internal/server"
)

// newScheduleCmd creates the schedule command
func newScheduleCmd(flags *globalFlags) *cobra.Command {
	var (
		listen     string
		spec       string
		runOnStart bool
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the job on its cron schedule until interrupted",
		Long: `Run the job on its cron schedule until SIGINT or SIGTERM.

A run that is still in progress when the signal arrives is allowed to
finish. With --listen, an HTTP server exposes /healthz, /metrics,
POST /trigger and /runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rc, cleanup, err := flags.openContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if spec != "" {
				rc.Job.Schedule = spec
			}
			if cmd.Flags().Changed("run-on-start") {
				rc.Job.RunOnStart = runOnStart
			}

			runner, locker, err := rc.NewJobRunner()
			if err != nil {
				return err
			}
			defer func() { _ = locker.Close() }()

			scheduler, err := schedule.New(rc.Job.Schedule, runner.Run, rc.Splog, rc.Job.RunOnStart)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return scheduler.Start(gctx)
			})
			if listen != "" {
				handler := server.NewHandler(runner, rc.History, rc.Metrics.Handler(), rc.Splog)
				g.Go(func() error {
					return server.ListenAndServe(gctx, listen, handler, rc.Splog)
				})
			}
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Serve the HTTP API on this address (e.g. :8080)")
	cmd.Flags().StringVar(&spec, "schedule", "", "Cron expression overriding the job definition")
	cmd.Flags().BoolVar(&runOnStart, "run-on-start", false, "Run once immediately before waiting for the schedule")

	return cmd
}
