package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"arkfeed.dev/arkfeed/internal/output"
	"arkfeed.dev/arkfeed/internal/runtime"
)

// globalFlags are shared by every command
type globalFlags struct {
	dir        string
	configPath string
	debug      bool
	quiet      bool
	noLogFile  bool
}

// NewRootCmd creates the root cobra command
func NewRootCmd(version, commit, date string) *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "arkfeed",
		Short: "arkfeed keeps a full-text RSS feed committed to a git repository",
		Long: `arkfeed regenerates a full-text RSS feed on a schedule and commits the
result to the repository it runs in, pushing only when something changed.`,
		SilenceUsage: true,
		Version:      fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
	}

	rootCmd.PersistentFlags().StringVarP(&flags.dir, "dir", "C", ".", "Run as if started in this directory")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Job definition file (default: <repo>/arkfeed.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Show debug output")
	rootCmd.PersistentFlags().BoolVarP(&flags.quiet, "quiet", "q", false, "Only show errors")
	rootCmd.PersistentFlags().BoolVar(&flags.noLogFile, "no-log-file", false, "Do not write the rotating log file")

	rootCmd.AddCommand(newRunCmd(flags))
	rootCmd.AddCommand(newScheduleCmd(flags))
	rootCmd.AddCommand(newGenerateCmd(flags))
	rootCmd.AddCommand(newHistoryCmd(flags))
	rootCmd.AddCommand(newInitCmd(flags))
	rootCmd.AddCommand(newDispatchCmd(flags))
	rootCmd.AddCommand(newVersionCmd(version, commit, date))

	return rootCmd
}

// newSplog creates the console + file logger for a command
func (f *globalFlags) newSplog(w io.Writer) (*output.Splog, error) {
	output.ConfigureColors(w)

	cfg := output.DefaultLogConfig()
	cfg.Debug = cfg.Debug || f.debug
	if f.noLogFile {
		cfg.File = ""
	}

	splog, err := output.NewSplogWithConfig(w, cfg)
	if err != nil {
		return nil, err
	}
	splog.SetQuiet(f.quiet)
	return splog, nil
}

// openContext loads the repository and job definition.
// The returned cleanup closes the log file.
func (f *globalFlags) openContext(cmd *cobra.Command) (*runtime.Context, func(), error) {
	splog, err := f.newSplog(cmd.OutOrStdout())
	if err != nil {
		return nil, nil, err
	}

	ctx, err := runtime.NewContext(runtime.Options{Dir: f.dir, ConfigPath: f.configPath}, splog)
	if err != nil {
		_ = splog.Close()
		return nil, nil, err
	}
	return ctx, func() { _ = splog.Close() }, nil
}

func newVersionCmd(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the arkfeed version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "arkfeed %s\ncommit: %s\nbuilt:  %s\n", version, commit, date)
		},
	}
}
