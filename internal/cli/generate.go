package cli

import (
	"errors"
	"path/filepath"

	"github.com/spf13/cobra"

	"arkfeed.dev/arkfeed/internal/config"
	arkerrors "arkfeed.dev/arkfeed/internal/errors"
	"arkfeed.dev/arkfeed/internal/feed"
	"arkfeed.dev/arkfeed/internal/output"
	"arkfeed.dev/arkfeed/internal/runtime"
)

// newGenerateCmd creates the generate command
func newGenerateCmd(flags *globalFlags) *cobra.Command {
	var (
		outPath     string
		source      string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Build the full-text feed without touching git",
		Long: `Fetch the source feed, scrape every article and write the full-text feed.

Works inside or outside a git repository; nothing is staged or committed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			splog, err := flags.newSplog(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer func() { _ = splog.Close() }()

			cfg, root, err := loadJobAnywhere(flags, splog)
			if err != nil {
				return err
			}

			feedCfg := cfg.Feed
			if source != "" {
				feedCfg.SourceURL = source
			}
			if concurrency > 0 {
				feedCfg.Concurrency = concurrency
			}

			path := outPath
			if path == "" {
				path = filepath.Join(root, cfg.OutputPath())
			}

			var opts []feed.GeneratorOption
			if !flags.quiet {
				opts = append(opts, feed.WithProgress(output.NewScrapeProgressUI(splog)))
			}
			_, err = feed.NewGenerator(feedCfg, splog, opts...).Run(cmd.Context(), path)
			return err
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output file (default: <output_dir>/<feed.output_file>)")
	cmd.Flags().StringVar(&source, "source", "", "Source feed URL")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Articles scraped in parallel")

	return cmd
}

// loadJobAnywhere loads the job from the enclosing repository, or from the
// target directory when it is not inside one.
func loadJobAnywhere(flags *globalFlags, splog *output.Splog) (*config.Job, string, error) {
	rc, err := runtime.NewContext(runtime.Options{Dir: flags.dir, ConfigPath: flags.configPath}, splog)
	if err == nil {
		return rc.Job, rc.RepoRoot, nil
	}
	if !errors.Is(err, arkerrors.ErrNotARepository) {
		return nil, "", err
	}

	root, err := filepath.Abs(flags.dir)
	if err != nil {
		return nil, "", err
	}
	var cfg *config.Job
	if flags.configPath != "" {
		cfg, err = config.LoadFile(flags.configPath)
	} else {
		cfg, err = config.Load(root)
	}
	return cfg, root, err
}
