package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"arkfeed.dev/arkfeed/internal/config"
	arkerrors "arkfeed.dev/arkfeed/internal/errors"
	"arkfeed.dev/arkfeed/internal/git"
	"arkfeed.dev/arkfeed/internal/output"
	"arkfeed.dev/arkfeed/internal/schedule"
)

type initOptions struct {
	generateCommand string
	schedule        string
	sourceURL       string
	force           bool
	noInteractive   bool
}

// newInitCmd creates the init command
func newInitCmd(flags *globalFlags) *cobra.Command {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write an arkfeed.yaml job definition",
		Long: `Write an arkfeed.yaml job definition at the repository root.

Prompts for the schedule and generate command when run in a terminal.
Leave the generate command empty to use the built-in feed generator.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := initRoot(flags.dir)
			if err != nil {
				return err
			}
			path := config.Path(root)
			if flags.configPath != "" {
				path = flags.configPath
			}

			if _, err := os.Stat(path); err == nil && !opts.force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			interactive := !opts.noInteractive && output.IsTerminal(os.Stdin)
			if interactive {
				if err := promptInit(opts); err != nil {
					return err
				}
			}

			cfg, err := buildJob(opts)
			if err != nil {
				return err
			}
			if err := cfg.Save(path); err != nil {
				return err
			}

			if !flags.quiet {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.generateCommand, "generate-command", "", "External generate command (empty for the built-in generator)")
	cmd.Flags().StringVar(&opts.schedule, "schedule", "", "Cron expression (default: every 30 minutes)")
	cmd.Flags().StringVar(&opts.sourceURL, "source", "", "Source feed URL for the built-in generator")
	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "Overwrite an existing job definition")
	cmd.Flags().BoolVar(&opts.noInteractive, "no-interactive", false, "Do not prompt")

	return cmd
}

// initRoot returns the repository root containing dir, or dir itself outside a repository
func initRoot(dir string) (string, error) {
	repo, err := git.OpenRepository(dir)
	if err == nil {
		return repo.Root(), nil
	}
	if errors.Is(err, arkerrors.ErrNotARepository) {
		return filepath.Abs(dir)
	}
	return "", err
}

func promptInit(opts *initOptions) error {
	defaults := config.Default()
	if opts.schedule == "" {
		opts.schedule = defaults.Schedule
	}

	questions := []*survey.Question{
		{
			Name: "schedule",
			Prompt: &survey.Input{
				Message: "Cron schedule",
				Default: opts.schedule,
			},
			Validate: func(ans interface{}) error {
				s, _ := ans.(string)
				return schedule.Validate(s)
			},
		},
		{
			Name: "generateCommand",
			Prompt: &survey.Input{
				Message: "Generate command",
				Default: opts.generateCommand,
				Help:    "Leave empty to use the built-in full-text feed generator",
			},
		},
	}

	answers := struct {
		Schedule        string
		GenerateCommand string
	}{}
	if err := survey.Ask(questions, &answers); err != nil {
		return fmt.Errorf("canceled")
	}
	opts.schedule = answers.Schedule
	opts.generateCommand = answers.GenerateCommand

	if opts.generateCommand == "" && opts.sourceURL == "" {
		prompt := &survey.Input{
			Message: "Source feed URL",
			Default: defaults.Feed.SourceURL,
		}
		if err := survey.AskOne(prompt, &opts.sourceURL); err != nil {
			return fmt.Errorf("canceled")
		}
	}
	return nil
}

func buildJob(opts *initOptions) (*config.Job, error) {
	cfg := config.Default()

	if opts.schedule != "" {
		if err := schedule.Validate(opts.schedule); err != nil {
			return nil, err
		}
		cfg.Schedule = opts.schedule
	}
	if opts.sourceURL != "" {
		cfg.Feed.SourceURL = opts.sourceURL
	}
	if fields := strings.Fields(opts.generateCommand); len(fields) > 0 {
		cfg.Generate = &config.Step{
			Name:    "generate",
			Command: fields[0],
			Args:    fields[1:],
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
