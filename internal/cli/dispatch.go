package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"arkfeed.dev/arkfeed/internal/config"
	"arkfeed.dev/arkfeed/internal/dispatch"
	"arkfeed.dev/arkfeed/internal/git"
)

type dispatchOptions struct {
	workflow string
	ref      string
	repo     string
	inputs   []string
	apiURL   string
}

// newDispatchCmd creates the dispatch command
func newDispatchCmd(flags *globalFlags) *cobra.Command {
	opts := &dispatchOptions{}

	cmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Trigger the job's GitHub Actions workflow remotely",
		Long: `Trigger the job's workflow through a workflow_dispatch event.

The workflow, ref and repository default to the dispatch section of the job
definition; the repository falls back to the URL of the configured remote.
The token comes from GITHUB_TOKEN or "gh auth token".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rc, cleanup, err := flags.openContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			inputs, err := parseInputs(opts.inputs)
			if err != nil {
				return err
			}

			target := dispatchTarget(rc.Job, opts)
			if target.Workflow == "" {
				return fmt.Errorf("no workflow configured (set dispatch.workflow or pass --workflow)")
			}

			rawRepo := target.Repository
			if rawRepo == "" {
				repo, err := git.OpenRepository(rc.RepoRoot)
				if err != nil {
					return err
				}
				if rawRepo, err = repo.RemoteURL(rc.Job.Git.Remote); err != nil {
					return err
				}
			}
			repo, err := dispatch.ParseRepository(rawRepo)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			token, err := dispatch.Token(ctx)
			if err != nil {
				return err
			}

			var client *dispatch.Client
			if opts.apiURL != "" {
				tc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
				client, err = dispatch.NewClientWithBaseURL(tc, opts.apiURL)
			} else {
				client, err = dispatch.NewClient(ctx, token, repo.Host)
			}
			if err != nil {
				return err
			}

			if err := client.Dispatch(ctx, repo, target.Workflow, target.Ref, inputs); err != nil {
				return err
			}
			rc.Splog.Info("Dispatched %s on %s@%s", target.Workflow, repo, target.Ref)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.workflow, "workflow", "", "Workflow file name (e.g. update-feed.yml)")
	cmd.Flags().StringVar(&opts.ref, "ref", "", "Git ref the workflow runs on")
	cmd.Flags().StringVar(&opts.repo, "repo", "", "Repository as owner/name or URL")
	cmd.Flags().StringArrayVar(&opts.inputs, "input", nil, "Workflow input as key=value (repeatable)")
	cmd.Flags().StringVar(&opts.apiURL, "api-url", "", "GitHub API base URL")
	_ = cmd.Flags().MarkHidden("api-url")

	return cmd
}

// dispatchTarget merges flags over the job's dispatch section
func dispatchTarget(cfg *config.Job, opts *dispatchOptions) config.Dispatch {
	target := config.Dispatch{Ref: "main"}
	if cfg.Dispatch != nil {
		target = *cfg.Dispatch
	}
	if opts.workflow != "" {
		target.Workflow = opts.workflow
	}
	if opts.ref != "" {
		target.Ref = opts.ref
	}
	if opts.repo != "" {
		target.Repository = opts.repo
	}
	return target
}

func parseInputs(raw []string) (map[string]string, error) {
	inputs := make(map[string]string, len(raw))
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid input %q, expected key=value", kv)
		}
		inputs[key] = value
	}
	return inputs, nil
}
