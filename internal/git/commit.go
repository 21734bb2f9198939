package git

import (
	"context"
	"fmt"
)

// CommitOptions contains options for creating a commit
type CommitOptions struct {
	Message     string
	AuthorName  string
	AuthorEmail string
	// NoVerify skips pre-commit and commit-msg hooks
	NoVerify bool
}

// identityEnv sets both author and committer so the commit does not
// depend on the host's git configuration.
func (o CommitOptions) identityEnv() []string {
	var env []string
	if o.AuthorName != "" {
		env = append(env, "GIT_AUTHOR_NAME="+o.AuthorName, "GIT_COMMITTER_NAME="+o.AuthorName)
	}
	if o.AuthorEmail != "" {
		env = append(env, "GIT_AUTHOR_EMAIL="+o.AuthorEmail, "GIT_COMMITTER_EMAIL="+o.AuthorEmail)
	}
	return env
}

// Commit records the staged changes and returns the new HEAD SHA
func Commit(ctx context.Context, r *CommandRunner, opts CommitOptions) (string, error) {
	if opts.Message == "" {
		return "", fmt.Errorf("commit message is required")
	}

	args := []string{"commit", "--quiet", "-m", opts.Message}
	if opts.NoVerify {
		args = append(args, "--no-verify")
	}

	if _, err := r.RunWithEnv(ctx, opts.identityEnv(), args...); err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}

	sha, err := r.Run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to read new HEAD: %w", err)
	}
	return sha, nil
}
