package git

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Push pushes HEAD to the given branch on the remote.
// An empty branch pushes HEAD to the branch of the same name.
func Push(ctx context.Context, r *CommandRunner, remote, branch string) error {
	if remote == "" {
		remote = "origin"
	}

	refspec := "HEAD"
	if branch != "" {
		refspec = "HEAD:refs/heads/" + branch
	}

	if _, err := r.Run(ctx, "push", "--porcelain", remote, refspec); err != nil {
		return fmt.Errorf("failed to push to %s: %w", remote, err)
	}
	return nil
}

// AheadOfRemote reports whether HEAD has commits the remote branch does not.
// The remote-tracking ref is used when it exists; otherwise the remote is
// asked directly, since a remote without a fetch refspec never gets one.
// A branch missing on the remote counts as ahead.
func AheadOfRemote(ctx context.Context, r *CommandRunner, remote, branch string) (bool, error) {
	if remote == "" {
		remote = "origin"
	}
	if _, err := r.Run(ctx, "rev-parse", "--verify", "--quiet", "HEAD"); err != nil {
		// Unborn branch, nothing to push.
		return false, nil
	}

	base := remoteTrackingRef(remote, branch)
	if _, err := r.Run(ctx, "rev-parse", "--verify", "--quiet", base); err != nil {
		sha, err := remoteBranchSHA(ctx, r, remote, branch)
		if err != nil {
			return false, err
		}
		if sha == "" {
			return true, nil
		}
		if _, err := r.Run(ctx, "cat-file", "-e", sha+"^{commit}"); err != nil {
			// The remote has commits HEAD lacks; let the push report it.
			return true, nil
		}
		base = sha
	}

	output, err := r.Run(ctx, "rev-list", "--count", base+"..HEAD")
	if err != nil {
		return false, fmt.Errorf("failed to compare with %s: %w", base, err)
	}
	count, err := strconv.Atoi(output)
	if err != nil {
		return false, fmt.Errorf("failed to parse commit count %q: %w", output, err)
	}
	return count > 0, nil
}

// remoteBranchSHA returns the SHA of branch on remote, or "" if it does not exist
func remoteBranchSHA(ctx context.Context, r *CommandRunner, remote, branch string) (string, error) {
	output, err := r.Run(ctx, "ls-remote", "--heads", remote, "refs/heads/"+branch)
	if err != nil {
		return "", fmt.Errorf("failed to query %s: %w", remote, err)
	}
	if output == "" {
		return "", nil
	}
	sha, _, _ := strings.Cut(output, "\t")
	return sha, nil
}

func remoteTrackingRef(remote, branch string) string {
	return "refs/remotes/" + remote + "/" + branch
}
