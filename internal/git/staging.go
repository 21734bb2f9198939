package git

import (
	"context"
	"fmt"
)

// StageAll stages all changes including untracked files and deletions
func StageAll(ctx context.Context, r *CommandRunner) error {
	_, err := r.Run(ctx, "add", "-A")
	if err != nil {
		return fmt.Errorf("failed to stage all changes: %w", err)
	}
	return nil
}

// HasStagedChanges checks if the index differs from HEAD
func HasStagedChanges(ctx context.Context, r *CommandRunner) (bool, error) {
	files, err := StagedFiles(ctx, r)
	if err != nil {
		return false, err
	}
	return len(files) > 0, nil
}

// StagedFiles returns the paths of staged files
func StagedFiles(ctx context.Context, r *CommandRunner) ([]string, error) {
	files, err := r.RunLines(ctx, "diff", "--cached", "--name-only")
	if err != nil {
		return nil, fmt.Errorf("failed to list staged files: %w", err)
	}
	return files, nil
}
