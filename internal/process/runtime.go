package process

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"arkfeed.dev/arkfeed/internal/config"
	arkerrors "arkfeed.dev/arkfeed/internal/errors"
)

const versionProbeTimeout = 30 * time.Second

// CheckRuntime verifies the pinned interpreter is installed.
// When a version is pinned, "<command> --version" must mention it.
// Returns the probe output on success.
func CheckRuntime(ctx context.Context, rt config.Runtime) (string, error) {
	path, err := exec.LookPath(rt.Command)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", arkerrors.ErrRuntimeMissing, rt.Command, err)
	}
	if rt.Version == "" {
		return path, nil
	}

	ctx, cancel := context.WithTimeout(ctx, versionProbeTimeout)
	defer cancel()

	// Older interpreters print the version on stderr.
	out, err := exec.CommandContext(ctx, path, "--version").CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%w: %s --version: %w", arkerrors.ErrRuntimeMissing, rt.Command, err)
	}

	version := strings.TrimSpace(string(out))
	if !strings.Contains(version, rt.Version) {
		return "", fmt.Errorf("%w: %s reports %q, want %s", arkerrors.ErrRuntimeMissing, rt.Command, version, rt.Version)
	}
	return version, nil
}
