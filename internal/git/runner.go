package git

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	arkerrors "arkfeed.dev/arkfeed/internal/errors"
)

// DefaultCommandTimeout is the default timeout for git commands
const DefaultCommandTimeout = 5 * time.Minute

// CommandRunner handles execution of git commands in a fixed directory
type CommandRunner struct {
	workingDir string
}

// NewCommandRunner creates a new CommandRunner
func NewCommandRunner(workingDir string) *CommandRunner {
	return &CommandRunner{workingDir: workingDir}
}

// Run executes a git command with the given context and returns the trimmed output
func (r *CommandRunner) Run(ctx context.Context, args ...string) (string, error) {
	return r.runInternal(ctx, nil, args...)
}

// RunWithEnv executes a git command with additional environment variables
func (r *CommandRunner) RunWithEnv(ctx context.Context, env []string, args ...string) (string, error) {
	return r.runInternal(ctx, env, args...)
}

// RunLines executes a git command and returns output as lines
func (r *CommandRunner) RunLines(ctx context.Context, args ...string) ([]string, error) {
	output, err := r.Run(ctx, args...)
	if err != nil {
		return nil, err
	}
	if output == "" {
		return []string{}, nil
	}
	return strings.Split(output, "\n"), nil
}

func (r *CommandRunner) runInternal(ctx context.Context, env []string, args ...string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	// If no timeout/deadline is set in the context, add the default one
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultCommandTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	if r.workingDir != "" {
		cmd.Dir = r.workingDir
	}
	// Never block on a credential prompt; the job runs unattended.
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	cmd.Env = append(cmd.Env, env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", arkerrors.NewGitCommandError("git", args, stdout.String(), stderr.String(), ctx.Err())
		}
		return "", arkerrors.NewGitCommandError("git", args, stdout.String(), stderr.String(), err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Runner defines the git operations used by the job runner.
// This allows the job to be tested against both real git and fakes.
type Runner interface {
	// Location
	Root() string
	GitDir() string

	// Working tree
	StageAll(ctx context.Context) error
	HasStagedChanges(ctx context.Context) (bool, error)
	IsClean() (bool, error)

	// History
	Commit(ctx context.Context, opts CommitOptions) (string, error)
	HeadSHA() (string, error)
	CurrentBranch() (string, error)

	// Remote
	Push(ctx context.Context, remote, branch string) error
	AheadOfRemote(ctx context.Context, remote, branch string) (bool, error)
}

// NewRunner opens the repository containing dir and returns a Runner bound to its root
func NewRunner(dir string) (Runner, error) {
	repo, err := OpenRepository(dir)
	if err != nil {
		return nil, err
	}
	return &realRunner{
		cmd:  NewCommandRunner(repo.Root()),
		repo: repo,
	}, nil
}

// realRunner implements Runner with the git executable for writes and go-git for reads
type realRunner struct {
	cmd  *CommandRunner
	repo *Repository
}

func (r *realRunner) Root() string {
	return r.repo.Root()
}

func (r *realRunner) GitDir() string {
	return r.repo.GitDir()
}

func (r *realRunner) StageAll(ctx context.Context) error {
	return StageAll(ctx, r.cmd)
}

func (r *realRunner) HasStagedChanges(ctx context.Context) (bool, error) {
	return HasStagedChanges(ctx, r.cmd)
}

func (r *realRunner) IsClean() (bool, error) {
	return r.repo.IsClean()
}

func (r *realRunner) Commit(ctx context.Context, opts CommitOptions) (string, error) {
	return Commit(ctx, r.cmd, opts)
}

func (r *realRunner) HeadSHA() (string, error) {
	return r.repo.HeadSHA()
}

func (r *realRunner) CurrentBranch() (string, error) {
	return r.repo.CurrentBranch()
}

func (r *realRunner) Push(ctx context.Context, remote, branch string) error {
	return Push(ctx, r.cmd, remote, branch)
}

func (r *realRunner) AheadOfRemote(ctx context.Context, remote, branch string) (bool, error) {
	return AheadOfRemote(ctx, r.cmd, remote, branch)
}
