// Package errors provides sentinel errors and custom error types for arkfeed.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the phases of a run
var (
	// ErrRuntimeMissing indicates that the pinned runtime is not installed or has the wrong version
	ErrRuntimeMissing = errors.New("runtime not available")

	// ErrSetupFailed indicates that a dependency installation step failed
	ErrSetupFailed = errors.New("setup failed")

	// ErrGenerateFailed indicates that the feed generation step failed
	ErrGenerateFailed = errors.New("generate failed")

	// ErrCommitFailed indicates that staging or committing changes failed
	ErrCommitFailed = errors.New("commit failed")

	// ErrPushFailed indicates that pushing to the remote failed
	ErrPushFailed = errors.New("push failed")

	// ErrJobLocked indicates that another run holds the job lock
	ErrJobLocked = errors.New("another run is in progress")

	// ErrNotARepository indicates that the working directory is not inside a git repository
	ErrNotARepository = errors.New("not a git repository")
)

// Phase names a stage of a run
type Phase string

// Phases in execution order
const (
	PhaseSetup    Phase = "setup"
	PhaseGenerate Phase = "generate"
	PhaseCommit   Phase = "commit"
	PhasePush     Phase = "push"
)

// sentinel returns the sentinel error matching a phase
func (p Phase) sentinel() error {
	switch p {
	case PhaseSetup:
		return ErrSetupFailed
	case PhaseGenerate:
		return ErrGenerateFailed
	case PhaseCommit:
		return ErrCommitFailed
	case PhasePush:
		return ErrPushFailed
	default:
		return nil
	}
}

// StepError represents a failure of a named step within a phase
type StepError struct {
	Phase Phase
	Step  string
	Err   error
}

func (e *StepError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("%s step %q failed: %v", e.Phase, e.Step, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Phase, e.Err)
}

// Is returns true if the target is the sentinel error for this phase
func (e *StepError) Is(target error) bool {
	s := e.Phase.sentinel()
	return s != nil && target == s
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// NewStepError creates a new StepError
func NewStepError(phase Phase, step string, err error) *StepError {
	return &StepError{
		Phase: phase,
		Step:  step,
		Err:   err,
	}
}

// ProcessError represents a failed external command
type ProcessError struct {
	Command  string
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("command failed: %s", strings.TrimSpace(e.Command+" "+strings.Join(e.Args, " ")))
	if e.ExitCode > 0 {
		msg += fmt.Sprintf(" (exit code %d)", e.ExitCode)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", strings.TrimSpace(e.Stderr))
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// NewProcessError creates a new ProcessError
func NewProcessError(command string, args []string, exitCode int, stdout, stderr string, err error) *ProcessError {
	return &ProcessError{
		Command:  command,
		Args:     args,
		ExitCode: exitCode,
		Stdout:   stdout,
		Stderr:   stderr,
		Err:      err,
	}
}

// GitCommandError represents an error from a git command execution
type GitCommandError struct {
	Command string
	Args    []string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *GitCommandError) Error() string {
	msg := fmt.Sprintf("git command failed: %s", e.Command)
	if len(e.Args) > 0 {
		msg += fmt.Sprintf(" %v", e.Args)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", e.Stderr)
	}
	if e.Stdout != "" {
		msg += fmt.Sprintf("\nstdout: %s", e.Stdout)
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *GitCommandError) Unwrap() error {
	return e.Err
}

// NewGitCommandError creates a new GitCommandError
func NewGitCommandError(command string, args []string, stdout, stderr string, err error) *GitCommandError {
	return &GitCommandError{
		Command: command,
		Args:    args,
		Stdout:  stdout,
		Stderr:  stderr,
		Err:     err,
	}
}
