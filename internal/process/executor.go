package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"time"

	"arkfeed.dev/arkfeed/internal/config"
	arkerrors "arkfeed.dev/arkfeed/internal/errors"
)

// DefaultTimeout bounds a step that does not set its own timeout
const DefaultTimeout = 5 * time.Minute

// Run environment variables exported to every step
const (
	EnvRunID     = "ARKFEED_RUN_ID"
	EnvOutputDir = "ARKFEED_OUTPUT_DIR"
)

// Result is the captured outcome of a successful step
type Result struct {
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Executor runs job steps inside the repository
type Executor struct {
	baseDir string
	env     map[string]string
	output  io.Writer
}

// Option configures the executor.
type Option func(*Executor)

// WithBaseDir sets the working directory for executed steps.
func WithBaseDir(dir string) Option {
	return func(e *Executor) {
		e.baseDir = dir
	}
}

// WithEnv adds a variable to every step's environment.
func WithEnv(key, value string) Option {
	return func(e *Executor) {
		e.env[key] = value
	}
}

// WithOutput streams step stdout/stderr to w in addition to capturing it.
func WithOutput(w io.Writer) Option {
	return func(e *Executor) {
		e.output = w
	}
}

// NewExecutor creates a new step executor.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{env: make(map[string]string)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes one step and waits for it to finish.
// Non-zero exits, timeouts and missing executables return *errors.ProcessError.
func (e *Executor) Run(ctx context.Context, step config.Step) (*Result, error) {
	if step.Command == "" {
		return nil, fmt.Errorf("step %q has no command", step.Name)
	}

	timeout := step.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, step.Command, step.Args...)
	cmd.Dir = e.baseDir
	cmd.Env = append(cmd.Environ(), e.environ(step.Env)...)
	// Kill the child if it outlives the context and keep Wait from blocking on leaked pipes.
	cmd.WaitDelay = 5 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if e.output != nil {
		cmd.Stdout = io.MultiWriter(&stdout, e.output)
		cmd.Stderr = io.MultiWriter(&stderr, e.output)
	}

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w after %s: %w", ctxErr, duration.Round(time.Millisecond), err)
		}
		return nil, arkerrors.NewProcessError(step.Command, step.Args, exitCode, stdout.String(), stderr.String(), err)
	}

	return &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: duration,
	}, nil
}

// environ renders executor and step variables; step variables win on conflict.
func (e *Executor) environ(stepEnv map[string]string) []string {
	merged := make(map[string]string, len(e.env)+len(stepEnv))
	for k, v := range e.env {
		merged[k] = v
	}
	for k, v := range stepEnv {
		merged[k] = v
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, fmt.Sprintf("%s=%s", k, merged[k]))
	}
	return env
}
