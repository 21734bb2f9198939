package job

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"arkfeed.dev/arkfeed/internal/config"
	arkerrors "arkfeed.dev/arkfeed/internal/errors"
	"arkfeed.dev/arkfeed/internal/feed"
	"arkfeed.dev/arkfeed/internal/git"
	"arkfeed.dev/arkfeed/internal/history"
	"arkfeed.dev/arkfeed/internal/lock"
	"arkfeed.dev/arkfeed/internal/metrics"
	"arkfeed.dev/arkfeed/internal/output"
	"arkfeed.dev/arkfeed/internal/process"
)

// BuiltinStepName names the in-process generator in step errors
const BuiltinStepName = "builtin-feed"

// GenerateFunc writes the feed to path and returns its item count
type GenerateFunc func(ctx context.Context, path string) (int, error)

// Runner executes runs of one job definition
type Runner struct {
	cfg      *config.Job
	git      git.Runner
	splog    *output.Splog
	locker   lock.Locker
	history  *history.Store
	metrics  *metrics.Metrics
	generate GenerateFunc
	stepOut  io.Writer
	now      func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithLocker sets the overlap guard; runs are unguarded without one.
func WithLocker(l lock.Locker) Option {
	return func(r *Runner) { r.locker = l }
}

// WithHistory records every run in store.
func WithHistory(store *history.Store) Option {
	return func(r *Runner) { r.history = store }
}

// WithMetrics records every run in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithGenerator replaces the built-in generator.
func WithGenerator(fn GenerateFunc) Option {
	return func(r *Runner) { r.generate = fn }
}

// WithStepOutput streams step stdout/stderr to w.
func WithStepOutput(w io.Writer) Option {
	return func(r *Runner) { r.stepOut = w }
}

// WithClock overrides the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// NewRunner creates a runner for cfg operating on the repository behind g
func NewRunner(cfg *config.Job, g git.Runner, splog *output.Splog, opts ...Option) *Runner {
	r := &Runner{
		cfg:    cfg,
		git:    g,
		splog:  splog,
		locker: lock.Noop{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.generate == nil {
		r.generate = r.builtinGenerate
	}
	return r
}

func (r *Runner) builtinGenerate(ctx context.Context, path string) (int, error) {
	stats, err := feed.NewGenerator(r.cfg.Feed, r.splog).Run(ctx, path)
	if err != nil {
		return 0, err
	}
	return stats.Items, nil
}

// Run performs one run. The returned error is nil for committed and unchanged
// runs, wraps errors.ErrJobLocked for skipped runs, and is the failure otherwise.
// The result is never nil.
func (r *Runner) Run(ctx context.Context, trigger Trigger) (*Result, error) {
	result := &Result{
		RunID:     uuid.NewString(),
		Trigger:   trigger,
		StartedAt: r.now(),
	}
	splog := r.splog.With("run_id", result.RunID, "trigger", string(trigger))

	unlock, err := r.locker.TryLock(ctx)
	if err != nil {
		if errors.Is(err, arkerrors.ErrJobLocked) {
			result.Status = StatusSkipped
			result.Error = err.Error()
			result.EndedAt = r.now()
			splog.Warn("Skipping run: %v", err)
			r.metrics.ObserveRun(string(result.Status), result.Duration(), result.EndedAt)
			return result, err
		}
		// History is only written under the lock.
		result.fail(fmt.Errorf("failed to acquire job lock: %w", err))
		result.EndedAt = r.now()
		r.metrics.ObserveRun(string(result.Status), result.Duration(), result.EndedAt)
		splog.Error("Run %s failed: %v", short(result.RunID), result.Err)
		return result, result.Err
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			splog.Warn("Failed to release job lock: %v", err)
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, r.cfg.RunTimeout)
	defer cancel()

	splog.Debug("Run %s started (%s)", result.RunID, trigger)
	if err := r.execute(runCtx, splog, result); err != nil {
		result.fail(err)
	}
	r.finish(splog, result)
	return result, result.Err
}

func (r *Runner) execute(ctx context.Context, splog *output.Splog, result *Result) error {
	if err := r.setup(ctx, splog, result); err != nil {
		return err
	}
	if err := r.runGenerate(ctx, splog, result); err != nil {
		return err
	}
	return r.persist(ctx, splog, result)
}

func (r *Runner) executor(runID string) *process.Executor {
	opts := []process.Option{
		process.WithBaseDir(r.git.Root()),
		process.WithEnv(process.EnvRunID, runID),
		process.WithEnv(process.EnvOutputDir, filepath.Join(r.git.Root(), r.cfg.OutputDir)),
	}
	if r.stepOut != nil {
		opts = append(opts, process.WithOutput(r.stepOut))
	}
	return process.NewExecutor(opts...)
}

func (r *Runner) setup(ctx context.Context, splog *output.Splog, result *Result) error {
	if r.cfg.RequireClean {
		clean, err := r.git.IsClean()
		if err != nil {
			return arkerrors.NewStepError(arkerrors.PhaseSetup, "require-clean", err)
		}
		if !clean {
			return arkerrors.NewStepError(arkerrors.PhaseSetup, "require-clean", errors.New("working tree has uncommitted changes"))
		}
	}

	if r.cfg.Runtime != nil {
		version, err := process.CheckRuntime(ctx, *r.cfg.Runtime)
		if err != nil {
			return arkerrors.NewStepError(arkerrors.PhaseSetup, "runtime", err)
		}
		splog.Debug("Using %s (%s)", r.cfg.Runtime.Command, version)
	}

	exec := r.executor(result.RunID)
	for _, step := range r.cfg.Setup {
		splog.Debug("Running setup step %s", step.Name)
		res, err := exec.Run(ctx, step)
		if err != nil {
			return arkerrors.NewStepError(arkerrors.PhaseSetup, step.Name, err)
		}
		splog.Debug("Setup step %s finished in %s", step.Name, res.Duration.Round(time.Millisecond))
	}
	return nil
}

func (r *Runner) runGenerate(ctx context.Context, splog *output.Splog, result *Result) error {
	if r.cfg.UsesBuiltinGenerator() {
		path := filepath.Join(r.git.Root(), r.cfg.OutputPath())
		items, err := r.generate(ctx, path)
		if err != nil {
			return arkerrors.NewStepError(arkerrors.PhaseGenerate, BuiltinStepName, err)
		}
		result.FeedItems = items
		r.metrics.SetFeedItems(items)
		return nil
	}

	step := *r.cfg.Generate
	splog.Debug("Running generate step %s", step.Name)
	res, err := r.executor(result.RunID).Run(ctx, step)
	if err != nil {
		return arkerrors.NewStepError(arkerrors.PhaseGenerate, step.Name, err)
	}
	splog.Debug("Generate step %s finished in %s", step.Name, res.Duration.Round(time.Millisecond))
	return nil
}

func (r *Runner) persist(ctx context.Context, splog *output.Splog, result *Result) error {
	if err := r.git.StageAll(ctx); err != nil {
		return arkerrors.NewStepError(arkerrors.PhaseCommit, "add", err)
	}

	changed, err := r.git.HasStagedChanges(ctx)
	if err != nil {
		return arkerrors.NewStepError(arkerrors.PhaseCommit, "diff", err)
	}

	gitCfg := r.cfg.Git

	if !changed {
		result.Status = StatusUnchanged
		splog.Info("No changes to commit")
		if !gitCfg.PushEnabled() {
			return nil
		}

		branch, err := r.pushBranch()
		if err != nil {
			return err
		}
		// Deliver a commit left behind by an earlier failed push.
		ahead, err := r.git.AheadOfRemote(ctx, gitCfg.Remote, branch)
		if err != nil {
			return arkerrors.NewStepError(arkerrors.PhasePush, "compare", err)
		}
		if !ahead {
			return nil
		}
		splog.Info("Pushing unpushed commits to %s/%s", gitCfg.Remote, branch)
		if err := r.git.Push(ctx, gitCfg.Remote, branch); err != nil {
			return arkerrors.NewStepError(arkerrors.PhasePush, "push", err)
		}
		result.Pushed = true
		return nil
	}

	result.Message = gitCfg.Message.Render(r.now(), result.RunID)
	sha, err := r.git.Commit(ctx, git.CommitOptions{
		Message:     result.Message,
		AuthorName:  gitCfg.AuthorName,
		AuthorEmail: gitCfg.AuthorEmail,
	})
	if err != nil {
		return arkerrors.NewStepError(arkerrors.PhaseCommit, "commit", err)
	}
	result.Status = StatusCommitted
	result.CommitSHA = sha
	splog.Info("Committed %s: %s", short(sha), result.Message)

	if !gitCfg.PushEnabled() {
		return nil
	}
	branch, err := r.pushBranch()
	if err != nil {
		return err
	}
	if err := r.git.Push(ctx, gitCfg.Remote, branch); err != nil {
		return arkerrors.NewStepError(arkerrors.PhasePush, "push", err)
	}
	result.Pushed = true
	splog.Info("Pushed to %s/%s", gitCfg.Remote, branch)
	return nil
}

// pushBranch is the configured branch, or the checked out one
func (r *Runner) pushBranch() (string, error) {
	if r.cfg.Git.Branch != "" {
		return r.cfg.Git.Branch, nil
	}
	branch, err := r.git.CurrentBranch()
	if err != nil {
		return "", arkerrors.NewStepError(arkerrors.PhasePush, "branch", err)
	}
	return branch, nil
}

func (r *Runner) finish(splog *output.Splog, result *Result) {
	result.EndedAt = r.now()
	r.metrics.ObserveRun(string(result.Status), result.Duration(), result.EndedAt)

	if r.history != nil {
		if err := r.history.Append(result.Record()); err != nil {
			splog.Warn("Failed to record run history: %v", err)
		}
	}

	if result.Status == StatusFailed {
		splog.Error("Run %s failed: %v", short(result.RunID), result.Err)
		return
	}
	splog.Debug("Run %s %s in %s", short(result.RunID), result.Status, result.Duration().Round(time.Millisecond))
}

func short(s string) string {
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
