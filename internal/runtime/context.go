package runtime

import (
	"arkfeed.dev/arkfeed/internal/config"
	"arkfeed.dev/arkfeed/internal/git"
	"arkfeed.dev/arkfeed/internal/history"
	"arkfeed.dev/arkfeed/internal/job"
	"arkfeed.dev/arkfeed/internal/lock"
	"arkfeed.dev/arkfeed/internal/metrics"
	"arkfeed.dev/arkfeed/internal/output"
)

// Context provides access to the job and its collaborators for commands
type Context struct {
	Job      *config.Job
	Git      git.Runner
	Splog    *output.Splog
	History  *history.Store
	Metrics  *metrics.Metrics
	RepoRoot string
}

// Options select the repository and job definition
type Options struct {
	// Dir is any directory inside the repository
	Dir string
	// ConfigPath overrides <repo root>/arkfeed.yaml
	ConfigPath string
}

// NewContext opens the repository and loads its job definition
func NewContext(opts Options, splog *output.Splog) (*Context, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	g, err := git.NewRunner(dir)
	if err != nil {
		return nil, err
	}

	var cfg *config.Job
	if opts.ConfigPath != "" {
		cfg, err = config.LoadFile(opts.ConfigPath)
	} else {
		cfg, err = config.Load(g.Root())
	}
	if err != nil {
		return nil, err
	}

	return &Context{
		Job:      cfg,
		Git:      g,
		Splog:    splog,
		History:  history.NewStore(g.GitDir()),
		Metrics:  metrics.New(),
		RepoRoot: g.Root(),
	}, nil
}

// NewJobRunner wires a job runner with the configured lock backend.
// The caller closes the returned locker.
func (c *Context) NewJobRunner(opts ...job.Option) (*job.Runner, lock.Locker, error) {
	locker, err := lock.New(c.Job.Lock, c.Git.GitDir())
	if err != nil {
		return nil, nil, err
	}

	all := append([]job.Option{
		job.WithLocker(locker),
		job.WithHistory(c.History),
		job.WithMetrics(c.Metrics),
	}, opts...)
	return job.NewRunner(c.Job, c.Git, c.Splog, all...), locker, nil
}
