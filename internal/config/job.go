package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the job definition file looked up at the repository root
const FileName = "arkfeed.yaml"

// Lock backends
const (
	LockFile  = "file"
	LockRedis = "redis"
	LockNone  = "none"
)

// Job is the full job definition
type Job struct {
	Schedule     string        `yaml:"schedule"`
	RunOnStart   bool          `yaml:"run_on_start,omitempty"`
	RunTimeout   time.Duration `yaml:"run_timeout"`
	OutputDir    string        `yaml:"output_dir"`
	RequireClean bool          `yaml:"require_clean,omitempty"`

	Runtime  *Runtime  `yaml:"runtime,omitempty"`
	Setup    []Step    `yaml:"setup,omitempty"`
	Generate *Step     `yaml:"generate,omitempty"`
	Feed     Feed      `yaml:"feed"`
	Git      Git       `yaml:"git"`
	Lock     Lock      `yaml:"lock"`
	Dispatch *Dispatch `yaml:"dispatch,omitempty"`
}

// Runtime pins the interpreter the setup and generate steps rely on
type Runtime struct {
	Command string `yaml:"command"`
	// Version must appear in the output of "<command> --version" when set
	Version string `yaml:"version,omitempty"`
}

// Step is one external command
type Step struct {
	Name    string            `yaml:"name"`
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
	Timeout time.Duration     `yaml:"timeout,omitempty"`
}

// Feed configures the built-in generator
type Feed struct {
	SourceURL      string        `yaml:"source_url"`
	Title          string        `yaml:"title"`
	Link           string        `yaml:"link"`
	Description    string        `yaml:"description"`
	OutputFile     string        `yaml:"output_file"`
	Concurrency    int           `yaml:"concurrency"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	UserAgent      string        `yaml:"user_agent,omitempty"`
}

// Git configures how changes are persisted
type Git struct {
	AuthorName  string          `yaml:"author_name"`
	AuthorEmail string          `yaml:"author_email"`
	Remote      string          `yaml:"remote"`
	Branch      string          `yaml:"branch,omitempty"`
	Push        *bool           `yaml:"push,omitempty"`
	Message     MessageTemplate `yaml:"message"`
}

// PushEnabled returns whether commits are pushed, true by default
func (g Git) PushEnabled() bool {
	return g.Push == nil || *g.Push
}

// Lock configures the overlap guard
type Lock struct {
	Backend   string        `yaml:"backend"`
	RedisAddr string        `yaml:"redis_addr,omitempty"`
	RedisKey  string        `yaml:"redis_key,omitempty"`
	TTL       time.Duration `yaml:"ttl"`
}

// Dispatch configures the remote workflow_dispatch trigger
type Dispatch struct {
	Workflow string `yaml:"workflow"`
	Ref      string `yaml:"ref,omitempty"`
	// Repository is "owner/name"; derived from the remote URL when empty
	Repository string `yaml:"repository,omitempty"`
}

// Default returns the job definition used when no arkfeed.yaml exists
func Default() *Job {
	cfg := &Job{}
	cfg.applyDefaults()
	return cfg
}

func (j *Job) applyDefaults() {
	if j.Schedule == "" {
		j.Schedule = "*/30 * * * *"
	}
	if j.RunTimeout == 0 {
		j.RunTimeout = 20 * time.Minute
	}
	if j.OutputDir == "" {
		j.OutputDir = "output"
	}

	if j.Feed.SourceURL == "" {
		j.Feed.SourceURL = "https://www.thearknewspaper.com/blog-feed.xml"
	}
	if j.Feed.Title == "" {
		j.Feed.Title = "The Ark Newspaper (Full Text)"
	}
	if j.Feed.Link == "" {
		j.Feed.Link = "https://www.thearknewspaper.com/news"
	}
	if j.Feed.Description == "" {
		j.Feed.Description = "Full-content RSS feed generated from The Ark Newspaper blog."
	}
	if j.Feed.OutputFile == "" {
		j.Feed.OutputFile = "full_feed.xml"
	}
	if j.Feed.Concurrency == 0 {
		j.Feed.Concurrency = 4
	}
	if j.Feed.RequestTimeout == 0 {
		j.Feed.RequestTimeout = 30 * time.Second
	}

	if j.Git.AuthorName == "" {
		j.Git.AuthorName = "github-actions[bot]"
	}
	if j.Git.AuthorEmail == "" {
		j.Git.AuthorEmail = "41898282+github-actions[bot]@users.noreply.github.com"
	}
	if j.Git.Remote == "" {
		j.Git.Remote = "origin"
	}
	if j.Git.Message == "" {
		j.Git.Message = DefaultMessageTemplate
	}

	if j.Lock.Backend == "" {
		j.Lock.Backend = LockFile
	}
	if j.Lock.RedisKey == "" {
		j.Lock.RedisKey = "arkfeed:lock"
	}
	if j.Lock.TTL == 0 {
		j.Lock.TTL = j.RunTimeout + 5*time.Minute
	}

	if j.Dispatch != nil && j.Dispatch.Ref == "" {
		j.Dispatch.Ref = "main"
	}

	for i := range j.Setup {
		if j.Setup[i].Name == "" {
			j.Setup[i].Name = fmt.Sprintf("setup-%d", i+1)
		}
	}
	if j.Generate != nil && j.Generate.Name == "" {
		j.Generate.Name = "generate"
	}
}

// applyEnv overrides deployment-specific settings from the environment
func (j *Job) applyEnv() {
	if v := os.Getenv("ARKFEED_SCHEDULE"); v != "" {
		j.Schedule = v
	}
	if v := os.Getenv("ARKFEED_REMOTE"); v != "" {
		j.Git.Remote = v
	}
	if v := os.Getenv("ARKFEED_BRANCH"); v != "" {
		j.Git.Branch = v
	}
	if v := os.Getenv("ARKFEED_LOCK_BACKEND"); v != "" {
		j.Lock.Backend = v
	}
	if v := os.Getenv("ARKFEED_REDIS_ADDR"); v != "" {
		j.Lock.RedisAddr = v
	}
}

// UsesBuiltinGenerator reports whether the in-process feed generator replaces an external command
func (j *Job) UsesBuiltinGenerator() bool {
	return j.Generate == nil || j.Generate.Command == ""
}

// OutputPath returns the built-in generator's output file relative to the repository root
func (j *Job) OutputPath() string {
	return filepath.Join(j.OutputDir, j.Feed.OutputFile)
}

// Validate checks the job definition for errors that would only surface mid-run
func (j *Job) Validate() error {
	var errs []error

	if !j.Git.Message.IsValid() {
		errs = append(errs, fmt.Errorf("git.message must contain {timestamp}"))
	}
	if filepath.IsAbs(j.OutputDir) {
		errs = append(errs, fmt.Errorf("output_dir must be relative to the repository root"))
	}
	if j.Feed.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("feed.concurrency must be at least 1"))
	}
	if j.Runtime != nil && j.Runtime.Command == "" {
		errs = append(errs, fmt.Errorf("runtime.command is required when runtime is set"))
	}
	for _, step := range j.Setup {
		if step.Command == "" {
			errs = append(errs, fmt.Errorf("setup step %q has no command", step.Name))
		}
	}

	switch j.Lock.Backend {
	case LockFile, LockNone:
	case LockRedis:
		if j.Lock.RedisAddr == "" {
			errs = append(errs, fmt.Errorf("lock.redis_addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown lock backend %q", j.Lock.Backend))
	}

	if j.Dispatch != nil && j.Dispatch.Workflow == "" {
		errs = append(errs, fmt.Errorf("dispatch.workflow is required when dispatch is set"))
	}

	return errors.Join(errs...)
}

// Path returns the job file path for a repository root
func Path(repoRoot string) string {
	return filepath.Join(repoRoot, FileName)
}

// Load reads the job definition for a repository root.
// A missing file yields the defaults.
func Load(repoRoot string) (*Job, error) {
	return LoadFile(Path(repoRoot))
}

// LoadFile reads a job definition from an explicit path.
// A missing file yields the defaults.
func LoadFile(path string) (*Job, error) {
	cfg := &Job{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid job definition %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the job definition as YAML
func (j *Job) Save(path string) error {
	data, err := yaml.Marshal(j)
	if err != nil {
		return fmt.Errorf("failed to marshal job definition: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}
