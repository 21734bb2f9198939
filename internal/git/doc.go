// Package git provides the Git operations the feed job needs.
//
// It wraps git command execution for everything that mutates the repository:
//   - Staging (add -A) and staged-diff inspection
//   - Commits under a fixed author identity
//   - Pushes and ahead-of-remote checks
//
// Read-only queries (HEAD, current branch, worktree status, remotes) go
// through go-git. This package should be the only place where git
// commands are executed.
package git
