package git

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	arkerrors "arkfeed.dev/arkfeed/internal/errors"
)

// Repository wraps a go-git repository
type Repository struct {
	*gogit.Repository
	root   string
	gitDir string
	// go-git is not safe for concurrent packfile access
	mu sync.Mutex
}

// OpenRepository opens the git repository containing path
func OpenRepository(path string) (*Repository, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	repo, err := gogit.PlainOpenWithOptions(absPath, &gogit.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%s: %w", absPath, arkerrors.ErrNotARepository)
		}
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	root := worktree.Filesystem.Root()
	gitDir, err := resolveGitDir(root)
	if err != nil {
		return nil, err
	}

	return &Repository{
		Repository: repo,
		root:       root,
		gitDir:     gitDir,
	}, nil
}

// resolveGitDir returns the git directory of the working tree at root.
// Linked worktrees and submodules have a .git file pointing elsewhere.
func resolveGitDir(root string) (string, error) {
	dotGit := filepath.Join(root, ".git")
	info, err := os.Stat(dotGit)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", dotGit, err)
	}
	if info.IsDir() {
		return dotGit, nil
	}

	data, err := os.ReadFile(dotGit)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", dotGit, err)
	}
	line := strings.TrimSpace(string(data))
	target, ok := strings.CutPrefix(line, "gitdir:")
	if !ok {
		return "", fmt.Errorf("malformed %s: missing gitdir line", dotGit)
	}
	target = strings.TrimSpace(target)
	if !filepath.IsAbs(target) {
		target = filepath.Join(root, target)
	}
	return filepath.Clean(target), nil
}

// Root returns the root directory of the working tree
func (r *Repository) Root() string {
	return r.root
}

// GitDir returns the git directory of this working tree.
// For a linked worktree or submodule this is not <root>/.git.
func (r *Repository) GitDir() string {
	return r.gitDir
}

// HeadSHA returns the SHA HEAD points at, or "" on an unborn branch
func (r *Repository) HeadSHA() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	head, err := r.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	return head.Hash().String(), nil
}

// CurrentBranch returns the current branch name
func (r *Repository) CurrentBranch() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ref, err := r.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	// Unborn branches still carry a symbolic target.
	if ref.Type() == plumbing.SymbolicReference && ref.Target().IsBranch() {
		return ref.Target().Short(), nil
	}
	return "", fmt.Errorf("HEAD is not on a branch")
}

// IsClean reports whether the working tree has no changes, untracked files included
func (r *Repository) IsClean() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	worktree, err := r.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to get worktree: %w", err)
	}
	status, err := worktree.Status()
	if err != nil {
		return false, fmt.Errorf("failed to get status: %w", err)
	}
	return status.IsClean(), nil
}

// RemoteURL returns the first URL configured for the named remote
func (r *Repository) RemoteURL(name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	remote, err := r.Remote(name)
	if err != nil {
		return "", fmt.Errorf("failed to get remote %s: %w", name, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %s has no URL", name)
	}
	return urls[0], nil
}
