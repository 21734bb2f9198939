// Package testhelpers provides testing utilities for arkfeed,
// including a scene system, Git repository helpers, and custom assertions.
package testhelpers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Must is a generic helper function that panics if err is not nil,
// otherwise returns the value. Useful for setup code where errors are not expected.
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// ExpectCommitCount asserts the number of commits reachable from HEAD.
func ExpectCommitCount(t *testing.T, repo *GitRepo, expected int) {
	t.Helper()

	count, err := repo.GetCommitCount()
	require.NoError(t, err, "Failed to count commits")
	require.Equal(t, expected, count, "Commit count does not match")
}

// ExpectClean asserts that the working tree has no changes, untracked files included.
func ExpectClean(t *testing.T, repo *GitRepo) {
	t.Helper()

	output, err := repo.RunGitCommandAndGetOutput("status", "--porcelain")
	require.NoError(t, err, "Failed to get status")
	require.Empty(t, output, "Working tree is not clean")
}
