package git_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	arkerrors "arkfeed.dev/arkfeed/internal/errors"
	"arkfeed.dev/arkfeed/internal/git"
	"arkfeed.dev/arkfeed/testhelpers"
)

func TestPush(t *testing.T) {
	t.Parallel()

	t.Run("pushes HEAD to the current branch", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, testhelpers.RemoteSceneSetup)
		runner := git.NewCommandRunner(scene.Dir)
		ctx := context.Background()

		require.NoError(t, scene.Repo.CreateChangeAndCommit("2", "2"))

		ahead, err := git.AheadOfRemote(ctx, runner, "origin", "main")
		require.NoError(t, err)
		require.True(t, ahead)

		require.NoError(t, git.Push(ctx, runner, "origin", ""))

		head, err := scene.Repo.GetCurrentSHA()
		require.NoError(t, err)
		remoteHead, err := testhelpers.RemoteRevision(scene.RemoteDir(), "main")
		require.NoError(t, err)
		require.Equal(t, head, remoteHead)

		ahead, err = git.AheadOfRemote(ctx, runner, "origin", "main")
		require.NoError(t, err)
		require.False(t, ahead)
	})

	t.Run("pushes to an explicit branch", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, testhelpers.RemoteSceneSetup)
		runner := git.NewCommandRunner(scene.Dir)
		ctx := context.Background()

		require.NoError(t, git.Push(ctx, runner, "origin", "gh-pages"))

		head, err := scene.Repo.GetCurrentSHA()
		require.NoError(t, err)
		remoteHead, err := testhelpers.RemoteRevision(scene.RemoteDir(), "gh-pages")
		require.NoError(t, err)
		require.Equal(t, head, remoteHead)
	})

	t.Run("fails with a git command error for an unknown remote", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, testhelpers.BasicSceneSetup)
		runner := git.NewCommandRunner(scene.Dir)

		err := git.Push(context.Background(), runner, "nowhere", "")
		require.Error(t, err)

		var gitErr *arkerrors.GitCommandError
		require.True(t, errors.As(err, &gitErr))
	})
}

func TestAheadOfRemote(t *testing.T) {
	t.Parallel()

	t.Run("a branch never pushed is ahead", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, testhelpers.RemoteSceneSetup)
		runner := git.NewCommandRunner(scene.Dir)

		ahead, err := git.AheadOfRemote(context.Background(), runner, "origin", "feed")
		require.NoError(t, err)
		require.True(t, ahead)
	})

	t.Run("an unborn branch has nothing to push", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, nil)
		runner := git.NewCommandRunner(scene.Dir)

		ahead, err := git.AheadOfRemote(context.Background(), runner, "origin", "main")
		require.NoError(t, err)
		require.False(t, ahead)
	})

	t.Run("an up-to-date branch is not ahead", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, testhelpers.RemoteSceneSetup)
		runner := git.NewCommandRunner(scene.Dir)

		ahead, err := git.AheadOfRemote(context.Background(), runner, "origin", "main")
		require.NoError(t, err)
		require.False(t, ahead)
	})

	t.Run("asks the remote when there is no tracking ref", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, testhelpers.RemoteSceneSetup)
		require.NoError(t, scene.Repo.RunGitCommand("config", "--unset-all", "remote.origin.fetch"))
		require.NoError(t, scene.Repo.RunGitCommand("update-ref", "-d", "refs/remotes/origin/main"))
		runner := git.NewCommandRunner(scene.Dir)
		ctx := context.Background()

		ahead, err := git.AheadOfRemote(ctx, runner, "origin", "main")
		require.NoError(t, err)
		require.False(t, ahead)

		require.NoError(t, scene.Repo.CreateChangeAndCommit("2", "2"))
		ahead, err = git.AheadOfRemote(ctx, runner, "origin", "main")
		require.NoError(t, err)
		require.True(t, ahead)
	})

	t.Run("fails for an unknown remote without a tracking ref", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, testhelpers.BasicSceneSetup)
		runner := git.NewCommandRunner(scene.Dir)

		_, err := git.AheadOfRemote(context.Background(), runner, "nowhere", "main")
		require.Error(t, err)
	})
}
