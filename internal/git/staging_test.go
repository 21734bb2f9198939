package git_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"arkfeed.dev/arkfeed/internal/git"
	"arkfeed.dev/arkfeed/testhelpers"
)

func TestStageAll(t *testing.T) {
	t.Parallel()

	t.Run("stages modifications, untracked files, and deletions", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, testhelpers.BasicSceneSetup)
		runner := git.NewCommandRunner(scene.Dir)
		ctx := context.Background()

		require.NoError(t, scene.Repo.CreateChange("modified", "1", true))
		require.NoError(t, scene.Repo.WriteFile("output/full_feed.xml", "<rss/>"))

		hasStaged, err := git.HasStagedChanges(ctx, runner)
		require.NoError(t, err)
		require.False(t, hasStaged)

		require.NoError(t, git.StageAll(ctx, runner))

		files, err := git.StagedFiles(ctx, runner)
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"1_test.txt", "output/full_feed.xml"}, files)
	})

	t.Run("leaves nothing staged when the tree is clean", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, testhelpers.BasicSceneSetup)
		runner := git.NewCommandRunner(scene.Dir)
		ctx := context.Background()

		require.NoError(t, git.StageAll(ctx, runner))

		hasStaged, err := git.HasStagedChanges(ctx, runner)
		require.NoError(t, err)
		require.False(t, hasStaged)
	})

	t.Run("rewriting identical content is not a change", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, testhelpers.BasicSceneSetup)
		runner := git.NewCommandRunner(scene.Dir)
		ctx := context.Background()

		require.NoError(t, scene.Repo.CreateChange("1", "1", true))
		require.NoError(t, git.StageAll(ctx, runner))

		hasStaged, err := git.HasStagedChanges(ctx, runner)
		require.NoError(t, err)
		require.False(t, hasStaged)
	})
}
