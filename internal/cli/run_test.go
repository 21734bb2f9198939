package cli_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"arkfeed.dev/arkfeed/internal/history"
	"arkfeed.dev/arkfeed/testhelpers"
)

const staticJob = `generate:
  command: sh
  args: ["-c", "mkdir -p output && echo '<rss/>' > output/feed.xml"]
lock:
  backend: file
`

func newJobScene(t *testing.T, job string) *testhelpers.Scene {
	t.Helper()
	scene := testhelpers.NewScene(t, testhelpers.RemoteSceneSetup)
	require.NoError(t, scene.Repo.WriteFile("arkfeed.yaml", job))
	require.NoError(t, scene.Repo.RunGitCommand("add", "arkfeed.yaml"))
	require.NoError(t, scene.Repo.RunGitCommand("commit", "-m", "add job"))
	require.NoError(t, scene.Repo.PushBranch("origin", "main"))
	return scene
}

func TestRunCommand(t *testing.T) {
	t.Parallel()

	t.Run("commits once then reports unchanged", func(t *testing.T) {
		t.Parallel()
		scene := newJobScene(t, staticJob)

		out, err := arkfeed(t, scene.Dir, nil, "run")
		require.NoError(t, err, out)
		require.Contains(t, out, "committed")
		testhelpers.ExpectCommitCount(t, scene.Repo, 3)
		testhelpers.ExpectClean(t, scene.Repo)

		author, err := scene.Repo.HeadAuthor()
		require.NoError(t, err)
		require.Contains(t, author, "github-actions[bot]")

		local, err := scene.Repo.GetCurrentSHA()
		require.NoError(t, err)
		remote, err := testhelpers.RemoteRevision(scene.RemoteDir(), "main")
		require.NoError(t, err)
		require.Equal(t, local, remote)

		out, err = arkfeed(t, scene.Dir, nil, "run")
		require.NoError(t, err, out)
		require.Contains(t, out, "unchanged")
		testhelpers.ExpectCommitCount(t, scene.Repo, 3)
	})

	t.Run("failing generate exits non-zero without committing", func(t *testing.T) {
		t.Parallel()
		scene := newJobScene(t, "generate:\n  command: sh\n  args: [\"-c\", \"echo partial > out.txt; exit 3\"]\n")

		out, err := arkfeed(t, scene.Dir, nil, "run")
		require.Error(t, err)
		require.Contains(t, out, "generate")
		testhelpers.ExpectCommitCount(t, scene.Repo, 2)
	})

	t.Run("no-push leaves the remote behind", func(t *testing.T) {
		t.Parallel()
		scene := newJobScene(t, staticJob)

		before, err := testhelpers.RemoteRevision(scene.RemoteDir(), "main")
		require.NoError(t, err)

		out, err := arkfeed(t, scene.Dir, nil, "run", "--no-push")
		require.NoError(t, err, out)
		testhelpers.ExpectCommitCount(t, scene.Repo, 3)

		after, err := testhelpers.RemoteRevision(scene.RemoteDir(), "main")
		require.NoError(t, err)
		require.Equal(t, before, after)
	})
}

func TestHistoryCommand(t *testing.T) {
	t.Parallel()
	scene := newJobScene(t, staticJob)

	out, err := arkfeed(t, scene.Dir, nil, "history")
	require.NoError(t, err, out)
	require.Contains(t, out, "No runs recorded yet.")

	_, err = arkfeed(t, scene.Dir, nil, "run")
	require.NoError(t, err)
	_, err = arkfeed(t, scene.Dir, nil, "run")
	require.NoError(t, err)

	out, err = arkfeed(t, scene.Dir, nil, "history", "--json", "--quiet")
	require.NoError(t, err, out)

	var records []history.Record
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 2)
	require.Equal(t, "unchanged", records[0].Status)
	require.Equal(t, "committed", records[1].Status)
	require.Equal(t, "manual", records[1].Trigger)
	require.NotEmpty(t, records[1].CommitSHA)

	out, err = arkfeed(t, scene.Dir, nil, "history", "-n", "1")
	require.NoError(t, err, out)
	require.Contains(t, out, "unchanged")
	require.NotContains(t, out, "committed")
}
