package cli_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"arkfeed.dev/arkfeed/internal/config"
	"arkfeed.dev/arkfeed/testhelpers"
)

func TestInitCommand(t *testing.T) {
	t.Parallel()

	t.Run("writes a job with an external generate command", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, testhelpers.BasicSceneSetup)

		out, err := arkfeed(t, scene.Dir, nil, "init", "--no-interactive",
			"--generate-command", "python3 main.py --out output", "--schedule", "0 * * * *")
		require.NoError(t, err, out)
		require.Contains(t, out, "Wrote")

		cfg, err := config.Load(scene.Dir)
		require.NoError(t, err)
		require.Equal(t, "0 * * * *", cfg.Schedule)
		require.False(t, cfg.UsesBuiltinGenerator())
		require.Equal(t, "python3", cfg.Generate.Command)
		require.Equal(t, []string{"main.py", "--out", "output"}, cfg.Generate.Args)
	})

	t.Run("refuses to overwrite without force", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, testhelpers.BasicSceneSetup)

		_, err := arkfeed(t, scene.Dir, nil, "init", "--no-interactive")
		require.NoError(t, err)

		out, err := arkfeed(t, scene.Dir, nil, "init", "--no-interactive")
		require.Error(t, err)
		require.Contains(t, out, "already exists")

		out, err = arkfeed(t, scene.Dir, nil, "init", "--no-interactive", "--force", "--source", "https://example.com/feed.xml")
		require.NoError(t, err, out)

		cfg, err := config.Load(scene.Dir)
		require.NoError(t, err)
		require.True(t, cfg.UsesBuiltinGenerator())
		require.Equal(t, "https://example.com/feed.xml", cfg.Feed.SourceURL)
	})

	t.Run("rejects an invalid schedule", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, testhelpers.BasicSceneSetup)

		out, err := arkfeed(t, scene.Dir, nil, "init", "--no-interactive", "--schedule", "every day")
		require.Error(t, err)
		require.Contains(t, out, "invalid schedule")
	})
}
