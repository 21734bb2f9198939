package output_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"

	"arkfeed.dev/arkfeed/internal/output"
)

func TestSplogConsole(t *testing.T) {
	t.Run("writes plain messages and hides debug by default", func(t *testing.T) {
		var buf bytes.Buffer
		splog := output.NewSplogWriter(&buf, false)

		splog.Info("run %s started", "abc")
		splog.Debug("hidden")
		splog.Warn("careful")
		splog.Error("broken")

		require.Equal(t, "run abc started\n⚠️  careful\n❌ broken\n", buf.String())
	})

	t.Run("shows debug in debug mode", func(t *testing.T) {
		var buf bytes.Buffer
		splog := output.NewSplogWriter(&buf, true)

		splog.Debug("visible")
		require.Equal(t, "visible\n", buf.String())
	})

	t.Run("quiet suppresses console output", func(t *testing.T) {
		var buf bytes.Buffer
		splog := output.NewSplogWriter(&buf, false)
		splog.SetQuiet(true)

		splog.Info("nothing")
		splog.Newline()
		require.Empty(t, buf.String())
	})
}

func TestSplogFile(t *testing.T) {
	var buf bytes.Buffer
	logPath := filepath.Join(t.TempDir(), "logs", "arkfeed.log")

	splog, err := output.NewSplogWithConfig(&buf, output.LogConfig{
		File:       logPath,
		MaxSize:    1,
		MaxBackups: 1,
		MaxAge:     1,
	})
	require.NoError(t, err)

	splog.With("run_id", "1234").Info("committed")
	splog.Debug("file only")
	require.NoError(t, splog.Close())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "msg=committed run_id=1234")
	require.Contains(t, string(data), `msg="file only"`)
	require.Equal(t, "committed\n", buf.String())
}

func TestColorStatus(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	require.Equal(t, "committed", output.ColorStatus("committed"))
	require.Equal(t, "other", output.ColorStatus("other"))
}
