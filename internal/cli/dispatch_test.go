package cli_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"arkfeed.dev/arkfeed/testhelpers"
)

type dispatchCall struct {
	Path  string
	Auth  string
	Ref   string
	Input map[string]string
}

func newDispatchServer(t *testing.T) (*httptest.Server, func() []dispatchCall) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []dispatchCall
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Ref    string            `json:"ref"`
			Inputs map[string]string `json:"inputs"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		mu.Lock()
		calls = append(calls, dispatchCall{
			Path:  r.URL.Path,
			Auth:  r.Header.Get("Authorization"),
			Ref:   body.Ref,
			Input: body.Inputs,
		})
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	return srv, func() []dispatchCall {
		mu.Lock()
		defer mu.Unlock()
		return append([]dispatchCall(nil), calls...)
	}
}

func TestDispatchCommand(t *testing.T) {
	t.Parallel()

	t.Run("uses the job's dispatch section", func(t *testing.T) {
		t.Parallel()
		srv, calls := newDispatchServer(t)
		scene := newJobScene(t, "dispatch:\n  workflow: update-feed.yml\n  repository: ark/feeds\n")

		out, err := arkfeed(t, scene.Dir, []string{"GITHUB_TOKEN=test-token"},
			"dispatch", "--api-url", srv.URL+"/", "--input", "reason=manual")
		require.NoError(t, err, out)
		require.Contains(t, out, "Dispatched update-feed.yml on ark/feeds@main")

		got := calls()
		require.Len(t, got, 1)
		require.Equal(t, "/api/v3/repos/ark/feeds/actions/workflows/update-feed.yml/dispatches", got[0].Path)
		require.Equal(t, "Bearer test-token", got[0].Auth)
		require.Equal(t, "main", got[0].Ref)
		require.Equal(t, map[string]string{"reason": "manual"}, got[0].Input)
	})

	t.Run("flags override the job", func(t *testing.T) {
		t.Parallel()
		srv, calls := newDispatchServer(t)
		scene := newJobScene(t, "dispatch:\n  workflow: update-feed.yml\n  repository: ark/feeds\n")

		out, err := arkfeed(t, scene.Dir, []string{"GITHUB_TOKEN=test-token"},
			"dispatch", "--api-url", srv.URL+"/", "--repo", "git@github.com:other/mirror.git",
			"--workflow", "nightly.yml", "--ref", "release")
		require.NoError(t, err, out)

		got := calls()
		require.Len(t, got, 1)
		require.Equal(t, "/api/v3/repos/other/mirror/actions/workflows/nightly.yml/dispatches", got[0].Path)
		require.Equal(t, "release", got[0].Ref)
	})

	t.Run("requires a workflow", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, testhelpers.BasicSceneSetup)

		out, err := arkfeed(t, scene.Dir, []string{"GITHUB_TOKEN=test-token"}, "dispatch", "--repo", "ark/feeds")
		require.Error(t, err)
		require.Contains(t, out, "no workflow configured")
	})

	t.Run("rejects malformed inputs", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t, testhelpers.BasicSceneSetup)

		out, err := arkfeed(t, scene.Dir, nil, "dispatch", "--workflow", "w.yml", "--repo", "ark/feeds", "--input", "novalue")
		require.Error(t, err)
		require.Contains(t, out, "expected key=value")
	})
}
