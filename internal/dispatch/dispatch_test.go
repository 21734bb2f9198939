package dispatch_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"arkfeed.dev/arkfeed/internal/dispatch"
)

func TestParseRepository(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want dispatch.Repository
	}{
		{in: "https://github.com/ark/feeds.git", want: dispatch.Repository{Host: "github.com", Owner: "ark", Name: "feeds"}},
		{in: "https://github.com/ark/feeds", want: dispatch.Repository{Host: "github.com", Owner: "ark", Name: "feeds"}},
		{in: "git@github.com:ark/feeds.git", want: dispatch.Repository{Host: "github.com", Owner: "ark", Name: "feeds"}},
		{in: "ssh://git@ghe.example.com/ark/feeds.git", want: dispatch.Repository{Host: "ghe.example.com", Owner: "ark", Name: "feeds"}},
		{in: "ark/feeds", want: dispatch.Repository{Host: "github.com", Owner: "ark", Name: "feeds"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := dispatch.ParseRepository(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "feeds", "https://github.com/"} {
		_, err := dispatch.ParseRepository(bad)
		require.Error(t, err, bad)
	}
}

func TestToken(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "secret")
	token, err := dispatch.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "secret", token)
}

func TestDispatch(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client, err := dispatch.NewClientWithBaseURL(srv.Client(), srv.URL+"/")
	require.NoError(t, err)

	err = client.Dispatch(context.Background(),
		dispatch.Repository{Owner: "ark", Name: "feeds"},
		"update-feed.yml", "main", map[string]string{"reason": "manual"})
	require.NoError(t, err)

	require.Equal(t, "POST /api/v3/repos/ark/feeds/actions/workflows/update-feed.yml/dispatches", gotPath)
	require.Equal(t, "main", gotBody["ref"])
	require.Equal(t, map[string]any{"reason": "manual"}, gotBody["inputs"])
}

func TestDispatchError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
	}))
	defer srv.Close()

	client, err := dispatch.NewClientWithBaseURL(srv.Client(), srv.URL+"/")
	require.NoError(t, err)

	err = client.Dispatch(context.Background(), dispatch.Repository{Owner: "ark", Name: "feeds"}, "missing.yml", "main", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to dispatch missing.yml on ark/feeds@main")
}
