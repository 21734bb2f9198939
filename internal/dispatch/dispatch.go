// Package dispatch starts the hosted workflow through the GitHub
// workflow_dispatch API, the remote equivalent of "arkfeed run".
package dispatch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"
)

// Repository identifies a GitHub repository
type Repository struct {
	Host  string
	Owner string
	Name  string
}

func (r Repository) String() string {
	return r.Owner + "/" + r.Name
}

// ParseRepository parses "owner/name" or a remote URL in https, ssh or scp form
func ParseRepository(raw string) (Repository, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Repository{}, fmt.Errorf("empty repository")
	}

	host := "github.com"
	path := raw
	switch {
	case strings.Contains(raw, "://"):
		u, err := url.Parse(raw)
		if err != nil {
			return Repository{}, fmt.Errorf("invalid remote URL %q: %w", raw, err)
		}
		host = u.Hostname()
		path = u.Path
	case strings.Contains(raw, "@") && strings.Contains(raw, ":"):
		// git@github.com:owner/name.git
		at := strings.Index(raw, "@")
		colon := strings.Index(raw[at:], ":") + at
		host = raw[at+1 : colon]
		path = raw[colon+1:]
	}

	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[len(parts)-2] == "" || parts[len(parts)-1] == "" {
		return Repository{}, fmt.Errorf("cannot determine owner/name from %q", raw)
	}

	return Repository{
		Host:  host,
		Owner: parts[len(parts)-2],
		Name:  parts[len(parts)-1],
	}, nil
}

// Token gets a GitHub token from the environment or the gh CLI
func Token(ctx context.Context) (string, error) {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return token, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	output, err := exec.CommandContext(ctx, "gh", "auth", "token").Output()
	if err != nil {
		return "", fmt.Errorf("no GITHUB_TOKEN and gh auth token failed: %w", err)
	}

	token := strings.TrimSpace(string(output))
	if token == "" {
		return "", fmt.Errorf("empty GitHub token")
	}
	return token, nil
}

// Client triggers workflow runs
type Client struct {
	gh *github.Client
}

// NewClient creates an authenticated client for host.
// Hosts other than github.com are treated as GitHub Enterprise Server.
func NewClient(ctx context.Context, token, host string) (*Client, error) {
	tc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	gh := github.NewClient(tc)

	if host != "" && host != "github.com" {
		base := fmt.Sprintf("https://%s/api/v3/", host)
		upload := fmt.Sprintf("https://%s/api/uploads/", host)
		var err error
		if gh, err = gh.WithEnterpriseURLs(base, upload); err != nil {
			return nil, fmt.Errorf("failed to configure GitHub Enterprise client: %w", err)
		}
	}
	return &Client{gh: gh}, nil
}

// NewClientWithBaseURL creates a client against an explicit API endpoint
func NewClientWithBaseURL(httpClient *http.Client, baseURL string) (*Client, error) {
	gh, err := github.NewClient(httpClient).WithEnterpriseURLs(baseURL, baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid GitHub API URL %q: %w", baseURL, err)
	}
	return &Client{gh: gh}, nil
}

// Dispatch starts the workflow file on ref
func (c *Client) Dispatch(ctx context.Context, repo Repository, workflow, ref string, inputs map[string]string) error {
	req := github.CreateWorkflowDispatchEventRequest{Ref: ref}
	if len(inputs) > 0 {
		req.Inputs = make(map[string]interface{}, len(inputs))
		for k, v := range inputs {
			req.Inputs[k] = v
		}
	}

	resp, err := c.gh.Actions.CreateWorkflowDispatchEventByFileName(ctx, repo.Owner, repo.Name, workflow, req)
	if err != nil {
		return fmt.Errorf("failed to dispatch %s on %s@%s: %w", workflow, repo, ref, err)
	}
	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("failed to dispatch %s on %s@%s: unexpected status %s", workflow, repo, ref, resp.Status)
	}
	return nil
}
