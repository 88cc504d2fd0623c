// Package ghactions derives and checks GitHub Actions run links.
package ghactions

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// RunPathSegment joins a repository link and a run ID.
const RunPathSegment = "/actions/runs/"

// RunLink returns the Actions run URL for a repository link.
// The link is used as-is; no normalisation is applied.
func RunLink(repositoryLink, runID string) string {
	return repositoryLink + RunPathSegment + runID
}

// ParseRepository extracts owner and repo from a link such as https://github.com/owner/repo
func ParseRepository(repositoryLink string) (string, string, error) {
	u, err := url.Parse(repositoryLink)
	if err != nil {
		return "", "", fmt.Errorf("invalid repository link %q: %w", repositoryLink, err)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("invalid repository link %q: missing host", repositoryLink)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository link %q: expected <host>/<owner>/<repo>", repositoryLink)
	}

	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}

// RunChecker looks up workflow runs through the GitHub API
type RunChecker struct {
	client *github.Client
}

// NewRunChecker creates a checker authenticated with token.
// An empty token yields an unauthenticated client.
func NewRunChecker(token string) *RunChecker {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	return &RunChecker{client: github.NewClient(httpClient)}
}

// NewRunCheckerWithClient wraps an existing GitHub client
func NewRunCheckerWithClient(client *github.Client) *RunChecker {
	return &RunChecker{client: client}
}

// Check confirms that the run exists in owner/repo and returns it
func (c *RunChecker) Check(ctx context.Context, owner, repo, runID string) (*github.WorkflowRun, error) {
	id, err := strconv.ParseInt(runID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid run ID %q: %w", runID, err)
	}

	run, resp, err := c.client.Actions.GetWorkflowRunByID(ctx, owner, repo, id)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("workflow run %d not found in %s/%s", id, owner, repo)
		}
		return nil, fmt.Errorf("failed to look up workflow run %d: %w", id, err)
	}

	return run, nil
}
