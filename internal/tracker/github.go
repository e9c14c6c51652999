package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/netra-systems/zen-triage/internal/types"
)

// APIError is a non-2xx response from the tracker API
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tracker API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// GitHubClient implements Tracker against the GitHub REST API, scoped to a
// single owner/repo.
type GitHubClient struct {
	token      string
	owner      string
	repo       string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// githubSearchRate keeps the client inside GitHub's search API quota
// (30 requests per minute for authenticated callers).
var githubSearchRate = rate.Limit(0.5)

// NewGitHubClient creates a Tracker backed by the GitHub API
func NewGitHubClient(token, owner, repo string) *GitHubClient {
	return &GitHubClient{
		token:   token,
		owner:   owner,
		repo:    repo,
		baseURL: "https://api.github.com",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(githubSearchRate, 5),
	}
}

// WithBaseURL overrides the API endpoint; used by tests
func (c *GitHubClient) WithBaseURL(baseURL string) *GitHubClient {
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	return c
}

type searchResponse struct {
	TotalCount int               `json:"total_count"`
	Items      []githubIssueItem `json:"items"`
}

type githubIssueItem struct {
	Number    int    `json:"number"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	State     string `json:"state"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	HTMLURL   string `json:"html_url"`
	Labels    []struct {
		Name string `json:"name"`
	} `json:"labels"`
}

// SearchIssues implements Tracker via the GitHub search API
func (c *GitHubClient) SearchIssues(ctx context.Context, query string, opts SearchOptions) ([]*types.Issue, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	q := fmt.Sprintf("%s repo:%s/%s is:issue", query, c.owner, c.repo)
	if opts.State != "" {
		q += " state:" + opts.State
	}
	for _, label := range opts.Labels {
		q += fmt.Sprintf(" label:%q", label)
	}

	params := url.Values{}
	params.Set("q", q)
	if opts.Sort != "" {
		params.Set("sort", opts.Sort)
	}
	if opts.Order != "" {
		params.Set("order", opts.Order)
	}
	if opts.Limit > 0 {
		params.Set("per_page", strconv.Itoa(opts.Limit))
	}

	endpoint := c.baseURL + "/search/issues?" + params.Encode()
	var resp searchResponse
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}

	issues := make([]*types.Issue, 0, len(resp.Items))
	for _, item := range resp.Items {
		labels := make([]string, 0, len(item.Labels))
		for _, l := range item.Labels {
			labels = append(labels, l.Name)
		}
		issues = append(issues, &types.Issue{
			Number:    item.Number,
			Title:     item.Title,
			Body:      item.Body,
			State:     item.State,
			Labels:    labels,
			CreatedAt: item.CreatedAt,
			UpdatedAt: item.UpdatedAt,
			URL:       item.HTMLURL,
		})
	}
	return issues, nil
}

type commentResponse struct {
	ID        int64  `json:"id"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
	HTMLURL   string `json:"html_url"`
}

// AddComment implements Tracker
func (c *GitHubClient) AddComment(ctx context.Context, issueNumber int, body string) (*types.Comment, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	endpoint := fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments", c.baseURL, c.owner, c.repo, issueNumber)
	payload := map[string]string{"body": body}

	var resp commentResponse
	if err := c.doJSON(ctx, http.MethodPost, endpoint, payload, &resp); err != nil {
		return nil, err
	}

	created, _ := time.Parse(time.RFC3339, resp.CreatedAt)
	return &types.Comment{
		ID:          strconv.FormatInt(resp.ID, 10),
		IssueNumber: issueNumber,
		Body:        resp.Body,
		CreatedAt:   created,
		URL:         resp.HTMLURL,
	}, nil
}

func (c *GitHubClient) doJSON(ctx context.Context, method, endpoint string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(data)),
			URL:        endpoint,
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
