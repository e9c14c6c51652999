// Package tracker abstracts the issue-tracking service the engine retrieves
// duplicate candidates from. Two implementations are provided: a GitHub
// REST client and a local sqlite-backed store.
package tracker

import (
	"context"

	"github.com/netra-systems/zen-triage/internal/types"
)

// SearchOptions scopes a candidate search
type SearchOptions struct {
	// State filters to open or closed issues ("" means any)
	State string

	// Labels restricts results to issues carrying all given labels
	Labels []string

	// Sort and Order control result ranking where the backend supports it
	// (e.g. "updated" / "desc")
	Sort  string
	Order string

	// Limit caps the number of returned issues; 0 means backend default
	Limit int
}

// Tracker is the issue-tracking collaborator. Implementations must be safe
// for concurrent use: the orchestrator issues searches in parallel.
type Tracker interface {
	// SearchIssues runs a free-text query within the tracker's repository
	// scope and returns matching issues, best-first where supported.
	SearchIssues(ctx context.Context, query string, opts SearchOptions) ([]*types.Issue, error)

	// AddComment records a note on an existing issue. The engine itself
	// never writes; this serves orchestrator callers recording that a
	// duplicate was found.
	AddComment(ctx context.Context, issueNumber int, body string) (*types.Comment, error)
}
