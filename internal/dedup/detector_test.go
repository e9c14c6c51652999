package dedup

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netra-systems/zen-triage/internal/fingerprint"
	"github.com/netra-systems/zen-triage/internal/tracker"
	"github.com/netra-systems/zen-triage/internal/types"
)

// fakeTracker serves canned issues and can be told to fail specific queries
type fakeTracker struct {
	mu       sync.Mutex
	issues   []*types.Issue
	failAll  bool
	failFor  map[string]bool
	queries  []string
	comments []string
}

func (f *fakeTracker) SearchIssues(_ context.Context, query string, _ tracker.SearchOptions) ([]*types.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.failAll || f.failFor[query] {
		return nil, fmt.Errorf("search backend unavailable")
	}
	out := make([]*types.Issue, len(f.issues))
	copy(out, f.issues)
	return out, nil
}

func (f *fakeTracker) AddComment(_ context.Context, issueNumber int, body string) (*types.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.comments = append(f.comments, body)
	return &types.Comment{ID: "c1", IssueNumber: issueNumber, Body: body}, nil
}

var _ tracker.Tracker = (*fakeTracker)(nil)

func importError() *types.ErrorContext {
	return &types.ErrorContext{
		ErrorMessage: "No module named 'requests'",
		ErrorType:    "ImportError",
		Service:      "ingest",
		Environment:  "production",
		Timestamp:    time.Date(2026, 5, 10, 14, 0, 0, 0, time.UTC),
		ReporterID:   "user-alpha",
	}
}

// reportIssue renders the automated report a previous occurrence would have
// filed for the same error.
func reportIssue(ec *types.ErrorContext, number int, createdAt string) *types.Issue {
	body := fmt.Sprintf("Automated error report.\n\n- Fingerprint: `%s`\n- Message: %s\n- Service: %s\n- Environment: %s\n",
		fingerprint.Generate(ec), ec.ErrorMessage, ec.Service, ec.Environment)
	return &types.Issue{
		Number:    number,
		Title:     fmt.Sprintf("[AUTOMATED] [DEPENDENCY] %s: %s", ec.ErrorType, ec.ErrorMessage),
		Body:      body,
		State:     types.IssueStateOpen,
		Labels:    []string{"automated", "bug", "dependency", "service-" + ec.Service, "env-" + ec.Environment},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func recentTimestamp() string {
	return time.Now().UTC().Add(-24 * time.Hour).Format(time.RFC3339)
}

func newDetector(t *testing.T, tr tracker.Tracker) *Detector {
	t.Helper()
	d, err := New(tr, DefaultConfig())
	require.NoError(t, err)
	return d
}

func TestDetectRepeatOccurrence(t *testing.T) {
	ec := importError()
	ft := &fakeTracker{issues: []*types.Issue{reportIssue(ec, 321, recentTimestamp())}}

	result, err := newDetector(t, ft).Detect(context.Background(), ec)
	require.NoError(t, err)

	assert.True(t, result.IsDuplicate)
	assert.Equal(t, types.ActionAddComment, result.RecommendedAction)
	require.Len(t, result.SimilarIssues, 1)
	require.Len(t, result.SimilarityScores, 1)
	assert.Equal(t, 321, result.SimilarIssues[0].Number)
	assert.GreaterOrEqual(t, result.SimilarityScores[0].OverallScore, 0.85)
	assert.NotEmpty(t, result.SimilarityScores[0].SimilarityReasons)
}

func TestDetectUnrelatedCandidate(t *testing.T) {
	// Same error type, disjoint message: the candidate must be discarded
	// before ranking, not merely ranked low.
	other := &types.ErrorContext{
		ErrorMessage: "cert bundle rotation cron skipped",
		ErrorType:    "ImportError",
		Service:      "billing",
		Environment:  "staging",
		Timestamp:    time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		ReporterID:   "user-beta",
	}
	ft := &fakeTracker{issues: []*types.Issue{reportIssue(other, 11, recentTimestamp())}}

	result, err := newDetector(t, ft).Detect(context.Background(), importError())
	require.NoError(t, err)

	assert.False(t, result.IsDuplicate)
	assert.Equal(t, types.ActionCreateNew, result.RecommendedAction)
	assert.Equal(t, types.ConfidenceHigh, result.ConfidenceLevel)
	assert.Empty(t, result.SimilarIssues)
}

func TestDetectNoCandidates(t *testing.T) {
	ft := &fakeTracker{}

	result, err := newDetector(t, ft).Detect(context.Background(), importError())
	require.NoError(t, err)

	assert.False(t, result.IsDuplicate)
	assert.Equal(t, types.ActionCreateNew, result.RecommendedAction)
	assert.Equal(t, types.ConfidenceHigh, result.ConfidenceLevel)
}

func TestDetectTotalRetrievalFailure(t *testing.T) {
	// Every strategy failing must not surface an error; the result is a
	// confident non-duplicate.
	ft := &fakeTracker{failAll: true}

	result, err := newDetector(t, ft).Detect(context.Background(), importError())
	require.NoError(t, err)

	assert.False(t, result.IsDuplicate)
	assert.Equal(t, types.ActionCreateNew, result.RecommendedAction)
	assert.Equal(t, types.ConfidenceHigh, result.ConfidenceLevel)
}

func TestDetectPartialRetrievalFailure(t *testing.T) {
	// One strategy failing must not hide candidates found by the others.
	ec := importError()
	ft := &fakeTracker{
		issues:  []*types.Issue{reportIssue(ec, 99, recentTimestamp())},
		failFor: map[string]bool{ec.ErrorType: true},
	}

	result, err := newDetector(t, ft).Detect(context.Background(), ec)
	require.NoError(t, err)

	assert.True(t, result.IsDuplicate)
	require.NotEmpty(t, result.SimilarIssues)
	assert.Equal(t, 99, result.SimilarIssues[0].Number)
}

func TestDetectRunsAllStrategies(t *testing.T) {
	ec := importError()
	ft := &fakeTracker{}

	_, err := newDetector(t, ft).Detect(context.Background(), ec)
	require.NoError(t, err)

	ft.mu.Lock()
	defer ft.mu.Unlock()
	require.Len(t, ft.queries, 3)
	joined := strings.Join(ft.queries, "\n")
	assert.Contains(t, joined, "ImportError")
	assert.Contains(t, joined, "module")
	assert.Contains(t, joined, "ingest")
}

func TestDetectValidatesInput(t *testing.T) {
	d := newDetector(t, &fakeTracker{})

	if _, err := d.Detect(context.Background(), nil); err == nil {
		t.Errorf("expected error for nil context")
	}
	if _, err := d.Detect(context.Background(), &types.ErrorContext{}); err == nil {
		t.Errorf("expected error for empty context")
	}
}

func TestNewRejectsBadInputs(t *testing.T) {
	if _, err := New(nil, DefaultConfig()); err == nil {
		t.Errorf("expected error for nil tracker")
	}

	bad := DefaultConfig()
	bad.DuplicateThreshold = 1.7
	if _, err := New(&fakeTracker{}, bad); err == nil {
		t.Errorf("expected error for out-of-range threshold")
	}
}

func TestFilterByAge(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	recent := &types.Issue{Number: 1, CreatedAt: "2026-05-25T10:00:00Z"}
	ancient := &types.Issue{Number: 2, CreatedAt: "2025-01-01T10:00:00Z"}
	garbled := &types.Issue{Number: 3, CreatedAt: "sometime last tuesday"}

	d := newDetector(t, &fakeTracker{})
	kept := d.filterByAge([]*types.Issue{recent, ancient, garbled}, now)

	var numbers []int
	for _, issue := range kept {
		numbers = append(numbers, issue.Number)
	}
	// The unparseable date is retained: parse failure must never cause a
	// false negative.
	assert.Equal(t, []int{1, 3}, numbers)
}

func TestDecideBoundaries(t *testing.T) {
	d := newDetector(t, &fakeTracker{})
	issue := &types.Issue{Number: 1, Title: "t"}

	tests := []struct {
		name       string
		best       float64
		wantDup    bool
		wantAction types.RecommendedAction
		wantConf   types.ConfidenceLevel
	}{
		{"exactly at duplicate threshold is inclusive", 0.80, true, types.ActionMergeWith, types.ConfidenceMedium},
		{"comment at medium confidence", 0.85, true, types.ActionAddComment, types.ConfidenceMedium},
		{"comment at high confidence", 0.95, true, types.ActionAddComment, types.ConfidenceHigh},
		{"just below duplicate threshold", 0.79, false, types.ActionReviewSimilarity, types.ConfidenceLow},
		{"exactly at review threshold", 0.60, false, types.ActionReviewSimilarity, types.ConfidenceLow},
		{"below review threshold", 0.45, false, types.ActionCreateNew, types.ConfidenceHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranked := []scoredCandidate{{issue: issue, score: &types.SimilarityScore{OverallScore: tt.best}}}
			result := d.decide(ranked)
			assert.Equal(t, tt.wantDup, result.IsDuplicate)
			assert.Equal(t, tt.wantAction, result.RecommendedAction)
			assert.Equal(t, tt.wantConf, result.ConfidenceLevel)
		})
	}
}

func TestScoreCandidatesCapAndOrder(t *testing.T) {
	ec := importError()
	numbers := []int{9, 3, 5, 1, 8, 2, 7}
	var candidates []*types.Issue
	for _, n := range numbers {
		candidates = append(candidates, reportIssue(ec, n, recentTimestamp()))
	}

	d := newDetector(t, &fakeTracker{})
	ranked := d.scoreCandidates(context.Background(), ec, candidates)

	require.Len(t, ranked, types.MaxSimilarIssues)
	// Identical candidates score identically; ties resolve by issue number.
	want := []int{1, 2, 3, 5, 7}
	for i, sc := range ranked {
		assert.Equal(t, want[i], sc.issue.Number)
	}
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].score.OverallScore, ranked[i].score.OverallScore)
	}
}

func TestDuplicateComment(t *testing.T) {
	ec := importError()
	result := &types.DuplicateDetectionResult{
		IsDuplicate:       true,
		RecommendedAction: types.ActionAddComment,
		ConfidenceLevel:   types.ConfidenceHigh,
		SimilarIssues:     []*types.Issue{{Number: 5, Title: "t"}},
		SimilarityScores: []*types.SimilarityScore{{
			OverallScore:      0.97,
			Confidence:        0.97,
			SimilarityReasons: []string{"matching error fingerprint (fingerprint 1.00)"},
		}},
	}

	body := DuplicateComment(ec, result)
	assert.Contains(t, body, fingerprint.Generate(ec))
	assert.Contains(t, body, "ingest")
	assert.Contains(t, body, "0.97")
	assert.Contains(t, body, "matching error fingerprint")
}
