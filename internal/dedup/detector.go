// Package dedup orchestrates duplicate detection: it retrieves candidate
// issues from the tracker through multiple search strategies, scores them
// with the similarity ensemble, and emits a structured decision.
package dedup

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/netra-systems/zen-triage/internal/similarity"
	"github.com/netra-systems/zen-triage/internal/tracker"
	"github.com/netra-systems/zen-triage/internal/types"
)

// Decision thresholds for the action policy. The duplicate threshold itself
// lives in Config; these split duplicates into comment-vs-merge buckets.
const (
	commentHighThreshold   = 0.95
	commentMediumThreshold = 0.85
)

// Detector runs duplicate detection against one tracker scope. Each Detect
// call is independent and repeatable: there is no cross-request state.
type Detector struct {
	tracker tracker.Tracker
	scorer  *similarity.Detector
	config  Config
}

// New creates a duplicate detector. The configuration is validated eagerly;
// an invalid threshold is rejected here, never at detection time.
func New(tr tracker.Tracker, cfg Config) (*Detector, error) {
	if tr == nil {
		return nil, fmt.Errorf("tracker cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Detector{
		tracker: tr,
		scorer:  similarity.NewDetector(),
		config:  cfg,
	}, nil
}

// Detect decides whether a new error duplicates a previously reported issue.
//
// Failure semantics: a single search strategy failing is logged and the
// others proceed; a total retrieval failure yields a non-duplicate
// create_new result with high confidence, never an error.
func (d *Detector) Detect(ctx context.Context, ec *types.ErrorContext) (*types.DuplicateDetectionResult, error) {
	if ec == nil {
		return nil, fmt.Errorf("error context cannot be nil")
	}
	if err := ec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid error context: %w", err)
	}

	candidates := d.retrieveCandidates(ctx, ec)
	candidates = d.filterByAge(candidates, time.Now().UTC())

	scored := d.scoreCandidates(ctx, ec, candidates)

	return d.decide(scored), nil
}

// searchStrategy is one independent way of finding candidates
type searchStrategy struct {
	name  string
	query string
}

func (d *Detector) buildStrategies(ec *types.ErrorContext) []searchStrategy {
	var strategies []searchStrategy
	if ec.ErrorType != "" {
		strategies = append(strategies, searchStrategy{"error_type", ec.ErrorType})
	}
	if terms := KeyTerms(ec.ErrorMessage); len(terms) > 0 {
		strategies = append(strategies, searchStrategy{"key_terms", strings.Join(terms, " ")})
	}
	if ec.Service != "" {
		strategies = append(strategies, searchStrategy{"service", ec.Service})
	}
	return strategies
}

// retrieveCandidates runs every strategy concurrently, each under its own
// timeout, and merges the results de-duplicated by issue number. Strategies
// never abort each other.
func (d *Detector) retrieveCandidates(ctx context.Context, ec *types.ErrorContext) []*types.Issue {
	strategies := d.buildStrategies(ec)
	if len(strategies) == 0 {
		return nil
	}

	var mu sync.Mutex
	seen := make(map[int]bool)
	var merged []*types.Issue

	var g errgroup.Group
	for _, strat := range strategies {
		strat := strat
		g.Go(func() error {
			searchCtx, cancel := context.WithTimeout(ctx, d.config.SearchTimeout)
			defer cancel()

			issues, err := d.tracker.SearchIssues(searchCtx, strat.query, tracker.SearchOptions{
				State: types.IssueStateOpen,
				Sort:  "updated",
				Order: "desc",
				Limit: d.config.MaxCandidates,
			})
			if err != nil {
				// Partial results are fine; a failed strategy must not
				// abort the others.
				log.Printf("[DEDUP] %s search failed: %v (continuing)", strat.name, err)
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			for _, issue := range issues {
				if !seen[issue.Number] {
					seen[issue.Number] = true
					merged = append(merged, issue)
				}
			}
			return nil
		})
	}
	_ = g.Wait() // strategies swallow their own errors

	// Merge order depends on goroutine scheduling; fix it before scoring
	// so detection stays deterministic.
	sort.Slice(merged, func(i, j int) bool { return merged[i].Number < merged[j].Number })
	return merged
}

// filterByAge drops candidates older than the lookback window. A candidate
// whose creation date cannot be parsed is kept: a parse failure must never
// cause a false negative.
func (d *Detector) filterByAge(candidates []*types.Issue, now time.Time) []*types.Issue {
	cutoff := now.AddDate(0, 0, -d.config.LookbackDays)
	kept := candidates[:0]
	for _, issue := range candidates {
		created, ok := issue.CreatedTime()
		if ok && created.Before(cutoff) {
			continue
		}
		kept = append(kept, issue)
	}
	return kept
}

type scoredCandidate struct {
	issue *types.Issue
	score *types.SimilarityScore
}

// scoreCandidates rates every candidate in parallel under a bounded worker
// pool, discards those below MinScore, and returns the survivors sorted by
// descending overall score, capped at MaxSimilarIssues.
func (d *Detector) scoreCandidates(ctx context.Context, ec *types.ErrorContext, candidates []*types.Issue) []scoredCandidate {
	if len(candidates) == 0 {
		return nil
	}

	sem := semaphore.NewWeighted(int64(d.config.ScoreWorkers))
	results := make([]scoredCandidate, len(candidates))
	var wg sync.WaitGroup

	for i, issue := range candidates {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Deadline hit mid-scoring: proceed with what has completed
			// rather than failing the whole detection.
			log.Printf("[DEDUP] scoring interrupted: %v (using %d of %d candidates)", err, i, len(candidates))
			break
		}
		wg.Add(1)
		go func(i int, issue *types.Issue) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = scoredCandidate{issue: issue, score: d.scorer.Score(ec, issue)}
		}(i, issue)
	}
	wg.Wait()

	kept := make([]scoredCandidate, 0, len(results))
	for _, sc := range results {
		if sc.issue == nil || sc.score == nil {
			continue
		}
		if sc.score.OverallScore < d.config.MinScore {
			continue
		}
		kept = append(kept, sc)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].score.OverallScore != kept[j].score.OverallScore {
			return kept[i].score.OverallScore > kept[j].score.OverallScore
		}
		return kept[i].issue.Number < kept[j].issue.Number
	})
	if len(kept) > types.MaxSimilarIssues {
		kept = kept[:types.MaxSimilarIssues]
	}
	return kept
}

// decide applies the action policy to the ranked candidates
func (d *Detector) decide(ranked []scoredCandidate) *types.DuplicateDetectionResult {
	result := &types.DuplicateDetectionResult{
		SimilarIssues:     make([]*types.Issue, 0, len(ranked)),
		SimilarityScores:  make([]*types.SimilarityScore, 0, len(ranked)),
		RecommendedAction: types.ActionCreateNew,
		ConfidenceLevel:   types.ConfidenceHigh,
	}
	for _, sc := range ranked {
		result.SimilarIssues = append(result.SimilarIssues, sc.issue)
		result.SimilarityScores = append(result.SimilarityScores, sc.score)
	}

	if len(ranked) == 0 {
		return result
	}

	best := ranked[0].score.OverallScore
	switch {
	case best >= d.config.DuplicateThreshold:
		result.IsDuplicate = true
		switch {
		case best >= commentHighThreshold:
			result.RecommendedAction = types.ActionAddComment
			result.ConfidenceLevel = types.ConfidenceHigh
		case best >= commentMediumThreshold:
			result.RecommendedAction = types.ActionAddComment
			result.ConfidenceLevel = types.ConfidenceMedium
		default:
			result.RecommendedAction = types.ActionMergeWith
			result.ConfidenceLevel = types.ConfidenceMedium
		}
	case best >= d.config.ReviewThreshold:
		// A human-reviewable near-miss, distinct from a true duplicate
		result.RecommendedAction = types.ActionReviewSimilarity
		result.ConfidenceLevel = types.ConfidenceLow
	}
	return result
}
