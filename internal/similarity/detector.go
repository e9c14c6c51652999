// Package similarity combines independent similarity signals into one
// weighted, explainable score per (new error, candidate) pair.
package similarity

import (
	"fmt"

	"github.com/netra-systems/zen-triage/internal/types"
)

// WeightedSignal binds a signal to its ensemble weight and the individual
// threshold above which it contributes a human-readable reason.
type WeightedSignal struct {
	Signal Signal

	// Weight is the signal's share of the overall score. Weights across
	// the ensemble should sum to 1; when a signal is inapplicable for a
	// pair, the remaining weights are renormalized.
	Weight float64

	// ReasonThreshold is per-signal, not derived from the overall score
	ReasonThreshold float64

	// Reason is the human-readable explanation template
	Reason string
}

// DefaultSignals returns the standard five-signal ensemble with its weights
// and per-signal reason thresholds.
func DefaultSignals() []WeightedSignal {
	return []WeightedSignal{
		{FingerprintSignal{}, 0.30, 0.9, "matching error fingerprint"},
		{MessageSignal{}, 0.25, 0.8, "near-identical error message"},
		{TokenSignal{}, 0.20, 0.7, "strong keyword overlap"},
		{StackTraceSignal{}, 0.15, 0.6, "similar stack trace"},
		{PatternSignal{}, 0.10, 0.7, "matching error type, service, and labels"},
	}
}

// Detector scores candidates against new errors. It is stateless after
// construction and safe for concurrent use.
type Detector struct {
	signals []WeightedSignal
}

// NewDetector returns a Detector over the default signal ensemble
func NewDetector() *Detector {
	return &Detector{signals: DefaultSignals()}
}

// NewDetectorWithSignals builds a Detector over a custom ensemble, for
// callers that re-weight or extend the default signals.
func NewDetectorWithSignals(signals []WeightedSignal) (*Detector, error) {
	if len(signals) == 0 {
		return nil, fmt.Errorf("at least one signal is required")
	}
	total := 0.0
	for _, ws := range signals {
		if ws.Signal == nil {
			return nil, fmt.Errorf("signal cannot be nil")
		}
		if ws.Weight < 0 {
			return nil, fmt.Errorf("signal %s has negative weight %.3f", ws.Signal.Name(), ws.Weight)
		}
		total += ws.Weight
	}
	if total <= 0 {
		return nil, fmt.Errorf("signal weights must sum to a positive value")
	}
	return &Detector{signals: signals}, nil
}

// Score runs every applicable signal and combines them into one
// SimilarityScore. Deterministic: identical inputs always produce identical
// output. The comparison is directional (new error vs. existing candidate).
func (d *Detector) Score(ec *types.ErrorContext, issue *types.Issue) *types.SimilarityScore {
	scores := make(map[string]float64, len(d.signals))
	applicable := make([]WeightedSignal, 0, len(d.signals))
	weighted := 0.0
	totalWeight := 0.0
	for _, ws := range d.signals {
		if !ws.Signal.Applicable(ec, issue) {
			continue
		}
		s := clamp01(ws.Signal.Score(ec, issue))
		scores[ws.Signal.Name()] = s
		applicable = append(applicable, ws)
		weighted += ws.Weight * s
		totalWeight += ws.Weight
	}
	if totalWeight == 0 {
		return &types.SimilarityScore{AlgorithmScores: scores}
	}
	overall := clamp01(weighted / totalWeight)

	// Confidence rises when the individual signals agree: one minus the
	// variance of the applicable signals around the overall score.
	variance := 0.0
	for _, ws := range applicable {
		diff := scores[ws.Signal.Name()] - overall
		variance += diff * diff
	}
	variance /= float64(len(applicable))
	confidence := clamp01(1.0 - variance)

	// Reasons are emitted in ensemble order for determinism
	var reasons []string
	for _, ws := range applicable {
		s := scores[ws.Signal.Name()]
		if s > ws.ReasonThreshold {
			reasons = append(reasons, fmt.Sprintf("%s (%s %.2f)", ws.Reason, ws.Signal.Name(), s))
		}
	}

	return &types.SimilarityScore{
		OverallScore:      overall,
		AlgorithmScores:   scores,
		Confidence:        confidence,
		SimilarityReasons: reasons,
	}
}

func clamp01(v float64) float64 {
	if v < 0.0 {
		return 0.0
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}
