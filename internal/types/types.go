package types

import (
	"fmt"
	"time"
)

// ErrorContext captures a single observed runtime error along with the
// metadata needed to fingerprint, categorize, and deduplicate it.
//
// An ErrorContext is immutable once constructed. The fingerprint is a pure
// derived function (see internal/fingerprint), not stored state.
type ErrorContext struct {
	ErrorMessage   string                 `json:"error_message"`
	ErrorType      string                 `json:"error_type"`
	StackTrace     string                 `json:"stack_trace,omitempty"`
	ReporterID     string                 `json:"reporter_id"`
	ConversationID string                 `json:"conversation_id,omitempty"`
	Timestamp      time.Time              `json:"timestamp"`
	ContextData    map[string]interface{} `json:"context_data,omitempty"`
	Service        string                 `json:"service,omitempty"`
	Environment    string                 `json:"environment,omitempty"`
}

// NewErrorContext builds an ErrorContext with the timestamp defaulted to the
// creation time. Callers set the remaining optional fields directly before
// first use.
func NewErrorContext(errorType, message, reporterID string) *ErrorContext {
	return &ErrorContext{
		ErrorMessage: message,
		ErrorType:    errorType,
		ReporterID:   reporterID,
		Timestamp:    time.Now().UTC(),
	}
}

// Validate checks if the error context has valid field values
func (e *ErrorContext) Validate() error {
	if e.ErrorType == "" {
		return fmt.Errorf("error_type is required")
	}
	if e.ErrorMessage == "" {
		return fmt.Errorf("error_message is required")
	}
	if e.ReporterID == "" {
		return fmt.Errorf("reporter_id is required")
	}
	return nil
}

// ContextFlag reports whether a boolean flag is set in ContextData.
// Missing keys and non-boolean values read as false.
func (e *ErrorContext) ContextFlag(key string) bool {
	if e.ContextData == nil {
		return false
	}
	v, ok := e.ContextData[key].(bool)
	return ok && v
}

// Severity represents how urgent an error report is
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// IsValid checks if the severity value is valid
func (s Severity) IsValid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo:
		return true
	}
	return false
}

// Category represents the functional area an error belongs to
type Category string

const (
	CategoryAuthentication Category = "authentication"
	CategoryAuthorization  Category = "authorization"
	CategoryDatabase       Category = "database"
	CategoryNetwork        Category = "network"
	CategoryValidation     Category = "validation"
	CategoryDependency     Category = "dependency"
	CategoryPerformance    Category = "performance"
	CategoryConfiguration  Category = "configuration"
	CategoryBusinessLogic  Category = "business_logic"
	CategoryIntegration    Category = "integration"
	CategoryInfrastructure Category = "infrastructure"
	CategoryUnknown        Category = "unknown"
)

// IsValid checks if the category value is valid
func (c Category) IsValid() bool {
	switch c {
	case CategoryAuthentication, CategoryAuthorization, CategoryDatabase,
		CategoryNetwork, CategoryValidation, CategoryDependency,
		CategoryPerformance, CategoryConfiguration, CategoryBusinessLogic,
		CategoryIntegration, CategoryInfrastructure, CategoryUnknown:
		return true
	}
	return false
}

// Effort estimates how much work resolving an error will take
type Effort string

const (
	EffortSmall  Effort = "small"
	EffortMedium Effort = "medium"
	EffortLarge  Effort = "large"
)

// IsValid checks if the effort value is valid
func (e Effort) IsValid() bool {
	switch e {
	case EffortSmall, EffortMedium, EffortLarge:
		return true
	}
	return false
}

// IssueCategorization is the derived classification of an error.
// It is computed per error and never persisted by this engine.
type IssueCategorization struct {
	Severity         Severity `json:"severity"`
	Category         Category `json:"category"`
	Labels           []string `json:"labels"`
	Priority         int      `json:"priority"`
	ShouldAutoAssign bool     `json:"should_auto_assign"`
	EstimatedEffort  Effort   `json:"estimated_effort"`
}

// Validate checks if the categorization has valid field values
func (c *IssueCategorization) Validate() error {
	if !c.Severity.IsValid() {
		return fmt.Errorf("invalid severity: %s", c.Severity)
	}
	if !c.Category.IsValid() {
		return fmt.Errorf("invalid category: %s", c.Category)
	}
	if c.Priority < 1 || c.Priority > 5 {
		return fmt.Errorf("priority must be between 1 and 5 (got %d)", c.Priority)
	}
	if !c.EstimatedEffort.IsValid() {
		return fmt.Errorf("invalid estimated effort: %s", c.EstimatedEffort)
	}
	return nil
}

// SimilarityScore is the outcome of scoring one (new error, candidate) pair
type SimilarityScore struct {
	// OverallScore is the weighted combination of all algorithm scores, in [0,1]
	OverallScore float64 `json:"overall_score"`

	// AlgorithmScores maps each algorithm name to its individual score in [0,1]
	AlgorithmScores map[string]float64 `json:"algorithm_scores"`

	// Confidence is higher when the individual algorithms agree with each other
	Confidence float64 `json:"confidence"`

	// SimilarityReasons lists, in algorithm order, the signals that crossed
	// their individual reporting thresholds
	SimilarityReasons []string `json:"similarity_reasons"`
}

// Validate checks if the similarity score has valid values
func (s *SimilarityScore) Validate() error {
	if s.OverallScore < 0.0 || s.OverallScore > 1.0 {
		return fmt.Errorf("overall_score must be between 0.0 and 1.0 (got %.3f)", s.OverallScore)
	}
	if s.Confidence < 0.0 || s.Confidence > 1.0 {
		return fmt.Errorf("confidence must be between 0.0 and 1.0 (got %.3f)", s.Confidence)
	}
	for name, score := range s.AlgorithmScores {
		if score < 0.0 || score > 1.0 {
			return fmt.Errorf("algorithm %s score must be between 0.0 and 1.0 (got %.3f)", name, score)
		}
	}
	return nil
}

// RecommendedAction directs what a caller should do with a detection result
type RecommendedAction string

const (
	ActionCreateNew        RecommendedAction = "create_new"
	ActionAddComment       RecommendedAction = "add_comment"
	ActionMergeWith        RecommendedAction = "merge_with"
	ActionReviewSimilarity RecommendedAction = "review_similarity"
)

// IsValid checks if the recommended action value is valid
func (a RecommendedAction) IsValid() bool {
	switch a {
	case ActionCreateNew, ActionAddComment, ActionMergeWith, ActionReviewSimilarity:
		return true
	}
	return false
}

// ConfidenceLevel buckets the orchestrator's confidence in its recommendation
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// IsValid checks if the confidence level value is valid
func (c ConfidenceLevel) IsValid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

// MaxSimilarIssues caps how many ranked candidates a detection result carries
const MaxSimilarIssues = 5

// DuplicateDetectionResult is constructed once per detection request and
// never mutated after return. SimilarIssues and SimilarityScores are
// parallel lists ordered best-first.
type DuplicateDetectionResult struct {
	IsDuplicate       bool               `json:"is_duplicate"`
	SimilarIssues     []*Issue           `json:"similar_issues"`
	SimilarityScores  []*SimilarityScore `json:"similarity_scores"`
	RecommendedAction RecommendedAction  `json:"recommended_action"`
	ConfidenceLevel   ConfidenceLevel    `json:"confidence_level"`
}

// Validate checks if the detection result has valid values
func (r *DuplicateDetectionResult) Validate() error {
	if len(r.SimilarIssues) != len(r.SimilarityScores) {
		return fmt.Errorf("similar_issues (%d) and similarity_scores (%d) must be parallel lists",
			len(r.SimilarIssues), len(r.SimilarityScores))
	}
	if len(r.SimilarIssues) > MaxSimilarIssues {
		return fmt.Errorf("similar_issues must be capped at %d (got %d)",
			MaxSimilarIssues, len(r.SimilarIssues))
	}
	if !r.RecommendedAction.IsValid() {
		return fmt.Errorf("invalid recommended action: %s", r.RecommendedAction)
	}
	if !r.ConfidenceLevel.IsValid() {
		return fmt.Errorf("invalid confidence level: %s", r.ConfidenceLevel)
	}
	if r.IsDuplicate && len(r.SimilarIssues) == 0 {
		return fmt.Errorf("is_duplicate requires at least one similar issue")
	}
	for i, score := range r.SimilarityScores {
		if score == nil {
			return fmt.Errorf("similarity_scores[%d] is nil", i)
		}
		if err := score.Validate(); err != nil {
			return fmt.Errorf("similarity_scores[%d]: %w", i, err)
		}
	}
	return nil
}

// BestScore returns the top-ranked overall score, or 0 when no candidates survived
func (r *DuplicateDetectionResult) BestScore() float64 {
	if len(r.SimilarityScores) == 0 {
		return 0.0
	}
	return r.SimilarityScores[0].OverallScore
}
