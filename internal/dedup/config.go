package dedup

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds configuration for the duplicate detection orchestrator
type Config struct {
	// DuplicateThreshold is the minimum overall score to mark as duplicate.
	// The comparison is inclusive: a score exactly at the threshold counts.
	// Default: 0.8
	DuplicateThreshold float64 `yaml:"duplicate_threshold"`

	// ReviewThreshold is the near-miss floor: non-duplicates at or above it
	// are flagged for human review. Default: 0.6
	ReviewThreshold float64 `yaml:"review_threshold"`

	// MinScore discards candidates below it before ranking; such candidates
	// are not similar enough to report at all. Default: 0.3
	MinScore float64 `yaml:"min_score"`

	// LookbackDays filters out candidates created longer ago. Candidates
	// whose creation date cannot be parsed are kept, never dropped.
	// Default: 30
	LookbackDays int `yaml:"lookback_days"`

	// MaxCandidates caps each search strategy's result size. Default: 50
	MaxCandidates int `yaml:"max_candidates"`

	// SearchTimeout bounds each individual search strategy. A strategy that
	// exceeds it contributes nothing; the others proceed. Default: 10s
	SearchTimeout time.Duration `yaml:"search_timeout"`

	// ScoreWorkers bounds the parallel candidate-scoring pool. Default: 4
	ScoreWorkers int `yaml:"score_workers"`
}

// DefaultConfig returns the default orchestrator configuration
func DefaultConfig() Config {
	return Config{
		DuplicateThreshold: 0.8,
		ReviewThreshold:    0.6,
		MinScore:           0.3,
		LookbackDays:       30,
		MaxCandidates:      50,
		SearchTimeout:      10 * time.Second,
		ScoreWorkers:       4,
	}
}

// Validate rejects invalid configuration eagerly, at configuration time
// rather than at detection time.
func (c Config) Validate() error {
	if c.DuplicateThreshold < 0.0 || c.DuplicateThreshold > 1.0 {
		return fmt.Errorf("duplicate_threshold must be between 0.0 and 1.0 (got %.2f)",
			c.DuplicateThreshold)
	}
	if c.ReviewThreshold < 0.0 || c.ReviewThreshold > 1.0 {
		return fmt.Errorf("review_threshold must be between 0.0 and 1.0 (got %.2f)",
			c.ReviewThreshold)
	}
	if c.MinScore < 0.0 || c.MinScore > 1.0 {
		return fmt.Errorf("min_score must be between 0.0 and 1.0 (got %.2f)", c.MinScore)
	}
	if c.ReviewThreshold > c.DuplicateThreshold {
		return fmt.Errorf("review_threshold (%.2f) cannot exceed duplicate_threshold (%.2f)",
			c.ReviewThreshold, c.DuplicateThreshold)
	}
	if c.LookbackDays <= 0 {
		return fmt.Errorf("lookback_days must be positive (got %d)", c.LookbackDays)
	}
	if c.LookbackDays > 365 {
		return fmt.Errorf("lookback_days too large (got %d, max 365)", c.LookbackDays)
	}
	if c.MaxCandidates <= 0 {
		return fmt.Errorf("max_candidates must be positive (got %d)", c.MaxCandidates)
	}
	if c.MaxCandidates > 500 {
		return fmt.Errorf("max_candidates too large (got %d, max 500)", c.MaxCandidates)
	}
	if c.SearchTimeout <= 0 {
		return fmt.Errorf("search_timeout must be positive (got %v)", c.SearchTimeout)
	}
	if c.SearchTimeout > 5*time.Minute {
		return fmt.Errorf("search_timeout too large (got %v, max 5 minutes)", c.SearchTimeout)
	}
	if c.ScoreWorkers <= 0 {
		return fmt.Errorf("score_workers must be positive (got %d)", c.ScoreWorkers)
	}
	if c.ScoreWorkers > 64 {
		return fmt.Errorf("score_workers too large (got %d, max 64)", c.ScoreWorkers)
	}
	return nil
}

// String returns a human-readable representation of the config
func (c Config) String() string {
	return fmt.Sprintf(
		"Config{Duplicate: %.2f, Review: %.2f, MinScore: %.2f, Lookback: %dd, "+
			"MaxCandidates: %d, SearchTimeout: %v, ScoreWorkers: %d}",
		c.DuplicateThreshold, c.ReviewThreshold, c.MinScore, c.LookbackDays,
		c.MaxCandidates, c.SearchTimeout, c.ScoreWorkers,
	)
}

// ConfigFromEnv creates a Config from environment variables, falling back to
// defaults.
//
// Environment variables:
//   - ZEN_DEDUP_DUPLICATE_THRESHOLD: Minimum overall score (0.0-1.0) to mark as duplicate (default: 0.8)
//   - ZEN_DEDUP_REVIEW_THRESHOLD: Near-miss floor for human review (default: 0.6)
//   - ZEN_DEDUP_MIN_SCORE: Discard floor applied before ranking (default: 0.3)
//   - ZEN_DEDUP_LOOKBACK_DAYS: How many days back candidates are considered (default: 30)
//   - ZEN_DEDUP_MAX_CANDIDATES: Per-strategy search result cap (default: 50)
//   - ZEN_DEDUP_SEARCH_TIMEOUT_SECS: Per-strategy search timeout in seconds (default: 10)
//   - ZEN_DEDUP_SCORE_WORKERS: Parallel scoring pool size (default: 4)
//
// Returns an error if any variable has an invalid value.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if err := parseEnvFloat("ZEN_DEDUP_DUPLICATE_THRESHOLD", &cfg.DuplicateThreshold); err != nil {
		return cfg, err
	}
	if err := parseEnvFloat("ZEN_DEDUP_REVIEW_THRESHOLD", &cfg.ReviewThreshold); err != nil {
		return cfg, err
	}
	if err := parseEnvFloat("ZEN_DEDUP_MIN_SCORE", &cfg.MinScore); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("ZEN_DEDUP_LOOKBACK_DAYS", &cfg.LookbackDays); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("ZEN_DEDUP_MAX_CANDIDATES", &cfg.MaxCandidates); err != nil {
		return cfg, err
	}
	if err := parseEnvDuration("ZEN_DEDUP_SEARCH_TIMEOUT_SECS", &cfg.SearchTimeout, time.Second); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("ZEN_DEDUP_SCORE_WORKERS", &cfg.ScoreWorkers); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration from environment: %w", err)
	}
	return cfg, nil
}

// configFile mirrors Config for YAML loading, with the timeout as seconds
type configFile struct {
	DuplicateThreshold *float64 `yaml:"duplicate_threshold"`
	ReviewThreshold    *float64 `yaml:"review_threshold"`
	MinScore           *float64 `yaml:"min_score"`
	LookbackDays       *int     `yaml:"lookback_days"`
	MaxCandidates      *int     `yaml:"max_candidates"`
	SearchTimeoutSecs  *int     `yaml:"search_timeout_secs"`
	ScoreWorkers       *int     `yaml:"score_workers"`
}

// LoadConfigFile reads configuration from a YAML file, layering present
// fields over the defaults. A missing file yields the defaults.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	var file configFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if file.DuplicateThreshold != nil {
		cfg.DuplicateThreshold = *file.DuplicateThreshold
	}
	if file.ReviewThreshold != nil {
		cfg.ReviewThreshold = *file.ReviewThreshold
	}
	if file.MinScore != nil {
		cfg.MinScore = *file.MinScore
	}
	if file.LookbackDays != nil {
		cfg.LookbackDays = *file.LookbackDays
	}
	if file.MaxCandidates != nil {
		cfg.MaxCandidates = *file.MaxCandidates
	}
	if file.SearchTimeoutSecs != nil {
		cfg.SearchTimeout = time.Duration(*file.SearchTimeoutSecs) * time.Second
	}
	if file.ScoreWorkers != nil {
		cfg.ScoreWorkers = *file.ScoreWorkers
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return cfg, nil
}

// parseEnvFloat parses a float64 from an environment variable
func parseEnvFloat(key string, dest *float64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvInt parses an int from an environment variable
func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvDuration parses a duration from an environment variable.
// The multiplier converts the numeric value to a duration.
func parseEnvDuration(key string, dest *time.Duration, multiplier time.Duration) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = time.Duration(parsed) * multiplier
	return nil
}
