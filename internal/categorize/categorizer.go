// Package categorize classifies errors into category, severity, priority,
// labels, and effort using ordered pattern tables.
package categorize

import (
	"sort"
	"strings"

	"github.com/netra-systems/zen-triage/internal/normalize"
	"github.com/netra-systems/zen-triage/internal/types"
)

// Categorizer owns the immutable lookup tables used for classification.
// Tables are fixed at construction and never mutated afterwards, so a single
// Categorizer is safe for concurrent use without locking.
type Categorizer struct {
	typeRules          []typeRule
	patternRules       []patternRule
	criticalIndicators []string
	highIndicators     []string
}

// New returns a Categorizer with the default tables
func New() *Categorizer {
	return &Categorizer{
		typeRules:          defaultTypeRules,
		patternRules:       defaultPatternRules,
		criticalIndicators: defaultCriticalIndicators,
		highIndicators:     defaultHighIndicators,
	}
}

// Categorize classifies an error. It never fails: input matching no table
// yields category=unknown with severity=medium.
func (c *Categorizer) Categorize(ec *types.ErrorContext) types.IssueCategorization {
	normalizedText := normalize.Message(ec.ErrorMessage) + " " + normalize.StackTrace(ec.StackTrace)

	category := c.matchCategory(ec.ErrorType, normalizedText)
	severity := c.matchSeverity(ec, normalizedText)

	return types.IssueCategorization{
		Severity:         severity,
		Category:         category,
		Labels:           c.buildLabels(ec, category, severity),
		Priority:         priorityFor(severity, category, ec.Environment),
		ShouldAutoAssign: autoAssign(severity, category),
		EstimatedEffort:  effortFor(severity, category),
	}
}

// matchCategory checks the direct type table first, then scans the ordered
// per-category pattern lists. First match wins in both tables.
func (c *Categorizer) matchCategory(errorType, normalizedText string) types.Category {
	loweredType := strings.ToLower(errorType)
	for _, rule := range c.typeRules {
		if strings.Contains(loweredType, rule.substring) {
			return rule.category
		}
	}

	for _, rule := range c.patternRules {
		for _, pattern := range rule.patterns {
			if strings.Contains(normalizedText, pattern) {
				return rule.category
			}
		}
	}
	return types.CategoryUnknown
}

// matchSeverity is conservative: the default is medium, and nothing short of
// an explicit signal lowers or raises it.
func (c *Categorizer) matchSeverity(ec *types.ErrorContext, normalizedText string) types.Severity {
	for _, indicator := range c.criticalIndicators {
		if strings.Contains(normalizedText, indicator) {
			return types.SeverityCritical
		}
	}

	for _, indicator := range c.highIndicators {
		if strings.Contains(normalizedText, indicator) {
			return types.SeverityHigh
		}
	}
	if ec.ContextFlag("affects_users") || ec.ContextFlag("blocks_core_functionality") {
		return types.SeverityHigh
	}
	if strings.EqualFold(ec.Environment, "production") {
		return types.SeverityHigh
	}

	return types.SeverityMedium
}

// buildLabels assembles the sorted, de-duplicated label set
func (c *Categorizer) buildLabels(ec *types.ErrorContext, category types.Category, severity types.Severity) []string {
	labels := map[string]struct{}{
		"automated":                     {},
		"bug":                           {},
		string(category):                {},
		"priority-" + string(severity): {},
	}
	if ec.Service != "" {
		labels["service-"+strings.ToLower(ec.Service)] = struct{}{}
	}
	if ec.Environment != "" {
		labels["env-"+strings.ToLower(ec.Environment)] = struct{}{}
	}
	if ec.ContextFlag("affects_users") {
		labels["user-impact"] = struct{}{}
	}
	if ec.ContextFlag("blocks_core_functionality") {
		labels["core-functionality"] = struct{}{}
	}
	if category == types.CategoryAuthentication || category == types.CategoryAuthorization {
		labels["security"] = struct{}{}
	}
	if category == types.CategoryPerformance {
		labels["performance"] = struct{}{}
	}

	out := make([]string, 0, len(labels))
	for label := range labels {
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}

// severityBase is the priority contribution of each severity
var severityBase = map[types.Severity]int{
	types.SeverityCritical: 4,
	types.SeverityHigh:     3,
	types.SeverityMedium:   2,
	types.SeverityLow:      1,
	types.SeverityInfo:     1,
}

func priorityFor(severity types.Severity, category types.Category, environment string) int {
	priority := severityBase[severity]
	switch category {
	case types.CategoryAuthentication, types.CategoryDatabase, types.CategoryInfrastructure:
		priority++
	}
	if strings.EqualFold(environment, "production") {
		priority++
	}
	if priority > 5 {
		priority = 5
	}
	if priority < 1 {
		priority = 1
	}
	return priority
}

func autoAssign(severity types.Severity, category types.Category) bool {
	if severity == types.SeverityCritical || severity == types.SeverityHigh {
		return true
	}
	switch category {
	case types.CategoryAuthentication, types.CategoryDatabase, types.CategoryInfrastructure:
		return true
	}
	return false
}

// effortFor maps categories to effort buckets. Critical severity without a
// category mapping lands on medium: urgent is not the same as complex.
func effortFor(severity types.Severity, category types.Category) types.Effort {
	switch category {
	case types.CategoryConfiguration, types.CategoryValidation:
		return types.EffortSmall
	case types.CategoryDependency, types.CategoryNetwork:
		return types.EffortMedium
	case types.CategoryInfrastructure, types.CategoryDatabase:
		return types.EffortLarge
	}
	if severity == types.SeverityCritical {
		return types.EffortMedium
	}
	return types.EffortMedium
}
