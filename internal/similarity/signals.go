package similarity

import (
	"regexp"
	"strings"

	"github.com/netra-systems/zen-triage/internal/fingerprint"
	"github.com/netra-systems/zen-triage/internal/normalize"
	"github.com/netra-systems/zen-triage/internal/types"
)

// Signal scores one independent aspect of similarity between a new error
// and an existing candidate issue. Implementations are pure and return a
// value in [0,1]; they never fail. The uniform contract lets signals be
// added, removed, or re-weighted through the detector's configuration table
// instead of by editing the aggregation code.
type Signal interface {
	// Name identifies the signal in AlgorithmScores
	Name() string

	// Applicable reports whether this signal can judge the pair at all.
	// Inapplicable signals are left out of the weighted combination rather
	// than scored as zero, so missing optional data never depresses the
	// overall score.
	Applicable(ec *types.ErrorContext, issue *types.Issue) bool

	// Score rates how similar the candidate is to the new error. The
	// comparison is directional: ec is always the new error, issue always
	// the existing candidate.
	Score(ec *types.ErrorContext, issue *types.Issue) float64
}

// fingerprintTokenRe finds embedded fingerprint tokens in candidate text.
// Automated reports embed the 16-hex fingerprint in their bodies.
var fingerprintTokenRe = regexp.MustCompile(`\b[0-9a-f]{16}\b`)

// fencedBlockRe extracts the contents of markdown fenced code blocks, where
// automated reports carry their stack traces.
var fencedBlockRe = regexp.MustCompile("(?s)```[a-zA-Z]*\n(.*?)```")

// FingerprintSignal matches the new error's fingerprint against the
// candidate's stored text.
type FingerprintSignal struct{}

// fingerprintNearMatchFloor cuts off fuzzy fingerprint comparison. Distinct
// fingerprints are uncorrelated by construction, and two random 16-hex
// tokens still share enough characters to score around 0.4 on sequence
// similarity; anything below the floor is coincidence, not a near-match.
const fingerprintNearMatchFloor = 0.8

// Name implements Signal
func (FingerprintSignal) Name() string { return "fingerprint" }

// Applicable implements Signal; a fingerprint always exists for the new error
func (FingerprintSignal) Applicable(*types.ErrorContext, *types.Issue) bool { return true }

// Score returns 1.0 on a verbatim fingerprint match, otherwise the best
// character-level similarity against any fingerprint token embedded in the
// candidate, or 0.0 when the candidate embeds none.
func (FingerprintSignal) Score(ec *types.ErrorContext, issue *types.Issue) float64 {
	fp := fingerprint.Generate(ec)
	text := issue.Title + "\n" + issue.Body
	if strings.Contains(text, fp) {
		return 1.0
	}

	best := 0.0
	for _, token := range fingerprintTokenRe.FindAllString(strings.ToLower(text), -1) {
		if r := sequenceRatio(fp, token); r > best {
			best = r
		}
	}
	if best < fingerprintNearMatchFloor {
		return 0.0
	}
	return best
}

// MessageSignal compares the normalized new message against the candidate's
// title and body, weighting the title higher.
type MessageSignal struct{}

// Name implements Signal
func (MessageSignal) Name() string { return "message" }

// Applicable implements Signal
func (MessageSignal) Applicable(ec *types.ErrorContext, _ *types.Issue) bool {
	return normalize.Message(ec.ErrorMessage) != ""
}

const (
	messageTitleWeight = 0.7
	messageBodyWeight  = 0.3
)

// Score implements Signal
func (MessageSignal) Score(ec *types.ErrorContext, issue *types.Issue) float64 {
	msg := normalize.Message(ec.ErrorMessage)
	if msg == "" {
		return 0.0
	}
	titleScore := messageSideScore(msg, normalize.Message(issue.Title))
	bodyScore := messageSideScore(msg, normalize.Message(issue.Body))
	return messageTitleWeight*titleScore + messageBodyWeight*bodyScore
}

// messageSideScore rates the normalized message against one normalized side
// of the candidate. Verbatim containment is an exact hit: report titles
// prepend classification markers to the original message, and a sequence
// ratio would punish the candidate for its own prefix.
func messageSideScore(msg, side string) float64 {
	if side == "" {
		return 0.0
	}
	if strings.Contains(side, msg) {
		return 1.0
	}
	return sequenceRatio(msg, side)
}

// TokenSignal measures how much of the new error's meaningful-token set
// reappears in the candidate's title and body.
type TokenSignal struct{}

// Name implements Signal
func (TokenSignal) Name() string { return "token" }

// Applicable implements Signal
func (TokenSignal) Applicable(ec *types.ErrorContext, _ *types.Issue) bool {
	return len(meaningfulTokens(ec.ErrorType+" "+ec.ErrorMessage)) > 0
}

// Score implements Signal
func (TokenSignal) Score(ec *types.ErrorContext, issue *types.Issue) float64 {
	newTokens := meaningfulTokens(ec.ErrorType + " " + ec.ErrorMessage)
	candidateTokens := meaningfulTokens(issue.Title + " " + issue.Body)
	return tokenOverlap(newTokens, candidateTokens)
}

// StackTraceSignal compares normalized stack traces line by line. The
// candidate's trace is extracted from a fenced code block in its body.
type StackTraceSignal struct{}

// Name implements Signal
func (StackTraceSignal) Name() string { return "stack_trace" }

// Applicable implements Signal. Without a trace on the new error there is
// nothing to compare; with one, a candidate lacking a trace is evidence of
// a different error and scores zero rather than being skipped.
func (StackTraceSignal) Applicable(ec *types.ErrorContext, _ *types.Issue) bool {
	return normalize.StackTrace(ec.StackTrace) != ""
}

// Score implements Signal
func (StackTraceSignal) Score(ec *types.ErrorContext, issue *types.Issue) float64 {
	newStack := normalize.StackTrace(ec.StackTrace)
	if newStack == "" {
		return 0.0
	}
	candidateStack := extractStackTrace(issue.Body)
	if candidateStack == "" {
		return 0.0
	}
	return lineRatio(newStack, normalize.StackTrace(candidateStack))
}

func extractStackTrace(body string) string {
	matches := fencedBlockRe.FindAllStringSubmatch(body, -1)
	for _, m := range matches {
		block := strings.TrimSpace(m[1])
		if block != "" {
			return block
		}
	}
	return ""
}

// PatternSignal awards rule-based partial credit for structural matches:
// error type in the candidate title, service and environment in its body,
// label overlap with the new error's signature parts. The earned credit is
// normalized by the credit achievable from the checks actually performed,
// so inapplicable checks (missing service or environment) neither help nor
// hurt.
type PatternSignal struct{}

// Name implements Signal
func (PatternSignal) Name() string { return "pattern" }

// Applicable implements Signal
func (PatternSignal) Applicable(ec *types.ErrorContext, _ *types.Issue) bool {
	return ec.ErrorType != "" || ec.Service != "" || ec.Environment != ""
}

const (
	patternTypeCredit    = 0.3
	patternServiceCredit = 0.2
	patternEnvCredit     = 0.1
	patternLabelCredit   = 0.4
)

// Score implements Signal
func (PatternSignal) Score(ec *types.ErrorContext, issue *types.Issue) float64 {
	title := strings.ToLower(issue.Title)
	body := strings.ToLower(issue.Body)

	credit := 0.0
	possible := 0.0

	if ec.ErrorType != "" {
		possible += patternTypeCredit
		if strings.Contains(title, strings.ToLower(ec.ErrorType)) {
			credit += patternTypeCredit
		}
	}
	if ec.Service != "" {
		possible += patternServiceCredit
		if strings.Contains(body, strings.ToLower(ec.Service)) {
			credit += patternServiceCredit
		}
	}
	if ec.Environment != "" {
		possible += patternEnvCredit
		if strings.Contains(body, strings.ToLower(ec.Environment)) {
			credit += patternEnvCredit
		}
	}
	if parts := signatureParts(ec); len(parts) > 0 && len(issue.Labels) > 0 {
		possible += patternLabelCredit
		credit += patternLabelCredit * labelOverlap(parts, issue.Labels)
	}

	if possible == 0 {
		return 0.0
	}
	return credit / possible
}

// signatureParts are the new error's identity fragments used for label overlap
func signatureParts(ec *types.ErrorContext) []string {
	var parts []string
	if ec.ErrorType != "" {
		parts = append(parts, strings.ToLower(ec.ErrorType))
	}
	if ec.Service != "" {
		parts = append(parts, "service-"+strings.ToLower(ec.Service))
	}
	if ec.Environment != "" {
		parts = append(parts, "env-"+strings.ToLower(ec.Environment))
	}
	return parts
}

func labelOverlap(parts []string, labels []string) float64 {
	if len(parts) == 0 {
		return 0.0
	}
	labelSet := make(map[string]bool, len(labels))
	for _, l := range labels {
		labelSet[strings.ToLower(l)] = true
	}
	matched := 0
	for _, part := range parts {
		if labelSet[part] {
			matched++
		}
	}
	return float64(matched) / float64(len(parts))
}
