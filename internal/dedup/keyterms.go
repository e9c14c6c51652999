package dedup

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/netra-systems/zen-triage/internal/normalize"
)

// placeholderRe strips the normalizer's masking placeholders before term
// extraction; placeholder fragments make useless search terms.
var placeholderRe = regexp.MustCompile(`<[a-z]+>`)

// technicalTerms get a flat importance bonus: their presence in a query is
// far more selective than ordinary words of the same length.
var technicalTerms = map[string]bool{
	"database":   true,
	"connection": true,
	"timeout":    true,
	"memory":     true,
	"import":     true,
	"module":     true,
	"permission": true,
	"token":      true,
	"auth":       true,
	"config":     true,
	"socket":     true,
	"deadlock":   true,
	"migration":  true,
	"schema":     true,
	"websocket":  true,
	"thread":     true,
	"session":    true,
}

const technicalTermBonus = 10

// maxKeyTerms caps how many ranked terms feed the key-term search query
const maxKeyTerms = 5

// KeyTerms extracts the top-ranked search terms from an error message.
// Terms are scored by a length bonus (tokens longer than 3 characters score
// their length) plus a fixed bonus for known technical terms; ties break
// alphabetically so the extraction is deterministic.
func KeyTerms(message string) []string {
	normalized := placeholderRe.ReplaceAllString(normalize.Message(message), " ")
	tokens := strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	scores := make(map[string]int)
	for _, tok := range tokens {
		if _, seen := scores[tok]; seen {
			continue
		}
		score := 0
		if len(tok) > 3 {
			score += len(tok)
		}
		if technicalTerms[tok] {
			score += technicalTermBonus
		}
		if score > 0 {
			scores[tok] = score
		}
	}

	terms := make([]string, 0, len(scores))
	for tok := range scores {
		terms = append(terms, tok)
	}
	sort.Slice(terms, func(i, j int) bool {
		if scores[terms[i]] != scores[terms[j]] {
			return scores[terms[i]] > scores[terms[j]]
		}
		return terms[i] < terms[j]
	})

	if len(terms) > maxKeyTerms {
		terms = terms[:maxKeyTerms]
	}
	return terms
}
