package similarity

import (
	"strings"
	"unicode"
)

// stopWords are excluded from meaningful-token sets; they carry no signal
// for error comparison.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true,
	"this": true, "that": true, "are": true, "was": true, "has": true,
	"had": true, "not": true, "but": true, "error": true, "exception": true,
	"failed": true, "while": true, "when": true, "into": true, "its": true,
}

// maxRatioRunes bounds the quadratic sequence-similarity computation.
// Titles and messages fit comfortably; pathological bodies are truncated.
const maxRatioRunes = 500

// meaningfulTokens extracts the lowercased tokens longer than two characters
// with stop words removed.
func meaningfulTokens(text string) map[string]bool {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		if len(tok) <= 2 || stopWords[tok] {
			continue
		}
		set[tok] = true
	}
	return set
}

// tokenOverlap measures how much of the new error's token set reappears in
// the candidate: |new ∩ candidate| / |new|. The measure is directional on
// purpose. Candidate bodies carry report scaffolding (metadata lines, code
// fences) that would dominate a symmetric union, hiding a complete match of
// the error's own terms.
func tokenOverlap(newTokens, candidateTokens map[string]bool) float64 {
	if len(newTokens) == 0 || len(candidateTokens) == 0 {
		return 0.0
	}
	matched := 0
	for tok := range newTokens {
		if candidateTokens[tok] {
			matched++
		}
	}
	return float64(matched) / float64(len(newTokens))
}

// sequenceRatio is the Ratcliff/Obershelp similarity in [0,1]:
// 2*M / (len(a)+len(b)), where M totals the characters covered by
// recursively matched longest common blocks. Identical strings score 1;
// unrelated text scores low because only contiguous runs count, unlike a
// subsequence measure that rewards scattered single-character matches.
func sequenceRatio(a, b string) float64 {
	ra := truncateRunes([]rune(a), maxRatioRunes)
	rb := truncateRunes([]rune(b), maxRatioRunes)
	if len(ra) == 0 || len(rb) == 0 {
		return 0.0
	}
	m := matchingTotal(ra, rb)
	return 2.0 * float64(m) / float64(len(ra)+len(rb))
}

// matchingTotal finds the longest common contiguous block, then recurses
// into the unmatched text on either side of it.
func matchingTotal(a, b []rune) int {
	ai, bi, size := longestCommonBlock(a, b)
	if size == 0 {
		return 0
	}
	total := size
	total += matchingTotal(a[:ai], b[:bi])
	total += matchingTotal(a[ai+size:], b[bi+size:])
	return total
}

// longestCommonBlock locates the longest common substring with a rolling-row
// dynamic program. Ties resolve to the earliest position in a, keeping the
// whole computation deterministic.
func longestCommonBlock(a, b []rune) (ai, bi, size int) {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > size {
					size = curr[j]
					ai = i - size
					bi = j - size
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
		for j := range curr {
			curr[j] = 0
		}
	}
	return ai, bi, size
}

// lineRatio treats each input as a sequence of lines and computes
// 2*LCS / (lines(a)+lines(b)) over whole lines. Stack frames are compared
// as units: a line either matches exactly or not at all.
func lineRatio(a, b string) float64 {
	la := splitLines(a)
	lb := splitLines(b)
	if len(la) == 0 || len(lb) == 0 {
		return 0.0
	}
	lcs := lcsLines(la, lb)
	return 2.0 * float64(lcs) / float64(len(la)+len(lb))
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func truncateRunes(r []rune, max int) []rune {
	if len(r) > max {
		return r[:max]
	}
	return r
}

// lcsLines computes longest-common-subsequence length over whole lines with
// a rolling row.
func lcsLines(a, b []string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
