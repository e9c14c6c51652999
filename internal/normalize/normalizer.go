// Package normalize masks volatile substrings in error text so that
// semantically identical errors compare as textually identical.
package normalize

import (
	"regexp"
	"strings"
)

// rule pairs a compiled pattern with the fixed placeholder it is replaced by
type rule struct {
	pattern     *regexp.Regexp
	placeholder string
}

// rules is the ordered substitution table. Order matters: more specific
// patterns (UUID, connection string) run before generic ones (bare integer)
// so a generic pattern never partially masks a specific one.
//
// Placeholders deliberately contain no digits and no 20+ character
// alphanumeric runs, so re-running the table over normalized output is a
// no-op.
var rules = []rule{
	// ISO-8601 timestamps, with optional fraction and zone
	{regexp.MustCompile(`(?i)\b\d{4}-\d{2}-\d{2}[t ]\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:z|[+-]\d{2}:?\d{2})?\b`), "<timestamp>"},
	// UUIDs before hashes and bare integers
	{regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\b`), "<uuid>"},
	// memory addresses before hex hashes
	{regexp.MustCompile(`\b0x[0-9a-fA-F]+\b`), "<addr>"},
	// hex digests (md5 and longer)
	{regexp.MustCompile(`\b[0-9a-fA-F]{32,}\b`), "<hash>"},
	// credentialed connection strings before plain URLs
	{regexp.MustCompile(`(?i)\b[a-z][a-z0-9+.-]*://[^\s:@/]+:[^\s@]+@\S+`), "<connstr>"},
	{regexp.MustCompile(`(?i)\bhttps?://\S+`), "<url>"},
	{regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`), "<email>"},
	{regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`), "<ip>"},
	// unix and windows file paths
	{regexp.MustCompile(`(?:/[\w.\-]+){2,}/?`), "<path>"},
	{regexp.MustCompile(`\b[A-Za-z]:\\[^\s'"]+`), "<path>"},
	// long opaque tokens (API keys, session ids)
	{regexp.MustCompile(`\b[A-Za-z0-9_\-]{20,}\b`), "<token>"},
	// bare integers last, after every pattern that contains digits
	{regexp.MustCompile(`\b\d+\b`), "<num>"},
}

var whitespaceRe = regexp.MustCompile(`[ \t]+`)

// Message normalizes free-form error text: volatile substrings are replaced
// with fixed placeholders, the result is lower-cased, and runs of whitespace
// collapse to a single space. Idempotent; never fails on arbitrary input.
func Message(text string) string {
	if text == "" {
		return ""
	}
	masked := applyRules(text)
	masked = strings.ToLower(masked)
	masked = whitespaceRe.ReplaceAllString(masked, " ")
	masked = strings.Join(strings.Fields(masked), " ")
	return strings.TrimSpace(masked)
}

// StackTrace normalizes a stack trace line by line, preserving the line
// structure so frame sequences stay comparable. Idempotent.
func StackTrace(text string) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		masked := applyRules(line)
		masked = strings.ToLower(masked)
		masked = whitespaceRe.ReplaceAllString(masked, " ")
		masked = strings.TrimSpace(masked)
		if masked != "" {
			out = append(out, masked)
		}
	}
	return strings.Join(out, "\n")
}

func applyRules(text string) string {
	for _, r := range rules {
		text = r.pattern.ReplaceAllString(text, r.placeholder)
	}
	return text
}
