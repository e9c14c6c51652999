// Package sanitize removes secrets and PII from text before it is ever
// persisted externally or shown back to a caller.
package sanitize

import (
	"regexp"
	"strings"

	"github.com/netra-systems/zen-triage/internal/types"
)

// redaction markers. None of them matches any redaction pattern, which is
// what makes sanitization idempotent.
const (
	redactedAPIKey     = "[REDACTED-API-KEY]"
	redactedEmail      = "[REDACTED-EMAIL]"
	redactedIP         = "[REDACTED-IP]"
	redactedURL        = "[REDACTED-URL]"
	redactedSSN        = "[REDACTED-SSN]"
	redactedCard       = "[REDACTED-CARD]"
	redactedConnection = "[REDACTED-CONNECTION]"
	redactedField      = "[REDACTED]"
	redactedUser       = "[REDACTED-USER]"
)

// textRule pairs a pattern with its redaction marker
type textRule struct {
	pattern *regexp.Regexp
	marker  string
}

// textRules is the ordered redaction table: long opaque tokens, emails,
// IPs, credentialed URLs, SSN-like and card-like numbers, then connection
// strings.
var textRules = []textRule{
	{regexp.MustCompile(`\b[A-Za-z0-9]{20,}\b`), redactedAPIKey},
	{regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`), redactedEmail},
	{regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`), redactedIP},
	{regexp.MustCompile(`(?i)\bhttps?://[^\s:@/]+:[^\s@]+@\S+`), redactedURL},
	{regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), redactedSSN},
	{regexp.MustCompile(`\b(?:\d[ -]?){13,16}\b`), redactedCard},
	{regexp.MustCompile(`(?i)\b[a-z][a-z0-9+.]*://[^\s:@/]+:[^\s@]+@\S+`), redactedConnection},
}

// sensitiveFieldTerms trigger field-name-based redaction when any of them
// appears in a lowercased key.
var sensitiveFieldTerms = []string{
	"password", "secret", "key", "token", "credential",
	"private", "confidential", "ssn", "card", "api_key",
}

// userIDRe finds embedded user identifiers for strict-isolation masking
var userIDRe = regexp.MustCompile(`(?i)\buser[_-][A-Za-z0-9]+\b`)

// Sanitizer owns the immutable redaction tables. Safe for concurrent use.
type Sanitizer struct {
	rules      []textRule
	fieldTerms []string
}

// New returns a Sanitizer with the default redaction tables
func New() *Sanitizer {
	return &Sanitizer{
		rules:      textRules,
		fieldTerms: sensitiveFieldTerms,
	}
}

// Text redacts secrets and PII from free text. Under strict isolation any
// embedded user identifier other than the caller's own is masked as well.
// Idempotent, and never fails on any input.
func (s *Sanitizer) Text(text string, user *types.UserContext) string {
	if text == "" {
		return text
	}
	for _, r := range s.rules {
		text = r.pattern.ReplaceAllString(text, r.marker)
	}
	if user != nil && user.IsolationLevel == types.IsolationStrict {
		text = s.maskForeignUsers(text, user.UserID)
	}
	return text
}

// Map sanitizes a mapping recursively. Values under keys whose lowercased
// name contains a sensitive term are replaced wholesale; remaining string
// leaves go through Text, nested mappings and lists recurse, and any other
// leaf passes through unchanged.
func (s *Sanitizer) Map(data map[string]interface{}, user *types.UserContext) map[string]interface{} {
	if data == nil {
		return nil
	}
	out := make(map[string]interface{}, len(data))
	for key, value := range data {
		if s.isSensitiveField(key) {
			out[key] = redactedField
			continue
		}
		out[key] = s.Value(value, user)
	}
	return out
}

// Value sanitizes a single value of unknown shape. Malformed or unhandled
// leaves fall back to the input unchanged rather than failing.
func (s *Sanitizer) Value(value interface{}, user *types.UserContext) interface{} {
	switch v := value.(type) {
	case string:
		return s.Text(v, user)
	case map[string]interface{}:
		return s.Map(v, user)
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = s.Value(item, user)
		}
		return out
	default:
		return value
	}
}

func (s *Sanitizer) isSensitiveField(key string) bool {
	lowered := strings.ToLower(key)
	for _, term := range s.fieldTerms {
		if strings.Contains(lowered, term) {
			return true
		}
	}
	return false
}

// maskForeignUsers replaces user identifiers that do not belong to the
// caller. The caller's own identifier is left intact.
func (s *Sanitizer) maskForeignUsers(text, callerID string) string {
	return userIDRe.ReplaceAllStringFunc(text, func(match string) string {
		if strings.EqualFold(match, callerID) {
			return match
		}
		return redactedUser
	})
}
