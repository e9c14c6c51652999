// Package fingerprint derives stable, short identifiers from normalized
// error characteristics for exact-duplicate lookup.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/netra-systems/zen-triage/internal/normalize"
	"github.com/netra-systems/zen-triage/internal/types"
)

// stackFrameCount bounds how many trailing frames feed the stack signature.
// Keeping only the last frames bounds sensitivity to irrelevant upstream
// callers while still distinguishing different failure paths through the
// same function.
const stackFrameCount = 3

// Generate computes the fingerprint for an error context: 16 hex characters
// of a sha256 over the canonical normalized fields. Two contexts whose
// normalized (error_type, message, service, environment) agree fingerprint
// identically regardless of timestamp, reporter, or raw-text noise.
func Generate(ec *types.ErrorContext) string {
	service := ec.Service
	if service == "" {
		service = "unknown"
	}
	environment := ec.Environment
	if environment == "" {
		environment = "unknown"
	}

	canonical := map[string]string{
		"error_type":  strings.ToLower(strings.TrimSpace(ec.ErrorType)),
		"message":     normalize.Message(ec.ErrorMessage),
		"service":     strings.ToLower(service),
		"environment": strings.ToLower(environment),
	}
	if sig := StackSignature(ec.StackTrace); sig != "" {
		canonical["stack"] = sig
	}

	// json.Marshal emits map keys in sorted order, giving a stable encoding
	data, err := json.Marshal(canonical)
	if err != nil {
		// Marshaling a map[string]string cannot fail; degrade to the raw
		// fields rather than propagate.
		data = []byte(canonical["error_type"] + "|" + canonical["message"])
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// StackSignature reduces a stack trace to the identifiers of its last few
// call frames, joined by "|". Returns "" when no trace is present.
func StackSignature(stackTrace string) string {
	normalized := normalize.StackTrace(stackTrace)
	if normalized == "" {
		return ""
	}

	lines := strings.Split(normalized, "\n")
	if len(lines) > stackFrameCount {
		lines = lines[len(lines)-stackFrameCount:]
	}

	idents := make([]string, 0, len(lines))
	for _, line := range lines {
		if ident := frameIdentifier(line); ident != "" {
			idents = append(idents, ident)
		}
	}
	return strings.Join(idents, "|")
}

// frameIdentifier extracts the most function-like token from one frame line.
// Python-style frames name the function after " in "; Go-style frames put a
// call expression before "("; anything else falls back to the last field.
func frameIdentifier(line string) string {
	if idx := strings.LastIndex(line, " in "); idx >= 0 {
		return strings.Trim(line[idx+4:], " :,")
	}
	if idx := strings.Index(line, "("); idx > 0 {
		head := line[:idx]
		fields := strings.Fields(head)
		if len(fields) > 0 {
			return fields[len(fields)-1]
		}
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[len(fields)-1], " :,")
}
