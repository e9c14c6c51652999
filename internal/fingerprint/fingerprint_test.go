package fingerprint

import (
	"regexp"
	"testing"
	"time"

	"github.com/netra-systems/zen-triage/internal/types"
)

var hexRe = regexp.MustCompile(`^[0-9a-f]{16}$`)

func baseContext() *types.ErrorContext {
	return &types.ErrorContext{
		ErrorMessage: "Connection timeout after 30s to database at 10.0.0.5",
		ErrorType:    "ConnectionError",
		Service:      "api-gateway",
		Environment:  "production",
		Timestamp:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		ReporterID:   "user-alpha",
	}
}

func TestGenerateFormat(t *testing.T) {
	fp := Generate(baseContext())
	if !hexRe.MatchString(fp) {
		t.Errorf("fingerprint %q is not 16 lowercase hex characters", fp)
	}
}

func TestGenerateStableAcrossNoise(t *testing.T) {
	want := Generate(baseContext())

	variants := []struct {
		name   string
		mutate func(ec *types.ErrorContext)
	}{
		{"different timestamp", func(ec *types.ErrorContext) {
			ec.Timestamp = ec.Timestamp.Add(48 * time.Hour)
		}},
		{"different reporter", func(ec *types.ErrorContext) {
			ec.ReporterID = "user-beta"
		}},
		{"different embedded address", func(ec *types.ErrorContext) {
			ec.ErrorMessage = "Connection timeout after 30s to database at 192.168.4.40"
		}},
		{"different casing and spacing", func(ec *types.ErrorContext) {
			ec.ErrorMessage = "  CONNECTION   timeout after 30s to DATABASE at 10.0.0.5"
		}},
	}

	for _, tt := range variants {
		t.Run(tt.name, func(t *testing.T) {
			ec := baseContext()
			tt.mutate(ec)
			if got := Generate(ec); got != want {
				t.Errorf("fingerprint changed: got %s, want %s", got, want)
			}
		})
	}
}

func TestGenerateDistinguishes(t *testing.T) {
	want := Generate(baseContext())

	variants := []struct {
		name   string
		mutate func(ec *types.ErrorContext)
	}{
		{"different error type", func(ec *types.ErrorContext) { ec.ErrorType = "TimeoutError" }},
		{"different service", func(ec *types.ErrorContext) { ec.Service = "billing" }},
		{"different environment", func(ec *types.ErrorContext) { ec.Environment = "staging" }},
		{"different message shape", func(ec *types.ErrorContext) { ec.ErrorMessage = "disk full on volume" }},
		{"stack trace added", func(ec *types.ErrorContext) {
			ec.StackTrace = "  File \"app.py\", line 10, in handler\n  File \"db.py\", line 3, in query"
		}},
	}

	for _, tt := range variants {
		t.Run(tt.name, func(t *testing.T) {
			ec := baseContext()
			tt.mutate(ec)
			if got := Generate(ec); got == want {
				t.Errorf("fingerprint did not change for %s", tt.name)
			}
		})
	}
}

func TestGenerateEmptyServiceDefaults(t *testing.T) {
	a := baseContext()
	a.Service = ""
	a.Environment = ""
	b := baseContext()
	b.Service = "unknown"
	b.Environment = "unknown"
	if Generate(a) != Generate(b) {
		t.Errorf("empty service/environment should fingerprint as \"unknown\"")
	}
}

func TestStackSignature(t *testing.T) {
	tests := []struct {
		name  string
		stack string
		want  string
	}{
		{
			name:  "empty",
			stack: "",
			want:  "",
		},
		{
			name: "python frames keep function names",
			stack: "Traceback (most recent call last):\n" +
				"  File \"a.py\", line 1, in outer\n" +
				"  File \"b.py\", line 2, in middle\n" +
				"  File \"c.py\", line 3, in inner",
			want: "outer|middle|inner",
		},
		{
			name:  "fewer frames than the window",
			stack: "  File \"a.py\", line 1, in only_frame",
			want:  "only_frame",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StackSignature(tt.stack); got != tt.want {
				t.Errorf("StackSignature = %q, want %q", got, tt.want)
			}
		})
	}
}
