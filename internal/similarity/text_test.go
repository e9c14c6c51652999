package similarity

import (
	"math"
	"testing"
)

func TestMeaningfulTokens(t *testing.T) {
	got := meaningfulTokens("The ConnectionError: timeout while connecting to db-primary!")
	want := []string{"connectionerror", "timeout", "connecting", "primary"}
	for _, tok := range want {
		if !got[tok] {
			t.Errorf("expected token %q in %v", tok, got)
		}
	}
	for _, tok := range []string{"the", "while", "to", "db"} {
		if got[tok] {
			t.Errorf("token %q should have been filtered", tok)
		}
	}
}

func TestTokenOverlap(t *testing.T) {
	set := func(tokens ...string) map[string]bool {
		m := make(map[string]bool, len(tokens))
		for _, tok := range tokens {
			m[tok] = true
		}
		return m
	}

	tests := []struct {
		name           string
		new, candidate map[string]bool
		want           float64
	}{
		{"identical", set("alpha", "beta"), set("alpha", "beta"), 1.0},
		{"disjoint", set("alpha"), set("beta"), 0.0},
		{"two of three", set("alpha", "beta", "gamma"), set("alpha", "beta", "delta"), 2.0 / 3.0},
		{"candidate noise does not dilute", set("alpha", "beta"), set("alpha", "beta", "x1", "x2", "x3"), 1.0},
		{"empty new side", set(), set("alpha"), 0.0},
		{"both empty", set(), set(), 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tokenOverlap(tt.new, tt.candidate); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("tokenOverlap = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestTokenOverlapMonotonic(t *testing.T) {
	// Adding another shared token to both sides never lowers the score.
	newTokens := map[string]bool{"alpha": true, "beta": true, "gamma": true}
	candidate := map[string]bool{"alpha": true, "delta": true}

	before := tokenOverlap(newTokens, candidate)
	newTokens["shared"] = true
	candidate["shared"] = true
	after := tokenOverlap(newTokens, candidate)

	if after < before {
		t.Errorf("overlap decreased after adding a shared token: %f -> %f", before, after)
	}
}

func TestSequenceRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "connection timeout", "connection timeout", 1.0},
		{"disjoint", "aaaa", "bbbb", 0.0},
		{"both empty", "", "", 0.0},
		{"one empty", "abc", "", 0.0},
		// blocks "ab" and "d": 2*3/8
		{"partial", "abcd", "abed", 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sequenceRatio(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("sequenceRatio(%q, %q) = %f, want %f", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSequenceRatioScattersScoreLow(t *testing.T) {
	// Only contiguous runs count: interleaved characters must not add up
	// the way a subsequence measure would.
	got := sequenceRatio("axbxcxdx", "aybycydy")
	if got > 0.5 {
		t.Errorf("scattered single-character matches scored %f, want something low", got)
	}
}

func TestLineRatio(t *testing.T) {
	a := "frame one\nframe two\nframe three"
	b := "frame one\nframe two\nframe four"
	// 2 shared lines of 3+3
	if got, want := lineRatio(a, b), 2.0*2.0/6.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("lineRatio = %f, want %f", got, want)
	}
	if got := lineRatio("", a); got != 0.0 {
		t.Errorf("lineRatio with empty side = %f, want 0", got)
	}
	if got := lineRatio(a, a); got != 1.0 {
		t.Errorf("lineRatio identical = %f, want 1", got)
	}
}
