package dedup

import (
	"reflect"
	"testing"
)

func TestKeyTerms(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    []string
	}{
		{
			name:    "technical terms outrank long words",
			message: "No module named 'requests'",
			want:    []string{"module", "requests", "named"},
		},
		{
			name:    "masked values never become terms",
			message: "Connection timeout after 30s at 10.0.0.5",
			want:    []string{"connection", "timeout", "after"},
		},
		{
			name:    "empty message",
			message: "",
			want:    []string{},
		},
		{
			name:    "short tokens are dropped",
			message: "db up now ok yes",
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KeyTerms(tt.message)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("KeyTerms(%q) = %v, want %v", tt.message, got, tt.want)
			}
		})
	}
}

func TestKeyTermsCapped(t *testing.T) {
	message := "database connection timeout during schema migration while session token permission checks were running"
	got := KeyTerms(message)
	if len(got) != maxKeyTerms {
		t.Errorf("len = %d, want %d (terms %v)", len(got), maxKeyTerms, got)
	}
}

func TestKeyTermsDeterministic(t *testing.T) {
	message := "alpha bravo charlie delta echos foxtrot"
	first := KeyTerms(message)
	for i := 0; i < 10; i++ {
		if got := KeyTerms(message); !reflect.DeepEqual(got, first) {
			t.Fatalf("KeyTerms not deterministic: %v vs %v", first, got)
		}
	}
}
