package topic

import (
	"reflect"
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"ampersand", "Routing & Navigation", "routing-navigation"},
		{"already canonical", "error-handling", "error-handling"},
		{"case folded", "HOOKS", "hooks"},
		{"punctuation collapsed", "state // management!!", "state-management"},
		{"leading and trailing noise", "  --routing--  ", "routing"},
		{"too short", "db", ""},
		{"too long", strings.Repeat("a", MaxTagLen+1), ""},
		{"exactly max", strings.Repeat("a", MaxTagLen), strings.Repeat("a", MaxTagLen)},
		{"exactly min", "api", "api"},
		{"only punctuation", "???", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.raw); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"Routing & Navigation", "Server-Side Rendering", "hooks", "a b c"}
	for _, raw := range inputs {
		once := Normalize(raw)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize(%q): second pass changed %q to %q", raw, once, twice)
		}
	}
}

func TestNormalizeAll(t *testing.T) {
	got := NormalizeAll([]string{"Routing", "routing", "x", "State Management", "ROUTING"})
	want := []string{"routing", "state-management"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeAll() = %v, want %v", got, want)
	}
}

func TestUnion(t *testing.T) {
	got := Union(
		[]string{"routing", "hooks"},
		[]string{"hooks", "state-management"},
		[]string{"routing"},
	)
	want := []string{"routing", "hooks", "state-management"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Union() = %v, want %v", got, want)
	}
}

func TestUnion_EmptyIsNotNil(t *testing.T) {
	got := Union()
	if got == nil {
		t.Fatal("Union() returned nil, want empty slice")
	}
	if len(got) != 0 {
		t.Errorf("Union() = %v, want empty", got)
	}
}
