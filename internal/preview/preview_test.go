package preview

import (
	"reflect"
	"testing"
)

func TestResolver_DefaultSamples(t *testing.T) {
	r := New()

	got := r.Resolve("{RackName} / {Department}")
	if got != "AUDIO-RK-01 / Audio" {
		t.Errorf("Expected default samples, got %q", got)
	}
}

func TestResolver_WithSampleData(t *testing.T) {
	r := New()
	r.SetSampleData(map[string]interface{}{
		"RackName": "VIDEO-RK-02",
		"Count":    12,
	})

	tests := []struct {
		in   string
		want string
	}{
		{"{RackName}", "VIDEO-RK-02"},
		{"Qty {Count}", "Qty 12"},
		{"no tokens", "no tokens"},
		{"{Unknown}", "Unknown"},
		{"{not a token}", "{not a token}"},
	}

	for _, tt := range tests {
		if got := r.Resolve(tt.in); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolver_PrefixSuffix(t *testing.T) {
	r := New()
	r.SetSample("Length", Sample{Value: 25, Suffix: "ft"})
	r.SetSample("Case", Sample{Value: "7", Prefix: "#"})

	if got := r.Resolve("{Case} {Length}"); got != "#7 25ft" {
		t.Errorf("Expected prefixed and suffixed values, got %q", got)
	}
}

func TestVariables(t *testing.T) {
	got := Variables("{Source} -> {Destination} ({Source})")
	want := []string{"Source", "Destination"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Variables() = %v, want %v", got, want)
	}
}
