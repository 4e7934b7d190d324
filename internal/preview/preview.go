// Package preview substitutes {Variable} tokens with sample values so a
// template can be previewed without show data.
package preview

import (
	"fmt"
	"regexp"
	"sort"
)

var tokenPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// DefaultSamples are used for variables without a configured sample
var DefaultSamples = map[string]interface{}{
	"ShowName":    "Summer Tour 2026",
	"Venue":       "Main Arena",
	"RackName":    "AUDIO-RK-01",
	"CableName":   "CBL-0427",
	"CableType":   "Cat6A",
	"Length":      "50ft",
	"LoomName":    "LOOM-A3",
	"CaseNumber":  "042",
	"Department":  "Audio",
	"Source":      "FOH Rack",
	"Destination": "Stage Left",
	"VLAN":        "110",
	"AssetTag":    "A00123456",
}

// Sample describes a configured sample value with optional decoration
type Sample struct {
	Value  interface{}
	Prefix string
	Suffix string
}

// Resolver replaces {Variable} tokens with sample values
type Resolver struct {
	samples map[string]Sample
}

// New creates a resolver seeded with DefaultSamples
func New() *Resolver {
	r := &Resolver{samples: make(map[string]Sample)}
	for name, v := range DefaultSamples {
		r.samples[name] = Sample{Value: v}
	}
	return r
}

// SetSampleData overrides sample values by variable name
func (r *Resolver) SetSampleData(data map[string]interface{}) {
	for name, v := range data {
		r.samples[name] = Sample{Value: v}
	}
}

// SetSample sets one sample with prefix and suffix
func (r *Resolver) SetSample(name string, s Sample) {
	r.samples[name] = s
}

// Resolve returns text with every known token replaced. Unknown tokens
// fall back to the bare variable name so the layout still shows text.
func (r *Resolver) Resolve(text string) string {
	return tokenPattern.ReplaceAllStringFunc(text, func(token string) string {
		name := token[1 : len(token)-1]
		s, ok := r.samples[name]
		if !ok {
			return name
		}
		return formatValue(s.Value, s.Prefix, s.Suffix)
	})
}

// Variables lists the distinct variable names referenced by text in order of appearance
func Variables(text string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range tokenPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Known returns the sorted names of all variables with samples
func (r *Resolver) Known() []string {
	names := make([]string, 0, len(r.samples))
	for name := range r.samples {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func formatValue(value interface{}, prefix string, suffix string) string {
	if value == nil {
		return ""
	}

	return fmt.Sprintf("%s%v%s", prefix, value, suffix)
}
