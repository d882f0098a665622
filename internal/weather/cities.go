package weather

import (
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// MatchCutoff is the minimum sequence-matcher ratio for a fuzzy hit.
const MatchCutoff = 0.6

// DefaultCities is the built-in fallback table.
var DefaultCities = map[string]KnownCity{
	"new york": {
		TempC:     25.0,
		Condition: "sunny",
		Humidity:  45,
		WindKph:   10,
		Timezone:  "America/New_York",
	},
	"london": {
		TempC:     15.0,
		Condition: "cloudy",
		Humidity:  70,
		WindKph:   12,
		Timezone:  "Europe/London",
	},
	"san francisco": {
		TempC:     18.0,
		Condition: "foggy",
		Humidity:  80,
		WindKph:   8,
		Timezone:  "America/Los_Angeles",
	},
	"tokyo": {
		TempC:     20.0,
		Condition: "partly cloudy",
		Humidity:  60,
		WindKph:   9,
		Timezone:  "Asia/Tokyo",
	},
}

// Resolver matches free-text input against a fixed set of known cities.
// It is immutable after construction and safe for concurrent use.
type Resolver struct {
	cities map[string]KnownCity
	keys   []string
	cutoff float64
}

// NewResolver builds a Resolver over cities. Keys are expected to be
// lowercase and trimmed.
func NewResolver(cities map[string]KnownCity) *Resolver {
	keys := make([]string, 0, len(cities))
	for k := range cities {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return &Resolver{
		cities: cities,
		keys:   keys,
		cutoff: MatchCutoff,
	}
}

// Resolve returns the key of the known city best matching input.
func (r *Resolver) Resolve(input string) (string, bool) {
	key := normalize(input)
	if _, ok := r.cities[key]; ok {
		return key, true
	}

	word := splitChars(key)
	best, bestScore := "", -1.0
	for _, candidate := range r.keys {
		m := difflib.NewMatcher(splitChars(candidate), word)
		if m.RealQuickRatio() < r.cutoff || m.QuickRatio() < r.cutoff {
			continue
		}
		score := m.Ratio()
		if score < r.cutoff {
			continue
		}
		// keys are sorted, so >= keeps the greater key on ties
		if score >= bestScore {
			best, bestScore = candidate, score
		}
	}

	if best == "" {
		return "", false
	}
	return best, true
}

// City returns the table entry for a resolved key.
func (r *Resolver) City(key string) (KnownCity, bool) {
	c, ok := r.cities[key]
	return c, ok
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func splitChars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
