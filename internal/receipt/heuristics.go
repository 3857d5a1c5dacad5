package receipt

import (
	"bytes"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Heuristics holds the store-specific rules used to interpret receipts.
// It is treated as an immutable value; the methods never modify it.
type Heuristics struct {
	// IgnoredProducts are substrings of row labels that are not products
	// (totals, discounts). Matching is case-insensitive.
	IgnoredProducts []string `yaml:"ignored_products"`

	// Stores are substrings identifying known store chains in header lines.
	// Matching is case-insensitive.
	Stores []string `yaml:"stores"`

	// SortRows visits table rows in numeric order instead of the order
	// the OCR service reported them in.
	SortRows bool `yaml:"sort_rows"`
}

// DefaultHeuristics returns the rules for the Finnish grocery chains the
// interpreter was tuned against
func DefaultHeuristics() Heuristics {
	return Heuristics{
		IgnoredProducts: []string{"yhteen", "alennus"},
		Stores:          []string{"s-market", "prisma", "sale", "k-market", "kcm", "k-citymarket"},
	}
}

// LoadHeuristics reads heuristics from a YAML file. Fields missing from the
// file keep their default values.
func LoadHeuristics(path string) (Heuristics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Heuristics{}, fmt.Errorf("reading heuristics: %w", err)
	}

	data = []byte(os.ExpandEnv(string(data)))

	h := DefaultHeuristics()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&h); err != nil {
		return Heuristics{}, fmt.Errorf("decoding heuristics: %w", err)
	}

	h.IgnoredProducts = lowerAll(h.IgnoredProducts)
	h.Stores = lowerAll(h.Stores)

	return h, nil
}

func lowerAll(values []string) []string {
	result := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			result = append(result, v)
		}
	}
	return result
}

// containsAny reports whether text contains any of the substrings,
// ignoring case
func containsAny(text string, substrings []string) bool {
	text = strings.ToLower(text)
	return slices.ContainsFunc(substrings, func(s string) bool {
		return strings.Contains(text, strings.ToLower(s))
	})
}
