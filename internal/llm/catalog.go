package llm

import (
	"sort"
	"strings"
)

// ModelCost is USD per million tokens.
type ModelCost struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// Cost returns the USD cost of one request.
func (c ModelCost) Cost(inputTokens, outputTokens int) float64 {
	return (float64(inputTokens)*c.InputPerMTok + float64(outputTokens)*c.OutputPerMTok) / 1_000_000
}

// Model is a catalog entry: the short name accepted in configuration and
// the vendor model id it resolves to.
type Model struct {
	Alias string
	ID    string
	Cost  ModelCost
}

// catalog lists the models the configuration defaults and aliases can
// select. Prices as of 2026-02.
var catalog = map[string][]Model{
	"anthropic": {
		{Alias: "claude-haiku", ID: "claude-haiku-4-5-20251001", Cost: ModelCost{1, 5}},
		{Alias: "claude-sonnet", ID: "claude-sonnet-4-20250514", Cost: ModelCost{3, 15}},
	},
	"openai": {
		{Alias: "gpt-4o-mini", ID: "gpt-4o-mini", Cost: ModelCost{0.15, 0.6}},
		{Alias: "gpt-4o", ID: "gpt-4o", Cost: ModelCost{2.5, 10}},
	},
	"gemini": {
		{Alias: "gemini-flash", ID: "gemini-2.0-flash", Cost: ModelCost{0.1, 0.4}},
		{Alias: "gemini-pro", ID: "gemini-2.5-pro", Cost: ModelCost{1.25, 10}},
	},
	"openrouter": {
		{Alias: "gemini-flash", ID: "google/gemini-2.0-flash-001", Cost: ModelCost{0.1, 0.4}},
	},
}

// resolveModel maps an alias to its vendor id. Unknown names pass through
// so a full model id can be configured directly.
func resolveModel(provider, name string) string {
	for _, m := range catalog[provider] {
		if m.Alias == name {
			return m.ID
		}
	}
	return name
}

// Models returns the catalog entries of provider.
func Models(provider string) []Model {
	return append([]Model(nil), catalog[provider]...)
}

// LookupCost returns the pricing of modelID, or nil when it is not in the
// catalog. Vendors often report a dated snapshot ("gpt-4o-mini-2024-07-18"),
// so the longest catalog id that prefixes modelID wins.
func LookupCost(modelID string) *ModelCost {
	type candidate struct {
		id   string
		cost ModelCost
	}
	var matches []candidate
	for _, models := range catalog {
		for _, m := range models {
			if modelID == m.ID || strings.HasPrefix(modelID, m.ID+"-") {
				matches = append(matches, candidate{m.ID, m.Cost})
			}
		}
	}
	if len(matches) == 0 {
		return nil
	}
	sort.Slice(matches, func(i, j int) bool { return len(matches[i].id) > len(matches[j].id) })
	c := matches[0].cost
	return &c
}
