package llm

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed pricing.yaml
var pricingYAML []byte

// Price is what one model charges, in USD per million tokens.
type Price struct {
	Input  float64 `yaml:"input"`
	Output float64 `yaml:"output"`
}

// Cost returns the USD cost of a call with the given token counts.
func (p Price) Cost(inputTokens, outputTokens int) float64 {
	return (float64(inputTokens)*p.Input + float64(outputTokens)*p.Output) / 1e6
}

var loadPrices = sync.OnceValues(func() (map[string]Price, error) {
	var byVendor map[string]map[string]Price
	if err := yaml.Unmarshal(pricingYAML, &byVendor); err != nil {
		return nil, fmt.Errorf("parse pricing table: %w", err)
	}
	prices := make(map[string]Price)
	for _, models := range byVendor {
		for id, p := range models {
			prices[id] = p
		}
	}
	return prices, nil
})

// PriceOf returns the price of modelID. OpenRouter IDs such as
// "openai/gpt-4o" fall back to their model part.
func PriceOf(modelID string) (Price, bool) {
	prices, err := loadPrices()
	if err != nil {
		return Price{}, false
	}
	if p, ok := prices[modelID]; ok {
		return p, true
	}
	if _, model, found := strings.Cut(modelID, "/"); found {
		p, ok := prices[model]
		return p, ok
	}
	return Price{}, false
}
