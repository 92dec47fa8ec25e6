// Package costs maps token usage to USD cost using a per-model price table.
package costs

import (
	"sort"
	"strings"
	"sync"

	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/config"
)

// Calculator prices token usage against a per-model price table. It is safe
// for concurrent use and supports hot reload of the pricing configuration.
type Calculator struct {
	mu      sync.RWMutex
	pricing config.PricingConfig
}

// NewCalculator creates a calculator with the given pricing configuration.
func NewCalculator(pricing config.PricingConfig) *Calculator {
	return &Calculator{pricing: pricing}
}

// Cost returns the USD cost of a request:
//
//	promptTokens/1000 * promptPrice + completionTokens/1000 * completionPrice
//
// Prices come from the provider's tier whose model key is a substring of the
// model name, falling back to the provider's default tier and then to the
// global default tier. An entirely unpriced model costs zero.
func (c *Calculator) Cost(promptTokens, completionTokens int, model, provider string) float64 {
	price := c.lookup(model, provider)
	return tokenCost(promptTokens, price.Prompt) + tokenCost(completionTokens, price.Completion)
}

// UpdatePricing replaces the price table. Safe to call while the calculator
// is in use.
func (c *Calculator) UpdatePricing(pricing config.PricingConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pricing = pricing
}

// lookup resolves the price tier for a model and provider.
func (c *Calculator) lookup(model, provider string) config.ModelPrice {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if tiers, ok := c.pricing.Models[provider]; ok {
		if price, ok := tiers[model]; ok {
			return price
		}

		// Substring match, longest key first so "gpt-4o-mini" wins over
		// "gpt-4" for model "gpt-4o-mini-2024-07-18".
		keys := make([]string, 0, len(tiers))
		for key := range tiers {
			if key != "default" {
				keys = append(keys, key)
			}
		}
		sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })
		for _, key := range keys {
			if strings.Contains(model, key) {
				return tiers[key]
			}
		}

		if price, ok := tiers["default"]; ok {
			return price
		}
	}

	if tiers, ok := c.pricing.Models["default"]; ok {
		if price, ok := tiers["default"]; ok {
			return price
		}
	}

	return config.ModelPrice{}
}

func tokenCost(tokens int, pricePer1K float64) float64 {
	if tokens <= 0 {
		return 0
	}
	return float64(tokens) / 1000.0 * pricePer1K
}
