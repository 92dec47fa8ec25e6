package providers

import (
	"math"
	"testing"

	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/config"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/processing/costs"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/processing/tokens"
)

func TestFinalizeResultReconciliation(t *testing.T) {
	messages := []Message{{Role: "user", Content: "summarize me"}}

	tests := []struct {
		name           string
		output         string
		usage          Usage
		wantPrompt     int
		wantCompletion int
		wantTotal      int
	}{
		{
			name:           "per-side counts recompute total",
			output:         "done",
			usage:          Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 999},
			wantPrompt:     10,
			wantCompletion: 5,
			wantTotal:      15,
		},
		{
			name:           "prompt only still recomputes",
			output:         "done",
			usage:          Usage{PromptTokens: 10},
			wantPrompt:     10,
			wantCompletion: 0,
			wantTotal:      10,
		},
		{
			name:      "total only is trusted verbatim",
			output:    "done",
			usage:     Usage{TotalTokens: 42},
			wantTotal: 42,
		},
		{
			name:           "nothing reported falls back to estimation",
			output:         "hello world",
			usage:          Usage{},
			wantPrompt:     tokens.EstimatePromptTokens(MessageContents(messages)),
			wantCompletion: 3,
			wantTotal:      tokens.EstimatePromptTokens(MessageContents(messages)) + 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := FinalizeResult(messages, tt.output, tt.usage, "gpt-4o-mini", "openai", nil)
			if res.PromptTokens != tt.wantPrompt {
				t.Errorf("PromptTokens = %d, want %d", res.PromptTokens, tt.wantPrompt)
			}
			if res.CompletionTokens != tt.wantCompletion {
				t.Errorf("CompletionTokens = %d, want %d", res.CompletionTokens, tt.wantCompletion)
			}
			if res.TokensUsed != tt.wantTotal {
				t.Errorf("TokensUsed = %d, want %d", res.TokensUsed, tt.wantTotal)
			}
			if res.Summary != tt.output {
				t.Errorf("Summary = %q, want %q", res.Summary, tt.output)
			}
		})
	}
}

func TestFinalizeResultEmptyStreamStaysZero(t *testing.T) {
	res := FinalizeResult(nil, "", Usage{}, "m", "openai", nil)
	if res.PromptTokens != 0 || res.CompletionTokens != 0 || res.TokensUsed != 0 {
		t.Errorf("empty stream produced nonzero usage: %+v", res)
	}
}

func TestFinalizeResultCost(t *testing.T) {
	calc := costs.NewCalculator(config.PricingConfig{Models: config.DefaultPricing()})
	res := FinalizeResult(nil, "x",
		Usage{PromptTokens: 1000, CompletionTokens: 500},
		"some-unknown-model", "openai", calc)
	if math.Abs(res.Cost-0.0025) > 1e-12 {
		t.Errorf("Cost = %v, want 0.0025", res.Cost)
	}
}
