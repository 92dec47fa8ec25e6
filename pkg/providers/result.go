package providers

import (
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/processing/costs"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/processing/tokens"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/stream"
)

// FinalizeResult builds the terminal summary result from the accumulated
// output and the last-seen usage snapshot.
//
// Reconciliation policy: when the provider reported either per-side count,
// the total is recomputed as prompt+completion, overriding any reported
// total. When only a total was reported it is trusted verbatim and the
// per-side counts stay zero. Measured and estimated figures are never mixed:
// the estimator is consulted only when no counter was reported at all.
func FinalizeResult(messages []Message, output string, usage Usage, model, provider string, calc *costs.Calculator) *stream.Result {
	prompt := usage.PromptTokens
	completion := usage.CompletionTokens
	total := usage.TotalTokens

	switch {
	case prompt > 0 || completion > 0:
		total = prompt + completion
	case total > 0:
		// Trusted as reported; per-side counts remain unknown.
	default:
		if len(messages) > 0 || output != "" {
			prompt = tokens.EstimatePromptTokens(MessageContents(messages))
			completion = tokens.EstimateTokens(output)
			total = prompt + completion
		}
	}

	var cost float64
	if calc != nil {
		cost = calc.Cost(prompt, completion, model, provider)
	}

	return &stream.Result{
		Summary:          output,
		TokensUsed:       total,
		PromptTokens:     prompt,
		CompletionTokens: completion,
		Cost:             cost,
		Model:            model,
	}
}
