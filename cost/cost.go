// Package cost converts model token usage into a local-currency cost
// estimate. Pure computation: no I/O, no external calls.
package cost

import (
	"fmt"
	"math"
	"strings"

	"github.com/c360studio/clausecheck/llm"
)

// pricing is USD per one million tokens.
type pricing struct {
	promptPer1M     float64
	completionPer1M float64
}

// modelPricing maps model-name substrings to prices. First match wins; the
// default row covers unknown models with the sonnet rate so estimates stay
// conservative rather than zero.
var modelPricing = []struct {
	match string
	pricing
}{
	{"haiku", pricing{promptPer1M: 0.80, completionPer1M: 4.00}},
	{"opus", pricing{promptPer1M: 15.00, completionPer1M: 75.00}},
	{"sonnet", pricing{promptPer1M: 3.00, completionPer1M: 15.00}},
	{"gpt-4o-mini", pricing{promptPer1M: 0.15, completionPer1M: 0.60}},
	{"gpt-4o", pricing{promptPer1M: 2.50, completionPer1M: 10.00}},
}

// defaultPricing is used when no model row matches.
var defaultPricing = pricing{promptPer1M: 3.00, completionPer1M: 15.00}

// Info is the cost annotation attached to a report.
type Info struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`

	// ModelCurrency is the estimated cost in the provider's currency (USD).
	ModelCurrency float64 `json:"model_currency"`

	// LocalCurrency is ModelCurrency multiplied by the configured exchange
	// rate.
	LocalCurrency float64 `json:"local_currency"`

	// ExchangeRate is the multiplier that produced LocalCurrency.
	ExchangeRate float64 `json:"exchange_rate"`
}

// Estimate computes the cost of the given token usage for a model at the
// given exchange rate. Both amounts are rounded half-up to 2 decimal places;
// the local amount is the exact product of the rounded USD amount and the
// rate, then rounded the same way. Rejects a non-positive exchange rate.
func Estimate(usage llm.TokenUsage, model string, exchangeRate float64) (Info, error) {
	if exchangeRate <= 0 {
		return Info{}, fmt.Errorf("exchange rate must be positive, got %v", exchangeRate)
	}

	p := priceFor(model)
	usd := float64(usage.PromptTokens)/1_000_000*p.promptPer1M +
		float64(usage.CompletionTokens)/1_000_000*p.completionPer1M
	usd = round2(usd)

	return Info{
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.PromptTokens + usage.CompletionTokens,
		ModelCurrency:    usd,
		LocalCurrency:    round2(usd * exchangeRate),
		ExchangeRate:     exchangeRate,
	}, nil
}

// priceFor resolves the pricing row for a model name.
func priceFor(model string) pricing {
	name := strings.ToLower(model)
	for _, row := range modelPricing {
		if strings.Contains(name, row.match) {
			return row.pricing
		}
	}
	return defaultPricing
}

// round2 rounds half away from zero to 2 decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
