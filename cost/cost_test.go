package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/clausecheck/llm"
)

func TestEstimate(t *testing.T) {
	usage := llm.TokenUsage{PromptTokens: 1000, CompletionTokens: 500, TotalTokens: 1500}

	info, err := Estimate(usage, "claude-sonnet-4-5", 1300)
	require.NoError(t, err)

	// 1000 prompt at $3/1M + 500 completion at $15/1M = $0.003 + $0.0075,
	// rounded to $0.01.
	assert.Equal(t, 0.01, info.ModelCurrency)
	assert.Equal(t, 13.0, info.LocalCurrency)
	assert.Equal(t, 1300.0, info.ExchangeRate)
	assert.Equal(t, 1000, info.PromptTokens)
	assert.Equal(t, 500, info.CompletionTokens)
	assert.Equal(t, 1500, info.TotalTokens)
}

func TestEstimate_LocalIsRoundedProduct(t *testing.T) {
	// 100k prompt + 50k completion on sonnet = $0.30 + $0.75 = $1.05.
	usage := llm.TokenUsage{PromptTokens: 100_000, CompletionTokens: 50_000}

	info, err := Estimate(usage, "claude-sonnet-4-5", 1300)
	require.NoError(t, err)

	assert.Equal(t, 1.05, info.ModelCurrency)
	assert.Equal(t, 1365.0, info.LocalCurrency)
}

func TestEstimate_NonPositiveRate(t *testing.T) {
	usage := llm.TokenUsage{PromptTokens: 1000, CompletionTokens: 500}

	_, err := Estimate(usage, "claude-sonnet-4-5", 0)
	require.Error(t, err)

	_, err = Estimate(usage, "claude-sonnet-4-5", -1)
	require.Error(t, err)
}

func TestEstimate_ZeroUsage(t *testing.T) {
	info, err := Estimate(llm.TokenUsage{}, "claude-sonnet-4-5", 1300)
	require.NoError(t, err)

	assert.Zero(t, info.ModelCurrency)
	assert.Zero(t, info.LocalCurrency)
	assert.Zero(t, info.TotalTokens)
}

func TestPriceFor(t *testing.T) {
	tests := []struct {
		name            string
		model           string
		promptPer1M     float64
		completionPer1M float64
	}{
		{"sonnet", "claude-sonnet-4-5", 3.00, 15.00},
		{"haiku", "claude-haiku-3-5", 0.80, 4.00},
		{"opus", "claude-opus-4", 15.00, 75.00},
		{"gpt-4o-mini before gpt-4o", "gpt-4o-mini", 0.15, 0.60},
		{"gpt-4o", "gpt-4o-2024-08-06", 2.50, 10.00},
		{"case insensitive", "Claude-SONNET-4-5", 3.00, 15.00},
		{"unknown model uses default", "llama-3.3-70b", 3.00, 15.00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := priceFor(tt.model)
			assert.Equal(t, tt.promptPer1M, p.promptPer1M)
			assert.Equal(t, tt.completionPer1M, p.completionPer1M)
		})
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 0.01, round2(0.0105))
	assert.Equal(t, 1.05, round2(1.0499999))
	assert.Equal(t, 2.35, round2(2.346))
	assert.Equal(t, 0.0, round2(0.001))
}
