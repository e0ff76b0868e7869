package classify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/clausecheck/extract"
)

func clauseOfSize(index, chars int) extract.ClauseBlock {
	return extract.ClauseBlock{Index: index, Text: strings.Repeat("a", chars)}
}

func TestBuildBatches_GroupsUpToBudget(t *testing.T) {
	// 100 chars ≈ 25 tokens each; budget 60 fits two per batch.
	clauses := []extract.ClauseBlock{
		clauseOfSize(1, 100),
		clauseOfSize(2, 100),
		clauseOfSize(3, 100),
		clauseOfSize(4, 100),
		clauseOfSize(5, 100),
	}

	batches := buildBatches(clauses, 60)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0].Clauses, 2)
	assert.Len(t, batches[1].Clauses, 2)
	assert.Len(t, batches[2].Clauses, 1)
}

func TestBuildBatches_PreservesDocumentOrder(t *testing.T) {
	clauses := []extract.ClauseBlock{
		clauseOfSize(1, 40),
		clauseOfSize(2, 40),
		clauseOfSize(3, 40),
	}

	batches := buildBatches(clauses, 15)

	var indexes []int
	for _, b := range batches {
		for _, c := range b.Clauses {
			indexes = append(indexes, c.Index)
		}
	}
	assert.Equal(t, []int{1, 2, 3}, indexes)
}

func TestBuildBatches_OversizedClauseGetsOwnBatch(t *testing.T) {
	clauses := []extract.ClauseBlock{
		clauseOfSize(1, 40),
		clauseOfSize(2, 4000), // far over budget on its own
		clauseOfSize(3, 40),
	}

	batches := buildBatches(clauses, 100)
	require.Len(t, batches, 3)
	assert.Equal(t, 2, batches[1].Clauses[0].Index)
	assert.Len(t, batches[1].Clauses, 1, "an oversized clause is never split or merged")
}

func TestBuildBatches_SingleBatchUnderBudget(t *testing.T) {
	clauses := []extract.ClauseBlock{
		clauseOfSize(1, 40),
		clauseOfSize(2, 40),
	}

	batches := buildBatches(clauses, 1000)
	require.Len(t, batches, 1)
	assert.Len(t, batches[0].Clauses, 2)
}

func TestBuildBatches_Empty(t *testing.T) {
	assert.Empty(t, buildBatches(nil, 100))
}

func TestBuildBatches_ZeroBudgetUsesDefault(t *testing.T) {
	clauses := []extract.ClauseBlock{
		clauseOfSize(1, 400),
		clauseOfSize(2, 400),
	}

	batches := buildBatches(clauses, 0)
	require.Len(t, batches, 1, "default budget easily fits both clauses")
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, estimateTokens(""))
	assert.Equal(t, 25, estimateTokens(strings.Repeat("x", 100)))
}
