package classify

import "github.com/c360studio/clausecheck/extract"

// charsPerToken is the approximate average characters per token for the
// tokenizers used by the supported providers.
const charsPerToken = 4

// Batch is a group of clauses sent together in one external call.
type Batch struct {
	// Clauses holds the blocks in document order. A clause is never split
	// across batches.
	Clauses []extract.ClauseBlock
}

// estimateTokens approximates the token count of a text.
func estimateTokens(text string) int {
	return len(text) / charsPerToken
}

// buildBatches groups clauses greedily up to the token budget, preserving
// document order. An oversized single clause forms its own batch rather
// than being split.
func buildBatches(clauses []extract.ClauseBlock, tokenBudget int) []Batch {
	if tokenBudget <= 0 {
		tokenBudget = defaultBatchTokenBudget
	}

	var batches []Batch
	var current Batch
	currentTokens := 0

	for _, clause := range clauses {
		clauseTokens := estimateTokens(clause.Text)

		if len(current.Clauses) > 0 && currentTokens+clauseTokens > tokenBudget {
			batches = append(batches, current)
			current = Batch{}
			currentTokens = 0
		}

		current.Clauses = append(current.Clauses, clause)
		currentTokens += clauseTokens
	}

	if len(current.Clauses) > 0 {
		batches = append(batches, current)
	}

	return batches
}
