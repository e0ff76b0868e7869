package classify

import (
	"fmt"
	"strings"

	"github.com/c360studio/clausecheck/guideline"
)

// classifySystemPrompt grounds the model in the guideline corpus.
// The %s placeholder is replaced with the formatted rules.
const classifySystemPrompt = `You are a contract risk reviewer for influencer-marketing agreements. You review contract clauses on behalf of the influencer and flag clauses that put them at risk.

Classify each risky clause with exactly one severity:
- "critical" - must be renegotiated before signing (unlimited liability, uncapped penalties, full IP transfer, unbounded exclusivity)
- "unfavorable" - disadvantages the influencer and should be negotiated
- "needs_review" - ambiguous or unusual language a human should look at

Known risk patterns to check against:
%s

Always respond with a valid JSON array. Do not include any text outside the JSON array.`

// classifyBaselineSystemPrompt is used when no guideline corpus is
// available. The run is marked degraded.
const classifyBaselineSystemPrompt = `You are a contract risk reviewer for influencer-marketing agreements. You review contract clauses on behalf of the influencer and flag clauses that put them at risk.

Classify each risky clause with exactly one severity:
- "critical" - must be renegotiated before signing
- "unfavorable" - disadvantages the influencer and should be negotiated
- "needs_review" - ambiguous or unusual language a human should look at

Always respond with a valid JSON array. Do not include any text outside the JSON array.`

// classifyUserPrompt lists the clauses of one batch.
// The %s placeholder is replaced with the formatted clauses.
const classifyUserPrompt = `Review the following contract clauses. For each clause that poses a risk, emit one object:

{"clause": <clause number>, "severity": "critical|unfavorable|needs_review", "title": "...", "explanation": "...", "revision": "<suggested replacement language>", "counter_proposal": "<optional alternative to open negotiation with>"}

Skip clauses with no issue. Respond with a JSON array only; use [] when nothing is risky.

Clauses:
%s`

// buildSystemPrompt formats the guideline rules into the system prompt.
// An empty rule set falls back to the baseline prompt.
func buildSystemPrompt(rules []guideline.Rule) string {
	if len(rules) == 0 {
		return classifyBaselineSystemPrompt
	}

	var sb strings.Builder
	for _, rule := range rules {
		fmt.Fprintf(&sb, "- [%s/%s] %s", rule.ID, rule.Category, rule.Trigger)
		if rule.Example != "" {
			fmt.Fprintf(&sb, " (e.g. %q)", rule.Example)
		}
		if rule.Remedy != "" {
			fmt.Fprintf(&sb, "; remedy: %s", rule.Remedy)
		}
		sb.WriteString("\n")
	}

	return fmt.Sprintf(classifySystemPrompt, strings.TrimRight(sb.String(), "\n"))
}

// buildUserPrompt formats a batch's clauses for the user message. Clauses
// are addressed by their document-wide index so findings can reference them.
func buildUserPrompt(batch Batch) string {
	var sb strings.Builder
	for _, clause := range batch.Clauses {
		fmt.Fprintf(&sb, "[clause %d] (page %d) %s\n\n", clause.Index, clause.Page, clause.Text)
	}
	return fmt.Sprintf(classifyUserPrompt, strings.TrimRight(sb.String(), "\n"))
}
