// Package risk defines the fixed risk taxonomy and the finding type shared
// by the guideline store, the classifier, and the report assembler.
package risk

// Severity is the fixed three-level risk classification.
type Severity string

const (
	// SeverityCritical marks clauses that must be renegotiated before signing.
	SeverityCritical Severity = "critical"
	// SeverityUnfavorable marks clauses that disadvantage the influencer.
	SeverityUnfavorable Severity = "unfavorable"
	// SeverityNeedsReview marks clauses needing human attention, including
	// anything the classifier could not analyze.
	SeverityNeedsReview Severity = "needs_review"
)

// ParseSeverity normalizes a severity label. ok is false for labels outside
// the taxonomy; callers downgrade those to SeverityNeedsReview rather than
// dropping the finding.
func ParseSeverity(s string) (Severity, bool) {
	switch Severity(s) {
	case SeverityCritical, SeverityUnfavorable, SeverityNeedsReview:
		return Severity(s), true
	}
	return SeverityNeedsReview, false
}

// Rank orders severities for report sorting. Higher ranks sort first.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityUnfavorable:
		return 2
	case SeverityNeedsReview:
		return 1
	}
	return 0
}

// Badge returns the marker used for this severity in rendered reports.
func (s Severity) Badge() string {
	switch s {
	case SeverityCritical:
		return "🔴"
	case SeverityUnfavorable:
		return "🟡"
	default:
		return "🔵"
	}
}

// Finding is one detected issue tied to a clause by index. The clause text
// itself is not duplicated here beyond what the explanation needs.
type Finding struct {
	// ClauseIndex references the source clause by its 1-based index.
	ClauseIndex int `json:"clause"`

	// Severity is one of the three taxonomy values.
	Severity Severity `json:"severity"`

	// Title is a short label for the issue.
	Title string `json:"title"`

	// Explanation describes why the clause is risky.
	Explanation string `json:"explanation"`

	// Revision is the suggested replacement language.
	Revision string `json:"revision,omitempty"`

	// CounterProposal is optional alternative language to open negotiation with.
	CounterProposal string `json:"counter_proposal,omitempty"`
}
