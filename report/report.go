// Package report assembles classified findings into the final, ordered,
// deduplicated analysis report artifact.
package report

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/clausecheck/cost"
	"github.com/c360studio/clausecheck/risk"
)

// AnalysisReport is the ownership root of one analysis run. It is created
// once per run, immutable after assembly, and owned exclusively by the
// caller that requested the analysis.
type AnalysisReport struct {
	// ID uniquely identifies this report.
	ID string

	// GeneratedAt is the assembly timestamp.
	GeneratedAt time.Time

	// Model is the model identifier actually used, useful when the run
	// degraded to the baseline prompt.
	Model string

	// ContractName labels the analyzed document in the rendered report.
	ContractName string

	// Findings is ordered by severity rank descending, then clause index
	// ascending. The report exclusively owns its findings.
	Findings []risk.Finding

	// Cost is the token/cost annotation for the run.
	Cost cost.Info

	// ClauseCount is the number of clauses extracted and analyzed.
	ClauseCount int

	// Degraded is true when a fallback was used (missing guideline corpus
	// or at least one failed batch).
	Degraded bool

	// FailedBatches counts batches whose external call could not complete.
	FailedBatches int
}

// Meta carries run context the assembler stamps onto the report.
type Meta struct {
	Model         string
	ContractName  string
	ClauseCount   int
	Degraded      bool
	FailedBatches int
}

// Assemble merges findings into a report: findings referencing the same
// clause with identical title and severity collapse to one (keeping the
// richest explanation), and the rest are sorted by severity rank then
// clause index.
func Assemble(findings []risk.Finding, costInfo cost.Info, meta Meta) *AnalysisReport {
	merged := dedupe(findings)

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Severity.Rank() != merged[j].Severity.Rank() {
			return merged[i].Severity.Rank() > merged[j].Severity.Rank()
		}
		if merged[i].ClauseIndex != merged[j].ClauseIndex {
			return merged[i].ClauseIndex < merged[j].ClauseIndex
		}
		return merged[i].Title < merged[j].Title
	})

	return &AnalysisReport{
		ID:            uuid.New().String(),
		GeneratedAt:   time.Now(),
		Model:         meta.Model,
		ContractName:  meta.ContractName,
		Findings:      merged,
		Cost:          costInfo,
		ClauseCount:   meta.ClauseCount,
		Degraded:      meta.Degraded,
		FailedBatches: meta.FailedBatches,
	}
}

// dedupeKey identifies duplicate findings.
type dedupeKey struct {
	clause   int
	title    string
	severity risk.Severity
}

// dedupe collapses findings with identical (clause, title, severity),
// keeping the one with the richest explanation.
func dedupe(findings []risk.Finding) []risk.Finding {
	byKey := make(map[dedupeKey]int, len(findings))
	merged := make([]risk.Finding, 0, len(findings))

	for _, f := range findings {
		key := dedupeKey{clause: f.ClauseIndex, title: f.Title, severity: f.Severity}
		if i, seen := byKey[key]; seen {
			if len(f.Explanation) > len(merged[i].Explanation) {
				merged[i].Explanation = f.Explanation
			}
			if merged[i].Revision == "" {
				merged[i].Revision = f.Revision
			}
			if merged[i].CounterProposal == "" {
				merged[i].CounterProposal = f.CounterProposal
			}
			continue
		}
		byKey[key] = len(merged)
		merged = append(merged, f)
	}

	return merged
}

// CountBySeverity returns the number of findings per severity.
func (r *AnalysisReport) CountBySeverity() map[risk.Severity]int {
	counts := make(map[risk.Severity]int, 3)
	for _, f := range r.Findings {
		counts[f.Severity]++
	}
	return counts
}
