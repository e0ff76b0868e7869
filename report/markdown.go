package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/c360studio/clausecheck/risk"
)

// reportFooter closes every rendered report with the usage disclaimer.
const reportFooter = `---

## Notes

1. This analysis is produced automatically and does not replace legal advice.
2. Have important contracts reviewed by a qualified lawyer.
3. Findings reflect the configured guideline corpus; interpretation may vary by situation.

*Report generated by clausecheck.*`

// Markdown renders the report as the human-readable artifact: a summary
// with per-severity counts, one subsection per finding in report order,
// the cost block, and the disclaimer footer.
func (r *AnalysisReport) Markdown() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Contract Risk Analysis Report\n\n")
	if r.ContractName != "" {
		fmt.Fprintf(&sb, "**Contract**: %s\n", r.ContractName)
	}
	fmt.Fprintf(&sb, "**Generated**: %s\n", r.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "**Model**: %s\n", r.Model)
	fmt.Fprintf(&sb, "**Report ID**: %s\n\n", r.ID)

	sb.WriteString("## Summary\n\n")
	counts := r.CountBySeverity()
	fmt.Fprintf(&sb, "- %s Critical: %d\n", risk.SeverityCritical.Badge(), counts[risk.SeverityCritical])
	fmt.Fprintf(&sb, "- %s Unfavorable: %d\n", risk.SeverityUnfavorable.Badge(), counts[risk.SeverityUnfavorable])
	fmt.Fprintf(&sb, "- %s Needs review: %d\n", risk.SeverityNeedsReview.Badge(), counts[risk.SeverityNeedsReview])
	fmt.Fprintf(&sb, "- Clauses analyzed: %d\n", r.ClauseCount)
	if r.Degraded {
		sb.WriteString("- ⚠️ Quality degraded: a fallback was used during this run")
		if r.FailedBatches > 0 {
			fmt.Fprintf(&sb, " (%d batch(es) could not be analyzed)", r.FailedBatches)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	if len(r.Findings) == 0 {
		sb.WriteString("No risk findings. The reviewed clauses contained no recognized issues.\n\n")
	}

	for _, f := range r.Findings {
		fmt.Fprintf(&sb, "## %s %s (clause %d)\n\n", f.Severity.Badge(), f.Title, f.ClauseIndex)
		fmt.Fprintf(&sb, "**Severity**: %s\n\n", f.Severity)
		fmt.Fprintf(&sb, "%s\n\n", f.Explanation)
		if f.Revision != "" {
			fmt.Fprintf(&sb, "**Suggested revision**: %s\n\n", f.Revision)
		}
		if f.CounterProposal != "" {
			fmt.Fprintf(&sb, "**Counter-proposal**: %s\n\n", f.CounterProposal)
		}
	}

	sb.WriteString("## Cost\n\n")
	fmt.Fprintf(&sb, "- Tokens: %d prompt + %d completion = %d total\n",
		r.Cost.PromptTokens, r.Cost.CompletionTokens, r.Cost.TotalTokens)
	fmt.Fprintf(&sb, "- Estimated cost: $%.2f (local %.2f at rate %.2f)\n\n",
		r.Cost.ModelCurrency, r.Cost.LocalCurrency, r.Cost.ExchangeRate)

	sb.WriteString(reportFooter)
	sb.WriteString("\n")

	return sb.String()
}

// WriteFile renders the report to a timestamped Markdown file inside dir,
// creating the directory if needed. Returns the written path.
func (r *AnalysisReport) WriteFile(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	name := fmt.Sprintf("contract-analysis_%s_%s.md",
		sanitizeFilename(r.ContractName),
		r.GeneratedAt.Format("20060102_150405"))
	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, []byte(r.Markdown()), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// sanitizeFilename strips characters that are unsafe in file names and
// bounds the length.
func sanitizeFilename(name string) string {
	name = strings.TrimSuffix(name, ".pdf")
	if name == "" {
		return "contract"
	}

	replacer := strings.NewReplacer(
		"<", "_", ">", "_", ":", "_", "\"", "_", "/", "_",
		"\\", "_", "|", "_", "?", "_", "*", "_", " ", "_",
	)
	name = replacer.Replace(name)

	if len(name) > 50 {
		name = name[:50]
	}
	return name
}
