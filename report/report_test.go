package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/clausecheck/cost"
	"github.com/c360studio/clausecheck/risk"
)

func TestAssemble_Ordering(t *testing.T) {
	findings := []risk.Finding{
		{ClauseIndex: 3, Severity: risk.SeverityNeedsReview, Title: "Vague deliverables"},
		{ClauseIndex: 5, Severity: risk.SeverityCritical, Title: "Uncapped penalty"},
		{ClauseIndex: 2, Severity: risk.SeverityUnfavorable, Title: "Net-60 payment"},
		{ClauseIndex: 1, Severity: risk.SeverityCritical, Title: "Unlimited liability"},
	}

	r := Assemble(findings, cost.Info{}, Meta{ClauseCount: 5})

	require.Len(t, r.Findings, 4)
	assert.Equal(t, "Unlimited liability", r.Findings[0].Title)
	assert.Equal(t, "Uncapped penalty", r.Findings[1].Title)
	assert.Equal(t, "Net-60 payment", r.Findings[2].Title)
	assert.Equal(t, "Vague deliverables", r.Findings[3].Title)
}

func TestAssemble_TitleBreaksTies(t *testing.T) {
	findings := []risk.Finding{
		{ClauseIndex: 1, Severity: risk.SeverityCritical, Title: "Zeta issue"},
		{ClauseIndex: 1, Severity: risk.SeverityCritical, Title: "Alpha issue"},
	}

	r := Assemble(findings, cost.Info{}, Meta{})
	require.Len(t, r.Findings, 2)
	assert.Equal(t, "Alpha issue", r.Findings[0].Title)
	assert.Equal(t, "Zeta issue", r.Findings[1].Title)
}

func TestAssemble_DeduplicatesIdenticalFindings(t *testing.T) {
	findings := []risk.Finding{
		{ClauseIndex: 1, Severity: risk.SeverityCritical, Title: "Unlimited liability", Explanation: "Short."},
		{ClauseIndex: 1, Severity: risk.SeverityCritical, Title: "Unlimited liability",
			Explanation: "A much longer and more detailed explanation.", Revision: "Cap it."},
		{ClauseIndex: 1, Severity: risk.SeverityCritical, Title: "Unlimited liability", Explanation: "Mid length one."},
	}

	r := Assemble(findings, cost.Info{}, Meta{})

	require.Len(t, r.Findings, 1)
	f := r.Findings[0]
	assert.Equal(t, "A much longer and more detailed explanation.", f.Explanation)
	assert.Equal(t, "Cap it.", f.Revision, "empty fields are filled from duplicates")
}

func TestAssemble_SameClauseDifferentSeverityKept(t *testing.T) {
	findings := []risk.Finding{
		{ClauseIndex: 1, Severity: risk.SeverityCritical, Title: "Unlimited liability"},
		{ClauseIndex: 1, Severity: risk.SeverityUnfavorable, Title: "Unlimited liability"},
		{ClauseIndex: 1, Severity: risk.SeverityCritical, Title: "Different title"},
	}

	r := Assemble(findings, cost.Info{}, Meta{})
	assert.Len(t, r.Findings, 3, "only identical (clause, title, severity) collapses")
}

func TestAssemble_StampsMeta(t *testing.T) {
	r := Assemble(nil, cost.Info{TotalTokens: 42}, Meta{
		Model:         "claude-sonnet-4-5",
		ContractName:  "campaign.pdf",
		ClauseCount:   7,
		Degraded:      true,
		FailedBatches: 1,
	})

	assert.NotEmpty(t, r.ID)
	assert.WithinDuration(t, time.Now(), r.GeneratedAt, 5*time.Second)
	assert.Equal(t, "claude-sonnet-4-5", r.Model)
	assert.Equal(t, "campaign.pdf", r.ContractName)
	assert.Equal(t, 7, r.ClauseCount)
	assert.True(t, r.Degraded)
	assert.Equal(t, 1, r.FailedBatches)
	assert.Equal(t, 42, r.Cost.TotalTokens)
}

func TestCountBySeverity(t *testing.T) {
	r := Assemble([]risk.Finding{
		{ClauseIndex: 1, Severity: risk.SeverityCritical, Title: "a"},
		{ClauseIndex: 2, Severity: risk.SeverityCritical, Title: "b"},
		{ClauseIndex: 3, Severity: risk.SeverityNeedsReview, Title: "c"},
	}, cost.Info{}, Meta{})

	counts := r.CountBySeverity()
	assert.Equal(t, 2, counts[risk.SeverityCritical])
	assert.Equal(t, 0, counts[risk.SeverityUnfavorable])
	assert.Equal(t, 1, counts[risk.SeverityNeedsReview])
}

func sampleReport() *AnalysisReport {
	return Assemble([]risk.Finding{
		{
			ClauseIndex:     2,
			Severity:        risk.SeverityCritical,
			Title:           "Unlimited liability",
			Explanation:     "Liability is uncapped.",
			Revision:        "Cap liability at total fees.",
			CounterProposal: "Liability shall not exceed the fees paid.",
		},
		{
			ClauseIndex: 4,
			Severity:    risk.SeverityUnfavorable,
			Title:       "Net-60 payment",
			Explanation: "Payment terms exceed 30 days.",
		},
	}, cost.Info{
		PromptTokens:     1000,
		CompletionTokens: 500,
		TotalTokens:      1500,
		ModelCurrency:    0.01,
		LocalCurrency:    13.0,
		ExchangeRate:     1300,
	}, Meta{
		Model:        "claude-sonnet-4-5",
		ContractName: "campaign.pdf",
		ClauseCount:  6,
	})
}

func TestMarkdown(t *testing.T) {
	md := sampleReport().Markdown()

	assert.Contains(t, md, "# Contract Risk Analysis Report")
	assert.Contains(t, md, "**Contract**: campaign.pdf")
	assert.Contains(t, md, "**Model**: claude-sonnet-4-5")
	assert.Contains(t, md, "🔴 Critical: 1")
	assert.Contains(t, md, "🟡 Unfavorable: 1")
	assert.Contains(t, md, "🔵 Needs review: 0")
	assert.Contains(t, md, "Clauses analyzed: 6")
	assert.Contains(t, md, "## 🔴 Unlimited liability (clause 2)")
	assert.Contains(t, md, "**Suggested revision**: Cap liability at total fees.")
	assert.Contains(t, md, "**Counter-proposal**: Liability shall not exceed the fees paid.")
	assert.Contains(t, md, "## 🟡 Net-60 payment (clause 4)")
	assert.Contains(t, md, "Tokens: 1000 prompt + 500 completion = 1500 total")
	assert.Contains(t, md, "$0.01 (local 13.00 at rate 1300.00)")
	assert.Contains(t, md, "does not replace legal advice")
	assert.NotContains(t, md, "Quality degraded")

	// Critical finding is rendered before the unfavorable one.
	assert.Less(t, strings.Index(md, "Unlimited liability"), strings.Index(md, "Net-60 payment"))
}

func TestMarkdown_Degraded(t *testing.T) {
	r := Assemble(nil, cost.Info{}, Meta{Degraded: true, FailedBatches: 2})
	md := r.Markdown()

	assert.Contains(t, md, "Quality degraded")
	assert.Contains(t, md, "2 batch(es) could not be analyzed")
}

func TestMarkdown_NoFindings(t *testing.T) {
	r := Assemble(nil, cost.Info{}, Meta{ContractName: "clean.pdf", ClauseCount: 3})
	md := r.Markdown()

	assert.Contains(t, md, "No risk findings")
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")

	path, err := sampleReport().WriteFile(dir)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(filepath.Base(path), "contract-analysis_campaign_"))
	assert.True(t, strings.HasSuffix(path, ".md"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Contract Risk Analysis Report")
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"strips pdf extension", "campaign.pdf", "campaign"},
		{"replaces spaces", "my contract draft", "my_contract_draft"},
		{"replaces unsafe characters", `a/b\c:d*e?f`, "a_b_c_d_e_f"},
		{"empty becomes placeholder", "", "contract"},
		{"bare extension becomes placeholder", ".pdf", "contract"},
		{"long names truncated", strings.Repeat("x", 80), strings.Repeat("x", 50)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeFilename(tt.in))
		})
	}
}
