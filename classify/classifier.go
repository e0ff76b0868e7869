// Package classify drives the external reasoning service over extracted
// clauses and turns its responses into typed risk findings.
package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/c360studio/clausecheck/extract"
	"github.com/c360studio/clausecheck/guideline"
	"github.com/c360studio/clausecheck/llm"
	"github.com/c360studio/clausecheck/risk"
)

const (
	defaultBatchTokenBudget = 8000
	defaultWorkers          = 2
	defaultMaxTokens        = 4000
)

// classifyTemperature keeps classification output consistent across runs.
var classifyTemperature = 0.1

// Completer issues one completion call against the external reasoning
// service. *llm.Client satisfies it; tests substitute a double.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
	Model() string
}

// Config bounds per-call cost and concurrency.
type Config struct {
	// BatchTokenBudget caps the estimated prompt tokens grouped into one
	// external call. Zero uses the default.
	BatchTokenBudget int

	// Workers bounds how many batches run concurrently. Zero uses the
	// default.
	Workers int

	// MaxTokens limits the model's response length per call. Zero uses the
	// default.
	MaxTokens int
}

// Result is the outcome of classifying one document.
type Result struct {
	// Findings holds every finding in no particular order; the assembler
	// sorts deterministically.
	Findings []risk.Finding

	// Usage is the summed token consumption across all batches.
	Usage llm.TokenUsage

	// Model is the model identifier that produced the findings.
	Model string

	// Degraded is true when a fallback was used: no guideline corpus, or at
	// least one batch marked needs_review after its call failed.
	Degraded bool

	// FailedBatches counts batches whose external call could not complete.
	FailedBatches int
}

// Classifier maps clause batches through the external service into findings.
type Classifier struct {
	client Completer
	config Config
	logger *slog.Logger
}

// NewClassifier creates a Classifier. A nil logger uses slog.Default().
func NewClassifier(client Completer, config Config, logger *slog.Logger) *Classifier {
	if config.BatchTokenBudget <= 0 {
		config.BatchTokenBudget = defaultBatchTokenBudget
	}
	if config.Workers <= 0 {
		config.Workers = defaultWorkers
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = defaultMaxTokens
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{client: client, config: config, logger: logger}
}

// batchOutcome carries one batch's result back from a worker.
type batchOutcome struct {
	findings []risk.Finding
	usage    llm.TokenUsage
	failed   bool
}

// Classify runs every clause batch through the external service and collects
// findings. Batches run concurrently up to the configured worker bound; one
// batch exhausting its retries does not abort the run, its clauses are each
// marked with a synthetic needs_review finding instead. Returns an error
// only on context cancellation; everything else is absorbed into the result.
func (c *Classifier) Classify(ctx context.Context, clauses []extract.ClauseBlock, rules []guideline.Rule) (*Result, error) {
	result := &Result{Model: c.client.Model(), Degraded: len(rules) == 0}
	if len(clauses) == 0 {
		return result, nil
	}

	batches := buildBatches(clauses, c.config.BatchTokenBudget)
	systemPrompt := buildSystemPrompt(rules)

	c.logger.Info("Classifying contract clauses",
		"clauses", len(clauses),
		"batches", len(batches),
		"rules", len(rules),
		"workers", c.config.Workers)

	outcomes := make([]batchOutcome, len(batches))
	jobs := make(chan int)

	var wg sync.WaitGroup
	workers := c.config.Workers
	if workers > len(batches) {
		workers = len(batches)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = c.classifyBatch(ctx, batches[i], systemPrompt)
			}
		}()
	}

	for i := range batches {
		select {
		case <-ctx.Done():
			// Stop feeding work; outstanding calls observe ctx themselves.
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, outcome := range outcomes {
		result.Findings = append(result.Findings, outcome.findings...)
		result.Usage.PromptTokens += outcome.usage.PromptTokens
		result.Usage.CompletionTokens += outcome.usage.CompletionTokens
		result.Usage.TotalTokens += outcome.usage.TotalTokens
		if outcome.failed {
			result.FailedBatches++
			result.Degraded = true
		}
	}

	return result, nil
}

// EstimateUsage approximates token consumption without calling the
// external service: each batch pays the system prompt plus its clauses as
// prompt tokens, and the configured response budget as completion tokens.
func (c *Classifier) EstimateUsage(clauses []extract.ClauseBlock, rules []guideline.Rule) llm.TokenUsage {
	batches := buildBatches(clauses, c.config.BatchTokenBudget)
	systemTokens := estimateTokens(buildSystemPrompt(rules))

	var usage llm.TokenUsage
	for _, batch := range batches {
		usage.PromptTokens += systemTokens + estimateTokens(buildUserPrompt(batch))
		usage.CompletionTokens += c.config.MaxTokens
	}
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	return usage
}

// classifyBatch issues one external call for a batch and parses the
// response. Any failure, call or parse, degrades the batch to synthetic
// needs_review findings rather than surfacing an error.
func (c *Classifier) classifyBatch(ctx context.Context, batch Batch, systemPrompt string) batchOutcome {
	if ctx.Err() != nil {
		return batchOutcome{failed: true, findings: syntheticFindings(batch, "analysis cancelled before this batch completed")}
	}

	resp, err := c.client.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(batch)},
		},
		Temperature: &classifyTemperature,
		MaxTokens:   c.config.MaxTokens,
	})
	if err != nil {
		c.logger.Warn("Batch classification failed",
			"clauses", len(batch.Clauses),
			"first_clause", batch.Clauses[0].Index,
			"error", err)
		return batchOutcome{failed: true, findings: syntheticFindings(batch, describeFailure(err))}
	}

	findings, parseErr := parseFindings(resp.Content, batch)
	if parseErr != nil {
		c.logger.Warn("Batch response unparseable",
			"first_clause", batch.Clauses[0].Index,
			"error", parseErr)
		return batchOutcome{
			failed:   true,
			findings: syntheticFindings(batch, "the model response could not be parsed"),
			usage:    resp.Usage,
		}
	}

	return batchOutcome{findings: findings, usage: resp.Usage}
}

// describeFailure renders a call failure for the synthetic finding text.
func describeFailure(err error) string {
	var svcErr *llm.ExternalServiceError
	if errors.As(err, &svcErr) {
		return fmt.Sprintf("the analysis service failed after %d attempt(s)", svcErr.Attempts)
	}
	return "the analysis service could not be reached"
}

// rawFinding is the wire shape of one finding in the model response.
type rawFinding struct {
	Clause          int    `json:"clause"`
	Severity        string `json:"severity"`
	Title           string `json:"title"`
	Explanation     string `json:"explanation"`
	Revision        string `json:"revision"`
	CounterProposal string `json:"counter_proposal"`
}

// parseFindings maps a model response onto typed findings for one batch.
// Unrecognized severity labels are downgraded to needs_review and flagged in
// the explanation; findings pointing outside the batch are re-anchored to
// the batch's first clause. Nothing is silently dropped: under-reporting
// risk is worse than over-reporting.
func parseFindings(content string, batch Batch) ([]risk.Finding, error) {
	jsonStr := llm.ExtractJSONArray(content)
	if jsonStr == "" {
		return nil, fmt.Errorf("no JSON array in response")
	}

	var raw []rawFinding
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, fmt.Errorf("invalid findings JSON: %w", err)
	}

	valid := make(map[int]bool, len(batch.Clauses))
	for _, clause := range batch.Clauses {
		valid[clause.Index] = true
	}

	findings := make([]risk.Finding, 0, len(raw))
	for _, rf := range raw {
		finding := risk.Finding{
			ClauseIndex:     rf.Clause,
			Title:           rf.Title,
			Explanation:     rf.Explanation,
			Revision:        rf.Revision,
			CounterProposal: rf.CounterProposal,
		}

		severity, known := risk.ParseSeverity(rf.Severity)
		finding.Severity = severity
		if !known {
			finding.Explanation = fmt.Sprintf("%s [flagged: model reported unrecognized severity %q; downgraded to needs_review]",
				finding.Explanation, rf.Severity)
		}

		if !valid[rf.Clause] {
			finding.ClauseIndex = batch.Clauses[0].Index
			finding.Severity = risk.SeverityNeedsReview
			finding.Explanation = fmt.Sprintf("%s [flagged: model referenced clause %d outside this batch]",
				finding.Explanation, rf.Clause)
		}

		if finding.Title == "" {
			finding.Title = "Unlabeled finding"
		}

		findings = append(findings, finding)
	}

	return findings, nil
}

// syntheticFindings marks every clause of a failed batch needs_review so no
// clause is silently dropped from the report.
func syntheticFindings(batch Batch, reason string) []risk.Finding {
	findings := make([]risk.Finding, 0, len(batch.Clauses))
	for _, clause := range batch.Clauses {
		findings = append(findings, risk.Finding{
			ClauseIndex: clause.Index,
			Severity:    risk.SeverityNeedsReview,
			Title:       "Clause not analyzed",
			Explanation: fmt.Sprintf("This clause was not analyzed: %s. Review it manually or rerun the analysis.", reason),
		})
	}
	return findings
}
