// Package engine wires the extraction, guideline, classification, and
// report stages into the contract risk analysis pipeline and exposes the
// collaborator interface: Analyze and ReloadGuidelines.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360studio/clausecheck/classify"
	"github.com/c360studio/clausecheck/config"
	"github.com/c360studio/clausecheck/cost"
	"github.com/c360studio/clausecheck/extract"
	"github.com/c360studio/clausecheck/guideline"
	"github.com/c360studio/clausecheck/llm"
	"github.com/c360studio/clausecheck/report"
)

// Request bundles one document with its run labels. It is constructed by
// the caller, consumed by Analyze, and discarded afterwards.
type Request struct {
	// PDF is the raw document byte stream.
	PDF []byte

	// ContractName labels the document in the rendered report.
	ContractName string
}

// Extractor turns PDF bytes into clause blocks. *extract.Extractor is the
// production implementation.
type Extractor interface {
	Extract(data []byte) ([]extract.ClauseBlock, error)
}

// Engine runs the analysis pipeline. Construction validates the
// configuration; an Engine that exists can always run.
type Engine struct {
	config     *config.Config
	extractor  Extractor
	guidelines *guideline.Store
	classifier *classify.Classifier
	logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	completer classify.Completer
	extractor Extractor
}

// WithLogger sets the logger for the engine and its stages.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithCompleter substitutes the external reasoning service, primarily for
// tests. The default is an llm.Client built from the configuration.
func WithCompleter(c classify.Completer) Option {
	return func(o *options) {
		o.completer = c
	}
}

// WithExtractor substitutes the document extractor, primarily for tests.
func WithExtractor(e Extractor) Option {
	return func(o *options) {
		o.extractor = e
	}
}

// New builds an Engine from a validated configuration. Configuration
// problems (bad exchange rate, timeout, retry budget) surface here, never
// mid-run.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	completer := o.completer
	if completer == nil {
		completer = llm.NewClient(
			llm.Endpoint{
				Provider: cfg.Model.Provider,
				URL:      cfg.Model.Endpoint,
				Model:    cfg.Model.Name,
			},
			llm.WithTimeout(cfg.Timeout()),
			llm.WithRetryConfig(llm.RetryConfig{
				MaxAttempts:       cfg.Model.MaxRetries + 1,
				BackoffBase:       2 * time.Second,
				BackoffMultiplier: 2.0,
				MaxBackoff:        30 * time.Second,
			}),
			llm.WithLogger(o.logger),
		)
	}

	classifier := classify.NewClassifier(completer, classify.Config{
		BatchTokenBudget: cfg.Analysis.BatchTokenBudget,
		Workers:          cfg.Analysis.Workers,
		MaxTokens:        cfg.Analysis.MaxResponseTokens,
	}, o.logger)

	extractor := o.extractor
	if extractor == nil {
		extractor = extract.NewExtractor(o.logger)
	}

	return &Engine{
		config:     cfg,
		extractor:  extractor,
		guidelines: guideline.NewStore(cfg.Guidelines.Dir, o.logger),
		classifier: classifier,
		logger:     o.logger,
	}, nil
}

// Analyze runs the full pipeline on one document. The caller receives
// either a complete report or a single fatal error, never a partially
// populated report: extraction failures and cancellation abort the run,
// while guideline and per-batch classification failures are absorbed into
// the report as degraded/needs_review content.
func (e *Engine) Analyze(ctx context.Context, req Request) (*report.AnalysisReport, error) {
	started := time.Now()

	clauses, err := e.extractor.Extract(req.PDF)
	if err != nil {
		return nil, err
	}

	rules, err := e.guidelines.Load()
	if err != nil {
		// Recoverable: classify with the baseline prompt instead.
		e.logger.Warn("Guideline corpus unavailable, degrading to baseline prompt", "error", err)
		rules = nil
	}

	result, err := e.classifier.Classify(ctx, clauses, rules)
	if err != nil {
		return nil, err
	}

	costInfo, err := cost.Estimate(result.Usage, result.Model, e.config.Currency.ExchangeRate)
	if err != nil {
		// The rate was validated at construction; a failure here is a bug.
		return nil, fmt.Errorf("estimate cost: %w", err)
	}

	rep := report.Assemble(result.Findings, costInfo, report.Meta{
		Model:         result.Model,
		ContractName:  req.ContractName,
		ClauseCount:   len(clauses),
		Degraded:      result.Degraded,
		FailedBatches: result.FailedBatches,
	})

	e.logger.Info("Analysis complete",
		"report_id", rep.ID,
		"clauses", len(clauses),
		"findings", len(rep.Findings),
		"degraded", rep.Degraded,
		"duration", time.Since(started))

	return rep, nil
}

// ReloadGuidelines re-reads the guideline corpus. The swap is atomic:
// in-flight analyses keep the snapshot they started with.
func (e *Engine) ReloadGuidelines() error {
	return e.guidelines.Reload()
}

// EstimateCost is a pre-flight estimate: it prices the document and
// guideline corpus as prompt tokens plus the configured response budget per
// batch, without calling the external service.
func (e *Engine) EstimateCost(pdfBytes []byte) (cost.Info, error) {
	clauses, err := e.extractor.Extract(pdfBytes)
	if err != nil {
		return cost.Info{}, err
	}

	rules, err := e.guidelines.Load()
	if err != nil {
		rules = nil
	}

	usage := e.classifier.EstimateUsage(clauses, rules)
	return cost.Estimate(usage, e.config.Model.Name, e.config.Currency.ExchangeRate)
}
