// Package main provides the clausecheck binary entry point. Clausecheck
// reviews influencer-marketing contracts: it extracts clauses from a PDF,
// classifies each clause's risk through an LLM grounded in a guideline
// corpus, and writes a negotiation report.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	// Register LLM providers via init()
	_ "github.com/c360studio/clausecheck/llm/providers"

	"github.com/c360studio/clausecheck/config"
	"github.com/c360studio/clausecheck/engine"
	"github.com/c360studio/clausecheck/guideline"
	"github.com/c360studio/clausecheck/risk"
)

const (
	Version = "0.1.0"
	appName = "clausecheck"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Automated contract risk review",
		Long: `Clausecheck reviews influencer-marketing contracts.

It extracts clause-level text from a PDF, classifies each clause's risk
(critical, unfavorable, needs_review) through an LLM grounded in a
guideline corpus, and writes a Markdown negotiation report with suggested
counter-language and a cost estimate.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(analyzeCmd(&configPath))
	cmd.AddCommand(guidelinesCmd(&configPath))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, Version)
		},
	})

	return cmd
}

func analyzeCmd(configPath *string) *cobra.Command {
	var (
		contractPath string
		outputDir    string
		estimateOnly bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a contract PDF and write a risk report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			eng, err := engine.New(cfg, engine.WithLogger(slog.Default()))
			if err != nil {
				return err
			}

			pdfBytes, err := os.ReadFile(contractPath)
			if err != nil {
				return fmt.Errorf("read contract: %w", err)
			}

			if estimateOnly {
				info, err := eng.EstimateCost(pdfBytes)
				if err != nil {
					return err
				}
				fmt.Printf("Estimated usage: %d prompt + %d completion tokens\n",
					info.PromptTokens, info.CompletionTokens)
				fmt.Printf("Estimated cost: $%.2f (local %.2f at rate %.2f)\n",
					info.ModelCurrency, info.LocalCurrency, info.ExchangeRate)
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rep, err := eng.Analyze(ctx, engine.Request{
				PDF:          pdfBytes,
				ContractName: filepath.Base(contractPath),
			})
			if err != nil {
				return err
			}

			path, err := rep.WriteFile(outputDir)
			if err != nil {
				return err
			}

			counts := rep.CountBySeverity()
			fmt.Printf("Report written to %s\n", path)
			fmt.Printf("Findings: %d critical, %d unfavorable, %d needs review (%d clauses analyzed)\n",
				counts[risk.SeverityCritical],
				counts[risk.SeverityUnfavorable],
				counts[risk.SeverityNeedsReview],
				rep.ClauseCount)
			if rep.Degraded {
				fmt.Println("Warning: analysis quality degraded, see report for details")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&contractPath, "contract", "f", "", "Contract PDF file to analyze")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "output", "Report output directory")
	cmd.Flags().BoolVar(&estimateOnly, "estimate-cost", false, "Print a pre-flight cost estimate and exit")
	_ = cmd.MarkFlagRequired("contract")

	return cmd
}

func guidelinesCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "guidelines",
		Short: "Validate and list the guideline corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			store := guideline.NewStore(cfg.Guidelines.Dir, slog.Default())
			rules, err := store.Load()
			if err != nil {
				return err
			}

			counts := make(map[risk.Severity]int)
			for _, rule := range rules {
				counts[rule.Category]++
			}

			fmt.Printf("Corpus at %s: %d rules\n", cfg.Guidelines.Dir, len(rules))
			fmt.Printf("  critical: %d\n", counts[risk.SeverityCritical])
			fmt.Printf("  unfavorable: %d\n", counts[risk.SeverityUnfavorable])
			fmt.Printf("  needs_review: %d\n", counts[risk.SeverityNeedsReview])
			return nil
		},
	}
}
