package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/brunoalves/organizador/internal/cli"
	"github.com/brunoalves/organizador/internal/extractor"
	"github.com/brunoalves/organizador/internal/pipeline"
	"github.com/brunoalves/organizador/internal/planner"
	"github.com/brunoalves/organizador/internal/rules"
	"github.com/brunoalves/organizador/internal/scanner"
)

var (
	planDestination    string
	planRulesFile      string
	planRulesOnly      bool
	planCopy           bool
	planMinConfidence  int
)

var planCmd = &cobra.Command{
	Use:   "plan <dir>",
	Short: "Generate an organization plan for a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planDestination, "destination", "", "base root for the destination layout (default: config planner.base_root)")
	planCmd.Flags().StringVar(&planRulesFile, "rules", "", "rules file to use (default: config rules_file)")
	planCmd.Flags().BoolVar(&planRulesOnly, "rules-only", false, "disable the LLM classifier entirely")
	planCmd.Flags().BoolVar(&planCopy, "copy", false, "emit COPY instead of MOVE for relocated files")
	planCmd.Flags().IntVar(&planMinConfidence, "min-confidence", 0, "override the confidence threshold for non-inbox routing")
}

func runPlan(cmd *cobra.Command, args []string) error {
	defer log.Close()

	root := args[0]
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		fmt.Fprintf(os.Stderr, "plan failed: %s is not a readable directory\n", root)
		os.Exit(2)
	}

	rulesFile := cfg.RulesFile
	if planRulesFile != "" {
		rulesFile = planRulesFile
	}
	re, err := rules.Load(rulesFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "plan failed: %v\n", err)
		os.Exit(2)
	}

	if planRulesOnly {
		cfg.LLM.Backend = "rules-only"
	}
	classifier, err := buildClassifier(cmd.Context(), cfg.LLM)
	if err != nil {
		fmt.Fprintf(os.Stderr, "plan failed: %v\n", err)
		os.Exit(2)
	}
	if classifier != nil {
		if err := classifier.Probe(cmd.Context()); err != nil {
			fmt.Fprintf(os.Stderr, "plan failed: backend unreachable: %v\n", err)
			os.Exit(2)
		}
	}

	pCfg := cfg.Planner
	if planDestination != "" {
		pCfg.BaseRoot = planDestination
	}
	if planCopy {
		pCfg.CopyMode = true
	}
	if planMinConfidence > 0 {
		pCfg.MinConfidence = planMinConfidence
	}

	pipe := pipeline.New(scanner.New(cfg.Scanner), extractor.New(), re, classifier, log, pipeline.Options{
		LLMWorkers: cfg.LLM.Concurrency,
	})

	results, err := pipe.Run(cmd.Context(), []string{root})
	if err != nil {
		fmt.Fprintf(os.Stderr, "plan failed: %v\n", err)
		os.Exit(2)
	}

	inputs := make([]planner.Input, 0, len(results))
	for _, r := range results {
		inputs = append(inputs, planner.Input{Record: r.Record, Classification: r.Classification})
	}

	p := planner.New(pCfg)
	plan, err := p.Build(inputs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "plan failed: %v\n", err)
		os.Exit(2)
	}

	structuredPath, markdownPath, err := planner.WriteArtifacts("plans", plan, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "plan failed: %v\n", err)
		os.Exit(2)
	}

	cli.PrintPlanSummary(plan, structuredPath, markdownPath)
	return nil
}
