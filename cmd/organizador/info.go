package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/brunoalves/organizador/internal/cli"
	"github.com/brunoalves/organizador/internal/rules"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print backend and configuration status",
	RunE:  runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	defer log.Close()

	classifier, err := buildClassifier(cmd.Context(), cfg.LLM)
	if err != nil {
		cli.PrintBackendStatus(string(cfg.LLM.Backend), false, cfg.RulesFile, ruleCountOrZero())
		return nil
	}

	healthy := true
	if classifier != nil {
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.LLM.RequestTimeout)
		defer cancel()
		healthy = classifier.Probe(ctx) == nil
	}

	cli.PrintBackendStatus(string(cfg.LLM.Backend), healthy, cfg.RulesFile, ruleCountOrZero())
	return nil
}

func ruleCountOrZero() int {
	eng, err := rules.Load(cfg.RulesFile)
	if err != nil {
		return 0
	}
	return eng.Count()
}
