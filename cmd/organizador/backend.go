package main

import (
	"context"

	"github.com/brunoalves/organizador/internal/config"
	"github.com/brunoalves/organizador/internal/llmclassify"
	"github.com/brunoalves/organizador/internal/llmclassify/backend"
)

// buildClassifier resolves credentials and constructs the configured
// LLM backend, returning nil in rules-only mode. The caller is
// responsible for probing Healthy before Scan, per spec §4.4/§7.
func buildClassifier(ctx context.Context, llmCfg config.LLMConfig) (*llmclassify.Classifier, error) {
	if llmCfg.Backend == config.BackendRulesOnly {
		return nil, nil
	}

	var b backend.Backend
	switch llmCfg.Backend {
	case config.BackendLocal:
		b = backend.NewOllama(llmCfg.OllamaBaseURL, llmCfg.Model, llmCfg.RequestTimeout)

	case config.BackendOpenAI:
		key, err := config.APIKey(config.BackendOpenAI, llmCfg.OpenAIKey, llmCfg.UseKeychain)
		if err != nil {
			return nil, err
		}
		ob, err := backend.NewOpenAI(key, llmCfg.Model)
		if err != nil {
			return nil, err
		}
		b = ob

	case config.BackendGemini:
		key, err := config.APIKey(config.BackendGemini, llmCfg.GoogleKey, llmCfg.UseKeychain)
		if err != nil {
			return nil, err
		}
		gb, err := backend.NewGemini(ctx, key, llmCfg.Model)
		if err != nil {
			return nil, err
		}
		b = gb

	default:
		return nil, nil
	}

	opts := llmclassify.Options{
		MaxAttempts:        llmCfg.MaxAttempts,
		RequestsPerMinute:  llmCfg.RequestsPerMinute,
		RequestTimeout:     llmCfg.RequestTimeout,
		BackoffInitial:     llmCfg.BackoffInitial,
		BackoffMax:         llmCfg.BackoffMax,
		BackoffMaxAttempts: llmCfg.BackoffMaxAttempts,
	}
	return llmclassify.New(b, opts), nil
}
