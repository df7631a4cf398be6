// Package pipeline wires Scan → Extract/Rule-match → LLM-classify into
// the bounded-queue concurrency model of spec §5: Scan emits into a
// bounded queue, a small fixed Extract worker pool drains it (running
// the cheap rule match inline), and unresolved records flow into a
// separate LLM worker pool sized to the configured concurrency.
// Planning and Execution are deliberately NOT part of this package —
// they are single-threaded consumers the caller runs after Run
// returns, per spec §5.
package pipeline

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/brunoalves/organizador/internal/errkind"
	"github.com/brunoalves/organizador/internal/extractor"
	"github.com/brunoalves/organizador/internal/llmclassify"
	"github.com/brunoalves/organizador/internal/obslog"
	"github.com/brunoalves/organizador/internal/rules"
	"github.com/brunoalves/organizador/internal/scanner"
	"github.com/brunoalves/organizador/internal/types"
)

// queueCapacity bounds both the scan→extract and extract→classify
// queues, per spec §5.
const queueCapacity = 256

// defaultExtractWorkers is the small fixed Extract worker pool size.
const defaultExtractWorkers = 4

// Result pairs a classified FileRecord with its Classification, ready
// for the Planner.
type Result struct {
	Record         types.FileRecord
	Classification types.Classification
}

// Pipeline runs Scan, Extract, rule matching and LLM classification
// concurrently, per spec §5.
type Pipeline struct {
	scanner        *scanner.Scanner
	extractor      *extractor.Extractor
	rules          *rules.Engine
	classifier     *llmclassify.Classifier // nil in rules-only mode
	log            *obslog.Logger
	extractWorkers int
	llmWorkers     int
}

// Options configures a Pipeline's worker pool sizes.
type Options struct {
	ExtractWorkers int // default 4
	LLMWorkers     int // default 4, the same for every backend; ignored when classifier is nil
}

// New builds a Pipeline. classifier may be nil for rules-only mode, in
// which case records the rule engine cannot match are classified
// directly as low-confidence inbox without any network call.
func New(sc *scanner.Scanner, ex *extractor.Extractor, re *rules.Engine, classifier *llmclassify.Classifier, log *obslog.Logger, opts Options) *Pipeline {
	if opts.ExtractWorkers <= 0 {
		opts.ExtractWorkers = defaultExtractWorkers
	}
	if opts.LLMWorkers <= 0 {
		opts.LLMWorkers = defaultExtractWorkers
	}
	return &Pipeline{
		scanner:        sc,
		extractor:      ex,
		rules:          re,
		classifier:     classifier,
		log:            log,
		extractWorkers: opts.ExtractWorkers,
		llmWorkers:     opts.LLMWorkers,
	}
}

// Run drives the full Scan → Extract/Rule → LLM concurrent pipeline to
// completion and returns every Result, sorted by source path for
// deterministic downstream planning (spec §5 ordering guarantee).
func (p *Pipeline) Run(ctx context.Context, roots []string) ([]Result, error) {
	scanQueue := make(chan types.FileRecord, queueCapacity)
	llmQueue := make(chan types.FileRecord, queueCapacity)

	var (
		mu      sync.Mutex
		results []Result
	)
	collect := func(r Result) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return p.scanner.Scan(gctx, roots, scanQueue)
	})

	var extractWG sync.WaitGroup
	extractWG.Add(p.extractWorkers)
	for i := 0; i < p.extractWorkers; i++ {
		g.Go(func() error {
			defer extractWG.Done()
			for rec := range scanQueue {
				if gctx.Err() != nil {
					continue
				}
				enriched := p.extractor.Extract(rec)
				if enriched.ExcerptError != "" {
					p.log.Warn("extraction warning", "path", enriched.Path, "error", enriched.ExcerptError)
				}

				if cl, ok := p.rules.Match(enriched); ok {
					collect(Result{Record: enriched, Classification: cl})
					continue
				}

				if p.classifier == nil {
					collect(Result{Record: enriched, Classification: rulesOnlyFallback()})
					continue
				}

				select {
				case llmQueue <- enriched:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		extractWG.Wait()
		close(llmQueue)
	}()

	llmWorkers := 1
	if p.classifier != nil {
		llmWorkers = p.llmWorkers
	}
	for i := 0; i < llmWorkers; i++ {
		g.Go(func() error {
			if p.classifier == nil {
				return nil
			}
			for rec := range llmQueue {
				if gctx.Err() != nil {
					continue
				}
				cl := p.classifier.Classify(gctx, rec)
				collect(Result{Record: rec, Classification: cl})
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, errkind.Wrap(err, errkind.Io, "pipeline run")
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Record.Path < results[j].Record.Path
	})
	return results, nil
}

// rulesOnlyFallback is used when no LLM backend is configured: a record
// the rule engine cannot match goes straight to the inbox at zero
// confidence, the same terminal outcome the LLM classifier would reach
// after exhausting its own retries (spec §4.4 fallback, §6 rules-only
// backend selector).
func rulesOnlyFallback() types.Classification {
	return types.Classification{
		Category:   types.CategoryInbox,
		Confidence: 0,
		Rationale:  "rules-only mode: no rule matched",
		Source:     string(types.SourceFallback),
	}
}
