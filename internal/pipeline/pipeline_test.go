package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunoalves/organizador/internal/config"
	"github.com/brunoalves/organizador/internal/extractor"
	"github.com/brunoalves/organizador/internal/obslog"
	"github.com/brunoalves/organizador/internal/rules"
	"github.com/brunoalves/organizador/internal/scanner"
	"github.com/brunoalves/organizador/internal/types"
)

func testLogger(t *testing.T) *obslog.Logger {
	t.Helper()
	log, err := obslog.New(obslog.Config{})
	require.NoError(t, err)
	return log
}

func TestRunClassifiesViaRuleMatchWithNoLLM(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "invoice_fatura.pdf"), []byte("fatura referente a servico"), 0o644))

	sc := scanner.New(config.ScannerConfig{MinSizeBytes: 1})
	ex := extractor.New()
	re := rules.New([]rules.Rule{
		{ID: "invoices", Pattern: "*.pdf", Keywords: []string{"fatura"}, Category: types.CategoryFinancas, Confidence: 90},
	})

	p := New(sc, ex, re, nil, testLogger(t), Options{})
	results, err := p.Run(context.Background(), []string{dir})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, types.CategoryFinancas, results[0].Classification.Category)
	assert.Equal(t, types.RuleSource("invoices"), results[0].Classification.Source)
}

func TestRunRoutesUnmatchedToFallbackInRulesOnlyMode(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mystery.bin"), []byte("no keywords here at all"), 0o644))

	sc := scanner.New(config.ScannerConfig{MinSizeBytes: 1})
	ex := extractor.New()
	re := rules.New(nil)

	p := New(sc, ex, re, nil, testLogger(t), Options{})
	results, err := p.Run(context.Background(), []string{dir})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, types.CategoryInbox, results[0].Classification.Category)
	assert.Equal(t, string(types.SourceFallback), results[0].Classification.Source)
}

func TestRunOrdersResultsBySourcePath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "z.txt"), []byte("zzzzzzzzzzzzzzzzzzz"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("aaaaaaaaaaaaaaaaaaa"), 0o644))

	sc := scanner.New(config.ScannerConfig{MinSizeBytes: 1})
	ex := extractor.New()
	re := rules.New(nil)

	p := New(sc, ex, re, nil, testLogger(t), Options{})
	results, err := p.Run(context.Background(), []string{dir})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Less(t, results[0].Record.Path, results[1].Record.Path)
}
