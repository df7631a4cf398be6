package llmclassify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunoalves/organizador/internal/types"
)

// fakeBackend is a scripted backend.Backend used to drive the classifier
// through retry, fallback and health-probe paths without a network call.
type fakeBackend struct {
	responses   []string
	errs        []error
	calls       int
	healthErr   error
	healthCalls int
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Complete(ctx context.Context, prompt string) (string, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", errors.New("fakeBackend: no scripted response")
}

func (f *fakeBackend) Healthy(ctx context.Context) error {
	f.healthCalls++
	return f.healthErr
}

func testOptions() Options {
	o := DefaultOptions()
	o.RequestsPerMinute = 6000 // effectively unthrottled for tests
	o.BackoffInitial = time.Millisecond
	o.BackoffMax = 2 * time.Millisecond
	return o
}

func sampleRecord() types.FileRecord {
	return types.FileRecord{
		Path:    "/home/user/Downloads/nota_fiscal_2024.pdf",
		Size:    1024,
		Ext:     "pdf",
		ModTime: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Excerpt: "Nota Fiscal Eletronica",
	}
}

func TestClassifyAcceptsValidFirstResponse(t *testing.T) {
	fb := &fakeBackend{responses: []string{
		`{"category":"02_Financas","subcategory":"notas_fiscais","subject":"Nota fiscal","year":2024,"suggested_name":"2024-03-01__02_Financas__Nota_fiscal","confidence":92,"rationale":"invoice keywords"}`,
	}}
	c := New(fb, testOptions())

	got := c.Classify(context.Background(), sampleRecord())

	assert.Equal(t, types.CategoryFinancas, got.Category)
	assert.Equal(t, 92, got.Confidence)
	assert.Equal(t, string(types.SourceLLM), got.Source)
	assert.Equal(t, 1, fb.calls)
}

func TestClassifyStripsCodeFences(t *testing.T) {
	fb := &fakeBackend{responses: []string{
		"```json\n{\"category\":\"05_Pessoal\",\"subcategory\":\"x\",\"subject\":\"y\",\"year\":2020,\"suggested_name\":\"z\",\"confidence\":50,\"rationale\":\"r\"}\n```",
	}}
	c := New(fb, testOptions())

	got := c.Classify(context.Background(), sampleRecord())

	assert.Equal(t, types.CategoryPessoal, got.Category)
	assert.Equal(t, string(types.SourceLLM), got.Source)
}

func TestClassifyRetriesOnMalformedJSON(t *testing.T) {
	fb := &fakeBackend{responses: []string{
		"not json at all",
		`{"category":"03_Estudos","subcategory":"s","subject":"s","year":2021,"suggested_name":"n","confidence":70,"rationale":"r"}`,
	}}
	c := New(fb, testOptions())

	got := c.Classify(context.Background(), sampleRecord())

	assert.Equal(t, types.CategoryEstudos, got.Category)
	assert.Equal(t, 2, fb.calls)
}

func TestClassifyRetriesOnInvalidFields(t *testing.T) {
	fb := &fakeBackend{responses: []string{
		`{"category":"not_a_category","subcategory":"s","subject":"s","year":2021,"suggested_name":"n","confidence":70,"rationale":"r"}`,
		`{"category":"01_Trabalho","subcategory":"s","subject":"s","year":2021,"suggested_name":"n","confidence":70,"rationale":"r"}`,
	}}
	c := New(fb, testOptions())

	got := c.Classify(context.Background(), sampleRecord())

	assert.Equal(t, types.CategoryTrabalho, got.Category)
	assert.Equal(t, 2, fb.calls)
}

func TestClassifyFallsBackAfterExhaustingAttempts(t *testing.T) {
	fb := &fakeBackend{responses: []string{
		"garbage one",
		"garbage two",
		"garbage three",
	}}
	opts := testOptions()
	opts.MaxAttempts = 3
	c := New(fb, opts)

	got := c.Classify(context.Background(), sampleRecord())

	assert.Equal(t, types.CategoryInbox, got.Category)
	assert.Equal(t, 0, got.Confidence)
	assert.Equal(t, string(types.SourceFallback), got.Source)
	assert.Equal(t, 3, fb.calls)
}

func TestClassifyFallsBackOnPersistentBackendError(t *testing.T) {
	fb := &fakeBackend{
		errs: []error{errors.New("connection refused"), errors.New("connection refused"), errors.New("connection refused"), errors.New("connection refused"), errors.New("connection refused")},
	}
	opts := testOptions()
	opts.BackoffMaxAttempts = 5
	c := New(fb, opts)

	got := c.Classify(context.Background(), sampleRecord())

	assert.Equal(t, types.CategoryInbox, got.Category)
	assert.Equal(t, string(types.SourceFallback), got.Source)
	assert.Equal(t, 5, fb.calls)
}

func TestClassifySucceedsAfterTransientBackendErrors(t *testing.T) {
	fb := &fakeBackend{
		errs: []error{errors.New("timeout"), errors.New("timeout"), nil},
		responses: []string{
			"", "",
			`{"category":"04_Livros","subcategory":"s","subject":"s","year":2019,"suggested_name":"n","confidence":80,"rationale":"r"}`,
		},
	}
	opts := testOptions()
	c := New(fb, opts)

	got := c.Classify(context.Background(), sampleRecord())

	assert.Equal(t, types.CategoryLivros, got.Category)
	assert.Equal(t, string(types.SourceLLM), got.Source)
}

func TestProbeCachesHealthResult(t *testing.T) {
	fb := &fakeBackend{healthErr: errors.New("unreachable")}
	c := New(fb, testOptions())

	err1 := c.Probe(context.Background())
	err2 := c.Probe(context.Background())

	require.Error(t, err1)
	require.Error(t, err2)
	assert.Equal(t, 1, fb.healthCalls)
}

func TestValidateRejectsOutOfRangeConfidence(t *testing.T) {
	resp := llmResponse{
		Category: "01_Trabalho", Subcategory: "s", Subject: "s",
		Year: 2020, SuggestedName: "n", Confidence: 150, Rationale: "r",
	}
	fields, ok := validate(resp)
	assert.False(t, ok)
	assert.Contains(t, fields, "confidence")
}

func TestValidateRejectsYearOutOfBounds(t *testing.T) {
	resp := llmResponse{
		Category: "01_Trabalho", Subcategory: "s", Subject: "s",
		Year: 1500, SuggestedName: "n", Confidence: 50, Rationale: "r",
	}
	fields, ok := validate(resp)
	assert.False(t, ok)
	assert.Contains(t, fields, "year")
}

func TestParseResponseStripsBareFence(t *testing.T) {
	raw := "```\n{\"category\":\"01_Trabalho\",\"subcategory\":\"s\",\"subject\":\"s\",\"year\":2020,\"suggested_name\":\"n\",\"confidence\":50,\"rationale\":\"r\"}\n```"
	resp, err := parseResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, "01_Trabalho", resp.Category)
}
