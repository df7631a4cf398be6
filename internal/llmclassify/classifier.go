// Package llmclassify implements the LLM classifier (spec §4.4): prompt
// construction, response parsing, schema validation, bounded retry, rate
// limiting, and the once-per-run backend health probe. The concrete
// backend (Ollama/OpenAI/Gemini) is injected as a backend.Backend — this
// package never talks to a network socket directly.
package llmclassify

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/brunoalves/organizador/internal/errkind"
	"github.com/brunoalves/organizador/internal/llmclassify/backend"
	"github.com/brunoalves/organizador/internal/types"
)

// Options configures a Classifier, mirroring config.LLMConfig.
type Options struct {
	MaxAttempts        int // schema retry attempts, default 3 (spec §4.4)
	RequestsPerMinute  int
	RequestTimeout     time.Duration
	BackoffInitial     time.Duration
	BackoffMax         time.Duration
	BackoffMaxAttempts int
}

// DefaultOptions matches spec §4.4's stated defaults.
func DefaultOptions() Options {
	return Options{
		MaxAttempts:        3,
		RequestsPerMinute:  60,
		RequestTimeout:     30 * time.Second,
		BackoffInitial:     1 * time.Second,
		BackoffMax:         30 * time.Second,
		BackoffMaxAttempts: 5,
	}
}

// Classifier produces semantic Classifications for files the rule engine
// left unresolved.
type Classifier struct {
	backend backend.Backend
	limiter *rate.Limiter
	opts    Options

	healthOnce sync.Once
	healthErr  error
}

// New builds a Classifier around b.
func New(b backend.Backend, opts Options) *Classifier {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = 60
	}
	if opts.BackoffInitial <= 0 {
		opts.BackoffInitial = time.Second
	}
	if opts.BackoffMax <= 0 {
		opts.BackoffMax = 30 * time.Second
	}
	if opts.BackoffMaxAttempts <= 0 {
		opts.BackoffMaxAttempts = 5
	}

	rps := float64(opts.RequestsPerMinute) / 60.0
	return &Classifier{
		backend: b,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		opts:    opts,
	}
}

// Probe runs the backend's health check exactly once per Classifier
// lifetime and caches the result, per spec §4.4.
func (c *Classifier) Probe(ctx context.Context) error {
	c.healthOnce.Do(func() {
		c.healthErr = c.backend.Healthy(ctx)
	})
	return c.healthErr
}

// Classify produces a Classification for rec. On persistent schema
// failure after MaxAttempts, it returns the §4.4 fallback: inbox
// category, confidence 0, source "fallback".
func (c *Classifier) Classify(ctx context.Context, rec types.FileRecord) types.Classification {
	prompt := buildPrompt(rec)

	var lastErr error
	for attempt := 1; attempt <= c.opts.MaxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fallback(fmt.Sprintf("rate limiter: %v", err))
		}

		raw, err := c.completeWithBackoff(ctx, prompt)
		if err != nil {
			lastErr = err
			// A transient backend failure mid-run routes to the fallback
			// immediately; it is not a schema problem to retry against.
			return fallback(fmt.Sprintf("backend unavailable: %v", err))
		}

		resp, parseErr := parseResponse(raw)
		if parseErr != nil {
			lastErr = parseErr
			prompt = appendCorrectionDirective(prompt)
			continue
		}

		if fields, ok := validate(resp); !ok {
			lastErr = fmt.Errorf("invalid fields: %s", strings.Join(fields, ", "))
			prompt = appendCompletionDirective(prompt, fields)
			continue
		}

		return types.Classification{
			Category:      types.Category(resp.Category),
			Subcategory:   resp.Subcategory,
			Subject:       resp.Subject,
			Year:          resp.Year,
			SuggestedName: resp.SuggestedName,
			Confidence:    resp.Confidence,
			Rationale:     resp.Rationale,
			Source:        string(types.SourceLLM),
		}
	}

	return fallback(fmt.Sprintf("exhausted %d attempts: %v", c.opts.MaxAttempts, lastErr))
}

func fallback(reason string) types.Classification {
	return types.Classification{
		Category:   types.CategoryInbox,
		Confidence: 0,
		Rationale:  "fallback: " + reason,
		Source:     string(types.SourceFallback),
	}
}

// completeWithBackoff retries transient backend errors (connection
// refused, 5xx, timeout) with exponential backoff starting at
// BackoffInitial, doubling, capped at BackoffMax, up to
// BackoffMaxAttempts tries (spec §4.4).
func (c *Classifier) completeWithBackoff(ctx context.Context, prompt string) (string, error) {
	delay := c.opts.BackoffInitial
	var lastErr error

	for attempt := 1; attempt <= c.opts.BackoffMaxAttempts; attempt++ {
		reqCtx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)
		resp, err := c.backend.Complete(reqCtx, prompt)
		cancel()
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if attempt == c.opts.BackoffMaxAttempts {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		delay *= 2
		if delay > c.opts.BackoffMax {
			delay = c.opts.BackoffMax
		}
	}

	return "", errkind.Wrap(lastErr, errkind.BackendUnavailable, "llm backend")
}

const promptPreamble = `You classify a personal file into exactly one of these categories:
01_Trabalho, 02_Financas, 03_Estudos, 04_Livros, 05_Pessoal, 90_Inbox_Organizar.

Respond with a single JSON object and nothing else: no prose, no code
fences, no commentary before or after it. The object must have exactly
these fields:
  category        - one of the six category identifiers above
  subcategory     - a short free-form subfolder name
  subject         - a short human-readable description of the file
  year            - an integer year 1900-2100 (best guess)
  suggested_name  - "YYYY-MM-DD__Category__Subject" with no extension
  confidence      - an integer 0-100
  rationale       - a short one-sentence reason for the classification
`

func buildPrompt(rec types.FileRecord) string {
	var sb strings.Builder
	sb.WriteString(promptPreamble)
	sb.WriteString("\nFile:\n")
	fmt.Fprintf(&sb, "  base_name: %s\n", filepath.Base(rec.Path))
	fmt.Fprintf(&sb, "  extension: %s\n", rec.Ext)
	fmt.Fprintf(&sb, "  size_bytes: %d\n", rec.Size)
	fmt.Fprintf(&sb, "  modification_year: %d\n", rec.ModTime.Year())
	sb.WriteString("  excerpt: |\n")
	for _, line := range strings.Split(rec.Excerpt, "\n") {
		sb.WriteString("    ")
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func appendCorrectionDirective(prompt string) string {
	return prompt + "\nYour previous response was not valid structured data. Emit structured data only: a single JSON object, nothing else.\n"
}

func appendCompletionDirective(prompt string, badFields []string) string {
	return prompt + fmt.Sprintf("\nYour previous response was missing or had malformed fields: %s. Re-emit the full JSON object with every field corrected.\n", strings.Join(badFields, ", "))
}

// llmResponse is the wire shape of a backend's structured response.
type llmResponse struct {
	Category      string `json:"category"`
	Subcategory   string `json:"subcategory"`
	Subject       string `json:"subject"`
	Year          int    `json:"year"`
	SuggestedName string `json:"suggested_name"`
	Confidence    int    `json:"confidence"`
	Rationale     string `json:"rationale"`
}

// parseResponse is the trust boundary: it decodes raw backend text into
// the wire shape without yet deciding whether the values are valid.
// Real backends occasionally wrap JSON in code fences despite
// instructions not to; stripping them here is parsing, not validation —
// the result still goes through validate() before it can affect planning.
func parseResponse(raw string) (llmResponse, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	var resp llmResponse
	if err := json.Unmarshal([]byte(s), &resp); err != nil {
		return llmResponse{}, fmt.Errorf("decode structured response: %w", err)
	}
	return resp, nil
}

const maxFieldLen = 200

// validate checks the decoded response against spec §4.4's schema and
// returns the names of any offending fields.
func validate(resp llmResponse) ([]string, bool) {
	var bad []string

	if !types.IsValidCategory(types.Category(resp.Category)) {
		bad = append(bad, "category")
	}
	if resp.Subcategory == "" || len(resp.Subcategory) > maxFieldLen {
		bad = append(bad, "subcategory")
	}
	if resp.Subject == "" || len(resp.Subject) > maxFieldLen {
		bad = append(bad, "subject")
	}
	if resp.Year < 1900 || resp.Year > 2100 {
		bad = append(bad, "year")
	}
	if resp.SuggestedName == "" || len(resp.SuggestedName) > maxFieldLen {
		bad = append(bad, "suggested_name")
	}
	if resp.Confidence < 0 || resp.Confidence > 100 {
		bad = append(bad, "confidence")
	}
	if resp.Rationale == "" || len(resp.Rationale) > maxFieldLen {
		bad = append(bad, "rationale")
	}

	return bad, len(bad) == 0
}
