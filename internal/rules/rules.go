// Package rules implements the deterministic Rule engine (spec §4.3):
// an ordered list of rules is matched against each FileRecord, first
// match wins, and a Classification with source "rule:<id>" is produced.
package rules

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/brunoalves/organizador/internal/errkind"
	"github.com/brunoalves/organizador/internal/types"
)

// Rule is one deterministic classification rule, loaded in declaration
// order from a YAML rules file.
type Rule struct {
	ID          string        `yaml:"id"`
	Pattern     string        `yaml:"pattern"` // base-name glob, brace-expansion supported
	Keywords    []string      `yaml:"keywords,omitempty"`
	MinSize     int64         `yaml:"min_size,omitempty"`
	MaxSize     int64         `yaml:"max_size,omitempty"` // 0 means unbounded
	Category    types.Category `yaml:"category"`
	Subcategory string        `yaml:"subcategory,omitempty"`
	Confidence  int           `yaml:"confidence"`
}

// Engine holds the ordered rule list and matches FileRecords against it.
type Engine struct {
	rules []Rule
}

// Load reads an ordered rule list from a YAML file. Declaration order is
// preserved, since matching policy depends on it.
func Load(path string) (*Engine, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errkind.Wrapf(err, errkind.Config, "reading rules file %s", path)
	}

	var rules []Rule
	if err := yaml.Unmarshal(b, &rules); err != nil {
		return nil, errkind.Wrapf(err, errkind.Config, "parsing rules file %s", path)
	}

	for _, r := range rules {
		if !types.IsValidCategory(r.Category) {
			return nil, errkind.Newf(errkind.Config, "rule %q: unknown category %q", r.ID, r.Category)
		}
		if r.Confidence < 0 || r.Confidence > 100 {
			return nil, errkind.Newf(errkind.Config, "rule %q: confidence must be 0-100", r.ID)
		}
	}

	return &Engine{rules: rules}, nil
}

// New builds an Engine directly from an in-memory rule list (used by
// tests and by callers that assemble rules programmatically).
func New(rules []Rule) *Engine {
	return &Engine{rules: append([]Rule(nil), rules...)}
}

// Count reports how many rules are loaded, for status reporting.
func (e *Engine) Count() int { return len(e.rules) }

// Match evaluates rules in declaration order and returns the
// Classification from the first rule whose full predicate matches. ok is
// false when no rule matches, leaving the decision to the LLM classifier.
func (e *Engine) Match(rec types.FileRecord) (types.Classification, bool) {
	base := filepath.Base(rec.Path)
	for _, r := range e.rules {
		if !matchesRule(r, rec, base) {
			continue
		}
		return types.Classification{
			Category:      r.Category,
			Subcategory:   r.Subcategory,
			Subject:       sanitizeSubject(stripExt(base)),
			Year:          parseYear(base),
			SuggestedName: suggestedName(rec, r, base),
			Confidence:    r.Confidence,
			Rationale:     "matched rule " + r.ID,
			Source:        types.RuleSource(r.ID),
		}, true
	}
	return types.Classification{}, false
}

func matchesRule(r Rule, rec types.FileRecord, base string) bool {
	if r.Pattern != "" {
		ok, err := doublestar.Match(strings.ToLower(r.Pattern), strings.ToLower(base))
		if err != nil || !ok {
			return false
		}
	}

	if r.MinSize > 0 && rec.Size < r.MinSize {
		return false
	}
	if r.MaxSize > 0 && rec.Size > r.MaxSize {
		return false
	}

	if len(r.Keywords) > 0 {
		haystack := strings.ToLower(base + " " + rec.Excerpt)
		hit := false
		for _, kw := range r.Keywords {
			if strings.Contains(haystack, strings.ToLower(kw)) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}

	return true
}

var yearPattern = regexp.MustCompile(`(19|20)\d{2}`)

// parseYear extracts a plausible 1900-2099 year token from a base name,
// returning 0 when none is found (spec §4.3).
func parseYear(base string) int {
	m := yearPattern.FindString(base)
	if m == "" {
		return 0
	}
	y, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return y
}

func stripExt(base string) string {
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// sanitizeSubject turns a raw base name stem into a short human-readable
// subject: separators collapsed to spaces, trimmed.
func sanitizeSubject(stem string) string {
	replacer := strings.NewReplacer("_", " ", "-", " ", ".", " ")
	s := replacer.Replace(stem)
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "arquivo"
	}
	return s
}

// suggestedName builds "YYYY-MM-DD__Category__Subject" per spec §4.3/§6.
// Month and day are never parsed from a base name, so both are always
// "00". The year comes from a year token in the base name, else from the
// file's modification year; with neither, the date is "0000-00-00".
func suggestedName(rec types.FileRecord, r Rule, base string) string {
	year := parseYear(base)
	if year == 0 && !rec.ModTime.IsZero() {
		year = rec.ModTime.Year()
	}
	date := "0000-00-00"
	if year != 0 {
		date = strconv.Itoa(year) + "-00-00"
	}
	subject := sanitizeSubject(stripExt(base))
	return date + "__" + string(r.Category) + "__" + subject
}
