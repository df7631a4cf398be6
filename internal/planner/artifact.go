package planner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/brunoalves/organizador/internal/errkind"
	"github.com/brunoalves/organizador/internal/types"
)

// planDoc is the structured, serializable shape of a Plan (spec §6:
// plans/plan_<timestamp>.<structured-ext>).
type planDoc struct {
	ID        string          `yaml:"id"`
	Generated time.Time       `yaml:"generated"`
	BaseRoot  string          `yaml:"base_root"`
	Counts    types.PlanCounts `yaml:"counts"`
	Items     []planItemDoc   `yaml:"items"`
}

type planItemDoc struct {
	Action       types.Action `yaml:"action"`
	Source       string       `yaml:"source"`
	Destination  string       `yaml:"destination,omitempty"`
	Reason       string       `yaml:"reason"`
	Confidence   int          `yaml:"confidence"`
	RuleID       string       `yaml:"rule_id,omitempty"`
	LLMUsed      bool         `yaml:"llm_used"`
	SourceSize   int64        `yaml:"source_size"`
	SourceSHA256 string       `yaml:"source_sha256"`
}

func toDoc(plan types.Plan) planDoc {
	doc := planDoc{
		ID:        plan.ID,
		Generated: plan.Generated,
		BaseRoot:  plan.BaseRoot,
		Counts:    plan.Counts,
	}
	for _, it := range plan.Items {
		doc.Items = append(doc.Items, planItemDoc{
			Action:       it.Action,
			Source:       it.Source,
			Destination:  it.Destination,
			Reason:       it.Reason,
			Confidence:   it.Confidence,
			RuleID:       it.RuleID,
			LLMUsed:      it.LLMUsed,
			SourceSize:   it.SourceSize,
			SourceSHA256: it.SourceSHA256,
		})
	}
	return doc
}

func fromDoc(doc planDoc) types.Plan {
	plan := types.Plan{
		ID:        doc.ID,
		Generated: doc.Generated,
		BaseRoot:  doc.BaseRoot,
		Counts:    doc.Counts,
	}
	for _, it := range doc.Items {
		plan.Items = append(plan.Items, types.PlanItem{
			Action:       it.Action,
			Source:       it.Source,
			Destination:  it.Destination,
			Reason:       it.Reason,
			Confidence:   it.Confidence,
			RuleID:       it.RuleID,
			LLMUsed:      it.LLMUsed,
			SourceSize:   it.SourceSize,
			SourceSHA256: it.SourceSHA256,
		})
	}
	return plan
}

// WriteArtifacts persists plan as both a structured YAML file and a
// human-readable Markdown summary under dir, with filenames embedding
// the generation timestamp to the second (spec §4.5/§6).
func WriteArtifacts(dir string, plan types.Plan, generatedAt time.Time) (structuredPath, markdownPath string, err error) {
	plan.Generated = generatedAt
	stamp := generatedAt.Format("20060102_150405")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", errkind.Wrap(err, errkind.Io, "creating plans directory")
	}

	structuredPath = filepath.Join(dir, fmt.Sprintf("plan_%s.yaml", stamp))
	b, err := yaml.Marshal(toDoc(plan))
	if err != nil {
		return "", "", errkind.Wrap(err, errkind.Io, "serializing plan")
	}
	if err := os.WriteFile(structuredPath, b, 0o644); err != nil {
		return "", "", errkind.Wrap(err, errkind.Io, "writing structured plan")
	}

	markdownPath = filepath.Join(dir, fmt.Sprintf("plan_%s.md", stamp))
	if err := os.WriteFile(markdownPath, []byte(renderMarkdown(plan)), 0o644); err != nil {
		return "", "", errkind.Wrap(err, errkind.Io, "writing plan summary")
	}

	return structuredPath, markdownPath, nil
}

// LoadArtifact reads back a structured plan file (used by the Executor,
// which defends against in-memory tampering by always reloading from
// disk per spec §4.6).
func LoadArtifact(path string) (types.Plan, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return types.Plan{}, errkind.Wrap(err, errkind.Io, "reading plan file")
	}
	var doc planDoc
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return types.Plan{}, errkind.Wrap(err, errkind.Config, "parsing plan file")
	}
	return fromDoc(doc), nil
}

func renderMarkdown(plan types.Plan) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Plan %s\n\n", plan.ID)
	fmt.Fprintf(&sb, "Generated: %s\n\n", plan.Generated.Format(time.RFC3339))
	fmt.Fprintf(&sb, "Base root: `%s`\n\n", plan.BaseRoot)
	fmt.Fprintf(&sb, "## Counts\n\n")
	fmt.Fprintf(&sb, "- MOVE: %d\n", plan.Counts.Move)
	fmt.Fprintf(&sb, "- COPY: %d\n", plan.Counts.Copy)
	fmt.Fprintf(&sb, "- RENAME: %d\n", plan.Counts.Rename)
	fmt.Fprintf(&sb, "- SKIP: %d\n\n", plan.Counts.Skip)

	byCategory := map[string]int{}
	for _, it := range plan.Items {
		cat := categoryOf(it.Destination)
		if cat != "" {
			byCategory[cat]++
		}
	}
	if len(byCategory) > 0 {
		fmt.Fprintf(&sb, "## By category\n\n")
		for _, cat := range types.ValidCategories {
			if n, ok := byCategory[string(cat)]; ok {
				fmt.Fprintf(&sb, "- %s: %d\n", cat, n)
			}
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "## Items\n\n")
	for _, it := range plan.Items {
		fmt.Fprintf(&sb, "- **%s** `%s`", it.Action, it.Source)
		if it.Destination != "" {
			fmt.Fprintf(&sb, " → `%s`", it.Destination)
		}
		fmt.Fprintf(&sb, " (confidence %d", it.Confidence)
		if it.RuleID != "" {
			fmt.Fprintf(&sb, ", rule %s", it.RuleID)
		} else if it.LLMUsed {
			sb.WriteString(", llm")
		}
		sb.WriteString(")\n")
		if it.Reason != "" {
			fmt.Fprintf(&sb, "  - %s\n", it.Reason)
		}
	}

	return sb.String()
}

func categoryOf(destination string) string {
	for _, cat := range types.ValidCategories {
		if strings.Contains(destination, string(cat)) {
			return string(cat)
		}
	}
	return ""
}
