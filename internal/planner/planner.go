// Package planner turns (FileRecord, Classification) pairs into an
// ordered, deterministic Plan of filesystem mutations (spec §4.5). Build
// never touches the filesystem beyond stat calls used for collision
// detection against pre-existing files; WriteArtifacts and LoadArtifact
// write and read the persisted plan files.
package planner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/brunoalves/organizador/internal/config"
	"github.com/brunoalves/organizador/internal/errkind"
	"github.com/brunoalves/organizador/internal/types"
)

// Input is one record the Planner routes into a PlanItem.
type Input struct {
	Record         types.FileRecord
	Classification types.Classification
}

// Planner computes destinations and actions per spec §4.5.
type Planner struct {
	cfg config.PlannerConfig
}

// New builds a Planner from the planner configuration.
func New(cfg config.PlannerConfig) *Planner {
	if cfg.MaxBaseName <= 0 {
		cfg.MaxBaseName = 200
	}
	if cfg.MaxVersionTry <= 0 {
		cfg.MaxVersionTry = 999
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = 85
	}
	return &Planner{cfg: cfg}
}

// Build consumes all inputs and returns a complete, collision-free Plan.
// Inputs are sorted by source path (lex order) before processing so that
// collision-versioning is deterministic across runs, per spec §9.
func (p *Planner) Build(inputs []Input) (types.Plan, error) {
	sorted := append([]Input(nil), inputs...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Record.Path < sorted[j].Record.Path
	})

	plan := types.Plan{
		ID:       uuid.NewString(),
		BaseRoot: p.cfg.BaseRoot,
	}

	taken := make(map[string]bool)
	for _, in := range sorted {
		item, err := p.planItem(in, taken)
		if err != nil {
			return types.Plan{}, err
		}
		if item.Destination != "" {
			taken[item.Destination] = true
		}
		plan.Items = append(plan.Items, item)
		tally(&plan.Counts, item.Action)
	}

	return plan, nil
}

func tally(c *types.PlanCounts, a types.Action) {
	switch a {
	case types.ActionMove:
		c.Move++
	case types.ActionCopy:
		c.Copy++
	case types.ActionRename:
		c.Rename++
	case types.ActionSkip:
		c.Skip++
	}
}

func (p *Planner) planItem(in Input, taken map[string]bool) (types.PlanItem, error) {
	rec, cl := in.Record, in.Classification

	item := types.PlanItem{
		Source:       rec.Path,
		Confidence:   cl.Confidence,
		RuleID:       strings.TrimPrefix(cl.Source, types.SourceRulePrefix),
		LLMUsed:      cl.Source == string(types.SourceLLM),
		SourceSize:   rec.Size,
		SourceSHA256: rec.SHA256,
	}
	if !strings.HasPrefix(cl.Source, types.SourceRulePrefix) {
		item.RuleID = ""
	}

	belowThreshold := cl.Confidence < p.cfg.MinConfidence

	// Low confidence and already classified into the inbox: nothing to
	// reroute, skip outright (spec §4.5 action selection).
	if belowThreshold && cl.Category == types.CategoryInbox {
		item.Reason = cl.Rationale
		item.Action = types.ActionSkip
		return item, nil
	}

	effectiveCategory := cl.Category
	if belowThreshold {
		item.Reason = fmt.Sprintf("confidence %d below threshold %d for category %s; routed to inbox", cl.Confidence, p.cfg.MinConfidence, cl.Category)
		effectiveCategory = types.CategoryInbox
	} else {
		item.Reason = cl.Rationale
	}

	destDir := destinationDir(p.cfg.BaseRoot, effectiveCategory, cl.Subcategory, cl.Year)
	baseName := sanitizeBaseName(cl.SuggestedName, filepath.Ext(rec.Path), p.cfg.MaxBaseName)
	destPath := filepath.Join(destDir, baseName)

	destPath, baseName, err := p.resolveCollision(destDir, baseName, destPath, rec.Path, taken)
	if err != nil {
		return types.PlanItem{}, err
	}

	if destPath == rec.Path {
		item.Action = types.ActionSkip
		return item, nil
	}

	item.Destination = destPath
	switch {
	case p.cfg.CopyMode:
		item.Action = types.ActionCopy
	case filepath.Dir(destPath) == filepath.Dir(rec.Path):
		item.Action = types.ActionRename
	default:
		item.Action = types.ActionMove
	}

	return item, nil
}

// destinationDir builds <base>/<Category>/<Subcategory>/<Year>/, omitting
// subcategory and year segments when empty or zero, per spec §4.5.
func destinationDir(base string, cat types.Category, subcategory string, year int) string {
	parts := []string{base, string(cat)}
	if subcategory != "" {
		parts = append(parts, subcategory)
	}
	if year != 0 {
		parts = append(parts, strconv.Itoa(year))
	}
	return filepath.Join(parts...)
}

var forbiddenChars = func() map[rune]bool {
	m := map[rune]bool{}
	for _, r := range `<>:"/\|?*` {
		m[r] = true
	}
	return m
}()

// sanitizeBaseName applies spec §4.5's character and length rules to a
// suggested name, then appends ext. Idempotent: sanitizing an already
// sanitized name is a no-op (spec §8 round-trip law).
func sanitizeBaseName(suggested, ext string, maxLen int) string {
	var sb strings.Builder
	for _, r := range suggested {
		if forbiddenChars[r] || r < 0x20 {
			continue
		}
		sb.WriteRune(r)
	}
	collapsed := strings.Join(strings.Fields(sb.String()), "_")
	collapsed = strings.Trim(collapsed, " .")
	if collapsed == "" {
		collapsed = "arquivo"
	}

	if maxLen <= 0 {
		maxLen = 200
	}
	full := collapsed + ext
	if len(full) <= maxLen {
		return full
	}
	budget := maxLen - len(ext)
	if budget < 1 {
		return full[:maxLen]
	}
	return collapsed[:budget] + ext
}

// resolveCollision appends "_v2", "_v3", ... to baseName (before its
// extension) until destPath is unique against both taken (other PlanItem
// destinations already assigned, in source-path order) and any
// pre-existing file on disk, per spec §4.5/§9. sourcePath is excluded
// from the pre-existing-file check: a file occupying its own eventual
// destination (e.g. a no-op rename target) is not a collision.
func (p *Planner) resolveCollision(destDir, baseName, destPath, sourcePath string, taken map[string]bool) (string, string, error) {
	collides := func(path string) bool {
		if path == sourcePath {
			return false
		}
		return taken[path] || exists(path)
	}

	if !collides(destPath) {
		return destPath, baseName, nil
	}

	ext := filepath.Ext(baseName)
	stem := strings.TrimSuffix(baseName, ext)

	for v := 2; v <= p.cfg.MaxVersionTry; v++ {
		candidateBase := fmt.Sprintf("%s_v%d%s", stem, v, ext)
		candidatePath := filepath.Join(destDir, candidateBase)
		if !collides(candidatePath) {
			return candidatePath, candidateBase, nil
		}
	}

	return "", "", errkind.Newf(errkind.Collision, "no unique destination for %q after %d attempts", baseName, p.cfg.MaxVersionTry)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
