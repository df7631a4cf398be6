package planner

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunoalves/organizador/internal/config"
	"github.com/brunoalves/organizador/internal/types"
)

func cfg(base string) config.PlannerConfig {
	return config.PlannerConfig{
		BaseRoot:      base,
		MinConfidence: 85,
		MaxBaseName:   200,
		MaxVersionTry: 999,
	}
}

func TestPlanMoveWhenDirectoriesDiffer(t *testing.T) {
	p := New(cfg("/base"))
	in := Input{
		Record:         types.FileRecord{Path: "/in/IMG_0001.jpg", Size: 2 << 20},
		Classification: types.Classification{Category: types.CategoryPessoal, Subcategory: "Midia/Imagens", Year: 2024, SuggestedName: "2024-00-00__05_Pessoal__IMG_0001", Confidence: 95, Source: types.RuleSource("images")},
	}

	plan, err := p.Build([]Input{in})
	require.NoError(t, err)
	require.Len(t, plan.Items, 1)

	item := plan.Items[0]
	assert.Equal(t, types.ActionMove, item.Action)
	assert.Equal(t, filepath.Join("/base", "05_Pessoal", "Midia/Imagens", "2024", "2024-00-00__05_Pessoal__IMG_0001.jpg"), item.Destination)
}

func TestPlanRoutesLowConfidenceToInbox(t *testing.T) {
	p := New(cfg("/base"))
	in := Input{
		Record:         types.FileRecord{Path: "/in/doc.txt"},
		Classification: types.Classification{Category: types.CategoryTrabalho, Confidence: 70, SuggestedName: "2021-00-00__01_Trabalho__doc", Source: string(types.SourceLLM)},
	}

	plan, err := p.Build([]Input{in})
	require.NoError(t, err)

	item := plan.Items[0]
	assert.Equal(t, types.ActionMove, item.Action)
	assert.Contains(t, item.Destination, string(types.CategoryInbox))
	assert.Contains(t, item.Reason, "below threshold")
}

func TestPlanSkipsLowConfidenceAlreadyInbox(t *testing.T) {
	p := New(cfg("/base"))
	in := Input{
		Record:         types.FileRecord{Path: "/in/mystery.bin"},
		Classification: types.Classification{Category: types.CategoryInbox, Confidence: 0, Source: string(types.SourceFallback)},
	}

	plan, err := p.Build([]Input{in})
	require.NoError(t, err)

	item := plan.Items[0]
	assert.Equal(t, types.ActionSkip, item.Action)
	assert.Empty(t, item.Destination)
}

func TestPlanSkipsWhenSourceEqualsDestination(t *testing.T) {
	dir := t.TempDir()
	p := New(cfg(dir))
	src := filepath.Join(dir, string(types.CategoryFinancas), "2024", "2024-00-00__02_Financas__nota.pdf")
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0o755))
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	in := Input{
		Record:         types.FileRecord{Path: src},
		Classification: types.Classification{Category: types.CategoryFinancas, Year: 2024, SuggestedName: "2024-00-00__02_Financas__nota", Confidence: 90},
	}

	plan, err := p.Build([]Input{in})
	require.NoError(t, err)
	assert.Equal(t, types.ActionSkip, plan.Items[0].Action)
}

func TestPlanRenamesWithinSameDirectory(t *testing.T) {
	dir := t.TempDir()
	p := New(cfg(dir))
	destDir := filepath.Join(dir, string(types.CategoryEstudos), "2023")
	require.NoError(t, os.MkdirAll(destDir, 0o755))
	src := filepath.Join(destDir, "messy name!!.pdf")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	in := Input{
		Record:         types.FileRecord{Path: src},
		Classification: types.Classification{Category: types.CategoryEstudos, Year: 2023, SuggestedName: "2023-00-00__03_Estudos__notes", Confidence: 90},
	}

	plan, err := p.Build([]Input{in})
	require.NoError(t, err)
	assert.Equal(t, types.ActionRename, plan.Items[0].Action)
}

func TestPlanUsesCopyModeWhenConfigured(t *testing.T) {
	c := cfg("/base")
	c.CopyMode = true
	p := New(c)
	in := Input{
		Record:         types.FileRecord{Path: "/in/a.pdf"},
		Classification: types.Classification{Category: types.CategoryLivros, Year: 2020, SuggestedName: "2020-00-00__04_Livros__book", Confidence: 90},
	}

	plan, err := p.Build([]Input{in})
	require.NoError(t, err)
	assert.Equal(t, types.ActionCopy, plan.Items[0].Action)
}

func TestPlanResolvesCollisionWithStableVersioning(t *testing.T) {
	p := New(cfg("/base"))
	inputs := []Input{
		{
			Record:         types.FileRecord{Path: "/in/sub/a.pdf"},
			Classification: types.Classification{Category: types.CategoryFinancas, Year: 2024, SuggestedName: "2024-00-00__02_Financas__a", Confidence: 90},
		},
		{
			Record:         types.FileRecord{Path: "/in/a.pdf"},
			Classification: types.Classification{Category: types.CategoryFinancas, Year: 2024, SuggestedName: "2024-00-00__02_Financas__a", Confidence: 90},
		},
	}

	plan, err := p.Build(inputs)
	require.NoError(t, err)
	require.Len(t, plan.Items, 2)

	// Inputs are sorted by source path lex order before processing:
	// "/in/a.pdf" < "/in/sub/a.pdf".
	assert.Equal(t, "/in/a.pdf", plan.Items[0].Source)
	assert.NotContains(t, plan.Items[0].Destination, "_v2")
	assert.Equal(t, "/in/sub/a.pdf", plan.Items[1].Source)
	assert.Contains(t, plan.Items[1].Destination, "_v2")
}

func TestSanitizeBaseNameRemovesForbiddenCharacters(t *testing.T) {
	got := sanitizeBaseName(`evil<>:"/\|?*name`, ".txt", 200)
	for _, r := range `<>:"/\|?*` {
		assert.NotContains(t, got, string(r))
	}
}

func TestSanitizeBaseNameIsIdempotent(t *testing.T) {
	once := sanitizeBaseName("Some Weird  Name!!", ".pdf", 200)
	twice := sanitizeBaseName(once[:len(once)-len(".pdf")], ".pdf", 200)
	assert.Equal(t, once, twice)
}

func TestSanitizeBaseNameTruncatesPreservingExtension(t *testing.T) {
	long := ""
	for i := 0; i < 300; i++ {
		long += "a"
	}
	got := sanitizeBaseName(long, ".pdf", 200)
	assert.LessOrEqual(t, len(got), 200)
	assert.Equal(t, ".pdf", got[len(got)-4:])
}

func TestWriteArtifactsAndLoadArtifactRoundTrip(t *testing.T) {
	dir := t.TempDir()
	plan := types.Plan{
		ID:       "plan-1",
		BaseRoot: dir,
		Items: []types.PlanItem{
			{Action: types.ActionMove, Source: "/in/a.pdf", Destination: filepath.Join(dir, "a.pdf"), Confidence: 90},
		},
		Counts: types.PlanCounts{Move: 1},
	}

	structured, md, err := WriteArtifacts(dir, plan, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)
	assert.FileExists(t, structured)
	assert.FileExists(t, md)

	loaded, err := LoadArtifact(structured)
	require.NoError(t, err)
	assert.Equal(t, plan.ID, loaded.ID)
	assert.Equal(t, plan.Items[0].Source, loaded.Items[0].Source)
	assert.Equal(t, plan.Items[0].Destination, loaded.Items[0].Destination)
}
