// Package extractor implements Extract (spec §4.2): dispatch by extension
// to a bounded-excerpt strategy. Concrete parsing of binary formats
// (PDF/DOCX/XLSX/EXIF/ffprobe) is an external collaborator per spec §1;
// this package defines the seam (Strategy) those parsers plug into and
// ships stdlib-only strategies for the formats spec.md itself can be
// implemented without a third-party parser (plain text and archive
// listings), a format marker for eBooks, and empty-excerpt stubs for
// everything else.
package extractor

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/brunoalves/organizador/internal/types"
)

// Strategy produces a bounded text excerpt for one file. Extraction
// failures are always non-fatal (spec §4.2): a Strategy that cannot read
// something returns an error, and the Extractor records it as a warning
// and leaves the excerpt empty rather than aborting the pipeline.
type Strategy interface {
	// Extract returns up to types.MaxExcerptBytes of text describing rec.
	// A returned error is recorded as a warning; the excerpt is then empty.
	Extract(rec types.FileRecord) (string, error)
}

// Extractor dispatches FileRecords to a Strategy by lowercase extension.
type Extractor struct {
	byExt   map[string]Strategy
	byFam   map[string]Strategy
	unknown Strategy
}

// Family extension groupings mirroring spec §4.2's table.
var (
	plainTextExts   = []string{"txt", "md", "json", "xml", "html", "htm"}
	ebookExts       = []string{"epub", "mobi", "azw"}
	imageExts       = []string{"jpg", "jpeg", "png", "gif", "tiff", "heic"}
	audioExts       = []string{"mp3", "wav", "flac", "m4a", "ogg"}
	videoExts       = []string{"mp4", "mov", "mkv", "avi", "webm"}
)

// New builds an Extractor with the default strategy set. External,
// format-aware strategies (PDF/DOCX/PPTX/XLSX/EXIF/ffprobe) can be
// installed over the defaults with WithStrategy, matching spec.md's
// framing of those parsers as collaborators the core merely consumes.
func New() *Extractor {
	e := &Extractor{
		byExt:   make(map[string]Strategy),
		unknown: emptyStrategy{},
	}

	plain := plainTextStrategy{}
	for _, ext := range plainTextExts {
		e.byExt[ext] = plain
	}

	marker := formatMarkerStrategy{}
	for _, ext := range ebookExts {
		e.byExt[ext] = marker
	}

	meta := metadataStubStrategy{}
	for _, ext := range imageExts {
		e.byExt[ext] = meta
	}
	for _, ext := range audioExts {
		e.byExt[ext] = meta
	}
	for _, ext := range videoExts {
		e.byExt[ext] = meta
	}

	e.byExt["zip"] = archiveListingStrategy{}
	e.byExt["pdf"] = metadataStubStrategy{label: "pdf"}
	e.byExt["docx"] = metadataStubStrategy{label: "docx"}
	e.byExt["pptx"] = metadataStubStrategy{label: "pptx"}
	e.byExt["xlsx"] = metadataStubStrategy{label: "xlsx"}

	return e
}

// WithStrategy overrides (or adds) the strategy used for ext.
func (e *Extractor) WithStrategy(ext string, s Strategy) *Extractor {
	e.byExt[strings.ToLower(ext)] = s
	return e
}

// Extract fills rec.Excerpt (and, on a non-fatal failure, rec.ExcerptError)
// and returns the enriched copy. Extract never returns an error itself.
func (e *Extractor) Extract(rec types.FileRecord) types.FileRecord {
	strat, ok := e.byExt[rec.Ext]
	if !ok {
		strat = e.unknown
	}

	text, err := strat.Extract(rec)
	if err != nil {
		rec.ExcerptError = err.Error()
		rec.Excerpt = ""
		return rec
	}

	rec.Excerpt = truncate(text)
	return rec
}

func truncate(s string) string {
	if len(s) <= types.MaxExcerptBytes {
		return s
	}
	limit := types.MaxExcerptBytes - len(types.TruncationSentinel)
	if limit < 0 {
		limit = 0
	}
	return s[:limit] + types.TruncationSentinel
}

// plainTextStrategy returns the file's content verbatim (subject to the
// Extractor's truncation).
type plainTextStrategy struct{}

func (plainTextStrategy) Extract(rec types.FileRecord) (string, error) {
	f, err := os.Open(rec.Path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", rec.Path, err)
	}
	defer f.Close()
	// Read one byte beyond the cap so truncate() reliably detects overflow
	// without loading arbitrarily large files into memory.
	b, err := io.ReadAll(io.LimitReader(f, types.MaxExcerptBytes+1))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", rec.Path, err)
	}
	return string(b), nil
}

// archiveListingStrategy lists zip entry names without extracting content.
type archiveListingStrategy struct{}

func (archiveListingStrategy) Extract(rec types.FileRecord) (string, error) {
	r, err := zip.OpenReader(rec.Path)
	if err != nil {
		return "", fmt.Errorf("open zip %s: %w", rec.Path, err)
	}
	defer r.Close()

	var sb strings.Builder
	for _, f := range r.File {
		sb.WriteString(f.Name)
		sb.WriteByte('\n')
		if sb.Len() > types.MaxExcerptBytes {
			break
		}
	}
	return sb.String(), nil
}

// formatMarkerStrategy emits only a format identifier, for containers
// whose content spec.md says to summarize by format alone (eBooks).
type formatMarkerStrategy struct{}

func (formatMarkerStrategy) Extract(rec types.FileRecord) (string, error) {
	return fmt.Sprintf("[%s ebook]", strings.ToUpper(rec.Ext)), nil
}

// metadataStubStrategy is the seam an external metadata reader (EXIF,
// ffprobe, office-document parsers) plugs into via WithStrategy. Without
// one installed it degrades to an empty excerpt, matching spec.md's
// "Unknown -> empty excerpt" row rather than fabricating metadata.
type metadataStubStrategy struct {
	label string
}

func (s metadataStubStrategy) Extract(rec types.FileRecord) (string, error) {
	return "", nil
}

// emptyStrategy is used for any extension with no registered strategy.
type emptyStrategy struct{}

func (emptyStrategy) Extract(rec types.FileRecord) (string, error) {
	return "", nil
}
