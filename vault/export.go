package vault

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ZaguanLabs/trailcache"
)

// ExportVersion is the current export format version.
const ExportVersion = "1.0"

// ExportFormat represents the JSON structure for vault export/import.
type ExportFormat struct {
	Version    string            `json:"version"`
	ExportedAt string            `json:"exported_at"`
	Records    []ExportRecord    `json:"records"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ExportRecord is a single translation record on the wire.
type ExportRecord struct {
	OriginalText   string `json:"original_text"`
	TranslatedText string `json:"translated_text"`
	FromLang       string `json:"from_lang"`
	ToLang         string `json:"to_lang"`
	Timestamp      int64  `json:"timestamp"`
}

// Exporter writes vault contents as JSON.
type Exporter struct {
	source Lister
	now    func() time.Time
}

// NewExporter creates a new vault exporter.
func NewExporter(source Lister) *Exporter {
	return &Exporter{source: source, now: time.Now}
}

// Export writes all records to w in JSON format.
func (e *Exporter) Export(ctx context.Context, w io.Writer, metadata map[string]string) (int, error) {
	records, err := e.source.Records(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing records: %w", err)
	}

	export := ExportFormat{
		Version:    ExportVersion,
		ExportedAt: e.now().UTC().Format(time.RFC3339),
		Records:    make([]ExportRecord, 0, len(records)),
		Metadata:   metadata,
	}
	for _, rec := range records {
		export.Records = append(export.Records, ExportRecord{
			OriginalText:   rec.OriginalText,
			TranslatedText: rec.TranslatedText,
			FromLang:       rec.FromLang,
			ToLang:         rec.ToLang,
			Timestamp:      rec.Timestamp,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(export); err != nil {
		return 0, fmt.Errorf("encoding JSON: %w", err)
	}

	return len(records), nil
}

// ExportToFile exports the vault to a file.
func (e *Exporter) ExportToFile(ctx context.Context, path string, metadata map[string]string) (int, error) {
	f, err := os.Create(path) // #nosec G304 - path is intentionally user-provided
	if err != nil {
		return 0, fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	return e.Export(ctx, f, metadata)
}

// Importer loads exported records into a vault.
type Importer struct {
	target trailcache.Vault
}

// NewImporter creates a new vault importer.
func NewImporter(target trailcache.Vault) *Importer {
	return &Importer{target: target}
}

// ImportResult contains statistics about the import operation.
type ImportResult struct {
	Version  string
	Metadata map[string]string
	Imported int
	Skipped  int // already present in the vault
	Failed   int
}

// Import reads records from r. Cache keys are rebuilt from the record
// fields, and keys already present are skipped so the import never
// duplicates a translation.
func (i *Importer) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	var export ExportFormat
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return nil, fmt.Errorf("decoding JSON: %w", err)
	}
	if export.Version != "" && export.Version != ExportVersion {
		return nil, fmt.Errorf("unsupported export version %q", export.Version)
	}

	result := &ImportResult{
		Version:  export.Version,
		Metadata: export.Metadata,
	}

	for _, er := range export.Records {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if er.OriginalText == "" || er.TranslatedText == "" {
			result.Failed++
			continue
		}
		rec := trailcache.NewTranslationRecord(er.OriginalText, er.TranslatedText, er.FromLang, er.ToLang, er.Timestamp)

		_, found, err := i.target.Get(ctx, rec.CacheKey)
		if err != nil {
			result.Failed++
			continue
		}
		if found {
			result.Skipped++
			continue
		}
		if err := i.target.Add(ctx, rec); err != nil {
			result.Failed++
			continue
		}
		result.Imported++
	}

	return result, nil
}

// ImportFromFile imports records from a file.
func (i *Importer) ImportFromFile(ctx context.Context, path string) (*ImportResult, error) {
	f, err := os.Open(path) // #nosec G304 - path is intentionally user-provided
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	return i.Import(ctx, f)
}
