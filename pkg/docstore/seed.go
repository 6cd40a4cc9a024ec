package docstore

import (
	"context"
	_ "embed"
	"fmt"
	"html"
	"os"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"gopkg.in/yaml.v3"

	"github.com/coolbeans/lexref/pkg/citation"
)

//go:embed corpus/federal.yaml
var federalCorpus []byte

// DefaultCorpus returns the embedded corpus of federal instruments.
func DefaultCorpus() ([]*Document, error) {
	return ParseCorpus(federalCorpus)
}

// LoadCorpusFile reads a corpus YAML file.
func LoadCorpusFile(path string) ([]*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}
	return ParseCorpus(data)
}

type corpusFile struct {
	Documents []*Document `yaml:"documents"`
}

// ParseCorpus decodes corpus YAML. Titles and provision text are stripped of
// HTML, every ID must be canonical, and IDs must be unique.
func ParseCorpus(data []byte) ([]*Document, error) {
	var corpus corpusFile
	if err := yaml.Unmarshal(data, &corpus); err != nil {
		return nil, fmt.Errorf("failed to parse corpus: %w", err)
	}

	policy := bluemonday.StrictPolicy()
	seen := make(map[string]bool, len(corpus.Documents))
	for i, doc := range corpus.Documents {
		if doc == nil {
			return nil, fmt.Errorf("corpus entry %d is empty", i)
		}
		if _, _, _, ok := citation.ParseCanonicalID(doc.ID); !ok {
			return nil, fmt.Errorf("corpus entry %d: %q is not a canonical identifier", i, doc.ID)
		}
		if seen[doc.ID] {
			return nil, fmt.Errorf("corpus entry %d: duplicate identifier %s", i, doc.ID)
		}
		seen[doc.ID] = true

		fillIdentity(doc)
		if !doc.Status.Valid() {
			return nil, fmt.Errorf("corpus entry %s: unknown status %q", doc.ID, doc.Status)
		}
		doc.Title = plainText(policy, doc.Title)
		for j := range doc.Provisions {
			doc.Provisions[j].Ref = strings.TrimSpace(doc.Provisions[j].Ref)
			doc.Provisions[j].Text = plainText(policy, doc.Provisions[j].Text)
		}
	}
	return corpus.Documents, nil
}

// plainText strips markup and decodes the entities bluemonday leaves behind.
func plainText(policy *bluemonday.Policy, s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(policy.Sanitize(s))), " ")
}

// Writer is a store that can be seeded.
type Writer interface {
	Exists(ctx context.Context, id string) (bool, error)
	Upsert(ctx context.Context, doc *Document) error
}

// SeedReport summarizes a seeding run.
type SeedReport struct {
	TotalAttempted int              `json:"total_attempted"`
	Succeeded      int              `json:"succeeded"`
	Skipped        int              `json:"skipped"`
	Failed         int              `json:"failed"`
	Entries        []SeedEntryState `json:"entries"`
}

// SeedEntryState records the outcome of seeding a single document.
type SeedEntryState struct {
	ID     string `json:"id"`
	Status string `json:"status"` // "ingested", "skipped", "failed"
	Error  string `json:"error,omitempty"`
}

// Seed writes docs into w. Documents that already exist are skipped unless
// force is set. A failed document is recorded and seeding continues; the
// returned error is reserved for a cancelled context.
func Seed(ctx context.Context, w Writer, docs []*Document, force bool) (*SeedReport, error) {
	report := &SeedReport{
		TotalAttempted: len(docs),
		Entries:        make([]SeedEntryState, 0, len(docs)),
	}

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if !force {
			exists, err := w.Exists(ctx, doc.ID)
			if err != nil {
				report.Failed++
				report.Entries = append(report.Entries, SeedEntryState{ID: doc.ID, Status: "failed", Error: err.Error()})
				continue
			}
			if exists {
				report.Skipped++
				report.Entries = append(report.Entries, SeedEntryState{ID: doc.ID, Status: "skipped"})
				continue
			}
		}

		if err := w.Upsert(ctx, doc); err != nil {
			report.Failed++
			report.Entries = append(report.Entries, SeedEntryState{ID: doc.ID, Status: "failed", Error: err.Error()})
			continue
		}

		report.Succeeded++
		report.Entries = append(report.Entries, SeedEntryState{ID: doc.ID, Status: "ingested"})
	}

	return report, nil
}
