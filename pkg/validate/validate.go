// Package validate checks citations against a document store: the cited
// instrument must exist, should be in force, and should contain the cited
// article.
package validate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/coolbeans/lexref/pkg/citation"
	"github.com/coolbeans/lexref/pkg/docstore"
)

// Result is the outcome of validating one citation. Problems with the
// citation itself are reported as warnings; Validate only returns an error
// when the store fails.
type Result struct {
	Citation        citation.ParsedCitation `json:"citation"`
	CanonicalID     string                  `json:"canonical_id,omitempty"`
	DocumentExists  bool                    `json:"document_exists"`
	ProvisionExists bool                    `json:"provision_exists"`
	DocumentTitle   string                  `json:"document_title,omitempty"`
	Status          docstore.Status         `json:"status,omitempty"`
	Warnings        []string                `json:"warnings"`
}

// OK reports whether the citation resolved to an existing provision of a
// document in force.
func (r *Result) OK() bool {
	return r.Citation.Valid && r.DocumentExists && r.ProvisionExists && len(r.Warnings) == 0
}

// ToJSON serializes the result.
func (r *Result) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// String renders a short human-readable report.
func (r *Result) String() string {
	var sb strings.Builder

	status := "OK"
	if !r.OK() {
		status = "WARN"
	}
	if !r.Citation.Valid {
		status = "INVALID"
	}
	sb.WriteString(fmt.Sprintf("[%s] %s\n", status, strings.TrimSpace(r.Citation.Raw)))

	if r.Citation.Valid {
		sb.WriteString(fmt.Sprintf("  Citation:  %s\n", citation.Format(r.Citation, citation.StyleFull)))
		sb.WriteString(fmt.Sprintf("  ID:        %s\n", r.CanonicalID))
	}
	if r.DocumentExists {
		sb.WriteString(fmt.Sprintf("  Document:  %s (%s)\n", r.DocumentTitle, r.Status))
		sb.WriteString(fmt.Sprintf("  Provision: %v\n", r.ProvisionExists))
	}
	for _, warning := range r.Warnings {
		sb.WriteString(fmt.Sprintf("  ! %s\n", warning))
	}
	return sb.String()
}

// Validator checks citations against a store. It is safe for concurrent use
// if the store is.
type Validator struct {
	store  docstore.Store
	logger *zap.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(v *Validator) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// New returns a Validator backed by store.
func New(store docstore.Store, opts ...Option) *Validator {
	v := &Validator{store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate parses text and checks it against the store.
func (v *Validator) Validate(ctx context.Context, text string) (*Result, error) {
	parsed := citation.Parse(text)
	result := &Result{Citation: parsed, Warnings: []string{}}
	if !parsed.Valid {
		result.Warnings = append(result.Warnings, parsed.Error)
		return result, nil
	}

	id := parsed.CanonicalID()
	result.CanonicalID = id

	doc, err := v.findDocument(ctx, id, parsed)
	if err != nil {
		v.logger.Warn("document lookup failed",
			zap.String("id", id),
			zap.Error(err))
		return nil, err
	}
	if doc == nil {
		result.Warnings = append(result.Warnings, "document not found: expected identifier "+id)
		return result, nil
	}

	result.DocumentExists = true
	result.DocumentTitle = doc.Title
	result.Status = doc.Status
	if doc.ID != id {
		result.Warnings = append(result.Warnings, "matched approximately by title: "+doc.ID)
	}
	if doc.Status == docstore.StatusRepealed {
		result.Warnings = append(result.Warnings, fmt.Sprintf("document %s has been repealed", doc.ID))
	}

	if parsed.Article != "" {
		exists, err := v.store.ProvisionExists(ctx, doc.ID, ArticleRefs(parsed.Article))
		if err != nil {
			v.logger.Warn("provision lookup failed",
				zap.String("id", doc.ID),
				zap.String("article", parsed.Article),
				zap.Error(err))
			return nil, fmt.Errorf("failed to check article %s of %s: %w", parsed.Article, doc.ID, err)
		}
		result.ProvisionExists = exists
		if !exists {
			result.Warnings = append(result.Warnings, fmt.Sprintf("article %s not found in %s", parsed.Article, doc.Title))
		}
	}

	v.logger.Debug("citation validated",
		zap.String("id", doc.ID),
		zap.String("article", parsed.Article),
		zap.Bool("provision_exists", result.ProvisionExists),
		zap.Int("warnings", len(result.Warnings)))
	return result, nil
}

// findDocument looks id up exactly and falls back to the citation title.
// A title match only counts when the document is the same instrument: its
// identifier must agree on kind and, when the citation has one, number.
// It returns nil, nil when nothing qualifies.
func (v *Validator) findDocument(ctx context.Context, id string, parsed citation.ParsedCitation) (*docstore.Document, error) {
	doc, err := v.store.LookupByID(ctx, id)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up %s: %w", id, err)
	}
	if parsed.Title == "" {
		return nil, nil
	}

	doc, err = v.store.LookupByTitleSubstring(ctx, parsed.Title)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up title %q: %w", parsed.Title, err)
	}
	if !sameInstrument(doc.ID, parsed) {
		v.logger.Debug("title match rejected",
			zap.String("expected_id", id),
			zap.String("matched_id", doc.ID))
		return nil, nil
	}
	v.logger.Debug("document matched by title",
		zap.String("expected_id", id),
		zap.String("matched_id", doc.ID))
	return doc, nil
}

func sameInstrument(docID string, parsed citation.ParsedCitation) bool {
	kind, number, _, ok := citation.ParseCanonicalID(docID)
	if !ok {
		return true
	}
	if kind != parsed.Kind {
		return false
	}
	return parsed.Number == 0 || number == parsed.Number
}

// ArticleRefs returns the spellings under which an article may be stored:
// bare ("5"), zero-padded to three digits ("005") and with thousands dots
// ("1.024"). Duplicates are removed.
func ArticleRefs(article string) []string {
	n, err := strconv.ParseUint(article, 10, 32)
	if err != nil {
		return []string{article}
	}
	bare := strconv.FormatUint(n, 10)
	refs := []string{bare}
	for _, ref := range []string{fmt.Sprintf("%03d", n), citation.GroupThousands(uint(n))} {
		if !containsString(refs, ref) {
			refs = append(refs, ref)
		}
	}
	if article != bare && !containsString(refs, article) {
		refs = append(refs, article)
	}
	return refs
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
