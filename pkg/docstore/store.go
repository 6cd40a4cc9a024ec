// Package docstore holds federal instruments and their provisions, and
// answers the existence, title and full-text queries the citation engine
// needs. Two backends are provided: a file-backed Library and a PostgreSQL
// store. Either can be wrapped in a read-through LRU cache.
package docstore

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/coolbeans/lexref/pkg/citation"
)

var (
	// ErrNotFound is returned by lookups that match no document.
	ErrNotFound = errors.New("docstore: document not found")

	// ErrReadOnly is returned when writing to a closed store.
	ErrReadOnly = errors.New("docstore: store is read-only")
)

// Status is the legal status of a document.
type Status string

const (
	StatusActive   Status = "active"
	StatusRepealed Status = "repealed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusRepealed
}

// Document is a federal instrument with its provisions.
type Document struct {
	ID         string        `json:"id" yaml:"id"`
	Title      string        `json:"title" yaml:"title"`
	Status     Status        `json:"status" yaml:"status"`
	Kind       citation.Kind `json:"kind" yaml:"-"`
	Number     uint          `json:"number,omitempty" yaml:"-"`
	Year       uint          `json:"year" yaml:"-"`
	Provisions []Provision   `json:"provisions,omitempty" yaml:"provisions"`
}

// Provision is one article of a document. Ref is the article number as the
// source writes it: "5", "005" or "1.024".
type Provision struct {
	Ref  string `json:"ref" yaml:"ref"`
	Text string `json:"text" yaml:"text"`
}

// SearchHit is a full-text match. ProvisionRef is empty when the match is on
// the document title.
type SearchHit struct {
	DocumentID   string `json:"document_id"`
	Title        string `json:"title"`
	ProvisionRef string `json:"provision_ref,omitempty"`
	Snippet      string `json:"snippet"`
}

// Store is the read interface used by the resolver, validator and search.
type Store interface {
	// Exists reports whether a document with exactly this ID exists.
	Exists(ctx context.Context, id string) (bool, error)

	// LookupByID returns the document or ErrNotFound.
	LookupByID(ctx context.Context, id string) (*Document, error)

	// LookupByTitleSubstring returns the first document, in ID order, whose
	// title contains fragment ignoring case and accents, or ErrNotFound.
	LookupByTitleSubstring(ctx context.Context, fragment string) (*Document, error)

	// ProvisionExists reports whether the document has a provision whose ref
	// is one of refs. An unknown document has no provisions.
	ProvisionExists(ctx context.Context, documentID string, refs []string) (bool, error)

	// Search runs one query variant. A malformed variant yields an error
	// wrapping search.ErrSyntax.
	Search(ctx context.Context, variant string, limit int) ([]SearchHit, error)
}

// DefaultSearchLimit applies when Search is called with a non-positive limit.
const DefaultSearchLimit = 20

// fillIdentity derives kind, number and year from the document ID when it is
// canonical. Non-canonical IDs keep whatever the caller set.
func fillIdentity(doc *Document) {
	if kind, number, year, ok := citation.ParseCanonicalID(doc.ID); ok {
		doc.Kind = kind
		doc.Number = number
		doc.Year = year
	}
	if doc.Status == "" {
		doc.Status = StatusActive
	}
}

// foldTitle is the comparison form for title substring matching.
func foldTitle(s string) string {
	return strings.ToLower(citation.Normalize(s))
}

const snippetRunes = 160

func snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= snippetRunes {
		return text
	}
	runes := []rune(text)
	cut := string(runes[:snippetRunes])
	if i := strings.LastIndexByte(cut, ' '); i > snippetRunes/2 {
		cut = cut[:i]
	}
	return cut + "..."
}

func containsRef(provisions []Provision, refs []string) bool {
	for _, provision := range provisions {
		for _, ref := range refs {
			if provision.Ref == ref {
				return true
			}
		}
	}
	return false
}

func cloneDocument(doc *Document) *Document {
	if doc == nil {
		return nil
	}
	clone := *doc
	clone.Provisions = append([]Provision(nil), doc.Provisions...)
	return &clone
}
