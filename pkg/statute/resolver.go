// Package statute turns identifier-like user input ("LGPD", "lei 13.709/2018",
// "lei 13709 2018") into canonical instrument identifiers and confirms them
// against a document store.
package statute

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/coolbeans/lexref/pkg/citation"
	"github.com/coolbeans/lexref/pkg/docstore"
)

// Lookup is the slice of the document store the resolver needs.
type Lookup interface {
	Exists(ctx context.Context, id string) (bool, error)
	LookupByTitleSubstring(ctx context.Context, fragment string) (*docstore.Document, error)
}

// Resolution is the outcome of ResolveExisting.
type Resolution struct {
	// ID is the identifier of the matched document.
	ID string `json:"id"`

	// Candidate is the generated candidate that matched. For approximate
	// matches it is the title fragment that was searched.
	Candidate string `json:"candidate"`

	// Approximate is set when the document was found by title substring
	// rather than by an exact identifier. Several titles can share a
	// substring and the first one wins, so callers should treat such
	// matches as a best guess.
	Approximate bool `json:"approximate"`
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Candidates returns the identifiers worth trying for input, most specific
// first: the input as typed (lowercased, then original case), its alias, its
// reference-notation rewrite, and the hyphen/space separator variants.
// Duplicates and empty strings are dropped. It performs no I/O.
func Candidates(input string) []string {
	trimmed := strings.TrimSpace(input)
	lower := strings.ToLower(trimmed)

	generated := []string{lower, trimmed}

	if entry, ok := citation.LookupAlias(lower); ok {
		generated = append(generated, entry.CanonicalID())
	}
	if instrument, ok := citation.ParseInstrument(trimmed); ok {
		generated = append(generated, instrument.CanonicalID())
	}
	generated = append(generated,
		whitespaceRun.ReplaceAllString(lower, "-"),
		strings.ReplaceAll(lower, "-", " "),
	)

	return dedupe(generated)
}

// ResolveExisting returns the first candidate that exists in the store. When
// none does, it falls back to a substring match on document titles; that
// match is marked Approximate. The boolean is false when nothing matched.
// Store failures are returned as errors.
func ResolveExisting(ctx context.Context, input string, lookup Lookup) (Resolution, bool, error) {
	for _, candidate := range Candidates(input) {
		exists, err := lookup.Exists(ctx, candidate)
		if err != nil {
			return Resolution{}, false, fmt.Errorf("failed to check candidate %q: %w", candidate, err)
		}
		if exists {
			return Resolution{ID: candidate, Candidate: candidate}, true, nil
		}
	}

	fragment := strings.TrimSpace(input)
	if fragment == "" {
		return Resolution{}, false, nil
	}
	doc, err := lookup.LookupByTitleSubstring(ctx, fragment)
	if errors.Is(err, docstore.ErrNotFound) {
		return Resolution{}, false, nil
	}
	if err != nil {
		return Resolution{}, false, fmt.Errorf("failed to search titles for %q: %w", fragment, err)
	}
	return Resolution{ID: doc.ID, Candidate: fragment, Approximate: true}, true, nil
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		if value == "" || seen[value] {
			continue
		}
		seen[value] = true
		result = append(result, value)
	}
	return result
}
