package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/coolbeans/lexref/pkg/citation"
)

// DefaultCacheSize is used when NewCached is given a non-positive size.
const DefaultCacheSize = 1024

// Cached is a read-through LRU cache in front of another Store. Document
// lookups (including misses), title lookups and provision checks are cached;
// Search always goes to the backend.
type Cached struct {
	backend Store

	documents  *lru.Cache[string, *Document]
	titles     *lru.Cache[string, string]
	provisions *lru.Cache[string, bool]

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCached wraps backend with caches of the given size.
func NewCached(backend Store, size int) (*Cached, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	documents, err := lru.New[string, *Document](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create document cache: %w", err)
	}
	titles, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create title cache: %w", err)
	}
	provisions, err := lru.New[string, bool](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create provision cache: %w", err)
	}
	return &Cached{
		backend:    backend,
		documents:  documents,
		titles:     titles,
		provisions: provisions,
	}, nil
}

// Backend returns the wrapped store.
func (c *Cached) Backend() Store {
	return c.backend
}

// Purge drops every cached entry. Call it after the backend changes.
func (c *Cached) Purge() {
	c.documents.Purge()
	c.titles.Purge()
	c.provisions.Purge()
}

// CacheStats reports cache hits and misses since creation.
type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// Stats returns the hit and miss counters.
func (c *Cached) Stats() CacheStats {
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// Exists implements Store through the document cache.
func (c *Cached) Exists(ctx context.Context, id string) (bool, error) {
	doc, err := c.lookup(ctx, id)
	if err != nil {
		return false, err
	}
	return doc != nil, nil
}

// LookupByID implements Store.
func (c *Cached) LookupByID(ctx context.Context, id string) (*Document, error) {
	doc, err := c.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return cloneDocument(doc), nil
}

// lookup returns nil, nil for a document known to be absent.
func (c *Cached) lookup(ctx context.Context, id string) (*Document, error) {
	if doc, ok := c.documents.Get(id); ok {
		c.hits.Add(1)
		return doc, nil
	}
	c.misses.Add(1)
	doc, err := c.backend.LookupByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		c.documents.Add(id, nil)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.documents.Add(id, doc)
	return doc, nil
}

// LookupByTitleSubstring implements Store. Only the matched ID is cached;
// the document itself comes from the document cache.
func (c *Cached) LookupByTitleSubstring(ctx context.Context, fragment string) (*Document, error) {
	key := strings.ToLower(citation.Normalize(fragment))
	if id, ok := c.titles.Get(key); ok {
		c.hits.Add(1)
		if id == "" {
			return nil, fmt.Errorf("%w: title containing %q", ErrNotFound, fragment)
		}
		return c.LookupByID(ctx, id)
	}
	c.misses.Add(1)
	doc, err := c.backend.LookupByTitleSubstring(ctx, fragment)
	if errors.Is(err, ErrNotFound) {
		c.titles.Add(key, "")
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	c.titles.Add(key, doc.ID)
	c.documents.Add(doc.ID, doc)
	return cloneDocument(doc), nil
}

// ProvisionExists implements Store.
func (c *Cached) ProvisionExists(ctx context.Context, documentID string, refs []string) (bool, error) {
	key := documentID + "\x00" + strings.Join(refs, "\x00")
	if exists, ok := c.provisions.Get(key); ok {
		c.hits.Add(1)
		return exists, nil
	}
	c.misses.Add(1)
	exists, err := c.backend.ProvisionExists(ctx, documentID, refs)
	if err != nil {
		return false, err
	}
	c.provisions.Add(key, exists)
	return exists, nil
}

// Search implements Store without caching.
func (c *Cached) Search(ctx context.Context, variant string, limit int) ([]SearchHit, error) {
	return c.backend.Search(ctx, variant, limit)
}
