package docstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore counts backend calls and can be switched to fail.
type countingStore struct {
	Store
	lookups    int
	titles     int
	provisions int
	fail       error
}

func (s *countingStore) LookupByID(ctx context.Context, id string) (*Document, error) {
	s.lookups++
	if s.fail != nil {
		return nil, s.fail
	}
	return s.Store.LookupByID(ctx, id)
}

func (s *countingStore) LookupByTitleSubstring(ctx context.Context, fragment string) (*Document, error) {
	s.titles++
	return s.Store.LookupByTitleSubstring(ctx, fragment)
}

func (s *countingStore) ProvisionExists(ctx context.Context, documentID string, refs []string) (bool, error) {
	s.provisions++
	return s.Store.ProvisionExists(ctx, documentID, refs)
}

func newCachedForTest(t *testing.T) (*Cached, *countingStore) {
	t.Helper()
	backend := &countingStore{Store: newTestLibrary(t)}
	cached, err := NewCached(backend, 8)
	require.NoError(t, err)
	return cached, backend
}

func TestCachedLookupByID(t *testing.T) {
	cached, backend := newCachedForTest(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		doc, err := cached.LookupByID(ctx, "lei-13709-2018")
		require.NoError(t, err)
		assert.Equal(t, "lei-13709-2018", doc.ID)
	}
	assert.Equal(t, 1, backend.lookups)

	exists, err := cached.Exists(ctx, "lei-13709-2018")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 1, backend.lookups)

	assert.Equal(t, CacheStats{Hits: 3, Misses: 1}, cached.Stats())
}

func TestCachedNegativeLookup(t *testing.T) {
	cached, backend := newCachedForTest(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		exists, err := cached.Exists(ctx, "lei-1-1900")
		require.NoError(t, err)
		assert.False(t, exists)

		_, err = cached.LookupByID(ctx, "lei-1-1900")
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, 1, backend.lookups)
}

func TestCachedDoesNotCacheErrors(t *testing.T) {
	cached, backend := newCachedForTest(t)
	ctx := context.Background()
	boom := errors.New("backend down")

	backend.fail = boom
	_, err := cached.Exists(ctx, "lei-13709-2018")
	assert.ErrorIs(t, err, boom)

	backend.fail = nil
	exists, err := cached.Exists(ctx, "lei-13709-2018")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 2, backend.lookups)
}

func TestCachedTitleAndProvisions(t *testing.T) {
	cached, backend := newCachedForTest(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		doc, err := cached.LookupByTitleSubstring(ctx, "Proteção de Dados")
		require.NoError(t, err)
		assert.Equal(t, "lei-13709-2018", doc.ID)

		_, err = cached.LookupByTitleSubstring(ctx, "codigo penal")
		assert.ErrorIs(t, err, ErrNotFound)

		exists, err := cached.ProvisionExists(ctx, "lei-13709-2018", []string{"5", "005"})
		require.NoError(t, err)
		assert.True(t, exists)
	}
	assert.Equal(t, 2, backend.titles)
	assert.Equal(t, 1, backend.provisions)
	assert.Equal(t, 0, backend.lookups)
}

func TestCachedPurge(t *testing.T) {
	cached, backend := newCachedForTest(t)
	ctx := context.Background()

	_, err := cached.LookupByID(ctx, "lei-13709-2018")
	require.NoError(t, err)
	cached.Purge()
	_, err = cached.LookupByID(ctx, "lei-13709-2018")
	require.NoError(t, err)
	assert.Equal(t, 2, backend.lookups)
}

func TestCachedSearchPassesThrough(t *testing.T) {
	cached, _ := newCachedForTest(t)

	hits, err := cached.Search(context.Background(), `"dados"`, 10)
	require.NoError(t, err)
	assert.NotEmpty(t, hits)
}
