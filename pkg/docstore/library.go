package docstore

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gopkg.in/fsnotify.v1"

	"github.com/coolbeans/lexref/pkg/search"
)

const (
	manifestFileName   = "library.json"
	documentsDir       = "documents"
	provisionsFileName = "provisions.json"
	manifestVersion    = "1.0.0"
)

// LibraryManifest is the top-level index of a library directory.
type LibraryManifest struct {
	Version   string           `json:"version"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	Documents []*DocumentEntry `json:"documents"`
}

// DocumentEntry is the manifest record of one document. Provisions live in
// documents/<storage hash>/provisions.json.
type DocumentEntry struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Status      Status    `json:"status"`
	Provisions  int       `json:"provisions"`
	IngestedAt  time.Time `json:"ingested_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	StorageHash string    `json:"storage_hash"`
}

// LibraryStats aggregates counts across the library.
type LibraryStats struct {
	TotalDocuments  int            `json:"total_documents"`
	TotalProvisions int            `json:"total_provisions"`
	ByStatus        map[string]int `json:"by_status"`
	ByKind          map[string]int `json:"by_kind"`
}

// Library is a file-backed document store. Everything is loaded into memory
// on Open and written through on every change; it is safe for concurrent use.
type Library struct {
	mu        sync.RWMutex
	path      string
	manifest  *LibraryManifest
	documents map[string]*Document
	closed    bool
	logger    *zap.Logger

	watchMu  sync.Mutex
	watcher  *fsnotify.Watcher
	stopChan chan struct{}
	onReload func(error)
}

// LibraryOption configures a Library.
type LibraryOption func(*Library)

// WithLibraryLogger sets the logger used for reload and watch events.
func WithLibraryLogger(logger *zap.Logger) LibraryOption {
	return func(lib *Library) {
		if logger != nil {
			lib.logger = logger
		}
	}
}

// Init creates an empty library at libraryPath.
func Init(libraryPath string, opts ...LibraryOption) (*Library, error) {
	if err := os.MkdirAll(filepath.Join(libraryPath, documentsDir), 0755); err != nil {
		return nil, fmt.Errorf("failed to create library directory: %w", err)
	}

	now := time.Now().UTC()
	lib := newLibrary(libraryPath, opts)
	lib.manifest = &LibraryManifest{
		Version:   manifestVersion,
		CreatedAt: now,
		UpdatedAt: now,
		Documents: []*DocumentEntry{},
	}

	if err := lib.saveManifest(); err != nil {
		return nil, fmt.Errorf("failed to save manifest: %w", err)
	}
	return lib, nil
}

// Open loads an existing library from disk.
func Open(libraryPath string, opts ...LibraryOption) (*Library, error) {
	lib := newLibrary(libraryPath, opts)
	manifest, documents, err := lib.load()
	if err != nil {
		return nil, err
	}
	lib.manifest = manifest
	lib.documents = documents
	return lib, nil
}

// OpenOrInit opens the library at libraryPath, creating it when no manifest
// exists yet.
func OpenOrInit(libraryPath string, opts ...LibraryOption) (*Library, error) {
	_, err := os.Stat(filepath.Join(libraryPath, manifestFileName))
	if errors.Is(err, os.ErrNotExist) {
		return Init(libraryPath, opts...)
	}
	return Open(libraryPath, opts...)
}

func newLibrary(libraryPath string, opts []LibraryOption) *Library {
	lib := &Library{
		path:      libraryPath,
		documents: make(map[string]*Document),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(lib)
	}
	return lib
}

// Reload re-reads the manifest and provisions from disk, replacing the
// in-memory state. On error the previous state is kept.
func (lib *Library) Reload() error {
	manifest, documents, err := lib.load()
	if err != nil {
		return err
	}
	lib.mu.Lock()
	lib.manifest = manifest
	lib.documents = documents
	lib.mu.Unlock()
	lib.logger.Info("library reloaded",
		zap.String("path", lib.path),
		zap.Int("documents", len(documents)))
	return nil
}

func (lib *Library) load() (*LibraryManifest, map[string]*Document, error) {
	data, err := os.ReadFile(filepath.Join(lib.path, manifestFileName))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read library manifest: %w", err)
	}

	var manifest LibraryManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, nil, fmt.Errorf("failed to parse library manifest: %w", err)
	}

	documents := make(map[string]*Document, len(manifest.Documents))
	for _, entry := range manifest.Documents {
		var provisions []Provision
		raw, err := os.ReadFile(filepath.Join(lib.path, documentsDir, entry.StorageHash, provisionsFileName))
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, nil, fmt.Errorf("failed to read provisions for %s: %w", entry.ID, err)
		default:
			if err := json.Unmarshal(raw, &provisions); err != nil {
				return nil, nil, fmt.Errorf("failed to parse provisions for %s: %w", entry.ID, err)
			}
		}
		doc := &Document{
			ID:         entry.ID,
			Title:      entry.Title,
			Status:     entry.Status,
			Provisions: provisions,
		}
		fillIdentity(doc)
		documents[entry.ID] = doc
	}
	return &manifest, documents, nil
}

// AddOptions configures AddDocument.
type AddOptions struct {
	// Force overwrites an existing document with the same ID.
	Force bool
}

// AddDocument stores doc. Adding an ID that already exists is a no-op that
// returns the existing entry unless opts.Force is set.
func (lib *Library) AddDocument(doc *Document, opts AddOptions) (*DocumentEntry, error) {
	if doc == nil || doc.ID == "" {
		return nil, fmt.Errorf("document ID is required")
	}

	lib.mu.Lock()
	defer lib.mu.Unlock()

	if lib.closed {
		return nil, ErrReadOnly
	}

	existing := lib.findEntryUnsafe(doc.ID)
	if existing != nil && !opts.Force {
		return existing, nil
	}

	stored := cloneDocument(doc)
	fillIdentity(stored)
	if !stored.Status.Valid() {
		return nil, fmt.Errorf("document %s has unknown status %q", doc.ID, doc.Status)
	}

	storageHash := hashDocumentID(stored.ID)
	provisionsData, err := json.MarshalIndent(stored.Provisions, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal provisions: %w", err)
	}
	if err := lib.writeDocumentFile(storageHash, provisionsFileName, provisionsData); err != nil {
		return nil, fmt.Errorf("failed to save provisions: %w", err)
	}

	now := time.Now().UTC()
	entry := &DocumentEntry{
		ID:          stored.ID,
		Title:       stored.Title,
		Status:      stored.Status,
		Provisions:  len(stored.Provisions),
		IngestedAt:  now,
		UpdatedAt:   now,
		StorageHash: storageHash,
	}
	if existing != nil {
		entry.IngestedAt = existing.IngestedAt
	}

	prevEntries := append([]*DocumentEntry(nil), lib.manifest.Documents...)
	prevUpdatedAt := lib.manifest.UpdatedAt
	lib.upsertEntry(entry)

	if err := lib.saveManifest(); err != nil {
		lib.manifest.Documents = prevEntries
		lib.manifest.UpdatedAt = prevUpdatedAt
		lib.restoreProvisions(storageHash, lib.documents[stored.ID])
		return nil, fmt.Errorf("failed to save manifest: %w", err)
	}
	lib.documents[stored.ID] = stored
	return entry, nil
}

// restoreProvisions puts the provisions file of prev back after a failed
// write, or removes the document directory when there was no prev.
func (lib *Library) restoreProvisions(storageHash string, prev *Document) {
	var err error
	if prev == nil {
		err = os.RemoveAll(lib.documentDir(storageHash))
	} else {
		var data []byte
		if data, err = json.MarshalIndent(prev.Provisions, "", "  "); err == nil {
			err = lib.writeDocumentFile(storageHash, provisionsFileName, data)
		}
	}
	if err != nil {
		lib.logger.Warn("failed to restore document files",
			zap.String("storage_hash", storageHash),
			zap.Error(err))
	}
}

// Upsert stores doc, replacing any document with the same ID.
func (lib *Library) Upsert(_ context.Context, doc *Document) error {
	_, err := lib.AddDocument(doc, AddOptions{Force: true})
	return err
}

// RemoveDocument deletes a document and its files.
func (lib *Library) RemoveDocument(documentID string) error {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	if lib.closed {
		return ErrReadOnly
	}

	entry := lib.findEntryUnsafe(documentID)
	if entry == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, documentID)
	}

	prevEntries := lib.manifest.Documents
	prevUpdatedAt := lib.manifest.UpdatedAt
	lib.removeEntry(documentID)

	if err := lib.saveManifest(); err != nil {
		lib.manifest.Documents = prevEntries
		lib.manifest.UpdatedAt = prevUpdatedAt
		return fmt.Errorf("failed to save manifest: %w", err)
	}
	delete(lib.documents, documentID)

	if err := os.RemoveAll(lib.documentDir(entry.StorageHash)); err != nil {
		return fmt.Errorf("failed to remove document files: %w", err)
	}
	return nil
}

// GetEntry returns the manifest entry for a document, or nil.
func (lib *Library) GetEntry(documentID string) *DocumentEntry {
	lib.mu.RLock()
	defer lib.mu.RUnlock()
	return lib.findEntryUnsafe(documentID)
}

// ListDocuments returns all manifest entries sorted by ID.
func (lib *Library) ListDocuments() []*DocumentEntry {
	lib.mu.RLock()
	defer lib.mu.RUnlock()

	result := make([]*DocumentEntry, len(lib.manifest.Documents))
	copy(result, lib.manifest.Documents)
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}

// Stats returns aggregate counts.
func (lib *Library) Stats() *LibraryStats {
	lib.mu.RLock()
	defer lib.mu.RUnlock()

	stats := &LibraryStats{
		ByStatus: make(map[string]int),
		ByKind:   make(map[string]int),
	}
	for _, doc := range lib.documents {
		stats.TotalDocuments++
		stats.TotalProvisions += len(doc.Provisions)
		stats.ByStatus[string(doc.Status)]++
		if doc.Kind != "" {
			stats.ByKind[string(doc.Kind)]++
		}
	}
	return stats
}

// Path returns the library's root directory.
func (lib *Library) Path() string {
	return lib.path
}

// Close stops any watch and makes the library read-only. Reads keep working.
func (lib *Library) Close() error {
	lib.StopWatch()
	lib.mu.Lock()
	lib.closed = true
	lib.mu.Unlock()
	return nil
}

// Exists implements Store.
func (lib *Library) Exists(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	lib.mu.RLock()
	defer lib.mu.RUnlock()
	_, ok := lib.documents[id]
	return ok, nil
}

// LookupByID implements Store.
func (lib *Library) LookupByID(ctx context.Context, id string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lib.mu.RLock()
	defer lib.mu.RUnlock()
	doc, ok := lib.documents[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return cloneDocument(doc), nil
}

// LookupByTitleSubstring implements Store.
func (lib *Library) LookupByTitleSubstring(ctx context.Context, fragment string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	needle := foldTitle(fragment)
	if needle == "" {
		return nil, fmt.Errorf("%w: empty title fragment", ErrNotFound)
	}

	lib.mu.RLock()
	defer lib.mu.RUnlock()
	for _, id := range lib.sortedIDsUnsafe() {
		doc := lib.documents[id]
		if strings.Contains(foldTitle(doc.Title), needle) {
			return cloneDocument(doc), nil
		}
	}
	return nil, fmt.Errorf("%w: title containing %q", ErrNotFound, fragment)
}

// ProvisionExists implements Store.
func (lib *Library) ProvisionExists(ctx context.Context, documentID string, refs []string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	lib.mu.RLock()
	defer lib.mu.RUnlock()
	doc, ok := lib.documents[documentID]
	if !ok {
		return false, nil
	}
	return containsRef(doc.Provisions, refs), nil
}

// Search implements Store by evaluating the variant against titles and
// provision text in memory.
func (lib *Library) Search(ctx context.Context, variant string, limit int) ([]SearchHit, error) {
	query, err := search.ParseVariant(variant)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	lib.mu.RLock()
	defer lib.mu.RUnlock()

	hits := make([]SearchHit, 0)
	for _, id := range lib.sortedIDsUnsafe() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc := lib.documents[id]
		if query.Match(doc.Title) {
			hits = append(hits, SearchHit{DocumentID: doc.ID, Title: doc.Title, Snippet: snippet(doc.Title)})
			if len(hits) == limit {
				return hits, nil
			}
		}
		for _, provision := range doc.Provisions {
			if !query.Match(provision.Text) {
				continue
			}
			hits = append(hits, SearchHit{
				DocumentID:   doc.ID,
				Title:        doc.Title,
				ProvisionRef: provision.Ref,
				Snippet:      snippet(provision.Text),
			})
			if len(hits) == limit {
				return hits, nil
			}
		}
	}
	return hits, nil
}

// --- Internal helpers ---

func (lib *Library) sortedIDsUnsafe() []string {
	ids := make([]string, 0, len(lib.documents))
	for id := range lib.documents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (lib *Library) findEntryUnsafe(documentID string) *DocumentEntry {
	for _, entry := range lib.manifest.Documents {
		if entry.ID == documentID {
			return entry
		}
	}
	return nil
}

func (lib *Library) upsertEntry(entry *DocumentEntry) {
	lib.manifest.UpdatedAt = time.Now().UTC()
	for i, existing := range lib.manifest.Documents {
		if existing.ID == entry.ID {
			lib.manifest.Documents[i] = entry
			return
		}
	}
	lib.manifest.Documents = append(lib.manifest.Documents, entry)
}

func (lib *Library) removeEntry(documentID string) {
	filtered := make([]*DocumentEntry, 0, len(lib.manifest.Documents))
	for _, entry := range lib.manifest.Documents {
		if entry.ID != documentID {
			filtered = append(filtered, entry)
		}
	}
	lib.manifest.Documents = filtered
	lib.manifest.UpdatedAt = time.Now().UTC()
}

// saveManifest writes through a temp file so a watching process never sees a
// half-written manifest.
func (lib *Library) saveManifest() error {
	data, err := json.MarshalIndent(lib.manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	manifestPath := filepath.Join(lib.path, manifestFileName)
	tmpPath := manifestPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, manifestPath)
}

func (lib *Library) documentDir(storageHash string) string {
	return filepath.Join(lib.path, documentsDir, storageHash)
}

func (lib *Library) writeDocumentFile(storageHash string, fileName string, data []byte) error {
	dirPath := lib.documentDir(storageHash)
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dirPath, fileName), data, 0644)
}

func hashDocumentID(documentID string) string {
	hash := sha256.Sum256([]byte(documentID))
	return fmt.Sprintf("%x", hash)
}
