package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/coolbeans/lexref/pkg/search"
)

// Postgres is a Store backed by PostgreSQL. Title matching uses a folded
// title column and full-text search uses tsvector columns over folded text
// with the 'simple' configuration, so query words and indexed words are
// folded the same way.
type Postgres struct {
	db     *sql.DB
	logger *zap.Logger

	schemaOnce sync.Once
	schemaErr  error
}

// NewPostgres opens a connection pool for dsn and verifies it with a ping.
func NewPostgres(ctx context.Context, dsn string, logger *zap.Logger) (*Postgres, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}
	return NewPostgresFromDB(db, logger), nil
}

// NewPostgresFromDB wraps an existing pool.
func NewPostgresFromDB(db *sql.DB, logger *zap.Logger) *Postgres {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Postgres{db: db, logger: logger}
}

// Close closes the pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// EnsureSchema creates the tables and indexes if they do not exist. It runs
// at most once per store.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	p.schemaOnce.Do(func() {
		_, p.schemaErr = p.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS documents (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  title_folded TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  kind TEXT NOT NULL DEFAULT '',
  number INTEGER NOT NULL DEFAULT 0,
  year INTEGER NOT NULL DEFAULT 0,
  tsv TSVECTOR GENERATED ALWAYS AS (to_tsvector('simple', title_folded)) STORED
);

CREATE TABLE IF NOT EXISTS provisions (
  document_id TEXT NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
  position INTEGER NOT NULL,
  ref TEXT NOT NULL,
  text TEXT NOT NULL,
  text_folded TEXT NOT NULL,
  tsv TSVECTOR GENERATED ALWAYS AS (to_tsvector('simple', text_folded)) STORED,
  PRIMARY KEY (document_id, position)
);
CREATE INDEX IF NOT EXISTS idx_documents_tsv ON documents USING GIN (tsv);
CREATE INDEX IF NOT EXISTS idx_provisions_tsv ON provisions USING GIN (tsv);
CREATE INDEX IF NOT EXISTS idx_provisions_ref ON provisions (document_id, ref);
`)
		if p.schemaErr != nil {
			p.schemaErr = fmt.Errorf("failed to create schema: %w", p.schemaErr)
		}
	})
	return p.schemaErr
}

// Upsert writes doc and replaces its provisions in one transaction.
func (p *Postgres) Upsert(ctx context.Context, doc *Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("document ID is required")
	}
	if err := p.EnsureSchema(ctx); err != nil {
		return err
	}
	stored := cloneDocument(doc)
	fillIdentity(stored)
	if !stored.Status.Valid() {
		return fmt.Errorf("document %s has unknown status %q", doc.ID, doc.Status)
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
INSERT INTO documents (id, title, title_folded, status, kind, number, year)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id)
DO UPDATE SET title=EXCLUDED.title,
  title_folded=EXCLUDED.title_folded,
  status=EXCLUDED.status,
  kind=EXCLUDED.kind,
  number=EXCLUDED.number,
  year=EXCLUDED.year`,
		stored.ID, stored.Title, foldTitle(stored.Title), string(stored.Status),
		string(stored.Kind), int64(stored.Number), int64(stored.Year))
	if err != nil {
		return fmt.Errorf("failed to upsert document %s: %w", stored.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM provisions WHERE document_id = $1`, stored.ID); err != nil {
		return fmt.Errorf("failed to clear provisions of %s: %w", stored.ID, err)
	}
	for i, provision := range stored.Provisions {
		_, err := tx.ExecContext(ctx, `
INSERT INTO provisions (document_id, position, ref, text, text_folded)
VALUES ($1,$2,$3,$4,$5)`,
			stored.ID, i, provision.Ref, provision.Text, foldTitle(provision.Text))
		if err != nil {
			return fmt.Errorf("failed to insert provision %s of %s: %w", provision.Ref, stored.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit document %s: %w", stored.ID, err)
	}
	return nil
}

// Exists implements Store.
func (p *Postgres) Exists(ctx context.Context, id string) (bool, error) {
	if err := p.EnsureSchema(ctx); err != nil {
		return false, err
	}
	var exists bool
	err := p.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM documents WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check document %s: %w", id, err)
	}
	return exists, nil
}

// LookupByID implements Store.
func (p *Postgres) LookupByID(ctx context.Context, id string) (*Document, error) {
	if err := p.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	row := p.db.QueryRowContext(ctx, `SELECT id, title, status FROM documents WHERE id = $1`, id)
	return p.scanDocument(ctx, row, id)
}

// LookupByTitleSubstring implements Store.
func (p *Postgres) LookupByTitleSubstring(ctx context.Context, fragment string) (*Document, error) {
	needle := foldTitle(fragment)
	if needle == "" {
		return nil, fmt.Errorf("%w: empty title fragment", ErrNotFound)
	}
	if err := p.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	row := p.db.QueryRowContext(ctx, `SELECT id, title, status FROM documents
WHERE strpos(title_folded, $1) > 0 ORDER BY id LIMIT 1`, needle)
	return p.scanDocument(ctx, row, fmt.Sprintf("title containing %q", fragment))
}

func (p *Postgres) scanDocument(ctx context.Context, row *sql.Row, what string) (*Document, error) {
	var (
		doc    Document
		status string
	)
	err := row.Scan(&doc.ID, &doc.Title, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", what, err)
	}
	doc.Status = Status(status)
	fillIdentity(&doc)

	rows, err := p.db.QueryContext(ctx, `SELECT ref, text FROM provisions
WHERE document_id = $1 ORDER BY position`, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load provisions of %s: %w", doc.ID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var provision Provision
		if err := rows.Scan(&provision.Ref, &provision.Text); err != nil {
			return nil, fmt.Errorf("failed to scan provision of %s: %w", doc.ID, err)
		}
		doc.Provisions = append(doc.Provisions, provision)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load provisions of %s: %w", doc.ID, err)
	}
	return &doc, nil
}

// ProvisionExists implements Store.
func (p *Postgres) ProvisionExists(ctx context.Context, documentID string, refs []string) (bool, error) {
	if len(refs) == 0 {
		return false, nil
	}
	if err := p.EnsureSchema(ctx); err != nil {
		return false, err
	}
	var exists bool
	err := p.db.QueryRowContext(ctx, `SELECT EXISTS (
  SELECT 1 FROM provisions WHERE document_id = $1 AND ref = ANY($2)
)`, documentID, refs).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check provisions of %s: %w", documentID, err)
	}
	return exists, nil
}

// Search implements Store. The variant is parsed and re-rendered as a
// to_tsquery expression, so user text never reaches the query parser.
func (p *Postgres) Search(ctx context.Context, variant string, limit int) ([]SearchHit, error) {
	query, err := search.ParseVariant(variant)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if err := p.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	tsquery := query.TSQuery()
	p.logger.Debug("postgres search", zap.String("variant", variant), zap.String("tsquery", tsquery))

	rows, err := p.db.QueryContext(ctx, `
SELECT document_id, title, ref, body FROM (
  SELECT d.id AS document_id, d.title, '' AS ref, d.title AS body, -1 AS position
  FROM documents d WHERE d.tsv @@ to_tsquery('simple', $1)
  UNION ALL
  SELECT d.id, d.title, pr.ref, pr.text, pr.position
  FROM provisions pr JOIN documents d ON d.id = pr.document_id
  WHERE pr.tsv @@ to_tsquery('simple', $1)
) hits
ORDER BY document_id, position
LIMIT $2`, tsquery, limit)
	if err != nil {
		return nil, searchError(variant, err)
	}
	defer rows.Close()

	hits := make([]SearchHit, 0)
	for rows.Next() {
		var (
			hit  SearchHit
			body string
		)
		if err := rows.Scan(&hit.DocumentID, &hit.Title, &hit.ProvisionRef, &body); err != nil {
			return nil, fmt.Errorf("failed to scan search hit: %w", err)
		}
		hit.Snippet = snippet(body)
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, searchError(variant, err)
	}
	return hits, nil
}

// sqlstateSyntaxError is raised by to_tsquery for a malformed expression.
const sqlstateSyntaxError = "42601"

// searchError maps a tsquery syntax error to search.ErrSyntax so the caller
// moves on to the next variant.
func searchError(variant string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == sqlstateSyntaxError {
		return fmt.Errorf("%w: %q: %s", search.ErrSyntax, variant, pgErr.Message)
	}
	return fmt.Errorf("failed to search %q: %w", variant, err)
}
