package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/meteoright00/diary-quest-sub001/internal/diary"
	"github.com/meteoright00/diary-quest-sub001/internal/store"
	"github.com/meteoright00/diary-quest-sub001/pkg/provider/embeddings"
)

var _ Index = (*Postgres)(nil)

// Postgres is the pgvector-backed diary index. Obtain one via [Open], or via
// [NewPostgres] when the caller manages the pool and migration itself.
//
// All methods are safe for concurrent use.
type Postgres struct {
	db  store.DB
	emb embeddings.Provider

	// pool is set only when the index was constructed by [Open] and owns
	// its connections.
	pool *pgxpool.Pool
}

// NewPostgres returns an index over an existing connection. The caller is
// responsible for running [Migrate] and for registering pgvector types on
// the connection; [Postgres.Close] is then a no-op.
func NewPostgres(db store.DB, emb embeddings.Provider) *Postgres {
	return &Postgres{db: db, emb: emb}
}

// Open connects to the database at dsn, registers pgvector types on every
// connection, verifies connectivity, and runs [Migrate] with the provider's
// embedding dimensions. The returned index owns its pool; release it with
// [Postgres.Close].
func Open(ctx context.Context, dsn string, emb embeddings.Provider) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("search: parse dsn: %w", err)
	}

	// Register pgvector types on every new connection so that vector columns
	// can be scanned into and inserted from pgvector.Vector values.
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("search: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("search: ping: %w", err)
	}
	if err := Migrate(ctx, pool, emb.Dimensions()); err != nil {
		pool.Close()
		return nil, err
	}

	return &Postgres{db: pool, emb: emb, pool: pool}, nil
}

// Close releases the pool when the index owns one.
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// indexSchema returns the DDL with the embedding dimension substituted. The
// dimension is baked into the column type at schema creation time; changing
// the embedding model afterwards requires a manual schema update and a
// re-index.
func indexSchema(dims int) string {
	return fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS diary_embeddings (
    diary_id     TEXT         PRIMARY KEY,
    character_id TEXT         NOT NULL,
    date         TIMESTAMPTZ  NOT NULL,
    content      TEXT         NOT NULL,
    embedding    vector(%d)
);

CREATE INDEX IF NOT EXISTS idx_diary_embeddings_character
    ON diary_embeddings (character_id);

CREATE INDEX IF NOT EXISTS idx_diary_embeddings_embedding
    ON diary_embeddings USING hnsw (embedding vector_cosine_ops);
`, dims)
}

// Migrate creates the extension, table, and HNSW index if they do not
// already exist. Idempotent and safe to run on every application start.
// dims must match the output dimension of the configured embedding model.
func Migrate(ctx context.Context, db store.DB, dims int) error {
	if _, err := db.Exec(ctx, indexSchema(dims)); err != nil {
		return fmt.Errorf("search: migrate: %w", err)
	}
	return nil
}

// IndexDiary implements [Index]. The indexed content is the entry's title
// and original text; the converted narrative stays out so that results
// match the user's own words.
func (p *Postgres) IndexDiary(ctx context.Context, d *diary.Diary) error {
	content := indexContent(d)
	vec, err := p.emb.Embed(ctx, content)
	if err != nil {
		return fmt.Errorf("search: embed diary %q: %w", d.ID, err)
	}

	const q = `
		INSERT INTO diary_embeddings (diary_id, character_id, date, content, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (diary_id) DO UPDATE SET
		    character_id = EXCLUDED.character_id,
		    date         = EXCLUDED.date,
		    content      = EXCLUDED.content,
		    embedding    = EXCLUDED.embedding`

	_, err = p.db.Exec(ctx, q, d.ID, d.CharacterID, d.Date, content, pgvector.NewVector(vec))
	if err != nil {
		return fmt.Errorf("search: index diary %q: %w", d.ID, err)
	}
	return nil
}

// Search implements [Index].
func (p *Postgres) Search(ctx context.Context, query string, limit int) ([]Match, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	vec, err := p.emb.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search: embed query: %w", err)
	}

	const q = `
		SELECT diary_id, character_id, date, content,
		       embedding <=> $1 AS distance
		FROM   diary_embeddings
		ORDER  BY distance
		LIMIT  $2`

	rows, err := p.db.Query(ctx, q, pgvector.NewVector(vec), limit)
	if err != nil {
		return nil, fmt.Errorf("search: query: %w", err)
	}

	matches, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Match, error) {
		var m Match
		err := row.Scan(&m.DiaryID, &m.CharacterID, &m.Date, &m.Content, &m.Distance)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("search: scan rows: %w", err)
	}
	if matches == nil {
		matches = []Match{}
	}
	return matches, nil
}

// Remove implements [Index].
func (p *Postgres) Remove(ctx context.Context, diaryID string) error {
	if _, err := p.db.Exec(ctx, `DELETE FROM diary_embeddings WHERE diary_id = $1`, diaryID); err != nil {
		return fmt.Errorf("search: remove diary %q: %w", diaryID, err)
	}
	return nil
}

// indexContent joins the entry's title and original text, skipping an empty
// title.
func indexContent(d *diary.Diary) string {
	if strings.TrimSpace(d.Title) == "" {
		return d.OriginalText
	}
	return d.Title + "\n\n" + d.OriginalText
}
