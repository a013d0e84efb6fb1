// Package pgvector stores the retrieval index in Postgres using the
// pgvector extension. It creates its own schema and searches by cosine
// distance, so multiple processes can share one index.
package pgvector

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"

	"docdex/internal/domain"
	"docdex/internal/vectorindex"
)

var tableNameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

type Config struct {
	ConnString string
	Table      string
}

// Index is the Postgres-backed counterpart of the flat index. Build
// replaces the table content in one transaction; Query runs a cosine
// similarity search ordered by score and passage id.
type Index struct {
	pool     *pgxpool.Pool
	embedder domain.Embedder
	table    string
	progress vectorindex.Progress
}

func New(ctx context.Context, cfg Config, embedder domain.Embedder) (*Index, error) {
	if cfg.Table == "" {
		cfg.Table = "passages"
	}
	if !tableNameRe.MatchString(cfg.Table) {
		return nil, fmt.Errorf("invalid table name %q", cfg.Table)
	}
	pool, err := pgxpool.New(ctx, cfg.ConnString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	x := &Index{pool: pool, embedder: embedder, table: cfg.Table}
	if err := x.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return x, nil
}

func (x *Index) Close() { x.pool.Close() }

// OnProgress registers a callback for build progress reporting.
func (x *Index) OnProgress(fn vectorindex.Progress) { x.progress = fn }

func (x *Index) ensureSchema(ctx context.Context) error {
	if _, err := x.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id integer PRIMARY KEY,
		text text NOT NULL,
		section text NOT NULL,
		char_count integer NOT NULL,
		word_count integer NOT NULL,
		embedding vector(%d) NOT NULL
	)`, x.table, x.embedder.Dimension())
	if _, err := x.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", x.table, err)
	}
	idxDDL := fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s USING ivfflat (embedding vector_cosine_ops)",
		x.table, x.table,
	)
	if _, err := x.pool.Exec(ctx, idxDDL); err != nil {
		return fmt.Errorf("create ivfflat index: %w", err)
	}
	return nil
}

// Build embeds all passages and replaces the table content. On failure
// the transaction rolls back and the previous content stays queryable.
func (x *Index) Build(ctx context.Context, passages []domain.Passage) error {
	if len(passages) == 0 {
		return fmt.Errorf("%w: no passages", vectorindex.ErrBuild)
	}
	vectors, err := vectorindex.EmbedPassages(ctx, x.embedder, passages, x.progress)
	if err != nil {
		return err
	}
	tx, err := x.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)
	if _, err := tx.Exec(ctx, "TRUNCATE "+x.table); err != nil {
		return fmt.Errorf("truncate %s: %w", x.table, err)
	}
	insert := fmt.Sprintf(
		"INSERT INTO %s (id, text, section, char_count, word_count, embedding) VALUES ($1, $2, $3, $4, $5, $6)",
		x.table,
	)
	for i, p := range passages {
		if _, err := tx.Exec(ctx, insert, p.ID, p.Text, p.Section, p.CharCount, p.WordCount, pgv.NewVector(vectors[i])); err != nil {
			return fmt.Errorf("insert passage %d: %w", p.ID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Query embeds term and returns up to k passages scoring at or above
// minSimilarity, ordered by similarity descending with passage id as the
// tie-break.
func (x *Index) Query(ctx context.Context, term string, k int, minSimilarity float32) ([]domain.SearchResult, error) {
	if k <= 0 {
		k = vectorindex.DefaultTopK
	}
	qv, err := x.embedder.Encode(ctx, []string{term})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(qv) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors for one term", len(qv))
	}
	search := fmt.Sprintf(`SELECT id, text, section, 1 - (embedding <=> $1) AS similarity
		FROM %s
		WHERE 1 - (embedding <=> $1) >= $2
		ORDER BY similarity DESC, id ASC
		LIMIT $3`, x.table)
	rows, err := x.pool.Query(ctx, search, pgv.NewVector(qv[0]), minSimilarity, k)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", x.table, err)
	}
	defer rows.Close()
	var out []domain.SearchResult
	for rows.Next() {
		var r domain.SearchResult
		var sim float64
		if err := rows.Scan(&r.ChunkID, &r.Text, &r.Section, &sim); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Similarity = float32(sim)
		r.SearchTerm = term
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search %s: %w", x.table, err)
	}
	if len(out) == 0 && x.count(ctx) == 0 {
		return nil, vectorindex.ErrNotReady
	}
	return out, nil
}

func (x *Index) Ready() bool { return x.count(context.Background()) > 0 }

func (x *Index) Size() int { return x.count(context.Background()) }

func (x *Index) count(ctx context.Context) int {
	var n int
	if err := x.pool.QueryRow(ctx, "SELECT count(*) FROM "+x.table).Scan(&n); err != nil {
		return 0
	}
	return n
}
