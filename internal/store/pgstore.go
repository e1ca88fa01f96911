package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"docqa/internal/model"
)

// PgStore keeps chunks in Postgres with a pgvector embedding column.
type PgStore struct {
	db *sql.DB
}

func NewPgStore(conn string, dim int) (*PgStore, error) {
	db, err := sql.Open("postgres", conn)
	if err != nil {
		return nil, err
	}
	if err := ensureSchema(db, dim); err != nil {
		return nil, err
	}
	return &PgStore{db: db}, nil
}

// Insert writes all rows in one transaction so a failure never leaves a
// document partially stored.
func (s *PgStore) Insert(ctx context.Context, rows []model.Chunk) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert chunks: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (chunk_id, doc_id, ordinal, text, embedding)
		VALUES ($1, $2, $3, $4, $5)
	`)
	if err != nil {
		return fmt.Errorf("insert chunks: %w", err)
	}
	defer stmt.Close()

	for _, c := range rows {
		if _, err := stmt.ExecContext(ctx, c.ID, c.DocID, c.Ordinal, c.Text, pgvector.NewVector(c.Embedding)); err != nil {
			return fmt.Errorf("insert chunk %s: %w", c.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert chunks: %w", err)
	}
	return nil
}

// Search ranks by cosine distance and reports 1-distance as the similarity
// score, so callers see results in descending-similarity order.
func (s *PgStore) Search(ctx context.Context, query []float32, topK int, docID string) ([]model.Match, error) {
	if topK <= 0 {
		topK = 5
	}
	q := pgvector.NewVector(query)
	rows, err := s.db.QueryContext(ctx, `
		SELECT chunk_id, doc_id, text, 1 - (embedding <=> $1) AS score
		FROM chunks
		WHERE ($2 = '' OR doc_id = $2)
		ORDER BY embedding <=> $1
		LIMIT $3
	`, q, docID, topK)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	defer rows.Close()

	var out []model.Match
	for rows.Next() {
		var m model.Match
		if err := rows.Scan(&m.ID, &m.DocID, &m.Text, &m.Score); err != nil {
			return nil, fmt.Errorf("search chunks: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	return out, nil
}

func (s *PgStore) FirstChunk(ctx context.Context, docID string) (*model.Chunk, error) {
	var c model.Chunk
	err := s.db.QueryRowContext(ctx, `
		SELECT chunk_id, doc_id, ordinal, text
		FROM chunks
		WHERE doc_id = $1
		ORDER BY ordinal ASC
		LIMIT 1
	`, docID).Scan(&c.ID, &c.DocID, &c.Ordinal, &c.Text)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("first chunk of %s: %w", docID, err)
	}
	return &c, nil
}

func (s *PgStore) DeleteDoc(ctx context.Context, docID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE doc_id = $1`, docID); err != nil {
		return fmt.Errorf("delete doc %s: %w", docID, err)
	}
	return nil
}

func (s *PgStore) ListDocs(ctx context.Context) ([]model.DocInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT doc_id, COUNT(*)
		FROM chunks
		GROUP BY doc_id
		ORDER BY doc_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list docs: %w", err)
	}
	defer rows.Close()

	var out []model.DocInfo
	for rows.Next() {
		var d model.DocInfo
		if err := rows.Scan(&d.DocID, &d.Chunks); err != nil {
			return nil, fmt.Errorf("list docs: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list docs: %w", err)
	}
	return out, nil
}

func (s *PgStore) CountChunks(ctx context.Context, docID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks WHERE doc_id = $1`, docID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count chunks of %s: %w", docID, err)
	}
	return n, nil
}
