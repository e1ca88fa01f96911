package store

import (
	"database/sql"
	"fmt"
)

// ensureSchema creates the pgvector extension, the chunks table and its
// indexes. dim fixes the vector column width; it must match the embedding
// service's dimension for the deployment.
func ensureSchema(db *sql.DB, dim int) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunks (
			id SERIAL PRIMARY KEY,
			chunk_id TEXT NOT NULL,
			doc_id TEXT NOT NULL,
			ordinal INT NOT NULL,
			text TEXT NOT NULL,
			embedding vector(%d) NOT NULL
		)`, dim),
		`CREATE INDEX IF NOT EXISTS chunks_doc_id_idx ON chunks (doc_id, ordinal)`,
		`DO $$
		BEGIN
			IF NOT EXISTS (
				SELECT 1 FROM pg_class c
				JOIN pg_namespace n ON n.oid=c.relnamespace
				WHERE c.relname='chunks_embedding_ivfflat_idx'
			) THEN
				EXECUTE 'CREATE INDEX chunks_embedding_ivfflat_idx ON chunks USING ivfflat (embedding vector_cosine_ops) WITH (lists=100)';
			END IF;
		END $$;`,
	}

	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	// ivfflat needs statistics to pick lists sensibly.
	_, _ = db.Exec(`ANALYZE chunks`)
	return nil
}
