package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// coreSchema creates the relational tables the rest of the store operates
// over. Grounded on the column set implied by
// _examples/original_source/src/graph/store.rs's UPSERT_NODE_SQL /
// UPSERT_EDGE_SQL, generalized to Go column types.
const coreSchema = `
CREATE TABLE IF NOT EXISTS nodes (
	id             TEXT PRIMARY KEY,
	kind           TEXT NOT NULL,
	name           TEXT NOT NULL,
	qualified_name TEXT NOT NULL DEFAULT '',
	file_path      TEXT NOT NULL,
	start_line     INTEGER NOT NULL,
	end_line       INTEGER NOT NULL,
	start_column   INTEGER NOT NULL DEFAULT 0,
	end_column     INTEGER NOT NULL DEFAULT 0,
	language       TEXT NOT NULL,
	signature      TEXT NOT NULL DEFAULT '',
	body           TEXT NOT NULL DEFAULT '',
	doc_comment    TEXT NOT NULL DEFAULT '',
	exported       INTEGER NOT NULL DEFAULT 0,
	has_exported   INTEGER NOT NULL DEFAULT 0,
	name_tokens    TEXT NOT NULL DEFAULT '',
	is_test        INTEGER NOT NULL DEFAULT 0,
	source_hash    INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_nodes_file_path ON nodes(file_path);
CREATE INDEX IF NOT EXISTS idx_nodes_name ON nodes(name);
CREATE INDEX IF NOT EXISTS idx_nodes_kind ON nodes(kind);

CREATE TABLE IF NOT EXISTS edges (
	source_id  TEXT NOT NULL,
	target_id  TEXT NOT NULL,
	kind       TEXT NOT NULL,
	file_path  TEXT NOT NULL DEFAULT '',
	line       INTEGER NOT NULL DEFAULT 0,
	metadata   TEXT NOT NULL DEFAULT '{}'
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_edges_source_target_kind ON edges(source_id, target_id, kind);
CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_id);
CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_id);

CREATE TABLE IF NOT EXISTS files (
	file_path    TEXT PRIMARY KEY,
	language     TEXT NOT NULL,
	content_hash TEXT NOT NULL DEFAULT '',
	indexed_at   INTEGER NOT NULL DEFAULT 0,
	node_count   INTEGER NOT NULL DEFAULT 0,
	edge_count   INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS unresolved_refs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	source_id  TEXT NOT NULL,
	specifier  TEXT NOT NULL,
	ref_type   TEXT NOT NULL,
	file_path  TEXT NOT NULL,
	line       INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_unresolved_refs_file ON unresolved_refs(file_path);

CREATE TABLE IF NOT EXISTS vec_embeddings (
	node_id   TEXT PRIMARY KEY,
	embedding BLOB NOT NULL,
	dims      INTEGER NOT NULL
);
`

// ftsTableName is the canonical name used throughout the search package
// regardless of which schema variant got created.
const ftsTableName = "fts_nodes"

// initSchema creates the relational tables and, opportunistically, the
// FTS5 virtual table used by internal/search. When the linked sqlite3
// driver was not built with FTS5 support, it falls back to a plain table
// that the search engine degrades to a LIKE-based scan over — the same
// runtime-detection shape termfx-morfx uses for its `logs` table.
func initSchema(db *sql.DB) (ftsAvailable bool, err error) {
	if _, err := db.Exec(coreSchema); err != nil {
		return false, fmt.Errorf("store: create core schema: %w", err)
	}

	_, err = db.Exec(`CREATE VIRTUAL TABLE IF NOT EXISTS ` + ftsTableName + ` USING fts5(
		node_id UNINDEXED,
		name,
		qualified_name,
		name_tokens,
		file_path,
		doc_comment,
		signature
	);`)
	if err == nil {
		return true, nil
	}
	if !strings.Contains(err.Error(), "no such module: fts5") {
		return false, fmt.Errorf("store: create fts5 table: %w", err)
	}

	// FTS5 unavailable: fall back to a plain table. internal/search uses
	// ftsAvailable to switch its keyword-search implementation to a LIKE
	// scan over the same columns.
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS ` + ftsTableName + ` (
		node_id        TEXT PRIMARY KEY,
		name           TEXT,
		qualified_name TEXT,
		name_tokens    TEXT,
		file_path      TEXT,
		doc_comment    TEXT,
		signature      TEXT
	);`)
	if err != nil {
		return false, fmt.Errorf("store: create fts5 fallback table: %w", err)
	}
	return false, nil
}
