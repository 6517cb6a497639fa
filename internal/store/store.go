// Package store is the persistent graph store: SQLite-backed CRUD over
// nodes, edges, unresolved refs, and file records, with derived-column
// maintenance and transactional file replacement (spec.md §4.4).
//
// Grounded on _examples/original_source/src/graph/store.rs (UPSERT_NODE_SQL,
// UPSERT_EDGE_SQL, DELETE_EDGES_BY_FILE_SQL, DELETE_NODES_BY_FILE_SQL,
// ENSURE_EDGE_UNIQUE_INDEX_SQL) ported to Go's database/sql, with the
// FTS5 runtime-detection and PRAGMA/retry shape adapted from
// _examples/termfx-morfx/internal/db/{migrate,db}.go.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/standardbeagle/codegraph/internal/apperrors"
	"github.com/standardbeagle/codegraph/internal/graphmodel"
)

// Stats is the aggregate (node_count, edge_count, distinct_file_count)
// triple from spec.md's get_stats contract.
type Stats struct {
	NodeCount int
	EdgeCount int
	FileCount int
}

// Store owns the one writable SQLite connection for a codegraph database.
// At most one writer may be in flight at any instant; reads may proceed
// concurrently with the underlying engine's own guarantees (spec.md §4.4).
type Store struct {
	db    *sql.DB
	stmts *stmtCache

	// FTSAvailable reports whether the fts_nodes table is a real FTS5
	// virtual table or the plain-table fallback. internal/search reads
	// this to pick its keyword-search strategy.
	FTSAvailable bool
}

// Open opens (creating if necessary) the SQLite database at path and
// applies the core schema plus FTS5 virtual table. Use ":memory:" for an
// ephemeral in-process store (tests, one-shot CLI invocations).
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_foreign_keys=ON&_journal_mode=WAL&_synchronous=NORMAL", path)
	if path == ":memory:" {
		dsn = "file::memory:?cache=shared&_foreign_keys=ON"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, apperrors.Storage("open", err)
	}
	db.SetMaxOpenConns(1)

	ftsOK, err := initSchema(db)
	if err != nil {
		db.Close()
		return nil, apperrors.Storage("init_schema", err)
	}

	if _, err := db.Exec(ensureEdgeUniqueIndexSQL); err != nil {
		db.Close()
		return nil, apperrors.Storage("ensure_edge_index", err)
	}

	return &Store{db: db, stmts: newStmtCache(db, 256), FTSAvailable: ftsOK}, nil
}

// Close releases the prepared-statement cache and underlying connection.
func (s *Store) Close() error {
	_ = s.stmts.closeAll()
	return s.db.Close()
}

// DB exposes the underlying *sql.DB for read-only borrows by
// internal/search and internal/traversal, which issue their own
// hand-tuned recursive-CTE queries directly against the connection.
func (s *Store) DB() *sql.DB { return s.db }

const ensureEdgeUniqueIndexSQL = `
CREATE UNIQUE INDEX IF NOT EXISTS idx_edges_source_target_kind2
ON edges(source_id, target_id, kind)`

const upsertNodeSQL = `
INSERT INTO nodes (id, kind, name, qualified_name, file_path, start_line, end_line, start_column, end_column, language, signature, body, doc_comment, exported, has_exported, name_tokens, is_test, source_hash)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	kind = excluded.kind,
	name = excluded.name,
	qualified_name = excluded.qualified_name,
	file_path = excluded.file_path,
	start_line = excluded.start_line,
	end_line = excluded.end_line,
	start_column = excluded.start_column,
	end_column = excluded.end_column,
	language = excluded.language,
	signature = excluded.signature,
	body = excluded.body,
	doc_comment = excluded.doc_comment,
	exported = excluded.exported,
	has_exported = excluded.has_exported,
	name_tokens = excluded.name_tokens,
	is_test = excluded.is_test,
	source_hash = excluded.source_hash`

const upsertFTSRowSQL = `
INSERT OR REPLACE INTO ` + ftsTableName + ` (node_id, name, qualified_name, name_tokens, file_path, doc_comment, signature)
VALUES (?, ?, ?, ?, ?, ?, ?)`

const deleteFTSRowSQL = `DELETE FROM ` + ftsTableName + ` WHERE node_id = ?`

const upsertEdgeSQL = `
INSERT INTO edges (source_id, target_id, kind, file_path, line, metadata)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(source_id, target_id, kind) DO UPDATE SET
	file_path = excluded.file_path,
	line = excluded.line,
	metadata = excluded.metadata`

const deleteEdgesByFileSQL = `
DELETE FROM edges WHERE source_id IN (SELECT id FROM nodes WHERE file_path = ?)
   OR target_id IN (SELECT id FROM nodes WHERE file_path = ?)`

const deleteNodesByFileSQL = `DELETE FROM nodes WHERE file_path = ?`

// UpsertNode inserts or replaces n by id, recomputing its derived columns
// first, and keeps the fts_nodes row in sync.
func (s *Store) UpsertNode(ctx context.Context, n graphmodel.Node) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return upsertNodeTx(tx, n)
	})
}

// UpsertNodes upserts all of nodes in a single transaction.
func (s *Store) UpsertNodes(ctx context.Context, nodes []graphmodel.Node) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, n := range nodes {
			if err := upsertNodeTx(tx, n); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertNodeTx(tx *sql.Tx, n graphmodel.Node) error {
	n.Finalize()
	_, err := tx.Exec(upsertNodeSQL,
		n.ID, string(n.Kind), n.Name, n.QualifiedName, n.FilePath,
		n.StartLine, n.EndLine, n.StartColumn, n.EndColumn, n.Language,
		n.Signature, n.Body, n.DocComment, boolToInt(n.Exported), boolToInt(n.HasExported),
		n.NameTokens, boolToInt(n.IsTest), n.SourceHash,
	)
	if err != nil {
		return fmt.Errorf("upsert node %s: %w", n.ID, err)
	}
	_, err = tx.Exec(upsertFTSRowSQL, n.ID, n.Name, n.QualifiedName, n.NameTokens, n.FilePath, n.DocComment, n.Signature)
	if err != nil {
		return fmt.Errorf("upsert fts row %s: %w", n.ID, err)
	}
	return nil
}

// UpsertEdge inserts or updates e by (source, target, kind). Idempotent.
func (s *Store) UpsertEdge(ctx context.Context, e graphmodel.Edge) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return upsertEdgeTx(tx, e)
	})
}

// UpsertEdges upserts all of edges in a single transaction.
func (s *Store) UpsertEdges(ctx context.Context, edges []graphmodel.Edge) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, e := range edges {
			if err := upsertEdgeTx(tx, e); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertEdgeTx(tx *sql.Tx, e graphmodel.Edge) error {
	metaJSON, err := marshalMetadata(e.Metadata)
	if err != nil {
		return err
	}
	_, err = tx.Exec(upsertEdgeSQL, e.SourceID, e.TargetID, string(e.Kind), e.FilePath, e.Line, metaJSON)
	if err != nil {
		return fmt.Errorf("upsert edge %s->%s: %w", e.SourceID, e.TargetID, err)
	}
	return nil
}

// ReplaceFileData atomically deletes all edges where either endpoint
// belongs to file, deletes all nodes with file_path = file, then inserts
// the given nodes and edges — all in one transaction (spec.md §4.3's
// replace_file_data contract).
func (s *Store) ReplaceFileData(ctx context.Context, file string, language, contentHash string, nodes []graphmodel.Node, edges []graphmodel.Edge) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := deleteFileDataTx(tx, file); err != nil {
			return err
		}
		for _, n := range nodes {
			if err := upsertNodeTx(tx, n); err != nil {
				return err
			}
		}
		for _, e := range edges {
			if err := upsertEdgeTx(tx, e); err != nil {
				return err
			}
		}
		_, err := tx.Exec(`
			INSERT INTO files (file_path, language, content_hash, indexed_at, node_count, edge_count)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(file_path) DO UPDATE SET
				language = excluded.language,
				content_hash = excluded.content_hash,
				indexed_at = excluded.indexed_at,
				node_count = excluded.node_count,
				edge_count = excluded.edge_count`,
			file, language, contentHash, time.Now().Unix(), len(nodes), len(edges))
		if err != nil {
			return fmt.Errorf("upsert file record %s: %w", file, err)
		}
		return nil
	})
}

// DeleteFileNodes atomically deletes both endpoints and edges for file.
func (s *Store) DeleteFileNodes(ctx context.Context, file string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return deleteFileDataTx(tx, file)
	})
}

func deleteFileDataTx(tx *sql.Tx, file string) error {
	if _, err := tx.Exec(deleteEdgesByFileSQL, file, file); err != nil {
		return fmt.Errorf("delete edges for %s: %w", file, err)
	}

	rows, err := tx.Query(`SELECT id FROM nodes WHERE file_path = ?`, file)
	if err != nil {
		return fmt.Errorf("select nodes for fts cleanup %s: %w", file, err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	rows.Close()
	for _, id := range ids {
		if _, err := tx.Exec(deleteFTSRowSQL, id); err != nil {
			return fmt.Errorf("delete fts row %s: %w", id, err)
		}
	}

	if _, err := tx.Exec(deleteNodesByFileSQL, file); err != nil {
		return fmt.Errorf("delete nodes for %s: %w", file, err)
	}
	if _, err := tx.Exec(`DELETE FROM unresolved_refs WHERE file_path = ?`, file); err != nil {
		return fmt.Errorf("delete unresolved refs for %s: %w", file, err)
	}
	return nil
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Storage("begin_tx", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return apperrors.Storage("tx", err)
	}
	if err := tx.Commit(); err != nil {
		return apperrors.Storage("commit", err)
	}
	return nil
}

// GetNode fetches a single node by id, or (zero, false) if not found.
func (s *Store) GetNode(ctx context.Context, id string) (graphmodel.Node, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+nodeColumns+` FROM nodes WHERE id = ?`, id)
	n, err := scanNode(row)
	if err == sql.ErrNoRows {
		return graphmodel.Node{}, false, nil
	}
	if err != nil {
		return graphmodel.Node{}, false, apperrors.Storage("get_node", err)
	}
	return n, true, nil
}

// GetNodesByFile returns every node whose file_path equals file.
func (s *Store) GetNodesByFile(ctx context.Context, file string) ([]graphmodel.Node, error) {
	return s.queryNodes(ctx, `SELECT `+nodeColumns+` FROM nodes WHERE file_path = ? ORDER BY start_line`, file)
}

// GetNodesByName returns every node whose name equals name.
func (s *Store) GetNodesByName(ctx context.Context, name string) ([]graphmodel.Node, error) {
	return s.queryNodes(ctx, `SELECT `+nodeColumns+` FROM nodes WHERE name = ?`, name)
}

// GetNodesByKind returns every node of the given kind.
func (s *Store) GetNodesByKind(ctx context.Context, kind graphmodel.NodeKind) ([]graphmodel.Node, error) {
	return s.queryNodes(ctx, `SELECT `+nodeColumns+` FROM nodes WHERE kind = ?`, string(kind))
}

// GetAllNodes returns a full scan of every stored node, used by analyses.
func (s *Store) GetAllNodes(ctx context.Context) ([]graphmodel.Node, error) {
	return s.queryNodes(ctx, `SELECT `+nodeColumns+` FROM nodes`)
}

// GetOutEdges returns edges where source_id = id, optionally filtered by
// kind.
func (s *Store) GetOutEdges(ctx context.Context, id string, kind graphmodel.EdgeKind) ([]graphmodel.Edge, error) {
	if kind == "" {
		return s.queryEdges(ctx, `SELECT source_id, target_id, kind, file_path, line, metadata FROM edges WHERE source_id = ?`, id)
	}
	return s.queryEdges(ctx, `SELECT source_id, target_id, kind, file_path, line, metadata FROM edges WHERE source_id = ? AND kind = ?`, id, string(kind))
}

// GetInEdges returns edges where target_id = id, optionally filtered by
// kind.
func (s *Store) GetInEdges(ctx context.Context, id string, kind graphmodel.EdgeKind) ([]graphmodel.Edge, error) {
	if kind == "" {
		return s.queryEdges(ctx, `SELECT source_id, target_id, kind, file_path, line, metadata FROM edges WHERE target_id = ?`, id)
	}
	return s.queryEdges(ctx, `SELECT source_id, target_id, kind, file_path, line, metadata FROM edges WHERE target_id = ? AND kind = ?`, id, string(kind))
}

// GetAllEdges returns a full scan of every stored edge, used by analyses.
func (s *Store) GetAllEdges(ctx context.Context) ([]graphmodel.Edge, error) {
	return s.queryEdges(ctx, `SELECT source_id, target_id, kind, file_path, line, metadata FROM edges`)
}

// GetStats returns (node_count, edge_count, distinct_file_count).
func (s *Store) GetStats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM nodes`).Scan(&st.NodeCount); err != nil {
		return Stats{}, apperrors.Storage("get_stats_nodes", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM edges`).Scan(&st.EdgeCount); err != nil {
		return Stats{}, apperrors.Storage("get_stats_edges", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT file_path) FROM nodes`).Scan(&st.FileCount); err != nil {
		return Stats{}, apperrors.Storage("get_stats_files", err)
	}
	return st, nil
}

// GetFileHash returns the content_hash recorded for file the last time
// it was indexed (ok is false if the file has never been indexed), used
// by internal/pipeline to skip re-parsing unchanged files.
func (s *Store) GetFileHash(ctx context.Context, file string) (hash string, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT content_hash FROM files WHERE file_path = ?`, file).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperrors.Storage("get_file_hash", err)
	}
	return hash, true, nil
}

// GetIndexedFiles returns every file_path recorded in the files table.
func (s *Store) GetIndexedFiles(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT file_path FROM files`)
	if err != nil {
		return nil, apperrors.Storage("get_indexed_files", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, apperrors.Storage("get_indexed_files_scan", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// DeleteFile removes file's nodes, edges, unresolved refs, and files
// record entirely — used when a previously-indexed file is deleted from
// disk between runs.
func (s *Store) DeleteFile(ctx context.Context, file string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := deleteFileDataTx(tx, file); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM unresolved_refs WHERE file_path = ?`, file); err != nil {
			return fmt.Errorf("delete unresolved refs for %s: %w", file, err)
		}
		if _, err := tx.Exec(`DELETE FROM files WHERE file_path = ?`, file); err != nil {
			return fmt.Errorf("delete file record %s: %w", file, err)
		}
		return nil
	})
}

// InsertUnresolvedRef records an import specifier that could not be bound
// to an indexed file at extraction time.
func (s *Store) InsertUnresolvedRef(ctx context.Context, ref graphmodel.UnresolvedRef) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO unresolved_refs (source_id, specifier, ref_type, file_path, line)
		VALUES (?, ?, ?, ?, ?)`,
		ref.SourceID, ref.Specifier, ref.RefType, ref.FilePath, ref.Line)
	if err != nil {
		return apperrors.Storage("insert_unresolved_ref", err)
	}
	return nil
}

// ClearUnresolvedRefsForFile deletes every unresolved_refs row for file.
func (s *Store) ClearUnresolvedRefsForFile(ctx context.Context, file string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM unresolved_refs WHERE file_path = ?`, file)
	if err != nil {
		return apperrors.Storage("clear_unresolved_refs", err)
	}
	return nil
}

// GetUnresolvedRefs returns unresolved refs, optionally filtered to a
// single file (pass "" for all files).
func (s *Store) GetUnresolvedRefs(ctx context.Context, file string) ([]graphmodel.UnresolvedRef, error) {
	query := `SELECT id, source_id, specifier, ref_type, file_path, line FROM unresolved_refs`
	args := []any{}
	if file != "" {
		query += ` WHERE file_path = ?`
		args = append(args, file)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Storage("get_unresolved_refs", err)
	}
	defer rows.Close()

	var out []graphmodel.UnresolvedRef
	for rows.Next() {
		var r graphmodel.UnresolvedRef
		if err := rows.Scan(&r.ID, &r.SourceID, &r.Specifier, &r.RefType, &r.FilePath, &r.Line); err != nil {
			return nil, apperrors.Storage("scan_unresolved_ref", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpsertEmbedding stores vec for nodeID, replacing any prior vector. The
// embedding backend (spec.md §9's external collaborator) owns dimensionality;
// the store persists whatever length it is handed.
func (s *Store) UpsertEmbedding(ctx context.Context, nodeID string, vec []float32) error {
	blob := encodeVector(vec)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vec_embeddings (node_id, embedding, dims) VALUES (?, ?, ?)
		ON CONFLICT(node_id) DO UPDATE SET embedding = excluded.embedding, dims = excluded.dims`,
		nodeID, blob, len(vec))
	if err != nil {
		return apperrors.Storage("upsert_embedding", err)
	}
	return nil
}

// GetEmbedding returns the stored vector for nodeID, or (nil, false).
func (s *Store) GetEmbedding(ctx context.Context, nodeID string) ([]float32, bool, error) {
	var blob []byte
	var dims int
	err := s.db.QueryRowContext(ctx, `SELECT embedding, dims FROM vec_embeddings WHERE node_id = ?`, nodeID).Scan(&blob, &dims)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperrors.Storage("get_embedding", err)
	}
	return decodeVector(blob, dims), true, nil
}

// AllEmbeddings returns every stored (node_id, vector) pair, used by
// internal/search's brute-force cosine scan.
func (s *Store) AllEmbeddings(ctx context.Context) (map[string][]float32, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT node_id, embedding, dims FROM vec_embeddings`)
	if err != nil {
		return nil, apperrors.Storage("all_embeddings", err)
	}
	defer rows.Close()

	out := make(map[string][]float32)
	for rows.Next() {
		var nodeID string
		var blob []byte
		var dims int
		if err := rows.Scan(&nodeID, &blob, &dims); err != nil {
			return nil, apperrors.Storage("scan_embedding", err)
		}
		out[nodeID] = decodeVector(blob, dims)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// scanning helpers
// ---------------------------------------------------------------------------

const nodeColumns = `id, kind, name, qualified_name, file_path, start_line, end_line, start_column, end_column, language, signature, body, doc_comment, exported, has_exported, name_tokens, is_test, source_hash`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (graphmodel.Node, error) {
	var n graphmodel.Node
	var kind string
	var exported, hasExported, isTest int
	err := row.Scan(&n.ID, &kind, &n.Name, &n.QualifiedName, &n.FilePath, &n.StartLine, &n.EndLine,
		&n.StartColumn, &n.EndColumn, &n.Language, &n.Signature, &n.Body, &n.DocComment,
		&exported, &hasExported, &n.NameTokens, &isTest, &n.SourceHash)
	if err != nil {
		return graphmodel.Node{}, err
	}
	n.Kind = graphmodel.NodeKind(kind)
	n.Exported = exported != 0
	n.HasExported = hasExported != 0
	n.IsTest = isTest != 0
	return n, nil
}

func (s *Store) queryNodes(ctx context.Context, query string, args ...any) ([]graphmodel.Node, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Storage("query_nodes", err)
	}
	defer rows.Close()

	var out []graphmodel.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, apperrors.Storage("scan_node", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) queryEdges(ctx context.Context, query string, args ...any) ([]graphmodel.Edge, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Storage("query_edges", err)
	}
	defer rows.Close()

	var out []graphmodel.Edge
	for rows.Next() {
		var e graphmodel.Edge
		var kind, metaJSON string
		if err := rows.Scan(&e.SourceID, &e.TargetID, &kind, &e.FilePath, &e.Line, &metaJSON); err != nil {
			return nil, apperrors.Storage("scan_edge", err)
		}
		e.Kind = graphmodel.EdgeKind(kind)
		e.Metadata = unmarshalMetadata(metaJSON)
		out = append(out, e)
	}
	return out, rows.Err()
}

func marshalMetadata(m map[string]string) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal edge metadata: %w", err)
	}
	return string(b), nil
}

func unmarshalMetadata(raw string) map[string]string {
	if raw == "" || raw == "{}" {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil
	}
	return m
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func sanitizeLike(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "%", "\\%"), "_", "\\_")
}
