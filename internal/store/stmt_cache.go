package store

import (
	"container/list"
	"database/sql"
	"sync"
)

// stmtCache is a bounded, LRU-evicted cache of prepared statements keyed
// by SQL text (spec.md §4.4: "Prepared statements are cached inside the
// store keyed by SQL text; the cache is bounded and LRU-evicted").
// Grounded on the same need rusqlite's prepare_cached fills in
// _examples/original_source/src/graph/store.rs, expressed with Go's
// database/sql which has no built-in equivalent.
// Store holds one, but Store's own queries run directly on the connection
// or transaction and do not go through prepare.
type stmtCache struct {
	db       *sql.DB
	maxSize  int
	mu       sync.Mutex
	ll       *list.List
	elements map[string]*list.Element
}

type stmtCacheEntry struct {
	sql  string
	stmt *sql.Stmt
}

func newStmtCache(db *sql.DB, maxSize int) *stmtCache {
	if maxSize <= 0 {
		maxSize = 128
	}
	return &stmtCache{
		db:       db,
		maxSize:  maxSize,
		ll:       list.New(),
		elements: make(map[string]*list.Element),
	}
}

// prepare returns a cached *sql.Stmt for query, preparing and caching it
// on first use and evicting the least-recently-used entry when the cache
// is full.
func (c *stmtCache) prepare(query string) (*sql.Stmt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.elements[query]; ok {
		c.ll.MoveToFront(el)
		return el.Value.(*stmtCacheEntry).stmt, nil
	}

	stmt, err := c.db.Prepare(query)
	if err != nil {
		return nil, err
	}

	el := c.ll.PushFront(&stmtCacheEntry{sql: query, stmt: stmt})
	c.elements[query] = el

	if c.ll.Len() > c.maxSize {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			entry := oldest.Value.(*stmtCacheEntry)
			delete(c.elements, entry.sql)
			_ = entry.stmt.Close()
		}
	}
	return stmt, nil
}

func (c *stmtCache) closeAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for el := c.ll.Front(); el != nil; el = el.Next() {
		entry := el.Value.(*stmtCacheEntry)
		if err := entry.stmt.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.ll.Init()
	c.elements = make(map[string]*list.Element)
	return firstErr
}
