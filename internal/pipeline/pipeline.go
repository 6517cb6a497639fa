package pipeline

import (
	"context"
	"errors"
	"os"
	"sort"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/codegraph/internal/apperrors"
	"github.com/standardbeagle/codegraph/internal/config"
	"github.com/standardbeagle/codegraph/internal/extractor"
	"github.com/standardbeagle/codegraph/internal/graphmodel"
	"github.com/standardbeagle/codegraph/internal/lang"
	"github.com/standardbeagle/codegraph/internal/resolver"
	"github.com/standardbeagle/codegraph/internal/store"
)

var errNilTree = errors.New("parser returned nil tree")

// Report summarizes one IndexDirectory run, per spec.md §4.8's documented
// output contract.
type Report struct {
	FilesScanned   int
	FilesIndexed   int
	FilesUnchanged int
	FilesFailed    int
	Nodes          int
	Edges          int
	UnresolvedRefs int
	Elapsed        time.Duration
	Errors         []FileError
}

// FileError records a single file's extraction/storage failure without
// aborting the run — the pipeline is best-effort per file (spec.md §4.8).
type FileError struct {
	FilePath string
	Err      error
}

// parseResult is the unit of work handed from a parse worker to the
// single writer goroutine.
type parseResult struct {
	filePath    string
	language    string
	contentHash string
	nodes       []graphmodel.Node
	edges       []graphmodel.Edge
	unresolved  []graphmodel.UnresolvedRef
	unchanged   bool
	err         error
}

// IndexDirectory walks root, skips files whose content hash matches what
// is already recorded in st, parses and extracts the rest concurrently,
// resolves cross-file imports over the full node/edge set, persists
// per-file results through a single writer, and removes files that were
// indexed previously but no longer exist on disk.
//
// Grounded on the teacher's internal/indexing pipeline's
// scan-then-fan-out-then-reduce shape, adapted to this module's
// store/resolver/extractor APIs and to content-hash based incremental
// skip (the teacher instead diffed whole ProcessedFile snapshots).
func IndexDirectory(ctx context.Context, st *store.Store, cfg *config.Config) (Report, error) {
	start := time.Now()
	report := Report{}

	s := newScanner(cfg)
	paths, err := s.walk(ctx, cfg.Project.Root)
	if err != nil && ctx.Err() != nil {
		return report, apperrors.Cancelled("index_directory")
	}
	sort.Strings(paths)
	report.FilesScanned = len(paths)

	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		seen[p] = true
	}

	previouslyIndexed, err := st.GetIndexedFiles(ctx)
	if err != nil {
		return report, err
	}
	for _, prior := range previouslyIndexed {
		if !seen[prior] {
			if err := st.DeleteFile(ctx, prior); err != nil {
				return report, err
			}
		}
	}

	workers := cfg.Performance.ParallelFileWorkers
	if workers <= 0 {
		workers = 1
	}

	resultCh := make(chan parseResult, workers*2)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, p := range paths {
		p := p
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			res := processFile(gctx, st, p)
			select {
			case resultCh <- res:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}

	go func() {
		_ = g.Wait()
		close(resultCh)
	}()

	var allNodes []graphmodel.Node
	var allEdges []graphmodel.Edge
	byFile := make(map[string]parseResult)

	for res := range resultCh {
		if res.err != nil {
			report.FilesFailed++
			report.Errors = append(report.Errors, FileError{FilePath: res.filePath, Err: res.err})
			continue
		}
		if res.unchanged {
			report.FilesUnchanged++
			continue
		}
		byFile[res.filePath] = res
		allNodes = append(allNodes, res.nodes...)
		allEdges = append(allEdges, res.edges...)
	}

	if err := g.Wait(); err != nil && ctx.Err() != nil {
		return report, apperrors.Cancelled("index_directory")
	}

	// Edges from changed files may target symbols in files that were
	// unchanged this run (and so never re-extracted) — resolution needs
	// the full node set, not just the nodes just parsed.
	unchangedNodes, err := st.GetAllNodes(ctx)
	if err != nil {
		return report, err
	}
	resolveNodes := allNodes
	for _, n := range unchangedNodes {
		if _, changed := byFile[n.FilePath]; !changed {
			resolveNodes = append(resolveNodes, n)
		}
	}

	indexedSet := resolver.IndexFiles(paths)
	byName, byFileIdx := resolver.IndexNodes(resolveNodes)
	// Resolved import edges are persisted alongside the extracted edges,
	// not in place of them.
	resolvedEdges := append(append([]graphmodel.Edge(nil), allEdges...), resolver.Resolve(allEdges, indexedSet, byName, byFileIdx)...)

	edgesByFile := make(map[string][]graphmodel.Edge)
	for _, e := range resolvedEdges {
		edgesByFile[e.FilePath] = append(edgesByFile[e.FilePath], e)
	}

	orderedFiles := make([]string, 0, len(byFile))
	for f := range byFile {
		orderedFiles = append(orderedFiles, f)
	}
	sort.Strings(orderedFiles)

	for _, f := range orderedFiles {
		res := byFile[f]
		if err := st.ReplaceFileData(ctx, f, res.language, res.contentHash, res.nodes, edgesByFile[f]); err != nil {
			report.FilesFailed++
			report.Errors = append(report.Errors, FileError{FilePath: f, Err: err})
			continue
		}
		if err := st.ClearUnresolvedRefsForFile(ctx, f); err != nil {
			report.FilesFailed++
			report.Errors = append(report.Errors, FileError{FilePath: f, Err: err})
			continue
		}
		for _, ref := range res.unresolved {
			if err := st.InsertUnresolvedRef(ctx, ref); err != nil {
				report.Errors = append(report.Errors, FileError{FilePath: f, Err: err})
			}
		}
		report.FilesIndexed++
		report.Nodes += len(res.nodes)
		report.Edges += len(edgesByFile[f])
		report.UnresolvedRefs += len(res.unresolved)
	}

	report.Elapsed = time.Since(start)
	return report, nil
}

// processFile reads, hashes, and (if changed) parses+extracts a single
// file. Each call constructs its own tree-sitter parser — internal/lang's
// NewParser explicitly documents parsers as not safe to share across
// concurrent callers.
func processFile(ctx context.Context, st *store.Store, filePath string) parseResult {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return parseResult{filePath: filePath, err: apperrors.Parse("read_file", err).WithFile(filePath)}
	}

	hash := contentHash(content)
	if prior, ok, err := st.GetFileHash(ctx, filePath); err == nil && ok && prior == hash {
		return parseResult{filePath: filePath, unchanged: true}
	}

	language := lang.FromPath(filePath)
	parser, err := lang.NewParser(language)
	if err != nil {
		return parseResult{filePath: filePath, err: apperrors.Parse("new_parser", err).WithFile(filePath)}
	}
	defer parser.Close()

	query, err := lang.LoadQuery(language)
	if err != nil {
		return parseResult{filePath: filePath, err: apperrors.Parse("load_query", err).WithFile(filePath)}
	}

	tree := parser.Parse(content, nil)
	if tree == nil {
		return parseResult{filePath: filePath, err: apperrors.Parse("parse", errNilTree).WithFile(filePath)}
	}
	defer tree.Close()

	result, err := extractor.Extract(filePath, language, content, tree, query)
	if err != nil {
		return parseResult{filePath: filePath, err: apperrors.Extraction("extract", err).WithFile(filePath)}
	}

	return parseResult{
		filePath:    filePath,
		language:    string(language),
		contentHash: hash,
		nodes:       result.Nodes,
		edges:       result.Edges,
		unresolved:  result.Unresolved,
	}
}

func contentHash(content []byte) string {
	sum := xxhash.Sum64(content)
	return formatHash(sum)
}

func formatHash(sum uint64) string {
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		buf[i] = hexDigits[sum&0xf]
		sum >>= 4
	}
	return string(buf)
}
