// Package pipeline implements the indexing pipeline: directory
// discovery, deny-list/gitignore filtering, content-hash based
// incremental skip, concurrent parse+extract, cross-file import
// resolution, and single-writer persistence (spec.md §4.8).
//
// Grounded on the teacher's internal/indexing/pipeline.go
// (FileScanner.ScanDirectory/CountFiles: filepath.Walk with
// symlink-cycle detection via EvalSymlinks + visitedDirs, and
// doublestar-based shouldExcludeFast/shouldIncludeFast), adapted to
// this module's internal/config.Config shape.
package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/codegraph/internal/config"
	"github.com/standardbeagle/codegraph/internal/lang"
)

// scanner walks a project root and yields candidate file paths: extension
// recognized by internal/lang, not matched by cfg.Exclude (and cfg.Include
// when non-empty), not matched by .gitignore when RespectGitignore is set.
type scanner struct {
	cfg       *config.Config
	gitignore *config.GitignoreParser
}

func newScanner(cfg *config.Config) *scanner {
	s := &scanner{cfg: cfg}
	if cfg.Index.RespectGitignore {
		s.gitignore = config.NewGitignoreParser()
		_ = s.gitignore.LoadGitignore(cfg.Project.Root)
	}
	return s
}

// walk returns every candidate file path under root (absolute, OS-native
// separators), in filepath.Walk's natural (lexical) order — the
// deterministic order ReplaceFileData is applied in downstream.
func (s *scanner) walk(ctx context.Context, root string) ([]string, error) {
	var files []string
	visitedDirs := make(map[string]bool)

	err := filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if walkErr != nil {
			return nil
		}

		if info.IsDir() {
			if !s.cfg.Index.FollowSymlinks {
				return s.pruneIfExcludedDir(root, path, info)
			}
			real, err := filepath.EvalSymlinks(path)
			if err != nil {
				return nil
			}
			if visitedDirs[real] {
				return filepath.SkipDir
			}
			visitedDirs[real] = true
			return s.pruneIfExcludedDir(root, path, info)
		}

		if s.shouldSkipFile(root, path, info) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

func (s *scanner) pruneIfExcludedDir(root, path string, info os.FileInfo) error {
	if path == root {
		return nil
	}
	rel := relSlash(root, path)
	if s.matchesExclude(rel) || s.matchesExclude(rel+"/") {
		return filepath.SkipDir
	}
	return nil
}

func (s *scanner) shouldSkipFile(root, path string, info os.FileInfo) bool {
	if !lang.IsSupported(path) {
		return true
	}
	if info.Size() > s.cfg.Index.MaxFileSize {
		return true
	}

	rel := relSlash(root, path)
	if s.matchesExclude(rel) {
		return true
	}
	if !s.matchesInclude(rel) {
		return true
	}
	if s.gitignore != nil && s.gitignore.ShouldIgnore(rel, false) {
		return true
	}
	return false
}

func (s *scanner) matchesExclude(rel string) bool {
	for _, pattern := range s.cfg.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (s *scanner) matchesInclude(rel string) bool {
	if len(s.cfg.Include) == 0 {
		return true
	}
	for _, pattern := range s.cfg.Include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func relSlash(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	return filepath.ToSlash(rel)
}
