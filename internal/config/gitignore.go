package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// GitignoreParser parses a .gitignore file into doublestar-matchable
// patterns and answers ShouldIgnore for a candidate path. This replaces
// a hand-rolled regex pattern compiler with doublestar.Match, which
// already speaks the `**` glob dialect the rest of the deny-list
// (getDefaultExclusions) is written in.
type GitignoreParser struct {
	patterns []gitignorePattern
}

type gitignorePattern struct {
	glob      string
	negate    bool
	directory bool
	absolute  bool
}

// NewGitignoreParser creates an empty parser; patterns are added via
// LoadGitignore or AddPattern.
func NewGitignoreParser() *GitignoreParser {
	return &GitignoreParser{}
}

// LoadGitignore reads `<rootPath>/.gitignore`, if present, and adds its
// patterns. A missing file is not an error.
func (gp *GitignoreParser) LoadGitignore(rootPath string) error {
	file, err := os.Open(filepath.Join(rootPath, ".gitignore"))
	if err != nil {
		return nil
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		gp.AddPattern(line)
	}
	return scanner.Err()
}

// AddPattern parses and adds a single gitignore-syntax line.
func (gp *GitignoreParser) AddPattern(line string) {
	gp.patterns = append(gp.patterns, parseGitignoreLine(line))
}

func parseGitignoreLine(line string) gitignorePattern {
	var p gitignorePattern

	if strings.HasPrefix(line, "!") {
		p.negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.directory = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		p.absolute = true
		line = line[1:]
	}

	p.glob = line
	return p
}

// ShouldIgnore reports whether path (slash-separated, relative to the
// gitignore's directory) is ignored, applying patterns in file order so
// a later negated pattern (`!kept.txt`) can un-ignore an earlier match,
// matching real .gitignore semantics.
func (gp *GitignoreParser) ShouldIgnore(path string, isDir bool) bool {
	path = filepath.ToSlash(path)

	ignored := false
	for _, p := range gp.patterns {
		if gitignoreMatch(p, path, isDir) {
			ignored = !p.negate
		}
	}
	return ignored
}

func gitignoreMatch(p gitignorePattern, path string, isDir bool) bool {
	if p.directory && !isDir {
		// A directory-only pattern still excludes files inside that
		// directory; check every path prefix for a directory match.
		parts := strings.Split(path, "/")
		for i := range parts {
			if matchOne(p, strings.Join(parts[:i+1], "/"), true) {
				return true
			}
		}
		return false
	}
	return matchOne(p, path, isDir)
}

func matchOne(p gitignorePattern, path string, isDir bool) bool {
	if p.directory && !isDir {
		return false
	}

	candidates := []string{path}
	if !p.absolute {
		parts := strings.Split(path, "/")
		for i := 1; i < len(parts); i++ {
			candidates = append(candidates, strings.Join(parts[i:], "/"))
		}
	}

	pattern := p.glob
	if !p.absolute && !strings.Contains(pattern, "/") {
		pattern = "**/" + pattern
	}

	for _, c := range candidates {
		if ok, _ := doublestar.Match(p.glob, c); ok {
			return true
		}
		if pattern != p.glob {
			if ok, _ := doublestar.Match(pattern, c); ok {
				return true
			}
		}
	}
	return false
}

// GetExclusionPatterns renders the loaded (non-negated) patterns as
// doublestar globs suitable for appending to Config.Exclude.
func (gp *GitignoreParser) GetExclusionPatterns() []string {
	var out []string
	for _, p := range gp.patterns {
		if p.negate {
			continue
		}
		out = append(out, toExclusionGlob(p))
	}
	return out
}

func toExclusionGlob(p gitignorePattern) string {
	glob := p.glob
	if p.directory {
		glob += "/**"
	}
	if p.absolute {
		return glob
	}
	if strings.Contains(glob, "/") {
		return "**/" + glob
	}
	return "**/" + glob
}
