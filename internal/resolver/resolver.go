// Package resolver turns the placeholder module:<specifier> import edges
// left by internal/extractor into direct cross-file symbol edges, per
// spec.md §4.3.
//
// Ported directly from _examples/original_source/src/resolution/imports.rs
// (resolve_imports/resolve_specifier/normalize_path), generalized from
// the original's JS/TS-centric extension list to every language in
// internal/lang.
package resolver

import (
	"path"
	"strings"

	"github.com/standardbeagle/codegraph/internal/graphmodel"
)

// extensionPatterns is tried in order when resolving a relative specifier
// to an indexed file path. Ordered by likelihood across the supported
// language ecosystems.
var extensionPatterns = []string{
	"",           // exact match (specifier already has extension)
	".ts",        // TypeScript
	".tsx",       // TypeScript JSX
	".js",        // JavaScript
	".jsx",       // JavaScript JSX
	".mjs",       // ES module JS
	".cjs",       // CommonJS
	"/index.ts",  // TypeScript barrel
	"/index.tsx", // TypeScript JSX barrel
	"/index.js",  // JavaScript barrel
	"/index.jsx", // JavaScript JSX barrel
	".py",        // Python
	".rs",        // Rust
	".go",        // Go
	".java",      // Java
	".cs",        // C#
	".rb",        // Ruby
	".php",       // PHP
	".cpp",       // C++
	".hpp",       // C++ header
	".zig",       // Zig
}

// Resolve takes the existing edges (from single-file extraction), the set
// of indexed file paths, and the node index (by name and by file), and
// returns additional edges that link imports to their actual target
// symbols. Edges whose specifier does not resolve to an indexed file, or
// whose target name is not found, are left unresolved and omitted.
func Resolve(edges []graphmodel.Edge, indexedFiles map[string]bool, nodesByName map[string][]graphmodel.Node, nodesByFile map[string][]graphmodel.Node) []graphmodel.Edge {
	var resolved []graphmodel.Edge

	for _, edge := range edges {
		if edge.Kind != graphmodel.EdgeImports {
			continue
		}

		specifier, ok := strings.CutPrefix(edge.TargetID, "module:")
		if !ok {
			continue
		}
		if !isRelativeImport(specifier) {
			continue
		}

		resolvedPath, ok := resolveSpecifier(edge.FilePath, specifier, indexedFiles)
		if !ok {
			continue
		}

		var names []string
		if edge.Metadata != nil {
			if raw := edge.Metadata["names"]; raw != "" {
				for _, n := range strings.Split(raw, ",") {
					if n = strings.TrimSpace(n); n != "" {
						names = append(names, n)
					}
				}
			}
		}

		targetFileNodes := nodesByFile[resolvedPath]

		if len(names) == 0 {
			for _, target := range targetFileNodes {
				if target.HasExported && target.Exported {
					resolved = append(resolved, linkEdge(edge, target.ID, resolvedPath))
				}
			}
			continue
		}

		for _, name := range names {
			if target, ok := findByName(targetFileNodes, name); ok {
				resolved = append(resolved, linkEdge(edge, target.ID, resolvedPath))
				continue
			}
			if candidates := nodesByName[name]; len(candidates) > 0 {
				best := preferFile(candidates, resolvedPath)
				resolved = append(resolved, linkEdge(edge, best.ID, resolvedPath))
			}
		}
	}

	return resolved
}

func linkEdge(source graphmodel.Edge, targetID, resolvedPath string) graphmodel.Edge {
	return graphmodel.Edge{
		SourceID: source.SourceID,
		TargetID: targetID,
		Kind:     graphmodel.EdgeImports,
		FilePath: source.FilePath,
		Line:     source.Line,
		Metadata: map[string]string{"resolved": resolvedPath},
	}
}

func findByName(nodes []graphmodel.Node, name string) (graphmodel.Node, bool) {
	for _, n := range nodes {
		if n.Name == name {
			return n, true
		}
	}
	return graphmodel.Node{}, false
}

func preferFile(candidates []graphmodel.Node, filePath string) graphmodel.Node {
	for _, c := range candidates {
		if c.FilePath == filePath {
			return c
		}
	}
	return candidates[0]
}

func isRelativeImport(specifier string) bool {
	return strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../")
}

// resolveSpecifier resolves specifier relative to importingFile's
// directory and tries each extensionPatterns entry against indexedFiles.
func resolveSpecifier(importingFile, specifier string, indexedFiles map[string]bool) (string, bool) {
	importingDir := ""
	if idx := strings.LastIndexByte(importingFile, '/'); idx >= 0 {
		importingDir = importingFile[:idx]
	}

	joined := specifier
	if importingDir != "" {
		joined = importingDir + "/" + specifier
	}
	normalized := normalizePath(joined)

	for _, ext := range extensionPatterns {
		candidate := normalized + ext
		if indexedFiles[candidate] {
			return candidate, true
		}
	}
	return "", false
}

// normalizePath resolves "." and ".." components without touching the
// filesystem: "src/routes/../utils/./auth" -> "src/utils/auth".
func normalizePath(p string) string {
	cleaned := path.Clean(p)
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "." {
		return ""
	}
	return cleaned
}

// IndexFiles builds the indexedFiles set from a list of file paths, for
// callers that only have a flat path slice handy.
func IndexFiles(paths []string) map[string]bool {
	out := make(map[string]bool, len(paths))
	for _, p := range paths {
		out[p] = true
	}
	return out
}

// IndexNodes builds the by-name and by-file lookup maps Resolve needs from
// a flat node slice.
func IndexNodes(nodes []graphmodel.Node) (byName map[string][]graphmodel.Node, byFile map[string][]graphmodel.Node) {
	byName = make(map[string][]graphmodel.Node)
	byFile = make(map[string][]graphmodel.Node)
	for _, n := range nodes {
		byName[n.Name] = append(byName[n.Name], n)
		byFile[n.FilePath] = append(byFile[n.FilePath], n)
	}
	return byName, byFile
}
