package analysis

import (
	"sort"
	"strings"
)

// Ported from _examples/original_source/src/graph/dataflow.rs: regex-free
// line-granularity heuristics for assignment and identifier extraction.
// These passes are explicitly coarse ("best-effort" per spec.md §4.7) and
// never consult tree-sitter.

// Location is a (line, column) position within a single source text.
type Location struct {
	Line   int
	Column int
}

// DefUseChain maps one variable to its defining lines and subsequent uses.
type DefUseChain struct {
	Variable    string
	Definitions []Location
	Uses        []Location
}

// DeadStore is an assignment that is never read before the next
// assignment to the same variable (or end of source).
type DeadStore struct {
	Variable      string
	Line          int
	AssignedValue string
}

type langPatterns struct {
	declKeywords []string
	hasWalrus    bool
}

func patternsFor(language string) langPatterns {
	switch strings.ToLower(language) {
	case "go", "golang":
		return langPatterns{declKeywords: []string{"var "}, hasWalrus: true}
	case "rust":
		return langPatterns{declKeywords: []string{"let mut ", "let "}}
	case "python":
		return langPatterns{}
	case "javascript", "jsx", "typescript", "tsx":
		return langPatterns{declKeywords: []string{"let ", "const ", "var "}}
	case "java", "csharp", "c#", "kotlin", "scala", "dart":
		return langPatterns{declKeywords: []string{"var ", "val ", "final "}}
	default:
		return langPatterns{declKeywords: []string{"let ", "var ", "const "}}
	}
}

// FindDefUseChains scans source line by line, collecting assignments
// (definitions) and subsequent identifier references (uses) per variable.
func FindDefUseChains(source, language string) []DefUseChain {
	patterns := patternsFor(language)
	defs := make(map[string][]Location)
	uses := make(map[string][]Location)

	for i, rawLine := range strings.Split(source, "\n") {
		lineNum := i + 1
		trimmed := strings.TrimSpace(rawLine)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") {
			continue
		}

		assignedVar := ""
		if v, _, col, ok := extractAssignment(trimmed, patterns); ok {
			assignedVar = v
			defs[v] = append(defs[v], Location{Line: lineNum, Column: col})
		}

		for _, ident := range extractIdentifiers(trimmed) {
			if ident.name == assignedVar {
				continue
			}
			uses[ident.name] = append(uses[ident.name], Location{Line: lineNum, Column: ident.col})
		}
	}

	var chains []DefUseChain
	for v, d := range defs {
		chains = append(chains, DefUseChain{Variable: v, Definitions: d, Uses: uses[v]})
	}
	sort.Slice(chains, func(i, j int) bool { return chains[i].Variable < chains[j].Variable })
	return chains
}

// FindDeadStores finds assignments never read before the variable's next
// assignment (or end of source).
func FindDeadStores(source, language string) []DeadStore {
	patterns := patternsFor(language)

	type storeEntry struct {
		line  int
		value string
	}
	storesByVar := make(map[string][]storeEntry)
	usedLines := make(map[string][]int)

	for i, rawLine := range strings.Split(source, "\n") {
		lineNum := i + 1
		trimmed := strings.TrimSpace(rawLine)

		assignedVar := ""
		if v, val, _, ok := extractAssignment(trimmed, patterns); ok {
			assignedVar = v
			storesByVar[v] = append(storesByVar[v], storeEntry{line: lineNum, value: val})
		}

		for _, ident := range extractIdentifiers(trimmed) {
			if ident.name == assignedVar {
				continue
			}
			usedLines[ident.name] = append(usedLines[ident.name], lineNum)
		}
	}

	var dead []DeadStore
	for v, entries := range storesByVar {
		lines := usedLines[v]
		for i, e := range entries {
			var nextDefLine int
			hasNext := i+1 < len(entries)
			if hasNext {
				nextDefLine = entries[i+1].line
			}
			used := false
			for _, ul := range lines {
				if ul > e.line && (!hasNext || ul < nextDefLine) {
					used = true
					break
				}
			}
			if !used {
				dead = append(dead, DeadStore{Variable: v, Line: e.line, AssignedValue: e.value})
			}
		}
	}

	sort.Slice(dead, func(i, j int) bool { return dead[i].Line < dead[j].Line })
	return dead
}

// FindUninitializedUses finds identifiers used before any assignment to
// them in the same text. Lowercase-leading identifiers with no visible
// assignment are flagged too (treated as likely locals rather than
// globals or parameters).
func FindUninitializedUses(source, language string) []Location {
	patterns := patternsFor(language)
	defined := make(map[string]int)
	type useSite struct{ line, col int }
	firstUse := make(map[string]useSite)

	for i, rawLine := range strings.Split(source, "\n") {
		lineNum := i + 1
		trimmed := strings.TrimSpace(rawLine)

		assignedVar := ""
		if v, _, _, ok := extractAssignment(trimmed, patterns); ok {
			assignedVar = v
			if _, seen := defined[v]; !seen {
				defined[v] = lineNum
			}
		}

		for _, ident := range extractIdentifiers(trimmed) {
			if ident.name == assignedVar {
				continue
			}
			if _, seen := firstUse[ident.name]; !seen {
				firstUse[ident.name] = useSite{line: lineNum, col: ident.col}
			}
		}
	}

	var out []Location
	for v, use := range firstUse {
		defLine, isDefined := defined[v]
		switch {
		case !isDefined:
			if v != "" && v[0] >= 'a' && v[0] <= 'z' {
				out = append(out, Location{Line: use.line, Column: use.col})
			}
		case use.line < defLine:
			out = append(out, Location{Line: use.line, Column: use.col})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].Column < out[j].Column
	})
	return out
}

// FindReachingDefs returns def-use chains with a definition at or before
// targetLine and a use within one line of it.
func FindReachingDefs(source, language string, targetLine int) []DefUseChain {
	chains := FindDefUseChains(source, language)

	var out []DefUseChain
	for _, c := range chains {
		hasReachingDef := false
		for _, d := range c.Definitions {
			if d.Line <= targetLine {
				hasReachingDef = true
				break
			}
		}
		usedNearTarget := false
		lowerBound := targetLine - 1
		if lowerBound < 0 {
			lowerBound = 0
		}
		for _, u := range c.Uses {
			if u.Line >= lowerBound && u.Line <= targetLine+1 {
				usedNearTarget = true
				break
			}
		}
		if hasReachingDef && usedNearTarget {
			out = append(out, c)
		}
	}
	return out
}

// extractAssignment tries to pull a variable assignment out of line,
// returning (name, rhs text, column, found).
func extractAssignment(line string, patterns langPatterns) (string, string, int, bool) {
	for _, kw := range patterns.declKeywords {
		if rest, ok := strings.CutPrefix(line, kw); ok {
			return parseVarEquals(rest, len(line)-len(rest))
		}
	}

	if patterns.hasWalrus {
		if pos := strings.Index(line, ":="); pos >= 0 {
			varPart := strings.TrimSpace(line[:pos])
			valPart := strings.TrimSpace(line[pos+2:])
			if isValidIdentifier(varPart) {
				return varPart, valPart, 0, true
			}
		}
	}

	if eqPos := strings.IndexByte(line, '='); eqPos > 0 && eqPos+1 < len(line) {
		before := line[eqPos-1]
		after := line[eqPos+1]
		if before != '!' && before != '<' && before != '>' && before != '=' &&
			after != '=' && before != '+' && before != '-' && before != '*' && before != '/' {
			varPart := strings.TrimSpace(line[:eqPos])
			valPart := strings.TrimSpace(line[eqPos+1:])
			varName := strings.TrimSpace(strings.SplitN(varPart, ":", 2)[0])
			if isValidIdentifier(varName) {
				return varName, valPart, 0, true
			}
		}
	}

	return "", "", 0, false
}

// parseVarEquals parses "varname = value" text after a declaration
// keyword has already been stripped, offset by the keyword's length.
func parseVarEquals(rest string, offset int) (string, string, int, bool) {
	parts := strings.SplitN(rest, "=", 2)
	if len(parts) < 2 {
		fields := strings.Fields(strings.SplitN(parts[0], ":", 2)[0])
		if len(fields) == 0 {
			return "", "", 0, false
		}
		v := fields[0]
		if isValidIdentifier(v) {
			return v, "", offset, true
		}
		return "", "", 0, false
	}

	varPart := strings.TrimSpace(parts[0])
	valPart := strings.TrimSuffix(strings.TrimSpace(parts[1]), ";")

	nameSegment := strings.SplitN(varPart, ":", 2)[0]
	fields := strings.Fields(nameSegment)
	varName := varPart
	if len(fields) > 0 {
		varName = fields[len(fields)-1]
	}

	if isValidIdentifier(varName) {
		return varName, valPart, offset, true
	}
	return "", "", 0, false
}

type identHit struct {
	name string
	col  int
}

// extractIdentifiers scans line for identifier-like tokens, skipping
// common language keywords.
func extractIdentifiers(line string) []identHit {
	var out []identHit
	i := 0
	for i < len(line) {
		c := line[i]
		if !isAlpha(c) && c != '_' {
			i++
			continue
		}
		start := i
		for i < len(line) && (isAlphaNumeric(line[i]) || line[i] == '_') {
			i++
		}
		ident := line[start:i]
		if !isKeyword(ident) {
			out = append(out, identHit{name: ident, col: start})
		}
	}
	return out
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlphaNumeric(c byte) bool {
	return isAlpha(c) || (c >= '0' && c <= '9')
}

func isValidIdentifier(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if !isAlpha(s[0]) && s[0] != '_' {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isAlphaNumeric(s[i]) && s[i] != '_' {
			return false
		}
	}
	return true
}

var keywords = map[string]bool{
	"if": true, "else": true, "for": true, "while": true, "do": true,
	"return": true, "break": true, "continue": true, "match": true, "switch": true,
	"case": true, "default": true, "fn": true, "func": true, "function": true,
	"def": true, "class": true, "struct": true, "enum": true, "trait": true,
	"impl": true, "type": true, "interface": true, "import": true, "from": true,
	"export": true, "module": true, "use": true, "pub": true, "const": true, "let": true,
	"var": true, "val": true, "final": true, "static": true, "public": true, "private": true,
	"protected": true, "new": true, "this": true, "self": true, "nil": true, "null": true,
	"true": true, "false": true, "void": true, "int": true, "string": true, "bool": true,
}

func isKeyword(s string) bool { return keywords[s] }
