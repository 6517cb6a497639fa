// Package lang is the language model: a closed enumeration of supported
// languages, file-extension dispatch, and the tree-sitter grammar +
// pattern-query registry each language exposes.
//
// Grounded on _examples/original_source/src/indexer/parser.rs
// (Language::from_extension / get_ts_language / load_query) and the
// teacher's tree-sitter grammar set in go.mod.
package lang

import (
	"fmt"
	"strings"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	ts_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
	ts_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	ts_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	ts_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	ts_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	ts_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	ts_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	ts_ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"
	ts_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	ts_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
	ts_zig "github.com/tree-sitter-grammars/tree-sitter-zig/bindings/go"
)

// Language is the closed set of languages the engine understands. Dialect
// splits (Tsx, Jsx) are distinct variants, matching spec.md §4.1.
type Language string

const (
	Unknown    Language = ""
	Go         Language = "go"
	TypeScript Language = "typescript"
	Tsx        Language = "tsx"
	JavaScript Language = "javascript"
	Jsx        Language = "jsx"
	Python     Language = "python"
	Rust       Language = "rust"
	Java       Language = "java"
	CSharp     Language = "csharp"
	Cpp        Language = "cpp"
	Php        Language = "php"
	Ruby       Language = "ruby"
	Zig        Language = "zig"
)

// All lists every closed-enum variant, used by tests and by CLI help text.
var All = []Language{Go, TypeScript, Tsx, JavaScript, Jsx, Python, Rust, Java, CSharp, Cpp, Php, Ruby, Zig}

// extensionTable is the static file-extension -> language dispatch.
var extensionTable = map[string]Language{
	".go":    Go,
	".ts":    TypeScript,
	".mts":   TypeScript,
	".cts":   TypeScript,
	".tsx":   Tsx,
	".js":    JavaScript,
	".mjs":   JavaScript,
	".cjs":   JavaScript,
	".jsx":   Jsx,
	".py":    Python,
	".pyi":   Python,
	".rs":    Rust,
	".java":  Java,
	".cs":    CSharp,
	".cc":    Cpp,
	".cpp":   Cpp,
	".cxx":   Cpp,
	".hpp":   Cpp,
	".hh":    Cpp,
	".php":   Php,
	".rb":    Ruby,
	".zig":   Zig,
}

// FromExtension maps a file extension (including the leading dot) to a
// Language, or Unknown if unsupported.
func FromExtension(ext string) Language {
	if l, ok := extensionTable[strings.ToLower(ext)]; ok {
		return l
	}
	return Unknown
}

// FromPath detects the Language of a file path by its extension.
func FromPath(path string) Language {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		return Unknown
	}
	return FromExtension(path[idx:])
}

// IsSupported reports whether path has a recognized extension.
func IsSupported(path string) bool {
	return FromPath(path) != Unknown
}

var tsLanguageFns = map[Language]func() *tree_sitter.Language{
	Go:         func() *tree_sitter.Language { return tree_sitter.NewLanguage(ts_go.Language()) },
	TypeScript: func() *tree_sitter.Language { return tree_sitter.NewLanguage(ts_typescript.LanguageTypescript()) },
	Tsx:        func() *tree_sitter.Language { return tree_sitter.NewLanguage(ts_typescript.LanguageTSX()) },
	JavaScript: func() *tree_sitter.Language { return tree_sitter.NewLanguage(ts_javascript.Language()) },
	Jsx:        func() *tree_sitter.Language { return tree_sitter.NewLanguage(ts_javascript.Language()) },
	Python:     func() *tree_sitter.Language { return tree_sitter.NewLanguage(ts_python.Language()) },
	Rust:       func() *tree_sitter.Language { return tree_sitter.NewLanguage(ts_rust.Language()) },
	Java:       func() *tree_sitter.Language { return tree_sitter.NewLanguage(ts_java.Language()) },
	CSharp:     func() *tree_sitter.Language { return tree_sitter.NewLanguage(ts_csharp.Language()) },
	Cpp:        func() *tree_sitter.Language { return tree_sitter.NewLanguage(ts_cpp.Language()) },
	Php:        func() *tree_sitter.Language { return tree_sitter.NewLanguage(ts_php.LanguagePHP()) },
	Ruby:       func() *tree_sitter.Language { return tree_sitter.NewLanguage(ts_ruby.Language()) },
	Zig:        func() *tree_sitter.Language { return tree_sitter.NewLanguage(ts_zig.Language()) },
}

var (
	languageCacheMu sync.Mutex
	languageCache   = map[Language]*tree_sitter.Language{}
)

// TSLanguage returns the native tree-sitter Language for l, memoized since
// grammar construction invokes a C initializer exactly once per language.
func TSLanguage(l Language) (*tree_sitter.Language, error) {
	languageCacheMu.Lock()
	defer languageCacheMu.Unlock()

	if cached, ok := languageCache[l]; ok {
		return cached, nil
	}
	fn, ok := tsLanguageFns[l]
	if !ok {
		return nil, fmt.Errorf("lang: no grammar registered for %q", l)
	}
	native := fn()
	languageCache[l] = native
	return native, nil
}

// NewParser constructs a fresh tree-sitter parser for l. A fresh parser is
// created per call rather than shared/pooled: construction is a cheap
// pointer-swap and tree-sitter's Parser is not required to be thread-safe
// across concurrent callers (spec.md §4.1).
func NewParser(l Language) (*tree_sitter.Parser, error) {
	native, err := TSLanguage(l)
	if err != nil {
		return nil, err
	}
	p := tree_sitter.NewParser()
	if err := p.SetLanguage(native); err != nil {
		return nil, fmt.Errorf("lang: set language %q: %w", l, err)
	}
	return p, nil
}

var (
	queryCacheMu sync.Mutex
	queryCache   = map[Language]*tree_sitter.Query{}
)

// LoadQuery compiles (and memoizes) the embedded pattern-query source for l.
// Callers may treat compilation as on-demand per spec.md §4.1; memoization
// here is an optimization, not a contract requirement.
func LoadQuery(l Language) (*tree_sitter.Query, error) {
	queryCacheMu.Lock()
	defer queryCacheMu.Unlock()

	if cached, ok := queryCache[l]; ok {
		return cached, nil
	}
	src, ok := querySources[l]
	if !ok {
		return nil, fmt.Errorf("lang: no pattern query for %q", l)
	}
	native, err := TSLanguage(l)
	if err != nil {
		return nil, err
	}
	q, qerr := tree_sitter.NewQuery(native, src)
	if qerr != nil {
		return nil, fmt.Errorf("lang: query compilation for %q: %w", l, qerr)
	}
	queryCache[l] = q
	return q, nil
}
