package lang

import _ "embed"

//go:embed queries/go.scm
var goQuery string

//go:embed queries/python.scm
var pythonQuery string

//go:embed queries/javascript.scm
var javascriptQuery string

//go:embed queries/typescript.scm
var typescriptQuery string

//go:embed queries/rust.scm
var rustQuery string

//go:embed queries/java.scm
var javaQuery string

//go:embed queries/csharp.scm
var csharpQuery string

//go:embed queries/cpp.scm
var cppQuery string

//go:embed queries/php.scm
var phpQuery string

//go:embed queries/ruby.scm
var rubyQuery string

//go:embed queries/zig.scm
var zigQuery string

// querySources maps each Language to its embedded pattern-query source.
// Dialect variants (Tsx, Jsx) reuse their base language's query since the
// capture vocabulary is identical across the dialect split.
var querySources = map[Language]string{
	Go:         goQuery,
	Python:     pythonQuery,
	JavaScript: javascriptQuery,
	Jsx:        javascriptQuery,
	TypeScript: typescriptQuery,
	Tsx:        typescriptQuery,
	Rust:       rustQuery,
	Java:       javaQuery,
	CSharp:     csharpQuery,
	Cpp:        cppQuery,
	Php:        phpQuery,
	Ruby:       rubyQuery,
	Zig:        zigQuery,
}
