package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codegraph/internal/graphmodel"
	"github.com/standardbeagle/codegraph/internal/lang"
)

const goSample = `package sample

// Greet says hello to name.
func Greet(name string) string {
	return helper(name)
}

func helper(name string) string {
	return "hi " + name
}

import "fmt"
`

func parseGo(t *testing.T, src string) Result {
	t.Helper()
	parser, err := lang.NewParser(lang.Go)
	require.NoError(t, err)
	defer parser.Close()

	tree := parser.Parse([]byte(src), nil)
	require.NotNil(t, tree)
	defer tree.Close()

	query, err := lang.LoadQuery(lang.Go)
	require.NoError(t, err)

	res, err := Extract("sample.go", lang.Go, []byte(src), tree, query)
	require.NoError(t, err)
	return res
}

func TestExtractFindsFunctionDefinitions(t *testing.T) {
	res := parseGo(t, goSample)

	var names []string
	for _, n := range res.Nodes {
		names = append(names, n.Name)
	}
	assert.Contains(t, names, "Greet")
	assert.Contains(t, names, "helper")
}

func TestExtractNodeIDsAreDeterministic(t *testing.T) {
	res := parseGo(t, goSample)
	for _, n := range res.Nodes {
		if n.Name == "Greet" {
			assert.Equal(t, graphmodel.MakeNodeID(graphmodel.KindFunction, "sample.go", "Greet", n.StartLine), n.ID)
		}
	}
}

func TestExtractCallEdgeAttachesToContainingFunction(t *testing.T) {
	res := parseGo(t, goSample)

	var greetID string
	for _, n := range res.Nodes {
		if n.Name == "Greet" {
			greetID = n.ID
		}
	}
	require.NotEmpty(t, greetID)

	found := false
	for _, e := range res.Edges {
		if e.Kind == graphmodel.EdgeCalls && e.SourceID == greetID && e.TargetID == "helper" {
			found = true
		}
	}
	assert.True(t, found, "expected a calls edge from Greet to helper")
}

func TestExtractDocCommentCapturesPrecedingComment(t *testing.T) {
	res := parseGo(t, goSample)
	for _, n := range res.Nodes {
		if n.Name == "Greet" {
			assert.Equal(t, "Greet says hello to name.", n.DocComment)
		}
	}
}

func TestExtractExportedFlag(t *testing.T) {
	res := parseGo(t, goSample)
	for _, n := range res.Nodes {
		switch n.Name {
		case "Greet":
			assert.True(t, n.Exported)
		case "helper":
			assert.False(t, n.Exported)
		}
	}
}

func TestExtractImportProducesUnresolvedRef(t *testing.T) {
	res := parseGo(t, goSample)
	require.NotEmpty(t, res.Unresolved)
	assert.Equal(t, "fmt", res.Unresolved[0].Specifier)
	assert.Equal(t, "import", res.Unresolved[0].RefType)
}

const tsSample = `import { validate, Parser } from './utils';

function run() {
	return validate(Parser);
}
`

const pySample = `from .utils import validate, Parser

def run():
	return validate(Parser)
`

func parseLang(t *testing.T, language lang.Language, filePath, src string) Result {
	t.Helper()
	parser, err := lang.NewParser(language)
	require.NoError(t, err)
	defer parser.Close()

	tree := parser.Parse([]byte(src), nil)
	require.NotNil(t, tree)
	defer tree.Close()

	query, err := lang.LoadQuery(language)
	require.NoError(t, err)

	res, err := Extract(filePath, language, []byte(src), tree, query)
	require.NoError(t, err)
	return res
}

func findImportEdge(t *testing.T, res Result) graphmodel.Edge {
	t.Helper()
	for _, e := range res.Edges {
		if e.Kind == graphmodel.EdgeImports {
			return e
		}
	}
	t.Fatal("no imports edge found")
	return graphmodel.Edge{}
}

func TestExtractNamedImportPopulatesMetadataNames(t *testing.T) {
	res := parseLang(t, lang.TypeScript, "main.ts", tsSample)
	edge := findImportEdge(t, res)
	assert.Equal(t, "validate,Parser", edge.Metadata["names"])
}

func TestExtractPythonFromImportPopulatesMetadataNames(t *testing.T) {
	res := parseLang(t, lang.Python, "main.py", pySample)
	edge := findImportEdge(t, res)
	assert.Equal(t, "validate,Parser", edge.Metadata["names"])
}

func TestExtractGoImportHasNoNamedSymbols(t *testing.T) {
	res := parseGo(t, goSample)
	edge := findImportEdge(t, res)
	assert.Equal(t, "", edge.Metadata["names"])
}

func TestExtractNilTreeReturnsError(t *testing.T) {
	_, err := Extract("sample.go", lang.Go, []byte(goSample), nil, nil)
	assert.Error(t, err)
}
