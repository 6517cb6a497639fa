package context

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokensEmpty(t *testing.T) {
	assert.Equal(t, 0, estimateTokens(""))
}

func TestEstimateTokensRoughlyCharsOverFour(t *testing.T) {
	assert.Equal(t, 3, estimateTokens("hello world!")) // 12 chars / 4
	assert.Equal(t, 1, estimateTokens("abc"))          // rounds up
}

func TestTruncateToFitReturnsUnchangedWhenWithinBudget(t *testing.T) {
	s := "short string"
	assert.Equal(t, s, truncateToFit(s, 100))
}

func TestTruncateToFitTrimsOversizedInput(t *testing.T) {
	s := strings.Repeat("x", 1000)
	out := truncateToFit(s, 10)
	assert.LessOrEqual(t, estimateTokens(out), 10+3) // small slack for the truncation marker
	assert.Contains(t, out, "truncated")
}

func TestTruncateToFitZeroBudgetYieldsEmpty(t *testing.T) {
	assert.Equal(t, "", truncateToFit("anything", 0))
}

func TestSignatureOnlyStopsAtOpeningBrace(t *testing.T) {
	body := "func Hello(name string) string {\n\treturn name\n}"
	assert.Equal(t, "func Hello(name string) string", signatureOnly(body))
}

func TestSignatureOnlyFallsBackToFirstLineWithoutBrace(t *testing.T) {
	body := "def hello(name):\n    return name"
	assert.Equal(t, "def hello(name):", signatureOnly(body))
}

func TestSignatureOnlyEmptyBody(t *testing.T) {
	assert.Equal(t, "", signatureOnly(""))
}

func TestFirstLineSingleLine(t *testing.T) {
	assert.Equal(t, "only line", firstLine("only line"))
}

func TestFirstLineMultiLine(t *testing.T) {
	assert.Equal(t, "line one", firstLine("line one\nline two\nline three"))
}
