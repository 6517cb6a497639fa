package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromExtension(t *testing.T) {
	cases := map[string]Language{
		".go":  Go,
		".py":  Python,
		".ts":  TypeScript,
		".tsx": Tsx,
		".js":  JavaScript,
		".jsx": Jsx,
		".rs":  Rust,
		".rb":  Ruby,
		".xyz": Unknown,
	}
	for ext, want := range cases {
		assert.Equal(t, want, FromExtension(ext), "ext=%s", ext)
	}
}

func TestFromPath(t *testing.T) {
	assert.Equal(t, Go, FromPath("internal/store/store.go"))
	assert.Equal(t, Unknown, FromPath("README"))
	assert.Equal(t, Unknown, FromPath(""))
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("main.go"))
	assert.False(t, IsSupported("image.png"))
}

func TestLoadQueryAllLanguages(t *testing.T) {
	for _, l := range All {
		q, err := LoadQuery(l)
		require.NoError(t, err, "language %s", l)
		require.NotNil(t, q)
	}
}

func TestLoadQueryMemoizes(t *testing.T) {
	q1, err := LoadQuery(Go)
	require.NoError(t, err)
	q2, err := LoadQuery(Go)
	require.NoError(t, err)
	assert.Same(t, q1, q2)
}

func TestLoadQueryUnknownLanguage(t *testing.T) {
	_, err := LoadQuery(Language("cobol"))
	assert.Error(t, err)
}
