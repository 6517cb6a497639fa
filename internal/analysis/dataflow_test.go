package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindDefUseChainsTracksGoWalrusAssignment(t *testing.T) {
	source := "x := 1\nfmt.Println(x)\n"
	chains := FindDefUseChains(source, "go")
	require.Len(t, chains, 1)
	assert.Equal(t, "x", chains[0].Variable)
	require.Len(t, chains[0].Definitions, 1)
	assert.Equal(t, 1, chains[0].Definitions[0].Line)
	require.Len(t, chains[0].Uses, 1)
	assert.Equal(t, 2, chains[0].Uses[0].Line)
}

func TestFindDeadStoresFindsUnreadAssignment(t *testing.T) {
	source := "x := 1\nx := 2\nfmt.Println(x)\n"
	dead := FindDeadStores(source, "go")
	require.Len(t, dead, 1)
	assert.Equal(t, "x", dead[0].Variable)
	assert.Equal(t, 1, dead[0].Line)
}

func TestFindDeadStoresNoneWhenAllUsed(t *testing.T) {
	source := "x := 1\nfmt.Println(x)\n"
	dead := FindDeadStores(source, "go")
	assert.Empty(t, dead)
}

func TestFindUninitializedUsesFlagsUseBeforeDef(t *testing.T) {
	source := "fmt.Println(y)\ny := 1\n"
	uses := FindUninitializedUses(source, "go")
	require.NotEmpty(t, uses)
	assert.Equal(t, 1, uses[0].Line)
}

func TestFindReachingDefsFiltersByProximity(t *testing.T) {
	source := "x := 1\nfmt.Println(1)\nfmt.Println(2)\nfmt.Println(3)\nfmt.Println(x)\n"
	chains := FindReachingDefs(source, "go", 2)
	assert.Empty(t, chains) // x's only use is on line 5, far from target line 2

	chains = FindReachingDefs(source, "go", 5)
	require.Len(t, chains, 1)
	assert.Equal(t, "x", chains[0].Variable)
}
