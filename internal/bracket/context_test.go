package bracket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/furlinter/furlint/internal/tokenize"
)

func build(src string) []Context {
	return Build(tokenize.Tokenize(src))
}

func TestBuild_SingleLine(t *testing.T) {
	t.Parallel()
	contexts := build("a = [1, 2, 3]\n")
	require.Len(t, contexts, 1)

	ctx := contexts[0]
	assert.Equal(t, Square, ctx.Kind)
	assert.Equal(t, tokenize.Position{Line: 1, Column: 4}, ctx.Opener)
	assert.Equal(t, "a = [1, 2, 3]", ctx.OpenerLine)
	assert.True(t, ctx.Closed)
	assert.Equal(t, tokenize.Position{Line: 1, Column: 12}, ctx.Closer)
	assert.False(t, ctx.Multiline())
	assert.False(t, ctx.ElementAndCloserSameLine)
}

func TestBuild_InnerFirstColumns(t *testing.T) {
	t.Parallel()
	src := "a = [\n    1, 2,\n        3,\n\n    # comment\n]\n"
	contexts := build(src)
	require.Len(t, contexts, 1)

	ctx := contexts[0]
	assert.Equal(t, map[int]int{2: 4, 3: 8, 6: 0}, ctx.InnerFirstColumns)
	assert.Equal(t, tokenize.Position{Line: 6, Column: 0}, ctx.Closer)
	assert.False(t, ctx.ElementAndCloserSameLine)
}

func TestBuild_ElementAndCloserSameLine(t *testing.T) {
	t.Parallel()
	contexts := build("a = [\n    1,\n    2]\n")
	require.Len(t, contexts, 1)
	assert.True(t, contexts[0].ElementAndCloserSameLine)
	assert.Equal(t, map[int]int{2: 4, 3: 4}, contexts[0].InnerFirstColumns)
}

func TestBuild_NestedOrderAndSharedLines(t *testing.T) {
	t.Parallel()
	src := "x = {\n    'k': (\n        1,\n    ),\n}\n"
	contexts := build(src)
	require.Len(t, contexts, 2)

	inner, outer := contexts[0], contexts[1]
	assert.Equal(t, Paren, inner.Kind)
	assert.Equal(t, 1, inner.Depth)
	assert.Equal(t, map[int]int{3: 8, 4: 4}, inner.InnerFirstColumns)
	assert.Equal(t, tokenize.Position{Line: 4, Column: 4}, inner.Closer)

	assert.Equal(t, Curly, outer.Kind)
	assert.Equal(t, 0, outer.Depth)
	assert.Equal(t, map[int]int{2: 4, 3: 8, 4: 4, 5: 0}, outer.InnerFirstColumns)
	assert.Equal(t, tokenize.Position{Line: 5, Column: 0}, outer.Closer)
}

func TestBuild_MismatchedKindsStillPair(t *testing.T) {
	t.Parallel()
	contexts := build("a = (1,\n  2]\n")
	require.Len(t, contexts, 1)
	assert.Equal(t, Paren, contexts[0].Kind)
	assert.True(t, contexts[0].Closed)
	assert.Equal(t, tokenize.Position{Line: 2, Column: 3}, contexts[0].Closer)
}

func TestBuild_StrayCloserIgnored(t *testing.T) {
	t.Parallel()
	contexts := build(")\na = [\n  1,\n]\n")
	require.Len(t, contexts, 1)
	assert.Equal(t, tokenize.Position{Line: 2, Column: 4}, contexts[0].Opener)
}

func TestBuild_UnterminatedInnermostFirst(t *testing.T) {
	t.Parallel()
	contexts := build("a = [\n    (1,\n    2\n")
	require.Len(t, contexts, 2)

	assert.Equal(t, Paren, contexts[0].Kind)
	assert.False(t, contexts[0].Closed)
	assert.Equal(t, Square, contexts[1].Kind)
	assert.False(t, contexts[1].Closed)
	assert.Equal(t, map[int]int{2: 4, 3: 4}, contexts[1].InnerFirstColumns)
}

func TestBuild_BracketsInStringsAndComments(t *testing.T) {
	t.Parallel()
	contexts := build("s = '(['  # ]\nt = \"\"\"{\n\"\"\"\n")
	assert.Empty(t, contexts)
}

func TestBuild_Empty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, Build(nil))
}
