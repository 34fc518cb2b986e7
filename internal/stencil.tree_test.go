package internal

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func buildTestTree(t *testing.T, source string) (*Tree, error) {
	t.Helper()
	g := newTestGrammar(t)
	segments, err := NewSegmenter(g, zap.NewNop()).Segment(source)
	require.NoError(t, err)
	return NewTreeBuilder(NewTagParser(g, zap.NewNop()), zap.NewNop()).Build(source, segments)
}

func TestTreeBuilder_Nesting(t *testing.T) {
	tree, err := buildTestTree(t, "a{if x}b{$y}c{/if}d")
	require.NoError(t, err)

	root := tree.Root()
	require.Len(t, root.Children, 3)
	assert.Equal(t, "a", tree.Node(root.Children[0]).Text)
	assert.Equal(t, "d", tree.Node(root.Children[2]).Text)

	ifNode := tree.Node(root.Children[1])
	assert.Equal(t, NodeKindTag, ifNode.Kind)
	assert.Equal(t, "if", ifNode.Tag.TagName)
	assert.Equal(t, RootID, ifNode.Parent)
	assert.Equal(t, "b{$y}c", ifNode.Raw)
	require.Len(t, ifNode.Children, 3)

	out := tree.Node(ifNode.Children[1])
	assert.True(t, out.Tag.IsAnonymous())
	assert.Equal(t, ifNode.ID, out.Parent)
	assert.Empty(t, out.Children)
}

func TestTreeBuilder_BalancedRoundTrip(t *testing.T) {
	tree, err := buildTestTree(t, "{if x}one two three{/if}")
	require.NoError(t, err)

	ifNode := tree.Node(tree.Root().Children[0])
	var inner strings.Builder
	for _, id := range ifNode.Children {
		inner.WriteString(tree.Node(id).Text)
	}
	assert.Equal(t, "one two three", inner.String())
}

func TestTreeBuilder_IsolatedSuppression(t *testing.T) {
	tree, err := buildTestTree(t, "{if x}A{/if}\n{else}B{/else}")
	require.NoError(t, err)

	root := tree.Root()
	require.Len(t, root.Children, 2)
	assert.Equal(t, "if", tree.Node(root.Children[0]).Tag.TagName)
	assert.Equal(t, "else", tree.Node(root.Children[1]).Tag.TagName)
}

func TestTreeBuilder_IsolatedKeepsContent(t *testing.T) {
	tree, err := buildTestTree(t, "{if x}A{/if} kept {else}B{/else}")
	require.NoError(t, err)
	require.Len(t, tree.Root().Children, 3)
	assert.Equal(t, " kept ", tree.Node(tree.Root().Children[1]).Text)
}

func TestTreeBuilder_Verbatim(t *testing.T) {
	tree, err := buildTestTree(t, "{literal}{if x}{$y}{/literal}")
	require.NoError(t, err)

	lit := tree.Node(tree.Root().Children[0])
	assert.Equal(t, "literal", lit.Tag.TagName)
	assert.Equal(t, "{if x}{$y}", lit.Raw)
	for _, id := range lit.Children {
		assert.Equal(t, NodeKindText, tree.Node(id).Kind)
	}
}

func TestTreeBuilder_Unbalanced(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{name: "opener never closed", source: "{if cond}text"},
		{name: "closer without opener", source: "{/if}"},
		{name: "mismatched closer", source: "{if a}{foreach $x in $y}{/if}{/foreach}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildTestTree(t, tt.source)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnbalancedTag))
		})
	}
}

func TestTree_Outline(t *testing.T) {
	tree, err := buildTestTree(t, "Hi {if x}{$name}{/if}")
	require.NoError(t, err)

	outline := tree.Outline()
	assert.Contains(t, outline, NodeKindNameRoot)
	assert.Contains(t, outline, `TEXT "Hi "`)
	assert.Contains(t, outline, "TAG statement:if")
	assert.Contains(t, outline, OutlineIndent+OutlineIndent+"TAG statement:-")
}
