package internal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testUser struct {
	Name  string
	Email string
	Tags  []string
}

func TestExecutor_Render(t *testing.T) {
	tests := []struct {
		name   string
		source string
		data   map[string]any
		want   string
	}{
		{
			name:   "identity without tags",
			source: "Plain text\nwith lines and } braces",
			want:   "Plain text\nwith lines and } braces",
		},
		{
			name:   "output",
			source: "Hello {$name}!",
			data:   map[string]any{"name": "Chris"},
			want:   "Hello Chris!",
		},
		{
			name:   "echo family",
			source: "{echo $user.Name} <{echo user.email}>",
			data:   map[string]any{"user": testUser{Name: "Ada", Email: "ada@example.com"}},
			want:   "Ada <ada@example.com>",
		},
		{
			name:   "if true",
			source: "{if show}A{/if}B",
			data:   map[string]any{"show": true},
			want:   "AB",
		},
		{
			name:   "if false",
			source: "{if show}A{/if}B",
			data:   map[string]any{"show": false},
			want:   "B",
		},
		{
			name:   "missing condition is false",
			source: "{if show}A{/if}B",
			data:   map[string]any{},
			want:   "B",
		},
		{
			name:   "negated condition",
			source: "{if !items}none{/if}",
			data:   map[string]any{"items": []any{}},
			want:   "none",
		},
		{
			name:   "elseif chain",
			source: "{if a}A{/if}\n{elseif b}B{/elseif}\n{else}C{/else}",
			data:   map[string]any{"a": false, "b": true},
			want:   "B",
		},
		{
			name:   "else branch",
			source: "{if a}A{/if}\n{elseif b}B{/elseif}\n{else}C{/else}",
			data:   map[string]any{"a": 0, "b": ""},
			want:   "C",
		},
		{
			name:   "foreach slice with index",
			source: "{foreach $item in $list}{$item_i}={$item};{/foreach}",
			data:   map[string]any{"list": []string{"a", "b"}},
			want:   "0=a;1=b;",
		},
		{
			name:   "foreach map in key order",
			source: "{foreach $v in $m}{$v_i}:{$v} {/foreach}",
			data:   map[string]any{"m": map[string]int{"b": 2, "a": 1}},
			want:   "a:1 b:2 ",
		},
		{
			name:   "foreach else on empty",
			source: "{foreach $x in $list}{$x}{/foreach}\n{else}empty{/else}",
			data:   map[string]any{"list": []any{}},
			want:   "empty",
		},
		{
			name:   "foreach else on missing",
			source: "{foreach $x in $list}{$x}{/foreach}\n{else}empty{/else}",
			want:   "empty",
		},
		{
			name:   "for skips maps",
			source: "{for $x in $m}{$x}{/for}\n{else}none{/else}",
			data:   map[string]any{"m": map[string]any{"a": 1}},
			want:   "none",
		},
		{
			name:   "nested loops and paths",
			source: "{foreach $u in $users}{$u.Name}[{foreach $t in $u.Tags}{$t}{/foreach}]{/foreach}",
			data: map[string]any{"users": []testUser{
				{Name: "a", Tags: []string{"x", "y"}},
				{Name: "b"},
			}},
			want: "a[xy]b[]",
		},
		{
			name:   "index path",
			source: "{$list[1]}",
			data:   map[string]any{"list": []any{"zero", "one"}},
			want:   "one",
		},
		{
			name:   "literals",
			source: `{"quoted"} {'single'} {42} {true}`,
			want:   "quoted single 42 true",
		},
		{
			name:   "literal tag",
			source: "{literal}{if x}{$y}{/literal}",
			want:   "{if x}{$y}",
		},
		{
			name:   "comment tag",
			source: "a{comment}ignored {$x}{/comment}b",
			want:   "ab",
		},
		{
			name:   "script",
			source: "{script n * 2}",
			data:   map[string]any{"n": 21},
			want:   "42",
		},
		{
			name:   "script sees loop locals",
			source: "{foreach $w in $words}{script w.upper()}{/foreach}",
			data:   map[string]any{"words": []any{"a", "b"}},
			want:   "AB",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := renderTest(t, tt.source, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExecutor_DoesNotMutateData(t *testing.T) {
	data := map[string]any{"list": []any{1, 2}}
	_, err := renderTest(t, "{foreach $item in $list}{$item}{/foreach}", data)
	require.NoError(t, err)
	assert.Len(t, data, 1)
	_, hasItem := data["item"]
	assert.False(t, hasItem)
}

func TestExecutor_UndefinedBinding(t *testing.T) {
	_, err := renderTest(t, "line\n  {$missing}", map[string]any{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRender))

	te, ok := AsTemplateError(err)
	require.True(t, ok)
	assert.Equal(t, 2, te.Position.Line)
	assert.Equal(t, 3, te.Position.Column)
	assert.Equal(t, "$missing", te.Actual)
}

func TestExecutor_MissingAsEmpty(t *testing.T) {
	compiled, err := compileTest(t, "[{$missing}]")
	require.NoError(t, err)

	exec := NewExecutor(ExecutorConfig{MissingAsEmpty: true}, zap.NewNop())
	out, err := exec.Execute(context.Background(), compiled.Program, nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}

func TestExecutor_NotIterable(t *testing.T) {
	_, err := renderTest(t, "{foreach $x in $n}{$x}{/foreach}", map[string]any{"n": 5})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRender))
}

func TestExecutor_MaxDepth(t *testing.T) {
	compiled, err := compileTest(t, "{if a}{if a}{if a}deep{/if}{/if}{/if}")
	require.NoError(t, err)
	data := map[string]any{"a": true}

	shallow := NewExecutor(ExecutorConfig{MaxDepth: 2}, nil)
	_, err = shallow.Execute(context.Background(), compiled.Program, data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgMaxDepthExceeded)

	unlimited := NewExecutor(ExecutorConfig{}, nil)
	out, err := unlimited.Execute(context.Background(), compiled.Program, data)
	require.NoError(t, err)
	assert.Equal(t, "deep", out)
}

func TestExecutor_Cancelled(t *testing.T) {
	compiled, err := compileTest(t, "{foreach $x in $list}{$x}{/foreach}")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = NewExecutor(ExecutorConfig{}, nil).Execute(ctx, compiled.Program, map[string]any{"list": []any{1}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestExecutor_ScriptError(t *testing.T) {
	_, err := renderTest(t, "{script undefined_name + 1}", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRender))
	assert.Contains(t, err.Error(), ErrMsgScriptFailed)
}
