package internal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgumentPattern_Extract(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		text    string
		want    map[string]string
		matched bool
	}{
		{
			name:    "order preserving",
			pattern: "{a} and {b}",
			text:    "x and y",
			want:    map[string]string{"a": "x", "b": "y"},
			matched: true,
		},
		{
			name:    "loop arguments",
			pattern: "{element} in {object}",
			text:    "$item in $list",
			want:    map[string]string{"element": "$item", "object": "$list"},
			matched: true,
		},
		{
			name:    "whitespace runs are flexible",
			pattern: "{element} in {object}",
			text:    "  $item   in\t$user.tags  ",
			want:    map[string]string{"element": "$item", "object": "$user.tags"},
			matched: true,
		},
		{
			name:    "regex metacharacters are literal",
			pattern: "({a}) * [{b}]",
			text:    "(1) * [2]",
			want:    map[string]string{"a": "1", "b": "2"},
			matched: true,
		},
		{
			name:    "non identifier braces are literal",
			pattern: "{a} {1} {b}",
			text:    "x {1} y",
			want:    map[string]string{"a": "x", "b": "y"},
			matched: true,
		},
		{
			name:    "mismatch is soft",
			pattern: "{element} in {object}",
			text:    "$item of $list",
			want:    map[string]string{},
			matched: false,
		},
		{
			name:    "no placeholders",
			pattern: "always",
			text:    "always",
			want:    map[string]string{},
			matched: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := CompileArgumentPattern(tt.pattern)
			require.NoError(t, err)
			got, ok := p.Extract(tt.text)
			assert.Equal(t, tt.matched, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestArgumentPattern_Names(t *testing.T) {
	p := MustCompileArgumentPattern("{b} then {a}")
	assert.Equal(t, []string{"b", "a"}, p.Names())
	assert.Equal(t, "{b} then {a}", p.Source())
}

func TestArgumentPattern_DuplicatePlaceholder(t *testing.T) {
	_, err := CompileArgumentPattern("{a} and {a}")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidGrammar))
}
