package stencil

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGrammarYAML = `
families:
  - name: block
    opener: "<%"
    closer: "%>"
    priority: 5
    handler: output
    tags:
      - name: if
        handler: if
      - name: else
        isolated: true
        handler: else
      - name: each
        arguments: "{element} in {object}"
        handler: foreach
      - name: raw
        verbatim: true
        handler: literal
`

func TestLoadGrammar(t *testing.T) {
	grammar, err := LoadGrammar(strings.NewReader(testGrammarYAML))
	require.NoError(t, err)

	fam, ok := grammar.Family("block")
	require.True(t, ok)
	assert.Equal(t, "<%", fam.Opener)
	assert.Equal(t, 5, fam.Priority)
	assert.Equal(t, HandlerOutput, fam.Handler)
	require.Len(t, fam.Tags, 4)
	assert.True(t, fam.Tags[1].Isolated)
	assert.True(t, fam.Tags[3].Verbatim)

	engine := MustNew(WithGrammar(grammar))
	out, err := engine.Execute(context.Background(),
		"<%each $n in $nums%><%n%>,<%/each%> <%if ok%>y<%/if%><%else%>n<%/else%> <%raw%><%x%><%/raw%>",
		map[string]any{"nums": []int{1, 2}, "ok": false},
	)
	require.NoError(t, err)
	assert.Equal(t, "1,2, n <%x%>", out)
}

func TestLoadGrammar_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		kind error
	}{
		{"unknown field", "families:\n  - name: a\n    opener: x\n    closer: y\n    colour: red\n", nil},
		{"not yaml", "families: [", nil},
		{"empty opener", "families:\n  - name: a\n    opener: \"\"\n    closer: y\n", ErrInvalidGrammar},
		{"no families", "families: []\n", ErrInvalidGrammar},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadGrammar(strings.NewReader(tt.yaml))
			require.Error(t, err)
			if tt.kind != nil {
				assert.True(t, errors.Is(err, tt.kind), "got %v", err)
			} else {
				assert.Contains(t, err.Error(), ErrMsgGrammarDecodeFailed)
			}
		})
	}
}

func TestLoadGrammarFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grammar.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testGrammarYAML), 0o644))

	grammar, err := LoadGrammarFile(path)
	require.NoError(t, err)
	assert.Len(t, grammar.Families(), 1)

	_, err = LoadGrammarFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Contains(t, err.Error(), ErrMsgGrammarReadFailed)
}

func TestEncodeGrammar_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeGrammar(&buf, StandardGrammar()))
	assert.Contains(t, buf.String(), "name: statement")
	assert.Contains(t, buf.String(), "verbatim: true")

	decoded, err := LoadGrammar(&buf)
	require.NoError(t, err)

	want := StandardGrammar().Families()
	got := decoded.Families()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Name, got[i].Name)
		assert.Equal(t, want[i].Opener, got[i].Opener)
		assert.Equal(t, want[i].Closer, got[i].Closer)
		assert.Equal(t, want[i].Priority, got[i].Priority)
		assert.Equal(t, want[i].Handler, got[i].Handler)
		assert.Equal(t, want[i].TagNames(), got[i].TagNames())
	}
}

func TestStandardGrammar_Precedence(t *testing.T) {
	families := StandardGrammar().Families()
	require.Len(t, families, 3)
	assert.Equal(t, FamilyEcho, families[0].Name)
	assert.Equal(t, FamilyScript, families[1].Name)
	assert.Equal(t, FamilyStatement, families[2].Name)
}

func TestStandardFamilies_Fresh(t *testing.T) {
	a := StandardFamilies()
	a[0].Opener = "<<"
	b := StandardFamilies()
	assert.Equal(t, StatementOpener, b[0].Opener)
}

func TestNewGrammar_Invalid(t *testing.T) {
	_, err := NewGrammar(
		&DelimiterType{Name: "a", Opener: "{", Closer: "}"},
		&DelimiterType{Name: "a", Opener: "[", Closer: "]"},
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidGrammar))

	assert.Panics(t, func() { MustNewGrammar() })
}
