package internal

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGrammar_Match(t *testing.T) {
	g := newTestGrammar(t)

	tests := []struct {
		name       string
		source     string
		wantFamily string
		wantIndex  int
		wantOK     bool
	}{
		{name: "no opener", source: "plain text", wantOK: false},
		{name: "statement", source: "a {if x}", wantFamily: testFamilyStatement, wantIndex: 2, wantOK: true},
		{name: "tie goes to priority", source: "{echo $x}", wantFamily: testFamilyEcho, wantIndex: 0, wantOK: true},
		{name: "earliest wins over priority", source: "{x} {echo $y}", wantFamily: testFamilyStatement, wantIndex: 0, wantOK: true},
		{name: "script", source: "ab{script 1+1}", wantFamily: testFamilyScript, wantIndex: 2, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := g.Match(tt.source)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantFamily, m.Family.Name)
			assert.Equal(t, tt.wantIndex, m.Index)
		})
	}
}

func TestGrammar_Match_RegistrationOrderOnEqualPriority(t *testing.T) {
	g, err := NewGrammar(
		&DelimiterType{Name: "first", Opener: "<<", Closer: ">>", Handler: HandlerNameOutput},
		&DelimiterType{Name: "second", Opener: "<", Closer: ">", Handler: HandlerNameOutput},
	)
	require.NoError(t, err)

	m, ok := g.Match("x <<y>>")
	require.True(t, ok)
	assert.Equal(t, "first", m.Family.Name)
}

func TestSegmenter_Segment(t *testing.T) {
	seg := NewSegmenter(newTestGrammar(t), zap.NewNop())

	tests := []struct {
		name  string
		input string
		kinds []SegmentKind
		raws  []string
	}{
		{
			name:  "empty",
			input: "",
			kinds: []SegmentKind{},
			raws:  []string{},
		},
		{
			name:  "text only",
			input: "Hello world",
			kinds: []SegmentKind{SegmentText},
			raws:  []string{"Hello world"},
		},
		{
			name:  "tag between text",
			input: "Hello {$name}!",
			kinds: []SegmentKind{SegmentText, SegmentTag, SegmentText},
			raws:  []string{"Hello ", "{$name}", "!"},
		},
		{
			name:  "adjacent tags drop empty text",
			input: "{if show}A{/if}B",
			kinds: []SegmentKind{SegmentTag, SegmentText, SegmentTag, SegmentText},
			raws:  []string{"{if show}", "A", "{/if}", "B"},
		},
		{
			name:  "mixed families",
			input: "{echo $a}-{script a}",
			kinds: []SegmentKind{SegmentTag, SegmentText, SegmentTag},
			raws:  []string{"{echo $a}", "-", "{script a}"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segments, err := seg.Segment(tt.input)
			require.NoError(t, err)
			require.Len(t, segments, len(tt.raws))
			var rebuilt strings.Builder
			for i, s := range segments {
				assert.Equal(t, tt.kinds[i], s.Kind)
				assert.Equal(t, tt.raws[i], s.Raw)
				assert.Equal(t, rebuilt.Len(), s.Offset)
				rebuilt.WriteString(s.Raw)
			}
			assert.Equal(t, tt.input, rebuilt.String())
		})
	}
}

func TestSegmenter_Positions(t *testing.T) {
	seg := NewSegmenter(newTestGrammar(t), zap.NewNop())
	segments, err := seg.Segment("line one\n  {$x}")
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, Position{Offset: 11, Line: 2, Column: 3}, segments[1].Pos)
}

func TestSegmenter_Unterminated(t *testing.T) {
	seg := NewSegmenter(newTestGrammar(t), zap.NewNop())
	_, err := seg.Segment("ok\n{if x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedTag))

	te, ok := AsTemplateError(err)
	require.True(t, ok)
	assert.Equal(t, 2, te.Position.Line)
	assert.Equal(t, 1, te.Position.Column)
	assert.Equal(t, testFamilyStatement, te.Delimiter)
}
