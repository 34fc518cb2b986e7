package internal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testFamilyStatement = "statement"
	testFamilyEcho      = "echo"
	testFamilyScript    = "script"
	testLoopPattern     = "{element} in {object}"
)

// newTestFamilies mirrors the standard grammar of the root package
func newTestFamilies() []*DelimiterType {
	return []*DelimiterType{
		{
			Name:     testFamilyStatement,
			Opener:   "{",
			Closer:   "}",
			Priority: 0,
			Handler:  HandlerNameOutput,
			Tags: []*TagSpec{
				{Name: "if", Handler: HandlerNameIf},
				{Name: "elseif", Isolated: true, Handler: HandlerNameElseIf},
				{Name: "else", Isolated: true, Handler: HandlerNameElse},
				{Name: "foreach", Arguments: testLoopPattern, Handler: HandlerNameForeach},
				{Name: "for", Arguments: testLoopPattern, Handler: HandlerNameFor},
				{Name: "literal", Verbatim: true, Handler: HandlerNameLiteral},
				{Name: "comment", Verbatim: true, Handler: HandlerNameComment},
			},
		},
		{Name: testFamilyEcho, Opener: "{echo ", Closer: "}", Priority: 20, Handler: HandlerNameOutput},
		{Name: testFamilyScript, Opener: "{script ", Closer: "}", Priority: 10, Handler: HandlerNameScript},
	}
}

func newTestGrammar(t *testing.T) *Grammar {
	t.Helper()
	g, err := NewGrammar(newTestFamilies()...)
	require.NoError(t, err)
	return g
}

// newTestHandlers registers the built-in handler named by every family and tag
func newTestHandlers(t *testing.T, g *Grammar) *HandlerTable {
	t.Helper()
	table := NewHandlerTable(zap.NewNop())
	builtins := BuiltinHandlers(BuiltinConfig{})
	for _, fam := range g.Families() {
		if fam.Handler != "" {
			require.NoError(t, table.Register(fam.Name, "", builtins[fam.Handler]))
		}
		for _, tag := range fam.Tags {
			require.NoError(t, table.Register(fam.Name, tag.Name, builtins[tag.Handler]))
		}
	}
	return table
}

func compileTest(t *testing.T, source string) (*Compiled, error) {
	t.Helper()
	g := newTestGrammar(t)
	return NewCompiler(g, newTestHandlers(t, g), zap.NewNop()).Compile(source)
}

func renderTest(t *testing.T, source string, data map[string]any) (string, error) {
	t.Helper()
	compiled, err := compileTest(t, source)
	if err != nil {
		return "", err
	}
	exec := NewExecutor(ExecutorConfig{MaxDepth: DefaultMaxDepth}, zap.NewNop())
	return exec.Execute(context.Background(), compiled.Program, data)
}
