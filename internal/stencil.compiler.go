package internal

import (
	"go.uber.org/zap"
)

// Compiled is the output of one compilation pass
type Compiled struct {
	Source  string
	Tree    *Tree
	Program Fragment
}

// Compiler wires segmenter, tag parser, tree builder and generator.
type Compiler struct {
	segmenter *Segmenter
	builder   *TreeBuilder
	generator *Generator
}

// NewCompiler creates a compiler for a grammar and handler table
func NewCompiler(grammar *Grammar, handlers *HandlerTable, logger *zap.Logger) *Compiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compiler{
		segmenter: NewSegmenter(grammar, logger),
		builder:   NewTreeBuilder(NewTagParser(grammar, logger), logger),
		generator: NewGenerator(grammar, handlers, logger),
	}
}

// Compile runs the full pipeline. Any structural error aborts it.
func (c *Compiler) Compile(source string) (*Compiled, error) {
	segments, err := c.segmenter.Segment(source)
	if err != nil {
		return nil, err
	}
	tree, err := c.builder.Build(source, segments)
	if err != nil {
		return nil, err
	}
	program, err := c.generator.Generate(tree)
	if err != nil {
		return nil, err
	}
	return &Compiled{Source: source, Tree: tree, Program: program}, nil
}
