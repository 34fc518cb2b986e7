package stencil

import (
	"context"

	"github.com/itsatony/go-stencil/internal"
)

// Template is a compiled template. It is immutable and safe for concurrent
// use; each render allocates its own output buffer and scope.
type Template struct {
	compiled *internal.Compiled
	executor *internal.Executor
}

// NodeInfo describes one node of a compiled template's tree.
type NodeInfo struct {
	ID        int               `json:"id"`
	Kind      string            `json:"kind"`
	Parent    int               `json:"parent"`
	Children  []int             `json:"children,omitempty"`
	Text      string            `json:"text,omitempty"`
	Delimiter string            `json:"delimiter,omitempty"`
	Tag       string            `json:"tag,omitempty"`
	Body      string            `json:"body,omitempty"`
	Arguments map[string]string `json:"arguments,omitempty"`
	Line      int               `json:"line,omitempty"`
	Column    int               `json:"column,omitempty"`
}

// newTemplate creates a template (internal use)
func newTemplate(compiled *internal.Compiled, executor *internal.Executor) *Template {
	return &Template{
		compiled: compiled,
		executor: executor,
	}
}

// Execute renders the template with the given data. The data map is read
// but never modified or retained. On error no partial output is returned.
func (t *Template) Execute(ctx context.Context, data map[string]any) (string, error) {
	out, err := t.executor.Execute(ctx, t.compiled.Program, data)
	if err != nil {
		return "", wrapError(err, ErrMsgRenderFailed)
	}
	return out, nil
}

// Run renders the template without a context.
func (t *Template) Run(data map[string]any) (string, error) {
	return t.Execute(context.Background(), data)
}

// MustRun is like Run but panics on error.
func (t *Template) MustRun(data map[string]any) string {
	out, err := t.Run(data)
	if err != nil {
		panic(err)
	}
	return out
}

// Source returns the original template source.
func (t *Template) Source() string {
	return t.compiled.Source
}

// Outline returns an indented listing of the node tree.
func (t *Template) Outline() string {
	return t.compiled.Tree.Outline()
}

// Program returns a printable listing of the render instructions.
func (t *Template) Program() string {
	return t.compiled.Program.Listing()
}

// Nodes returns the node tree as a flat list indexed by node ID.
func (t *Template) Nodes() []NodeInfo {
	tree := t.compiled.Tree
	infos := make([]NodeInfo, len(tree.Nodes))
	for i := range tree.Nodes {
		n := &tree.Nodes[i]
		info := NodeInfo{
			ID:     int(n.ID),
			Kind:   n.Kind.String(),
			Parent: int(n.Parent),
			Text:   n.Text,
			Line:   n.Pos.Line,
			Column: n.Pos.Column,
		}
		for _, c := range n.Children {
			info.Children = append(info.Children, int(c))
		}
		if n.Tag != nil {
			info.Delimiter = n.Tag.Delimiter
			info.Tag = n.Tag.TagName
			info.Body = n.Tag.Body
			if len(n.Tag.Arguments) > 0 {
				info.Arguments = make(map[string]string, len(n.Tag.Arguments))
				for k, v := range n.Tag.Arguments {
					info.Arguments[k] = v
				}
			}
		}
		infos[i] = info
	}
	return infos
}
