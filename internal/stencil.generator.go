package internal

import (
	"regexp"

	"go.uber.org/zap"
)

// leadingWord picks the would-be tag name out of an anonymous tag's inner text
var leadingWord = regexp.MustCompile(`^/?([A-Za-z_][\w-]*)`)

// Generator turns a node tree into a Fragment by dispatching every tag node
// to its handler, children first.
type Generator struct {
	grammar  *Grammar
	handlers *HandlerTable
	logger   *zap.Logger
}

// NewGenerator creates a code generator
func NewGenerator(grammar *Grammar, handlers *HandlerTable, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgGeneratorCreated)
	return &Generator{grammar: grammar, handlers: handlers, logger: logger}
}

// genFrame is one node whose children are being generated
type genFrame struct {
	id   NodeID
	next int
	acc  Fragment
}

// Generate walks the tree post-order on an explicit stack. The root's
// fragment is the concatenation of its children; no handler runs for it.
func (g *Generator) Generate(tree *Tree) (Fragment, error) {
	g.logger.Debug(LogMsgGenerateStart, zap.Int(LogFieldNodes, len(tree.Nodes)))

	stack := []*genFrame{{id: RootID, acc: Fragment{}}}

	for {
		top := stack[len(stack)-1]
		node := tree.Node(top.id)

		if top.next < len(node.Children) {
			child := tree.Node(node.Children[top.next])
			top.next++
			if child.Kind == NodeKindText {
				acc, err := Concat(top.acc, TextFragment(child.Text))
				if err != nil {
					return nil, err
				}
				top.acc = acc
				continue
			}
			stack = append(stack, &genFrame{id: child.ID, acc: Fragment{}})
			continue
		}

		stack = stack[:len(stack)-1]
		if top.id == RootID {
			g.logger.Debug(LogMsgGenerateEnd, zap.Int(LogFieldInstrs, len(top.acc)))
			return top.acc, nil
		}

		frag, err := g.dispatch(node, top.acc)
		if err != nil {
			return nil, err
		}
		parent := stack[len(stack)-1]
		acc, err := Concat(parent.acc, frag)
		if err != nil {
			return nil, err
		}
		parent.acc = acc
	}
}

// dispatch invokes the handler for one tag node and stamps its position
// on the produced instructions
func (g *Generator) dispatch(node *Node, inner Fragment) (Fragment, error) {
	tag := node.Tag
	h, ok := g.handlers.Lookup(tag.Delimiter, tag.TagName)
	if !ok {
		if tag.TagName != StringValueEmpty {
			return nil, NewUnknownTagError(tag.Delimiter, tag.TagName, node.Pos, g.suggest(tag.Delimiter, tag.TagName))
		}
		err := NewUnknownTagError(tag.Delimiter, StringValueEmpty, node.Pos, nil)
		if m := leadingWord.FindStringSubmatch(tag.Inner); m != nil {
			err.TagName = m[1]
			err.Suggestions = g.suggest(tag.Delimiter, m[1])
		}
		return nil, err
	}

	view := &TagView{
		TagName:   tag.TagName,
		Delimiter: tag.Delimiter,
		Body:      tag.Body,
		Inner:     tag.Inner,
		Raw:       node.Raw,
		Arguments: copyArgs(tag.Arguments),
		Isolated:  tag.Isolated,
		Pos:       node.Pos,
	}

	frag, err := h(view, inner)
	if err != nil {
		return nil, g.handlerError(err, node)
	}

	// handlers may hand back a shared fragment; stamp a private copy
	frag = append(Fragment(nil), frag...)
	for i := range frag {
		if frag[i].Pos.IsZero() {
			frag[i].Pos = node.Pos
		}
		if frag[i].TagName == StringValueEmpty {
			frag[i].TagName = tag.TagName
		}
	}
	return frag, nil
}

// handlerError fills in position and suggestions, or wraps foreign errors
func (g *Generator) handlerError(err error, node *Node) error {
	te, ok := AsTemplateError(err)
	if !ok {
		return NewRenderError(ErrMsgHandlerFailed, node.Tag.TagName, node.Pos, err)
	}
	if te.Position.IsZero() {
		te.Position = node.Pos
	}
	if te.Delimiter == StringValueEmpty {
		te.Delimiter = node.Tag.Delimiter
	}
	if te.Kind == ErrUnknownTag && len(te.Suggestions) == 0 {
		te.Suggestions = g.suggest(te.Delimiter, te.TagName)
	}
	return te
}

// suggest proposes declared tag names close to an unknown one
func (g *Generator) suggest(delimiter, tagName string) []string {
	fam, ok := g.grammar.Family(delimiter)
	if !ok {
		return nil
	}
	return SuggestTagNames(tagName, fam.TagNames(), MaxSuggestions)
}

func copyArgs(args map[string]string) map[string]string {
	out := make(map[string]string, len(args))
	for k, v := range args {
		out[k] = v
	}
	return out
}
