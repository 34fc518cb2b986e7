package internal

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// NodeID indexes a node in a Tree arena
type NodeID int

// Arena sentinels
const (
	RootID   NodeID = 0
	NoParent NodeID = -1
)

// Node is one tree element. Text nodes use Text; tag nodes use Tag.
type Node struct {
	ID          NodeID
	Kind        NodeKind
	Text        string
	Tag         *ParsedTag
	Children    []NodeID
	Parent      NodeID
	SourceIndex int // index of the opening segment
	Pos         Position
	// Raw is the source between the opening and closing tag
	Raw string
}

// Tree is an arena of nodes rooted at RootID. Parent and child links are
// arena indexes, so the structure holds no pointer cycles.
type Tree struct {
	Nodes  []Node
	Source string
}

// Root returns the root node
func (t *Tree) Root() *Node {
	return &t.Nodes[RootID]
}

// Node returns the node with the given id
func (t *Tree) Node(id NodeID) *Node {
	return &t.Nodes[id]
}

// Outline writes an indented listing of the reachable nodes. The walk keeps
// its own stack so arbitrarily deep trees can be listed.
func (t *Tree) Outline() string {
	type entry struct {
		id    NodeID
		depth int
	}
	var b strings.Builder
	stack := []entry{{id: RootID}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := t.Node(top.id)
		t.outlineNode(&b, n, top.depth)
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, entry{id: n.Children[i], depth: top.depth + 1})
		}
	}
	return b.String()
}

func (t *Tree) outlineNode(b *strings.Builder, n *Node, depth int) {
	b.WriteString(strings.Repeat(OutlineIndent, depth))
	switch n.Kind {
	case NodeKindRoot:
		b.WriteString(NodeKindNameRoot)
	case NodeKindText:
		fmt.Fprintf(b, "%s %q", NodeKindNameText, truncate(n.Text))
	case NodeKindTag:
		name := n.Tag.TagName
		if name == StringValueEmpty {
			name = "-"
		}
		fmt.Fprintf(b, "%s %s:%s", NodeKindNameTag, n.Tag.Delimiter, name)
		if n.Tag.Body != StringValueEmpty {
			fmt.Fprintf(b, " %q", truncate(n.Tag.Body))
		}
		if len(n.Tag.Arguments) > 0 {
			fmt.Fprintf(b, " %v", n.Tag.Arguments)
		}
		fmt.Fprintf(b, " @%d:%d", n.Pos.Line, n.Pos.Column)
	}
	b.WriteByte(CharNewline)
}

// TreeBuilder nests tag segments into a Tree.
type TreeBuilder struct {
	parser *TagParser
	logger *zap.Logger
}

// NewTreeBuilder creates a tree builder using the given tag parser
func NewTreeBuilder(parser *TagParser, logger *zap.Logger) *TreeBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TreeBuilder{parser: parser, logger: logger}
}

// Build consumes the segments of source. Open named tags are tracked on a
// local stack; a closer must match the innermost open tag.
func (b *TreeBuilder) Build(source string, segments []Segment) (*Tree, error) {
	b.logger.Debug(LogMsgTreeStart, zap.Int(LogFieldSegments, len(segments)))

	tree := &Tree{
		Nodes:  make([]Node, 1, len(segments)+1),
		Source: source,
	}
	tree.Nodes[RootID] = Node{ID: RootID, Kind: NodeKindRoot, Parent: NoParent}

	// stack of open tag nodes; the top is the current parent
	stack := []NodeID{RootID}
	// > 0 while inside a verbatim tag: count of same-name openers still open
	verbatimDepth := 0
	// byte offset where the innermost open node's content begins
	contentStart := map[NodeID]int{RootID: 0}

	for i, seg := range segments {
		current := stack[len(stack)-1]

		if seg.Kind == SegmentText {
			b.appendText(tree, current, seg, i)
			continue
		}

		tag, ok := b.parser.Parse(seg.Raw)

		if verbatimDepth > 0 {
			open := tree.Node(current).Tag
			if ok && tag.Delimiter == open.Delimiter && tag.TagName == open.TagName {
				if tag.IsClosing {
					verbatimDepth--
				} else {
					verbatimDepth++
				}
			}
			if verbatimDepth > 0 {
				b.appendText(tree, current, seg, i)
				continue
			}
			// the matching closer of the verbatim tag falls through
		}

		if tag == nil {
			b.appendText(tree, current, seg, i)
			continue
		}

		if !ok || tag.IsAnonymous() {
			b.appendNode(tree, current, Node{Kind: NodeKindTag, Tag: tag, SourceIndex: i, Pos: seg.Pos})
			continue
		}

		if tag.IsClosing {
			if current == RootID {
				return nil, NewUnbalancedTagError(ErrMsgUnexpectedClose, StringValueEmpty, tag.TagName, seg.Pos)
			}
			open := tree.Node(current)
			if open.Tag.TagName != tag.TagName || open.Tag.Delimiter != tag.Delimiter {
				return nil, NewUnbalancedTagError(ErrMsgMismatchedClose, open.Tag.TagName, tag.TagName, seg.Pos)
			}
			open.Raw = source[contentStart[current]:seg.Offset]
			delete(contentStart, current)
			stack = stack[:len(stack)-1]
			continue
		}

		if tag.Isolated {
			b.suppressWhitespace(tree, current)
		}

		id := b.appendNode(tree, current, Node{Kind: NodeKindTag, Tag: tag, SourceIndex: i, Pos: seg.Pos})
		contentStart[id] = seg.Offset + len(seg.Raw)
		stack = append(stack, id)
		if tag.Verbatim {
			verbatimDepth = 1
		}
	}

	if len(stack) > 1 {
		open := tree.Node(stack[len(stack)-1])
		return nil, NewUnbalancedTagError(ErrMsgUnclosedTag, open.Tag.TagName, StringValueEmpty, open.Pos)
	}

	tree.Root().Raw = source
	b.logger.Debug(LogMsgTreeEnd, zap.Int(LogFieldNodes, len(tree.Nodes)))
	return tree, nil
}

// appendNode adds n to the arena as the last child of parent
func (b *TreeBuilder) appendNode(tree *Tree, parent NodeID, n Node) NodeID {
	n.ID = NodeID(len(tree.Nodes))
	n.Parent = parent
	tree.Nodes = append(tree.Nodes, n)
	p := tree.Node(parent)
	p.Children = append(p.Children, n.ID)
	return n.ID
}

// appendText adds a literal segment as a text node
func (b *TreeBuilder) appendText(tree *Tree, parent NodeID, seg Segment, index int) {
	b.appendNode(tree, parent, Node{Kind: NodeKindText, Text: seg.Raw, SourceIndex: index, Pos: seg.Pos})
}

// suppressWhitespace drops the preceding sibling when it is whitespace-only
// text. That sibling is always the newest arena entry, so the arena shrinks too.
func (b *TreeBuilder) suppressWhitespace(tree *Tree, parent NodeID) {
	p := tree.Node(parent)
	if len(p.Children) == 0 {
		return
	}
	lastID := p.Children[len(p.Children)-1]
	last := tree.Node(lastID)
	if last.Kind != NodeKindText || strings.TrimSpace(last.Text) != StringValueEmpty {
		return
	}
	offset := last.Pos.Offset
	p.Children = p.Children[:len(p.Children)-1]
	if int(lastID) == len(tree.Nodes)-1 {
		tree.Nodes = tree.Nodes[:lastID]
	}
	b.logger.Debug(LogMsgIsolatedSuppressed, zap.Int(LogFieldOffset, offset))
}
