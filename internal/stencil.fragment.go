package internal

import (
	"context"
	"fmt"
	"strings"
)

// OpCode identifies an instruction variant
type OpCode uint8

// Instruction set
const (
	OpText OpCode = iota
	OpOutput
	OpBranch
	OpLoop
	OpCall
)

// OpCode names for listings
const (
	OpNameText   = "TEXT"
	OpNameOutput = "OUTPUT"
	OpNameBranch = "BRANCH"
	OpNameLoop   = "LOOP"
	OpNameCall   = "CALL"
)

// String returns the opcode name
func (o OpCode) String() string {
	switch o {
	case OpText:
		return OpNameText
	case OpOutput:
		return OpNameOutput
	case OpBranch:
		return OpNameBranch
	case OpLoop:
		return OpNameLoop
	case OpCall:
		return OpNameCall
	default:
		return fmt.Sprintf("OP(%d)", uint8(o))
	}
}

// CallFunc computes output at run time from the visible bindings
type CallFunc func(ctx context.Context, scope *Scope) (string, error)

// Instr is one instruction. Which fields are used depends on Op:
//
//	OpText   Text
//	OpOutput Ref
//	OpBranch Ref (nil = unconditional), Then, Else
//	OpLoop   Ref (collection), Item, Index, Body, Empty, SequenceOnly
//	OpCall   Call, Text (label)
type Instr struct {
	Op           OpCode
	Text         string
	Ref          *Reference
	Then         Fragment
	Else         Fragment
	Item         string
	Index        string
	Body         Fragment
	Empty        Fragment
	SequenceOnly bool
	Call         CallFunc

	// Continues marks an elseif/else that attaches to the preceding
	// branch or loop instead of standing on its own.
	Continues bool

	TagName string
	Pos     Position
}

// Fragment is a sequence of instructions
type Fragment []Instr

// TextFragment appends a literal
func TextFragment(text string) Fragment {
	if text == StringValueEmpty {
		return Fragment{}
	}
	return Fragment{{Op: OpText, Text: text}}
}

// OutputFragment appends the value of a reference
func OutputFragment(ref *Reference) Fragment {
	return Fragment{{Op: OpOutput, Ref: ref}}
}

// BranchFragment runs then when cond holds. A nil cond always holds.
func BranchFragment(cond *Reference, then Fragment) Fragment {
	return Fragment{{Op: OpBranch, Ref: cond, Then: then}}
}

// LoopFragment runs body once per element of the collection
func LoopFragment(collection *Reference, item, index string, sequenceOnly bool, body Fragment) Fragment {
	return Fragment{{
		Op:           OpLoop,
		Ref:          collection,
		Item:         item,
		Index:        index,
		SequenceOnly: sequenceOnly,
		Body:         body,
	}}
}

// CallFragment appends whatever fn returns at run time
func CallFragment(label string, fn CallFunc) Fragment {
	return Fragment{{Op: OpCall, Text: label, Call: fn}}
}

// ChainFragment marks the first instruction of f as a continuation of the
// preceding branch or loop. f itself is left untouched.
func ChainFragment(f Fragment) Fragment {
	if len(f) == 0 {
		return f
	}
	out := append(Fragment(nil), f...)
	out[0].Continues = true
	return out
}

// Concat appends next to f. Adjacent literals are merged and continuation
// instructions are attached to the tail of the preceding branch or loop.
func Concat(f Fragment, next Fragment) (Fragment, error) {
	for _, in := range next {
		if in.Continues {
			if len(f) == 0 {
				return nil, NewUnbalancedTagError(ErrMsgDanglingElse, StringValueEmpty, in.TagName, in.Pos)
			}
			if err := attachContinuation(&f[len(f)-1], in); err != nil {
				return nil, err
			}
			continue
		}
		if in.Op == OpText && len(f) > 0 && f[len(f)-1].Op == OpText {
			f[len(f)-1].Text += in.Text
			continue
		}
		f = append(f, in)
	}
	return f, nil
}

// attachContinuation walks the elseif chain starting at tail and hangs in
// on its first free slot
func attachContinuation(tail *Instr, in Instr) error {
	cur := tail
	for {
		var slot *Fragment
		switch cur.Op {
		case OpBranch:
			slot = &cur.Else
		case OpLoop:
			slot = &cur.Empty
		default:
			return NewUnbalancedTagError(ErrMsgDanglingElse, StringValueEmpty, in.TagName, in.Pos)
		}

		if len(*slot) == 0 {
			*slot = Fragment{in}
			return nil
		}
		// the chain may still point into a handler's fragment
		*slot = append(Fragment(nil), (*slot)...)
		link := &(*slot)[0]
		if len(*slot) != 1 || !link.Continues || link.Op != OpBranch {
			return NewUnbalancedTagError(ErrMsgElseAfterElse, StringValueEmpty, in.TagName, in.Pos)
		}
		if link.Ref == nil {
			return NewUnbalancedTagError(ErrMsgElseAfterElse, StringValueEmpty, in.TagName, in.Pos)
		}
		cur = link
	}
}

// listEntry is either an instruction or a section marker of a listing
type listEntry struct {
	in     *Instr
	marker string
	depth  int
}

// Listing renders a fragment as an indented instruction listing
func (f Fragment) Listing() string {
	var b strings.Builder
	stack := pushListing(nil, f, 0)
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		pad := strings.Repeat(OutlineIndent, top.depth)
		if top.in == nil {
			b.WriteString(pad + top.marker + "\n")
			continue
		}
		in := top.in
		b.WriteString(pad)
		b.WriteString(in.Op.String())
		switch in.Op {
		case OpText:
			fmt.Fprintf(&b, " %q\n", truncate(in.Text))
		case OpOutput:
			fmt.Fprintf(&b, " %s\n", in.Ref.Source)
		case OpBranch:
			if in.Ref != nil {
				fmt.Fprintf(&b, " %s", in.Ref.Source)
			}
			b.WriteByte(CharNewline)
			stack = pushSection(stack, in.Then, in.Else, "ELSE", top.depth)
		case OpLoop:
			fmt.Fprintf(&b, " %s -> %s, %s\n", in.Ref.Source, in.Item, in.Index)
			stack = pushSection(stack, in.Body, in.Empty, "EMPTY", top.depth)
		case OpCall:
			fmt.Fprintf(&b, " %s\n", in.Text)
		default:
			b.WriteByte(CharNewline)
		}
	}
	return b.String()
}

// pushSection schedules body, then marker and alt when alt is not empty
func pushSection(stack []listEntry, body, alt Fragment, marker string, depth int) []listEntry {
	if len(alt) > 0 {
		stack = pushListing(stack, alt, depth+1)
		stack = append(stack, listEntry{marker: marker, depth: depth})
	}
	return pushListing(stack, body, depth+1)
}

// pushListing pushes f in reverse so it pops in order
func pushListing(stack []listEntry, f Fragment, depth int) []listEntry {
	for i := len(f) - 1; i >= 0; i-- {
		stack = append(stack, listEntry{in: &f[i], depth: depth})
	}
	return stack
}
