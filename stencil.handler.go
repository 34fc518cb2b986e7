package stencil

import (
	"context"

	"github.com/itsatony/go-stencil/internal"
)

// TagView is the read-only view of a tag node passed to a Handler.
// Body is the tag's text after its name, Inner the text between opener and
// closer, Raw the untouched source between an opening and closing tag.
type TagView = internal.TagView

// Fragment is a sequence of render instructions produced for one node.
type Fragment = internal.Fragment

// Scope resolves names during rendering: loop locals first, then the data
// binding.
type Scope = internal.Scope

// Handler translates one tag node and the fragment generated for its
// children into the node's fragment. Handlers run at compile time only.
type Handler = internal.Handler

// CallFunc produces text at render time.
type CallFunc = internal.CallFunc

// Text returns a fragment that appends literal text.
func Text(text string) Fragment {
	return internal.TextFragment(text)
}

// Output returns a fragment that appends the value of a reference such as
// "$user.name" or a quoted literal.
func Output(expr string) (Fragment, error) {
	ref, err := internal.ParseReference(expr)
	if err != nil {
		return nil, err
	}
	return internal.OutputFragment(ref), nil
}

// Branch returns a fragment that runs then when cond is truthy. An empty
// cond always holds.
func Branch(cond string, then Fragment) (Fragment, error) {
	if cond == "" {
		return internal.BranchFragment(nil, then), nil
	}
	ref, err := internal.ParseReference(cond)
	if err != nil {
		return nil, err
	}
	return internal.BranchFragment(ref, then), nil
}

// Loop returns a fragment that runs body for every element of collection,
// binding the element to item and its index or key to item + "_i".
func Loop(collection, item string, body Fragment) (Fragment, error) {
	ref, err := internal.ParseReference(collection)
	if err != nil {
		return nil, err
	}
	return internal.LoopFragment(ref, item, item+internal.LoopIndexSuffix, false, body), nil
}

// Call returns a fragment that appends the result of fn at render time.
func Call(label string, fn func(ctx context.Context, scope *Scope) (string, error)) Fragment {
	return internal.CallFragment(label, fn)
}

// Chain marks f as the else branch of the preceding Branch or Loop in the
// same parent. f itself is not modified.
func Chain(f Fragment) Fragment {
	return internal.ChainFragment(f)
}

// BuiltinHandler returns a built-in handler by name (see the Handler*
// constants).
func BuiltinHandler(name string) (Handler, bool) {
	h, ok := internal.BuiltinHandlers(internal.BuiltinConfig{
		ScriptThreadName: DefaultScriptThreadName,
	})[name]
	return h, ok
}
