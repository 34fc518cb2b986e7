package internal

import (
	"regexp"
	"strings"
)

// Anonymous tag bodies that read like an undeclared tag keyword:
// "/name" or "name arg...".
var unknownKeyword = regexp.MustCompile(`^(?:/([A-Za-z_][\w-]*)|([A-Za-z_][\w-]*)\s+\S)`)

// BuiltinConfig carries settings for built-in handlers that need them
type BuiltinConfig struct {
	ScriptThreadName string
}

// BuiltinHandlers returns the built-in handler set keyed by handler name
func BuiltinHandlers(cfg BuiltinConfig) map[string]Handler {
	return map[string]Handler{
		HandlerNameOutput:  handleOutput,
		HandlerNameIf:      handleIf,
		HandlerNameElseIf:  handleElseIf,
		HandlerNameElse:    handleElse,
		HandlerNameForeach: loopHandler(false),
		HandlerNameFor:     loopHandler(true),
		HandlerNameLiteral: handleLiteral,
		HandlerNameComment: handleComment,
		HandlerNameScript:  NewScriptHandler(cfg.ScriptThreadName),
	}
}

// handleOutput appends the value of the tag body
func handleOutput(node *TagView, _ Fragment) (Fragment, error) {
	if m := unknownKeyword.FindStringSubmatch(node.Body); m != nil {
		name := m[1]
		if name == StringValueEmpty {
			name = m[2]
		}
		return nil, NewUnknownTagError(node.Delimiter, name, node.Pos, nil)
	}
	ref, err := ParseReference(node.Body)
	if err != nil {
		return nil, err
	}
	return OutputFragment(ref), nil
}

// handleIf wraps the inner fragment in a conditional
func handleIf(node *TagView, inner Fragment) (Fragment, error) {
	ref, err := ParseReference(node.Body)
	if err != nil {
		return nil, err
	}
	return BranchFragment(ref, inner), nil
}

// handleElseIf is a conditional chained to the preceding branch
func handleElseIf(node *TagView, inner Fragment) (Fragment, error) {
	f, err := handleIf(node, inner)
	if err != nil {
		return nil, err
	}
	return ChainFragment(f), nil
}

// handleElse is the unconditional tail of a branch chain or loop
func handleElse(_ *TagView, inner Fragment) (Fragment, error) {
	return ChainFragment(BranchFragment(nil, inner)), nil
}

// loopHandler builds foreach (maps allowed) and for (sequences only)
func loopHandler(sequenceOnly bool) Handler {
	return func(node *TagView, inner Fragment) (Fragment, error) {
		element := node.Argument(ArgElement)
		object := node.Argument(ArgObject)
		if element == StringValueEmpty || object == StringValueEmpty {
			return nil, NewExpressionError(ErrMsgMissingArgument, node.Body, node.Pos)
		}

		item := strings.TrimPrefix(element, string(CharDollar))
		if !isIdentifier(item) {
			return nil, NewExpressionError(ErrMsgBadLoopVariable, element, node.Pos)
		}

		ref, err := ParseReference(object)
		if err != nil {
			return nil, err
		}
		return LoopFragment(ref, item, item+LoopIndexSuffix, sequenceOnly, inner), nil
	}
}

// handleLiteral emits the raw source between the tags
func handleLiteral(node *TagView, _ Fragment) (Fragment, error) {
	return TextFragment(node.Raw), nil
}

// handleComment renders nothing
func handleComment(_ *TagView, _ Fragment) (Fragment, error) {
	return Fragment{}, nil
}
