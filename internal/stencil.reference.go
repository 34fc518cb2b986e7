package internal

import (
	"strconv"
	"strings"
)

// PathStep is one accessor of a reference path: a field name or an index
type PathStep struct {
	Name    string
	Index   int
	IsIndex bool
}

// Reference is a parsed value reference: an optional negation followed by
// either a literal or a path such as $user.tags[0].
type Reference struct {
	Source    string
	Negate    bool
	IsLiteral bool
	Literal   any
	Path      []PathStep
}

// ParseReference parses the text of an output or condition argument
func ParseReference(expr string) (*Reference, error) {
	ref := &Reference{Source: strings.TrimSpace(expr)}
	text := ref.Source

	if strings.HasPrefix(text, string(CharBang)) {
		ref.Negate = true
		text = strings.TrimSpace(text[1:])
	}
	if text == StringValueEmpty {
		return nil, NewExpressionError(ErrMsgEmptyExpression, expr, Position{})
	}

	if lit, ok, err := parseLiteral(text); err != nil {
		return nil, NewExpressionError(err.Error(), expr, Position{})
	} else if ok {
		ref.IsLiteral = true
		ref.Literal = lit
		return ref, nil
	}

	path, err := parsePath(text)
	if err != nil {
		return nil, NewExpressionError(err.Error(), expr, Position{})
	}
	ref.Path = path
	return ref, nil
}

// Name returns the leading binding name, or "" for literals
func (r *Reference) Name() string {
	if r.IsLiteral || len(r.Path) == 0 {
		return StringValueEmpty
	}
	return r.Path[0].Name
}

// Resolve evaluates the reference against a scope. The bool is false when
// the path does not exist. Negation yields a bool.
func (r *Reference) Resolve(s *Scope) (any, bool) {
	v, ok := r.value(s)
	if r.Negate {
		return !(ok && Truthy(v)), true
	}
	return v, ok
}

// Test evaluates the reference as a condition; a missing path is false
func (r *Reference) Test(s *Scope) bool {
	v, ok := r.value(s)
	t := ok && Truthy(v)
	if r.Negate {
		return !t
	}
	return t
}

func (r *Reference) value(s *Scope) (any, bool) {
	if r.IsLiteral {
		return r.Literal, true
	}
	cur, ok := s.Lookup(r.Path[0].Name)
	if !ok {
		return nil, false
	}
	for _, step := range r.Path[1:] {
		if step.IsIndex {
			cur, ok = lookupIndex(cur, step.Index)
		} else {
			cur, ok = lookupField(cur, step.Name)
		}
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// parseLiteral recognises quoted strings, numbers and keywords
func parseLiteral(text string) (any, bool, error) {
	switch text {
	case KeywordTrue:
		return true, true, nil
	case KeywordFalse:
		return false, true, nil
	case KeywordNull, KeywordNil:
		return nil, true, nil
	}

	first := text[0]
	if first == CharDoubleQuote || first == CharSingleQuote {
		s, err := unquote(text)
		if err != nil {
			return nil, false, err
		}
		return s, true, nil
	}

	if isDigit(first) || (first == CharMinus && len(text) > 1 && isDigit(text[1])) {
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			return i, true, nil
		}
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return f, true, nil
		}
		return nil, false, errBadExpression
	}
	return nil, false, nil
}

// unquote reads a string literal delimited by matching single or double
// quotes. Supported escapes: \\ \" \' \n \t.
func unquote(text string) (string, error) {
	quote := text[0]
	if len(text) < 2 || text[len(text)-1] != quote {
		return StringValueEmpty, errUnterminatedString
	}
	body := text[1 : len(text)-1]

	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == quote {
			return StringValueEmpty, errBadExpression
		}
		if c != CharBackslash {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return StringValueEmpty, errUnterminatedString
		}
		switch body[i] {
		case 'n':
			b.WriteByte(CharNewline)
		case 't':
			b.WriteByte(CharTab)
		default:
			b.WriteByte(body[i])
		}
	}
	return b.String(), nil
}

// parsePath parses $?ident(.ident|[int])*
func parsePath(text string) ([]PathStep, error) {
	i := 0
	if text[0] == CharDollar {
		i++
	}

	name, n := scanIdent(text[i:])
	if n == 0 {
		return nil, errBadExpression
	}
	i += n
	path := []PathStep{{Name: name}}

	for i < len(text) {
		switch text[i] {
		case CharDot:
			name, n = scanIdent(text[i+1:])
			if n == 0 {
				return nil, errBadExpression
			}
			path = append(path, PathStep{Name: name})
			i += 1 + n
		case CharLBracket:
			end := strings.IndexByte(text[i:], CharRBracket)
			if end < 0 {
				return nil, errBadIndex
			}
			idx, err := strconv.Atoi(strings.TrimSpace(text[i+1 : i+end]))
			if err != nil || idx < 0 {
				return nil, errBadIndex
			}
			path = append(path, PathStep{Index: idx, IsIndex: true})
			i += end + 1
		default:
			return nil, errBadExpression
		}
	}
	return path, nil
}

// scanIdent returns the identifier at the start of s and its byte length
func scanIdent(s string) (string, int) {
	n := 0
	for n < len(s) {
		c := s[n]
		if c == CharUnderscore || isLetter(c) || (n > 0 && isDigit(c)) {
			n++
			continue
		}
		break
	}
	return s[:n], n
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
