package internal

import (
	"regexp"
	"strings"
	"unicode"
)

// Regex building blocks for compiled argument patterns
const (
	patternAnchorStart = `(?s)^\s*`
	patternAnchorEnd   = `\s*$`
	patternCapture     = `(.*?)`
	patternWhitespace  = `\s+`
)

// ArgumentPattern is a compiled placeholder template such as
// "{element} in {object}". Literal text must match exactly (whitespace runs
// match any whitespace run); each placeholder captures the text between its
// neighbours.
type ArgumentPattern struct {
	source string
	names  []string
	re     *regexp.Regexp
}

// CompileArgumentPattern compiles a placeholder template. A brace pair whose
// content is not an identifier is treated as literal text.
func CompileArgumentPattern(pattern string) (*ArgumentPattern, error) {
	var expr strings.Builder
	expr.WriteString(patternAnchorStart)

	names := make([]string, 0, 2)
	seen := make(map[string]bool)
	literal := strings.TrimSpace(pattern)

	for len(literal) > 0 {
		open := strings.IndexByte(literal, PlaceholderOpen)
		if open < 0 {
			writeLiteral(&expr, literal)
			break
		}
		closeIdx := strings.IndexByte(literal[open:], PlaceholderClose)
		if closeIdx < 0 {
			writeLiteral(&expr, literal)
			break
		}
		closeIdx += open

		name := literal[open+1 : closeIdx]
		if !isIdentifier(name) {
			writeLiteral(&expr, literal[:closeIdx+1])
			literal = literal[closeIdx+1:]
			continue
		}
		if seen[name] {
			return nil, NewGrammarError(ErrMsgDuplicatePlaceholder, StringValueEmpty, name, nil)
		}
		seen[name] = true
		names = append(names, name)

		writeLiteral(&expr, literal[:open])
		expr.WriteString(patternCapture)
		literal = literal[closeIdx+1:]
	}

	expr.WriteString(patternAnchorEnd)

	re, err := regexp.Compile(expr.String())
	if err != nil {
		return nil, NewGrammarError(ErrMsgBadPattern, StringValueEmpty, StringValueEmpty, err)
	}

	return &ArgumentPattern{source: pattern, names: names, re: re}, nil
}

// MustCompileArgumentPattern is CompileArgumentPattern for built-in patterns.
func MustCompileArgumentPattern(pattern string) *ArgumentPattern {
	p, err := CompileArgumentPattern(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// Source returns the uncompiled template
func (p *ArgumentPattern) Source() string {
	return p.source
}

// Names returns placeholder names in declaration order
func (p *ArgumentPattern) Names() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// Extract binds each captured substring to its placeholder name. The bool
// is false when text does not match; the returned map is then empty.
func (p *ArgumentPattern) Extract(text string) (map[string]string, bool) {
	args := make(map[string]string, len(p.names))
	m := p.re.FindStringSubmatch(text)
	if m == nil {
		return args, false
	}
	for i, name := range p.names {
		args[name] = strings.TrimSpace(m[i+1])
	}
	return args, true
}

// writeLiteral escapes literal pattern text, folding whitespace runs into \s+
func writeLiteral(b *strings.Builder, text string) {
	inSpace := false
	start := 0
	for i, r := range text {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteString(regexp.QuoteMeta(text[start:i]))
				b.WriteString(patternWhitespace)
				inSpace = true
			}
			continue
		}
		if inSpace {
			start = i
			inSpace = false
		}
	}
	if !inSpace {
		b.WriteString(regexp.QuoteMeta(text[start:]))
	}
}

// isIdentifier reports whether s is a letter or underscore followed by
// letters, digits or underscores.
func isIdentifier(s string) bool {
	if s == StringValueEmpty {
		return false
	}
	for i, r := range s {
		if r == CharUnderscore || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}
