package internal

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// ParsedTag is the structured form of one raw tag segment.
type ParsedTag struct {
	TagName   string // empty for anonymous tags
	Delimiter string
	IsClosing bool
	Isolated  bool
	Verbatim  bool
	Inner     string            // everything between opener and closer, trimmed
	Body      string            // Inner without the tag name (equals Inner for anonymous tags)
	Arguments map[string]string // never nil
	Family    *DelimiterType
	Spec      *TagSpec // nil for anonymous tags
}

// IsAnonymous reports whether the tag carries no name keyword
func (p *ParsedTag) IsAnonymous() bool {
	return p.TagName == StringValueEmpty
}

// TagParser turns raw tag segments into ParsedTags.
type TagParser struct {
	grammar *Grammar
	logger  *zap.Logger
}

// NewTagParser creates a tag parser for the given grammar
func NewTagParser(grammar *Grammar, logger *zap.Logger) *TagParser {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgTagParserCreated)
	return &TagParser{grammar: grammar, logger: logger}
}

// Parse re-identifies the family of a raw tag and splits it. The bool is
// false when the family declares named tags and none of them matches; the
// returned tag is then the anonymous reading of the segment. A nil tag means
// the raw text is not a tag of this grammar at all.
func (p *TagParser) Parse(raw string) (*ParsedTag, bool) {
	m, ok := p.grammar.Match(raw)
	if !ok || m.Index != 0 || len(raw) < len(m.Family.Opener)+len(m.Family.Closer) ||
		!strings.HasSuffix(raw, m.Family.Closer) {
		return nil, false
	}
	fam := m.Family
	inner := strings.TrimSpace(raw[len(fam.Opener) : len(raw)-len(fam.Closer)])

	tag := &ParsedTag{
		Delimiter: fam.Name,
		Inner:     inner,
		Body:      inner,
		Family:    fam,
	}

	if !fam.HasTags() {
		tag.Arguments = p.extract(fam.pattern, inner, tag)
		return tag, true
	}

	parts := fam.tagRegex.FindStringSubmatch(inner)
	if parts == nil {
		p.logger.Debug(LogMsgTagNotRecognized,
			zap.String(LogFieldDelimiter, fam.Name),
			zap.String(LogFieldTag, truncate(inner)),
		)
		tag.Arguments = p.extract(fam.pattern, inner, tag)
		return tag, false
	}

	spec := fam.tagIndex[parts[2]]
	tag.TagName = spec.Name
	tag.Spec = spec
	tag.IsClosing = parts[1] != StringValueEmpty
	tag.Isolated = spec.Isolated
	tag.Verbatim = spec.Verbatim
	tag.Body = strings.TrimSpace(parts[3])

	if tag.IsClosing {
		tag.Arguments = map[string]string{}
		return tag, true
	}

	pattern := fam.pattern
	if spec.pattern != nil {
		pattern = spec.pattern
	}
	tag.Arguments = p.extract(pattern, tag.Body, tag)
	return tag, true
}

// extract applies an argument pattern. A mismatch is recovered by treating
// the tag as argument-less.
func (p *TagParser) extract(pattern *ArgumentPattern, text string, tag *ParsedTag) map[string]string {
	if pattern == nil {
		return map[string]string{}
	}
	args, ok := pattern.Extract(text)
	if !ok {
		p.logger.Debug(LogMsgArgumentMismatch,
			zap.String(LogFieldDelimiter, tag.Delimiter),
			zap.String(LogFieldTag, tag.TagName),
			zap.String(LogFieldPattern, pattern.Source()),
		)
	}
	return args
}

// truncate shortens long strings for log and error output
func truncate(s string) string {
	if len(s) <= MaxStringDisplayLength {
		return s
	}
	cut := TruncatedStringLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + TruncationSuffix
}
