package internal

import (
	"regexp"
	"sort"
	"strings"
)

// Tag regex parts: optional closing slash, tag name alternation, remainder.
const (
	tagRegexPrefix = `(?s)^(/)?(`
	tagRegexSuffix = `)(?:\s+(.*))?$`
	tagNameRegex   = `^[A-Za-z_][A-Za-z0-9_-]*$`
)

var validTagName = regexp.MustCompile(tagNameRegex)

// TagSpec describes one named tag of a delimiter family.
type TagSpec struct {
	Name      string
	Isolated  bool   // surrounding whitespace-only text is suppressed
	Verbatim  bool   // inner segments are kept as raw text, never parsed
	Arguments string // optional placeholder pattern, see ArgumentPattern
	Handler   string // built-in handler name; empty means registered by the caller

	pattern *ArgumentPattern
}

// Pattern returns the compiled argument pattern, or nil
func (t *TagSpec) Pattern() *ArgumentPattern {
	return t.pattern
}

// DelimiterType is one tag family: an opener/closer pair plus optional named
// tags. A family without tags produces anonymous tags only.
type DelimiterType struct {
	Name      string // DelimiterKey used for handler lookup
	Opener    string
	Closer    string
	Priority  int    // higher wins when openers start at the same index
	Arguments string // family-level argument pattern
	Handler   string // built-in default handler for anonymous tags
	Tags      []*TagSpec

	pattern  *ArgumentPattern
	tagIndex map[string]*TagSpec
	tagRegex *regexp.Regexp
	order    int
}

// HasTags reports whether the family declares named tags
func (d *DelimiterType) HasTags() bool {
	return len(d.Tags) > 0
}

// Tag looks up a declared tag by name
func (d *DelimiterType) Tag(name string) (*TagSpec, bool) {
	spec, ok := d.tagIndex[name]
	return spec, ok
}

// TagNames returns declared tag names in declaration order
func (d *DelimiterType) TagNames() []string {
	names := make([]string, len(d.Tags))
	for i, t := range d.Tags {
		names[i] = t.Name
	}
	return names
}

// Pattern returns the compiled family-level argument pattern, or nil
func (d *DelimiterType) Pattern() *ArgumentPattern {
	return d.pattern
}

// Grammar is a validated, immutable set of delimiter families kept in
// match precedence order.
type Grammar struct {
	families []*DelimiterType
	byName   map[string]*DelimiterType
}

// NewGrammar validates and compiles the given families. The inputs are
// copied, so later changes by the caller have no effect.
func NewGrammar(families ...*DelimiterType) (*Grammar, error) {
	if len(families) == 0 {
		return nil, NewGrammarError(ErrMsgEmptyGrammar, StringValueEmpty, StringValueEmpty, nil)
	}

	g := &Grammar{
		families: make([]*DelimiterType, 0, len(families)),
		byName:   make(map[string]*DelimiterType, len(families)),
	}

	for i, src := range families {
		fam, err := compileFamily(src, i)
		if err != nil {
			return nil, err
		}
		if _, dup := g.byName[fam.Name]; dup {
			return nil, NewGrammarError(ErrMsgDuplicateFamily, fam.Name, StringValueEmpty, nil)
		}
		g.byName[fam.Name] = fam
		g.families = append(g.families, fam)
	}

	sort.SliceStable(g.families, func(i, j int) bool {
		return g.families[i].Priority > g.families[j].Priority
	})

	return g, nil
}

// Families returns the families in precedence order
func (g *Grammar) Families() []*DelimiterType {
	out := make([]*DelimiterType, len(g.families))
	copy(out, g.families)
	return out
}

// Family looks up a family by its delimiter key
func (g *Grammar) Family(name string) (*DelimiterType, bool) {
	fam, ok := g.byName[name]
	return fam, ok
}

// compileFamily deep-copies and validates one family definition
func compileFamily(src *DelimiterType, order int) (*DelimiterType, error) {
	if src == nil || strings.TrimSpace(src.Name) == StringValueEmpty {
		return nil, NewGrammarError(ErrMsgEmptyFamilyName, StringValueEmpty, StringValueEmpty, nil)
	}
	if src.Opener == StringValueEmpty || src.Closer == StringValueEmpty {
		return nil, NewGrammarError(ErrMsgEmptyDelimiter, src.Name, StringValueEmpty, nil)
	}

	fam := &DelimiterType{
		Name:      src.Name,
		Opener:    src.Opener,
		Closer:    src.Closer,
		Priority:  src.Priority,
		Arguments: src.Arguments,
		Handler:   src.Handler,
		Tags:      make([]*TagSpec, 0, len(src.Tags)),
		tagIndex:  make(map[string]*TagSpec, len(src.Tags)),
		order:     order,
	}

	if fam.Arguments != StringValueEmpty {
		p, err := CompileArgumentPattern(fam.Arguments)
		if err != nil {
			return nil, withDelimiter(err, fam.Name)
		}
		fam.pattern = p
	}

	for _, srcTag := range src.Tags {
		if srcTag == nil || srcTag.Name == StringValueEmpty {
			return nil, NewGrammarError(ErrMsgEmptyTagName, fam.Name, StringValueEmpty, nil)
		}
		if !validTagName.MatchString(srcTag.Name) {
			return nil, NewGrammarError(ErrMsgInvalidTagName, fam.Name, srcTag.Name, nil)
		}
		if _, dup := fam.tagIndex[srcTag.Name]; dup {
			// first declaration wins, like handler registration
			continue
		}
		tag := *srcTag
		if tag.Arguments != StringValueEmpty {
			p, err := CompileArgumentPattern(tag.Arguments)
			if err != nil {
				return nil, withDelimiter(err, fam.Name)
			}
			tag.pattern = p
		}
		fam.Tags = append(fam.Tags, &tag)
		fam.tagIndex[tag.Name] = &tag
	}

	if len(fam.Tags) > 0 {
		fam.tagRegex = buildTagRegex(fam.TagNames())
	}

	return fam, nil
}

// buildTagRegex builds the name alternation, longest names first so that
// "elseif" is never read as "else" followed by "if".
func buildTagRegex(names []string) *regexp.Regexp {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i]) > len(sorted[j])
	})
	for i, n := range sorted {
		sorted[i] = regexp.QuoteMeta(n)
	}
	return regexp.MustCompile(tagRegexPrefix + strings.Join(sorted, "|") + tagRegexSuffix)
}

// withDelimiter stamps the family name onto a grammar error
func withDelimiter(err error, delimiter string) error {
	if te, ok := AsTemplateError(err); ok {
		te.Delimiter = delimiter
		return te
	}
	return err
}
