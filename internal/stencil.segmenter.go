package internal

import (
	"strings"

	"go.uber.org/zap"
)

// Segment is one piece of source: literal text or a raw tag including its
// opener and closer.
type Segment struct {
	Kind   SegmentKind
	Raw    string
	Offset int
	Pos    Position
}

// Match is the result of locating the next opener
type Match struct {
	Family *DelimiterType
	Index  int
}

// Match finds the family whose opener occurs earliest in source. Families
// are scanned in precedence order and only a strictly smaller index replaces
// the current best, so ties go to the higher priority family.
func (g *Grammar) Match(source string) (Match, bool) {
	best := Match{Index: -1}
	for _, fam := range g.families {
		idx := strings.Index(source, fam.Opener)
		if idx < 0 {
			continue
		}
		if best.Index < 0 || idx < best.Index {
			best = Match{Family: fam, Index: idx}
		}
	}
	return best, best.Index >= 0
}

// Segmenter splits template source into text and tag segments.
type Segmenter struct {
	grammar *Grammar
	logger  *zap.Logger
}

// NewSegmenter creates a segmenter for the given grammar
func NewSegmenter(grammar *Grammar, logger *zap.Logger) *Segmenter {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgSegmenterCreated, zap.Int(LogFieldFamilies, len(grammar.families)))
	return &Segmenter{grammar: grammar, logger: logger}
}

// Segment walks the whole source. The result covers it without gaps or
// overlaps; empty text segments are dropped.
func (s *Segmenter) Segment(source string) ([]Segment, error) {
	s.logger.Debug(LogMsgSegmentStart, zap.Int(LogFieldSource, len(source)))

	lines := newLineIndex(source)
	segments := make([]Segment, 0, 16)

	// next opener index per family, relative to the whole source; -1 = none left
	next := make([]int, len(s.grammar.families))
	for i := range next {
		next[i] = -2
	}

	cursor := 0
	for cursor < len(source) {
		fam, start := s.nextOpener(source, cursor, next)
		if fam == nil {
			segments = appendText(segments, source[cursor:], cursor, lines)
			break
		}

		bodyStart := start + len(fam.Opener)
		closeIdx := strings.Index(source[bodyStart:], fam.Closer)
		if closeIdx < 0 {
			return nil, NewMalformedTagError(fam.Name, lines.position(start))
		}
		end := bodyStart + closeIdx + len(fam.Closer)

		segments = appendText(segments, source[cursor:start], cursor, lines)
		segments = append(segments, Segment{
			Kind:   SegmentTag,
			Raw:    source[start:end],
			Offset: start,
			Pos:    lines.position(start),
		})
		cursor = end
	}

	s.logger.Debug(LogMsgSegmentEnd, zap.Int(LogFieldSegments, len(segments)))
	return segments, nil
}

// nextOpener is Grammar.Match with a per-family memo of the next occurrence,
// so each family's opener is searched for again only once the cursor passes it.
func (s *Segmenter) nextOpener(source string, cursor int, next []int) (*DelimiterType, int) {
	var best *DelimiterType
	bestIdx := -1
	for i, fam := range s.grammar.families {
		if next[i] == -1 {
			continue
		}
		if next[i] < cursor {
			idx := strings.Index(source[cursor:], fam.Opener)
			if idx < 0 {
				next[i] = -1
				continue
			}
			next[i] = cursor + idx
		}
		if bestIdx < 0 || next[i] < bestIdx {
			best, bestIdx = fam, next[i]
		}
	}
	return best, bestIdx
}

// appendText appends a text segment unless it is empty
func appendText(segments []Segment, text string, offset int, lines *lineIndex) []Segment {
	if text == StringValueEmpty {
		return segments
	}
	return append(segments, Segment{
		Kind:   SegmentText,
		Raw:    text,
		Offset: offset,
		Pos:    lines.position(offset),
	})
}
