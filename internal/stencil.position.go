package internal

import (
	"fmt"
	"sort"
)

// Position represents a location in the source template
type Position struct {
	Offset int // Byte offset from start
	Line   int // 1-indexed line number
	Column int // 1-indexed column number
}

// String returns a human-readable position string
func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// IsZero reports whether the position was never set
func (p Position) IsZero() bool {
	return p.Line == 0
}

// lineIndex maps byte offsets to line/column pairs for one source string.
type lineIndex struct {
	starts []int // byte offset of the first character of each line
}

// newLineIndex scans source once for newline offsets
func newLineIndex(source string) *lineIndex {
	starts := []int{0}
	for i := 0; i < len(source); i++ {
		if source[i] == CharNewline {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{starts: starts}
}

// position returns the Position of the given byte offset
func (li *lineIndex) position(offset int) Position {
	// index of the last line start <= offset
	line := sort.Search(len(li.starts), func(i int) bool {
		return li.starts[i] > offset
	}) - 1
	if line < 0 {
		line = 0
	}
	return Position{
		Offset: offset,
		Line:   line + 1,
		Column: offset - li.starts[line] + 1,
	}
}
