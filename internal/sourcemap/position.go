package sourcemap

import (
	"fmt"
	"sort"
	"unicode/utf8"
)

// Position is a zero-based line and column. Columns count UTF-16 code
// units, as source maps do.
type Position struct {
	Line   uint32
	Column uint32
}

// Compare orders positions by line, then column.
func (p Position) Compare(q Position) int {
	switch {
	case p.Line < q.Line:
		return -1
	case p.Line > q.Line:
		return 1
	case p.Column < q.Column:
		return -1
	case p.Column > q.Column:
		return 1
	}
	return 0
}

// Less reports whether p sorts before q.
func (p Position) Less(q Position) bool {
	return p.Compare(q) < 0
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// LineIndex converts byte offsets in a generated file into positions that
// can be looked up in a Cache. It pre-computes line starts for O(log n)
// conversions.
type LineIndex struct {
	text       string
	lineStarts []int // byte offset of each line start
}

// NewLineIndex creates a LineIndex for the given text. LF, CRLF and lone CR
// all terminate a line.
func NewLineIndex(text string) *LineIndex {
	idx := &LineIndex{
		text:       text,
		lineStarts: []int{0},
	}

	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			idx.lineStarts = append(idx.lineStarts, i+1)
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			idx.lineStarts = append(idx.lineStarts, i+1)
		}
	}

	return idx
}

// LineCount returns the number of lines in the text.
func (idx *LineIndex) LineCount() int {
	return len(idx.lineStarts)
}

// PositionAt converts a byte offset to a position with a UTF-16 column.
// Offsets outside the text are clamped.
func (idx *LineIndex) PositionAt(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(idx.text) {
		offset = len(idx.text)
	}

	line := sort.Search(len(idx.lineStarts), func(i int) bool {
		return idx.lineStarts[i] > offset
	}) - 1

	start := idx.lineStarts[line]
	return Position{
		Line:   uint32(line),
		Column: uint32(utf16Len(idx.text[start:offset])),
	}
}

// Line returns the text of a zero-based line without its terminator.
func (idx *LineIndex) Line(line int) string {
	if line < 0 || line >= len(idx.lineStarts) {
		return ""
	}
	start := idx.lineStarts[line]
	end := len(idx.text)
	if line+1 < len(idx.lineStarts) {
		end = idx.lineStarts[line+1]
	}
	for end > start && (idx.text[end-1] == '\n' || idx.text[end-1] == '\r') {
		end--
	}
	return idx.text[start:end]
}

// utf16Len counts the UTF-16 code units needed for s. Invalid UTF-8 bytes
// count as one unit each.
func utf16Len(s string) int {
	n := 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
		i += size
	}
	return n
}
