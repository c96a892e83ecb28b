package sourcemap

import (
	"fmt"
	"math"
	"strings"
)

// Mapping is one decoded correspondence between a generated position and
// an original position.
type Mapping struct {
	Generated Position
	Original  Position

	// Source and Name are resolved from the document tables. They are empty
	// when the segment carries no reference or the index is out of range.
	Source string
	Name   string

	// SourceIndex and NameIndex are the absolute table indexes, -1 when the
	// segment has no source (1 field) or no name (fewer than 5 fields).
	SourceIndex int
	NameIndex   int
}

// HasSource reports whether the segment referenced a source file.
func (m Mapping) HasSource() bool { return m.SourceIndex >= 0 }

// HasName reports whether the segment referenced a name.
func (m Mapping) HasName() bool { return m.NameIndex >= 0 }

func (m Mapping) String() string {
	if !m.HasSource() {
		return fmt.Sprintf("%s => (no source)", m.Generated)
	}
	if m.HasName() {
		return fmt.Sprintf("%s => %s:%s (%s)", m.Generated, m.Source, m.Original, m.Name)
	}
	return fmt.Sprintf("%s => %s:%s", m.Generated, m.Source, m.Original)
}

// noMapping is returned by lookups against an empty index.
var noMapping = Mapping{SourceIndex: -1, NameIndex: -1}

// DecodeMappings decodes a VLQ-encoded mappings string, resolving source
// and name indexes against the given tables. Mappings are returned in
// decode order.
func DecodeMappings(mappings string, sources, names []string) ([]Mapping, error) {
	if mappings == "" {
		return nil, nil
	}

	result := make([]Mapping, 0, strings.Count(mappings, ",")+strings.Count(mappings, ";")+1)

	// Running state; only the generated column resets per line
	var (
		genLine   int
		genCol    int
		srcIndex  int
		srcLine   int
		srcCol    int
		nameIndex int
	)

	var fields [5]int
	segment := 0

	for pos := 0; ; {
		end := pos
		for end < len(mappings) && mappings[end] != ',' && mappings[end] != ';' {
			end++
		}

		if end > pos {
			fail := func(err error) error {
				return &SegmentError{Line: genLine, Segment: segment, Start: pos, Err: err}
			}

			// Error offsets stay absolute because the reader sees a prefix
			r := vlqReader{s: mappings[:end], pos: pos}
			n := 0
			for !r.done() {
				if n == len(fields) {
					return nil, fail(&MalformedSourceMapError{Field: "mappings", Reason: "segment has more than 5 fields"})
				}
				v, err := r.next()
				if err != nil {
					return nil, fail(err)
				}
				fields[n] = v
				n++
			}

			genCol += fields[0]
			if genCol < 0 {
				return nil, fail(&MalformedSourceMapError{Field: "mappings", Reason: "negative generated column"})
			}
			if genCol > math.MaxUint32 {
				return nil, fail(&MalformedSourceMapError{Field: "mappings", Reason: "generated column overflows 32 bits"})
			}

			m := Mapping{
				Generated:   Position{Line: uint32(genLine), Column: uint32(genCol)},
				SourceIndex: -1,
				NameIndex:   -1,
			}

			switch n {
			case 1:
			case 4, 5:
				srcIndex += fields[1]
				srcLine += fields[2]
				srcCol += fields[3]
				if srcIndex < 0 || srcLine < 0 || srcCol < 0 {
					return nil, fail(&MalformedSourceMapError{Field: "mappings", Reason: "negative source index or original position"})
				}
				if srcLine > math.MaxUint32 || srcCol > math.MaxUint32 {
					return nil, fail(&MalformedSourceMapError{Field: "mappings", Reason: "original position overflows 32 bits"})
				}

				m.SourceIndex = srcIndex
				m.Original = Position{Line: uint32(srcLine), Column: uint32(srcCol)}
				if srcIndex < len(sources) {
					m.Source = sources[srcIndex]
				}

				if n == 5 {
					nameIndex += fields[4]
					if nameIndex < 0 {
						return nil, fail(&MalformedSourceMapError{Field: "mappings", Reason: "negative name index"})
					}
					m.NameIndex = nameIndex
					if nameIndex < len(names) {
						m.Name = names[nameIndex]
					}
				}
			default:
				return nil, fail(&MalformedSourceMapError{
					Field:  "mappings",
					Reason: fmt.Sprintf("segment has %d fields, want 1, 4 or 5", n),
				})
			}

			result = append(result, m)
		}

		if end == len(mappings) {
			break
		}
		if mappings[end] == ';' {
			genLine++
			genCol = 0
			segment = 0
		} else {
			segment++
		}
		pos = end + 1
	}

	return result, nil
}

// CountSegments returns the number of non-empty segments in a mappings
// string without decoding them.
func CountSegments(mappings string) int {
	count := 0
	for _, line := range strings.Split(mappings, ";") {
		for _, seg := range strings.Split(line, ",") {
			if seg != "" {
				count++
			}
		}
	}
	return count
}
