package sourcemap

import (
	"errors"
	"fmt"
)

// ErrInvalidJSON is returned when the document is not well-formed JSON.
var ErrInvalidJSON = errors.New("invalid JSON")

// MalformedSourceMapError reports a required top-level field that is
// missing or has the wrong shape. It is also used for structurally invalid
// segments inside "mappings".
type MalformedSourceMapError struct {
	Field  string
	Reason string
}

func (e *MalformedSourceMapError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("malformed source map: field %q", e.Field)
	}
	return fmt.Sprintf("malformed source map: field %q: %s", e.Field, e.Reason)
}

// InvalidVLQCharacterError reports a byte outside the base64 alphabet.
// Offset is the byte offset in the mappings string.
type InvalidVLQCharacterError struct {
	Char   byte
	Offset int
}

func (e *InvalidVLQCharacterError) Error() string {
	return fmt.Sprintf("invalid VLQ character %q at offset %d", e.Char, e.Offset)
}

// TruncatedVLQError reports a continuation bit with no following digit.
type TruncatedVLQError struct {
	Offset int
}

func (e *TruncatedVLQError) Error() string {
	return fmt.Sprintf("truncated VLQ value at offset %d", e.Offset)
}

// VLQOverflowError reports a value that does not fit in 32 bits.
type VLQOverflowError struct {
	Offset int
}

func (e *VLQOverflowError) Error() string {
	return fmt.Sprintf("VLQ value overflows 32 bits at offset %d", e.Offset)
}

// SegmentError locates a decode failure inside the mappings string.
// Line is the zero-based generated line, Segment the zero-based segment
// index within that line and Start the byte offset where the segment begins.
type SegmentError struct {
	Line    int
	Segment int
	Start   int
	Err     error
}

func (e *SegmentError) Error() string {
	return fmt.Sprintf("mappings line %d, segment %d: %v", e.Line, e.Segment, e.Err)
}

func (e *SegmentError) Unwrap() error { return e.Err }

// Offset returns the byte offset in the mappings string of the failing
// character, or the segment start when the underlying error carries none.
func (e *SegmentError) Offset() int {
	var ic *InvalidVLQCharacterError
	if errors.As(e.Err, &ic) {
		return ic.Offset
	}
	var tr *TruncatedVLQError
	if errors.As(e.Err, &tr) {
		return tr.Offset
	}
	var of *VLQOverflowError
	if errors.As(e.Err, &of) {
		return of.Offset
	}
	return e.Start
}
