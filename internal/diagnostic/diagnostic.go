// Package diagnostic renders source map decode failures and lint findings
// as human-readable reports.
//
// Positions inside "mappings" are reported as generated line and byte
// column within that line, both 1-based, followed by an excerpt of the
// failing line with a caret under the offending character.
package diagnostic

import (
	"errors"
	"fmt"
	"strings"

	"github.com/HugoDaniel/sourcemapper/internal/sourcemap"
)

// Severity represents the severity level of a diagnostic.
type Severity uint8

const (
	// Error prevents the source map from loading.
	Error Severity = iota
	// Warning is a non-blocking issue.
	Warning
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "unknown"
	}
}

// Position represents a position in the mappings string.
type Position struct {
	Offset int // Byte offset (0-based)
	Line   int // Generated line (1-based)
	Column int // Byte column within the line (1-based)
}

// Range represents a range in the mappings string.
type Range struct {
	Start Position
	End   Position
}

// IsZero reports whether the range points nowhere.
func (r Range) IsZero() bool {
	return r.Start.Line == 0
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	Severity Severity
	Code     Code   // Error code (e.g., "E0100")
	Message  string // Human-readable message
	Range    Range  // Location in mappings; zero for document-level issues
}

// Error returns a formatted error string.
func (d *Diagnostic) Error() string {
	if d.Range.IsZero() {
		return fmt.Sprintf("%s[%s]: %s", d.Severity, d.Code, d.Message)
	}
	return fmt.Sprintf("%d:%d: %s[%s]: %s", d.Range.Start.Line, d.Range.Start.Column, d.Severity, d.Code, d.Message)
}

// Code defines standard diagnostic codes.
type Code string

const (
	// Document errors (E00xx)
	CodeInvalidJSON    Code = "E0001"
	CodeMalformedField Code = "E0002"

	// Mappings errors (E01xx)
	CodeInvalidVLQCharacter Code = "E0100"
	CodeTruncatedVLQ        Code = "E0101"
	CodeVLQOverflow         Code = "E0102"
	CodeMalformedSegment    Code = "E0103"

	// Lint warnings (W00xx)
	CodeUnresolvedSource Code = "W0001"
	CodeUnresolvedName   Code = "W0002"
	CodeNoMappings       Code = "W0003"
)

// List collects diagnostics for one mappings string.
type List struct {
	diagnostics []Diagnostic
	mappings    string
	lineStarts  []int
	hasErrors   bool
}

// NewList creates a diagnostic list for the given mappings string.
func NewList(mappings string) *List {
	l := &List{mappings: mappings, lineStarts: []int{0}}
	for i := 0; i < len(mappings); i++ {
		if mappings[i] == ';' {
			l.lineStarts = append(l.lineStarts, i+1)
		}
	}
	return l
}

// Add adds a diagnostic to the list.
func (l *List) Add(d Diagnostic) {
	l.diagnostics = append(l.diagnostics, d)
	if d.Severity == Error {
		l.hasErrors = true
	}
}

// AddError records a decode error returned by sourcemap.Consume or
// sourcemap.DecodeMappings. Errors located inside mappings get a range.
func (l *List) AddError(err error) {
	d := Diagnostic{
		Severity: Error,
		Code:     codeFor(err),
		Message:  err.Error(),
	}

	var seg *sourcemap.SegmentError
	if errors.As(err, &seg) {
		d.Message = seg.Err.Error()
		start := seg.Offset()
		end := start + 1
		if start == seg.Start && d.Code == CodeMalformedSegment {
			end = l.segmentEnd(start)
		}
		d.Range = l.MakeRange(start, end)
	}
	l.Add(d)
}

// AddWarning adds a document-level warning.
func (l *List) AddWarning(code Code, message string) {
	l.Add(Diagnostic{Severity: Warning, Code: code, Message: message})
}

func codeFor(err error) Code {
	var (
		ic *sourcemap.InvalidVLQCharacterError
		tr *sourcemap.TruncatedVLQError
		of *sourcemap.VLQOverflowError
		ms *sourcemap.MalformedSourceMapError
		sg *sourcemap.SegmentError
	)
	switch {
	case errors.Is(err, sourcemap.ErrInvalidJSON):
		return CodeInvalidJSON
	case errors.As(err, &ic):
		return CodeInvalidVLQCharacter
	case errors.As(err, &tr):
		return CodeTruncatedVLQ
	case errors.As(err, &of):
		return CodeVLQOverflow
	case errors.As(err, &sg):
		return CodeMalformedSegment
	case errors.As(err, &ms):
		return CodeMalformedField
	}
	return CodeMalformedField
}

// segmentEnd returns the offset just past the segment starting at start.
func (l *List) segmentEnd(start int) int {
	end := start
	for end < len(l.mappings) && l.mappings[end] != ',' && l.mappings[end] != ';' {
		end++
	}
	if end == start {
		end++
	}
	return end
}

// MakePosition converts a byte offset in mappings to a Position.
func (l *List) MakePosition(offset int) Position {
	line := 0
	for line+1 < len(l.lineStarts) && l.lineStarts[line+1] <= offset {
		line++
	}
	return Position{
		Offset: offset,
		Line:   line + 1,
		Column: offset - l.lineStarts[line] + 1,
	}
}

// MakeRange converts byte offsets to a Range.
func (l *List) MakeRange(start, end int) Range {
	return Range{
		Start: l.MakePosition(start),
		End:   l.MakePosition(end),
	}
}

// HasErrors returns true if there are any error-level diagnostics.
func (l *List) HasErrors() bool {
	return l.hasErrors
}

// Diagnostics returns all collected diagnostics.
func (l *List) Diagnostics() []Diagnostic {
	return l.diagnostics
}

// ErrorCount returns the number of error-level diagnostics.
func (l *List) ErrorCount() int {
	count := 0
	for _, d := range l.diagnostics {
		if d.Severity == Error {
			count++
		}
	}
	return count
}

// WarningCount returns the number of warnings.
func (l *List) WarningCount() int {
	return len(l.diagnostics) - l.ErrorCount()
}

// Format formats all diagnostics as a human-readable string.
func (l *List) Format() string {
	if len(l.diagnostics) == 0 {
		return ""
	}

	var sb strings.Builder
	for i := range l.diagnostics {
		sb.WriteString(l.FormatDiagnostic(&l.diagnostics[i]))
	}
	return sb.String()
}

// excerptRadius is how many bytes of context are shown on each side of
// the caret.
const excerptRadius = 32

// FormatDiagnostic formats a single diagnostic with mappings context.
func (l *List) FormatDiagnostic(d *Diagnostic) string {
	var sb strings.Builder

	sb.WriteString(d.Error())
	sb.WriteByte('\n')

	if d.Range.IsZero() {
		return sb.String()
	}

	lineIdx := d.Range.Start.Line - 1
	lineStart := l.lineStarts[lineIdx]
	lineEnd := len(l.mappings)
	if lineIdx+1 < len(l.lineStarts) {
		lineEnd = l.lineStarts[lineIdx+1] - 1
	}

	from := max(lineStart, d.Range.Start.Offset-excerptRadius)
	to := min(lineEnd, d.Range.Start.Offset+excerptRadius)

	prefix, suffix := "", ""
	if from > lineStart {
		prefix = "..."
	}
	if to < lineEnd {
		suffix = "..."
	}

	sb.WriteString("    ")
	sb.WriteString(prefix)
	sb.WriteString(l.mappings[from:to])
	sb.WriteString(suffix)
	sb.WriteByte('\n')

	caret := strings.Repeat(" ", 4+len(prefix)+d.Range.Start.Offset-from) + "^"
	if d.Range.End.Line == d.Range.Start.Line && d.Range.End.Column > d.Range.Start.Column+1 {
		width := min(d.Range.End.Offset, to) - d.Range.Start.Offset - 1
		if width > 0 {
			caret += strings.Repeat("~", width)
		}
	}
	sb.WriteString(caret)
	sb.WriteByte('\n')

	return sb.String()
}

// Lint reports mappings whose source or name index falls outside the
// tables, and maps without any mappings. These are accepted by the
// decoder but usually point at a broken build step.
func Lint(l *List, c *sourcemap.Cache) {
	if c.Len() == 0 {
		l.AddWarning(CodeNoMappings, "source map has no mappings")
		return
	}

	sources, names := len(c.Sources()), len(c.Names())
	for _, m := range c.Mappings() {
		if m.HasSource() && m.SourceIndex >= sources {
			l.AddWarning(CodeUnresolvedSource, fmt.Sprintf(
				"generated %s: source index %d out of range (%d sources)", m.Generated, m.SourceIndex, sources))
		}
		if m.HasName() && m.NameIndex >= names {
			l.AddWarning(CodeUnresolvedName, fmt.Sprintf(
				"generated %s: name index %d out of range (%d names)", m.Generated, m.NameIndex, names))
		}
	}
}
