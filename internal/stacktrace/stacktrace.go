// Package stacktrace rewrites the file:line:column locations of a stack
// trace captured from generated code into original source locations.
//
// Traces use 1-based lines and columns (V8, SpiderMonkey and JavaScriptCore
// all print them that way); lookups convert to the zero-based positions of
// the source map and back.
package stacktrace

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/sirupsen/logrus"

	"github.com/HugoDaniel/sourcemapper/internal/sourcemap"
)

// framePattern matches "file:line:column" where file may be a path or a
// URL. The file part stops at whitespace, parentheses and '@' so that
// "at f (x.js:1:2)" and "f@x.js:1:2" both yield "x.js".
const framePattern = `(?<file>(?:[A-Za-z][\w+.-]*://)?[^\s()@]+?):(?<line>\d+):(?<column>\d+)(?!\d)`

// DefaultMatchTimeout bounds a single regex evaluation.
const DefaultMatchTimeout = 5 * time.Second

// Frame is a location found in a trace.
type Frame struct {
	File   string
	Line   int // 1-based
	Column int // 1-based

	// Name is the original symbol at the location, set only on resolved
	// frames that carry one.
	Name string
}

func (f Frame) String() string {
	return fmt.Sprintf("%s:%d:%d", f.File, f.Line, f.Column)
}

// Rewriter resolves trace frames against one source map.
type Rewriter struct {
	cache  *sourcemap.Cache
	file   string
	re     *regexp2.Regexp
	logger logrus.FieldLogger
}

// Option configures a Rewriter.
type Option func(*Rewriter)

// WithFile restricts rewriting to frames whose file is name or ends in
// "/"+name. By default the map's own "file" field is used, and every frame
// is rewritten when that is empty too.
func WithFile(name string) Option {
	return func(r *Rewriter) {
		r.file = name
	}
}

// WithLogger sets the logger for unresolved frames.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(r *Rewriter) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMatchTimeout overrides DefaultMatchTimeout.
func WithMatchTimeout(d time.Duration) Option {
	return func(r *Rewriter) {
		r.re.MatchTimeout = d
	}
}

// New creates a Rewriter for cache.
func New(cache *sourcemap.Cache, opts ...Option) (*Rewriter, error) {
	re, err := regexp2.Compile(framePattern, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("compiling frame pattern: %w", err)
	}
	re.MatchTimeout = DefaultMatchTimeout

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	r := &Rewriter{
		cache:  cache,
		file:   cache.File(),
		re:     re,
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

type frameMatch struct {
	frame      Frame
	start, end int // rune offsets
}

func (r *Rewriter) scan(trace string) ([]frameMatch, error) {
	var found []frameMatch

	match, err := r.re.FindStringMatch(trace)
	if err != nil {
		return nil, fmt.Errorf("matching frames: %w", err)
	}
	for match != nil {
		line, lerr := strconv.Atoi(match.GroupByName("line").String())
		column, cerr := strconv.Atoi(match.GroupByName("column").String())
		if lerr == nil && cerr == nil {
			found = append(found, frameMatch{
				frame: Frame{
					File:   match.GroupByName("file").String(),
					Line:   line,
					Column: column,
				},
				start: match.Index,
				end:   match.Index + match.Length,
			})
		}

		match, err = r.re.FindNextMatch(match)
		if err != nil {
			return nil, fmt.Errorf("matching frames: %w", err)
		}
	}
	return found, nil
}

// Frames returns every location in trace, resolved or not.
func (r *Rewriter) Frames(trace string) ([]Frame, error) {
	found, err := r.scan(trace)
	if err != nil {
		return nil, err
	}
	frames := make([]Frame, len(found))
	for i, fm := range found {
		frames[i] = fm.frame
	}
	return frames, nil
}

// Matches reports whether f belongs to the generated file of this map.
func (r *Rewriter) Matches(f Frame) bool {
	if r.file == "" {
		return true
	}
	return f.File == r.file || strings.HasSuffix(f.File, "/"+r.file)
}

// Resolve maps a generated frame to its original location. It returns
// false for frames of other files and for locations without a source.
func (r *Rewriter) Resolve(f Frame) (Frame, bool) {
	if !r.Matches(f) {
		return f, false
	}

	m := r.cache.Lookup(zeroBased(f.Line), zeroBased(f.Column))
	if !m.HasSource() || m.Source == "" {
		r.logger.WithField("frame", f.String()).Debug("frame has no original source")
		return f, false
	}

	return Frame{
		File:   m.Source,
		Line:   int(m.Original.Line) + 1,
		Column: int(m.Original.Column) + 1,
		Name:   m.Name,
	}, true
}

// Rewrite replaces each resolvable location in trace with its original
// location. Everything else in the trace is kept verbatim.
func (r *Rewriter) Rewrite(trace string) (string, error) {
	found, err := r.scan(trace)
	if err != nil {
		return "", err
	}
	if len(found) == 0 {
		return trace, nil
	}

	// regexp2 reports offsets in runes
	runes := []rune(trace)
	var sb strings.Builder
	sb.Grow(len(trace))

	last, resolved := 0, 0
	for _, fm := range found {
		orig, ok := r.Resolve(fm.frame)
		if !ok {
			continue
		}
		sb.WriteString(string(runes[last:fm.start]))
		sb.WriteString(orig.String())
		last = fm.end
		resolved++
	}
	sb.WriteString(string(runes[last:]))

	r.logger.WithFields(logrus.Fields{
		"frames":   len(found),
		"resolved": resolved,
	}).Debug("stack trace rewritten")
	return sb.String(), nil
}

func zeroBased(n int) uint32 {
	if n <= 1 {
		return 0
	}
	return uint32(n - 1)
}
