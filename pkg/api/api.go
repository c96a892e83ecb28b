// Package api provides the public API for decoding source maps and
// resolving generated positions back to original ones.
//
// This package is intended for programmatic use. For CLI usage, see
// cmd/sourcemapper; the C and WebAssembly adapters live in
// cmd/sourcemapper-lib and cmd/sourcemapper-wasm.
package api

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/HugoDaniel/sourcemapper/internal/sourcemap"
	"github.com/HugoDaniel/sourcemapper/internal/stacktrace"
)

// Version is the library version reported by every adapter.
const Version = "0.1.0"

// ErrFailedLoad is returned when a Result that failed to load is used.
var ErrFailedLoad = errors.New("source map failed to load")

// Decode errors. Use errors.Is and errors.As to tell them apart.
type (
	MalformedSourceMapError  = sourcemap.MalformedSourceMapError
	InvalidVLQCharacterError = sourcemap.InvalidVLQCharacterError
	TruncatedVLQError        = sourcemap.TruncatedVLQError
	VLQOverflowError         = sourcemap.VLQOverflowError
	SegmentError             = sourcemap.SegmentError
)

// ErrInvalidJSON reports a document that is not well-formed JSON.
var ErrInvalidJSON = sourcemap.ErrInvalidJSON

// Options controls decoding.
type Options struct {
	// StrictVersion rejects documents whose "version" is not 3.
	// By default the field is ignored.
	StrictVersion bool

	// Logger receives decode statistics at debug level and failures.
	// Nil discards them.
	Logger logrus.FieldLogger
}

// Mapping is the result of a lookup. Lines and columns are zero-based;
// columns count UTF-16 code units.
type Mapping struct {
	GeneratedLine   uint32 `json:"generatedLine"`
	GeneratedColumn uint32 `json:"generatedColumn"`
	OriginalLine    uint32 `json:"originalLine"`
	OriginalColumn  uint32 `json:"originalColumn"`

	// Source is the resolved source path, empty when the mapping has no
	// source or its index is outside the sources table.
	Source string `json:"source"`

	// Name is the resolved symbol name, empty when absent.
	Name string `json:"name"`

	// SourceIndex and NameIndex are the raw table indexes, -1 when the
	// segment does not carry them.
	SourceIndex int `json:"sourceIndex"`
	NameIndex   int `json:"nameIndex"`
}

// HasSource reports whether the mapping references a source.
func (m Mapping) HasSource() bool { return m.SourceIndex >= 0 }

// HasName reports whether the mapping references a name.
func (m Mapping) HasName() bool { return m.NameIndex >= 0 }

func convertMapping(m sourcemap.Mapping) Mapping {
	return Mapping{
		GeneratedLine:   m.Generated.Line,
		GeneratedColumn: m.Generated.Column,
		OriginalLine:    m.Original.Line,
		OriginalColumn:  m.Original.Column,
		Source:          m.Source,
		Name:            m.Name,
		SourceIndex:     m.SourceIndex,
		NameIndex:       m.NameIndex,
	}
}

// Cache is a decoded source map. It is immutable and safe for concurrent
// lookups.
type Cache struct {
	inner *sourcemap.Cache
}

// Consume decodes a source map document with default options.
func Consume(text string) (*Cache, error) {
	return ConsumeWithOptions(text, Options{})
}

// ConsumeWithOptions decodes a source map document.
func ConsumeWithOptions(text string, opts Options) (*Cache, error) {
	var sopts []sourcemap.Option
	if opts.Logger != nil {
		sopts = append(sopts, sourcemap.WithLogger(opts.Logger))
	}
	if opts.StrictVersion {
		sopts = append(sopts, sourcemap.WithStrictVersion())
	}

	inner, err := sourcemap.Consume(text, sopts...)
	if err != nil {
		return nil, err
	}
	return &Cache{inner: inner}, nil
}

// Lookup returns the mapping with the greatest generated position not
// after (line, column). Queries before the first mapping return the first
// mapping; an empty cache returns a Mapping without source.
func (c *Cache) Lookup(line, column uint32) Mapping {
	return convertMapping(c.inner.Lookup(line, column))
}

// LookupExact returns the mapping starting exactly at (line, column).
func (c *Cache) LookupExact(line, column uint32) (Mapping, bool) {
	m, ok := c.inner.LookupExact(line, column)
	if !ok {
		return Mapping{}, false
	}
	return convertMapping(m), true
}

// Mappings returns every mapping in generated order.
func (c *Cache) Mappings() []Mapping {
	ms := c.inner.Mappings()
	result := make([]Mapping, len(ms))
	for i, m := range ms {
		result[i] = convertMapping(m)
	}
	return result
}

// Len returns the number of mappings.
func (c *Cache) Len() int { return c.inner.Len() }

// Sources returns a copy of the sources table.
func (c *Cache) Sources() []string { return c.inner.Sources() }

// Names returns a copy of the names table.
func (c *Cache) Names() []string { return c.inner.Names() }

// File returns the optional "file" field.
func (c *Cache) File() string { return c.inner.File() }

// SourceRoot returns the optional "sourceRoot" field.
func (c *Cache) SourceRoot() string { return c.inner.SourceRoot() }

// RewriteTrace replaces the 1-based file:line:column locations of trace
// that point into file with their original locations. An empty file
// matches the map's own "file" field.
func (c *Cache) RewriteTrace(trace, file string) (string, error) {
	var opts []stacktrace.Option
	if file != "" {
		opts = append(opts, stacktrace.WithFile(file))
	}
	rw, err := stacktrace.New(c.inner, opts...)
	if err != nil {
		return "", err
	}
	return rw.Rewrite(trace)
}

// ----------------------------------------------------------------------------
// Load results
// ----------------------------------------------------------------------------

// Result is the outcome of Load. It always exists, whether or not the
// document decoded, so adapters can hand it out as a single handle.
type Result struct {
	cache *Cache
	err   error
}

// Load decodes text with default options and never fails outright.
func Load(text string) *Result {
	return LoadWithOptions(text, Options{})
}

// LoadWithOptions is Load with custom options.
func LoadWithOptions(text string, opts Options) *Result {
	cache, err := ConsumeWithOptions(text, opts)
	return &Result{cache: cache, err: err}
}

// Failed returns a Result that carries err without decoding anything.
func Failed(err error) *Result {
	return &Result{err: err}
}

// OK reports whether the document decoded.
func (r *Result) OK() bool { return r.err == nil }

// Err returns the decode error, or nil.
func (r *Result) Err() error { return r.err }

// ErrorMessage returns the decode error text, or "" on success.
func (r *Result) ErrorMessage() string {
	if r.err == nil {
		return ""
	}
	return r.err.Error()
}

// Cache returns the decoded cache. A failed result returns an error
// wrapping both ErrFailedLoad and the decode error.
func (r *Result) Cache() (*Cache, error) {
	if r.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedLoad, r.err)
	}
	return r.cache, nil
}

// Lookup resolves a position on a successful result.
func (r *Result) Lookup(line, column uint32) (Mapping, error) {
	c, err := r.Cache()
	if err != nil {
		return Mapping{}, err
	}
	return c.Lookup(line, column), nil
}
