package sourcemap

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// supportedVersion is the only revision accepted in strict mode.
const supportedVersion = 3

// Cache is a decoded source map ready for lookups. It is immutable after
// Consume returns and safe for concurrent use.
type Cache struct {
	index
	sources    []string
	names      []string
	file       string
	sourceRoot string
}

// Option configures Consume.
type Option func(*options)

type options struct {
	logger        logrus.FieldLogger
	strictVersion bool
}

// WithLogger sets the logger used for decode statistics and failures.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithStrictVersion rejects documents whose "version" is not 3.
func WithStrictVersion() Option {
	return func(o *options) {
		o.strictVersion = true
	}
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Consume parses a source map document and builds a Cache. Any failure is
// returned as an error and no Cache is produced.
func Consume(text string, opts ...Option) (*Cache, error) {
	o := options{logger: discardLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	c, err := consume(text, o)
	if err != nil {
		o.logger.WithError(err).Debug("source map rejected")
		return nil, err
	}

	o.logger.WithFields(logrus.Fields{
		"mappings": c.Len(),
		"lines":    c.lines(),
		"sources":  len(c.sources),
		"names":    len(c.names),
	}).Debug("source map consumed")
	return c, nil
}

func consume(text string, o options) (*Cache, error) {
	if !gjson.Valid(text) {
		return nil, ErrInvalidJSON
	}

	root := gjson.Parse(text)
	if !root.IsObject() {
		return nil, &MalformedSourceMapError{Field: "(root)", Reason: "expected an object, got " + describe(root)}
	}

	if o.strictVersion {
		v := root.Get("version")
		if !v.Exists() {
			return nil, &MalformedSourceMapError{Field: "version", Reason: "missing"}
		}
		if v.Type != gjson.Number || v.Num != supportedVersion {
			return nil, &MalformedSourceMapError{
				Field:  "version",
				Reason: fmt.Sprintf("unsupported version %s, want %d", v.Raw, supportedVersion),
			}
		}
	}

	sources, err := stringTable(root, "sources", true)
	if err != nil {
		return nil, err
	}
	names, err := stringTable(root, "names", false)
	if err != nil {
		return nil, err
	}

	m := root.Get("mappings")
	if !m.Exists() {
		return nil, &MalformedSourceMapError{Field: "mappings", Reason: "missing"}
	}
	if m.Type != gjson.String {
		return nil, &MalformedSourceMapError{Field: "mappings", Reason: "expected a string, got " + describe(m)}
	}

	mappings, err := DecodeMappings(m.Str, sources, names)
	if err != nil {
		return nil, err
	}

	return &Cache{
		index:      newIndex(mappings),
		sources:    sources,
		names:      names,
		file:       optionalString(root, "file"),
		sourceRoot: optionalString(root, "sourceRoot"),
	}, nil
}

// stringTable extracts an array of strings. Null entries become "" when
// allowNull is set.
func stringTable(root gjson.Result, field string, allowNull bool) ([]string, error) {
	r := root.Get(field)
	if !r.Exists() {
		return nil, &MalformedSourceMapError{Field: field, Reason: "missing"}
	}
	if !r.IsArray() {
		return nil, &MalformedSourceMapError{Field: field, Reason: "expected an array of strings, got " + describe(r)}
	}

	elems := r.Array()
	table := make([]string, len(elems))
	for i, e := range elems {
		switch {
		case e.Type == gjson.String:
			table[i] = e.Str
		case e.Type == gjson.Null && allowNull:
		default:
			return nil, &MalformedSourceMapError{
				Field:  field,
				Reason: fmt.Sprintf("element %d: expected a string, got %s", i, describe(e)),
			}
		}
	}
	return table, nil
}

func optionalString(root gjson.Result, field string) string {
	r := root.Get(field)
	if r.Type != gjson.String {
		return ""
	}
	return r.Str
}

func describe(r gjson.Result) string {
	switch {
	case r.IsArray():
		return "array"
	case r.IsObject():
		return "object"
	case r.IsBool():
		return "boolean"
	}
	return strings.ToLower(r.Type.String())
}

// Lookup returns the best mapping for a zero-based generated line and
// column: the mapping with the greatest generated position not after the
// query, or the first mapping when the query precedes all of them. An
// empty cache yields a zero Mapping without source.
func (c *Cache) Lookup(line, column uint32) Mapping {
	return c.lookup(Position{Line: line, Column: column})
}

// LookupPosition is Lookup taking a Position.
func (c *Cache) LookupPosition(p Position) Mapping {
	return c.lookup(p)
}

// LookupExact returns the mapping at exactly line and column, if any.
func (c *Cache) LookupExact(line, column uint32) (Mapping, bool) {
	return c.lookupExact(Position{Line: line, Column: column})
}

// Len returns the number of mappings.
func (c *Cache) Len() int { return len(c.mappings) }

// Lines returns the number of generated lines that carry mappings.
func (c *Cache) Lines() int { return c.lines() }

// Mappings returns a copy of all mappings in generated order.
func (c *Cache) Mappings() []Mapping {
	out := make([]Mapping, len(c.mappings))
	copy(out, c.mappings)
	return out
}

// Sources returns a copy of the sources table.
func (c *Cache) Sources() []string {
	out := make([]string, len(c.sources))
	copy(out, c.sources)
	return out
}

// Names returns a copy of the names table.
func (c *Cache) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// File returns the optional "file" field.
func (c *Cache) File() string { return c.file }

// SourceRoot returns the optional "sourceRoot" field, uninterpreted.
func (c *Cache) SourceRoot() string { return c.sourceRoot }
