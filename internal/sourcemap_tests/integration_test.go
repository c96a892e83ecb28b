package sourcemap_tests

import (
	"encoding/json"
	"math/rand"
	"strings"
	"testing"

	"github.com/HugoDaniel/sourcemapper/internal/diagnostic"
	"github.com/HugoDaniel/sourcemapper/internal/sourcemap"
	"github.com/HugoDaniel/sourcemapper/pkg/api"
)

// ============================================================================
// Generated maps
// ============================================================================

type segment struct {
	line, column        int
	fields              int
	source, oLine, oCol int
	name                int
}

// buildMap encodes segs, which must be ordered by line, into a source map
// document with the given tables.
func buildMap(t *testing.T, segs []segment, sources, names []string) string {
	t.Helper()

	var b strings.Builder
	var src, oLine, oCol, name int
	line, col := 0, 0
	first := true
	for _, s := range segs {
		for line < s.line {
			b.WriteByte(';')
			line++
			col = 0
			first = true
		}
		if !first {
			b.WriteByte(',')
		}
		first = false

		b.WriteString(sourcemap.EncodeVLQ(s.column - col))
		col = s.column
		if s.fields >= 4 {
			b.WriteString(sourcemap.EncodeVLQ(s.source - src))
			b.WriteString(sourcemap.EncodeVLQ(s.oLine - oLine))
			b.WriteString(sourcemap.EncodeVLQ(s.oCol - oCol))
			src, oLine, oCol = s.source, s.oLine, s.oCol
		}
		if s.fields == 5 {
			b.WriteString(sourcemap.EncodeVLQ(s.name - name))
			name = s.name
		}
	}

	doc, err := json.Marshal(map[string]interface{}{
		"version":  3,
		"file":     "bundle.js",
		"sources":  sources,
		"names":    names,
		"mappings": b.String(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return string(doc)
}

func randomSegments(rng *rand.Rand, lines int) []segment {
	var segs []segment
	for line := 0; line < lines; line++ {
		col := 0
		for n := rng.Intn(6); n > 0; n-- {
			col += rng.Intn(10)
			s := segment{line: line, column: col, fields: []int{1, 4, 5}[rng.Intn(3)]}
			if s.fields >= 4 {
				s.source = rng.Intn(3)
				s.oLine = rng.Intn(50)
				s.oCol = rng.Intn(80)
			}
			if s.fields == 5 {
				s.name = rng.Intn(4)
			}
			segs = append(segs, s)
		}
	}
	return segs
}

// nearest is the reference lookup: the first segment with the greatest
// generated position not after (line, col), else the first segment.
func nearest(segs []segment, line, col int) segment {
	best := -1
	for i, s := range segs {
		if s.line > line || (s.line == line && s.column > col) {
			continue
		}
		if best < 0 || s.line > segs[best].line || (s.line == segs[best].line && s.column > segs[best].column) {
			best = i
		}
	}
	if best < 0 {
		return segs[0]
	}
	return segs[best]
}

// ============================================================================
// Full Integration Tests
// ============================================================================

func TestLookupMatchesReference(t *testing.T) {
	sources := []string{"a.ts", "b.ts", "c.ts"}
	names := []string{"alpha", "beta", "gamma", "delta"}

	for seed := int64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		segs := randomSegments(rng, 25)
		if len(segs) == 0 {
			continue
		}

		cache, err := api.Consume(buildMap(t, segs, sources, names))
		if err != nil {
			t.Fatalf("seed %d: unexpected error: %v", seed, err)
		}
		if cache.Len() != len(segs) {
			t.Fatalf("seed %d: expected %d mappings, got %d", seed, len(segs), cache.Len())
		}

		for line := 0; line < 27; line++ {
			for col := 0; col < 60; col += 3 {
				want := nearest(segs, line, col)
				got := cache.Lookup(uint32(line), uint32(col))

				if int(got.GeneratedLine) != want.line || int(got.GeneratedColumn) != want.column {
					t.Fatalf("seed %d: lookup(%d, %d) = %d:%d, want %d:%d",
						seed, line, col, got.GeneratedLine, got.GeneratedColumn, want.line, want.column)
				}
				if want.fields == 1 {
					if got.HasSource() {
						t.Fatalf("seed %d: lookup(%d, %d) has unexpected source %+v", seed, line, col, got)
					}
					continue
				}
				if got.Source != sources[want.source] || int(got.OriginalLine) != want.oLine || int(got.OriginalColumn) != want.oCol {
					t.Fatalf("seed %d: lookup(%d, %d) = %+v, want %+v", seed, line, col, got, want)
				}
				if want.fields == 5 && got.Name != names[want.name] {
					t.Fatalf("seed %d: lookup(%d, %d) name = %q, want %q", seed, line, col, got.Name, names[want.name])
				}
			}
		}
	}
}

func TestLookupExactAgreesWithLookup(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	segs := randomSegments(rng, 10)
	cache, err := api.Consume(buildMap(t, segs, []string{"a", "b", "c"}, []string{"w", "x", "y", "z"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, s := range segs {
		m, ok := cache.LookupExact(uint32(s.line), uint32(s.column))
		if !ok {
			t.Fatalf("expected exact mapping at %d:%d", s.line, s.column)
		}
		if m != cache.Lookup(uint32(s.line), uint32(s.column)) {
			t.Errorf("exact and nearest disagree at %d:%d", s.line, s.column)
		}
	}
}

func TestOutOfRangeIndexesAreLinted(t *testing.T) {
	segs := []segment{
		{line: 0, column: 0, fields: 4, source: 0},
		{line: 1, column: 4, fields: 5, source: 2, name: 1},
	}
	text := buildMap(t, segs, []string{"only.ts"}, []string{})

	cache, err := sourcemap.Consume(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m := cache.Lookup(1, 4); m.Source != "" || m.SourceIndex != 2 {
		t.Errorf("expected unresolved source index 2, got %+v", m)
	}

	var doc struct {
		Mappings string `json:"mappings"`
	}
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		t.Fatal(err)
	}
	list := diagnostic.NewList(doc.Mappings)
	diagnostic.Lint(list, cache)

	if list.HasErrors() {
		t.Errorf("expected warnings only, got %v", list.Diagnostics())
	}
	if list.WarningCount() != 2 {
		t.Errorf("expected 2 warnings (source and name), got %d", list.WarningCount())
	}
}

func TestCorruptedMapsFail(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	segs := randomSegments(rng, 5)
	valid := buildMap(t, segs, []string{"a", "b", "c"}, []string{"w", "x", "y", "z"})

	tests := []struct {
		name string
		from string
		to   string
	}{
		{"invalid character", `"mappings":"`, `"mappings":"!`},
		{"truncated value", `"mappings":"`, `"mappings":"g,`},
		{"two fields", `"mappings":"`, `"mappings":"AA,`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := api.Load(strings.Replace(valid, tt.from, tt.to, 1))
			if r.OK() {
				t.Fatal("expected failed load")
			}
			if _, err := r.Lookup(0, 0); err == nil {
				t.Error("expected lookup on failed load to error")
			}
		})
	}
}
