package api

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

const testMap = `{
	"version": 3,
	"file": "min.js",
	"sources": ["a.js", "b.js"],
	"names": ["foo", "bar"],
	"mappings": "AAAA,KAAC,IAAE;;GCCCC,YAAW;AACRD"
}`

func TestConsume(t *testing.T) {
	cache, err := Consume(testMap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cache.Len() != 6 {
		t.Errorf("expected 6 mappings, got %d", cache.Len())
	}
	if cache.File() != "min.js" {
		t.Errorf("expected file 'min.js', got '%s'", cache.File())
	}

	m := cache.Lookup(0, 7)
	if m.GeneratedColumn != 5 {
		t.Errorf("expected nearest generated column 5, got %d", m.GeneratedColumn)
	}
	if m.Source != "a.js" || m.OriginalLine != 0 || m.OriginalColumn != 1 {
		t.Errorf("unexpected mapping: %+v", m)
	}
	if m.HasName() {
		t.Error("expected mapping without name")
	}
}

func TestConsumeWithNames(t *testing.T) {
	cache, err := Consume(testMap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m := cache.Lookup(2, 3)
	if m.Source != "b.js" {
		t.Errorf("expected source 'b.js', got '%s'", m.Source)
	}
	if m.Name != "bar" {
		t.Errorf("expected name 'bar', got '%s'", m.Name)
	}
	if m.SourceIndex != 1 || m.NameIndex != 1 {
		t.Errorf("expected indexes 1/1, got %d/%d", m.SourceIndex, m.NameIndex)
	}

	m, ok := cache.LookupExact(3, 0)
	if !ok {
		t.Fatal("expected exact mapping at 3:0")
	}
	if m.Name != "foo" {
		t.Errorf("expected name 'foo', got '%s'", m.Name)
	}

	if _, ok := cache.LookupExact(3, 1); ok {
		t.Error("expected no exact mapping at 3:1")
	}
}

func TestConsumeEmptyMappings(t *testing.T) {
	cache, err := Consume(`{"version":3,"sources":[],"names":[],"mappings":""}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m := cache.Lookup(10, 10)
	if m.HasSource() || m.Source != "" || m.Name != "" {
		t.Errorf("expected mapping without source, got %+v", m)
	}
}

func TestConsumeErrors(t *testing.T) {
	_, err := Consume("{not json")
	if !errors.Is(err, ErrInvalidJSON) {
		t.Errorf("expected ErrInvalidJSON, got %v", err)
	}

	_, err = Consume(`{"sources":[],"names":[]}`)
	var malformed *MalformedSourceMapError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedSourceMapError, got %v", err)
	}
	if malformed.Field != "mappings" {
		t.Errorf("expected field 'mappings', got '%s'", malformed.Field)
	}

	_, err = Consume(`{"sources":["a.js"],"names":[],"mappings":"AA!A"}`)
	var badChar *InvalidVLQCharacterError
	if !errors.As(err, &badChar) {
		t.Fatalf("expected InvalidVLQCharacterError, got %v", err)
	}
	if badChar.Char != '!' || badChar.Offset != 2 {
		t.Errorf("unexpected error details: %+v", badChar)
	}

	_, err = Consume(`{"sources":["a.js"],"names":[],"mappings":"AAg"}`)
	var truncated *TruncatedVLQError
	if !errors.As(err, &truncated) {
		t.Fatalf("expected TruncatedVLQError, got %v", err)
	}
}

func TestConsumeStrictVersion(t *testing.T) {
	doc := `{"version":4,"sources":[],"names":[],"mappings":""}`

	if _, err := Consume(doc); err != nil {
		t.Errorf("expected version to be ignored by default, got %v", err)
	}

	_, err := ConsumeWithOptions(doc, Options{StrictVersion: true})
	if err == nil {
		t.Fatal("expected strict version error")
	}
	if !strings.Contains(err.Error(), "unsupported version 4") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestMappings(t *testing.T) {
	cache, err := Consume(testMap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ms := cache.Mappings()
	if len(ms) != cache.Len() {
		t.Fatalf("expected %d mappings, got %d", cache.Len(), len(ms))
	}
	for i := 1; i < len(ms); i++ {
		prev, cur := ms[i-1], ms[i]
		if cur.GeneratedLine < prev.GeneratedLine ||
			(cur.GeneratedLine == prev.GeneratedLine && cur.GeneratedColumn < prev.GeneratedColumn) {
			t.Errorf("mappings out of order at %d: %+v before %+v", i, prev, cur)
		}
	}

	sources := cache.Sources()
	sources[0] = "mutated"
	if cache.Sources()[0] != "a.js" {
		t.Error("expected Sources to return a copy")
	}
	if len(cache.Names()) != 2 {
		t.Errorf("expected 2 names, got %d", len(cache.Names()))
	}
}

// Tests for load results

func TestLoad(t *testing.T) {
	r := Load(testMap)
	if !r.OK() {
		t.Fatalf("unexpected error: %s", r.ErrorMessage())
	}
	if r.ErrorMessage() != "" {
		t.Errorf("expected empty error message, got '%s'", r.ErrorMessage())
	}

	m, err := r.Lookup(0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Source != "a.js" {
		t.Errorf("expected source 'a.js', got '%s'", m.Source)
	}
}

func TestLoadFailed(t *testing.T) {
	r := Load(`{"sources":[],"names":[],"mappings":"A,g"}`)
	if r.OK() {
		t.Fatal("expected failed load")
	}
	if r.ErrorMessage() == "" {
		t.Error("expected an error message")
	}

	_, err := r.Lookup(0, 0)
	if !errors.Is(err, ErrFailedLoad) {
		t.Errorf("expected ErrFailedLoad, got %v", err)
	}

	var truncated *TruncatedVLQError
	if !errors.As(err, &truncated) {
		t.Errorf("expected wrapped decode error, got %v", err)
	}

	if _, err := r.Cache(); !errors.Is(err, ErrFailedLoad) {
		t.Errorf("expected ErrFailedLoad from Cache, got %v", err)
	}
}

func TestFailed(t *testing.T) {
	r := Failed(errors.New("source map JSON cannot be null"))
	if r.OK() {
		t.Fatal("expected failed result")
	}
	if r.ErrorMessage() != "source map JSON cannot be null" {
		t.Errorf("unexpected message '%s'", r.ErrorMessage())
	}
}

func TestConcurrentLookup(t *testing.T) {
	cache, err := Consume(testMap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := cache.Lookup(2, 20)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if got := cache.Lookup(2, 20); got != want {
					t.Errorf("concurrent lookup mismatch: %+v vs %+v", got, want)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestRewriteTrace(t *testing.T) {
	cache, err := Consume(testMap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := cache.RewriteTrace("at bar (min.js:3:5)\nat lib.js:1:1\n", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "at bar (b.js:2:5)\nat lib.js:1:1\n"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	got, err = cache.RewriteTrace("at bundle.js:1:1", "bundle.js")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "a.js:1:1") {
		t.Errorf("expected rewritten location, got %q", got)
	}
}
