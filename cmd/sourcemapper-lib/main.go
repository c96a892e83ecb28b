// Package main provides a C-callable static library for source map lookups.
//
// This is built with -buildmode=c-archive to produce libsourcemapper.a
// that can be linked into C, Zig or Rust programs.
//
// Build:
//
//	CGO_ENABLED=1 go build -buildmode=c-archive -o build/libsourcemapper.a ./cmd/sourcemapper-lib
//
// Exported functions:
//
//	sourcemapper_cache_init(json) -> handle
//	sourcemapper_cache_free(handle) -> void
//	sourcemapper_find_mapping(handle, line, column) -> *sm_mapping or NULL
//	sourcemapper_mapping_free(mapping) -> void
//	sourcemapper_get_error(handle) -> *char or NULL
//	sourcemapper_error_free(err) -> void
//	sourcemapper_version() -> *char
//
// A handle always exists once sourcemapper_cache_init returns, even when
// the JSON did not decode; sourcemapper_get_error tells the two apart.
// Every free function ignores NULL, unknown, already freed and
// wrong-kind values.
package main

/*
#include <stdlib.h>
#include <stdint.h>

typedef struct {
	uint32_t generated_line;
	uint32_t generated_column;
	uint32_t original_line;
	uint32_t original_column;
	int32_t  source_index;
	int32_t  name_index;
	char    *source;
	char    *name;
} sm_mapping;
*/
import "C"
import (
	"errors"
	"sync"
	"unicode/utf8"
	"unsafe"

	"github.com/HugoDaniel/sourcemapper/internal/handles"
	"github.com/HugoDaniel/sourcemapper/pkg/api"
)

var (
	errNullJSON    = errors.New("source map JSON cannot be null")
	errInvalidUTF8 = errors.New("source map JSON is not valid UTF-8")
)

var results = handles.New[*api.Result]()

// C allocations handed out, one set per kind, so a free of an unknown,
// already freed or wrong-kind pointer is ignored.
var (
	liveMappings = newAllocSet()
	liveErrors   = newAllocSet()
)

// sourcemapper_cache_init decodes a NUL-terminated source map document.
//
// Returns a non-zero handle that must be released with
// sourcemapper_cache_free, whether or not decoding succeeded.
//
//export sourcemapper_cache_init
func sourcemapper_cache_init(json *C.char) C.uint64_t {
	var r *api.Result
	switch {
	case json == nil:
		r = api.Failed(errNullJSON)
	default:
		text := C.GoString(json)
		if !utf8.ValidString(text) {
			r = api.Failed(errInvalidUTF8)
		} else {
			r = api.Load(text)
		}
	}
	return C.uint64_t(results.Put(r))
}

// sourcemapper_cache_free releases a handle.
//
//export sourcemapper_cache_free
func sourcemapper_cache_free(handle C.uint64_t) {
	results.Release(uint64(handle))
}

// sourcemapper_find_mapping resolves a zero-based generated position.
//
// Returns NULL for unknown handles and failed loads. The result must be
// released with sourcemapper_mapping_free.
//
//export sourcemapper_find_mapping
func sourcemapper_find_mapping(handle C.uint64_t, line, column C.uint32_t) *C.sm_mapping {
	r, ok := results.Get(uint64(handle))
	if !ok {
		return nil
	}
	m, err := r.Lookup(uint32(line), uint32(column))
	if err != nil {
		return nil
	}

	out := (*C.sm_mapping)(C.malloc(C.sizeof_sm_mapping))
	out.generated_line = C.uint32_t(m.GeneratedLine)
	out.generated_column = C.uint32_t(m.GeneratedColumn)
	out.original_line = C.uint32_t(m.OriginalLine)
	out.original_column = C.uint32_t(m.OriginalColumn)
	out.source_index = C.int32_t(m.SourceIndex)
	out.name_index = C.int32_t(m.NameIndex)
	out.source = C.CString(m.Source)
	out.name = C.CString(m.Name)

	liveMappings.add(unsafe.Pointer(out))
	return out
}

// sourcemapper_mapping_free releases a mapping and its strings.
//
//export sourcemapper_mapping_free
func sourcemapper_mapping_free(mapping *C.sm_mapping) {
	if mapping == nil || !liveMappings.remove(unsafe.Pointer(mapping)) {
		return
	}
	C.free(unsafe.Pointer(mapping.source))
	C.free(unsafe.Pointer(mapping.name))
	C.free(unsafe.Pointer(mapping))
}

// sourcemapper_get_error returns the decode error of a handle.
//
// Returns NULL when the handle loaded successfully or is unknown. A
// non-NULL result must be released with sourcemapper_error_free.
//
//export sourcemapper_get_error
func sourcemapper_get_error(handle C.uint64_t) *C.char {
	r, ok := results.Get(uint64(handle))
	if !ok || r.OK() {
		return nil
	}
	msg := C.CString(r.ErrorMessage())
	liveErrors.add(unsafe.Pointer(msg))
	return msg
}

// sourcemapper_error_free releases a string from sourcemapper_get_error.
//
//export sourcemapper_error_free
func sourcemapper_error_free(err *C.char) {
	if err == nil || !liveErrors.remove(unsafe.Pointer(err)) {
		return
	}
	C.free(unsafe.Pointer(err))
}

var (
	versionOnce sync.Once
	versionStr  *C.char
)

// sourcemapper_version returns the library version string.
// The returned pointer is owned by the library and must NOT be freed.
//
//export sourcemapper_version
func sourcemapper_version() *C.char {
	versionOnce.Do(func() {
		versionStr = C.CString(api.Version)
	})
	return versionStr
}

// Required for c-archive build mode
func main() {}
