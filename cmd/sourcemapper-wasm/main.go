//go:build js && wasm

// Command sourcemapper-wasm is the WebAssembly build of the source map
// decoder. It exposes decoding and lookup to JavaScript via syscall/js.
//
// Decoded maps live in a handle table on the Go side; JavaScript holds
// plain numbers and must call free when done.
package main

import (
	"encoding/json"
	"math"
	"syscall/js"

	"github.com/HugoDaniel/sourcemapper/internal/handles"
	"github.com/HugoDaniel/sourcemapper/pkg/api"
)

var results = handles.New[*api.Result]()

// jsOptions mirrors the JavaScript options object.
type jsOptions struct {
	StrictVersion *bool `json:"strictVersion"`
}

func main() {
	js.Global().Set("__sourcemapper", js.ValueOf(map[string]interface{}{
		"consume":      js.FuncOf(consumeJS),
		"lookup":       js.FuncOf(lookupJS),
		"rewriteTrace": js.FuncOf(rewriteTraceJS),
		"free":         js.FuncOf(freeJS),
		"version":      api.Version,
	}))

	// Keep the Go runtime alive
	select {}
}

// consumeJS decodes a source map.
// Signature: __sourcemapper.consume(json: string, options?: object) => {handle} | {handle, error}
//
// A handle is returned even on failure so callers can release it the
// same way in both cases.
func consumeJS(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].IsNull() || args[0].IsUndefined() {
		return makeError("source map JSON cannot be null")
	}
	if args[0].Type() != js.TypeString {
		return makeError("source map JSON must be a string")
	}

	var opts api.Options
	if len(args) > 1 && !args[1].IsUndefined() && !args[1].IsNull() {
		if jsOpts := parseOptions(args[1]); jsOpts.StrictVersion != nil {
			opts.StrictVersion = *jsOpts.StrictVersion
		}
	}

	r := api.LoadWithOptions(args[0].String(), opts)
	h := results.Put(r)
	if !r.OK() {
		return map[string]interface{}{
			"handle": float64(h),
			"error":  r.ErrorMessage(),
		}
	}

	c, _ := r.Cache()
	return map[string]interface{}{
		"handle":   float64(h),
		"mappings": c.Len(),
		"file":     c.File(),
	}
}

// lookupJS resolves a zero-based generated position.
// Signature: __sourcemapper.lookup(handle: number, line: number, column: number) => object
func lookupJS(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return makeError("lookup requires 3 arguments (handle, line, column)")
	}
	r, errMsg := resultArg(args[0])
	if errMsg != "" {
		return makeError(errMsg)
	}
	if args[1].Type() != js.TypeNumber || args[2].Type() != js.TypeNumber {
		return makeError("line and column must be numbers")
	}
	line, column := args[1].Float(), args[2].Float()
	if line < 0 || column < 0 || line > math.MaxUint32 || column > math.MaxUint32 {
		return makeError("line and column must be between 0 and 4294967295")
	}

	m, err := r.Lookup(uint32(line), uint32(column))
	if err != nil {
		return makeError(err.Error())
	}
	return map[string]interface{}{
		"generatedLine":   m.GeneratedLine,
		"generatedColumn": m.GeneratedColumn,
		"originalLine":    m.OriginalLine,
		"originalColumn":  m.OriginalColumn,
		"source":          m.Source,
		"name":            m.Name,
		"sourceIndex":     m.SourceIndex,
		"nameIndex":       m.NameIndex,
	}
}

// rewriteTraceJS rewrites a stack trace.
// Signature: __sourcemapper.rewriteTrace(handle: number, trace: string, file?: string) => {trace} | {error}
func rewriteTraceJS(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeError("rewriteTrace requires at least 2 arguments (handle, trace)")
	}
	r, errMsg := resultArg(args[0])
	if errMsg != "" {
		return makeError(errMsg)
	}
	if args[1].Type() != js.TypeString {
		return makeError("trace must be a string")
	}
	c, err := r.Cache()
	if err != nil {
		return makeError(err.Error())
	}

	var file string
	if len(args) > 2 && args[2].Type() == js.TypeString {
		file = args[2].String()
	}
	out, err := c.RewriteTrace(args[1].String(), file)
	if err != nil {
		return makeError(err.Error())
	}
	return map[string]interface{}{"trace": out}
}

// freeJS releases a handle. Unknown handles are ignored.
// Signature: __sourcemapper.free(handle: number) => boolean
func freeJS(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeNumber {
		return false
	}
	return results.Release(uint64(args[0].Int()))
}

// resultArg resolves a handle argument, returning an error message when v
// is not a number or not a live handle.
func resultArg(v js.Value) (*api.Result, string) {
	if v.Type() != js.TypeNumber {
		return nil, "handle must be a number"
	}
	f := v.Float()
	if f < 1 || f != float64(uint64(f)) {
		return nil, "unknown handle"
	}
	r, ok := results.Get(uint64(f))
	if !ok {
		return nil, "unknown handle"
	}
	return r, ""
}

// parseOptions extracts options from a JS object.
func parseOptions(jsVal js.Value) jsOptions {
	var opts jsOptions

	jsonStr := js.Global().Get("JSON").Call("stringify", jsVal).String()
	if err := json.Unmarshal([]byte(jsonStr), &opts); err == nil {
		return opts
	}

	if v := jsVal.Get("strictVersion"); v.Type() == js.TypeBoolean {
		b := v.Bool()
		opts.StrictVersion = &b
	}
	return opts
}

// makeError creates a result object with an error.
func makeError(msg string) interface{} {
	return map[string]interface{}{"error": msg}
}
