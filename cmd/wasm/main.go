//go:build js && wasm
// +build js,wasm

package main

import (
	"fmt"
	"strings"
	"syscall/js"

	"github.com/himanishpuri/MelodicDNA/internal/algorithms"
	"github.com/himanishpuri/MelodicDNA/internal/geometry"
	"github.com/himanishpuri/MelodicDNA/internal/score"
	"github.com/himanishpuri/MelodicDNA/internal/settings"
)

// Error codes returned to JavaScript
const (
	ErrorNone = iota
	ErrorInvalidArgs
	ErrorInvalidNotes
	ErrorInvalidSettings
)

// maxOccurrences bounds the result handed back to the page.
const maxOccurrences = 1000

// Searches a source note list for a pattern.
// Arguments: patternJSON, sourceJSON, settings object (optional).
// Returns: {error: number, data: array | string}
func findOccurrences(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeErrorResponse(ErrorInvalidArgs, "Expected at least 2 arguments: patternJSON, sourceJSON")
	}
	if args[0].Type() != js.TypeString || args[1].Type() != js.TypeString {
		return makeErrorResponse(ErrorInvalidArgs, "patternJSON and sourceJSON must be strings")
	}

	pattern, err := readNotes(args[0].String())
	if err != nil {
		return makeErrorResponse(ErrorInvalidNotes, fmt.Sprintf("pattern: %v", err))
	}
	source, err := readNotes(args[1].String())
	if err != nil {
		return makeErrorResponse(ErrorInvalidNotes, fmt.Sprintf("source: %v", err))
	}

	opts := map[string]string{}
	if len(args) > 2 && args[2].Type() == js.TypeObject {
		keys := js.Global().Get("Object").Call("keys", args[2])
		for i := 0; i < keys.Length(); i++ {
			key := keys.Index(i).String()
			opts[key] = args[2].Get(key).String()
		}
	}

	set, err := settings.Parse(opts)
	if err != nil {
		return makeErrorResponse(ErrorInvalidSettings, err.Error())
	}
	seq, alg, err := algorithms.Find(pattern, source, set)
	if err != nil {
		return makeErrorResponse(ErrorInvalidSettings, err.Error())
	}

	occs := algorithms.Collect(seq, maxOccurrences)
	data := make([]interface{}, len(occs))
	for i, occ := range occs {
		data[i] = occurrenceObject(source, occ)
	}

	result := js.Global().Get("Object").New()
	result.Set("error", ErrorNone)
	result.Set("algorithm", alg.String())
	result.Set("data", js.ValueOf(data))
	return result
}

func readNotes(s string) (*geometry.PointSet, error) {
	points, err := score.JSONReader{}.Read(strings.NewReader(s))
	if err != nil {
		return nil, err
	}
	return geometry.NewPointSet(points), nil
}

func occurrenceObject(source *geometry.PointSet, occ algorithms.Occurrence) map[string]interface{} {
	pairs := make([]interface{}, len(occ.Pairs))
	for i, p := range occ.Pairs {
		pt := source.At(p.SourceIndex)
		pairs[i] = map[string]interface{}{
			"patternIndex": p.PatternIndex,
			"sourceIndex":  p.SourceIndex,
			"sourceNoteId": pt.ID,
			"onset":        pt.Onset.String(),
			"pitch":        pt.Pitch,
		}
	}

	obj := map[string]interface{}{
		"algorithm":     occ.Algorithm.String(),
		"pairs":         pairs,
		"shift":         occ.Shift.X.String(),
		"transposition": occ.Shift.Y,
	}
	if occ.HasScale {
		obj["scale"] = occ.Scale.String()
	}
	if len(occ.Links) > 0 {
		scales := make([]interface{}, len(occ.Links))
		for i, sc := range occ.LinkScales() {
			scales[i] = sc.String()
		}
		obj["linkScales"] = scales
	}
	if occ.Algorithm == settings.P3 {
		obj["overlap"] = occ.Overlap.String()
	}
	return obj
}

func makeErrorResponse(errorCode int, message string) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", errorCode)
	result.Set("data", message)
	return result
}

func main() {
	console := js.Global().Get("console")
	if !console.IsUndefined() {
		console.Call("log", "🔧 MelodicDNA WASM module initializing...")
	}

	done := make(chan struct{})

	js.Global().Set("findOccurrences", js.FuncOf(findOccurrences))

	if !console.IsUndefined() {
		console.Call("log", "📝 findOccurrences function registered")
	}

	window := js.Global().Get("window")
	if !window.IsUndefined() {
		eventInit := js.Global().Get("Object").New()
		event := js.Global().Get("CustomEvent").New("wasmReady", eventInit)
		window.Call("dispatchEvent", event)
	} else if !console.IsUndefined() {
		console.Call("error", "❌ window object is undefined!")
	}

	if !console.IsUndefined() {
		console.Call("log", "✅ MelodicDNA WASM module loaded and ready")
	}

	<-done
}
