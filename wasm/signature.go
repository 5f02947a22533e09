package wasm

import (
	"fmt"
	"strings"

	"github.com/achilleasa/wasmview/renderer"
	"github.com/tetratelabs/wazero/api"
)

var (
	i32 = api.ValueTypeI32

	getDimensionsParams  = []api.ValueType{i32}
	getDimensionsResults = []api.ValueType{i32}
	setDimensionsParams  = []api.ValueType{i32, i32, i32, i32, i32, i32, i32}
	setDimensionsResults = []api.ValueType{i32, i32}
)

// Validate the signatures of the exports the host calls. get_dimensions and
// set_dimensions are optional but must match when present.
func checkSignatures(exports map[string]api.FunctionDefinition) error {
	render, ok := exports[renderExport]
	if !ok {
		return fmt.Errorf("wasm: module does not export %q", renderExport)
	}

	params, results := render.ParamTypes(), render.ResultTypes()
	if len(params) != 3 || !isTimestampType(params[0]) || params[1] != i32 || params[2] != i32 ||
		len(results) != 1 || results[0] != i32 {
		return signatureError(renderExport, render, "(f64|f32|i64|i32, i32, i32) -> i32")
	}

	if def, ok := exports[getDimensionsExport]; ok {
		if !sameTypes(def.ParamTypes(), getDimensionsParams) || !sameTypes(def.ResultTypes(), getDimensionsResults) {
			return signatureError(getDimensionsExport, def, "(i32) -> i32")
		}
	}
	if def, ok := exports[setDimensionsExport]; ok {
		if !sameTypes(def.ParamTypes(), setDimensionsParams) || !sameTypes(def.ResultTypes(), setDimensionsResults) {
			return signatureError(setDimensionsExport, def, "(i32 x 7) -> (i32, i32)")
		}
	}

	return nil
}

// List the negotiation styles a module supports based on its exports.
func detectStyles(exports map[string]api.FunctionDefinition) []renderer.NegotiationStyle {
	var styles []renderer.NegotiationStyle
	if _, ok := exports[setDimensionsExport]; ok {
		styles = append(styles, renderer.StylePropose)
	}
	if _, ok := exports[getDimensionsExport]; ok {
		styles = append(styles, renderer.StyleQuery)
	}
	return styles
}

func isTimestampType(t api.ValueType) bool {
	switch t {
	case api.ValueTypeF64, api.ValueTypeF32, api.ValueTypeI64, api.ValueTypeI32:
		return true
	}
	return false
}

func sameTypes(a, b []api.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func signatureError(name string, def api.FunctionDefinition, expected string) error {
	return fmt.Errorf("wasm: export %q has signature %s; expected %s", name, formatSignature(def), expected)
}

// Format a function signature as "(p1, p2) -> (r1)".
func formatSignature(def api.FunctionDefinition) string {
	return fmt.Sprintf("(%s) -> (%s)", typeNames(def.ParamTypes()), typeNames(def.ResultTypes()))
}

func typeNames(types []api.ValueType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = api.ValueTypeName(t)
	}
	return strings.Join(names, ", ")
}
