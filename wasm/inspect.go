package wasm

import (
	"context"
	"fmt"
	"sort"

	"github.com/achilleasa/wasmview/renderer"
	"github.com/tetratelabs/wazero"
)

// Function describes an imported or exported function.
type Function struct {
	Module    string
	Name      string
	Signature string
}

// Info summarizes a compiled render module without instantiating it.
type Info struct {
	Exports []Function
	Imports []Function

	// Memory limits in 64KiB pages; MaxPages is zero when unbounded.
	MinPages uint32
	MaxPages uint32

	Styles []renderer.NegotiationStyle

	// Non-nil if the module would be rejected by Load.
	Problem error
}

// Inspect compiles a module and reports its imports, exports and the
// negotiation styles it supports.
func Inspect(ctx context.Context, binary []byte) (*Info, error) {
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	compiled, err := rt.CompileModule(ctx, binary)
	if err != nil {
		return nil, fmt.Errorf("wasm: could not compile module: %w", err)
	}
	defer compiled.Close(ctx)

	exports := compiled.ExportedFunctions()
	info := &Info{
		Styles:  detectStyles(exports),
		Problem: checkSignatures(exports),
	}

	for name, def := range exports {
		info.Exports = append(info.Exports, Function{Name: name, Signature: formatSignature(def)})
	}
	sort.Slice(info.Exports, func(i, j int) bool { return info.Exports[i].Name < info.Exports[j].Name })

	for _, def := range compiled.ImportedFunctions() {
		module, name, _ := def.Import()
		info.Imports = append(info.Imports, Function{Module: module, Name: name, Signature: formatSignature(def)})
	}

	if mem, ok := compiled.ExportedMemories()[memoryExport]; ok {
		info.MinPages = mem.Min()
		if maxPages, bounded := mem.Max(); bounded {
			info.MaxPages = maxPages
		}
	} else if info.Problem == nil {
		info.Problem = fmt.Errorf("wasm: module does not export %q", memoryExport)
	}

	return info, nil
}
