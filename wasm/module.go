package wasm

import (
	"context"
	"fmt"

	"github.com/achilleasa/wasmview/log"
	"github.com/achilleasa/wasmview/renderer"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// Names of the entry points a render module may export.
const (
	memoryExport        = "memory"
	renderExport        = "render"
	getDimensionsExport = "get_dimensions"
	setDimensionsExport = "set_dimensions"

	hostModuleName = "env"
	outputImport   = "output"
)

// Config controls the sandbox hosting a render module.
type Config struct {
	// Upper bound for the module's linear memory in 64KiB pages. Zero
	// keeps the runtime default.
	MemoryLimitPages uint32

	// Directory for caching compiled modules across runs. Empty disables
	// the cache.
	CacheDir string
}

// Module is a render module instantiated inside a wazero runtime. It
// implements renderer.RenderModule and is not safe for concurrent use.
type Module struct {
	runtime wazero.Runtime
	cache   wazero.CompilationCache
	inst    api.Module
	logger  log.Logger

	render        api.Function
	timestampType api.ValueType
	getDimensions api.Function
	setDimensions api.Function
}

// Load compiles and instantiates a render module. Diagnostic text emitted by
// the module through env.output is sent to the "module" logger.
func Load(ctx context.Context, binary []byte, cfg Config) (*Module, error) {
	rtCfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cfg.MemoryLimitPages != 0 {
		rtCfg = rtCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}

	var cache wazero.CompilationCache
	if cfg.CacheDir != "" {
		var err error
		if cache, err = wazero.NewCompilationCacheWithDir(cfg.CacheDir); err != nil {
			return nil, fmt.Errorf("wasm: could not open compilation cache: %w", err)
		}
		rtCfg = rtCfg.WithCompilationCache(cache)
	}

	m := &Module{
		runtime: wazero.NewRuntimeWithConfig(ctx, rtCfg),
		cache:   cache,
		logger:  log.New("wasm"),
	}

	if err := m.init(ctx, binary, log.New("module")); err != nil {
		m.Close(ctx)
		return nil, err
	}

	return m, nil
}

func (m *Module) init(ctx context.Context, binary []byte, moduleLogger log.Logger) error {
	compiled, err := m.runtime.CompileModule(ctx, binary)
	if err != nil {
		return fmt.Errorf("wasm: could not compile module: %w", err)
	}

	exports := compiled.ExportedFunctions()
	if _, ok := compiled.ExportedMemories()[memoryExport]; !ok {
		return fmt.Errorf("wasm: module does not export %q", memoryExport)
	}
	if err = checkSignatures(exports); err != nil {
		return err
	}

	_, err = m.runtime.NewHostModuleBuilder(hostModuleName).
		NewFunctionBuilder().
		WithFunc(func(_ context.Context, caller api.Module, ptr uint32) {
			text, err := DecodeOutput(caller.Memory(), ptr)
			if err != nil {
				m.logger.Warningf("discarding module output: %v", err)
				return
			}
			moduleLogger.Notice(text)
		}).
		WithParameterNames("ptr").
		Export(outputImport).
		Instantiate(ctx)
	if err != nil {
		return fmt.Errorf("wasm: could not register host functions: %w", err)
	}

	m.inst, err = m.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		return fmt.Errorf("wasm: could not instantiate module: %w", err)
	}

	m.render = m.inst.ExportedFunction(renderExport)
	m.timestampType = m.render.Definition().ParamTypes()[0]
	m.getDimensions = m.inst.ExportedFunction(getDimensionsExport)
	m.setDimensions = m.inst.ExportedFunction(setDimensionsExport)

	m.logger.Infof("loaded module (timestamp type %s, styles %v)", api.ValueTypeName(m.timestampType), detectStyles(exports))
	return nil
}

// SupportsStyle reports whether the module exports the entry point for style.
func (m *Module) SupportsStyle(style renderer.NegotiationStyle) bool {
	switch style {
	case renderer.StyleQuery:
		return m.getDimensions != nil
	case renderer.StylePropose:
		return m.setDimensions != nil
	}
	return false
}

// QueryDimensions calls get_dimensions(density).
func (m *Module) QueryDimensions(ctx context.Context, density uint32) (uint32, error) {
	if m.getDimensions == nil {
		return 0, renderer.ErrUnsupportedStyle
	}

	res, err := m.getDimensions.Call(ctx, api.EncodeU32(density))
	if err != nil {
		return 0, err
	}
	return api.DecodeU32(res[0]), nil
}

// ProposeDimensions calls set_dimensions(density, min, preferred, max).
func (m *Module) ProposeDimensions(ctx context.Context, density uint32, candidates [3]renderer.Size) (int32, int32, error) {
	if m.setDimensions == nil {
		return 0, 0, renderer.ErrUnsupportedStyle
	}

	params := make([]uint64, 0, 7)
	params = append(params, api.EncodeU32(density))
	for _, c := range candidates {
		params = append(params, api.EncodeU32(c.Width), api.EncodeU32(c.Height))
	}

	res, err := m.setDimensions.Call(ctx, params...)
	if err != nil {
		return 0, 0, err
	}
	return api.DecodeI32(res[0]), api.DecodeI32(res[1]), nil
}

// Render calls render(timestamp, width, height) and returns the offset of
// the frame in module memory.
func (m *Module) Render(ctx context.Context, timestamp float64, width, height uint32) (uint32, error) {
	res, err := m.render.Call(ctx, encodeTimestamp(m.timestampType, timestamp), api.EncodeU32(width), api.EncodeU32(height))
	if err != nil {
		return 0, err
	}
	return api.DecodeU32(res[0]), nil
}

// Memory returns the module's exported memory. The view reflects the current
// memory size, so callers should fetch it again after every module call.
func (m *Module) Memory() renderer.Memory {
	return m.inst.ExportedMemory(memoryExport)
}

// Close tears down the runtime and any compilation cache.
func (m *Module) Close(ctx context.Context) error {
	err := m.runtime.Close(ctx)
	if m.cache != nil {
		if cacheErr := m.cache.Close(ctx); err == nil {
			err = cacheErr
		}
	}
	return err
}

// Encode a millisecond timestamp for the render export's first parameter.
// Integer timestamps are truncated to whole milliseconds.
func encodeTimestamp(valueType api.ValueType, timestamp float64) uint64 {
	switch valueType {
	case api.ValueTypeF32:
		return api.EncodeF32(float32(timestamp))
	case api.ValueTypeI64:
		return api.EncodeI64(int64(timestamp))
	case api.ValueTypeI32:
		return api.EncodeI32(int32(int64(timestamp)))
	default:
		return api.EncodeF64(timestamp)
	}
}
