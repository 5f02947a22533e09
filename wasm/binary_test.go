package wasm

import "encoding/binary"

// A tiny WebAssembly binary encoder for building test modules.

const (
	valI32 byte = 0x7f
	valI64 byte = 0x7e
	valF32 byte = 0x7d
	valF64 byte = 0x7c
)

// Instructions
const (
	opCall     byte = 0x10
	opLocalGet byte = 0x20
	opI32Const byte = 0x41
	opWrapI64  byte = 0xa7
	opEnd      byte = 0x0b
)

type wasmFunc struct {
	export  string
	params  []byte
	results []byte
	body    []byte
}

type dataSegment struct {
	offset int64
	bytes  []byte
}

type wasmModule struct {
	importOutput bool
	memPages     uint32
	exportMemory bool
	funcs        []wasmFunc
	data         []dataSegment
}

func uleb(v uint64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func sleb(v int64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func vec(items ...[]byte) []byte {
	out := uleb(uint64(len(items)))
	for _, item := range items {
		out = append(out, item...)
	}
	return out
}

func name(s string) []byte {
	return append(uleb(uint64(len(s))), s...)
}

func section(id byte, body []byte) []byte {
	out := append([]byte{id}, uleb(uint64(len(body)))...)
	return append(out, body...)
}

func funcType(params, results []byte) []byte {
	out := []byte{0x60}
	out = append(out, uleb(uint64(len(params)))...)
	out = append(out, params...)
	out = append(out, uleb(uint64(len(results)))...)
	return append(out, results...)
}

func i32Const(v int64) []byte {
	return append([]byte{opI32Const}, sleb(v)...)
}

func localGet(idx uint64) []byte {
	return append([]byte{opLocalGet}, uleb(idx)...)
}

func call(idx uint64) []byte {
	return append([]byte{opCall}, uleb(idx)...)
}

func instrs(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func u32s(values ...uint32) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[i*4:], v)
	}
	return out
}

func (m wasmModule) encode() []byte {
	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	var (
		types   [][]byte
		imports [][]byte
	)
	funcBase := uint64(0)
	if m.importOutput {
		types = append(types, funcType([]byte{valI32}, nil))
		imports = append(imports, instrs(name(hostModuleName), name(outputImport), []byte{0x00}, uleb(0)))
		funcBase = 1
	}

	var (
		funcIndices [][]byte
		exports     [][]byte
		bodies      [][]byte
	)
	for i, f := range m.funcs {
		typeIdx := uint64(len(types))
		types = append(types, funcType(f.params, f.results))
		funcIndices = append(funcIndices, uleb(typeIdx))
		if f.export != "" {
			exports = append(exports, instrs(name(f.export), []byte{0x00}, uleb(funcBase+uint64(i))))
		}
		body := instrs([]byte{0x00}, f.body, []byte{opEnd})
		bodies = append(bodies, append(uleb(uint64(len(body))), body...))
	}
	if m.memPages != 0 && m.exportMemory {
		exports = append(exports, instrs(name(memoryExport), []byte{0x02}, uleb(0)))
	}

	out = append(out, section(1, vec(types...))...)
	if len(imports) != 0 {
		out = append(out, section(2, vec(imports...))...)
	}
	out = append(out, section(3, vec(funcIndices...))...)
	if m.memPages != 0 {
		out = append(out, section(5, vec(instrs([]byte{0x00}, uleb(uint64(m.memPages)))))...)
	}
	out = append(out, section(7, vec(exports...))...)
	out = append(out, section(10, vec(bodies...))...)

	if len(m.data) != 0 {
		var segments [][]byte
		for _, seg := range m.data {
			segments = append(segments, instrs(
				[]byte{0x00}, i32Const(seg.offset), []byte{opEnd},
				uleb(uint64(len(seg.bytes))), seg.bytes,
			))
		}
		out = append(out, section(11, vec(segments...))...)
	}

	return out
}
