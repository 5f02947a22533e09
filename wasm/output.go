package wasm

import (
	"bytes"

	"github.com/achilleasa/wasmview/renderer"
	"golang.org/x/text/encoding/charmap"
)

// Maximum number of bytes read for a single diagnostic message.
const MaxOutputLength = 1024

// DecodeOutput reads a NUL-terminated Latin-1 string at ptr. Reading stops at
// the first zero byte, after MaxOutputLength bytes or at the end of memory,
// whichever comes first.
func DecodeOutput(mem renderer.Memory, ptr uint32) (string, error) {
	if mem == nil {
		return "", &renderer.MemoryBoundsError{Offset: ptr, Length: 1}
	}

	size := mem.Size()
	if ptr >= size {
		return "", &renderer.MemoryBoundsError{Offset: ptr, Length: 1, Size: size}
	}

	n := size - ptr
	if n > MaxOutputLength {
		n = MaxOutputLength
	}
	raw, ok := mem.Read(ptr, n)
	if !ok {
		return "", &renderer.MemoryBoundsError{Offset: ptr, Length: uint64(n), Size: size}
	}
	if end := bytes.IndexByte(raw, 0); end >= 0 {
		raw = raw[:end]
	}

	text, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(text), nil
}
