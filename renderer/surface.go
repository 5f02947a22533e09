package renderer

import "image"

// Surface is a host-owned RGBA8 pixel buffer. len(Pix) is always
// Width*Height*4; a surface is never resized, a new one replaces it.
type Surface struct {
	Width  uint32
	Height uint32
	Pix    []byte
}

func newSurface(size Size) *Surface {
	return &Surface{
		Width:  size.Width,
		Height: size.Height,
		Pix:    make([]byte, frameBytes(size)),
	}
}

// Size returns the surface dimensions.
func (s *Surface) Size() Size {
	return Size{s.Width, s.Height}
}

// Image wraps the surface pixels in an *image.RGBA without copying.
func (s *Surface) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    s.Pix,
		Stride: int(s.Width) * 4,
		Rect:   image.Rect(0, 0, int(s.Width), int(s.Height)),
	}
}

// Clone returns a deep copy of the surface that sinks may retain.
func (s *Surface) Clone() *Surface {
	pix := make([]byte, len(s.Pix))
	copy(pix, s.Pix)
	return &Surface{Width: s.Width, Height: s.Height, Pix: pix}
}

// Number of RGBA8 bytes in a frame of the given size.
func frameBytes(size Size) uint64 {
	return uint64(size.Width) * uint64(size.Height) * 4
}
