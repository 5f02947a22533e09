package opengl

import (
	"context"
	"fmt"
	"runtime"

	"github.com/achilleasa/wasmview/log"
	"github.com/achilleasa/wasmview/renderer"
	"github.com/go-gl/gl/v2.1/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// The density reported for a content scale of 1.0.
const baseDensity = 96

// glfw requires all window calls to originate from the main thread.
func init() {
	runtime.LockOSThread()
}

// ResizeFunc is invoked from inside Run when the window framebuffer changes
// size. Width and height are in pixels.
type ResizeFunc func(width, height, density uint32)

// Window is an opengl window that acts both as a display sink and as a
// vsync-paced frame scheduler. All methods must be called from the goroutine
// that created the window.
type Window struct {
	logger log.Logger

	// opengl handles
	window  *glfw.Window
	texture uint32
	texFbo  uint32

	// Size of the texture backing the last presented frame.
	texW, texH int32

	onResize ResizeFunc

	pending   renderer.FrameFunc
	requestID uint64
}

// Create a new resizable window with the given client area size.
func NewWindow(width, height uint32, title string) (*Window, error) {
	var err error
	if err = glfw.Init(); err != nil {
		return nil, fmt.Errorf("opengl: failed to initialize glfw: %s", err.Error())
	}

	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 2)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)

	w := &Window{logger: log.New("opengl")}
	w.window, err = glfw.CreateWindow(int(width), int(height), title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("opengl: could not create window: %s", err.Error())
	}
	w.window.MakeContextCurrent()

	if err = gl.Init(); err != nil {
		w.Close()
		return nil, fmt.Errorf("opengl: could not init opengl: %s", err.Error())
	}

	// Sync buffer swaps to the display refresh
	glfw.SwapInterval(1)

	// Setup texture for frame data and attach it to a read FBO
	gl.GenTextures(1, &w.texture)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, w.texture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)

	gl.GenFramebuffers(1, &w.texFbo)

	w.window.SetKeyCallback(w.onKeyEvent)
	w.window.SetFramebufferSizeCallback(w.onFramebufferSize)

	return w, nil
}

// Close destroys the window and releases glfw.
func (w *Window) Close() {
	if w.window == nil {
		return
	}
	if w.texFbo != 0 {
		gl.DeleteFramebuffers(1, &w.texFbo)
	}
	if w.texture != 0 {
		gl.DeleteTextures(1, &w.texture)
	}
	w.window.Destroy()
	w.window = nil
	glfw.Terminate()
}

// OnResize registers a callback for framebuffer size changes.
func (w *Window) OnResize(fn ResizeFunc) {
	w.onResize = fn
}

// FramebufferSize returns the current framebuffer size and display density.
func (w *Window) FramebufferSize() (width, height, density uint32) {
	fbW, fbH := w.window.GetFramebufferSize()
	return uint32(fbW), uint32(fbH), w.density()
}

// SetTitle updates the window title.
func (w *Window) SetTitle(title string) {
	w.window.SetTitle(title)
}

// Present uploads the surface to the frame texture and blits it over the
// whole framebuffer. Surface rows are stored top to bottom.
func (w *Window) Present(surface *renderer.Surface) error {
	if surface == nil || surface.Width == 0 || surface.Height == 0 {
		return nil
	}

	width, height := int32(surface.Width), int32(surface.Height)
	gl.BindTexture(gl.TEXTURE_2D, w.texture)
	if width != w.texW || height != w.texH {
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, width, height, 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(surface.Pix))

		gl.BindFramebuffer(gl.READ_FRAMEBUFFER, w.texFbo)
		gl.FramebufferTexture2D(gl.READ_FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, w.texture, 0)
		gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)

		w.texW, w.texH = width, height
		w.logger.Debugf("allocated %dx%d frame texture", width, height)
	} else {
		gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, width, height, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(surface.Pix))
	}

	fbW, fbH := w.window.GetFramebufferSize()

	// Flip vertically while copying; GL framebuffers are bottom-up.
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, w.texFbo)
	gl.BlitFramebuffer(0, 0, width, height, 0, int32(fbH), int32(fbW), 0, gl.COLOR_BUFFER_BIT, gl.NEAREST)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("opengl: frame upload failed with error 0x%x", code)
	}
	return nil
}

// RequestFrame arranges for fn to run before the next buffer swap. A newer
// request replaces a pending one.
func (w *Window) RequestFrame(fn renderer.FrameFunc) func() {
	w.requestID++
	id := w.requestID
	w.pending = fn

	return func() {
		if w.requestID == id {
			w.pending = nil
		}
	}
}

// Run processes window events and invokes pending callbacks once per display
// refresh. It returns when nothing is pending, the window is closed or ctx is
// done. Timestamps are milliseconds since Run was called.
func (w *Window) Run(ctx context.Context) error {
	start := glfw.GetTime()
	for w.pending != nil && !w.window.ShouldClose() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		glfw.PollEvents()

		gl.ClearColor(0, 0, 0, 1)
		gl.Clear(gl.COLOR_BUFFER_BIT)

		fn := w.pending
		w.pending = nil
		if fn != nil {
			fn((glfw.GetTime() - start) * 1000)
		}

		w.window.SwapBuffers()
	}

	return nil
}

func (w *Window) density() uint32 {
	scaleX, _ := w.window.GetContentScale()
	if scaleX <= 0 {
		return baseDensity
	}
	return uint32(scaleX*baseDensity + 0.5)
}

func (w *Window) onKeyEvent(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	if action != glfw.Press {
		return
	}

	switch key {
	case glfw.KeyEscape, glfw.KeyQ:
		w.window.SetShouldClose(true)
	}
}

func (w *Window) onFramebufferSize(_ *glfw.Window, width, height int) {
	// Minimized windows report a zero-sized framebuffer
	if width <= 0 || height <= 0 || w.onResize == nil {
		return
	}

	gl.Viewport(0, 0, int32(width), int32(height))
	w.onResize(uint32(width), uint32(height), w.density())
}
