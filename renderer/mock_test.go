package renderer

import (
	"context"
	"encoding/binary"
	"errors"
)

type readReq struct {
	offset uint32
	length uint32
}

type mockMemory struct {
	data  []byte
	reads []readReq
}

func newMockMemory(size int) *mockMemory {
	return &mockMemory{data: make([]byte, size)}
}

func (m *mockMemory) Read(offset, byteCount uint32) ([]byte, bool) {
	m.reads = append(m.reads, readReq{offset, byteCount})
	end := uint64(offset) + uint64(byteCount)
	if end > uint64(len(m.data)) {
		return nil, false
	}
	return m.data[offset:end], true
}

func (m *mockMemory) Size() uint32 {
	return uint32(len(m.data))
}

func (m *mockMemory) putUint32s(offset uint32, values ...uint32) {
	for i, v := range values {
		binary.LittleEndian.PutUint32(m.data[offset+uint32(i*4):], v)
	}
}

type renderCall struct {
	timestamp float64
	width     uint32
	height    uint32
}

type mockModule struct {
	mem    *mockMemory
	styles map[NegotiationStyle]bool

	queryOffset uint32
	queryErr    error

	// When confirmPreferred is set the module echoes the preferred candidate.
	confirmPreferred bool
	confirmW         int32
	confirmH         int32
	proposeErr       error
	proposals        [][3]Size

	renderOffset uint32
	renderErr    error
	failRenders  int
	renderCalls  []renderCall

	closed   bool
	closeErr error
}

func newMockModule(memSize int, styles ...NegotiationStyle) *mockModule {
	m := &mockModule{
		mem:    newMockMemory(memSize),
		styles: make(map[NegotiationStyle]bool),
	}
	for _, style := range styles {
		m.styles[style] = true
	}
	return m
}

func (m *mockModule) SupportsStyle(style NegotiationStyle) bool {
	return m.styles[style]
}

func (m *mockModule) QueryDimensions(_ context.Context, _ uint32) (uint32, error) {
	return m.queryOffset, m.queryErr
}

func (m *mockModule) ProposeDimensions(_ context.Context, _ uint32, candidates [3]Size) (int32, int32, error) {
	m.proposals = append(m.proposals, candidates)
	if m.proposeErr != nil {
		return 0, 0, m.proposeErr
	}
	if m.confirmPreferred {
		return int32(candidates[1].Width), int32(candidates[1].Height), nil
	}
	return m.confirmW, m.confirmH, nil
}

func (m *mockModule) Render(_ context.Context, timestamp float64, width, height uint32) (uint32, error) {
	m.renderCalls = append(m.renderCalls, renderCall{timestamp, width, height})
	if m.renderErr != nil {
		return 0, m.renderErr
	}
	if m.failRenders > 0 {
		m.failRenders--
		return 0, errors.New("module trapped")
	}

	// Fill the frame with a recognizable pattern when it fits.
	end := uint64(m.renderOffset) + uint64(width)*uint64(height)*4
	if end <= uint64(len(m.mem.data)) {
		for i := uint64(m.renderOffset); i < end; i++ {
			m.mem.data[i] = byte(i - uint64(m.renderOffset) + 1)
		}
	}
	return m.renderOffset, nil
}

func (m *mockModule) Memory() Memory {
	return m.mem
}

func (m *mockModule) Close(_ context.Context) error {
	m.closed = true
	return m.closeErr
}

type mockSink struct {
	presented []*Surface
	err       error
}

func (s *mockSink) Present(surface *Surface) error {
	if s.err != nil {
		return s.err
	}
	s.presented = append(s.presented, surface)
	return nil
}

type manualScheduler struct {
	pending  FrameFunc
	requests int
	cancels  int
}

func (s *manualScheduler) RequestFrame(fn FrameFunc) func() {
	s.requests++
	s.pending = fn
	return func() {
		s.cancels++
		s.pending = nil
	}
}

func (s *manualScheduler) Run(_ context.Context) error {
	return nil
}

// Fire the pending callback; returns false if nothing was scheduled.
func (s *manualScheduler) fire(timestamp float64) bool {
	fn := s.pending
	if fn == nil {
		return false
	}
	s.pending = nil
	fn(timestamp)
	return true
}
