package vidcrypt

import (
	"context"
	"image"
	"io"
	"sync"
)

// FrameSink receives encoded frames in order. A sink takes ownership of each
// frame it is given.
type FrameSink interface {
	WriteFrame(ctx context.Context, frame *image.RGBA) error
}

// FrameSource yields frames in order and returns io.EOF after the last one.
type FrameSource interface {
	NextFrame(ctx context.Context) (*image.RGBA, error)
}

// SliceSource serves frames from memory
type SliceSource struct {
	mu     sync.Mutex
	frames Frames
	next   int
}

// NewSliceSource creates a source over frames. The frames are not copied.
func NewSliceSource(frames Frames) *SliceSource {
	return &SliceSource{frames: frames}
}

// NextFrame returns the next frame or io.EOF
func (s *SliceSource) NextFrame(ctx context.Context) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.frames) {
		return nil, io.EOF
	}
	f := s.frames[s.next]
	s.next++
	return f, nil
}

// Remaining returns the number of frames not yet served
func (s *SliceSource) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames) - s.next
}

// FrameCollector is a FrameSink that keeps every frame in memory
type FrameCollector struct {
	mu     sync.Mutex
	frames Frames
}

// WriteFrame appends frame
func (c *FrameCollector) WriteFrame(ctx context.Context, frame *image.RGBA) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, frame)
	return nil
}

// Frames returns the collected frames
func (c *FrameCollector) Frames() Frames {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}
