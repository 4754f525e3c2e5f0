// Package camera provides the scan.Camera implementation used by the HTTP
// delivery path: clients push decoded video frames to the server, and each
// acquisition hands out a fresh stream fed by those pushes.
package camera

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/pantrypal/backend/internal/scan"
)

// PushCamera implements scan.Camera over client-pushed frames. At most one
// stream is live at a time; ownership transfers on Acquire and is returned
// when the stream's track is stopped.
type PushCamera struct {
	mu        sync.Mutex
	available bool
	buffer    int
	stream    *pushStream
}

// NewPushCamera creates a push camera whose streams buffer up to buffer
// frames. Pushes beyond the buffer are dropped, not queued; a stale frame
// is worth less than a fresh one.
func NewPushCamera(buffer int) *PushCamera {
	if buffer <= 0 {
		buffer = 4
	}
	return &PushCamera{available: true, buffer: buffer}
}

// SetAvailable toggles device availability. When false, Acquire fails the
// way a missing or permission-denied camera would.
func (c *PushCamera) SetAvailable(ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.available = ok
}

// Acquire mints a fresh stream. Any stream still live is released first:
// the handle transfers, it is never shared.
func (c *PushCamera) Acquire(ctx context.Context) (scan.Stream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.available {
		return nil, fmt.Errorf("no camera device")
	}
	if c.stream != nil {
		c.stream.close()
	}
	st := &pushStream{frames: make(chan image.Image, c.buffer), cam: c}
	st.track = &pushTrack{stream: st}
	c.stream = st
	return st, nil
}

// Push delivers a frame to the live stream. Returns false when no stream is
// live or the stream's buffer is full; dropped frames are normal.
func (c *PushCamera) Push(frame image.Image) bool {
	c.mu.Lock()
	st := c.stream
	c.mu.Unlock()
	if st == nil {
		return false
	}
	return st.push(frame)
}

// Live reports whether a stream is currently held.
func (c *PushCamera) Live() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stream != nil
}

func (c *PushCamera) release(st *pushStream) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream == st {
		c.stream = nil
	}
}

type pushStream struct {
	frames chan image.Image
	track  *pushTrack
	cam    *PushCamera

	mu     sync.Mutex
	closed bool
}

func (s *pushStream) Frames() <-chan image.Image { return s.frames }
func (s *pushStream) Tracks() []scan.Track       { return []scan.Track{s.track} }

func (s *pushStream) push(frame image.Image) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.frames <- frame:
		return true
	default:
		return false
	}
}

func (s *pushStream) close() {
	s.mu.Lock()
	already := s.closed
	s.closed = true
	s.mu.Unlock()
	if !already {
		close(s.frames)
	}
	s.cam.release(s)
}

type pushTrack struct {
	stream *pushStream
}

func (t *pushTrack) Stop() error {
	t.stream.close()
	return nil
}
