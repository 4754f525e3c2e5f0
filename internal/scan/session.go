package scan

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"sync"

	"github.com/pantrypal/backend/internal/domain"
)

// State is the lifecycle state of a scan session.
type State string

const (
	StateIdle      State = "idle"
	StateStreaming State = "streaming"
	StateDetected  State = "detected"
	StateTornDown  State = "torn_down"
)

// Session is one camera-acquisition-to-teardown lifecycle. It owns exactly
// one camera stream and trips its detection latch at most once.
type Session struct {
	mu      sync.Mutex
	state   State
	latched bool
	stream  Stream
	sink    Sink
	cancel  context.CancelFunc
	done    chan struct{} // closed when the decode loop exits
}

// State reports the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Latched reports whether the detection latch has tripped. Once true, every
// further decoded candidate in this session is a no-op.
func (s *Session) Latched() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latched
}

// tryLatch trips the one-shot detection latch. Only the first caller wins.
func (s *Session) tryLatch() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latched || s.state != StateStreaming {
		return false
	}
	s.latched = true
	s.state = StateDetected
	return true
}

// teardown releases everything the session holds: the decode loop, then
// every media track, then the sink's stream reference. All three steps are
// always attempted even when an earlier one fails; errors are joined, never
// short-circuited. Idempotent.
func (s *Session) teardown() error {
	s.mu.Lock()
	if s.state == StateTornDown {
		s.mu.Unlock()
		return nil
	}
	s.state = StateTornDown
	stream := s.stream
	sink := s.sink
	cancel := s.cancel
	s.stream = nil
	s.sink = nil
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-s.done
	}

	var errs []error
	if stream != nil {
		for _, t := range stream.Tracks() {
			if err := stopTrack(t); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if sink != nil {
		if err := clearSink(sink); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// stopTrack stops a single track, converting a panic into an error so one
// misbehaving track cannot skip the remaining release steps.
func stopTrack(t Track) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("track stop panicked: %v", r)
		}
	}()
	return t.Stop()
}

func clearSink(sink Sink) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink clear panicked: %v", r)
		}
	}()
	sink.Clear()
	return nil
}

// Manager starts and stops scan sessions for one acquisition flow. It holds
// at most one active session: Start unconditionally tears down the previous
// one before acquiring a new camera stream, so rapid open/close cycles can
// never accumulate orphaned streams.
type Manager struct {
	camera  Camera
	decoder Decoder
	chime   Chime

	mu     sync.Mutex
	active *Session
}

// NewManager creates a session manager. chime may be nil.
func NewManager(camera Camera, decoder Decoder, chime Chime) *Manager {
	return &Manager{camera: camera, decoder: decoder, chime: chime}
}

// Start tears down any prior session owned by this manager, acquires a fresh
// camera stream, attaches it to sink, and runs the decode loop until teardown.
// onDetect receives the first decoded candidate of the session, exactly once.
// If camera acquisition fails the returned error wraps
// domain.ErrDeviceUnavailable and the session is left torn down; Start never
// retries on its own.
func (m *Manager) Start(ctx context.Context, sink Sink, onDetect func(code string)) (*Session, error) {
	m.mu.Lock()
	prev := m.active
	m.active = nil
	m.mu.Unlock()
	if prev != nil {
		if err := prev.teardown(); err != nil {
			log.Printf("[Scan] prior session teardown: %v", err)
		}
	}

	s := &Session{state: StateIdle, done: make(chan struct{})}

	stream, err := m.camera.Acquire(ctx)
	if err != nil {
		s.mu.Lock()
		s.state = StateTornDown
		s.mu.Unlock()
		close(s.done)
		return nil, fmt.Errorf("%w: %v", domain.ErrDeviceUnavailable, err)
	}

	// ctx only scopes camera acquisition. The decode loop must outlive the
	// caller (an HTTP request context is cancelled as soon as the handler
	// returns); its lifetime is owned by teardown via cancel.
	loopCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.stream = stream
	s.sink = sink
	s.cancel = cancel
	s.state = StateStreaming
	s.mu.Unlock()
	sink.Attach(stream)

	go m.decodeLoop(loopCtx, s, onDetect)

	m.mu.Lock()
	m.active = s
	m.mu.Unlock()
	return s, nil
}

// Stop tears down the given session. Safe to call repeatedly and on sessions
// that already detected, errored, or were replaced.
func (m *Manager) Stop(s *Session) error {
	if s == nil {
		return nil
	}
	m.mu.Lock()
	if m.active == s {
		m.active = nil
	}
	m.mu.Unlock()
	return s.teardown()
}

// Active returns the manager's current session, or nil.
func (m *Manager) Active() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// decodeLoop feeds frames to the decoder until the stream ends or the
// session is torn down. Non-detections are normal and silently skipped; the
// latch guarantees onDetect fires at most once per session.
func (m *Manager) decodeLoop(ctx context.Context, s *Session, onDetect func(string)) {
	defer close(s.done)
	frames := s.framesChan()
	if frames == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			code, err := m.decoder.Decode(frame)
			if err != nil || code == "" {
				continue
			}
			if !s.tryLatch() {
				continue
			}
			if m.chime != nil {
				go playChime(m.chime)
			}
			// onDetect may call back into Stop; run it off the loop
			// goroutine so teardown can wait for the loop to exit.
			go onDetect(code)
		}
	}
}

func (s *Session) framesChan() <-chan image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		return nil
	}
	return s.stream.Frames()
}

func playChime(c Chime) {
	defer func() {
		_ = recover()
	}()
	c.Play()
}
