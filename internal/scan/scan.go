// Package scan owns the lifecycle of a continuous barcode-decode session:
// acquiring an exclusive camera stream, feeding frames to a decoder, emitting
// at most one accepted detection per session, and releasing every resource on
// every exit path.
package scan

import (
	"context"
	"errors"
	"image"
)

// ErrNoCode is returned by a Decoder when a frame contains no readable
// barcode. It is the normal case for most frames and is swallowed by the
// decode loop, never surfaced as a failure.
var ErrNoCode = errors.New("no barcode in frame")

// Camera acquires a media stream. Each Acquire hands out a fresh stream
// whose ownership transfers to the caller; streams are never shared.
type Camera interface {
	Acquire(ctx context.Context) (Stream, error)
}

// Stream is a live camera stream: a frame source plus the media tracks
// that must be stopped to release the device.
type Stream interface {
	Frames() <-chan image.Image
	Tracks() []Track
}

// Track is one media track on a stream.
type Track interface {
	Stop() error
}

// Sink is where the delivery layer renders the live stream (the video
// element, in UI terms). Attach and Clear bracket a session's lifetime.
type Sink interface {
	Attach(Stream)
	Clear()
}

// Decoder extracts a barcode string from a single frame. ErrNoCode means
// the frame simply had no code in it.
type Decoder interface {
	Decode(img image.Image) (string, error)
}

// Chime plays the audible detection cue. Fired fire-and-forget; a failing
// or panicking chime never blocks detection or fails the session.
type Chime interface {
	Play()
}

// ChimeFunc adapts a plain function to the Chime interface.
type ChimeFunc func()

// Play implements Chime.
func (f ChimeFunc) Play() { f() }
