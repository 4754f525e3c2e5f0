package camera

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frame() image.Image { return image.NewGray(image.Rect(0, 0, 1, 1)) }

func TestAcquireAndPush(t *testing.T) {
	cam := NewPushCamera(2)

	assert.False(t, cam.Push(frame()), "push with no live stream is dropped")

	stream, err := cam.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, cam.Live())

	assert.True(t, cam.Push(frame()))
	assert.True(t, cam.Push(frame()))
	assert.False(t, cam.Push(frame()), "buffer full, frame dropped")

	<-stream.Frames()
	assert.True(t, cam.Push(frame()))
}

func TestTrackStop_ReleasesHandle(t *testing.T) {
	cam := NewPushCamera(2)
	stream, err := cam.Acquire(context.Background())
	require.NoError(t, err)

	tracks := stream.Tracks()
	require.Len(t, tracks, 1)
	require.NoError(t, tracks[0].Stop())

	assert.False(t, cam.Live())
	assert.False(t, cam.Push(frame()))

	// Frame channel is closed so a decode loop draining it terminates.
	_, open := <-stream.Frames()
	assert.False(t, open)

	// Stopping again is harmless.
	require.NoError(t, tracks[0].Stop())
}

func TestReacquire_SupersedesOldStream(t *testing.T) {
	cam := NewPushCamera(2)
	first, err := cam.Acquire(context.Background())
	require.NoError(t, err)

	second, err := cam.Acquire(context.Background())
	require.NoError(t, err)

	_, open := <-first.Frames()
	assert.False(t, open, "superseded stream is closed")

	assert.True(t, cam.Push(frame()))
	select {
	case <-second.Frames():
	default:
		t.Fatal("pushed frame did not reach the live stream")
	}
}

func TestAcquire_Unavailable(t *testing.T) {
	cam := NewPushCamera(2)
	cam.SetAvailable(false)

	_, err := cam.Acquire(context.Background())
	require.Error(t, err)
	assert.False(t, cam.Live())
}
