package capture

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speechcoach/internal/models"
)

func TestMicrophoneCapture(t *testing.T) {
	mic := NewMicrophone(0)
	ctx := context.Background()

	_, err := mic.Write([]byte("early"))
	assert.ErrorIs(t, err, models.ErrNotRecording)

	h, err := mic.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, mic.Recording())

	_, err = mic.Acquire(ctx)
	assert.ErrorIs(t, err, models.ErrResourceBusy)

	_, err = mic.Write([]byte("ab"))
	require.NoError(t, err)
	_, err = mic.Write([]byte("cd"))
	require.NoError(t, err)

	data, err := h.Stop()
	require.NoError(t, err)
	assert.Equal(t, []byte("abcd"), data)
	assert.False(t, mic.Recording())

	_, err = h.Stop()
	assert.ErrorIs(t, err, models.ErrNotRecording)

	// released after stop
	h2, err := mic.Acquire(ctx)
	require.NoError(t, err)
	data, err = h2.Stop()
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestMicrophoneUnavailable(t *testing.T) {
	mic := NewMicrophone(0)
	mic.SetAvailable(false)

	_, err := mic.Acquire(context.Background())
	assert.ErrorIs(t, err, models.ErrDeviceUnavailable)

	mic.SetAvailable(true)
	_, err = mic.Acquire(context.Background())
	assert.NoError(t, err)
}

func TestMicrophoneSizeLimit(t *testing.T) {
	mic := NewMicrophone(4)
	_, err := mic.Acquire(context.Background())
	require.NoError(t, err)

	_, err = mic.Write([]byte("abc"))
	require.NoError(t, err)
	_, err = mic.Write([]byte("de"))
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestCameraKeepsLatestFrame(t *testing.T) {
	cam := NewCamera()
	ctx := context.Background()

	h, err := cam.Acquire(ctx)
	require.NoError(t, err)

	_, err = h.Snapshot(ctx)
	assert.ErrorIs(t, err, ErrNoFrame)

	cam.Push([]byte("one"), "image/jpeg")
	cam.Push([]byte("two"), "image/jpeg")

	frame, err := h.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), frame.Data)
	assert.Equal(t, "image/jpeg", frame.ContentType)

	_, err = cam.Acquire(ctx)
	assert.ErrorIs(t, err, models.ErrResourceBusy)

	require.NoError(t, h.Close())
	require.NoError(t, h.Close())

	_, err = h.Snapshot(ctx)
	assert.ErrorIs(t, err, models.ErrDeviceUnavailable)

	_, err = cam.Acquire(ctx)
	assert.NoError(t, err)
}

func TestCameraReturnsEachFrameOnce(t *testing.T) {
	cam := NewCamera()
	ctx := context.Background()

	cam.Push([]byte("before"), "image/jpeg")
	h, err := cam.Acquire(ctx)
	require.NoError(t, err)

	frame, err := h.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("before"), frame.Data)

	for i := 0; i < 3; i++ {
		_, err = h.Snapshot(ctx)
		assert.ErrorIs(t, err, ErrNoFrame)
	}

	cam.Push([]byte("after"), "image/jpeg")
	frame, err = h.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("after"), frame.Data)

	_, err = h.Snapshot(ctx)
	assert.ErrorIs(t, err, ErrNoFrame)
}

func TestCameraUnavailable(t *testing.T) {
	cam := NewCamera()
	cam.SetAvailable(false)
	_, err := cam.Acquire(context.Background())
	assert.ErrorIs(t, err, models.ErrDeviceUnavailable)
}
