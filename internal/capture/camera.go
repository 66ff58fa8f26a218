package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"speechcoach/internal/models"
)

// Camera is a VideoSource that keeps the most recent frame pushed by the client
type Camera struct {
	mu       sync.Mutex
	disabled bool
	held     bool
	latest   Frame
	seq      uint64 // bumped by every Push
	now      func() time.Time
}

// NewCamera creates an empty camera
func NewCamera() *Camera {
	return &Camera{now: time.Now}
}

// SetAvailable marks the camera as present or not
func (c *Camera) SetAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disabled = !available
}

// Push replaces the latest frame. Frames pushed while no handle is open are kept
// so the first snapshot has something to read.
func (c *Camera) Push(data []byte, contentType string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.latest = Frame{
		Data:        append([]byte(nil), data...),
		ContentType: contentType,
		CapturedAt:  c.now(),
	}
	c.seq++
}

// Acquire opens the camera
func (c *Camera) Acquire(ctx context.Context) (VideoHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrDeviceUnavailable, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disabled {
		return nil, fmt.Errorf("%w: camera permission denied", models.ErrDeviceUnavailable)
	}
	if c.held {
		return nil, fmt.Errorf("%w: camera already held", models.ErrResourceBusy)
	}
	c.held = true
	return &videoHandle{cam: c}, nil
}

type videoHandle struct {
	cam    *Camera
	closed bool
	seen   uint64 // seq of the last frame returned
}

// Snapshot returns each pushed frame once. Until the client pushes a newer
// frame it reports ErrNoFrame, so one captured expression yields one sample.

func (h *videoHandle) Snapshot(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	h.cam.mu.Lock()
	defer h.cam.mu.Unlock()

	if h.closed {
		return Frame{}, fmt.Errorf("%w: camera closed", models.ErrDeviceUnavailable)
	}
	if h.cam.latest.Empty() || h.cam.seq == h.seen {
		return Frame{}, ErrNoFrame
	}
	h.seen = h.cam.seq
	return h.cam.latest, nil
}

func (h *videoHandle) Close() error {
	h.cam.mu.Lock()
	defer h.cam.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	h.cam.held = false
	h.cam.latest = Frame{}
	return nil
}
