package capture

import (
	"context"
	"fmt"
	"sync"

	"speechcoach/internal/models"
)

// Microphone is an AudioSource fed with chunks written by the client.
// Only one handle may be open at a time.
type Microphone struct {
	mu       sync.Mutex
	disabled bool
	open     *audioHandle
	maxBytes int
}

// NewMicrophone creates a microphone that accepts at most maxBytes per capture (0 for no limit)
func NewMicrophone(maxBytes int) *Microphone {
	return &Microphone{maxBytes: maxBytes}
}

// SetAvailable marks the device as present or not, e.g. after the client
// reports a permission denial
func (m *Microphone) SetAvailable(available bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disabled = !available
}

// Acquire opens a new capture
func (m *Microphone) Acquire(ctx context.Context) (AudioHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrDeviceUnavailable, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disabled {
		return nil, fmt.Errorf("%w: microphone permission denied", models.ErrDeviceUnavailable)
	}
	if m.open != nil {
		return nil, fmt.Errorf("%w: microphone already held", models.ErrResourceBusy)
	}

	m.open = &audioHandle{mic: m}
	return m.open, nil
}

// Write appends a chunk to the open capture
func (m *Microphone) Write(chunk []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.open == nil {
		return 0, models.ErrNotRecording
	}
	if m.maxBytes > 0 && len(m.open.buf)+len(chunk) > m.maxBytes {
		return 0, fmt.Errorf("%w: recording exceeds %d bytes", models.ErrValidation, m.maxBytes)
	}
	m.open.buf = append(m.open.buf, chunk...)
	return len(chunk), nil
}

// Recording reports whether a capture is open
func (m *Microphone) Recording() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open != nil
}

type audioHandle struct {
	mic     *Microphone
	buf     []byte
	stopped bool
}

func (h *audioHandle) Stop() ([]byte, error) {
	h.mic.mu.Lock()
	defer h.mic.mu.Unlock()

	if h.stopped {
		return nil, models.ErrNotRecording
	}
	h.stopped = true
	if h.mic.open == h {
		h.mic.open = nil
	}

	out := h.buf
	h.buf = nil
	return out, nil
}
