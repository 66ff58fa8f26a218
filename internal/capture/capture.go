// Package capture adapts the microphone and camera of the presentation layer
// into exclusive capture handles. Devices live on the client, so both sources
// are fed by pushes (audio chunks, still frames) rather than by reading hardware.
package capture

import (
	"context"
	"errors"
	"time"
)

// ErrNoFrame is returned by Snapshot when no frame has been pushed yet
var ErrNoFrame = errors.New("no frame captured yet")

// AudioSource hands out exclusive access to an audio input
type AudioSource interface {
	Acquire(ctx context.Context) (AudioHandle, error)
}

// AudioHandle is an open audio capture. Stop returns everything captured and releases the device.
type AudioHandle interface {
	Stop() ([]byte, error)
}

// VideoSource hands out exclusive access to a camera
type VideoSource interface {
	Acquire(ctx context.Context) (VideoHandle, error)
}

// VideoHandle is an open camera
type VideoHandle interface {
	Snapshot(ctx context.Context) (Frame, error)
	Close() error
}

// Frame is one still image from the camera
type Frame struct {
	Data        []byte
	ContentType string
	CapturedAt  time.Time
}

// Empty reports whether the frame carries no image
func (f Frame) Empty() bool {
	return len(f.Data) == 0
}
