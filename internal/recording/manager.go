// Package recording tracks the per-word audio captures of one session draft.
package recording

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"speechcoach/internal/capture"
	"speechcoach/internal/models"
)

// Manager owns the audio input of a draft and the recordings made with it.
// Recordings are keyed by word index, so repeated words in a list are kept
// apart; re-recording an index replaces the earlier capture.
type Manager struct {
	source capture.AudioSource
	now    func() time.Time

	mu         sync.Mutex
	open       *openCapture
	gen        uint64
	recordings map[int]models.WordRecording
}

type openCapture struct {
	index  int
	word   string
	handle capture.AudioHandle // nil while the device is being acquired
}

// NewManager creates a manager recording from source
func NewManager(source capture.AudioSource) *Manager {
	return &Manager{
		source:     source,
		now:        time.Now,
		recordings: make(map[int]models.WordRecording),
	}
}

// Begin opens a capture for the word at index
func (m *Manager) Begin(ctx context.Context, index int, word string) error {
	m.mu.Lock()
	if m.open != nil {
		active := m.open.word
		m.mu.Unlock()
		return fmt.Errorf("%w: still recording %q", models.ErrResourceBusy, active)
	}
	pending := &openCapture{index: index, word: word}
	m.open = pending
	gen := m.gen
	m.mu.Unlock()

	handle, err := m.source.Acquire(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen || m.open != pending {
		// released while acquiring
		if handle != nil {
			_, _ = handle.Stop()
		}
		return fmt.Errorf("%w: recording cancelled", models.ErrDeviceUnavailable)
	}
	if err != nil {
		m.open = nil
		if errors.Is(err, models.ErrResourceBusy) || errors.Is(err, models.ErrDeviceUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", models.ErrDeviceUnavailable, err)
	}

	pending.handle = handle
	return nil
}

// End stops the open capture and stores it as the recording for its word
func (m *Manager) End() (models.WordRecording, error) {
	m.mu.Lock()
	open := m.open
	if open == nil || open.handle == nil {
		m.mu.Unlock()
		return models.WordRecording{}, models.ErrNotRecording
	}
	m.open = nil
	m.mu.Unlock()

	audio, err := open.handle.Stop()
	if err != nil {
		return models.WordRecording{}, fmt.Errorf("failed to stop recording %q: %w", open.word, err)
	}

	rec := models.WordRecording{
		Index:      open.index,
		Word:       open.word,
		Audio:      audio,
		CapturedAt: m.now().UTC(),
	}

	m.mu.Lock()
	m.recordings[open.index] = rec
	m.mu.Unlock()
	return rec, nil
}

// Active returns the word being recorded, if any
func (m *Manager) Active() (index int, word string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.open == nil {
		return 0, "", false
	}
	return m.open.index, m.open.word, true
}

// Has reports whether the word at index has a recording
func (m *Manager) Has(index int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.recordings[index]
	return ok
}

// Count returns the number of recorded words
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.recordings)
}

// Recordings returns the recordings ordered by word index
func (m *Manager) Recordings() []models.WordRecording {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.WordRecording, 0, len(m.recordings))
	for _, rec := range m.recordings {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Release stops any open capture without waiting for it and drops every recording
func (m *Manager) Release() {
	m.mu.Lock()
	open := m.open
	m.open = nil
	m.gen++
	m.recordings = make(map[int]models.WordRecording)
	m.mu.Unlock()

	if open != nil && open.handle != nil {
		go func() { _, _ = open.handle.Stop() }()
	}
}
