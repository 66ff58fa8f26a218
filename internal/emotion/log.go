package emotion

import (
	"sync"

	"speechcoach/internal/models"
)

const (
	// WindowSize is the number of recent samples the difficulty policy looks at
	WindowSize = 5
	// DisplaySize is the number of recent samples shown to the operator
	DisplaySize = 10
)

// Log is the append-only emotion history of one draft
type Log struct {
	mu      sync.RWMutex
	samples []models.EmotionSample
}

// NewLog creates an empty log
func NewLog() *Log {
	return &Log{}
}

// Append adds a sample to the end of the log
func (l *Log) Append(sample models.EmotionSample) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.samples = append(l.samples, sample)
}

// Recent returns a copy of the newest n samples, oldest first
func (l *Log) Recent(n int) []models.EmotionSample {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.recentLocked(n)
}

// Window returns the samples the difficulty policy considers
func (l *Log) Window() []models.EmotionSample {
	return l.Recent(WindowSize)
}

// All returns a copy of the whole log
func (l *Log) All() []models.EmotionSample {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.recentLocked(len(l.samples))
}

// Len returns the number of samples recorded
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.samples)
}

// Latest returns the newest sample
func (l *Log) Latest() (models.EmotionSample, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.samples) == 0 {
		return models.EmotionSample{}, false
	}
	return l.samples[len(l.samples)-1], true
}

func (l *Log) recentLocked(n int) []models.EmotionSample {
	if n <= 0 {
		return []models.EmotionSample{}
	}
	start := len(l.samples) - n
	if start < 0 {
		start = 0
	}
	out := make([]models.EmotionSample, len(l.samples)-start)
	copy(out, l.samples[start:])
	return out
}
