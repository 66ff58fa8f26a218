package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"speechcoach/internal/capture"
	"speechcoach/internal/emotion"
	"speechcoach/internal/metrics"
	"speechcoach/internal/models"
)

// ManagerConfig holds the collaborators shared by every draft
type ManagerConfig struct {
	Profiles      ProfileSource
	Exercises     ExerciseSource
	Classifier    emotion.Classifier
	Synthesizer   Synthesizer
	Sampler       emotion.SamplerConfig
	MaxAudioBytes int
	Logger        logrus.FieldLogger
	// OnSaved is called after a draft's record has been saved
	OnSaved func(*models.SessionRecord)
}

// Entry is one draft with the capture devices its client feeds
type Entry struct {
	ID         string
	Controller *Controller
	Microphone *capture.Microphone
	Camera     *capture.Camera
	CreatedAt  time.Time
}

// Manager keeps the drafts of all connected clients
type Manager struct {
	cfg    ManagerConfig
	logger logrus.FieldLogger

	mu     sync.RWMutex
	drafts map[string]*Entry
}

// NewManager creates an empty draft registry
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	return &Manager{
		cfg:    cfg,
		logger: cfg.Logger,
		drafts: make(map[string]*Entry),
	}
}

// Create registers a new draft in the setup state
func (m *Manager) Create() *Entry {
	id := uuid.NewString()
	mic := capture.NewMicrophone(m.cfg.MaxAudioBytes)
	cam := capture.NewCamera()

	ctrl := NewController(id, Config{
		Profiles:    m.cfg.Profiles,
		Exercises:   m.cfg.Exercises,
		Audio:       mic,
		Video:       cam,
		Classifier:  m.cfg.Classifier,
		Synthesizer: m.cfg.Synthesizer,
		Sampler:     m.cfg.Sampler,
		Logger:      m.logger,
		Listener:    m.onEvent,
	})

	entry := &Entry{
		ID:         id,
		Controller: ctrl,
		Microphone: mic,
		Camera:     cam,
		CreatedAt:  time.Now(),
	}

	m.mu.Lock()
	m.drafts[id] = entry
	m.mu.Unlock()

	metrics.ActiveDrafts.Inc()
	m.logger.WithField("draft_id", id).Debug("Draft created")
	return entry
}

// Get returns a draft by ID
func (m *Manager) Get(id string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.drafts[id]
	if !ok {
		return nil, fmt.Errorf("%w: draft %s", models.ErrNotFound, id)
	}
	return entry, nil
}

// Delete closes a draft and forgets it
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	entry, ok := m.drafts[id]
	delete(m.drafts, id)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: draft %s", models.ErrNotFound, id)
	}
	entry.Controller.Close()
	metrics.ActiveDrafts.Dec()
	return nil
}

// Count returns the number of registered drafts
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.drafts)
}

// PruneIdle deletes drafts with no activity for maxAge, whatever their state.
// Drafts that are analyzing or hold a record whose save failed are kept so
// the session can still be saved.
func (m *Manager) PruneIdle(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.RLock()
	var stale []string
	for id, entry := range m.drafts {
		ctrl := entry.Controller
		if ctrl.LastActive().After(cutoff) {
			continue
		}
		snap := ctrl.Snapshot()
		if snap.PendingSave || snap.Analyzing {
			m.logger.WithFields(logrus.Fields{
				"draft_id":     id,
				"pending_save": snap.PendingSave,
			}).Warn("Keeping idle draft with an unsaved session")
			continue
		}
		stale = append(stale, id)
	}
	m.mu.RUnlock()

	for _, id := range stale {
		_ = m.Delete(id)
	}
	return len(stale)
}

// Close closes every draft
func (m *Manager) Close() {
	m.mu.Lock()
	entries := m.drafts
	m.drafts = make(map[string]*Entry)
	m.mu.Unlock()

	for _, entry := range entries {
		entry.Controller.Close()
		metrics.ActiveDrafts.Dec()
	}
}

func (m *Manager) onEvent(ev Event) {
	if ev.Type == EventCompleted && ev.Record != nil && m.cfg.OnSaved != nil {
		m.cfg.OnSaved(ev.Record)
	}
}
