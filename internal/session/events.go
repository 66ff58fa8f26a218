package session

import (
	"sync"
	"time"

	"speechcoach/internal/models"
)

// EventType names a controller event
type EventType string

const (
	EventStarted           EventType = "started"
	EventRecordingStarted  EventType = "recording_started"
	EventRecordingStopped  EventType = "recording_stopped"
	EventWordAdvanced      EventType = "word_advanced"
	EventEmotionSampled    EventType = "emotion_sampled"
	EventDifficultyChanged EventType = "difficulty_changed"
	EventAnalyzing         EventType = "analyzing"
	EventCompleted         EventType = "completed"
	EventSaveFailed        EventType = "save_failed"
	EventReset             EventType = "reset"
)

// Event is published after every state change of a draft
type Event struct {
	Type       EventType             `json:"type"`
	DraftID    string                `json:"draft_id"`
	State      State                 `json:"state"`
	WordIndex  int                   `json:"word_index"`
	Word       string                `json:"word,omitempty"`
	Difficulty models.Difficulty     `json:"difficulty,omitempty"`
	Previous   models.Difficulty     `json:"previous_difficulty,omitempty"`
	Emotion    *models.EmotionSample `json:"emotion,omitempty"`
	Record     *models.SessionRecord `json:"record,omitempty"`
	Error      string                `json:"error,omitempty"`
	At         time.Time             `json:"at"`
}

// subscriberBuffer is the number of events a slow subscriber may fall behind
// before further events are dropped for it
const subscriberBuffer = 32

// broadcaster fans events out to channel subscribers without blocking the publisher
type broadcaster struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	closed bool
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[int]chan Event)}
}

func (b *broadcaster) subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	b.nextID++
	id := b.nextID
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
}

// publish returns the number of subscribers that missed the event
func (b *broadcaster) publish(ev Event) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	dropped := 0
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			dropped++
		}
	}
	return dropped
}

func (b *broadcaster) close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

func (b *broadcaster) count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
