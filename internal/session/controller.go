// Package session implements the lifecycle of one speech practice session:
// setup, an active phase of recording and advancing through words while the
// emotion sampler adjusts difficulty, and completion with a saved result.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"speechcoach/internal/analysis"
	"speechcoach/internal/capture"
	"speechcoach/internal/emotion"
	"speechcoach/internal/metrics"
	"speechcoach/internal/models"
	"speechcoach/internal/recording"
)

// ProfileSource looks up child profiles
type ProfileSource interface {
	Get(ctx context.Context, id int64) (*models.ChildProfile, error)
}

// ExerciseSource looks up exercises
type ExerciseSource interface {
	Get(ctx context.Context, id int64) (*models.Exercise, error)
}

// Synthesizer scores a finished draft and saves the result
type Synthesizer interface {
	Compose(ctx context.Context, in analysis.Input) *models.SessionRecord
	Save(ctx context.Context, rec *models.SessionRecord) (*models.SessionRecord, error)
}

// Config wires a controller to its collaborators. Video and Classifier are
// optional; without them the session runs without emotion sampling.
type Config struct {
	Profiles    ProfileSource
	Exercises   ExerciseSource
	Audio       capture.AudioSource
	Video       capture.VideoSource
	Classifier  emotion.Classifier
	Synthesizer Synthesizer
	Sampler     emotion.SamplerConfig
	Logger      logrus.FieldLogger
	// Listener, when set, receives every event synchronously after the state change
	Listener func(Event)
}

// Controller is the state machine of one session draft. Its methods are safe
// to call from several goroutines, but callers are expected to drive one
// draft from one place.
type Controller struct {
	id     string
	cfg    Config
	logger logrus.FieldLogger
	events *broadcaster

	mu          sync.Mutex
	state       State
	gen         uint64
	draft       *draft
	analyzing   bool
	saving      bool
	record      *models.SessionRecord
	unsaved     *models.SessionRecord
	lastErr     error
	sampler     *emotion.Sampler
	stopSampler context.CancelFunc
	video       capture.VideoHandle
	lastActive  time.Time
}

// NewController creates a controller in the setup state
func NewController(id string, cfg Config) *Controller {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	return &Controller{
		id:         id,
		cfg:        cfg,
		logger:     cfg.Logger.WithField("draft_id", id),
		events:     newBroadcaster(),
		state:      StateSetup,
		lastActive: time.Now(),
	}
}

// ID returns the draft ID
func (c *Controller) ID() string {
	return c.id
}

// Subscribe returns a channel of events and a function that ends the subscription
func (c *Controller) Subscribe() (<-chan Event, func()) {
	return c.events.subscribe()
}

// Touch marks the draft as in use without changing its state
func (c *Controller) Touch() {
	c.mu.Lock()
	c.lastActive = time.Now()
	c.mu.Unlock()
}

// LastActive returns when the draft last changed or was touched
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// Start moves the draft from setup to active
func (c *Controller) Start(ctx context.Context, req StartRequest) error {
	if req.ProfileID <= 0 {
		return fmt.Errorf("%w: a profile must be selected", models.ErrValidation)
	}
	if req.ExerciseID <= 0 {
		return fmt.Errorf("%w: an exercise must be selected", models.ErrValidation)
	}
	if err := c.requireState(StateSetup); err != nil {
		return err
	}

	profile, err := c.cfg.Profiles.Get(ctx, req.ProfileID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("%w: profile %d does not exist", models.ErrValidation, req.ProfileID)
		}
		return fmt.Errorf("failed to load profile: %w", err)
	}
	exercise, err := c.cfg.Exercises.Get(ctx, req.ExerciseID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("%w: exercise %d does not exist", models.ErrValidation, req.ExerciseID)
		}
		return fmt.Errorf("failed to load exercise: %w", err)
	}

	words := lo.Filter(lo.Map(exercise.WordList, func(w string, _ int) string {
		return strings.TrimSpace(w)
	}), func(w string, _ int) bool { return w != "" })
	if len(words) == 0 {
		return fmt.Errorf("%w: exercise %q has no words", models.ErrValidation, exercise.Title)
	}

	language := profile.DefaultLanguage()
	if req.Language != "" {
		if language, err = models.ParseLanguage(string(req.Language)); err != nil {
			return err
		}
	}

	d := &draft{
		profileID:  profile.ID,
		exerciseID: exercise.ID,
		language:   language,
		words:      words,
		difficulty: profile.DefaultDifficulty(),
		recordings: recording.NewManager(c.cfg.Audio),
		emotions:   emotion.NewLog(),
	}

	c.mu.Lock()
	if c.state != StateSetup {
		c.mu.Unlock()
		return fmt.Errorf("%w: session already %s", models.ErrInvalidState, c.state)
	}
	c.releaseLocked()
	c.gen++
	gen := c.gen
	c.draft = d
	c.state = StateActive
	ev := c.eventLocked(EventStarted)
	c.mu.Unlock()

	metrics.SessionTransitions.WithLabelValues(string(StateActive)).Inc()
	c.logger.WithFields(logrus.Fields{
		"profile_id":  d.profileID,
		"exercise_id": d.exerciseID,
		"words":       len(words),
		"difficulty":  d.difficulty,
	}).Info("Session started")
	c.publish(ev)

	c.startSampler(ctx, gen, d)
	return nil
}

func (c *Controller) startSampler(ctx context.Context, gen uint64, d *draft) {
	if c.cfg.Video == nil || c.cfg.Classifier == nil {
		return
	}

	handle, err := c.cfg.Video.Acquire(ctx)
	if err != nil {
		c.logger.WithError(err).Warn("Camera unavailable, continuing without emotion sampling")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.state != StateActive {
		_ = handle.Close()
		return
	}

	sampler := emotion.NewSampler(c.cfg.Classifier, d.emotions, c.cfg.Sampler, c.logger, func(models.EmotionSample) {
		c.onSampled(gen)
	})
	runCtx, cancel := context.WithCancel(context.Background())
	c.sampler = sampler
	c.stopSampler = cancel
	c.video = handle
	go sampler.Run(runCtx, handle)
}

// onSampled runs the difficulty policy after the sampler appended a sample
func (c *Controller) onSampled(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.state != StateActive {
		c.mu.Unlock()
		return
	}
	events := c.applyPolicyLocked()
	c.mu.Unlock()

	c.publish(events...)
}

// ObserveEmotion records an already classified sample and re-evaluates difficulty
func (c *Controller) ObserveEmotion(sample models.EmotionSample) error {
	if !sample.Label.Valid() {
		return fmt.Errorf("%w: unknown emotion %q", models.ErrValidation, sample.Label)
	}
	sample.Confidence = models.ClampScore(sample.Confidence)
	if sample.CapturedAt.IsZero() {
		sample.CapturedAt = time.Now().UTC()
	}

	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return fmt.Errorf("%w: session is %s", models.ErrInvalidState, c.state)
	}
	c.draft.emotions.Append(sample)
	events := c.applyPolicyLocked()
	c.mu.Unlock()

	c.publish(events...)
	return nil
}

func (c *Controller) applyPolicyLocked() []Event {
	d := c.draft
	latest, _ := d.emotions.Latest()
	sampled := c.eventLocked(EventEmotionSampled)
	sampled.Emotion = &latest
	events := []Event{sampled}

	next, changed := emotion.NextDifficulty(d.emotions.Window(), d.difficulty)
	if !changed {
		return events
	}

	previous := d.difficulty
	d.difficulty = next
	metrics.DifficultyChanges.WithLabelValues(string(previous), string(next)).Inc()
	c.logger.WithFields(logrus.Fields{
		"from": previous,
		"to":   next,
	}).Info("Difficulty adjusted")

	changedEv := c.eventLocked(EventDifficultyChanged)
	changedEv.Previous = previous
	return append(events, changedEv)
}

// BeginRecording opens a capture for the current word
func (c *Controller) BeginRecording(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return fmt.Errorf("%w: session is %s", models.ErrInvalidState, c.state)
	}
	d := c.draft
	index, word := d.index, d.currentWord()
	c.mu.Unlock()

	if err := d.recordings.Begin(ctx, index, word); err != nil {
		return err
	}

	c.mu.Lock()
	ev := c.eventLocked(EventRecordingStarted)
	c.mu.Unlock()
	c.publish(ev)
	return nil
}

// EndRecording closes the open capture and stores it for its word
func (c *Controller) EndRecording() (models.WordRecording, error) {
	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return models.WordRecording{}, fmt.Errorf("%w: session is %s", models.ErrInvalidState, c.state)
	}
	d := c.draft
	c.mu.Unlock()

	rec, err := d.recordings.End()
	if err != nil {
		return rec, err
	}

	c.logger.WithFields(logrus.Fields{
		"word":  rec.Word,
		"bytes": len(rec.Audio),
	}).Debug("Word recorded")

	c.mu.Lock()
	ev := c.eventLocked(EventRecordingStopped)
	ev.WordIndex = rec.Index
	ev.Word = rec.Word
	c.mu.Unlock()
	c.publish(ev)
	return rec, nil
}

// Advance moves past the current word once it has been recorded. Advancing
// past the last word completes the session and synthesizes its result; that
// call returns when the result is saved or saving has failed.
func (c *Controller) Advance(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return fmt.Errorf("%w: session is %s", models.ErrInvalidState, c.state)
	}
	d := c.draft
	if _, word, open := d.recordings.Active(); open {
		c.mu.Unlock()
		return fmt.Errorf("%w: stop recording %q before advancing", models.ErrResourceBusy, word)
	}
	if !d.recordings.Has(d.index) {
		word := d.currentWord()
		c.mu.Unlock()
		return fmt.Errorf("%w: %q", models.ErrPrecursorMissing, word)
	}

	word := d.currentWord()
	d.completed = append(d.completed, word)
	advanced := c.eventLocked(EventWordAdvanced)
	advanced.Word = word

	if !d.last() {
		d.index++
		c.mu.Unlock()
		c.publish(advanced)
		return nil
	}

	c.state = StateComplete
	c.analyzing = true
	c.stopSamplerLocked()
	input := d.input()
	gen := c.gen
	analyzing := c.eventLocked(EventAnalyzing)
	c.mu.Unlock()

	metrics.SessionTransitions.WithLabelValues(string(StateComplete)).Inc()
	c.publish(advanced, analyzing)

	return c.finish(context.WithoutCancel(ctx), gen, input)
}

// finish synthesizes and saves the result of a completed draft. Results of a
// draft that was reset in the meantime are dropped before saving.
func (c *Controller) finish(ctx context.Context, gen uint64, input analysis.Input) error {
	rec := c.cfg.Synthesizer.Compose(ctx, input)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		c.logger.Debug("Discarding analysis of a reset session")
		return nil
	}
	c.mu.Unlock()

	saved, err := c.cfg.Synthesizer.Save(ctx, rec)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return nil
	}
	c.analyzing = false

	if err != nil {
		c.state = StateSetup
		c.unsaved = rec
		c.lastErr = err
		failed := c.eventLocked(EventSaveFailed)
		failed.Error = err.Error()
		c.mu.Unlock()

		metrics.SessionTransitions.WithLabelValues(string(StateSetup)).Inc()
		c.publish(failed)
		return err
	}

	c.record = saved
	completed := c.eventLocked(EventCompleted)
	completed.Record = saved
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"session_id": saved.ID,
		"source":     saved.AnalysisSource,
	}).Info("Session saved")
	c.publish(completed)
	return nil
}

// RetrySave re-attempts saving a result whose first save failed
func (c *Controller) RetrySave(ctx context.Context) (*models.SessionRecord, error) {
	c.mu.Lock()
	if c.state != StateSetup || c.unsaved == nil || c.saving {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: nothing to save", models.ErrInvalidState)
	}
	rec := c.unsaved
	gen := c.gen
	c.saving = true
	c.mu.Unlock()

	saved, err := c.cfg.Synthesizer.Save(context.WithoutCancel(ctx), rec)

	c.mu.Lock()
	c.saving = false
	if gen != c.gen {
		c.mu.Unlock()
		return saved, err
	}
	if err != nil {
		c.lastErr = err
		c.mu.Unlock()
		return nil, err
	}

	c.state = StateComplete
	c.unsaved = nil
	c.lastErr = nil
	c.record = saved
	completed := c.eventLocked(EventCompleted)
	completed.Record = saved
	c.mu.Unlock()

	metrics.SessionTransitions.WithLabelValues(string(StateComplete)).Inc()
	c.publish(completed)
	return saved, nil
}

// Reset abandons or clears the draft and returns to setup. Open captures are
// released and in-flight classification or analysis results are discarded.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.gen++
	c.releaseLocked()
	c.state = StateSetup
	ev := c.eventLocked(EventReset)
	c.mu.Unlock()

	metrics.SessionTransitions.WithLabelValues(string(StateSetup)).Inc()
	c.logger.Info("Session reset")
	c.publish(ev)
}

// Close resets the draft and ends every subscription
func (c *Controller) Close() {
	c.Reset()
	c.events.close()
}

// Snapshot returns the current view of the draft
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		DraftID:        c.id,
		State:          c.state,
		Analyzing:      c.analyzing,
		Words:          []string{},
		CompletedWords: []string{},
		RecentEmotions: []models.EmotionSample{},
		Mood:           models.MoodSteady,
		Record:         c.record,
		PendingSave:    c.unsaved != nil,
	}
	if c.lastErr != nil {
		snap.Error = c.lastErr.Error()
	}
	if c.sampler != nil {
		snap.Degraded = c.sampler.Degraded()
	}

	d := c.draft
	if d == nil {
		return snap
	}

	snap.ProfileID = d.profileID
	snap.ExerciseID = d.exerciseID
	snap.Language = d.language
	snap.Words = append(snap.Words, d.words...)
	snap.CurrentWordIndex = d.index
	snap.CurrentWord = d.currentWord()
	snap.Difficulty = d.difficulty
	_, _, snap.Recording = d.recordings.Active()
	snap.CurrentRecorded = d.recordings.Has(d.index)
	snap.RecordingCount = d.recordings.Count()
	snap.CompletedWords = append(snap.CompletedWords, d.completed...)
	snap.EmotionCount = d.emotions.Len()
	snap.RecentEmotions = d.emotions.Recent(emotion.DisplaySize)
	if latest, ok := d.emotions.Latest(); ok {
		snap.LatestEmotion = &latest
	}
	snap.Mood = emotion.MoodOf(d.emotions.Window())
	return snap
}

func (c *Controller) requireState(want State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != want {
		return fmt.Errorf("%w: session is %s", models.ErrInvalidState, c.state)
	}
	return nil
}

func (c *Controller) stopSamplerLocked() {
	if c.stopSampler != nil {
		c.stopSampler()
		c.stopSampler = nil
	}
}

// releaseLocked drops the draft and everything it holds. The camera is
// closed here so a new Start can acquire it at once.
func (c *Controller) releaseLocked() {
	c.stopSamplerLocked()
	if c.video != nil {
		if err := c.video.Close(); err != nil {
			c.logger.WithError(err).Warn("Failed to close camera")
		}
		c.video = nil
	}
	if c.sampler != nil {
		c.sampler.Close()
		c.sampler = nil
	}
	if c.draft != nil {
		c.draft.recordings.Release()
		c.draft = nil
	}
	c.analyzing = false
	c.record = nil
	c.unsaved = nil
	c.lastErr = nil
}

func (c *Controller) eventLocked(t EventType) Event {
	now := time.Now()
	c.lastActive = now
	ev := Event{
		Type:    t,
		DraftID: c.id,
		State:   c.state,
		At:      now.UTC(),
	}
	if d := c.draft; d != nil {
		ev.WordIndex = d.index
		ev.Word = d.currentWord()
		ev.Difficulty = d.difficulty
	}
	return ev
}

func (c *Controller) publish(events ...Event) {
	for _, ev := range events {
		if dropped := c.events.publish(ev); dropped > 0 {
			c.logger.WithFields(logrus.Fields{
				"event":   ev.Type,
				"dropped": dropped,
			}).Warn("Event subscribers falling behind")
		}
		if c.cfg.Listener != nil {
			c.cfg.Listener(ev)
		}
	}
}

func (d *draft) input() analysis.Input {
	return analysis.Input{
		ProfileID:  d.profileID,
		ExerciseID: d.exerciseID,
		Language:   d.language,
		Difficulty: d.difficulty,
		Words:      append([]string(nil), d.words...),
		Completed:  append([]string(nil), d.completed...),
		Recordings: d.recordings.Recordings(),
		Emotions:   d.emotions.All(),
	}
}
