package emotion

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"speechcoach/internal/capture"
	"speechcoach/internal/metrics"
	"speechcoach/internal/models"
)

// SamplerConfig tunes the Sampler
type SamplerConfig struct {
	Interval      time.Duration // time between frame snapshots
	Timeout       time.Duration // bound on one classifier call
	DegradedAfter int           // consecutive fallbacks before reporting degraded mode
}

// DefaultSamplerConfig returns the intervals used during a live session
func DefaultSamplerConfig() SamplerConfig {
	return SamplerConfig{
		Interval:      3 * time.Second,
		Timeout:       10 * time.Second,
		DegradedAfter: 3,
	}
}

// Sampler classifies camera frames and appends the results to a Log.
// At most one classification runs at a time; a frame offered while one is in
// flight replaces any earlier waiting frame and is classified next.
type Sampler struct {
	classifier Classifier
	log        *Log
	onSample   func(models.EmotionSample)
	logger     logrus.FieldLogger
	cfg        SamplerConfig
	now        func() time.Time

	sem *semaphore.Weighted
	wg  sync.WaitGroup

	mu       sync.Mutex
	pending  *capture.Frame
	failures int
	degraded bool
}

// NewSampler creates a sampler writing to log. onSample, when set, is called
// after each sample is appended.
func NewSampler(classifier Classifier, log *Log, cfg SamplerConfig, logger logrus.FieldLogger, onSample func(models.EmotionSample)) *Sampler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultSamplerConfig().Interval
	}
	if cfg.DegradedAfter <= 0 {
		cfg.DegradedAfter = DefaultSamplerConfig().DegradedAfter
	}
	return &Sampler{
		classifier: classifier,
		log:        log,
		onSample:   onSample,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
		sem:        semaphore.NewWeighted(1),
	}
}

// Run snapshots the camera every interval and offers each frame until ctx is
// cancelled. It closes the handle on return and does not wait for a
// classification still in flight; its result is discarded.
func (s *Sampler) Run(ctx context.Context, handle capture.VideoHandle) {
	defer func() {
		if err := handle.Close(); err != nil {
			s.logger.WithError(err).Warn("Failed to close camera")
		}
	}()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			frame, err := handle.Snapshot(ctx)
			if err != nil {
				s.logger.WithError(err).Debug("No frame to classify")
				continue
			}
			s.Offer(ctx, frame)
		}
	}
}

// Offer submits a frame for classification. It returns false when a
// classification is already running and the frame was queued instead.
func (s *Sampler) Offer(ctx context.Context, frame capture.Frame) bool {
	s.mu.Lock()
	if !s.sem.TryAcquire(1) {
		s.pending = &frame
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.drain(ctx, frame)
	}()
	return true
}

// Wait blocks until no classification is running
func (s *Sampler) Wait() {
	s.wg.Wait()
}

// Degraded reports whether the last DegradedAfter classifications all fell back
func (s *Sampler) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// drain classifies frame and then any frame queued meanwhile, holding the semaphore throughout
func (s *Sampler) drain(ctx context.Context, frame capture.Frame) {
	for {
		s.sample(ctx, frame)

		s.mu.Lock()
		if s.pending == nil || ctx.Err() != nil {
			s.pending = nil
			s.sem.Release(1)
			s.mu.Unlock()
			return
		}
		frame = *s.pending
		s.pending = nil
		s.mu.Unlock()
	}
}

func (s *Sampler) sample(ctx context.Context, frame capture.Frame) {
	sample, err := s.classify(ctx, frame)

	// a reset happened while classifying
	if ctx.Err() != nil {
		metrics.Classifications.WithLabelValues("discarded").Inc()
		return
	}

	if err != nil {
		s.logger.WithError(err).Warn("Emotion classification failed, using neutral fallback")
		sample = FallbackSample(s.now())
		metrics.Classifications.WithLabelValues("fallback").Inc()
	} else {
		metrics.Classifications.WithLabelValues("ok").Inc()
	}
	s.track(err != nil)

	s.log.Append(sample)
	if s.onSample != nil {
		s.onSample(sample)
	}
}

func (s *Sampler) classify(ctx context.Context, frame capture.Frame) (sample models.EmotionSample, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("classifier panic: %v", r)
		}
	}()

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	sample, err = s.classifier.Classify(ctx, frame)
	if err != nil {
		return sample, err
	}
	if !sample.Label.Valid() {
		return sample, fmt.Errorf("unknown emotion label %q", sample.Label)
	}
	sample.Confidence = models.ClampScore(sample.Confidence)
	if sample.CapturedAt.IsZero() {
		sample.CapturedAt = frame.CapturedAt
	}
	if sample.CapturedAt.IsZero() {
		sample.CapturedAt = s.now()
	}
	return sample, nil
}

func (s *Sampler) track(failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !failed {
		s.failures = 0
		if s.degraded {
			s.degraded = false
			metrics.DegradedSamplers.Dec()
			s.logger.Info("Emotion classification recovered")
		}
		return
	}

	s.failures++
	if !s.degraded && s.failures >= s.cfg.DegradedAfter {
		s.degraded = true
		metrics.DegradedSamplers.Inc()
		s.logger.WithField("failures", s.failures).Warn("Emotion classification degraded")
	}
}

// Close clears the degraded gauge contribution of this sampler
func (s *Sampler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.degraded {
		s.degraded = false
		metrics.DegradedSamplers.Dec()
	}
}
