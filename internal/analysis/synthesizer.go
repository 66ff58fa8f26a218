package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"speechcoach/internal/metrics"
	"speechcoach/internal/models"
)

// Config bounds the external calls made during synthesis
type Config struct {
	AnalysisTimeout time.Duration
	UploadTimeout   time.Duration
	SecondsPerWord  int
}

// DefaultConfig returns the timeouts used in production
func DefaultConfig() Config {
	return Config{
		AnalysisTimeout: 30 * time.Second,
		UploadTimeout:   15 * time.Second,
		SecondsPerWord:  5,
	}
}

// Synthesizer produces and saves the SessionRecord of a finished draft
type Synthesizer struct {
	analyzer Analyzer
	uploader Uploader
	store    Store
	cfg      Config
	logger   logrus.FieldLogger
	now      func() time.Time
}

// NewSynthesizer creates a synthesizer. analyzer and uploader may be nil, in
// which case every session is scored by the fallback.
func NewSynthesizer(analyzer Analyzer, uploader Uploader, store Store, cfg Config, logger logrus.FieldLogger) *Synthesizer {
	if cfg.SecondsPerWord <= 0 {
		cfg.SecondsPerWord = DefaultConfig().SecondsPerWord
	}
	return &Synthesizer{
		analyzer: analyzer,
		uploader: uploader,
		store:    store,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Compose scores the session without saving it. It never fails.
func (s *Synthesizer) Compose(ctx context.Context, in Input) *models.SessionRecord {
	start := s.now()
	defer func() { metrics.AnalysisLatency.Observe(time.Since(start).Seconds()) }()

	outcome := s.Primary(ctx, in)

	result := outcome.Result
	source := SourceAI
	if !outcome.Available {
		result = Fallback(in)
		source = SourceFallback
	}
	metrics.Analyses.WithLabelValues(source).Inc()

	s.logger.WithFields(logrus.Fields{
		"profile_id": in.ProfileID,
		"words":      len(in.Completed),
		"source":     source,
	}).Info("Session analysis complete")

	return &models.SessionRecord{
		ProfileID:          in.ProfileID,
		ExerciseID:         in.ExerciseID,
		LanguageUsed:       in.Language,
		DifficultyReached:  in.Difficulty,
		DurationSeconds:    len(in.Recordings) * s.cfg.SecondsPerWord,
		RecordingURL:       outcome.AudioURL,
		Transcript:         result.Transcript,
		ClarityScore:       models.ClampScore(result.ClarityScore),
		FluencyScore:       models.ClampScore(result.FluencyScore),
		ConfidenceScore:    models.ClampScore(result.ConfidenceScore),
		AIFeedback:         result.AIFeedback,
		PositiveNotes:      result.PositiveNotes,
		AreasOfImprovement: result.AreasOfImprovement,
		AnalysisSource:     source,
	}
}

// Save hands the record to the store
func (s *Synthesizer) Save(ctx context.Context, rec *models.SessionRecord) (*models.SessionRecord, error) {
	saved, err := s.store.Create(ctx, rec)
	if err != nil {
		metrics.PersistenceFailures.Inc()
		s.logger.WithError(err).WithField("profile_id", rec.ProfileID).Error("Failed to save session")
		return nil, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}
	return saved, nil
}

// Primary uploads the combined audio and asks the analysis service for a
// result. Every failure is logged and reported as an unavailable outcome.
func (s *Synthesizer) Primary(ctx context.Context, in Input) Outcome {
	if s.analyzer == nil || s.uploader == nil {
		return Outcome{}
	}

	url, err := s.upload(ctx, in)
	if err != nil {
		metrics.UploadFailures.Inc()
		s.logger.WithError(err).Warn("Audio upload unavailable, using fallback analysis")
		return Outcome{}
	}

	result, err := s.analyze(ctx, Request{
		Prompt:   BuildPrompt(in),
		AudioURL: url,
		Schema:   ResultSchema,
	})
	if err != nil {
		s.logger.WithError(err).Warn("AI analysis unavailable, using fallback analysis")
		return Outcome{AudioURL: url}
	}
	return Outcome{Result: result, Available: true, AudioURL: url}
}

func (s *Synthesizer) upload(ctx context.Context, in Input) (string, error) {
	if s.cfg.UploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.UploadTimeout)
		defer cancel()
	}

	var combined bytes.Buffer
	for _, rec := range in.Recordings {
		combined.Write(rec.Audio)
	}
	if combined.Len() == 0 {
		return "", errors.New("no audio captured")
	}

	return s.uploader.Upload(ctx, "session.webm", "audio/webm", combined.Bytes())
}

func (s *Synthesizer) analyze(ctx context.Context, req Request) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analyzer panic: %v", r)
		}
	}()

	if s.cfg.AnalysisTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.AnalysisTimeout)
		defer cancel()
	}

	result, err = s.analyzer.Analyze(ctx, req)
	if err != nil {
		return Result{}, err
	}
	if err := result.validate(); err != nil {
		return Result{}, err
	}
	return result, nil
}

func (r Result) validate() error {
	for _, score := range []float64{r.ClarityScore, r.FluencyScore, r.ConfidenceScore} {
		if math.IsNaN(score) || math.IsInf(score, 0) {
			return errors.New("malformed analysis: score is not a number")
		}
	}
	if r.Transcript == "" && r.AIFeedback == "" {
		return errors.New("malformed analysis: empty result")
	}
	return nil
}
