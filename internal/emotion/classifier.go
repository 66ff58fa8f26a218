package emotion

import (
	"context"
	"time"

	"speechcoach/internal/capture"
	"speechcoach/internal/models"
)

// Classifier labels the child's expression in a still frame
type Classifier interface {
	Classify(ctx context.Context, frame capture.Frame) (models.EmotionSample, error)
}

// ClassifierFunc adapts a function to the Classifier interface
type ClassifierFunc func(ctx context.Context, frame capture.Frame) (models.EmotionSample, error)

// Classify calls f
func (f ClassifierFunc) Classify(ctx context.Context, frame capture.Frame) (models.EmotionSample, error) {
	return f(ctx, frame)
}

// FallbackSample is recorded in place of a failed classification
func FallbackSample(at time.Time) models.EmotionSample {
	return models.EmotionSample{
		Label:       models.EmotionNeutral,
		Confidence:  50,
		Description: "unavailable",
		CapturedAt:  at,
		Fallback:    true,
	}
}
