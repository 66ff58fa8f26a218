package models

import "time"

// EmotionLabel is one of the fixed classifier labels
type EmotionLabel string

const (
	EmotionHappy      EmotionLabel = "happy"
	EmotionConfident  EmotionLabel = "confident"
	EmotionNeutral    EmotionLabel = "neutral"
	EmotionFrustrated EmotionLabel = "frustrated"
	EmotionSad        EmotionLabel = "sad"
	EmotionAnxious    EmotionLabel = "anxious"
)

// EmotionLabels lists every label the classifier may return
var EmotionLabels = []EmotionLabel{
	EmotionHappy,
	EmotionConfident,
	EmotionNeutral,
	EmotionFrustrated,
	EmotionSad,
	EmotionAnxious,
}

// Valid reports whether l is a known label
func (l EmotionLabel) Valid() bool {
	for _, known := range EmotionLabels {
		if l == known {
			return true
		}
	}
	return false
}

// Positive reports whether l counts as a positive signal
func (l EmotionLabel) Positive() bool {
	return l == EmotionHappy || l == EmotionConfident
}

// Negative reports whether l counts as a negative signal
func (l EmotionLabel) Negative() bool {
	return l == EmotionFrustrated || l == EmotionSad || l == EmotionAnxious
}

// EmotionSample is one classified camera frame. Samples are immutable once created.
type EmotionSample struct {
	Label       EmotionLabel `json:"label"`
	Confidence  float64      `json:"confidence"`
	Description string       `json:"description"`
	CapturedAt  time.Time    `json:"captured_at"`
	Fallback    bool         `json:"fallback,omitempty"`
}

// Mood summarizes a handful of samples for display
type Mood string

const (
	MoodPositive Mood = "positive"
	MoodNegative Mood = "negative"
	MoodSteady   Mood = "steady"
)

// CountEmotions returns the number of positive and negative samples
func CountEmotions(samples []EmotionSample) (positive, negative int) {
	for _, s := range samples {
		switch {
		case s.Label.Positive():
			positive++
		case s.Label.Negative():
			negative++
		}
	}
	return positive, negative
}
