package emotion

import (
	"github.com/samber/lo"

	"speechcoach/internal/models"
)

const (
	stepDownThreshold = 3
	stepUpThreshold   = 4
)

// NextDifficulty decides the difficulty after a new sample. Only the newest
// WindowSize samples of window are considered. Three or more negative samples
// drop straight to beginner; four or more positive samples raise one level.
func NextDifficulty(window []models.EmotionSample, current models.Difficulty) (models.Difficulty, bool) {
	if len(window) > WindowSize {
		window = window[len(window)-WindowSize:]
	}

	negative := lo.CountBy(window, func(s models.EmotionSample) bool { return s.Label.Negative() })
	positive := lo.CountBy(window, func(s models.EmotionSample) bool { return s.Label.Positive() })

	switch {
	case negative >= stepDownThreshold && current != models.DifficultyBeginner:
		return models.DifficultyBeginner, true
	case positive >= stepUpThreshold && current == models.DifficultyBeginner:
		return models.DifficultyIntermediate, true
	case positive >= stepUpThreshold && current == models.DifficultyIntermediate:
		return models.DifficultyAdvanced, true
	}
	return current, false
}

// MoodOf summarizes samples as positive, negative or steady
func MoodOf(samples []models.EmotionSample) models.Mood {
	positive, negative := models.CountEmotions(samples)
	switch {
	case positive > negative:
		return models.MoodPositive
	case negative > positive:
		return models.MoodNegative
	default:
		return models.MoodSteady
	}
}
