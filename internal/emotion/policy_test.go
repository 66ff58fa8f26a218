package emotion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"speechcoach/internal/models"
)

func samples(labels ...models.EmotionLabel) []models.EmotionSample {
	out := make([]models.EmotionSample, len(labels))
	for i, l := range labels {
		out[i] = models.EmotionSample{Label: l, Confidence: 80}
	}
	return out
}

const (
	happy      = models.EmotionHappy
	confident  = models.EmotionConfident
	neutral    = models.EmotionNeutral
	frustrated = models.EmotionFrustrated
	sad        = models.EmotionSad
	anxious    = models.EmotionAnxious
)

func TestNextDifficulty(t *testing.T) {
	tests := []struct {
		name        string
		window      []models.EmotionSample
		current     models.Difficulty
		want        models.Difficulty
		wantChanged bool
	}{
		{
			name:        "three frustrated at advanced floors to beginner",
			window:      samples(frustrated, frustrated, frustrated),
			current:     models.DifficultyAdvanced,
			want:        models.DifficultyBeginner,
			wantChanged: true,
		},
		{
			name:        "mixed negatives at intermediate floors to beginner",
			window:      samples(sad, happy, anxious, neutral, frustrated),
			current:     models.DifficultyIntermediate,
			want:        models.DifficultyBeginner,
			wantChanged: true,
		},
		{
			name:    "negatives at beginner stay",
			window:  samples(sad, sad, sad, sad, sad),
			current: models.DifficultyBeginner,
			want:    models.DifficultyBeginner,
		},
		{
			name:        "four confident at intermediate steps to advanced",
			window:      samples(confident, confident, confident, confident),
			current:     models.DifficultyIntermediate,
			want:        models.DifficultyAdvanced,
			wantChanged: true,
		},
		{
			name:        "four positive at beginner steps to intermediate only",
			window:      samples(happy, confident, neutral, happy, happy),
			current:     models.DifficultyBeginner,
			want:        models.DifficultyIntermediate,
			wantChanged: true,
		},
		{
			name:    "advanced never steps up",
			window:  samples(happy, happy, happy, happy, happy),
			current: models.DifficultyAdvanced,
			want:    models.DifficultyAdvanced,
		},
		{
			name:    "two negative two positive one neutral is no change",
			window:  samples(frustrated, happy, sad, confident, neutral),
			current: models.DifficultyIntermediate,
			want:    models.DifficultyIntermediate,
		},
		{
			name:    "three positive is not enough",
			window:  samples(happy, happy, happy, neutral, neutral),
			current: models.DifficultyBeginner,
			want:    models.DifficultyBeginner,
		},
		{
			name:    "only the newest five count",
			window:  samples(frustrated, frustrated, frustrated, neutral, neutral, neutral, neutral, neutral),
			current: models.DifficultyAdvanced,
			want:    models.DifficultyAdvanced,
		},
		{
			name:    "empty window",
			window:  nil,
			current: models.DifficultyIntermediate,
			want:    models.DifficultyIntermediate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := NextDifficulty(tt.window, tt.current)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantChanged, changed)
		})
	}
}

func TestNextDifficultySlidingWindow(t *testing.T) {
	log := NewLog()
	current := models.DifficultyAdvanced
	var history []models.Difficulty

	for _, label := range []models.EmotionLabel{happy, frustrated, neutral, sad, anxious, happy} {
		log.Append(models.EmotionSample{Label: label})
		current, _ = NextDifficulty(log.Window(), current)
		history = append(history, current)
	}

	// the third negative arrives with the fifth sample
	assert.Equal(t, []models.Difficulty{
		models.DifficultyAdvanced,
		models.DifficultyAdvanced,
		models.DifficultyAdvanced,
		models.DifficultyAdvanced,
		models.DifficultyBeginner,
		models.DifficultyBeginner,
	}, history)
}

func TestMoodOf(t *testing.T) {
	assert.Equal(t, models.MoodPositive, MoodOf(samples(happy, happy, sad)))
	assert.Equal(t, models.MoodNegative, MoodOf(samples(anxious, neutral)))
	assert.Equal(t, models.MoodSteady, MoodOf(samples(happy, sad, neutral)))
	assert.Equal(t, models.MoodSteady, MoodOf(nil))
}

func TestLogRecent(t *testing.T) {
	log := NewLog()
	for i := 0; i < 12; i++ {
		log.Append(models.EmotionSample{Confidence: float64(i)})
	}

	assert.Equal(t, 12, log.Len())
	assert.Len(t, log.Recent(DisplaySize), DisplaySize)
	window := log.Window()
	assert.Len(t, window, WindowSize)
	assert.Equal(t, 7.0, window[0].Confidence)
	assert.Equal(t, 11.0, window[4].Confidence)

	latest, ok := log.Latest()
	assert.True(t, ok)
	assert.Equal(t, 11.0, latest.Confidence)

	// copies do not alias the log
	window[0].Confidence = 99
	assert.Equal(t, 7.0, log.Window()[0].Confidence)
	assert.Len(t, log.All(), 12)
	assert.Empty(t, NewLog().Recent(3))
}
