package analysis

import (
	"fmt"
	"strings"

	"speechcoach/internal/models"
)

// BaseScore is the fallback starting score for a difficulty
func BaseScore(d models.Difficulty) float64 {
	switch d {
	case models.DifficultyIntermediate:
		return 70
	case models.DifficultyAdvanced:
		return 65
	default:
		return 75
	}
}

// Fallback scores a session without any external service
func Fallback(in Input) Result {
	positive, _ := models.CountEmotions(in.Emotions)

	base := BaseScore(in.Difficulty)
	emotionBonus := float64(min(2*positive, 10))
	completionBonus := 5.0
	if in.AllCompleted() {
		completionBonus = 10
	}

	count := len(in.Completed)
	engagement := "Maintained focus during the session"
	if len(in.Emotions) > 0 {
		engagement = "Showed positive emotions during practice"
	}

	return Result{
		Transcript:      fmt.Sprintf("Practiced %d words: %s", count, strings.Join(in.Completed, ", ")),
		ClarityScore:    base + emotionBonus,
		FluencyScore:    base + completionBonus,
		ConfidenceScore: base + (emotionBonus+completionBonus)/2,
		PositiveNotes: []string{
			fmt.Sprintf("Completed %d words successfully!", count),
			fmt.Sprintf("Stayed engaged throughout the %s difficulty session", in.Difficulty),
			fmt.Sprintf("Great effort with %s language practice", in.Language),
			engagement,
		},
		AreasOfImprovement: []string{
			fmt.Sprintf("Continue practicing %s level exercises", in.Difficulty),
			"Try spending more time on challenging words",
			"Regular practice will improve fluency",
		},
		AIFeedback: fmt.Sprintf("Great job completing the session! You practiced %d words at %s difficulty level. "+
			"Keep up the consistent practice to see continued improvement. "+
			"Remember, every session helps build confidence and skills!", count, in.Difficulty),
	}
}
