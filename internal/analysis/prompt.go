package analysis

import (
	"fmt"
	"strings"

	"speechcoach/internal/models"
)

// BuildPrompt describes the session to the analysis service
func BuildPrompt(in Input) string {
	positive, negative := models.CountEmotions(in.Emotions)

	var b strings.Builder
	b.WriteString("Analyze this speech therapy session for a child with Autism Spectrum Disorder.\n")
	fmt.Fprintf(&b, "Language: %s\n", in.Language)
	fmt.Fprintf(&b, "Difficulty: %s\n", in.Difficulty)
	fmt.Fprintf(&b, "Words practiced: %s\n", strings.Join(in.Completed, ", "))
	fmt.Fprintf(&b, "Emotional state: %d positive moments, %d challenging moments\n\n", positive, negative)
	b.WriteString("Provide transcript, clarity/fluency/confidence scores (0-100), 3-4 positive notes, ")
	b.WriteString("2-3 areas for improvement, and encouraging feedback.")
	return b.String()
}
