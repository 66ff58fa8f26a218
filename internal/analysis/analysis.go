// Package analysis turns a finished session draft into a scored SessionRecord.
// An external analysis service is tried first; any failure there falls back to
// a deterministic heuristic so a finished session always gets a result.
package analysis

import (
	"context"

	"speechcoach/internal/models"
)

// Source values stored on SessionRecord.AnalysisSource
const (
	SourceAI       = "ai"
	SourceFallback = "fallback"
)

// Request is what the analysis service receives
type Request struct {
	Prompt   string
	AudioURL string
	Schema   map[string]interface{}
}

// Result is the structured assessment of a session
type Result struct {
	Transcript         string   `json:"transcript"`
	ClarityScore       float64  `json:"clarity_score"`
	FluencyScore       float64  `json:"fluency_score"`
	ConfidenceScore    float64  `json:"confidence_score"`
	PositiveNotes      []string `json:"positive_notes"`
	AreasOfImprovement []string `json:"areas_of_improvement"`
	AIFeedback         string   `json:"ai_feedback"`
}

// Analyzer is the external analysis service
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (Result, error)
}

// Uploader stores the combined session audio and returns where it can be fetched
type Uploader interface {
	Upload(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// Store persists finished session records
type Store interface {
	Create(ctx context.Context, rec *models.SessionRecord) (*models.SessionRecord, error)
}

// Outcome is the result of the primary tier: either an AI result or unavailable
type Outcome struct {
	Result    Result
	Available bool
	AudioURL  string
}

// Input is everything the synthesizer needs from a finished draft
type Input struct {
	ProfileID  int64
	ExerciseID int64
	Language   models.Language
	Difficulty models.Difficulty
	Words      []string // the exercise word list
	Completed  []string // words advanced past, in order
	Recordings []models.WordRecording
	Emotions   []models.EmotionSample
}

// AllCompleted reports whether every exercise word was completed
func (in Input) AllCompleted() bool {
	return len(in.Completed) >= len(in.Words)
}

// ResultSchema is the JSON schema requested from the analysis service
var ResultSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"transcript":       map[string]interface{}{"type": "string"},
		"clarity_score":    map[string]interface{}{"type": "number"},
		"fluency_score":    map[string]interface{}{"type": "number"},
		"confidence_score": map[string]interface{}{"type": "number"},
		"positive_notes": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"areas_of_improvement": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"ai_feedback": map[string]interface{}{"type": "string"},
	},
	"required": []string{
		"transcript", "clarity_score", "fluency_score", "confidence_score",
		"positive_notes", "areas_of_improvement", "ai_feedback",
	},
	"additionalProperties": false,
}
