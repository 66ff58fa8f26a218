package models

import "time"

// WordRecording is the captured audio for one word of the session
type WordRecording struct {
	Index      int       `json:"index"`
	Word       string    `json:"word"`
	Audio      []byte    `json:"-"`
	CapturedAt time.Time `json:"captured_at"`
}

// SessionRecord is the persisted result of a completed session.
// It is created once and never recomputed on read.
type SessionRecord struct {
	ID                 int64      `json:"id"`
	ProfileID          int64      `json:"profile_id"`
	ExerciseID         int64      `json:"exercise_id"`
	LanguageUsed       Language   `json:"language_used"`
	DifficultyReached  Difficulty `json:"difficulty_reached"`
	DurationSeconds    int        `json:"duration_seconds"`
	RecordingURL       string     `json:"recording_url,omitempty"`
	Transcript         string     `json:"transcript"`
	ClarityScore       float64    `json:"clarity_score"`
	FluencyScore       float64    `json:"fluency_score"`
	ConfidenceScore    float64    `json:"confidence_score"`
	AIFeedback         string     `json:"ai_feedback"`
	PositiveNotes      []string   `json:"positive_notes"`
	AreasOfImprovement []string   `json:"areas_of_improvement"`
	AnalysisSource     string     `json:"analysis_source"`
	CreatedAt          time.Time  `json:"created_at"`
}

// OverallScore is the mean of the three scores
func (r *SessionRecord) OverallScore() float64 {
	return (r.ClarityScore + r.FluencyScore + r.ConfidenceScore) / 3
}

// ScoreBand labels a score for display
func ScoreBand(score float64) string {
	switch {
	case score >= 80:
		return "strong"
	case score >= 60:
		return "developing"
	default:
		return "emerging"
	}
}

// ClampScore limits a score to the range [0, 100]
func ClampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// ProgressStats summarizes a profile's session history
type ProgressStats struct {
	ProfileID     int64   `json:"profile_id"`
	TotalSessions int     `json:"total_sessions"`
	AvgClarity    int     `json:"avg_clarity"`
	AvgFluency    int     `json:"avg_fluency"`
	AvgConfidence int     `json:"avg_confidence"`
	Improvement   int     `json:"improvement"`
	Band          string  `json:"band"`
	LatestOverall float64 `json:"latest_overall"`
}
