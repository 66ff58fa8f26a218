package session

import (
	"speechcoach/internal/emotion"
	"speechcoach/internal/models"
	"speechcoach/internal/recording"
)

// State is the lifecycle state of a draft
type State string

const (
	StateSetup    State = "setup"
	StateActive   State = "active"
	StateComplete State = "complete"
)

// StartRequest selects what a session practises. Language overrides the
// profile's primary language when set.
type StartRequest struct {
	ProfileID  int64           `json:"profile_id"`
	ExerciseID int64           `json:"exercise_id"`
	Language   models.Language `json:"language,omitempty"`
}

// draft is the working state of one session attempt
type draft struct {
	profileID  int64
	exerciseID int64
	language   models.Language
	words      []string
	index      int
	difficulty models.Difficulty
	recordings *recording.Manager
	emotions   *emotion.Log
	completed  []string
}

func (d *draft) currentWord() string {
	return d.words[d.index]
}

func (d *draft) last() bool {
	return d.index == len(d.words)-1
}

// Snapshot is a read-only view of a controller
type Snapshot struct {
	DraftID          string                 `json:"draft_id"`
	State            State                  `json:"state"`
	Analyzing        bool                   `json:"analyzing"`
	ProfileID        int64                  `json:"profile_id,omitempty"`
	ExerciseID       int64                  `json:"exercise_id,omitempty"`
	Language         models.Language        `json:"language,omitempty"`
	Words            []string               `json:"words"`
	CurrentWordIndex int                    `json:"current_word_index"`
	CurrentWord      string                 `json:"current_word,omitempty"`
	Difficulty       models.Difficulty      `json:"difficulty,omitempty"`
	Recording        bool                   `json:"recording"`
	CurrentRecorded  bool                   `json:"current_recorded"`
	RecordingCount   int                    `json:"recording_count"`
	CompletedWords   []string               `json:"completed_words"`
	EmotionCount     int                    `json:"emotion_count"`
	RecentEmotions   []models.EmotionSample `json:"recent_emotions"`
	LatestEmotion    *models.EmotionSample  `json:"latest_emotion,omitempty"`
	Mood             models.Mood            `json:"mood"`
	Degraded         bool                   `json:"degraded"`
	Record           *models.SessionRecord  `json:"record,omitempty"`
	PendingSave      bool                   `json:"pending_save"`
	Error            string                 `json:"error,omitempty"`
}
