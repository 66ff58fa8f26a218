package repository

import (
	"context"
	"fmt"
	"time"

	"speechcoach/internal/database"
	"speechcoach/internal/models"
)

// SessionFilter narrows a session listing
type SessionFilter struct {
	ProfileID int64
	ListOptions
}

var sessionSortColumns = map[string]bool{"created_at": true, "clarity_score": true, "fluency_score": true, "confidence_score": true}

const sessionColumns = `id, profile_id, exercise_id, language_used, difficulty_reached, duration_seconds, recording_url,
	transcript, clarity_score, fluency_score, confidence_score, ai_feedback, positive_notes,
	areas_of_improvement, analysis_source, created_at`

// SessionRepository stores completed session records. Records are never updated.
type SessionRepository struct {
	db database.DBTX
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db database.DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create stores a session record and returns it with its ID and creation time
func (r *SessionRepository) Create(ctx context.Context, rec *models.SessionRecord) (*models.SessionRecord, error) {
	notes, err := encodeStrings(rec.PositiveNotes)
	if err != nil {
		return nil, fmt.Errorf("failed to encode positive notes: %w", err)
	}
	areas, err := encodeStrings(rec.AreasOfImprovement)
	if err != nil {
		return nil, fmt.Errorf("failed to encode areas of improvement: %w", err)
	}

	created := *rec
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO sessions (profile_id, exercise_id, language_used, difficulty_reached, duration_seconds,
			recording_url, transcript, clarity_score, fluency_score, confidence_score, ai_feedback,
			positive_notes, areas_of_improvement, analysis_source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		created.ProfileID, created.ExerciseID, string(created.LanguageUsed), string(created.DifficultyReached),
		created.DurationSeconds, created.RecordingURL, created.Transcript,
		created.ClarityScore, created.FluencyScore, created.ConfidenceScore, created.AIFeedback,
		notes, areas, created.AnalysisSource, created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	created.ID = id
	return &created, nil
}

// Get retrieves a session record by ID
func (r *SessionRepository) Get(ctx context.Context, id int64) (*models.SessionRecord, error) {
	query := "SELECT " + sessionColumns + " FROM sessions WHERE id = ?"
	rec, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "session", id)
	}
	return rec, nil
}

// List returns session records, newest first unless filter.Sort says otherwise
func (r *SessionRepository) List(ctx context.Context, filter SessionFilter) ([]models.SessionRecord, error) {
	query := "SELECT " + sessionColumns + " FROM sessions"
	var args []interface{}
	if filter.ProfileID > 0 {
		query += " WHERE profile_id = ?"
		args = append(args, filter.ProfileID)
	}

	sort := filter.Sort
	if sort == "" {
		sort = "-created_at"
	}
	query += orderClause(sort, sessionSortColumns, "created_at DESC, id DESC")

	limit, args := limitClause(filter.Limit, args)
	rows, err := r.db.QueryContext(ctx, query+limit, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []models.SessionRecord{}
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *rec)
	}
	return sessions, rows.Err()
}

// DeleteAll removes every session record
func (r *SessionRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM sessions")
	return err
}

func scanSession(row rowScanner) (*models.SessionRecord, error) {
	rec := &models.SessionRecord{}
	var language, difficulty, notes, areas string
	err := row.Scan(
		&rec.ID,
		&rec.ProfileID,
		&rec.ExerciseID,
		&language,
		&difficulty,
		&rec.DurationSeconds,
		&rec.RecordingURL,
		&rec.Transcript,
		&rec.ClarityScore,
		&rec.FluencyScore,
		&rec.ConfidenceScore,
		&rec.AIFeedback,
		&notes,
		&areas,
		&rec.AnalysisSource,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.LanguageUsed = models.Language(language)
	rec.DifficultyReached = models.Difficulty(difficulty)
	if rec.PositiveNotes, err = decodeStrings(notes); err != nil {
		return nil, fmt.Errorf("failed to decode positive notes: %w", err)
	}
	if rec.AreasOfImprovement, err = decodeStrings(areas); err != nil {
		return nil, fmt.Errorf("failed to decode areas of improvement: %w", err)
	}
	return rec, nil
}
