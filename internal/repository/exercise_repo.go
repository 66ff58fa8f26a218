package repository

import (
	"context"
	"fmt"
	"time"

	"speechcoach/internal/database"
	"speechcoach/internal/models"
)

// ExercisePatch holds the fields of a partial exercise update
type ExercisePatch struct {
	Title      *string            `json:"title"`
	Language   *models.Language   `json:"language"`
	Difficulty *models.Difficulty `json:"difficulty"`
	Category   *string            `json:"category"`
	Prompt     *string            `json:"prompt"`
	WordList   *[]string          `json:"word_list"`
}

// Apply copies the set fields of the patch onto e
func (patch ExercisePatch) Apply(e *models.Exercise) {
	if patch.Title != nil {
		e.Title = *patch.Title
	}
	if patch.Language != nil {
		e.Language = *patch.Language
	}
	if patch.Difficulty != nil {
		e.Difficulty = *patch.Difficulty
	}
	if patch.Category != nil {
		e.Category = *patch.Category
	}
	if patch.Prompt != nil {
		e.Prompt = *patch.Prompt
	}
	if patch.WordList != nil {
		e.WordList = *patch.WordList
	}
}

var exerciseSortColumns = map[string]bool{"created_at": true, "title": true, "difficulty": true}

const exerciseColumns = `id, title, language, difficulty, category, prompt, word_list, created_at, updated_at`

// ExerciseRepository handles database operations for exercises
type ExerciseRepository struct {
	db database.DBTX
}

// NewExerciseRepository creates a new exercise repository
func NewExerciseRepository(db database.DBTX) *ExerciseRepository {
	return &ExerciseRepository{db: db}
}

// Create stores a new exercise
func (r *ExerciseRepository) Create(ctx context.Context, e *models.Exercise) (*models.Exercise, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}

	words, err := encodeStrings(e.WordList)
	if err != nil {
		return nil, fmt.Errorf("failed to encode word list: %w", err)
	}

	created := *e
	if created.Language == "" {
		created.Language = models.LanguageBoth
	}
	if created.Difficulty == "" {
		created.Difficulty = models.DifficultyBeginner
	}
	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now

	query := `
		INSERT INTO exercises (title, language, difficulty, category, prompt, word_list, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		created.Title, string(created.Language), string(created.Difficulty), created.Category,
		created.Prompt, words, created.CreatedAt, created.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create exercise: %w", err)
	}

	created.ID = id
	return &created, nil
}

// Get retrieves an exercise by ID
func (r *ExerciseRepository) Get(ctx context.Context, id int64) (*models.Exercise, error) {
	query := "SELECT " + exerciseColumns + " FROM exercises WHERE id = ?"
	e, err := scanExercise(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "exercise", id)
	}
	return e, nil
}

// List returns exercises ordered by opts.Sort
func (r *ExerciseRepository) List(ctx context.Context, opts ListOptions) ([]models.Exercise, error) {
	query := "SELECT " + exerciseColumns + " FROM exercises" + orderClause(opts.Sort, exerciseSortColumns, "id ASC")
	limit, args := limitClause(opts.Limit, nil)

	rows, err := r.db.QueryContext(ctx, query+limit, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list exercises: %w", err)
	}
	defer rows.Close()

	exercises := []models.Exercise{}
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, err
		}
		exercises = append(exercises, *e)
	}
	return exercises, rows.Err()
}

// Count returns the number of stored exercises
func (r *ExerciseRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM exercises").Scan(&count)
	return count, err
}

// Update applies patch to the stored exercise
func (r *ExerciseRepository) Update(ctx context.Context, id int64, patch ExercisePatch) (*models.Exercise, error) {
	e, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(e)
	if err := e.Validate(); err != nil {
		return nil, err
	}

	words, err := encodeStrings(e.WordList)
	if err != nil {
		return nil, fmt.Errorf("failed to encode word list: %w", err)
	}
	e.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE exercises
		SET title = ?, language = ?, difficulty = ?, category = ?, prompt = ?, word_list = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		e.Title, string(e.Language), string(e.Difficulty), e.Category, e.Prompt, words, e.UpdatedAt, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update exercise: %w", err)
	}
	if err := requireAffected(result, "exercise", id); err != nil {
		return nil, err
	}
	return e, nil
}

// Delete removes an exercise
func (r *ExerciseRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM exercises WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete exercise: %w", err)
	}
	return requireAffected(result, "exercise", id)
}

// DeleteAll removes every exercise
func (r *ExerciseRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM exercises"); err != nil {
		return fmt.Errorf("failed to delete exercises: %w", err)
	}
	return nil
}

func scanExercise(row rowScanner) (*models.Exercise, error) {
	e := &models.Exercise{}
	var language, difficulty, words string
	err := row.Scan(
		&e.ID,
		&e.Title,
		&language,
		&difficulty,
		&e.Category,
		&e.Prompt,
		&words,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Language = models.Language(language)
	e.Difficulty = models.Difficulty(difficulty)
	if e.WordList, err = decodeStrings(words); err != nil {
		return nil, fmt.Errorf("failed to decode word list: %w", err)
	}
	return e, nil
}
