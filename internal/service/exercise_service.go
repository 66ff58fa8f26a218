package service

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"speechcoach/internal/models"
	"speechcoach/internal/repository"
	"speechcoach/internal/validation"
)

// ExerciseService handles exercise catalog business logic
type ExerciseService struct {
	repo   *repository.ExerciseRepository
	logger logrus.FieldLogger
}

// NewExerciseService creates a new exercise service
func NewExerciseService(repo *repository.ExerciseRepository, logger logrus.FieldLogger) *ExerciseService {
	return &ExerciseService{repo: repo, logger: logger}
}

// Create normalizes and stores a new exercise
func (s *ExerciseService) Create(ctx context.Context, e *models.Exercise) (*models.Exercise, error) {
	normalized := *e
	if err := normalizeExercise(&normalized); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, &normalized)
}

// Get retrieves an exercise by ID
func (s *ExerciseService) Get(ctx context.Context, id int64) (*models.Exercise, error) {
	return s.repo.Get(ctx, id)
}

// List returns exercises practicable in language. An empty language lists everything.
func (s *ExerciseService) List(ctx context.Context, language string, opts repository.ListOptions) ([]models.Exercise, error) {
	if language == "" {
		return s.repo.List(ctx, opts)
	}
	requested, err := models.ParseLanguage(language)
	if err != nil {
		return nil, err
	}

	limit := opts.Limit
	opts.Limit = 0
	all, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, err
	}
	matching := lo.Filter(all, func(e models.Exercise, _ int) bool {
		return e.Language.Matches(requested)
	})
	if limit > 0 && len(matching) > limit {
		matching = matching[:limit]
	}
	return matching, nil
}

// Update applies a partial update to an exercise
func (s *ExerciseService) Update(ctx context.Context, id int64, patch repository.ExercisePatch) (*models.Exercise, error) {
	if patch.Language != nil {
		language, err := models.ParseLanguage(string(*patch.Language))
		if err != nil {
			return nil, err
		}
		patch.Language = &language
	}
	if patch.Difficulty != nil {
		difficulty, err := models.ParseDifficulty(string(*patch.Difficulty))
		if err != nil {
			return nil, err
		}
		patch.Difficulty = &difficulty
	}
	if patch.WordList != nil {
		words := CleanWords(*patch.WordList)
		if err := validation.ValidateWordList(words); err != nil {
			return nil, err
		}
		patch.WordList = &words
	}
	return s.repo.Update(ctx, id, patch)
}

// Delete removes an exercise
func (s *ExerciseService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// SeedIfEmpty stores the catalog exercises when no exercise exists yet.
// It returns the number of exercises created.
func (s *ExerciseService) SeedIfEmpty(ctx context.Context, catalog []models.Exercise) (int, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count exercises: %w", err)
	}
	if count > 0 {
		s.logger.WithField("existing", count).Debug("Exercise catalog already seeded")
		return 0, nil
	}

	for i := range catalog {
		if _, err := s.Create(ctx, &catalog[i]); err != nil {
			return i, fmt.Errorf("failed to seed %q: %w", catalog[i].Title, err)
		}
	}
	s.logger.WithField("count", len(catalog)).Info("Seeded exercise catalog")
	return len(catalog), nil
}

func normalizeExercise(e *models.Exercise) error {
	language, err := models.ParseLanguage(string(e.Language))
	if err != nil {
		return err
	}
	difficulty, err := models.ParseDifficulty(string(e.Difficulty))
	if err != nil {
		return err
	}
	e.Language = language
	e.Difficulty = difficulty
	e.WordList = CleanWords(e.WordList)
	return validation.ValidateWordList(e.WordList)
}
