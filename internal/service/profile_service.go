package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"speechcoach/internal/models"
	"speechcoach/internal/repository"
	"speechcoach/internal/validation"
)

// ProfileService handles child profile business logic
type ProfileService struct {
	repo   *repository.ProfileRepository
	logger logrus.FieldLogger
}

// NewProfileService creates a new profile service
func NewProfileService(repo *repository.ProfileRepository, logger logrus.FieldLogger) *ProfileService {
	return &ProfileService{repo: repo, logger: logger}
}

// Create normalizes and stores a new profile
func (s *ProfileService) Create(ctx context.Context, p *models.ChildProfile) (*models.ChildProfile, error) {
	normalized := *p
	language, err := models.ParseLanguage(string(p.PrimaryLanguage))
	if err != nil {
		return nil, err
	}
	level, err := models.ParseDifficulty(string(p.TherapyLevel))
	if err != nil {
		return nil, err
	}
	normalized.PrimaryLanguage = language
	normalized.TherapyLevel = level
	normalized.Name = strings.TrimSpace(p.Name)
	normalized.CaregiverEmail = strings.TrimSpace(p.CaregiverEmail)
	normalized.FocusAreas = CleanWords(p.FocusAreas)
	if err := validateProfileFields(&normalized); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, &normalized)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"profile_id": created.ID, "language": created.PrimaryLanguage}).Info("Created profile")
	return created, nil
}

// Get retrieves a profile by ID
func (s *ProfileService) Get(ctx context.Context, id int64) (*models.ChildProfile, error) {
	return s.repo.Get(ctx, id)
}

// List returns profiles ordered by opts.Sort
func (s *ProfileService) List(ctx context.Context, opts repository.ListOptions) ([]models.ChildProfile, error) {
	return s.repo.List(ctx, opts)
}

// Update applies a partial update to a profile
func (s *ProfileService) Update(ctx context.Context, id int64, patch repository.ProfilePatch) (*models.ChildProfile, error) {
	if patch.PrimaryLanguage != nil {
		language, err := models.ParseLanguage(string(*patch.PrimaryLanguage))
		if err != nil {
			return nil, err
		}
		patch.PrimaryLanguage = &language
	}
	if patch.TherapyLevel != nil {
		level, err := models.ParseDifficulty(string(*patch.TherapyLevel))
		if err != nil {
			return nil, err
		}
		patch.TherapyLevel = &level
	}
	if patch.FocusAreas != nil {
		areas := CleanWords(*patch.FocusAreas)
		if err := validation.ValidateFocusAreas(areas); err != nil {
			return nil, err
		}
		patch.FocusAreas = &areas
	}
	if patch.Age != nil {
		if err := validation.ValidateAge(*patch.Age); err != nil {
			return nil, err
		}
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if err := validation.ValidateName(name); err != nil {
			return nil, err
		}
		patch.Name = &name
	}
	if patch.CaregiverEmail != nil {
		email := strings.TrimSpace(*patch.CaregiverEmail)
		if email != "" {
			if err := validation.ValidateEmail(email); err != nil {
				return nil, err
			}
		}
		patch.CaregiverEmail = &email
	}
	return s.repo.Update(ctx, id, patch)
}

// Delete removes a profile together with its session history
func (s *ProfileService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.WithField("profile_id", id).Info("Deleted profile")
	return nil
}

// validateProfileFields checks a normalized profile; the caregiver e-mail is optional
func validateProfileFields(p *models.ChildProfile) error {
	if err := validation.ValidateName(p.Name); err != nil {
		return err
	}
	if err := validation.ValidateAge(p.Age); err != nil {
		return err
	}
	if err := validation.ValidateFocusAreas(p.FocusAreas); err != nil {
		return err
	}
	if p.CaregiverEmail != "" {
		return validation.ValidateEmail(p.CaregiverEmail)
	}
	return nil
}
