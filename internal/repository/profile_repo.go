package repository

import (
	"context"
	"fmt"
	"time"

	"speechcoach/internal/database"
	"speechcoach/internal/models"
)

// ProfilePatch holds the fields of a partial profile update. Nil fields are left unchanged.
type ProfilePatch struct {
	Name            *string            `json:"name"`
	Age             *int               `json:"age"`
	PrimaryLanguage *models.Language   `json:"primary_language"`
	TherapyLevel    *models.Difficulty `json:"therapy_level"`
	FocusAreas      *[]string          `json:"focus_areas"`
	Notes           *string            `json:"notes"`
	CaregiverEmail  *string            `json:"caregiver_email"`
}

// Apply copies the set fields of the patch onto p
func (patch ProfilePatch) Apply(p *models.ChildProfile) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Age != nil {
		p.Age = *patch.Age
	}
	if patch.PrimaryLanguage != nil {
		p.PrimaryLanguage = *patch.PrimaryLanguage
	}
	if patch.TherapyLevel != nil {
		p.TherapyLevel = *patch.TherapyLevel
	}
	if patch.FocusAreas != nil {
		p.FocusAreas = *patch.FocusAreas
	}
	if patch.Notes != nil {
		p.Notes = *patch.Notes
	}
	if patch.CaregiverEmail != nil {
		p.CaregiverEmail = *patch.CaregiverEmail
	}
}

var profileSortColumns = map[string]bool{"created_at": true, "name": true, "age": true}

const profileColumns = `id, name, age, primary_language, therapy_level, focus_areas, notes, caregiver_email, created_at, updated_at`

// ProfileRepository handles database operations for child profiles
type ProfileRepository struct {
	db database.DBTX
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db database.DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Create stores a new profile and returns it with its ID
func (r *ProfileRepository) Create(ctx context.Context, p *models.ChildProfile) (*models.ChildProfile, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	focus, err := encodeStrings(p.FocusAreas)
	if err != nil {
		return nil, fmt.Errorf("failed to encode focus areas: %w", err)
	}

	created := *p
	if created.PrimaryLanguage == "" {
		created.PrimaryLanguage = models.LanguageBoth
	}
	if created.TherapyLevel == "" {
		created.TherapyLevel = models.DifficultyBeginner
	}
	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now

	query := `
		INSERT INTO profiles (name, age, primary_language, therapy_level, focus_areas, notes, caregiver_email, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		created.Name, created.Age, string(created.PrimaryLanguage), string(created.TherapyLevel),
		focus, created.Notes, created.CaregiverEmail, created.CreatedAt, created.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	created.ID = id
	return &created, nil
}

// Get retrieves a profile by ID
func (r *ProfileRepository) Get(ctx context.Context, id int64) (*models.ChildProfile, error) {
	query := "SELECT " + profileColumns + " FROM profiles WHERE id = ?"
	p, err := scanProfile(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "profile", id)
	}
	return p, nil
}

// List returns profiles ordered by opts.Sort (oldest first by default)
func (r *ProfileRepository) List(ctx context.Context, opts ListOptions) ([]models.ChildProfile, error) {
	query := "SELECT " + profileColumns + " FROM profiles" + orderClause(opts.Sort, profileSortColumns, "id ASC")
	limit, args := limitClause(opts.Limit, nil)

	rows, err := r.db.QueryContext(ctx, query+limit, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	profiles := []models.ChildProfile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

// Update applies patch to the stored profile and returns the result
func (r *ProfileRepository) Update(ctx context.Context, id int64, patch ProfilePatch) (*models.ChildProfile, error) {
	p, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(p)
	if err := p.Validate(); err != nil {
		return nil, err
	}

	focus, err := encodeStrings(p.FocusAreas)
	if err != nil {
		return nil, fmt.Errorf("failed to encode focus areas: %w", err)
	}
	p.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE profiles
		SET name = ?, age = ?, primary_language = ?, therapy_level = ?, focus_areas = ?, notes = ?,
		    caregiver_email = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		p.Name, p.Age, string(p.PrimaryLanguage), string(p.TherapyLevel), focus, p.Notes,
		p.CaregiverEmail, p.UpdatedAt, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if err := requireAffected(result, "profile", id); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes a profile and, through the foreign key, its sessions
func (r *ProfileRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM profiles WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return requireAffected(result, "profile", id)
}

// DeleteAll removes every profile
func (r *ProfileRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM profiles"); err != nil {
		return fmt.Errorf("failed to delete profiles: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(row rowScanner) (*models.ChildProfile, error) {
	p := &models.ChildProfile{}
	var language, level, focus string
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Age,
		&language,
		&level,
		&focus,
		&p.Notes,
		&p.CaregiverEmail,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.PrimaryLanguage = models.Language(language)
	p.TherapyLevel = models.Difficulty(level)
	if p.FocusAreas, err = decodeStrings(focus); err != nil {
		return nil, fmt.Errorf("failed to decode focus areas: %w", err)
	}
	return p, nil
}
