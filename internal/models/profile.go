package models

import (
	"fmt"
	"strings"
	"time"
)

// ChildProfile supplies the defaults for a practice session
type ChildProfile struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Age             int        `json:"age"`
	PrimaryLanguage Language   `json:"primary_language"`
	TherapyLevel    Difficulty `json:"therapy_level"`
	FocusAreas      []string   `json:"focus_areas"`
	Notes           string     `json:"notes"`
	CaregiverEmail  string     `json:"caregiver_email,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Validate checks the fields required to store a profile
func (p *ChildProfile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: profile name is required", ErrValidation)
	}
	if p.Age < 0 || p.Age > 18 {
		return fmt.Errorf("%w: age must be between 0 and 18", ErrValidation)
	}
	if _, err := ParseLanguage(string(p.PrimaryLanguage)); err != nil {
		return err
	}
	if _, err := ParseDifficulty(string(p.TherapyLevel)); err != nil {
		return err
	}
	return nil
}

// DefaultLanguage returns the language a session for this profile starts in
func (p *ChildProfile) DefaultLanguage() Language {
	if p == nil || p.PrimaryLanguage == "" {
		return LanguageBoth
	}
	return p.PrimaryLanguage
}

// DefaultDifficulty returns the difficulty a session for this profile starts at
func (p *ChildProfile) DefaultDifficulty() Difficulty {
	if p == nil || p.TherapyLevel == "" {
		return DifficultyBeginner
	}
	return p.TherapyLevel
}
