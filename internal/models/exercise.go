package models

import (
	"fmt"
	"strings"
	"time"
)

// Language is the practice language of an exercise or session
type Language string

const (
	LanguageTamil   Language = "Tamil"
	LanguageEnglish Language = "English"
	LanguageBoth    Language = "Both"
)

// ParseLanguage normalizes a language name, accepting any letter case
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tamil":
		return LanguageTamil, nil
	case "english":
		return LanguageEnglish, nil
	case "both", "":
		return LanguageBoth, nil
	default:
		return "", fmt.Errorf("%w: unknown language %q", ErrValidation, s)
	}
}

// Matches reports whether an exercise in language l can be practised in the requested language
func (l Language) Matches(requested Language) bool {
	return l == requested || l == LanguageBoth || requested == LanguageBoth
}

// Difficulty is the adaptive task difficulty level
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// ParseDifficulty normalizes a difficulty name; empty input yields beginner
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "beginner", "":
		return DifficultyBeginner, nil
	case "intermediate":
		return DifficultyIntermediate, nil
	case "advanced":
		return DifficultyAdvanced, nil
	default:
		return "", fmt.Errorf("%w: unknown difficulty %q", ErrValidation, s)
	}
}

// Exercise is a practice word list. It is never modified while a session uses it.
type Exercise struct {
	ID         int64      `json:"id"`
	Title      string     `json:"title"`
	Language   Language   `json:"language"`
	Difficulty Difficulty `json:"difficulty"`
	Category   string     `json:"category"`
	Prompt     string     `json:"prompt"`
	WordList   []string   `json:"word_list"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Validate checks the fields required to store an exercise
func (e *Exercise) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("%w: exercise title is required", ErrValidation)
	}
	if _, err := ParseLanguage(string(e.Language)); err != nil {
		return err
	}
	if _, err := ParseDifficulty(string(e.Difficulty)); err != nil {
		return err
	}
	return nil
}
