// Package validation checks caregiver-entered fields before they are stored.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"speechcoach/internal/models"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

const (
	maxWords      = 200
	maxWordLength = 64

	maxFocusAreas = 20
	maxAge        = 18
)

// ValidationError names the field that failed and why
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Unwrap lets callers match every ValidationError with models.ErrValidation
func (e ValidationError) Unwrap() error {
	return models.ErrValidation
}

// ValidateEmail checks a caregiver e-mail address
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	switch {
	case email == "":
		return ValidationError{Field: "email", Message: "email is required"}
	case !emailRegex.MatchString(email):
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidateName requires at least two letters; Tamil names count by rune
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return ValidationError{Field: "name", Message: "name is required"}
	case utf8.RuneCountInString(name) < 2:
		return ValidationError{Field: "name", Message: "name must be at least 2 characters"}
	}
	return nil
}

// ValidateAge accepts 0 (unknown) through 18
func ValidateAge(age int) error {
	if age < 0 || age > maxAge {
		return ValidationError{Field: "age", Message: fmt.Sprintf("age must be between 0 and %d", maxAge)}
	}
	return nil
}

// ValidateWordList bounds the size of an exercise word list
func ValidateWordList(words []string) error {
	return validateTerms("word_list", words, maxWords)
}

// ValidateFocusAreas bounds the therapy focus areas of a profile
func ValidateFocusAreas(areas []string) error {
	return validateTerms("focus_areas", areas, maxFocusAreas)
}

func validateTerms(field string, terms []string, max int) error {
	if len(terms) > max {
		return ValidationError{Field: field, Message: fmt.Sprintf("at most %d entries allowed", max)}
	}
	for _, term := range terms {
		if utf8.RuneCountInString(term) > maxWordLength {
			return ValidationError{Field: field, Message: fmt.Sprintf("%q exceeds %d characters", term, maxWordLength)}
		}
	}
	return nil
}
