package models

import (
	"errors"
	"testing"
)

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Language
		wantErr bool
	}{
		{name: "tamil lower case", input: "tamil", want: LanguageTamil},
		{name: "english mixed case", input: "English", want: LanguageEnglish},
		{name: "empty defaults to both", input: "", want: LanguageBoth},
		{name: "unknown", input: "french", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLanguage(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("ParseLanguage(%q) error = %v, want ErrValidation", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLanguage(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseLanguage(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLanguageMatches(t *testing.T) {
	tests := []struct {
		exercise  Language
		requested Language
		want      bool
	}{
		{LanguageTamil, LanguageTamil, true},
		{LanguageTamil, LanguageEnglish, false},
		{LanguageBoth, LanguageEnglish, true},
		{LanguageEnglish, LanguageBoth, true},
	}

	for _, tt := range tests {
		if got := tt.exercise.Matches(tt.requested); got != tt.want {
			t.Errorf("%s.Matches(%s) = %v, want %v", tt.exercise, tt.requested, got, tt.want)
		}
	}
}

func TestProfileValidation(t *testing.T) {
	tests := []struct {
		name    string
		profile ChildProfile
		wantErr bool
	}{
		{
			name:    "valid profile",
			profile: ChildProfile{Name: "Kavin", Age: 6, PrimaryLanguage: LanguageTamil, TherapyLevel: DifficultyBeginner},
		},
		{
			name:    "missing name",
			profile: ChildProfile{Age: 6},
			wantErr: true,
		},
		{
			name:    "age out of range",
			profile: ChildProfile{Name: "Kavin", Age: 42},
			wantErr: true,
		},
		{
			name:    "unknown therapy level",
			profile: ChildProfile{Name: "Kavin", Age: 6, TherapyLevel: "expert"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestProfileDefaults(t *testing.T) {
	var missing *ChildProfile
	if missing.DefaultLanguage() != LanguageBoth {
		t.Errorf("nil profile language = %v, want Both", missing.DefaultLanguage())
	}
	if missing.DefaultDifficulty() != DifficultyBeginner {
		t.Errorf("nil profile difficulty = %v, want beginner", missing.DefaultDifficulty())
	}

	p := &ChildProfile{PrimaryLanguage: LanguageEnglish, TherapyLevel: DifficultyAdvanced}
	if p.DefaultLanguage() != LanguageEnglish || p.DefaultDifficulty() != DifficultyAdvanced {
		t.Errorf("profile defaults = %v/%v", p.DefaultLanguage(), p.DefaultDifficulty())
	}
}

func TestCountEmotions(t *testing.T) {
	samples := []EmotionSample{
		{Label: EmotionHappy},
		{Label: EmotionConfident},
		{Label: EmotionNeutral},
		{Label: EmotionFrustrated},
		{Label: EmotionSad},
		{Label: EmotionAnxious},
	}

	positive, negative := CountEmotions(samples)
	if positive != 2 || negative != 3 {
		t.Errorf("CountEmotions() = %d/%d, want 2/3", positive, negative)
	}
}

func TestClampScore(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{-5, 0},
		{0, 0},
		{83.5, 83.5},
		{100, 100},
		{140, 100},
	}

	for _, tt := range tests {
		if got := ClampScore(tt.in); got != tt.want {
			t.Errorf("ClampScore(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestScoreBand(t *testing.T) {
	if ScoreBand(85) != "strong" || ScoreBand(60) != "developing" || ScoreBand(59.9) != "emerging" {
		t.Error("ScoreBand thresholds are wrong")
	}
}
