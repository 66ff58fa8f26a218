package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"speechcoach/internal/database"
	"speechcoach/internal/models"
)

type RepositorySuite struct {
	suite.Suite
	db        *database.DB
	ctx       context.Context
	profiles  *ProfileRepository
	exercises *ExerciseRepository
	sessions  *SessionRepository
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupTest() {
	db, err := database.Initialize(filepath.Join(s.T().TempDir(), "repo.db"))
	s.Require().NoError(err)
	s.db = db
	s.ctx = context.Background()
	s.profiles = NewProfileRepository(db)
	s.exercises = NewExerciseRepository(db)
	s.sessions = NewSessionRepository(db)
}

func (s *RepositorySuite) TearDownTest() {
	s.db.Close()
}

func (s *RepositorySuite) createProfile(name string) *models.ChildProfile {
	p, err := s.profiles.Create(s.ctx, &models.ChildProfile{
		Name:            name,
		Age:             6,
		PrimaryLanguage: models.LanguageTamil,
		FocusAreas:      []string{"articulation", "vocabulary"},
	})
	s.Require().NoError(err)
	return p
}

func (s *RepositorySuite) TestProfileCreateAppliesDefaults() {
	p, err := s.profiles.Create(s.ctx, &models.ChildProfile{Name: "Kavin", Age: 7})
	s.Require().NoError(err)
	s.NotZero(p.ID)
	s.Equal(models.LanguageBoth, p.PrimaryLanguage)
	s.Equal(models.DifficultyBeginner, p.TherapyLevel)

	got, err := s.profiles.Get(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("Kavin", got.Name)
	s.Equal([]string{}, got.FocusAreas)
}

func (s *RepositorySuite) TestProfileCreateRejectsInvalid() {
	_, err := s.profiles.Create(s.ctx, &models.ChildProfile{Age: 4})
	s.ErrorIs(err, models.ErrValidation)
}

func (s *RepositorySuite) TestProfileUpdate() {
	p := s.createProfile("Meena")

	level := models.DifficultyIntermediate
	notes := "prefers morning sessions"
	updated, err := s.profiles.Update(s.ctx, p.ID, ProfilePatch{TherapyLevel: &level, Notes: &notes})
	s.Require().NoError(err)
	s.Equal(models.DifficultyIntermediate, updated.TherapyLevel)
	s.Equal("Meena", updated.Name)

	got, err := s.profiles.Get(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(notes, got.Notes)
	s.Equal([]string{"articulation", "vocabulary"}, got.FocusAreas)
}

func (s *RepositorySuite) TestMissingIDsReturnNotFound() {
	_, err := s.profiles.Get(s.ctx, 999)
	s.ErrorIs(err, models.ErrNotFound)

	name := "x"
	_, err = s.profiles.Update(s.ctx, 999, ProfilePatch{Name: &name})
	s.ErrorIs(err, models.ErrNotFound)

	s.ErrorIs(s.profiles.Delete(s.ctx, 999), models.ErrNotFound)
	s.ErrorIs(s.exercises.Delete(s.ctx, 999), models.ErrNotFound)

	_, err = s.sessions.Get(s.ctx, 999)
	s.ErrorIs(err, models.ErrNotFound)
}

func (s *RepositorySuite) TestProfileListSortAndLimit() {
	s.createProfile("Charu")
	s.createProfile("Arun")
	s.createProfile("Bala")

	all, err := s.profiles.List(s.ctx, ListOptions{Sort: "name"})
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal("Arun", all[0].Name)
	s.Equal("Charu", all[2].Name)

	limited, err := s.profiles.List(s.ctx, ListOptions{Sort: "-name", Limit: 2})
	s.Require().NoError(err)
	s.Require().Len(limited, 2)
	s.Equal("Charu", limited[0].Name)
}

func (s *RepositorySuite) TestExerciseLifecycle() {
	e, err := s.exercises.Create(s.ctx, &models.Exercise{
		Title:      "Animal names",
		Language:   models.LanguageEnglish,
		Difficulty: models.DifficultyBeginner,
		Category:   "vocabulary",
		Prompt:     "Say each animal name",
		WordList:   []string{"cat", "dog", "cow"},
	})
	s.Require().NoError(err)

	words := []string{"cat", "dog", "cow", "hen"}
	updated, err := s.exercises.Update(s.ctx, e.ID, ExercisePatch{WordList: &words})
	s.Require().NoError(err)
	s.Equal(words, updated.WordList)

	got, err := s.exercises.Get(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Equal(words, got.WordList)
	s.Equal(models.LanguageEnglish, got.Language)

	count, err := s.exercises.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, count)

	s.Require().NoError(s.exercises.Delete(s.ctx, e.ID))
	_, err = s.exercises.Get(s.ctx, e.ID)
	s.ErrorIs(err, models.ErrNotFound)
}

func (s *RepositorySuite) TestSessionRoundTripKeepsScores() {
	p := s.createProfile("Nila")
	rec := &models.SessionRecord{
		ProfileID:          p.ID,
		ExerciseID:         3,
		LanguageUsed:       models.LanguageTamil,
		DifficultyReached:  models.DifficultyIntermediate,
		DurationSeconds:    25,
		Transcript:         "amma, appa",
		ClarityScore:       81,
		FluencyScore:       85,
		ConfidenceScore:    83.5,
		AIFeedback:         "Great effort",
		PositiveNotes:      []string{"clear vowels"},
		AreasOfImprovement: []string{"pace"},
		AnalysisSource:     "fallback",
	}

	created, err := s.sessions.Create(s.ctx, rec)
	s.Require().NoError(err)
	s.NotZero(created.ID)

	listed, err := s.sessions.List(s.ctx, SessionFilter{ProfileID: p.ID})
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	got := listed[0]
	s.Equal(81.0, got.ClarityScore)
	s.Equal(85.0, got.FluencyScore)
	s.Equal(83.5, got.ConfidenceScore)
	s.Equal(models.DifficultyIntermediate, got.DifficultyReached)
	s.Equal([]string{"clear vowels"}, got.PositiveNotes)
	s.Equal([]string{"pace"}, got.AreasOfImprovement)
}

func (s *RepositorySuite) TestSessionListNewestFirst() {
	p := s.createProfile("Iniya")
	other := s.createProfile("Vel")
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := s.sessions.Create(s.ctx, &models.SessionRecord{
			ProfileID:    p.ID,
			LanguageUsed: models.LanguageEnglish,
			ClarityScore: float64(60 + i),
			CreatedAt:    base.Add(time.Duration(i) * time.Hour),
		})
		s.Require().NoError(err)
	}
	_, err := s.sessions.Create(s.ctx, &models.SessionRecord{ProfileID: other.ID, LanguageUsed: models.LanguageEnglish})
	s.Require().NoError(err)

	listed, err := s.sessions.List(s.ctx, SessionFilter{ProfileID: p.ID, ListOptions: ListOptions{Limit: 2}})
	s.Require().NoError(err)
	s.Require().Len(listed, 2)
	s.Equal(62.0, listed[0].ClarityScore)
	s.Equal(61.0, listed[1].ClarityScore)

	all, err := s.sessions.List(s.ctx, SessionFilter{})
	s.Require().NoError(err)
	s.Len(all, 4)
}

func TestOrderClause(t *testing.T) {
	allowed := map[string]bool{"name": true}
	tests := []struct {
		sort string
		want string
	}{
		{"", " ORDER BY id ASC"},
		{"name", " ORDER BY name ASC, id ASC"},
		{"-name", " ORDER BY name DESC, id DESC"},
		{"password; DROP TABLE", " ORDER BY id ASC"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, orderClause(tt.sort, allowed, "id ASC"), tt.sort)
	}
}

func TestDecodeStringsEmpty(t *testing.T) {
	values, err := decodeStrings("")
	require.NoError(t, err)
	assert.Empty(t, values)
	assert.NotNil(t, values)
}
