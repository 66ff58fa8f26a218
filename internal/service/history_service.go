package service

import (
	"context"
	"math"

	"github.com/samber/lo"

	"speechcoach/internal/models"
	"speechcoach/internal/repository"
)

// progressWindow is the number of sessions compared at each end of the history
const progressWindow = 5

// HistoryService reads completed sessions and derives progress statistics
type HistoryService struct {
	sessions *repository.SessionRepository
	profiles *repository.ProfileRepository
}

// NewHistoryService creates a new history service
func NewHistoryService(sessions *repository.SessionRepository, profiles *repository.ProfileRepository) *HistoryService {
	return &HistoryService{sessions: sessions, profiles: profiles}
}

// History lists sessions newest first. A zero profileID lists every profile.
func (s *HistoryService) History(ctx context.Context, profileID int64, limit int) ([]models.SessionRecord, error) {
	return s.sessions.List(ctx, repository.SessionFilter{
		ProfileID:   profileID,
		ListOptions: repository.ListOptions{Limit: limit},
	})
}

// Get retrieves one session record
func (s *HistoryService) Get(ctx context.Context, id int64) (*models.SessionRecord, error) {
	return s.sessions.Get(ctx, id)
}

// Progress summarizes a profile's session history
func (s *HistoryService) Progress(ctx context.Context, profileID int64) (*models.ProgressStats, error) {
	if _, err := s.profiles.Get(ctx, profileID); err != nil {
		return nil, err
	}
	sessions, err := s.History(ctx, profileID, 0)
	if err != nil {
		return nil, err
	}
	stats := ComputeProgress(sessions)
	stats.ProfileID = profileID
	return &stats, nil
}

// ComputeProgress derives statistics from sessions ordered newest first
func ComputeProgress(sessions []models.SessionRecord) models.ProgressStats {
	stats := models.ProgressStats{TotalSessions: len(sessions)}
	if len(sessions) == 0 {
		stats.Band = models.ScoreBand(0)
		return stats
	}

	stats.AvgClarity = roundMean(sessions, func(r models.SessionRecord) float64 { return r.ClarityScore })
	stats.AvgFluency = roundMean(sessions, func(r models.SessionRecord) float64 { return r.FluencyScore })
	stats.AvgConfidence = roundMean(sessions, func(r models.SessionRecord) float64 { return r.ConfidenceScore })

	latest := sessions[0]
	stats.LatestOverall = math.Round(latest.OverallScore()*10) / 10
	stats.Band = models.ScoreBand(latest.OverallScore())

	if len(sessions) >= 2 {
		n := min(progressWindow, len(sessions))
		recent := meanOverall(sessions[:n])
		earliest := meanOverall(sessions[len(sessions)-n:])
		stats.Improvement = int(math.Round(recent - earliest))
	}
	return stats
}

func roundMean(sessions []models.SessionRecord, score func(models.SessionRecord) float64) int {
	return int(math.Round(lo.SumBy(sessions, score) / float64(len(sessions))))
}

func meanOverall(sessions []models.SessionRecord) float64 {
	return lo.SumBy(sessions, func(r models.SessionRecord) float64 { return r.OverallScore() }) / float64(len(sessions))
}
