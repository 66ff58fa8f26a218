package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"speechcoach/internal/database"
	"speechcoach/internal/models"
	"speechcoach/internal/repository"
)

// BackupVersion is written into every export
const BackupVersion = "1.0"

// BackupData represents the complete database backup structure
type BackupData struct {
	Version      string                 `json:"version"`
	ExportedAt   time.Time              `json:"exported_at"`
	DatabaseType string                 `json:"database_type"`
	Profiles     []models.ChildProfile  `json:"profiles"`
	Exercises    []models.Exercise      `json:"exercises"`
	Sessions     []models.SessionRecord `json:"sessions"`
}

// ImportOptions controls how a backup is restored
type ImportOptions struct {
	// Replace deletes existing rows before importing
	Replace bool
}

// ImportSummary counts the rows restored by an import
type ImportSummary struct {
	Profiles        int `json:"profiles"`
	Exercises       int `json:"exercises"`
	Sessions        int `json:"sessions"`
	SkippedSessions int `json:"skipped_sessions"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db     *database.DB
	logger logrus.FieldLogger
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, logger logrus.FieldLogger) *BackupService {
	return &BackupService{db: db, logger: logger}
}

// Export writes a complete backup of the database to a file
func (s *BackupService) Export(ctx context.Context, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(ctx, file); err != nil {
		return err
	}
	s.logger.WithField("path", outputPath).Info("Database exported")
	return nil
}

// ExportToWriter writes a complete backup of the database to w
func (s *BackupService) ExportToWriter(ctx context.Context, w io.Writer) error {
	backup, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"profiles":  len(backup.Profiles),
		"exercises": len(backup.Exercises),
		"sessions":  len(backup.Sessions),
	}).Info("Exported backup")
	return nil
}

// Snapshot reads every profile, exercise and session into a BackupData
func (s *BackupService) Snapshot(ctx context.Context) (*BackupData, error) {
	backup := &BackupData{
		Version:      BackupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.GetDialect().Name(),
	}

	var err error
	backup.Profiles, err = repository.NewProfileRepository(s.db).List(ctx, repository.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to export profiles: %w", err)
	}
	backup.Exercises, err = repository.NewExerciseRepository(s.db).List(ctx, repository.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to export exercises: %w", err)
	}
	backup.Sessions, err = repository.NewSessionRepository(s.db).List(ctx, repository.SessionFilter{
		ListOptions: repository.ListOptions{Sort: "created_at"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to export sessions: %w", err)
	}
	return backup, nil
}

// Import restores a database from a backup file
func (s *BackupService) Import(ctx context.Context, inputPath string, opts ImportOptions) (*ImportSummary, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()
	return s.ImportFromReader(ctx, file, opts)
}

// ImportFromReader restores a database from a backup reader.
// Rows get fresh IDs; sessions are re-pointed at the imported profiles and exercises.
func (s *BackupService) ImportFromReader(ctx context.Context, reader io.Reader, opts ImportOptions) (*ImportSummary, error) {
	var backup BackupData
	if err := json.NewDecoder(reader).Decode(&backup); err != nil {
		return nil, fmt.Errorf("%w: failed to decode backup: %v", models.ErrValidation, err)
	}
	if backup.Version != BackupVersion {
		return nil, fmt.Errorf("%w: unsupported backup version %q", models.ErrValidation, backup.Version)
	}
	s.logger.WithFields(logrus.Fields{
		"version":     backup.Version,
		"exported_at": backup.ExportedAt,
		"replace":     opts.Replace,
	}).Info("Starting database import")

	summary := &ImportSummary{}
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		profiles := repository.NewProfileRepository(tx)
		exercises := repository.NewExerciseRepository(tx)
		sessions := repository.NewSessionRepository(tx)

		if opts.Replace {
			if err := sessions.DeleteAll(ctx); err != nil {
				return err
			}
			if err := profiles.DeleteAll(ctx); err != nil {
				return err
			}
			if err := exercises.DeleteAll(ctx); err != nil {
				return err
			}
		}

		profileIDs := make(map[int64]int64, len(backup.Profiles))
		for i := range backup.Profiles {
			p := backup.Profiles[i]
			created, err := profiles.Create(ctx, &p)
			if err != nil {
				return fmt.Errorf("failed to import profile %d: %w", p.ID, err)
			}
			profileIDs[p.ID] = created.ID
			summary.Profiles++
		}

		exerciseIDs := make(map[int64]int64, len(backup.Exercises))
		for i := range backup.Exercises {
			e := backup.Exercises[i]
			created, err := exercises.Create(ctx, &e)
			if err != nil {
				return fmt.Errorf("failed to import exercise %d: %w", e.ID, err)
			}
			exerciseIDs[e.ID] = created.ID
			summary.Exercises++
		}

		for i := range backup.Sessions {
			rec := backup.Sessions[i]
			profileID, ok := profileIDs[rec.ProfileID]
			if !ok {
				s.logger.WithField("session_id", rec.ID).Warn("Skipping session for unknown profile")
				summary.SkippedSessions++
				continue
			}
			rec.ProfileID = profileID
			if id, ok := exerciseIDs[rec.ExerciseID]; ok {
				rec.ExerciseID = id
			}
			if _, err := sessions.Create(ctx, &rec); err != nil {
				return fmt.Errorf("failed to import session %d: %w", rec.ID, err)
			}
			summary.Sessions++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"profiles":  summary.Profiles,
		"exercises": summary.Exercises,
		"sessions":  summary.Sessions,
		"skipped":   summary.SkippedSessions,
	}).Info("Database import completed")
	return summary, nil
}
