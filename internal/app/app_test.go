package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speechcoach/internal/config"
	"speechcoach/internal/repository"
)

func testConfig(t *testing.T) *config.Config {
	chdir(t, t.TempDir())
	cfg, err := config.Load()
	require.NoError(t, err)

	dir := t.TempDir()
	cfg.Database.Path = filepath.Join(dir, "app.db")
	cfg.Upload.Dir = filepath.Join(dir, "uploads")
	return cfg
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger(config.LogConfig{Level: "debug", Format: "json"})
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	logger = NewLogger(config.LogConfig{Level: "nonsense", Format: "text"})
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
}

func TestNewSeedsCatalogAndServes(t *testing.T) {
	cfg := testConfig(t)
	logger, _ := test.NewNullLogger()
	ctx := context.Background()

	a, err := New(ctx, cfg, logger)
	require.NoError(t, err)
	defer a.Close()

	assert.False(t, a.Mailer.IsEnabled())

	exercises, err := a.Exercises.List(ctx, "", repository.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, exercises, 5)

	// Seeding is idempotent
	require.NoError(t, a.SeedCatalog(ctx))
	exercises, err = a.Exercises.List(ctx, "", repository.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, exercises, 5)

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/exercises?language=tamil", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Numbers - Tamil")
}

func TestNewRejectsUnknownDatabase(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Type = "oracle"
	logger, _ := test.NewNullLogger()

	_, err := New(context.Background(), cfg, logger)
	assert.Error(t, err)
}

func TestNewRejectsMissingCatalog(t *testing.T) {
	cfg := testConfig(t)
	cfg.Catalog.Path = filepath.Join(t.TempDir(), "missing.yaml")
	logger, _ := test.NewNullLogger()

	_, err := New(context.Background(), cfg, logger)
	assert.Error(t, err)
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
