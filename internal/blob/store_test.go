package blob

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadAndServe(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	s, err := NewStore(dir, "http://localhost:8080/uploads/")
	require.NoError(t, err)

	url, err := s.Upload(context.Background(), "session.webm", "audio/webm", []byte("webm-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:8080/uploads/"))
	assert.True(t, strings.HasSuffix(url, ".webm"))

	filename := filepath.Base(url)
	data, err := os.ReadFile(filepath.Join(dir, filename))
	require.NoError(t, err)
	assert.Equal(t, []byte("webm-bytes"), data)

	files, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{filename}, files)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/"+filename, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "webm-bytes", rec.Body.String())

	require.NoError(t, s.Delete(filename))
	require.NoError(t, s.Delete(filename))
	files, err = s.List()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestUploadRejectsEmptyAndCancelled(t *testing.T) {
	s, err := NewStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	_, err = s.Upload(context.Background(), "a.webm", "audio/webm", nil)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Upload(ctx, "a.webm", "audio/webm", []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".webm", extension("session.WEBM", ""))
	assert.Equal(t, ".wav", extension("", "audio/wav"))
	assert.Equal(t, ".webm", extension("", "audio/webm;codecs=opus"))
	assert.Equal(t, ".bin", extension("", "application/octet-stream"))
}
