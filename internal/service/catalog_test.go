package service

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speechcoach/internal/models"
)

func TestLoadCatalogFileDefault(t *testing.T) {
	exercises, err := LoadCatalogFile("")
	require.NoError(t, err)
	require.Len(t, exercises, 5)

	assert.Equal(t, "Basic Words - Tamil", exercises[0].Title)
	assert.Equal(t, models.LanguageTamil, exercises[0].Language)
	assert.Equal(t, []string{"cat", "dog", "house", "tree", "water"}, exercises[1].WordList)
	assert.Equal(t, models.LanguageBoth, exercises[2].Language)
	assert.Equal(t, models.DifficultyIntermediate, exercises[4].Difficulty)
}

func TestLoadCatalogNormalizes(t *testing.T) {
	input := `
exercises:
  - title: "  Farm  "
    language: english
    words: [" pig ", "", "hen"]
`
	exercises, err := LoadCatalog(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, exercises, 1)

	assert.Equal(t, "Farm", exercises[0].Title)
	assert.Equal(t, models.LanguageEnglish, exercises[0].Language)
	assert.Equal(t, models.DifficultyBeginner, exercises[0].Difficulty)
	assert.Equal(t, []string{"pig", "hen"}, exercises[0].WordList)
}

func TestLoadCatalogRejectsInvalidEntries(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "unknown language", input: "exercises:\n  - title: x\n    language: french\n"},
		{name: "missing title", input: "exercises:\n  - language: tamil\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCatalog(strings.NewReader(tt.input))
			assert.True(t, errors.Is(err, models.ErrValidation), "got %v", err)
		})
	}
}

func TestLoadCatalogRejectsUnknownFields(t *testing.T) {
	_, err := LoadCatalog(strings.NewReader("exercises:\n  - title: x\n    colour: red\n"))
	assert.Error(t, err)
}

func TestLoadCatalogFileFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("exercises:\n  - title: Shapes\n    words: [circle]\n"), 0o644))

	exercises, err := LoadCatalogFile(path)
	require.NoError(t, err)
	require.Len(t, exercises, 1)
	assert.Equal(t, models.LanguageBoth, exercises[0].Language)

	_, err = LoadCatalogFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestCleanWords(t *testing.T) {
	assert.Equal(t, []string{}, CleanWords(nil))
	assert.Equal(t, []string{"a", "b"}, CleanWords([]string{" a", "  ", "b "}))
}
