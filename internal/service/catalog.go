package service

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"speechcoach/internal/models"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// CatalogEntry is one exercise in a seed catalog file
type CatalogEntry struct {
	Title      string   `yaml:"title"`
	Language   string   `yaml:"language"`
	Difficulty string   `yaml:"difficulty"`
	Category   string   `yaml:"category"`
	Prompt     string   `yaml:"prompt"`
	Words      []string `yaml:"words"`
}

type catalogFile struct {
	Exercises []CatalogEntry `yaml:"exercises"`
}

// LoadCatalog parses a YAML catalog into exercises ready to be stored
func LoadCatalog(r io.Reader) ([]models.Exercise, error) {
	var file catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return []models.Exercise{}, nil
		}
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	exercises := make([]models.Exercise, 0, len(file.Exercises))
	for i, entry := range file.Exercises {
		ex, err := entry.exercise()
		if err != nil {
			return nil, fmt.Errorf("catalog entry %d: %w", i+1, err)
		}
		exercises = append(exercises, ex)
	}
	return exercises, nil
}

// LoadCatalogFile reads a catalog from path, or the built-in catalog when path is empty
func LoadCatalogFile(path string) ([]models.Exercise, error) {
	if path == "" {
		return LoadCatalog(bytes.NewReader(defaultCatalog))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()
	return LoadCatalog(f)
}

func (entry CatalogEntry) exercise() (models.Exercise, error) {
	language, err := models.ParseLanguage(entry.Language)
	if err != nil {
		return models.Exercise{}, err
	}
	difficulty, err := models.ParseDifficulty(entry.Difficulty)
	if err != nil {
		return models.Exercise{}, err
	}

	ex := models.Exercise{
		Title:      strings.TrimSpace(entry.Title),
		Language:   language,
		Difficulty: difficulty,
		Category:   entry.Category,
		Prompt:     entry.Prompt,
		WordList:   CleanWords(entry.Words),
	}
	if err := ex.Validate(); err != nil {
		return models.Exercise{}, err
	}
	return ex, nil
}

// CleanWords trims every word and drops blanks
func CleanWords(words []string) []string {
	cleaned := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			cleaned = append(cleaned, w)
		}
	}
	return cleaned
}
