package analysis

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speechcoach/internal/models"
)

type fakeAnalyzer struct {
	result Result
	err    error
	got    Request
	calls  int
	block  bool
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, req Request) (Result, error) {
	f.calls++
	f.got = req
	if f.block {
		<-ctx.Done()
		return Result{}, ctx.Err()
	}
	return f.result, f.err
}

type fakeUploader struct {
	data []byte
	err  error
}

func (f *fakeUploader) Upload(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.data = append([]byte(nil), data...)
	return "http://files.local/" + name, nil
}

type fakeStore struct {
	err   error
	saved []*models.SessionRecord
}

func (f *fakeStore) Create(ctx context.Context, rec *models.SessionRecord) (*models.SessionRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := *rec
	out.ID = int64(len(f.saved) + 1)
	out.CreatedAt = time.Now().UTC()
	f.saved = append(f.saved, &out)
	return &out, nil
}

func emotions(labels ...models.EmotionLabel) []models.EmotionSample {
	out := make([]models.EmotionSample, len(labels))
	for i, l := range labels {
		out[i] = models.EmotionSample{Label: l}
	}
	return out
}

func sampleInput() Input {
	words := []string{"amma", "appa", "pal", "nila", "maram"}
	recs := make([]models.WordRecording, len(words))
	for i, w := range words {
		recs[i] = models.WordRecording{Index: i, Word: w, Audio: []byte(w)}
	}
	return Input{
		ProfileID:  7,
		ExerciseID: 3,
		Language:   models.LanguageTamil,
		Difficulty: models.DifficultyBeginner,
		Words:      words,
		Completed:  words,
		Recordings: recs,
		Emotions: emotions(models.EmotionHappy, models.EmotionConfident, models.EmotionHappy,
			models.EmotionNeutral, models.EmotionSad),
	}
}

func newSynth(a Analyzer, u Uploader, s Store) *Synthesizer {
	logger, _ := logtest.NewNullLogger()
	return NewSynthesizer(a, u, s, Config{AnalysisTimeout: time.Second, UploadTimeout: time.Second}, logger)
}

func TestFallbackScoring(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Input)
		clarity   float64
		fluency   float64
		confident float64
	}{
		{
			name:      "beginner all words three positive",
			mutate:    func(in *Input) {},
			clarity:   81,
			fluency:   85,
			confident: 83,
		},
		{
			name: "intermediate partial no emotions",
			mutate: func(in *Input) {
				in.Difficulty = models.DifficultyIntermediate
				in.Completed = in.Words[:3]
				in.Emotions = nil
			},
			clarity:   70,
			fluency:   75,
			confident: 72.5,
		},
		{
			name: "advanced emotion bonus capped at ten",
			mutate: func(in *Input) {
				in.Difficulty = models.DifficultyAdvanced
				in.Emotions = emotions(models.EmotionHappy, models.EmotionHappy, models.EmotionHappy,
					models.EmotionConfident, models.EmotionConfident, models.EmotionConfident, models.EmotionHappy)
			},
			clarity:   75,
			fluency:   75,
			confident: 75,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := sampleInput()
			tt.mutate(&in)
			got := Fallback(in)
			assert.Equal(t, tt.clarity, got.ClarityScore)
			assert.Equal(t, tt.fluency, got.FluencyScore)
			assert.Equal(t, tt.confident, got.ConfidenceScore)
		})
	}
}

func TestFallbackTemplates(t *testing.T) {
	in := sampleInput()
	got := Fallback(in)

	assert.Equal(t, "Practiced 5 words: amma, appa, pal, nila, maram", got.Transcript)
	assert.Contains(t, got.PositiveNotes, "Completed 5 words successfully!")
	assert.Contains(t, got.PositiveNotes, "Great effort with Tamil language practice")
	assert.Contains(t, got.PositiveNotes, "Showed positive emotions during practice")
	assert.Contains(t, got.AreasOfImprovement, "Continue practicing beginner level exercises")
	assert.Contains(t, got.AIFeedback, "5 words at beginner difficulty")

	in.Emotions = nil
	assert.Contains(t, Fallback(in).PositiveNotes, "Maintained focus during the session")
}

func TestBuildPrompt(t *testing.T) {
	in := sampleInput()
	in.Emotions = append(in.Emotions, models.EmotionSample{Label: models.EmotionAnxious})
	prompt := BuildPrompt(in)

	assert.Contains(t, prompt, "Language: Tamil")
	assert.Contains(t, prompt, "Difficulty: beginner")
	assert.Contains(t, prompt, "Words practiced: amma, appa, pal, nila, maram")
	assert.Contains(t, prompt, "3 positive moments, 2 challenging moments")
}

func TestSynthesizeUsesAIResult(t *testing.T) {
	analyzer := &fakeAnalyzer{result: Result{
		Transcript:      "amma appa pal nila maram",
		ClarityScore:    92,
		FluencyScore:    104,
		ConfidenceScore: -3,
		PositiveNotes:   []string{"clear"},
		AIFeedback:      "Wonderful",
	}}
	uploader := &fakeUploader{}
	store := &fakeStore{}

	s := newSynth(analyzer, uploader, store)
	rec, err := s.Save(context.Background(), s.Compose(context.Background(), sampleInput()))
	require.NoError(t, err)

	assert.Equal(t, int64(1), rec.ID)
	assert.Equal(t, SourceAI, rec.AnalysisSource)
	assert.Equal(t, 92.0, rec.ClarityScore)
	assert.Equal(t, 100.0, rec.FluencyScore)
	assert.Equal(t, 0.0, rec.ConfidenceScore)
	assert.Equal(t, 25, rec.DurationSeconds)
	assert.Equal(t, "http://files.local/session.webm", rec.RecordingURL)
	assert.Equal(t, []byte("ammaappapalnilamaram"), uploader.data)
	assert.Equal(t, "http://files.local/session.webm", analyzer.got.AudioURL)
	assert.True(t, strings.HasPrefix(analyzer.got.Prompt, "Analyze this speech therapy session"))
	assert.NotNil(t, analyzer.got.Schema)
}

func TestSynthesizeFallsBack(t *testing.T) {
	tests := []struct {
		name     string
		analyzer *fakeAnalyzer
		uploader *fakeUploader
		wantURL  string
		calls    int
	}{
		{
			name:     "analysis error",
			analyzer: &fakeAnalyzer{err: errors.New("503")},
			uploader: &fakeUploader{},
			wantURL:  "http://files.local/session.webm",
			calls:    1,
		},
		{
			name:     "malformed result",
			analyzer: &fakeAnalyzer{result: Result{ClarityScore: math.NaN(), Transcript: "x"}},
			uploader: &fakeUploader{},
			wantURL:  "http://files.local/session.webm",
			calls:    1,
		},
		{
			name:     "empty result",
			analyzer: &fakeAnalyzer{},
			uploader: &fakeUploader{},
			wantURL:  "http://files.local/session.webm",
			calls:    1,
		},
		{
			name:     "timeout",
			analyzer: &fakeAnalyzer{block: true},
			uploader: &fakeUploader{},
			wantURL:  "http://files.local/session.webm",
			calls:    1,
		},
		{
			name:     "upload failure skips analysis",
			analyzer: &fakeAnalyzer{},
			uploader: &fakeUploader{err: errors.New("disk full")},
			calls:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			logger, hook := logtest.NewNullLogger()
			s := NewSynthesizer(tt.analyzer, tt.uploader, store,
				Config{AnalysisTimeout: 20 * time.Millisecond, UploadTimeout: time.Second}, logger)

			rec, err := s.Save(context.Background(), s.Compose(context.Background(), sampleInput()))
			require.NoError(t, err)

			assert.Equal(t, SourceFallback, rec.AnalysisSource)
			assert.Equal(t, 81.0, rec.ClarityScore)
			assert.Equal(t, 85.0, rec.FluencyScore)
			assert.Equal(t, 83.0, rec.ConfidenceScore)
			assert.Equal(t, tt.wantURL, rec.RecordingURL)
			assert.Equal(t, tt.calls, tt.analyzer.calls)
			assert.Len(t, store.saved, 1)
			assert.NotEmpty(t, hook.AllEntries())
		})
	}
}

func TestSynthesizeWithoutServices(t *testing.T) {
	store := &fakeStore{}
	s := newSynth(nil, nil, store)
	rec, err := s.Save(context.Background(), s.Compose(context.Background(), sampleInput()))
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, rec.AnalysisSource)
	assert.Empty(t, rec.RecordingURL)
}

func TestSynthesizePersistenceFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("database is locked")}
	s := newSynth(nil, nil, store)

	rec := s.Compose(context.Background(), sampleInput())
	_, err := s.Save(context.Background(), rec)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrPersistence)
	assert.Zero(t, rec.ID)
	assert.Equal(t, 81.0, rec.ClarityScore)

	store.err = nil
	saved, err := s.Save(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, rec.ClarityScore, saved.ClarityScore)
	assert.NotZero(t, saved.ID)
}
