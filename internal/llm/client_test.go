package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speechcoach/internal/analysis"
	"speechcoach/internal/capture"
	"speechcoach/internal/models"
)

// fakeAPI answers chat completions with content and records the last request
func fakeAPI(t *testing.T, status int, content string) (*httptest.Server, *chatRequest) {
	t.Helper()
	var last chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&last))

		if status != http.StatusOK {
			http.Error(w, "rate limited", status)
			return
		}
		resp := map[string]interface{}{
			"model": last.Model,
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": content}, "finish_reason": "stop"},
			},
			"usage": map[string]int{"total_tokens": 42},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &last
}

func newTestClient(endpoint string) *Client {
	logger, _ := logtest.NewNullLogger()
	return NewClient(Config{
		Endpoint:        endpoint + "/v1/",
		APIKey:          "test-key",
		Model:           "gpt-4o-mini",
		ClassifierModel: "gpt-4o",
		Timeout:         time.Second,
	}, logger)
}

func TestClassify(t *testing.T) {
	srv, last := fakeAPI(t, http.StatusOK, `{"emotion":"happy","confidence":87,"description":"smiling"}`)
	c := newTestClient(srv.URL)

	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	sample, err := c.Classify(context.Background(), capture.Frame{Data: []byte{0xff, 0xd8}, ContentType: "image/jpeg", CapturedAt: at})
	require.NoError(t, err)

	assert.Equal(t, models.EmotionHappy, sample.Label)
	assert.Equal(t, 87.0, sample.Confidence)
	assert.Equal(t, "smiling", sample.Description)
	assert.Equal(t, at, sample.CapturedAt)

	assert.Equal(t, "gpt-4o", last.Model)
	require.NotNil(t, last.ResponseFormat)
	assert.Equal(t, "json_schema", last.ResponseFormat.Type)
	assert.Equal(t, "emotion", last.ResponseFormat.JSONSchema.Name)

	// content decodes as a generic list of parts
	parts, ok := last.Messages[0].Content.([]interface{})
	require.True(t, ok)
	require.Len(t, parts, 2)
	image := parts[1].(map[string]interface{})["image_url"].(map[string]interface{})
	assert.True(t, strings.HasPrefix(image["url"].(string), "data:image/jpeg;base64,"))
}

func TestClassifyErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		content string
		frame   capture.Frame
	}{
		{"http error", http.StatusTooManyRequests, "", capture.Frame{Data: []byte("x")}},
		{"not json", http.StatusOK, "I think the child is happy", capture.Frame{Data: []byte("x")}},
		{"unknown label", http.StatusOK, `{"emotion":"bored","confidence":50,"description":""}`, capture.Frame{Data: []byte("x")}},
		{"empty frame", http.StatusOK, `{}`, capture.Frame{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := fakeAPI(t, tt.status, tt.content)
			_, err := newTestClient(srv.URL).Classify(context.Background(), tt.frame)
			assert.Error(t, err)
		})
	}
}

func TestAnalyze(t *testing.T) {
	content := "```json\n" + `{"transcript":"amma appa","clarity_score":88,"fluency_score":79,"confidence_score":91,` +
		`"positive_notes":["clear vowels"],"areas_of_improvement":["pace"],"ai_feedback":"Well done"}` + "\n```"
	srv, last := fakeAPI(t, http.StatusOK, content)
	c := newTestClient(srv.URL)

	result, err := c.Analyze(context.Background(), analysis.Request{
		Prompt:   "Analyze this session",
		AudioURL: "http://files.local/a.webm",
		Schema:   analysis.ResultSchema,
	})
	require.NoError(t, err)

	assert.Equal(t, "amma appa", result.Transcript)
	assert.Equal(t, 88.0, result.ClarityScore)
	assert.Equal(t, []string{"clear vowels"}, result.PositiveNotes)
	assert.Equal(t, "Well done", result.AIFeedback)

	assert.Equal(t, "gpt-4o-mini", last.Model)
	require.Len(t, last.Messages, 2)
	assert.Contains(t, last.Messages[1].Content, "Session audio: http://files.local/a.webm")
}

func TestNotConfigured(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	c := NewClient(Config{}, logger)
	_, err := c.Analyze(context.Background(), analysis.Request{Prompt: "x"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences(" {\"a\":1} "))
}
