// Package llm talks to an OpenAI-compatible chat completions API with
// structured (JSON schema) output. It provides the emotion classifier and the
// session analyzer.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// maxErrorBodySize caps how much of an error response is read into the error message
const maxErrorBodySize = 4 << 10

// ErrNotConfigured is returned when no endpoint or API key is set
var ErrNotConfigured = errors.New("llm endpoint not configured")

// Config holds the connection settings of the API
type Config struct {
	Endpoint        string // base URL, e.g. https://api.openai.com/v1
	APIKey          string
	Model           string // model used for session analysis
	ClassifierModel string // vision model used for emotion classification; defaults to Model
	Timeout         time.Duration
}

// Client is a small OpenAI-compatible client
type Client struct {
	cfg    Config
	http   *http.Client
	logger logrus.FieldLogger
}

// NewClient creates a client
func NewClient(cfg Config, logger logrus.FieldLogger) *Client {
	if cfg.ClassifierModel == "" {
		cfg.ClassifierModel = cfg.Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

// chatMessage content is either a string or a list of contentParts
type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type responseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *jsonSchema `json:"json_schema,omitempty"`
}

type jsonSchema struct {
	Name   string                 `json:"name"`
	Schema map[string]interface{} `json:"schema"`
	Strict bool                   `json:"strict"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// structured sends one chat request and decodes the JSON reply into out
func (c *Client) structured(ctx context.Context, model, schemaName string, schema map[string]interface{}, messages []chatMessage, out interface{}) error {
	if c.cfg.Endpoint == "" || c.cfg.APIKey == "" {
		return ErrNotConfigured
	}

	start := time.Now()
	body, err := json.Marshal(chatRequest{
		Model:    model,
		Messages: messages,
		ResponseFormat: &responseFormat{
			Type:       "json_schema",
			JSONSchema: &jsonSchema{Name: schemaName, Schema: schema, Strict: true},
		},
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return fmt.Errorf("llm error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return errors.New("no choices in response")
	}

	content := stripFences(chat.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("decode %s: %w", schemaName, err)
	}

	c.logger.WithFields(logrus.Fields{
		"model":    chat.Model,
		"schema":   schemaName,
		"tokens":   chat.Usage.TotalTokens,
		"duration": time.Since(start).String(),
	}).Debug("LLM request complete")
	return nil
}

// stripFences removes a markdown code fence some models wrap JSON in
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
