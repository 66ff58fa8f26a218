package llm

import (
	"context"

	"speechcoach/internal/analysis"
)

// Analyze asks the model for a structured assessment of a session
func (c *Client) Analyze(ctx context.Context, req analysis.Request) (analysis.Result, error) {
	prompt := req.Prompt
	if req.AudioURL != "" {
		prompt += "\n\nSession audio: " + req.AudioURL
	}

	schema := req.Schema
	if schema == nil {
		schema = analysis.ResultSchema
	}

	var result analysis.Result
	err := c.structured(ctx, c.cfg.Model, "session_analysis", schema, []chatMessage{
		{Role: "system", Content: "You are a speech therapist assessing a child's practice session. Be encouraging and specific."},
		{Role: "user", Content: prompt},
	}, &result)
	return result, err
}
