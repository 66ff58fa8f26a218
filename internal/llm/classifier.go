package llm

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/samber/lo"

	"speechcoach/internal/capture"
	"speechcoach/internal/models"
)

const classifyPrompt = "Look at the child's facial expression in this webcam frame and classify their emotional state. " +
	"Answer with one of the listed emotions, a confidence from 0 to 100 and a short description."

var emotionSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"emotion": map[string]interface{}{
			"type": "string",
			"enum": lo.Map(models.EmotionLabels, func(l models.EmotionLabel, _ int) string { return string(l) }),
		},
		"confidence":  map[string]interface{}{"type": "number"},
		"description": map[string]interface{}{"type": "string"},
	},
	"required":             []string{"emotion", "confidence", "description"},
	"additionalProperties": false,
}

type emotionReply struct {
	Emotion     string  `json:"emotion"`
	Confidence  float64 `json:"confidence"`
	Description string  `json:"description"`
}

// Classify labels the expression in frame
func (c *Client) Classify(ctx context.Context, frame capture.Frame) (models.EmotionSample, error) {
	if frame.Empty() {
		return models.EmotionSample{}, fmt.Errorf("empty frame")
	}
	contentType := frame.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}
	dataURL := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(frame.Data)

	var reply emotionReply
	err := c.structured(ctx, c.cfg.ClassifierModel, "emotion", emotionSchema, []chatMessage{{
		Role: "user",
		Content: []contentPart{
			{Type: "text", Text: classifyPrompt},
			{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
		},
	}}, &reply)
	if err != nil {
		return models.EmotionSample{}, err
	}

	label := models.EmotionLabel(reply.Emotion)
	if !label.Valid() {
		return models.EmotionSample{}, fmt.Errorf("unknown emotion %q", reply.Emotion)
	}
	return models.EmotionSample{
		Label:       label,
		Confidence:  models.ClampScore(reply.Confidence),
		Description: reply.Description,
		CapturedAt:  frame.CapturedAt,
	}, nil
}
