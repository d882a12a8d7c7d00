package diary

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrBadEmotionPayload is returned when the emotion model's output is not
// valid JSON or does not conform to the emotion schema. The analysis is
// never silently defaulted; callers decide whether to retry.
var ErrBadEmotionPayload = errors.New("emotion payload does not match schema")

// emotionPrompt instructs the model to return nothing but schema-shaped
// JSON. Temperature 0 keeps repeated analyses of the same entry stable.
const emotionPrompt = `You are an emotion analyst for personal diary entries.

Analyse the diary entry provided by the user and respond with ONLY a JSON object in this exact format (no markdown, no prose):
{
  "primary": "<single dominant emotion, one lowercase word such as joy, sadness, anger, fear, calm, excitement, frustration, gratitude>",
  "overallSentiment": "<positive|neutral|negative>",
  "confidence": <0.0-1.0>
}

Judge the entry as a whole. If emotions are mixed, pick the one that dominates and reflect the balance in overallSentiment.`

// emotionSchemaJSON is the contract the model's output must satisfy.
const emotionSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "primary": {"type": "string", "minLength": 1},
    "overallSentiment": {"type": "string", "enum": ["positive", "neutral", "negative"]},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1}
  },
  "required": ["primary", "overallSentiment"],
  "additionalProperties": false
}`

var emotionSchema = jsonschema.MustCompileString("emotion.schema.json", emotionSchemaJSON)

// ParseEmotion validates raw model output against the emotion schema and
// decodes it. Markdown code fences around the JSON are tolerated; anything
// else malformed is rejected with [ErrBadEmotionPayload].
func ParseEmotion(raw string) (EmotionAnalysis, error) {
	cleaned := stripCodeFences(raw)

	var payload any
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return EmotionAnalysis{}, fmt.Errorf("diary: emotion analysis: %v: %w", err, ErrBadEmotionPayload)
	}
	if err := emotionSchema.Validate(payload); err != nil {
		return EmotionAnalysis{}, fmt.Errorf("diary: emotion analysis: %v: %w", err, ErrBadEmotionPayload)
	}

	var out EmotionAnalysis
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return EmotionAnalysis{}, fmt.Errorf("diary: emotion analysis: %v: %w", err, ErrBadEmotionPayload)
	}
	return out, nil
}

// stripCodeFences removes optional markdown code fences (```json ... ```)
// that some models wrap around JSON output.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"```json", "```"} {
		if after, ok := strings.CutPrefix(s, prefix); ok {
			s = after
			break
		}
	}
	if before, ok := strings.CutSuffix(s, "```"); ok {
		s = before
	}
	return strings.TrimSpace(s)
}
