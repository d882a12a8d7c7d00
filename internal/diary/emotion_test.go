package diary

import (
	"errors"
	"testing"
)

func TestParseEmotion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want EmotionAnalysis
	}{
		{
			name: "plain JSON",
			raw:  `{"primary":"joy","overallSentiment":"positive","confidence":0.92}`,
			want: EmotionAnalysis{Primary: "joy", OverallSentiment: SentimentPositive, Confidence: 0.92},
		},
		{
			name: "fenced with language tag",
			raw:  "```json\n{\"primary\":\"anxiety\",\"overallSentiment\":\"negative\",\"confidence\":0.7}\n```",
			want: EmotionAnalysis{Primary: "anxiety", OverallSentiment: SentimentNegative, Confidence: 0.7},
		},
		{
			name: "fenced without language tag",
			raw:  "```\n{\"primary\":\"calm\",\"overallSentiment\":\"neutral\",\"confidence\":0.5}\n```",
			want: EmotionAnalysis{Primary: "calm", OverallSentiment: SentimentNeutral, Confidence: 0.5},
		},
		{
			name: "confidence optional",
			raw:  `{"primary":"pride","overallSentiment":"positive"}`,
			want: EmotionAnalysis{Primary: "pride", OverallSentiment: SentimentPositive},
		},
		{
			name: "surrounding whitespace",
			raw:  "  \n{\"primary\":\"relief\",\"overallSentiment\":\"positive\",\"confidence\":1}\n  ",
			want: EmotionAnalysis{Primary: "relief", OverallSentiment: SentimentPositive, Confidence: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseEmotion(tt.raw)
			if err != nil {
				t.Fatalf("ParseEmotion() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseEmotion() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseEmotionRejectsMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{name: "prose instead of JSON", raw: "The writer seems happy overall."},
		{name: "empty string", raw: ""},
		{name: "missing primary", raw: `{"overallSentiment":"positive","confidence":0.9}`},
		{name: "missing sentiment", raw: `{"primary":"joy","confidence":0.9}`},
		{name: "unknown sentiment value", raw: `{"primary":"joy","overallSentiment":"ecstatic","confidence":0.9}`},
		{name: "empty primary", raw: `{"primary":"","overallSentiment":"positive"}`},
		{name: "confidence above one", raw: `{"primary":"joy","overallSentiment":"positive","confidence":1.5}`},
		{name: "negative confidence", raw: `{"primary":"joy","overallSentiment":"positive","confidence":-0.1}`},
		{name: "unexpected extra field", raw: `{"primary":"joy","overallSentiment":"positive","mood":"sunny"}`},
		{name: "array instead of object", raw: `["joy","positive"]`},
		{name: "truncated JSON", raw: `{"primary":"joy","overallSentiment":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseEmotion(tt.raw)
			if !errors.Is(err, ErrBadEmotionPayload) {
				t.Errorf("ParseEmotion(%q) error = %v, want ErrBadEmotionPayload", tt.raw, err)
			}
		})
	}
}
