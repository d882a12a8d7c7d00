package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/meteoright00/diary-quest-sub001/pkg/provider/llm"
)

// ErrEmptySummary is returned when the model produces no summary text.
var ErrEmptySummary = errors.New("model returned an empty summary")

// Low temperature keeps repeated generations of the same period consistent.
const (
	summaryTemperature      = 0.3
	defaultSummaryMaxTokens = 400
)

// summaryPrompt instructs the model to write the report's narrative
// retrospective from the computed statistics.
const summaryPrompt = `You are the chronicler of an adventurer's guild, writing the closing words of a periodic progress report.

The user provides the adventurer's statistics for the period. Write a short retrospective based only on those numbers.

Rules:
- Address the adventurer in second person.
- Acknowledge both progress and hard stretches honestly; never invent deeds the numbers do not show.
- At most four sentences, no lists, no headers.`

// summarise renders the statistics into a prompt and asks the provider for
// the narrative summary. Failures and empty output both carry the
// "summary generation" stage so callers can tell an AI failure from a
// period with no data.
func (a *Aggregator) summarise(ctx context.Context, name string, r *Report) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Adventurer: %s\n", name)
	fmt.Fprintf(&sb, "Report: %s, %s to %s\n",
		r.Type, r.Period.Start.Format(time.DateOnly), r.Period.End.Format(time.DateOnly))
	fmt.Fprintf(&sb, "Diary entries: %d (%d words total, %d on average, longest streak %d days, writing rate %d%%)\n",
		r.DiaryStats.TotalCount, r.DiaryStats.TotalWordsWritten, r.DiaryStats.AverageWordCount,
		r.DiaryStats.LongestStreak, r.DiaryStats.WritingRate)
	if r.EmotionStats.MostCommon != "" {
		fmt.Fprintf(&sb, "Most common emotion: %s (positive %d%%, neutral %d%%, negative %d%%)\n",
			r.EmotionStats.MostCommon, r.EmotionStats.PositiveRatio,
			r.EmotionStats.NeutralRatio, r.EmotionStats.NegativeRatio)
	} else {
		sb.WriteString("Most common emotion: none recorded\n")
	}
	fmt.Fprintf(&sb, "Growth: %d exp and %d gold earned, level %d to %d (%d gained)\n",
		r.CharacterGrowth.ExpGained, r.CharacterGrowth.GoldEarned,
		r.CharacterGrowth.StartLevel, r.CharacterGrowth.EndLevel, r.CharacterGrowth.LevelsGained)
	fmt.Fprintf(&sb, "Quests: %d completed, %d in progress, %d failed (completion rate %d%%)\n",
		r.QuestStats.Completed, r.QuestStats.InProgress,
		r.QuestStats.Failed, r.QuestStats.CompletionRate)

	resp, err := a.llm.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: summaryPrompt,
		Temperature:  summaryTemperature,
		MaxTokens:    a.maxTokens,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: sb.String()},
		},
	})
	if err != nil {
		return "", fmt.Errorf("report: summary generation: %w", err)
	}

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", fmt.Errorf("report: summary generation: %w", ErrEmptySummary)
	}
	return text, nil
}
