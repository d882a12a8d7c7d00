package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/meteoright00/diary-quest-sub001/internal/character"
	"github.com/meteoright00/diary-quest-sub001/internal/diary"
	"github.com/meteoright00/diary-quest-sub001/internal/quest"
	"github.com/meteoright00/diary-quest-sub001/pkg/provider/llm"
)

var (
	// ErrNoCharacter is returned when a request names no character.
	ErrNoCharacter = errors.New("character is required")

	// ErrInvalidPeriod is returned when the period start falls after its end.
	ErrInvalidPeriod = errors.New("period start is after end")

	// ErrUnknownType is returned for an unrecognised report type.
	ErrUnknownType = errors.New("unknown report type")
)

// Request carries everything one report computation needs. Diaries are
// expected to be pre-filtered to the period by the caller; Quests are the
// full candidate set and are windowed here.
type Request struct {
	Type  ReportType
	Start time.Time
	End   time.Time

	Character *character.Character
	Diaries   []*diary.Diary
	Quests    []*quest.Quest
}

// Aggregator computes reports. Construct with [NewAggregator]; safe for
// concurrent use.
type Aggregator struct {
	llm       llm.Provider
	cost      character.CostFunc
	maxTokens int
}

// Option is a functional option for [NewAggregator].
type Option func(*Aggregator)

// WithCostFunc injects the level-cost curve used to reconstruct level
// progress across the period. It must match the curve the progression
// engine runs with. Defaults to LinearCost(DefaultCostBase).
func WithCostFunc(cost character.CostFunc) Option {
	return func(a *Aggregator) { a.cost = cost }
}

// WithSummaryMaxTokens bounds the narrative summary length.
func WithSummaryMaxTokens(n int) Option {
	return func(a *Aggregator) { a.maxTokens = n }
}

// NewAggregator creates an [Aggregator] backed by the given text provider.
func NewAggregator(provider llm.Provider, opts ...Option) *Aggregator {
	a := &Aggregator{
		llm:       provider,
		maxTokens: defaultSummaryMaxTokens,
	}
	for _, o := range opts {
		o(a)
	}
	if a.cost == nil {
		a.cost = character.LinearCost(character.DefaultCostBase)
	}
	return a
}

// Generate computes the full report for req and writes the narrative
// summary through the text provider. A provider failure or empty summary
// aborts the whole report; statistics are never returned with a fabricated
// summary standing in.
//
// A period with zero diaries is valid and produces zero-valued statistics.
func (a *Aggregator) Generate(ctx context.Context, req Request) (*Report, error) {
	r, err := a.Stats(req)
	if err != nil {
		return nil, err
	}

	summary, err := a.summarise(ctx, req.Character.Name, r)
	if err != nil {
		return nil, err
	}

	r.ID = uuid.NewString()
	r.AISummary = summary
	r.CreatedAt = time.Now().UTC()
	return r, nil
}

// Stats computes every statistic of the report without calling the text
// provider. The result carries no ID, summary or creation stamp; the
// read-only tool surface serves it directly.
func (a *Aggregator) Stats(req Request) (*Report, error) {
	if req.Character == nil {
		return nil, fmt.Errorf("report: generate: %w", ErrNoCharacter)
	}
	if !req.Type.IsValid() {
		return nil, fmt.Errorf("report: generate: %q: %w", req.Type, ErrUnknownType)
	}

	period := Period{Start: diary.Day(req.Start), End: diary.Day(req.End)}
	if period.Start.After(period.End) {
		return nil, fmt.Errorf("report: generate: %w", ErrInvalidPeriod)
	}

	dayCounts := countByDay(req.Diaries)
	questStats := buildQuestStats(req.Quests, period.End)

	return &Report{
		CharacterID:     req.Character.ID,
		Type:            req.Type,
		Period:          period,
		DiaryStats:      buildDiaryStats(req.Diaries, period, dayCounts),
		EmotionStats:    buildEmotionStats(req.Diaries),
		CharacterGrowth: a.buildGrowth(req.Character, req.Diaries),
		QuestStats:      questStats,
		Charts:          buildCharts(req.Diaries, period, dayCounts, questStats),
	}, nil
}

// countByDay indexes entry counts by calendar day.
func countByDay(diaries []*diary.Diary) map[time.Time]int {
	counts := make(map[time.Time]int, len(diaries))
	for _, d := range diaries {
		counts[diary.Day(d.Date)]++
	}
	return counts
}

func buildDiaryStats(diaries []*diary.Diary, period Period, dayCounts map[time.Time]int) DiaryStats {
	total := len(diaries)
	words := 0
	for _, d := range diaries {
		words += d.Metadata.WordCount
	}
	avg := 0
	if total > 0 {
		avg = words / total
	}

	var withEntry, streak, longest int
	for day := period.Start; !day.After(period.End); day = day.AddDate(0, 0, 1) {
		if dayCounts[day] > 0 {
			withEntry++
			streak++
			if streak > longest {
				longest = streak
			}
		} else {
			streak = 0
		}
	}

	return DiaryStats{
		TotalCount:        total,
		TotalWordsWritten: words,
		AverageWordCount:  avg,
		LongestStreak:     longest,
		WritingRate:       roundPercent(withEntry, period.Days()),
	}
}

func buildEmotionStats(diaries []*diary.Diary) EmotionStats {
	if len(diaries) == 0 {
		return EmotionStats{}
	}

	var pos, neg int
	counts := make(map[string]int)
	for _, d := range diaries {
		switch d.EmotionAnalysis.OverallSentiment {
		case diary.SentimentPositive:
			pos++
		case diary.SentimentNegative:
			neg++
		}
		if tag := d.EmotionAnalysis.Primary; tag != "" {
			counts[tag]++
		}
	}

	// Second pass over the input order so ties go to the tag encountered
	// first.
	var most string
	var mostCount int
	for _, d := range diaries {
		if tag := d.EmotionAnalysis.Primary; tag != "" && counts[tag] > mostCount {
			most, mostCount = tag, counts[tag]
		}
	}

	p := roundPercent(pos, len(diaries))
	n := roundPercent(neg, len(diaries))
	return EmotionStats{
		MostCommon:    most,
		PositiveRatio: p,
		NegativeRatio: n,
		NeutralRatio:  100 - p - n,
	}
}

// buildGrowth reconstructs level progress across the period. The character
// stores only relative exp, so the end-of-period cumulative total is rebuilt
// from the level curve, the period's income is subtracted, and both
// cumulative totals are split back into levels.
func (a *Aggregator) buildGrowth(ch *character.Character, diaries []*diary.Diary) CharacterGrowth {
	var exp, gold int
	for _, d := range diaries {
		total := d.TotalRewards()
		exp += total.Exp
		gold += total.Gold
	}

	endCum := character.CumulativeExp(a.cost, ch.Level.Current, ch.Level.Exp)
	startCum := endCum - exp
	if startCum < 0 {
		// A character created inside the period has no earlier state.
		startCum = 0
	}
	endLevel, _ := character.SplitCumulative(a.cost, endCum)
	startLevel, _ := character.SplitCumulative(a.cost, startCum)

	return CharacterGrowth{
		ExpGained:    exp,
		GoldEarned:   gold,
		StartLevel:   startLevel,
		EndLevel:     endLevel,
		LevelsGained: endLevel - startLevel,
	}
}

func buildQuestStats(quests []*quest.Quest, end time.Time) QuestStats {
	// CreatedAt and CompletedAt carry clock times while End is a date;
	// the first instant of the following day bounds them inclusively.
	cutoff := end.AddDate(0, 0, 1)

	var s QuestStats
	for _, q := range quests {
		switch {
		case q.CompletedAt != nil && q.CompletedAt.Before(cutoff):
			s.Completed++
		case q.CreatedAt.Before(cutoff):
			if q.Status == quest.StatusFailed {
				s.Failed++
			} else {
				s.InProgress++
			}
		}
	}
	s.CompletionRate = roundPercent(s.Completed, s.Completed+s.Failed)
	return s
}

func buildCharts(diaries []*diary.Diary, period Period, dayCounts map[time.Time]int, quests QuestStats) Charts {
	sorted := make([]*diary.Diary, len(diaries))
	copy(sorted, diaries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	trend := make([]TrendPoint, 0, len(sorted))
	for _, d := range sorted {
		trend = append(trend, TrendPoint{
			Date:  diary.Day(d.Date),
			Value: d.EmotionAnalysis.OverallSentiment.Score(),
		})
	}

	freq := make([]TrendPoint, 0, period.Days())
	for day := period.Start; !day.After(period.End); day = day.AddDate(0, 0, 1) {
		freq = append(freq, TrendPoint{Date: day, Value: dayCounts[day]})
	}

	return Charts{
		EmotionTrend:     trend,
		WritingFrequency: freq,
		QuestProgress:    [3]int{quests.Completed, quests.InProgress, quests.Failed},
	}
}

// roundPercent returns n/d as a half-up rounded percentage, 0 when d is 0.
func roundPercent(n, d int) int {
	if d == 0 {
		return 0
	}
	return (200*n + d) / (2 * d)
}
