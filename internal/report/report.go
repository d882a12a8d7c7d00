// Package report implements the report aggregator: date-window statistics
// over diary and quest history, chart-ready series, a model-written
// narrative summary, and a compressed archive format for export.
//
// A report is computed once by [Aggregator.Generate] and never mutated
// afterwards. All statistics are deterministic; the single external call is
// the summary generation through the injected text provider.
package report

import (
	"time"

	"github.com/meteoright00/diary-quest-sub001/internal/diary"
)

// ReportType is the reporting period granularity.
type ReportType string

const (
	TypeWeekly  ReportType = "weekly"
	TypeMonthly ReportType = "monthly"
	TypeYearly  ReportType = "yearly"
)

// IsValid reports whether t is a recognised report type.
func (t ReportType) IsValid() bool {
	switch t {
	case TypeWeekly, TypeMonthly, TypeYearly:
		return true
	}
	return false
}

// Period is an inclusive calendar-date window. Start and End are midnight
// UTC dates.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days returns the number of calendar days in the period, inclusive of both
// bounds.
func (p Period) Days() int {
	return int(p.End.Sub(p.Start).Hours()/24) + 1
}

// DefaultPeriod returns the rolling window a report of type t covers when
// the caller names no explicit bounds: 7 days for weekly, 30 for monthly
// and 365 for yearly, ending on the calendar day of end.
func DefaultPeriod(t ReportType, end time.Time) Period {
	var days int
	switch t {
	case TypeWeekly:
		days = 7
	case TypeMonthly:
		days = 30
	default:
		days = 365
	}
	end = diary.Day(end)
	return Period{Start: end.AddDate(0, 0, -(days - 1)), End: end}
}

// DiaryStats summarises writing activity inside the period.
type DiaryStats struct {
	// TotalCount is the number of diary entries.
	TotalCount int `json:"totalCount"`

	// TotalWordsWritten sums the word counts of all entries.
	TotalWordsWritten int `json:"totalWordsWritten"`

	// AverageWordCount is TotalWordsWritten/TotalCount, 0 when empty.
	AverageWordCount int `json:"averageWordCount"`

	// LongestStreak is the longest run of consecutive calendar days inside
	// the period with at least one entry.
	LongestStreak int `json:"longestStreak"`

	// WritingRate is the percentage of period days with at least one entry,
	// rounded half-up.
	WritingRate int `json:"writingRate"`
}

// EmotionStats summarises the emotion analyses of the period's entries.
// The three ratios sum to exactly 100 for non-empty input and are all 0
// when the period has no entries.
type EmotionStats struct {
	MostCommon    string `json:"mostCommon"`
	PositiveRatio int    `json:"positiveRatio"`
	NegativeRatio int    `json:"negativeRatio"`
	NeutralRatio  int    `json:"neutralRatio"`
}

// CharacterGrowth is the progression delta across the period, reconstructed
// from the character's current level state and the period's exp income.
type CharacterGrowth struct {
	ExpGained    int `json:"expGained"`
	GoldEarned   int `json:"goldEarned"`
	StartLevel   int `json:"startLevel"`
	EndLevel     int `json:"endLevel"`
	LevelsGained int `json:"levelsGained"`
}

// QuestStats counts period quests by outcome.
type QuestStats struct {
	Completed  int `json:"completed"`
	InProgress int `json:"inProgress"`
	Failed     int `json:"failed"`

	// CompletionRate is completed/(completed+failed) as a half-up rounded
	// percentage, 0 when no quest finished either way.
	CompletionRate int `json:"completionRate"`
}

// TrendPoint is one dated value in a chart series.
type TrendPoint struct {
	Date  time.Time `json:"date"`
	Value int       `json:"value"`
}

// Charts holds the chart-ready series derived from the period.
type Charts struct {
	// EmotionTrend scores each entry's sentiment (+1/0/-1) in chronological
	// order.
	EmotionTrend []TrendPoint `json:"emotionTrend"`

	// WritingFrequency has one point per period day carrying that day's
	// entry count.
	WritingFrequency []TrendPoint `json:"writingFrequency"`

	// QuestProgress is the three quest buckets in [completed, inProgress,
	// failed] order.
	QuestProgress [3]int `json:"questProgress"`
}

// Report is the immutable artifact produced by [Aggregator.Generate].
type Report struct {
	ID          string     `json:"id"`
	CharacterID string     `json:"characterId"`
	Type        ReportType `json:"type"`
	Period      Period     `json:"period"`

	DiaryStats      DiaryStats      `json:"diaryStats"`
	EmotionStats    EmotionStats    `json:"emotionStats"`
	CharacterGrowth CharacterGrowth `json:"characterGrowth"`
	QuestStats      QuestStats      `json:"questStats"`
	Charts          Charts          `json:"charts"`

	// AISummary is the model-written narrative retrospective, stored
	// verbatim.
	AISummary string `json:"aiSummary"`

	CreatedAt time.Time `json:"createdAt"`
}

// Clone returns a deep copy.
func (r *Report) Clone() *Report {
	if r == nil {
		return nil
	}
	out := *r
	if r.Charts.EmotionTrend != nil {
		out.Charts.EmotionTrend = make([]TrendPoint, len(r.Charts.EmotionTrend))
		copy(out.Charts.EmotionTrend, r.Charts.EmotionTrend)
	}
	if r.Charts.WritingFrequency != nil {
		out.Charts.WritingFrequency = make([]TrendPoint, len(r.Charts.WritingFrequency))
		copy(out.Charts.WritingFrequency, r.Charts.WritingFrequency)
	}
	return &out
}
