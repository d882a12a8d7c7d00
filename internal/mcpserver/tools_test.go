package mcpserver

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/meteoright00/diary-quest-sub001/internal/character"
	"github.com/meteoright00/diary-quest-sub001/internal/diary"
	"github.com/meteoright00/diary-quest-sub001/internal/quest"
	"github.com/meteoright00/diary-quest-sub001/internal/report"
	"github.com/meteoright00/diary-quest-sub001/internal/search"
	"github.com/meteoright00/diary-quest-sub001/internal/store"
)

// newTestConfig returns a config over fresh memory stores with one
// persisted character on a cost(N)=100×N curve.
func newTestConfig(t *testing.T) (Config, *character.Character) {
	t.Helper()

	stores := store.NewMemory()
	engine := character.NewEngine(character.WithCostFunc(character.LinearCost(100)))
	ch := engine.CreateCharacter("Mira", "w1")
	if err := stores.Characters.Create(context.Background(), ch); err != nil {
		t.Fatalf("seed character: %v", err)
	}
	cfg := Config{
		Stores:  stores,
		Engine:  engine,
		Reports: report.NewAggregator(nil, report.WithCostFunc(engine.Cost())),
	}
	return cfg, ch
}

// seedDiaries persists minimal entries on the given dates.
func seedDiaries(t *testing.T, stores *store.Stores, characterID string, dates ...string) {
	t.Helper()
	for i, date := range dates {
		day, err := parseDay(date)
		if err != nil {
			t.Fatalf("parseDay(%q): %v", date, err)
		}
		err = stores.Diaries.Create(context.Background(), &diary.Diary{
			ID:          string(rune('a' + i)),
			CharacterID: characterID,
			Date:        day,
			Metadata:    diary.Metadata{WordCount: 10},
			EmotionAnalysis: diary.EmotionAnalysis{
				Primary:          "joy",
				OverallSentiment: diary.SentimentPositive,
			},
		})
		if err != nil {
			t.Fatalf("seed diary %q: %v", date, err)
		}
	}
}

func TestCharacterSheetHandler(t *testing.T) {
	t.Parallel()
	cfg, ch := newTestConfig(t)

	sword := character.Equipment{
		ID: "e1", Name: "Iron Sword", Slot: character.SlotWeapon,
		Bonuses: character.StatBonuses{Attack: 5}, RequiredLevel: 1,
	}
	if !cfg.Engine.EquipItem(ch, sword) {
		t.Fatal("EquipItem refused the level 1 sword")
	}
	if err := cfg.Stores.Characters.Update(context.Background(), ch); err != nil {
		t.Fatalf("update character: %v", err)
	}

	handler := characterSheetHandler(cfg.Stores, cfg.Engine)
	_, result, err := handler(context.Background(), nil, CharacterSheetInput{CharacterID: ch.ID})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if result.Character.Name != "Mira" {
		t.Errorf("Name = %q, want Mira", result.Character.Name)
	}
	if result.TotalStats.Attack != 15 {
		t.Errorf("TotalStats.Attack = %d, want 15 (base 10 + bonus 5)", result.TotalStats.Attack)
	}
	if result.Character.Stats.Attack != 10 {
		t.Errorf("base Attack = %d, want 10 untouched by the bonus", result.Character.Stats.Attack)
	}
}

func TestCharacterSheetHandler_Errors(t *testing.T) {
	t.Parallel()
	cfg, _ := newTestConfig(t)
	handler := characterSheetHandler(cfg.Stores, cfg.Engine)

	_, _, err := handler(context.Background(), nil, CharacterSheetInput{})
	if err == nil || !strings.Contains(err.Error(), "characterId is required") {
		t.Errorf("empty input error = %v, want characterId complaint", err)
	}

	_, _, err = handler(context.Background(), nil, CharacterSheetInput{CharacterID: "ghost"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown character error = %v, want ErrNotFound", err)
	}
}

func TestQuestLogHandler(t *testing.T) {
	t.Parallel()
	cfg, ch := newTestConfig(t)
	ctx := context.Background()

	slay := quest.New(ch.ID, "Slay the dragon")
	write := quest.New(ch.ID, "Write every day")
	if err := slay.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := write.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := write.Complete(time.Date(2023, 5, 2, 12, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("complete: %v", err)
	}
	for _, q := range []*quest.Quest{slay, write} {
		if err := cfg.Stores.Quests.Create(ctx, q); err != nil {
			t.Fatalf("seed quest %q: %v", q.Title, err)
		}
	}

	handler := questLogHandler(cfg.Stores)

	_, all, err := handler(ctx, nil, QuestLogInput{CharacterID: ch.ID})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if len(all.Quests) != 2 {
		t.Fatalf("len(Quests) = %d, want 2", len(all.Quests))
	}

	_, done, err := handler(ctx, nil, QuestLogInput{CharacterID: ch.ID, Status: "completed"})
	if err != nil {
		t.Fatalf("handler with filter: %v", err)
	}
	if len(done.Quests) != 1 || done.Quests[0].Title != "Write every day" {
		t.Errorf("completed filter = %+v, want only the finished quest", done.Quests)
	}
}

func TestQuestLogHandler_Errors(t *testing.T) {
	t.Parallel()
	cfg, ch := newTestConfig(t)
	handler := questLogHandler(cfg.Stores)

	_, _, err := handler(context.Background(), nil, QuestLogInput{})
	if err == nil || !strings.Contains(err.Error(), "characterId is required") {
		t.Errorf("empty input error = %v, want characterId complaint", err)
	}

	_, _, err = handler(context.Background(), nil, QuestLogInput{CharacterID: ch.ID, Status: "impossible"})
	if err == nil || !strings.Contains(err.Error(), "unknown status") {
		t.Errorf("bad filter error = %v, want unknown status complaint", err)
	}
}

func TestQuestLogHandler_EmptyLog(t *testing.T) {
	t.Parallel()
	cfg, ch := newTestConfig(t)

	_, result, err := questLogHandler(cfg.Stores)(context.Background(), nil, QuestLogInput{CharacterID: ch.ID})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if result.Quests == nil || len(result.Quests) != 0 {
		t.Errorf("Quests = %#v, want empty non-nil slice", result.Quests)
	}
}

func TestDiaryListHandler(t *testing.T) {
	t.Parallel()
	cfg, ch := newTestConfig(t)
	seedDiaries(t, cfg.Stores, ch.ID, "2023-05-01", "2023-05-02", "2023-05-09")

	handler := diaryListHandler(cfg.Stores)

	_, all, err := handler(context.Background(), nil, DiaryListInput{CharacterID: ch.ID})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if len(all.Entries) != 3 {
		t.Fatalf("len(Entries) = %d, want 3", len(all.Entries))
	}

	_, windowed, err := handler(context.Background(), nil, DiaryListInput{
		CharacterID: ch.ID, Start: "2023-05-01", End: "2023-05-03",
	})
	if err != nil {
		t.Fatalf("handler with window: %v", err)
	}
	if len(windowed.Entries) != 2 {
		t.Errorf("windowed len = %d, want 2", len(windowed.Entries))
	}
}

func TestDiaryListHandler_Validation(t *testing.T) {
	t.Parallel()
	cfg, ch := newTestConfig(t)
	handler := diaryListHandler(cfg.Stores)

	tests := []struct {
		name    string
		input   DiaryListInput
		wantMsg string
	}{
		{"missing character", DiaryListInput{}, "characterId is required"},
		{"start only", DiaryListInput{CharacterID: ch.ID, Start: "2023-05-01"}, "given together"},
		{"end only", DiaryListInput{CharacterID: ch.ID, End: "2023-05-01"}, "given together"},
		{"bad date", DiaryListInput{CharacterID: ch.ID, Start: "May 1st", End: "2023-05-02"}, "expected YYYY-MM-DD"},
		{"inverted window", DiaryListInput{CharacterID: ch.ID, Start: "2023-05-09", End: "2023-05-01"}, "start is after end"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := handler(context.Background(), nil, tt.input)
			if err == nil || !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %v, want mention of %q", err, tt.wantMsg)
			}
		})
	}
}

func TestDiaryListHandler_EmptyHistory(t *testing.T) {
	t.Parallel()
	cfg, ch := newTestConfig(t)

	_, result, err := diaryListHandler(cfg.Stores)(context.Background(), nil, DiaryListInput{CharacterID: ch.ID})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if result.Entries == nil || len(result.Entries) != 0 {
		t.Errorf("Entries = %#v, want empty non-nil slice", result.Entries)
	}
}

func TestReportStatsHandler(t *testing.T) {
	t.Parallel()
	cfg, ch := newTestConfig(t)
	seedDiaries(t, cfg.Stores, ch.ID, "2023-05-01", "2023-05-03", "2023-05-06")

	handler := reportStatsHandler(cfg.Stores, cfg.Reports)
	_, result, err := handler(context.Background(), nil, ReportStatsInput{
		CharacterID: ch.ID, Type: "weekly", Start: "2023-05-01", End: "2023-05-07",
	})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	rep := result.Report
	if rep.DiaryStats.TotalCount != 3 || rep.DiaryStats.TotalWordsWritten != 30 {
		t.Errorf("DiaryStats = %+v, want 3 entries and 30 words", rep.DiaryStats)
	}
	if rep.EmotionStats.MostCommon != "joy" {
		t.Errorf("MostCommon = %q, want joy", rep.EmotionStats.MostCommon)
	}
	// Statistics only: no identity, no summary, nothing persisted.
	if rep.ID != "" || rep.AISummary != "" {
		t.Errorf("ID = %q, AISummary = %q, want both empty", rep.ID, rep.AISummary)
	}
	reports, err := cfg.Stores.Reports.ListByCharacter(context.Background(), ch.ID)
	if err != nil {
		t.Fatalf("list reports: %v", err)
	}
	if len(reports) != 0 {
		t.Errorf("persisted reports = %d, want 0", len(reports))
	}
}

func TestReportStatsHandler_DefaultWindow(t *testing.T) {
	t.Parallel()
	cfg, ch := newTestConfig(t)

	handler := reportStatsHandler(cfg.Stores, cfg.Reports)
	_, result, err := handler(context.Background(), nil, ReportStatsInput{CharacterID: ch.ID, Type: "weekly"})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	p := result.Report.Period
	if got := p.Days(); got != 7 {
		t.Errorf("Period.Days() = %d, want 7", got)
	}
	if want := diary.Day(time.Now()); !p.End.Equal(want) {
		t.Errorf("Period.End = %v, want today %v", p.End, want)
	}
}

func TestReportStatsHandler_Errors(t *testing.T) {
	t.Parallel()
	cfg, ch := newTestConfig(t)
	handler := reportStatsHandler(cfg.Stores, cfg.Reports)

	tests := []struct {
		name    string
		input   ReportStatsInput
		wantMsg string
	}{
		{"missing character", ReportStatsInput{Type: "weekly"}, "characterId is required"},
		{"unknown type", ReportStatsInput{CharacterID: ch.ID, Type: "daily"}, "unknown report type"},
		{"start only", ReportStatsInput{CharacterID: ch.ID, Type: "weekly", Start: "2023-05-01"}, "given together"},
		{"bad date", ReportStatsInput{CharacterID: ch.ID, Type: "weekly", Start: "soon", End: "2023-05-07"}, "expected YYYY-MM-DD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := handler(context.Background(), nil, tt.input)
			if err == nil || !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %v, want mention of %q", err, tt.wantMsg)
			}
		})
	}

	_, _, err := handler(context.Background(), nil, ReportStatsInput{CharacterID: "ghost", Type: "weekly"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown character error = %v, want ErrNotFound", err)
	}
}

// fakeIndex is a canned search index that records the query it was asked
// for.
type fakeIndex struct {
	matches   []search.Match
	err       error
	lastQuery string
	lastLimit int
}

func (f *fakeIndex) IndexDiary(context.Context, *diary.Diary) error { return nil }

func (f *fakeIndex) Search(_ context.Context, query string, limit int) ([]search.Match, error) {
	f.lastQuery, f.lastLimit = query, limit
	return f.matches, f.err
}

func (f *fakeIndex) Remove(context.Context, string) error { return nil }

func TestDiarySearchHandler(t *testing.T) {
	t.Parallel()

	idx := &fakeIndex{matches: []search.Match{
		{DiaryID: "d1", CharacterID: "c1", Content: "met a dragon", Distance: 0.12},
	}}
	handler := diarySearchHandler(idx)

	_, result, err := handler(context.Background(), nil, DiarySearchInput{Query: "dragons", Limit: 3})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if len(result.Matches) != 1 || result.Matches[0].DiaryID != "d1" {
		t.Errorf("Matches = %+v, want the canned match", result.Matches)
	}
	if idx.lastQuery != "dragons" || idx.lastLimit != 3 {
		t.Errorf("index saw query %q limit %d, want dragons and 3", idx.lastQuery, idx.lastLimit)
	}
}

func TestDiarySearchHandler_Errors(t *testing.T) {
	t.Parallel()

	_, _, err := diarySearchHandler(&fakeIndex{})(context.Background(), nil, DiarySearchInput{})
	if err == nil || !strings.Contains(err.Error(), "query is required") {
		t.Errorf("empty query error = %v, want query complaint", err)
	}

	down := &fakeIndex{err: errors.New("vector store down")}
	_, _, err = diarySearchHandler(down)(context.Background(), nil, DiarySearchInput{Query: "dragons"})
	if err == nil || !strings.Contains(err.Error(), "vector store down") {
		t.Errorf("index failure error = %v, want the index error surfaced", err)
	}
}

func TestDiarySearchHandler_NoMatches(t *testing.T) {
	t.Parallel()

	_, result, err := diarySearchHandler(&fakeIndex{})(context.Background(), nil, DiarySearchInput{Query: "dragons"})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if result.Matches == nil || len(result.Matches) != 0 {
		t.Errorf("Matches = %#v, want empty non-nil slice", result.Matches)
	}
}
