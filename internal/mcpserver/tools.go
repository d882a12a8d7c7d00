package mcpserver

import (
	"context"
	"fmt"
	"time"

	"github.com/meteoright00/diary-quest-sub001/internal/character"
	"github.com/meteoright00/diary-quest-sub001/internal/diary"
	"github.com/meteoright00/diary-quest-sub001/internal/quest"
	"github.com/meteoright00/diary-quest-sub001/internal/report"
	"github.com/meteoright00/diary-quest-sub001/internal/search"
	"github.com/meteoright00/diary-quest-sub001/internal/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// registerTools wires the read-only tools into srv. The search tool is only
// published when an index is configured, so agents never see a tool that
// cannot work.
func registerTools(srv *mcp.Server, cfg Config) {
	mcp.AddTool(srv, characterSheetTool(), characterSheetHandler(cfg.Stores, cfg.Engine))
	mcp.AddTool(srv, questLogTool(), questLogHandler(cfg.Stores))
	mcp.AddTool(srv, diaryListTool(), diaryListHandler(cfg.Stores))
	mcp.AddTool(srv, reportStatsTool(), reportStatsHandler(cfg.Stores, cfg.Reports))
	if cfg.Index != nil {
		mcp.AddTool(srv, diarySearchTool(), diarySearchHandler(cfg.Index))
	}
}

// parseDay interprets a YYYY-MM-DD string as a midnight UTC date.
func parseDay(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("mcpserver: parse date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// character_sheet_get
// ─────────────────────────────────────────────────────────────────────────────

// CharacterSheetInput selects the character to read.
type CharacterSheetInput struct {
	CharacterID string `json:"characterId" jsonschema:"identifier of the character"`
}

// CharacterSheetResult is the full sheet: the character aggregate plus the
// effective stats with equipment bonuses applied.
type CharacterSheetResult struct {
	Character  *character.Character `json:"character" jsonschema:"the character aggregate"`
	TotalStats character.Stats      `json:"totalStats" jsonschema:"base stats plus equipment bonuses"`
}

func characterSheetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "character_sheet_get",
		Description: "Reads a character sheet: level, stats, equipment, currency and journal counters",
	}
}

func characterSheetHandler(stores *store.Stores, engine *character.Engine) mcp.ToolHandlerFor[CharacterSheetInput, CharacterSheetResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CharacterSheetInput) (*mcp.CallToolResult, CharacterSheetResult, error) {
		if input.CharacterID == "" {
			return nil, CharacterSheetResult{}, fmt.Errorf("mcpserver: character sheet: characterId is required")
		}
		ch, err := stores.Characters.Get(ctx, input.CharacterID)
		if err != nil {
			return nil, CharacterSheetResult{}, fmt.Errorf("mcpserver: character sheet: %w", err)
		}
		return nil, CharacterSheetResult{Character: ch, TotalStats: engine.TotalStats(ch)}, nil
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// quest_log_get
// ─────────────────────────────────────────────────────────────────────────────

// QuestLogInput selects the quest log to read, optionally narrowed to one
// lifecycle status.
type QuestLogInput struct {
	CharacterID string `json:"characterId" jsonschema:"identifier of the character"`
	Status      string `json:"status,omitempty" jsonschema:"optional status filter: not_started, in_progress, completed, failed or expired"`
}

// QuestLogResult lists quests oldest first.
type QuestLogResult struct {
	Quests []*quest.Quest `json:"quests" jsonschema:"quests ordered by creation time, oldest first"`
}

func questLogTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "quest_log_get",
		Description: "Reads a character's quest log, optionally filtered by status",
	}
}

func questLogHandler(stores *store.Stores) mcp.ToolHandlerFor[QuestLogInput, QuestLogResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input QuestLogInput) (*mcp.CallToolResult, QuestLogResult, error) {
		if input.CharacterID == "" {
			return nil, QuestLogResult{}, fmt.Errorf("mcpserver: quest log: characterId is required")
		}
		filter := quest.Status(input.Status)
		if input.Status != "" && !filter.IsValid() {
			return nil, QuestLogResult{}, fmt.Errorf("mcpserver: quest log: unknown status %q", input.Status)
		}

		quests, err := stores.Quests.ListByCharacter(ctx, input.CharacterID)
		if err != nil {
			return nil, QuestLogResult{}, fmt.Errorf("mcpserver: quest log: %w", err)
		}

		kept := make([]*quest.Quest, 0, len(quests))
		for _, q := range quests {
			if input.Status == "" || q.Status == filter {
				kept = append(kept, q)
			}
		}
		return nil, QuestLogResult{Quests: kept}, nil
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// diary_list
// ─────────────────────────────────────────────────────────────────────────────

// DiaryListInput selects a character's entries, optionally bounded to an
// inclusive date window. Bounds come as a pair or not at all.
type DiaryListInput struct {
	CharacterID string `json:"characterId" jsonschema:"identifier of the character"`
	Start       string `json:"start,omitempty" jsonschema:"optional window start, YYYY-MM-DD"`
	End         string `json:"end,omitempty" jsonschema:"optional window end, YYYY-MM-DD"`
}

// DiaryListResult lists converted entries oldest first.
type DiaryListResult struct {
	Entries []*diary.Diary `json:"entries" jsonschema:"diary entries ordered by date, oldest first"`
}

func diaryListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "diary_list",
		Description: "Lists a character's diary entries, optionally bounded to a date window",
	}
}

func diaryListHandler(stores *store.Stores) mcp.ToolHandlerFor[DiaryListInput, DiaryListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input DiaryListInput) (*mcp.CallToolResult, DiaryListResult, error) {
		if input.CharacterID == "" {
			return nil, DiaryListResult{}, fmt.Errorf("mcpserver: diary list: characterId is required")
		}

		var entries []*diary.Diary
		var err error
		switch {
		case input.Start == "" && input.End == "":
			entries, err = stores.Diaries.ListByCharacter(ctx, input.CharacterID)
		case input.Start == "" || input.End == "":
			return nil, DiaryListResult{}, fmt.Errorf("mcpserver: diary list: start and end must be given together")
		default:
			var start, end time.Time
			if start, err = parseDay(input.Start); err != nil {
				return nil, DiaryListResult{}, err
			}
			if end, err = parseDay(input.End); err != nil {
				return nil, DiaryListResult{}, err
			}
			if start.After(end) {
				return nil, DiaryListResult{}, fmt.Errorf("mcpserver: diary list: start is after end")
			}
			entries, err = stores.Diaries.ListByPeriod(ctx, input.CharacterID, start, end)
		}
		if err != nil {
			return nil, DiaryListResult{}, fmt.Errorf("mcpserver: diary list: %w", err)
		}
		if entries == nil {
			entries = []*diary.Diary{}
		}
		return nil, DiaryListResult{Entries: entries}, nil
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// report_stats_get
// ─────────────────────────────────────────────────────────────────────────────

// ReportStatsInput describes the statistics window. Start and end must come
// as a pair; with neither given the window is the report type's rolling
// default ending today.
type ReportStatsInput struct {
	CharacterID string `json:"characterId" jsonschema:"identifier of the character"`
	Type        string `json:"type" jsonschema:"report granularity: weekly, monthly or yearly"`
	Start       string `json:"start,omitempty" jsonschema:"optional window start, YYYY-MM-DD"`
	End         string `json:"end,omitempty" jsonschema:"optional window end, YYYY-MM-DD"`
}

// ReportStatsResult carries the computed statistics. The report is not
// persisted and carries no narrative summary; generating those stays
// behind the HTTP API.
type ReportStatsResult struct {
	Report *report.Report `json:"report" jsonschema:"the report statistics"`
}

func reportStatsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "report_stats_get",
		Description: "Computes report statistics over a period without generating a narrative summary",
	}
}

func reportStatsHandler(stores *store.Stores, agg *report.Aggregator) mcp.ToolHandlerFor[ReportStatsInput, ReportStatsResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ReportStatsInput) (*mcp.CallToolResult, ReportStatsResult, error) {
		if input.CharacterID == "" {
			return nil, ReportStatsResult{}, fmt.Errorf("mcpserver: report stats: characterId is required")
		}
		rt := report.ReportType(input.Type)
		if !rt.IsValid() {
			return nil, ReportStatsResult{}, fmt.Errorf("mcpserver: report stats: unknown report type %q", input.Type)
		}

		start, end, err := resolveWindow(rt, input.Start, input.End)
		if err != nil {
			return nil, ReportStatsResult{}, err
		}

		ch, err := stores.Characters.Get(ctx, input.CharacterID)
		if err != nil {
			return nil, ReportStatsResult{}, fmt.Errorf("mcpserver: report stats: %w", err)
		}
		diaries, err := stores.Diaries.ListByPeriod(ctx, ch.ID, start, end)
		if err != nil {
			return nil, ReportStatsResult{}, fmt.Errorf("mcpserver: report stats: %w", err)
		}
		quests, err := stores.Quests.ListByCharacter(ctx, ch.ID)
		if err != nil {
			return nil, ReportStatsResult{}, fmt.Errorf("mcpserver: report stats: %w", err)
		}

		rep, err := agg.Stats(report.Request{
			Type:      rt,
			Start:     start,
			End:       end,
			Character: ch,
			Diaries:   diaries,
			Quests:    quests,
		})
		if err != nil {
			return nil, ReportStatsResult{}, fmt.Errorf("mcpserver: report stats: %w", err)
		}
		return nil, ReportStatsResult{Report: rep}, nil
	}
}

// resolveWindow returns the inclusive statistics window. Explicit bounds
// must come as a pair; with neither given the window is derived from the
// report type, ending today.
func resolveWindow(rt report.ReportType, startStr, endStr string) (time.Time, time.Time, error) {
	if startStr == "" && endStr == "" {
		p := report.DefaultPeriod(rt, time.Now())
		return p.Start, p.End, nil
	}
	if startStr == "" || endStr == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("mcpserver: report stats: start and end must be given together")
	}
	start, err := parseDay(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDay(endStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// diary_search
// ─────────────────────────────────────────────────────────────────────────────

// DiarySearchInput is a semantic query over indexed diary entries.
type DiarySearchInput struct {
	Query string `json:"query" jsonschema:"free text to search for"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of matches, defaults to 10"`
}

// DiarySearchResult lists matches most similar first.
type DiarySearchResult struct {
	Matches []search.Match `json:"matches" jsonschema:"matches ordered by ascending cosine distance"`
}

func diarySearchTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "diary_search",
		Description: "Searches diary entries semantically and returns the closest matches",
	}
}

func diarySearchHandler(index search.Index) mcp.ToolHandlerFor[DiarySearchInput, DiarySearchResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input DiarySearchInput) (*mcp.CallToolResult, DiarySearchResult, error) {
		if input.Query == "" {
			return nil, DiarySearchResult{}, fmt.Errorf("mcpserver: diary search: query is required")
		}
		matches, err := index.Search(ctx, input.Query, input.Limit)
		if err != nil {
			return nil, DiarySearchResult{}, fmt.Errorf("mcpserver: diary search: %w", err)
		}
		if matches == nil {
			matches = []search.Match{}
		}
		return nil, DiarySearchResult{Matches: matches}, nil
	}
}
