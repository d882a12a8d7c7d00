package store

import (
	"encoding/json"
	"fmt"

	"github.com/meteoright00/diary-quest-sub001/internal/character"
	"github.com/meteoright00/diary-quest-sub001/internal/diary"
	"github.com/meteoright00/diary-quest-sub001/internal/report"
)

// The SQLite and Postgres adapters lay out rows identically: scalar columns
// for everything a query filters or orders on, one JSON column per
// structured aggregate field. SQLite stores the JSON as TEXT, Postgres as
// JSONB; both share the codecs below. Nil slices are written as JSON null
// so a record reads back exactly as it was written.

// characterBlobs carries the JSON-encoded aggregate columns of a character
// row.
type characterBlobs struct {
	level        []byte
	stats        []byte
	equipment    []byte
	currency     []byte
	statistics   []byte
	titles       []byte
	skills       []byte
	achievements []byte
	inventory    []byte
	questLog     []byte
	nameMappings []byte
}

func encodeCharacter(c *character.Character) (characterBlobs, error) {
	var (
		b   characterBlobs
		err error
	)
	if b.level, err = json.Marshal(c.Level); err != nil {
		return b, fmt.Errorf("store: marshal level: %w", err)
	}
	if b.stats, err = json.Marshal(c.Stats); err != nil {
		return b, fmt.Errorf("store: marshal stats: %w", err)
	}
	if b.equipment, err = json.Marshal(c.Equipment); err != nil {
		return b, fmt.Errorf("store: marshal equipment: %w", err)
	}
	if b.currency, err = json.Marshal(c.Currency); err != nil {
		return b, fmt.Errorf("store: marshal currency: %w", err)
	}
	if b.statistics, err = json.Marshal(c.Statistics); err != nil {
		return b, fmt.Errorf("store: marshal statistics: %w", err)
	}
	if b.titles, err = json.Marshal(c.Titles); err != nil {
		return b, fmt.Errorf("store: marshal titles: %w", err)
	}
	if b.skills, err = json.Marshal(c.Skills); err != nil {
		return b, fmt.Errorf("store: marshal skills: %w", err)
	}
	if b.achievements, err = json.Marshal(c.Achievements); err != nil {
		return b, fmt.Errorf("store: marshal achievements: %w", err)
	}
	if b.inventory, err = json.Marshal(c.Inventory); err != nil {
		return b, fmt.Errorf("store: marshal inventory: %w", err)
	}
	if b.questLog, err = json.Marshal(c.QuestLog); err != nil {
		return b, fmt.Errorf("store: marshal quest log: %w", err)
	}
	if b.nameMappings, err = json.Marshal(c.NameMappings); err != nil {
		return b, fmt.Errorf("store: marshal name mappings: %w", err)
	}
	return b, nil
}

func decodeCharacter(c *character.Character, b characterBlobs) error {
	if err := json.Unmarshal(b.level, &c.Level); err != nil {
		return fmt.Errorf("store: unmarshal level: %w", err)
	}
	if err := json.Unmarshal(b.stats, &c.Stats); err != nil {
		return fmt.Errorf("store: unmarshal stats: %w", err)
	}
	if err := json.Unmarshal(b.equipment, &c.Equipment); err != nil {
		return fmt.Errorf("store: unmarshal equipment: %w", err)
	}
	if err := json.Unmarshal(b.currency, &c.Currency); err != nil {
		return fmt.Errorf("store: unmarshal currency: %w", err)
	}
	if err := json.Unmarshal(b.statistics, &c.Statistics); err != nil {
		return fmt.Errorf("store: unmarshal statistics: %w", err)
	}
	if err := json.Unmarshal(b.titles, &c.Titles); err != nil {
		return fmt.Errorf("store: unmarshal titles: %w", err)
	}
	if err := json.Unmarshal(b.skills, &c.Skills); err != nil {
		return fmt.Errorf("store: unmarshal skills: %w", err)
	}
	if err := json.Unmarshal(b.achievements, &c.Achievements); err != nil {
		return fmt.Errorf("store: unmarshal achievements: %w", err)
	}
	if err := json.Unmarshal(b.inventory, &c.Inventory); err != nil {
		return fmt.Errorf("store: unmarshal inventory: %w", err)
	}
	if err := json.Unmarshal(b.questLog, &c.QuestLog); err != nil {
		return fmt.Errorf("store: unmarshal quest log: %w", err)
	}
	if err := json.Unmarshal(b.nameMappings, &c.NameMappings); err != nil {
		return fmt.Errorf("store: unmarshal name mappings: %w", err)
	}
	return nil
}

// diaryBlobs carries the JSON-encoded aggregate columns of a diary row.
type diaryBlobs struct {
	rewards  []byte
	metadata []byte
	emotion  []byte
	events   []byte
}

func encodeDiary(d *diary.Diary) (diaryBlobs, error) {
	var (
		b   diaryBlobs
		err error
	)
	if b.rewards, err = json.Marshal(d.Rewards); err != nil {
		return b, fmt.Errorf("store: marshal rewards: %w", err)
	}
	if b.metadata, err = json.Marshal(d.Metadata); err != nil {
		return b, fmt.Errorf("store: marshal metadata: %w", err)
	}
	if b.emotion, err = json.Marshal(d.EmotionAnalysis); err != nil {
		return b, fmt.Errorf("store: marshal emotion analysis: %w", err)
	}
	if b.events, err = json.Marshal(d.Events); err != nil {
		return b, fmt.Errorf("store: marshal events: %w", err)
	}
	return b, nil
}

func decodeDiary(d *diary.Diary, b diaryBlobs) error {
	if err := json.Unmarshal(b.rewards, &d.Rewards); err != nil {
		return fmt.Errorf("store: unmarshal rewards: %w", err)
	}
	if err := json.Unmarshal(b.metadata, &d.Metadata); err != nil {
		return fmt.Errorf("store: unmarshal metadata: %w", err)
	}
	if err := json.Unmarshal(b.emotion, &d.EmotionAnalysis); err != nil {
		return fmt.Errorf("store: unmarshal emotion analysis: %w", err)
	}
	if err := json.Unmarshal(b.events, &d.Events); err != nil {
		return fmt.Errorf("store: unmarshal events: %w", err)
	}
	return nil
}

// reportBlobs carries the JSON-encoded aggregate columns of a report row.
type reportBlobs struct {
	diaryStats   []byte
	emotionStats []byte
	growth       []byte
	questStats   []byte
	charts       []byte
}

func encodeReport(r *report.Report) (reportBlobs, error) {
	var (
		b   reportBlobs
		err error
	)
	if b.diaryStats, err = json.Marshal(r.DiaryStats); err != nil {
		return b, fmt.Errorf("store: marshal diary stats: %w", err)
	}
	if b.emotionStats, err = json.Marshal(r.EmotionStats); err != nil {
		return b, fmt.Errorf("store: marshal emotion stats: %w", err)
	}
	if b.growth, err = json.Marshal(r.CharacterGrowth); err != nil {
		return b, fmt.Errorf("store: marshal character growth: %w", err)
	}
	if b.questStats, err = json.Marshal(r.QuestStats); err != nil {
		return b, fmt.Errorf("store: marshal quest stats: %w", err)
	}
	if b.charts, err = json.Marshal(r.Charts); err != nil {
		return b, fmt.Errorf("store: marshal charts: %w", err)
	}
	return b, nil
}

func decodeReport(r *report.Report, b reportBlobs) error {
	if err := json.Unmarshal(b.diaryStats, &r.DiaryStats); err != nil {
		return fmt.Errorf("store: unmarshal diary stats: %w", err)
	}
	if err := json.Unmarshal(b.emotionStats, &r.EmotionStats); err != nil {
		return fmt.Errorf("store: unmarshal emotion stats: %w", err)
	}
	if err := json.Unmarshal(b.growth, &r.CharacterGrowth); err != nil {
		return fmt.Errorf("store: unmarshal character growth: %w", err)
	}
	if err := json.Unmarshal(b.questStats, &r.QuestStats); err != nil {
		return fmt.Errorf("store: unmarshal quest stats: %w", err)
	}
	if err := json.Unmarshal(b.charts, &r.Charts); err != nil {
		return fmt.Errorf("store: unmarshal charts: %w", err)
	}
	return nil
}
