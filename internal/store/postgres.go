package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/meteoright00/diary-quest-sub001/internal/character"
	"github.com/meteoright00/diary-quest-sub001/internal/diary"
	"github.com/meteoright00/diary-quest-sub001/internal/quest"
	"github.com/meteoright00/diary-quest-sub001/internal/report"
)

// PostgresSchema is the SQL DDL for all four tables. Execute it via
// [MigratePostgres] or apply it manually during deployment.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS characters (
    id            TEXT PRIMARY KEY,
    world_id      TEXT NOT NULL DEFAULT '',
    name          TEXT NOT NULL,
    class         TEXT NOT NULL DEFAULT '',
    guild         TEXT NOT NULL DEFAULT '',
    level         JSONB NOT NULL DEFAULT '{}',
    stats         JSONB NOT NULL DEFAULT '{}',
    equipment     JSONB NOT NULL DEFAULT '{}',
    currency      JSONB NOT NULL DEFAULT '{}',
    statistics    JSONB NOT NULL DEFAULT '{}',
    titles        JSONB NOT NULL DEFAULT '[]',
    skills        JSONB NOT NULL DEFAULT '[]',
    achievements  JSONB NOT NULL DEFAULT '[]',
    inventory     JSONB NOT NULL DEFAULT '[]',
    quest_log     JSONB NOT NULL DEFAULT '[]',
    name_mappings JSONB NOT NULL DEFAULT '[]',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_characters_world ON characters(world_id);

CREATE TABLE IF NOT EXISTS diaries (
    id             TEXT PRIMARY KEY,
    character_id   TEXT NOT NULL,
    date           TIMESTAMPTZ NOT NULL,
    title          TEXT NOT NULL DEFAULT '',
    original_text  TEXT NOT NULL,
    converted_text TEXT NOT NULL,
    rewards        JSONB NOT NULL DEFAULT '{}',
    metadata       JSONB NOT NULL DEFAULT '{}',
    emotion        JSONB NOT NULL DEFAULT '{}',
    events         JSONB NOT NULL DEFAULT '[]',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_diaries_character_date ON diaries(character_id, date);

CREATE TABLE IF NOT EXISTS quests (
    id           TEXT PRIMARY KEY,
    character_id TEXT NOT NULL,
    title        TEXT NOT NULL,
    description  TEXT NOT NULL DEFAULT '',
    status       TEXT NOT NULL DEFAULT 'not_started',
    difficulty   TEXT NOT NULL DEFAULT 'normal',
    reward       JSONB NOT NULL DEFAULT '{}',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    completed_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_quests_character ON quests(character_id);

CREATE TABLE IF NOT EXISTS reports (
    id            TEXT PRIMARY KEY,
    character_id  TEXT NOT NULL,
    type          TEXT NOT NULL,
    period_start  TIMESTAMPTZ NOT NULL,
    period_end    TIMESTAMPTZ NOT NULL,
    diary_stats   JSONB NOT NULL DEFAULT '{}',
    emotion_stats JSONB NOT NULL DEFAULT '{}',
    growth        JSONB NOT NULL DEFAULT '{}',
    quest_stats   JSONB NOT NULL DEFAULT '{}',
    charts        JSONB NOT NULL DEFAULT '{}',
    ai_summary    TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_reports_character ON reports(character_id);
`

// DB is the database interface used by the Postgres adapters. Both
// *pgxpool.Pool and *pgx.Conn satisfy it.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Compile-time assertions that the Postgres adapters satisfy the interfaces.
var (
	_ CharacterStore = (*pgCharacters)(nil)
	_ DiaryStore     = (*pgDiaries)(nil)
	_ QuestStore     = (*pgQuests)(nil)
	_ ReportStore    = (*pgReports)(nil)
)

// NewPostgres returns a [Stores] bundle backed by PostgreSQL. The pool
// belongs to the caller and stays open after [Stores.Close]. Run
// [MigratePostgres] once before issuing queries.
func NewPostgres(db DB) *Stores {
	return &Stores{
		Characters: &pgCharacters{db: db},
		Diaries:    &pgDiaries{db: db},
		Quests:     &pgQuests{db: db},
		Reports:    &pgReports{db: db},
		// The narrow DB interface has no Ping, so probe with a no-op query.
		pinger: func(ctx context.Context) error {
			_, err := db.Exec(ctx, "SELECT 1")
			return err
		},
	}
}

// MigratePostgres executes the [PostgresSchema] DDL against the database,
// creating the tables and indexes if they do not already exist.
func MigratePostgres(ctx context.Context, db DB) error {
	if _, err := db.Exec(ctx, PostgresSchema); err != nil {
		return fmt.Errorf("store: migrate postgres: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Characters
// ─────────────────────────────────────────────────────────────────────────────

type pgCharacters struct {
	db DB
}

const pgCharacterSelect = `
	SELECT id, world_id, name, class, guild,
	       level, stats, equipment, currency, statistics,
	       titles, skills, achievements, inventory, quest_log, name_mappings,
	       created_at, updated_at
	FROM characters`

// Create inserts a new character. The row's timestamps are assigned by the
// database and written back to c.
func (s *pgCharacters) Create(ctx context.Context, c *character.Character) error {
	if c.ID == "" {
		id, err := generateID()
		if err != nil {
			return fmt.Errorf("store: generate character id: %w", err)
		}
		c.ID = id
	}
	b, err := encodeCharacter(c)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO characters (
			id, world_id, name, class, guild,
			level, stats, equipment, currency, statistics,
			titles, skills, achievements, inventory, quest_log, name_mappings
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING created_at, updated_at`

	err = s.db.QueryRow(ctx, query,
		c.ID, c.WorldID, c.Name, c.Class, c.Guild,
		b.level, b.stats, b.equipment, b.currency, b.statistics,
		b.titles, b.skills, b.achievements, b.inventory, b.questLog, b.nameMappings,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("store: create character %q: %w", c.ID, ErrDuplicateID)
		}
		return fmt.Errorf("store: create character: %w", err)
	}
	return nil
}

func (s *pgCharacters) Get(ctx context.Context, id string) (*character.Character, error) {
	row := s.db.QueryRow(ctx, pgCharacterSelect+` WHERE id = $1`, id)
	c, err := scanCharacterPG(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("store: character %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("store: get character %q: %w", id, err)
	}
	return c, nil
}

func (s *pgCharacters) GetByWorld(ctx context.Context, worldID string) (*character.Character, error) {
	row := s.db.QueryRow(ctx, pgCharacterSelect+`
		WHERE world_id = $1
		ORDER BY created_at, id
		LIMIT 1`, worldID)
	c, err := scanCharacterPG(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("store: character in world %q: %w", worldID, ErrNotFound)
		}
		return nil, fmt.Errorf("store: get character by world %q: %w", worldID, err)
	}
	return c, nil
}

// Update replaces an existing character. The refreshed updated_at is
// assigned by the database and written back to c.
func (s *pgCharacters) Update(ctx context.Context, c *character.Character) error {
	b, err := encodeCharacter(c)
	if err != nil {
		return err
	}

	const query = `
		UPDATE characters SET
			world_id = $2, name = $3, class = $4, guild = $5,
			level = $6, stats = $7, equipment = $8, currency = $9, statistics = $10,
			titles = $11, skills = $12, achievements = $13, inventory = $14,
			quest_log = $15, name_mappings = $16, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err = s.db.QueryRow(ctx, query,
		c.ID, c.WorldID, c.Name, c.Class, c.Guild,
		b.level, b.stats, b.equipment, b.currency, b.statistics,
		b.titles, b.skills, b.achievements, b.inventory, b.questLog, b.nameMappings,
	).Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("store: update character %q: %w", c.ID, ErrNotFound)
		}
		return fmt.Errorf("store: update character %q: %w", c.ID, err)
	}
	return nil
}

func (s *pgCharacters) List(ctx context.Context) ([]*character.Character, error) {
	rows, err := s.db.Query(ctx, pgCharacterSelect+` ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("store: list characters: %w", err)
	}
	defer rows.Close()

	var out []*character.Character
	for rows.Next() {
		c, err := scanCharacterPG(rows)
		if err != nil {
			return nil, fmt.Errorf("store: list characters: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list characters: %w", err)
	}
	return out, nil
}

func scanCharacterPG(row rowScanner) (*character.Character, error) {
	var (
		c character.Character
		b characterBlobs
	)
	if err := row.Scan(
		&c.ID, &c.WorldID, &c.Name, &c.Class, &c.Guild,
		&b.level, &b.stats, &b.equipment, &b.currency, &b.statistics,
		&b.titles, &b.skills, &b.achievements, &b.inventory, &b.questLog, &b.nameMappings,
		&c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := decodeCharacter(&c, b); err != nil {
		return nil, err
	}
	return &c, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Diaries
// ─────────────────────────────────────────────────────────────────────────────

type pgDiaries struct {
	db DB
}

const pgDiarySelect = `
	SELECT id, character_id, date, title,
	       original_text, converted_text,
	       rewards, metadata, emotion, events, created_at
	FROM diaries`

func (s *pgDiaries) Create(ctx context.Context, d *diary.Diary) error {
	if d.ID == "" {
		id, err := generateID()
		if err != nil {
			return fmt.Errorf("store: generate diary id: %w", err)
		}
		d.ID = id
	}
	b, err := encodeDiary(d)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO diaries (
			id, character_id, date, title,
			original_text, converted_text,
			rewards, metadata, emotion, events, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`

	_, err = s.db.Exec(ctx, query,
		d.ID, d.CharacterID, d.Date, d.Title,
		d.OriginalText, d.ConvertedText,
		b.rewards, b.metadata, b.emotion, b.events, d.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("store: create diary %q: %w", d.ID, ErrDuplicateID)
		}
		return fmt.Errorf("store: create diary: %w", err)
	}
	return nil
}

func (s *pgDiaries) Get(ctx context.Context, id string) (*diary.Diary, error) {
	row := s.db.QueryRow(ctx, pgDiarySelect+` WHERE id = $1`, id)
	d, err := scanDiaryPG(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("store: diary %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("store: get diary %q: %w", id, err)
	}
	return d, nil
}

func (s *pgDiaries) Update(ctx context.Context, d *diary.Diary) error {
	b, err := encodeDiary(d)
	if err != nil {
		return err
	}

	const query = `
		UPDATE diaries SET
			character_id = $2, date = $3, title = $4,
			original_text = $5, converted_text = $6,
			rewards = $7, metadata = $8, emotion = $9, events = $10
		WHERE id = $1`

	tag, err := s.db.Exec(ctx, query,
		d.ID, d.CharacterID, d.Date, d.Title,
		d.OriginalText, d.ConvertedText,
		b.rewards, b.metadata, b.emotion, b.events,
	)
	if err != nil {
		return fmt.Errorf("store: update diary %q: %w", d.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("store: update diary %q: %w", d.ID, ErrNotFound)
	}
	return nil
}

func (s *pgDiaries) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM diaries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("store: delete diary %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("store: delete diary %q: %w", id, ErrNotFound)
	}
	return nil
}

func (s *pgDiaries) ListByCharacter(ctx context.Context, characterID string) ([]*diary.Diary, error) {
	rows, err := s.db.Query(ctx, pgDiarySelect+`
		WHERE character_id = $1
		ORDER BY date, created_at, id`, characterID)
	if err != nil {
		return nil, fmt.Errorf("store: list diaries: %w", err)
	}
	return collectDiariesPG(rows)
}

func (s *pgDiaries) ListByPeriod(ctx context.Context, characterID string, start, end time.Time) ([]*diary.Diary, error) {
	from, to := diary.Day(start), diary.Day(end)
	rows, err := s.db.Query(ctx, pgDiarySelect+`
		WHERE character_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date, created_at, id`, characterID, from, to)
	if err != nil {
		return nil, fmt.Errorf("store: list diaries by period: %w", err)
	}
	return collectDiariesPG(rows)
}

func collectDiariesPG(rows pgx.Rows) ([]*diary.Diary, error) {
	defer rows.Close()

	var out []*diary.Diary
	for rows.Next() {
		d, err := scanDiaryPG(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan diary: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list diaries: %w", err)
	}
	return out, nil
}

func scanDiaryPG(row rowScanner) (*diary.Diary, error) {
	var (
		d diary.Diary
		b diaryBlobs
	)
	if err := row.Scan(
		&d.ID, &d.CharacterID, &d.Date, &d.Title,
		&d.OriginalText, &d.ConvertedText,
		&b.rewards, &b.metadata, &b.emotion, &b.events, &d.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := decodeDiary(&d, b); err != nil {
		return nil, err
	}
	return &d, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Quests
// ─────────────────────────────────────────────────────────────────────────────

type pgQuests struct {
	db DB
}

const pgQuestSelect = `
	SELECT id, character_id, title, description,
	       status, difficulty, reward, created_at, completed_at
	FROM quests`

func (s *pgQuests) Create(ctx context.Context, q *quest.Quest) error {
	if q.ID == "" {
		id, err := generateID()
		if err != nil {
			return fmt.Errorf("store: generate quest id: %w", err)
		}
		q.ID = id
	}
	rewardJSON, err := json.Marshal(q.Reward)
	if err != nil {
		return fmt.Errorf("store: marshal reward: %w", err)
	}

	const query = `
		INSERT INTO quests (
			id, character_id, title, description,
			status, difficulty, reward, created_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

	_, err = s.db.Exec(ctx, query,
		q.ID, q.CharacterID, q.Title, q.Description,
		string(q.Status), string(q.Difficulty), rewardJSON,
		q.CreatedAt, q.CompletedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("store: create quest %q: %w", q.ID, ErrDuplicateID)
		}
		return fmt.Errorf("store: create quest: %w", err)
	}
	return nil
}

func (s *pgQuests) Get(ctx context.Context, id string) (*quest.Quest, error) {
	row := s.db.QueryRow(ctx, pgQuestSelect+` WHERE id = $1`, id)
	q, err := scanQuestPG(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("store: quest %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("store: get quest %q: %w", id, err)
	}
	return q, nil
}

func (s *pgQuests) Update(ctx context.Context, q *quest.Quest) error {
	rewardJSON, err := json.Marshal(q.Reward)
	if err != nil {
		return fmt.Errorf("store: marshal reward: %w", err)
	}

	const query = `
		UPDATE quests SET
			character_id = $2, title = $3, description = $4,
			status = $5, difficulty = $6, reward = $7, completed_at = $8
		WHERE id = $1`

	tag, err := s.db.Exec(ctx, query,
		q.ID, q.CharacterID, q.Title, q.Description,
		string(q.Status), string(q.Difficulty), rewardJSON, q.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("store: update quest %q: %w", q.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("store: update quest %q: %w", q.ID, ErrNotFound)
	}
	return nil
}

func (s *pgQuests) ListByCharacter(ctx context.Context, characterID string) ([]*quest.Quest, error) {
	rows, err := s.db.Query(ctx, pgQuestSelect+`
		WHERE character_id = $1
		ORDER BY created_at, id`, characterID)
	if err != nil {
		return nil, fmt.Errorf("store: list quests: %w", err)
	}
	defer rows.Close()

	var out []*quest.Quest
	for rows.Next() {
		q, err := scanQuestPG(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan quest: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list quests: %w", err)
	}
	return out, nil
}

func scanQuestPG(row rowScanner) (*quest.Quest, error) {
	var (
		q                  quest.Quest
		status, difficulty string
		rewardJSON         []byte
	)
	if err := row.Scan(
		&q.ID, &q.CharacterID, &q.Title, &q.Description,
		&status, &difficulty, &rewardJSON, &q.CreatedAt, &q.CompletedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(rewardJSON, &q.Reward); err != nil {
		return nil, fmt.Errorf("store: unmarshal reward: %w", err)
	}
	q.Status = quest.Status(status)
	q.Difficulty = quest.Difficulty(difficulty)
	return &q, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Reports
// ─────────────────────────────────────────────────────────────────────────────

type pgReports struct {
	db DB
}

const pgReportSelect = `
	SELECT id, character_id, type, period_start, period_end,
	       diary_stats, emotion_stats, growth, quest_stats, charts,
	       ai_summary, created_at
	FROM reports`

func (s *pgReports) Create(ctx context.Context, r *report.Report) error {
	if r.ID == "" {
		id, err := generateID()
		if err != nil {
			return fmt.Errorf("store: generate report id: %w", err)
		}
		r.ID = id
	}
	b, err := encodeReport(r)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO reports (
			id, character_id, type, period_start, period_end,
			diary_stats, emotion_stats, growth, quest_stats, charts,
			ai_summary, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`

	_, err = s.db.Exec(ctx, query,
		r.ID, r.CharacterID, string(r.Type), r.Period.Start, r.Period.End,
		b.diaryStats, b.emotionStats, b.growth, b.questStats, b.charts,
		r.AISummary, r.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("store: create report %q: %w", r.ID, ErrDuplicateID)
		}
		return fmt.Errorf("store: create report: %w", err)
	}
	return nil
}

func (s *pgReports) Get(ctx context.Context, id string) (*report.Report, error) {
	row := s.db.QueryRow(ctx, pgReportSelect+` WHERE id = $1`, id)
	r, err := scanReportPG(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("store: report %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("store: get report %q: %w", id, err)
	}
	return r, nil
}

func (s *pgReports) ListByCharacter(ctx context.Context, characterID string) ([]*report.Report, error) {
	rows, err := s.db.Query(ctx, pgReportSelect+`
		WHERE character_id = $1
		ORDER BY created_at DESC, id`, characterID)
	if err != nil {
		return nil, fmt.Errorf("store: list reports: %w", err)
	}
	defer rows.Close()

	var out []*report.Report
	for rows.Next() {
		r, err := scanReportPG(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan report: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list reports: %w", err)
	}
	return out, nil
}

func scanReportPG(row rowScanner) (*report.Report, error) {
	var (
		r   report.Report
		b   reportBlobs
		typ string
	)
	if err := row.Scan(
		&r.ID, &r.CharacterID, &typ, &r.Period.Start, &r.Period.End,
		&b.diaryStats, &b.emotionStats, &b.growth, &b.questStats, &b.charts,
		&r.AISummary, &r.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := decodeReport(&r, b); err != nil {
		return nil, err
	}
	r.Type = report.ReportType(typ)
	return &r, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

// isDuplicateKeyError reports whether a PostgreSQL error is a
// unique-violation (SQLSTATE 23505).
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
