package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/meteoright00/diary-quest-sub001/internal/character"
	"github.com/meteoright00/diary-quest-sub001/internal/diary"
	"github.com/meteoright00/diary-quest-sub001/internal/quest"
	"github.com/meteoright00/diary-quest-sub001/internal/report"
)

// DefaultSQLitePath is where [OpenSQLite] puts the database when the
// configured path is empty.
const DefaultSQLitePath = "diary_quest.db"

// Compile-time assertions that the SQLite adapters satisfy the interfaces.
var (
	_ CharacterStore = (*sqliteCharacters)(nil)
	_ DiaryStore     = (*sqliteDiaries)(nil)
	_ QuestStore     = (*sqliteQuests)(nil)
	_ ReportStore    = (*sqliteReports)(nil)
)

// OpenSQLite opens, creating if needed, a SQLite-backed [Stores] bundle at
// path. Parent directories are created and the schema is bootstrapped on
// open. The driver is pure Go, so the backend works without cgo.
func OpenSQLite(path string) (*Stores, error) {
	if path == "" {
		path = DefaultSQLitePath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	// SQLite allows one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initSQLitePragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSQLiteSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Stores{
		Characters: &sqliteCharacters{db: db},
		Diaries:    &sqliteDiaries{db: db},
		Quests:     &sqliteQuests{db: db},
		Reports:    &sqliteReports{db: db},
		closer:     db.Close,
		pinger:     db.PingContext,
	}, nil
}

func initSQLitePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("store: apply pragma: %w", err)
		}
	}
	return nil
}

func initSQLiteSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS characters (
			id            TEXT PRIMARY KEY,
			world_id      TEXT NOT NULL DEFAULT '',
			name          TEXT NOT NULL,
			class         TEXT NOT NULL DEFAULT '',
			guild         TEXT NOT NULL DEFAULT '',
			level         TEXT NOT NULL,
			stats         TEXT NOT NULL,
			equipment     TEXT NOT NULL,
			currency      TEXT NOT NULL,
			statistics    TEXT NOT NULL,
			titles        TEXT NOT NULL,
			skills        TEXT NOT NULL,
			achievements  TEXT NOT NULL,
			inventory     TEXT NOT NULL,
			quest_log     TEXT NOT NULL,
			name_mappings TEXT NOT NULL,
			created_at    INTEGER NOT NULL,
			updated_at    INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_characters_world ON characters(world_id);`,
		`CREATE TABLE IF NOT EXISTS diaries (
			id             TEXT PRIMARY KEY,
			character_id   TEXT NOT NULL,
			date           INTEGER NOT NULL,
			title          TEXT NOT NULL DEFAULT '',
			original_text  TEXT NOT NULL,
			converted_text TEXT NOT NULL,
			rewards        TEXT NOT NULL,
			metadata       TEXT NOT NULL,
			emotion        TEXT NOT NULL,
			events         TEXT NOT NULL,
			created_at     INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_diaries_character_date ON diaries(character_id, date);`,
		`CREATE TABLE IF NOT EXISTS quests (
			id           TEXT PRIMARY KEY,
			character_id TEXT NOT NULL,
			title        TEXT NOT NULL,
			description  TEXT NOT NULL DEFAULT '',
			status       TEXT NOT NULL,
			difficulty   TEXT NOT NULL,
			reward       TEXT NOT NULL,
			created_at   INTEGER NOT NULL,
			completed_at INTEGER
		);`,
		`CREATE INDEX IF NOT EXISTS idx_quests_character ON quests(character_id);`,
		`CREATE TABLE IF NOT EXISTS reports (
			id            TEXT PRIMARY KEY,
			character_id  TEXT NOT NULL,
			type          TEXT NOT NULL,
			period_start  INTEGER NOT NULL,
			period_end    INTEGER NOT NULL,
			diary_stats   TEXT NOT NULL,
			emotion_stats TEXT NOT NULL,
			growth        TEXT NOT NULL,
			quest_stats   TEXT NOT NULL,
			charts        TEXT NOT NULL,
			ai_summary    TEXT NOT NULL DEFAULT '',
			created_at    INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_reports_character ON reports(character_id);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("store: init sqlite schema: %w", err)
		}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Characters
// ─────────────────────────────────────────────────────────────────────────────

type sqliteCharacters struct {
	db *sql.DB
}

const sqliteCharacterColumns = `id, world_id, name, class, guild,
	level, stats, equipment, currency, statistics,
	titles, skills, achievements, inventory, quest_log, name_mappings,
	created_at, updated_at`

func (s *sqliteCharacters) Create(ctx context.Context, c *character.Character) error {
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

	// INSERT OR IGNORE leaves an existing row untouched; a zero
	// rows-affected count means the primary key was already taken.
	// JSON is bound as string so the columns hold TEXT, not BLOB.
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO characters (`+sqliteCharacterColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		c.ID, c.WorldID, c.Name, c.Class, c.Guild,
		string(b.level), string(b.stats), string(b.equipment), string(b.currency), string(b.statistics),
		string(b.titles), string(b.skills), string(b.achievements), string(b.inventory), string(b.questLog), string(b.nameMappings),
		toMillis(c.CreatedAt), toMillis(c.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("store: create character: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("store: create character %q: %w", c.ID, ErrDuplicateID)
	}
	return nil
}

func (s *sqliteCharacters) Get(ctx context.Context, id string) (*character.Character, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+sqliteCharacterColumns+` FROM characters WHERE id = ?`, id)
	c, err := scanCharacterRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("store: character %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("store: get character %q: %w", id, err)
	}
	return c, nil
}

func (s *sqliteCharacters) GetByWorld(ctx context.Context, worldID string) (*character.Character, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+sqliteCharacterColumns+` FROM characters
		WHERE world_id = ?
		ORDER BY created_at, id
		LIMIT 1`, worldID)
	c, err := scanCharacterRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("store: character in world %q: %w", worldID, ErrNotFound)
		}
		return nil, fmt.Errorf("store: get character by world %q: %w", worldID, err)
	}
	return c, nil
}

func (s *sqliteCharacters) Update(ctx context.Context, c *character.Character) error {
	// Stored at millisecond precision, so the in-memory value matches what
	// a re-read returns.
	c.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	b, err := encodeCharacter(c)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE characters SET
			world_id = ?, name = ?, class = ?, guild = ?,
			level = ?, stats = ?, equipment = ?, currency = ?, statistics = ?,
			titles = ?, skills = ?, achievements = ?, inventory = ?,
			quest_log = ?, name_mappings = ?, updated_at = ?
		WHERE id = ?`,
		c.WorldID, c.Name, c.Class, c.Guild,
		string(b.level), string(b.stats), string(b.equipment), string(b.currency), string(b.statistics),
		string(b.titles), string(b.skills), string(b.achievements), string(b.inventory),
		string(b.questLog), string(b.nameMappings), toMillis(c.UpdatedAt),
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("store: update character %q: %w", c.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("store: update character %q: %w", c.ID, ErrNotFound)
	}
	return nil
}

func (s *sqliteCharacters) List(ctx context.Context) ([]*character.Character, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sqliteCharacterColumns+` FROM characters ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("store: list characters: %w", err)
	}
	defer rows.Close()

	var out []*character.Character
	for rows.Next() {
		c, err := scanCharacterRow(rows)
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

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCharacterRow(row rowScanner) (*character.Character, error) {
	var (
		c                character.Character
		b                characterBlobs
		created, updated int64
	)
	if err := row.Scan(
		&c.ID, &c.WorldID, &c.Name, &c.Class, &c.Guild,
		&b.level, &b.stats, &b.equipment, &b.currency, &b.statistics,
		&b.titles, &b.skills, &b.achievements, &b.inventory, &b.questLog, &b.nameMappings,
		&created, &updated,
	); err != nil {
		return nil, err
	}
	if err := decodeCharacter(&c, b); err != nil {
		return nil, err
	}
	c.CreatedAt = fromMillis(created)
	c.UpdatedAt = fromMillis(updated)
	return &c, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Diaries
// ─────────────────────────────────────────────────────────────────────────────

type sqliteDiaries struct {
	db *sql.DB
}

const sqliteDiaryColumns = `id, character_id, date, title,
	original_text, converted_text,
	rewards, metadata, emotion, events, created_at`

func (s *sqliteDiaries) Create(ctx context.Context, d *diary.Diary) error {
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

	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO diaries (`+sqliteDiaryColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		d.ID, d.CharacterID, toMillis(d.Date), d.Title,
		d.OriginalText, d.ConvertedText,
		string(b.rewards), string(b.metadata), string(b.emotion), string(b.events), toMillis(d.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("store: create diary: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("store: create diary %q: %w", d.ID, ErrDuplicateID)
	}
	return nil
}

func (s *sqliteDiaries) Get(ctx context.Context, id string) (*diary.Diary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+sqliteDiaryColumns+` FROM diaries WHERE id = ?`, id)
	d, err := scanDiaryRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("store: diary %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("store: get diary %q: %w", id, err)
	}
	return d, nil
}

func (s *sqliteDiaries) Update(ctx context.Context, d *diary.Diary) error {
	b, err := encodeDiary(d)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE diaries SET
			character_id = ?, date = ?, title = ?,
			original_text = ?, converted_text = ?,
			rewards = ?, metadata = ?, emotion = ?, events = ?
		WHERE id = ?`,
		d.CharacterID, toMillis(d.Date), d.Title,
		d.OriginalText, d.ConvertedText,
		string(b.rewards), string(b.metadata), string(b.emotion), string(b.events),
		d.ID,
	)
	if err != nil {
		return fmt.Errorf("store: update diary %q: %w", d.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("store: update diary %q: %w", d.ID, ErrNotFound)
	}
	return nil
}

func (s *sqliteDiaries) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM diaries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete diary %q: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("store: delete diary %q: %w", id, ErrNotFound)
	}
	return nil
}

func (s *sqliteDiaries) ListByCharacter(ctx context.Context, characterID string) ([]*diary.Diary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sqliteDiaryColumns+` FROM diaries
		WHERE character_id = ?
		ORDER BY date, created_at, id`, characterID)
	if err != nil {
		return nil, fmt.Errorf("store: list diaries: %w", err)
	}
	return collectDiaries(rows)
}

func (s *sqliteDiaries) ListByPeriod(ctx context.Context, characterID string, start, end time.Time) ([]*diary.Diary, error) {
	from, to := diary.Day(start), diary.Day(end)
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sqliteDiaryColumns+` FROM diaries
		WHERE character_id = ? AND date >= ? AND date <= ?
		ORDER BY date, created_at, id`,
		characterID, toMillis(from), toMillis(to))
	if err != nil {
		return nil, fmt.Errorf("store: list diaries by period: %w", err)
	}
	return collectDiaries(rows)
}

func collectDiaries(rows *sql.Rows) ([]*diary.Diary, error) {
	defer rows.Close()

	var out []*diary.Diary
	for rows.Next() {
		d, err := scanDiaryRow(rows)
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

func scanDiaryRow(row rowScanner) (*diary.Diary, error) {
	var (
		d             diary.Diary
		b             diaryBlobs
		date, created int64
	)
	if err := row.Scan(
		&d.ID, &d.CharacterID, &date, &d.Title,
		&d.OriginalText, &d.ConvertedText,
		&b.rewards, &b.metadata, &b.emotion, &b.events, &created,
	); err != nil {
		return nil, err
	}
	if err := decodeDiary(&d, b); err != nil {
		return nil, err
	}
	d.Date = fromMillis(date)
	d.CreatedAt = fromMillis(created)
	return &d, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Quests
// ─────────────────────────────────────────────────────────────────────────────

type sqliteQuests struct {
	db *sql.DB
}

const sqliteQuestColumns = `id, character_id, title, description,
	status, difficulty, reward, created_at, completed_at`

func (s *sqliteQuests) Create(ctx context.Context, q *quest.Quest) error {
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

	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO quests (`+sqliteQuestColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		q.ID, q.CharacterID, q.Title, q.Description,
		string(q.Status), string(q.Difficulty), string(rewardJSON),
		toMillis(q.CreatedAt), nullableMillis(q.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("store: create quest: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("store: create quest %q: %w", q.ID, ErrDuplicateID)
	}
	return nil
}

func (s *sqliteQuests) Get(ctx context.Context, id string) (*quest.Quest, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+sqliteQuestColumns+` FROM quests WHERE id = ?`, id)
	q, err := scanQuestRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("store: quest %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("store: get quest %q: %w", id, err)
	}
	return q, nil
}

func (s *sqliteQuests) Update(ctx context.Context, q *quest.Quest) error {
	rewardJSON, err := json.Marshal(q.Reward)
	if err != nil {
		return fmt.Errorf("store: marshal reward: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE quests SET
			character_id = ?, title = ?, description = ?,
			status = ?, difficulty = ?, reward = ?, completed_at = ?
		WHERE id = ?`,
		q.CharacterID, q.Title, q.Description,
		string(q.Status), string(q.Difficulty), string(rewardJSON),
		nullableMillis(q.CompletedAt),
		q.ID,
	)
	if err != nil {
		return fmt.Errorf("store: update quest %q: %w", q.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("store: update quest %q: %w", q.ID, ErrNotFound)
	}
	return nil
}

func (s *sqliteQuests) ListByCharacter(ctx context.Context, characterID string) ([]*quest.Quest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sqliteQuestColumns+` FROM quests
		WHERE character_id = ?
		ORDER BY created_at, id`, characterID)
	if err != nil {
		return nil, fmt.Errorf("store: list quests: %w", err)
	}
	defer rows.Close()

	var out []*quest.Quest
	for rows.Next() {
		q, err := scanQuestRow(rows)
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

func scanQuestRow(row rowScanner) (*quest.Quest, error) {
	var (
		q                  quest.Quest
		status, difficulty string
		rewardJSON         []byte
		created            int64
		completed          sql.NullInt64
	)
	if err := row.Scan(
		&q.ID, &q.CharacterID, &q.Title, &q.Description,
		&status, &difficulty, &rewardJSON, &created, &completed,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(rewardJSON, &q.Reward); err != nil {
		return nil, fmt.Errorf("store: unmarshal reward: %w", err)
	}
	q.Status = quest.Status(status)
	q.Difficulty = quest.Difficulty(difficulty)
	q.CreatedAt = fromMillis(created)
	if completed.Valid {
		t := fromMillis(completed.Int64)
		q.CompletedAt = &t
	}
	return &q, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Reports
// ─────────────────────────────────────────────────────────────────────────────

type sqliteReports struct {
	db *sql.DB
}

const sqliteReportColumns = `id, character_id, type, period_start, period_end,
	diary_stats, emotion_stats, growth, quest_stats, charts,
	ai_summary, created_at`

func (s *sqliteReports) Create(ctx context.Context, r *report.Report) error {
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

	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO reports (`+sqliteReportColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		r.ID, r.CharacterID, string(r.Type),
		toMillis(r.Period.Start), toMillis(r.Period.End),
		string(b.diaryStats), string(b.emotionStats), string(b.growth), string(b.questStats), string(b.charts),
		r.AISummary, toMillis(r.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("store: create report: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("store: create report %q: %w", r.ID, ErrDuplicateID)
	}
	return nil
}

func (s *sqliteReports) Get(ctx context.Context, id string) (*report.Report, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+sqliteReportColumns+` FROM reports WHERE id = ?`, id)
	r, err := scanReportRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("store: report %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("store: get report %q: %w", id, err)
	}
	return r, nil
}

func (s *sqliteReports) ListByCharacter(ctx context.Context, characterID string) ([]*report.Report, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sqliteReportColumns+` FROM reports
		WHERE character_id = ?
		ORDER BY created_at DESC, id`, characterID)
	if err != nil {
		return nil, fmt.Errorf("store: list reports: %w", err)
	}
	defer rows.Close()

	var out []*report.Report
	for rows.Next() {
		r, err := scanReportRow(rows)
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

func scanReportRow(row rowScanner) (*report.Report, error) {
	var (
		r                              report.Report
		b                              reportBlobs
		typ                            string
		periodStart, periodEnd, create int64
	)
	if err := row.Scan(
		&r.ID, &r.CharacterID, &typ, &periodStart, &periodEnd,
		&b.diaryStats, &b.emotionStats, &b.growth, &b.questStats, &b.charts,
		&r.AISummary, &create,
	); err != nil {
		return nil, err
	}
	if err := decodeReport(&r, b); err != nil {
		return nil, err
	}
	r.Type = report.ReportType(typ)
	r.Period.Start = fromMillis(periodStart)
	r.Period.End = fromMillis(periodEnd)
	r.CreatedAt = fromMillis(create)
	return &r, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

// Timestamps are stored as Unix milliseconds so range scans stay plain
// integer comparisons.

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullableMillis(t *time.Time) any {
	if t == nil {
		return nil
	}
	return toMillis(*t)
}
