// Package store persists DiaryQuest aggregates behind typed repository
// interfaces.
//
// The domain packages never see SQL: they talk to the four repository
// interfaces defined here. Three adapters are provided. [NewMemory] keeps
// everything in process maps and suits tests and throwaway runs.
// [OpenSQLite] is the default for local installs and uses the pure-Go
// driver, so no cgo toolchain is needed. [NewPostgres] targets deployments
// that also want semantic search over diary entries.
//
// All implementations must be safe for concurrent use.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/meteoright00/diary-quest-sub001/internal/character"
	"github.com/meteoright00/diary-quest-sub001/internal/diary"
	"github.com/meteoright00/diary-quest-sub001/internal/quest"
	"github.com/meteoright00/diary-quest-sub001/internal/report"
)

// ErrNotFound is returned when the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateID is returned by Create when a record with the same ID
// already exists.
var ErrDuplicateID = errors.New("record with that ID already exists")

// CharacterStore persists character aggregates.
type CharacterStore interface {
	// Create inserts a new character. An empty ID is replaced with a
	// generated one, written back to c.
	// Returns [ErrDuplicateID] if a character with the same ID exists.
	Create(ctx context.Context, c *character.Character) error

	// Get retrieves a character by ID.
	// Returns [ErrNotFound] when no character with that ID exists.
	Get(ctx context.Context, id string) (*character.Character, error)

	// GetByWorld retrieves the character living in the given world. When
	// several match, the earliest created wins.
	// Returns [ErrNotFound] when the world has no character.
	GetByWorld(ctx context.Context, worldID string) (*character.Character, error)

	// Update replaces an existing character and refreshes its UpdatedAt,
	// written back to c.
	// Returns [ErrNotFound] when no character with that ID exists.
	Update(ctx context.Context, c *character.Character) error

	// List returns all characters ordered by name.
	List(ctx context.Context) ([]*character.Character, error)
}

// DiaryStore persists diary entries.
type DiaryStore interface {
	// Create inserts a new entry. An empty ID is replaced with a generated
	// one, written back to d.
	// Returns [ErrDuplicateID] if an entry with the same ID exists.
	Create(ctx context.Context, d *diary.Diary) error

	// Get retrieves an entry by ID.
	// Returns [ErrNotFound] when no entry with that ID exists.
	Get(ctx context.Context, id string) (*diary.Diary, error)

	// Update replaces an existing entry.
	// Returns [ErrNotFound] when no entry with that ID exists.
	Update(ctx context.Context, d *diary.Diary) error

	// Delete removes an entry by ID.
	// Returns [ErrNotFound] when no entry with that ID exists.
	Delete(ctx context.Context, id string) error

	// ListByCharacter returns all of a character's entries ordered by date,
	// oldest first.
	ListByCharacter(ctx context.Context, characterID string) ([]*diary.Diary, error)

	// ListByPeriod returns the character's entries dated within [start, end],
	// both bounds inclusive. The bounds are truncated to calendar days, so
	// clock times on either bound are ignored.
	ListByPeriod(ctx context.Context, characterID string, start, end time.Time) ([]*diary.Diary, error)
}

// QuestStore persists quests.
type QuestStore interface {
	// Create inserts a new quest. An empty ID is replaced with a generated
	// one, written back to q.
	// Returns [ErrDuplicateID] if a quest with the same ID exists.
	Create(ctx context.Context, q *quest.Quest) error

	// Get retrieves a quest by ID.
	// Returns [ErrNotFound] when no quest with that ID exists.
	Get(ctx context.Context, id string) (*quest.Quest, error)

	// Update replaces an existing quest.
	// Returns [ErrNotFound] when no quest with that ID exists.
	Update(ctx context.Context, q *quest.Quest) error

	// ListByCharacter returns all of a character's quests ordered by
	// creation time, oldest first.
	ListByCharacter(ctx context.Context, characterID string) ([]*quest.Quest, error)
}

// ReportStore persists generated reports. Reports are never updated after
// generation.
type ReportStore interface {
	// Create inserts a new report. An empty ID is replaced with a generated
	// one, written back to r.
	// Returns [ErrDuplicateID] if a report with the same ID exists.
	Create(ctx context.Context, r *report.Report) error

	// Get retrieves a report by ID.
	// Returns [ErrNotFound] when no report with that ID exists.
	Get(ctx context.Context, id string) (*report.Report, error)

	// ListByCharacter returns all of a character's reports, newest first.
	ListByCharacter(ctx context.Context, characterID string) ([]*report.Report, error)
}

// Stores bundles the four repositories of one storage backend.
type Stores struct {
	Characters CharacterStore
	Diaries    DiaryStore
	Quests     QuestStore
	Reports    ReportStore

	closer func() error
	pinger func(ctx context.Context) error
}

// Close releases the backend's resources. Closing a memory or Postgres
// bundle is a no-op; the Postgres pool belongs to the caller.
func (s *Stores) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer()
}

// Ping reports whether the backend is reachable. A memory bundle always
// reports healthy.
func (s *Stores) Ping(ctx context.Context) error {
	if s == nil || s.pinger == nil {
		return nil
	}
	return s.pinger(ctx)
}
