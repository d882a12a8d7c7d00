// Package search provides semantic retrieval over diary entries.
//
// Entries are embedded with a configured [embeddings.Provider] and stored in
// a PostgreSQL table with a pgvector column; queries embed the search text
// and rank by cosine distance. The index is an optional layer: deployments
// on the memory or SQLite storage backends run without one and the serving
// layer reports search as unavailable.
package search

import (
	"context"
	"time"

	"github.com/meteoright00/diary-quest-sub001/internal/diary"
)

// DefaultLimit is the number of matches returned when the caller does not
// ask for a specific limit.
const DefaultLimit = 10

// Match is a single search hit, most similar first.
type Match struct {
	// DiaryID identifies the matched entry.
	DiaryID string `json:"diaryId"`

	// CharacterID is the owner of the matched entry.
	CharacterID string `json:"characterId"`

	// Date is the entry's calendar day.
	Date time.Time `json:"date"`

	// Content is the indexed text, the entry's title and original text.
	Content string `json:"content"`

	// Distance is the cosine distance between the query and the entry.
	// Smaller is more similar; 0 is an exact directional match.
	Distance float64 `json:"distance"`
}

// Index is the boundary over a semantic diary index.
//
// All implementations must be safe for concurrent use.
type Index interface {
	// IndexDiary embeds the entry and upserts it into the index. Indexing an
	// already-indexed diary replaces its previous content and vector.
	IndexDiary(ctx context.Context, d *diary.Diary) error

	// Search embeds query and returns the closest entries, ordered by
	// ascending cosine distance. A limit <= 0 falls back to [DefaultLimit].
	Search(ctx context.Context, query string, limit int) ([]Match, error)

	// Remove deletes an entry from the index. Removing an entry that was
	// never indexed is a no-op.
	Remove(ctx context.Context, diaryID string) error
}
