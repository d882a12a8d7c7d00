package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/meteoright00/diary-quest-sub001/internal/character"
	"github.com/meteoright00/diary-quest-sub001/internal/diary"
	"github.com/meteoright00/diary-quest-sub001/internal/quest"
	"github.com/meteoright00/diary-quest-sub001/internal/report"
)

// Compile-time assertions that the memory adapters satisfy the interfaces.
var (
	_ CharacterStore = (*memCharacters)(nil)
	_ DiaryStore     = (*memDiaries)(nil)
	_ QuestStore     = (*memQuests)(nil)
	_ ReportStore    = (*memReports)(nil)
)

// NewMemory returns a [Stores] bundle backed by in-process maps. Nothing
// survives a restart. Aggregates are deep-copied on the way in and out, so
// callers never share memory with the store.
func NewMemory() *Stores {
	return &Stores{
		Characters: &memCharacters{items: make(map[string]*character.Character)},
		Diaries:    &memDiaries{items: make(map[string]*diary.Diary)},
		Quests:     &memQuests{items: make(map[string]*quest.Quest)},
		Reports:    &memReports{items: make(map[string]*report.Report)},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Characters
// ─────────────────────────────────────────────────────────────────────────────

type memCharacters struct {
	mu    sync.RWMutex
	items map[string]*character.Character
}

func (s *memCharacters) Create(ctx context.Context, c *character.Character) error {
	if c.ID == "" {
		id, err := generateID()
		if err != nil {
			return fmt.Errorf("store: generate character id: %w", err)
		}
		c.ID = id
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[c.ID]; exists {
		return fmt.Errorf("store: create character %q: %w", c.ID, ErrDuplicateID)
	}
	s.items[c.ID] = c.Clone()
	return nil
}

func (s *memCharacters) Get(ctx context.Context, id string) (*character.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("store: character %q: %w", id, ErrNotFound)
	}
	return c.Clone(), nil
}

func (s *memCharacters) GetByWorld(ctx context.Context, worldID string) (*character.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *character.Character
	for _, c := range s.items {
		if c.WorldID != worldID {
			continue
		}
		if found == nil || c.CreatedAt.Before(found.CreatedAt) ||
			(c.CreatedAt.Equal(found.CreatedAt) && c.ID < found.ID) {
			found = c
		}
	}
	if found == nil {
		return nil, fmt.Errorf("store: character in world %q: %w", worldID, ErrNotFound)
	}
	return found.Clone(), nil
}

func (s *memCharacters) Update(ctx context.Context, c *character.Character) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[c.ID]; !ok {
		return fmt.Errorf("store: update character %q: %w", c.ID, ErrNotFound)
	}
	c.UpdatedAt = time.Now().UTC()
	s.items[c.ID] = c.Clone()
	return nil
}

func (s *memCharacters) List(ctx context.Context) ([]*character.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*character.Character, 0, len(s.items))
	for _, c := range s.items {
		out = append(out, c.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Diaries
// ─────────────────────────────────────────────────────────────────────────────

type memDiaries struct {
	mu    sync.RWMutex
	items map[string]*diary.Diary
}

func (s *memDiaries) Create(ctx context.Context, d *diary.Diary) error {
	if d.ID == "" {
		id, err := generateID()
		if err != nil {
			return fmt.Errorf("store: generate diary id: %w", err)
		}
		d.ID = id
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[d.ID]; exists {
		return fmt.Errorf("store: create diary %q: %w", d.ID, ErrDuplicateID)
	}
	s.items[d.ID] = d.Clone()
	return nil
}

func (s *memDiaries) Get(ctx context.Context, id string) (*diary.Diary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("store: diary %q: %w", id, ErrNotFound)
	}
	return d.Clone(), nil
}

func (s *memDiaries) Update(ctx context.Context, d *diary.Diary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[d.ID]; !ok {
		return fmt.Errorf("store: update diary %q: %w", d.ID, ErrNotFound)
	}
	s.items[d.ID] = d.Clone()
	return nil
}

func (s *memDiaries) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("store: delete diary %q: %w", id, ErrNotFound)
	}
	delete(s.items, id)
	return nil
}

func (s *memDiaries) ListByCharacter(ctx context.Context, characterID string) ([]*diary.Diary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*diary.Diary
	for _, d := range s.items {
		if d.CharacterID == characterID {
			out = append(out, d.Clone())
		}
	}
	sortDiaries(out)
	return out, nil
}

func (s *memDiaries) ListByPeriod(ctx context.Context, characterID string, start, end time.Time) ([]*diary.Diary, error) {
	from, to := diary.Day(start), diary.Day(end)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*diary.Diary
	for _, d := range s.items {
		if d.CharacterID != characterID {
			continue
		}
		if d.Date.Before(from) || d.Date.After(to) {
			continue
		}
		out = append(out, d.Clone())
	}
	sortDiaries(out)
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Quests
// ─────────────────────────────────────────────────────────────────────────────

type memQuests struct {
	mu    sync.RWMutex
	items map[string]*quest.Quest
}

func (s *memQuests) Create(ctx context.Context, q *quest.Quest) error {
	if q.ID == "" {
		id, err := generateID()
		if err != nil {
			return fmt.Errorf("store: generate quest id: %w", err)
		}
		q.ID = id
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[q.ID]; exists {
		return fmt.Errorf("store: create quest %q: %w", q.ID, ErrDuplicateID)
	}
	s.items[q.ID] = q.Clone()
	return nil
}

func (s *memQuests) Get(ctx context.Context, id string) (*quest.Quest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("store: quest %q: %w", id, ErrNotFound)
	}
	return q.Clone(), nil
}

func (s *memQuests) Update(ctx context.Context, q *quest.Quest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[q.ID]; !ok {
		return fmt.Errorf("store: update quest %q: %w", q.ID, ErrNotFound)
	}
	s.items[q.ID] = q.Clone()
	return nil
}

func (s *memQuests) ListByCharacter(ctx context.Context, characterID string) ([]*quest.Quest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*quest.Quest
	for _, q := range s.items {
		if q.CharacterID == characterID {
			out = append(out, q.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Reports
// ─────────────────────────────────────────────────────────────────────────────

type memReports struct {
	mu    sync.RWMutex
	items map[string]*report.Report
}

func (s *memReports) Create(ctx context.Context, r *report.Report) error {
	if r.ID == "" {
		id, err := generateID()
		if err != nil {
			return fmt.Errorf("store: generate report id: %w", err)
		}
		r.ID = id
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[r.ID]; exists {
		return fmt.Errorf("store: create report %q: %w", r.ID, ErrDuplicateID)
	}
	s.items[r.ID] = r.Clone()
	return nil
}

func (s *memReports) Get(ctx context.Context, id string) (*report.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("store: report %q: %w", id, ErrNotFound)
	}
	return r.Clone(), nil
}

func (s *memReports) ListByCharacter(ctx context.Context, characterID string) ([]*report.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*report.Report
	for _, r := range s.items {
		if r.CharacterID == characterID {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

// generateID produces a random 16-byte hex string using crypto/rand. Domain
// constructors normally assign UUIDs; this is the fallback for aggregates
// created without one.
func generateID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// sortDiaries orders entries by date, then creation time, then ID.
func sortDiaries(ds []*diary.Diary) {
	sort.Slice(ds, func(i, j int) bool {
		if !ds[i].Date.Equal(ds[j].Date) {
			return ds[i].Date.Before(ds[j].Date)
		}
		if !ds[i].CreatedAt.Equal(ds[j].CreatedAt) {
			return ds[i].CreatedAt.Before(ds[j].CreatedAt)
		}
		return ds[i].ID < ds[j].ID
	})
}
