// Package quest models quests attached to a DiaryQuest character and the
// transitions between quest states.
//
// A quest moves through a small closed status machine:
//
//	not_started ──Start──▶ in_progress ──Complete──▶ completed
//	                            │    └──Fail──▶ failed
//	            └───────────Expire───────────▶ expired
//
// Completing a quest records the completion time; the caller claims the
// reward through the progression engine afterwards. Report generation
// classifies quests by CreatedAt/CompletedAt against the report period, not
// by live status, so historical reports stay stable as quests move on.
package quest

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidTransition is returned when a status change is not allowed from
// the quest's current status.
var ErrInvalidTransition = errors.New("invalid status transition")

// Status is the lifecycle state of a quest.
type Status string

const (
	// StatusNotStarted is the initial state of a freshly created quest.
	StatusNotStarted Status = "not_started"

	// StatusInProgress marks a started quest.
	StatusInProgress Status = "in_progress"

	// StatusCompleted marks a finished quest whose reward may be claimed.
	StatusCompleted Status = "completed"

	// StatusFailed marks a quest abandoned or lost while in progress.
	StatusFailed Status = "failed"

	// StatusExpired marks a quest that ran out of time before completion.
	StatusExpired Status = "expired"
)

// IsValid reports whether s is a recognised quest status.
func (s Status) IsValid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted, StatusFailed, StatusExpired:
		return true
	}
	return false
}

// Difficulty grades a quest.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyNormal Difficulty = "normal"
	DifficultyHard   Difficulty = "hard"
)

// IsValid reports whether d is a recognised difficulty.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyNormal, DifficultyHard:
		return true
	}
	return false
}

// Reward is the experience and gold granted when a quest completes.
type Reward struct {
	Exp  int `json:"exp"`
	Gold int `json:"gold"`
}

// Quest is a goal attached to a character.
type Quest struct {
	// ID is a unique identifier, assigned at creation.
	ID string `json:"id"`

	// CharacterID names the owning character.
	CharacterID string `json:"characterId"`

	// Title is the quest's display name.
	Title string `json:"title"`

	// Description is free text shown in the quest log.
	Description string `json:"description,omitempty"`

	// Status is the current lifecycle state.
	Status Status `json:"status"`

	// Difficulty grades the quest. Defaults to normal.
	Difficulty Difficulty `json:"difficulty"`

	// Reward is granted on completion.
	Reward Reward `json:"reward"`

	// CreatedAt is when the quest was created.
	CreatedAt time.Time `json:"createdAt"`

	// CompletedAt is when the quest completed, nil until then.
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// CreateOption customises a quest at creation time.
type CreateOption func(*Quest)

// WithDescription sets the quest description.
func WithDescription(desc string) CreateOption {
	return func(q *Quest) { q.Description = desc }
}

// WithDifficulty sets the quest difficulty.
func WithDifficulty(d Difficulty) CreateOption {
	return func(q *Quest) { q.Difficulty = d }
}

// WithReward sets the completion reward.
func WithReward(r Reward) CreateOption {
	return func(q *Quest) { q.Reward = r }
}

// New creates a not-started quest for the given character.
func New(characterID, title string, opts ...CreateOption) *Quest {
	q := &Quest{
		ID:          uuid.NewString(),
		CharacterID: characterID,
		Title:       title,
		Status:      StatusNotStarted,
		Difficulty:  DifficultyNormal,
		CreatedAt:   time.Now().UTC(),
	}
	for _, o := range opts {
		o(q)
	}
	return q
}

// Start moves the quest from not_started to in_progress.
func (q *Quest) Start() error {
	if q.Status != StatusNotStarted {
		return fmt.Errorf("quest: start from %q: %w", q.Status, ErrInvalidTransition)
	}
	q.Status = StatusInProgress
	return nil
}

// Complete moves the quest from in_progress to completed and records the
// completion time. The reward is not applied here; callers feed it to the
// progression engine.
func (q *Quest) Complete(at time.Time) error {
	if q.Status != StatusInProgress {
		return fmt.Errorf("quest: complete from %q: %w", q.Status, ErrInvalidTransition)
	}
	q.Status = StatusCompleted
	t := at.UTC()
	q.CompletedAt = &t
	return nil
}

// Fail moves the quest from in_progress to failed.
func (q *Quest) Fail() error {
	if q.Status != StatusInProgress {
		return fmt.Errorf("quest: fail from %q: %w", q.Status, ErrInvalidTransition)
	}
	q.Status = StatusFailed
	return nil
}

// Expire moves a not-started or in-progress quest to expired.
func (q *Quest) Expire() error {
	if q.Status != StatusNotStarted && q.Status != StatusInProgress {
		return fmt.Errorf("quest: expire from %q: %w", q.Status, ErrInvalidTransition)
	}
	q.Status = StatusExpired
	return nil
}

// Clone returns a deep copy of the quest.
func (q *Quest) Clone() *Quest {
	cp := *q
	if q.CompletedAt != nil {
		t := *q.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
