package quest

import (
	"errors"
	"testing"
	"time"
)

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	q := New("char-1", "Slay the inbox dragon")

	if q.ID == "" {
		t.Error("expected a generated ID")
	}
	if q.CharacterID != "char-1" || q.Title != "Slay the inbox dragon" {
		t.Errorf("identity: %+v", q)
	}
	if q.Status != StatusNotStarted {
		t.Errorf("status = %q, want not_started", q.Status)
	}
	if q.Difficulty != DifficultyNormal {
		t.Errorf("difficulty = %q, want normal", q.Difficulty)
	}
	if q.CompletedAt != nil {
		t.Error("expected nil CompletedAt on a fresh quest")
	}
	if q.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestNew_Options(t *testing.T) {
	t.Parallel()

	q := New("char-1", "Morning pages",
		WithDescription("Write before breakfast for a week."),
		WithDifficulty(DifficultyHard),
		WithReward(Reward{Exp: 200, Gold: 50}),
	)

	if q.Description == "" {
		t.Error("expected description set")
	}
	if q.Difficulty != DifficultyHard {
		t.Errorf("difficulty = %q, want hard", q.Difficulty)
	}
	if q.Reward != (Reward{Exp: 200, Gold: 50}) {
		t.Errorf("reward = %+v", q.Reward)
	}
}

func TestQuest_Lifecycle(t *testing.T) {
	t.Parallel()

	completedAt := time.Date(2023, 1, 5, 12, 0, 0, 0, time.UTC)

	q := New("char-1", "Morning pages")
	if err := q.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if q.Status != StatusInProgress {
		t.Fatalf("status = %q after start", q.Status)
	}

	if err := q.Complete(completedAt); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if q.Status != StatusCompleted {
		t.Errorf("status = %q after complete", q.Status)
	}
	if q.CompletedAt == nil || !q.CompletedAt.Equal(completedAt) {
		t.Errorf("CompletedAt = %v, want %v", q.CompletedAt, completedAt)
	}
}

func TestQuest_InvalidTransitions(t *testing.T) {
	t.Parallel()

	at := time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		from Status
		call func(q *Quest) error
	}{
		{"start from in_progress", StatusInProgress, func(q *Quest) error { return q.Start() }},
		{"start from completed", StatusCompleted, func(q *Quest) error { return q.Start() }},
		{"complete from not_started", StatusNotStarted, func(q *Quest) error { return q.Complete(at) }},
		{"complete from failed", StatusFailed, func(q *Quest) error { return q.Complete(at) }},
		{"complete from expired", StatusExpired, func(q *Quest) error { return q.Complete(at) }},
		{"fail from not_started", StatusNotStarted, func(q *Quest) error { return q.Fail() }},
		{"fail from completed", StatusCompleted, func(q *Quest) error { return q.Fail() }},
		{"expire from completed", StatusCompleted, func(q *Quest) error { return q.Expire() }},
		{"expire from failed", StatusFailed, func(q *Quest) error { return q.Expire() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			q := New("char-1", "Morning pages")
			q.Status = tt.from

			err := tt.call(q)
			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("error = %v, want ErrInvalidTransition", err)
			}
			if q.Status != tt.from {
				t.Errorf("status changed to %q by rejected transition", q.Status)
			}
		})
	}
}

func TestQuest_ExpirePaths(t *testing.T) {
	t.Parallel()

	fresh := New("char-1", "Morning pages")
	if err := fresh.Expire(); err != nil {
		t.Fatalf("expire not_started: %v", err)
	}
	if fresh.Status != StatusExpired {
		t.Errorf("status = %q", fresh.Status)
	}

	started := New("char-1", "Morning pages")
	_ = started.Start()
	if err := started.Expire(); err != nil {
		t.Fatalf("expire in_progress: %v", err)
	}
	if started.Status != StatusExpired {
		t.Errorf("status = %q", started.Status)
	}
}

func TestStatus_IsValid(t *testing.T) {
	t.Parallel()

	for _, s := range []Status{StatusNotStarted, StatusInProgress, StatusCompleted, StatusFailed, StatusExpired} {
		if !s.IsValid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if Status("paused").IsValid() {
		t.Error("unexpected valid status")
	}
}

func TestDifficulty_IsValid(t *testing.T) {
	t.Parallel()

	for _, d := range []Difficulty{DifficultyEasy, DifficultyNormal, DifficultyHard} {
		if !d.IsValid() {
			t.Errorf("%q should be valid", d)
		}
	}
	if Difficulty("nightmare").IsValid() {
		t.Error("unexpected valid difficulty")
	}
}

func TestQuest_Clone(t *testing.T) {
	t.Parallel()

	q := New("char-1", "Morning pages")
	_ = q.Start()
	_ = q.Complete(time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC))

	cp := q.Clone()
	*cp.CompletedAt = time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)
	cp.Status = StatusFailed

	if q.CompletedAt.Year() == 2099 {
		t.Error("clone shares CompletedAt")
	}
	if q.Status != StatusCompleted {
		t.Error("clone shares status")
	}
}
