package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/meteoright00/diary-quest-sub001/internal/quest"
)

// ─────────────────────────────────────────────────────────────────────────────
// Test helpers, mock DB types
// ─────────────────────────────────────────────────────────────────────────────

// mockRow implements pgx.Row for testing.
type mockRow struct {
	scanFunc func(dest ...any) error
}

func (r *mockRow) Scan(dest ...any) error { return r.scanFunc(dest...) }

// mockRows implements pgx.Rows for testing.
type mockRows struct {
	data   [][]any
	idx    int
	err    error
	closed bool
}

func (r *mockRows) Close()                                       { r.closed = true }
func (r *mockRows) Err() error                                   { return r.err }
func (r *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *mockRows) RawValues() [][]byte                          { return nil }
func (r *mockRows) Conn() *pgx.Conn                              { return nil }

func (r *mockRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *mockRows) Scan(dest ...any) error {
	row := r.data[r.idx-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: expected %d columns, got %d destinations", len(row), len(dest))
	}
	for i, v := range row {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *[]byte:
			*d = v.([]byte)
		case *time.Time:
			*d = v.(time.Time)
		case **time.Time:
			if v == nil {
				*d = nil
			} else {
				t := v.(time.Time)
				*d = &t
			}
		default:
			return fmt.Errorf("scan: unsupported type at index %d: %T", i, dest[i])
		}
	}
	return nil
}

func (r *mockRows) Values() ([]any, error) { return nil, nil }

// mockDB implements the DB interface for testing.
type mockDB struct {
	queryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
	queryFunc    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	execFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.queryRowFunc != nil {
		return m.queryRowFunc(ctx, sql, args...)
	}
	return &mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
}

func (m *mockDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if m.queryFunc != nil {
		return m.queryFunc(ctx, sql, args...)
	}
	return &mockRows{}, nil
}

func (m *mockDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if m.execFunc != nil {
		return m.execFunc(ctx, sql, args...)
	}
	return pgconn.CommandTag{}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Migration
// ─────────────────────────────────────────────────────────────────────────────

func TestMigratePostgres(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			execFunc: func(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
				for _, table := range []string{"characters", "diaries", "quests", "reports"} {
					if !strings.Contains(sql, "CREATE TABLE IF NOT EXISTS "+table) {
						t.Errorf("schema is missing the %s table", table)
					}
				}
				return pgconn.CommandTag{}, nil
			},
		}
		if err := MigratePostgres(context.Background(), db); err != nil {
			t.Fatalf("MigratePostgres() unexpected error: %v", err)
		}
	})

	t.Run("error", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			execFunc: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
				return pgconn.CommandTag{}, errors.New("connection refused")
			},
		}
		err := MigratePostgres(context.Background(), db)
		if err == nil {
			t.Fatal("MigratePostgres() expected error, got nil")
		}
		if !strings.Contains(err.Error(), "store: migrate postgres:") {
			t.Errorf("error = %q, want prefix 'store: migrate postgres:'", err.Error())
		}
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Characters
// ─────────────────────────────────────────────────────────────────────────────

func TestPostgresCharacters_Create(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2023, time.March, 15, 9, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		var capturedSQL string
		var capturedArgs []any
		db := &mockDB{
			queryRowFunc: func(_ context.Context, sql string, args ...any) pgx.Row {
				capturedSQL = sql
				capturedArgs = args
				return &mockRow{
					scanFunc: func(dest ...any) error {
						*(dest[0].(*time.Time)) = fixedTime
						*(dest[1].(*time.Time)) = fixedTime
						return nil
					},
				}
			},
		}

		stores := NewPostgres(db)
		c := sampleCharacter("char-1", "world-1", "Grimwald")
		if err := stores.Characters.Create(context.Background(), c); err != nil {
			t.Fatalf("Create() unexpected error: %v", err)
		}

		if !strings.Contains(capturedSQL, "INSERT INTO characters") {
			t.Errorf("SQL should contain INSERT, got: %s", capturedSQL)
		}
		if len(capturedArgs) != 16 {
			t.Errorf("expected 16 args, got %d", len(capturedArgs))
		}
		if capturedArgs[0] != "char-1" {
			t.Errorf("first arg = %v, want 'char-1'", capturedArgs[0])
		}
		if !c.CreatedAt.Equal(fixedTime) {
			t.Errorf("CreatedAt = %v, want the database-assigned %v", c.CreatedAt, fixedTime)
		}
		if !c.UpdatedAt.Equal(fixedTime) {
			t.Errorf("UpdatedAt = %v, want the database-assigned %v", c.UpdatedAt, fixedTime)
		}
	})

	t.Run("generates id when empty", func(t *testing.T) {
		t.Parallel()

		db := &mockDB{
			queryRowFunc: func(_ context.Context, _ string, _ ...any) pgx.Row {
				return &mockRow{
					scanFunc: func(dest ...any) error {
						*(dest[0].(*time.Time)) = fixedTime
						*(dest[1].(*time.Time)) = fixedTime
						return nil
					},
				}
			},
		}

		stores := NewPostgres(db)
		c := sampleCharacter("", "world-1", "Grimwald")
		if err := stores.Characters.Create(context.Background(), c); err != nil {
			t.Fatalf("Create() unexpected error: %v", err)
		}
		if len(c.ID) != 32 {
			t.Errorf("generated ID %q has length %d, want 32 hex characters", c.ID, len(c.ID))
		}
	})

	t.Run("duplicate key", func(t *testing.T) {
		t.Parallel()

		db := &mockDB{
			queryRowFunc: func(_ context.Context, _ string, _ ...any) pgx.Row {
				return &mockRow{
					scanFunc: func(_ ...any) error {
						return &pgconn.PgError{Code: "23505"}
					},
				}
			},
		}

		stores := NewPostgres(db)
		err := stores.Characters.Create(context.Background(), sampleCharacter("dup", "world-1", "Dup"))
		if !errors.Is(err, ErrDuplicateID) {
			t.Errorf("Create() error = %v, want ErrDuplicateID", err)
		}
	})

	t.Run("db error", func(t *testing.T) {
		t.Parallel()

		db := &mockDB{
			queryRowFunc: func(_ context.Context, _ string, _ ...any) pgx.Row {
				return &mockRow{
					scanFunc: func(_ ...any) error { return errors.New("connection lost") },
				}
			},
		}

		stores := NewPostgres(db)
		err := stores.Characters.Create(context.Background(), sampleCharacter("char-1", "world-1", "X"))
		if err == nil {
			t.Fatal("Create() expected error, got nil")
		}
		if !strings.Contains(err.Error(), "store: create character") {
			t.Errorf("error = %q, want prefix 'store: create character'", err.Error())
		}
	})
}

func TestPostgresCharacters_Get(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		want := sampleCharacter("char-1", "world-1", "Grimwald")
		blobs, err := encodeCharacter(want)
		if err != nil {
			t.Fatalf("encodeCharacter() unexpected error: %v", err)
		}

		db := &mockDB{
			queryRowFunc: func(_ context.Context, _ string, args ...any) pgx.Row {
				if args[0] != "char-1" {
					t.Errorf("Get() id arg = %v, want 'char-1'", args[0])
				}
				return &mockRow{
					scanFunc: func(dest ...any) error {
						*(dest[0].(*string)) = want.ID
						*(dest[1].(*string)) = want.WorldID
						*(dest[2].(*string)) = want.Name
						*(dest[3].(*string)) = want.Class
						*(dest[4].(*string)) = want.Guild
						*(dest[5].(*[]byte)) = blobs.level
						*(dest[6].(*[]byte)) = blobs.stats
						*(dest[7].(*[]byte)) = blobs.equipment
						*(dest[8].(*[]byte)) = blobs.currency
						*(dest[9].(*[]byte)) = blobs.statistics
						*(dest[10].(*[]byte)) = blobs.titles
						*(dest[11].(*[]byte)) = blobs.skills
						*(dest[12].(*[]byte)) = blobs.achievements
						*(dest[13].(*[]byte)) = blobs.inventory
						*(dest[14].(*[]byte)) = blobs.questLog
						*(dest[15].(*[]byte)) = blobs.nameMappings
						*(dest[16].(*time.Time)) = want.CreatedAt
						*(dest[17].(*time.Time)) = want.UpdatedAt
						return nil
					},
				}
			},
		}

		stores := NewPostgres(db)
		got, err := stores.Characters.Get(context.Background(), "char-1")
		if err != nil {
			t.Fatalf("Get() unexpected error: %v", err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Get() = %+v, want %+v", got, want)
		}
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		stores := NewPostgres(&mockDB{})
		_, err := stores.Characters.Get(context.Background(), "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Get() error = %v, want ErrNotFound", err)
		}
	})
}

func TestPostgresCharacters_GetByWorld(t *testing.T) {
	t.Parallel()

	var capturedSQL string
	db := &mockDB{
		queryRowFunc: func(_ context.Context, sql string, args ...any) pgx.Row {
			capturedSQL = sql
			if args[0] != "world-1" {
				t.Errorf("GetByWorld() arg = %v, want 'world-1'", args[0])
			}
			return &mockRow{scanFunc: func(_ ...any) error { return pgx.ErrNoRows }}
		},
	}

	stores := NewPostgres(db)
	_, err := stores.Characters.GetByWorld(context.Background(), "world-1")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByWorld() error = %v, want ErrNotFound", err)
	}
	if !strings.Contains(capturedSQL, "WHERE world_id") {
		t.Errorf("SQL should filter by world_id, got: %s", capturedSQL)
	}
	if !strings.Contains(capturedSQL, "LIMIT 1") {
		t.Errorf("SQL should contain LIMIT 1, got: %s", capturedSQL)
	}
	if !strings.Contains(capturedSQL, "ORDER BY created_at") {
		t.Errorf("SQL should order by created_at so the earliest character wins, got: %s", capturedSQL)
	}
}

func TestPostgresCharacters_Update(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2023, time.March, 15, 9, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		var capturedSQL string
		db := &mockDB{
			queryRowFunc: func(_ context.Context, sql string, args ...any) pgx.Row {
				capturedSQL = sql
				if args[0] != "char-1" {
					t.Errorf("Update() id arg = %v, want 'char-1'", args[0])
				}
				return &mockRow{
					scanFunc: func(dest ...any) error {
						*(dest[0].(*time.Time)) = fixedTime
						return nil
					},
				}
			},
		}

		stores := NewPostgres(db)
		c := sampleCharacter("char-1", "world-1", "Grimwald")
		if err := stores.Characters.Update(context.Background(), c); err != nil {
			t.Fatalf("Update() unexpected error: %v", err)
		}
		if !strings.Contains(capturedSQL, "updated_at = now()") {
			t.Errorf("SQL should refresh updated_at, got: %s", capturedSQL)
		}
		if !c.UpdatedAt.Equal(fixedTime) {
			t.Errorf("UpdatedAt = %v, want the database-assigned %v", c.UpdatedAt, fixedTime)
		}
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		stores := NewPostgres(&mockDB{})
		err := stores.Characters.Update(context.Background(), sampleCharacter("ghost", "world-1", "Ghost"))
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Update() error = %v, want ErrNotFound", err)
		}
	})
}

func TestPostgresCharacters_List(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2023, time.March, 15, 9, 0, 0, 0, time.UTC)

	makeRow := func(id, name string) []any {
		return []any{
			id,           // id
			"world-1",    // world_id
			name,         // name
			"Paladin",    // class
			"",           // guild
			[]byte(`{}`), // level
			[]byte(`{}`), // stats
			[]byte(`{}`), // equipment
			[]byte(`{}`), // currency
			[]byte(`{}`), // statistics
			[]byte(`[]`), // titles
			[]byte(`[]`), // skills
			[]byte(`[]`), // achievements
			[]byte(`[]`), // inventory
			[]byte(`[]`), // quest_log
			[]byte(`[]`), // name_mappings
			fixedTime,    // created_at
			fixedTime,    // updated_at
		}
	}

	db := &mockDB{
		queryFunc: func(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
			if !strings.Contains(sql, "ORDER BY name") {
				t.Errorf("SQL should order by name, got: %s", sql)
			}
			return &mockRows{
				data: [][]any{
					makeRow("char-1", "Aldric"),
					makeRow("char-2", "Beryl"),
				},
			}, nil
		},
	}

	stores := NewPostgres(db)
	got, err := stores.Characters.List(context.Background())
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("List() returned %d characters, want 2", len(got))
	}
	if got[0].Name != "Aldric" || got[1].Name != "Beryl" {
		t.Errorf("List() names = [%s %s], want [Aldric Beryl]", got[0].Name, got[1].Name)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Diaries
// ─────────────────────────────────────────────────────────────────────────────

func TestPostgresDiaries_Create(t *testing.T) {
	t.Parallel()

	var capturedSQL string
	var capturedArgs []any
	db := &mockDB{
		execFunc: func(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			capturedSQL = sql
			capturedArgs = args
			return pgconn.CommandTag{}, nil
		},
	}

	stores := NewPostgres(db)
	d := sampleDiary("diary-1", "char-1", testTime)
	if err := stores.Diaries.Create(context.Background(), d); err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	if !strings.Contains(capturedSQL, "INSERT INTO diaries") {
		t.Errorf("SQL should contain INSERT, got: %s", capturedSQL)
	}
	if len(capturedArgs) != 11 {
		t.Errorf("expected 11 args, got %d", len(capturedArgs))
	}
	if capturedArgs[0] != "diary-1" {
		t.Errorf("first arg = %v, want 'diary-1'", capturedArgs[0])
	}
	// The entry date and creation time are stored as given, not reassigned
	// by the database.
	if got := capturedArgs[2].(time.Time); !got.Equal(d.Date) {
		t.Errorf("date arg = %v, want %v", got, d.Date)
	}
	if got := capturedArgs[10].(time.Time); !got.Equal(d.CreatedAt) {
		t.Errorf("created_at arg = %v, want %v", got, d.CreatedAt)
	}
}

func TestPostgresDiaries_Update(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		db := &mockDB{
			execFunc: func(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
				if !strings.Contains(sql, "UPDATE diaries") {
					t.Errorf("SQL should contain UPDATE, got: %s", sql)
				}
				if len(args) != 10 {
					t.Errorf("expected 10 args, got %d", len(args))
				}
				return pgconn.NewCommandTag("UPDATE 1"), nil
			},
		}

		stores := NewPostgres(db)
		if err := stores.Diaries.Update(context.Background(), sampleDiary("diary-1", "char-1", testTime)); err != nil {
			t.Fatalf("Update() unexpected error: %v", err)
		}
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		db := &mockDB{
			execFunc: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
				return pgconn.NewCommandTag("UPDATE 0"), nil
			},
		}

		stores := NewPostgres(db)
		err := stores.Diaries.Update(context.Background(), sampleDiary("ghost", "char-1", testTime))
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Update() error = %v, want ErrNotFound", err)
		}
	})
}

func TestPostgresDiaries_Delete(t *testing.T) {
	t.Parallel()

	db := &mockDB{
		execFunc: func(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			if !strings.Contains(sql, "DELETE FROM diaries") {
				t.Errorf("SQL = %q, want DELETE statement", sql)
			}
			if args[0] == "diary-1" {
				return pgconn.NewCommandTag("DELETE 1"), nil
			}
			return pgconn.NewCommandTag("DELETE 0"), nil
		},
	}

	stores := NewPostgres(db)
	if err := stores.Diaries.Delete(context.Background(), "diary-1"); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}
	if err := stores.Diaries.Delete(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(missing) error = %v, want ErrNotFound", err)
	}
}

func TestPostgresDiaries_ListByPeriod(t *testing.T) {
	t.Parallel()

	var capturedArgs []any
	db := &mockDB{
		queryFunc: func(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
			capturedArgs = args
			if !strings.Contains(sql, "date >= $2 AND date <= $3") {
				t.Errorf("SQL should bound the date on both sides, got: %s", sql)
			}
			return &mockRows{}, nil
		},
	}

	stores := NewPostgres(db)
	start := time.Date(2023, time.January, 1, 15, 30, 0, 0, time.UTC)
	end := time.Date(2023, time.January, 5, 23, 0, 0, 0, time.UTC)
	if _, err := stores.Diaries.ListByPeriod(context.Background(), "char-1", start, end); err != nil {
		t.Fatalf("ListByPeriod() unexpected error: %v", err)
	}

	// Bounds are truncated to calendar days before they reach the query.
	wantFrom := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	wantTo := time.Date(2023, time.January, 5, 0, 0, 0, 0, time.UTC)
	if got := capturedArgs[1].(time.Time); !got.Equal(wantFrom) {
		t.Errorf("start arg = %v, want %v", got, wantFrom)
	}
	if got := capturedArgs[2].(time.Time); !got.Equal(wantTo) {
		t.Errorf("end arg = %v, want %v", got, wantTo)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Quests
// ─────────────────────────────────────────────────────────────────────────────

func TestPostgresQuests_Create(t *testing.T) {
	t.Parallel()

	var capturedArgs []any
	db := &mockDB{
		execFunc: func(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			capturedArgs = args
			if !strings.Contains(sql, "INSERT INTO quests") {
				t.Errorf("SQL should contain INSERT, got: %s", sql)
			}
			return pgconn.CommandTag{}, nil
		},
	}

	stores := NewPostgres(db)
	q := sampleQuest("quest-1", "char-1")
	if err := stores.Quests.Create(context.Background(), q); err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	if len(capturedArgs) != 9 {
		t.Fatalf("expected 9 args, got %d", len(capturedArgs))
	}
	if capturedArgs[4] != "in_progress" {
		t.Errorf("status arg = %v, want 'in_progress'", capturedArgs[4])
	}
	// An open quest writes NULL into completed_at.
	if got, ok := capturedArgs[8].(*time.Time); !ok || got != nil {
		t.Errorf("completed_at arg = %v (%T), want a nil *time.Time", capturedArgs[8], capturedArgs[8])
	}
}

func TestPostgresQuests_Get(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2023, time.March, 15, 9, 0, 0, 0, time.UTC)
	done := fixedTime.Add(2 * time.Hour)

	tests := []struct {
		name          string
		completedAt   any
		wantCompleted *time.Time
	}{
		{name: "open quest has nil completion", completedAt: nil, wantCompleted: nil},
		{name: "completed quest carries its timestamp", completedAt: done, wantCompleted: &done},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db := &mockDB{
				queryRowFunc: func(_ context.Context, _ string, _ ...any) pgx.Row {
					rows := &mockRows{data: [][]any{{
						"quest-1",             // id
						"char-1",              // character_id
						"Clear the cellar",    // title
						"Sort it out.",        // description
						"completed",           // status
						"normal",              // difficulty
						[]byte(`{"exp":100}`), // reward
						fixedTime,             // created_at
						tt.completedAt,        // completed_at
					}}}
					rows.Next()
					return &mockRow{scanFunc: rows.Scan}
				},
			}

			stores := NewPostgres(db)
			got, err := stores.Quests.Get(context.Background(), "quest-1")
			if err != nil {
				t.Fatalf("Get() unexpected error: %v", err)
			}
			if got.Status != quest.StatusCompleted {
				t.Errorf("Status = %q, want %q", got.Status, quest.StatusCompleted)
			}
			if got.Reward.Exp != 100 {
				t.Errorf("Reward.Exp = %d, want 100", got.Reward.Exp)
			}
			switch {
			case tt.wantCompleted == nil && got.CompletedAt != nil:
				t.Errorf("CompletedAt = %v, want nil", got.CompletedAt)
			case tt.wantCompleted != nil && (got.CompletedAt == nil || !got.CompletedAt.Equal(*tt.wantCompleted)):
				t.Errorf("CompletedAt = %v, want %v", got.CompletedAt, tt.wantCompleted)
			}
		})
	}
}

func TestPostgresQuests_Update(t *testing.T) {
	t.Parallel()

	db := &mockDB{
		execFunc: func(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			if !strings.Contains(sql, "UPDATE quests") {
				t.Errorf("SQL should contain UPDATE, got: %s", sql)
			}
			if len(args) != 8 {
				t.Errorf("expected 8 args, got %d", len(args))
			}
			if args[0] == "quest-1" {
				return pgconn.NewCommandTag("UPDATE 1"), nil
			}
			return pgconn.NewCommandTag("UPDATE 0"), nil
		},
	}

	stores := NewPostgres(db)
	if err := stores.Quests.Update(context.Background(), sampleQuest("quest-1", "char-1")); err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}
	err := stores.Quests.Update(context.Background(), sampleQuest("ghost", "char-1"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Reports
// ─────────────────────────────────────────────────────────────────────────────

func TestPostgresReports_Create(t *testing.T) {
	t.Parallel()

	var capturedArgs []any
	db := &mockDB{
		execFunc: func(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			capturedArgs = args
			if !strings.Contains(sql, "INSERT INTO reports") {
				t.Errorf("SQL should contain INSERT, got: %s", sql)
			}
			return pgconn.CommandTag{}, nil
		},
	}

	stores := NewPostgres(db)
	r := sampleReport("report-1", "char-1")
	if err := stores.Reports.Create(context.Background(), r); err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	if len(capturedArgs) != 12 {
		t.Fatalf("expected 12 args, got %d", len(capturedArgs))
	}
	if capturedArgs[2] != "weekly" {
		t.Errorf("type arg = %v, want 'weekly'", capturedArgs[2])
	}
	if capturedArgs[10] != r.AISummary {
		t.Errorf("ai_summary arg = %v, want %q", capturedArgs[10], r.AISummary)
	}
}

func TestPostgresReports_Get(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		want := sampleReport("report-1", "char-1")
		blobs, err := encodeReport(want)
		if err != nil {
			t.Fatalf("encodeReport() unexpected error: %v", err)
		}

		db := &mockDB{
			queryRowFunc: func(_ context.Context, _ string, args ...any) pgx.Row {
				if args[0] != "report-1" {
					t.Errorf("Get() id arg = %v, want 'report-1'", args[0])
				}
				return &mockRow{
					scanFunc: func(dest ...any) error {
						*(dest[0].(*string)) = want.ID
						*(dest[1].(*string)) = want.CharacterID
						*(dest[2].(*string)) = string(want.Type)
						*(dest[3].(*time.Time)) = want.Period.Start
						*(dest[4].(*time.Time)) = want.Period.End
						*(dest[5].(*[]byte)) = blobs.diaryStats
						*(dest[6].(*[]byte)) = blobs.emotionStats
						*(dest[7].(*[]byte)) = blobs.growth
						*(dest[8].(*[]byte)) = blobs.questStats
						*(dest[9].(*[]byte)) = blobs.charts
						*(dest[10].(*string)) = want.AISummary
						*(dest[11].(*time.Time)) = want.CreatedAt
						return nil
					},
				}
			},
		}

		stores := NewPostgres(db)
		got, err := stores.Reports.Get(context.Background(), "report-1")
		if err != nil {
			t.Fatalf("Get() unexpected error: %v", err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Get() = %+v, want %+v", got, want)
		}
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		stores := NewPostgres(&mockDB{})
		_, err := stores.Reports.Get(context.Background(), "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Get() error = %v, want ErrNotFound", err)
		}
	})
}

func TestPostgresReports_ListByCharacter(t *testing.T) {
	t.Parallel()

	db := &mockDB{
		queryFunc: func(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
			if !strings.Contains(sql, "ORDER BY created_at DESC") {
				t.Errorf("SQL should order newest first, got: %s", sql)
			}
			if args[0] != "char-1" {
				t.Errorf("arg = %v, want 'char-1'", args[0])
			}
			return &mockRows{}, nil
		},
	}

	stores := NewPostgres(db)
	got, err := stores.Reports.ListByCharacter(context.Background(), "char-1")
	if err != nil {
		t.Fatalf("ListByCharacter() unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("ListByCharacter() = %v, want nil for empty result", got)
	}
}
