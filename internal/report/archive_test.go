package report

import (
	"bytes"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func sampleReport(id string) *Report {
	return &Report{
		ID:          id,
		CharacterID: "char-1",
		Type:        TypeWeekly,
		Period: Period{
			Start: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2023, 1, 7, 0, 0, 0, 0, time.UTC),
		},
		DiaryStats: DiaryStats{
			TotalCount:        3,
			TotalWordsWritten: 300,
			AverageWordCount:  100,
			LongestStreak:     2,
			WritingRate:       43,
		},
		EmotionStats: EmotionStats{
			MostCommon:    "joy",
			PositiveRatio: 67,
			NegativeRatio: 33,
		},
		CharacterGrowth: CharacterGrowth{
			ExpGained:    120,
			GoldEarned:   30,
			StartLevel:   1,
			EndLevel:     2,
			LevelsGained: 1,
		},
		QuestStats: QuestStats{Completed: 1, Failed: 1, CompletionRate: 50},
		Charts: Charts{
			EmotionTrend: []TrendPoint{
				{Date: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), Value: 1},
				{Date: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), Value: -1},
			},
			WritingFrequency: []TrendPoint{
				{Date: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), Value: 1},
			},
			QuestProgress: [3]int{1, 0, 1},
		},
		AISummary: "A fine week of steady effort.",
		CreatedAt: time.Date(2023, 1, 8, 9, 0, 0, 0, time.UTC),
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	t.Parallel()

	reports := []*Report{sampleReport("r1"), sampleReport("r2")}

	var buf bytes.Buffer
	if err := Archive(&buf, reports); err != nil {
		t.Fatalf("Archive returned error: %v", err)
	}

	got, err := Restore(&buf)
	if err != nil {
		t.Fatalf("Restore returned error: %v", err)
	}
	if !reflect.DeepEqual(got, reports) {
		t.Errorf("Restore() = %+v, want %+v", got, reports)
	}
}

func TestArchiveSkipsNilEntries(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Archive(&buf, []*Report{nil, sampleReport("r1"), nil}); err != nil {
		t.Fatalf("Archive returned error: %v", err)
	}

	got, err := Restore(&buf)
	if err != nil {
		t.Fatalf("Restore returned error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "r1" {
		t.Errorf("Restore() = %+v, want the single non-nil report", got)
	}
}

func TestArchiveEmptySet(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Archive(&buf, nil); err != nil {
		t.Fatalf("Archive returned error: %v", err)
	}

	got, err := Restore(&buf)
	if err != nil {
		t.Fatalf("Restore returned error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Restore() = %+v, want empty", got)
	}
}

func TestRestoreRejectsGarbage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{name: "plain text", data: "this is not an archive"},
		{name: "empty input", data: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := Restore(strings.NewReader(tt.data)); err == nil {
				t.Error("Restore accepted malformed input")
			}
		})
	}
}

func TestArchiveFileRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "backups", "reports.zst")
	reports := []*Report{sampleReport("r1")}

	if err := ArchiveFile(path, reports); err != nil {
		t.Fatalf("ArchiveFile returned error: %v", err)
	}

	got, err := RestoreFile(path)
	if err != nil {
		t.Fatalf("RestoreFile returned error: %v", err)
	}
	if !reflect.DeepEqual(got, reports) {
		t.Errorf("RestoreFile() = %+v, want %+v", got, reports)
	}
}

func TestRestoreFileMissing(t *testing.T) {
	t.Parallel()

	if _, err := RestoreFile(filepath.Join(t.TempDir(), "absent.zst")); err == nil {
		t.Error("RestoreFile accepted a missing file")
	}
}
