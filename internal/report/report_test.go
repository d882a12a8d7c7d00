package report

import (
	"reflect"
	"testing"
	"time"
)

func TestReportTypeIsValid(t *testing.T) {
	t.Parallel()

	for _, rt := range []ReportType{TypeWeekly, TypeMonthly, TypeYearly} {
		if !rt.IsValid() {
			t.Errorf("IsValid(%q) = false, want true", rt)
		}
	}
	for _, rt := range []ReportType{"", "daily", "WEEKLY"} {
		if rt.IsValid() {
			t.Errorf("IsValid(%q) = true, want false", rt)
		}
	}
}

func TestDefaultPeriod(t *testing.T) {
	t.Parallel()

	// A clock time on the end bound must not shift the window.
	end := time.Date(2023, 6, 15, 13, 45, 12, 0, time.UTC)

	tests := []struct {
		name      string
		rt        ReportType
		wantDays  int
		wantStart time.Time
	}{
		{"weekly", TypeWeekly, 7, time.Date(2023, 6, 9, 0, 0, 0, 0, time.UTC)},
		{"monthly", TypeMonthly, 30, time.Date(2023, 5, 17, 0, 0, 0, 0, time.UTC)},
		{"yearly", TypeYearly, 365, time.Date(2022, 6, 16, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		p := DefaultPeriod(tt.rt, end)
		if got := p.Days(); got != tt.wantDays {
			t.Errorf("%s: Days() = %d, want %d", tt.name, got, tt.wantDays)
		}
		if !p.Start.Equal(tt.wantStart) {
			t.Errorf("%s: Start = %v, want %v", tt.name, p.Start, tt.wantStart)
		}
		if want := time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC); !p.End.Equal(want) {
			t.Errorf("%s: End = %v, want %v", tt.name, p.End, want)
		}
	}
}

func TestReportClone(t *testing.T) {
	t.Parallel()

	orig := sampleReport("r1")
	clone := orig.Clone()

	if !reflect.DeepEqual(clone, orig) {
		t.Fatalf("Clone() = %+v, want %+v", clone, orig)
	}

	clone.Charts.EmotionTrend[0].Value = 99
	clone.AISummary = "tampered"
	if orig.Charts.EmotionTrend[0].Value != 1 {
		t.Error("mutating clone trend changed the original")
	}
	if orig.AISummary != "A fine week of steady effort." {
		t.Error("mutating clone summary changed the original")
	}

	var missing *Report
	if missing.Clone() != nil {
		t.Error("Clone() of nil = non-nil")
	}
}
