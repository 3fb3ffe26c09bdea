package temporal

import (
	"fmt"
	"testing"
	"time"

	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/analysis"
)

func makeDays(t *testing.T, moods []float64) []analysis.Day {
	t.Helper()
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	days := make([]analysis.Day, len(moods))
	for i, m := range moods {
		days[i] = analysis.Day{
			ID:   fmt.Sprintf("day_%03d", i+1),
			Date: start.AddDate(0, 0, i),
			Mood: m,
		}
	}
	return days
}

func constIntSlice(n, v int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func TestAggregateWindowing(t *testing.T) {
	days := makeDays(t, make([]float64, 30))
	weeks, err := Aggregate(days, constIntSlice(30, 0), 7, 0.05)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	if len(weeks) != 5 {
		t.Fatalf("got %d weeks, want 5", len(weeks))
	}
	for i, w := range weeks {
		if w.Index != i+1 {
			t.Errorf("week %d index = %d", i, w.Index)
		}
		wantDays := 7
		if i == 4 {
			wantDays = 2 // 30 = 4*7 + 2
		}
		if w.DayCount != wantDays {
			t.Errorf("week %d has %d days, want %d", w.Index, w.DayCount, wantDays)
		}
		sum := 0
		for _, n := range w.ThemeDistribution {
			sum += n
		}
		if sum != w.DayCount {
			t.Errorf("week %d distribution sums to %d, want %d", w.Index, sum, w.DayCount)
		}
	}
}

func TestAggregateTrends(t *testing.T) {
	// Week moods: 0.0, then clearly up, then clearly down, then flat.
	moods := make([]float64, 0, 28)
	for _, weekMood := range []float64{0.0, 0.5, -0.2, -0.21} {
		for i := 0; i < 7; i++ {
			moods = append(moods, weekMood)
		}
	}
	days := makeDays(t, moods)

	weeks, err := Aggregate(days, constIntSlice(28, 0), 7, 0.05)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	want := []Trend{TrendStable, TrendImproving, TrendDeclining, TrendStable}
	for i, w := range weeks {
		if w.Trend != want[i] {
			t.Errorf("week %d trend = %q, want %q", w.Index, w.Trend, want[i])
		}
	}
}

func TestAggregateSingleDayFinalWeek(t *testing.T) {
	days := makeDays(t, make([]float64, 8))
	weeks, err := Aggregate(days, constIntSlice(8, 3), 7, 0.05)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(weeks) != 2 {
		t.Fatalf("got %d weeks, want 2", len(weeks))
	}
	last := weeks[1]
	if last.DayCount != 1 {
		t.Errorf("final week has %d days, want 1", last.DayCount)
	}
	if last.ThemeDistribution[3] != 1 {
		t.Errorf("final week distribution = %v, want {3: 1}", last.ThemeDistribution)
	}
	if !last.StartDate.Equal(last.EndDate) {
		t.Error("single-day week should start and end on the same date")
	}
}

func TestAggregateDominantTheme(t *testing.T) {
	days := makeDays(t, make([]float64, 7))
	assignments := []int{2, 2, 2, 2, 1, 1, 0}
	weeks, err := Aggregate(days, assignments, 7, 0.05)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if weeks[0].DominantTheme != 2 {
		t.Errorf("dominant theme = %d, want 2", weeks[0].DominantTheme)
	}
}

func TestAggregateRejectsBadInput(t *testing.T) {
	days := makeDays(t, make([]float64, 3))
	if _, err := Aggregate(days, constIntSlice(3, 0), 0, 0.05); err == nil {
		t.Error("window 0 accepted")
	}
	if _, err := Aggregate(days, constIntSlice(2, 0), 7, 0.05); err == nil {
		t.Error("mismatched assignments accepted")
	}
	if _, err := Aggregate(nil, nil, 7, 0.05); err == nil {
		t.Error("empty input accepted")
	}
}
