// Package temporal buckets chronologically ordered days into fixed windows
// and summarizes each window's theme mix, mood level, and week-over-week
// trend. The mood scalar is supplied per day; this package only aggregates.
package temporal

import (
	"fmt"
	"time"

	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/analysis"
)

// Trend classifies a week's mood relative to the previous week.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// Week summarizes one window of days.
type Week struct {
	Index             int         `json:"week_index"` // 1-based
	StartDate         time.Time   `json:"start_date"`
	EndDate           time.Time   `json:"end_date"`
	ThemeDistribution map[int]int `json:"theme_distribution"` // cluster id -> day count
	DominantTheme     int         `json:"dominant_theme"`     // cluster id with most days
	MoodScore         float64     `json:"mood_score"`
	Trend             Trend       `json:"trend"`
	DayCount          int         `json:"day_count"`
}

// Aggregate partitions days (already in chronological order) into windows of
// window days and summarizes each. The final window may hold fewer days; it
// is neither padded nor dropped, and a single-day window is still valid.
// assignments maps each day to its theme index, parallel to days.
//
// The first week has no comparator and is always stable; later weeks compare
// mood against the previous week with an epsilon band.
func Aggregate(days []analysis.Day, assignments []int, window int, epsilon float64) ([]Week, error) {
	if window < 1 {
		return nil, fmt.Errorf("week window %d must be at least 1", window)
	}
	if len(days) != len(assignments) {
		return nil, fmt.Errorf("got %d assignments for %d days", len(assignments), len(days))
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("aggregating 0 days: %w", analysis.ErrInsufficientData)
	}

	var weeks []Week
	for start := 0; start < len(days); start += window {
		end := start + window
		if end > len(days) {
			end = len(days)
		}
		weeks = append(weeks, summarize(days[start:end], assignments[start:end], len(weeks)+1))
	}

	for i := 1; i < len(weeks); i++ {
		delta := weeks[i].MoodScore - weeks[i-1].MoodScore
		switch {
		case delta > epsilon:
			weeks[i].Trend = TrendImproving
		case delta < -epsilon:
			weeks[i].Trend = TrendDeclining
		}
	}

	return weeks, nil
}

func summarize(days []analysis.Day, assignments []int, index int) Week {
	dist := make(map[int]int, len(days))
	var moodSum float64
	for i, d := range days {
		dist[assignments[i]]++
		moodSum += d.Mood
	}

	// Dominant theme: most days, lowest cluster id breaking ties.
	dominant := -1
	best := 0
	for _, a := range assignments {
		if n := dist[a]; n > best || (n == best && (dominant == -1 || a < dominant)) {
			dominant = a
			best = n
		}
	}

	return Week{
		Index:             index,
		StartDate:         days[0].Date,
		EndDate:           days[len(days)-1].Date,
		ThemeDistribution: dist,
		DominantTheme:     dominant,
		MoodScore:         moodSum / float64(len(days)),
		Trend:             TrendStable,
		DayCount:          len(days),
	}
}
