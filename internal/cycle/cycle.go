// Package cycle tests the day sequence for recurring structure at fixed
// periods (day-of-week rhythms in particular) using a within-group versus
// overall variance test over the mood signal.
package cycle

import (
	"fmt"
	"sort"
	"time"

	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/analysis"
)

// Pattern describes one detected cycle. SupportingStat is the raw variance
// ratio the decision was made on, kept for auditability.
type Pattern struct {
	Description    string  `json:"description"`
	PeriodDays     int     `json:"period_days"`
	Strength       float64 `json:"strength"`
	SupportingStat float64 `json:"supporting_stat"`
	PeakOffset     int     `json:"peak_offset"`   // phase with the highest mean mood
	TroughOffset   int     `json:"trough_offset"` // phase with the lowest mean mood
}

// Detect evaluates each candidate period against the mood signal and returns
// the strongest qualifying pattern, or nil when fewer than two full periods
// of data exist or no candidate clears the threshold. A period qualifies when
// the mean within-phase variance is below threshold times the overall
// variance; strength is 1 minus that ratio.
func Detect(days []analysis.Day, candidates []int, threshold float64) *Pattern {
	if len(days) == 0 || len(candidates) == 0 {
		return nil
	}

	moods := make([]float64, len(days))
	for i, d := range days {
		moods[i] = d.Mood
	}
	overall := analysis.Variance(moods)
	if overall == 0 {
		return nil
	}

	sorted := make([]int, len(candidates))
	copy(sorted, candidates)
	sort.Ints(sorted)

	var best *Pattern
	for _, period := range sorted {
		if period < 2 || len(days) < 2*period {
			continue
		}

		groups := make([][]float64, period)
		for i, m := range moods {
			groups[i%period] = append(groups[i%period], m)
		}

		var withinSum float64
		peak, trough := 0, 0
		peakMean, troughMean := groupMean(groups[0]), groupMean(groups[0])
		for offset, g := range groups {
			withinSum += analysis.Variance(g)
			if m := groupMean(g); m > peakMean {
				peak, peakMean = offset, m
			} else if m < troughMean {
				trough, troughMean = offset, m
			}
		}

		ratio := (withinSum / float64(period)) / overall
		if ratio >= threshold {
			continue
		}

		p := &Pattern{
			PeriodDays:     period,
			Strength:       1 - ratio,
			SupportingStat: ratio,
			PeakOffset:     peak,
			TroughOffset:   trough,
		}
		p.Description = describe(days[0].Date, p)
		if best == nil || p.Strength > best.Strength {
			best = p
		}
	}
	return best
}

func groupMean(g []float64) float64 {
	if len(g) == 0 {
		return 0
	}
	var sum float64
	for _, v := range g {
		sum += v
	}
	return sum / float64(len(g))
}

// describe renders the pattern as a sentence, naming weekdays for 7-day
// periods and plain phase offsets otherwise.
func describe(start time.Time, p *Pattern) string {
	if p.PeriodDays == 7 {
		trough := start.AddDate(0, 0, p.TroughOffset).Weekday()
		peak := start.AddDate(0, 0, p.PeakOffset).Weekday()
		return fmt.Sprintf("Mood follows a weekly cycle, dipping around %s and peaking around %s.", trough, peak)
	}
	return fmt.Sprintf("Mood follows a %d-day cycle (lowest at phase %d, highest at phase %d).",
		p.PeriodDays, p.TroughOffset, p.PeakOffset)
}

// WeekdayStat is the average mood for one weekday over the whole period.
type WeekdayStat struct {
	Weekday     time.Weekday `json:"weekday"`
	AverageMood float64      `json:"average_mood"`
	Tone        string       `json:"tone"` // "positive", "negative", or "neutral"
	Days        int          `json:"days"`
}

// WeekdayProfile returns the average mood per weekday, Monday first, for
// weekdays that appear in the data at least once.
func WeekdayProfile(days []analysis.Day) []WeekdayStat {
	sums := make(map[time.Weekday]float64)
	counts := make(map[time.Weekday]int)
	for _, d := range days {
		wd := d.Date.Weekday()
		sums[wd] += d.Mood
		counts[wd]++
	}

	order := []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
		time.Friday, time.Saturday, time.Sunday,
	}
	var stats []WeekdayStat
	for _, wd := range order {
		n := counts[wd]
		if n == 0 {
			continue
		}
		avg := sums[wd] / float64(n)
		tone := "neutral"
		if avg > 0 {
			tone = "positive"
		} else if avg < 0 {
			tone = "negative"
		}
		stats = append(stats, WeekdayStat{Weekday: wd, AverageMood: avg, Tone: tone, Days: n})
	}
	return stats
}
