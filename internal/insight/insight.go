// Package insight turns the analysis artifacts into short natural-language
// observations at three scopes: per-week summaries, a whole-period summary,
// and a clearly labeled forecast.
package insight

import (
	"fmt"
	"strings"

	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/analysis"
	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/anomaly"
	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/cluster"
	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/cycle"
	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/temporal"
)

// Input carries everything the synthesizer reads. All fields are optional
// except Days; missing artifacts simply narrow what gets said.
type Input struct {
	Days      []analysis.Day
	Themes    []cluster.Theme
	Weeks     []temporal.Week
	Anomalies []anomaly.Anomaly
	Cycle     *cycle.Pattern
}

// Set is the synthesizer output. Micro is index-aligned with Input.Weeks.
// SafetyNotes stand apart from Macro and Predictive and never alter them.
type Set struct {
	Micro       []string `json:"micro"`
	Macro       string   `json:"macro"`
	Predictive  string   `json:"predictive"`
	SafetyNotes []string `json:"safety_notes"`
}

// Synthesize builds the full insight set from whatever artifacts are present.
func Synthesize(in Input) Set {
	set := Set{SafetyNotes: safetyNotes(in.Days)}
	if len(in.Weeks) == 0 {
		return set
	}

	set.Micro = make([]string, len(in.Weeks))
	for i, w := range in.Weeks {
		set.Micro[i] = microInsight(w, in.Themes)
	}
	set.Macro = macroInsight(in)
	set.Predictive = predictiveInsight(in)
	return set
}

func microInsight(w temporal.Week, themes []cluster.Theme) string {
	label := themeLabelFor(w.DominantTheme, themes)
	switch w.Trend {
	case temporal.TrendImproving:
		return fmt.Sprintf("Week %d centered on %s with mood improving (avg %.2f).", w.Index, label, w.MoodScore)
	case temporal.TrendDeclining:
		return fmt.Sprintf("Week %d centered on %s while mood declined (avg %.2f).", w.Index, label, w.MoodScore)
	default:
		return fmt.Sprintf("Week %d centered on %s with steady mood (avg %.2f).", w.Index, label, w.MoodScore)
	}
}

func macroInsight(in Input) string {
	var b strings.Builder

	dominant := dominantTheme(in.Themes)
	first, last := in.Weeks[0], in.Weeks[len(in.Weeks)-1]
	direction := "held steady"
	if last.MoodScore > first.MoodScore {
		direction = "improved"
	} else if last.MoodScore < first.MoodScore {
		direction = "declined"
	}

	if dominant != "" {
		fmt.Fprintf(&b, "Across %d days, %s dominated the period; mood %s from the first week to the last.",
			len(in.Days), dominant, direction)
	} else {
		fmt.Fprintf(&b, "Across %d days, mood %s from the first week to the last.", len(in.Days), direction)
	}
	if in.Cycle != nil {
		b.WriteString(" ")
		b.WriteString(in.Cycle.Description)
	}
	switch n := len(in.Anomalies); {
	case n == 1:
		b.WriteString(" One day stood out as unusual.")
	case n > 1:
		fmt.Fprintf(&b, " %d days stood out as unusual.", n)
	}
	return b.String()
}

func predictiveInsight(in Input) string {
	last := in.Weeks[len(in.Weeks)-1]

	var b strings.Builder
	b.WriteString("Forecast (an extrapolation, not a guarantee): ")
	switch last.Trend {
	case temporal.TrendImproving:
		b.WriteString("the most recent week trended up, which suggests continued improvement if current patterns hold.")
	case temporal.TrendDeclining:
		b.WriteString("the most recent week trended down, which suggests mood may stay low unless something shifts.")
	default:
		b.WriteString("the most recent week was steady, which suggests more of the same in the near term.")
	}
	if in.Cycle != nil && in.Cycle.PeriodDays == 7 && len(in.Days) > 0 {
		start := in.Days[0].Date
		trough := start.AddDate(0, 0, in.Cycle.TroughOffset).Weekday()
		peak := start.AddDate(0, 0, in.Cycle.PeakOffset).Weekday()
		fmt.Fprintf(&b, " Expect a dip around %s and a lift around %s.", trough, peak)
	}
	return b.String()
}

// dominantTheme returns the label of the theme with the most members, the
// lowest cluster id winning ties, or "" when there are no themes.
func dominantTheme(themes []cluster.Theme) string {
	best := -1
	label := ""
	for _, th := range themes {
		if len(th.MemberIDs) > best {
			best = len(th.MemberIDs)
			label = th.Label
		}
	}
	return label
}

func themeLabelFor(clusterID int, themes []cluster.Theme) string {
	for _, th := range themes {
		if th.ClusterID == clusterID {
			return th.Label
		}
	}
	return "an unlabeled theme"
}
