package pipeline

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/analysis"
	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/storage"
)

// clusteredDays builds 30 days spread evenly over k well-separated embedding
// regions with a weekly mood oscillation.
func clusteredDays(t *testing.T, n, k int) []analysis.Day {
	t.Helper()
	rng := rand.New(rand.NewSource(99))
	centers := make([][]float32, k)
	for c := range centers {
		center := make([]float32, 8)
		center[c%8] = float32(10 * (c + 1))
		centers[c] = center
	}

	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	days := make([]analysis.Day, n)
	for i := range days {
		center := centers[i%k]
		vec := make([]float32, len(center))
		for j := range vec {
			vec[j] = center[j] + float32(rng.NormFloat64())*0.05
		}
		days[i] = analysis.Day{
			ID:        fmt.Sprintf("day_%03d", i),
			Date:      start.AddDate(0, 0, i),
			Text:      "worked on the project and felt good about progress",
			Mood:      0.5 * float64(i%7) / 6,
			Embedding: vec,
		}
	}
	return days
}

func testRunner(t *testing.T, cfg Config) *Runner {
	t.Helper()
	r, err := NewRunner(cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	return r
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"themes too low", func(c *Config) { c.Themes = 2 }, "themes"},
		{"themes too high", func(c *Config) { c.Themes = 7 }, "themes"},
		{"contamination zero", func(c *Config) { c.Contamination = 0 }, "contamination"},
		{"contamination too high", func(c *Config) { c.Contamination = 0.5 }, "contamination"},
		{"negative top n", func(c *Config) { c.AnomalyTopN = -1 }, "anomaly_top_n"},
		{"zero window", func(c *Config) { c.WeekWindow = 0 }, "week_window"},
		{"one-day window", func(c *Config) { c.WeekWindow = 1 }, "week_window"},
		{"negative epsilon", func(c *Config) { c.TrendEpsilon = -0.1 }, "trend_epsilon"},
		{"cycle threshold", func(c *Config) { c.CycleThreshold = 0 }, "cycle_threshold"},
		{"zero restarts", func(c *Config) { c.Restarts = 0 }, "restarts"},
		{"zero trees", func(c *Config) { c.Trees = 0 }, "trees"},
	}

	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v, want nil", err)
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() accepted a bad config")
			}
			if !strings.Contains(err.Error(), tc.field) {
				t.Errorf("error %q does not name field %q", err, tc.field)
			}
		})
	}
}

func TestRunProducesFullReport(t *testing.T) {
	days := clusteredDays(t, 30, 5)
	report, err := testRunner(t, DefaultConfig()).Run(days)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.DayCount != 30 {
		t.Errorf("DayCount = %d, want 30", report.DayCount)
	}
	if len(report.Themes) != 5 {
		t.Errorf("len(Themes) = %d, want 5", len(report.Themes))
	}
	if len(report.Weeks) != 5 {
		t.Errorf("len(Weeks) = %d, want 5", len(report.Weeks))
	}
	if len(report.Insights.Micro) != len(report.Weeks) {
		t.Errorf("len(Micro) = %d, want %d", len(report.Insights.Micro), len(report.Weeks))
	}
	if report.Insights.Macro == "" {
		t.Error("Macro insight is empty")
	}
	if !strings.HasPrefix(report.Insights.Predictive, "Forecast") {
		t.Errorf("Predictive = %q, want a Forecast prefix", report.Insights.Predictive)
	}
	if len(report.Insights.SafetyNotes) == 0 {
		t.Error("SafetyNotes is empty, want at least the disclaimer")
	}
	if len(report.WeekdayProfile) == 0 {
		t.Error("WeekdayProfile is empty")
	}
	if len(report.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", report.Warnings)
	}
}

func TestRunDeterministic(t *testing.T) {
	days := clusteredDays(t, 30, 5)
	runner := testRunner(t, DefaultConfig())

	r1, err := runner.Run(days)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	r2, err := runner.Run(days)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}

	// GeneratedAt differs by construction; compare everything else via JSON.
	r1.GeneratedAt = time.Time{}
	r2.GeneratedAt = time.Time{}
	j1, _ := json.Marshal(r1)
	j2, _ := json.Marshal(r2)
	if string(j1) != string(j2) {
		t.Errorf("reports differ between identical runs:\n%s\n%s", j1, j2)
	}
}

func TestRunWarnsOnReducedThemes(t *testing.T) {
	// Two distinct embeddings cannot support five themes.
	days := clusteredDays(t, 10, 5)
	for i := range days {
		if i%2 == 0 {
			days[i].Embedding = []float32{1, 0, 0, 0, 0, 0, 0, 0}
		} else {
			days[i].Embedding = []float32{0, 0, 0, 0, 10, 0, 0, 0}
		}
	}

	report, err := testRunner(t, DefaultConfig()).Run(days)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Themes) != 2 {
		t.Errorf("len(Themes) = %d, want 2", len(report.Themes))
	}
	if len(report.Warnings) == 0 {
		t.Error("expected a reduced-theme warning")
	}
}

func TestRunInsufficientData(t *testing.T) {
	days := clusteredDays(t, 1, 1)
	if _, err := testRunner(t, DefaultConfig()).Run(days); err == nil {
		t.Fatal("Run accepted a single day")
	}
}

func TestRunRejectsMixedDimensions(t *testing.T) {
	// Vectors of two different sizes can coexist in storage after the
	// embedding model changes between imports.
	days := clusteredDays(t, 30, 5)
	days[1].Embedding = []float32{1, 2, 3}

	_, err := testRunner(t, DefaultConfig()).Run(days)
	if err == nil {
		t.Fatal("Run accepted mixed embedding dimensions")
	}
	if !strings.Contains(err.Error(), "dimension") {
		t.Errorf("error %q does not name the dimension mismatch", err)
	}
	if !strings.Contains(err.Error(), days[1].ID) {
		t.Errorf("error %q does not name the offending entry", err)
	}
}

func TestRunStageFailureAborts(t *testing.T) {
	days := clusteredDays(t, 30, 5)

	// Built directly to bypass NewRunner validation and force a failure in
	// the anomaly stage after clustering and aggregation succeed.
	cfg := DefaultConfig()
	cfg.Contamination = 0.9
	runner := &Runner{cfg: cfg, log: slog.New(slog.DiscardHandler)}

	report, err := runner.Run(days)
	if err == nil {
		t.Fatal("Run succeeded with a failing stage")
	}
	if !strings.Contains(err.Error(), "anomaly detection") {
		t.Errorf("error %q does not name the failed stage", err)
	}

	// Completed stages stay on the report for diagnostics; later stages
	// never ran.
	if report == nil {
		t.Fatal("report is nil, want completed stage results")
	}
	if len(report.Themes) == 0 {
		t.Error("Themes is empty, want the completed clustering result")
	}
	if len(report.Weeks) == 0 {
		t.Error("Weeks is empty, want the completed aggregation result")
	}
	if report.Insights.Macro != "" {
		t.Errorf("Macro = %q, want empty: synthesis must not run after a failure", report.Insights.Macro)
	}
}

func TestDaysFromEntries(t *testing.T) {
	entries := []storage.Entry{
		{
			ID:              "day_000",
			Date:            time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			Text:            "had a great productive day",
			VoiceTranscript: "felt energized after the workout",
			ImageCaption:    "sunset over the river",
			LocationCity:    "Porto",
			Embedding:       []float32{1, 2, 3},
		},
		{ID: "day_001", Date: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), Text: "no embedding yet"},
	}

	days := DaysFromEntries(entries)
	if len(days) != 1 {
		t.Fatalf("len(days) = %d, want 1 (unembedded entry skipped)", len(days))
	}

	d := days[0]
	for _, want := range []string{"Diary: had a great", "Voice: felt energized", "Scene: sunset over the river (Porto)"} {
		if !strings.Contains(d.Text, want) {
			t.Errorf("Text = %q, missing %q", d.Text, want)
		}
	}
	if d.Mood <= 0 {
		t.Errorf("Mood = %v, want > 0 for positive language", d.Mood)
	}
}

func TestComposeTextPartialModalities(t *testing.T) {
	e := storage.Entry{Text: "just the diary"}
	if got := ComposeText(e); got != "Diary: just the diary" {
		t.Errorf("ComposeText = %q", got)
	}

	e = storage.Entry{ImageCaption: "an empty street"}
	if got := ComposeText(e); got != "Scene: an empty street" {
		t.Errorf("ComposeText = %q", got)
	}
}
