// Package pipeline orchestrates the full analysis run: theme clustering,
// weekly aggregation, anomaly detection, cycle detection, and insight
// synthesis, in that order, producing a single Report artifact.
package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/analysis"
	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/anomaly"
	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/cluster"
	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/cycle"
	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/insight"
	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/temporal"
)

// Config holds every tunable of an analysis run. The zero value is not
// usable; start from DefaultConfig.
type Config struct {
	Themes         int     `json:"themes"`
	Contamination  float64 `json:"contamination"`
	AnomalyTopN    int     `json:"anomaly_top_n"`
	WeekWindow     int     `json:"week_window"`
	Seed           int64   `json:"seed"`
	TrendEpsilon   float64 `json:"trend_epsilon"`
	CycleThreshold float64 `json:"cycle_threshold"`
	Restarts       int     `json:"restarts"`
	Trees          int     `json:"trees"`
}

// DefaultConfig returns the standard run parameters.
func DefaultConfig() Config {
	return Config{
		Themes:         5,
		Contamination:  0.1,
		AnomalyTopN:    3,
		WeekWindow:     7,
		Seed:           42,
		TrendEpsilon:   0.05,
		CycleThreshold: 0.6,
		Restarts:       10,
		Trees:          100,
	}
}

// Validate reports the first bad field by name.
func (c Config) Validate() error {
	switch {
	case c.Themes < 3 || c.Themes > 6:
		return fmt.Errorf("themes must be between 3 and 6, got %d", c.Themes)
	case c.Contamination <= 0 || c.Contamination >= 0.5:
		return fmt.Errorf("contamination must be in (0, 0.5), got %v", c.Contamination)
	case c.AnomalyTopN < 0:
		return fmt.Errorf("anomaly_top_n must be >= 0, got %d", c.AnomalyTopN)
	case c.WeekWindow < 2:
		return fmt.Errorf("week_window must be >= 2, got %d", c.WeekWindow)
	case c.TrendEpsilon < 0:
		return fmt.Errorf("trend_epsilon must be >= 0, got %v", c.TrendEpsilon)
	case c.CycleThreshold <= 0 || c.CycleThreshold > 1:
		return fmt.Errorf("cycle_threshold must be in (0, 1], got %v", c.CycleThreshold)
	case c.Restarts < 1:
		return fmt.Errorf("restarts must be >= 1, got %d", c.Restarts)
	case c.Trees < 1:
		return fmt.Errorf("trees must be >= 1, got %d", c.Trees)
	}
	return nil
}

// Report is the complete output of one analysis run. It is what gets
// persisted, served, and rendered.
type Report struct {
	GeneratedAt    time.Time           `json:"generated_at"`
	DayCount       int                 `json:"day_count"`
	Params         Config              `json:"params"`
	Themes         []cluster.Theme     `json:"themes"`
	Weeks          []temporal.Week     `json:"weeks"`
	Anomalies      []anomaly.Anomaly   `json:"anomalies"`
	Cycle          *cycle.Pattern      `json:"cycle,omitempty"`
	WeekdayProfile []cycle.WeekdayStat `json:"weekday_profile"`
	Insights       insight.Set         `json:"insights"`
	Warnings       []string            `json:"warnings,omitempty"`
}

// Runner executes analysis runs with a fixed configuration.
type Runner struct {
	cfg Config
	log *slog.Logger
}

// NewRunner validates cfg and returns a Runner. A nil logger falls back to
// slog.Default.
func NewRunner(cfg Config, logger *slog.Logger) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{cfg: cfg, log: logger}, nil
}

// Run executes the full pipeline over days, which must be sorted by date.
// A stage failure aborts the remaining stages and returns a named error;
// the stages that already completed stay on the returned Report so callers
// can inspect how far the run got.
func (r *Runner) Run(days []analysis.Day) (*Report, error) {
	start := time.Now()
	report := &Report{
		GeneratedAt: start.UTC(),
		DayCount:    len(days),
		Params:      r.cfg,
	}

	if err := uniformDimension(days); err != nil {
		return report, err
	}

	// 1. Theme clustering. Nothing downstream works without it.
	clusters, err := cluster.Run(days, cluster.Params{
		K:        r.cfg.Themes,
		Seed:     r.cfg.Seed,
		Restarts: r.cfg.Restarts,
	})
	if err != nil {
		return report, fmt.Errorf("clustering: %w", err)
	}
	report.Themes = clusters.Themes
	if clusters.Reduced {
		warning := fmt.Sprintf("requested %d themes but the data only supports %d distinct ones", r.cfg.Themes, clusters.K)
		report.Warnings = append(report.Warnings, warning)
		r.log.Warn("theme count reduced", "requested", r.cfg.Themes, "effective", clusters.K)
	}

	// 2. Weekly aggregation.
	weeks, err := temporal.Aggregate(days, clusters.Assignments, r.cfg.WeekWindow, r.cfg.TrendEpsilon)
	if err != nil {
		return report, fmt.Errorf("weekly aggregation: %w", err)
	}
	report.Weeks = weeks

	// 3. Anomaly detection.
	anomalies, err := anomaly.Detect(days, clusters.Themes, anomaly.Params{
		Contamination: r.cfg.Contamination,
		TopN:          r.cfg.AnomalyTopN,
		Seed:          r.cfg.Seed,
		Trees:         r.cfg.Trees,
	})
	if err != nil {
		return report, fmt.Errorf("anomaly detection: %w", err)
	}
	report.Anomalies = anomalies

	// 4. Cycle detection. nil simply means no qualifying pattern.
	report.Cycle = cycle.Detect(days, []int{r.cfg.WeekWindow}, r.cfg.CycleThreshold)
	report.WeekdayProfile = cycle.WeekdayProfile(days)

	// 5. Insight synthesis over whatever the earlier stages produced.
	report.Insights = insight.Synthesize(insight.Input{
		Days:      days,
		Themes:    report.Themes,
		Weeks:     report.Weeks,
		Anomalies: report.Anomalies,
		Cycle:     report.Cycle,
	})

	r.log.Info("analysis run complete",
		"days", len(days),
		"themes", len(report.Themes),
		"weeks", len(report.Weeks),
		"anomalies", len(report.Anomalies),
		"duration_ms", time.Since(start).Milliseconds())
	return report, nil
}

// uniformDimension rejects mixed embedding sizes up front. Stored vectors
// can disagree when the embedding model changes between imports, and the
// distance math downstream assumes one dimension throughout.
func uniformDimension(days []analysis.Day) error {
	if len(days) == 0 {
		return nil
	}
	dim := len(days[0].Embedding)
	for _, d := range days[1:] {
		if len(d.Embedding) != dim {
			return fmt.Errorf("embedding dimension mismatch: entry %s has %d, expected %d; re-embed entries after changing the embedding model", d.ID, len(d.Embedding), dim)
		}
	}
	return nil
}
