package cluster

import (
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/analysis"
)

// syntheticDays builds days around k well-separated centroids, perDay entries
// each, with small deterministic jitter.
func syntheticDays(t *testing.T, k, perCluster, dim int, seed int64) []analysis.Day {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))

	centers := make([][]float32, k)
	for c := range centers {
		centers[c] = make([]float32, dim)
		// Orthogonal-ish centers far apart relative to the jitter below.
		centers[c][c%dim] = 10 * float32(c+1)
	}

	var days []analysis.Day
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	texts := []string{
		"Diary: deadline pressure at work, long project meeting with the team",
		"Diary: dinner with friends and family, great conversation together",
		"Diary: quiet weekend, time to relax and rest, finally recharged",
		"Diary: morning exercise and a long running session, lots of energy",
		"Diary: learning new skills, reflection on goals with my mentor",
	}
	for c := 0; c < k; c++ {
		for i := 0; i < perCluster; i++ {
			v := make([]float32, dim)
			for d := range v {
				v[d] = centers[c][d] + float32(rng.NormFloat64())*0.05
			}
			idx := len(days)
			days = append(days, analysis.Day{
				ID:        fmt.Sprintf("day_%03d", idx+1),
				Date:      start.AddDate(0, 0, idx),
				Text:      texts[c%len(texts)],
				Embedding: v,
			})
		}
	}
	return days
}

func TestRunRecoversInjectedThemes(t *testing.T) {
	days := syntheticDays(t, 5, 6, 16, 7)

	res, err := Run(days, Params{K: 5, Seed: 42})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.K != 5 || len(res.Themes) != 5 {
		t.Fatalf("got %d themes (K=%d), want 5", len(res.Themes), res.K)
	}
	if res.Reduced {
		t.Error("Reduced = true for well-separated data")
	}
	for _, th := range res.Themes {
		if len(th.MemberIDs) == 0 {
			t.Errorf("theme %d has no members", th.ClusterID)
		}
		if th.Confidence < 0.7 {
			t.Errorf("theme %d confidence = %.3f, want >= 0.7", th.ClusterID, th.Confidence)
		}
	}
}

func TestRunPartitionsInput(t *testing.T) {
	days := syntheticDays(t, 3, 7, 8, 11)

	res, err := Run(days, Params{K: 3, Seed: 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	seen := make(map[string]int)
	for _, th := range res.Themes {
		for _, id := range th.MemberIDs {
			seen[id]++
		}
	}
	if len(seen) != len(days) {
		t.Errorf("union of members covers %d of %d days", len(seen), len(days))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("day %s appears in %d themes, want exactly 1", id, n)
		}
	}
}

func TestRunConfidenceBounds(t *testing.T) {
	days := syntheticDays(t, 4, 5, 8, 3)
	res, err := Run(days, Params{K: 4, Seed: 9})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, th := range res.Themes {
		if th.Confidence < 0 || th.Confidence > 1 {
			t.Errorf("theme %d confidence = %v, out of [0,1]", th.ClusterID, th.Confidence)
		}
	}
}

func TestRunDeterminism(t *testing.T) {
	days := syntheticDays(t, 4, 6, 12, 21)

	a, err := Run(days, Params{K: 4, Seed: 42})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	b, err := Run(days, Params{K: 4, Seed: 42})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if !reflect.DeepEqual(a.Assignments, b.Assignments) {
		t.Error("assignments differ between runs with the same seed")
	}
	if !reflect.DeepEqual(a.Themes, b.Themes) {
		t.Error("themes differ between runs with the same seed")
	}
}

func TestRunReducesDegenerateK(t *testing.T) {
	// Only 2 distinct points, but k=4 requested.
	v1 := []float32{1, 0, 0}
	v2 := []float32{0, 1, 0}
	days := []analysis.Day{
		{ID: "a", Embedding: v1},
		{ID: "b", Embedding: v1},
		{ID: "c", Embedding: v2},
		{ID: "d", Embedding: v2},
	}

	res, err := Run(days, Params{K: 4, Seed: 5})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Reduced {
		t.Error("Reduced = false, want true when k exceeds distinct points")
	}
	if res.K != 2 {
		t.Errorf("effective K = %d, want 2", res.K)
	}
}

func TestRunInsufficientData(t *testing.T) {
	days := []analysis.Day{{ID: "only", Embedding: []float32{1, 2}}}
	_, err := Run(days, Params{K: 1, Seed: 1})
	if !errors.Is(err, analysis.ErrInsufficientData) {
		t.Errorf("err = %v, want ErrInsufficientData", err)
	}
}

func TestExtractKeywords(t *testing.T) {
	texts := []string{
		"Diary: project deadline stress, project review at the office",
		"Diary: another project meeting about the deadline",
	}
	kws := extractKeywords(texts, 5)
	if len(kws) == 0 {
		t.Fatal("no keywords extracted")
	}
	if kws[0] != "project" {
		t.Errorf("top keyword = %q, want %q", kws[0], "project")
	}
	for _, kw := range kws {
		if stopWords[kw] {
			t.Errorf("stop word %q leaked into keywords", kw)
		}
		if kw == "diary" {
			t.Error("modality prefix leaked into keywords")
		}
	}
}

func TestThemeLabel(t *testing.T) {
	tests := []struct {
		name     string
		keywords []string
		want     string
	}{
		{"work cluster", []string{"project", "deadline", "meeting", "lunch"}, "Work Performance"},
		{"rest cluster", []string{"weekend", "relax", "sleep"}, "Rest & Recovery"},
		{"no rule match", []string{"garden", "tomato"}, "Garden Tomato"},
		{"empty", nil, "General"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := themeLabel(tt.keywords); got != tt.want {
				t.Errorf("themeLabel(%v) = %q, want %q", tt.keywords, got, tt.want)
			}
		})
	}
}
