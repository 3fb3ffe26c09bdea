// Package cluster groups day embeddings into latent behavioral themes using
// K-Means with restarts, and annotates each theme with a confidence score,
// keywords, and exemplar entries.
package cluster

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/analysis"
)

// Theme is one discovered cluster of days. Immutable after creation;
// membership across all themes partitions the input exactly.
type Theme struct {
	ClusterID   int       `json:"cluster_id"`
	Label       string    `json:"label"`
	Centroid    []float32 `json:"-"`
	MemberIDs   []string  `json:"member_ids"`
	Confidence  float64   `json:"confidence"`
	Keywords    []string  `json:"keywords"`
	ExemplarIDs []string  `json:"exemplar_ids"`
}

// Params controls a clustering run. Zero-valued tuning fields fall back to
// defaults; K and Seed are always explicit.
type Params struct {
	K               int
	Seed            int64
	Restarts        int     // independent K-Means restarts, default 10
	MaxIterations   int     // Lloyd iterations per restart, default 100
	ConfidenceDecay float64 // distance-to-confidence decay factor, default 5
	ExemplarCount   int     // exemplars per theme, default 3
	KeywordCount    int     // keywords per theme, default 10
}

func (p Params) withDefaults() Params {
	if p.Restarts <= 0 {
		p.Restarts = 10
	}
	if p.MaxIterations <= 0 {
		p.MaxIterations = 100
	}
	if p.ConfidenceDecay <= 0 {
		p.ConfidenceDecay = 5
	}
	if p.ExemplarCount <= 0 {
		p.ExemplarCount = 3
	}
	if p.KeywordCount <= 0 {
		p.KeywordCount = 10
	}
	return p
}

// Result is the outcome of one clustering pass.
type Result struct {
	Themes      []Theme
	Assignments []int // per-day theme index, parallel to the input
	K           int   // effective cluster count
	Reduced     bool  // K was lowered to the number of distinct points
}

// Run clusters the given days into p.K themes. The best of p.Restarts
// independent K-Means runs (minimum inertia) wins, which guards against poor
// local optima on small inputs. All randomness derives from p.Seed, so
// repeated runs over the same input produce identical assignments.
//
// If p.K exceeds the number of distinct embeddings, K is reduced to that
// count and Result.Reduced is set; the caller decides how to surface the
// warning. Fewer than 2 days is a fatal analysis.ErrInsufficientData.
func Run(days []analysis.Day, p Params) (*Result, error) {
	if len(days) < 2 {
		return nil, fmt.Errorf("clustering %d records: %w", len(days), analysis.ErrInsufficientData)
	}
	p = p.withDefaults()
	if p.K < 1 {
		return nil, fmt.Errorf("cluster count %d must be at least 1", p.K)
	}

	vecs := make([][]float32, len(days))
	for i, d := range days {
		vecs[i] = d.Embedding
	}

	k := p.K
	reduced := false
	if distinct := distinctCount(vecs); k > distinct {
		k = distinct
		reduced = true
	}
	if k > len(vecs) {
		k = len(vecs)
		reduced = true
	}

	var best lloydResult
	for r := 0; r < p.Restarts; r++ {
		rng := rand.New(rand.NewSource(p.Seed + int64(r)))
		res := lloyd(vecs, k, rng, p.MaxIterations)
		if r == 0 || res.inertia < best.inertia {
			best = res
		}
	}

	confidences := entryConfidences(vecs, best, p.ConfidenceDecay)
	themes := buildThemes(days, best, confidences, p)

	return &Result{
		Themes:      themes,
		Assignments: best.assignments,
		K:           k,
		Reduced:     reduced,
	}, nil
}

// entryConfidences maps each day's distance to its own centroid onto [0, 1]
// via exponential decay, normalized by the dataset-wide mean distance so the
// score reflects relative tightness rather than absolute scale.
func entryConfidences(vecs [][]float32, res lloydResult, decay float64) []float64 {
	dists := make([]float64, len(vecs))
	var mean float64
	for i, v := range vecs {
		dists[i] = analysis.Euclidean(v, res.centroids[res.assignments[i]])
		mean += dists[i]
	}
	mean /= float64(len(vecs))

	confs := make([]float64, len(vecs))
	for i, d := range dists {
		if mean == 0 {
			confs[i] = 1
			continue
		}
		c := math.Exp(-d / (decay * mean))
		confs[i] = math.Min(1, math.Max(0, c))
	}
	return confs
}

func buildThemes(days []analysis.Day, res lloydResult, confidences []float64, p Params) []Theme {
	k := len(res.centroids)
	themes := make([]Theme, k)

	for c := 0; c < k; c++ {
		var memberIdx []int
		for i, a := range res.assignments {
			if a == c {
				memberIdx = append(memberIdx, i)
			}
		}

		memberIDs := make([]string, len(memberIdx))
		var confSum float64
		for j, i := range memberIdx {
			memberIDs[j] = days[i].ID
			confSum += confidences[i]
		}
		var conf float64
		if len(memberIdx) > 0 {
			conf = confSum / float64(len(memberIdx))
		}

		exemplars := exemplarIDs(days, memberIdx, confidences, p.ExemplarCount)

		var exemplarTexts []string
		exemplarSet := make(map[string]bool, len(exemplars))
		for _, id := range exemplars {
			exemplarSet[id] = true
		}
		for _, i := range memberIdx {
			if exemplarSet[days[i].ID] {
				exemplarTexts = append(exemplarTexts, days[i].Text)
			}
		}
		keywords := extractKeywords(exemplarTexts, p.KeywordCount)

		themes[c] = Theme{
			ClusterID:   c,
			Label:       themeLabel(keywords),
			Centroid:    res.centroids[c],
			MemberIDs:   memberIDs,
			Confidence:  conf,
			Keywords:    keywords,
			ExemplarIDs: exemplars,
		}
	}
	return themes
}

// exemplarIDs returns the IDs of the count most confident members,
// earlier input order breaking ties.
func exemplarIDs(days []analysis.Day, memberIdx []int, confidences []float64, count int) []string {
	sorted := make([]int, len(memberIdx))
	copy(sorted, memberIdx)
	sort.SliceStable(sorted, func(a, b int) bool {
		return confidences[sorted[a]] > confidences[sorted[b]]
	})
	if count > len(sorted) {
		count = len(sorted)
	}
	ids := make([]string, count)
	for i := 0; i < count; i++ {
		ids[i] = days[sorted[i]].ID
	}
	return ids
}
