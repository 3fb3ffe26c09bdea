// Package anomaly scores days for outlier-ness in embedding space with an
// isolation-tree ensemble and returns a ranked, bounded list of the most
// unusual days, each tagged with a behavioral category.
package anomaly

import (
	"fmt"
	"sort"
	"time"

	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/analysis"
	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/cluster"
)

// varianceFloor is the mean per-dimension variance below which the input is
// treated as near-identical and no anomalies are reported.
const varianceFloor = 1e-10

// Anomaly is one flagged day. Ranks are contiguous from 1 with
// non-increasing scores.
type Anomaly struct {
	DayID       string    `json:"day_id"`
	Date        time.Time `json:"date"`
	Score       float64   `json:"score"`
	Rank        int       `json:"rank"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
}

// Params controls detection. Contamination sizes the operative anomaly set;
// TopN caps the returned list.
type Params struct {
	Contamination float64
	TopN          int
	Seed          int64
	Trees         int // ensemble size, default 100
}

// Detect scores every day and returns at most min(TopN, ceil(Contamination*N))
// anomalies, ranked by descending score with earlier dates breaking ties.
// Near-zero-variance input legitimately yields an empty list. All randomness
// derives from Params.Seed.
func Detect(days []analysis.Day, themes []cluster.Theme, p Params) ([]Anomaly, error) {
	if p.Contamination <= 0 || p.Contamination >= 0.5 {
		return nil, fmt.Errorf("contamination %v out of range (0, 0.5)", p.Contamination)
	}
	if p.TopN < 0 {
		return nil, fmt.Errorf("top_n %d must be non-negative", p.TopN)
	}
	if p.Trees <= 0 {
		p.Trees = 100
	}
	if len(days) < 2 || p.TopN == 0 {
		return nil, nil
	}

	vecs := make([][]float32, len(days))
	for i, d := range days {
		vecs[i] = d.Embedding
	}
	if meanVariance(vecs) < varianceFloor {
		return nil, nil
	}

	scores := scoreVectors(vecs, p.Trees, p.Seed)

	order := make([]int, len(days))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		if scores[order[a]] != scores[order[b]] {
			return scores[order[a]] > scores[order[b]]
		}
		return days[order[a]].Date.Before(days[order[b]].Date)
	})

	limit := ceilFrac(p.Contamination, len(days))
	if limit > p.TopN {
		limit = p.TopN
	}
	if limit > len(order) {
		limit = len(order)
	}

	out := make([]Anomaly, 0, limit)
	for rank := 1; rank <= limit; rank++ {
		i := order[rank-1]
		category, description := categorize(days[i], themes)
		out = append(out, Anomaly{
			DayID:       days[i].ID,
			Date:        days[i].Date,
			Score:       scores[i],
			Rank:        rank,
			Category:    category,
			Description: description,
		})
	}
	return out, nil
}

// ceilFrac returns ceil(frac * n).
func ceilFrac(frac float64, n int) int {
	v := frac * float64(n)
	i := int(v)
	if float64(i) < v {
		i++
	}
	return i
}

// meanVariance is the mean per-dimension population variance of the vectors.
func meanVariance(vecs [][]float32) float64 {
	dims := len(vecs[0])
	var total float64
	col := make([]float64, len(vecs))
	for d := 0; d < dims; d++ {
		for i, v := range vecs {
			col[i] = float64(v[d])
		}
		total += analysis.Variance(col)
	}
	return total / float64(dims)
}
