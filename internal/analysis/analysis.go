// Package analysis holds the shared day-record type and vector helpers used by
// the analytic stages (clustering, temporal aggregation, anomaly detection,
// and cycle detection). Stages consume Days and return fresh result structures;
// nothing in this package is mutated after construction.
package analysis

import (
	"errors"
	"math"
	"time"
)

// ErrInsufficientData is returned when a stage has fewer records than the
// minimum it needs. It is fatal: the pipeline aborts rather than retrying,
// since a deterministic algorithm on fixed input will not succeed on retry.
var ErrInsufficientData = errors.New("insufficient data")

// Day is one daily record: a stable ID, the calendar date, the combined
// multi-modal text, a mood scalar in [-1, 1], and the embedding vector.
// The embedding dimension is fixed for a run.
type Day struct {
	ID        string
	Date      time.Time
	Text      string
	Mood      float64
	Embedding []float32
}

// Euclidean returns the Euclidean distance between two vectors.
// Vectors of different lengths have distance +Inf, which keeps a
// dimension mismatch from silently looking like a close match.
func Euclidean(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Mean returns the component-wise mean of the given vectors.
// Returns nil for empty input.
func Mean(vecs [][]float32) []float32 {
	if len(vecs) == 0 {
		return nil
	}
	out := make([]float64, len(vecs[0]))
	for _, v := range vecs {
		for i := range v {
			out[i] += float64(v[i])
		}
	}
	m := make([]float32, len(out))
	n := float64(len(vecs))
	for i, s := range out {
		m[i] = float32(s / n)
	}
	return m
}

// Variance returns the population variance of a scalar series.
// Returns 0 for fewer than one element.
func Variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var sum float64
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return sum / float64(len(xs))
}
