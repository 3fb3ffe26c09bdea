package cluster

import (
	"encoding/binary"
	"math"
	"math/rand"

	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/analysis"
)

// lloydResult is one converged K-Means run.
type lloydResult struct {
	centroids   [][]float32
	assignments []int
	inertia     float64
}

// lloyd runs a single Lloyd-style K-Means pass: random distinct-point
// initialization, then alternate assignment and centroid relocation until
// assignments stop changing or maxIter is reached. An iteration that empties
// a cluster reseeds that centroid to the point farthest from its currently
// assigned centroid.
func lloyd(vecs [][]float32, k int, rng *rand.Rand, maxIter int) lloydResult {
	centroids := initialCentroids(vecs, k, rng)
	assignments := make([]int, len(vecs))
	for i := range assignments {
		assignments[i] = -1
	}

	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, v := range vecs {
			best := nearestCentroid(v, centroids)
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}

		counts := make([]int, k)
		sums := make([][]float64, k)
		for c := range sums {
			sums[c] = make([]float64, len(vecs[0]))
		}
		for i, v := range vecs {
			c := assignments[i]
			counts[c]++
			for d := range v {
				sums[c][d] += float64(v[d])
			}
		}

		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				// Reseed the empty centroid to the point farthest from its
				// assigned centroid and run another iteration.
				far := farthestPoint(vecs, centroids, assignments)
				copy(centroids[c], vecs[far])
				changed = true
				continue
			}
			for d := range centroids[c] {
				centroids[c][d] = float32(sums[c][d] / float64(counts[c]))
			}
		}

		if !changed {
			break
		}
	}

	return lloydResult{
		centroids:   centroids,
		assignments: assignments,
		inertia:     inertia(vecs, centroids, assignments),
	}
}

// initialCentroids picks k distinct points (by value) in a random order.
// The caller guarantees k does not exceed the number of distinct points.
func initialCentroids(vecs [][]float32, k int, rng *rand.Rand) [][]float32 {
	seen := make(map[string]bool, k)
	centroids := make([][]float32, 0, k)
	for _, idx := range rng.Perm(len(vecs)) {
		key := vecKey(vecs[idx])
		if seen[key] {
			continue
		}
		seen[key] = true
		c := make([]float32, len(vecs[idx]))
		copy(c, vecs[idx])
		centroids = append(centroids, c)
		if len(centroids) == k {
			break
		}
	}
	return centroids
}

// nearestCentroid returns the index of the closest centroid, lowest index
// winning ties so assignment is deterministic.
func nearestCentroid(v []float32, centroids [][]float32) int {
	best := 0
	bestDist := analysis.Euclidean(v, centroids[0])
	for c := 1; c < len(centroids); c++ {
		if d := analysis.Euclidean(v, centroids[c]); d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}

// farthestPoint returns the index of the point with the greatest distance to
// its assigned centroid.
func farthestPoint(vecs [][]float32, centroids [][]float32, assignments []int) int {
	far := 0
	farDist := -1.0
	for i, v := range vecs {
		if d := analysis.Euclidean(v, centroids[assignments[i]]); d > farDist {
			far = i
			farDist = d
		}
	}
	return far
}

// inertia is the total within-cluster sum of squared distances.
func inertia(vecs [][]float32, centroids [][]float32, assignments []int) float64 {
	var total float64
	for i, v := range vecs {
		d := analysis.Euclidean(v, centroids[assignments[i]])
		total += d * d
	}
	return total
}

// distinctCount returns the number of unique vectors by exact value.
func distinctCount(vecs [][]float32) int {
	seen := make(map[string]bool, len(vecs))
	for _, v := range vecs {
		seen[vecKey(v)] = true
	}
	return len(seen)
}

// vecKey serializes a vector to a comparable string key.
func vecKey(v []float32) string {
	b := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(f))
	}
	return string(b)
}
