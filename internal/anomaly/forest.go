package anomaly

import (
	"math"
	"math/rand"
)

// isoNode is one node of an isolation tree. Internal nodes carry a split;
// external nodes carry the size of the subset they isolate.
type isoNode struct {
	left, right *isoNode
	splitDim    int
	splitVal    float32
	size        int
}

func (n *isoNode) isLeaf() bool { return n.left == nil }

// buildTree recursively splits the subset on a random dimension at a random
// value between the subset's min and max, until a point is isolated or the
// depth cap is reached. All randomness comes from rng, so tree construction
// is reproducible for a fixed seed.
func buildTree(vecs [][]float32, indices []int, depth, maxDepth int, rng *rand.Rand) *isoNode {
	if len(indices) <= 1 || depth >= maxDepth {
		return &isoNode{size: len(indices)}
	}

	dim, lo, hi, ok := pickSplitDim(vecs, indices, rng)
	if !ok {
		// Every remaining dimension is constant: the subset cannot be split.
		return &isoNode{size: len(indices)}
	}

	split := lo + rng.Float32()*(hi-lo)

	var left, right []int
	for _, i := range indices {
		if vecs[i][dim] < split {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &isoNode{size: len(indices)}
	}

	return &isoNode{
		splitDim: dim,
		splitVal: split,
		left:     buildTree(vecs, left, depth+1, maxDepth, rng),
		right:    buildTree(vecs, right, depth+1, maxDepth, rng),
	}
}

// pickSplitDim chooses a random dimension with nonzero spread over the
// subset, returning its min and max. ok is false when all dimensions are
// constant.
func pickSplitDim(vecs [][]float32, indices []int, rng *rand.Rand) (dim int, lo, hi float32, ok bool) {
	dims := len(vecs[0])
	for _, d := range rng.Perm(dims) {
		lo, hi = vecs[indices[0]][d], vecs[indices[0]][d]
		for _, i := range indices[1:] {
			v := vecs[i][d]
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		if hi > lo {
			return d, lo, hi, true
		}
	}
	return 0, 0, 0, false
}

// pathLength returns the depth at which v exits the tree, adjusted by the
// average-path correction for the subset size at the terminating node.
func pathLength(root *isoNode, v []float32) float64 {
	depth := 0
	node := root
	for !node.isLeaf() {
		if v[node.splitDim] < node.splitVal {
			node = node.left
		} else {
			node = node.right
		}
		depth++
	}
	return float64(depth) + avgPathCorrection(node.size)
}

// avgPathCorrection is c(n), the expected path length of an unsuccessful
// BST search over n points. It normalizes scores and extends the path for
// leaves that still hold multiple points at the depth cap.
func avgPathCorrection(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	default:
		nf := float64(n)
		h := math.Log(nf-1) + 0.5772156649 // Euler-Mascheroni
		return 2*h - 2*(nf-1)/nf
	}
}

// scoreVectors builds trees isolation trees over vecs and returns the
// normalized anomaly score per vector: 2^(-E[path]/c(n)), approaching 1 for
// points that isolate quickly.
func scoreVectors(vecs [][]float32, trees int, seed int64) []float64 {
	n := len(vecs)
	maxDepth := int(math.Ceil(math.Log2(float64(n)))) + 1

	all := make([]int, n)
	for i := range all {
		all[i] = i
	}

	rng := rand.New(rand.NewSource(seed))
	pathSums := make([]float64, n)
	for t := 0; t < trees; t++ {
		root := buildTree(vecs, all, 0, maxDepth, rng)
		for i, v := range vecs {
			pathSums[i] += pathLength(root, v)
		}
	}

	norm := avgPathCorrection(n)
	scores := make([]float64, n)
	for i := range scores {
		avg := pathSums[i] / float64(trees)
		scores[i] = math.Pow(2, -avg/norm)
	}
	return scores
}
