package codice

import (
	"cmp"
	"math"
	"math/big"
	"slices"
)

const (
	// MaxIterations caps the number of assignment/update rounds.
	MaxIterations = 50
	// CentroidDigits is the number of fractional decimal digits every
	// centroid coordinate is rounded to.
	CentroidDigits = 12
	// Epsilon is both the convergence drift threshold and the tolerance
	// under which two centroid coordinates compare equal.
	Epsilon = 1e-12
)

// ClusterResult is the output of Cluster. Field order is the serialized key
// order.
type ClusterResult struct {
	K           int         `json:"k" jsonschema:"minimum=1,description=Number of clusters"`
	Dim         int         `json:"dim" jsonschema:"minimum=0,description=Length of every centroid"`
	Centroids   [][]float64 `json:"centroids" jsonschema:"description=Centroids in canonical order"`
	Assignments []int       `json:"assignments" jsonschema:"description=Canonical cluster index of every input row"`

	// Iterations is the number of rounds performed. It is not serialized.
	Iterations int `json:"-"`
}

// Sizes returns how many rows are assigned to each canonical cluster.
func (r ClusterResult) Sizes() []int {
	sizes := make([]int, r.K)
	for _, c := range r.Assignments {
		sizes[c]++
	}
	return sizes
}

// Cluster partitions the rows of m into k clusters.
//
// Initial centroids are the first k rows after a stable sort on column 0.
// Each round assigns every row to its nearest centroid (earliest centroid
// on ties), replaces each centroid by the mean of its rows rounded to
// CentroidDigits, and keeps the old centroid of a cluster left without rows.
// Iteration stops when no assignment changed, when the total centroid drift
// falls below Epsilon, or after MaxIterations rounds.
//
// The returned centroids are sorted by their coordinates and assignments
// refer to that order, so the labels depend only on the data.
func Cluster(m Matrix, k int) (ClusterResult, error) {
	n := len(m)
	if n == 0 {
		return ClusterResult{}, ErrEmptyDataset
	}
	if k < 1 || k > n {
		return ClusterResult{}, &ClusterCountError{K: k, N: n}
	}
	dim := len(m[0])
	if err := checkRectangular("kmeans", m, dim); err != nil {
		return ClusterResult{}, err
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if dim > 0 {
		slices.SortStableFunc(order, func(a, b int) int {
			return cmp.Compare(m[a][0], m[b][0])
		})
	}

	centroids := make([][]float64, k)
	for c := 0; c < k; c++ {
		centroids[c] = roundVector(m[order[c]])
	}

	assignments := make([]int, n)
	iterations := 0
	for iter := 0; iter < MaxIterations; iter++ {
		iterations++
		changed := assign(m, centroids, assignments)
		next := updateCentroids(m, centroids, assignments)
		drift := centroidDrift(centroids, next)
		centroids = next
		if !changed || drift < Epsilon {
			break
		}
	}

	canonical, assignments := canonicalOrder(centroids, assignments)
	return ClusterResult{
		K:           k,
		Dim:         dim,
		Centroids:   canonical,
		Assignments: assignments,
		Iterations:  iterations,
	}, nil
}

// assign moves every row to its nearest centroid and reports whether any
// row changed cluster.
func assign(m Matrix, centroids [][]float64, assignments []int) bool {
	changed := false
	for i, p := range m {
		best := 0
		bestDist := math.Inf(1)
		for c, centroid := range centroids {
			var dist float64
			for d := range p {
				diff := p[d] - centroid[d]
				// the conversion keeps the compiler from fusing into an FMA
				dist += float64(diff * diff)
			}
			if dist < bestDist {
				bestDist = dist
				best = c
			}
		}
		if assignments[i] != best {
			assignments[i] = best
			changed = true
		}
	}
	return changed
}

func updateCentroids(m Matrix, old [][]float64, assignments []int) [][]float64 {
	k := len(old)
	dim := len(old[0])
	sums := make([][]float64, k)
	for c := range sums {
		sums[c] = make([]float64, dim)
	}
	counts := make([]int, k)
	for i, c := range assignments {
		counts[c]++
		for d := 0; d < dim; d++ {
			sums[c][d] += m[i][d]
		}
	}

	next := make([][]float64, k)
	for c := 0; c < k; c++ {
		if counts[c] == 0 {
			next[c] = slices.Clone(old[c])
			continue
		}
		next[c] = make([]float64, dim)
		for d := 0; d < dim; d++ {
			next[c][d] = RoundFixed(sums[c][d] / float64(counts[c]))
		}
	}
	return next
}

func centroidDrift(old, next [][]float64) float64 {
	var drift float64
	for c := range old {
		for d := range old[c] {
			drift += math.Abs(next[c][d] - old[c][d])
		}
	}
	return drift
}

// canonicalOrder sorts centroids by coordinates and rewrites assignments
// from the iteration index to the sorted index.
func canonicalOrder(centroids [][]float64, assignments []int) ([][]float64, []int) {
	idx := make([]int, len(centroids))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return compareCentroids(centroids[a], centroids[b])
	})

	newIndex := make([]int, len(centroids))
	sorted := make([][]float64, len(centroids))
	for pos, old := range idx {
		newIndex[old] = pos
		sorted[pos] = centroids[old]
	}

	remapped := make([]int, len(assignments))
	for i, old := range assignments {
		remapped[i] = newIndex[old]
	}
	return sorted, remapped
}

// compareCentroids orders two vectors dimension by dimension. Coordinates
// closer than Epsilon are treated as equal.
func compareCentroids(a, b []float64) int {
	for d := range a {
		diff := a[d] - b[d]
		if math.Abs(diff) >= Epsilon {
			if diff < 0 {
				return -1
			}
			return 1
		}
	}
	return 0
}

func roundVector(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = RoundFixed(x)
	}
	return out
}

var fixedScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(CentroidDigits), nil)

// RoundFixed rounds x to CentroidDigits fractional decimal digits.
//
// The exact binary value of x is rounded half away from zero to a decimal
// with CentroidDigits fractional digits, which is then converted back to the
// nearest float64. Everything is done in exact rational arithmetic, so the
// result does not depend on the platform's float formatting. Values of
// magnitude 1e21 or more, NaN and infinities are returned unchanged. A
// result of zero is always +0.
func RoundFixed(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) || math.Abs(x) >= 1e21 {
		return x
	}
	r := new(big.Rat).SetFloat64(math.Abs(x))
	r.Mul(r, new(big.Rat).SetInt(fixedScale))
	r.Add(r, big.NewRat(1, 2))
	n := new(big.Int).Quo(r.Num(), r.Denom())

	out, _ := new(big.Rat).SetFrac(n, fixedScale).Float64()
	if x < 0 {
		out = -out
	}
	if out == 0 {
		return 0
	}
	return out
}
