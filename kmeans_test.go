package codice

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCluster_TwoGroups(t *testing.T) {
	m := Matrix{{1, 1}, {1, 2}, {9, 9}, {9, 8}}

	res, err := Cluster(m, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, res.K)
	assert.Equal(t, 2, res.Dim)
	assert.Equal(t, [][]float64{{1, 1.5}, {9, 8.5}}, res.Centroids)
	assert.Equal(t, []int{0, 0, 1, 1}, res.Assignments)
	assert.Equal(t, 3, res.Iterations)
	assert.Equal(t, []int{2, 2}, res.Sizes())
}

func TestCluster_Serialized(t *testing.T) {
	res, err := Cluster(Matrix{{1, 1}, {1, 2}, {9, 9}, {9, 8}}, 2)
	require.NoError(t, err)

	data, err := MarshalArtifact(res)
	require.NoError(t, err)

	want := `{
  "k": 2,
  "dim": 2,
  "centroids": [
    [
      1,
      1.5
    ],
    [
      9,
      8.5
    ]
  ],
  "assignments": [
    0,
    0,
    1,
    1
  ]
}`
	assert.Equal(t, want, string(data))
}

func TestCluster_RowPermutationGivesSameCentroids(t *testing.T) {
	m := Matrix{{1, 1}, {1, 2}, {9, 9}, {9, 8}}
	perm := []int{3, 1, 2, 0}
	shuffled := make(Matrix, len(m))
	for i, j := range perm {
		shuffled[i] = m[j]
	}

	a, err := Cluster(m, 2)
	require.NoError(t, err)
	b, err := Cluster(shuffled, 2)
	require.NoError(t, err)

	assert.Equal(t, a.Centroids, b.Centroids)
	for i, j := range perm {
		assert.Equal(t, a.Assignments[j], b.Assignments[i], "row %d", j)
	}
}

func TestCluster_EmptyClusterKeepsCentroid(t *testing.T) {
	// Both initial centroids sit on 0, so the second one never wins a row.
	res, err := Cluster(Matrix{{0}, {0}, {10}}, 2)
	require.NoError(t, err)

	assert.Equal(t, [][]float64{{0}, {3.333333333333}}, res.Centroids)
	assert.Equal(t, []int{1, 1, 1}, res.Assignments)
	assert.Equal(t, []int{0, 3}, res.Sizes())
	assert.Equal(t, 1, res.Iterations)
}

func TestCluster_KEqualsN(t *testing.T) {
	res, err := Cluster(Matrix{{5}, {1}, {3}}, 3)
	require.NoError(t, err)

	assert.Equal(t, [][]float64{{1}, {3}, {5}}, res.Centroids)
	assert.Equal(t, []int{2, 0, 1}, res.Assignments)
}

func TestCluster_ZeroColumns(t *testing.T) {
	res, err := Cluster(Matrix{{}, {}, {}}, 2)
	require.NoError(t, err)

	assert.Equal(t, 0, res.Dim)
	assert.Equal(t, [][]float64{{}, {}}, res.Centroids)
	assert.Equal(t, []int{0, 0, 0}, res.Assignments)
}

func TestCluster_Errors(t *testing.T) {
	_, err := Cluster(nil, 1)
	assert.ErrorIs(t, err, ErrEmptyDataset)

	_, err = Cluster(Matrix{{1}, {2}, {3}}, 5)
	var countErr *ClusterCountError
	require.True(t, errors.As(err, &countErr))
	assert.Equal(t, 5, countErr.K)
	assert.Equal(t, 3, countErr.N)
	assert.Contains(t, err.Error(), "k=5 > dataset size=3")

	_, err = Cluster(Matrix{{1}, {2}}, 0)
	require.True(t, errors.As(err, &countErr))
	assert.Contains(t, err.Error(), "must be positive")

	_, err = Cluster(Matrix{{1, 2}, {3}}, 1)
	var dimErr *DimensionMismatchError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, "kmeans", dimErr.Op)
}

func TestCluster_BoundedAndRepeatable(t *testing.T) {
	m := lcgMatrix(200, 4, 7)

	first, err := Cluster(m, 5)
	require.NoError(t, err)
	assert.LessOrEqual(t, first.Iterations, MaxIterations)
	assert.Len(t, first.Assignments, 200)

	for i := 1; i < len(first.Centroids); i++ {
		assert.Equal(t, -1, compareCentroids(first.Centroids[i-1], first.Centroids[i]))
	}
	for _, c := range first.Centroids {
		for _, x := range c {
			assert.Equal(t, x, RoundFixed(x))
		}
	}

	a, err := MarshalArtifact(first)
	require.NoError(t, err)
	for run := 0; run < 3; run++ {
		again, err := Cluster(m, 5)
		require.NoError(t, err)
		b, err := MarshalArtifact(again)
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b))
	}
}

func TestCluster_DoesNotMutateInput(t *testing.T) {
	m := Matrix{{3, 0.1}, {1, 0.2}, {2, 0.3}}
	_, err := Cluster(m, 2)
	require.NoError(t, err)
	assert.Equal(t, Matrix{{3, 0.1}, {1, 0.2}, {2, 0.3}}, m)
}

func TestRoundFixed(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{1.0 / 3, 0.333333333333},
		{2.0 / 3, 0.666666666667},
		{-2.0 / 3, -0.666666666667},
		{0.1 + 0.2, 0.3},
		{1.0 / 8192, 0.000122070313},
		{-1.0 / 8192, -0.000122070313},
		{123456789.123456789, 123456789.123456791},
		{1.5, 1.5},
		{42, 42},
		{1e21, 1e21},
		{-3e22, -3e22},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundFixed(tt.in), "RoundFixed(%v)", tt.in)
	}
}

func TestRoundFixed_ZeroIsPositive(t *testing.T) {
	for _, x := range []float64{-1e-13, math.Copysign(0, -1), 4e-13} {
		got := RoundFixed(x)
		assert.Equal(t, 0.0, got)
		assert.False(t, math.Signbit(got), "RoundFixed(%v)", x)
	}
}

func TestRoundFixed_NonFinite(t *testing.T) {
	assert.True(t, math.IsNaN(RoundFixed(math.NaN())))
	assert.True(t, math.IsInf(RoundFixed(math.Inf(1)), 1))
	assert.True(t, math.IsInf(RoundFixed(math.Inf(-1)), -1))
}

func TestCompareCentroids_Tolerance(t *testing.T) {
	assert.Equal(t, 0, compareCentroids([]float64{1, 2}, []float64{1 + 1e-13, 2}))
	assert.Equal(t, -1, compareCentroids([]float64{1, 2}, []float64{1 + 1e-13, 3}))
	assert.Equal(t, 1, compareCentroids([]float64{2, 0}, []float64{1, 5}))
}

// lcgMatrix fills a rows×cols matrix from a linear congruential generator
// so the data is fixed without a random source.
func lcgMatrix(rows, cols int, seed uint64) Matrix {
	state := seed
	m := make(Matrix, rows)
	for i := range m {
		m[i] = make([]float64, cols)
		for j := range m[i] {
			state = state*6364136223846793005 + 1442695040888963407
			m[i][j] = float64(state>>40) / float64(1<<24) * 10
		}
	}
	return m
}
