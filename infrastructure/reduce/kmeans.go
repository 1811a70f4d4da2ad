package reduce

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/vectorscope/vectorscope/domain/visualization"
)

const (
	// DefaultClusters is the k used when the caller does not choose one.
	DefaultClusters = 8
	// kmeansSeed fixes centroid initialization so labels are stable
	// across runs of the same input.
	kmeansSeed = 42
	// kmeansIterations bounds the assign/update loop.
	kmeansIterations = 100
)

// KMeans assigns cluster labels with Lloyd's algorithm under a fixed seed.
// It satisfies visualization.Clusterer.
type KMeans struct{}

// NewKMeans returns a KMeans clusterer.
func NewKMeans() *KMeans {
	return &KMeans{}
}

// Cluster labels each vector 0..k-1. When the input has k or fewer points
// every row gets visualization.ClusterSingle, matching the degenerate case
// where per-cluster structure carries no information.
func (k *KMeans) Cluster(ctx context.Context, vectors [][]float64, clusters int) ([]int, error) {
	if clusters < 1 {
		clusters = DefaultClusters
	}
	if len(vectors) == 0 {
		return []int{}, nil
	}

	width := len(vectors[0])
	for i, v := range vectors {
		if len(v) != width {
			return nil, fmt.Errorf("vector %d has width %d, expected %d", i, len(v), width)
		}
	}

	if len(vectors) <= clusters {
		labels := make([]int, len(vectors))
		for i := range labels {
			labels[i] = visualization.ClusterSingle
		}
		return labels, nil
	}

	rng := rand.New(rand.NewSource(kmeansSeed))
	centroids := initialCentroids(rng, vectors, clusters)
	labels := make([]int, len(vectors))

	for iter := 0; iter < kmeansIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		changed := false
		for i, v := range vectors {
			nearest := nearestCentroid(v, centroids)
			if labels[i] != nearest {
				labels[i] = nearest
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		recomputeCentroids(rng, vectors, labels, centroids)
	}

	return labels, nil
}

// initialCentroids picks k distinct input points via a seeded shuffle.
func initialCentroids(rng *rand.Rand, vectors [][]float64, k int) [][]float64 {
	indices := rng.Perm(len(vectors))[:k]
	centroids := make([][]float64, k)
	for c, idx := range indices {
		centroids[c] = append([]float64(nil), vectors[idx]...)
	}
	return centroids
}

func nearestCentroid(v []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range centroids {
		d := squaredDistance(v, centroid)
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// recomputeCentroids moves each centroid to the mean of its members. An
// emptied cluster is reseeded from a deterministic random point so k stays
// constant.
func recomputeCentroids(rng *rand.Rand, vectors [][]float64, labels []int, centroids [][]float64) {
	width := len(vectors[0])
	sums := make([][]float64, len(centroids))
	counts := make([]int, len(centroids))
	for c := range sums {
		sums[c] = make([]float64, width)
	}
	for i, v := range vectors {
		c := labels[i]
		counts[c]++
		for j, x := range v {
			sums[c][j] += x
		}
	}
	for c := range centroids {
		if counts[c] == 0 {
			copy(centroids[c], vectors[rng.Intn(len(vectors))])
			continue
		}
		n := float64(counts[c])
		for j := range centroids[c] {
			centroids[c][j] = sums[c][j] / n
		}
	}
}

func squaredDistance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
