// Package reduce implements the numerical strategies behind the
// visualization domain contracts: principal component analysis for
// dimensionality reduction and k-means for cluster labeling. Both are
// deterministic so repeated pipeline runs produce identical layouts.
package reduce

import (
	"context"
	"fmt"
	"math"
)

const (
	// powerIterations bounds the power-iteration loop per component.
	powerIterations = 100
	// convergenceEpsilon stops iteration once the eigenvector settles.
	convergenceEpsilon = 1e-10
)

// PCA projects vectors onto their top principal components using power
// iteration with deflation. It satisfies visualization.Projector.
type PCA struct{}

// NewPCA returns a PCA projector.
func NewPCA() *PCA {
	return &PCA{}
}

// Project reduces the input matrix to the requested dimensionality. Output
// row i corresponds to input row i. Inputs with fewer rows than the target
// dimensionality are padded conceptually by zero variance: the missing
// components come out as zero coordinates.
func (p *PCA) Project(ctx context.Context, vectors [][]float64, dimensions int) ([][]float64, error) {
	if dimensions < 1 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}
	if len(vectors) == 0 {
		return [][]float64{}, nil
	}

	width := len(vectors[0])
	for i, v := range vectors {
		if len(v) != width {
			return nil, fmt.Errorf("vector %d has width %d, expected %d", i, len(v), width)
		}
	}
	if width < dimensions {
		return nil, fmt.Errorf("input width %d is below target dimensionality %d", width, dimensions)
	}

	centered := center(vectors)

	components := make([][]float64, 0, dimensions)
	for c := 0; c < dimensions; c++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		component := principalComponent(centered, width, c)
		components = append(components, component)
		deflate(centered, component)
	}

	mean := centeredMean(vectors)
	projected := make([][]float64, len(vectors))
	for i := range vectors {
		row := centerRow(vectors, i, mean)
		coordinate := make([]float64, dimensions)
		for c, component := range components {
			coordinate[c] = dot(row, component)
		}
		projected[i] = coordinate
	}
	return projected, nil
}

// center returns a mean-centered copy of the matrix.
func center(vectors [][]float64) [][]float64 {
	mean := centeredMean(vectors)
	out := make([][]float64, len(vectors))
	for i, v := range vectors {
		row := make([]float64, len(v))
		for j, x := range v {
			row[j] = x - mean[j]
		}
		out[i] = row
	}
	return out
}

func centeredMean(vectors [][]float64) []float64 {
	mean := make([]float64, len(vectors[0]))
	for _, v := range vectors {
		for j, x := range v {
			mean[j] += x
		}
	}
	n := float64(len(vectors))
	for j := range mean {
		mean[j] /= n
	}
	return mean
}

func centerRow(vectors [][]float64, i int, mean []float64) []float64 {
	row := make([]float64, len(mean))
	for j := range mean {
		row[j] = vectors[i][j] - mean[j]
	}
	return row
}

// principalComponent finds the dominant eigenvector of the covariance of
// the (already deflated) matrix by power iteration. The starting vector is
// a fixed basis direction chosen per component index, keeping the result
// deterministic across runs.
func principalComponent(centered [][]float64, width, index int) []float64 {
	v := make([]float64, width)
	v[index%width] = 1

	for iter := 0; iter < powerIterations; iter++ {
		// w = C v computed as X^T (X v) to avoid materializing the
		// covariance matrix.
		xv := make([]float64, len(centered))
		for i, row := range centered {
			xv[i] = dot(row, v)
		}
		w := make([]float64, width)
		for i, row := range centered {
			for j, x := range row {
				w[j] += x * xv[i]
			}
		}

		norm := math.Sqrt(dot(w, w))
		if norm < convergenceEpsilon {
			// Degenerate direction, keep the current estimate.
			break
		}
		for j := range w {
			w[j] /= norm
		}

		delta := 0.0
		for j := range w {
			d := w[j] - v[j]
			delta += d * d
		}
		v = w
		if delta < convergenceEpsilon {
			break
		}
	}
	return v
}

// deflate removes the component direction from every row in place so the
// next power iteration converges to the following eigenvector.
func deflate(centered [][]float64, component []float64) {
	for i, row := range centered {
		proj := dot(row, component)
		for j := range row {
			centered[i][j] = row[j] - proj*component[j]
		}
	}
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
