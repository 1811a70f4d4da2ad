package visualization

import "context"

// Projector reduces an embedding matrix to the requested dimensionality.
// The output has one coordinate per input vector, in input order. The
// numerical method behind the contract is substitutable; callers select an
// implementation per Method via configuration.
type Projector interface {
	Project(ctx context.Context, vectors [][]float64, dimensions int) ([][]float64, error)
}

// ProjectorFunc adapts a function to the Projector interface.
type ProjectorFunc func(ctx context.Context, vectors [][]float64, dimensions int) ([][]float64, error)

// Project calls the wrapped function.
func (f ProjectorFunc) Project(ctx context.Context, vectors [][]float64, dimensions int) ([][]float64, error) {
	return f(ctx, vectors, dimensions)
}

// Clusterer assigns each input vector a small-integer cluster label.
type Clusterer interface {
	Cluster(ctx context.Context, vectors [][]float64, clusters int) ([]int, error)
}

// ClustererFunc adapts a function to the Clusterer interface.
type ClustererFunc func(ctx context.Context, vectors [][]float64, clusters int) ([]int, error)

// Cluster calls the wrapped function.
func (f ClustererFunc) Cluster(ctx context.Context, vectors [][]float64, clusters int) ([]int, error) {
	return f(ctx, vectors, clusters)
}

// Projection names one (method, dimensionality) output the pipeline computes.
type Projection struct {
	Method     Method
	Dimensions int
}

// DefaultProjections is the set of outputs a pipeline run produces: UMAP in
// 2D and 3D, PCA in 2D. Each is computed independently; a failure in one is
// omitted from the output without failing the others.
func DefaultProjections() []Projection {
	return []Projection{
		{Method: MethodUMAP, Dimensions: 2},
		{Method: MethodUMAP, Dimensions: 3},
		{Method: MethodPCA, Dimensions: 2},
	}
}
