package reduce

import (
	"fmt"

	"github.com/vectorscope/vectorscope/domain/visualization"
)

// Registry maps a reduction method to its Projector implementation and
// holds the shared Clusterer.
type Registry struct {
	projectors map[visualization.Method]visualization.Projector
	clusterer  visualization.Clusterer
}

// NewRegistry builds the default registry. PCA backs both methods for now:
// it is the exact implementation for MethodPCA and the CPU stand-in for
// MethodUMAP until a neighbor-embedding implementation lands.
func NewRegistry() *Registry {
	pca := NewPCA()
	return &Registry{
		projectors: map[visualization.Method]visualization.Projector{
			visualization.MethodUMAP: pca,
			visualization.MethodPCA:  pca,
		},
		clusterer: NewKMeans(),
	}
}

// Register overrides the projector for a method.
func (r *Registry) Register(method visualization.Method, projector visualization.Projector) {
	r.projectors[method] = projector
}

// Projector returns the implementation for a method.
func (r *Registry) Projector(method visualization.Method) (visualization.Projector, error) {
	projector, ok := r.projectors[method]
	if !ok {
		return nil, fmt.Errorf("no projector registered for method %q", method)
	}
	return projector, nil
}

// Clusterer returns the shared clustering strategy.
func (r *Registry) Clusterer() visualization.Clusterer {
	return r.clusterer
}
