// Package detector holds the concentric layer registry hits are measured
// against. Layers are numbered from 1 in ascending radius order.
package detector

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/banshee-data/trackml/internal/geometry"
)

// UnresolvedLayer marks a hit whose layer has not been determined.
const UnresolvedLayer = 0

// DefaultLayerTolerance is the radial distance within which a hit is
// attributed to a layer.
const DefaultLayerTolerance = 1.0

// ErrInvalidRadius is returned when a detector radius is not a positive,
// finite number.
var ErrInvalidRadius = errors.New("detector radius must be positive and finite")

// Detector is a circular boundary centered on the origin.
type Detector struct {
	Radius float64
}

// Circle returns the detector boundary as a geometry.Circle.
func (d Detector) Circle() geometry.Circle {
	return geometry.Circle{Center: geometry.Origin, Radius: d.Radius}
}

func (d Detector) String() string {
	return fmt.Sprintf("detector(r=%g)", d.Radius)
}

// DefaultRadii returns the standard eight-layer configuration
// (1000 through 8000 in steps of 1000).
func DefaultRadii() []float64 {
	radii := make([]float64, 0, 8)
	for r := 1000.0; r <= 8000; r += 1000 {
		radii = append(radii, r)
	}
	return radii
}

// Registry is an ordered set of detectors with distinct radii.
// It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	detectors []Detector // insertion order
}

// NewRegistry builds a registry from radii, silently dropping duplicates.
func NewRegistry(radii ...float64) (*Registry, error) {
	r := &Registry{}
	for _, radius := range radii {
		if _, err := r.Add(radius); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add appends a detector of the given radius. It reports false without an
// error when a detector with that radius already exists.
func (r *Registry) Add(radius float64) (bool, error) {
	if !(radius > 0) || math.IsInf(radius, 0) {
		return false, fmt.Errorf("%w: %v", ErrInvalidRadius, radius)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.detectors {
		if d.Radius == radius {
			return false, nil
		}
	}
	r.detectors = append(r.detectors, Detector{Radius: radius})
	return true, nil
}

// Clear removes every detector.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detectors = nil
}

// Len returns the number of detectors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.detectors)
}

// Detectors returns a copy of the detectors in insertion order.
func (r *Registry) Detectors() []Detector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Detector, len(r.detectors))
	copy(out, r.detectors)
	return out
}

// Sorted returns a copy of the detectors in ascending radius order.
// Index i of the result is layer i+1.
func (r *Registry) Sorted() []Detector {
	out := r.Detectors()
	sort.Slice(out, func(i, j int) bool { return out[i].Radius < out[j].Radius })
	return out
}

// Layer returns the detector for a 1-based layer index.
func (r *Registry) Layer(layer int) (Detector, bool) {
	sorted := r.Sorted()
	if layer < 1 || layer > len(sorted) {
		return Detector{}, false
	}
	return sorted[layer-1], true
}

// ResolveLayer returns the first layer (ascending radius) whose radius lies
// within tol of p's distance from the origin, or UnresolvedLayer.
func (r *Registry) ResolveLayer(p geometry.Point, tol float64) int {
	return ResolveLayer(r.Sorted(), p, tol)
}

// ResolveLayer scans sorted detectors and returns the 1-based index of the
// first one whose radius is within tol of p's distance from the origin.
func ResolveLayer(sorted []Detector, p geometry.Point, tol float64) int {
	dist := p.Norm()
	for i, d := range sorted {
		if math.Abs(d.Radius-dist) < tol {
			return i + 1
		}
	}
	return UnresolvedLayer
}
