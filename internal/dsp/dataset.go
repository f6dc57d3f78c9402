// Package dsp implements the signal-processing primitives of the measurement
// pipeline: resampling onto a uniform grid, Butterworth low-pass filtering
// (causal and zero-phase), and numerical differentiation.
package dsp

import "errors"

var (
	// ErrInsufficientSamples means a series was too short to resample or
	// to estimate from. Recoverable in the live-feedback path.
	ErrInsufficientSamples = errors.New("dsp: insufficient samples")

	// ErrFilterUnstable means the zero-phase filter could not produce a
	// usable result. Fatal for the run being analyzed.
	ErrFilterUnstable = errors.New("dsp: filter unstable")
)

// DataSet is a pair of parallel time/value series. X is strictly increasing
// and len(X) == len(Y).
type DataSet struct {
	X []float64
	Y []float64
}

// Len returns the number of points in the set.
func (d DataSet) Len() int { return len(d.X) }

// Clone returns a deep copy of the set.
func (d DataSet) Clone() DataSet {
	x := make([]float64, len(d.X))
	y := make([]float64, len(d.Y))
	copy(x, d.X)
	copy(y, d.Y)
	return DataSet{X: x, Y: y}
}
