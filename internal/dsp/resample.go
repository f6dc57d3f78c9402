package dsp

import "fmt"

// Resample converts an irregularly spaced series into one sampled uniformly
// at fs Hz, spanning [X[0], X[n-1]]. Values are linearly interpolated between
// the original points; the output never extrapolates beyond the input domain.
func Resample(ds DataSet, fs float64) (DataSet, error) {
	if ds.Len() < 2 {
		return DataSet{}, fmt.Errorf("resample %d points: %w", ds.Len(), ErrInsufficientSamples)
	}

	step := 1.0 / fs
	span := ds.X[ds.Len()-1] - ds.X[0]
	n := int(span/step) + 1

	x := make([]float64, n)
	y := make([]float64, n)
	j := 0
	for i := 0; i < n; i++ {
		t := ds.X[0] + float64(i)*step
		for j < ds.Len()-2 && ds.X[j+1] < t {
			j++
		}
		x[i] = t
		y[i] = lerp(ds.X[j], ds.Y[j], ds.X[j+1], ds.Y[j+1], t)
	}
	return DataSet{X: x, Y: y}, nil
}

// lerp interpolates between (x0,y0) and (x1,y1), clamping t to the segment so
// floating-point drift at the grid ends cannot extrapolate.
func lerp(x0, y0, x1, y1, t float64) float64 {
	f := (t - x0) / (x1 - x0)
	if f < 0 {
		f = 0
	} else if f > 1 {
		f = 1
	}
	return y0 + f*(y1-y0)
}
