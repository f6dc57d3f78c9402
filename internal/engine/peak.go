package engine

import "gonum.org/v1/gonum/floats"

// pickPeak chooses a representative peak of a phase's velocity trace. Plain
// maxima at the segment edge are often artifacts of filtering and imprecise
// cutting, so the heuristic prefers the last interior local maximum, backing
// off to the one before it when that still coincides with the global maximum.
// It falls back to the global maximum whenever the candidate is implausibly
// small (below 90% of it).
func pickPeak(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	global := floats.Max(v)

	// Strict order-1 local maxima.
	var maxima []int
	for i := 1; i < len(v)-1; i++ {
		if v[i] > v[i-1] && v[i] > v[i+1] {
			maxima = append(maxima, i)
		}
	}
	if len(maxima) == 0 {
		return global
	}

	cand := v[maxima[len(maxima)-1]]
	if len(maxima) >= 2 && cand == global {
		cand = v[maxima[len(maxima)-2]]
	}
	if cand < 0.9*global {
		return global
	}
	return cand
}
