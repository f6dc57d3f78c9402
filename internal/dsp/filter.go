package dsp

import (
	"fmt"
	"math"
)

// filterOrder is the order of the Butterworth design. The zero-phase pass
// needs more than 3*filterOrder samples to initialize its edge padding.
const filterOrder = 5

// section is one second-order filter stage in transposed direct-form II.
// First-order stages set b2 and a2 to zero.
type section struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// LowPass is a 5th-order Butterworth low-pass filter realized as a cascade of
// second-order sections. The struct holds coefficients only; filter state
// lives on the stack of each call, so one LowPass is safe to share.
type LowPass struct {
	cutoff   float64
	sampling float64
	sections []section
}

// NewLowPass designs the filter for the given cutoff and sampling frequency,
// both in Hz. The analog prototype sections are mapped to the digital domain
// with a prewarped bilinear transform.
func NewLowPass(cutoff, sampling float64) *LowPass {
	// Prewarped analog cutoff, normalized to the sampling rate.
	w := math.Tan(math.Pi * cutoff / sampling)
	k := 1.0 / w

	lp := &LowPass{cutoff: cutoff, sampling: sampling}

	// Conjugate pole pairs of the odd-order Butterworth prototype:
	// 1/(s^2 + d*s + 1) with d = 2*sin(pi*(2i-1)/(2*order)).
	for i := 1; i <= filterOrder/2; i++ {
		d := 2 * math.Sin(math.Pi*float64(2*i-1)/float64(2*filterOrder))
		a0 := k*k + d*k + 1
		lp.sections = append(lp.sections, section{
			b0: 1 / a0,
			b1: 2 / a0,
			b2: 1 / a0,
			a1: (2 - 2*k*k) / a0,
			a2: (k*k - d*k + 1) / a0,
		})
	}

	// Remaining real pole: 1/(s + 1).
	a0 := k + 1
	lp.sections = append(lp.sections, section{
		b0: 1 / a0,
		b1: 1 / a0,
		a1: (1 - k) / a0,
	})

	return lp
}

// state holds the two delay registers of every section.
type state [][2]float64

// initialState returns the steady-state delay registers for a constant input
// x0, so filtering does not start from an artificial zero transient
// (Gustafsson's initialization, applied per section).
func (lp *LowPass) initialState(x0 float64) state {
	st := make(state, len(lp.sections))
	for i, s := range lp.sections {
		kdc := (s.b0 + s.b1 + s.b2) / (1 + s.a1 + s.a2)
		si1 := s.b2 - kdc*s.a2
		si0 := si1 + s.b1 - kdc*s.a1
		st[i] = [2]float64{si0 * x0, si1 * x0}
		// The next section sees the DC-scaled sample.
		x0 *= kdc
	}
	return st
}

// step pushes one sample through the cascade.
func (lp *LowPass) step(st state, x float64) float64 {
	for i, s := range lp.sections {
		y := st[i][0] + s.b0*x
		st[i][0] = st[i][1] + s.b1*x - s.a1*y
		st[i][1] = s.b2*x - s.a2*y
		x = y
	}
	return x
}

// Apply runs the filter forward over y and returns the filtered copy. This is
// the causal mode: only past samples influence each output value, at the cost
// of phase lag. Usable on partial, still-growing windows.
func (lp *LowPass) Apply(y []float64) []float64 {
	out := make([]float64, len(y))
	if len(y) == 0 {
		return out
	}
	st := lp.initialState(y[0])
	for i, v := range y {
		out[i] = lp.step(st, v)
	}
	return out
}

// ApplyZeroPhase runs the filter forward and then backward so the phase
// distortion of the two passes cancels. Both ends are extended with odd
// reflections of the signal before filtering, which suppresses edge
// transients. Requires the complete segment and more than 3*order samples.
func (lp *LowPass) ApplyZeroPhase(y []float64) ([]float64, error) {
	pad := 3 * filterOrder
	if len(y) <= pad {
		return nil, fmt.Errorf("zero-phase filter over %d samples (need > %d): %w",
			len(y), pad, ErrFilterUnstable)
	}

	n := len(y)
	ext := make([]float64, 0, n+2*pad)
	for i := pad; i >= 1; i-- {
		ext = append(ext, 2*y[0]-y[i])
	}
	ext = append(ext, y...)
	for i := 1; i <= pad; i++ {
		ext = append(ext, 2*y[n-1]-y[n-1-i])
	}

	// Forward pass.
	st := lp.initialState(ext[0])
	for i, v := range ext {
		ext[i] = lp.step(st, v)
	}

	// Backward pass.
	st = lp.initialState(ext[len(ext)-1])
	for i := len(ext) - 1; i >= 0; i-- {
		ext[i] = lp.step(st, ext[i])
	}

	out := make([]float64, n)
	copy(out, ext[pad:pad+n])
	for _, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("non-finite filter output: %w", ErrFilterUnstable)
		}
	}
	return out, nil
}
