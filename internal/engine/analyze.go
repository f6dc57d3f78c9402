package engine

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/smartinertia/flywheel/internal/dsp"
	"github.com/smartinertia/flywheel/internal/flywheel"
)

// ErrInvalidMeasurement means too few repetitions were performed to produce
// statistics. Recoverable: the caller warns the user and discards the run.
var ErrInvalidMeasurement = errors.New("engine: not enough repetitions")

// Analyze reconstructs exact repetition boundaries from the complete raw
// series and the approximate timestamps collected online, then computes the
// per-repetition and aggregate statistics of the run.
//
// The first StartRuns repetitions are treated as warm-up and discarded; at
// most CountedRuns subsequent repetitions are counted. A wrapped
// dsp.ErrFilterUnstable is terminal for the run.
func Analyze(raw dsp.DataSet, boundaries []float64, rc RunConfig, cfg Config) (*Report, error) {
	if len(boundaries) < cfg.StartRuns+1 {
		return nil, fmt.Errorf("%d repetitions detected, need at least %d: %w",
			len(boundaries), cfg.StartRuns+1, ErrInvalidMeasurement)
	}

	ds, err := dsp.Resample(raw, cfg.SamplingFreq)
	if err != nil {
		return nil, err
	}
	lp := dsp.NewLowPass(cfg.CutoffFreq, cfg.SamplingFreq)
	fy, err := lp.ApplyZeroPhase(ds.Y)
	if err != nil {
		return nil, err
	}
	filtered := dsp.DataSet{X: ds.X, Y: fy}

	q := flywheel.Compute(filtered, flywheel.Params{
		Weight:         rc.Weight,
		Load:           rc.Load,
		DynamicGravity: cfg.DynamicGravity,
	})

	edges := repEdges(filtered, boundaries, cfg.SamplingFreq)

	// Drop the warm-up repetitions, count at most CountedRuns.
	first := cfg.StartRuns
	last := first + cfg.CountedRuns
	if last > len(edges)-1 {
		last = len(edges) - 1
	}

	rep := &Report{
		Run:      rc,
		Partial:  last-first < cfg.CountedRuns,
		Raw:      raw,
		Filtered: filtered,
	}
	for i := first; i < last; i++ {
		rep.Reps = append(rep.Reps, repetitionMetrics(q, edges[i], edges[i+1]))
	}
	rep.Summary = averageMetrics(rep.Reps)
	return rep, nil
}

// repEdges turns the approximate online boundary timestamps into exact cut
// indices on the filtered grid. The cut between two consecutive boundaries is
// the minimum of the filtered frequency in the second half of the interval,
// which tolerates the timing jitter of the online detector without ever
// cutting mid-repetition. Returns len(boundaries)+1 strictly increasing
// edges; repetition k spans [edges[k], edges[k+1]).
func repEdges(filtered dsp.DataSet, boundaries []float64, fs float64) []int {
	n := filtered.Len()
	idx := make([]int, len(boundaries))
	for i, t := range boundaries {
		idx[i] = nearestIndex(filtered.X, t, fs)
	}

	edges := []int{idx[0]}
	for i := 0; i < len(idx)-1; i++ {
		lo, hi := idx[i], idx[i+1]
		mid := lo + (hi-lo)/2
		cut := hi
		if hi > mid {
			cut = mid + argMin(filtered.Y[mid:hi+1])
		}
		if cut > edges[len(edges)-1] {
			edges = append(edges, cut)
		}
	}
	edges = append(edges, n)
	return edges
}

// repetitionMetrics computes the twelve statistics of the repetition
// [i, j). The index of maximum power splits it into the concentric phase
// before the peak and the eccentric phase after it.
func repetitionMetrics(q flywheel.Quantities, i, j int) Metrics {
	if j-i < 2 {
		// Degenerate single-point segment: both phases collapse onto it.
		return Metrics{
			VConMax: q.Velocity[i], VEccMax: q.Velocity[i],
			VConMean: q.Velocity[i], VEccMean: q.Velocity[i],
			FConMax: q.Force[i], FEccMax: q.Force[i],
			FConMean: q.Force[i], FEccMean: q.Force[i],
			PConMax: q.Power[i], PEccMax: q.Power[i],
			PConMean: q.Power[i], PEccMean: q.Power[i],
		}
	}

	m := i + argMax(q.Power[i:j])
	// Both phases must be non-empty even when the power peak sits on a cut.
	if m <= i {
		m = i + 1
	}
	if m >= j {
		m = j - 1
	}

	return Metrics{
		VConMax:  pickPeak(q.Velocity[i:m]),
		VEccMax:  pickPeak(q.Velocity[m:j]),
		VConMean: stat.Mean(q.Velocity[i:m], nil),
		VEccMean: stat.Mean(q.Velocity[m:j], nil),

		FConMax:  floats.Max(q.Force[i:m]),
		FEccMax:  floats.Max(q.Force[m:j]),
		FConMean: stat.Mean(q.Force[i:m], nil),
		FEccMean: stat.Mean(q.Force[m:j], nil),

		PConMax:  floats.Max(q.Power[i:m]),
		PEccMax:  floats.Max(q.Power[m:j]),
		PConMean: stat.Mean(q.Power[i:m], nil),
		PEccMean: stat.Mean(q.Power[m:j], nil),
	}
}

// averageMetrics is the arithmetic mean of each field across the counted
// repetitions.
func averageMetrics(reps []Metrics) Metrics {
	var sum Metrics
	if len(reps) == 0 {
		return sum
	}
	for _, r := range reps {
		sum.VConMax += r.VConMax
		sum.VEccMax += r.VEccMax
		sum.VConMean += r.VConMean
		sum.VEccMean += r.VEccMean
		sum.FConMax += r.FConMax
		sum.FEccMax += r.FEccMax
		sum.FConMean += r.FConMean
		sum.FEccMean += r.FEccMean
		sum.PConMax += r.PConMax
		sum.PEccMax += r.PEccMax
		sum.PConMean += r.PConMean
		sum.PEccMean += r.PEccMean
	}
	n := float64(len(reps))
	sum.VConMax /= n
	sum.VEccMax /= n
	sum.VConMean /= n
	sum.VEccMean /= n
	sum.FConMax /= n
	sum.FEccMax /= n
	sum.FConMean /= n
	sum.FEccMean /= n
	sum.PConMax /= n
	sum.PEccMax /= n
	sum.PConMean /= n
	sum.PEccMean /= n
	return sum
}

// nearestIndex maps a timestamp onto the uniform grid, clamped to the series.
func nearestIndex(x []float64, t, fs float64) int {
	i := int(math.Round((t - x[0]) * fs))
	if i < 0 {
		i = 0
	}
	if i > len(x)-1 {
		i = len(x) - 1
	}
	return i
}

func argMin(v []float64) int {
	m := 0
	for i := range v {
		if v[i] < v[m] {
			m = i
		}
	}
	return m
}

func argMax(v []float64) int {
	m := 0
	for i := range v {
		if v[i] > v[m] {
			m = i
		}
	}
	return m
}
