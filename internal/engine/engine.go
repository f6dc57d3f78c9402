package engine

import (
	"sync"
	"time"

	"github.com/smartinertia/flywheel/internal/dsp"
	"github.com/smartinertia/flywheel/internal/flywheel"
)

// Phase is the segmentation state of the live stream.
type Phase int

const (
	// WaitingForStart holds until the frequency first exceeds MinFreq.
	WaitingForStart Phase = iota
	// Concentric means the frequency is in the rising part of a repetition.
	Concentric
	// EccentricDescending means the frequency fell below the lower
	// hysteresis bound; rising back above the upper bound starts the next
	// repetition.
	EccentricDescending
)

// Engine ingests the raw sample stream of one run, detects repetition
// boundaries online, and maintains a live peak-power estimate per repetition
// for display. A single producer calls Add; any number of readers may poll
// Bars concurrently.
type Engine struct {
	cfg    Config
	filter *dsp.LowPass // causal filter for the live estimate, coefficients only

	mu         sync.RWMutex
	run        RunConfig
	startedAt  time.Time
	running    bool
	phase      Phase
	rawX       []float64
	rawY       []float64
	boundaries []float64 // approximate repetition-start timestamps
	bars       []float64 // live peak-power estimate per repetition
}

// New creates an engine with the given tunables.
func New(cfg Config) *Engine {
	return &Engine{
		cfg:    cfg,
		filter: dsp.NewLowPass(cfg.CutoffFreq, cfg.SamplingFreq),
	}
}

// Start clears any previous run and begins accepting samples.
func (e *Engine) Start(rc RunConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.run = rc
	e.startedAt = time.Now()
	e.running = true
	e.phase = WaitingForStart
	e.rawX = nil
	e.rawY = nil
	e.boundaries = nil
	e.bars = nil
}

// Stop ends acquisition. Samples arriving afterwards are ignored; the buffer
// collected so far stays available for Finish.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = false
}

// Running reports whether a run is accepting samples.
func (e *Engine) Running() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// Add ingests one raw sample. It runs in roughly constant time per sample:
// the causal estimate only ever touches the fixed-size tail window, so the
// hot path never falls behind the device.
func (e *Engine) Add(t, f float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}

	e.rawX = append(e.rawX, t)
	e.rawY = append(e.rawY, f)

	switch e.phase {
	case WaitingForStart:
		if f > e.cfg.MinFreq {
			e.phase = Concentric
			e.beginRep(t)
		}
	case Concentric:
		if f < e.cfg.HystLow {
			e.phase = EccentricDescending
		}
	case EccentricDescending:
		if f > e.cfg.HystHigh {
			e.phase = Concentric
			e.beginRep(t)
		}
	}

	if e.phase != WaitingForStart {
		e.updateEstimate()
	}
}

// beginRep records a repetition boundary and opens a new bar slot.
func (e *Engine) beginRep(t float64) {
	e.boundaries = append(e.boundaries, t)
	e.bars = append(e.bars, 0)
}

// updateEstimate recomputes the causal power estimate over the tail window
// and folds it into the current repetition's running maximum. Estimation
// failures contribute nothing; live feedback is best-effort.
func (e *Engine) updateEstimate() {
	k := e.cfg.FilterWindow
	n := len(e.rawX)
	if n < k || k < 2 {
		return
	}
	wx := e.rawX[n-k:]
	wy := e.rawY[n-k:]
	if wx[k-1]-wx[0] < e.cfg.MinWindowTime {
		return
	}

	ds, err := dsp.Resample(dsp.DataSet{X: wx, Y: wy}, e.cfg.SamplingFreq)
	if err != nil {
		return
	}
	filtered := e.filter.Apply(ds.Y)
	q := flywheel.Compute(dsp.DataSet{X: ds.X, Y: filtered}, flywheel.Params{
		Weight:         e.run.Weight,
		Load:           e.run.Load,
		DynamicGravity: e.cfg.DynamicGravity,
	})

	// The window center avoids the filter's edge artifacts.
	p := q.Power[len(q.Power)/2]
	if last := len(e.bars) - 1; p > e.bars[last] {
		e.bars[last] = p
	}
}

// Bars returns a snapshot of the live per-repetition peak-power estimates,
// one value per repetition detected so far including the in-progress one.
func (e *Engine) Bars() []float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]float64, len(e.bars))
	copy(out, e.bars)
	return out
}

// Raw returns a copy of the raw sample buffer collected so far.
func (e *Engine) Raw() dsp.DataSet {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return dsp.DataSet{X: e.rawX, Y: e.rawY}.Clone()
}

// Finish stops acquisition and runs the offline analysis over everything
// collected. The error is ErrInvalidMeasurement when too few repetitions
// were performed, or wraps dsp.ErrFilterUnstable when the zero-phase filter
// failed, in which case the run must be abandoned.
func (e *Engine) Finish() (*Report, error) {
	e.Stop()

	e.mu.RLock()
	raw := dsp.DataSet{X: e.rawX, Y: e.rawY}.Clone()
	boundaries := make([]float64, len(e.boundaries))
	copy(boundaries, e.boundaries)
	run := e.run
	startedAt := e.startedAt
	e.mu.RUnlock()

	rep, err := Analyze(raw, boundaries, run, e.cfg)
	if err != nil {
		return nil, err
	}
	rep.StartedAt = startedAt
	return rep, nil
}
