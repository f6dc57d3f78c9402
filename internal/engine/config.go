// Package engine segments the incoming frequency stream into repetitions and
// turns a finished run into per-repetition and aggregate statistics. It is
// fed one sample at a time while a run is live and analyzed in one batch once
// acquisition has stopped.
package engine

// Config collects the tunables of the segmentation and analysis pipeline.
// Defaults match the calibrated values of the measurement rig; tests and the
// config file may override any of them.
type Config struct {
	SamplingFreq float64 // uniform resampling rate, Hz
	CutoffFreq   float64 // low-pass cutoff, Hz

	MinFreq  float64 // frequency that marks the start of the first repetition, Hz
	HystLow  float64 // falling below this enters the descending phase, Hz
	HystHigh float64 // rising back above this starts a new repetition, Hz

	FilterWindow  int     // raw samples in the causal live-estimate window
	MinWindowTime float64 // minimum time span of that window, seconds

	StartRuns   int // leading warm-up repetitions discarded from the report
	CountedRuns int // repetitions counted after the warm-up

	DynamicGravity bool // force-formula variant, see flywheel.Params
}

// DefaultConfig returns the rig's calibrated defaults.
func DefaultConfig() Config {
	return Config{
		SamplingFreq:  1000,
		CutoffFreq:    5,
		MinFreq:       1.0,
		HystLow:       0.9,
		HystHigh:      1.0,
		FilterWindow:  24,
		MinWindowTime: 0.15,
		StartRuns:     3,
		CountedRuns:   6,
	}
}

// RunConfig describes one run, entered before acquisition starts and
// immutable for the run's lifetime.
type RunConfig struct {
	Name          string  `json:"name"`
	Weight        float64 `json:"weight"` // body weight, kg
	Load          float64 `json:"load"`   // flywheel load, kg
	Pulley        bool    `json:"pulley"`
	TargetEnabled bool    `json:"target_enabled"`
	TargetValue   float64 `json:"target_value"`
}
