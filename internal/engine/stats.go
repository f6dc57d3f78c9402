package engine

import (
	"time"

	"github.com/smartinertia/flywheel/internal/dsp"
)

// Metrics holds the twelve statistics of one repetition: peak and mean of
// velocity, force, and power, split into concentric and eccentric phases.
// The same shape describes a whole run, as the arithmetic mean across its
// counted repetitions.
type Metrics struct {
	VConMax  float64 `json:"v_con_max"`
	VEccMax  float64 `json:"v_ecc_max"`
	VConMean float64 `json:"v_con_mean"`
	VEccMean float64 `json:"v_ecc_mean"`

	FConMax  float64 `json:"f_con_max"`
	FEccMax  float64 `json:"f_ecc_max"`
	FConMean float64 `json:"f_con_mean"`
	FEccMean float64 `json:"f_ecc_mean"`

	PConMax  float64 `json:"p_con_max"`
	PEccMax  float64 `json:"p_ecc_max"`
	PConMean float64 `json:"p_con_mean"`
	PEccMean float64 `json:"p_ecc_mean"`
}

// Report is the terminal artifact of a run, handed to persistence and
// display once analysis succeeds.
type Report struct {
	Run       RunConfig `json:"run"`
	StartedAt time.Time `json:"started_at"`

	// Reps holds the counted repetitions in order; Summary averages them.
	Reps    []Metrics `json:"reps"`
	Summary Metrics   `json:"summary"`

	// Partial is set when fewer than the recommended number of
	// repetitions were performed. The statistics are still valid; callers
	// should warn, not block.
	Partial bool `json:"partial"`

	// Raw and Filtered are kept for archival.
	Raw      dsp.DataSet `json:"-"`
	Filtered dsp.DataSet `json:"-"`
}
