// Package flywheel converts a rotational-frequency series into the physical
// quantities of a flywheel resistance device: angular and linear velocity,
// angular acceleration, force, and power. It is the single source of truth
// for these conversions; both the live estimate and the final analysis go
// through Compute.
package flywheel

import (
	"math"

	"github.com/smartinertia/flywheel/internal/dsp"
)

const (
	// Radius is the shaft radius of the flywheel in meters.
	Radius = 0.015

	// Gravity in m/s².
	Gravity = 9.8
)

// Params configures one computation. Weight is the athlete's body weight in
// kg, Load the selected flywheel inertia moment in kg.
type Params struct {
	Weight float64
	Load   float64

	// DynamicGravity selects the force-formula variant that adds the
	// linear acceleration of the strap to the gravity term:
	// weight*(g + a) instead of weight*g.
	DynamicGravity bool
}

// Quantities holds the derived series, all parallel to Time.
type Quantities struct {
	Time       []float64
	AngularVel []float64 // rad/s
	Velocity   []float64 // m/s
	AngularAcc []float64 // rad/s²
	Force      []float64 // N
	Power      []float64 // W
}

// Compute derives all quantities from a filtered frequency series (X in
// seconds, Y in Hz). Pure and stateless.
func Compute(ds dsp.DataSet, p Params) Quantities {
	n := ds.Len()
	q := Quantities{
		Time:       ds.X,
		AngularVel: make([]float64, n),
		Velocity:   make([]float64, n),
		Force:      make([]float64, n),
		Power:      make([]float64, n),
	}

	for i := 0; i < n; i++ {
		q.AngularVel[i] = 2 * math.Pi * ds.Y[i]
		q.Velocity[i] = q.AngularVel[i] * Radius
	}

	q.AngularAcc = dsp.Gradient(q.AngularVel, ds.X)

	for i := 0; i < n; i++ {
		g := Gravity
		if p.DynamicGravity {
			g += q.AngularAcc[i] * Radius
		}
		q.Force[i] = math.Abs(q.AngularAcc[i]*(p.Load/Radius)) + p.Weight*g
		q.Power[i] = q.Force[i] * q.Velocity[i]
	}
	return q
}
