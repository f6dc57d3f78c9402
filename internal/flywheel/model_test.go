package flywheel

import (
	"math"
	"testing"

	"github.com/smartinertia/flywheel/internal/dsp"
)

func constSeries(n int, dt, f float64) dsp.DataSet {
	ds := dsp.DataSet{X: make([]float64, n), Y: make([]float64, n)}
	for i := range ds.X {
		ds.X[i] = float64(i) * dt
		ds.Y[i] = f
	}
	return ds
}

func TestComputeConstantFrequency(t *testing.T) {
	ds := constSeries(50, 0.001, 2.0)
	p := Params{Weight: 80, Load: 0.05}
	q := Compute(ds, p)

	wantOmega := 2 * math.Pi * 2.0
	wantV := wantOmega * Radius
	wantF := p.Weight * Gravity // acceleration is zero

	for i := range q.Time {
		if math.Abs(q.AngularVel[i]-wantOmega) > 1e-12 {
			t.Fatalf("AngularVel[%d] = %g, want %g", i, q.AngularVel[i], wantOmega)
		}
		if math.Abs(q.Velocity[i]-wantV) > 1e-12 {
			t.Fatalf("Velocity[%d] = %g, want %g", i, q.Velocity[i], wantV)
		}
		if math.Abs(q.AngularAcc[i]) > 1e-9 {
			t.Fatalf("AngularAcc[%d] = %g, want 0", i, q.AngularAcc[i])
		}
		if math.Abs(q.Force[i]-wantF) > 1e-9 {
			t.Fatalf("Force[%d] = %g, want %g", i, q.Force[i], wantF)
		}
		if want := wantF * wantV; math.Abs(q.Power[i]-want) > 1e-9 {
			t.Fatalf("Power[%d] = %g, want %g", i, q.Power[i], want)
		}
	}
}

func TestComputeLinearRamp(t *testing.T) {
	// f(t) = t gives angular acceleration of exactly 2π everywhere, so the
	// inertial term is constant and easy to check in closed form.
	n := 20
	ds := dsp.DataSet{X: make([]float64, n), Y: make([]float64, n)}
	for i := range ds.X {
		ds.X[i] = float64(i) * 0.01
		ds.Y[i] = ds.X[i]
	}
	p := Params{Weight: 70, Load: 0.025}
	q := Compute(ds, p)

	acc := 2 * math.Pi
	wantF := acc*(p.Load/Radius) + p.Weight*Gravity
	for i := range q.Time {
		if math.Abs(q.AngularAcc[i]-acc) > 1e-9 {
			t.Fatalf("AngularAcc[%d] = %g, want %g", i, q.AngularAcc[i], acc)
		}
		if math.Abs(q.Force[i]-wantF) > 1e-9 {
			t.Fatalf("Force[%d] = %g, want %g", i, q.Force[i], wantF)
		}
	}
}

func TestComputeDynamicGravity(t *testing.T) {
	n := 20
	ds := dsp.DataSet{X: make([]float64, n), Y: make([]float64, n)}
	for i := range ds.X {
		ds.X[i] = float64(i) * 0.01
		ds.Y[i] = ds.X[i] // acceleration 2π rad/s²
	}
	p := Params{Weight: 70, Load: 0.025, DynamicGravity: true}
	q := Compute(ds, p)

	acc := 2 * math.Pi
	g := Gravity + acc*Radius
	wantF := acc*(p.Load/Radius) + p.Weight*g
	for i := range q.Time {
		if math.Abs(q.Force[i]-wantF) > 1e-9 {
			t.Fatalf("Force[%d] = %g, want %g", i, q.Force[i], wantF)
		}
	}
}

func TestComputeForceNonNegativeAcceleration(t *testing.T) {
	// Decelerating flywheel: the inertial term enters as a magnitude.
	n := 20
	ds := dsp.DataSet{X: make([]float64, n), Y: make([]float64, n)}
	for i := range ds.X {
		ds.X[i] = float64(i) * 0.01
		ds.Y[i] = 5 - ds.X[i]
	}
	p := Params{Weight: 70, Load: 0.025}
	q := Compute(ds, p)

	acc := 2 * math.Pi // magnitude
	want := acc*(p.Load/Radius) + p.Weight*Gravity
	for i := range q.Time {
		if math.Abs(q.Force[i]-want) > 1e-9 {
			t.Fatalf("Force[%d] = %g, want %g", i, q.Force[i], want)
		}
	}
}
