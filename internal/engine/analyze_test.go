package engine

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

// The synthetic run from feed() has a closed form: f(t) = 2.5 - 2*cos(2*pi*t)
// per repetition, so velocity swings between 2*pi*R*0.5 and 2*pi*R*4.5 with a
// mean of 2*pi*R*2.5 over any half period. With a tiny load the inertial term
// is under 1% of the weight term and force stays close to weight*g, which
// makes every metric checkable in closed form.
const (
	testWeight = 80.0
	testLoad   = 0.001

	radius = 0.015
)

func runReport(t *testing.T, nReps int) (*Report, error) {
	t.Helper()
	e := New(DefaultConfig())
	e.Start(RunConfig{Name: "squat", Weight: testWeight, Load: testLoad})
	feed(e, nReps)
	return e.Finish()
}

func within(t *testing.T, name string, got, want, rel float64) {
	t.Helper()
	if math.Abs(got-want) > rel*math.Abs(want) {
		t.Fatalf("%s = %g, want %g within %g%%", name, got, want, rel*100)
	}
}

func TestFinishTooFewRepetitions(t *testing.T) {
	// StartRuns warm-up repetitions plus at least one counted.
	_, err := runReport(t, 3)
	if !errors.Is(err, ErrInvalidMeasurement) {
		t.Fatalf("err = %v, want ErrInvalidMeasurement", err)
	}
}

func TestFinishPartialRun(t *testing.T) {
	rep, err := runReport(t, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Reps) != 1 {
		t.Fatalf("got %d repetitions, want 1", len(rep.Reps))
	}
	if !rep.Partial {
		t.Fatal("Partial = false for a run with fewer than CountedRuns repetitions")
	}
}

func TestFinishFullRun(t *testing.T) {
	rep, err := runReport(t, 9)
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Reps) != DefaultConfig().CountedRuns {
		t.Fatalf("got %d repetitions, want %d", len(rep.Reps), DefaultConfig().CountedRuns)
	}
	if rep.Partial {
		t.Fatal("Partial = true for a complete run")
	}
}

func TestFinishMetrics(t *testing.T) {
	rep, err := runReport(t, 11)
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Reps) != 6 {
		t.Fatalf("got %d repetitions, want 6", len(rep.Reps))
	}
	if rep.Run.Name != "squat" || rep.Run.Weight != testWeight {
		t.Fatalf("run config not carried through: %+v", rep.Run)
	}
	if rep.StartedAt.IsZero() {
		t.Fatal("StartedAt not set")
	}
	if rep.Raw.Len() == 0 || rep.Filtered.Len() == 0 {
		t.Fatal("raw/filtered series missing from the report")
	}

	vMean := 2 * math.Pi * radius * 2.5   // half-period mean velocity
	vMax := 2 * math.Pi * radius * 4.5    // velocity at peak frequency
	fWeight := testWeight * 9.8           // dominant force term
	pMean := fWeight * vMean              // power tracks velocity at tiny load
	pMax := fWeight * vMax

	for i, m := range rep.Reps {
		t.Logf("rep %d: %+v", i, m)
		within(t, "VConMean", m.VConMean, vMean, 0.03)
		within(t, "VEccMean", m.VEccMean, vMean, 0.03)
		within(t, "VConMax", m.VConMax, vMax, 0.03)
		within(t, "VEccMax", m.VEccMax, vMax, 0.03)

		within(t, "FConMean", m.FConMean, fWeight, 0.01)
		within(t, "FEccMean", m.FEccMean, fWeight, 0.01)
		within(t, "FConMax", m.FConMax, fWeight, 0.02)
		within(t, "FEccMax", m.FEccMax, fWeight, 0.02)

		within(t, "PConMean", m.PConMean, pMean, 0.03)
		within(t, "PEccMean", m.PEccMean, pMean, 0.03)
		within(t, "PConMax", m.PConMax, pMax, 0.03)
		within(t, "PEccMax", m.PEccMax, pMax, 0.03)
	}

	// The summary is the arithmetic mean of the counted repetitions.
	var sum float64
	for _, m := range rep.Reps {
		sum += m.PConMean
	}
	within(t, "Summary.PConMean", rep.Summary.PConMean, sum/float64(len(rep.Reps)), 1e-9)
}

func TestAnalyzeDeterministic(t *testing.T) {
	e := New(DefaultConfig())
	e.Start(RunConfig{Weight: testWeight, Load: testLoad})
	feed(e, 9)
	e.Stop()

	raw := e.Raw()
	boundaries := append([]float64(nil), e.boundaries...)

	a, err := Analyze(raw, boundaries, RunConfig{Weight: testWeight, Load: testLoad}, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	b, err := Analyze(raw, boundaries, RunConfig{Weight: testWeight, Load: testLoad}, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.Reps, b.Reps) || !reflect.DeepEqual(a.Summary, b.Summary) {
		t.Fatal("Analyze is not deterministic over identical input")
	}
}
