package engine

import (
	"math"
	"testing"
)

// feed pushes a synthetic run into the engine: one second of idle flywheel
// followed by nReps one-second repetitions of f(t) = 2.5 - 2*cos(2*pi*t),
// which dips to 0.5 Hz between repetitions and peaks at 4.5 Hz.
func feed(e *Engine, nReps int) {
	const dt = 0.01
	t := 0.0
	for ; t < 1.0; t += dt {
		e.Add(t, 0.4)
	}
	end := 1.0 + float64(nReps)
	for ; t < end; t += dt {
		e.Add(t, 2.5-2*math.Cos(2*math.Pi*(t-1.0)))
	}
}

func TestAddIgnoredBeforeStart(t *testing.T) {
	e := New(DefaultConfig())
	e.Add(0, 2.0)
	e.Add(0.01, 2.5)
	if n := e.Raw().Len(); n != 0 {
		t.Fatalf("engine buffered %d samples without a run", n)
	}
	if b := e.Bars(); len(b) != 0 {
		t.Fatalf("bars = %v without a run", b)
	}
}

func TestNoBarsBelowStartThreshold(t *testing.T) {
	e := New(DefaultConfig())
	e.Start(RunConfig{Weight: 80, Load: 0.05})
	for i := 0; i < 200; i++ {
		e.Add(float64(i)*0.01, 0.4)
	}
	if b := e.Bars(); len(b) != 0 {
		t.Fatalf("bars = %v while below the start threshold", b)
	}
	if n := e.Raw().Len(); n != 200 {
		t.Fatalf("raw buffer has %d samples, want 200", n)
	}
}

func TestBarSlotPerRepetition(t *testing.T) {
	for _, nReps := range []int{1, 3, 5} {
		e := New(DefaultConfig())
		e.Start(RunConfig{Weight: 80, Load: 0.05})
		feed(e, nReps)

		bars := e.Bars()
		if len(bars) != nReps {
			t.Fatalf("nReps=%d: got %d bars, want %d", nReps, len(bars), nReps)
		}
		for i, b := range bars {
			if b <= 0 {
				t.Fatalf("nReps=%d: bar %d = %g, want > 0", nReps, i, b)
			}
		}
	}
}

func TestBarsNonDecreasing(t *testing.T) {
	// Each bar is a running maximum: it may only grow while its repetition
	// is live and must freeze once the next one starts.
	e := New(DefaultConfig())
	e.Start(RunConfig{Weight: 80, Load: 0.05})

	var prev []float64
	const dt = 0.01
	for t0 := 0.0; t0 < 4.0; t0 += dt {
		f := 0.4
		if t0 >= 1.0 {
			f = 2.5 - 2*math.Cos(2*math.Pi*(t0-1.0))
		}
		e.Add(t0, f)

		bars := e.Bars()
		if len(bars) < len(prev) {
			t.Fatalf("bar slots shrank: %d -> %d", len(prev), len(bars))
		}
		for i := range prev {
			if bars[i] < prev[i] {
				t.Fatalf("bar %d decreased: %g -> %g", i, prev[i], bars[i])
			}
		}
		prev = bars
	}
}

func TestHysteresisHoldsRepetition(t *testing.T) {
	// The frequency dips below the upper bound but never below the lower
	// one, so no new repetition may open.
	e := New(DefaultConfig())
	e.Start(RunConfig{Weight: 80, Load: 0.05})
	t0 := 0.0
	for ; t0 < 0.5; t0 += 0.01 {
		e.Add(t0, 2.0) // start the first repetition
	}
	for k := 0; k < 4; k++ {
		for dt := 0.0; dt < 0.5; dt += 0.01 {
			e.Add(t0, 0.95)
			t0 += 0.01
		}
		for dt := 0.0; dt < 0.5; dt += 0.01 {
			e.Add(t0, 2.0)
			t0 += 0.01
		}
	}
	if b := e.Bars(); len(b) != 1 {
		t.Fatalf("got %d bars, want 1 (hysteresis must hold)", len(b))
	}
}

func TestBarsReturnsCopy(t *testing.T) {
	e := New(DefaultConfig())
	e.Start(RunConfig{Weight: 80, Load: 0.05})
	feed(e, 2)

	bars := e.Bars()
	orig := bars[0]
	bars[0] = -1
	if again := e.Bars(); again[0] != orig {
		t.Fatalf("mutating the snapshot changed the engine: %g != %g", again[0], orig)
	}
}

func TestStopFreezesBuffer(t *testing.T) {
	e := New(DefaultConfig())
	e.Start(RunConfig{Weight: 80, Load: 0.05})
	feed(e, 1)
	n := e.Raw().Len()

	e.Stop()
	e.Add(100, 3.0)
	if got := e.Raw().Len(); got != n {
		t.Fatalf("buffer grew after Stop: %d -> %d", n, got)
	}
	if e.Running() {
		t.Fatal("Running() = true after Stop")
	}
}

func TestStartClearsPreviousRun(t *testing.T) {
	e := New(DefaultConfig())
	e.Start(RunConfig{Weight: 80, Load: 0.05})
	feed(e, 3)

	e.Start(RunConfig{Weight: 80, Load: 0.05})
	if n := e.Raw().Len(); n != 0 {
		t.Fatalf("raw buffer kept %d samples across Start", n)
	}
	if b := e.Bars(); len(b) != 0 {
		t.Fatalf("bars kept %v across Start", b)
	}
}
