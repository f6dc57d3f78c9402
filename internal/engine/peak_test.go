package engine

import "testing"

func TestPickPeak(t *testing.T) {
	cases := []struct {
		name string
		v    []float64
		want float64
	}{
		{name: "empty", v: nil, want: 0},
		{name: "single", v: []float64{3}, want: 3},
		{name: "monotone no interior maximum", v: []float64{1, 2, 3, 4}, want: 4},
		{name: "unimodal", v: []float64{0, 2, 5, 2, 0}, want: 5},
		// Last interior maximum is also the global one; back off to the
		// previous maximum, which passes the 90% check.
		{name: "two maxima last is global", v: []float64{0, 9.5, 0, 10, 0}, want: 9.5},
		// Backed-off candidate below 90% of the global: fall back.
		{name: "two maxima second too small", v: []float64{0, 8, 0, 10, 0}, want: 10},
		// Last maximum is not the global one and passes the 90% check.
		{name: "late shoulder", v: []float64{0, 10, 0, 9.5, 0}, want: 9.5},
		// Last maximum well below the global: fall back.
		{name: "late shoulder too small", v: []float64{0, 10, 0, 4, 0}, want: 10},
		// Single interior maximum equal to the global: no earlier maximum
		// to back off to, keep it.
		{name: "single interior maximum", v: []float64{0, 5, 0, 1, 2}, want: 5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := pickPeak(tc.v); got != tc.want {
				t.Fatalf("pickPeak(%v) = %g, want %g", tc.v, got, tc.want)
			}
		})
	}
}
