package dsp

// Gradient computes the numerical derivative dy/dx using central differences
// at interior points and one-sided differences at the two endpoints. The x
// grid may be non-uniform.
func Gradient(y, x []float64) []float64 {
	n := len(y)
	g := make([]float64, n)
	if n < 2 {
		return g
	}

	g[0] = (y[1] - y[0]) / (x[1] - x[0])
	for i := 1; i < n-1; i++ {
		g[i] = (y[i+1] - y[i-1]) / (x[i+1] - x[i-1])
	}
	g[n-1] = (y[n-1] - y[n-2]) / (x[n-1] - x[n-2])
	return g
}
