package quant

import "math"

// trigamma returns the second derivative of log Γ(x) for x > 0.
func trigamma(x float64) float64 {
	if x <= 0 || math.IsNaN(x) {
		return math.NaN()
	}
	acc := 0.0
	for x < 10 {
		acc += 1 / (x * x)
		x++
	}
	x2 := 1 / (x * x)
	// Asymptotic expansion in 1/x with Bernoulli coefficients.
	return acc + 1/x + x2/2 + x2/x*(1.0/6-x2*(1.0/30-x2*(1.0/42-x2*(1.0/30-x2*(5.0/66-x2*(691.0/2730-x2*7.0/6))))))
}

// tetragamma returns the third derivative of log Γ(x) for x > 0.
func tetragamma(x float64) float64 {
	if x <= 0 || math.IsNaN(x) {
		return math.NaN()
	}
	acc := 0.0
	for x < 10 {
		acc -= 2 / (x * x * x)
		x++
	}
	x2 := 1 / (x * x)
	return acc - x2 - x2/x - x2*x2*(0.5-x2*(1.0/6-x2*(1.0/6-x2*(3.0/10-x2*(5.0/6-x2*(691.0/210-x2*35.0/2))))))
}

// trigammaInverse solves trigamma(y) = x for y by Newton iteration.
func trigammaInverse(x float64) float64 {
	switch {
	case math.IsNaN(x) || x <= 0:
		return math.NaN()
	case x > 1e7:
		return 1 / math.Sqrt(x)
	case x < 1e-6:
		return 1 / x
	}

	y := 0.5 + 1/x
	for iter := 0; iter < 50; iter++ {
		tri := trigamma(y)
		dif := tri * (1 - tri/x) / tetragamma(y)
		y += dif
		if -dif/y < 1e-8 {
			break
		}
	}
	return y
}
