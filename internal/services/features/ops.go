package features

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Column operations over float64 slices. NaN marks an undefined value and
// propagates the way a labelled dataframe would propagate it.

var nan = math.NaN()

func isUndefined(v float64) bool { return math.IsNaN(v) || math.IsInf(v, 0) }

func filled(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// padForward carries the last defined value over NaN gaps. Leading NaN stays NaN.
func padForward(x []float64) []float64 {
	out := make([]float64, len(x))
	last := nan
	for i, v := range x {
		if !math.IsNaN(v) {
			last = v
		}
		out[i] = last
	}
	return out
}

// pctChange is x[i]/x[i-n]-1 over a forward-padded copy of x.
func pctChange(x []float64, n int) []float64 {
	p := padForward(x)
	out := filled(len(x), nan)
	for i := n; i < len(p); i++ {
		out[i] = p[i]/p[i-n] - 1
	}
	return out
}

func diff(x []float64) []float64 {
	out := filled(len(x), nan)
	for i := 1; i < len(x); i++ {
		out[i] = x[i] - x[i-1]
	}
	return out
}

// clipLower replaces values below lo with lo; NaN is kept.
func clipLower(x []float64, lo float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		if !math.IsNaN(v) && v < lo {
			v = lo
		}
		out[i] = v
	}
	return out
}

// clipUpper replaces values above hi with hi; NaN is kept.
func clipUpper(x []float64, hi float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		if !math.IsNaN(v) && v > hi {
			v = hi
		}
		out[i] = v
	}
	return out
}

// rolling applies fn to every full window of n values. A window holding NaN yields NaN.
func rolling(x []float64, n int, fn func(w []float64) float64) []float64 {
	out := filled(len(x), nan)
	if n <= 0 {
		return out
	}
	for i := n - 1; i < len(x); i++ {
		w := x[i-n+1 : i+1]
		if hasNaN(w) {
			continue
		}
		out[i] = fn(w)
	}
	return out
}

func hasNaN(w []float64) bool {
	for _, v := range w {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

func rollingMean(x []float64, n int) []float64 {
	return rolling(x, n, func(w []float64) float64 { return floats.Sum(w) / float64(len(w)) })
}

// rollingStd is the sample standard deviation (n-1 denominator).
func rollingStd(x []float64, n int) []float64 {
	return rolling(x, n, func(w []float64) float64 { return stat.StdDev(w, nil) })
}

func rollingMin(x []float64, n int) []float64 {
	return rolling(x, n, floats.Min)
}

func rollingMax(x []float64, n int) []float64 {
	return rolling(x, n, floats.Max)
}

// rollingCorr is the Pearson correlation of x and y over windows of n aligned points.
func rollingCorr(x, y []float64, n int) []float64 {
	out := filled(len(x), nan)
	if n <= 1 || len(x) != len(y) {
		return out
	}
	for i := n - 1; i < len(x); i++ {
		wx, wy := x[i-n+1:i+1], y[i-n+1:i+1]
		if hasNaN(wx) || hasNaN(wy) {
			continue
		}
		out[i] = stat.Correlation(wx, wy, nil)
	}
	return out
}

// ema is the exponentially weighted mean with alpha = 2/(span+1).
// With adjust the weights are normalised over the whole history; without it
// the recursion y = (1-alpha)*y + alpha*x is used. NaN inputs carry the
// previous output forward and decay the old weight across the gap.
func ema(x []float64, span float64, adjust bool) []float64 {
	out := filled(len(x), nan)
	if len(x) == 0 {
		return out
	}
	alpha := 2 / (span + 1)
	oldWtFactor := 1 - alpha
	newWt := 1.0
	if !adjust {
		newWt = alpha
	}

	weighted := x[0]
	oldWt := 1.0
	out[0] = weighted
	for i := 1; i < len(x); i++ {
		cur := x[i]
		observed := !math.IsNaN(cur)
		switch {
		case !math.IsNaN(weighted):
			oldWt *= oldWtFactor
			if observed {
				if weighted != cur {
					weighted = (oldWt*weighted + newWt*cur) / (oldWt + newWt)
				}
				if adjust {
					oldWt += newWt
				} else {
					oldWt = 1
				}
			}
		case observed:
			weighted = cur
		}
		out[i] = weighted
	}
	return out
}

// cumSum accumulates defined values. Undefined positions stay NaN while the running sum continues.
func cumSum(x []float64) []float64 {
	out := make([]float64, len(x))
	sum := 0.0
	for i, v := range x {
		if math.IsNaN(v) {
			out[i] = nan
			continue
		}
		sum += v
		out[i] = sum
	}
	return out
}

func zip(a, b []float64, fn func(x, y float64) float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = fn(a[i], b[i])
	}
	return out
}

func mapf(a []float64, fn func(x float64) float64) []float64 {
	out := make([]float64, len(a))
	for i, v := range a {
		out[i] = fn(v)
	}
	return out
}

func sub(a, b []float64) []float64 { return zip(a, b, func(x, y float64) float64 { return x - y }) }
func mul(a, b []float64) []float64 { return zip(a, b, func(x, y float64) float64 { return x * y }) }
func div(a, b []float64) []float64 { return zip(a, b, func(x, y float64) float64 { return x / y }) }
