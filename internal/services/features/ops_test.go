package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.IsNaN(want) {
		if !math.IsNaN(got) {
			t.Errorf("%s: got %v, want NaN", label, got)
		}
		return
	}
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.10f, want %.10f (tol %g)", label, got, want, tol)
	}
}

func assertSeries(t *testing.T, label string, got, want []float64, tol float64) {
	t.Helper()
	if !assert.Len(t, got, len(want), label) {
		return
	}
	for i := range want {
		assertClose(t, label, got[i], want[i], tol)
	}
}

func TestPctChangePadsGaps(t *testing.T) {
	got := pctChange([]float64{1, nan, 2, 4}, 1)
	assertSeries(t, "pct1", got, []float64{nan, 0, 1, 1}, 1e-12)

	got = pctChange([]float64{10, 11, 12, 15}, 3)
	assertSeries(t, "pct3", got, []float64{nan, nan, nan, 0.5}, 1e-12)
}

func TestDiffAndClip(t *testing.T) {
	d := diff([]float64{1, 3, 2, nan, 5})
	assertSeries(t, "diff", d, []float64{nan, 2, -1, nan, nan}, 1e-12)
	assertSeries(t, "lower", clipLower(d, 0), []float64{nan, 2, 0, nan, nan}, 1e-12)
	assertSeries(t, "upper", clipUpper(d, 0), []float64{nan, 0, -1, nan, nan}, 1e-12)
}

func TestRollingWindows(t *testing.T) {
	x := []float64{1, 2, 3, 4, nan, 6}
	assertSeries(t, "mean", rollingMean(x, 2), []float64{nan, 1.5, 2.5, 3.5, nan, nan}, 1e-12)
	assertSeries(t, "min", rollingMin(x, 3), []float64{nan, nan, 1, 2, nan, nan}, 1e-12)
	assertSeries(t, "max", rollingMax(x, 3), []float64{nan, nan, 3, 4, nan, nan}, 1e-12)
	s := math.Sqrt(0.5)
	assertSeries(t, "std", rollingStd(x, 2), []float64{nan, s, s, s, nan, nan}, 1e-12)
}

func TestRollingCorr(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2, 4, 6, 8, 10}
	neg := []float64{5, 4, 3, 2, 1}
	assertSeries(t, "pos", rollingCorr(x, y, 3), []float64{nan, nan, 1, 1, 1}, 1e-12)
	assertSeries(t, "neg", rollingCorr(x, neg, 3), []float64{nan, nan, -1, -1, -1}, 1e-12)
}

func TestEMA(t *testing.T) {
	x := []float64{1, 2, 3}
	assertSeries(t, "recursive", ema(x, 3, false), []float64{1, 1.5, 2.25}, 1e-12)
	assertSeries(t, "adjusted", ema(x, 3, true), []float64{1, 5.0 / 3.0, 2.4285714285714284}, 1e-12)

	// leading NaN waits for the first observation; gaps carry the last output
	got := ema([]float64{nan, 4, nan, 4}, 3, false)
	assertSeries(t, "gaps", got, []float64{nan, 4, 4, 4}, 1e-12)
}

func TestCumSumSkipsUndefined(t *testing.T) {
	assertSeries(t, "cumsum", cumSum([]float64{1, nan, 2, 3}), []float64{1, nan, 3, 6}, 1e-12)
}

func TestRelativeStrengthWithoutLossesIsUndefined(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = float64(100 + i)
	}
	for i, v := range relativeStrength(closes, rsiWindow) {
		assert.Truef(t, math.IsNaN(v), "row %d: expected undefined, got %v", i, v)
	}
}

func TestAccumulationTermFlatBar(t *testing.T) {
	got := accumulationTerm([]float64{10, 10}, []float64{11, 10}, []float64{9, 10})
	assertClose(t, "normal", got[0], 0, 1e-12)
	assertClose(t, "flat", got[1], nan, 0)
}
