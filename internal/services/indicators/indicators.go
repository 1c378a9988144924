// Package indicators holds the pure numeric functions the scorers are built on.
// Every function degrades to a documented neutral value instead of returning
// NaN, Inf or panicking on short or degenerate input.
package indicators

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// NeutralRSI is returned when there is not enough data or the window is flat.
const NeutralRSI = 50.0

// SMA returns the mean of the last min(n, len(prices)) elements.
func SMA(prices []float64, n int) float64 {
	if len(prices) == 0 || n <= 0 {
		return 0
	}
	if n > len(prices) {
		n = len(prices)
	}
	return stat.Mean(prices[len(prices)-n:], nil)
}

// EMA is seeded with prices[0] and runs over the whole series; the period
// only sets the smoothing factor k = 2/(period+1).
func EMA(prices []float64, period int) float64 {
	if len(prices) == 0 {
		return 0
	}
	if period < 1 {
		period = 1
	}
	k := 2 / float64(period+1)
	ema := prices[0]
	for _, p := range prices[1:] {
		ema = p*k + ema*(1-k)
	}
	return ema
}

// RSI computes the relative strength index over the last period+1 prices.
// It returns NeutralRSI when len(prices) < period+1, and 100 when there are
// gains but no losses. A flat window has neither, so it is NeutralRSI rather
// than 100 even though it is non-decreasing; a constant series reads as
// neutral, not overbought.
func RSI(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period+1 {
		return NeutralRSI
	}
	window := prices[len(prices)-period-1:]
	var gains, losses float64
	for i := 1; i < len(window); i++ {
		d := window[i] - window[i-1]
		switch {
		case d > 0:
			gains += d
		case d < 0:
			losses -= d
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		if avgGain == 0 {
			return NeutralRSI
		}
		return 100
	}
	return 100 - 100/(1+avgGain/avgLoss)
}

// MACDLite is EMA(3) - EMA(6), or 0 below six points.
func MACDLite(prices []float64) float64 {
	if len(prices) < 6 {
		return 0
	}
	return EMA(prices, 3) - EMA(prices, 6)
}

// regressionSlope is the OLS slope of price against index 0..n-1.
func regressionSlope(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}
	_, beta := stat.LinearRegression(index(len(prices)), prices, nil, false)
	if math.IsNaN(beta) || math.IsInf(beta, 0) {
		return 0
	}
	return beta
}

// LinearSlope is the regression slope divided by the last price, i.e. a
// fractional per-step change comparable across assets.
func LinearSlope(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	last := prices[len(prices)-1]
	if last == 0 {
		last = 1
	}
	return regressionSlope(prices) / last
}

// MeanNormalizedSlope is the absolute regression slope divided by the mean
// price. The risk scorer uses it as its momentum measure.
func MeanNormalizedSlope(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	mean := stat.Mean(prices, nil)
	if mean == 0 {
		mean = 1
	}
	return math.Abs(regressionSlope(prices) / mean)
}

// SupportResistance returns the min and max of the window.
func SupportResistance(prices []float64) (support, resistance float64) {
	if len(prices) == 0 {
		return 0, 0
	}
	return floats.Min(prices), floats.Max(prices)
}

// LinearR2 is the squared Pearson correlation between index and price.
// Zero below three points or when either series has no variance.
func LinearR2(prices []float64) float64 {
	if len(prices) < 3 {
		return 0
	}
	xs := index(len(prices))
	if stat.PopVariance(xs, nil) == 0 || stat.PopVariance(prices, nil) == 0 {
		return 0
	}
	r := stat.Correlation(xs, prices, nil)
	if math.IsNaN(r) {
		return 0
	}
	return r * r
}

// TrendConsistency is the fraction of consecutive price differences that
// share the same sign. Zero below three prices.
func TrendConsistency(prices []float64) float64 {
	if len(prices) < 3 {
		return 0
	}
	diffs := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		diffs[i-1] = prices[i] - prices[i-1]
	}
	same := 0
	for i := 1; i < len(diffs); i++ {
		if sign(diffs[i]) == sign(diffs[i-1]) {
			same++
		}
	}
	return float64(same) / float64(len(diffs)-1)
}

// DailyReturns returns (p-prev)/prev, dividing by 1 when prev is 0.
func DailyReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}
	out := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		prev := prices[i-1]
		if prev == 0 {
			prev = 1
		}
		out[i-1] = (prices[i] - prices[i-1]) / prev
	}
	return out
}

// StdDev is the population standard deviation.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.PopStdDev(values, nil)
}

// MaxDrawdown is the largest (peak-p)/peak over the running peak, as a fraction.
func MaxDrawdown(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	peak := prices[0]
	var dd float64
	for _, p := range prices {
		if p > peak {
			peak = p
		}
		if peak <= 0 {
			continue
		}
		if d := (peak - p) / peak; d > dd {
			dd = d
		}
	}
	return dd
}

// Round rounds half-up to the given number of decimal places.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Floor(x*p+0.5) / p
}

// RoundInt rounds half-up to the nearest integer.
func RoundInt(x float64) int {
	return int(math.Floor(x + 0.5))
}

// Compare returns -1, 0 or 1, treating values within a relative 1e-9 as equal.
func Compare(a, b float64) int {
	tol := 1e-9 * math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	switch d := a - b; {
	case d > tol:
		return 1
	case d < -tol:
		return -1
	default:
		return 0
	}
}

func sign(x float64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

func index(n int) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	return xs
}
