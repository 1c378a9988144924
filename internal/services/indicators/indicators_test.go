package indicators

import (
	"math"
	"testing"
)

func approx(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestSMA(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		n      int
		want   float64
	}{
		{"window smaller than series", []float64{1, 2, 3, 4, 5, 6}, 3, 5},
		{"window larger than series uses all", []float64{2, 4, 6, 8, 10, 12}, 10, 7},
		{"empty", nil, 5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SMA(tt.prices, tt.n); !approx(got, tt.want, 1e-12) {
				t.Fatalf("SMA=%v want %v", got, tt.want)
			}
		})
	}
}

func TestEMARunsOverWholeSeries(t *testing.T) {
	prices := []float64{10, 11, 12}
	// k = 0.5: 10 -> 10.5 -> 11.25
	if got := EMA(prices, 3); !approx(got, 11.25, 1e-12) {
		t.Fatalf("EMA=%v want 11.25", got)
	}

	// Prepending history changes the result even though the period is the same.
	longer := append([]float64{1, 1, 1}, prices...)
	if approx(EMA(longer, 3), EMA(prices, 3), 1e-9) {
		t.Fatalf("expected EMA to depend on full series")
	}
}

func TestRSI(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		period int
		want   float64
	}{
		{"too short is neutral", []float64{1, 2, 3}, 7, 50},
		{"only gains", []float64{100, 101, 102, 103, 104, 105, 106}, 6, 100},
		// no losses, yet no gains either: flat reads neutral, not 100,
		// so a constant series classifies NEUTRAL instead of overbought
		{"flat is neutral", []float64{100, 100, 100, 100, 100}, 4, 50},
		{"flat then rise has no losses", []float64{100, 100, 100, 100, 101}, 4, 100},
		{"only losses", []float64{100, 90, 80, 70, 60}, 4, 0},
		// gains 2, losses 1 over period 2 -> rs 2 -> 66.67
		{"mixed", []float64{10, 12, 11}, 2, 100 - 100.0/3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RSI(tt.prices, tt.period); !approx(got, tt.want, 1e-9) {
				t.Fatalf("RSI=%v want %v", got, tt.want)
			}
		})
	}
}

func TestMACDLite(t *testing.T) {
	if got := MACDLite([]float64{1, 2, 3, 4, 5}); got != 0 {
		t.Fatalf("expected 0 below six points, got %v", got)
	}
	if got := MACDLite([]float64{1, 2, 3, 4, 5, 6}); got <= 0 {
		t.Fatalf("expected positive MACD on rising series, got %v", got)
	}
	if got := MACDLite([]float64{6, 5, 4, 3, 2, 1}); got >= 0 {
		t.Fatalf("expected negative MACD on falling series, got %v", got)
	}
}

func TestLinearSlope(t *testing.T) {
	// slope 1 per step, last price 106
	if got := LinearSlope([]float64{100, 101, 102, 103, 104, 105, 106}); !approx(got, 1.0/106, 1e-12) {
		t.Fatalf("slope=%v", got)
	}
	if got := LinearSlope([]float64{5, 5, 5}); !approx(got, 0, 1e-15) {
		t.Fatalf("flat slope=%v", got)
	}
	if got := LinearSlope([]float64{42}); got != 0 {
		t.Fatalf("single point slope=%v", got)
	}
	// zero last price divides by 1
	if got := LinearSlope([]float64{2, 1, 0}); !approx(got, -1, 1e-12) {
		t.Fatalf("zero-last slope=%v", got)
	}
}

func TestMeanNormalizedSlope(t *testing.T) {
	// slope -10, mean 80
	if got := MeanNormalizedSlope([]float64{100, 90, 80, 70, 60}); !approx(got, 0.125, 1e-12) {
		t.Fatalf("got %v", got)
	}
}

func TestSupportResistance(t *testing.T) {
	s, r := SupportResistance([]float64{3, 9, 1, 4})
	if s != 1 || r != 9 {
		t.Fatalf("got %v %v", s, r)
	}
}

func TestLinearR2(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		want   float64
	}{
		{"two points", []float64{1, 2}, 0},
		{"flat", []float64{4, 4, 4, 4}, 0},
		{"perfect line", []float64{1, 2, 3, 4, 5}, 1},
		// corr(0..2, [1,3,2]) = 0.5
		{"noisy", []float64{1, 3, 2}, 0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LinearR2(tt.prices); !approx(got, tt.want, 1e-9) {
				t.Fatalf("R2=%v want %v", got, tt.want)
			}
		})
	}
}

func TestTrendConsistency(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		want   float64
	}{
		{"two points", []float64{1, 2}, 0},
		{"monotone", []float64{1, 2, 3, 4}, 1},
		{"alternating", []float64{1, 2, 1, 2, 1}, 0},
		{"half", []float64{1, 2, 3, 2}, 0.5},
		{"flat counts as same sign", []float64{5, 5, 5}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrendConsistency(tt.prices); !approx(got, tt.want, 1e-12) {
				t.Fatalf("consistency=%v want %v", got, tt.want)
			}
		})
	}
}

func TestDailyReturnsAndStdDev(t *testing.T) {
	r := DailyReturns([]float64{0, 2, 4})
	if len(r) != 2 || r[0] != 2 || r[1] != 1 {
		t.Fatalf("returns=%v", r)
	}
	if got := StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}); !approx(got, 2, 1e-12) {
		t.Fatalf("population stddev=%v want 2", got)
	}
	if got := StdDev(nil); got != 0 {
		t.Fatalf("empty stddev=%v", got)
	}
}

func TestMaxDrawdown(t *testing.T) {
	if got := MaxDrawdown([]float64{100, 90, 80, 70, 60}); !approx(got, 0.4, 1e-12) {
		t.Fatalf("dd=%v", got)
	}
	if got := MaxDrawdown([]float64{100, 120, 90, 130}); !approx(got, 0.25, 1e-12) {
		t.Fatalf("dd=%v", got)
	}
	if got := MaxDrawdown([]float64{0, 0, 0}); got != 0 {
		t.Fatalf("zero peak dd=%v", got)
	}
}

func TestRoundHalfUp(t *testing.T) {
	if got := Round(-0.0005, 3); got != 0 {
		t.Fatalf("Round(-0.0005,3)=%v want 0", got)
	}
	if got := Round(1.005, 2); !approx(got, 1.0, 0.011) {
		t.Fatalf("Round(1.005,2)=%v", got)
	}
	if got := RoundInt(62.5); got != 63 {
		t.Fatalf("RoundInt(62.5)=%v", got)
	}
	if got := RoundInt(-2.5); got != -2 {
		t.Fatalf("RoundInt(-2.5)=%v", got)
	}
}

func TestCompare(t *testing.T) {
	if Compare(100, 100.00000000000001) != 0 {
		t.Fatalf("expected tie within tolerance")
	}
	if Compare(101, 100) != 1 || Compare(99, 100) != -1 {
		t.Fatalf("unexpected ordering")
	}
}
