package trend

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"FinCast/internal/domain/models"
)

func TestAnalyzeStrictlyIncreasing(t *testing.T) {
	res, err := Analyze([]float64{100, 101, 102, 103, 104, 105, 106})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Indicators.RSI != 100 {
		t.Fatalf("rsi=%d want 100", res.Indicators.RSI)
	}
	if res.BullishVotes < 5 {
		t.Fatalf("bullish votes=%d want >= 5", res.BullishVotes)
	}
	if res.Direction != models.DirectionBullish {
		t.Fatalf("direction=%s", res.Direction)
	}
	if res.PriceRange.Target7d <= 106 {
		t.Fatalf("target7d=%v want > 106", res.PriceRange.Target7d)
	}

	want := models.TrendResult{
		Direction:    models.DirectionBullish,
		BullishPct:   83,
		BearishPct:   17,
		BullishVotes: 5,
		BearishVotes: 1,
		Indicators: models.Indicators{
			SMA5:        104,
			SMA10:       103,
			EMA7:        103.53,
			RSI:         100,
			MACD:        1.184,
			LinearSlope: 0.0094,
		},
		PriceRange: models.PriceRange{
			Current:       106,
			Target7d:      113,
			TargetHigh:    115.82,
			TargetLow:     110.18,
			ChangePercent: 6.6,
		},
		Support:    100,
		Resistance: 106,
	}
	if !reflect.DeepEqual(res, want) {
		t.Fatalf("unexpected result\n got: %+v\nwant: %+v", res, want)
	}
}

func TestAnalyzeFlatSeriesIsNeutral(t *testing.T) {
	res, err := Analyze([]float64{100, 100, 100, 100, 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Indicators.RSI != 50 {
		t.Fatalf("rsi=%d want 50", res.Indicators.RSI)
	}
	if res.Indicators.LinearSlope != 0 {
		t.Fatalf("slope=%v want 0", res.Indicators.LinearSlope)
	}
	if res.BullishVotes != 0 || res.BearishVotes != 0 {
		t.Fatalf("expected no votes, got %d/%d", res.BullishVotes, res.BearishVotes)
	}
	if res.Direction != models.DirectionNeutral || res.BullishPct != 50 || res.BearishPct != 50 {
		t.Fatalf("unexpected %+v", res)
	}
	if res.PriceRange.Target7d != 100 || res.PriceRange.ChangePercent != 0 {
		t.Fatalf("unexpected price range %+v", res.PriceRange)
	}
}

func TestAnalyzeFlatSeriesWithInexactMean(t *testing.T) {
	res, err := Analyze([]float64{3.3, 3.3, 3.3, 3.3, 3.3, 3.3, 3.3, 3.3, 3.3, 3.3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Direction != models.DirectionNeutral {
		t.Fatalf("direction=%s votes=%d/%d", res.Direction, res.BullishVotes, res.BearishVotes)
	}
}

func TestAnalyzeFallingSeries(t *testing.T) {
	res, err := Analyze([]float64{100, 90, 80, 70, 60})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Direction != models.DirectionBearish {
		t.Fatalf("direction=%s", res.Direction)
	}
	if res.Indicators.RSI != 0 {
		t.Fatalf("rsi=%d want 0", res.Indicators.RSI)
	}
	if res.Support != 60 || res.Resistance != 100 {
		t.Fatalf("support/resistance=%v/%v", res.Support, res.Resistance)
	}
	if res.PriceRange.Target7d != -10 {
		t.Fatalf("target7d=%v", res.PriceRange.Target7d)
	}
}

func TestAnalyzeShortSeries(t *testing.T) {
	res, err := Analyze([]float64{42})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Direction != models.DirectionNeutral || res.PriceRange.Target7d != 42 {
		t.Fatalf("unexpected %+v", res)
	}

	res, err = Analyze([]float64{50, 55})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Direction != models.DirectionBullish {
		t.Fatalf("direction=%s", res.Direction)
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	if _, err := Analyze(nil); !errors.Is(err, ErrEmptySeries) {
		t.Fatalf("expected ErrEmptySeries, got %v", err)
	}
}

func TestAnalyzePercentagesAndBanding(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		n := 2 + rng.Intn(13)
		prices := make([]float64, n)
		p := 50 + rng.Float64()*200
		for j := range prices {
			p *= 1 + (rng.Float64()-0.5)*0.06
			prices[j] = p
		}

		res, err := Analyze(prices)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.BullishPct+res.BearishPct != 100 {
			t.Fatalf("pct sum=%d for %v", res.BullishPct+res.BearishPct, prices)
		}

		raw := 50.0
		if total := res.BullishVotes + res.BearishVotes; total > 0 {
			raw = float64(res.BullishVotes) / float64(total) * 100
		}
		switch {
		case raw >= 60 && res.Direction != models.DirectionBullish,
			raw <= 40 && res.Direction != models.DirectionBearish,
			raw > 40 && raw < 60 && res.Direction != models.DirectionNeutral:
			t.Fatalf("direction %s inconsistent with %.2f%%", res.Direction, raw)
		}

		again, _ := Analyze(prices)
		if !reflect.DeepEqual(res, again) {
			t.Fatalf("non-deterministic result for %v", prices)
		}
	}
}
