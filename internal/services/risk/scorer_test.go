package risk

import (
	"math/rand"
	"reflect"
	"testing"

	"FinCast/internal/domain/models"
)

func TestCalculateSteepDecline(t *testing.T) {
	res := Calculate([]float64{100, 90, 80, 70, 60}, -0.8)

	want := models.RiskResult{
		Score: 62,
		Level: models.RiskHigh,
		Factors: &models.RiskFactors{
			VolatilityScore: 24,
			DrawdownScore:   100,
			MomentumRisk:    100,
			SentimentRisk:   45,
		},
	}
	if !reflect.DeepEqual(res, want) {
		t.Fatalf("got %+v (%+v) want %+v", res, *res.Factors, want)
	}
}

func TestCalculateDefaults(t *testing.T) {
	for _, prices := range [][]float64{nil, {100}} {
		res := Calculate(prices, 0.5)
		if res.Score != 50 || res.Level != models.RiskMedium || res.Factors != nil {
			t.Fatalf("unexpected default %+v", res)
		}
	}
}

func TestCalculateTwoPoints(t *testing.T) {
	res := Calculate([]float64{50, 55}, 0)
	if res.Factors == nil {
		t.Fatalf("expected computed factors for two points")
	}
	// single return has zero spread, no drawdown, steep slope and neutral sentiment
	if res.Factors.VolatilityScore != 0 || res.Factors.DrawdownScore != 0 ||
		res.Factors.MomentumRisk != 100 || res.Factors.SentimentRisk != 25 {
		t.Fatalf("unexpected factors %+v", *res.Factors)
	}
	if res.Score != 20 || res.Level != models.RiskLow {
		t.Fatalf("unexpected %+v", res)
	}
}

func TestSentimentRiskIsCappedAtFifty(t *testing.T) {
	res := Calculate([]float64{10, 10, 10}, -1)
	if res.Factors.SentimentRisk != 50 {
		t.Fatalf("sentiment risk=%d want 50", res.Factors.SentimentRisk)
	}
	// flat prices: only sentiment contributes, 50*0.2
	if res.Score != 10 || res.Level != models.RiskVeryLow {
		t.Fatalf("unexpected %+v", res)
	}
	if Calculate([]float64{10, 10, 10}, 1).Factors.SentimentRisk != 0 {
		t.Fatalf("expected zero sentiment risk for fully bullish sentiment")
	}
}

func TestLevelBands(t *testing.T) {
	tests := []struct {
		score int
		want  models.RiskLevel
	}{
		{0, models.RiskVeryLow},
		{14, models.RiskVeryLow},
		{15, models.RiskLow},
		{34, models.RiskLow},
		{35, models.RiskMedium},
		{54, models.RiskMedium},
		{55, models.RiskHigh},
		{74, models.RiskHigh},
		{75, models.RiskVeryHigh},
		{100, models.RiskVeryHigh},
	}
	for _, tt := range tests {
		if got := Level(tt.score); got != tt.want {
			t.Fatalf("Level(%d)=%s want %s", tt.score, got, tt.want)
		}
	}
}

func TestCalculateBoundsAndIdempotence(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 500; i++ {
		n := 2 + rng.Intn(13)
		prices := make([]float64, n)
		for j := range prices {
			prices[j] = rng.Float64() * 1000
		}
		s := rng.Float64()*2 - 1

		res := Calculate(prices, s)
		if res.Score < 0 || res.Score > 100 {
			t.Fatalf("score %d out of range for %v", res.Score, prices)
		}
		if res.Level != Level(res.Score) {
			t.Fatalf("level %s inconsistent with %d", res.Level, res.Score)
		}
		if !reflect.DeepEqual(res, Calculate(prices, s)) {
			t.Fatalf("non-deterministic result for %v", prices)
		}
	}
}
