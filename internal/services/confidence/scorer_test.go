package confidence

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinCast/internal/domain/models"
)

func TestCalculateInsufficientData(t *testing.T) {
	for _, prices := range [][]float64{nil, {50}, {50, 55}} {
		res := Calculate(prices, 0.4, models.DirectionBullish, 20)
		assert.Equal(t, Default, res)
	}
	assert.Equal(t, 30, Default.Score)
	assert.Equal(t, models.GradeD, Default.Grade)
	assert.Equal(t, "Insufficient data for confidence analysis.", Default.Explanation)
}

func TestCalculateAlignedDecline(t *testing.T) {
	prices := []float64{100, 90, 80, 70, 60}

	res := Calculate(prices, -0.8, models.DirectionBearish, 62)
	assert.Equal(t, 82, res.Score)
	assert.Equal(t, models.GradeA, res.Grade)

	// same window with sentiment pointing the other way
	res = Calculate(prices, 0.8, models.DirectionBearish, 62)
	assert.Equal(t, 66, res.Score)
	assert.Equal(t, models.GradeB, res.Grade)
}

func TestCalculateFlatNeutral(t *testing.T) {
	prices := make([]float64, 14)
	for i := range prices {
		prices[i] = 100
	}
	res := Calculate(prices, 0, models.DirectionNeutral, 10)
	assert.Equal(t, 57, res.Score)
	assert.Equal(t, models.GradeC, res.Grade)
}

func TestCalculateClampsToUpperBound(t *testing.T) {
	prices := make([]float64, 14)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}
	res := Calculate(prices, 1, models.DirectionBullish, 0)
	require.Equal(t, 95, res.Score)
	assert.Equal(t, models.GradeA, res.Grade)
}

func TestCalculateWeakestSetup(t *testing.T) {
	// zig-zag: R² and consistency are 0, sentiment opposes the call, risk is maxed
	prices := []float64{100, 50, 100}
	res := Calculate(prices, -1, models.DirectionBullish, 100)
	// 3/14*100*0.2 + 20*0.25 + (100-35)*0.05 = 12.54
	assert.Equal(t, 13, res.Score)
	assert.Equal(t, models.GradeF, res.Grade)
}

func TestClampScore(t *testing.T) {
	tests := []struct {
		raw  float64
		want int
	}{
		{-40, 5},
		{0, 5},
		{4.4, 5},
		{5.4, 5},
		{12.54, 13},
		{94.6, 95},
		{130, 95},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, clampScore(tt.raw), "raw %v", tt.raw)
	}
}

func TestCalculateBoundsAndIdempotence(t *testing.T) {
	directions := []models.Direction{models.DirectionBullish, models.DirectionBearish, models.DirectionNeutral}
	rng := rand.New(rand.NewSource(17))
	for i := 0; i < 500; i++ {
		n := 2 + rng.Intn(13)
		prices := make([]float64, n)
		for j := range prices {
			prices[j] = rng.Float64() * 1000
		}
		s := rng.Float64()*2 - 1
		dir := directions[rng.Intn(len(directions))]
		risk := rng.Intn(101)

		res := Calculate(prices, s, dir, risk)
		if res.Score < 5 || res.Score > 95 {
			t.Fatalf("score %d out of range for %v", res.Score, prices)
		}
		if grade, _ := Grade(res.Score); res.Grade != grade {
			t.Fatalf("grade %s inconsistent with %d", res.Grade, res.Score)
		}
		if !reflect.DeepEqual(res, Calculate(prices, s, dir, risk)) {
			t.Fatalf("non-deterministic result for %v", prices)
		}
	}
}

func TestAlignment(t *testing.T) {
	tests := []struct {
		name      string
		sentiment float64
		direction models.Direction
		want      float64
	}{
		{"bullish agrees", 0.5, models.DirectionBullish, 60},
		{"bullish inside dead zone", 0.05, models.DirectionBullish, 20},
		{"bearish agrees", -1, models.DirectionBearish, 100},
		{"bearish disagrees", 0.3, models.DirectionBearish, 20},
		{"neutral", -0.9, models.DirectionNeutral, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, alignment(tt.sentiment, tt.direction), 1e-9)
		})
	}
}

func TestGradeBands(t *testing.T) {
	tests := []struct {
		score int
		want  models.Grade
	}{
		{95, models.GradeA},
		{80, models.GradeA},
		{79, models.GradeB},
		{65, models.GradeB},
		{64, models.GradeC},
		{50, models.GradeC},
		{49, models.GradeD},
		{35, models.GradeD},
		{34, models.GradeF},
		{5, models.GradeF},
	}
	for _, tt := range tests {
		got, explanation := Grade(tt.score)
		assert.Equal(t, tt.want, got, "score %d", tt.score)
		assert.NotEmpty(t, explanation)
	}
}
