package models

import "time"

// PriceSeries is an oldest-first sequence of closing prices.
type PriceSeries []float64

// Last returns the newest price, or 0 for an empty series.
func (s PriceSeries) Last() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}

type SentimentLabel string

const (
	SentimentVeryBearish SentimentLabel = "Very Bearish"
	SentimentBearish     SentimentLabel = "Bearish"
	SentimentNeutral     SentimentLabel = "Neutral"
	SentimentBullish     SentimentLabel = "Bullish"
	SentimentVeryBullish SentimentLabel = "Very Bullish"
)

// SentimentSignal is produced outside the scoring core; only Score is read by it.
type SentimentSignal struct {
	Score     float64        `json:"score"`
	Label     SentimentLabel `json:"label"`
	Breakdown string         `json:"breakdown"`
}

// NeutralSentiment is the substitute used when no signal is available.
func NeutralSentiment(breakdown string) SentimentSignal {
	return SentimentSignal{Score: 0, Label: SentimentNeutral, Breakdown: breakdown}
}

type Direction string

const (
	DirectionBullish Direction = "BULLISH"
	DirectionBearish Direction = "BEARISH"
	DirectionNeutral Direction = "NEUTRAL"
)

type Indicators struct {
	SMA5        float64 `json:"sma5"`
	SMA10       float64 `json:"sma10"`
	EMA7        float64 `json:"ema7"`
	RSI         int     `json:"rsi"`
	MACD        float64 `json:"macd"`
	LinearSlope float64 `json:"linearSlope"`
}

type PriceRange struct {
	Current       float64 `json:"current"`
	Target7d      float64 `json:"target7d"`
	TargetHigh    float64 `json:"targetHigh"`
	TargetLow     float64 `json:"targetLow"`
	ChangePercent float64 `json:"changePercent"`
}

type TrendResult struct {
	Direction    Direction  `json:"direction"`
	BullishPct   int        `json:"bullishPct"`
	BearishPct   int        `json:"bearishPct"`
	BullishVotes int        `json:"bullishVotes"`
	BearishVotes int        `json:"bearishVotes"`
	Indicators   Indicators `json:"indicators"`
	PriceRange   PriceRange `json:"priceRange"`
	Support      float64    `json:"support"`
	Resistance   float64    `json:"resistance"`
}

type RiskLevel string

const (
	RiskVeryLow  RiskLevel = "Very Low"
	RiskLow      RiskLevel = "Low"
	RiskMedium   RiskLevel = "Medium"
	RiskHigh     RiskLevel = "High"
	RiskVeryHigh RiskLevel = "Very High"
)

type RiskFactors struct {
	VolatilityScore int `json:"volatilityScore"`
	DrawdownScore   int `json:"drawdownScore"`
	MomentumRisk    int `json:"momentumRisk"`
	SentimentRisk   int `json:"sentimentRisk"`
}

// RiskResult. Factors is nil for the insufficient-data default.
type RiskResult struct {
	Score   int          `json:"score"`
	Level   RiskLevel    `json:"level"`
	Factors *RiskFactors `json:"factors,omitempty"`
}

type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

type ConfidenceResult struct {
	Score       int    `json:"score"`
	Grade       Grade  `json:"grade"`
	Explanation string `json:"explanation"`
}

type NarrativeSource string

const (
	NarrativeGenerated NarrativeSource = "generated"
	NarrativeTemplate  NarrativeSource = "template"
)

// PredictionReport is assembled fresh for every analysis request.
type PredictionReport struct {
	RequestID       string           `json:"requestId"`
	Symbol          string           `json:"symbol"`
	Days            int              `json:"days"`
	PriceSource     string           `json:"priceSource"`
	Prices          PriceSeries      `json:"prices"`
	Sentiment       SentimentSignal  `json:"sentiment"`
	Trend           TrendResult      `json:"trend"`
	Risk            RiskResult       `json:"risk"`
	Confidence      ConfidenceResult `json:"confidence"`
	Narrative       string           `json:"narrative"`
	NarrativeSource NarrativeSource  `json:"narrativeSource"`
	GeneratedAt     time.Time        `json:"generatedAt"`
}
