package models

// Requests for prediction endpoints and the async request topic.

type AnalyzeRequest struct {
	Symbol    string   `json:"symbol" validate:"required,max=15"`
	Days      int      `json:"days" default:"10" validate:"gte=7,lte=14"`
	Headlines []string `json:"headlines" validate:"max=25,dive,max=300"`
}

type SupportedSymbol struct {
	Symbol    string  `json:"symbol"`
	BasePrice float64 `json:"basePrice"`
}
