package models

// RiskResponse is the full options chain risk analysis payload.
type RiskResponse struct {
	Symbol               string         `json:"symbol"`
	Timestamp            string         `json:"timestamp"`
	CurrentPrice         float64        `json:"current_price"`
	ExpirationDate       string         `json:"expiration_date"`
	DaysToExpiration     int            `json:"days_to_expiration"`
	AvailableExpirations []string       `json:"available_expirations"`
	Calls                *ChainAnalysis `json:"calls,omitempty"`
	Puts                 *ChainAnalysis `json:"puts,omitempty"`
	PutCallRatio         *PutCallRatio  `json:"put_call_ratio,omitempty"`
	RiskWarnings         []string       `json:"risk_warnings"`
	Opportunities        []string       `json:"opportunities"`
	LiquidityThreshold   int            `json:"liquidity_threshold"`
}

// SummaryResponse is a quick options snapshot for a symbol.
type SummaryResponse struct {
	Symbol             string   `json:"symbol"`
	Timestamp          string   `json:"timestamp"`
	CurrentPrice       float64  `json:"current_price"`
	NearestExpiration  string   `json:"nearest_expiration"`
	DaysToExpiration   int      `json:"days_to_expiration"`
	ATMCallIV          *float64 `json:"atm_call_iv,omitempty"`
	ATMPutIV           *float64 `json:"atm_put_iv,omitempty"`
	PutCallRatioVolume *float64 `json:"put_call_ratio_volume,omitempty"`
	TotalCallVolume    int64    `json:"total_call_volume"`
	TotalPutVolume     int64    `json:"total_put_volume"`
	Sentiment          string   `json:"sentiment"`  // bullish, bearish, neutral
	RiskLevel          string   `json:"risk_level"` // low, medium, high
}

// VehicleResponse wraps a recommendation with its market context.
type VehicleResponse struct {
	VehicleRecommendation
	Symbol           string           `json:"symbol"`
	VolatilityRegime VolatilityRegime `json:"volatility_regime"`
	Timestamp        string           `json:"timestamp"`
}

// SymbolComparison holds one symbol's metrics in a multi-symbol comparison.
type SymbolComparison struct {
	Symbol          string   `json:"symbol" csv:"symbol"`
	CurrentPrice    float64  `json:"current_price" csv:"current_price"`
	ATMIV           *float64 `json:"atm_iv,omitempty" csv:"atm_iv"`
	PutCallRatio    *float64 `json:"put_call_ratio,omitempty" csv:"put_call_ratio"`
	TotalVolume     int64    `json:"total_volume" csv:"total_volume"`
	LiquidContracts int      `json:"liquid_contracts" csv:"liquid_contracts"`
}

// CompareResponse is the multi-symbol comparison payload. Per-symbol
// failures are reported in Errors without failing the batch.
type CompareResponse struct {
	Timestamp string             `json:"timestamp"`
	Metric    string             `json:"metric"`
	Symbols   []SymbolComparison `json:"symbols"`
	RankedBy  string             `json:"ranked_by"`
	Errors    []string           `json:"errors,omitempty"`
}
