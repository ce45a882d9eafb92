package models

// Contract is one row of an options chain as delivered by a market data
// provider. Bid/Ask/Last and the Greeks are optional: some providers omit
// them entirely, and illiquid contracts often have no quotes. Absent volume
// or open interest is normalized to 0 by the provider layer; absent IV and
// delta stay nil because 0 is a meaningful value for delta.
type Contract struct {
	Strike       float64    `json:"strike"`
	Side         OptionSide `json:"side"`
	Volume       int64      `json:"volume"`
	OpenInterest int64      `json:"open_interest"`
	// IV is stored as a fraction of 1.0. Providers that deliver percent
	// values must normalize before the contract reaches the analyzer.
	IV    *float64 `json:"iv,omitempty"`
	Bid   *float64 `json:"bid,omitempty"`
	Ask   *float64 `json:"ask,omitempty"`
	Last  *float64 `json:"last,omitempty"`
	Delta *float64 `json:"delta,omitempty"`
	Gamma *float64 `json:"gamma,omitempty"`
	Theta *float64 `json:"theta,omitempty"`
	Vega  *float64 `json:"vega,omitempty"`
}

// IVValue returns the contract IV fraction, or 0 when unset.
func (c Contract) IVValue() float64 {
	if c.IV == nil {
		return 0
	}
	return *c.IV
}

// BidValue returns the bid, or 0 when unset.
func (c Contract) BidValue() float64 {
	if c.Bid == nil {
		return 0
	}
	return *c.Bid
}

// AskValue returns the ask, or 0 when unset.
func (c Contract) AskValue() float64 {
	if c.Ask == nil {
		return 0
	}
	return *c.Ask
}

// OptionChain holds both sides of a chain for one expiration.
type OptionChain struct {
	Symbol     string     `json:"symbol"`
	Expiration string     `json:"expiration"`
	Calls      []Contract `json:"calls"`
	Puts       []Contract `json:"puts"`
}

// TopVolumeStrike is a top strike ranked by volume.
type TopVolumeStrike struct {
	Strike float64 `json:"strike"`
	Volume int64   `json:"volume"`
	IV     float64 `json:"iv"` // percentage
}

// TopOIStrike is a top strike ranked by open interest.
type TopOIStrike struct {
	Strike       float64 `json:"strike"`
	OpenInterest int64   `json:"open_interest"`
	IV           float64 `json:"iv"` // percentage
}

// ChainAnalysis summarizes a single side of an options chain. All IV fields
// are percentages (fraction x 100). ATM fields are nil when the liquid
// subset is empty.
type ChainAnalysis struct {
	TotalContracts    int               `json:"total_contracts"`
	LiquidContracts   int               `json:"liquid_contracts"`
	TotalVolume       int64             `json:"total_volume"`
	TotalOpenInterest int64             `json:"total_open_interest"`
	AvgIV             float64           `json:"avg_implied_volatility"`
	MaxIV             float64           `json:"max_iv"`
	MinIV             float64           `json:"min_iv"`
	ATMStrike         *float64          `json:"atm_strike,omitempty"`
	ATMIV             *float64          `json:"atm_iv,omitempty"`
	ATMDelta          *float64          `json:"atm_delta,omitempty"`
	TopVolumeStrikes  []TopVolumeStrike `json:"top_volume_strikes"`
	TopOIStrikes      []TopOIStrike     `json:"top_oi_strikes"`
}

// PutCallRatio holds the volume and open-interest put/call ratios. A ratio
// is nil whenever its call-side denominator is zero; the struct itself is
// nil when either side's analysis is absent.
type PutCallRatio struct {
	Volume       *float64 `json:"volume"`
	OpenInterest *float64 `json:"open_interest"`
}
