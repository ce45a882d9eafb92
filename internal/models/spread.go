package models

// SpreadType identifies a two-leg options spread.
type SpreadType string

const (
	SpreadBullCall       SpreadType = "bull_call"
	SpreadBearPut        SpreadType = "bear_put"
	SpreadBullPutCredit  SpreadType = "bull_put_credit"
	SpreadBearCallCredit SpreadType = "bear_call_credit"
	SpreadIronCondor     SpreadType = "iron_condor"
	SpreadStraddle       SpreadType = "straddle"
	SpreadStrangle       SpreadType = "strangle"
)

// ContractMultiplier is the standard equity options multiplier.
const ContractMultiplier = 100

// IsCredit reports whether the spread nets a premium at entry. Only the
// four vertical types are modeled; the multi-leg types are rejected before
// this matters.
func (t SpreadType) IsCredit() bool {
	return t == SpreadBullPutCredit || t == SpreadBearCallCredit
}

// IsVertical reports whether the spread is one of the supported two-leg
// vertical types.
func (t SpreadType) IsVertical() bool {
	switch t {
	case SpreadBullCall, SpreadBearPut, SpreadBullPutCredit, SpreadBearCallCredit:
		return true
	}
	return false
}

// Side returns the chain side the spread's legs come from.
func (t SpreadType) Side() OptionSide {
	switch t {
	case SpreadBullCall, SpreadBearCallCredit:
		return SideCall
	default:
		return SidePut
	}
}

// SpreadAction distinguishes entering and exiting a spread.
type SpreadAction string

const (
	ActionOpen  SpreadAction = "open"
	ActionClose SpreadAction = "close"
)

// SpreadLeg describes one resolved leg of a spread in a result payload.
type SpreadLeg struct {
	Strike       float64  `json:"strike"`
	Bid          *float64 `json:"bid"`
	Ask          *float64 `json:"ask"`
	IV           *float64 `json:"iv,omitempty"` // percentage
	Delta        *float64 `json:"delta,omitempty"`
	Volume       int64    `json:"volume"`
	OpenInterest int64    `json:"open_interest"`
}

// CloseAnalysis holds realized P&L for a closing trade.
type CloseAnalysis struct {
	EntryPrice    float64 `json:"entry_price"`
	CurrentValue  float64 `json:"current_value"`
	PnLPerSpread  float64 `json:"pnl_per_spread"`
	TotalPnL      float64 `json:"total_pnl"`
	PnLPercent    float64 `json:"pnl_percent"`
}

// SpreadResult is the computed economics of a spread trade.
type SpreadResult struct {
	Symbol          string         `json:"symbol"`
	SpreadType      SpreadType     `json:"spread_type"`
	Action          SpreadAction   `json:"action"`
	CurrentPrice    float64        `json:"current_price"`
	Expiration      string         `json:"expiration"`
	DTE             int            `json:"dte"`
	BuyStrike       float64        `json:"buy_strike"`
	SellStrike      float64        `json:"sell_strike"`
	Contracts       int            `json:"contracts"`
	SpreadWidth     float64        `json:"spread_width"`
	BuyLeg          SpreadLeg      `json:"buy_leg"`
	SellLeg         SpreadLeg      `json:"sell_leg"`
	IsCredit        bool           `json:"is_credit"`
	NetPremium      float64        `json:"net_premium"`
	MaxProfit       float64        `json:"max_profit"`
	MaxLoss         float64        `json:"max_loss"`
	RiskRewardRatio float64        `json:"risk_reward_ratio"`
	Breakeven       float64        `json:"breakeven"`
	NetDelta        *float64       `json:"net_delta,omitempty"`
	Close           *CloseAnalysis `json:"close_analysis,omitempty"`
	AIInsight       *AIInsight     `json:"ai_analysis,omitempty"`
}

// AIInsight carries the LLM enrichment for a spread trade. When the model
// response is not valid JSON the raw text is carried forward instead of
// failing the request.
type AIInsight struct {
	Status   string                 `json:"status"`
	Insight  map[string]interface{} `json:"insight,omitempty"`
	RawText  string                 `json:"raw_text,omitempty"`
	ErrorMsg string                 `json:"error,omitempty"`
}
