// Package spread computes the economics of two-leg vertical option spreads:
// net premium, max profit/loss, breakeven, and realized P&L for closes.
package spread

import (
	"math"

	"chainscope/internal/errors"
	"chainscope/internal/models"
)

// Evaluator computes spread trade metrics. Stateless and safe for
// concurrent use.
type Evaluator struct{}

// NewEvaluator creates a spread evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Request carries the resolved legs and trade parameters for evaluation.
// The legs must already be nearest-strike matches from the correct chain
// side for the spread type.
type Request struct {
	Symbol       string
	SpreadType   models.SpreadType
	Action       models.SpreadAction
	CurrentPrice float64
	Expiration   string
	DTE          int
	BuyLeg       models.Contract
	SellLeg      models.Contract
	Contracts    int
	// EntryPrice is the per-spread entry premium; required for close.
	EntryPrice *float64
}

// Evaluate computes the spread economics. The multi-leg types accepted by
// the wire format (iron_condor, straddle, strangle) are rejected with an
// InvalidInput error until their four-leg economics are modeled.
func (e *Evaluator) Evaluate(req Request) (*models.SpreadResult, error) {
	if !req.SpreadType.IsVertical() {
		switch req.SpreadType {
		case models.SpreadIronCondor, models.SpreadStraddle, models.SpreadStrangle:
			return nil, errors.NewValidationError("spread_type", string(req.SpreadType),
				"multi-leg spread types are not supported yet")
		default:
			return nil, errors.NewValidationError("spread_type", string(req.SpreadType),
				"use: bull_call, bear_put, bull_put_credit, bear_call_credit")
		}
	}
	if req.Contracts < 1 {
		return nil, errors.NewValidationError("contracts", req.Contracts, "must be at least 1")
	}
	if req.Action == models.ActionClose && req.EntryPrice == nil {
		return nil, errors.NewValidationError("entry_price", nil, "required for close action")
	}

	buyStrike := req.BuyLeg.Strike
	sellStrike := req.SellLeg.Strike
	width := math.Abs(sellStrike - buyStrike)
	multiplier := float64(models.ContractMultiplier * req.Contracts)
	isCredit := req.SpreadType.IsCredit()
	isPut := req.SpreadType.Side() == models.SidePut

	var netPremium, maxProfit, maxLoss, breakeven float64
	if isCredit {
		netPremium = req.SellLeg.BidValue() - req.BuyLeg.AskValue()
		maxProfit = netPremium * multiplier
		maxLoss = (width - netPremium) * multiplier
		if isPut {
			breakeven = sellStrike - netPremium
		} else {
			breakeven = sellStrike + netPremium
		}
	} else {
		netPremium = req.BuyLeg.AskValue() - req.SellLeg.BidValue()
		maxLoss = netPremium * multiplier
		maxProfit = (width - netPremium) * multiplier
		if isPut {
			breakeven = buyStrike - netPremium
		} else {
			breakeven = buyStrike + netPremium
		}
	}

	var rrRatio float64
	if maxLoss != 0 {
		rrRatio = math.Abs(maxProfit / maxLoss)
	}

	result := &models.SpreadResult{
		Symbol:          req.Symbol,
		SpreadType:      req.SpreadType,
		Action:          req.Action,
		CurrentPrice:    req.CurrentPrice,
		Expiration:      req.Expiration,
		DTE:             req.DTE,
		BuyStrike:       buyStrike,
		SellStrike:      sellStrike,
		Contracts:       req.Contracts,
		SpreadWidth:     round2(width),
		BuyLeg:          toLeg(req.BuyLeg),
		SellLeg:         toLeg(req.SellLeg),
		IsCredit:        isCredit,
		NetPremium:      round2(netPremium),
		MaxProfit:       round2(maxProfit),
		MaxLoss:         round2(math.Abs(maxLoss)),
		RiskRewardRatio: round2(rrRatio),
		Breakeven:       round2(breakeven),
	}

	if req.BuyLeg.Delta != nil && req.SellLeg.Delta != nil {
		net := round4(*req.BuyLeg.Delta - *req.SellLeg.Delta)
		result.NetDelta = &net
	}

	if req.Action == models.ActionClose {
		result.Close = e.closeAnalysis(req, isCredit, multiplier)
	}

	return result, nil
}

// closeAnalysis values the spread at the opposite side of the bid/ask and
// computes realized P&L against the entry premium.
func (e *Evaluator) closeAnalysis(req Request, isCredit bool, multiplier float64) *models.CloseAnalysis {
	entry := *req.EntryPrice

	var currentValue float64
	if isCredit {
		currentValue = req.SellLeg.AskValue() - req.BuyLeg.BidValue()
	} else {
		currentValue = req.BuyLeg.BidValue() - req.SellLeg.AskValue()
	}

	var pnlPerSpread float64
	if isCredit {
		pnlPerSpread = entry - currentValue
	} else {
		pnlPerSpread = currentValue - entry
	}

	// Percent is reported as 0 when the entry premium is exactly 0; the
	// denominator has no meaningful value then.
	var pnlPercent float64
	if entry != 0 {
		pnlPercent = round2(pnlPerSpread / entry * 100)
	}

	return &models.CloseAnalysis{
		EntryPrice:   entry,
		CurrentValue: round2(currentValue),
		PnLPerSpread: round2(pnlPerSpread),
		TotalPnL:     round2(pnlPerSpread * multiplier),
		PnLPercent:   pnlPercent,
	}
}

func toLeg(c models.Contract) models.SpreadLeg {
	leg := models.SpreadLeg{
		Strike:       c.Strike,
		Bid:          c.Bid,
		Ask:          c.Ask,
		Volume:       c.Volume,
		OpenInterest: c.OpenInterest,
	}
	if c.IV != nil {
		iv := round2(*c.IV * 100)
		leg.IV = &iv
	}
	if c.Delta != nil {
		delta := round4(*c.Delta)
		leg.Delta = &delta
	}
	return leg
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
