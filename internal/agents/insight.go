package agents

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"chainscope/internal/errors"
	"chainscope/internal/models"
)

const insightSystemPrompt = `You are an experienced options trader reviewing a vertical spread trade.
Respond with a single JSON object and nothing else. Use these keys:
"trade_assessment", "timing", "risk_analysis", "execution_tips",
"management_plan", "alternatives", "verdict". Each value is a short
paragraph of plain text. The verdict is one of: "favorable", "neutral",
"unfavorable".`

// InsightGenerator enriches spread results with an LLM assessment. A
// failed or malformed model response degrades to raw text or an error
// status; it never fails the underlying trade computation.
type InsightGenerator struct {
	llm     LLMClient
	timeout time.Duration
	logger  zerolog.Logger
}

// NewInsightGenerator creates an insight generator.
func NewInsightGenerator(llm LLMClient, logger zerolog.Logger) *InsightGenerator {
	return &InsightGenerator{
		llm:     llm,
		timeout: 60 * time.Second,
		logger:  logger,
	}
}

// Generate produces the AI insight for a computed spread. The returned
// insight always has a status; callers attach it as-is.
func (g *InsightGenerator) Generate(ctx context.Context, result *models.SpreadResult) *models.AIInsight {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	prompt := BuildSpreadPrompt(result)
	raw, err := g.llm.CompleteWithSystem(ctx, insightSystemPrompt, prompt)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			err = errors.ErrTimeout
		}
		agentErr := errors.NewAgentError("spread_insight", err)
		g.logger.Warn().Err(agentErr).Str("symbol", result.Symbol).Msg("AI insight generation failed")
		return &models.AIInsight{Status: "error", ErrorMsg: agentErr.Error()}
	}

	return ParseInsight(raw)
}

// BuildSpreadPrompt renders the trade economics into the user prompt.
func BuildSpreadPrompt(result *models.SpreadResult) string {
	var b strings.Builder

	premiumLabel := "Net Debit"
	if result.IsCredit {
		premiumLabel = "Net Credit"
	}

	fmt.Fprintf(&b, "Evaluate this %s on %s (%s action):\n\n", spreadLabel(result.SpreadType), result.Symbol, result.Action)
	fmt.Fprintf(&b, "Underlying price: $%.2f\n", result.CurrentPrice)
	fmt.Fprintf(&b, "Expiration: %s (%d days out)\n", result.Expiration, result.DTE)
	fmt.Fprintf(&b, "Buy leg: $%.2f strike (bid %s / ask %s, volume %d, OI %d)\n",
		result.BuyLeg.Strike, fmtPrice(result.BuyLeg.Bid), fmtPrice(result.BuyLeg.Ask),
		result.BuyLeg.Volume, result.BuyLeg.OpenInterest)
	fmt.Fprintf(&b, "Sell leg: $%.2f strike (bid %s / ask %s, volume %d, OI %d)\n",
		result.SellLeg.Strike, fmtPrice(result.SellLeg.Bid), fmtPrice(result.SellLeg.Ask),
		result.SellLeg.Volume, result.SellLeg.OpenInterest)
	fmt.Fprintf(&b, "%s: $%.2f per spread, %d contract(s)\n", premiumLabel, result.NetPremium, result.Contracts)
	fmt.Fprintf(&b, "Max profit: $%.2f | Max loss: $%.2f | Risk/reward: %.2f\n",
		result.MaxProfit, result.MaxLoss, result.RiskRewardRatio)
	fmt.Fprintf(&b, "Breakeven: $%.2f\n", result.Breakeven)

	if result.NetDelta != nil {
		fmt.Fprintf(&b, "Net delta: %.4f\n", *result.NetDelta)
	}
	if result.Close != nil {
		fmt.Fprintf(&b, "\nClosing position: entry $%.2f, current value $%.2f, P&L $%.2f (%.1f%%)\n",
			result.Close.EntryPrice, result.Close.CurrentValue,
			result.Close.TotalPnL, result.Close.PnLPercent)
	}

	return b.String()
}

// ParseInsight decodes the model output. Responses wrapped in markdown
// fences are unwrapped first; anything that still fails JSON decoding is
// kept as raw text rather than discarded.
func ParseInsight(raw string) *models.AIInsight {
	cleaned := stripCodeFence(strings.TrimSpace(raw))

	var insight map[string]interface{}
	if err := json.Unmarshal([]byte(cleaned), &insight); err != nil {
		return &models.AIInsight{Status: "success", RawText: raw}
	}
	return &models.AIInsight{Status: "success", Insight: insight}
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func spreadLabel(t models.SpreadType) string {
	switch t {
	case models.SpreadBullCall:
		return "bull call spread"
	case models.SpreadBearPut:
		return "bear put spread"
	case models.SpreadBullPutCredit:
		return "bull put credit spread"
	case models.SpreadBearCallCredit:
		return "bear call credit spread"
	default:
		return string(t)
	}
}

func fmtPrice(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return fmt.Sprintf("$%.2f", *p)
}
