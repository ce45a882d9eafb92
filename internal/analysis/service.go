// Package analysis composes the market data provider with the chain, risk,
// vehicle, and spread components into the operations served over CLI and
// HTTP.
package analysis

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"chainscope/internal/agents"
	"chainscope/internal/analysis/chain"
	"chainscope/internal/analysis/indicators"
	"chainscope/internal/analysis/risk"
	"chainscope/internal/analysis/spread"
	"chainscope/internal/analysis/vehicle"
	"chainscope/internal/config"
	"chainscope/internal/errors"
	"chainscope/internal/logging"
	"chainscope/internal/marketdata"
	"chainscope/internal/models"
	"chainscope/internal/store"
)

// swingHoldingDays is the assumed holding period when the expected move has
// to be estimated from the ATR.
const swingHoldingDays = 5

// Service runs the analysis operations. The store and insight generator are
// optional; a nil store disables snapshots and a nil generator disables AI
// enrichment.
type Service struct {
	provider  marketdata.Provider
	analyzer  *chain.Analyzer
	risk      *risk.Engine
	selector  *vehicle.Selector
	evaluator *spread.Evaluator
	insight   *agents.InsightGenerator
	store     store.DataStore
	cfg       *config.Config
	logger    zerolog.Logger
}

// NewService creates the analysis service.
func NewService(provider marketdata.Provider, cfg *config.Config, logger zerolog.Logger) *Service {
	return &Service{
		provider:  provider,
		analyzer:  chain.NewAnalyzer(cfg.Analysis.TopStrikesLimit),
		risk:      risk.NewEngine(cfg.Analysis),
		selector:  vehicle.NewSelector(cfg.Vehicle),
		evaluator: spread.NewEvaluator(),
		cfg:       cfg,
		logger:    logger,
	}
}

// WithStore attaches a snapshot store.
func (s *Service) WithStore(ds store.DataStore) *Service {
	s.store = ds
	return s
}

// WithInsight attaches the AI insight generator.
func (s *Service) WithInsight(gen *agents.InsightGenerator) *Service {
	s.insight = gen
	return s
}

// RiskRequest parameterizes a full risk analysis.
type RiskRequest struct {
	Symbol     string
	Expiration string
	OptionType models.OptionType
	MinVolume  int
}

// RiskAnalysis runs the full chain risk analysis for one symbol.
func (s *Service) RiskAnalysis(ctx context.Context, req RiskRequest) (*models.RiskResponse, error) {
	symbol := normalizeSymbol(req.Symbol)
	if symbol == "" {
		return nil, errors.NewValidationError("symbol", req.Symbol, "symbol is required")
	}

	optionType := req.OptionType
	if optionType == "" {
		optionType = models.OptionTypeBoth
	}
	minVolume := req.MinVolume
	if minVolume <= 0 {
		minVolume = s.cfg.Analysis.DefaultMinVolume
	}

	quote, err := s.provider.Quote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	expirations, err := s.provider.Expirations(ctx, symbol)
	if err != nil {
		return nil, err
	}

	expiration, err := s.analyzer.SelectExpiration(expirations, req.Expiration, symbol, s.cfg.Analysis.DefaultMinDTE)
	if err != nil {
		return nil, err
	}

	dte, err := s.analyzer.DaysToExpiration(expiration)
	if err != nil {
		return nil, err
	}

	optionChain, err := s.provider.Chain(ctx, symbol, expiration)
	if err != nil {
		return nil, err
	}

	var calls, puts *models.ChainAnalysis
	if optionType == models.OptionTypeCalls || optionType == models.OptionTypeBoth {
		calls = s.analyzer.Analyze(optionChain.Calls, quote.Price, minVolume)
		if calls != nil {
			logging.LogChainAnalysis(s.logger, symbol, "calls", calls.TotalContracts, calls.LiquidContracts, calls.AvgIV)
		}
	}
	if optionType == models.OptionTypePuts || optionType == models.OptionTypeBoth {
		puts = s.analyzer.Analyze(optionChain.Puts, quote.Price, minVolume)
		if puts != nil {
			logging.LogChainAnalysis(s.logger, symbol, "puts", puts.TotalContracts, puts.LiquidContracts, puts.AvgIV)
		}
	}
	if calls == nil && puts == nil {
		return nil, errors.NewDataError(symbol, "no options data for "+expiration)
	}

	pcr := chain.ComputePCR(calls, puts)
	warnings, opportunities := s.risk.Assess(calls, puts, pcr, dte)
	logging.LogAssessment(s.logger, symbol, len(warnings), len(opportunities))

	resp := &models.RiskResponse{
		Symbol:               symbol,
		Timestamp:            s.timestamp(),
		CurrentPrice:         quote.Price,
		ExpirationDate:       expiration,
		DaysToExpiration:     dte,
		AvailableExpirations: limitStrings(expirations, s.cfg.Analysis.MaxExpirations),
		Calls:                calls,
		Puts:                 puts,
		PutCallRatio:         pcr,
		RiskWarnings:         warnings,
		Opportunities:        opportunities,
		LiquidityThreshold:   minVolume,
	}

	s.saveSnapshot(ctx, symbol, store.KindRisk, expiration, resp)
	return resp, nil
}

// Summary returns the quick options snapshot for a symbol.
func (s *Service) Summary(ctx context.Context, symbol string) (*models.SummaryResponse, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return nil, errors.NewValidationError("symbol", symbol, "symbol is required")
	}

	quote, err := s.provider.Quote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	expirations, err := s.provider.Expirations(ctx, symbol)
	if err != nil {
		return nil, err
	}

	expiration, err := s.analyzer.SelectExpiration(expirations, "", symbol, s.cfg.Analysis.SummaryMinDTE)
	if err != nil {
		return nil, err
	}

	dte, err := s.analyzer.DaysToExpiration(expiration)
	if err != nil {
		return nil, err
	}

	optionChain, err := s.provider.Chain(ctx, symbol, expiration)
	if err != nil {
		return nil, err
	}

	calls := s.analyzer.Analyze(optionChain.Calls, quote.Price, s.cfg.Analysis.DefaultMinVolume)
	puts := s.analyzer.Analyze(optionChain.Puts, quote.Price, s.cfg.Analysis.DefaultMinVolume)
	if calls == nil && puts == nil {
		return nil, errors.NewDataError(symbol, "no options data for "+expiration)
	}

	pcr := chain.ComputePCR(calls, puts)

	resp := &models.SummaryResponse{
		Symbol:            symbol,
		Timestamp:         s.timestamp(),
		CurrentPrice:      quote.Price,
		NearestExpiration: expiration,
		DaysToExpiration:  dte,
		Sentiment:         s.sentiment(pcr),
		RiskLevel:         s.riskLevel(calls, puts),
	}
	if calls != nil {
		resp.ATMCallIV = calls.ATMIV
		resp.TotalCallVolume = calls.TotalVolume
	}
	if puts != nil {
		resp.ATMPutIV = puts.ATMIV
		resp.TotalPutVolume = puts.TotalVolume
	}
	if pcr != nil {
		resp.PutCallRatioVolume = pcr.Volume
	}

	s.saveSnapshot(ctx, symbol, store.KindSummary, expiration, resp)
	return resp, nil
}

// VehicleRequest parameterizes a vehicle selection.
type VehicleRequest struct {
	Symbol    string
	Timeframe models.Timeframe
	Bias      models.Bias
	// ExpectedMovePct overrides the ATR-based estimate when set.
	ExpectedMovePct *float64
}

// VehicleSelection classifies the volatility regime from recent candles and
// runs the stock-vs-options decision tree.
func (s *Service) VehicleSelection(ctx context.Context, req VehicleRequest) (*models.VehicleResponse, error) {
	symbol := normalizeSymbol(req.Symbol)
	if symbol == "" {
		return nil, errors.NewValidationError("symbol", req.Symbol, "symbol is required")
	}

	bias := req.Bias
	if bias == "" {
		bias = models.BiasNeutral
	}

	to := time.Now()
	from := to.AddDate(0, -1, 0)
	candles, err := s.provider.Candles(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}

	vcfg := s.cfg.Vehicle
	regime := indicators.RegimeFromCandles(candles, vcfg.ATRPeriod, vcfg.VolatilityLowPct, vcfg.VolatilityHighPct)

	expectedMove := indicators.ExpectedMovePct(candles, vcfg.ATRPeriod, swingHoldingDays)
	if req.ExpectedMovePct != nil {
		expectedMove = *req.ExpectedMovePct
	}

	rec := s.selector.Select(req.Timeframe, regime, bias, expectedMove)

	resp := &models.VehicleResponse{
		VehicleRecommendation: rec,
		Symbol:                symbol,
		VolatilityRegime:      regime,
		Timestamp:             s.timestamp(),
	}

	s.saveSnapshot(ctx, symbol, store.KindVehicle, "", resp)
	return resp, nil
}

// Compare analyzes several symbols concurrently and ranks them by the
// requested metric. Per-symbol failures are collected; the batch fails only
// when every symbol fails.
func (s *Service) Compare(ctx context.Context, symbols []string, metric string) (*models.CompareResponse, error) {
	cleaned := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		if norm := normalizeSymbol(sym); norm != "" {
			cleaned = append(cleaned, norm)
		}
	}
	if len(cleaned) == 0 {
		return nil, errors.NewValidationError("symbols", symbols, "at least one symbol is required")
	}

	metric = strings.ToLower(strings.TrimSpace(metric))
	switch metric {
	case "iv", "pcr", "volume", "liquidity":
	default:
		metric = "iv"
	}

	var (
		mu          sync.Mutex
		wg          sync.WaitGroup
		comparisons []models.SymbolComparison
		errStrings  []string
	)

	for _, symbol := range cleaned {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			comparison, err := s.compareOne(ctx, symbol)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errStrings = append(errStrings, symbol+": "+err.Error())
				return
			}
			comparisons = append(comparisons, *comparison)
		}(symbol)
	}
	wg.Wait()

	if len(comparisons) == 0 {
		return nil, errors.NewDataError(strings.Join(cleaned, ","), "no symbols could be analyzed")
	}

	rankComparisons(comparisons, metric)
	sort.Strings(errStrings)

	return &models.CompareResponse{
		Timestamp: s.timestamp(),
		Metric:    metric,
		Symbols:   comparisons,
		RankedBy:  rankedByDescription(metric),
		Errors:    errStrings,
	}, nil
}

func (s *Service) compareOne(ctx context.Context, symbol string) (*models.SymbolComparison, error) {
	quote, err := s.provider.Quote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	expirations, err := s.provider.Expirations(ctx, symbol)
	if err != nil {
		return nil, err
	}

	expiration, err := s.analyzer.SelectExpiration(expirations, "", symbol, s.cfg.Analysis.SummaryMinDTE)
	if err != nil {
		return nil, err
	}

	optionChain, err := s.provider.Chain(ctx, symbol, expiration)
	if err != nil {
		return nil, err
	}

	calls := s.analyzer.Analyze(optionChain.Calls, quote.Price, s.cfg.Analysis.DefaultMinVolume)
	puts := s.analyzer.Analyze(optionChain.Puts, quote.Price, s.cfg.Analysis.DefaultMinVolume)
	if calls == nil && puts == nil {
		return nil, errors.NewDataError(symbol, "no options data")
	}

	comparison := &models.SymbolComparison{
		Symbol:       symbol,
		CurrentPrice: quote.Price,
	}
	if calls != nil {
		comparison.ATMIV = calls.ATMIV
		comparison.TotalVolume += calls.TotalVolume
		comparison.LiquidContracts += calls.LiquidContracts
	}
	if puts != nil {
		comparison.TotalVolume += puts.TotalVolume
		comparison.LiquidContracts += puts.LiquidContracts
	}
	if pcr := chain.ComputePCR(calls, puts); pcr != nil {
		comparison.PutCallRatio = pcr.Volume
	}
	return comparison, nil
}

// SpreadRequest parameterizes a spread trade evaluation.
type SpreadRequest struct {
	Symbol     string
	SpreadType models.SpreadType
	Action     models.SpreadAction
	BuyStrike  float64
	SellStrike float64
	Expiration string
	Contracts  int
	EntryPrice *float64
	WithAI     bool
}

// SpreadTrade resolves the spread legs from the live chain and evaluates
// the trade. AI enrichment is attached when requested and configured but
// never fails the request.
func (s *Service) SpreadTrade(ctx context.Context, req SpreadRequest) (*models.SpreadResult, error) {
	symbol := normalizeSymbol(req.Symbol)
	if symbol == "" {
		return nil, errors.NewValidationError("symbol", req.Symbol, "symbol is required")
	}
	if !req.SpreadType.IsVertical() {
		// Let the evaluator produce the precise rejection message.
		_, err := s.evaluator.Evaluate(spread.Request{SpreadType: req.SpreadType, Contracts: 1})
		return nil, err
	}

	action := req.Action
	if action == "" {
		action = models.ActionOpen
	}
	contracts := req.Contracts
	if contracts == 0 {
		contracts = 1
	}

	quote, err := s.provider.Quote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	expirations, err := s.provider.Expirations(ctx, symbol)
	if err != nil {
		return nil, err
	}

	expiration, err := s.analyzer.SelectExpiration(expirations, req.Expiration, symbol, s.cfg.Analysis.SpreadMinDTE)
	if err != nil {
		return nil, err
	}

	dte, err := s.analyzer.DaysToExpiration(expiration)
	if err != nil {
		return nil, err
	}

	optionChain, err := s.provider.Chain(ctx, symbol, expiration)
	if err != nil {
		return nil, err
	}

	rows := optionChain.Calls
	if req.SpreadType.Side() == models.SidePut {
		rows = optionChain.Puts
	}

	buyLeg, err := s.analyzer.FindContract(rows, req.BuyStrike, symbol, "buy")
	if err != nil {
		return nil, err
	}
	sellLeg, err := s.analyzer.FindContract(rows, req.SellStrike, symbol, "sell")
	if err != nil {
		return nil, err
	}

	result, err := s.evaluator.Evaluate(spread.Request{
		Symbol:       symbol,
		SpreadType:   req.SpreadType,
		Action:       action,
		CurrentPrice: quote.Price,
		Expiration:   expiration,
		DTE:          dte,
		BuyLeg:       buyLeg,
		SellLeg:      sellLeg,
		Contracts:    contracts,
		EntryPrice:   req.EntryPrice,
	})
	if err != nil {
		return nil, err
	}

	if req.WithAI && s.insight != nil {
		result.AIInsight = s.insight.Generate(ctx, result)
	}

	s.saveSnapshot(ctx, symbol, store.KindSpread, expiration, result)
	return result, nil
}

// Snapshots lists persisted analysis results for a symbol.
func (s *Service) Snapshots(ctx context.Context, symbol, kind string, limit int) ([]store.Snapshot, error) {
	if s.store == nil {
		return nil, errors.ErrDataNotFound
	}
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return nil, errors.NewValidationError("symbol", symbol, "symbol is required")
	}
	if limit <= 0 {
		limit = 20
	}
	return s.store.GetSnapshots(ctx, store.SnapshotFilter{Symbol: symbol, Kind: kind, Limit: limit})
}

func (s *Service) sentiment(pcr *models.PutCallRatio) string {
	if pcr == nil || pcr.Volume == nil {
		return "neutral"
	}
	switch {
	case *pcr.Volume > s.cfg.Analysis.PCRBearishThreshold:
		return "bearish"
	case *pcr.Volume < s.cfg.Analysis.PCRBullishThreshold:
		return "bullish"
	default:
		return "neutral"
	}
}

func (s *Service) riskLevel(calls, puts *models.ChainAnalysis) string {
	primary := calls
	if primary == nil {
		primary = puts
	}
	if primary == nil {
		return "medium"
	}
	switch {
	case primary.AvgIV > s.cfg.Analysis.IVHighThreshold:
		return "high"
	case primary.AvgIV < s.cfg.Analysis.IVLowThreshold:
		return "low"
	default:
		return "medium"
	}
}

// saveSnapshot is best effort; persistence problems are logged, never
// surfaced to the caller.
func (s *Service) saveSnapshot(ctx context.Context, symbol, kind, expiration string, payload interface{}) {
	if s.store == nil {
		return
	}
	if _, err := s.store.SaveSnapshot(ctx, symbol, kind, expiration, payload); err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Str("kind", kind).Msg("Snapshot save failed")
	}
}

func (s *Service) timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func limitStrings(values []string, limit int) []string {
	if limit > 0 && len(values) > limit {
		return values[:limit]
	}
	return values
}

func rankComparisons(comparisons []models.SymbolComparison, metric string) {
	sort.SliceStable(comparisons, func(i, j int) bool {
		switch metric {
		case "pcr":
			return floatDesc(comparisons[i].PutCallRatio, comparisons[j].PutCallRatio)
		case "volume":
			return comparisons[i].TotalVolume > comparisons[j].TotalVolume
		case "liquidity":
			return comparisons[i].LiquidContracts > comparisons[j].LiquidContracts
		default:
			return floatDesc(comparisons[i].ATMIV, comparisons[j].ATMIV)
		}
	})
}

// floatDesc orders descending with nil values last.
func floatDesc(a, b *float64) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	return *a > *b
}

func rankedByDescription(metric string) string {
	switch metric {
	case "pcr":
		return "Put/Call volume ratio (highest first)"
	case "volume":
		return "Total options volume (highest first)"
	case "liquidity":
		return "Liquid contracts above the volume floor (highest first)"
	default:
		return "ATM implied volatility (highest first)"
	}
}
