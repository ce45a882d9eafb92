// Package chain analyzes one side of an options chain: liquidity, volume,
// open interest, IV aggregates, ATM detection, and top strikes. It also owns
// the expiration selection policy.
package chain

import (
	"sort"
	"time"

	"chainscope/internal/errors"
	"chainscope/internal/models"
)

const dateLayout = "2006-01-02"

// Analyzer computes chain-level metrics from provider rows. It is stateless
// and safe for concurrent use; a fresh one can be created per request.
type Analyzer struct {
	topStrikesLimit int

	// now is overridable for tests; expiration selection works on
	// day-granularity dates only.
	now func() time.Time
}

// NewAnalyzer creates an Analyzer with the given top-strikes limit.
func NewAnalyzer(topStrikesLimit int) *Analyzer {
	if topStrikesLimit < 1 {
		topStrikesLimit = 5
	}
	return &Analyzer{
		topStrikesLimit: topStrikesLimit,
		now:             time.Now,
	}
}

// WithClock returns a copy of the analyzer using the supplied clock.
func (a *Analyzer) WithClock(now func() time.Time) *Analyzer {
	clone := *a
	clone.now = now
	return &clone
}

// SelectExpiration picks an expiration date, skipping near-zero DTE entries
// by default. Options expiring within a few days carry extreme theta decay,
// so auto-selection picks the nearest expiration with at least minDTE days
// remaining.
//
// Priority:
//  1. Explicitly requested date, honored verbatim when present in the list.
//  2. Nearest expiration with DTE >= minDTE.
//  3. Fallback to the furthest-out expiration when all are below minDTE.
//
// Expirations must be ordered nearest-first. Returns a DataError when the
// list is empty.
func (a *Analyzer) SelectExpiration(expirations []string, requested string, symbol string, minDTE int) (string, error) {
	if len(expirations) == 0 {
		return "", errors.NewDataError(symbol, "no expirations available")
	}

	if requested != "" {
		for _, exp := range expirations {
			if exp == requested {
				return requested, nil
			}
		}
	}

	today := truncateToDay(a.now())

	for _, exp := range expirations {
		expDate, err := time.Parse(dateLayout, exp)
		if err != nil {
			continue
		}
		if daysBetween(today, expDate) >= minDTE {
			return exp, nil
		}
	}

	// All expirations are under minDTE; prefer a usable expiration over
	// failing the request.
	return expirations[len(expirations)-1], nil
}

// DaysToExpiration returns the day-granularity distance from today to the
// given expiration date string, ignoring time-of-day.
func (a *Analyzer) DaysToExpiration(expiration string) (int, error) {
	expDate, err := time.Parse(dateLayout, expiration)
	if err != nil {
		return 0, errors.NewValidationError("expiration", expiration, "expected YYYY-MM-DD")
	}
	return daysBetween(truncateToDay(a.now()), expDate), nil
}

// Analyze summarizes a single chain side. Returns nil on empty input; the
// absence of a side is not an error and must stay distinguishable from a
// zero-valued analysis.
func (a *Analyzer) Analyze(rows []models.Contract, currentPrice float64, minVolume int) *models.ChainAnalysis {
	if len(rows) == 0 {
		return nil
	}

	liquid := make([]models.Contract, 0, len(rows))
	for _, row := range rows {
		if row.Volume >= int64(minVolume) {
			liquid = append(liquid, row)
		}
	}

	var totalVolume, totalOI int64
	var ivSum float64
	maxIV := rows[0].IVValue()
	minIV := rows[0].IVValue()
	for _, row := range rows {
		totalVolume += row.Volume
		totalOI += row.OpenInterest
		iv := row.IVValue()
		ivSum += iv
		if iv > maxIV {
			maxIV = iv
		}
		if iv < minIV {
			minIV = iv
		}
	}

	analysis := &models.ChainAnalysis{
		TotalContracts:    len(rows),
		LiquidContracts:   len(liquid),
		TotalVolume:       totalVolume,
		TotalOpenInterest: totalOI,
		AvgIV:             ivSum / float64(len(rows)) * 100,
		MaxIV:             maxIV * 100,
		MinIV:             minIV * 100,
		TopVolumeStrikes:  a.topByVolume(liquid),
		TopOIStrikes:      a.topByOI(liquid),
	}

	if atm, ok := nearestStrike(liquid, currentPrice); ok {
		strike := atm.Strike
		iv := atm.IVValue() * 100
		analysis.ATMStrike = &strike
		analysis.ATMIV = &iv
		if atm.Delta != nil {
			delta := *atm.Delta
			analysis.ATMDelta = &delta
		}
	}

	return analysis
}

// FindContract returns the liquid-agnostic nearest-strike match for a
// target strike. Used to resolve spread legs. Returns a DataError when the
// chain side is empty.
func (a *Analyzer) FindContract(rows []models.Contract, strike float64, symbol, leg string) (models.Contract, error) {
	if len(rows) == 0 {
		return models.Contract{}, errors.NewDataError(symbol, "no options data for "+leg+" leg")
	}
	best := rows[0]
	bestDist := abs(rows[0].Strike - strike)
	for _, row := range rows[1:] {
		if d := abs(row.Strike - strike); d < bestDist {
			best = row
			bestDist = d
		}
	}
	return best, nil
}

// ComputePCR computes put/call ratios from the two side analyses. Returns
// nil when either side is absent; each ratio is nil when the call-side
// denominator is zero. Never substitutes a default ratio.
func ComputePCR(calls, puts *models.ChainAnalysis) *models.PutCallRatio {
	if calls == nil || puts == nil {
		return nil
	}

	pcr := &models.PutCallRatio{}
	if calls.TotalVolume > 0 {
		v := float64(puts.TotalVolume) / float64(calls.TotalVolume)
		pcr.Volume = &v
	}
	if calls.TotalOpenInterest > 0 {
		oi := float64(puts.TotalOpenInterest) / float64(calls.TotalOpenInterest)
		pcr.OpenInterest = &oi
	}
	return pcr
}

func (a *Analyzer) topByVolume(liquid []models.Contract) []models.TopVolumeStrike {
	ranked := make([]models.Contract, len(liquid))
	copy(ranked, liquid)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Volume > ranked[j].Volume
	})
	if len(ranked) > a.topStrikesLimit {
		ranked = ranked[:a.topStrikesLimit]
	}

	top := make([]models.TopVolumeStrike, 0, len(ranked))
	for _, row := range ranked {
		top = append(top, models.TopVolumeStrike{
			Strike: row.Strike,
			Volume: row.Volume,
			IV:     row.IVValue() * 100,
		})
	}
	return top
}

func (a *Analyzer) topByOI(liquid []models.Contract) []models.TopOIStrike {
	ranked := make([]models.Contract, len(liquid))
	copy(ranked, liquid)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].OpenInterest > ranked[j].OpenInterest
	})
	if len(ranked) > a.topStrikesLimit {
		ranked = ranked[:a.topStrikesLimit]
	}

	top := make([]models.TopOIStrike, 0, len(ranked))
	for _, row := range ranked {
		top = append(top, models.TopOIStrike{
			Strike:       row.Strike,
			OpenInterest: row.OpenInterest,
			IV:           row.IVValue() * 100,
		})
	}
	return top
}

// nearestStrike picks the row closest to the current price, first
// occurrence winning ties.
func nearestStrike(rows []models.Contract, price float64) (models.Contract, bool) {
	if len(rows) == 0 {
		return models.Contract{}, false
	}
	best := rows[0]
	bestDist := abs(rows[0].Strike - price)
	for _, row := range rows[1:] {
		if d := abs(row.Strike - price); d < bestDist {
			best = row
			bestDist = d
		}
	}
	return best, true
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days on date components only. Normalizing
// both endpoints to UTC midnights keeps the span an exact multiple of 24h
// across DST transitions.
func daysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
