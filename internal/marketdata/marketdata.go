// Package marketdata defines the market data provider interface and its
// Finnhub implementation.
package marketdata

import (
	"context"
	"time"

	"chainscope/internal/models"
)

// Provider supplies quotes, option chains, and price history for an
// underlying. Implementations normalize units at the boundary: IV as a
// fraction of 1.0, missing volume and open interest as 0.
type Provider interface {
	// Quote returns the latest price. Returns an error wrapping
	// ErrDataUnavailable when the provider has no price for the symbol.
	Quote(ctx context.Context, symbol string) (models.Quote, error)

	// Expirations returns the available expiration dates, ordered
	// nearest-first, as YYYY-MM-DD strings.
	Expirations(ctx context.Context, symbol string) ([]string, error)

	// Chain returns both sides of the chain for one expiration.
	Chain(ctx context.Context, symbol, expiration string) (models.OptionChain, error)

	// Candles returns daily bars covering [from, to].
	Candles(ctx context.Context, symbol string, from, to time.Time) ([]models.Candle, error)
}
