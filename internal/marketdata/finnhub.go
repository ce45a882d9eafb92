package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"chainscope/internal/errors"
	"chainscope/internal/logging"
	"chainscope/internal/models"
	"chainscope/pkg/utils"
)

const defaultFinnhubBaseURL = "https://finnhub.io/api/v1"

// FinnhubClient talks to the Finnhub REST API. Rate-limited calls are
// retried with exponential backoff.
type FinnhubClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	retryCfg   utils.RetryConfig
	logger     zerolog.Logger
}

// FinnhubOption customizes the client.
type FinnhubOption func(*FinnhubClient)

// WithBaseURL overrides the API base URL, primarily for tests.
func WithBaseURL(baseURL string) FinnhubOption {
	return func(c *FinnhubClient) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(client *http.Client) FinnhubOption {
	return func(c *FinnhubClient) {
		c.httpClient = client
	}
}

// NewFinnhubClient creates a Finnhub market data client.
func NewFinnhubClient(apiKey string, logger zerolog.Logger, opts ...FinnhubOption) *FinnhubClient {
	c := &FinnhubClient{
		apiKey:  apiKey,
		baseURL: defaultFinnhubBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		retryCfg: utils.RetryConfig{
			MaxAttempts:   3,
			InitialDelay:  500 * time.Millisecond,
			MaxDelay:      5 * time.Second,
			BackoffFactor: 2.0,
			// Only throttled responses are worth retrying; auth and
			// malformed-request failures never resolve on their own.
			RetryableErrors: []error{errors.ErrRateLimited},
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type finnhubQuote struct {
	Current   float64 `json:"c"`
	Timestamp int64   `json:"t"`
}

type finnhubOptionRow struct {
	Strike            float64  `json:"strike"`
	Volume            *int64   `json:"volume"`
	OpenInterest      *int64   `json:"openInterest"`
	ImpliedVolatility *float64 `json:"impliedVolatility"`
	Bid               *float64 `json:"bid"`
	Ask               *float64 `json:"ask"`
	LastPrice         *float64 `json:"lastPrice"`
	Delta             *float64 `json:"delta"`
	Gamma             *float64 `json:"gamma"`
	Theta             *float64 `json:"theta"`
	Vega              *float64 `json:"vega"`
}

type finnhubExpiration struct {
	ExpirationDate string `json:"expirationDate"`
	Options        struct {
		Call []finnhubOptionRow `json:"CALL"`
		Put  []finnhubOptionRow `json:"PUT"`
	} `json:"options"`
}

type finnhubChainResponse struct {
	Data []finnhubExpiration `json:"data"`
}

type finnhubCandles struct {
	Status string    `json:"s"`
	Open   []float64 `json:"o"`
	High   []float64 `json:"h"`
	Low    []float64 `json:"l"`
	Close  []float64 `json:"c"`
	Volume []int64   `json:"v"`
	Time   []int64   `json:"t"`
}

// Quote returns the latest price for a symbol. Finnhub reports price 0 for
// unknown symbols, which is treated as data absence.
func (c *FinnhubClient) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	var resp finnhubQuote
	if err := c.get(ctx, "/quote", url.Values{"symbol": {symbol}}, &resp); err != nil {
		return models.Quote{}, err
	}
	if resp.Current <= 0 {
		return models.Quote{}, errors.NewDataError(symbol, "no price data")
	}
	return models.Quote{
		Symbol:    symbol,
		Price:     resp.Current,
		Timestamp: time.Unix(resp.Timestamp, 0).UTC(),
	}, nil
}

// Expirations lists the chain expiration dates nearest-first.
func (c *FinnhubClient) Expirations(ctx context.Context, symbol string) ([]string, error) {
	resp, err := c.optionChain(ctx, symbol)
	if err != nil {
		return nil, err
	}

	expirations := make([]string, 0, len(resp.Data))
	for _, exp := range resp.Data {
		if exp.ExpirationDate != "" {
			expirations = append(expirations, exp.ExpirationDate)
		}
	}
	if len(expirations) == 0 {
		return nil, errors.NewDataError(symbol, "no expirations available")
	}
	return expirations, nil
}

// Chain returns the normalized chain for one expiration.
func (c *FinnhubClient) Chain(ctx context.Context, symbol, expiration string) (models.OptionChain, error) {
	resp, err := c.optionChain(ctx, symbol)
	if err != nil {
		return models.OptionChain{}, err
	}

	for _, exp := range resp.Data {
		if exp.ExpirationDate != expiration {
			continue
		}
		return models.OptionChain{
			Symbol:     symbol,
			Expiration: expiration,
			Calls:      normalizeRows(exp.Options.Call, models.SideCall),
			Puts:       normalizeRows(exp.Options.Put, models.SidePut),
		}, nil
	}

	return models.OptionChain{}, errors.NewDataError(symbol, "no chain for expiration "+expiration)
}

// Candles returns daily bars covering [from, to].
func (c *FinnhubClient) Candles(ctx context.Context, symbol string, from, to time.Time) ([]models.Candle, error) {
	params := url.Values{
		"symbol":     {symbol},
		"resolution": {"D"},
		"from":       {fmt.Sprintf("%d", from.Unix())},
		"to":         {fmt.Sprintf("%d", to.Unix())},
	}

	var resp finnhubCandles
	if err := c.get(ctx, "/stock/candle", params, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "ok" || len(resp.Time) == 0 {
		return nil, errors.NewDataError(symbol, "no candle data")
	}

	candles := make([]models.Candle, 0, len(resp.Time))
	for i := range resp.Time {
		if i >= len(resp.Open) || i >= len(resp.High) || i >= len(resp.Low) || i >= len(resp.Close) {
			break
		}
		candle := models.Candle{
			Timestamp: time.Unix(resp.Time[i], 0).UTC(),
			Open:      resp.Open[i],
			High:      resp.High[i],
			Low:       resp.Low[i],
			Close:     resp.Close[i],
		}
		if i < len(resp.Volume) {
			candle.Volume = resp.Volume[i]
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

func (c *FinnhubClient) optionChain(ctx context.Context, symbol string) (*finnhubChainResponse, error) {
	var resp finnhubChainResponse
	if err := c.get(ctx, "/stock/option-chain", url.Values{"symbol": {symbol}}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, errors.NewDataError(symbol, "no options data")
	}
	return &resp, nil
}

// get fetches and decodes one endpoint, retrying rate-limited responses.
func (c *FinnhubClient) get(ctx context.Context, endpoint string, params url.Values, target interface{}) error {
	params.Set("token", c.apiKey)
	reqURL := c.baseURL + endpoint + "?" + params.Encode()

	start := time.Now()
	body, err := utils.RetryWithResult(ctx, c.retryCfg, func() ([]byte, error) {
		return c.fetch(ctx, reqURL)
	})
	logging.LogProviderCall(c.logger, "finnhub", endpoint, time.Since(start), err)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		return errors.NewProviderError("finnhub", 0, "decoding "+endpoint+" response", err)
	}
	return nil
}

func (c *FinnhubClient) fetch(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.NewProviderError("finnhub", 0, "building request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewProviderError("finnhub", 0, "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errors.NewProviderError("finnhub", resp.StatusCode, "rate limited", errors.ErrRateLimited)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, errors.NewProviderError("finnhub", resp.StatusCode, "invalid API key", nil)
	case resp.StatusCode != http.StatusOK:
		return nil, errors.NewProviderError("finnhub", resp.StatusCode, "unexpected status", nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewProviderError("finnhub", resp.StatusCode, "reading response", err)
	}
	return body, nil
}

// normalizeRows converts provider rows to contracts: IV percent values
// become fractions, absent volume and open interest become 0, and quoted
// fields stay nil when the provider omits them.
func normalizeRows(rows []finnhubOptionRow, side models.OptionSide) []models.Contract {
	contracts := make([]models.Contract, 0, len(rows))
	for _, row := range rows {
		contract := models.Contract{
			Strike: row.Strike,
			Side:   side,
			Bid:    row.Bid,
			Ask:    row.Ask,
			Last:   row.LastPrice,
			Delta:  row.Delta,
			Gamma:  row.Gamma,
			Theta:  row.Theta,
			Vega:   row.Vega,
		}
		if row.Volume != nil {
			contract.Volume = *row.Volume
		}
		if row.OpenInterest != nil {
			contract.OpenInterest = *row.OpenInterest
		}
		if row.ImpliedVolatility != nil {
			// Finnhub delivers IV as a percent value.
			iv := *row.ImpliedVolatility / 100
			contract.IV = &iv
		}
		contracts = append(contracts, contract)
	}
	return contracts
}
