package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"chainscope/internal/analysis"
	"chainscope/internal/errors"
	"chainscope/internal/models"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "chainscope",
		"endpoints": []string{
			"POST /api/options-risk",
			"POST /api/options-summary",
			"POST /api/options-vehicle",
			"POST /api/options-compare",
			"POST /api/spread-trade",
			"GET /api/snapshots/{symbol}",
			"GET /health",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type riskRequestBody struct {
	Symbol     string `json:"symbol"`
	Expiration string `json:"expiration_date,omitempty"`
	OptionType string `json:"option_type,omitempty"`
	MinVolume  int    `json:"min_volume,omitempty"`
}

func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	var body riskRequestBody
	if !decodeBody(w, r, &body) {
		return
	}

	optionType, ok := models.ParseOptionType(body.OptionType)
	if !ok {
		s.writeError(w, errors.NewValidationError("option_type", body.OptionType, "use: calls, puts, both"))
		return
	}

	resp, err := s.svc.RiskAnalysis(r.Context(), analysis.RiskRequest{
		Symbol:     body.Symbol,
		Expiration: body.Expiration,
		OptionType: optionType,
		MinVolume:  body.MinVolume,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type summaryRequestBody struct {
	Symbol string `json:"symbol"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	var body summaryRequestBody
	if !decodeBody(w, r, &body) {
		return
	}

	resp, err := s.svc.Summary(r.Context(), body.Symbol)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type vehicleRequestBody struct {
	Symbol          string   `json:"symbol"`
	Timeframe       string   `json:"timeframe,omitempty"`
	Bias            string   `json:"bias,omitempty"`
	ExpectedMovePct *float64 `json:"expected_move_percent,omitempty"`
}

func (s *Server) handleVehicle(w http.ResponseWriter, r *http.Request) {
	var body vehicleRequestBody
	if !decodeBody(w, r, &body) {
		return
	}

	timeframe, ok := models.ParseTimeframe(strings.ToLower(body.Timeframe))
	if body.Timeframe != "" && !ok {
		s.writeError(w, errors.NewValidationError("timeframe", body.Timeframe, "use: swing, day, scalp"))
		return
	}

	resp, err := s.svc.VehicleSelection(r.Context(), analysis.VehicleRequest{
		Symbol:          body.Symbol,
		Timeframe:       timeframe,
		Bias:            models.Bias(strings.ToLower(body.Bias)),
		ExpectedMovePct: body.ExpectedMovePct,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type compareRequestBody struct {
	Symbols []string `json:"symbols"`
	Metric  string   `json:"metric,omitempty"`
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var body compareRequestBody
	if !decodeBody(w, r, &body) {
		return
	}

	resp, err := s.svc.Compare(r.Context(), body.Symbols, body.Metric)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type spreadRequestBody struct {
	Symbol     string   `json:"symbol"`
	SpreadType string   `json:"spread_type"`
	Action     string   `json:"action,omitempty"`
	BuyStrike  float64  `json:"buy_strike"`
	SellStrike float64  `json:"sell_strike"`
	Expiration string   `json:"expiration_date,omitempty"`
	Contracts  int      `json:"contracts,omitempty"`
	EntryPrice *float64 `json:"entry_price,omitempty"`
	WithAI     bool     `json:"with_ai,omitempty"`
}

func (s *Server) handleSpreadTrade(w http.ResponseWriter, r *http.Request) {
	var body spreadRequestBody
	if !decodeBody(w, r, &body) {
		return
	}

	resp, err := s.svc.SpreadTrade(r.Context(), analysis.SpreadRequest{
		Symbol:     body.Symbol,
		SpreadType: models.SpreadType(strings.ToLower(body.SpreadType)),
		Action:     models.SpreadAction(strings.ToLower(body.Action)),
		BuyStrike:  body.BuyStrike,
		SellStrike: body.SellStrike,
		Expiration: body.Expiration,
		Contracts:  body.Contracts,
		EntryPrice: body.EntryPrice,
		WithAI:     body.WithAI,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	kind := r.URL.Query().Get("kind")

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			s.writeError(w, errors.NewValidationError("limit", v, "must be a positive integer"))
			return
		}
		limit = parsed
	}

	snapshots, err := s.svc.Snapshots(r.Context(), symbol, kind, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshots)
}

// writeError maps domain errors onto HTTP statuses: absent data is 404,
// rejected input is 400, everything else is 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case stderrors.Is(err, errors.ErrDataUnavailable), stderrors.Is(err, errors.ErrDataNotFound):
		status = http.StatusNotFound
	case stderrors.Is(err, errors.ErrInvalidInput):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Msg("Request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
