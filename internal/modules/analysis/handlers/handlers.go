// Package handlers provides HTTP handlers for covered-call analysis.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/callwriter/internal/domain"
	"github.com/aristath/callwriter/internal/marketdata"
	"github.com/aristath/callwriter/internal/modules/analysis"
	"github.com/aristath/callwriter/internal/modules/returns"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Handler handles covered-call HTTP requests
type Handler struct {
	service  *analysis.Service
	validate *validator.Validate
	log      zerolog.Logger
}

// NewHandler creates a new analysis handler
func NewHandler(service *analysis.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		log:      log.With().Str("handler", "analysis").Logger(),
	}
}

// CallsQuery holds the query parameters of GET /api/calls/{ticker}.
// Zero values leave a bound unset.
type CallsQuery struct {
	MinDTE       int     `validate:"gte=0"`
	MaxDTE       int     `validate:"gte=0"`
	MinStrike    float64 `validate:"gte=0"`
	MaxStrike    float64 `validate:"gte=0"`
	MinPremium   float64 `validate:"gte=0"`
	MaxPremium   float64 `validate:"gte=0"`
	MinAARR      float64
	MaxAARR      float64
	Sort         string `validate:"omitempty,oneof=expected_aarr point_aarr safety strike expiration delta"`
	Conservative bool
}

// ReturnsRequest is the body of POST /api/returns
type ReturnsRequest struct {
	NumShares    int      `json:"num_shares" validate:"gt=0"`
	InitialPrice float64  `json:"initial_price" validate:"gt=0"`
	StrikePrice  float64  `json:"strike_price" validate:"gt=0"`
	Premium      float64  `json:"premium" validate:"gte=0"`
	DaysToExpiry int      `json:"days_to_expiry" validate:"gte=0"`
	FinalPrice   *float64 `json:"final_price,omitempty" validate:"omitempty,gt=0"`
	Exercised    *bool    `json:"exercised,omitempty"`
}

// OutcomeResponse is a return outcome with money rounded to cents
type OutcomeResponse struct {
	AnnualizedReturnPct float64  `json:"annualized_return_pct"`
	NetGain             string   `json:"net_gain"`
	StartCapital        string   `json:"start_capital"`
	EndCapital          string   `json:"end_capital"`
	Exercised           bool     `json:"exercised"`
	Degraded            bool     `json:"degraded"`
	Warnings            []string `json:"warnings,omitempty"`
}

// HandleGetCalls handles GET /api/calls/{ticker}
func (h *Handler) HandleGetCalls(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	q, err := parseCallsQuery(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(q); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid query: "+err.Error())
		return
	}

	sortKey, _ := analysis.ParseSortKey(q.Sort)
	report, err := h.service.Analyze(r.Context(), ticker, analysis.Query{
		Window:       marketdata.DTEWindow{Min: q.MinDTE, Max: q.MaxDTE},
		MinStrike:    q.MinStrike,
		MaxStrike:    q.MaxStrike,
		MinPremium:   q.MinPremium,
		MaxPremium:   q.MaxPremium,
		MinAARR:      q.MinAARR,
		MaxAARR:      q.MaxAARR,
		Sort:         sortKey,
		Conservative: q.Conservative,
	})
	if err != nil {
		h.writeServiceError(w, err, "Failed to analyze calls")
		return
	}

	h.writeData(w, report)
}

// HandleGetCurve handles GET /api/calls/{ticker}/curve
func (h *Handler) HandleGetCurve(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	strike, err := strconv.ParseFloat(r.URL.Query().Get("strike"), 64)
	if err != nil || strike <= 0 {
		h.writeError(w, http.StatusBadRequest, "strike must be a positive number")
		return
	}
	expiration, err := time.Parse(dateLayout, r.URL.Query().Get("expiration"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "expiration must be a YYYY-MM-DD date")
		return
	}

	result, err := h.service.Curve(r.Context(), ticker, strike, expiration)
	if err != nil {
		h.writeServiceError(w, err, "Failed to build payoff curve")
		return
	}

	h.writeData(w, result)
}

// HandleGetDistribution handles GET /api/calls/{ticker}/distribution
func (h *Handler) HandleGetDistribution(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	expiration, err := time.Parse(dateLayout, r.URL.Query().Get("expiration"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "expiration must be a YYYY-MM-DD date")
		return
	}

	result, err := h.service.Distribution(r.Context(), ticker, expiration)
	if err != nil {
		h.writeServiceError(w, err, "Failed to build price distribution")
		return
	}

	h.writeData(w, result)
}

// HandleCalculateReturns handles POST /api/returns
func (h *Handler) HandleCalculateReturns(w http.ResponseWriter, r *http.Request) {
	var req ReturnsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	pos, err := domain.NewPosition(req.NumShares, req.InitialPrice)
	if err != nil {
		h.writeServiceError(w, err, "Invalid position")
		return
	}

	covered, err := returns.ComputeReturn(pos.NumShares, pos.EntryPrice, req.StrikePrice, req.Premium, req.DaysToExpiry, req.FinalPrice, req.Exercised)
	if err != nil {
		h.writeServiceError(w, err, "Failed to compute return")
		return
	}

	data := map[string]interface{}{
		"contracts":    pos.Contracts(),
		"covered_call": toOutcomeResponse(covered),
	}
	if req.FinalPrice != nil {
		hold, err := returns.ComputeHoldReturn(pos.NumShares, pos.EntryPrice, *req.FinalPrice, req.DaysToExpiry)
		if err != nil {
			h.writeServiceError(w, err, "Failed to compute hold return")
			return
		}
		data["hold"] = toOutcomeResponse(hold)
		data["excess_return_pct"] = covered.AnnualizedReturnPct - hold.AnnualizedReturnPct
	}

	h.writeData(w, data)
}

func parseCallsQuery(r *http.Request) (CallsQuery, error) {
	values := r.URL.Query()
	q := CallsQuery{Sort: values.Get("sort")}

	ints := map[string]*int{
		"min_dte": &q.MinDTE,
		"max_dte": &q.MaxDTE,
	}
	for name, dst := range ints {
		if raw := values.Get(name); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil {
				return CallsQuery{}, errors.New(name + " must be an integer")
			}
			*dst = v
		}
	}

	floats := map[string]*float64{
		"min_strike":  &q.MinStrike,
		"max_strike":  &q.MaxStrike,
		"min_premium": &q.MinPremium,
		"max_premium": &q.MaxPremium,
		"min_aarr":    &q.MinAARR,
		"max_aarr":    &q.MaxAARR,
	}
	for name, dst := range floats {
		if raw := values.Get(name); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return CallsQuery{}, errors.New(name + " must be a number")
			}
			*dst = v
		}
	}

	if raw := values.Get("conservative"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return CallsQuery{}, errors.New("conservative must be a boolean")
		}
		q.Conservative = v
	}

	return q, nil
}

func toOutcomeResponse(o returns.Outcome) OutcomeResponse {
	return OutcomeResponse{
		AnnualizedReturnPct: o.AnnualizedReturnPct,
		NetGain:             cents(o.NetGain),
		StartCapital:        cents(o.StartCapital),
		EndCapital:          cents(o.EndCapital),
		Exercised:           o.Exercised,
		Degraded:            o.Degraded,
		Warnings:            o.Warnings,
	}
}

func cents(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// writeServiceError maps service errors to HTTP status codes
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, msg string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrDomain), errors.Is(err, domain.ErrInvalidPositionSize):
		status = http.StatusBadRequest
	case errors.Is(err, analysis.ErrContractNotFound):
		status = http.StatusNotFound
	case errors.Is(err, marketdata.ErrUpstream):
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Msg(msg)
	} else {
		h.log.Debug().Err(err).Int("status", status).Msg(msg)
	}
	h.writeError(w, status, msg+": "+err.Error())
}

func (h *Handler) writeData(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
