package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wonny/fxpulse/internal/contracts"
	"github.com/wonny/fxpulse/pkg/logger"
)

// MarketHandler serves instruments and active signals
// ⭐ SSOT: read endpoints for market state live here only
type MarketHandler struct {
	instruments contracts.InstrumentRepository
	signals     contracts.SignalStore
	logger      *logger.Logger
}

// NewMarketHandler creates a new market handler
func NewMarketHandler(instruments contracts.InstrumentRepository, signals contracts.SignalStore, log *logger.Logger) *MarketHandler {
	return &MarketHandler{
		instruments: instruments,
		signals:     signals,
		logger:      log,
	}
}

// ListInstruments returns every instrument ordered by symbol
// GET /api/instruments
func (h *MarketHandler) ListInstruments(w http.ResponseWriter, r *http.Request) {
	instruments, err := h.instruments.List(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list instruments")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve instruments")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"instruments": instruments,
		"count":       len(instruments),
	})
}

// ListSignals returns the active signals, newest first
// GET /api/signals
func (h *MarketHandler) ListSignals(w http.ResponseWriter, r *http.Request) {
	signals, err := h.signals.ActiveSignals(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list active signals")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve signals")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"signals": signals,
		"count":   len(signals),
	})
}

// GetSignal returns the active signal for one symbol
// GET /api/signals/{symbol}
func (h *MarketHandler) GetSignal(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	sig, err := h.signals.ActiveSignal(r.Context(), symbol)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusNotFound {
			respondError(w, status, "No active signal for "+symbol)
			return
		}
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to get active signal")
		respondError(w, status, "Failed to retrieve signal")
		return
	}

	respondJSON(w, http.StatusOK, sig)
}
