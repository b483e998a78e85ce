package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/vitos/riskbox/internal/domain"
)

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.service.Snapshot())
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := s.journal.ListOrders(r.Context(), limit)
	if err != nil {
		s.logger.Error("Failed to list journal", zap.Error(err))
		http.Error(w, "Failed to list journal", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, entries)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.service.ResetLevels()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleFlip(w http.ResponseWriter, r *http.Request) {
	s.service.FlipDirection()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	s.service.ToggleVisibility()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var side domain.Side
	switch r.URL.Query().Get("side") {
	case "long":
		side = domain.SideLong
	case "short":
		side = domain.SideShort
	case "":
		// Inferred from the setup.
	default:
		http.Error(w, "side must be long or short", http.StatusBadRequest)
		return
	}

	switch r.URL.Query().Get("mode") {
	case "market":
		s.service.SubmitMarketOrder(side)
	case "pending", "":
		s.service.SubmitPendingOrder(side)
	default:
		http.Error(w, "mode must be pending or market", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}
