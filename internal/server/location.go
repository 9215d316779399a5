package server

import (
	"encoding/json"
	"net/http"
)

type enableLocationRequest struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) handleEnableLocation(w http.ResponseWriter, r *http.Request) {
	var req enableLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	email, _ := emailFromContext(r.Context())
	if err := s.users.SetLocationEnabled(r.Context(), email, req.Enabled); err != nil {
		s.logger.Error("failed to update location setting", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to update location setting")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"enabled": req.Enabled,
	})
}

// locationRequest uses pointers so an absent coordinate is distinguishable
// from a legitimate zero (the equator and the prime meridian are real places).
type locationRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

func (s *Server) handleCheckLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid location")
		return
	}

	if req.Lat == nil || req.Lng == nil {
		respondError(w, http.StatusBadRequest, "Invalid location")
		return
	}

	email, _ := emailFromContext(r.Context())
	result, err := s.recommender.ForLocation(r.Context(), email, *req.Lat, *req.Lng)
	if err != nil {
		s.logger.Error("recommendation failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Recommendation failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"recommendation": result,
	})
}
