package server

import (
	"encoding/json"
	"net/http"

	"github.com/smartcard-app/smartcard/internal/ratelimit"
)

type fetchDealsRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

func (s *Server) handleFetchDeals(w http.ResponseWriter, r *http.Request) {
	var req fetchDealsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid location")
		return
	}
	if req.Lat == nil || req.Lng == nil {
		respondError(w, http.StatusBadRequest, "Invalid location")
		return
	}

	refresh := r.URL.Query().Get("refresh") == "true"
	email, _ := emailFromContext(r.Context())

	dealList, fromCache, err := s.deals.Fetch(r.Context(), email, *req.Lat, *req.Lng, refresh)
	if err != nil {
		s.logger.Error("deals fetch failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch deals")
		return
	}

	resp := map[string]any{
		"success":    true,
		"deals":      dealList,
		"from_cache": fromCache,
	}
	if len(dealList) == 0 {
		resp["message"] = "No popular stores found nearby"
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCachedDeals(w http.ResponseWriter, r *http.Request) {
	email, _ := emailFromContext(r.Context())

	dealList, fetchedAt, err := s.deals.Cached(r.Context(), email)
	if err != nil {
		s.logger.Error("cached deals read failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to read cached deals")
		return
	}

	if dealList == nil {
		respondJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"cached":  false,
			"deals":   []any{},
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"cached":     true,
		"deals":      dealList,
		"fetched_at": fetchedAt,
	})
}

// handleRateLimitStatus reports the caller's current standing against a fixed
// baseline without consuming an admission.
func (s *Server) handleRateLimitStatus(w http.ResponseWriter, r *http.Request) {
	result := s.limiter.Status(s.identify(r), ratelimit.StatusLimit, ratelimit.DefaultWindow)

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"rate_limit": map[string]any{
			"remaining": result.Remaining,
			"limit":     result.Limit,
			"window":    int(ratelimit.DefaultWindow.Seconds()),
			"reset_in":  result.ResetIn,
		},
	})
}
