package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/smartcard-app/smartcard/internal/model"
)

// currentUser loads the authenticated user. An auth'd request whose user row
// has vanished is answered with 404.
func (s *Server) currentUser(ctx context.Context, w http.ResponseWriter) (*model.User, bool) {
	email, _ := emailFromContext(ctx)
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		respondError(w, http.StatusNotFound, "User not found")
		return nil, false
	}
	return user, true
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(r.Context(), w)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"cards":            user.Cards,
		"location_enabled": user.LocationEnabled,
	})
}

type cardRequest struct {
	Name            string                `json:"name"`
	CategoryBonuses []model.CategoryBonus `json:"category_bonuses"`
	BaseRate        float64               `json:"base_rate"`
}

func (s *Server) handleAddCard(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, ok := s.currentUser(r.Context(), w)
	if !ok {
		return
	}

	card := model.Card{
		ID:              uuid.NewString(),
		Name:            req.Name,
		BaseRate:        req.BaseRate,
		CategoryBonuses: req.CategoryBonuses,
		AddedDate:       time.Now().UTC(),
	}

	cards := append(user.Cards, card)
	if err := s.users.ReplaceCards(r.Context(), user.Email, cards); err != nil {
		s.logger.Error("failed to save cards", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to save card")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"card":    card,
	})
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "id")

	var req cardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, ok := s.currentUser(r.Context(), w)
	if !ok {
		return
	}

	for i := range user.Cards {
		if user.Cards[i].ID != cardID {
			continue
		}

		// Full replace-by-id; only the id and added date survive.
		updated := model.Card{
			ID:              cardID,
			Name:            req.Name,
			BaseRate:        req.BaseRate,
			CategoryBonuses: req.CategoryBonuses,
			AddedDate:       user.Cards[i].AddedDate,
		}
		user.Cards[i] = updated

		if err := s.users.ReplaceCards(r.Context(), user.Email, user.Cards); err != nil {
			s.logger.Error("failed to save cards", "error", err)
			respondError(w, http.StatusInternalServerError, "Failed to save card")
			return
		}

		respondJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"card":    updated,
		})
		return
	}

	respondError(w, http.StatusNotFound, "Card not found")
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "id")

	user, ok := s.currentUser(r.Context(), w)
	if !ok {
		return
	}

	remaining := make([]model.Card, 0, len(user.Cards))
	for _, c := range user.Cards {
		if c.ID != cardID {
			remaining = append(remaining, c)
		}
	}

	if len(remaining) == len(user.Cards) {
		respondError(w, http.StatusNotFound, "Card not found")
		return
	}

	if err := s.users.ReplaceCards(r.Context(), user.Email, remaining); err != nil {
		s.logger.Error("failed to save cards", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to delete card")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}
