package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/smartcard-app/smartcard/internal/model"
)

func (s *Server) handleListGiftCards(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(r.Context(), w)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"gift_cards": user.GiftCards,
	})
}

type giftCardRequest struct {
	Merchant string  `json:"merchant"`
	Category string  `json:"category"`
	Balance  float64 `json:"balance"`
}

func (s *Server) handleAddGiftCard(w http.ResponseWriter, r *http.Request) {
	var req giftCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Merchant == "" {
		respondError(w, http.StatusBadRequest, "Merchant is required")
		return
	}

	user, ok := s.currentUser(r.Context(), w)
	if !ok {
		return
	}

	giftCard := model.GiftCard{
		ID:        uuid.NewString(),
		Merchant:  req.Merchant,
		Category:  req.Category,
		Balance:   req.Balance,
		AddedDate: time.Now().UTC(),
	}

	giftCards := append(user.GiftCards, giftCard)
	if err := s.users.ReplaceGiftCards(r.Context(), user.Email, giftCards); err != nil {
		s.logger.Error("failed to save gift cards", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to save gift card")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"gift_card": giftCard,
	})
}

func (s *Server) handleUpdateGiftCard(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "id")

	var req giftCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, ok := s.currentUser(r.Context(), w)
	if !ok {
		return
	}

	for i := range user.GiftCards {
		if user.GiftCards[i].ID != cardID {
			continue
		}

		updated := model.GiftCard{
			ID:        cardID,
			Merchant:  req.Merchant,
			Category:  req.Category,
			Balance:   req.Balance,
			AddedDate: user.GiftCards[i].AddedDate,
		}
		user.GiftCards[i] = updated

		if err := s.users.ReplaceGiftCards(r.Context(), user.Email, user.GiftCards); err != nil {
			s.logger.Error("failed to save gift cards", "error", err)
			respondError(w, http.StatusInternalServerError, "Failed to save gift card")
			return
		}

		respondJSON(w, http.StatusOK, map[string]any{
			"success":   true,
			"gift_card": updated,
		})
		return
	}

	respondError(w, http.StatusNotFound, "Gift card not found")
}

func (s *Server) handleDeleteGiftCard(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "id")

	user, ok := s.currentUser(r.Context(), w)
	if !ok {
		return
	}

	remaining := make([]model.GiftCard, 0, len(user.GiftCards))
	for _, gc := range user.GiftCards {
		if gc.ID != cardID {
			remaining = append(remaining, gc)
		}
	}

	if len(remaining) == len(user.GiftCards) {
		respondError(w, http.StatusNotFound, "Gift card not found")
		return
	}

	if err := s.users.ReplaceGiftCards(r.Context(), user.Email, remaining); err != nil {
		s.logger.Error("failed to save gift cards", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to delete gift card")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}
