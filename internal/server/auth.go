package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/smartcard-app/smartcard/internal/common"
	"github.com/smartcard-app/smartcard/internal/model"
)

// sessionDuration is how long a login stays valid.
const sessionDuration = 30 * 24 * time.Hour

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "All fields are required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err)
		respondError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Cards:        []model.Card{},
		GiftCards:    []model.GiftCard{},
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.users.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, common.ErrDuplicateEntry) {
			respondError(w, http.StatusBadRequest, "Email already registered")
			return
		}
		s.logger.Error("failed to create user", "error", err)
		respondError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	s.logger.Info("user registered", "email", req.Email)
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Account created successfully",
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := s.users.FindByEmail(r.Context(), req.Email)
	if err != nil {
		// Same response for unknown email and bad password.
		respondError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		respondError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token := uuid.NewString()
	expiresAt := time.Now().Add(sessionDuration)
	if err := s.sessions.CreateSession(r.Context(), token, user.Email, expiresAt); err != nil {
		s.logger.Error("failed to create session", "error", err)
		respondError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionDuration.Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Login successful",
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if err := s.sessions.DeleteSession(r.Context(), cookie.Value); err != nil {
			s.logger.Warn("failed to delete session", "error", err)
		}
	}
	s.clearSessionCookie(w)

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Logged out successfully",
	})
}

func (s *Server) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	email, _ := emailFromContext(r.Context())

	user, err := s.users.FindByEmail(r.Context(), email)
	if err != nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"name":    user.Name,
		"email":   user.Email,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
