// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cohesion-education/api/internal/middleware"
	"github.com/cohesion-education/api/internal/model"
	"github.com/cohesion-education/api/internal/service"
)

// maxProfileBody bounds profile and preference request bodies.
const maxProfileBody = 16 << 10

// requireSessionUser answers 401 unless OptionalLoadUser put a user into the
// context. A bearer token alone identifies no user.
func requireSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if middleware.GetUser(r) == nil {
			WriteError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetProfile handles GET /api/profile.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.GetOrCreate(r.Context(), middleware.GetUserID(r))
	if err != nil {
		writeProfileError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

// UpdateProfile handles PUT /api/profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := h.profiles.Update(r.Context(), middleware.GetUserID(r), req)
	if err != nil {
		writeProfileError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

// SavePreferences handles POST /api/profile/preferences with
// {"newsletter": bool, "beta_program": bool}. Omitted keys are saved as false.
func (h *Handler) SavePreferences(w http.ResponseWriter, r *http.Request) {
	var prefs model.Preferences
	if !decodeBody(w, r, &prefs) {
		return
	}
	p, err := h.profiles.SavePreferences(r.Context(), middleware.GetUserID(r), prefs)
	if err != nil {
		writeProfileError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dest any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxProfileBody))
	if err := dec.Decode(dest); err != nil {
		WriteBadRequest(w, "Invalid JSON body")
		return false
	}
	return true
}

func writeProfileError(w http.ResponseWriter, err error) {
	if verrs, ok := validationErrors(err); ok {
		WriteValidationError(w, verrs, service.ProfileFieldOrder...)
		return
	}
	if errors.Is(err, service.ErrUserNotFound) {
		WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	slog.Error("profile request failed", "error", err)
	WriteInternalError(w, "Failed to save profile")
}
