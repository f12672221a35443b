// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"log/slog"
	"net/http"

	"github.com/cohesion-education/api/internal/model"
)

// GetHomepage handles GET /api/homepage.
func (h *Handler) GetHomepage(w http.ResponseWriter, r *http.Request) {
	hp, err := h.homepage.Load(r.Context())
	if err != nil {
		slog.Error("failed to load homepage", "category", model.EventCategoryHomepage, "error", err)
		WriteInternalError(w, "Failed to load homepage")
		return
	}
	WriteJSON(w, http.StatusOK, hp)
}
