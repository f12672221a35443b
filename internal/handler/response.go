// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides the server-rendered admin pages: the taxonomy
// tree editor, video uploads, homepage editing, the event log and login.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cohesion-education/api/internal/middleware"
	"github.com/cohesion-education/api/internal/model"
	"github.com/cohesion-education/api/internal/render"
	"github.com/cohesion-education/api/internal/store"
	"github.com/cohesion-education/api/internal/util"
)

// flashAndRedirect sets a flash message and redirects to the given URL.
// Uses http.StatusSeeOther (303) for POST redirects.
func flashAndRedirect(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message, messageType string) {
	renderer.SetFlash(r, message, messageType)
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// flashError sets an error flash message and redirects to the given URL.
func flashError(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message string) {
	flashAndRedirect(w, r, renderer, url, message, render.FlashError)
}

// flashSuccess sets a success flash message and redirects to the given URL.
func flashSuccess(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message string) {
	flashAndRedirect(w, r, renderer, url, message, render.FlashSuccess)
}

// logAndInternalError logs an error and writes a 500 Internal Server Error response.
func logAndInternalError(w http.ResponseWriter, logMsg string, args ...any) {
	slog.Error(logMsg, args...)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// renderPage renders name and turns a template failure into a 500.
func renderPage(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, name string, data render.TemplateData) {
	if err := renderer.Render(w, r, name, data); err != nil {
		logAndInternalError(w, "failed to render template", "template", name, "error", err)
	}
}

// wantsJSON reports whether the client asked for a JSON answer, which the
// admin scripts do when submitting forms in the background.
func wantsJSON(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mt == "application/json" {
			return true
		}
	}
	return false
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// writeJSONError writes {"error": message}.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, model.APIResponse{Error: message})
}

// validationErrors extracts field errors from err.
func validationErrors(err error) (model.ValidationErrors, bool) {
	var verrs model.ValidationErrors
	if errors.As(err, &verrs) {
		return verrs, true
	}
	return nil, false
}

// firstMessage returns the message of the first field in order, or any.
func firstMessage(verrs model.ValidationErrors, order ...string) string {
	resp := verrs.ToResponse("", order...)
	if len(resp.ValidationErrors) == 0 {
		return ""
	}
	return resp.ValidationErrors[0].Err
}

// idParam returns the positive {id} URL parameter, or 0.
func idParam(r *http.Request) int64 {
	return util.ParsePositiveID(chi.URLParam(r, "id"))
}

// currentUser returns the signed-in user for templates, or nil.
func currentUser(r *http.Request) *store.User {
	return middleware.GetUser(r)
}
