// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the JSON REST API for the taxonomy, videos and
// homepage content.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cohesion-education/api/internal/model"
	"github.com/cohesion-education/api/internal/service"
	"github.com/cohesion-education/api/internal/taxonomy"
	"github.com/cohesion-education/api/internal/util"
)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	taxonomy *service.TaxonomyService
	videos   *service.VideoService
	homepage *service.HomepageService
	profiles *service.ProfileService
}

// NewHandler creates a new API handler.
func NewHandler(tax *service.TaxonomyService, videos *service.VideoService, hp *service.HomepageService, profiles *service.ProfileService) *Handler {
	return &Handler{
		taxonomy: tax,
		videos:   videos,
		homepage: hp,
		profiles: profiles,
	}
}

// Routes returns the API router. Reads are public; writes go through
// writeAuth. Profile routes need a signed-in session user.
func (h *Handler) Routes(writeAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Status)

	r.Route("/taxonomy", func(r chi.Router) {
		r.Get("/", h.ListRoots)
		r.Get("/flatten", h.Flatten)
		r.Get("/tree", h.Tree)
		r.Get("/{id}", h.GetTaxonomy)
		r.Get("/{id}/children", h.ListChildren)
		r.With(writeAuth).Post("/", h.CreateTaxonomy)
	})

	r.Route("/videos", func(r chi.Router) {
		r.Get("/", h.ListVideos)
		r.Get("/by-grade/{name}", h.VideosByGrade)
		r.Get("/{id}", h.GetVideo)
		r.Get("/{id}/stream", h.StreamVideo)
		r.Group(func(r chi.Router) {
			r.Use(writeAuth)
			r.Post("/", h.CreateVideo)
			r.Put("/{id}", h.UpdateVideo)
			r.Delete("/{id}", h.DeleteVideo)
		})
	})

	r.Get("/homepage", h.GetHomepage)

	r.Route("/profile", func(r chi.Router) {
		r.Use(requireSessionUser)
		r.Get("/", h.GetProfile)
		r.Put("/", h.UpdateProfile)
		r.Post("/preferences", h.SavePreferences)
	})
	return r
}

// Response wraps paginated lists.
type Response struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Pages   int   `json:"pages"`
}

// NewMeta computes the page count for total items.
func NewMeta(total int64, page, perPage int) *Meta {
	pages := int(total) / perPage
	if int(total)%perPage != 0 {
		pages++
	}
	return &Meta{Total: total, Page: page, PerPage: perPage, Pages: pages}
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode API response", "error", err)
	}
}

// WriteError writes {"error": message}.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, model.APIResponse{Error: message})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message)
}

// WriteValidationError writes a 422 with the field errors in order.
func WriteValidationError(w http.ResponseWriter, verrs model.ValidationErrors, order ...string) {
	WriteJSON(w, http.StatusUnprocessableEntity, verrs.ToResponse("Validation failed", order...))
}

// StatusResponse contains API status information.
type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Status handles GET /api.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, StatusResponse{Status: "ok", Version: "v1"})
}

// requireID parses the {id} URL parameter and answers 404 when it is not a
// positive integer.
func requireID(w http.ResponseWriter, r *http.Request, entityName string) (int64, bool) {
	id := util.ParsePositiveID(chi.URLParam(r, "id"))
	if id == 0 {
		WriteNotFound(w, "Invalid "+entityName+" ID")
		return 0, false
	}
	return id, true
}

// EntityFetcher fetches an entity by ID.
type EntityFetcher[T any] func(id int64) (T, error)

// requireEntityByID parses the {id} parameter and fetches the entity. When it
// returns false the response has been written.
func requireEntityByID[T any](w http.ResponseWriter, r *http.Request, entityName string, fetch EntityFetcher[T]) (T, bool) {
	var zero T
	id, ok := requireID(w, r, entityName)
	if !ok {
		return zero, false
	}

	entity, err := fetch(id)
	if err != nil {
		if isNotFound(err) {
			WriteNotFound(w, capitalizeFirst(entityName)+" not found")
		} else {
			slog.Error("failed to retrieve "+entityName, "id", id, "error", err)
			WriteInternalError(w, "Failed to retrieve "+entityName)
		}
		return zero, false
	}
	return entity, true
}

// capitalizeFirst returns s with the first letter capitalized.
func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func isNotFound(err error) bool {
	return errors.Is(err, taxonomy.ErrNotFound) || errors.Is(err, service.ErrVideoNotFound)
}

// validationErrors extracts field errors from err.
func validationErrors(err error) (model.ValidationErrors, bool) {
	var verrs model.ValidationErrors
	if errors.As(err, &verrs) {
		return verrs, true
	}
	return nil, false
}
