// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cohesion-education/api/internal/homepage"
	"github.com/cohesion-education/api/internal/model"
	"github.com/cohesion-education/api/internal/render"
	"github.com/cohesion-education/api/internal/service"
)

// HomepageMaxAge is how long the public page serves content from the store
// before reloading it.
const HomepageMaxAge = time.Minute

// HomepageHandler serves the public landing page and its admin editor.
type HomepageHandler struct {
	service  *service.HomepageService
	store    *homepage.Store
	renderer *render.Renderer
}

// NewHomepageHandler creates a new HomepageHandler.
func NewHomepageHandler(svc *service.HomepageService, st *homepage.Store, renderer *render.Renderer) *HomepageHandler {
	return &HomepageHandler{service: svc, store: st, renderer: renderer}
}

// Home handles GET / with the last good content, even when a reload fails.
func (h *HomepageHandler) Home(w http.ResponseWriter, r *http.Request) {
	hp, err := h.store.Current(r.Context(), h.service, HomepageMaxAge)
	if err != nil {
		slog.Error("failed to load homepage", "category", model.EventCategoryHomepage, "error", err)
		hp = model.NewHomepage()
	}
	renderPage(w, r, h.renderer, "public/home", render.TemplateData{
		Title: hp.Header.Title,
		User:  currentUser(r),
		Data:  hp,
	})
}

// HomepageFormData holds data for the homepage editor.
type HomepageFormData struct {
	Homepage     *model.Homepage
	Highlights   string
	Testimonials string
	Pricing      string
	Errors       map[string]string
}

func newHomepageFormData(hp *model.Homepage, errs map[string]string) HomepageFormData {
	if errs == nil {
		errs = map[string]string{}
	}
	return HomepageFormData{
		Homepage:     hp,
		Highlights:   indentJSON(hp.Features.Highlights),
		Testimonials: indentJSON(hp.Testimonials.List),
		Pricing:      indentJSON(hp.Pricing.List),
		Errors:       errs,
	}
}

func indentJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(b)
}

// Edit handles GET /admin/homepage.
func (h *HomepageHandler) Edit(w http.ResponseWriter, r *http.Request) {
	hp, err := h.service.Load(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to load homepage", "error", err)
		return
	}
	renderPage(w, r, h.renderer, "admin/homepage", render.TemplateData{
		Title: "Homepage",
		User:  currentUser(r),
		Data:  newHomepageFormData(hp, nil),
	})
}

// Save handles POST /admin/homepage.
func (h *HomepageHandler) Save(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		flashError(w, r, h.renderer, redirectHomepage, "Invalid form data")
		return
	}

	hp, errs := homepageFromForm(r)
	if len(errs) == 0 {
		err := h.service.Save(r.Context(), hp)
		if verrs, ok := validationErrors(err); ok {
			errs = verrs
		} else if err != nil {
			logAndInternalError(w, "failed to save homepage", "error", err)
			return
		}
	}

	if len(errs) > 0 {
		data := newHomepageFormData(hp, errs)
		// Show the submitted lists as typed, including invalid JSON.
		data.Highlights = r.PostFormValue("highlights")
		data.Testimonials = r.PostFormValue("testimonials")
		data.Pricing = r.PostFormValue("pricing")
		if err := h.renderer.RenderStatus(w, r, http.StatusUnprocessableEntity, "admin/homepage", render.TemplateData{
			Title:     "Homepage",
			User:      currentUser(r),
			Flash:     "Please correct the highlighted fields",
			FlashType: render.FlashError,
			Data:      data,
		}); err != nil {
			logAndInternalError(w, "failed to render template", "template", "admin/homepage", "error", err)
		}
		return
	}

	// Refresh the public copy right away instead of waiting for it to age out.
	if _, err := h.store.Fetch(r.Context(), h.service); err != nil {
		slog.Warn("failed to refresh homepage store", "category", model.EventCategoryHomepage, "error", err)
	}
	flashSuccess(w, r, h.renderer, redirectHomepage, "Homepage saved")
}

// homepageFromForm reads the editor fields. List sections are JSON arrays.
func homepageFromForm(r *http.Request) (*model.Homepage, model.ValidationErrors) {
	hp := model.NewHomepage()
	hp.Header.Title = strings.TrimSpace(r.PostFormValue("header_title"))
	hp.Header.Subtitle = strings.TrimSpace(r.PostFormValue("header_subtitle"))
	hp.Features.Title = strings.TrimSpace(r.PostFormValue("features_title"))
	hp.Features.Subtitle = strings.TrimSpace(r.PostFormValue("features_subtitle"))
	hp.Pricing.Title = strings.TrimSpace(r.PostFormValue("pricing_title"))
	hp.Pricing.Subtitle = strings.TrimSpace(r.PostFormValue("pricing_subtitle"))
	hp.IntroMarkdown = r.PostFormValue("intro_markdown")

	errs := model.ValidationErrors{}
	decodeList(r.PostFormValue("highlights"), &hp.Features.Highlights, "highlights", errs)
	decodeList(r.PostFormValue("testimonials"), &hp.Testimonials.List, "testimonials", errs)
	decodeList(r.PostFormValue("pricing"), &hp.Pricing.List, "pricing", errs)
	return hp, errs
}

func decodeList[T any](raw string, dst *[]T, field string, errs model.ValidationErrors) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return
	}
	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		errs[field] = "Must be a JSON array: " + err.Error()
		return
	}
	if items != nil {
		*dst = items
	}
}
