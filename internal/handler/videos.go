// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cohesion-education/api/internal/model"
	"github.com/cohesion-education/api/internal/render"
	"github.com/cohesion-education/api/internal/service"
	"github.com/cohesion-education/api/internal/taxonomy"
	"github.com/cohesion-education/api/internal/util"
)

// VideosPerPage is the number of videos listed per admin page.
const VideosPerPage = 25

// VideosHandler serves the video admin pages.
type VideosHandler struct {
	videos   *service.VideoService
	taxonomy *service.TaxonomyService
	renderer *render.Renderer
}

// NewVideosHandler creates a new VideosHandler.
func NewVideosHandler(videos *service.VideoService, tax *service.TaxonomyService, renderer *render.Renderer) *VideosHandler {
	return &VideosHandler{videos: videos, taxonomy: tax, renderer: renderer}
}

// VideoURL is the admin page of a video.
func VideoURL(id int64) string {
	return redirectVideos + "/" + strconv.FormatInt(id, 10)
}

// VideosListData holds data for the videos list template.
type VideosListData struct {
	Videos   []model.Video
	Total    int64
	Page     int
	HasPrev  bool
	HasNext  bool
	PrevPage int
	NextPage int
}

// List handles GET /admin/videos.
func (h *VideosHandler) List(w http.ResponseWriter, r *http.Request) {
	page := max(util.ParseIntDefault(r.URL.Query().Get("page"), 1), 1)
	offset := int64(page-1) * VideosPerPage

	videos, total, err := h.videos.List(r.Context(), VideosPerPage, offset)
	if err != nil {
		logAndInternalError(w, "failed to list videos", "error", err)
		return
	}

	renderPage(w, r, h.renderer, "admin/videos", render.TemplateData{
		Title: "Videos",
		User:  currentUser(r),
		Data: VideosListData{
			Videos:   videos,
			Total:    total,
			Page:     page,
			HasPrev:  page > 1,
			HasNext:  offset+int64(len(videos)) < total,
			PrevPage: page - 1,
			NextPage: page + 1,
		},
	})
}

// VideoFormData holds data for the create/edit form.
type VideoFormData struct {
	Video       model.Video
	IsEdit      bool
	Action      string
	Options     []taxonomy.Option
	Failures    []taxonomy.Failure
	Errors      map[string]string
	MaxUploadMB int64
}

func (h *VideosHandler) formData(r *http.Request, v model.Video, isEdit bool, errs map[string]string) (VideoFormData, error) {
	res, err := h.taxonomy.Flatten(r.Context(), v.TaxonomyID)
	if err != nil {
		return VideoFormData{}, err
	}
	action := redirectVideos
	if isEdit {
		action = VideoURL(v.ID)
	}
	if errs == nil {
		errs = map[string]string{}
	}
	return VideoFormData{
		Video:       v,
		IsEdit:      isEdit,
		Action:      action,
		Options:     res.Options,
		Failures:    res.Failures,
		Errors:      errs,
		MaxUploadMB: h.videos.MaxUploadSize() >> 20,
	}, nil
}

func (h *VideosHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, v model.Video, isEdit bool, errs map[string]string) {
	data, err := h.formData(r, v, isEdit, errs)
	if err != nil {
		logAndInternalError(w, "failed to flatten taxonomy", "error", err)
		return
	}
	title := "New video"
	if isEdit {
		title = "Edit " + v.Title
	}
	if err := h.renderer.RenderStatus(w, r, status, "admin/video_form", render.TemplateData{
		Title: title,
		User:  currentUser(r),
		Data:  data,
	}); err != nil {
		logAndInternalError(w, "failed to render template", "template", "admin/video_form", "error", err)
	}
}

// New handles GET /admin/videos/new. ?taxonomy_id preselects a category.
func (h *VideosHandler) New(w http.ResponseWriter, r *http.Request) {
	v := model.Video{TaxonomyID: util.ParsePositiveID(r.URL.Query().Get("taxonomy_id"))}
	h.renderForm(w, r, http.StatusOK, v, false, nil)
}

// Edit handles GET /admin/videos/{id}/edit.
func (h *VideosHandler) Edit(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireVideo(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, http.StatusOK, v, true, nil)
}

// Show handles GET /admin/videos/{id}.
func (h *VideosHandler) Show(w http.ResponseWriter, r *http.Request) {
	v, ok := h.requireVideo(w, r)
	if !ok {
		return
	}
	renderPage(w, r, h.renderer, "admin/video", render.TemplateData{
		Title: v.Title,
		User:  currentUser(r),
		Data:  v,
	})
}

// Create handles POST /admin/videos.
func (h *VideosHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, 0)
}

// Update handles POST and PUT /admin/videos/{id}.
func (h *VideosHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	if id == 0 {
		http.NotFound(w, r)
		return
	}
	h.save(w, r, id)
}

// save answers scripted submissions with JSON {redirect_url} or
// {error, validation_errors}; plain form posts get a redirect or the form
// again with the errors.
func (h *VideosHandler) save(w http.ResponseWriter, r *http.Request, id int64) {
	in, cleanup, err := ReadVideoForm(w, r, h.videos.MaxUploadSize())
	defer cleanup()

	var v model.Video
	if err == nil {
		if id == 0 {
			v, err = h.videos.Create(r.Context(), in)
		} else {
			v, err = h.videos.Update(r.Context(), id, in)
		}
	}

	if err != nil {
		status, resp := VideoFormError(err, h.videos.MaxUploadSize())
		if wantsJSON(r) {
			writeJSON(w, status, resp)
			return
		}
		verrs, ok := validationErrors(err)
		if !ok {
			if status == http.StatusNotFound {
				flashError(w, r, h.renderer, redirectVideos, resp.Error)
				return
			}
			http.Error(w, resp.Error, status)
			return
		}
		form := model.Video{
			ID:                  id,
			Title:               in.Title,
			TaxonomyID:          in.TaxonomyID,
			KeyTerms:            in.KeyTerms,
			StateStandards:      in.StateStandards,
			CommonCoreStandards: in.CommonCoreStandards,
		}
		h.renderForm(w, r, status, form, id != 0, verrs)
		return
	}

	url := VideoURL(v.ID)
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, model.APIResponse{ID: v.ID, RedirectURL: url})
		return
	}
	msg := "Video uploaded"
	if id != 0 {
		msg = "Video updated"
	}
	flashSuccess(w, r, h.renderer, url, msg)
}

// Delete handles POST /admin/videos/{id}/delete.
func (h *VideosHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	err := h.videos.Delete(r.Context(), id)
	switch {
	case err == nil:
		flashSuccess(w, r, h.renderer, redirectVideos, "Video deleted")
	case errors.Is(err, service.ErrVideoNotFound):
		flashError(w, r, h.renderer, redirectVideos, "Video not found")
	default:
		slog.Error("failed to delete video", "error", err, "video_id", id)
		flashError(w, r, h.renderer, VideoURL(id), "Error deleting video")
	}
}

func (h *VideosHandler) requireVideo(w http.ResponseWriter, r *http.Request) (model.Video, bool) {
	id := idParam(r)
	v, err := h.videos.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrVideoNotFound) {
			flashError(w, r, h.renderer, redirectVideos, "Video not found")
		} else {
			logAndInternalError(w, "failed to get video", "error", err, "video_id", id)
		}
		return model.Video{}, false
	}
	return v, true
}
