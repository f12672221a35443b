// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cohesion-education/api/internal/handler"
	"github.com/cohesion-education/api/internal/model"
	"github.com/cohesion-education/api/internal/service"
	"github.com/cohesion-education/api/internal/taxonomy"
	"github.com/cohesion-education/api/internal/util"
)

// Video list paging.
const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// ListVideos handles GET /api/videos?page=&per_page=.
func (h *Handler) ListVideos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := max(util.ParseIntDefault(q.Get("page"), 1), 1)
	perPage := util.ParseIntDefault(q.Get("per_page"), defaultPerPage)
	if perPage < 1 || perPage > maxPerPage {
		perPage = defaultPerPage
	}

	videos, total, err := h.videos.List(r.Context(), int64(perPage), int64(page-1)*int64(perPage))
	if err != nil {
		slog.Error("failed to list videos", "error", err)
		WriteInternalError(w, "Failed to list videos")
		return
	}
	WriteJSON(w, http.StatusOK, Response{Data: videos, Meta: NewMeta(total, page, perPage)})
}

// GetVideo handles GET /api/videos/{id}.
func (h *Handler) GetVideo(w http.ResponseWriter, r *http.Request) {
	v, ok := requireEntityByID(w, r, "video", func(id int64) (model.Video, error) {
		return h.videos.Get(r.Context(), id)
	})
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, v)
}

// StreamVideo handles GET /api/videos/{id}/stream. Range requests are
// honored so players can seek.
func (h *Handler) StreamVideo(w http.ResponseWriter, r *http.Request) {
	vf, ok := requireEntityByID(w, r, "video", func(id int64) (*service.VideoFile, error) {
		return h.videos.Open(r.Context(), id)
	})
	if !ok {
		return
	}
	defer func() { _ = vf.File.Close() }()

	w.Header().Set("Content-Type", vf.Video.FileType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": vf.Video.FileName}))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeContent(w, r, vf.Video.FileName, vf.ModTime, vf.File)
}

// CreateVideo handles POST /api/videos (multipart/form-data).
func (h *Handler) CreateVideo(w http.ResponseWriter, r *http.Request) {
	h.saveVideo(w, r, 0)
}

// UpdateVideo handles PUT /api/videos/{id}. The video file is optional.
func (h *Handler) UpdateVideo(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r, "video")
	if !ok {
		return
	}
	h.saveVideo(w, r, id)
}

func (h *Handler) saveVideo(w http.ResponseWriter, r *http.Request, id int64) {
	maxUpload := h.videos.MaxUploadSize()
	in, cleanup, err := handler.ReadVideoForm(w, r, maxUpload)
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
		status, resp := handler.VideoFormError(err, maxUpload)
		WriteJSON(w, status, resp)
		return
	}
	WriteJSON(w, http.StatusOK, model.APIResponse{ID: v.ID, RedirectURL: handler.VideoURL(v.ID)})
}

// DeleteVideo handles DELETE /api/videos/{id}.
func (h *Handler) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r, "video")
	if !ok {
		return
	}
	if err := h.videos.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrVideoNotFound) {
			WriteNotFound(w, "Video not found")
			return
		}
		slog.Error("failed to delete video", "id", id, "error", err)
		WriteInternalError(w, "Failed to delete video")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// VideosByGrade handles GET /api/videos/by-grade/{name}: the videos below the
// named root, keyed by the label of their category.
func (h *Handler) VideosByGrade(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	groups, err := h.videos.FindByGrade(r.Context(), name)
	if err != nil {
		if errors.Is(err, taxonomy.ErrNotFound) {
			WriteNotFound(w, "Grade not found")
			return
		}
		slog.Error("failed to list videos by grade", "grade", name, "error", err)
		WriteInternalError(w, "Failed to list videos")
		return
	}
	WriteJSON(w, http.StatusOK, groups)
}
