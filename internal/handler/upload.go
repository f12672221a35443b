// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cohesion-education/api/internal/model"
	"github.com/cohesion-education/api/internal/service"
)

// Multipart parsing limits.
const (
	// formOverhead allows for the poster and text fields next to the video.
	formOverhead = 16 << 20
	// maxMemory is kept in memory; larger parts spill to temp files.
	maxMemory = 32 << 20
)

// Errors returned by ReadVideoForm.
var (
	ErrRequestTooLarge = errors.New("request body too large")
	ErrMalformedForm   = errors.New("malformed multipart form")
)

// ReadVideoForm parses a multipart video form limited to maxUpload plus
// formOverhead. The returned cleanup removes spilled temp files and is
// never nil.
func ReadVideoForm(w http.ResponseWriter, r *http.Request, maxUpload int64) (service.VideoInput, func(), error) {
	noop := func() {}
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload+formOverhead)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return service.VideoInput{}, noop, ErrRequestTooLarge
		}
		return service.VideoInput{}, noop, fmt.Errorf("%w: %v", ErrMalformedForm, err)
	}
	cleanup := func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			slog.Warn("failed to remove multipart temp files", "error", err)
		}
	}
	return service.ParseVideoForm(r.MultipartForm), cleanup, nil
}

// VideoFormError maps a ReadVideoForm or VideoService error to a status and
// a JSON body. Unexpected errors are logged and reported generically.
func VideoFormError(err error, maxUpload int64) (int, *model.APIResponse) {
	if verrs, ok := validationErrors(err); ok {
		return http.StatusUnprocessableEntity, verrs.ToResponse("Please correct the highlighted fields", service.VideoFieldOrder...)
	}
	switch {
	case errors.Is(err, ErrRequestTooLarge):
		return http.StatusRequestEntityTooLarge, model.NewAPIErrorResponse("Upload exceeds %d MB", (maxUpload+formOverhead)>>20)
	case errors.Is(err, ErrMalformedForm):
		return http.StatusBadRequest, model.NewAPIErrorResponse("Invalid multipart form")
	case errors.Is(err, service.ErrVideoNotFound):
		return http.StatusNotFound, model.NewAPIErrorResponse("Video not found")
	}
	slog.Error("video upload failed", "error", err)
	return http.StatusInternalServerError, model.NewAPIErrorResponse("Upload failed")
}
