// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
)

// docsTemplate is the page path inside the templates filesystem.
const docsTemplate = "api/docs.html"

// DocsHandler serves the human-readable API reference.
type DocsHandler struct {
	template   *template.Template
	templateFS fs.FS
	mu         sync.RWMutex
	isDev      bool
}

// DocsConfig holds configuration for the docs handler.
type DocsConfig struct {
	TemplateFS fs.FS
	IsDev      bool
}

// NewDocsHandler creates a new documentation handler.
func NewDocsHandler(cfg DocsConfig) (*DocsHandler, error) {
	h := &DocsHandler{templateFS: cfg.TemplateFS, isDev: cfg.IsDev}
	if err := h.parseTemplate(); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *DocsHandler) parseTemplate() error {
	tmpl, err := template.ParseFS(h.templateFS, docsTemplate)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.template = tmpl
	h.mu.Unlock()
	return nil
}

type docsData struct {
	BaseURL string
}

// ServeDocs handles GET /api/docs.
func (h *DocsHandler) ServeDocs(w http.ResponseWriter, r *http.Request) {
	// Templates are re-read per request in development.
	if h.isDev {
		if err := h.parseTemplate(); err != nil {
			http.Error(w, "Failed to parse template: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd == "http" || fwd == "https" {
		scheme = fwd
	}

	h.mu.RLock()
	tmpl := h.template
	h.mu.RUnlock()

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, docsData{BaseURL: scheme + "://" + r.Host}); err != nil {
		slog.Error("failed to render API docs", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = buf.WriteTo(w)
}
