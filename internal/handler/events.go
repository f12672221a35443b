// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/cohesion-education/api/internal/model"
	"github.com/cohesion-education/api/internal/render"
	"github.com/cohesion-education/api/internal/store"
	"github.com/cohesion-education/api/internal/util"
)

// EventsPerPage is the number of events to display per page.
const EventsPerPage = 50

// eventLevels are the accepted ?level= filters.
var eventLevels = []string{model.EventLevelError, model.EventLevelWarning, model.EventLevelInfo}

// EventsHandler shows the persisted warning and error log.
type EventsHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(db *sql.DB, renderer *render.Renderer) *EventsHandler {
	return &EventsHandler{queries: store.New(db), renderer: renderer}
}

// EventRow is an event prepared for display.
type EventRow struct {
	store.Event
	Details string
}

// EventsListData holds data for the events template.
type EventsListData struct {
	Events   []EventRow
	Level    string
	Levels   []string
	Page     int
	HasPrev  bool
	HasNext  bool
	PrevPage int
	NextPage int
}

// List handles GET /admin/events?level=&page=.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	level := r.URL.Query().Get("level")
	if !slices.Contains(eventLevels, level) {
		level = ""
	}
	page := max(util.ParseIntDefault(r.URL.Query().Get("page"), 1), 1)
	offset := int64(page-1) * EventsPerPage

	// One extra row tells whether a next page exists.
	limit := int64(EventsPerPage + 1)
	var (
		events []store.Event
		err    error
	)
	if level != "" {
		events, err = h.queries.ListEventsByLevel(r.Context(), store.ListEventsByLevelParams{Level: level, Limit: limit, Offset: offset})
	} else {
		events, err = h.queries.ListEvents(r.Context(), store.ListEventsParams{Limit: limit, Offset: offset})
	}
	if err != nil {
		logAndInternalError(w, "failed to list events", "error", err)
		return
	}

	hasNext := len(events) > EventsPerPage
	if hasNext {
		events = events[:EventsPerPage]
	}
	rows := make([]EventRow, 0, len(events))
	for _, e := range events {
		rows = append(rows, EventRow{Event: e, Details: formatMetadata(e.Metadata)})
	}

	renderPage(w, r, h.renderer, "admin/events", render.TemplateData{
		Title: "Events",
		User:  currentUser(r),
		Data: EventsListData{
			Events:   rows,
			Level:    level,
			Levels:   eventLevels,
			Page:     page,
			HasPrev:  page > 1,
			HasNext:  hasNext,
			PrevPage: page - 1,
			NextPage: page + 1,
		},
	})
}

// formatMetadata converts JSON metadata to "key: value" text sorted by key.
// Example: {"path":"/taxonomy","error":"not found"} -> "error: not found, path: /taxonomy"
func formatMetadata(metadata string) string {
	if metadata == "" || metadata == "{}" {
		return ""
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(metadata), &data); err != nil {
		return metadata
	}

	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		var value string
		switch v := data[key].(type) {
		case string:
			value = v
		case float64:
			value = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			value = strconv.FormatBool(v)
		default:
			if b, err := json.Marshal(v); err == nil {
				value = string(b)
			}
		}
		parts = append(parts, key+": "+value)
	}
	return strings.Join(parts, ", ")
}
