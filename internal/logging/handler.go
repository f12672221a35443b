// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging builds the process logger. Records at WARN and above are
// also persisted to the events table so admins can audit failures such as
// partial taxonomy flattens or rejected uploads.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/cohesion-education/api/internal/model"
	"github.com/cohesion-education/api/internal/store"
)

// EventWriter persists a single event row. *store.Queries satisfies it.
type EventWriter interface {
	CreateEvent(ctx context.Context, arg store.CreateEventParams) (int64, error)
}

// EventLogHandler wraps another slog.Handler and mirrors records at or above
// its level into the events table.
type EventLogHandler struct {
	inner  slog.Handler
	events EventWriter
	level  slog.Level
	attrs  []slog.Attr // accumulated through WithAttrs
}

// NewEventLogHandler mirrors WARN and above from inner into db.
func NewEventLogHandler(inner slog.Handler, db *sql.DB) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, store.New(db), slog.LevelWarn)
}

// NewEventLogHandlerWithLevel mirrors records at level and above into w.
func NewEventLogHandlerWithLevel(inner slog.Handler, w EventWriter, level slog.Level) *EventLogHandler {
	return &EventLogHandler{inner: inner, events: w, level: level}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level >= h.level {
		h.persist(r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &EventLogHandler{inner: h.inner.WithAttrs(attrs), events: h.events, level: h.level, attrs: merged}
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	return &EventLogHandler{inner: h.inner.WithGroup(name), events: h.events, level: h.level, attrs: h.attrs}
}

func (h *EventLogHandler) persist(r slog.Record) {
	fields := make(map[string]string, r.NumAttrs()+len(h.attrs))
	var category string
	var userID sql.NullInt64

	collect := func(a slog.Attr) bool {
		switch a.Key {
		case "category":
			category = a.Value.String()
		case "user_id":
			if v := a.Value.Resolve(); v.Kind() == slog.KindInt64 {
				userID = sql.NullInt64{Int64: v.Int64(), Valid: true}
			}
			fields[a.Key] = a.Value.String()
		default:
			fields[a.Key] = a.Value.String()
		}
		return true
	}
	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(collect)

	if category == "" {
		category = inferCategory(r.Message)
	}

	metadata := "{}"
	if len(fields) > 0 {
		if b, err := json.Marshal(fields); err == nil {
			metadata = string(b)
		}
	}

	created := r.Time
	if created.IsZero() {
		created = time.Now()
	}

	// Background context: the event must land even if the request was cancelled.
	_, _ = h.events.CreateEvent(context.Background(), store.CreateEventParams{
		Level:     eventLevel(r.Level),
		Category:  category,
		Message:   r.Message,
		UserID:    userID,
		Metadata:  metadata,
		CreatedAt: created.UTC(),
	})
}

func eventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}

func inferCategory(message string) string {
	msg := strings.ToLower(message)
	switch {
	case strings.Contains(msg, "login") || strings.Contains(msg, "logout") || strings.Contains(msg, "auth"):
		return model.EventCategoryAuth
	case strings.Contains(msg, "taxonomy"):
		return model.EventCategoryTaxonomy
	case strings.Contains(msg, "video") || strings.Contains(msg, "upload"):
		return model.EventCategoryVideo
	case strings.Contains(msg, "homepage"):
		return model.EventCategoryHomepage
	case strings.Contains(msg, "cache"):
		return model.EventCategoryCache
	case strings.Contains(msg, "config"):
		return model.EventCategoryConfig
	default:
		return model.EventCategorySystem
	}
}
