// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohesion-education/api/internal/model"
	"github.com/cohesion-education/api/internal/store"
)

func TestFormatMetadata(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"empty object", "{}", ""},
		{"sorted", `{"path":"/taxonomy","error":"not found"}`, "error: not found, path: /taxonomy"},
		{"numbers and bools", `{"failures":2,"partial":true,"ratio":0.5}`, "failures: 2, partial: true, ratio: 0.5"},
		{"nested", `{"ids":[1,2]}`, "ids: [1,2]"},
		{"invalid JSON", "not json", "not json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatMetadata(tt.in))
		})
	}
}

func TestEvents_ListAndFilter(t *testing.T) {
	e := newTestEnv(t)
	q := store.New(e.db)
	now := time.Now().UTC()
	for _, ev := range []store.CreateEventParams{
		{Level: model.EventLevelError, Category: model.EventCategoryVideo, Message: "upload exploded", Metadata: `{"video_id":"7"}`, CreatedAt: now},
		{Level: model.EventLevelWarning, Category: model.EventCategoryTaxonomy, Message: "flatten partial", Metadata: "{}", CreatedAt: now},
	} {
		_, err := q.CreateEvent(t.Context(), ev)
		require.NoError(t, err)
	}
	e.login(t)

	w := e.get(t, redirectEvents)
	assertStatus(t, w.Code, http.StatusOK)
	body := w.Body.String()
	assert.Contains(t, body, "upload exploded")
	assert.Contains(t, body, "flatten partial")
	assert.Contains(t, body, "video_id: 7")

	w = e.get(t, redirectEvents+"?level="+model.EventLevelWarning)
	body = w.Body.String()
	assert.NotContains(t, body, "upload exploded")
	assert.Contains(t, body, "flatten partial")

	// Unknown levels show everything.
	w = e.get(t, redirectEvents+"?level=bogus")
	assert.Contains(t, w.Body.String(), "upload exploded")
}

func TestEvents_Empty(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)

	w := e.get(t, redirectEvents+"?level="+model.EventLevelInfo)
	assertStatus(t, w.Code, http.StatusOK)
	assert.Contains(t, w.Body.String(), "No events recorded.")
}
