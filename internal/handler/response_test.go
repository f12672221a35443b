// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cohesion-education/api/internal/model"
)

func TestWantsJSON(t *testing.T) {
	tests := []struct {
		accept string
		want   bool
	}{
		{"", false},
		{"text/html", false},
		{"application/json", true},
		{"text/html, application/json;q=0.9", true},
		{"application/json; charset=utf-8", true},
		{"application/jsonp", false},
		{"*/*", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept", tt.accept)
		assert.Equal(t, tt.want, wantsJSON(req), "Accept %q", tt.accept)
	}
}

func TestValidationErrorsUnwrap(t *testing.T) {
	verrs := model.ValidationErrors{"name": "Name is required"}

	got, ok := validationErrors(fmt.Errorf("adding taxonomy: %w", verrs))
	assert.True(t, ok)
	assert.Equal(t, verrs, got)

	_, ok = validationErrors(fmt.Errorf("boom"))
	assert.False(t, ok)
}

func TestFirstMessage(t *testing.T) {
	verrs := model.ValidationErrors{"taxonomy_id": "pick one", "title": "missing"}
	assert.Equal(t, "missing", firstMessage(verrs, "title", "taxonomy_id"))
	assert.Equal(t, "pick one", firstMessage(verrs))
	assert.Empty(t, firstMessage(model.ValidationErrors{}))
}
