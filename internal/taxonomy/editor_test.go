// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package taxonomy

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohesion-education/api/internal/model"
)

type recordingCreator struct {
	requests []model.CreateTaxonomyRequest
	id       int64
	err      error
}

func (c *recordingCreator) Create(_ context.Context, req model.CreateTaxonomyRequest) (int64, error) {
	c.requests = append(c.requests, req)
	return c.id, c.err
}

func TestFormID(t *testing.T) {
	tests := []struct {
		parent int64
		want   string
	}{
		{0, "add-0"},
		{42, "add-42"},
	}
	for _, tt := range tests {
		if got := FormID(tt.parent); got != tt.want {
			t.Errorf("FormID(%d) = %q, want %q", tt.parent, got, tt.want)
		}
	}
}

func TestParentIDFromPath(t *testing.T) {
	tests := []struct {
		path string
		want int64
	}{
		{"/taxonomy/add/42", 42},
		{"/taxonomy/add/42/", 42},
		{"/taxonomy/add/", 0},
		{"/taxonomy/add", 0},
		{"/taxonomy/add/abc", 0},
		{"/taxonomy/add/-3", 0},
		{"", 0},
		{"7", 7},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := ParentIDFromPath(tt.path); got != tt.want {
				t.Errorf("ParentIDFromPath(%q) = %d, want %d", tt.path, got, tt.want)
			}
		})
	}
}

func TestEditor_OpenTwiceIsNoop(t *testing.T) {
	e := NewEditor()

	assert.True(t, e.Open(7), "first open")
	assert.False(t, e.Open(7), "second open should be a no-op")
	assert.Equal(t, []int64{7}, e.OpenForms())
}

func TestEditor_SubmitSuccessClosesForm(t *testing.T) {
	e := NewEditor()
	e.Open(RootParentID)
	c := &recordingCreator{id: 42}

	id, err := e.Submit(context.Background(), c, "Math", RootParentID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	require.Len(t, c.requests, 1)
	body, err := json.Marshal(c.requests[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Math","parent_id":0}`, string(body))

	assert.False(t, e.IsOpen(RootParentID), "form should close after success")
}

func TestEditor_SubmitFailureKeepsFormOpen(t *testing.T) {
	e := NewEditor()
	e.Open(3)
	boom := errors.New("service unavailable")

	_, err := e.Submit(context.Background(), &recordingCreator{err: boom}, "Fractions", 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, e.IsOpen(3), "form should stay open for retry")
}

func TestEditor_SubmitRejectsBlankName(t *testing.T) {
	e := NewEditor(5)
	c := &recordingCreator{id: 1}

	_, err := e.Submit(context.Background(), c, "   ", 5)
	assert.ErrorIs(t, err, ErrEmptyName)
	assert.Empty(t, c.requests, "no request should be sent")
	assert.True(t, e.IsOpen(5))
}

func TestEditor_JSONRoundTrip(t *testing.T) {
	e := NewEditor(9, 1, 4)

	b, err := json.Marshal(e)
	require.NoError(t, err)
	assert.Equal(t, `[1,4,9]`, string(b))

	restored := NewEditor()
	require.NoError(t, json.Unmarshal(b, restored))
	assert.Equal(t, e.OpenForms(), restored.OpenForms())
}

func TestItemHTML(t *testing.T) {
	got := string(ItemHTML(42, "Math"))
	want := `<li><a href="/taxonomy/42">Math</a><ul><li class="add"><a class="add-taxonomy" href="/taxonomy/add/42">Add</a></li></ul></li>`
	assert.Equal(t, want, got)
}

func TestItemHTML_EscapesName(t *testing.T) {
	got := string(ItemHTML(1, `<script>alert(1)</script>`))
	assert.False(t, strings.Contains(got, "<script>"), "name must be escaped: %s", got)
}
