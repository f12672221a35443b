// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohesion-education/api/internal/cache"
	"github.com/cohesion-education/api/internal/middleware"
	"github.com/cohesion-education/api/internal/model"
	"github.com/cohesion-education/api/internal/service"
	"github.com/cohesion-education/api/internal/store"
	"github.com/cohesion-education/api/internal/testutil"
)

const testToken = "api-test-token"

type apiEnv struct {
	db     *sql.DB
	tax    *service.TaxonomyService
	videos *service.VideoService
	home   *service.HomepageService
	tree   testutil.GradeTree
	server *httptest.Server
}

// testUserHeader names the user id a test request runs as, standing in for
// the session lookup of OptionalLoadUser.
const testUserHeader = "X-Test-User"

func withTestUser(db *sql.DB) func(http.Handler) http.Handler {
	q := store.New(db)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, err := strconv.ParseInt(r.Header.Get(testUserHeader), 10, 64); err == nil {
				if u, err := q.GetUserByID(r.Context(), id); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), middleware.ContextKeyUser, u))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)
	c := cache.NewMemoryCache(cache.MemoryOptions{})
	t.Cleanup(func() { _ = c.Close() })

	e := &apiEnv{db: db, tree: testutil.SeedGradeTree(t, db)}
	e.tax = service.NewTaxonomyService(db, c, service.TaxonomyOptions{Logger: testutil.TestLogger()})
	e.videos = service.NewVideoService(db, e.tax, t.TempDir(), 1<<20)
	e.home = service.NewHomepageService(db, c, 0)

	r := chi.NewRouter()
	r.Use(withTestUser(db))
	r.Mount("/api", NewHandler(e.tax, e.videos, e.home, service.NewProfileService(db)).Routes(middleware.APIWriteAuth(testToken)))
	e.server = httptest.NewServer(r)
	t.Cleanup(e.server.Close)
	return e
}

// call sends a request and returns the status and body.
func (e *apiEnv) call(t *testing.T, method, path, contentType string, body io.Reader, token string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(t.Context(), method, e.server.URL+path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func (e *apiEnv) getJSON(t *testing.T, path string, dest any) int {
	t.Helper()
	status, body := e.call(t, http.MethodGet, path, "", nil, "")
	if dest != nil {
		require.NoError(t, json.Unmarshal(body, dest), "body: %s", body)
	}
	return status
}

func decodeResponse(t *testing.T, body []byte) model.APIResponse {
	t.Helper()
	var resp model.APIResponse
	require.NoError(t, json.Unmarshal(body, &resp), "body: %s", body)
	return resp
}

func TestStatus(t *testing.T) {
	e := newAPIEnv(t)
	var resp StatusResponse
	assert.Equal(t, http.StatusOK, e.getJSON(t, "/api", &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusTeapot, map[string]string{"key": "value"})

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"key":"value"}`, w.Body.String())
}

func TestWriteValidationError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteValidationError(w, model.ValidationErrors{"parent_id": "bad parent", "name": "bad name"}, "name")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.JSONEq(t, `{
		"error": "Validation failed",
		"validation_errors": [
			{"field_name": "name", "error": "bad name"},
			{"field_name": "parent_id", "error": "bad parent"}
		]
	}`, w.Body.String())
}

func TestNewMeta(t *testing.T) {
	tests := []struct {
		total     int64
		perPage   int
		wantPages int
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.wantPages, NewMeta(tt.total, 1, tt.perPage).Pages, "total %d", tt.total)
	}
}

func TestCapitalizeFirst(t *testing.T) {
	assert.Equal(t, "Video", capitalizeFirst("video"))
	assert.Equal(t, "", capitalizeFirst(""))
}

func TestHomepage(t *testing.T) {
	e := newAPIEnv(t)

	var empty map[string]any
	assert.Equal(t, http.StatusOK, e.getJSON(t, "/api/homepage", &empty))
	features, ok := empty["features"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{}, features["highlights"], "lists encode as arrays")

	hp := model.NewHomepage()
	hp.Header.Title = "Cohesion"
	hp.IntroMarkdown = "*hello*"
	require.NoError(t, e.home.Save(t.Context(), hp))

	var got model.Homepage
	assert.Equal(t, http.StatusOK, e.getJSON(t, "/api/homepage", &got))
	assert.Equal(t, "Cohesion", got.Header.Title)
	assert.Contains(t, string(got.IntroHTML), "<em>hello</em>")
}

// videoUpload builds a multipart body.
func videoUpload(t *testing.T, fields map[string]string, file []byte) (string, io.Reader) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != nil {
		fw, err := w.CreateFormFile("video_file", "lesson.mp4")
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return w.FormDataContentType(), &buf
}

var mp4Header = []byte("\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00mp42isom")

func TestVideos_Lifecycle(t *testing.T) {
	e := newAPIEnv(t)

	ct, body := videoUpload(t, map[string]string{
		"title":       "Counting On",
		"taxonomy_id": strconv.FormatInt(e.tree.Addition, 10),
		"key_terms":   "count, on",
	}, mp4Header)
	status, data := e.call(t, http.MethodPost, "/api/videos", ct, body, testToken)
	require.Equal(t, http.StatusOK, status, "body: %s", data)
	created := decodeResponse(t, data)
	require.NotZero(t, created.ID)
	assert.Equal(t, "/admin/videos/"+strconv.FormatInt(created.ID, 10), created.RedirectURL)

	path := "/api/videos/" + strconv.FormatInt(created.ID, 10)
	var v model.Video
	assert.Equal(t, http.StatusOK, e.getJSON(t, path, &v))
	assert.Equal(t, "Counting On", v.Title)
	assert.Equal(t, "First Grade > Math > Addition", v.TaxonomyLabel)
	assert.Equal(t, []string{"count", "on"}, v.KeyTerms)
	assert.Equal(t, model.MimeTypeMP4, v.FileType)

	var list struct {
		Data []model.Video `json:"data"`
		Meta Meta          `json:"meta"`
	}
	assert.Equal(t, http.StatusOK, e.getJSON(t, "/api/videos?per_page=5", &list))
	assert.Len(t, list.Data, 1)
	assert.Equal(t, Meta{Total: 1, Page: 1, PerPage: 5, Pages: 1}, list.Meta)

	var groups map[string][]model.Video
	assert.Equal(t, http.StatusOK, e.getJSON(t, "/api/videos/by-grade/First%20Grade", &groups))
	require.Contains(t, groups, "First Grade > Math > Addition")
	assert.Equal(t, created.ID, groups["First Grade > Math > Addition"][0].ID)

	ct, body = videoUpload(t, map[string]string{
		"title":       "Counting Back",
		"taxonomy_id": strconv.FormatInt(e.tree.Subtraction, 10),
	}, nil)
	status, data = e.call(t, http.MethodPut, path, ct, body, testToken)
	require.Equal(t, http.StatusOK, status, "body: %s", data)
	assert.Equal(t, http.StatusOK, e.getJSON(t, path, &v))
	assert.Equal(t, "Counting Back", v.Title)

	status, _ = e.call(t, http.MethodDelete, path, "", nil, testToken)
	assert.Equal(t, http.StatusNoContent, status)

	status, data = e.call(t, http.MethodGet, path, "", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Video not found", decodeResponse(t, data).Error)

	status, _ = e.call(t, http.MethodDelete, path, "", nil, testToken)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestVideos_CreateValidation(t *testing.T) {
	e := newAPIEnv(t)

	ct, body := videoUpload(t, map[string]string{"title": "x", "taxonomy_id": strconv.FormatInt(e.tree.FirstGrade, 10)}, []byte("not a video"))
	status, data := e.call(t, http.MethodPost, "/api/videos", ct, body, testToken)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	resp := decodeResponse(t, data)
	var fields []string
	for _, ve := range resp.ValidationErrors {
		fields = append(fields, ve.Field)
	}
	assert.Equal(t, []string{"taxonomy_id", "video_file"}, fields)
}

func TestVideos_Stream(t *testing.T) {
	e := newAPIEnv(t)

	content := append(append([]byte{}, mp4Header...), bytes.Repeat([]byte{7}, 100)...)
	ct, body := videoUpload(t, map[string]string{
		"title":       "Streamed",
		"taxonomy_id": strconv.FormatInt(e.tree.Science, 10),
	}, content)
	status, data := e.call(t, http.MethodPost, "/api/videos", ct, body, testToken)
	require.Equal(t, http.StatusOK, status, "body: %s", data)
	path := "/api/videos/" + strconv.FormatInt(decodeResponse(t, data).ID, 10) + "/stream"

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, e.server.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set("Range", "bytes=4-11")
	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusPartialContent, resp.StatusCode)
	assert.Equal(t, model.MimeTypeMP4, resp.Header.Get("Content-Type"))
	assert.Equal(t, content[4:12], got)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "lesson.mp4")

	status, data = e.call(t, http.MethodGet, "/api/videos/999/stream", "", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Video not found", decodeResponse(t, data).Error)
}

func TestVideos_DamagedPoster(t *testing.T) {
	e := newAPIEnv(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("title", "Shapes"))
	require.NoError(t, w.WriteField("taxonomy_id", strconv.FormatInt(e.tree.Science, 10)))
	fw, err := w.CreateFormFile("video_file", "shapes.mp4")
	require.NoError(t, err)
	_, err = fw.Write(mp4Header)
	require.NoError(t, err)
	fw, err = w.CreateFormFile("poster_file", "shapes.png")
	require.NoError(t, err)
	_, err = fw.Write(append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0xAB}, 64)...))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	status, data := e.call(t, http.MethodPost, "/api/videos", w.FormDataContentType(), &buf, testToken)
	assert.Equal(t, http.StatusUnprocessableEntity, status, "body: %s", data)
	resp := decodeResponse(t, data)
	assert.NotEmpty(t, resp.Error)
	require.Len(t, resp.ValidationErrors, 1)
	assert.Equal(t, "poster_file", resp.ValidationErrors[0].Field)
}

func TestVideos_Malformed(t *testing.T) {
	e := newAPIEnv(t)
	status, data := e.call(t, http.MethodPost, "/api/videos", "multipart/form-data; boundary=nope", strings.NewReader("garbage"), testToken)
	assert.Equal(t, http.StatusBadRequest, status)
	resp := decodeResponse(t, data)
	assert.NotEmpty(t, resp.Error)
	assert.Empty(t, resp.ValidationErrors)
}

func TestVideos_WriteNeedsAuth(t *testing.T) {
	e := newAPIEnv(t)

	ct, body := videoUpload(t, map[string]string{"title": "x"}, mp4Header)
	status, _ := e.call(t, http.MethodPost, "/api/videos", ct, body, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = e.call(t, http.MethodDelete, "/api/videos/1", "", nil, "wrong")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestVideos_UnknownGrade(t *testing.T) {
	e := newAPIEnv(t)
	status, data := e.call(t, http.MethodGet, "/api/videos/by-grade/Kindergarten", "", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Grade not found", decodeResponse(t, data).Error)
}

func TestDocs(t *testing.T) {
	h, err := NewDocsHandler(DocsConfig{TemplateFS: testTemplatesFS()})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "http://cohesion.test/api/docs", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	w := httptest.NewRecorder()
	h.ServeDocs(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://cohesion.test/api")
	assert.Contains(t, w.Body.String(), "/api/taxonomy/flatten")
}
