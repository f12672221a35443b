// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/cohesion-education/api/internal/cache"
	"github.com/cohesion-education/api/internal/homepage"
	"github.com/cohesion-education/api/internal/middleware"
	"github.com/cohesion-education/api/internal/render"
	"github.com/cohesion-education/api/internal/service"
	"github.com/cohesion-education/api/internal/session"
	"github.com/cohesion-education/api/internal/store"
	"github.com/cohesion-education/api/internal/testutil"
	"github.com/cohesion-education/api/web"
)

// testEnv wires the admin handlers to a migrated database the same way the
// server does, minus CSRF and rate limiting.
type testEnv struct {
	db       *sql.DB
	sm       *scs.SessionManager
	renderer *render.Renderer
	tax      *service.TaxonomyService
	videos   *service.VideoService
	homepage *service.HomepageService
	tree     testutil.GradeTree
	editor   store.User
	router   chi.Router
	cookie   *http.Cookie
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	c := cache.NewMemoryCache(cache.MemoryOptions{})
	t.Cleanup(func() { _ = c.Close() })

	sm := session.New(nil, "", true)
	renderer, err := render.New(render.Config{TemplatesFS: web.TemplatesFS(), SessionManager: sm, IsDev: true})
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	e := &testEnv{
		db:       db,
		sm:       sm,
		renderer: renderer,
		tree:     testutil.SeedGradeTree(t, db),
		editor:   testutil.CreateEditor(t, db),
	}
	e.tax = service.NewTaxonomyService(db, c, service.TaxonomyOptions{Logger: testutil.TestLogger()})
	e.videos = service.NewVideoService(db, e.tax, t.TempDir(), 1<<20)
	e.homepage = service.NewHomepageService(db, c, 0)

	authH := NewAuthHandler(db, renderer, sm, middleware.NewLoginProtection(middleware.LoginProtectionConfig{MaxFailures: 3}))
	taxH := NewTaxonomyHandler(e.tax, renderer, sm)
	videoH := NewVideosHandler(e.videos, e.tax, renderer)
	homeH := NewHomepageHandler(e.homepage, homepage.NewStore(), renderer)
	eventsH := NewEventsHandler(db, renderer)

	r := chi.NewRouter()
	r.Use(sm.LoadAndSave)
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalLoadUser(sm, db))
		r.Get(RouteRoot, homeH.Home)
		r.Get(RouteLogin, authH.LoginForm)
		r.Post(RouteLogin, authH.Login)
		r.Post(RouteLogout, authH.Logout)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(sm), middleware.LoadUser(sm, db), middleware.RequireEditor)
		r.Get(RouteTaxonomy, taxH.Tree)
		r.Post(RouteTaxonomy, taxH.Create)
		r.Get(RouteTaxonomyAdd, taxH.OpenForm)
		r.Get(RouteTaxonomyCancel, taxH.CloseForm)
		r.Get(RouteTaxonomy+RouteParamID, taxH.Show)
		r.Post(RouteTaxonomy+RouteParamID, taxH.Rename)
		r.Post(RouteTaxonomy+RouteParamID+RouteSuffixDelete, taxH.Delete)

		r.Route(RouteAdmin, func(r chi.Router) {
			r.Get(RouteVideos, videoH.List)
			r.Post(RouteVideos, videoH.Create)
			r.Get(RouteVideos+RouteSuffixNew, videoH.New)
			r.Get(RouteVideos+RouteParamID, videoH.Show)
			r.Post(RouteVideos+RouteParamID, videoH.Update)
			r.Put(RouteVideos+RouteParamID, videoH.Update)
			r.Get(RouteVideos+RouteParamID+RouteSuffixEdit, videoH.Edit)
			r.Post(RouteVideos+RouteParamID+RouteSuffixDelete, videoH.Delete)
			r.Get(RouteHomepage, homeH.Edit)
			r.Post(RouteHomepage, homeH.Save)
			r.Get(RouteEvents, eventsH.List)
		})
	})
	e.router = r
	return e
}

// do serves req, sending and then updating the env's session cookie.
func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.Name == e.sm.Cookie.Name {
			e.cookie = c
		}
	}
	return w
}

func (e *testEnv) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, httptest.NewRequest(http.MethodGet, path, nil))
}

func (e *testEnv) postForm(t *testing.T, path string, form url.Values, accept string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	return e.do(t, req)
}

// login signs the editor in through the real login form.
func (e *testEnv) login(t *testing.T) {
	t.Helper()
	w := e.postForm(t, RouteLogin, url.Values{
		"email":    {e.editor.Email},
		"password": {testutil.TestPassword},
	}, "")
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != RouteTaxonomy {
		t.Fatalf("login: status %d location %q", w.Code, w.Header().Get("Location"))
	}
}

// follow requests the redirect target of w and returns the page body.
func (e *testEnv) follow(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	if w.Code != http.StatusSeeOther && w.Code != http.StatusFound {
		t.Fatalf("status = %d, want redirect; body: %s", w.Code, w.Body.String())
	}
	loc := w.Header().Get("Location")
	if i := strings.IndexByte(loc, '#'); i >= 0 {
		loc = loc[:i]
	}
	page := e.get(t, loc)
	body, _ := io.ReadAll(page.Body)
	return string(body)
}

func assertStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status = %d; want %d", got, want)
	}
}
