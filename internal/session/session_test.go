// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2/memstore"

	"github.com/cohesion-education/api/internal/testutil"
)

func TestNew_Modes(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	dev := New(db, "sqlite", true)
	if dev.Cookie.Secure {
		t.Error("Cookie.Secure should be false in development")
	}
	if dev.Cookie.Name == "__Host-session" {
		t.Error("development should keep the default cookie name")
	}

	prod := New(db, "sqlite", false)
	if !prod.Cookie.Secure || prod.Cookie.Name != "__Host-session" || prod.Cookie.Path != "/" {
		t.Errorf("production cookie = %+v", prod.Cookie)
	}
	if prod.Lifetime != Lifetime {
		t.Errorf("Lifetime = %v, want %v", prod.Lifetime, Lifetime)
	}
	if !prod.Cookie.HttpOnly || prod.Cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("cookie flags = %+v", prod.Cookie)
	}
}

func TestNew_StoreByDriver(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	if _, ok := New(db, "sqlite", true).Store.(*sqlite3store.SQLite3Store); !ok {
		t.Error("sqlite driver should use sqlite3store")
	}
	if _, ok := New(nil, "mysql", true).Store.(*memstore.MemStore); !ok {
		t.Error("mysql driver should use memstore")
	}
}

func TestEditorRoundTrip(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	sm := New(db, "sqlite", true)

	// First request opens two forms.
	h := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e := Editor(r.Context(), sm)
		e.Open(0)
		e.Open(42)
		SaveEditor(r.Context(), sm, e)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/taxonomy/add/42", nil))
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no session cookie")
	}

	// Second request sees them.
	var got []int64
	h = sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = Editor(r.Context(), sm).OpenForms()
	}))
	req := httptest.NewRequest(http.MethodGet, "/taxonomy", nil)
	req.AddCookie(cookies[0])
	h.ServeHTTP(httptest.NewRecorder(), req)

	if !slices.Equal(got, []int64{0, 42}) {
		t.Errorf("OpenForms() = %v, want [0 42]", got)
	}
}

func TestEditor_Empty(t *testing.T) {
	sm := New(nil, "mysql", true)
	var n int
	h := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n = len(Editor(r.Context(), sm).OpenForms())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if n != 0 {
		t.Errorf("fresh session has %d open forms", n)
	}
}
