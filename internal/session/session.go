// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures the scs session manager and keeps the taxonomy
// editor state in the session.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"

	"github.com/cohesion-education/api/internal/taxonomy"
)

// Lifetime is the absolute session lifetime.
const Lifetime = 24 * time.Hour

// keyEditor holds the JSON-encoded taxonomy.Editor.
const keyEditor = "taxonomy_editor"

// New creates a session manager. With the sqlite driver sessions persist in
// the sessions table of db; other drivers use an in-process memory store.
func New(db *sql.DB, driver string, isDev bool) *scs.SessionManager {
	sm := scs.New()

	if driver == "sqlite" && db != nil {
		sm.Store = sqlite3store.New(db)
	} else {
		sm.Store = memstore.New()
	}

	sm.Lifetime = Lifetime
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"
	sm.Cookie.Secure = !isDev
	if !isDev {
		sm.Cookie.Name = "__Host-session"
	}
	return sm
}

// Editor returns the taxonomy editor state of the current session. A missing
// or unreadable value yields an editor with no open forms.
func Editor(ctx context.Context, sm *scs.SessionManager) *taxonomy.Editor {
	e := taxonomy.NewEditor()
	raw := sm.GetBytes(ctx, keyEditor)
	if len(raw) == 0 {
		return e
	}
	if err := json.Unmarshal(raw, e); err != nil {
		slog.Warn("discarding unreadable taxonomy editor state", "error", err)
		return taxonomy.NewEditor()
	}
	return e
}

// SaveEditor stores e in the current session.
func SaveEditor(ctx context.Context, sm *scs.SessionManager, e *taxonomy.Editor) {
	raw, err := json.Marshal(e)
	if err != nil {
		slog.Error("failed to encode taxonomy editor state", "error", err)
		return
	}
	sm.Put(ctx, keyEditor, raw)
}
