// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers: migrated databases, quiet
// loggers and small taxonomy and user fixtures.
package testutil

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cohesion-education/api/internal/auth"
	"github.com/cohesion-education/api/internal/model"
	"github.com/cohesion-education/api/internal/store"
)

// TestPassword is the password of users created by CreateUser.
const TestPassword = "correct horse battery"

// TestLogger creates a test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestDB creates a temporary database with migrations applied.
// Returns the database and a cleanup function that should be deferred.
func TestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "cohesion-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}

	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() { _ = db.Close() }
}

// TestMemoryDB creates an unmigrated in-memory SQLite database, e.g. for
// session store tests that create their own tables.
func TestMemoryDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// CreateTaxonomy inserts a node and returns its id. parentID 0 makes a root.
func CreateTaxonomy(t *testing.T, db *sql.DB, name string, parentID int64) int64 {
	t.Helper()

	var parent sql.NullInt64
	if parentID != 0 {
		parent = sql.NullInt64{Int64: parentID, Valid: true}
	}
	id, err := store.New(db).CreateTaxonomy(context.Background(), store.CreateTaxonomyParams{
		Name:      name,
		ParentID:  parent,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateTaxonomy(%q): %v", name, err)
	}
	return id
}

// GradeTree holds the ids created by SeedGradeTree.
type GradeTree struct {
	FirstGrade, Math, Addition, Subtraction, Science, SecondGrade int64
}

// SeedGradeTree creates
//
//	First Grade > Math > Addition
//	First Grade > Math > Subtraction
//	First Grade > Science
//	Second Grade
func SeedGradeTree(t *testing.T, db *sql.DB) GradeTree {
	t.Helper()

	var g GradeTree
	g.FirstGrade = CreateTaxonomy(t, db, "First Grade", 0)
	g.Math = CreateTaxonomy(t, db, "Math", g.FirstGrade)
	g.Addition = CreateTaxonomy(t, db, "Addition", g.Math)
	g.Subtraction = CreateTaxonomy(t, db, "Subtraction", g.Math)
	g.Science = CreateTaxonomy(t, db, "Science", g.FirstGrade)
	g.SecondGrade = CreateTaxonomy(t, db, "Second Grade", 0)
	return g
}

// CreateUser inserts a user with TestPassword and returns it.
func CreateUser(t *testing.T, db *sql.DB, email, role string) store.User {
	t.Helper()

	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	now := time.Now().UTC()
	q := store.New(db)
	id, err := q.CreateUser(context.Background(), store.CreateUserParams{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Name:         "Test " + role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser(%q): %v", email, err)
	}
	u, err := q.GetUserByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetUserByID(%d): %v", id, err)
	}
	return u
}

// CreateEditor is CreateUser with the editor role.
func CreateEditor(t *testing.T, db *sql.DB) store.User {
	t.Helper()
	return CreateUser(t, db, "editor@example.com", model.RoleEditor)
}
