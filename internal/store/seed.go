// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cohesion-education/api/internal/auth"
)

// Default admin credentials
const (
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "changeme"
	DefaultAdminName     = "Administrator"
)

// seedTaxonomy is the starter grade > subject > unit tree.
var seedTaxonomy = []seedNode{
	{Name: "First Grade", Children: []seedNode{
		{Name: "Math", Children: []seedNode{
			{Name: "Addition"},
			{Name: "Subtraction"},
		}},
		{Name: "Science", Children: []seedNode{
			{Name: "Plants"},
		}},
	}},
	{Name: "Second Grade", Children: []seedNode{
		{Name: "Math", Children: []seedNode{
			{Name: "Place Value"},
		}},
		{Name: "Reading"},
	}},
}

type seedNode struct {
	Name     string
	Children []seedNode
}

// Seed creates the default admin user.
func Seed(ctx context.Context, db *sql.DB) error {
	queries := New(db)

	_, err := queries.GetUserByEmail(ctx, DefaultAdminEmail)
	if err == nil {
		slog.Info("admin user already exists, skipping seed")
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	passwordHash, err := auth.HashPassword(DefaultAdminPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now()
	id, err := queries.CreateUser(ctx, CreateUserParams{
		Email:        DefaultAdminEmail,
		PasswordHash: passwordHash,
		Role:         "admin",
		Name:         DefaultAdminName,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("created default admin user",
		"id", id,
		"email", DefaultAdminEmail,
		"password", DefaultAdminPassword,
	)

	return nil
}

// SeedTaxonomy inserts a starter taxonomy when the table is empty.
func SeedTaxonomy(ctx context.Context, db *sql.DB) error {
	queries := New(db)

	count, err := queries.CountTaxonomy(ctx)
	if err != nil {
		return fmt.Errorf("counting taxonomy: %w", err)
	}
	if count > 0 {
		slog.Info("taxonomy already present, skipping seed", "count", count)
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := queries.WithTx(tx)
	now := time.Now()
	for _, root := range seedTaxonomy {
		if err := insertSeedNode(ctx, qtx, root, sql.NullInt64{}, now); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing taxonomy seed: %w", err)
	}

	slog.Info("seeded starter taxonomy", "roots", len(seedTaxonomy))
	return nil
}

func insertSeedNode(ctx context.Context, q *Queries, n seedNode, parent sql.NullInt64, now time.Time) error {
	id, err := q.CreateTaxonomy(ctx, CreateTaxonomyParams{
		Name:      n.Name,
		ParentID:  parent,
		CreatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("creating taxonomy %q: %w", n.Name, err)
	}
	for _, child := range n.Children {
		if err := insertSeedNode(ctx, q, child, sql.NullInt64{Int64: id, Valid: true}, now); err != nil {
			return err
		}
	}
	return nil
}
