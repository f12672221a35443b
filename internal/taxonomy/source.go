// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package taxonomy implements the category tree logic shared by the admin
// editor, the video category selector and the command line client:
// concurrent leaf flattening with breadcrumb labels, tree building, reverse
// lookups and the add-form state machine.
package taxonomy

import (
	"context"
	"errors"

	"github.com/cohesion-education/api/internal/model"
)

// Separator joins ancestor names in a breadcrumb label.
const Separator = " > "

// Sentinel errors.
var (
	ErrNotFound  = errors.New("taxonomy not found")
	ErrCycle     = errors.New("taxonomy cycle detected")
	ErrMaxDepth  = errors.New("taxonomy exceeds maximum depth")
	ErrEmptyName = errors.New("taxonomy name is required")
)

// ChildrenSource lists taxonomy roots and the direct children of a node.
// An empty (or nil) children slice means the node is a leaf.
type ChildrenSource interface {
	Roots(ctx context.Context) ([]model.Taxonomy, error)
	Children(ctx context.Context, id int64) ([]model.Taxonomy, error)
}

// ParentSource looks up a single node by id. Implementations return an error
// wrapping ErrNotFound for unknown ids.
type ParentSource interface {
	Get(ctx context.Context, id int64) (model.Taxonomy, error)
}

// Creator creates a node and returns its id.
type Creator interface {
	Create(ctx context.Context, req model.CreateTaxonomyRequest) (int64, error)
}
