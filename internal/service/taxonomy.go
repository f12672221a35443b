// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/cohesion-education/api/internal/cache"
	"github.com/cohesion-education/api/internal/model"
	"github.com/cohesion-education/api/internal/store"
	"github.com/cohesion-education/api/internal/taxonomy"
	"github.com/cohesion-education/api/internal/util"
)

// MaxTaxonomyNameLength bounds node names.
const MaxTaxonomyNameLength = 100

const flattenCacheKey = "all"

// Errors returned by TaxonomyService.
var (
	ErrHasChildren = errors.New("taxonomy has children")
	ErrInUse       = errors.New("taxonomy has videos")
)

// TaxonomyService is the store-backed taxonomy. It implements
// taxonomy.ChildrenSource, taxonomy.ParentSource and taxonomy.Creator, so the
// same traversal and editor code runs in-process and over HTTP.
type TaxonomyService struct {
	queries   *store.Queries
	flattener *taxonomy.Flattener
	options   *cache.Typed[[]taxonomy.Option]
	logger    *slog.Logger
}

// TaxonomyOptions tune flattening.
type TaxonomyOptions struct {
	Concurrency int
	MaxDepth    int
	CacheTTL    time.Duration
	Logger      *slog.Logger
}

// NewTaxonomyService creates a TaxonomyService. c may be nil to disable caching.
func NewTaxonomyService(db *sql.DB, c cache.Cache, opts TaxonomyOptions) *TaxonomyService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &TaxonomyService{queries: store.New(db), logger: logger}
	s.flattener = taxonomy.NewFlattener(s,
		taxonomy.WithConcurrency(opts.Concurrency),
		taxonomy.WithMaxDepth(opts.MaxDepth),
		taxonomy.WithLogger(logger),
	)
	if c != nil {
		s.options = cache.NewTyped[[]taxonomy.Option](c, "taxonomy:flatten:", opts.CacheTTL)
	}
	return s
}

// Roots implements taxonomy.ChildrenSource.
func (s *TaxonomyService) Roots(ctx context.Context) ([]model.Taxonomy, error) {
	rows, err := s.queries.ListRootTaxonomy(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing roots: %w", err)
	}
	return toModels(rows), nil
}

// Children implements taxonomy.ChildrenSource. Unknown ids have no children.
func (s *TaxonomyService) Children(ctx context.Context, id int64) ([]model.Taxonomy, error) {
	rows, err := s.queries.ListTaxonomyChildren(ctx, sql.NullInt64{Int64: id, Valid: true})
	if err != nil {
		return nil, fmt.Errorf("listing children of %d: %w", id, err)
	}
	return toModels(rows), nil
}

// Get implements taxonomy.ParentSource.
func (s *TaxonomyService) Get(ctx context.Context, id int64) (model.Taxonomy, error) {
	row, err := s.queries.GetTaxonomy(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Taxonomy{}, fmt.Errorf("taxonomy %d: %w", id, taxonomy.ErrNotFound)
	}
	if err != nil {
		return model.Taxonomy{}, fmt.Errorf("getting taxonomy %d: %w", id, err)
	}
	return toModel(row), nil
}

// Create implements taxonomy.Creator. The name is stripped of markup and must
// be non-empty; a non-zero parent must exist and must not hold videos. The
// flatten cache is dropped on success.
func (s *TaxonomyService) Create(ctx context.Context, req model.CreateTaxonomyRequest) (int64, error) {
	name, verr := validateName(req.Name)
	if verr != nil {
		return 0, verr
	}

	var parent sql.NullInt64
	if req.ParentID != taxonomy.RootParentID {
		if _, err := s.Get(ctx, req.ParentID); err != nil {
			if errors.Is(err, taxonomy.ErrNotFound) {
				return 0, model.ValidationErrors{"parent_id": "Parent taxonomy does not exist"}
			}
			return 0, err
		}
		videos, err := s.queries.ListVideosByTaxonomy(ctx, req.ParentID)
		if err != nil {
			return 0, fmt.Errorf("listing videos: %w", err)
		}
		// Videos may only be filed under leaves.
		if len(videos) > 0 {
			return 0, model.ValidationErrors{"parent_id": "Parent category has videos; move them before adding subcategories"}
		}
		parent = sql.NullInt64{Int64: req.ParentID, Valid: true}
	}

	id, err := s.queries.CreateTaxonomy(ctx, store.CreateTaxonomyParams{
		Name:      name,
		ParentID:  parent,
		CreatedAt: time.Now().UTC(),
		CreatedBy: actorNull(ctx),
	})
	if err != nil {
		return 0, fmt.Errorf("creating taxonomy: %w", err)
	}

	s.logger.Info("taxonomy created", "category", model.EventCategoryTaxonomy, "id", id, "name", name, "parent_id", req.ParentID)
	s.Invalidate(ctx)
	return id, nil
}

// Rename changes the name of id.
func (s *TaxonomyService) Rename(ctx context.Context, id int64, name string) error {
	clean, verr := validateName(name)
	if verr != nil {
		return verr
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.queries.UpdateTaxonomyName(ctx, store.UpdateTaxonomyNameParams{
		Name:      clean,
		UpdatedAt: sql.NullTime{Time: time.Now().UTC(), Valid: true},
		UpdatedBy: actorNull(ctx),
		ID:        id,
	}); err != nil {
		return fmt.Errorf("renaming taxonomy %d: %w", id, err)
	}
	s.Invalidate(ctx)
	return nil
}

// Delete removes a node that has neither children nor videos.
func (s *TaxonomyService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	n, err := s.queries.CountTaxonomyChildren(ctx, sql.NullInt64{Int64: id, Valid: true})
	if err != nil {
		return fmt.Errorf("counting children: %w", err)
	}
	if n > 0 {
		return ErrHasChildren
	}
	videos, err := s.queries.ListVideosByTaxonomy(ctx, id)
	if err != nil {
		return fmt.Errorf("listing videos: %w", err)
	}
	if len(videos) > 0 {
		return ErrInUse
	}
	if err := s.queries.DeleteTaxonomy(ctx, id); err != nil {
		return fmt.Errorf("deleting taxonomy %d: %w", id, err)
	}
	s.Invalidate(ctx)
	return nil
}

// Flatten returns every leaf with its breadcrumb label, marking selectedID.
// Complete results are cached; partial ones are returned but never cached.
func (s *TaxonomyService) Flatten(ctx context.Context, selectedID int64) (taxonomy.Result, error) {
	if s.options != nil {
		if opts, err := s.options.Get(ctx, flattenCacheKey); err == nil {
			return taxonomy.Result{Options: markSelected(opts, selectedID)}, nil
		}
	}

	res, err := s.flattener.FlattenAll(ctx, 0)
	if err != nil {
		return res, err
	}
	if s.options != nil && len(res.Failures) == 0 {
		if err := s.options.Set(ctx, flattenCacheKey, res.Options); err != nil {
			s.logger.Warn("cache write failed", "category", model.EventCategoryCache, "error", err)
		}
	}
	res.Options = markSelected(res.Options, selectedID)
	return res, nil
}

// FlattenUnder flattens the subtree below id only.
func (s *TaxonomyService) FlattenUnder(ctx context.Context, id, selectedID int64) (taxonomy.Result, error) {
	node, err := s.Get(ctx, id)
	if err != nil {
		return taxonomy.Result{Options: []taxonomy.Option{}}, err
	}
	return s.flattener.FlattenNode(ctx, node, selectedID)
}

// Refresh recomputes the flattened options and repopulates the cache.
func (s *TaxonomyService) Refresh(ctx context.Context) (taxonomy.Result, error) {
	s.Invalidate(ctx)
	return s.Flatten(ctx, 0)
}

// Invalidate drops cached flatten results. Failures are logged.
func (s *TaxonomyService) Invalidate(ctx context.Context) {
	if s.options == nil {
		return
	}
	if err := s.options.Invalidate(ctx); err != nil {
		s.logger.Warn("cache invalidation failed", "category", model.EventCategoryCache, "error", err)
	}
}

// Tree returns the whole taxonomy nested under its roots.
func (s *TaxonomyService) Tree(ctx context.Context) ([]*taxonomy.TreeNode, error) {
	rows, err := s.queries.ListAllTaxonomy(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing taxonomy: %w", err)
	}
	return taxonomy.BuildTree(toModels(rows)), nil
}

// Label returns the breadcrumb label of id, e.g. "First Grade > Math".
func (s *TaxonomyService) Label(ctx context.Context, id int64) (string, error) {
	return taxonomy.ReverseFlatten(ctx, s, id)
}

// IsLeaf reports whether id exists and has no children.
func (s *TaxonomyService) IsLeaf(ctx context.Context, id int64) (bool, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return false, err
	}
	n, err := s.queries.CountTaxonomyChildren(ctx, sql.NullInt64{Int64: id, Valid: true})
	if err != nil {
		return false, fmt.Errorf("counting children: %w", err)
	}
	return n == 0, nil
}

// FindGradeByName looks up a root node by exact name.
func (s *TaxonomyService) FindGradeByName(ctx context.Context, name string) (model.Taxonomy, error) {
	row, err := s.queries.FindRootTaxonomyByName(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Taxonomy{}, fmt.Errorf("grade %q: %w", name, taxonomy.ErrNotFound)
	}
	if err != nil {
		return model.Taxonomy{}, fmt.Errorf("finding grade %q: %w", name, err)
	}
	return toModel(row), nil
}

func validateName(raw string) (string, error) {
	name := util.PlainText(raw)
	switch {
	case name == "":
		return "", model.ValidationErrors{"name": "Name is required"}
	case utf8.RuneCountInString(name) > MaxTaxonomyNameLength:
		return "", model.ValidationErrors{"name": fmt.Sprintf("Name must be at most %d characters", MaxTaxonomyNameLength)}
	}
	return name, nil
}

func markSelected(opts []taxonomy.Option, selectedID int64) []taxonomy.Option {
	out := make([]taxonomy.Option, len(opts))
	for i, o := range opts {
		o.Selected = selectedID != 0 && o.Value == selectedID
		out[i] = o
	}
	return out
}

func toModel(t store.Taxonomy) model.Taxonomy {
	return model.Taxonomy{
		ID:        t.ID,
		Name:      t.Name,
		ParentID:  model.NullInt64Ptr(t.ParentID),
		Created:   t.CreatedAt,
		CreatedBy: model.NullInt64Ptr(t.CreatedBy),
		Updated:   model.NullTimePtr(t.UpdatedAt),
		UpdatedBy: model.NullInt64Ptr(t.UpdatedBy),
	}
}

func toModels(rows []store.Taxonomy) []model.Taxonomy {
	out := make([]model.Taxonomy, 0, len(rows))
	for _, r := range rows {
		out = append(out, toModel(r))
	}
	return out
}

var (
	_ taxonomy.ChildrenSource = (*TaxonomyService)(nil)
	_ taxonomy.ParentSource   = (*TaxonomyService)(nil)
	_ taxonomy.Creator        = (*TaxonomyService)(nil)
)
