// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohesion-education/api/internal/cache"
	"github.com/cohesion-education/api/internal/model"
	"github.com/cohesion-education/api/internal/store"
	"github.com/cohesion-education/api/internal/taxonomy"
	"github.com/cohesion-education/api/internal/testutil"
)

func newTaxonomyService(t *testing.T) (*TaxonomyService, testutil.GradeTree, cache.Cache) {
	t.Helper()
	svc, tree, c, _ := newTaxonomyServiceDB(t)
	return svc, tree, c
}

func newTaxonomyServiceDB(t *testing.T) (*TaxonomyService, testutil.GradeTree, cache.Cache, *sql.DB) {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)
	c := cache.NewMemoryCache(cache.MemoryOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = c.Close() })

	tree := testutil.SeedGradeTree(t, db)
	return NewTaxonomyService(db, c, TaxonomyOptions{Concurrency: 2, Logger: testutil.TestLogger()}), tree, c, db
}

func labels(opts []taxonomy.Option) []string {
	out := make([]string, 0, len(opts))
	for _, o := range opts {
		out = append(out, o.Label)
	}
	return out
}

func TestTaxonomyService_Flatten(t *testing.T) {
	svc, tree, _ := newTaxonomyService(t)
	ctx := context.Background()

	res, err := svc.Flatten(ctx, tree.Subtraction)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"First Grade > Math > Addition",
		"First Grade > Math > Subtraction",
		"First Grade > Science",
		"Second Grade",
	}, labels(res.Options))
	assert.Empty(t, res.Failures)

	sel, ok := res.Selected()
	require.True(t, ok)
	assert.Equal(t, tree.Subtraction, sel.Value)

	// Served from cache with a different selection.
	res, err = svc.Flatten(ctx, tree.SecondGrade)
	require.NoError(t, err)
	sel, ok = res.Selected()
	require.True(t, ok)
	assert.Equal(t, "Second Grade", sel.Label)
}

func TestTaxonomyService_CreateInvalidatesCache(t *testing.T) {
	svc, tree, _, db := newTaxonomyServiceDB(t)
	editor := testutil.CreateEditor(t, db)
	ctx := WithActor(context.Background(), editor.ID)

	_, err := svc.Flatten(ctx, 0)
	require.NoError(t, err)

	id, err := svc.Create(ctx, model.CreateTaxonomyRequest{Name: "  <b>Fractions</b> ", ParentID: tree.Math})
	require.NoError(t, err)

	node, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Fractions", node.Name)
	require.NotNil(t, node.CreatedBy)
	assert.Equal(t, editor.ID, *node.CreatedBy)

	res, err := svc.Flatten(ctx, 0)
	require.NoError(t, err)
	assert.Contains(t, labels(res.Options), "First Grade > Math > Fractions")
}

func TestTaxonomyService_CreateValidation(t *testing.T) {
	svc, _, _ := newTaxonomyService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   model.CreateTaxonomyRequest
		field string
	}{
		{"blank", model.CreateTaxonomyRequest{Name: "   "}, "name"},
		{"markup only", model.CreateTaxonomyRequest{Name: "<script>x()</script>"}, "name"},
		{"missing parent", model.CreateTaxonomyRequest{Name: "Orphan", ParentID: 9999}, "parent_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.req)
			var verr model.ValidationErrors
			require.True(t, errors.As(err, &verr), "err = %v", err)
			assert.Contains(t, verr, tt.field)
		})
	}
}

func TestTaxonomyService_CreateUnderLeafWithVideos(t *testing.T) {
	svc, tree, _, db := newTaxonomyServiceDB(t)
	ctx := context.Background()

	_, err := store.New(db).CreateVideo(ctx, store.CreateVideoParams{
		Title:               "Plants",
		TaxonomyID:          tree.Science,
		FileName:            "plants.mp4",
		FileType:            model.MimeTypeMP4,
		StoragePath:         "videos/x/plants.mp4",
		KeyTerms:            model.StringListToJSON(nil),
		StateStandards:      model.StringListToJSON(nil),
		CommonCoreStandards: model.StringListToJSON(nil),
		CreatedAt:           time.Now().UTC(),
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, model.CreateTaxonomyRequest{Name: "Botany", ParentID: tree.Science})
	var verr model.ValidationErrors
	require.True(t, errors.As(err, &verr), "err = %v", err)
	assert.Contains(t, verr, "parent_id")

	leaf, err := svc.IsLeaf(ctx, tree.Science)
	require.NoError(t, err)
	assert.True(t, leaf)

	_, err = svc.Create(ctx, model.CreateTaxonomyRequest{Name: "Geometry", ParentID: tree.Math})
	assert.NoError(t, err, "parents without videos accept children")
}

func TestTaxonomyService_CreateRoot(t *testing.T) {
	svc, _, _ := newTaxonomyService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, model.CreateTaxonomyRequest{Name: "Third Grade"})
	require.NoError(t, err)

	grade, err := svc.FindGradeByName(ctx, "Third Grade")
	require.NoError(t, err)
	assert.Equal(t, id, grade.ID)
	assert.True(t, grade.IsRoot())
}

func TestTaxonomyService_LabelAndLeaf(t *testing.T) {
	svc, tree, _ := newTaxonomyService(t)
	ctx := context.Background()

	label, err := svc.Label(ctx, tree.Addition)
	require.NoError(t, err)
	assert.Equal(t, "First Grade > Math > Addition", label)

	leaf, err := svc.IsLeaf(ctx, tree.Addition)
	require.NoError(t, err)
	assert.True(t, leaf)

	leaf, err = svc.IsLeaf(ctx, tree.Math)
	require.NoError(t, err)
	assert.False(t, leaf)

	_, err = svc.IsLeaf(ctx, 4242)
	assert.ErrorIs(t, err, taxonomy.ErrNotFound)

	_, err = svc.FindGradeByName(ctx, "Kindergarten")
	assert.ErrorIs(t, err, taxonomy.ErrNotFound)
}

func TestTaxonomyService_ChildrenAndTree(t *testing.T) {
	svc, tree, _ := newTaxonomyService(t)
	ctx := context.Background()

	children, err := svc.Children(ctx, tree.FirstGrade)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "Math", children[0].Name)
	assert.Equal(t, tree.FirstGrade, children[0].ParentIDValue())

	none, err := svc.Children(ctx, tree.SecondGrade)
	require.NoError(t, err)
	assert.Empty(t, none)

	nodes, err := svc.Tree(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "First Grade", nodes[0].Name)
	assert.Len(t, nodes[0].Children, 2)
}

func TestTaxonomyService_RenameAndDelete(t *testing.T) {
	svc, tree, _ := newTaxonomyService(t)
	ctx := context.Background()

	require.NoError(t, svc.Rename(ctx, tree.Science, "Life Science"))
	node, err := svc.Get(ctx, tree.Science)
	require.NoError(t, err)
	assert.Equal(t, "Life Science", node.Name)
	assert.NotNil(t, node.Updated)

	assert.ErrorIs(t, svc.Delete(ctx, tree.Math), ErrHasChildren)
	require.NoError(t, svc.Delete(ctx, tree.Addition))
	_, err = svc.Get(ctx, tree.Addition)
	assert.ErrorIs(t, err, taxonomy.ErrNotFound)
}

func TestTaxonomyService_Refresh(t *testing.T) {
	svc, _, c := newTaxonomyService(t)
	ctx := context.Background()

	res, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Len(t, res.Options, 4)

	_, err = c.Get(ctx, "taxonomy:flatten:"+flattenCacheKey)
	assert.NoError(t, err, "refresh should prime the cache")
}

func TestActor(t *testing.T) {
	assert.Equal(t, int64(0), ActorFrom(context.Background()))
	ctx := WithActor(context.Background(), 3)
	assert.Equal(t, int64(3), ActorFrom(ctx))
	assert.True(t, actorNull(ctx).Valid)
}
