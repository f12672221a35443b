// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package taxonomy

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cohesion-education/api/internal/model"
)

type mapParents map[int64]model.Taxonomy

func (m mapParents) Get(_ context.Context, id int64) (model.Taxonomy, error) {
	t, ok := m[id]
	if !ok {
		return model.Taxonomy{}, fmt.Errorf("id %d: %w", id, ErrNotFound)
	}
	return t, nil
}

func TestBuildTree(t *testing.T) {
	flat := []model.Taxonomy{
		node(3, "Math", 1),
		node(1, "First Grade", 0),
		node(5, "Addition", 3),
		node(4, "Art", 1),
		node(9, "Lost", 99),
	}

	roots := BuildTree(flat)
	if len(roots) != 2 {
		t.Fatalf("len(roots) = %d, want 2", len(roots))
	}
	if roots[0].Name != "First Grade" || roots[1].Name != "Lost" {
		t.Errorf("roots = %q, %q", roots[0].Name, roots[1].Name)
	}

	grade := roots[0]
	if len(grade.Children) != 2 || grade.Children[0].Name != "Art" || grade.Children[1].Name != "Math" {
		t.Fatalf("grade children not sorted: %+v", grade.Children)
	}
	if !grade.Children[0].IsLeaf() {
		t.Error("Art should be a leaf")
	}
	if math := grade.Children[1]; len(math.Children) != 1 || math.Children[0].ID != 5 {
		t.Errorf("Math children = %+v", math.Children)
	}
}

func TestBuildTree_ParentLoop(t *testing.T) {
	flat := []model.Taxonomy{
		node(1, "First Grade", 0),
		node(7, "Loop A", 8),
		node(8, "Loop B", 7),
		node(9, "Below B", 8),
	}

	roots := BuildTree(flat)
	if len(roots) != 2 {
		t.Fatalf("len(roots) = %d, want 2", len(roots))
	}
	if roots[0].Name != "First Grade" || roots[1].ID != 7 {
		t.Fatalf("roots = %q, %q", roots[0].Name, roots[1].Name)
	}

	a := roots[1]
	if len(a.Children) != 1 || a.Children[0].ID != 8 {
		t.Fatalf("Loop A children = %+v", a.Children)
	}
	b := a.Children[0]
	if len(b.Children) != 1 || b.Children[0].ID != 9 {
		t.Errorf("Loop B children = %+v, want only Below B", b.Children)
	}

	seen := map[int64]int{}
	var count func([]*TreeNode)
	count = func(nodes []*TreeNode) {
		for _, n := range nodes {
			seen[n.ID]++
			count(n.Children)
		}
	}
	count(roots)
	for _, tx := range flat {
		if seen[tx.ID] != 1 {
			t.Errorf("node %d appears %d times", tx.ID, seen[tx.ID])
		}
	}
}

func TestBuildTree_Empty(t *testing.T) {
	if roots := BuildTree(nil); roots == nil || len(roots) != 0 {
		t.Errorf("BuildTree(nil) = %v, want empty non-nil slice", roots)
	}
}

func TestReverseFlatten(t *testing.T) {
	src := mapParents{
		1: node(1, "First Grade", 0),
		3: node(3, "Math", 1),
		5: node(5, "Addition", 3),
	}

	got, err := ReverseFlatten(context.Background(), src, 5)
	if err != nil {
		t.Fatalf("ReverseFlatten: %v", err)
	}
	if want := "First Grade > Math > Addition"; got != want {
		t.Errorf("ReverseFlatten = %q, want %q", got, want)
	}
}

func TestReverseFlatten_Errors(t *testing.T) {
	cyclic := mapParents{
		1: node(1, "A", 2),
		2: node(2, "B", 1),
	}
	if _, err := ReverseFlatten(context.Background(), cyclic, 1); !errors.Is(err, ErrCycle) {
		t.Errorf("cyclic err = %v, want ErrCycle", err)
	}

	missing := mapParents{5: node(5, "Addition", 3)}
	if _, err := ReverseFlatten(context.Background(), missing, 5); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing parent err = %v, want ErrNotFound", err)
	}
}
