// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package taxonomy

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/cohesion-education/api/internal/model"
)

// TreeNode is a taxonomy node with its resolved children.
type TreeNode struct {
	ID       int64       `json:"id"`
	Name     string      `json:"name"`
	ParentID *int64      `json:"parent_id"`
	Children []*TreeNode `json:"children"`
}

// IsLeaf reports whether the node has no children.
func (n *TreeNode) IsLeaf() bool {
	return len(n.Children) == 0
}

// BuildTree nests a flat list of nodes. Nodes whose parent is missing from the
// list are treated as roots, and so is one node of every parent loop, so every
// listed node appears exactly once. Children are sorted by name.
func BuildTree(flat []model.Taxonomy) []*TreeNode {
	nodes := make(map[int64]*TreeNode, len(flat))
	for _, t := range flat {
		nodes[t.ID] = &TreeNode{
			ID:       t.ID,
			Name:     t.Name,
			ParentID: t.ParentID,
			Children: []*TreeNode{},
		}
	}

	roots := []*TreeNode{}
	for _, t := range flat {
		node := nodes[t.ID]
		if t.ParentID != nil && *t.ParentID != t.ID {
			if parent, ok := nodes[*t.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	// Nodes whose parent links form a loop are not reachable from any root.
	// Each loop is cut above its first listed node, which becomes a root.
	reached := make(map[int64]bool, len(nodes))
	for _, r := range roots {
		markReached(r, reached)
	}
	for _, t := range flat {
		if reached[t.ID] {
			continue
		}
		node := nodes[t.ID]
		if parent, ok := nodes[*t.ParentID]; ok {
			parent.Children = slices.DeleteFunc(parent.Children, func(c *TreeNode) bool { return c == node })
		}
		roots = append(roots, node)
		markReached(node, reached)
	}

	sortTree(roots, 0)
	return roots
}

func markReached(n *TreeNode, reached map[int64]bool) {
	if reached[n.ID] {
		return
	}
	reached[n.ID] = true
	for _, c := range n.Children {
		markReached(c, reached)
	}
}

func sortTree(nodes []*TreeNode, depth int) {
	if depth > DefaultMaxDepth {
		return
	}
	slices.SortFunc(nodes, func(a, b *TreeNode) int {
		return cmp.Or(strings.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	for _, n := range nodes {
		sortTree(n.Children, depth+1)
	}
}

// ReverseFlatten walks parent links from id up to its root and returns the
// breadcrumb label of the node, e.g. "First Grade > Math > Addition".
func ReverseFlatten(ctx context.Context, src ParentSource, id int64) (string, error) {
	var names []string
	seen := make(map[int64]bool)

	for current := id; current != 0; {
		if seen[current] {
			return "", fmt.Errorf("reverse flatten %d: %w", id, ErrCycle)
		}
		if len(seen) >= DefaultMaxDepth {
			return "", fmt.Errorf("reverse flatten %d: %w", id, ErrMaxDepth)
		}
		seen[current] = true

		node, err := src.Get(ctx, current)
		if err != nil {
			return "", fmt.Errorf("reverse flatten %d: %w", id, err)
		}
		names = append(names, node.Name)
		current = node.ParentIDValue()
	}

	slices.Reverse(names)
	return Label(names), nil
}
