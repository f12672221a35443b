// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/cohesion-education/api/internal/taxonomy"
)

// TreeSource returns the nested taxonomy. Both the taxonomy service and the
// API client satisfy it.
type TreeSource interface {
	Tree(ctx context.Context) ([]*taxonomy.TreeNode, error)
}

// Exporter builds export documents.
type Exporter struct {
	src    TreeSource
	source string
	now    func() time.Time
}

// NewExporter creates an Exporter reading from src. source is recorded in the
// document, e.g. the server URL.
func NewExporter(src TreeSource, source string) *Exporter {
	return &Exporter{src: src, source: source, now: time.Now}
}

// Export reads the whole tree.
func (e *Exporter) Export(ctx context.Context) (*Document, error) {
	tree, err := e.src.Tree(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading taxonomy tree: %w", err)
	}
	return &Document{
		Version:    ExportVersion,
		ExportedAt: e.now().UTC(),
		Source:     e.source,
		Taxonomy:   append([]Node{}, toNodes(tree)...),
	}, nil
}

// ExportToWriter writes the document as indented JSON.
func (e *Exporter) ExportToWriter(ctx context.Context, w io.Writer) error {
	doc, err := e.Export(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}
	return nil
}

// toNodes returns nil for leaves so they encode without a children key.
func toNodes(tree []*taxonomy.TreeNode) []Node {
	if len(tree) == 0 {
		return nil
	}
	nodes := make([]Node, 0, len(tree))
	for _, t := range tree {
		nodes = append(nodes, Node{Name: t.Name, Children: toNodes(t.Children)})
	}
	return nodes
}
