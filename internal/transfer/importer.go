// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/cohesion-education/api/internal/model"
	"github.com/cohesion-education/api/internal/taxonomy"
)

// ErrValidation is returned when a document fails validation; the details
// are in the ImportResult.
var ErrValidation = errors.New("validation failed")

// Target is where an import writes: it lists existing nodes and creates
// missing ones.
type Target interface {
	taxonomy.ChildrenSource
	taxonomy.Creator
}

// Importer merges documents into a Target. Nodes that already exist under
// the same parent (compared case-insensitively) are reused, so importing the
// same document twice creates nothing the second time.
type Importer struct {
	target Target
	logger *slog.Logger
}

// NewImporter creates an Importer.
func NewImporter(target Target, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{target: target, logger: logger}
}

// Validate checks the document without touching the target.
func (i *Importer) Validate(doc *Document) []ImportError {
	var errs []ImportError
	if doc.Version != ExportVersion {
		errs = append(errs, ImportError{Message: fmt.Sprintf("unsupported version %q", doc.Version)})
	}
	validateNodes(doc.Taxonomy, nil, &errs)
	return errs
}

func validateNodes(nodes []Node, path []string, errs *[]ImportError) {
	if len(path) >= taxonomy.DefaultMaxDepth {
		*errs = append(*errs, ImportError{Path: taxonomy.Label(path), Message: "nesting too deep"})
		return
	}
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		name := strings.TrimSpace(n.Name)
		if name == "" {
			*errs = append(*errs, ImportError{Path: taxonomy.Label(path), Message: "empty name"})
			continue
		}
		key := normalizeName(name)
		if seen[key] {
			*errs = append(*errs, ImportError{Path: taxonomy.Label(append(path, name)), Message: "duplicate name"})
			continue
		}
		seen[key] = true
		validateNodes(n.Children, append(path, name), errs)
	}
}

// Import validates doc and creates every node missing from the target.
// Creation stops at the first failing subtree; siblings are still imported.
func (i *Importer) Import(ctx context.Context, doc *Document, opts ImportOptions) (*ImportResult, error) {
	result := NewImportResult(opts.DryRun)

	if verrs := i.Validate(doc); len(verrs) > 0 {
		for _, e := range verrs {
			result.AddError(e.Path, e.Message)
		}
		return result, ErrValidation
	}

	roots, err := i.target.Roots(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing roots: %w", err)
	}
	if err := i.importLevel(ctx, doc.Taxonomy, taxonomy.RootParentID, roots, nil, opts, result); err != nil {
		return result, err
	}

	i.logger.Info("taxonomy import finished",
		"category", model.EventCategoryTaxonomy,
		"created", result.Created,
		"existing", result.Existing,
		"errors", len(result.Errors),
		"dry_run", opts.DryRun,
	)
	return result, nil
}

// importLevel imports nodes under parentID, whose current children are
// existing. A parentID of -1 marks a parent that does not exist yet (dry run).
func (i *Importer) importLevel(ctx context.Context, nodes []Node, parentID int64, existing []model.Taxonomy,
	path []string, opts ImportOptions, result *ImportResult) error {
	byName := make(map[string]int64, len(existing))
	for _, t := range existing {
		byName[normalizeName(t.Name)] = t.ID
	}

	for _, n := range nodes {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := strings.TrimSpace(n.Name)
		nodePath := append(path[:len(path):len(path)], name)

		id, found := byName[normalizeName(name)]
		switch {
		case found:
			result.Existing++
		case opts.DryRun || parentID < 0:
			result.Created++
			id = -1
		default:
			newID, err := i.target.Create(ctx, model.CreateTaxonomyRequest{Name: name, ParentID: parentID})
			if err != nil {
				result.AddError(taxonomy.Label(nodePath), err.Error())
				continue
			}
			result.Created++
			id = newID
		}

		if len(n.Children) == 0 {
			continue
		}
		var children []model.Taxonomy
		if id > 0 {
			var err error
			children, err = i.target.Children(ctx, id)
			if err != nil {
				result.AddError(taxonomy.Label(nodePath), err.Error())
				continue
			}
		}
		if err := i.importLevel(ctx, n.Children, id, children, nodePath, opts, result); err != nil {
			return err
		}
	}
	return nil
}

// ImportFromReader decodes a JSON document from r and imports it.
func (i *Importer) ImportFromReader(ctx context.Context, r io.Reader, opts ImportOptions) (*ImportResult, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	return i.Import(ctx, &doc, opts)
}
