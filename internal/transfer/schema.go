// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package transfer exports the curriculum taxonomy to a portable JSON
// document and merges such documents back into a server.
package transfer

import (
	"fmt"
	"strings"
	"time"
)

// ExportVersion is the current version of the document format.
const ExportVersion = "1.0"

// Document is the complete export structure.
type Document struct {
	Version    string    `json:"version"`
	ExportedAt time.Time `json:"exported_at"`
	Source     string    `json:"source,omitempty"`
	Taxonomy   []Node    `json:"taxonomy"`
}

// Node is a category and its subcategories. Ids are not exported; nodes are
// matched by name under their parent on import.
type Node struct {
	Name     string `json:"name"`
	Children []Node `json:"children,omitempty"`
}

// Count returns the number of nodes in the document.
func (d *Document) Count() int {
	return countNodes(d.Taxonomy)
}

func countNodes(nodes []Node) int {
	n := len(nodes)
	for _, c := range nodes {
		n += countNodes(c.Children)
	}
	return n
}

// ImportOptions configures an import.
type ImportOptions struct {
	// DryRun reports what would be created without writing anything.
	DryRun bool
}

// ImportError describes a node that could not be imported.
type ImportError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e ImportError) String() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ImportResult reports the outcome of an import.
type ImportResult struct {
	Success  bool          `json:"success"`
	DryRun   bool          `json:"dry_run"`
	Created  int           `json:"created"`
	Existing int           `json:"existing"`
	Errors   []ImportError `json:"errors,omitempty"`
}

// NewImportResult creates an empty successful result.
func NewImportResult(dryRun bool) *ImportResult {
	return &ImportResult{Success: true, DryRun: dryRun}
}

// AddError records a failure and marks the result unsuccessful.
func (r *ImportResult) AddError(path, message string) {
	r.Success = false
	r.Errors = append(r.Errors, ImportError{Path: path, Message: message})
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
