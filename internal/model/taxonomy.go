// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Taxonomy is a node in the category tree (grade > subject > unit ...).
// Roots have a nil ParentID. Children is only populated when the caller
// fetched them; nil and empty are treated the same.
type Taxonomy struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	ParentID  *int64     `json:"parent_id"`
	Children  []Taxonomy `json:"children,omitempty"`
	Created   time.Time  `json:"created,omitzero"`
	CreatedBy *int64     `json:"created_by,omitempty"`
	Updated   *time.Time `json:"updated,omitempty"`
	UpdatedBy *int64     `json:"updated_by,omitempty"`
}

// IsRoot reports whether the node has no parent.
func (t Taxonomy) IsRoot() bool {
	return t.ParentID == nil
}

// IsZero reports whether t is the zero node, which traversals skip.
func (t Taxonomy) IsZero() bool {
	return t.ID == 0 && t.Name == ""
}

// ParentIDValue returns the parent id, or 0 for a root.
func (t Taxonomy) ParentIDValue() int64 {
	if t.ParentID == nil {
		return 0
	}
	return *t.ParentID
}

// NullInt64Ptr converts a nullable column into a pointer.
func NullInt64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

// NullTimePtr converts a nullable timestamp into a pointer.
func NullTimePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	v := n.Time
	return &v
}

// CreateTaxonomyRequest is the body of POST /api/taxonomy.
// A ParentID of 0 creates a root.
type CreateTaxonomyRequest struct {
	Name     string `json:"name"`
	ParentID int64  `json:"parent_id"`
}

// ChildrenResponse is the body of GET /api/taxonomy/{id}/children.
type ChildrenResponse struct {
	Children []Taxonomy `json:"children"`
	ParentID int64      `json:"parent_id"`
}
