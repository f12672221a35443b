// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cohesion-education/api/internal/model"
	"github.com/cohesion-education/api/internal/taxonomy"
	"github.com/cohesion-education/api/internal/util"
)

// maxTaxonomyBody bounds POST /api/taxonomy bodies.
const maxTaxonomyBody = 64 << 10

// CreateTaxonomyResponse is the body of a successful POST /api/taxonomy.
type CreateTaxonomyResponse struct {
	ID int64 `json:"id"`
}

// ListRoots handles GET /api/taxonomy.
func (h *Handler) ListRoots(w http.ResponseWriter, r *http.Request) {
	roots, err := h.taxonomy.Roots(r.Context())
	if err != nil {
		slog.Error("failed to list taxonomy roots", "error", err)
		WriteInternalError(w, "Failed to list taxonomy")
		return
	}
	WriteJSON(w, http.StatusOK, roots)
}

// GetTaxonomy handles GET /api/taxonomy/{id}.
func (h *Handler) GetTaxonomy(w http.ResponseWriter, r *http.Request) {
	node, ok := requireEntityByID(w, r, "taxonomy", func(id int64) (model.Taxonomy, error) {
		return h.taxonomy.Get(r.Context(), id)
	})
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, node)
}

// ListChildren handles GET /api/taxonomy/{id}/children. An empty list means
// the node is a leaf.
func (h *Handler) ListChildren(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r, "taxonomy")
	if !ok {
		return
	}
	children, err := h.taxonomy.Children(r.Context(), id)
	if err != nil {
		slog.Error("failed to list taxonomy children", "id", id, "error", err)
		WriteInternalError(w, "Failed to list children")
		return
	}
	WriteJSON(w, http.StatusOK, model.ChildrenResponse{Children: children, ParentID: id})
}

// CreateTaxonomy handles POST /api/taxonomy with {"name", "parent_id"}.
func (h *Handler) CreateTaxonomy(w http.ResponseWriter, r *http.Request) {
	var req model.CreateTaxonomyRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTaxonomyBody))
	if err := dec.Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body")
		return
	}
	if req.ParentID < 0 {
		WriteValidationError(w, model.ValidationErrors{"parent_id": "Parent ID must not be negative"})
		return
	}

	id, err := h.taxonomy.Create(r.Context(), req)
	if err != nil {
		if verrs, ok := validationErrors(err); ok {
			WriteValidationError(w, verrs, "name", "parent_id")
			return
		}
		slog.Error("failed to create taxonomy", "error", err, "parent_id", req.ParentID)
		WriteInternalError(w, "Failed to create taxonomy")
		return
	}
	WriteJSON(w, http.StatusCreated, CreateTaxonomyResponse{ID: id})
}

// Flatten handles GET /api/taxonomy/flatten?selected=ID. Failed subtrees are
// reported next to the options rather than failing the request.
func (h *Handler) Flatten(w http.ResponseWriter, r *http.Request) {
	selected := util.ParsePositiveID(r.URL.Query().Get("selected"))
	res, err := h.taxonomy.Flatten(r.Context(), selected)
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		slog.Error("failed to flatten taxonomy", "error", err)
		WriteInternalError(w, "Failed to flatten taxonomy")
		return
	}
	if res.Options == nil {
		res.Options = []taxonomy.Option{}
	}
	WriteJSON(w, http.StatusOK, res)
}

// Tree handles GET /api/taxonomy/tree.
func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.taxonomy.Tree(r.Context())
	if err != nil {
		slog.Error("failed to build taxonomy tree", "error", err)
		WriteInternalError(w, "Failed to build tree")
		return
	}
	if tree == nil {
		tree = []*taxonomy.TreeNode{}
	}
	WriteJSON(w, http.StatusOK, tree)
}
