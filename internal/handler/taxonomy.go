// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/alexedwards/scs/v2"

	"github.com/cohesion-education/api/internal/model"
	"github.com/cohesion-education/api/internal/render"
	"github.com/cohesion-education/api/internal/service"
	"github.com/cohesion-education/api/internal/session"
	"github.com/cohesion-education/api/internal/taxonomy"
	"github.com/cohesion-education/api/internal/util"
)

// TaxonomyHandler serves the taxonomy tree editor.
type TaxonomyHandler struct {
	taxonomy       *service.TaxonomyService
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
}

// NewTaxonomyHandler creates a new TaxonomyHandler.
func NewTaxonomyHandler(tax *service.TaxonomyService, renderer *render.Renderer, sm *scs.SessionManager) *TaxonomyHandler {
	return &TaxonomyHandler{taxonomy: tax, renderer: renderer, sessionManager: sm}
}

// TreeLevel is one <ul> of the editor: the nodes below ParentID and the
// Add affordance for that parent.
type TreeLevel struct {
	ParentID int64
	FormOpen bool
	Nodes    []TreeItem
}

// TreeItem is a node with the level below it.
type TreeItem struct {
	ID       int64
	Name     string
	Children TreeLevel
}

// buildLevel converts the nested tree into view levels, marking open forms.
func buildLevel(parentID int64, nodes []*taxonomy.TreeNode, editor *taxonomy.Editor) TreeLevel {
	level := TreeLevel{
		ParentID: parentID,
		FormOpen: editor.IsOpen(parentID),
		Nodes:    make([]TreeItem, 0, len(nodes)),
	}
	for _, n := range nodes {
		level.Nodes = append(level.Nodes, TreeItem{
			ID:       n.ID,
			Name:     n.Name,
			Children: buildLevel(n.ID, n.Children, editor),
		})
	}
	return level
}

// TreePageData holds data for the tree editor template.
type TreePageData struct {
	Root      TreeLevel
	OpenForms []int64
}

// Tree handles GET /taxonomy.
func (h *TaxonomyHandler) Tree(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.taxonomy.Tree(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to load taxonomy tree", "error", err)
		return
	}

	editor := session.Editor(r.Context(), h.sessionManager)
	renderPage(w, r, h.renderer, "admin/taxonomy", render.TemplateData{
		Title: "Taxonomy",
		User:  currentUser(r),
		Data: TreePageData{
			Root:      buildLevel(taxonomy.RootParentID, nodes, editor),
			OpenForms: editor.OpenForms(),
		},
	})
}

// NodePageData holds data for a single node page.
type NodePageData struct {
	Node     model.Taxonomy
	Label    string
	Children []model.Taxonomy
	Leaf     bool
}

// Show handles GET /taxonomy/{id}.
func (h *TaxonomyHandler) Show(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	node, err := h.taxonomy.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, taxonomy.ErrNotFound) {
			flashError(w, r, h.renderer, redirectTaxonomy, "Taxonomy not found")
			return
		}
		logAndInternalError(w, "failed to get taxonomy", "error", err, "taxonomy_id", id)
		return
	}

	label, err := h.taxonomy.Label(r.Context(), id)
	if err != nil {
		slog.Warn("failed to build taxonomy label", "category", model.EventCategoryTaxonomy, "taxonomy_id", id, "error", err)
		label = node.Name
	}
	children, err := h.taxonomy.Children(r.Context(), id)
	if err != nil {
		logAndInternalError(w, "failed to list taxonomy children", "error", err, "taxonomy_id", id)
		return
	}

	renderPage(w, r, h.renderer, "admin/taxonomy_node", render.TemplateData{
		Title: node.Name,
		User:  currentUser(r),
		Data: NodePageData{
			Node:     node,
			Label:    label,
			Children: children,
			Leaf:     len(children) == 0,
		},
	})
}

// OpenForm handles GET /taxonomy/add/{id}. Opening an already open form
// changes nothing.
func (h *TaxonomyHandler) OpenForm(w http.ResponseWriter, r *http.Request) {
	parentID := taxonomy.ParentIDFromPath(r.URL.Path)
	if parentID != taxonomy.RootParentID {
		if _, err := h.taxonomy.Get(r.Context(), parentID); err != nil {
			flashError(w, r, h.renderer, redirectTaxonomy, "Taxonomy not found")
			return
		}
	}

	editor := session.Editor(r.Context(), h.sessionManager)
	if editor.Open(parentID) {
		session.SaveEditor(r.Context(), h.sessionManager, editor)
	}
	http.Redirect(w, r, redirectTaxonomy+"#"+taxonomy.FormID(parentID), http.StatusSeeOther)
}

// CloseForm handles GET /taxonomy/cancel/{id}.
func (h *TaxonomyHandler) CloseForm(w http.ResponseWriter, r *http.Request) {
	parentID := taxonomy.ParentIDFromPath(r.URL.Path)
	editor := session.Editor(r.Context(), h.sessionManager)
	editor.Close(parentID)
	session.SaveEditor(r.Context(), h.sessionManager, editor)
	http.Redirect(w, r, redirectTaxonomy, http.StatusSeeOther)
}

// CreateResponse is the JSON answer to a background add.
type CreateResponse struct {
	ID   int64         `json:"id"`
	HTML template.HTML `json:"html"`
}

// Create handles POST /taxonomy. On failure the form stays open and the
// error is shown as "Failed to add Taxonomy <reason>".
func (h *TaxonomyHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		if wantsJSON(r) {
			writeJSONError(w, http.StatusBadRequest, "Invalid form data")
			return
		}
		flashError(w, r, h.renderer, redirectTaxonomy, "Invalid form data")
		return
	}

	name := r.PostFormValue("name")
	parentID, err := strconv.ParseInt(r.PostFormValue("parent_id"), 10, 64)
	if err != nil || parentID < 0 {
		parentID = taxonomy.RootParentID
	}

	editor := session.Editor(r.Context(), h.sessionManager)
	// A submitted form is open even if the session lost track of it.
	editor.Open(parentID)

	id, err := editor.Submit(r.Context(), h.taxonomy, name, parentID)
	session.SaveEditor(r.Context(), h.sessionManager, editor)
	if err != nil {
		msg := "Failed to add Taxonomy " + createErrorMessage(err)
		status := http.StatusUnprocessableEntity
		if _, ok := validationErrors(err); !ok && !errors.Is(err, taxonomy.ErrEmptyName) {
			slog.Error("failed to add taxonomy", "error", err, "parent_id", parentID)
			status = http.StatusInternalServerError
		}
		if wantsJSON(r) {
			writeJSONError(w, status, msg)
			return
		}
		flashError(w, r, h.renderer, redirectTaxonomy+"#"+taxonomy.FormID(parentID), msg)
		return
	}

	clean := util.PlainText(name)
	if wantsJSON(r) {
		writeJSON(w, http.StatusCreated, CreateResponse{ID: id, HTML: taxonomy.ItemHTML(id, clean)})
		return
	}
	flashSuccess(w, r, h.renderer, redirectTaxonomy, "Added "+clean)
}

func createErrorMessage(err error) string {
	if verrs, ok := validationErrors(err); ok {
		return firstMessage(verrs, "name", "parent_id")
	}
	if errors.Is(err, taxonomy.ErrEmptyName) {
		return "Name is required"
	}
	return "Internal error"
}

// Rename handles POST /taxonomy/{id}.
func (h *TaxonomyHandler) Rename(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	back := taxonomy.NodeURL(id)
	if err := r.ParseForm(); err != nil {
		flashError(w, r, h.renderer, back, "Invalid form data")
		return
	}

	err := h.taxonomy.Rename(r.Context(), id, r.PostFormValue("name"))
	switch {
	case err == nil:
		flashSuccess(w, r, h.renderer, back, "Taxonomy renamed")
	case errors.Is(err, taxonomy.ErrNotFound):
		flashError(w, r, h.renderer, redirectTaxonomy, "Taxonomy not found")
	default:
		if verrs, ok := validationErrors(err); ok {
			flashError(w, r, h.renderer, back, firstMessage(verrs, "name"))
			return
		}
		slog.Error("failed to rename taxonomy", "error", err, "taxonomy_id", id)
		flashError(w, r, h.renderer, back, "Error renaming taxonomy")
	}
}

// Delete handles POST /taxonomy/{id}/delete.
func (h *TaxonomyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	err := h.taxonomy.Delete(r.Context(), id)
	switch {
	case err == nil:
		flashSuccess(w, r, h.renderer, redirectTaxonomy, "Taxonomy deleted")
	case errors.Is(err, taxonomy.ErrNotFound):
		flashError(w, r, h.renderer, redirectTaxonomy, "Taxonomy not found")
	case errors.Is(err, service.ErrHasChildren):
		flashError(w, r, h.renderer, taxonomy.NodeURL(id), "Delete the child categories first")
	case errors.Is(err, service.ErrInUse):
		flashError(w, r, h.renderer, taxonomy.NodeURL(id), "Videos are still filed under this category")
	default:
		slog.Error("failed to delete taxonomy", "error", err, "taxonomy_id", id)
		flashError(w, r, h.renderer, taxonomy.NodeURL(id), "Error deleting taxonomy")
	}
}
