// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/cohesion-education/api/internal/model"
	"github.com/cohesion-education/api/internal/taxonomy"
)

func TestTaxonomy_RequiresLogin(t *testing.T) {
	e := newTestEnv(t)
	w := e.get(t, RouteTaxonomy)
	assertStatus(t, w.Code, http.StatusSeeOther)
	if loc := w.Header().Get("Location"); loc != RouteLogin {
		t.Errorf("Location = %q, want %q", loc, RouteLogin)
	}
}

func TestTaxonomy_Tree(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)

	w := e.get(t, RouteTaxonomy)
	assertStatus(t, w.Code, http.StatusOK)
	body := w.Body.String()

	for _, want := range []string{
		fmt.Sprintf(`<a href="/taxonomy/%d">First Grade</a>`, e.tree.FirstGrade),
		fmt.Sprintf(`<a href="/taxonomy/%d">Addition</a>`, e.tree.Addition),
		`<a class="add-taxonomy" href="/taxonomy/add/0">Add</a>`,
		fmt.Sprintf(`<a class="add-taxonomy" href="/taxonomy/add/%d">Add</a>`, e.tree.Math),
		"Welcome back",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("tree page missing %q", want)
		}
	}
	if strings.Contains(body, "<form id=\"add-") {
		t.Error("no add form should be open yet")
	}
}

func TestTaxonomy_OpenFormTwiceLeavesOneForm(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)

	addPath := taxonomy.AddURL(e.tree.Math)
	for range 2 {
		w := e.get(t, addPath)
		assertStatus(t, w.Code, http.StatusSeeOther)
		want := RouteTaxonomy + "#" + taxonomy.FormID(e.tree.Math)
		if loc := w.Header().Get("Location"); loc != want {
			t.Errorf("Location = %q, want %q", loc, want)
		}
	}

	body := e.get(t, RouteTaxonomy).Body.String()
	formTag := fmt.Sprintf(`<form id="%s"`, taxonomy.FormID(e.tree.Math))
	if n := strings.Count(body, formTag); n != 1 {
		t.Errorf("open forms for Math = %d, want 1", n)
	}
	if strings.Contains(body, `href="`+addPath+`"`) {
		t.Error("Add link should be replaced by the open form")
	}

	w := e.get(t, fmt.Sprintf("/taxonomy/cancel/%d", e.tree.Math))
	assertStatus(t, w.Code, http.StatusSeeOther)
	if strings.Contains(e.get(t, RouteTaxonomy).Body.String(), formTag) {
		t.Error("form should be closed after cancel")
	}
}

func TestTaxonomy_OpenFormUnknownParent(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)

	body := e.follow(t, e.get(t, "/taxonomy/add/9999"))
	if !strings.Contains(body, "Taxonomy not found") {
		t.Error("expected not found flash")
	}
}

func TestTaxonomy_CreateJSON(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)
	e.get(t, taxonomy.AddURL(0))

	w := e.postForm(t, RouteTaxonomy, url.Values{"name": {"Math"}, "parent_id": {"0"}}, "application/json")
	assertStatus(t, w.Code, http.StatusCreated)

	var resp CreateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID == 0 {
		t.Fatal("missing id")
	}
	if want := string(taxonomy.ItemHTML(resp.ID, "Math")); string(resp.HTML) != want {
		t.Errorf("html = %q, want %q", resp.HTML, want)
	}
	if !strings.Contains(string(resp.HTML), `<a class="add-taxonomy" href="/taxonomy/add/`+strconv.FormatInt(resp.ID, 10)+`">Add</a>`) {
		t.Errorf("new item lacks its own Add link: %s", resp.HTML)
	}

	node, err := e.tax.Get(context.Background(), resp.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !node.IsRoot() || node.Name != "Math" {
		t.Errorf("node = %+v", node)
	}
	if node.CreatedBy == nil || *node.CreatedBy != e.editor.ID {
		t.Errorf("CreatedBy = %v, want %d", node.CreatedBy, e.editor.ID)
	}

	if strings.Contains(e.get(t, RouteTaxonomy).Body.String(), `<form id="add-0"`) {
		t.Error("form should close after a successful add")
	}
}

func TestTaxonomy_CreateFormPost(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)

	w := e.postForm(t, RouteTaxonomy, url.Values{
		"name":      {"Multiplication"},
		"parent_id": {strconv.FormatInt(e.tree.Math, 10)},
	}, "")
	body := e.follow(t, w)
	if !strings.Contains(body, "Added Multiplication") {
		t.Error("missing success flash")
	}
	if !strings.Contains(body, ">Multiplication</a>") {
		t.Error("new node not in tree")
	}
}

func TestTaxonomy_CreateFailureKeepsFormOpen(t *testing.T) {
	tests := []struct {
		name     string
		form     url.Values
		parentID int64
		wantMsg  string
	}{
		{"empty name", url.Values{"name": {"  "}, "parent_id": {"0"}}, 0, "Failed to add Taxonomy Name is required"},
		{"unknown parent", url.Values{"name": {"Art"}, "parent_id": {"9999"}}, 9999, "Failed to add Taxonomy Parent taxonomy does not exist"},
		{"too long", url.Values{"name": {strings.Repeat("x", 101)}, "parent_id": {"0"}}, 0, "Failed to add Taxonomy Name must be at most 100 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			e.login(t)

			w := e.postForm(t, RouteTaxonomy, tt.form, "application/json")
			assertStatus(t, w.Code, http.StatusUnprocessableEntity)
			var resp model.APIResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Error != tt.wantMsg {
				t.Errorf("error = %q, want %q", resp.Error, tt.wantMsg)
			}

			w = e.postForm(t, RouteTaxonomy, tt.form, "")
			body := e.follow(t, w)
			if !strings.Contains(body, tt.wantMsg) {
				t.Errorf("page missing flash %q", tt.wantMsg)
			}
			if tt.parentID == 0 && !strings.Contains(body, `<form id="add-0"`) {
				t.Error("form should stay open after a failed add")
			}
		})
	}
}

func TestTaxonomy_ShowRenameDelete(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)

	w := e.get(t, taxonomy.NodeURL(e.tree.Addition))
	assertStatus(t, w.Code, http.StatusOK)
	if !strings.Contains(w.Body.String(), "First Grade &gt; Math &gt; Addition") {
		t.Error("show page missing breadcrumb label")
	}

	body := e.follow(t, e.postForm(t, taxonomy.NodeURL(e.tree.Addition), url.Values{"name": {"Adding"}}, ""))
	if !strings.Contains(body, "Taxonomy renamed") || !strings.Contains(body, "<h1>Adding</h1>") {
		t.Error("rename not shown")
	}

	body = e.follow(t, e.postForm(t, taxonomy.NodeURL(e.tree.Math)+RouteSuffixDelete, nil, ""))
	if !strings.Contains(body, "Delete the child categories first") {
		t.Error("deleting a parent should be refused")
	}

	body = e.follow(t, e.postForm(t, taxonomy.NodeURL(e.tree.Addition)+RouteSuffixDelete, nil, ""))
	if !strings.Contains(body, "Taxonomy deleted") {
		t.Error("missing delete flash")
	}
	if _, err := e.tax.Get(context.Background(), e.tree.Addition); err == nil {
		t.Error("node still exists")
	}

	body = e.follow(t, e.get(t, taxonomy.NodeURL(9999)))
	if !strings.Contains(body, "Taxonomy not found") {
		t.Error("missing not found flash")
	}
}
