// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohesion-education/api/internal/apiclient"
	"github.com/cohesion-education/api/internal/model"
	"github.com/cohesion-education/api/internal/taxonomy"
	"github.com/cohesion-education/api/web"
)

func testTemplatesFS() fs.FS { return web.TemplatesFS() }

func names(nodes []model.Taxonomy) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name)
	}
	return out
}

func TestListRoots(t *testing.T) {
	e := newAPIEnv(t)
	var roots []model.Taxonomy
	assert.Equal(t, http.StatusOK, e.getJSON(t, "/api/taxonomy", &roots))
	assert.Equal(t, []string{"First Grade", "Second Grade"}, names(roots))
	assert.Nil(t, roots[0].ParentID)
}

func TestGetTaxonomy(t *testing.T) {
	e := newAPIEnv(t)

	var node model.Taxonomy
	assert.Equal(t, http.StatusOK, e.getJSON(t, "/api/taxonomy/"+strconv.FormatInt(e.tree.Math, 10), &node))
	assert.Equal(t, "Math", node.Name)
	require.NotNil(t, node.ParentID)
	assert.Equal(t, e.tree.FirstGrade, *node.ParentID)

	status, data := e.call(t, http.MethodGet, "/api/taxonomy/9999", "", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Taxonomy not found", decodeResponse(t, data).Error)
}

func TestListChildren(t *testing.T) {
	e := newAPIEnv(t)

	var resp model.ChildrenResponse
	assert.Equal(t, http.StatusOK, e.getJSON(t, "/api/taxonomy/"+strconv.FormatInt(e.tree.Math, 10)+"/children", &resp))
	assert.Equal(t, e.tree.Math, resp.ParentID)
	assert.Equal(t, []string{"Addition", "Subtraction"}, names(resp.Children))

	var leaf map[string]any
	assert.Equal(t, http.StatusOK, e.getJSON(t, "/api/taxonomy/"+strconv.FormatInt(e.tree.Addition, 10)+"/children", &leaf))
	assert.Equal(t, []any{}, leaf["children"], "a leaf has an empty array, not null")
}

func TestListChildren_NonNumericID(t *testing.T) {
	e := newAPIEnv(t)
	for _, id := range []string{"abc", "-1", "0", "1.5"} {
		status, data := e.call(t, http.MethodGet, "/api/taxonomy/"+id+"/children", "", nil, "")
		assert.Equal(t, http.StatusNotFound, status, id)
		assert.NotEmpty(t, decodeResponse(t, data).Error, id)
	}
}

func TestCreateTaxonomy(t *testing.T) {
	e := newAPIEnv(t)

	body := `{"name":"Geometry","parent_id":` + strconv.FormatInt(e.tree.Math, 10) + `}`
	status, data := e.call(t, http.MethodPost, "/api/taxonomy", "application/json", strings.NewReader(body), testToken)
	require.Equal(t, http.StatusCreated, status, "body: %s", data)
	assert.Regexp(t, `^\{"id":\d+\}\n?$`, string(data))

	children, err := e.tax.Children(t.Context(), e.tree.Math)
	require.NoError(t, err)
	assert.Equal(t, []string{"Addition", "Geometry", "Subtraction"}, names(children))
}

func TestCreateTaxonomy_Errors(t *testing.T) {
	e := newAPIEnv(t)

	tests := []struct {
		name       string
		body       string
		token      string
		wantStatus int
		wantField  string
	}{
		{"no token", `{"name":"X","parent_id":0}`, "", http.StatusUnauthorized, ""},
		{"wrong token", `{"name":"X","parent_id":0}`, "nope", http.StatusUnauthorized, ""},
		{"invalid JSON", `{"name":`, testToken, http.StatusBadRequest, ""},
		{"empty name", `{"name":"  ","parent_id":0}`, testToken, http.StatusUnprocessableEntity, "name"},
		{"unknown parent", `{"name":"X","parent_id":9999}`, testToken, http.StatusUnprocessableEntity, "parent_id"},
		{"negative parent", `{"name":"X","parent_id":-4}`, testToken, http.StatusUnprocessableEntity, "parent_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, data := e.call(t, http.MethodPost, "/api/taxonomy", "application/json", strings.NewReader(tt.body), tt.token)
			assert.Equal(t, tt.wantStatus, status)
			resp := decodeResponse(t, data)
			assert.NotEmpty(t, resp.Error)
			if tt.wantField != "" {
				require.Len(t, resp.ValidationErrors, 1)
				assert.Equal(t, tt.wantField, resp.ValidationErrors[0].Field)
			}
		})
	}
}

func TestFlatten(t *testing.T) {
	e := newAPIEnv(t)

	var res taxonomy.Result
	path := "/api/taxonomy/flatten?selected=" + strconv.FormatInt(e.tree.Subtraction, 10)
	assert.Equal(t, http.StatusOK, e.getJSON(t, path, &res))

	labels := make([]string, 0, len(res.Options))
	var selected []int64
	for _, o := range res.Options {
		labels = append(labels, o.Label)
		if o.Selected {
			selected = append(selected, o.Value)
		}
	}
	assert.Equal(t, []string{
		"First Grade > Math > Addition",
		"First Grade > Math > Subtraction",
		"First Grade > Science",
		"Second Grade",
	}, labels)
	assert.Equal(t, []int64{e.tree.Subtraction}, selected)
	assert.Empty(t, res.Failures)
}

func TestTree(t *testing.T) {
	e := newAPIEnv(t)

	var tree []*taxonomy.TreeNode
	assert.Equal(t, http.StatusOK, e.getJSON(t, "/api/taxonomy/tree", &tree))
	require.Len(t, tree, 2)
	assert.Equal(t, "First Grade", tree[0].Name)
	require.Len(t, tree[0].Children, 2)
	assert.Equal(t, "Math", tree[0].Children[0].Name)
	assert.True(t, tree[1].IsLeaf())
}

// The CLI client works against the real API.
func TestAPIClientRoundTrip(t *testing.T) {
	e := newAPIEnv(t)
	client := apiclient.New(e.server.URL, apiclient.WithToken(testToken))
	ctx := t.Context()

	roots, err := client.Roots(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"First Grade", "Second Grade"}, names(roots))

	id, err := client.Create(ctx, model.CreateTaxonomyRequest{Name: "Reading", ParentID: e.tree.SecondGrade})
	require.NoError(t, err)
	require.NotZero(t, id)

	node, err := client.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Reading", node.Name)

	_, err = client.Get(ctx, 9999)
	assert.ErrorIs(t, err, taxonomy.ErrNotFound)

	flat, err := client.Flatten(ctx, id)
	require.NoError(t, err)
	sel, ok := taxonomy.Result{Options: flat.Options}.Selected()
	require.True(t, ok)
	assert.Equal(t, "Second Grade > Reading", sel.Label)

	// The client-side flattener over HTTP agrees with the server.
	local, err := taxonomy.NewFlattener(client).FlattenAll(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, flat.Options, local.Options)

	label, err := taxonomy.ReverseFlatten(ctx, client, id)
	require.NoError(t, err)
	assert.Equal(t, "Second Grade > Reading", label)

	_, err = apiclient.New(e.server.URL).Create(ctx, model.CreateTaxonomyRequest{Name: "Nope"})
	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}
