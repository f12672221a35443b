// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package taxonomy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/cohesion-education/api/internal/model"
)

// RootParentID is the parent id used when adding a top-level node.
const RootParentID int64 = 0

// FormID returns the DOM id of the add form for parentID.
func FormID(parentID int64) string {
	return "add-" + strconv.FormatInt(parentID, 10)
}

// NodeURL is the link to a node in the tree editor.
func NodeURL(id int64) string {
	return "/taxonomy/" + strconv.FormatInt(id, 10)
}

// AddURL is the link that opens the add form below parentID.
func AddURL(parentID int64) string {
	return "/taxonomy/add/" + strconv.FormatInt(parentID, 10)
}

// ParentIDFromPath returns the numeric last segment of an add link, or
// RootParentID when it is missing or not a positive integer.
func ParentIDFromPath(path string) int64 {
	path = strings.TrimRight(path, "/")
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		path = path[i+1:]
	}
	id, err := strconv.ParseInt(path, 10, 64)
	if err != nil || id < 0 {
		return RootParentID
	}
	return id
}

var itemTemplate = template.Must(template.New("item").Parse(
	`<li><a href="{{.NodeURL}}">{{.Name}}</a><ul><li class="add"><a class="add-taxonomy" href="{{.AddURL}}">Add</a></li></ul></li>`,
))

// ItemHTML renders the list item for a newly created node, including its own
// Add link so the node can be extended in turn.
func ItemHTML(id int64, name string) template.HTML {
	var buf bytes.Buffer
	err := itemTemplate.Execute(&buf, struct {
		NodeURL string
		AddURL  string
		Name    string
	}{NodeURL(id), AddURL(id), name})
	if err != nil {
		return ""
	}
	return template.HTML(buf.String()) //nolint:gosec // template output, name is escaped
}

// Editor tracks which add forms are open. At most one form is open per
// parent id. It is safe for concurrent use and serialises to a JSON array
// so it can be kept in the session.
type Editor struct {
	mu   sync.Mutex
	open map[int64]struct{}
}

// NewEditor creates an Editor with the given forms already open.
func NewEditor(open ...int64) *Editor {
	e := &Editor{open: make(map[int64]struct{}, len(open))}
	for _, id := range open {
		e.open[id] = struct{}{}
	}
	return e
}

// Open opens the form for parentID. It returns false, and changes nothing,
// when that form is already open.
func (e *Editor) Open(parentID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.open[parentID]; ok {
		return false
	}
	e.open[parentID] = struct{}{}
	return true
}

// Close closes the form for parentID.
func (e *Editor) Close(parentID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.open, parentID)
}

// IsOpen reports whether the form for parentID is open.
func (e *Editor) IsOpen(parentID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.open[parentID]
	return ok
}

// OpenForms returns the parent ids with an open form, ascending.
func (e *Editor) OpenForms() []int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]int64, 0, len(e.open))
	for id := range e.open {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Submit creates name below parentID. On success the form is closed and the
// new id returned; on failure the form stays open for another attempt.
func (e *Editor) Submit(ctx context.Context, c Creator, name string, parentID int64) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, ErrEmptyName
	}

	id, err := c.Create(ctx, model.CreateTaxonomyRequest{Name: name, ParentID: parentID})
	if err != nil {
		return 0, fmt.Errorf("adding taxonomy %q: %w", name, err)
	}

	e.Close(parentID)
	return id, nil
}

// MarshalJSON implements json.Marshaler.
func (e *Editor) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.OpenForms())
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Editor) UnmarshalJSON(b []byte) error {
	var ids []int64
	if err := json.Unmarshal(b, &ids); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.open = make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		e.open[id] = struct{}{}
	}
	return nil
}
