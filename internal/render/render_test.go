// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
)

func TestBlankLinesRegex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "no blank lines",
			input:    "line1\nline2\nline3",
			expected: "line1\nline2\nline3",
		},
		{
			name:     "one blank line (two newlines)",
			input:    "line1\n\nline2",
			expected: "line1\nline2",
		},
		{
			name:     "two blank lines (three newlines)",
			input:    "line1\n\n\nline2",
			expected: "line1\nline2",
		},
		{
			name:     "multiple blank lines",
			input:    "line1\n\n\n\n\nline2",
			expected: "line1\nline2",
		},
		{
			name:     "blank lines with spaces",
			input:    "line1\n  \n\t\nline2",
			expected: "line1\nline2",
		},
		{
			name:     "windows line endings",
			input:    "line1\r\n\r\n\r\nline2",
			expected: "line1\nline2",
		},
		{
			name:     "mixed line endings",
			input:    "line1\n\r\n\nline2",
			expected: "line1\nline2",
		},
		{
			name:     "blank lines at start",
			input:    "\n\n\nline1\nline2",
			expected: "\nline1\nline2",
		},
		{
			name:     "blank lines at end",
			input:    "line1\nline2\n\n\n",
			expected: "line1\nline2\n",
		},
		{
			name:     "multiple sections with blank lines",
			input:    "a\n\n\nb\n\n\nc",
			expected: "a\nb\nc",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "only newlines",
			input:    "\n\n\n\n",
			expected: "\n",
		},
		{
			name:     "html with blank lines",
			input:    "<div>\n\n\n<p>text</p>\n\n\n</div>",
			expected: "<div>\n<p>text</p>\n</div>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(blankLinesRegex.ReplaceAll([]byte(tt.input), []byte("\n")))
			if got != tt.expected {
				t.Errorf("blankLinesRegex.ReplaceAll(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTemplateFuncs_Present(t *testing.T) {
	funcs := (&Renderer{}).TemplateFuncs()
	for _, name := range []string{
		"formatDate", "formatDateTime", "truncate", "join", "add", "sub",
		"formatBytes", "deref", "nodeURL", "addURL", "formID",
		"isAdmin", "isEditor", "userRole",
	} {
		if _, ok := funcs[name]; !ok {
			t.Errorf("TemplateFuncs missing %s", name)
		}
	}
}

func TestTemplateFuncs_Truncate(t *testing.T) {
	truncate := (&Renderer{}).TemplateFuncs()["truncate"].(func(string, int) string)
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"Mathematics", 4, "Math..."},
		{"Ünïcödé", 3, "Ünï..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{
		0:               "0 B",
		512:             "512 B",
		2048:            "2.00 KB",
		5 * 1024 * 1024: "5.00 MB",
		3 << 30:         "3.00 GB",
	}
	for in, want := range tests {
		if got := formatBytes(in); got != want {
			t.Errorf("formatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestTemplateFuncs_Deref(t *testing.T) {
	deref := (&Renderer{}).TemplateFuncs()["deref"].(func(*int64) int64)
	v := int64(42)
	if deref(nil) != 0 || deref(&v) != 42 {
		t.Error("deref mismatch")
	}
}

// treePage is the Data of the admin/tree fixture.
type treePage struct {
	NodeID int64
	Date   time.Time
}

var testTemplates = fstest.MapFS{
	"layouts/base.html": {Data: []byte(`{{define "base"}}<title>{{.Title}}</title>
{{if .Flash}}<p class="flash {{.FlashType}}">{{.Flash}}</p>{{end}}


{{template "content" .}}{{end}}`)},
	"partials/node.html": {Data: []byte(`{{define "node"}}<a href="{{nodeURL .}}">{{.}}</a>{{end}}`)},
	"admin/tree.html":    {Data: []byte(`{{define "content"}}{{template "node" .Data.NodeID}} {{.CurrentPath}} {{formatDate .Data.Date}}{{end}}`)},
	"public/home.html":   {Data: []byte(`{{define "content"}}home {{.Data}}{{end}}`)},
	"admin/notes.txt":    {Data: []byte(`ignored`)},
}

func TestNew_ParsesPages(t *testing.T) {
	r, err := New(Config{TemplatesFS: testTemplates})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, name := range []string{"admin/tree", "public/home"} {
		if !r.Has(name) {
			t.Errorf("page %s not parsed", name)
		}
	}
	if r.Has("admin/notes") || r.Has("auth/login") {
		t.Error("unexpected page parsed")
	}
}

func TestNew_BadTemplate(t *testing.T) {
	fsys := fstest.MapFS{
		"layouts/base.html": {Data: []byte(`{{define "base"}}{{end}}`)},
		"admin/broken.html": {Data: []byte(`{{define "content"}}{{if}}{{end}}`)},
	}
	if _, err := New(Config{TemplatesFS: fsys}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestRender(t *testing.T) {
	r, err := New(Config{TemplatesFS: testTemplates})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/taxonomy/7", nil)
	date := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	if err := r.Render(w, req, "admin/tree", TemplateData{Title: "Tree", Data: treePage{NodeID: 7, Date: date}}); err != nil {
		t.Fatalf("Render: %v", err)
	}

	body := w.Body.String()
	for _, want := range []string{`<title>Tree</title>`, `href="/taxonomy/7"`, "/taxonomy/7", "Mar 5, 2024"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "\n\n") {
		t.Errorf("blank lines not collapsed:\n%q", body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestRenderStatus_UnknownTemplate(t *testing.T) {
	r, err := New(Config{TemplatesFS: testTemplates})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	w := httptest.NewRecorder()
	err = r.RenderStatus(w, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusNotFound, "admin/missing", TemplateData{})
	if err == nil {
		t.Fatal("expected error")
	}
	if w.Body.Len() != 0 {
		t.Error("nothing should be written on error")
	}
}

func TestRender_Flash(t *testing.T) {
	sm := scs.New()
	sm.Store = memstore.New()
	r, err := New(Config{TemplatesFS: testTemplates, SessionManager: sm})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var cookie *http.Cookie
	set := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.SetFlash(req, "Saved", FlashSuccess)
		w.WriteHeader(http.StatusNoContent)
	}))
	w := httptest.NewRecorder()
	set.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
	for _, c := range w.Result().Cookies() {
		if c.Name == sm.Cookie.Name {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("no session cookie")
	}

	show := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if err := r.Render(w, req, "public/home", TemplateData{Data: template.HTML("x")}); err != nil {
			t.Errorf("Render: %v", err)
		}
	}))
	for i, want := range []bool{true, false} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookie)
		w := httptest.NewRecorder()
		show.ServeHTTP(w, req)
		got := strings.Contains(w.Body.String(), `<p class="flash success">Saved</p>`)
		if got != want {
			t.Errorf("request %d: flash shown = %v, want %v", i, got, want)
		}
	}
}
