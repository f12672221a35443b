// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy = bluemonday.StrictPolicy()
	ugcPolicy    = bluemonday.UGCPolicy()
)

// PlainText strips every tag from s, unescapes the entities bluemonday
// produces and collapses whitespace. Used for names and titles that are later
// escaped again by html/template.
func PlainText(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(strictPolicy.Sanitize(s))), " ")
}

// SanitizeHTML keeps the user-generated-content subset of HTML.
func SanitizeHTML(s string) string {
	return ugcPolicy.Sanitize(s)
}
