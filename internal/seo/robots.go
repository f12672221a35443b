// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package seo serves crawler directives for the public site.
package seo

import (
	"net/http"
	"strings"
)

// DefaultDisallowPaths keeps crawlers out of the editor and the API. Only the
// homepage and uploaded media are meant to be indexed.
var DefaultDisallowPaths = []string{
	"/admin",
	"/taxonomy",
	"/api",
	"/login",
	"/logout",
}

// RobotsConfig holds configuration for robots.txt generation.
type RobotsConfig struct {
	DisallowAll   bool     // Block all crawlers (staging, development)
	DisallowPaths []string // Added to DefaultDisallowPaths
	ExtraRules    string
}

// Build generates the robots.txt content.
func (c RobotsConfig) Build() string {
	var sb strings.Builder
	sb.WriteString("User-agent: *\n")

	if c.DisallowAll {
		sb.WriteString("Disallow: /\n")
	} else {
		paths := append(append([]string{}, DefaultDisallowPaths...), c.DisallowPaths...)
		for _, p := range paths {
			sb.WriteString("Disallow: ")
			sb.WriteString(p)
			sb.WriteString("\n")
		}
		sb.WriteString("Allow: /\n")
	}

	if c.ExtraRules != "" {
		sb.WriteString("\n")
		sb.WriteString(c.ExtraRules)
		if !strings.HasSuffix(c.ExtraRules, "\n") {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// RobotsHandler serves the built file. The content is computed once.
func RobotsHandler(c RobotsConfig) http.HandlerFunc {
	body := []byte(c.Build())
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		_, _ = w.Write(body)
	}
}
