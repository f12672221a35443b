// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Supported video MIME types
const (
	MimeTypeMP4       = "video/mp4"
	MimeTypeWebM      = "video/webm"
	MimeTypeQuickTime = "video/quicktime"
	MimeTypeOgg       = "video/ogg"
)

// Supported poster MIME types
const (
	MimeTypeJPEG = "image/jpeg"
	MimeTypePNG  = "image/png"
	MimeTypeGIF  = "image/gif"
	MimeTypeWebP = "image/webp"
)

// Video is an uploaded lesson video filed under a leaf taxonomy node.
type Video struct {
	ID                  int64      `json:"id"`
	Title               string     `json:"title"`
	TaxonomyID          int64      `json:"taxonomy_id"`
	TaxonomyLabel       string     `json:"taxonomy_label,omitempty"`
	FileName            string     `json:"file_name"`
	FileType            string     `json:"file_type"`
	FileSize            int64      `json:"file_size"`
	URL                 string     `json:"url,omitempty"`
	PosterURL           string     `json:"poster_url,omitempty"`
	KeyTerms            []string   `json:"key_terms"`
	StateStandards      []string   `json:"state_standards"`
	CommonCoreStandards []string   `json:"common_core_standards"`
	Created             time.Time  `json:"created"`
	CreatedBy           *int64     `json:"created_by,omitempty"`
	Updated             *time.Time `json:"updated,omitempty"`
	UpdatedBy           *int64     `json:"updated_by,omitempty"`
}

// ParseStringList decodes a JSON array column; invalid or empty input yields an empty list.
func ParseStringList(s string) []string {
	if s == "" {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil || out == nil {
		return []string{}
	}
	return out
}

// StringListToJSON encodes a list for storage in a JSON array column.
func StringListToJSON(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// SplitList splits a comma or newline separated form value, trimming blanks.
func SplitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' || r == '\r' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
