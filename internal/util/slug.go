// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util holds small helpers shared by the services and handlers:
// slugs for stored file names, safe path joining under the uploads
// directory, HTML sanitizing and form value parsing.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxSlugLength bounds slugs used as file names.
const MaxSlugLength = 80

var (
	slugRegex       = regexp.MustCompile(`[^a-z0-9-]+`)
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// Slugify converts s to a lowercase, ASCII, hyphen-separated slug of at most
// MaxSlugLength bytes. Accents are stripped and other scripts transliterated,
// so "Сложение" becomes "slozhenie". It returns fallback when nothing survives.
func Slugify(s, fallback string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	result = unidecode.Unidecode(result)

	result = strings.ToLower(result)
	result = strings.Join(strings.Fields(result), "-")
	result = slugRegex.ReplaceAllString(result, "")
	result = multipleHyphens.ReplaceAllString(result, "-")
	if len(result) > MaxSlugLength {
		result = result[:MaxSlugLength]
	}
	result = strings.Trim(result, "-")

	if result == "" {
		return fallback
	}
	return result
}
