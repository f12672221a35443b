// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"html/template"
	"time"
)

// Homepage is the marketing content shown on the public landing page.
// JSON names follow the contract of the original frontend.
type Homepage struct {
	Header        Header        `json:"header"`
	Features      Features      `json:"features"`
	Testimonials  Testimonials  `json:"testimonials"`
	Pricing       Pricing       `json:"pricing"`
	IntroMarkdown string        `json:"intro_markdown,omitempty"`
	IntroHTML     template.HTML `json:"intro_html,omitempty"`
	Updated       time.Time     `json:"updated,omitzero"`
}

type Header struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

type Features struct {
	Title      string      `json:"title"`
	Subtitle   string      `json:"subtitle"`
	Highlights []Highlight `json:"highlights"`
}

type Highlight struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	IconClassName string `json:"iconClassName"`
}

type Testimonials struct {
	List []Testimonial `json:"list"`
}

type Testimonial struct {
	Text   string `json:"text"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

type Pricing struct {
	Title    string          `json:"title"`
	Subtitle string          `json:"subtitle"`
	List     []PricingDetail `json:"list"`
}

type PricingDetail struct {
	Title    string `json:"title"`
	Price    string `json:"price"`
	Duration string `json:"duration"`
}

// NewHomepage returns an empty homepage with non-nil lists so it encodes as
// arrays rather than null.
func NewHomepage() *Homepage {
	return &Homepage{
		Features:     Features{Highlights: []Highlight{}},
		Testimonials: Testimonials{List: []Testimonial{}},
		Pricing:      Pricing{List: []PricingDetail{}},
	}
}
