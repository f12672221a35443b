// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/cohesion-education/api/internal/cache"
	"github.com/cohesion-education/api/internal/model"
	"github.com/cohesion-education/api/internal/store"
	"github.com/cohesion-education/api/internal/util"
)

// HomepageID is the single row holding the landing page document.
const HomepageID = 1

// homepageContent is the JSON stored in homepage.content.
type homepageContent struct {
	Header       model.Header       `json:"header"`
	Features     model.Features     `json:"features"`
	Testimonials model.Testimonials `json:"testimonials"`
	Pricing      model.Pricing      `json:"pricing"`
}

// HomepageService loads and saves the landing page document.
type HomepageService struct {
	queries *store.Queries
	cached  *cache.Typed[model.Homepage]
	md      goldmark.Markdown
	logger  *slog.Logger
}

// NewHomepageService creates a HomepageService. c may be nil.
func NewHomepageService(db *sql.DB, c cache.Cache, ttl time.Duration) *HomepageService {
	s := &HomepageService{
		queries: store.New(db),
		md:      goldmark.New(goldmark.WithExtensions(extension.GFM)),
		logger:  slog.Default(),
	}
	if c != nil {
		s.cached = cache.NewTyped[model.Homepage](c, "homepage:", ttl)
	}
	return s
}

// Load returns the stored homepage with its intro rendered to sanitized HTML.
// A missing row yields an empty document.
func (s *HomepageService) Load(ctx context.Context) (*model.Homepage, error) {
	if s.cached == nil {
		return s.load(ctx)
	}
	hp, err := s.cached.GetOrLoad(ctx, "current", func(ctx context.Context) (model.Homepage, error) {
		hp, err := s.load(ctx)
		if err != nil {
			return model.Homepage{}, err
		}
		return *hp, nil
	})
	if err != nil {
		return nil, err
	}
	return &hp, nil
}

func (s *HomepageService) load(ctx context.Context) (*model.Homepage, error) {
	row, err := s.queries.GetHomepage(ctx, HomepageID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.NewHomepage(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading homepage: %w", err)
	}

	hp := model.NewHomepage()
	var content homepageContent
	if row.Content != "" {
		if err := json.Unmarshal([]byte(row.Content), &content); err != nil {
			return nil, fmt.Errorf("decoding homepage: %w", err)
		}
		hp.Header = content.Header
		if content.Features.Highlights != nil || content.Features.Title != "" {
			hp.Features = content.Features
		}
		if content.Testimonials.List != nil {
			hp.Testimonials = content.Testimonials
		}
		if content.Pricing.List != nil || content.Pricing.Title != "" {
			hp.Pricing = content.Pricing
		}
	}
	hp.IntroMarkdown = row.IntroMarkdown
	hp.Updated = row.UpdatedAt

	html, err := s.RenderMarkdown(row.IntroMarkdown)
	if err != nil {
		return nil, err
	}
	hp.IntroHTML = html
	return hp, nil
}

// Save validates and stores hp, replacing the previous document.
func (s *HomepageService) Save(ctx context.Context, hp *model.Homepage) error {
	if hp == nil {
		return model.ValidationErrors{"content": "Homepage content is required"}
	}
	if strings.TrimSpace(hp.Header.Title) == "" {
		return model.ValidationErrors{"header.title": "Header title is required"}
	}

	content, err := json.Marshal(homepageContent{
		Header:       hp.Header,
		Features:     hp.Features,
		Testimonials: hp.Testimonials,
		Pricing:      hp.Pricing,
	})
	if err != nil {
		return fmt.Errorf("encoding homepage: %w", err)
	}

	now := time.Now().UTC()
	n, err := s.queries.UpdateHomepage(ctx, store.UpdateHomepageParams{
		Content:       string(content),
		IntroMarkdown: hp.IntroMarkdown,
		UpdatedAt:     now,
		UpdatedBy:     actorNull(ctx),
		ID:            HomepageID,
	})
	if err != nil {
		return fmt.Errorf("updating homepage: %w", err)
	}
	if n == 0 {
		if err := s.queries.InsertHomepage(ctx, store.InsertHomepageParams{
			ID:            HomepageID,
			Content:       string(content),
			IntroMarkdown: hp.IntroMarkdown,
			UpdatedAt:     now,
			UpdatedBy:     actorNull(ctx),
		}); err != nil {
			return fmt.Errorf("inserting homepage: %w", err)
		}
	}

	if s.cached != nil {
		if err := s.cached.Invalidate(ctx); err != nil {
			s.logger.Warn("cache invalidation failed", "category", model.EventCategoryCache, "error", err)
		}
	}
	s.logger.Info("homepage updated", "category", model.EventCategoryHomepage)
	return nil
}

// RenderMarkdown converts md to HTML and strips anything outside the
// user-generated-content policy.
func (s *HomepageService) RenderMarkdown(md string) (template.HTML, error) {
	if strings.TrimSpace(md) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return template.HTML(util.SanitizeHTML(buf.String())), nil //nolint:gosec // sanitized by bluemonday
}
