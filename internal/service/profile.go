// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/cohesion-education/api/internal/model"
	"github.com/cohesion-education/api/internal/store"
	"github.com/cohesion-education/api/internal/util"
)

// Profile field limits.
const (
	MaxProfileNameLength   = 100
	MaxProfileStateLength  = 64
	MaxProfileCountyLength = 128
)

// ErrUserNotFound is returned when the profile's user no longer exists.
var ErrUserNotFound = errors.New("user not found")

// ProfileFieldOrder is the order profile validation errors are reported in.
var ProfileFieldOrder = []string{"name", "state", "county"}

// ProfileService keeps the per-user profile row next to the users table.
// The row is created on first access.
type ProfileService struct {
	db      *sql.DB
	queries *store.Queries
	logger  *slog.Logger
}

// NewProfileService creates a ProfileService.
func NewProfileService(db *sql.DB) *ProfileService {
	return &ProfileService{db: db, queries: store.New(db), logger: slog.Default()}
}

// GetOrCreate returns the profile of userID, creating an empty one if the
// user has none yet.
func (s *ProfileService) GetOrCreate(ctx context.Context, userID int64) (model.Profile, error) {
	user, err := s.queries.GetUserByID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Profile{}, ErrUserNotFound
	}
	if err != nil {
		return model.Profile{}, fmt.Errorf("getting user %d: %w", userID, err)
	}

	row, err := s.queries.GetProfile(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		// A concurrent first request may win the insert; the read below
		// picks up its row either way.
		if cerr := s.queries.CreateProfile(ctx, store.CreateProfileParams{UserID: userID, CreatedAt: time.Now().UTC()}); cerr != nil {
			s.logger.Debug("profile insert failed, re-reading", "category", model.EventCategoryProfile, "user_id", userID, "error", cerr)
		}
		row, err = s.queries.GetProfile(ctx, userID)
	}
	if err != nil {
		return model.Profile{}, fmt.Errorf("getting profile %d: %w", userID, err)
	}
	return toProfile(user, row), nil
}

// Update validates req and saves the name on the user and the rest on the
// profile in one transaction.
func (s *ProfileService) Update(ctx context.Context, userID int64, req model.UpdateProfileRequest) (model.Profile, error) {
	name := util.PlainText(req.Name)
	state := util.PlainText(req.State)
	county := util.PlainText(req.County)

	errs := model.ValidationErrors{}
	switch {
	case name == "":
		errs["name"] = "Name is required"
	case utf8.RuneCountInString(name) > MaxProfileNameLength:
		errs["name"] = fmt.Sprintf("Name must be at most %d characters", MaxProfileNameLength)
	}
	if utf8.RuneCountInString(state) > MaxProfileStateLength {
		errs["state"] = fmt.Sprintf("State must be at most %d characters", MaxProfileStateLength)
	}
	if utf8.RuneCountInString(county) > MaxProfileCountyLength {
		errs["county"] = fmt.Sprintf("County must be at most %d characters", MaxProfileCountyLength)
	}
	if len(errs) > 0 {
		return model.Profile{}, errs
	}

	if _, err := s.GetOrCreate(ctx, userID); err != nil {
		return model.Profile{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Profile{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	qtx := s.queries.WithTx(tx)

	now := time.Now().UTC()
	if err := qtx.UpdateUserName(ctx, store.UpdateUserNameParams{Name: name, UpdatedAt: now, ID: userID}); err != nil {
		return model.Profile{}, fmt.Errorf("updating user %d: %w", userID, err)
	}
	if err := qtx.UpdateProfile(ctx, store.UpdateProfileParams{
		State:     state,
		County:    county,
		Onboarded: req.Onboarded,
		UpdatedAt: sql.NullTime{Time: now, Valid: true},
		UserID:    userID,
	}); err != nil {
		return model.Profile{}, fmt.Errorf("updating profile %d: %w", userID, err)
	}
	if err := tx.Commit(); err != nil {
		return model.Profile{}, fmt.Errorf("committing profile %d: %w", userID, err)
	}

	s.logger.Info("profile updated", "category", model.EventCategoryProfile, "user_id", userID)
	return s.GetOrCreate(ctx, userID)
}

// SavePreferences replaces the opt-ins of userID.
func (s *ProfileService) SavePreferences(ctx context.Context, userID int64, prefs model.Preferences) (model.Profile, error) {
	if _, err := s.GetOrCreate(ctx, userID); err != nil {
		return model.Profile{}, err
	}
	if err := s.queries.UpdateProfilePreferences(ctx, store.UpdateProfilePreferencesParams{
		Newsletter:  prefs.Newsletter,
		BetaProgram: prefs.BetaProgram,
		UpdatedAt:   sql.NullTime{Time: time.Now().UTC(), Valid: true},
		UserID:      userID,
	}); err != nil {
		return model.Profile{}, fmt.Errorf("saving preferences %d: %w", userID, err)
	}
	s.logger.Info("preferences saved", "category", model.EventCategoryProfile, "user_id", userID,
		"newsletter", prefs.Newsletter, "beta_program", prefs.BetaProgram)
	return s.GetOrCreate(ctx, userID)
}

func toProfile(u store.User, p store.Profile) model.Profile {
	return model.Profile{
		UserID:    u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		State:     p.State,
		County:    p.County,
		Onboarded: p.Onboarded,
		Preferences: model.Preferences{
			Newsletter:  p.Newsletter,
			BetaProgram: p.BetaProgram,
		},
		Created: p.CreatedAt,
		Updated: model.NullTimePtr(p.UpdatedAt),
	}
}
