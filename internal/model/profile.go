// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Preferences are the opt-ins a user controls.
type Preferences struct {
	Newsletter  bool `json:"newsletter"`
	BetaProgram bool `json:"beta_program"`
}

// Profile is the signed-in user's account details and preferences.
type Profile struct {
	UserID      int64       `json:"id"`
	Email       string      `json:"email"`
	Name        string      `json:"name"`
	Role        string      `json:"role"`
	State       string      `json:"state"`
	County      string      `json:"county"`
	Onboarded   bool        `json:"onboarded"`
	Preferences Preferences `json:"preferences"`
	Created     time.Time   `json:"created,omitzero"`
	Updated     *time.Time  `json:"updated,omitempty"`
}

// UpdateProfileRequest is the body of PUT /api/profile. The email address is
// the login identity and cannot be changed here.
type UpdateProfileRequest struct {
	Name      string `json:"name"`
	State     string `json:"state"`
	County    string `json:"county"`
	Onboarded bool   `json:"onboarded"`
}
