// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the domain types shared by the store, services and
// HTTP layers: taxonomy nodes, videos, homepage content and API envelopes.
package model

// User roles
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

// IsAdminRole reports whether role grants full admin access.
func IsAdminRole(role string) bool {
	return role == RoleAdmin
}

// CanEdit reports whether role may modify taxonomy, videos and homepage content.
func CanEdit(role string) bool {
	return role == RoleAdmin || role == RoleEditor
}
