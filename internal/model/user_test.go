// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"testing"
)

func TestRoles(t *testing.T) {
	tests := []struct {
		name      string
		role      string
		wantAdmin bool
		wantEdit  bool
	}{
		{name: "admin role", role: RoleAdmin, wantAdmin: true, wantEdit: true},
		{name: "editor role", role: RoleEditor, wantAdmin: false, wantEdit: true},
		{name: "viewer role", role: "viewer", wantAdmin: false, wantEdit: false},
		{name: "empty role", role: "", wantAdmin: false, wantEdit: false},
		{name: "Admin uppercase", role: "Admin", wantAdmin: false, wantEdit: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAdminRole(tt.role); got != tt.wantAdmin {
				t.Errorf("IsAdminRole(%q) = %v, want %v", tt.role, got, tt.wantAdmin)
			}
			if got := CanEdit(tt.role); got != tt.wantEdit {
				t.Errorf("CanEdit(%q) = %v, want %v", tt.role, got, tt.wantEdit)
			}
		})
	}
}
