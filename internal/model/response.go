// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"fmt"
	"sort"
)

// ValidationError describes a single invalid form field.
type ValidationError struct {
	Field string `json:"field_name,omitempty"`
	Err   string `json:"error"`
}

// APIResponse is the envelope used by form-style endpoints such as video upload.
// Success carries RedirectURL (and optionally ID); failure carries Error and
// ValidationErrors.
type APIResponse struct {
	ID               int64             `json:"id,omitempty"`
	Error            string            `json:"error,omitempty"`
	RedirectURL      string            `json:"redirect_url,omitempty"`
	ValidationErrors []ValidationError `json:"validation_errors,omitempty"`
}

// NewAPIErrorResponse creates a failed response with a formatted message.
func NewAPIErrorResponse(format string, a ...any) *APIResponse {
	return &APIResponse{Error: fmt.Sprintf(format, a...)}
}

// AddValidationError appends a field error.
func (r *APIResponse) AddValidationError(field, msg string) *APIResponse {
	r.ValidationErrors = append(r.ValidationErrors, ValidationError{Field: field, Err: msg})
	return r
}

// HasErrors reports whether the response describes a failure.
func (r *APIResponse) HasErrors() bool {
	return r.Error != "" || len(r.ValidationErrors) > 0
}

// ValidationErrors maps field names to messages, as produced by the service layer.
type ValidationErrors map[string]string

// Error implements error.
func (v ValidationErrors) Error() string {
	return fmt.Sprintf("%d validation error(s)", len(v))
}

// ToResponse converts the map into an APIResponse with a stable field order.
func (v ValidationErrors) ToResponse(message string, order ...string) *APIResponse {
	resp := &APIResponse{Error: message}
	seen := make(map[string]bool, len(v))
	for _, f := range order {
		if msg, ok := v[f]; ok {
			resp.AddValidationError(f, msg)
			seen[f] = true
		}
	}
	rest := make([]string, 0, len(v))
	for f := range v {
		if !seen[f] {
			rest = append(rest, f)
		}
	}
	sort.Strings(rest)
	for _, f := range rest {
		resp.AddValidationError(f, v[f])
	}
	return resp
}
