// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service holds the business logic behind the admin UI and the JSON
// API: taxonomy management with cached flattening, video uploads and the
// homepage document.
package service

import (
	"context"
	"database/sql"
)

type actorKey struct{}

// WithActor records the id of the user performing a write so services can
// fill created_by/updated_by without threading it through every signature.
func WithActor(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorFrom returns the user id stored by WithActor, or 0.
func ActorFrom(ctx context.Context) int64 {
	id, _ := ctx.Value(actorKey{}).(int64)
	return id
}

func actorNull(ctx context.Context) sql.NullInt64 {
	if id := ActorFrom(ctx); id > 0 {
		return sql.NullInt64{Int64: id, Valid: true}
	}
	return sql.NullInt64{}
}
