// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cohesion-education/api/internal/model"
	"github.com/cohesion-education/api/internal/taxonomy"
)

// Job names.
const (
	JobFlattenRefresh = "taxonomy-flatten-refresh"
	JobEventPurge     = "event-purge"
)

// DefaultEventPurgeSchedule runs the purge nightly.
const DefaultEventPurgeSchedule = "30 3 * * *"

// Refresher recomputes the flattened taxonomy and stores it in the cache.
type Refresher interface {
	Refresh(ctx context.Context) (taxonomy.Result, error)
}

// EventPurger deletes events created before a cutoff.
type EventPurger interface {
	DeleteEventsBefore(ctx context.Context, createdAt time.Time) (int64, error)
}

// FlattenRefreshJob keeps the flattened taxonomy warm. Partial results are
// still cached; failed subtrees are logged by the flattener.
func FlattenRefreshJob(r Refresher, schedule string, logger *slog.Logger) Job {
	return Job{
		Name:        JobFlattenRefresh,
		Description: "Re-flatten the taxonomy into the option cache",
		Schedule:    schedule,
		Run: func(ctx context.Context) error {
			res, err := r.Refresh(ctx)
			if err != nil {
				return fmt.Errorf("refreshing flattened taxonomy: %w", err)
			}
			logger.Info("taxonomy flatten refreshed",
				"category", model.EventCategoryTaxonomy,
				"options", len(res.Options),
				"failures", len(res.Failures))
			return nil
		},
	}
}

// EventPurgeJob deletes events older than retention. now is injectable
// for tests; nil means time.Now.
func EventPurgeJob(p EventPurger, retention time.Duration, schedule string, now func() time.Time, logger *slog.Logger) Job {
	if now == nil {
		now = time.Now
	}
	return Job{
		Name:        JobEventPurge,
		Description: "Delete events older than the retention period",
		Schedule:    schedule,
		Run: func(ctx context.Context) error {
			cutoff := now().UTC().Add(-retention)
			n, err := p.DeleteEventsBefore(ctx, cutoff)
			if err != nil {
				return fmt.Errorf("purging events before %s: %w", cutoff.Format(time.RFC3339), err)
			}
			if n > 0 {
				logger.Info("old events purged", "count", n, "before", cutoff)
			}
			return nil
		},
	}
}
