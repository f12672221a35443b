// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package taxonomy

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/cohesion-education/api/internal/model"
)

// Default traversal limits.
const (
	DefaultConcurrency = 8
	DefaultMaxDepth    = 32
)

// Option is a selectable leaf: its id and breadcrumb label.
type Option struct {
	Value    int64  `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected,omitempty"`
}

// Failure records a subtree that could not be expanded.
type Failure struct {
	ID    int64
	Label string
	Err   error
}

// MarshalJSON encodes the error as its message.
func (f Failure) MarshalJSON() ([]byte, error) {
	msg := ""
	if f.Err != nil {
		msg = f.Err.Error()
	}
	return json.Marshal(struct {
		ID    int64  `json:"id"`
		Label string `json:"label"`
		Error string `json:"error"`
	}{f.ID, f.Label, msg})
}

// Result holds the flattened options, sorted by label, and any failed subtrees.
type Result struct {
	Options  []Option  `json:"options"`
	Failures []Failure `json:"failures,omitempty"`
}

// Selected returns the preselected option, if any.
func (r Result) Selected() (Option, bool) {
	for _, o := range r.Options {
		if o.Selected {
			return o, true
		}
	}
	return Option{}, false
}

// Label joins a root-to-node name path into a breadcrumb.
func Label(path []string) string {
	return strings.Join(path, Separator)
}

// Flattener walks a ChildrenSource and collects leaf options.
type Flattener struct {
	src         ChildrenSource
	concurrency int64
	maxDepth    int
	logger      *slog.Logger
}

// FlattenerOption configures a Flattener.
type FlattenerOption func(*Flattener)

// WithConcurrency bounds the number of in-flight children fetches.
func WithConcurrency(n int) FlattenerOption {
	return func(f *Flattener) {
		if n > 0 {
			f.concurrency = int64(n)
		}
	}
}

// WithMaxDepth bounds how deep the traversal descends.
func WithMaxDepth(n int) FlattenerOption {
	return func(f *Flattener) {
		if n > 0 {
			f.maxDepth = n
		}
	}
}

// WithLogger sets the logger used for failed subtrees.
func WithLogger(l *slog.Logger) FlattenerOption {
	return func(f *Flattener) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFlattener creates a Flattener over src.
func NewFlattener(src ChildrenSource, opts ...FlattenerOption) *Flattener {
	f := &Flattener{
		src:         src,
		concurrency: DefaultConcurrency,
		maxDepth:    DefaultMaxDepth,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FlattenAll fetches the roots and flattens every one of them.
func (f *Flattener) FlattenAll(ctx context.Context, selectedID int64) (Result, error) {
	roots, err := f.src.Roots(ctx)
	if err != nil {
		return Result{Options: []Option{}}, fmt.Errorf("listing taxonomy roots: %w", err)
	}
	return f.Flatten(ctx, roots, selectedID)
}

// FlattenNode flattens the subtree below a single node.
func (f *Flattener) FlattenNode(ctx context.Context, root model.Taxonomy, selectedID int64) (Result, error) {
	return f.Flatten(ctx, []model.Taxonomy{root}, selectedID)
}

// Flatten descends from roots to every reachable leaf. Sibling subtrees are
// fetched concurrently; a failed fetch is recorded in Result.Failures and does
// not stop the rest of the walk. The only error returned is the context's.
func (f *Flattener) Flatten(ctx context.Context, roots []model.Taxonomy, selectedID int64) (Result, error) {
	w := &walk{
		f:        f,
		selected: selectedID,
		sem:      semaphore.NewWeighted(f.concurrency),
		options:  []Option{},
	}

	eg, egCtx := errgroup.WithContext(ctx)
	w.eg = eg
	for _, root := range roots {
		eg.Go(func() error {
			w.visit(egCtx, root, nil, nil)
			return nil
		})
	}
	_ = eg.Wait()

	res := w.result()
	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}

type walk struct {
	f        *Flattener
	selected int64
	sem      *semaphore.Weighted
	eg       *errgroup.Group

	mu       sync.Mutex
	options  []Option
	failures []Failure
}

// visit expands node. path and ids belong to the caller and are copied
// before being extended, so siblings never share a backing array.
func (w *walk) visit(ctx context.Context, node model.Taxonomy, path []string, ids []int64) {
	if node.IsZero() {
		return
	}

	nodePath := append(slices.Clone(path), node.Name)
	label := Label(nodePath)

	if slices.Contains(ids, node.ID) {
		w.fail(node.ID, label, ErrCycle)
		return
	}
	if len(ids) >= w.f.maxDepth {
		w.fail(node.ID, label, ErrMaxDepth)
		return
	}
	nodeIDs := append(slices.Clone(ids), node.ID)

	children, err := w.fetch(ctx, node.ID)
	if err != nil {
		if ctx.Err() == nil {
			w.fail(node.ID, label, err)
		}
		return
	}

	if len(children) == 0 {
		w.emit(node.ID, label)
		return
	}

	for _, child := range children {
		w.eg.Go(func() error {
			w.visit(ctx, child, nodePath, nodeIDs)
			return nil
		})
	}
}

func (w *walk) fetch(ctx context.Context, id int64) ([]model.Taxonomy, error) {
	if err := w.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer w.sem.Release(1)
	return w.f.src.Children(ctx, id)
}

func (w *walk) emit(id int64, label string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.options = append(w.options, Option{
		Value:    id,
		Label:    label,
		Selected: w.selected != 0 && id == w.selected,
	})
}

func (w *walk) fail(id int64, label string, err error) {
	w.f.logger.Warn("failed to expand taxonomy subtree",
		"category", model.EventCategoryTaxonomy,
		"taxonomy_id", id,
		"label", label,
		"error", err,
	)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.failures = append(w.failures, Failure{ID: id, Label: label, Err: err})
}

func (w *walk) result() Result {
	w.mu.Lock()
	defer w.mu.Unlock()

	opts := slices.Clone(w.options)
	slices.SortFunc(opts, func(a, b Option) int {
		return cmp.Or(strings.Compare(a.Label, b.Label), cmp.Compare(a.Value, b.Value))
	})
	fails := slices.Clone(w.failures)
	slices.SortFunc(fails, func(a, b Failure) int {
		return cmp.Or(strings.Compare(a.Label, b.Label), cmp.Compare(a.ID, b.ID))
	})

	return Result{Options: opts, Failures: fails}
}
