// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package homepage keeps the landing page content in memory as a small state
// machine driven by request, receive and fail actions.
package homepage

import (
	"context"
	"sync"
	"time"

	"github.com/cohesion-education/api/internal/model"
)

// Status is the phase of the last fetch.
type Status int

// Fetch phases.
const (
	Idle Status = iota
	Requesting
	Ready
	Failed
)

func (s Status) String() string {
	switch s {
	case Requesting:
		return "requesting"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Action is one of RequestHomepage, ReceiveHomepage or FailHomepage.
type Action interface {
	isAction()
}

// RequestHomepage marks a fetch as started.
type RequestHomepage struct{}

// ReceiveHomepage carries freshly loaded content.
type ReceiveHomepage struct {
	Homepage   *model.Homepage
	ReceivedAt time.Time
}

// FailHomepage records a failed fetch.
type FailHomepage struct {
	Err error
}

func (RequestHomepage) isAction() {}
func (ReceiveHomepage) isAction() {}
func (FailHomepage) isAction()    {}

// State is the container's value. Homepage stays nil until the first
// successful receive.
type State struct {
	Status     Status          `json:"status"`
	Homepage   *model.Homepage `json:"homepage,omitempty"`
	Err        string          `json:"error,omitempty"`
	ReceivedAt time.Time       `json:"received_at,omitzero"`
}

// Reduce returns the state after applying a. It never mutates s.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case RequestHomepage:
		s.Status = Requesting
		s.Err = ""
	case ReceiveHomepage:
		s.Status = Ready
		s.Err = ""
		s.ReceivedAt = a.ReceivedAt
		if a.Homepage != nil {
			hp := *a.Homepage
			s.Homepage = &hp
		}
	case FailHomepage:
		s.Status = Failed
		if a.Err != nil {
			s.Err = a.Err.Error()
		}
	}
	return s
}

// Loader fetches the current homepage.
type Loader interface {
	Load(ctx context.Context) (*model.Homepage, error)
}

// Store serializes actions over a State.
type Store struct {
	mu    sync.RWMutex
	state State
	now   func() time.Time
}

// NewStore returns an idle Store.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// Dispatch applies a and returns the new state.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, a)
	return s.state
}

// State returns a snapshot of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Fetch dispatches RequestHomepage, calls l and then dispatches
// ReceiveHomepage or FailHomepage. The last good content survives a failure.
func (s *Store) Fetch(ctx context.Context, l Loader) (State, error) {
	s.Dispatch(RequestHomepage{})
	hp, err := l.Load(ctx)
	if err != nil {
		return s.Dispatch(FailHomepage{Err: err}), err
	}
	return s.Dispatch(ReceiveHomepage{Homepage: hp, ReceivedAt: s.now()}), nil
}

// Current returns the loaded homepage, fetching it through l when nothing has
// been received yet or the content is older than maxAge.
func (s *Store) Current(ctx context.Context, l Loader, maxAge time.Duration) (*model.Homepage, error) {
	st := s.State()
	if st.Homepage != nil && (maxAge <= 0 || s.now().Sub(st.ReceivedAt) < maxAge) {
		return st.Homepage, nil
	}
	st, err := s.Fetch(ctx, l)
	if st.Homepage != nil {
		return st.Homepage, nil
	}
	return nil, err
}
