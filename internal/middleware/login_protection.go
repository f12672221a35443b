// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// maxLockout caps the exponential lockout backoff.
const maxLockout = 24 * time.Hour

// LoginProtection combines per-IP rate limiting of login posts with
// per-account lockout after repeated failures.
type LoginProtection struct {
	ips *limiterCache[string]

	mu       sync.Mutex
	accounts map[string]*loginAttempts
	now      func() time.Time

	maxFailures int
	lockout     time.Duration
	window      time.Duration

	stop chan struct{}
	once sync.Once
}

type loginAttempts struct {
	count       int
	firstFailed time.Time
	lockedUntil time.Time
	lockouts    int
}

// LoginProtectionConfig configures LoginProtection. Zero values take the
// defaults from DefaultLoginProtectionConfig.
type LoginProtectionConfig struct {
	IPRateLimit     float64       // login posts per second per IP
	IPBurst         int
	MaxFailures     int           // failures within Window before lockout
	LockoutDuration time.Duration // doubles with each lockout
	Window          time.Duration
	CleanupInterval time.Duration // 0 disables the background sweep
}

// DefaultLoginProtectionConfig returns the production settings.
func DefaultLoginProtectionConfig() LoginProtectionConfig {
	return LoginProtectionConfig{
		IPRateLimit:     0.5,
		IPBurst:         5,
		MaxFailures:     5,
		LockoutDuration: 15 * time.Minute,
		Window:          15 * time.Minute,
		CleanupInterval: 10 * time.Minute,
	}
}

// NewLoginProtection creates a LoginProtection. Call Close to stop the sweep.
func NewLoginProtection(cfg LoginProtectionConfig) *LoginProtection {
	def := DefaultLoginProtectionConfig()
	if cfg.IPRateLimit <= 0 {
		cfg.IPRateLimit = def.IPRateLimit
	}
	if cfg.IPBurst <= 0 {
		cfg.IPBurst = def.IPBurst
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = def.MaxFailures
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = def.LockoutDuration
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}

	lp := &LoginProtection{
		ips:         newLimiterCache[string](cfg.IPRateLimit, cfg.IPBurst),
		accounts:    make(map[string]*loginAttempts),
		now:         time.Now,
		maxFailures: cfg.MaxFailures,
		lockout:     cfg.LockoutDuration,
		window:      cfg.Window,
		stop:        make(chan struct{}),
	}
	if cfg.CleanupInterval > 0 {
		go lp.sweepLoop(cfg.CleanupInterval)
	}
	return lp
}

// Close stops the background sweep.
func (lp *LoginProtection) Close() {
	lp.once.Do(func() { close(lp.stop) })
}

func accountKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsLocked reports whether email is locked out and for how long.
func (lp *LoginProtection) IsLocked(email string) (bool, time.Duration) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	a, ok := lp.accounts[accountKey(email)]
	if !ok {
		return false, 0
	}
	if now := lp.now(); now.Before(a.lockedUntil) {
		return true, a.lockedUntil.Sub(now)
	}
	return false, 0
}

// RecordFailure counts a failed login for email and reports whether the
// account just became locked, with the lockout duration.
func (lp *LoginProtection) RecordFailure(email string) (bool, time.Duration) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	key := accountKey(email)
	now := lp.now()
	a, ok := lp.accounts[key]
	if !ok || now.Sub(a.firstFailed) > lp.window {
		if !ok {
			a = &loginAttempts{}
			lp.accounts[key] = a
		}
		a.count = 0
		a.firstFailed = now
	}

	a.count++
	if a.count < lp.maxFailures {
		return false, 0
	}

	d := lp.lockout
	for i := 0; i < a.lockouts && d < maxLockout; i++ {
		d *= 2
	}
	d = min(d, maxLockout)

	a.lockedUntil = now.Add(d)
	a.lockouts++
	a.count = 0
	slog.Warn("login account locked after failed attempts", "email", key, "lockouts", a.lockouts, "duration", d)
	return true, d
}

// RecordSuccess forgets the failures of email.
func (lp *LoginProtection) RecordSuccess(email string) {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	delete(lp.accounts, accountKey(email))
}

// RemainingAttempts returns how many failures are left before lockout.
func (lp *LoginProtection) RemainingAttempts(email string) int {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	a, ok := lp.accounts[accountKey(email)]
	if !ok || lp.now().Sub(a.firstFailed) > lp.window {
		return lp.maxFailures
	}
	return max(lp.maxFailures-a.count, 0)
}

func (lp *LoginProtection) sweepLoop(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-lp.stop:
			return
		case <-t.C:
			lp.sweep()
		}
	}
}

func (lp *LoginProtection) sweep() {
	now := lp.now()
	lp.mu.Lock()
	defer lp.mu.Unlock()
	for k, a := range lp.accounts {
		if now.After(a.lockedUntil) && now.Sub(a.firstFailed) > lp.window {
			delete(lp.accounts, k)
		}
	}
}

// Middleware rate limits login POSTs per client IP.
func (lp *LoginProtection) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			ip := ClientIP(r)
			if !lp.ips.get(ip).Allow() {
				slog.Warn("login rate limit exceeded", "ip", ip)
				http.Error(w, "Too many login attempts. Please wait and try again.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
