// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("changeme")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=19456,t=2,p=1$") {
		t.Errorf("unexpected hash prefix: %s", hash)
	}
	if NeedsRehash(hash) {
		t.Error("fresh hash should not need rehash")
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("changeme")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	tests := []struct {
		password string
		want     bool
	}{
		{"changeme", true},
		{"wrongpassword", false},
		{"", false},
	}
	for _, tt := range tests {
		got, err := CheckPassword(tt.password, hash)
		if err != nil {
			t.Fatalf("CheckPassword(%q) error: %v", tt.password, err)
		}
		if got != tt.want {
			t.Errorf("CheckPassword(%q) = %v, want %v", tt.password, got, tt.want)
		}
	}
}

func TestCheckPassword_OlderParams(t *testing.T) {
	legacy := Params{Time: 1, Memory: 8 * 1024, Threads: 2, KeyLen: 32, SaltLen: 16}
	hash, err := legacy.Hash("changeme")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	ok, err := CheckPassword("changeme", hash)
	if err != nil || !ok {
		t.Fatalf("CheckPassword = %v, %v; want true, nil", ok, err)
	}
	if !NeedsRehash(hash) {
		t.Error("hash with older params should need rehash")
	}
}

func TestCheckPassword_InvalidHash(t *testing.T) {
	for _, h := range []string{"", "plain", "$bcrypt$x$y$z$w", "$argon2id$v=19$m=x$a$b"} {
		if _, err := CheckPassword("x", h); !errors.Is(err, ErrInvalidHash) {
			t.Errorf("CheckPassword(%q) err = %v, want ErrInvalidHash", h, err)
		}
		if !NeedsRehash(h) {
			t.Errorf("NeedsRehash(%q) = false, want true", h)
		}
	}
}

func TestTokenEqual(t *testing.T) {
	tests := []struct {
		presented, configured string
		want                  bool
	}{
		{"s3cret", "s3cret", true},
		{"s3cret", "other", false},
		{"", "", false},
		{"anything", "", false},
	}
	for _, tt := range tests {
		if got := TokenEqual(tt.presented, tt.configured); got != tt.want {
			t.Errorf("TokenEqual(%q, %q) = %v, want %v", tt.presented, tt.configured, got, tt.want)
		}
	}
}
