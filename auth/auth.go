// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidMemberKey = errors.New("invalid kalmitee member key")
	ErrMissingMemberID  = errors.New("kalmitee member id required")
)

// NewID returns a random UUID string for database records
func NewID() string {
	return uuid.NewString()
}

// GenerateMemberKey creates an HMAC-based key for a kalmitee member.
// Deterministic, so it never has to be stored.
func GenerateMemberKey(memberID, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(memberID))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner keys
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// ValidateMemberKey checks if the provided key belongs to the member
func ValidateMemberKey(memberID, key, salt string) error {
	if memberID == "" {
		return ErrMissingMemberID
	}
	expected := GenerateMemberKey(memberID, salt)
	if !hmac.Equal([]byte(key), []byte(expected)) {
		return ErrInvalidMemberKey
	}
	return nil
}

// HashIP keys the rate-limit window by client address without storing
// the address itself. The "unknown" sentinel hashes like any other address.
func HashIP(addr, salt string) string {
	mac := hmac.New(sha256.New, []byte(salt))
	mac.Write([]byte(addr))
	// 64 bits is plenty to bucket addresses
	return hex.EncodeToString(mac.Sum(nil)[:8])
}
