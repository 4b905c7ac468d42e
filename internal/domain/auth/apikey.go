package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"slices"

	"github.com/go-faster/errors"
)

// ScopeAdmin grants access to the administrative API.
const ScopeAdmin = "admin"

var (
	// ErrUnauthorized is returned when credentials are missing or invalid.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when valid credentials lack a required scope.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned by repositories for unknown key hashes.
	ErrNotFound = errors.New("api key not found")
)

// APIKeyInfo holds the identity and permission data for a validated API key.
type APIKeyInfo struct {
	ID      string
	KeyHash string
	Name    string
	Scopes  []string
}

// HasScope reports whether the key was granted scope.
func (k *APIKeyInfo) HasScope(scope string) bool {
	return slices.Contains(k.Scopes, scope)
}

// Repository provides lookup of API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
	// Upsert stores info keyed by its hash.
	Upsert(ctx context.Context, info *APIKeyInfo) error
}

// HashKey returns the hex HMAC-SHA256 of key under pepper. Only hashes are
// ever stored.
func HashKey(pepper []byte, key string) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

// KeyVerifier authenticates raw API keys.
type KeyVerifier struct {
	keys   Repository
	pepper []byte
}

// NewKeyVerifier creates a KeyVerifier with the given repository and HMAC
// pepper.
func NewKeyVerifier(keys Repository, pepper []byte) *KeyVerifier {
	return &KeyVerifier{keys: keys, pepper: pepper}
}

// Verify looks up key by hash and requires scope on it.
func (v *KeyVerifier) Verify(ctx context.Context, key, scope string) (*APIKeyInfo, error) {
	if key == "" {
		return nil, ErrUnauthorized
	}
	hash := HashKey(v.pepper, key)

	info, err := v.keys.FindByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, errors.Wrap(err, "find api key")
	}

	// The repository matched on the hash; compare again in constant time
	// against what it returned.
	want, _ := hex.DecodeString(hash)
	got, err := hex.DecodeString(info.KeyHash)
	if err != nil || subtle.ConstantTimeCompare(want, got) != 1 {
		return nil, ErrUnauthorized
	}
	if !info.HasScope(scope) {
		return nil, ErrForbidden
	}
	return info, nil
}
