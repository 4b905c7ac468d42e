package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/xenking/dailymenu/internal/domain/auth"
)

var _ auth.Repository = (*APIKeyRepository)(nil)

// APIKeyRepository holds hashed API keys.
type APIKeyRepository struct {
	mu     sync.RWMutex
	byHash map[string]auth.APIKeyInfo
}

// NewAPIKeyRepository creates an empty APIKeyRepository.
func NewAPIKeyRepository() *APIKeyRepository {
	return &APIKeyRepository{byHash: make(map[string]auth.APIKeyInfo)}
}

func (r *APIKeyRepository) FindByHash(_ context.Context, hash string) (*auth.APIKeyInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	k, ok := r.byHash[hash]
	if !ok {
		return nil, auth.ErrNotFound
	}
	k.Scopes = slices.Clone(k.Scopes)
	return &k, nil
}

func (r *APIKeyRepository) Upsert(_ context.Context, info *auth.APIKeyInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := *info
	k.Scopes = slices.Clone(info.Scopes)
	r.byHash[info.KeyHash] = k
	return nil
}
