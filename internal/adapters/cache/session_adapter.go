package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/entities"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/providers"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/repositories"
	apperrors "github.com/chatgptnotes/adamrit.in-sub001/pkg/errors"
)

const sessionKeyPrefix = "session:"

// SessionCacheAdapter stores selection snapshots as JSON in a CacheProvider.
// Every save refreshes the TTL, so idle sessions expire.
type SessionCacheAdapter struct {
	cache      providers.CacheProvider
	ttlSeconds int
}

var _ repositories.SessionRepository = (*SessionCacheAdapter)(nil)

// NewSessionCacheAdapter creates a session repository over cache
func NewSessionCacheAdapter(cache providers.CacheProvider, ttlSeconds int) *SessionCacheAdapter {
	return &SessionCacheAdapter{cache: cache, ttlSeconds: ttlSeconds}
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

// Save stores the snapshot
func (a *SessionCacheAdapter) Save(ctx context.Context, snapshot *entities.SelectionSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := a.cache.Set(ctx, sessionKey(snapshot.SessionID), data, a.ttlSeconds); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Get loads a snapshot
func (a *SessionCacheAdapter) Get(ctx context.Context, sessionID string) (*entities.SelectionSnapshot, error) {
	data, err := a.cache.Get(ctx, sessionKey(sessionID))
	if errors.Is(err, providers.ErrCacheMiss) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("session %s not found", sessionID))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var snapshot entities.SelectionSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, apperrors.NewInternalError("stored session is corrupt", err)
	}
	return &snapshot, nil
}

// Delete removes a snapshot
func (a *SessionCacheAdapter) Delete(ctx context.Context, sessionID string) error {
	if err := a.cache.Delete(ctx, sessionKey(sessionID)); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
