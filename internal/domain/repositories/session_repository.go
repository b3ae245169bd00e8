package repositories

import (
	"context"

	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/entities"
)

// SessionRepository stores selection snapshots between events
type SessionRepository interface {
	Save(ctx context.Context, snapshot *entities.SelectionSnapshot) error

	// Get returns a NOT_FOUND AppError when the session does not exist or expired
	Get(ctx context.Context, sessionID string) (*entities.SelectionSnapshot, error)

	Delete(ctx context.Context, sessionID string) error
}
