package providers

import (
	"context"

	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.SessionEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.SessionEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

const (
	// EventChannelSessionUpdates carries every session event
	EventChannelSessionUpdates = "session:updates"

	// EventChannelSessionPrefix is the prefix for per-session channels
	EventChannelSessionPrefix = "session:"

	// EventChannelVisitPrefix is the prefix for per-visit channels
	EventChannelVisitPrefix = "visit:"
)

// GetSessionChannel returns the channel name for a specific session
func GetSessionChannel(sessionID string) string {
	return EventChannelSessionPrefix + sessionID
}

// GetVisitChannel returns the channel name for a specific visit
func GetVisitChannel(visitID string) string {
	return EventChannelVisitPrefix + visitID
}
