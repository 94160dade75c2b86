// Package event emits domain events to an external broker. Emission is
// best-effort: callers log publish failures and never fail the operation
// that produced the event.
package event

import (
	"context"
	"errors"
)

// Channel names for the events this service emits. Consumers subscribe by
// these names; treat them as a stable contract.
const (
	ChannelUserRegistered         = "user_registered"
	ChannelAccountOwnerRegistered = "account_owner_registered"
	ChannelAccountUserRegistered  = "account_user_registered"
)

// ErrPublish wraps any serialization or transport failure during event
// emission. Callers match with errors.Is, log, and move on.
var ErrPublish = errors.New("event publish failed")

// Publisher hands an encoded event to the broker on a named channel.
// Implementations may block briefly; the Notifier bounds them with a timeout.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	// Close releases broker resources. Safe to call if already closed.
	Close() error
}
