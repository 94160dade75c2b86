package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// envelope is the wire form of every event: the channel name repeated in the
// body plus the event-specific data.
type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Notifier serializes event payloads and hands them to a Publisher with a
// bounded timeout. A nil Notifier (or one with a nil Publisher) discards
// events, which is the wiring for tests and offline tooling.
type Notifier struct {
	pub     Publisher
	timeout time.Duration
}

// NewNotifier returns a Notifier over pub. timeout bounds each publish call;
// zero or negative means 5s.
func NewNotifier(pub Publisher, timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Notifier{pub: pub, timeout: timeout}
}

// Notify encodes {"event": channel, "data": data} as JSON and publishes it on
// channel. Any failure comes back wrapped in ErrPublish; callers log and
// swallow it, since by this point the state change already happened.
func (n *Notifier) Notify(ctx context.Context, channel string, data any) error {
	if n == nil || n.pub == nil {
		return nil
	}
	payload, err := json.Marshal(envelope{Event: channel, Data: data})
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrPublish, channel, err)
	}
	publishCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	if err := n.pub.Publish(publishCtx, channel, payload); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPublish, channel, err)
	}
	return nil
}
