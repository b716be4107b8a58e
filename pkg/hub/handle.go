package hub

import (
	"context"
	"errors"
	"sync/atomic"
)

// Handle errors.
var (
	// ErrClientSaturated reports an outbound queue that cannot keep up.
	ErrClientSaturated = errors.New("hub: client outbound queue full")

	// ErrClientGone reports a send to a killed or disconnected client.
	ErrClientGone = errors.New("hub: client is gone")

	// ErrHubStopped reports a send to a Hub that is no longer running.
	ErrHubStopped = errors.New("hub: hub has stopped")
)

// ClientHandle is the capability other actors use to address one
// connection. The Hub's registry owns the handle once registration
// completes; the role field is mutated only by the Hub goroutine.
type ClientHandle struct {
	id     ClientID
	out    chan Outbound
	ctx    context.Context
	cancel context.CancelFunc
	role   Role // empty until assigned
}

// ID returns the connection identifier.
func (h *ClientHandle) ID() ClientID { return h.id }

// Role returns the client's assigned role, or empty if none.
func (h *ClientHandle) Role() Role { return h.role }

// Send enqueues an outbound message for the connection's write duty. It
// never blocks: a full queue returns ErrClientSaturated and a killed
// connection returns ErrClientGone.
func (h *ClientHandle) Send(msg Outbound) error {
	if h.ctx.Err() != nil {
		return ErrClientGone
	}
	select {
	case h.out <- msg:
		return nil
	default:
		return ErrClientSaturated
	}
}

// Kill cancels the connection's background task immediately. Queued
// outbound messages are discarded, not drained.
func (h *ClientHandle) Kill() {
	h.cancel()
}

// HubHandle is the cloneable capability connection actors use to send
// events to the Hub. It also carries the Hub's id generator so the accept
// loop can allocate connection ids without touching shared state.
type HubHandle struct {
	events chan<- Event
	done   <-chan struct{}
	nextID *atomic.Uint64
}

// Send delivers an event to the Hub, blocking until the Hub accepts it.
// It fails only when ctx is cancelled or the Hub has stopped.
func (h HubHandle) Send(ctx context.Context, ev Event) error {
	select {
	case h.events <- ev:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NextID allocates a fresh connection identifier.
func (h HubHandle) NextID() ClientID {
	return ClientID(h.nextID.Add(1))
}

// Stopped reports whether the Hub's run loop has exited.
func (h HubHandle) Stopped() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}
