package hub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/didlink-dev/didlink/pkg/did"
)

// Welcome and reply text sent to clients.
const (
	welcomeText   = "Welcome!"
	notFoundText  = "Not found"
	anonymousText = "Anonymous"
)

// ErrEventChannelClosed reports an unexpected closure of the Hub's inbound
// channel. It is process-fatal; the caller must not swallow it.
var ErrEventChannelClosed = errors.New("hub: event channel closed unexpectedly")

// eventQueueCap is the capacity of the shared inbound channel and of each
// client's outbound queue.
const eventQueueCap = 64

// Metrics receives hub-level counters. The zero implementation used when
// none is configured discards everything.
type Metrics interface {
	ClientJoined()
	ClientLeft()
	EventProcessed(kind string)
	LineBroadcast(recipients int)
	OutboundDropped()
}

type nopMetrics struct{}

func (nopMetrics) ClientJoined()         {}
func (nopMetrics) ClientLeft()           {}
func (nopMetrics) EventProcessed(string) {}
func (nopMetrics) LineBroadcast(int)     {}
func (nopMetrics) OutboundDropped()      {}

// Hub is the coordinator actor: the single owner of the client registry
// and the document store. All routing decisions are serialized through its
// run loop.
type Hub struct {
	events  chan Event
	done    chan struct{}
	nextID  atomic.Uint64
	clients map[ClientID]*ClientHandle
	store   did.Store
	logger  *slog.Logger
	metrics Metrics
	tracer  trace.Tracer
}

// Option configures a Hub.
type Option func(*Hub)

// WithMetrics installs a metrics sink.
func WithMetrics(m Metrics) Option {
	return func(h *Hub) { h.metrics = m }
}

// New creates a Hub over the given document store.
func New(store did.Store, logger *slog.Logger, opts ...Option) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		events:  make(chan Event, eventQueueCap),
		done:    make(chan struct{}),
		clients: make(map[ClientID]*ClientHandle),
		store:   store,
		logger:  logger.With("component", "hub"),
		metrics: nopMetrics{},
		tracer:  otel.Tracer("didlink/hub"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle returns a cloneable handle for sending events to this Hub.
func (h *Hub) Handle() HubHandle {
	return HubHandle{events: h.events, done: h.done, nextID: &h.nextID}
}

// Run processes events until ctx is cancelled or a fatal event arrives.
// Any non-nil return is process-fatal: the registry is torn down and every
// remaining connection is killed on the way out.
func (h *Hub) Run(ctx context.Context) error {
	defer func() {
		close(h.done)
		for id, handle := range h.clients {
			handle.Kill()
			delete(h.clients, id)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-h.events:
			if !ok {
				return ErrEventChannelClosed
			}
			if err := h.dispatch(ctx, ev); err != nil {
				return err
			}
		}
	}
}

// dispatch routes one event. Only a FatalError produces a non-nil return.
func (h *Hub) dispatch(ctx context.Context, ev Event) error {
	kind := eventName(ev)
	h.metrics.EventProcessed(kind)

	ctx, span := h.tracer.Start(ctx, "hub.dispatch",
		trace.WithAttributes(attribute.String("didlink.event", kind)))
	defer span.End()

	switch ev := ev.(type) {
	case ClientJoined:
		h.handleJoined(ev.Handle)
	case ClientLeft:
		h.handleLeft(ev.ID)
	case LineReceived:
		h.broadcast(ev.From, ev.Line)
	case CreateIdentity:
		h.handleCreate(ctx, ev.From)
	case ShowIdentity:
		h.handleLookup(ctx, ev.From, ev.Key)
	case VerifyIdentity:
		// No cryptographic verification happens yet: Verify performs the
		// same store lookup as Show. TODO: verify the document's
		// authentication material once real keys are minted.
		h.handleLookup(ctx, ev.From, ev.Key)
	case AssignRole:
		h.handleAssignRole(ev.From, ev.Role)
	case WhoAmI:
		h.handleWhoAmI(ev.From)
	case ShowPresentation:
		h.handlePresentation(ev.From)
	case FatalError:
		span.RecordError(ev.Err)
		return ev.Err
	default:
		h.logger.Warn("unknown event", "kind", kind)
	}
	return nil
}

func (h *Hub) handleJoined(handle *ClientHandle) {
	h.clients[handle.ID()] = handle
	h.metrics.ClientJoined()
	h.logger.Info("client joined", "id", handle.ID(), "clients", len(h.clients))
	h.reply(handle.ID(), TextMessage(welcomeText))
}

func (h *Hub) handleLeft(id ClientID) {
	handle, ok := h.clients[id]
	if !ok {
		return
	}
	delete(h.clients, id)
	handle.Kill()
	h.metrics.ClientLeft()
	h.logger.Info("client left", "id", id, "clients", len(h.clients))
}

// broadcast delivers line to every registered client except the sender.
func (h *Hub) broadcast(from ClientID, line []byte) {
	sent := 0
	for id, handle := range h.clients {
		if id == from {
			continue
		}
		if err := h.send(handle, Outbound{Kind: OutboundText, Payload: line}); err == nil {
			sent++
		}
	}
	h.metrics.LineBroadcast(sent)
}

func (h *Hub) handleCreate(ctx context.Context, from ClientID) {
	doc := did.GenerateDocument()
	if err := h.store.Put(ctx, doc.ID, doc); err != nil {
		h.logger.Error("storing document", "id", from, "error", err)
		h.reply(from, TextMessage("Failed to save your identity document"))
		return
	}
	h.logger.Info("document stored", "id", from, "did", doc.ID)
	h.reply(from, TextMessage("Your identity document is saved: "+doc.ID))
}

func (h *Hub) handleLookup(ctx context.Context, from ClientID, key string) {
	doc, err := h.store.Get(ctx, key)
	if errors.Is(err, did.ErrNotFound) {
		h.reply(from, TextMessage(notFoundText))
		return
	}
	if err != nil {
		h.logger.Error("document lookup", "id", from, "key", key, "error", err)
		h.reply(from, TextMessage(notFoundText))
		return
	}

	out, err := doc.JSON()
	if err != nil {
		h.logger.Error("encoding document", "id", from, "key", key, "error", err)
		h.reply(from, TextMessage(notFoundText))
		return
	}
	h.reply(from, TextMessage(out))
}

func (h *Hub) handleAssignRole(from ClientID, name string) {
	handle, ok := h.clients[from]
	if !ok {
		return
	}
	if !utf8.ValidString(name) {
		h.reply(from, TextMessage("Invalid role: not valid text"))
		return
	}
	role, err := ParseRole(name)
	if err != nil {
		h.reply(from, TextMessage(fmt.Sprintf("Invalid role %q: want holder, issuer or verifier", name)))
		return
	}
	handle.role = role
	h.reply(from, TextMessage("Hello "+string(role)))
}

func (h *Hub) handleWhoAmI(from ClientID) {
	handle, ok := h.clients[from]
	if !ok {
		return
	}
	name := anonymousText
	if handle.role != "" {
		name = string(handle.role)
	}
	h.reply(from, TextMessage("Hello "+name))
}

// handlePresentation replies with a QR-render request encoding the
// presentation URI for the sender.
func (h *Hub) handlePresentation(from ClientID) {
	h.reply(from, QRMessage(fmt.Sprintf("didlink://present/%d", from)))
}

// reply sends to exactly one client by keyed lookup.
func (h *Hub) reply(to ClientID, msg Outbound) {
	handle, ok := h.clients[to]
	if !ok {
		h.logger.Warn("reply to unknown client", "id", to)
		return
	}
	h.send(handle, msg)
}

// send pushes one outbound message, logging instead of propagating on a
// saturated or dead peer. Dead clients never block routing.
func (h *Hub) send(handle *ClientHandle, msg Outbound) error {
	if err := handle.Send(msg); err != nil {
		h.metrics.OutboundDropped()
		h.logger.Warn("dropping outbound message", "id", handle.ID(), "error", err)
		return err
	}
	return nil
}
