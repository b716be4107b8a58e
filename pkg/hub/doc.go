// Package hub implements didlink's actor layer: one connection actor per
// accepted socket and a single coordinator (the Hub) owning the client
// registry and the document store.
//
// # Architecture
//
// Every connection actor runs two concurrent duties over its socket: the
// read duty decodes incoming bytes into protocol items, the write duty
// serializes outbound messages and negotiation replies. Decoded application
// events flow to the Hub over one shared bounded channel; the Hub routes
// replies and broadcasts back through per-client handles.
//
//	conn ──> read duty ──> events ──> Hub ──> ClientHandle.Send ──> write duty ──> conn
//	             │                                                      ▲
//	             └──────────── negotiation echoes ──────────────────────┘
//
// The Hub processes one event at a time, which is what makes the registry
// and store safe to mutate without locks. A slow or dead client never
// blocks routing: handle sends fail fast when the outbound queue is full
// and the Hub logs and moves on.
//
// # Lifecycle
//
// Spawn allocates the client id, starts the actor, and delivers its handle
// through a one-shot rendezvous; the actor forwards the handle to the Hub
// as a ClientJoined event before reading any socket bytes, so the Hub
// always learns about a client before its first decoded event. Cancelling
// the handle's context kills the actor at its next suspension point;
// queued outbound messages are discarded.
package hub
