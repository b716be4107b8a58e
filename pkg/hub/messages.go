package hub

import (
	"errors"
	"fmt"
)

// ClientID is a process-wide-unique, monotonically increasing connection
// identifier. IDs are never reused; they carry no ownership.
type ClientID uint64

func (id ClientID) String() string { return fmt.Sprintf("client-%d", id) }

// Role is a client's assigned protocol role.
type Role string

const (
	RoleHolder   Role = "holder"
	RoleIssuer   Role = "issuer"
	RoleVerifier Role = "verifier"
)

// ErrInvalidRole reports an unrecognized role name.
var ErrInvalidRole = errors.New("hub: invalid role")

// ParseRole validates a role name from the wire.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleHolder, RoleIssuer, RoleVerifier:
		return Role(s), nil
	default:
		return "", fmt.Errorf("%w %q", ErrInvalidRole, s)
	}
}

// OutboundKind identifies the kind of a hub-to-client message.
type OutboundKind uint8

const (
	// OutboundText is raw application text, written with a CRLF terminator.
	OutboundText OutboundKind = iota

	// OutboundQR is a QR-render request; the payload is rendered to block
	// art by the write duty before hitting the socket.
	OutboundQR
)

// Outbound is one message sent through a ClientHandle to a connection's
// write duty.
type Outbound struct {
	Kind    OutboundKind
	Payload []byte
}

// TextMessage builds a plain text Outbound.
func TextMessage(s string) Outbound {
	return Outbound{Kind: OutboundText, Payload: []byte(s)}
}

// QRMessage builds a QR-render Outbound for the given payload.
func QRMessage(s string) Outbound {
	return Outbound{Kind: OutboundQR, Payload: []byte(s)}
}

// Event is a message from a connection actor to the Hub. Implementations
// are the only types the Hub routes on.
type Event interface {
	isEvent()
}

// ClientJoined registers a freshly spawned connection. It is always the
// first event a connection sends.
type ClientJoined struct {
	Handle *ClientHandle
}

// ClientLeft removes a disconnected client from the registry.
type ClientLeft struct {
	ID ClientID
}

// LineReceived is a plain chat line, broadcast to every other client.
type LineReceived struct {
	From ClientID
	Line []byte
}

// CreateIdentity asks the Hub to mint and store a new identity document.
type CreateIdentity struct {
	From ClientID
}

// ShowIdentity asks for the document stored under Key.
type ShowIdentity struct {
	From ClientID
	Key  string
}

// VerifyIdentity asks for verification of the document stored under Key.
type VerifyIdentity struct {
	From ClientID
	Key  string
}

// AssignRole updates the sender's role.
type AssignRole struct {
	From ClientID
	Role string
}

// WhoAmI asks for the sender's currently recorded role.
type WhoAmI struct {
	From ClientID
}

// ShowPresentation asks for a QR-rendered presentation request.
type ShowPresentation struct {
	From ClientID
}

// FatalError terminates the Hub's run loop. Connection-local failures are
// never reported this way.
type FatalError struct {
	Err error
}

func (ClientJoined) isEvent()     {}
func (ClientLeft) isEvent()       {}
func (LineReceived) isEvent()     {}
func (CreateIdentity) isEvent()   {}
func (ShowIdentity) isEvent()     {}
func (VerifyIdentity) isEvent()   {}
func (AssignRole) isEvent()       {}
func (WhoAmI) isEvent()           {}
func (ShowPresentation) isEvent() {}
func (FatalError) isEvent()       {}

// eventName returns a low-cardinality label for metrics and traces.
func eventName(ev Event) string {
	switch ev.(type) {
	case ClientJoined:
		return "client_joined"
	case ClientLeft:
		return "client_left"
	case LineReceived:
		return "line"
	case CreateIdentity:
		return "create_identity"
	case ShowIdentity:
		return "show_identity"
	case VerifyIdentity:
		return "verify_identity"
	case AssignRole:
		return "assign_role"
	case WhoAmI:
		return "who_am_i"
	case ShowPresentation:
		return "show_presentation"
	case FatalError:
		return "fatal_error"
	default:
		return "unknown"
	}
}
