package hub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"unicode/utf8"

	"github.com/didlink-dev/didlink/pkg/qr"
	"github.com/didlink-dev/didlink/pkg/telnet"
)

// Spawn starts the connection actor for conn. It allocates the client id,
// builds the handle, and delivers the handle to the actor over a one-shot
// rendezvous: the actor forwards it to the Hub as a ClientJoined event
// before decoding any socket bytes, so the Hub always sees the join first.
//
// The actor's lifetime is bounded by ctx and by the handle's kill
// capability; either cancellation tears the connection down at its next
// suspension point.
func Spawn(ctx context.Context, conn net.Conn, hub HubHandle, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	id := hub.NextID()
	cctx, cancel := context.WithCancel(ctx)
	handle := &ClientHandle{
		id:     id,
		out:    make(chan Outbound, eventQueueCap),
		ctx:    cctx,
		cancel: cancel,
	}

	c := &client{
		id:     id,
		conn:   conn,
		hub:    hub,
		recv:   handle.out,
		neg:    newNegQueue(),
		logger: logger.With("component", "client", "id", id),
	}

	rendezvous := make(chan *ClientHandle, 1)
	go c.run(cctx, rendezvous)
	rendezvous <- handle
}

// client is the per-connection actor state shared by its two duties.
type client struct {
	id     ClientID
	conn   net.Conn
	hub    HubHandle
	recv   <-chan Outbound
	neg    *negQueue
	logger *slog.Logger
}

// run is the actor body: registration rendezvous, then the two socket
// duties until either returns, then half-close and exit.
func (c *client) run(ctx context.Context, rendezvous <-chan *ClientHandle) {
	var handle *ClientHandle
	select {
	case handle = <-rendezvous:
	case <-ctx.Done():
		c.conn.Close()
		return
	}

	if err := c.hub.Send(ctx, ClientJoined{Handle: handle}); err != nil {
		c.conn.Close()
		return
	}
	// The Hub owns the handle now; make sure it drops it again whatever
	// way the connection ends. Background context: the client's own
	// context is already cancelled on the kill path.
	defer c.hub.Send(context.Background(), ClientLeft{ID: c.id})

	// A blocked socket read or write only notices cancellation when the
	// socket dies under it.
	go func() {
		<-ctx.Done()
		c.conn.Close()
	}()

	errc := make(chan error, 2)
	go func() { errc <- c.readLoop(ctx) }()
	go func() { errc <- c.writeLoop(ctx) }()

	err := <-errc
	handle.Kill()
	<-errc

	if err != nil && ctx.Err() == nil {
		c.logger.Error("connection failed", "error", err)
	}

	if cw, ok := c.conn.(interface{ CloseWrite() error }); ok {
		cw.CloseWrite()
	}
	c.conn.Close()
}

// readLoop decodes socket bytes and dispatches each item: negotiation
// echoes to the write duty, application events to the Hub. It returns nil
// on clean EOF or an interrupt-process signal.
func (c *client) readLoop(ctx context.Context) error {
	r := telnet.NewReader(c.conn)
	for {
		item, err := r.Next()
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("decoding stream: %w", err)
		}

		switch item.Kind {
		case telnet.ItemAreYouThere:
			c.neg.push(telnet.AreYouThereAck)

		case telnet.ItemGoAhead:
			// Ignored.

		case telnet.ItemInterrupt:
			return nil

		case telnet.ItemWill:
			if item.Opt == telnet.OptSuppressGoAhead {
				c.neg.push(telnet.EncodeDo(item.Opt))
			} else {
				c.neg.push(telnet.EncodeDont(item.Opt))
			}

		case telnet.ItemDo:
			c.neg.push(telnet.EncodeWont(item.Opt))

		case telnet.ItemLine:
			if err := c.hub.Send(ctx, LineReceived{From: c.id, Line: item.Payload}); err != nil {
				return err
			}

		case telnet.ItemCreateIdentity:
			if err := c.hub.Send(ctx, CreateIdentity{From: c.id}); err != nil {
				return err
			}

		case telnet.ItemShowIdentity, telnet.ItemVerifyIdentity:
			if !utf8.Valid(item.Payload) {
				c.neg.push([]byte("Invalid identifier: not valid text\r\n"))
				continue
			}
			var ev Event
			if item.Kind == telnet.ItemShowIdentity {
				ev = ShowIdentity{From: c.id, Key: string(item.Payload)}
			} else {
				ev = VerifyIdentity{From: c.id, Key: string(item.Payload)}
			}
			if err := c.hub.Send(ctx, ev); err != nil {
				return err
			}

		case telnet.ItemAssignRole:
			if err := c.hub.Send(ctx, AssignRole{From: c.id, Role: string(item.Payload)}); err != nil {
				return err
			}

		case telnet.ItemWhoAmI:
			if err := c.hub.Send(ctx, WhoAmI{From: c.id}); err != nil {
				return err
			}

		case telnet.ItemShowPresentation:
			if err := c.hub.Send(ctx, ShowPresentation{From: c.id}); err != nil {
				return err
			}

		default:
			return fmt.Errorf("unhandled item %s", item)
		}
	}
}

// writeLoop serializes outbound messages and negotiation echoes, whichever
// is ready first. Closure of the outbound channel or context cancellation
// ends the duty.
func (c *client) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case msg, ok := <-c.recv:
			if !ok {
				return nil
			}
			if err := c.writeOutbound(msg); err != nil {
				return err
			}

		case <-c.neg.ready():
			for {
				b, ok := c.neg.pop()
				if !ok {
					break
				}
				if _, err := c.conn.Write(b); err != nil {
					return err
				}
			}
		}
	}
}

func (c *client) writeOutbound(msg Outbound) error {
	switch msg.Kind {
	case OutboundQR:
		art, err := qr.Render(string(msg.Payload))
		if err != nil {
			c.logger.Error("rendering presentation", "error", err)
			art = "Cannot render presentation"
		}
		if _, err := io.WriteString(c.conn, art); err != nil {
			return err
		}
	default:
		if _, err := c.conn.Write(msg.Payload); err != nil {
			return err
		}
	}
	_, err := c.conn.Write(telnet.CRLF)
	return err
}

// negQueue is the unbounded single-producer/single-consumer queue carrying
// negotiation echoes from the read duty to the write duty. The producer
// never blocks.
type negQueue struct {
	mu     sync.Mutex
	items  [][]byte
	notify chan struct{}
}

func newNegQueue() *negQueue {
	return &negQueue{notify: make(chan struct{}, 1)}
}

func (q *negQueue) push(b []byte) {
	q.mu.Lock()
	q.items = append(q.items, b)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// ready returns the channel the consumer selects on; a receive means at
// least one item may be pending.
func (q *negQueue) ready() <-chan struct{} { return q.notify }

func (q *negQueue) pop() ([]byte, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil, false
	}
	b := q.items[0]
	q.items = q.items[1:]
	return b, true
}
