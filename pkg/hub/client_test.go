package hub

import (
	"bufio"
	"context"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/didlink-dev/didlink/pkg/did"
	"github.com/didlink-dev/didlink/pkg/telnet"
)

// testPeer is the remote end of a spawned connection actor.
type testPeer struct {
	conn net.Conn
	br   *bufio.Reader
}

func (p *testPeer) write(t *testing.T, b []byte) {
	t.Helper()
	p.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if _, err := p.conn.Write(b); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func (p *testPeer) readLine(t *testing.T) string {
	t.Helper()
	p.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	line, err := p.br.ReadString('\n')
	if err != nil {
		t.Fatalf("read line: %v", err)
	}
	return strings.TrimRight(line, "\r\n")
}

func (p *testPeer) readBytes(t *testing.T, n int) []byte {
	t.Helper()
	p.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	buf := make([]byte, n)
	if _, err := io.ReadFull(p.br, buf); err != nil {
		t.Fatalf("read %d bytes: %v", n, err)
	}
	return buf
}

// expectClosed asserts the stream ends without further application data.
func (p *testPeer) expectClosed(t *testing.T) {
	t.Helper()
	p.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, err := p.br.ReadByte(); err == nil {
		t.Fatal("connection still open")
	}
}

func startHub(t *testing.T) (HubHandle, *countingMetrics) {
	t.Helper()
	metrics := newCountingMetrics()
	h := New(did.NewMemoryStore(), testLogger(), WithMetrics(metrics))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)
	return h.Handle(), metrics
}

// connect spawns an actor over one side of an in-memory pipe and reads the
// welcome line, so every test starts from a registered connection.
func connect(t *testing.T, handle HubHandle) *testPeer {
	t.Helper()
	local, remote := net.Pipe()
	t.Cleanup(func() { remote.Close() })
	Spawn(context.Background(), local, handle, testLogger())

	p := &testPeer{conn: remote, br: bufio.NewReader(remote)}
	if got := p.readLine(t); got != "Welcome!" {
		t.Fatalf("welcome = %q", got)
	}
	return p
}

func TestClientNegotiation(t *testing.T) {
	handle, _ := startHub(t)

	t.Run("are you there", func(t *testing.T) {
		p := connect(t, handle)
		p.write(t, []byte{telnet.IAC, 246})
		if got := p.readLine(t); got != "Yes." {
			t.Fatalf("ack = %q", got)
		}
	})

	t.Run("will suppress-go-ahead is accepted", func(t *testing.T) {
		p := connect(t, handle)
		p.write(t, []byte{telnet.IAC, 251, telnet.OptSuppressGoAhead})
		got := p.readBytes(t, 3)
		want := telnet.EncodeDo(telnet.OptSuppressGoAhead)
		if string(got) != string(want) {
			t.Fatalf("reply = % x, want % x", got, want)
		}
	})

	t.Run("other will offers are refused", func(t *testing.T) {
		p := connect(t, handle)
		p.write(t, []byte{telnet.IAC, 251, 42})
		got := p.readBytes(t, 3)
		want := telnet.EncodeDont(42)
		if string(got) != string(want) {
			t.Fatalf("reply = % x, want % x", got, want)
		}
	})

	t.Run("do requests are refused", func(t *testing.T) {
		p := connect(t, handle)
		p.write(t, []byte{telnet.IAC, 253, 1})
		got := p.readBytes(t, 3)
		want := telnet.EncodeWont(1)
		if string(got) != string(want) {
			t.Fatalf("reply = % x, want % x", got, want)
		}
	})

	t.Run("interrupt ends the connection", func(t *testing.T) {
		p := connect(t, handle)
		p.write(t, []byte{telnet.IAC, 244})
		p.expectClosed(t)
	})

	t.Run("unhandled signal ends the connection", func(t *testing.T) {
		p := connect(t, handle)
		p.write(t, []byte{telnet.IAC, 243}) // break
		p.expectClosed(t)
	})
}

func TestClientChat(t *testing.T) {
	handle, metrics := startHub(t)
	a := connect(t, handle)
	b := connect(t, handle)

	a.write(t, []byte("hello everyone\n"))
	if got := b.readLine(t); got != "hello everyone" {
		t.Fatalf("b received %q", got)
	}

	// The sender's next reply proves the chat line skipped it.
	a.write(t, []byte("c#wai\n"))
	if got := a.readLine(t); got != "Hello Anonymous" {
		t.Fatalf("a received %q", got)
	}

	b.conn.Close()
	select {
	case <-metrics.leftCh:
	case <-time.After(5 * time.Second):
		t.Fatal("departure not observed")
	}

	// Chat still works with the survivor registered alone.
	a.write(t, []byte("anyone?\n"))
	a.write(t, []byte("c#wai\n"))
	if got := a.readLine(t); got != "Hello Anonymous" {
		t.Fatalf("a received %q", got)
	}
}

func TestClientCommands(t *testing.T) {
	handle, _ := startHub(t)

	t.Run("assign role and who am i", func(t *testing.T) {
		p := connect(t, handle)
		p.write(t, []byte("c#ar issuer\n"))
		if got := p.readLine(t); got != "Hello issuer" {
			t.Fatalf("assign reply = %q", got)
		}
		p.write(t, []byte("c#wai\n"))
		if got := p.readLine(t); got != "Hello issuer" {
			t.Fatalf("whoami reply = %q", got)
		}
	})

	t.Run("role without separator", func(t *testing.T) {
		p := connect(t, handle)
		p.write(t, []byte("c#arverifier\n"))
		if got := p.readLine(t); got != "Hello verifier" {
			t.Fatalf("assign reply = %q", got)
		}
	})

	t.Run("create then show round trip", func(t *testing.T) {
		p := connect(t, handle)
		p.write(t, []byte("c#cdid\n"))
		reply := p.readLine(t)
		const prefix = "Your identity document is saved: "
		if !strings.HasPrefix(reply, prefix) {
			t.Fatalf("create reply = %q", reply)
		}
		id := strings.TrimPrefix(reply, prefix)

		p.write(t, []byte("c#sdid"+id+"\n"))
		if got := p.readLine(t); got != "{" {
			t.Fatalf("document reply starts %q", got)
		}
		if got := p.readLine(t); !strings.Contains(got, "@context") {
			t.Fatalf("document second line = %q", got)
		}
	})

	t.Run("verify unknown key", func(t *testing.T) {
		p := connect(t, handle)
		p.write(t, []byte("c#vdiddid:didlink:0000\n"))
		if got := p.readLine(t); got != "Not found" {
			t.Fatalf("verify reply = %q", got)
		}
	})

	t.Run("malformed key is per-command", func(t *testing.T) {
		p := connect(t, handle)
		p.write(t, []byte("c#sdid\xc3\x28\n"))
		if got := p.readLine(t); got != "Invalid identifier: not valid text" {
			t.Fatalf("reply = %q", got)
		}
		p.write(t, []byte("c#wai\n"))
		if got := p.readLine(t); got != "Hello Anonymous" {
			t.Fatalf("connection unusable after bad key: %q", got)
		}
	})

	t.Run("presentation renders block art", func(t *testing.T) {
		p := connect(t, handle)
		p.write(t, []byte("c#svp\n"))
		first := p.readLine(t)
		if first == "" || !strings.ContainsAny(first, "█▄▀ ") {
			t.Fatalf("first art line = %q", first)
		}
	})
}

func TestClientKillDropsConnection(t *testing.T) {
	handle, metrics := startHub(t)
	p := connect(t, handle)

	// Deregistration kills the connection's background task.
	if err := handle.Send(context.Background(), ClientLeft{ID: 1}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	select {
	case <-metrics.leftCh:
	case <-time.After(5 * time.Second):
		t.Fatal("departure not observed")
	}
	p.expectClosed(t)
}
