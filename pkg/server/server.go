package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/didlink-dev/didlink/pkg/did"
	"github.com/didlink-dev/didlink/pkg/hub"
)

// Server owns the hub, the TCP listener for the line protocol, and the
// admin HTTP surface.
type Server struct {
	config *Config
	hub    *hub.Hub
	handle hub.HubHandle
	logger *slog.Logger
	conns  *connLimiter

	// runCtx bounds connection lifetimes; set by Run before any listener
	// starts.
	runCtx context.Context

	addr      atomic.Value // net.Addr once bound
	adminAddr atomic.Value // net.Addr once bound
}

// Addr returns the bound line-protocol listener address, or nil before Run
// has bound it. Useful with a ":0" configured address.
func (s *Server) Addr() net.Addr {
	if a, ok := s.addr.Load().(net.Addr); ok {
		return a
	}
	return nil
}

// AdminAddr returns the bound admin listener address, or nil if the admin
// server is disabled or not yet bound.
func (s *Server) AdminAddr() net.Addr {
	if a, ok := s.adminAddr.Load().(net.Addr); ok {
		return a
	}
	return nil
}

// Option configures a Server.
type Option func(*options)

type options struct {
	metrics hub.Metrics
}

// WithMetrics installs a metrics sink on the hub, typically a
// *PromMetrics.
func WithMetrics(m hub.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// New creates a Server routing through a fresh hub over store. Unset
// config fields take their defaults.
func New(config *Config, store did.Store, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	config = config.withDefaults()

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var hubOpts []hub.Option
	if o.metrics != nil {
		hubOpts = append(hubOpts, hub.WithMetrics(o.metrics))
	}
	h := hub.New(store, logger, hubOpts...)

	return &Server{
		config: config,
		hub:    h,
		handle: h.Handle(),
		logger: logger.With("component", "server"),
		conns:  &connLimiter{max: config.MaxConns},
		runCtx: context.Background(),
	}
}

// Run listens and serves until ctx is cancelled or a fatal error occurs.
// On cancellation it closes the listeners, stops the hub, and returns nil.
func (s *Server) Run(ctx context.Context) error {
	if err := s.config.Validate(); err != nil {
		return err
	}

	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	s.addr.Store(ln.Addr())
	s.logger.Info("listening", "address", ln.Addr().String())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.runCtx = ctx

	var admin *http.Server
	var adminLn net.Listener
	if s.config.AdminAddress != "" {
		adminLn, err = net.Listen("tcp", s.config.AdminAddress)
		if err != nil {
			ln.Close()
			return err
		}
		s.adminAddr.Store(adminLn.Addr())
		admin = &http.Server{
			Handler:           s.adminRouter(),
			ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		}
	}

	errc := make(chan error, 3)
	tasks := 2
	go func() { errc <- s.hub.Run(ctx) }()
	go func() { errc <- s.acceptLoop(ctx, ln) }()
	if admin != nil {
		tasks++
		s.logger.Info("admin listening", "address", adminLn.Addr().String())
		go func() {
			err := admin.Serve(adminLn)
			if errors.Is(err, http.ErrServerClosed) {
				err = nil
			}
			errc <- err
		}()
	}

	// First failure (or cancellation observed by any task) tears down the
	// rest.
	runErr := <-errc
	cancel()
	ln.Close()
	if admin != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer shutdownCancel()
		admin.Shutdown(shutdownCtx)
	}
	for i := 1; i < tasks; i++ {
		if err := <-errc; runErr == nil {
			runErr = err
		}
	}

	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

// acceptLoop accepts line-protocol connections and spawns an actor per
// connection.
func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		s.spawn(ctx, conn)
	}
}

// spawn hands one connection to the hub, enforcing the connection limit.
// Shared by the TCP accept loop and the WebSocket bridge.
func (s *Server) spawn(ctx context.Context, conn net.Conn) {
	tracked, ok := s.conns.track(conn)
	if !ok {
		s.logger.Warn("connection limit reached", "remote", conn.RemoteAddr().String())
		conn.Close()
		return
	}
	hub.Spawn(ctx, tracked, s.handle, s.logger)
}

// connLimiter enforces the MaxConns cap. max == 0 means unlimited.
type connLimiter struct {
	max    int
	active atomic.Int64
}

func (l *connLimiter) track(conn net.Conn) (net.Conn, bool) {
	n := l.active.Add(1)
	if l.max > 0 && n > int64(l.max) {
		l.active.Add(-1)
		return nil, false
	}
	return &trackedConn{Conn: conn, limiter: l}, true
}

func (l *connLimiter) release() {
	l.active.Add(-1)
}

// trackedConn releases its limiter slot exactly once on Close, however
// many times Close is called.
type trackedConn struct {
	net.Conn
	limiter *connLimiter
	once    sync.Once
}

func (c *trackedConn) Close() error {
	err := c.Conn.Close()
	c.once.Do(c.limiter.release)
	return err
}
