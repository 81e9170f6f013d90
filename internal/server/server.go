package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"stasis/internal/logs"
	"stasis/internal/metrics"
	"stasis/internal/protocol"
	"stasis/internal/store"

	"github.com/google/uuid"
)

// acceptBackoff is the pause after a failed Accept before trying again.
const acceptBackoff = 10 * time.Millisecond

// Options controls connection framing.
type Options struct {
	Framing  string
	MaxFrame int
}

// Server accepts TCP connections and serves cache commands on them.
// Every connection works on its own clone of one Store.
type Server struct {
	store   store.Store
	opts    Options
	logger  *logs.Logger
	metrics *metrics.Registry

	mu     sync.Mutex
	conns  map[string]net.Conn
	closed bool
	wg     sync.WaitGroup
}

// NewServer validates opts and creates a Server.
func NewServer(
	st store.Store,
	opts Options,
	logger *logs.Logger,
	reg *metrics.Registry,
) (*Server, error) {
	// Probe the framing once so bad configuration fails here, not per connection.
	if _, err := protocol.NewCodec(opts.Framing, nopReadWriter{}, opts.MaxFrame); err != nil {
		return nil, err
	}

	return &Server{
		store:   st,
		opts:    opts,
		logger:  logger,
		metrics: reg,
		conns:   make(map[string]net.Conn),
	}, nil
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled. It then closes the
// listener and every open connection, waits for their handlers to return,
// and returns nil.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		ln.Close()
		s.closeConns()
	}()

	s.logger.Infof("tcp server listening on %s (%s framing)", ln.Addr(), s.opts.Framing)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.closeConns()
				s.wg.Wait()
				s.logger.Info("tcp server stopped")
				return nil
			}

			s.metrics.Inc(metrics.ConnectionErrorsTotal)
			s.logger.Warnf("connection error: accept: %v", err)
			time.Sleep(acceptBackoff)
			continue
		}

		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

// Conns returns the ids of open connections.
func (s *Server) Conns() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.conns))
	for id := range s.conns {
		out = append(out, id)
	}
	return out
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()

	id := uuid.NewString()
	s.track(id, conn)
	defer s.untrack(id)
	defer conn.Close()

	s.metrics.Inc(metrics.ConnectionsTotal)
	s.metrics.Inc(metrics.ConnectionsActive)
	defer s.metrics.Add(metrics.ConnectionsActive, -1)

	s.logger.Debugf("connection %s opened from %s", id, conn.RemoteAddr())

	// Framing was validated in NewServer.
	codec, _ := protocol.NewCodec(s.opts.Framing, conn, s.opts.MaxFrame)
	st := s.store.Clone()

	for {
		msg, err := codec.ReadMessage()
		if err != nil {
			s.readFailed(id, codec, err)
			return
		}

		resp := s.execute(st, string(msg))

		if err := codec.WriteMessage([]byte(resp.String())); err != nil {
			s.metrics.Inc(metrics.ConnectionErrorsTotal)
			s.logger.Warnf("connection error: %s: write: %v", id, err)
			return
		}
	}
}

func (s *Server) execute(st store.Store, line string) protocol.Response {
	s.metrics.Inc(metrics.CommandsTotal)

	req, err := protocol.Parse(line)
	if err != nil {
		s.metrics.Inc(metrics.CommandErrorsTotal)
		return protocol.Response{Kind: protocol.KindError, Message: err.Error()}
	}
	return protocol.Execute(req, st)
}

func (s *Server) readFailed(id string, codec protocol.Codec, err error) {
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
		s.logger.Debugf("connection %s closed", id)

	case errors.Is(err, protocol.ErrFrameTooLarge):
		s.metrics.Inc(metrics.FrameErrorsTotal)
		s.logger.Warnf("connection %s: %v", id, err)
		// Best effort: tell the client why it is being dropped.
		resp := protocol.Response{Kind: protocol.KindError, Message: err.Error()}
		_ = codec.WriteMessage([]byte(resp.String()))

	default:
		s.metrics.Inc(metrics.ConnectionErrorsTotal)
		s.logger.Warnf("connection error: %s: read: %v", id, err)
	}
}

// track registers conn for shutdown. A connection that arrives after
// shutdown began is closed immediately, so its first read fails.
func (s *Server) track(id string, conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		conn.Close()
		return
	}
	s.conns[id] = conn
}

func (s *Server) untrack(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, id)
}

func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for _, conn := range s.conns {
		conn.Close()
	}
}

type nopReadWriter struct{}

func (nopReadWriter) Read([]byte) (int, error)    { return 0, io.EOF }
func (nopReadWriter) Write(p []byte) (int, error) { return len(p), nil }
