// Package server exposes the group coordinator over a unix socket using the
// newline-delimited JSON envelope protocol.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/yourusername/grid-dock/internal/events"
	"github.com/yourusername/grid-dock/internal/group"
	"github.com/yourusername/grid-dock/internal/logging"
	"github.com/yourusername/grid-dock/internal/models"
	"github.com/yourusername/grid-dock/internal/types"
)

// subscriberBuffer is the per-subscriber event queue depth. A subscriber that
// falls further behind loses events.
const subscriberBuffer = 256

// RuleSource returns the configured size constraints for a window identity
type RuleSource func(id types.Identity) types.Constraints

// Server handles IPC requests from clients. It implements suture.Service.
type Server struct {
	socketPath string
	svc        *group.Service
	bus        *events.Bus
	rules      RuleSource
	startTime  time.Time

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
}

// New creates a server for svc. Events raised by remote daemons are
// published on bus, which also feeds subscribers.
func New(socketPath string, svc *group.Service, bus *events.Bus, rules RuleSource) *Server {
	if rules == nil {
		rules = func(types.Identity) types.Constraints { return types.Constraints{} }
	}
	return &Server{
		socketPath: socketPath,
		svc:        svc,
		bus:        bus,
		rules:      rules,
		startTime:  time.Now(),
		conns:      make(map[net.Conn]struct{}),
	}
}

// Serve listens on the socket until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	// Remove existing socket if present
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	logging.Info().Str("socket", s.socketPath).Msg("IPC server listening")

	go func() {
		<-ctx.Done()
		s.close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			logging.Warn().Err(err).Msg("IPC accept error")
			continue
		}

		s.track(conn, true)
		go s.handleConnection(ctx, conn)
	}
}

// String names the service for the supervisor log
func (s *Server) String() string {
	return "ipc-server"
}

func (s *Server) track(conn net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[conn] = struct{}{}
	} else {
		delete(s.conns, conn)
	}
}

// close stops accepting and drops every open connection.
func (s *Server) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		s.listener.Close()
		s.listener = nil
	}
	for conn := range s.conns {
		conn.Close()
	}
	os.Remove(s.socketPath)
}

// handleConnection serves requests on one connection until the client hangs
// up. An events.subscribe request turns the connection into an event stream.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer s.track(conn, false)
	defer conn.Close()

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err != io.EOF {
				logging.Debug().Err(err).Msg("IPC read error")
			}
			return
		}

		var env models.MessageEnvelope
		if err := json.Unmarshal(line, &env); err != nil || env.Request == nil {
			s.write(conn, models.NewErrorResponse("", models.CodeBadRequest, "invalid request"))
			continue
		}
		req := env.Request

		if req.Method == models.MethodSubscribe {
			s.stream(ctx, conn, req)
			return
		}

		s.write(conn, s.dispatch(ctx, req))
	}
}

func (s *Server) write(conn net.Conn, env *models.MessageEnvelope) bool {
	data, err := json.Marshal(env)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal response")
		return false
	}
	if _, err := conn.Write(append(data, '\n')); err != nil {
		logging.Debug().Err(err).Msg("Failed to send response")
		return false
	}
	return true
}

// stream acknowledges a subscription and then writes every matching event
// until the client goes away.
func (s *Server) stream(ctx context.Context, conn net.Conn, req *models.Request) {
	var f subscribeFilter
	if err := models.FromMap(req.Params, &f); err != nil {
		s.write(conn, models.NewErrorResponse(req.ID, models.CodeBadRequest, err.Error()))
		return
	}

	ch, cancel := s.bus.Subscribe(subscriberBuffer, f.match)
	defer cancel()

	if !s.write(conn, models.NewResponse(req.ID, map[string]interface{}{"subscribed": true})) {
		return
	}
	logging.Info().Str("filter", f.String()).Msg("Event subscriber connected")

	// A read returning means the client hung up.
	gone := make(chan struct{})
	go func() {
		io.Copy(io.Discard, conn)
		close(gone)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-gone:
			logging.Info().Msg("Event subscriber disconnected")
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := models.ToMap(ev.Payload)
			if err != nil {
				logging.Warn().Err(err).Msg("Failed to encode event")
				continue
			}
			if !s.write(conn, models.NewEvent(string(ev.Key.Name), data, ev.Timestamp)) {
				return
			}
		}
	}
}

// subscribeFilter selects events by identity and name. Empty fields match
// everything.
type subscribeFilter struct {
	UUID  string `json:"uuid"`
	Name  string `json:"name"`
	Event string `json:"event"`
}

func (f subscribeFilter) match(k events.Key) bool {
	if f.UUID != "" && f.UUID != k.Identity.UUID {
		return false
	}
	if f.Name != "" && f.Name != k.Identity.Name {
		return false
	}
	return f.Event == "" || f.Event == string(k.Name)
}

func (f subscribeFilter) String() string {
	return fmt.Sprintf("uuid=%q name=%q event=%q", f.UUID, f.Name, f.Event)
}
