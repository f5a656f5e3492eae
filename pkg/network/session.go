package network

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	protocol "lumen/pkg/shared/network"
)

const (
	sendQueueSize = 256
	writeTimeout  = 5 * time.Second
	readLimit     = 4096
)

var (
	ErrSessionClosed = errors.New("session closed")
	ErrSlowConsumer  = errors.New("session send queue full")
)

// Handler owns a session from accept until it returns.
type Handler interface {
	HandleSession(ctx context.Context, s *Session)
}

// Session is one websocket client. Reads happen on the handler's goroutine;
// writes are queued and flushed by a dedicated writer so a slow client never
// blocks the caller of Send.
type Session struct {
	ID uuid.UUID

	conn   *websocket.Conn
	send   chan []byte
	closed chan struct{}
	done   chan struct{}
	logger *slog.Logger

	once   sync.Once
	code   websocket.StatusCode
	reason string
}

func newSession(conn *websocket.Conn, logger *slog.Logger) *Session {
	id := uuid.New()
	return &Session{
		ID:     id,
		conn:   conn,
		send:   make(chan []byte, sendQueueSize),
		closed: make(chan struct{}),
		done:   make(chan struct{}),
		logger: logger.With("session", id.String()),
		code:   websocket.StatusNormalClosure,
	}
}

func (s *Session) Logger() *slog.Logger { return s.logger }

// Send queues b for writing. The caller must not modify b afterwards. A
// session whose queue is full is closed.
func (s *Session) Send(b []byte) error {
	select {
	case <-s.closed:
		return ErrSessionClosed
	default:
	}
	select {
	case s.send <- b:
		return nil
	default:
		s.Close(websocket.StatusPolicyViolation, "too slow")
		return ErrSlowConsumer
	}
}

// SendPacket queues an encoded packet.
func (s *Session) SendPacket(p *protocol.Packet) error {
	if err := p.Err(); err != nil {
		return fmt.Errorf("encode %s: %w", p.Opcode(), err)
	}
	return s.Send(p.Bytes())
}

// Read blocks until the next packet arrives.
func (s *Session) Read(ctx context.Context) (*protocol.Reader, error) {
	typ, b, err := s.conn.Read(ctx)
	if err != nil {
		return nil, err
	}
	if typ != websocket.MessageBinary {
		return nil, fmt.Errorf("unexpected %s message", typ)
	}
	return protocol.NewReader(b), nil
}

// Close asks the writer to close the connection with code and reason. It
// does not block; only the first call has an effect.
func (s *Session) Close(code websocket.StatusCode, reason string) {
	s.once.Do(func() {
		s.code = code
		s.reason = reason
		close(s.closed)
	})
}

// Done is closed once the connection is closed.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) writeLoop(ctx context.Context) {
	defer close(s.done)
	// every return below follows a Close, so code and reason are set
	defer func() { s.conn.Close(s.code, s.reason) }()

	for {
		select {
		case b := <-s.send:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := s.conn.Write(wctx, websocket.MessageBinary, b)
			cancel()
			if err != nil {
				s.logger.Debug("write failed", "error", err)
				s.Close(websocket.StatusGoingAway, "write failed")
				return
			}
		case <-s.closed:
			return
		case <-ctx.Done():
			s.Close(websocket.StatusGoingAway, "shutting down")
			return
		}
	}
}

// ServeSessions upgrades requests to websocket sessions and hands them to h.
func ServeSessions(h Handler, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			logger.Warn("websocket accept failed", "remote", r.RemoteAddr, "error", err)
			return
		}
		c.SetReadLimit(readLimit)

		s := newSession(c, logger)
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		go s.writeLoop(ctx)
		s.logger.Debug("session opened", "remote", r.RemoteAddr)

		h.HandleSession(ctx, s)

		s.Close(websocket.StatusNormalClosure, "")
		<-s.done
		s.logger.Debug("session closed")
	}
}
