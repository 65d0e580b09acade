// Package ws adapts a gorilla websocket connection to the room Conn
// interface and pumps inbound frames into the room's inbox.
package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"flag-rush/internal/room"
)

const (
	writeWait     = 10 * time.Second
	maxFrameBytes = 4 * 1024
	readDeadline  = 60 * time.Second
)

// Session is one participant's websocket. Send serializes writes behind a
// mutex because the room broadcast and close paths can race on the socket.
type Session struct {
	id   string
	conn *websocket.Conn
	log  zerolog.Logger

	mu     sync.Mutex
	closed bool
}

func NewSession(id string, conn *websocket.Conn, log zerolog.Logger) *Session {
	return &Session{
		id:   id,
		conn: conn,
		log:  log.With().Str("player", id).Logger(),
	}
}

// Send writes one frame under a write deadline. Fire and forget: the caller
// decides what a failure means.
func (s *Session) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return websocket.ErrCloseSent
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Close is immediate and idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}

// ReadPump forwards inbound frames to the room until the socket dies, then
// posts a Leave. Runs on the connection's own goroutine; the room actor
// never blocks on this socket.
func (s *Session) ReadPump(r *room.Room) {
	defer func() {
		r.Inbox <- room.Leave{ID: s.id}
		_ = s.Close()
	}()

	s.conn.SetReadLimit(maxFrameBytes)
	s.conn.SetReadDeadline(time.Now().Add(readDeadline))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Err(err).Msg("websocket read failed")
			}
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(readDeadline))
		r.Inbox <- room.Frame{ID: s.id, Data: data}
	}
}
