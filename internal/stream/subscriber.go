package stream

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	jitterbug "github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = 30 * time.Second
	pingJitter     = 3 * time.Second
	maxMessageSize = 32 << 10
)

// Subscriber is one live stream connection. A write pump drains its bounded
// queue and a read pump re-broadcasts incoming client frames, answering each
// with an ack. Any transport error tears the subscriber down and removes it
// from the hub without affecting other subscribers.
type Subscriber struct {
	id   uuid.UUID
	hub  *Hub
	conn *websocket.Conn

	send chan Event
	done chan struct{}

	closeOnce sync.Once
}

func newSubscriber(hub *Hub, conn *websocket.Conn, queueSize int) *Subscriber {
	return &Subscriber{
		id:   uuid.New(),
		hub:  hub,
		conn: conn,
		send: make(chan Event, queueSize),
		done: make(chan struct{}),
	}
}

func (s *Subscriber) ID() uuid.UUID {
	return s.id
}

// Run pumps the connection until it drops. It blocks, so the websocket
// handler calls it on the request goroutine.
func (s *Subscriber) Run() {
	go s.writePump()
	s.readPump()
}

// enqueue offers an event to the subscriber queue without blocking.
func (s *Subscriber) enqueue(event Event) bool {
	select {
	case <-s.done:
		return true
	default:
	}

	select {
	case s.send <- event:
		return true
	default:
		return false
	}
}

func (s *Subscriber) writePump() {
	// Jitter the ping period so a large subscriber set does not ping in
	// lockstep.
	ticker := jitterbug.New(pingInterval, &jitterbug.Norm{Stdev: pingJitter})
	defer ticker.Stop()
	defer s.close()

	for {
		select {
		case event := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(event); err != nil {
				zap.S().Named("stream").Debugw("write failed, dropping subscriber", "subscriber_id", s.id, "error", err)
				return
			}
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *Subscriber) readPump() {
	defer s.close()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				zap.S().Named("stream").Debugw("read failed", "subscriber_id", s.id, "error", err)
			}
			return
		}

		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			zap.S().Named("stream").Debugw("ignoring malformed client frame", "subscriber_id", s.id, "error", err)
			continue
		}
		if event.Timestamp.IsZero() {
			event.Timestamp = time.Now()
		}

		// Client frames are relayed to every subscriber and acknowledged to
		// the sender.
		s.hub.Broadcast(event)
		s.enqueue(NewAckEvent())
	}
}

func (s *Subscriber) close() {
	s.closeOnce.Do(func() {
		s.hub.unregister(s.id)
		close(s.done)
		_ = s.conn.Close()
	})
}
