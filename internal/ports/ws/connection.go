package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"tictacchec/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Connection is one websocket client. Reads and writes run on their own
// goroutines; outbound frames queue on send.
type Connection struct {
	id      string
	subject string
	socket  *websocket.Conn
	server  *Server
	limiter *rate.Limiter

	send      chan []byte
	done      chan struct{}
	finished  chan struct{}
	closeOnce sync.Once
}

func newConnection(id, subject string, socket *websocket.Conn, s *Server) *Connection {
	return &Connection{
		id:       id,
		subject:  subject,
		socket:   socket,
		server:   s,
		limiter:  rate.NewLimiter(rate.Limit(s.cfg.MessagesPerSecond), s.cfg.MessageBurst),
		send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// enqueue queues a frame without blocking. A client too slow to drain its
// queue is disconnected.
func (c *Connection) enqueue(frame []byte) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- frame:
	case <-c.done:
	default:
		c.server.log.Warn().Str("conn", c.id).Msg("send queue full, dropping connection")
		c.close()
	}
}

func (c *Connection) sendError(err error) {
	frame, encErr := protocol.EncodeError(err)
	if encErr != nil {
		return
	}
	c.enqueue(frame)
}

func (c *Connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (c *Connection) pongWait() time.Duration {
	return 2*c.server.cfg.PingInterval() + writeWait
}

func (c *Connection) readPump() {
	defer func() {
		c.close()
		c.server.unregister(c)
	}()

	c.socket.SetReadLimit(maxMessageSize)
	c.socket.SetReadDeadline(time.Now().Add(c.pongWait()))
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(c.pongWait()))
	})

	for {
		_, data, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.server.log.Debug().Err(err).Str("conn", c.id).Msg("read failed")
			}
			return
		}

		if !c.limiter.Allow() {
			c.sendError(protocol.ErrRateLimited)
			continue
		}

		msg, err := protocol.DecodeClient(data)
		if err != nil {
			c.sendError(err)
			continue
		}

		if err := c.server.handle(c, msg); err != nil {
			c.server.log.Debug().Err(err).Str("conn", c.id).Msg("message rejected")
			c.sendError(err)
		}
	}
}

// writePump drains send and pings the client every ping interval.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.server.cfg.PingInterval())
	defer func() {
		ticker.Stop()
		c.socket.SetWriteDeadline(time.Now().Add(writeWait))
		c.socket.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.socket.Close()
		close(c.finished)
	}()

	for {
		select {
		case frame := <-c.send:
			c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			if err := c.socket.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}
