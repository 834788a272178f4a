/*
Package chat contains the core relay logic: the hub dispatching every client
event, the per-connection client pumps, and the boards tracking pins, read
receipts, and reactions.

This file defines the Client struct, representing one active WebSocket
connection. It runs the read and write pumps and forwards decoded frames to
the hub; it never touches shared state itself.
*/
package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"quickdrop/internal/app/session"
	"quickdrop/internal/pkg/errs"
	"quickdrop/internal/pkg/logx"
)

const (
	// timeout for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time the server waits for a Pong from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// capacity of the per-client outbound queue.
	sendQueueSize = 256
)

// Client represents one active WebSocket connection.
type Client struct {
	// hub is the dispatch loop this client belongs to.
	hub *Hub

	// conn is the underlying WebSocket connection.
	conn *websocket.Conn

	// remoteAddr is the peer address recorded at upgrade time.
	remoteAddr string

	// session is assigned by the hub when the client is registered and is
	// only read from the hub's dispatch goroutine.
	session session.Session

	// send queues marshaled events waiting to be written to the connection.
	send chan []byte

	// closed signals that the hub has dropped this client; the write pump
	// exits and further enqueues are refused.
	closed    chan struct{}
	closeOnce sync.Once

	logger zerolog.Logger
}

// NewClient constructs a Client for an upgraded connection. The read limit
// must accommodate a full base64-encoded voice payload.
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	clientLogger := logx.Logger().With().
		Str("component", "client").
		Str("remote_addr", remoteAddr).
		Logger()

	return &Client{
		hub:        hub,
		conn:       conn,
		remoteAddr: remoteAddr,
		send:       make(chan []byte, sendQueueSize),
		closed:     make(chan struct{}),
		logger:     clientLogger,
	}
}

// ReadPump reads frames from the WebSocket connection and forwards them to
// the hub. It handles Pong heartbeats and performs cleanup when the
// connection drops.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(c.hub.readLimit())

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (client close/going away)")
			}
			break
		}

		var frame inboundFrame
		if err := json.Unmarshal(messageBytes, &frame); err != nil {
			c.logger.Warn().Err(err).Msg("Client sent invalid JSON")
			c.SendError(errs.NewError(errs.ErrInvalidEventPayload))
			continue
		}

		c.hub.forward(c, frame)
	}
}

// cleanupOnDisconnect notifies the hub that this connection is gone and
// closes the socket.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Msg("Client connection cleanup starting.")

	c.hub.drop(c)

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}
}

// WritePump writes queued events to the WebSocket connection and keeps the
// heartbeat alive with periodic pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case message := <-c.send:
			if !c.writeQueuedMessage(message) {
				return
			}

		case <-c.closed:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
				c.logger.Debug().Err(err).Msg("Error writing close message")
			}
			return

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedMessage writes one queued frame. It returns false when the write
// pump should terminate.
func (c *Client) writeQueuedMessage(message []byte) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Error().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// writePingMessage sends a heartbeat ping. It returns false when the write
// pump should terminate.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// markClosed flags the client as dropped. The send channel is never closed,
// so late SendError calls from the read goroutine stay safe.
func (c *Client) markClosed() {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
}

// enqueue places a marshaled frame on the send queue without blocking the
// caller. It returns false when the client is closed or the queue is full.
func (c *Client) enqueue(message []byte) bool {
	select {
	case <-c.closed:
		return false
	default:
	}

	select {
	case c.send <- message:
		return true
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send queue full, dropping event")
		return false
	}
}

// sendEvent marshals an event and queues it for this client.
func (c *Client) sendEvent(ev Event) error {
	messageBytes, err := json.Marshal(ev)
	if err != nil {
		c.logger.Error().Err(err).Msg("Error marshaling event for client")
		return err
	}

	if !c.enqueue(messageBytes) {
		return fmt.Errorf("client send queue full or closed")
	}

	return nil
}

// SendError reports a non-fatal failure back to this client as an error event.
func (c *Client) SendError(err error) {
	var code int
	var message string

	var customErr *errs.CustomError
	if errors.As(err, &customErr) {
		code = customErr.Code
		message = customErr.Message
	} else {
		code = errs.ErrUnknown
		message = "Something went wrong. Please try again."
	}

	errorEvent, evErr := NewEvent(TypeError, ErrorPayload{
		Code:    code,
		Message: message,
	})

	if evErr != nil {
		c.logger.Error().Err(evErr).Msg("Failed to build error event")
		return
	}

	if sendErr := c.sendEvent(errorEvent); sendErr != nil {
		c.logger.Warn().Err(sendErr).Msg("Failed to queue error event")
	}
}
