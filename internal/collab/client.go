package collab

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/boothmap/boothmap/internal/access"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 64 * 1024

	// Pointer moves arrive at frame rate; the buffer has to absorb a burst
	// of state updates while a slow browser catches up.
	sendBuffer = 256
)

// Client is one websocket connection attached to a layout room.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	logger *slog.Logger

	// done is closed by the hub when the client is dropped. send is never
	// closed, so a reader that races with the hub can still call Send.
	done      chan struct{}
	closeOnce sync.Once

	ClientID    string
	LayoutID    string
	DisplayName string
	Role        access.Role
}

func NewClient(hub *Hub, conn *websocket.Conn, clientID, layoutID, displayName string, role access.Role) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		done:        make(chan struct{}),
		logger:      slog.With("client", clientID, "layout", layoutID),
		ClientID:    clientID,
		LayoutID:    layoutID,
		DisplayName: displayName,
		Role:        role,
	}
}

// close tells WritePump to flush what is queued and hang up. Safe to call
// more than once.
func (c *Client) close() { c.closeOnce.Do(func() { close(c.done) }) }

// CanEdit reports whether the client joined with an edit token.
func (c *Client) CanEdit() bool { return c.Role == access.RoleEdit }

// ReadPump decodes inbound frames and hands them to the hub until the
// connection closes. It unregisters the client on exit.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMsgSize)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if !closedNormally(err) {
				c.logger.Debug("read error", "error", err)
			}
			return
		}

		msg, err := decodeMessage(data)
		if err != nil {
			c.logger.Warn("invalid message", "error", err)
			c.Send(newMessage(TypeError, ErrorPayload{Message: err.Error()}))
			continue
		}
		c.hub.Submit(c, msg)
	}
}

// WritePump drains the send queue and keeps the connection alive with pings.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case data := <-c.send:
			if err := c.write(ctx, data); err != nil {
				c.logger.Debug("write error", "error", err)
				return
			}

		case <-c.done:
			c.flush(ctx)
			return

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) write(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return c.conn.Write(ctx, websocket.MessageText, data)
}

// flush writes whatever is still queued, so a final error reaches the
// browser before the connection closes.
func (c *Client) flush(ctx context.Context) {
	for {
		select {
		case data := <-c.send:
			if err := c.write(ctx, data); err != nil {
				return
			}
		default:
			return
		}
	}
}

// Send queues msg without blocking. Messages to a dropped client are
// discarded; a client whose buffer is full misses the message and can
// recover with doc.request.
func (c *Client) Send(msg *Message) {
	select {
	case <-c.done:
		return
	default:
	}

	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("marshal message", "error", err, "type", msg.Type)
		return
	}

	select {
	case c.send <- data:
	default:
		c.logger.Warn("send buffer full, dropping message", "type", msg.Type)
	}
}

var errMissingType = errors.New("message has no type")

func decodeMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Type == "" {
		return nil, errMissingType
	}
	return &msg, nil
}

func closedNormally(err error) bool {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return errors.Is(err, context.Canceled)
}
