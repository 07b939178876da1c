package ws

import (
	"context"
	"time"

	"nhooyr.io/websocket"

	"github.com/cashflowgame/server/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

// Client is one live websocket connection.
type Client struct {
	id          model.ConnectionID
	conn        *websocket.Conn
	send        chan []byte
	connectedAt time.Time
}

// NewClient wraps an accepted connection
func NewClient(id model.ConnectionID, conn *websocket.Conn) *Client {
	return &Client{
		id:          id,
		conn:        conn,
		send:        make(chan []byte, sendBufferSize),
		connectedAt: time.Now(),
	}
}

// writePump drains the send buffer onto the socket. It exits when the hub
// closes the channel or a write fails, closing the socket either way.
func (c *Client) writePump(ctx context.Context) {
	for msg := range c.send {
		writeCtx, cancel := context.WithTimeout(ctx, writeWait)
		err := c.conn.Write(writeCtx, websocket.MessageText, msg)
		cancel()
		if err != nil {
			c.conn.Close(websocket.StatusAbnormalClosure, "write failed")
			return
		}
	}
	c.conn.Close(websocket.StatusNormalClosure, "")
}
