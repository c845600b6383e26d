package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxFrameSize = 4096
)

// Client is the opaque handle for one websocket connection. It carries no
// domain state; identity lives in the presence registry.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	addr string
}

func NewClient(hub *Hub, conn *websocket.Conn, addr string) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, hub.sendBuffer),
		addr: addr,
	}
}

// ServeClient registers the client with the hub and runs its read and write
// pumps until the connection dies. The unregister on exit fires exactly
// once regardless of which side closed first.
func (h *Hub) ServeClient(ctx context.Context, client *Client) {
	h.register <- client

	defer func() {
		h.unregister <- client
		client.conn.Close()
	}()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return client.readPump(ctx)
	})

	g.Go(func() error {
		return client.writePump(ctx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		slog.Error("Connection terminated", "addr", client.addr, "error", err)
	}
}

func (c *Client) readPump(ctx context.Context) error {
	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			_, raw, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseNormalClosure,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure,
					websocket.CloseNoStatusReceived) {
					slog.Error("Websocket close error", "addr", c.addr, "error", err)
				}
				return context.Canceled
			}

			c.hub.inbound <- inboundFrame{client: c, raw: raw}
		}
	}
}

func (c *Client) writePump(ctx context.Context) error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}

		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return nil
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return err
			}
		}
	}
}
