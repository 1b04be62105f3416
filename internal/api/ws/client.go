package ws

import (
	"errors"
	"fmt"

	"github.com/go-stomp/stomp/v3/frame"
	"github.com/google/uuid"

	"github.com/Wal-20/studysphere-cli/internal/logger"
	"github.com/Wal-20/studysphere-cli/internal/models"
	"github.com/Wal-20/studysphere-cli/internal/stomp"
)

// Client is one STOMP session. Only readPump touches subs.
type Client struct {
	hub  *Hub
	conn *stomp.Conn
	send chan *frame.Frame
	done chan struct{}

	user models.User
	subs map[string]*Room
}

func newClient(h *Hub, conn *stomp.Conn) *Client {
	return &Client{
		hub:  h,
		conn: conn,
		send: make(chan *frame.Frame, 256),
		done: make(chan struct{}),
		subs: make(map[string]*Room),
	}
}

// deliver queues a broadcast frame, dropping it for a slow client.
func (c *Client) deliver(f *frame.Frame) {
	select {
	case c.send <- f:
	default:
		logger.Debugf("ws: dropping frame for slow client %d", c.user.ID)
	}
}

func (c *Client) writePump() {
	for {
		select {
		case f := <-c.send:
			if err := c.conn.WriteFrame(f); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// readPump authenticates the CONNECT frame, then serves frames until the
// client disconnects or a frame is refused. headerToken is the bearer
// token of the upgrade request, used when CONNECT carries none.
func (c *Client) readPump(headerToken string) {
	defer c.cleanup()

	f, err := c.conn.ReadFrame()
	if err != nil {
		return
	}
	if f.Command != frame.CONNECT && f.Command != frame.STOMP {
		c.refuse(fmt.Sprintf("expected CONNECT, got %s", f.Command))
		return
	}
	token := bearer(f.Header.Get(stomp.HeaderAuthorization))
	if token == "" {
		token = headerToken
	}
	user, err := c.hub.authenticate(token)
	if err != nil {
		c.refuse("authentication failed")
		return
	}
	c.user = user
	if err := c.conn.WriteFrame(stomp.NewConnected(uuid.NewString())); err != nil {
		return
	}

	for {
		f, err := c.conn.ReadFrame()
		if err != nil {
			return
		}
		if err := c.handle(f); err != nil {
			logger.Infof("ws: user %d: %v", c.user.ID, err)
			c.refuse(err.Error())
			return
		}
		if receipt := f.Header.Get(stomp.HeaderReceipt); receipt != "" {
			if err := c.conn.WriteFrame(stomp.NewReceipt(receipt)); err != nil {
				return
			}
		}
		if f.Command == frame.DISCONNECT {
			return
		}
	}
}

func (c *Client) handle(f *frame.Frame) error {
	switch f.Command {
	case frame.SUBSCRIBE:
		id := f.Header.Get(stomp.HeaderID)
		dest := f.Header.Get(stomp.HeaderDestination)
		if id == "" || dest == "" {
			return errors.New("SUBSCRIBE needs id and destination")
		}
		if err := c.hub.guard(c.user, dest); err != nil {
			return fmt.Errorf("subscription to %s refused: %w", dest, err)
		}
		room := c.hub.getRoom(dest, true)
		if room == nil {
			return errors.New("broker is shutting down")
		}
		if prev, ok := c.subs[id]; ok {
			prev.unsubscribe(subscription{client: c, id: id})
		}
		room.subscribe(subscription{client: c, id: id})
		c.subs[id] = room

	case frame.UNSUBSCRIBE:
		id := f.Header.Get(stomp.HeaderID)
		if room, ok := c.subs[id]; ok {
			room.unsubscribe(subscription{client: c, id: id})
			delete(c.subs, id)
		}

	case frame.SEND:
		dest := f.Header.Get(stomp.HeaderDestination)
		handle := c.hub.handler(dest)
		if handle == nil {
			return fmt.Errorf("no handler for %s", dest)
		}
		if err := handle(c.user, dest, f.Body); err != nil {
			return fmt.Errorf("send to %s failed: %w", dest, err)
		}
	}
	return nil
}

// refuse reports the problem in an ERROR frame; the session then ends.
func (c *Client) refuse(message string) {
	_ = c.conn.WriteFrame(stomp.NewError(message))
}

func (c *Client) cleanup() {
	for id, room := range c.subs {
		room.unsubscribe(subscription{client: c, id: id})
	}
	close(c.done)
	_ = c.conn.Drop()
}
