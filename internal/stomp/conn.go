package stomp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-stomp/stomp/v3/frame"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// ErrBrokerError is wrapped around ERROR frames received from the broker.
var ErrBrokerError = errors.New("broker error")

// Conn is one STOMP session over a websocket. Writes are serialised; a
// single goroutine is expected to read.
type Conn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
	session string

	closeOnce sync.Once
}

// Wrap adopts an established websocket, used by the broker side.
func Wrap(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

// Dial opens the websocket and completes the CONNECT/CONNECTED exchange.
func Dial(ctx context.Context, rawURL, token string) (*Conn, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse ws url: %w", err)
	}

	header := http.Header{}
	if token != "" {
		header.Set(HeaderAuthorization, "Bearer "+token)
	}
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("ws dial failed: %s", resp.Status)
		}
		return nil, fmt.Errorf("ws dial error: %w", err)
	}

	c := Wrap(ws)
	if err := c.WriteFrame(NewConnect(u.Host, token)); err != nil {
		c.Close()
		return nil, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = ws.SetReadDeadline(deadline)
	}
	f, err := c.ReadFrame()
	_ = ws.SetReadDeadline(time.Time{})
	if err != nil {
		c.Close()
		return nil, err
	}
	if f.Command != frame.CONNECTED {
		c.Close()
		return nil, fmt.Errorf("expected CONNECTED, got %s", f.Command)
	}
	c.session = f.Header.Get(HeaderSession)
	return c, nil
}

func (c *Conn) Session() string {
	return c.session
}

// Subscribe registers a subscription and returns its id.
func (c *Conn) Subscribe(destination string) (string, error) {
	id := "sub-" + uuid.NewString()
	if err := c.WriteFrame(NewSubscribe(id, destination)); err != nil {
		return "", err
	}
	return id, nil
}

func (c *Conn) Unsubscribe(id string) error {
	return c.WriteFrame(NewUnsubscribe(id))
}

// Send publishes a JSON body to an application destination.
func (c *Conn) Send(destination string, body []byte) error {
	return c.WriteFrame(NewSend(destination, body))
}

func (c *Conn) WriteFrame(f *frame.Frame) error {
	data, err := Encode(f)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write %s: %w", commandOf(f), err)
	}
	return nil
}

// ReadFrame blocks for the next frame, skipping heart-beats. ERROR frames
// come back as an error wrapping ErrBrokerError.
func (c *Conn) ReadFrame() (*frame.Frame, error) {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return nil, err
		}
		f, err := Decode(data)
		if err != nil {
			return nil, err
		}
		if f == nil {
			continue
		}
		if f.Command == frame.ERROR {
			msg := f.Header.Get(HeaderMessage)
			if msg == "" {
				msg = string(f.Body)
			}
			return f, fmt.Errorf("%w: %s", ErrBrokerError, msg)
		}
		return f, nil
	}
}

// Close sends DISCONNECT and closes the socket. Safe to call repeatedly.
func (c *Conn) Close() error {
	return c.shutdown(true)
}

// Drop closes the socket without a DISCONNECT frame, the broker's side of
// ending a session.
func (c *Conn) Drop() error {
	return c.shutdown(false)
}

func (c *Conn) shutdown(disconnect bool) error {
	var err error
	c.closeOnce.Do(func() {
		if disconnect {
			_ = c.WriteFrame(NewDisconnect())
		}
		c.writeMu.Lock()
		_ = c.ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		c.writeMu.Unlock()
		err = c.ws.Close()
	})
	return err
}
