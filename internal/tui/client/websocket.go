package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-stomp/stomp/v3/frame"

	"github.com/Wal-20/studysphere-cli/internal/logger"
	"github.com/Wal-20/studysphere-cli/internal/models"
	"github.com/Wal-20/studysphere-cli/internal/stomp"
	"github.com/Wal-20/studysphere-cli/internal/utils"
)

const dialTimeout = 10 * time.Second

type StreamEventKind int

const (
	// StreamConnected fires after CONNECTED and the subscription are in place.
	StreamConnected StreamEventKind = iota
	// StreamFrame carries one MESSAGE body.
	StreamFrame
	// StreamDisconnected fires when a connection attempt or a live
	// connection fails. A reconnecting stream tries again after its delay.
	StreamDisconnected
)

type StreamEvent struct {
	Kind StreamEventKind
	Body []byte
	Err  error
}

// Stream is one subscription on its own broker connection. The Events
// channel is closed once the stream has stopped for good.
type Stream struct {
	client      *APIClient
	destination string
	reconnect   bool
	delay       time.Duration

	events chan StreamEvent
	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	conn *stomp.Conn
}

// SubscribeGroup opens the chat stream of a group. It reconnects after
// the configured delay, forever, until Close.
func (c *APIClient) SubscribeGroup(groupID int64) *Stream {
	return c.subscribe(fmt.Sprintf("/topic/group/%d", groupID), true)
}

// SubscribeNotifications pushes a frame whenever the user has a new
// notification. It does not reconnect.
func (c *APIClient) SubscribeNotifications(userID int64) *Stream {
	return c.subscribe(fmt.Sprintf("/queue/notifications/%d", userID), false)
}

func (c *APIClient) subscribe(destination string, reconnect bool) *Stream {
	delay := c.reconnectDelay
	if delay <= 0 {
		delay = 4 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Stream{
		client:      c,
		destination: destination,
		reconnect:   reconnect,
		delay:       delay,
		events:      make(chan StreamEvent, 64),
		ctx:         ctx,
		cancel:      cancel,
	}
	go s.run()
	return s
}

func (s *Stream) Events() <-chan StreamEvent {
	return s.events
}

func (s *Stream) Destination() string {
	return s.destination
}

func (s *Stream) run() {
	defer close(s.events)
	for {
		err := s.session()
		if s.ctx.Err() != nil {
			return
		}
		logger.Errorf("stream %s: %v", s.destination, err)
		if !s.emit(StreamEvent{Kind: StreamDisconnected, Err: err}) || !s.reconnect {
			return
		}
		select {
		case <-s.ctx.Done():
			return
		case <-time.After(s.delay):
		}
	}
}

// session runs one connection until it fails.
func (s *Stream) session() error {
	token := s.client.token()
	if token != "" && utils.TokenExpired(token, s.client.now()) {
		return ErrSessionExpired
	}

	ctx, cancel := context.WithTimeout(s.ctx, dialTimeout)
	conn, err := stomp.Dial(ctx, s.client.wsURL, token)
	cancel()
	if err != nil {
		return err
	}
	s.setConn(conn)
	defer func() {
		s.setConn(nil)
		conn.Close()
	}()

	if _, err := conn.Subscribe(s.destination); err != nil {
		return err
	}
	if !s.emit(StreamEvent{Kind: StreamConnected}) {
		return context.Canceled
	}

	for {
		f, err := conn.ReadFrame()
		if err != nil {
			return err
		}
		if f.Command != frame.MESSAGE {
			continue
		}
		if !s.emit(StreamEvent{Kind: StreamFrame, Body: f.Body}) {
			return context.Canceled
		}
	}
}

func (s *Stream) emit(ev StreamEvent) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.ctx.Done():
		return false
	}
}

func (s *Stream) setConn(conn *stomp.Conn) {
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
}

var ErrNotConnected = errors.New("chat is not connected")

// Send publishes to an application destination over the live connection.
func (s *Stream) Send(destination string, body []byte) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	return conn.Send(destination, body)
}

// SendMessage publishes a chat message. Nothing is appended locally; the
// message shows up when the broker echoes it back.
func (s *Stream) SendMessage(msg models.OutgoingMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.Send(fmt.Sprintf("/app/chat.sendMessage/%d", msg.GroupID), body)
}

// Close stops the stream and tears down its connection.
func (s *Stream) Close() {
	s.cancel()
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}
