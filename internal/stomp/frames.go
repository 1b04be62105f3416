// Package stomp carries STOMP 1.2 frames over a raw websocket, one frame
// per websocket text message, as the SockJS "/websocket" transport does.
package stomp

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/go-stomp/stomp/v3/frame"
)

const (
	HeaderAcceptVersion = "accept-version"
	HeaderHost          = "host"
	HeaderHeartBeat     = "heart-beat"
	HeaderVersion       = "version"
	HeaderSession       = "session"
	HeaderAuthorization = "Authorization"
	HeaderDestination   = "destination"
	HeaderID            = "id"
	HeaderAck           = "ack"
	HeaderSubscription  = "subscription"
	HeaderMessageID     = "message-id"
	HeaderMessage       = "message"
	HeaderContentType   = "content-type"
	HeaderContentLength = "content-length"
	HeaderReceipt       = "receipt"
	HeaderReceiptID     = "receipt-id"
)

const jsonContentType = "application/json"

// Encode renders a frame as the bytes of one websocket message.
// A nil frame encodes a heart-beat.
func Encode(f *frame.Frame) ([]byte, error) {
	var buf bytes.Buffer
	if err := frame.NewWriter(&buf).Write(f); err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", commandOf(f), err)
	}
	return buf.Bytes(), nil
}

// Decode parses one websocket message. Heart-beats decode to a nil frame.
func Decode(data []byte) (*frame.Frame, error) {
	if len(bytes.Trim(data, "\r\n")) == 0 {
		return nil, nil
	}
	f, err := frame.NewReader(bytes.NewReader(data)).Read()
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return f, nil
}

func commandOf(f *frame.Frame) string {
	if f == nil {
		return "heart-beat"
	}
	return f.Command
}

// NewConnect builds the CONNECT frame with the bearer token in the native
// headers, where the broker's auth interceptor looks for it.
func NewConnect(host, token string) *frame.Frame {
	f := frame.New(frame.CONNECT,
		HeaderAcceptVersion, "1.2",
		HeaderHost, host,
		HeaderHeartBeat, "0,0",
	)
	if token != "" {
		f.Header.Add(HeaderAuthorization, "Bearer "+token)
	}
	return f
}

func NewConnected(session string) *frame.Frame {
	return frame.New(frame.CONNECTED,
		HeaderVersion, "1.2",
		HeaderHeartBeat, "0,0",
		HeaderSession, session,
	)
}

func NewSubscribe(id, destination string) *frame.Frame {
	return frame.New(frame.SUBSCRIBE,
		HeaderID, id,
		HeaderDestination, destination,
		HeaderAck, "auto",
	)
}

func NewUnsubscribe(id string) *frame.Frame {
	return frame.New(frame.UNSUBSCRIBE, HeaderID, id)
}

func NewSend(destination string, body []byte) *frame.Frame {
	f := frame.New(frame.SEND, HeaderDestination, destination)
	withJSONBody(f, body)
	return f
}

func NewMessage(destination, subscription, messageID string, body []byte) *frame.Frame {
	f := frame.New(frame.MESSAGE,
		HeaderDestination, destination,
		HeaderSubscription, subscription,
		HeaderMessageID, messageID,
	)
	withJSONBody(f, body)
	return f
}

func NewError(message string) *frame.Frame {
	f := frame.New(frame.ERROR, HeaderMessage, message)
	f.Body = []byte(message)
	return f
}

func NewDisconnect() *frame.Frame {
	return frame.New(frame.DISCONNECT)
}

func NewReceipt(receiptID string) *frame.Frame {
	return frame.New(frame.RECEIPT, HeaderReceiptID, receiptID)
}

func withJSONBody(f *frame.Frame, body []byte) {
	if len(body) == 0 {
		return
	}
	f.Header.Set(HeaderContentType, jsonContentType)
	f.Header.Set(HeaderContentLength, strconv.Itoa(len(body)))
	f.Body = body
}
