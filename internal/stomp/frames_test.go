package stomp

import (
	"bytes"
	"testing"

	"github.com/go-stomp/stomp/v3/frame"
)

func TestEncodeDecodeSend(t *testing.T) {
	body := []byte(`{"content":"hi: there"}`)
	data, err := Encode(NewSend("/app/chat.sendMessage/4", body))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.HasSuffix(data, []byte{0}) {
		t.Errorf("frame must end with NUL: %q", data)
	}

	f, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.Command != frame.SEND {
		t.Errorf("command = %q", f.Command)
	}
	if got := f.Header.Get(HeaderDestination); got != "/app/chat.sendMessage/4" {
		t.Errorf("destination = %q", got)
	}
	if !bytes.Equal(f.Body, body) {
		t.Errorf("body = %q", f.Body)
	}
}

func TestDecodeHeartBeat(t *testing.T) {
	for _, in := range [][]byte{[]byte("\n"), []byte("\r\n"), {}} {
		f, err := Decode(in)
		if err != nil || f != nil {
			t.Errorf("Decode(%q) = %v, %v; want nil, nil", in, f, err)
		}
	}
}

func TestConnectCarriesBearer(t *testing.T) {
	f := NewConnect("localhost:8145", "tok")
	if got := f.Header.Get(HeaderAuthorization); got != "Bearer tok" {
		t.Errorf("Authorization = %q", got)
	}
	if got := f.Header.Get(HeaderAcceptVersion); got != "1.2" {
		t.Errorf("accept-version = %q", got)
	}
	if _, ok := NewConnect("h", "").Header.Contains(HeaderAuthorization); ok {
		t.Error("anonymous CONNECT should not carry Authorization")
	}
}

func TestMessageFrameRoundTrip(t *testing.T) {
	data, err := Encode(NewMessage("/topic/group/1", "sub-1", "m-1", []byte(`{"id":1}`)))
	if err != nil {
		t.Fatal(err)
	}
	f, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if f.Header.Get(HeaderSubscription) != "sub-1" || f.Header.Get(HeaderMessageID) != "m-1" {
		t.Errorf("headers lost: %v", f.Header)
	}
}
