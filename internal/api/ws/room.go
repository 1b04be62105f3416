package ws

import (
	"github.com/google/uuid"

	"github.com/Wal-20/studysphere-cli/internal/stomp"
)

// subscription is one client's SUBSCRIBE to a room, by its id.
type subscription struct {
	client *Client
	id     string
}

// Room fans the messages of one destination out to its subscriptions.
type Room struct {
	destination string
	subs        map[subscription]bool
	register    chan subscription
	unregister  chan subscription
	broadcast   chan []byte
	done        chan struct{}
}

// newRoom constructs a room and starts its event loop goroutine.
func newRoom(destination string) *Room {
	r := &Room{
		destination: destination,
		subs:        make(map[subscription]bool),
		register:    make(chan subscription),
		unregister:  make(chan subscription),
		broadcast:   make(chan []byte, 256),
		done:        make(chan struct{}),
	}
	go r.run()
	return r
}

// run serializes all room state changes and fans out broadcasts.
func (r *Room) run() {
	for {
		select {
		case s := <-r.register:
			r.subs[s] = true
		case s := <-r.unregister:
			delete(r.subs, s)
		case body := <-r.broadcast:
			for s := range r.subs {
				s.client.deliver(stomp.NewMessage(r.destination, s.id, uuid.NewString(), body))
			}
		case <-r.done:
			return
		}
	}
}

// subscribe returns once the room loop has recorded s, so a later
// publish always reaches it.
func (r *Room) subscribe(s subscription) {
	select {
	case r.register <- s:
	case <-r.done:
	}
}

func (r *Room) unsubscribe(s subscription) {
	select {
	case r.unregister <- s:
	case <-r.done:
	}
}

func (r *Room) publish(body []byte) {
	select {
	case r.broadcast <- body:
	case <-r.done:
	}
}

func (r *Room) stop() {
	close(r.done)
}
