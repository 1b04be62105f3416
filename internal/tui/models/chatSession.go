package models

import (
	"errors"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	appmodels "github.com/Wal-20/studysphere-cli/internal/models"
	"github.com/Wal-20/studysphere-cli/internal/tui/client"
	"github.com/Wal-20/studysphere-cli/internal/tui/state"
)

// chatSession is one open chat: the broker subscription and the room it
// feeds. AppModel owns every live session and applies stream events to
// the room, so a chat keeps updating while a modal covers it.
type chatSession struct {
	stream *client.Stream
	room   *state.ChatRoom
	status statusLine
}

func newChatSession(api *client.APIClient, groupID int64, name string) *chatSession {
	return &chatSession{
		stream: api.SubscribeGroup(groupID),
		room:   state.NewChatRoom(groupID, name, api.CurrentUser()),
	}
}

type (
	registerChatMsg struct{ cs *chatSession }
	closeChatMsg    struct{ cs *chatSession }

	streamEventMsg struct {
		stream *client.Stream
		event  client.StreamEvent
		closed bool
	}

	chatHistoryMsg struct {
		stream  *client.Stream
		history []appmodels.ChatMessage
		pins    []appmodels.PinnedMessage
		err     error
	}

	// chatActionMsg reports a REST action taken from a chat. apply runs
	// against the room only when err is nil.
	chatActionMsg struct {
		stream *client.Stream
		done   string
		apply  func(*state.ChatRoom)
		reload bool
		err    error
	}
)

func registerChat(cs *chatSession) tea.Cmd {
	return func() tea.Msg { return registerChatMsg{cs: cs} }
}

func closeChat(cs *chatSession) tea.Cmd {
	return func() tea.Msg { return closeChatMsg{cs: cs} }
}

// waitForStream delivers the next event of s. Exactly one waiter is kept
// outstanding per stream.
func waitForStream(s *client.Stream) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-s.Events()
		return streamEventMsg{stream: s, event: ev, closed: !ok}
	}
}

// loadChatHistory fetches the history and pins in parallel.
func loadChatHistory(api *client.APIClient, s *client.Stream, groupID int64) tea.Cmd {
	return func() tea.Msg {
		var (
			msg     = chatHistoryMsg{stream: s}
			pinsErr error
			wg      sync.WaitGroup
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			msg.history, msg.err = api.History(groupID)
		}()
		go func() {
			defer wg.Done()
			msg.pins, pinsErr = api.Pins(groupID)
		}()
		wg.Wait()
		if msg.err == nil {
			msg.err = pinsErr
		}
		return msg
	}
}

// applyStreamEvent folds one stream event into the session and returns
// the follow-up command.
func (cs *chatSession) applyStreamEvent(api *client.APIClient, ev client.StreamEvent) tea.Cmd {
	switch ev.Kind {
	case client.StreamConnected:
		cs.room.Connected = true
		cs.status.info("Connected")
		return loadChatHistory(api, cs.stream, cs.room.GroupID)
	case client.StreamDisconnected:
		cs.room.Connected = false
		if errors.Is(ev.Err, client.ErrSessionExpired) {
			return expireSession(ev.Err)
		}
		cs.status.warn("Connection lost, reconnecting...")
	case client.StreamFrame:
		msg, vote, err := appmodels.DecodeGroupFrame(ev.Body, time.Now())
		if err != nil {
			cs.status.fail("Unreadable message: " + err.Error())
			return nil
		}
		if vote != nil {
			cs.room.ApplyVote(*vote)
			return nil
		}
		cs.room.Append(*msg)
	}
	return nil
}

func (cs *chatSession) applyHistory(msg chatHistoryMsg) tea.Cmd {
	if msg.err != nil {
		cs.status.failErr(msg.err)
		return checkAuth(msg.err)
	}
	cs.room.ReplaceHistory(msg.history)
	cs.room.SetPins(msg.pins)
	return nil
}

func (cs *chatSession) applyAction(api *client.APIClient, msg chatActionMsg) tea.Cmd {
	if msg.err != nil {
		cs.status.failErr(msg.err)
		return checkAuth(msg.err)
	}
	if msg.apply != nil {
		msg.apply(cs.room)
	}
	if msg.done != "" {
		cs.status.success(msg.done)
	}
	if msg.reload {
		return loadChatHistory(api, cs.stream, cs.room.GroupID)
	}
	return nil
}
