package state

import (
	"errors"
	"slices"
	"strconv"
	"strings"

	"github.com/Wal-20/studysphere-cli/internal/models"
)

// ChatRoom is the client-side view of one group chat. Messages are kept
// in arrival order; nothing is appended until the broker echoes it.
type ChatRoom struct {
	GroupID   int64
	GroupName string
	Self      models.User

	Messages  []models.ChatMessage
	PinnedIDs []string
	ReplyTo   *models.ChatMessage
	Search    string
	Connected bool
}

func NewChatRoom(groupID int64, groupName string, self models.User) *ChatRoom {
	return &ChatRoom{GroupID: groupID, GroupName: groupName, Self: self}
}

// Append adds a live message.
func (r *ChatRoom) Append(msg models.ChatMessage) {
	r.Messages = append(r.Messages, msg)
}

// ReplaceHistory installs a freshly fetched history, dropping what was
// there before.
func (r *ChatRoom) ReplaceHistory(msgs []models.ChatMessage) {
	r.Messages = append([]models.ChatMessage(nil), msgs...)
}

func (r *ChatRoom) SetPins(pins []models.PinnedMessage) {
	r.PinnedIDs = r.PinnedIDs[:0]
	for _, p := range pins {
		r.PinnedIDs = append(r.PinnedIDs, strconv.FormatInt(p.MessageID, 10))
	}
}

func (r *ChatRoom) IsPinned(id string) bool {
	return slices.Contains(r.PinnedIDs, id)
}

// TogglePinned flips the local pin state after the server accepted it.
func (r *ChatRoom) TogglePinned(id string) {
	if i := slices.Index(r.PinnedIDs, id); i >= 0 {
		r.PinnedIDs = slices.Delete(r.PinnedIDs, i, i+1)
		return
	}
	r.PinnedIDs = append(r.PinnedIDs, id)
}

// Remove drops a deleted message.
func (r *ChatRoom) Remove(id string) {
	r.Messages = slices.DeleteFunc(r.Messages, func(m models.ChatMessage) bool { return m.ID == id })
	if r.ReplyTo != nil && r.ReplyTo.ID == id {
		r.ReplyTo = nil
	}
}

func (r *ChatRoom) Find(id string) (models.ChatMessage, bool) {
	for _, m := range r.Messages {
		if m.ID == id {
			return m, true
		}
	}
	return models.ChatMessage{}, false
}

// ApplyVote updates the vote count of the matching poll option in place.
func (r *ChatRoom) ApplyVote(v models.PollVote) bool {
	for i := range r.Messages {
		if r.Messages[i].PollID != v.PollID {
			continue
		}
		for j := range r.Messages[i].PollOptions {
			if r.Messages[i].PollOptions[j].ID == v.OptionID {
				r.Messages[i].PollOptions[j].VoteCount = v.VoteCount
				return true
			}
		}
	}
	return false
}

// CanDelete is true only for the sender's own persisted messages.
func (r *ChatRoom) CanDelete(m models.ChatMessage) bool {
	return m.Persisted() && r.Self.ID != 0 && m.SenderID == r.Self.ID
}

func (r *ChatRoom) IsOwn(m models.ChatMessage) bool {
	return r.Self.ID != 0 && m.SenderID == r.Self.ID
}

func (r *ChatRoom) SetReply(m models.ChatMessage) {
	r.ReplyTo = &m
}

func (r *ChatRoom) CancelReply() {
	r.ReplyTo = nil
}

var ErrEmptyMessage = errors.New("message is empty")

// Outgoing builds the payload for content, threaded onto the reply target
// when one is set.
func (r *ChatRoom) Outgoing(content string) (models.OutgoingMessage, error) {
	if strings.TrimSpace(content) == "" {
		return models.OutgoingMessage{}, ErrEmptyMessage
	}
	if r.Self.ID == 0 {
		return models.OutgoingMessage{}, errors.New("you must be logged in to send messages")
	}
	out := models.OutgoingMessage{
		GroupID:     r.GroupID,
		SenderID:    r.Self.ID,
		SenderName:  r.Self.Name,
		Content:     content,
		MessageType: models.MessageTypeText,
	}
	if r.ReplyTo != nil {
		if id, err := strconv.ParseInt(r.ReplyTo.ID, 10, 64); err == nil {
			out.ReplyToMessageID = &id
		}
		name, text := r.ReplyTo.SenderName, r.ReplyTo.Content
		out.ReplyToSenderName = &name
		out.ReplyToContent = &text
	}
	return out, nil
}

// ChatLine is one row of the rendered transcript: either a date
// separator or a message.
type ChatLine struct {
	Separator string
	Message   models.ChatMessage
}

func (l ChatLine) IsSeparator() bool {
	return l.Separator != ""
}

// Matches applies the search box: content or sender, case-insensitive.
func (r *ChatRoom) Matches(m models.ChatMessage) bool {
	if r.Search == "" {
		return true
	}
	return containsFold(m.Content, r.Search) || containsFold(m.SenderName, r.Search)
}

// Lines returns the filtered transcript with a separator wherever the day
// label changes.
func (r *ChatRoom) Lines() []ChatLine {
	var (
		lines []ChatLine
		last  string
	)
	for _, m := range r.Messages {
		if !r.Matches(m) {
			continue
		}
		label := DayLabel(m.Timestamp)
		if label != last {
			lines = append(lines, ChatLine{Separator: label})
			last = label
		}
		lines = append(lines, ChatLine{Message: m})
	}
	return lines
}

// PinChip is one entry of the pinned bar.
type PinChip struct {
	MessageID string
	Preview   string
	Full      string
}

// PinnedBar lists pins whose message is loaded, in pin order.
func (r *ChatRoom) PinnedBar() []PinChip {
	var chips []PinChip
	for _, id := range r.PinnedIDs {
		m, ok := r.Find(id)
		if !ok {
			continue
		}
		chips = append(chips, PinChip{
			MessageID: id,
			Preview:   PinPreview(m.Content),
			Full:      m.SenderName + ": " + m.Content,
		})
	}
	return chips
}
