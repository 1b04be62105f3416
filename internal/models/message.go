package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	MessageTypeText     = "TEXT"
	MessageTypePoll     = "POLL"
	MessageTypePollVote = "POLL_VOTE"
	MessageTypeDocument = "document"
)

// ChatMessage is the normalized shape of a group message, whatever the
// source (REST history or a broker frame).
type ChatMessage struct {
	ID                string
	GroupID           int64
	Content           string
	SenderID          int64
	SenderName        string
	Timestamp         time.Time
	MessageType       string
	Attachment        json.RawMessage
	ReplyToMessageID  string
	ReplyToSenderName string
	ReplyToContent    string
	PollID            int64
	PollOptions       []PollOption
	// Synthetic is set when the payload carried no id and ID was derived
	// from the timestamp and sender.
	Synthetic bool
}

// Persisted reports whether the message has a server-side id that REST
// calls (pin, delete, download) can address.
func (m ChatMessage) Persisted() bool {
	return !m.Synthetic && m.ID != ""
}

func (m ChatMessage) IsDocument() bool {
	return strings.EqualFold(m.MessageType, MessageTypeDocument)
}

func (m ChatMessage) IsPoll() bool {
	return strings.EqualFold(m.MessageType, MessageTypePoll)
}

func (m ChatMessage) IsReply() bool {
	return m.ReplyToMessageID != ""
}

type PollOption struct {
	ID         int64  `json:"id"`
	OptionText string `json:"optionText"`
	VoteCount  int64  `json:"voteCount"`
}

// PollVote is broadcast on the group topic after a vote is counted.
type PollVote struct {
	MessageType string `json:"messageType"`
	PollID      int64  `json:"pollId"`
	OptionID    int64  `json:"optionId"`
	VoteCount   int64  `json:"voteCount"`
}

type CreatePollRequest struct {
	CreatorID int64    `json:"creatorId"`
	Question  string   `json:"question"`
	Options   []string `json:"options"`
}

type VoteRequest struct {
	VoterID int64 `json:"voterId"`
}

type PinnedMessage struct {
	ID        int64     `json:"id"`
	GroupID   int64     `json:"groupId"`
	MessageID int64     `json:"messageId"`
	PinnedBy  int64     `json:"pinnedBy"`
	PinnedAt  LocalTime `json:"pinnedAt"`
}

// OutgoingMessage is published to /app/chat.sendMessage/{groupId}.
type OutgoingMessage struct {
	GroupID           int64   `json:"groupId"`
	SenderID          int64   `json:"senderId"`
	SenderName        string  `json:"senderName"`
	Content           string  `json:"content"`
	ReplyToMessageID  *int64  `json:"replyToMessageId"`
	ReplyToSenderName *string `json:"replyToSenderName"`
	ReplyToContent    *string `json:"replyToContent"`
	MessageType       string  `json:"messageType"`
}

// ChatMessageDTO is the backend's wire shape for a stored message.
type ChatMessageDTO struct {
	GroupID           int64        `json:"groupId"`
	MessageID         int64        `json:"messageId"`
	SenderID          int64        `json:"senderId"`
	SenderName        string       `json:"senderName"`
	Content           string       `json:"content"`
	Timestamp         LocalTime    `json:"timestamp"`
	MessageType       string       `json:"messageType"`
	ReplyToMessageID  *int64       `json:"replyToMessageId,omitempty"`
	ReplyToContent    string       `json:"replyToContent,omitempty"`
	ReplyToSenderName string       `json:"replyToSenderName,omitempty"`
	PollID            *int64       `json:"pollId,omitempty"`
	PollOptions       []PollOption `json:"pollOptions,omitempty"`
}

type rawChatMessage struct {
	MessageID         json.RawMessage `json:"messageId"`
	ID                json.RawMessage `json:"id"`
	GroupID           *int64          `json:"groupId"`
	Content           *string         `json:"content"`
	Message           *string         `json:"message"`
	Text              *string         `json:"text"`
	SenderID          *int64          `json:"senderId"`
	UserID            *int64          `json:"userId"`
	SenderName        *string         `json:"senderName"`
	User              *string         `json:"user"`
	Timestamp         json.RawMessage `json:"timestamp"`
	CreatedAt         json.RawMessage `json:"createdAt"`
	MessageType       *string         `json:"messageType"`
	Attachment        json.RawMessage `json:"attachment"`
	ReplyToMessageID  json.RawMessage `json:"replyToMessageId"`
	ReplyToSenderName *string         `json:"replyToSenderName"`
	ReplyToContent    *string         `json:"replyToContent"`
	PollID            *int64          `json:"pollId"`
	PollOptions       []PollOption    `json:"pollOptions"`
}

// NormalizeMessage decodes one message payload, filling the gaps the way
// every view expects: id, content, sender, timestamp and type always set.
func NormalizeMessage(data []byte, now time.Time) (ChatMessage, error) {
	var raw rawChatMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return ChatMessage{}, fmt.Errorf("decode chat message: %w", err)
	}
	return raw.normalize(now), nil
}

// NormalizeMessages decodes a history payload. Anything other than a JSON
// array yields an empty list.
func NormalizeMessages(data []byte, now time.Time) ([]ChatMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return []ChatMessage{}, nil
	}
	var raws []rawChatMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode chat history: %w", err)
	}
	out := make([]ChatMessage, 0, len(raws))
	for _, r := range raws {
		out = append(out, r.normalize(now))
	}
	return out, nil
}

func (r rawChatMessage) normalize(now time.Time) ChatMessage {
	msg := ChatMessage{
		SenderName:  "Unknown",
		MessageType: MessageTypeText,
		PollOptions: r.PollOptions,
	}

	if r.GroupID != nil {
		msg.GroupID = *r.GroupID
	}

	switch {
	case r.Content != nil:
		msg.Content = *r.Content
	case r.Message != nil:
		msg.Content = *r.Message
	case r.Text != nil:
		msg.Content = *r.Text
	}

	senderKnown := true
	switch {
	case r.SenderID != nil:
		msg.SenderID = *r.SenderID
	case r.UserID != nil:
		msg.SenderID = *r.UserID
	default:
		senderKnown = false
	}

	switch {
	case r.SenderName != nil:
		msg.SenderName = *r.SenderName
	case r.User != nil:
		msg.SenderName = *r.User
	}

	rawStamp := r.Timestamp
	if isNullJSON(rawStamp) {
		rawStamp = r.CreatedAt
	}
	stampText := ""
	if !isNullJSON(rawStamp) {
		var lt LocalTime
		if err := json.Unmarshal(rawStamp, &lt); err == nil && !lt.IsZero() {
			msg.Timestamp = lt.Time
		}
		stampText = rawText(rawStamp)
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = now.UTC()
	}

	if id, ok := rawID(r.MessageID); ok {
		msg.ID = id
	} else if id, ok := rawID(r.ID); ok {
		msg.ID = id
	} else {
		if stampText == "" {
			stampText = strconv.FormatInt(now.UnixMilli(), 10)
		}
		sender := "unknown"
		if senderKnown {
			sender = strconv.FormatInt(msg.SenderID, 10)
		}
		msg.ID = stampText + "_" + sender
		msg.Synthetic = true
	}

	if r.MessageType != nil && *r.MessageType != "" {
		msg.MessageType = *r.MessageType
	}
	if !isNullJSON(r.Attachment) {
		msg.Attachment = r.Attachment
	}
	if id, ok := rawID(r.ReplyToMessageID); ok {
		msg.ReplyToMessageID = id
	}
	if r.ReplyToSenderName != nil {
		msg.ReplyToSenderName = *r.ReplyToSenderName
	}
	if r.ReplyToContent != nil {
		msg.ReplyToContent = *r.ReplyToContent
	}
	if r.PollID != nil {
		msg.PollID = *r.PollID
	}
	return msg
}

// DecodeGroupFrame classifies a group-topic payload: either a vote update
// or a chat message.
func DecodeGroupFrame(data []byte, now time.Time) (*ChatMessage, *PollVote, error) {
	var kind struct {
		MessageType string `json:"messageType"`
	}
	if err := json.Unmarshal(data, &kind); err != nil {
		return nil, nil, fmt.Errorf("decode group frame: %w", err)
	}
	if kind.MessageType == MessageTypePollVote {
		var vote PollVote
		if err := json.Unmarshal(data, &vote); err != nil {
			return nil, nil, fmt.Errorf("decode poll vote: %w", err)
		}
		return nil, &vote, nil
	}
	msg, err := NormalizeMessage(data, now)
	if err != nil {
		return nil, nil, err
	}
	return &msg, nil, nil
}

func isNullJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func rawText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

func rawID(raw json.RawMessage) (string, bool) {
	if isNullJSON(raw) {
		return "", false
	}
	id := rawText(raw)
	if id == "" {
		return "", false
	}
	return id, true
}
