package models

import (
	"testing"
	"time"
)

func TestNormalizeMessageFallbacks(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name       string
		payload    string
		id         string
		content    string
		senderID   int64
		senderName string
		synthetic  bool
		stamp      time.Time
	}{
		{
			name:       "canonical",
			payload:    `{"messageId":5,"id":9,"content":"hi","senderId":3,"senderName":"Ann","timestamp":"2024-02-01T10:00:00"}`,
			id:         "5",
			content:    "hi",
			senderID:   3,
			senderName: "Ann",
			stamp:      time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name:       "legacy field names",
			payload:    `{"id":"abc","message":"yo","userId":4,"user":"Ben","createdAt":[2024,2,2,8,30,0]}`,
			id:         "abc",
			content:    "yo",
			senderID:   4,
			senderName: "Ben",
			stamp:      time.Date(2024, 2, 2, 8, 30, 0, 0, time.UTC),
		},
		{
			name:       "text fallback and synthetic id",
			payload:    `{"text":"t","senderId":6,"timestamp":"2024-02-03T00:00:00"}`,
			id:         "2024-02-03T00:00:00_6",
			content:    "t",
			senderID:   6,
			senderName: "Unknown",
			synthetic:  true,
			stamp:      time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC),
		},
		{
			name:       "nothing at all",
			payload:    `{}`,
			id:         "1709294400000_unknown",
			senderName: "Unknown",
			synthetic:  true,
			stamp:      now,
		},
		{
			name:       "empty content is kept",
			payload:    `{"messageId":1,"content":"","message":"ignored"}`,
			id:         "1",
			senderName: "Unknown",
			stamp:      now,
		},
	}

	for _, c := range cases {
		m, err := NormalizeMessage([]byte(c.payload), now)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if m.ID != c.id || m.Content != c.content || m.SenderID != c.senderID || m.SenderName != c.senderName {
			t.Errorf("%s: got id=%q content=%q sender=%d/%q", c.name, m.ID, m.Content, m.SenderID, m.SenderName)
		}
		if m.Synthetic != c.synthetic {
			t.Errorf("%s: synthetic = %v", c.name, m.Synthetic)
		}
		if !m.Timestamp.Equal(c.stamp) {
			t.Errorf("%s: timestamp = %v, want %v", c.name, m.Timestamp, c.stamp)
		}
		if m.MessageType != MessageTypeText {
			t.Errorf("%s: type = %q", c.name, m.MessageType)
		}
	}
}

func TestNormalizeMessagesNonArray(t *testing.T) {
	msgs, err := NormalizeMessages([]byte(`{"error":"nope"}`), time.Now())
	if err != nil || len(msgs) != 0 {
		t.Errorf("non-array history = %v, %v", msgs, err)
	}
	msgs, err = NormalizeMessages([]byte(`[{"messageId":1,"content":"a"},{"messageId":2,"content":"b","replyToMessageId":1,"replyToContent":"a","replyToSenderName":"Ann"}]`), time.Now())
	if err != nil || len(msgs) != 2 {
		t.Fatalf("history = %v, %v", msgs, err)
	}
	if msgs[1].ReplyToMessageID != "1" || msgs[1].ReplyToSenderName != "Ann" || !msgs[1].IsReply() {
		t.Errorf("reply fields = %+v", msgs[1])
	}
}

func TestDecodeGroupFrame(t *testing.T) {
	msg, vote, err := DecodeGroupFrame([]byte(`{"messageType":"POLL_VOTE","pollId":2,"optionId":3,"voteCount":4}`), time.Now())
	if err != nil || msg != nil || vote == nil {
		t.Fatalf("vote frame = %v %v %v", msg, vote, err)
	}
	if vote.PollID != 2 || vote.OptionID != 3 || vote.VoteCount != 4 {
		t.Errorf("vote = %+v", vote)
	}

	msg, vote, err = DecodeGroupFrame([]byte(`{"messageId":8,"messageType":"POLL","content":"Q?","pollId":2,"pollOptions":[{"id":3,"optionText":"A","voteCount":0}]}`), time.Now())
	if err != nil || vote != nil || msg == nil {
		t.Fatalf("poll frame = %v %v %v", msg, vote, err)
	}
	if !msg.IsPoll() || msg.PollID != 2 || len(msg.PollOptions) != 1 {
		t.Errorf("poll message = %+v", msg)
	}

	if _, _, err := DecodeGroupFrame([]byte(`not json`), time.Now()); err == nil {
		t.Error("expected error for malformed frame")
	}
}
