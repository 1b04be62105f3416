package state

import (
	"strings"
	"testing"
	"time"

	"github.com/Wal-20/studysphere-cli/internal/models"
)

func msg(id string, sender int64, name, content string, at time.Time) models.ChatMessage {
	return models.ChatMessage{ID: id, SenderID: sender, SenderName: name, Content: content, Timestamp: at, MessageType: models.MessageTypeText}
}

func TestTruncatePreviews(t *testing.T) {
	cases := []struct {
		in    string
		limit int
		want  string
	}{
		{strings.Repeat("a", 30), 30, strings.Repeat("a", 30)},
		{strings.Repeat("a", 31), 30, strings.Repeat("a", 27) + "..."},
		{strings.Repeat("b", 50), 50, strings.Repeat("b", 50)},
		{strings.Repeat("b", 51), 50, strings.Repeat("b", 47) + "..."},
		{"héllo wörld", 8, "héllo..."},
	}
	for _, c := range cases {
		if got := Truncate(c.in, c.limit); got != c.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", c.in, c.limit, got, c.want)
		}
	}
	if got := PinPreview(strings.Repeat("x", 31)); len(got) != 30 {
		t.Errorf("pin preview length = %d", len(got))
	}
	if got := ReplyPreview(strings.Repeat("x", 51)); len(got) != 50 {
		t.Errorf("reply preview length = %d", len(got))
	}
}

func TestIsEmojiOnly(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"😀", true},
		{" 🎉 🎉 ", true},
		{"👍🏽", true},
		{"❤️", true},
		{"👨‍👩‍👧", true},
		{"hi 😀", false},
		{"", false},
		{"   ", false},
		{"123", false},
		{strings.Repeat("😀", 16), true},
		{strings.Repeat("😀", 17), false},
	}
	for _, c := range cases {
		if got := IsEmojiOnly(c.in); got != c.want {
			t.Errorf("IsEmojiOnly(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestChatRoomLinesSearchAndSeparators(t *testing.T) {
	day1 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)
	day2 := day1.Add(24 * time.Hour)
	room := NewChatRoom(1, "Algebra", models.User{ID: 7, Name: "Ada"})
	room.Append(msg("1", 7, "Ada", "hello there", day1))
	room.Append(msg("2", 8, "Bob", "hi Ada", day1.Add(time.Minute)))
	room.Append(msg("3", 8, "Bob", "next day", day2))

	lines := room.Lines()
	if len(lines) != 5 {
		t.Fatalf("expected 2 separators + 3 messages, got %d", len(lines))
	}
	if !lines[0].IsSeparator() || !lines[3].IsSeparator() {
		t.Errorf("separators misplaced: %+v", lines)
	}

	room.Search = "bob"
	lines = room.Lines()
	if len(lines) != 4 || lines[1].Message.ID != "2" {
		t.Errorf("sender search: %+v", lines)
	}

	room.Search = "HELLO"
	lines = room.Lines()
	if len(lines) != 2 || lines[1].Message.ID != "1" {
		t.Errorf("content search: %+v", lines)
	}
}

func TestChatRoomPinsAndDelete(t *testing.T) {
	now := time.Now()
	room := NewChatRoom(1, "g", models.User{ID: 7, Name: "Ada"})
	room.ReplaceHistory([]models.ChatMessage{
		msg("10", 7, "Ada", strings.Repeat("p", 40), now),
		msg("11", 8, "Bob", "short", now),
	})
	room.SetPins([]models.PinnedMessage{{MessageID: 10}, {MessageID: 99}})

	bar := room.PinnedBar()
	if len(bar) != 1 {
		t.Fatalf("only loaded messages should be in the pinned bar, got %+v", bar)
	}
	if bar[0].Preview != strings.Repeat("p", 27)+"..." {
		t.Errorf("preview = %q", bar[0].Preview)
	}

	room.TogglePinned("11")
	room.TogglePinned("10")
	if room.IsPinned("10") || !room.IsPinned("11") {
		t.Errorf("pins after toggles = %v", room.PinnedIDs)
	}

	own, _ := room.Find("10")
	other, _ := room.Find("11")
	if !room.CanDelete(own) || room.CanDelete(other) {
		t.Error("only own messages can be deleted")
	}
	room.SetReply(own)
	room.Remove("10")
	if _, ok := room.Find("10"); ok || room.ReplyTo != nil {
		t.Error("removed message should clear the reply target too")
	}
}

func TestChatRoomOutgoingReply(t *testing.T) {
	room := NewChatRoom(3, "g", models.User{ID: 7, Name: "Ada"})
	if _, err := room.Outgoing("   "); err != ErrEmptyMessage {
		t.Errorf("blank message error = %v", err)
	}

	out, err := room.Outgoing("plain")
	if err != nil {
		t.Fatal(err)
	}
	if out.ReplyToMessageID != nil || out.MessageType != models.MessageTypeText || out.GroupID != 3 {
		t.Errorf("plain outgoing = %+v", out)
	}

	room.SetReply(msg("42", 8, "Bob", "original", time.Now()))
	out, _ = room.Outgoing("answer")
	if out.ReplyToMessageID == nil || *out.ReplyToMessageID != 42 {
		t.Errorf("reply id = %v", out.ReplyToMessageID)
	}
	if *out.ReplyToSenderName != "Bob" || *out.ReplyToContent != "original" {
		t.Errorf("reply fields = %+v", out)
	}

	room.CancelReply()
	out, _ = room.Outgoing("again")
	if out.ReplyToMessageID != nil {
		t.Error("cancel should clear the reply target")
	}
}

func TestChatRoomApplyVote(t *testing.T) {
	room := NewChatRoom(1, "g", models.User{ID: 1})
	poll := msg("5", 2, "Bob", "Lunch?", time.Now())
	poll.MessageType = models.MessageTypePoll
	poll.PollID = 9
	poll.PollOptions = []models.PollOption{{ID: 1, OptionText: "yes"}, {ID: 2, OptionText: "no"}}
	room.Append(poll)

	if !room.ApplyVote(models.PollVote{PollID: 9, OptionID: 2, VoteCount: 3}) {
		t.Fatal("vote not applied")
	}
	got, _ := room.Find("5")
	if got.PollOptions[1].VoteCount != 3 || got.PollOptions[0].VoteCount != 0 {
		t.Errorf("options = %+v", got.PollOptions)
	}
	if room.ApplyVote(models.PollVote{PollID: 10, OptionID: 1, VoteCount: 1}) {
		t.Error("vote for unknown poll should not apply")
	}
}
