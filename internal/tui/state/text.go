// Package state holds the view logic of each page, free of rendering, so
// it can be driven directly by screens and by tests.
package state

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	pinPreviewLimit   = 30
	replyPreviewLimit = 50
	emojiOnlyLimit    = 16
)

// Truncate shortens s to limit runes, replacing the tail with "...".
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-3]) + "..."
}

func PinPreview(content string) string {
	return Truncate(content, pinPreviewLimit)
}

func ReplyPreview(content string) string {
	return Truncate(content, replyPreviewLimit)
}

// IsEmojiOnly reports short messages made only of emoji and spaces, which
// the chat renders large.
func IsEmojiOnly(s string) bool {
	s = strings.TrimSpace(s)
	n := utf8.RuneCountInString(s)
	if n == 0 || n > emojiOnlyLimit {
		return false
	}
	sawEmoji := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
		case isEmojiJoiner(r):
		case isEmoji(r):
			sawEmoji = true
		default:
			return false
		}
	}
	return sawEmoji
}

func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F000 && r <= 0x1FAFF:
		return true
	case r >= 0x2600 && r <= 0x27BF:
		return true
	case r >= 0x2B00 && r <= 0x2BFF:
		return true
	case r >= 0x2190 && r <= 0x21FF:
		return true
	case r == 0x00A9 || r == 0x00AE || r == 0x203C || r == 0x2049 || r == 0x2122 || r == 0x2139:
		return true
	case r >= 0x2300 && r <= 0x23FF:
		return true
	case r == 0x3030 || r == 0x303D || r == 0x3297 || r == 0x3299:
		return true
	}
	return false
}

// isEmojiJoiner covers the code points that only glue emoji together:
// variation selectors, ZWJ, keycap and tag characters.
func isEmojiJoiner(r rune) bool {
	return r == 0x200D || r == 0x20E3 || (r >= 0xFE00 && r <= 0xFE0F) || (r >= 0xE0020 && r <= 0xE007F)
}

// DayLabel is the date-separator text, in the viewer's local zone.
func DayLabel(t time.Time) string {
	return t.Local().Format("Jan 2, 2006")
}

// RelativeTime renders "5m ago" or "in 2h" labels.
func RelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	if t.After(now) {
		return fmt.Sprintf("in %s", humanizeDuration(t.Sub(now)))
	}
	if now.Sub(t) < time.Minute {
		return "just now"
	}
	return fmt.Sprintf("%s ago", humanizeDuration(now.Sub(t)))
}

func humanizeDuration(d time.Duration) string {
	if d < time.Minute {
		secs := int(d.Seconds())
		if secs < 1 {
			secs = 1
		}
		return fmt.Sprintf("%ds", secs)
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
