package models

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	appmodels "github.com/Wal-20/studysphere-cli/internal/models"
	"github.com/Wal-20/studysphere-cli/internal/tui/client"
	"github.com/Wal-20/studysphere-cli/internal/tui/state"
	"github.com/Wal-20/studysphere-cli/internal/tui/styles"
)

const downloadsDir = "downloads"

// showModalMsg asks the shell to put a modal over the current page. The
// modal returns to whatever page was showing.
type showModalMsg struct {
	build func(returnTo tea.Model) tea.Model
}

func showModal(build func(returnTo tea.Model) tea.Model) tea.Cmd {
	return func() tea.Msg { return showModalMsg{build: build} }
}

// GroupChatModel renders one chatSession, either as a full page or as
// the focused chat of the dock.
type GroupChatModel struct {
	api      *client.APIClient
	cs       *chatSession
	returnTo tea.Model
	docked   bool

	input     textarea.Model
	search    textinput.Model
	searching bool
	selecting bool
	cursor    int
	scroll    int
	width     int
	height    int
}

func NewGroupChatModel(api *client.APIClient, cs *chatSession, returnTo tea.Model) GroupChatModel {
	input := textarea.New()
	input.Placeholder = "Type a message..."
	input.ShowLineNumbers = false
	input.CharLimit = 2000
	input.SetHeight(3)
	input.SetWidth(80)
	input.KeyMap.InsertNewline.SetKeys("alt+enter")
	input.Focus()

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search messages or senders"
	search.PromptStyle = styles.InputPromptFocusedStyle
	search.Cursor.Style = styles.KeyStyle

	return GroupChatModel{
		api:      api,
		cs:       cs,
		returnTo: returnTo,
		input:    input,
		search:   search,
		width:    80,
		height:   24,
	}
}

func newDockedChat(api *client.APIClient, cs *chatSession) GroupChatModel {
	m := NewGroupChatModel(api, cs, nil)
	m.docked = true
	m.input.Blur()
	return m
}

func (m GroupChatModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m GroupChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd, leave := m.update(msg)
	if leave {
		return next.returnTo, tea.Batch(cmd, closeChat(next.cs))
	}
	return next, cmd
}

func (m GroupChatModel) focus() (GroupChatModel, tea.Cmd) {
	return m, m.input.Focus()
}

func (m GroupChatModel) blur() GroupChatModel {
	m.input.Blur()
	return m
}

// update handles msg and reports whether the user asked to leave.
func (m GroupChatModel) update(msg tea.Msg) (GroupChatModel, tea.Cmd, bool) {
	room := m.cs.room
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		w := msg.Width - 6
		if w < 20 {
			w = 20
		}
		m.input.SetWidth(w)
		m.search.Width = w - 4
		return m, nil, false

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		if m.selecting {
			return m.updateSelect(msg)
		}
		switch msg.String() {
		case "esc":
			if room.ReplyTo != nil {
				room.CancelReply()
				return m, nil, false
			}
			return m, nil, true
		case "enter":
			return m.send()
		case "tab":
			if len(m.selectable()) == 0 {
				m.cs.status.info("Nothing to select yet")
				return m, nil, false
			}
			m.selecting = true
			m.cursor = len(m.selectable()) - 1
			m.input.Blur()
			return m, nil, false
		case "ctrl+f":
			m.searching = true
			m.input.Blur()
			return m, m.search.Focus(), false
		case "ctrl+p":
			cs, api := m.cs, m.api
			return m, showModal(func(returnTo tea.Model) tea.Model {
				return NewPollModal(api, cs, returnTo)
			}), false
		case "ctrl+u":
			cs, api := m.cs, m.api
			return m, showModal(func(returnTo tea.Model) tea.Model {
				return NewPromptModal("Upload document", "Path of the file to share with the group", "~/notes.pdf", returnTo, func(path string) tea.Cmd {
					return uploadCmd(api, cs, path)
				})
			}), false
		case "pgup":
			m.scroll += 5
			return m, nil, false
		case "pgdown":
			m.scroll -= 5
			if m.scroll < 0 {
				m.scroll = 0
			}
			return m, nil, false
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd, false
}

func (m GroupChatModel) send() (GroupChatModel, tea.Cmd, bool) {
	out, err := m.cs.room.Outgoing(m.input.Value())
	if err != nil {
		if err != state.ErrEmptyMessage {
			m.cs.status.failErr(err)
		}
		return m, nil, false
	}
	if err := m.cs.stream.SendMessage(out); err != nil {
		m.cs.status.failErr(err)
		return m, nil, false
	}
	m.input.Reset()
	m.cs.room.CancelReply()
	m.scroll = 0
	return m, nil, false
}

func (m GroupChatModel) updateSearch(msg tea.KeyMsg) (GroupChatModel, tea.Cmd, bool) {
	switch msg.String() {
	case "esc":
		m.search.Reset()
		m.cs.room.Search = ""
		fallthrough
	case "enter":
		m.searching = false
		m.search.Blur()
		return m, m.input.Focus(), false
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.cs.room.Search = strings.TrimSpace(m.search.Value())
	m.scroll = 0
	return m, cmd, false
}

func (m GroupChatModel) selectable() []appmodels.ChatMessage {
	var out []appmodels.ChatMessage
	for _, l := range m.cs.room.Lines() {
		if !l.IsSeparator() {
			out = append(out, l.Message)
		}
	}
	return out
}

func (m GroupChatModel) updateSelect(msg tea.KeyMsg) (GroupChatModel, tea.Cmd, bool) {
	msgs := m.selectable()
	if len(msgs) == 0 {
		m.selecting = false
		return m, m.input.Focus(), false
	}
	m.cursor = clampIndex(m.cursor, len(msgs))
	sel := msgs[m.cursor]
	room, api, cs := m.cs.room, m.api, m.cs

	switch key := msg.String(); key {
	case "esc", "tab":
		m.selecting = false
		return m, m.input.Focus(), false
	case "up", "k":
		m.cursor = clampIndex(m.cursor-1, len(msgs))
	case "down", "j":
		m.cursor = clampIndex(m.cursor+1, len(msgs))
	case "r":
		room.SetReply(sel)
		m.selecting = false
		return m, m.input.Focus(), false
	case "p":
		if !sel.Persisted() {
			cs.status.fail("This message cannot be pinned yet")
			return m, nil, false
		}
		return m, pinCmd(api, cs, sel.ID, room.IsPinned(sel.ID)), false
	case "x":
		if !room.CanDelete(sel) {
			cs.status.fail("You can only delete your own messages")
			return m, nil, false
		}
		id := sel.ID
		return m, showModal(func(returnTo tea.Model) tea.Model {
			return NewConfirmModal("Delete message", "Are you sure you want to delete this message?", returnTo, deleteMessageCmd(api, cs, id))
		}), false
	case "d":
		if !sel.IsDocument() || !sel.Persisted() {
			cs.status.fail("Not a document")
			return m, nil, false
		}
		return m, downloadCmd(api, cs, sel.ID, sel.Content), false
	default:
		if sel.IsPoll() && len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			i := int(key[0] - '1')
			if i < len(sel.PollOptions) {
				return m, voteCmd(api, cs, sel.PollID, sel.PollOptions[i].ID), false
			}
		}
	}
	return m, nil, false
}

func pinCmd(api *client.APIClient, cs *chatSession, messageID string, pinned bool) tea.Cmd {
	groupID := cs.room.GroupID
	return func() tea.Msg {
		var err error
		done := "Message pinned"
		if pinned {
			err = api.UnpinMessage(groupID, messageID)
			done = "Message unpinned"
		} else {
			err = api.PinMessage(groupID, messageID)
		}
		return chatActionMsg{
			stream: cs.stream,
			done:   done,
			apply:  func(r *state.ChatRoom) { r.TogglePinned(messageID) },
			err:    err,
		}
	}
}

func deleteMessageCmd(api *client.APIClient, cs *chatSession, messageID string) tea.Cmd {
	groupID := cs.room.GroupID
	return func() tea.Msg {
		err := api.DeleteMessage(groupID, messageID)
		return chatActionMsg{
			stream: cs.stream,
			done:   "Message deleted",
			apply:  func(r *state.ChatRoom) { r.Remove(messageID) },
			err:    err,
		}
	}
}

func voteCmd(api *client.APIClient, cs *chatSession, pollID, optionID int64) tea.Cmd {
	return func() tea.Msg {
		err := api.Vote(pollID, optionID)
		return chatActionMsg{stream: cs.stream, done: "Vote counted", err: err}
	}
}

func downloadCmd(api *client.APIClient, cs *chatSession, messageID, name string) tea.Cmd {
	return func() tea.Msg {
		path, err := api.DownloadDocument(messageID, downloadsDir, name)
		return chatActionMsg{stream: cs.stream, done: "Saved to " + path, err: err}
	}
}

func uploadCmd(api *client.APIClient, cs *chatSession, path string) tea.Cmd {
	groupID := cs.room.GroupID
	return func() tea.Msg {
		path = expandHome(strings.TrimSpace(path))
		err := api.UploadDocument(groupID, path)
		return chatActionMsg{stream: cs.stream, done: "Uploaded " + filepath.Base(path), reload: true, err: err}
	}
}

func expandHome(path string) string {
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return path
}

func (m GroupChatModel) View() string {
	room := m.cs.room
	width := m.width
	if width <= 0 {
		width = 80
	}

	conn := styles.StatusSuccessStyle.Render("● live")
	if !room.Connected {
		conn = styles.StatusWarnStyle.Render("○ connecting")
	}
	header := styles.TitleStyle.Render(room.GroupName) + "  " + conn

	var top []string
	top = append(top, header)
	if chips := room.PinnedBar(); len(chips) > 0 {
		var rendered []string
		for _, c := range chips {
			rendered = append(rendered, styles.PinnedChipStyle.Render("📌 "+c.Preview))
		}
		top = append(top, lipgloss.NewStyle().MaxWidth(width).Render(lipgloss.JoinHorizontal(lipgloss.Top, rendered...)))
	}
	if m.searching || room.Search != "" {
		top = append(top, m.search.View())
	}

	var bottom []string
	if room.ReplyTo != nil {
		bottom = append(bottom, styles.ReplyQuoteStyle.Render(fmt.Sprintf("Replying to %s: %s", room.ReplyTo.SenderName, state.ReplyPreview(room.ReplyTo.Content))))
	}
	bottom = append(bottom, styles.ChatInputStyle.Render(m.input.View()))
	if s := m.cs.status.View(); s != "" {
		bottom = append(bottom, s)
	}
	bottom = append(bottom, m.help())

	topView := strings.Join(top, "\n")
	bottomView := strings.Join(bottom, "\n")
	avail := m.height - lipgloss.Height(topView) - lipgloss.Height(bottomView) - 2
	if avail < 3 {
		avail = 3
	}

	body := m.transcript(width-2, avail)
	return lipgloss.JoinVertical(lipgloss.Left, topView, body, bottomView)
}

func (m GroupChatModel) help() string {
	if m.selecting {
		return styles.RenderHelp(
			styles.RenderKeyBinding("↑/↓", "Select"),
			styles.RenderKeyBinding("r", "Reply"),
			styles.RenderKeyBinding("p", "Pin"),
			styles.RenderKeyBinding("x", "Delete"),
			styles.RenderKeyBinding("1-9", "Vote"),
			styles.RenderKeyBinding("d", "Download"),
			styles.RenderKeyBinding("Esc", "Done"),
		)
	}
	return styles.RenderHelp(
		styles.RenderKeyBinding("Enter", "Send"),
		styles.RenderKeyBinding("Tab", "Select"),
		styles.RenderKeyBinding("Ctrl+F", "Search"),
		styles.RenderKeyBinding("Ctrl+P", "Poll"),
		styles.RenderKeyBinding("Ctrl+U", "Upload"),
		styles.RenderKeyBinding("Esc", "Back"),
	)
}

// transcript renders the message list into height lines, keeping the
// selected message in view or honouring the manual scroll offset.
func (m GroupChatModel) transcript(width, height int) string {
	room := m.cs.room
	var (
		rendered []string
		selStart = -1
		idx      = 0
	)
	for _, line := range room.Lines() {
		if line.IsSeparator() {
			rendered = append(rendered, styles.DateSeparatorStyle.Width(width).Render("── "+line.Separator+" ──"))
			continue
		}
		block := m.renderMessage(line.Message, width)
		if m.selecting && idx == m.cursor {
			block = styles.SelectedMessageStyle.Render(block)
			selStart = len(rendered)
		}
		rendered = append(rendered, strings.Split(block, "\n")...)
		idx++
	}
	if len(rendered) == 0 {
		msg := "No messages yet. Say hello!"
		if room.Search != "" {
			msg = "No messages match your search."
		}
		return lipgloss.NewStyle().Height(height).Render(styles.MutedTextStyle.Render(msg))
	}

	end := len(rendered) - m.scroll
	if selStart >= 0 {
		end = len(rendered)
		if selStart < end-height {
			end = min(selStart+height, len(rendered))
		}
	}
	end = max(min(end, len(rendered)), 0)
	start := max(end-height, 0)
	return lipgloss.NewStyle().Height(height).Render(strings.Join(rendered[start:end], "\n"))
}

func (m GroupChatModel) renderMessage(msg appmodels.ChatMessage, width int) string {
	room := m.cs.room
	nameStyle := styles.UsernameStyle
	if room.IsOwn(msg) {
		nameStyle = styles.OwnUsernameStyle
	}
	head := nameStyle.Render(msg.SenderName) + " " + styles.TimestampStyle.Render(msg.Timestamp.Local().Format("15:04"))
	if room.IsPinned(msg.ID) {
		head += " 📌"
	}

	var parts []string
	parts = append(parts, head)
	if msg.IsReply() {
		parts = append(parts, styles.ReplyQuoteStyle.Render(fmt.Sprintf("%s: %s", msg.ReplyToSenderName, state.ReplyPreview(msg.ReplyToContent))))
	}

	switch {
	case msg.IsPoll():
		var opts []string
		opts = append(opts, styles.SectionTitleStyle.Copy().MarginBottom(0).Render("📊 "+msg.Content))
		for i, o := range msg.PollOptions {
			opts = append(opts, fmt.Sprintf("%d) %s  %s", i+1, o.OptionText, styles.MutedTextStyle.Render(fmt.Sprintf("%d votes", o.VoteCount))))
		}
		parts = append(parts, styles.PollStyle.Render(strings.Join(opts, "\n")))
	case msg.IsDocument():
		parts = append(parts, styles.DocumentStyle.Render("📎 "+msg.Content))
	case state.IsEmojiOnly(msg.Content):
		parts = append(parts, styles.EmojiMessageStyle.Render(strings.TrimSpace(msg.Content)))
	default:
		parts = append(parts, styles.MessageStyle.Copy().Width(width-2).Render(msg.Content))
	}
	return strings.Join(parts, "\n")
}
