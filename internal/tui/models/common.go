package models

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	appmodels "github.com/Wal-20/studysphere-cli/internal/models"
	"github.com/Wal-20/studysphere-cli/internal/tui/client"
	"github.com/Wal-20/studysphere-cli/internal/tui/styles"
	"github.com/Wal-20/studysphere-cli/internal/utils"
)

// Messages handled by AppModel regardless of the current page.
type (
	sessionExpiredMsg struct{ err error }
	loggedInMsg       struct{ session utils.Session }
	logoutMsg         struct{}
	serverUpMsg       struct{}
	serverDownMsg     struct{ err error }
	openDockMsg       struct {
		groupID int64
		name    string
	}
	notificationPushMsg struct{}

	// ReminderMsg carries sessions that are about to start.
	ReminderMsg struct{ Events []appmodels.CalendarEvent }
	// UnreadCountMsg refreshes the unread badge in the header.
	UnreadCountMsg struct{ Count int }
)

func expireSession(err error) tea.Cmd {
	return func() tea.Msg { return sessionExpiredMsg{err: err} }
}

func logout() tea.Msg { return logoutMsg{} }

func openDock(groupID int64, name string) tea.Cmd {
	return func() tea.Msg { return openDockMsg{groupID: groupID, name: name} }
}

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// statusLine is the toast area at the bottom of every page.
type statusLine struct {
	text string
	kind int
}

func (s *statusLine) info(text string)    { s.text, s.kind = text, styles.ToastInfo }
func (s *statusLine) success(text string) { s.text, s.kind = text, styles.ToastSuccess }
func (s *statusLine) fail(text string)    { s.text, s.kind = text, styles.ToastError }
func (s *statusLine) warn(text string)    { s.text, s.kind = text, styles.ToastWarn }

func (s *statusLine) failErr(err error) {
	s.fail(client.ErrorText(err))
}

func (s statusLine) View() string {
	return styles.RenderStatus(s.kind, s.text)
}

// checkAuth returns a session expiry command when err means the backend
// no longer accepts the token.
func checkAuth(err error) tea.Cmd {
	if err != nil && client.IsAuthError(err) {
		return expireSession(err)
	}
	return nil
}

// fieldWidth clamps an input width to the card.
func fieldWidth(width int) int {
	w := width - 20
	if w > 48 {
		w = 48
	}
	if w < 28 {
		w = 28
	}
	return w
}

func newInput(placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.Prompt = "> "
	in.PromptStyle = styles.InputPromptStyle
	in.TextStyle = styles.InputTextStyle
	in.PlaceholderStyle = styles.InputPlaceholderStyle
	in.Cursor.Style = styles.KeyStyle
	in.Width = 36
	return in
}

// focusInputs focuses inputs[idx] and blurs the rest. An idx past the end
// leaves every input blurred, which is how forms focus their button.
func focusInputs(inputs []textinput.Model, idx int) tea.Cmd {
	cmds := make([]tea.Cmd, len(inputs))
	for i := range inputs {
		if i == idx {
			inputs[i].PromptStyle = styles.InputPromptFocusedStyle
			inputs[i].TextStyle = styles.InputTextFocusedStyle
			if !inputs[i].Focused() {
				cmds[i] = inputs[i].Focus()
			}
			continue
		}
		inputs[i].PromptStyle = styles.InputPromptStyle
		inputs[i].TextStyle = styles.InputTextStyle
		if inputs[i].Focused() {
			inputs[i].Blur()
		}
	}
	return tea.Batch(cmds...)
}

func resizeInputs(inputs []textinput.Model, width int) {
	w := fieldWidth(width)
	for i := range inputs {
		inputs[i].Width = w
	}
}

func updateInputs(inputs []textinput.Model, msg tea.Msg) tea.Cmd {
	cmds := make([]tea.Cmd, len(inputs))
	for i := range inputs {
		inputs[i], cmds[i] = inputs[i].Update(msg)
	}
	return tea.Batch(cmds...)
}

// renderField renders a labelled input.
func renderField(label string, in textinput.Model) string {
	box := styles.InputFieldStyle
	if in.Focused() {
		box = styles.InputFieldFocusedStyle
	}
	return styles.InputLabelStyle.Render(label) + "\n" + box.Render(in.View())
}

// centered places a card in the middle of the page.
func centered(width, height int, card string) string {
	if width > 0 && height > 0 {
		placed := lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
		return styles.AppStyle.Copy().Width(width).Height(height).Render(placed)
	}
	return styles.AppStyle.Render(card)
}

// renderPage lays out a header, a body and a footer with status and help.
func renderPage(width, height int, title, subtitle, body string, status statusLine, help string) string {
	parts := []string{styles.TitleStyle.Render(title)}
	if subtitle != "" {
		parts = append(parts, styles.SubtitleStyle.Render(subtitle))
	}
	parts = append(parts, "", body, "")
	footer := help
	if s := status.View(); s != "" {
		footer = s + "\n" + help
	}
	parts = append(parts, styles.StatusBarStyle.Render(footer))
	layout := lipgloss.JoinVertical(lipgloss.Left, parts...)
	if width > 0 && height > 0 {
		return styles.AppStyle.Copy().Width(width).MaxHeight(height).Render(layout)
	}
	return styles.AppStyle.Render(layout)
}

// clampIndex keeps a list cursor inside [0, n).
func clampIndex(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
