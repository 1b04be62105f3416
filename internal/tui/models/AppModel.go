package models

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	appmodels "github.com/Wal-20/studysphere-cli/internal/models"
	"github.com/Wal-20/studysphere-cli/internal/logger"
	"github.com/Wal-20/studysphere-cli/internal/tui/client"
	"github.com/Wal-20/studysphere-cli/internal/tui/state"
	"github.com/Wal-20/studysphere-cli/internal/tui/styles"
	"github.com/Wal-20/studysphere-cli/internal/utils"
)

const (
	// dockSideBySide is the narrowest screen that shows the dock next to
	// the page. Narrower screens show the dock only while it has focus.
	dockSideBySide = 110
	headerHeight   = 1
	toastDuration  = 15 * time.Second
)

type clearToastMsg struct{ id int }

// AppModel is the shell around every page. It owns the live chat
// sessions, the chat dock, the notification push stream and the header.
type AppModel struct {
	apiClient   *client.APIClient
	sessionPath string
	now         func() time.Time

	page    tea.Model
	booting bool
	size    tea.WindowSizeMsg

	sessions    map[*client.Stream]*chatSession
	dock        *state.ChatDock
	dockChats   map[int64]GroupChatModel
	dockFocused bool

	notifications *client.Stream
	unread        int
	toast         string
	toastID       int
}

func NewAppModel(apiClient *client.APIClient, sessionPath string) AppModel {
	return AppModel{
		apiClient:   apiClient,
		sessionPath: sessionPath,
		now:         time.Now,
		booting:     true,
		sessions:    map[*client.Stream]*chatSession{},
		dock:        &state.ChatDock{},
		dockChats:   map[int64]GroupChatModel{},
	}
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(utils.GetSizeCmd(), pingServer(m.apiClient))
}

// startPage picks the first screen: the dashboard when a stored session
// is still valid, the login screen otherwise.
func (m *AppModel) startPage() (tea.Model, tea.Cmd) {
	s, err := utils.LoadSession(m.sessionPath)
	if err == nil && s.Valid(m.now()) {
		m.apiClient.SetSession(s)
		dash := NewDashboardModel(m.apiClient)
		return dash, tea.Batch(dash.Init(), m.subscribeNotifications())
	}
	login := NewLoginModel(m.apiClient)
	if err == nil {
		if err := utils.ClearSession(m.sessionPath); err != nil {
			logger.Errorf("clear session: %v", err)
		}
		login = login.withStatus("Your session expired. Please log in again.", styles.StatusWarnStyle)
	}
	return login, login.Init()
}

func (m *AppModel) subscribeNotifications() tea.Cmd {
	if m.notifications != nil {
		m.notifications.Close()
	}
	user := m.apiClient.CurrentUser()
	m.notifications = m.apiClient.SubscribeNotifications(user.ID)
	return tea.Batch(waitForStream(m.notifications), fetchUnread(m.apiClient))
}

func fetchUnread(api *client.APIClient) tea.Cmd {
	return func() tea.Msg {
		list, err := api.Notifications(api.CurrentUser().ID)
		if err != nil {
			logger.Debugf("unread count: %v", err)
			return nil
		}
		n := 0
		for _, it := range list {
			if !it.IsRead {
				n++
			}
		}
		return UnreadCountMsg{Count: n}
	}
}

// signOut tears down everything tied to the current user.
func (m *AppModel) signOut() {
	for stream := range m.sessions {
		stream.Close()
	}
	m.sessions = map[*client.Stream]*chatSession{}
	m.dock = &state.ChatDock{}
	m.dockChats = map[int64]GroupChatModel{}
	m.dockFocused = false
	if m.notifications != nil {
		m.notifications.Close()
		m.notifications = nil
	}
	m.unread = 0
	m.toast = ""
	m.apiClient.Logout()
	if err := utils.ClearSession(m.sessionPath); err != nil {
		logger.Errorf("clear session: %v", err)
	}
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.size = msg
		return m, m.layout()

	case serverUpMsg:
		m.booting = false
		page, cmd := m.startPage()
		return m.setPage(page, cmd)

	case serverDownMsg:
		m.booting = false
		if _, ok := m.page.(ServerDownModel); ok {
			break
		}
		logger.Errorf("server unreachable: %v", msg.err)
		return m.setPage(NewServerDownModel(m.apiClient, msg.err), nil)

	case sessionExpiredMsg:
		logger.Infof("session expired: %v", msg.err)
		m.signOut()
		login := NewLoginModel(m.apiClient).withStatus("Your session expired. Please log in again.", styles.StatusWarnStyle)
		return m.setPage(login, login.Init())

	case logoutMsg:
		m.signOut()
		login := NewLoginModel(m.apiClient).withStatus("You have been logged out.", styles.StatusInfoStyle)
		return m.setPage(login, login.Init())

	case loggedInMsg:
		if err := utils.SaveSession(m.sessionPath, msg.session); err != nil {
			logger.Errorf("save session: %v", err)
		}
		dash := NewDashboardModel(m.apiClient)
		return m.setPage(dash, tea.Batch(dash.Init(), m.subscribeNotifications()))

	case registerChatMsg:
		m.sessions[msg.cs.stream] = msg.cs
		return m, waitForStream(msg.cs.stream)

	case closeChatMsg:
		m.closeSession(msg.cs)
		return m, nil

	case openDockMsg:
		return m.openDock(msg.groupID, msg.name)

	case streamEventMsg:
		return m.handleStream(msg)

	case chatHistoryMsg:
		if cs, ok := m.sessions[msg.stream]; ok {
			return m, cs.applyHistory(msg)
		}
		return m, nil

	case chatActionMsg:
		if cs, ok := m.sessions[msg.stream]; ok {
			return m, cs.applyAction(m.apiClient, msg)
		}
		return m, nil

	case showModalMsg:
		m.dockFocused = false
		m = m.blurDock()
		return m.setPage(msg.build(m.page), nil)

	case UnreadCountMsg:
		m.unread = msg.Count

	case ReminderMsg:
		if len(msg.Events) == 0 {
			return m, nil
		}
		m.toastID++
		m.toast = reminderText(msg.Events)
		id := m.toastID
		return m, tea.Tick(toastDuration, func(time.Time) tea.Msg { return clearToastMsg{id: id} })

	case clearToastMsg:
		if msg.id == m.toastID {
			m.toast = ""
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.signOutStreams()
			return m, tea.Quit
		}
		if m.dock.Len() > 0 && msg.String() == "ctrl+g" {
			return m.toggleDockFocus()
		}
		if m.dockFocused {
			return m.updateDock(msg)
		}
	}

	if m.page == nil {
		return m, nil
	}
	if m.dockFocused {
		if _, isKey := msg.(tea.KeyMsg); !isKey {
			var cmd tea.Cmd
			m, cmd = m.forwardToDock(msg)
			next, pageCmd := m.page.Update(msg)
			return m.setPage(next, tea.Batch(cmd, pageCmd))
		}
	}
	next, cmd := m.page.Update(msg)
	return m.setPage(next, cmd)
}

// setPage installs next and, when the screen changed kind, sends it the
// current size. Pages run their own Init when they navigate.
func (m AppModel) setPage(next tea.Model, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	changed := reflect.TypeOf(next) != reflect.TypeOf(m.page)
	m.page = next
	if changed && m.size.Width > 0 {
		var sizeCmd tea.Cmd
		m.page, sizeCmd = m.page.Update(m.pageSize())
		cmd = tea.Batch(cmd, sizeCmd)
	}
	return m, cmd
}

func (m AppModel) handleStream(msg streamEventMsg) (tea.Model, tea.Cmd) {
	if msg.stream == m.notifications && m.notifications != nil {
		if msg.closed {
			m.notifications = nil
			return m, nil
		}
		if msg.event.Kind != client.StreamFrame {
			return m, waitForStream(msg.stream)
		}
		next, cmd := m.page.Update(notificationPushMsg{})
		model, pageCmd := m.setPage(next, cmd)
		return model, tea.Batch(pageCmd, waitForStream(msg.stream), fetchUnread(m.apiClient))
	}

	cs, ok := m.sessions[msg.stream]
	if !ok {
		return m, nil
	}
	if msg.closed {
		delete(m.sessions, msg.stream)
		return m, nil
	}
	return m, tea.Batch(cs.applyStreamEvent(m.apiClient, msg.event), waitForStream(msg.stream))
}

func (m *AppModel) closeSession(cs *chatSession) {
	delete(m.sessions, cs.stream)
	cs.stream.Close()
}

func (m *AppModel) signOutStreams() {
	for stream := range m.sessions {
		stream.Close()
	}
	if m.notifications != nil {
		m.notifications.Close()
	}
}

func (m AppModel) openDock(groupID int64, name string) (tea.Model, tea.Cmd) {
	if m.dock.Has(groupID) {
		for m.focusedDockID() != groupID {
			m.dock.Cycle(1)
		}
		m.dockFocused = true
		return m.focusDock()
	}
	cs := newChatSession(m.apiClient, groupID, name)
	m.sessions[cs.stream] = cs
	m.dock.Open(state.DockEntry{GroupID: groupID, GroupName: name})
	m.dockChats[groupID] = newDockedChat(m.apiClient, cs)
	m.dockFocused = true
	model, cmd := m.focusDock()
	return model, tea.Batch(cmd, waitForStream(cs.stream), model.resize())
}

func (m AppModel) focusedDockID() int64 {
	e, _ := m.dock.Focused()
	return e.GroupID
}

func (m AppModel) blurDock() AppModel {
	for id, chat := range m.dockChats {
		m.dockChats[id] = chat.blur()
	}
	return m
}

// focusDock gives the focused docked chat the cursor.
func (m AppModel) focusDock() (AppModel, tea.Cmd) {
	m = m.blurDock()
	id := m.focusedDockID()
	chat, ok := m.dockChats[id]
	if !ok || !m.dockFocused {
		return m, nil
	}
	chat, cmd := chat.focus()
	m.dockChats[id] = chat
	return m, cmd
}

func (m AppModel) toggleDockFocus() (tea.Model, tea.Cmd) {
	m.dockFocused = !m.dockFocused
	m, cmd := m.focusDock()
	return m, tea.Batch(cmd, m.resize())
}

func (m AppModel) updateDock(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+n":
		m.dock.Cycle(1)
		return m.focusDock()
	case "ctrl+w":
		return m.closeDocked(m.focusedDockID())
	}
	id := m.focusedDockID()
	chat, ok := m.dockChats[id]
	if !ok {
		return m, nil
	}
	chat, cmd, leave := chat.update(msg)
	if leave {
		return m.closeDocked(id)
	}
	m.dockChats[id] = chat
	return m, cmd
}

func (m AppModel) forwardToDock(msg tea.Msg) (AppModel, tea.Cmd) {
	id := m.focusedDockID()
	chat, ok := m.dockChats[id]
	if !ok {
		return m, nil
	}
	chat, cmd, _ := chat.update(msg)
	m.dockChats[id] = chat
	return m, cmd
}

func (m AppModel) closeDocked(groupID int64) (tea.Model, tea.Cmd) {
	if chat, ok := m.dockChats[groupID]; ok {
		m.closeSession(chat.cs)
		delete(m.dockChats, groupID)
	}
	m.dock.Close(groupID)
	if m.dock.Len() == 0 {
		m.dockFocused = false
	}
	m, cmd := m.focusDock()
	return m, tea.Batch(cmd, m.resize())
}

func (m AppModel) dockVisible() bool {
	if m.dock.Len() == 0 {
		return false
	}
	return m.size.Width >= dockSideBySide || m.dockFocused
}

func (m AppModel) dockWidth() int {
	if !m.dockVisible() {
		return 0
	}
	if m.size.Width < dockSideBySide {
		return m.size.Width
	}
	return min(m.size.Width*2/5, 64)
}

func (m AppModel) pageSize() tea.WindowSizeMsg {
	w := m.size.Width
	if m.size.Width >= dockSideBySide {
		w -= m.dockWidth()
	}
	return tea.WindowSizeMsg{Width: w, Height: max(m.size.Height-headerHeight, 1)}
}

// resize re-sends the window size after the dock opened, closed or
// changed focus.
func (m AppModel) resize() tea.Cmd {
	size := m.size
	return func() tea.Msg { return size }
}

// layout resizes the page and every docked chat.
func (m *AppModel) layout() tea.Cmd {
	var cmds []tea.Cmd
	if m.page != nil {
		var cmd tea.Cmd
		m.page, cmd = m.page.Update(m.pageSize())
		cmds = append(cmds, cmd)
	}
	chatSize := tea.WindowSizeMsg{Width: m.dockWidth(), Height: max(m.size.Height-headerHeight-1, 1)}
	for id, chat := range m.dockChats {
		chat, cmd, _ := chat.update(chatSize)
		m.dockChats[id] = chat
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func reminderText(events []appmodels.CalendarEvent) string {
	ev := events[0]
	text := fmt.Sprintf("Starting soon: %s at %s", ev.Topic, ev.StartTime.Local().Format("15:04"))
	if ev.GroupName != "" {
		text += " (" + ev.GroupName + ")"
	}
	if len(events) > 1 {
		text += fmt.Sprintf(" and %d more", len(events)-1)
	}
	return text
}

func (m AppModel) signedIn() bool {
	return m.apiClient.Session().Token != ""
}

func (m AppModel) header() string {
	left := styles.TitleStyle.Render("StudySphere")
	if m.signedIn() {
		left += "  " + styles.MutedTextStyle.Render(m.apiClient.CurrentUser().Name)
		if m.unread > 0 {
			left += "  " + styles.UnreadBadgeStyle.Render(fmt.Sprintf("%d unread", m.unread))
		}
	}
	if m.toast != "" {
		left += "  " + styles.StatusWarnStyle.Render(m.toast)
	}
	return styles.HeaderBarStyle.Copy().Width(max(m.size.Width, 1)).MaxHeight(headerHeight).Render(left)
}

func (m AppModel) dockView() string {
	var tabs []string
	focusedID := m.focusedDockID()
	for _, e := range m.dock.Entries() {
		name := state.Truncate(e.GroupName, 18)
		if e.GroupID == focusedID {
			tabs = append(tabs, styles.DockActiveTabStyle.Render(name))
		} else {
			tabs = append(tabs, styles.DockTabStyle.Render(name))
		}
	}
	hint := styles.RenderKeyBinding("Ctrl+G", "Focus")
	if m.dockFocused {
		hint = styles.RenderHelp(
			styles.RenderKeyBinding("Ctrl+N", "Next"),
			styles.RenderKeyBinding("Ctrl+W", "Close"),
			styles.RenderKeyBinding("Ctrl+G", "Page"),
		)
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "  " + hint

	chatView := ""
	if chat, ok := m.dockChats[focusedID]; ok {
		chatView = chat.View()
	}
	style := styles.PaneStyle
	if m.dockFocused {
		style = styles.PaneFocusedStyle
	}
	return style.Copy().Width(max(m.dockWidth()-2, 10)).Render(lipgloss.JoinVertical(lipgloss.Left, bar, chatView))
}

func (m AppModel) View() string {
	if m.booting || m.page == nil {
		return centered(m.size.Width, m.size.Height, styles.MutedTextStyle.Render("Connecting to StudySphere..."))
	}

	var body string
	switch {
	case !m.dockVisible():
		body = m.page.View()
	case m.size.Width < dockSideBySide:
		body = m.dockView()
	default:
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.page.View(), m.dockView())
	}
	return strings.Join([]string{m.header(), body}, "\n")
}
