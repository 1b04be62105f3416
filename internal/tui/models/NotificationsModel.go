package models

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	appmodels "github.com/Wal-20/studysphere-cli/internal/models"
	"github.com/Wal-20/studysphere-cli/internal/tui/client"
	"github.com/Wal-20/studysphere-cli/internal/tui/state"
	"github.com/Wal-20/studysphere-cli/internal/tui/styles"
)

type NotificationsModel struct {
	apiClient     *client.APIClient
	returnTo      tea.Model
	inbox         *state.Inbox
	notifications list.Model
	width         int
	height        int
	status        statusLine
	loading       bool
}

func NewNotificationsModel(apiClient *client.APIClient, returnTo tea.Model) NotificationsModel {
	alertList := list.New([]list.Item{}, alertDelegate{}, 80, 18)
	alertList.SetShowHelp(false)
	alertList.SetShowTitle(false)
	alertList.SetShowStatusBar(false)
	alertList.SetFilteringEnabled(false)
	alertList.DisableQuitKeybindings()

	m := NotificationsModel{
		apiClient:     apiClient,
		returnTo:      returnTo,
		inbox:         state.NewInbox(),
		notifications: alertList,
		loading:       true,
	}
	m.status.info("Loading notifications...")
	return m
}

func (m NotificationsModel) Init() tea.Cmd {
	return loadNotifications(m.apiClient)
}

type (
	notificationsLoadedMsg struct {
		list []appmodels.Notification
		err  error
	}
	// notificationActionMsg reports a mutation. The inbox is refetched
	// whatever the outcome. forbid marks delete-selected, which leaves
	// select mode either way and signs out on 403.
	notificationActionMsg struct {
		done   string
		forbid bool
		err    error
	}
)

func loadNotifications(apiClient *client.APIClient) tea.Cmd {
	return func() tea.Msg {
		list, err := apiClient.Notifications(apiClient.CurrentUser().ID)
		return notificationsLoadedMsg{list: list, err: err}
	}
}

func (m NotificationsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.notifications.SetSize(max(m.width-8, 16), max(msg.Height-14, 6))
		return m, nil

	case notificationsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.status.failErr(msg.err)
			return m, checkAuth(msg.err)
		}
		m.inbox.Load(msg.list)
		m.refreshItems()
		if m.status.kind == styles.ToastInfo {
			m.status = statusLine{}
		}
		return m, emit(UnreadCountMsg{Count: m.inbox.UnreadCount()})

	case notificationActionMsg:
		if msg.forbid && m.inbox.Selecting {
			m.inbox.ToggleSelectMode()
			m.refreshItems()
		}
		if msg.err != nil {
			if msg.forbid && errors.Is(msg.err, client.ErrForbidden) {
				return m, expireSession(msg.err)
			}
			if cmd := checkAuth(msg.err); cmd != nil {
				return m, cmd
			}
			m.status.failErr(msg.err)
		} else if msg.done != "" {
			m.status.success(msg.done)
		}
		m.loading = true
		return m, loadNotifications(m.apiClient)

	case notificationPushMsg:
		return m, loadNotifications(m.apiClient)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.notifications, cmd = m.notifications.Update(msg)
	return m, cmd
}

func (m NotificationsModel) selected() (appmodels.Notification, bool) {
	if it, ok := m.notifications.SelectedItem().(alertItem); ok {
		return it.notification, true
	}
	return appmodels.Notification{}, false
}

func (m NotificationsModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	api := m.apiClient
	userID := api.CurrentUser().ID

	switch msg.String() {
	case "esc", "q":
		if m.inbox.Selecting {
			m.inbox.ToggleSelectMode()
			m.refreshItems()
			return m, nil
		}
		return m.returnTo, m.returnTo.Init()

	case "tab", "right":
		m.inbox.CycleTab(1)
		m.refreshItems()
		return m, nil
	case "shift+tab", "left":
		m.inbox.CycleTab(-1)
		m.refreshItems()
		return m, nil

	case "r":
		m.loading = true
		m.status.info("Refreshing...")
		return m, loadNotifications(api)

	case "enter", "m":
		n, ok := m.selected()
		if !ok || n.IsRead {
			return m, nil
		}
		m.inbox.MarkReadLocal(n.ID)
		m.refreshItems()
		return m, func() tea.Msg {
			return notificationActionMsg{err: api.MarkNotificationRead(n.ID)}
		}

	case "A":
		if m.inbox.UnreadCount() == 0 {
			m.status.info("Nothing unread.")
			return m, nil
		}
		return m, func() tea.Msg {
			return notificationActionMsg{done: "All notifications marked as read", err: api.MarkAllNotificationsRead(userID)}
		}

	case "s":
		m.inbox.ToggleSelectMode()
		m.refreshItems()
		return m, nil

	case " ":
		if !m.inbox.Selecting {
			return m, nil
		}
		if n, ok := m.selected(); ok {
			m.inbox.ToggleSelected(n.ID)
			m.refreshItems()
		}
		return m, nil

	case "X":
		ids := m.inbox.SelectedIDs()
		if len(ids) == 0 {
			m.status.warn("Select notifications with s and space first.")
			return m, nil
		}
		question := fmt.Sprintf("Delete %d selected notification(s)?", len(ids))
		return NewConfirmModal("Delete notifications", question, m, func() tea.Msg {
			return notificationActionMsg{done: "Selected notifications deleted", forbid: true, err: api.DeleteNotifications(ids)}
		}), nil

	case "D":
		if m.inbox.ReadCount() == 0 {
			m.status.info("No read notifications to delete.")
			return m, nil
		}
		return NewConfirmModal("Delete read notifications", "Delete every notification you have already read?", m, func() tea.Msg {
			return notificationActionMsg{done: "Read notifications deleted", err: api.DeleteReadNotifications(userID)}
		}), nil
	}

	var cmd tea.Cmd
	m.notifications, cmd = m.notifications.Update(msg)
	return m, cmd
}

// refreshItems rebuilds the list from the inbox, keeping the cursor.
func (m *NotificationsModel) refreshItems() {
	visible := m.inbox.Visible()
	items := make([]list.Item, len(visible))
	for i, n := range visible {
		items[i] = alertItem{
			notification: n,
			selecting:    m.inbox.Selecting,
			selected:     m.inbox.IsSelected(n.ID),
		}
	}
	idx := m.notifications.Index()
	m.notifications.SetItems(items)
	m.notifications.Select(clampIndex(idx, len(items)))
}

func (m NotificationsModel) View() string {
	tabIdx := slices.Index(appmodels.NotificationCategories, m.inbox.Tab)
	tabs := styles.RenderTabs(appmodels.NotificationCategories, max(tabIdx, 0))
	counts := styles.MutedTextStyle.Render(fmt.Sprintf("%d unread · %d read", m.inbox.UnreadCount(), m.inbox.ReadCount()))
	if m.inbox.Selecting {
		counts += "  " + styles.StatusWarnStyle.Render(fmt.Sprintf("select mode · %d selected", len(m.inbox.SelectedIDs())))
	}

	var listView string
	if len(m.notifications.Items()) == 0 && !m.loading {
		listView = styles.MutedTextStyle.Render("You're all caught up.")
	} else {
		listView = m.notifications.View()
	}
	body := lipgloss.JoinVertical(lipgloss.Left, tabs, counts, "", listView)

	bindings := []string{
		styles.RenderKeyBinding("Tab", "Category"),
		styles.RenderKeyBinding("Enter", "Mark read"),
		styles.RenderKeyBinding("A", "Mark all read"),
		styles.RenderKeyBinding("s", "Select mode"),
	}
	if m.inbox.Selecting {
		bindings = append(bindings, styles.RenderKeyBinding("Space", "Toggle"), styles.RenderKeyBinding("X", "Delete selected"))
	}
	bindings = append(bindings,
		styles.RenderKeyBinding("D", "Delete read"),
		styles.RenderKeyBinding("r", "Refresh"),
		styles.RenderKeyBinding("Esc", "Back"),
	)
	return renderPage(m.width, m.height, "Notifications", "Invites, reminders and group updates.", body, m.status, styles.RenderHelp(bindings...))
}

type alertItem struct {
	notification appmodels.Notification
	selecting    bool
	selected     bool
}

func (a alertItem) Title() string       { return a.notification.Text() }
func (a alertItem) FilterValue() string { return a.notification.Text() }

type alertDelegate struct{}

func (d alertDelegate) Height() int                               { return 2 }
func (d alertDelegate) Spacing() int                              { return 1 }
func (d alertDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d alertDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(alertItem)
	if !ok {
		return
	}
	n := item.notification

	isCursor := index == m.Index()
	titleStyle := styles.ListItemTitleStyle
	if !n.IsRead {
		titleStyle = styles.ListItemUnreadStyle
	}
	if isCursor {
		titleStyle = styles.ListItemTitleSelectedStyle
	}

	pointer := "  "
	if isCursor {
		pointer = styles.KeyStyle.Render("> ")
	}
	check := ""
	if item.selecting {
		check = "[ ] "
		if item.selected {
			check = "[x] "
		}
	}
	dot := "  "
	if !n.IsRead {
		dot = styles.StatusInfoStyle.Render("● ")
	}

	title := titleStyle.Render(state.Truncate(n.Text(), max(m.Width()-12, 20)))
	meta := styles.ListItemMetaStyle.Render(fmt.Sprintf("%s · received %s", n.Type, state.RelativeTime(n.Created(), time.Now())))

	fmt.Fprintf(w, "%s%s%s%s\n      %s", pointer, check, dot, title, meta)
}
