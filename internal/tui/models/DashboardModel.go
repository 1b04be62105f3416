package models

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	appmodels "github.com/Wal-20/studysphere-cli/internal/models"
	"github.com/Wal-20/studysphere-cli/internal/tui/client"
	"github.com/Wal-20/studysphere-cli/internal/tui/state"
	"github.com/Wal-20/studysphere-cli/internal/tui/styles"
)

// DashboardModel is the landing page: counters, joined groups, the latest
// notifications and upcoming sessions.
type DashboardModel struct {
	apiClient   *client.APIClient
	bundle      client.DashboardBundle
	loaded      bool
	selectedIdx int
	status      statusLine
	width       int
	height      int
}

type dashboardLoadedMsg struct {
	bundle client.DashboardBundle
	err    error
}

func NewDashboardModel(apiClient *client.APIClient) DashboardModel {
	m := DashboardModel{apiClient: apiClient}
	m.status.info("Loading your dashboard...")
	return m
}

func (m DashboardModel) Init() tea.Cmd {
	return loadDashboard(m.apiClient)
}

func loadDashboard(api *client.APIClient) tea.Cmd {
	return func() tea.Msg {
		b, err := api.LoadDashboard()
		return dashboardLoadedMsg{bundle: b, err: err}
	}
}

func (m DashboardModel) groups() []appmodels.Group {
	return m.bundle.Dashboard.JoinedGroups
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case dashboardLoadedMsg:
		if msg.err != nil {
			// The profile is fetched first; any failure there means the
			// session is no longer usable.
			return m, expireSession(msg.err)
		}
		m.bundle = msg.bundle
		m.loaded = true
		m.selectedIdx = clampIndex(m.selectedIdx, len(m.groups()))
		m.status = statusLine{}
		for _, err := range []error{msg.bundle.DashboardErr, msg.bundle.NotificationsErr, msg.bundle.UpcomingErr} {
			if err != nil {
				if cmd := checkAuth(err); cmd != nil {
					return m, cmd
				}
				m.status.fail("Some sections failed to load: " + client.ErrorText(err))
			}
		}
		return m, nil

	case notificationPushMsg:
		return m, loadDashboard(m.apiClient)

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			m.selectedIdx = clampIndex(m.selectedIdx-1, len(m.groups()))
		case "down", "j":
			m.selectedIdx = clampIndex(m.selectedIdx+1, len(m.groups()))
		case "enter":
			if len(m.groups()) == 0 {
				return m, nil
			}
			g := m.groups()[m.selectedIdx]
			detail := NewGroupDetailModel(m.apiClient, g.GroupID, m)
			return detail, detail.Init()
		case "o":
			if len(m.groups()) == 0 {
				return m, nil
			}
			g := m.groups()[m.selectedIdx]
			return m, openDock(g.GroupID, g.Name)
		case "r":
			m.status.info("Refreshing...")
			return m, loadDashboard(m.apiClient)
		case "c":
			next := NewCoursesModel(m.apiClient, m)
			return next, next.Init()
		case "n":
			next := NewNotificationsModel(m.apiClient, m)
			return next, next.Init()
		case "s":
			next := NewCalendarModel(m.apiClient, m)
			return next, next.Init()
		case "p":
			next := NewFindPeersModel(m.apiClient, m)
			return next, next.Init()
		case "L":
			return m, logout
		case "q":
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m DashboardModel) View() string {
	name := m.bundle.Profile.Name
	if name == "" {
		name = m.apiClient.CurrentUser().Name
	}
	d := m.bundle.Dashboard

	stats := lipgloss.JoinHorizontal(lipgloss.Top,
		styles.RenderStat("Courses", d.EnrolledCoursesCount),
		styles.RenderStat("Groups", len(d.JoinedGroups)),
		styles.RenderStat("Suggested peers", len(d.SuggestedPeers)),
	)

	paneWidth := m.paneWidth()
	left := styles.PaneFocusedStyle.Copy().Width(paneWidth).Render(m.renderGroups())
	right := lipgloss.JoinVertical(lipgloss.Left,
		styles.PaneStyle.Copy().Width(paneWidth).Render(m.renderNotifications()),
		styles.PaneStyle.Copy().Width(paneWidth).Render(m.renderUpcoming()),
	)
	body := lipgloss.JoinVertical(lipgloss.Left, stats, "", lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right))

	help := styles.RenderHelp(
		styles.RenderKeyBinding("↑/↓", "Navigate"),
		styles.RenderKeyBinding("Enter", "Open group"),
		styles.RenderKeyBinding("o", "Chat in dock"),
		styles.RenderKeyBinding("c", "Courses"),
		styles.RenderKeyBinding("n", "Notifications"),
		styles.RenderKeyBinding("s", "Calendar"),
		styles.RenderKeyBinding("p", "Find peers"),
		styles.RenderKeyBinding("r", "Refresh"),
		styles.RenderKeyBinding("L", "Log out"),
		styles.RenderKeyBinding("q", "Quit"),
	)
	return renderPage(m.width, m.height, fmt.Sprintf("Welcome back, %s", name), "Here is what is happening in your study groups.", body, m.status, help)
}

func (m DashboardModel) paneWidth() int {
	if m.width <= 0 {
		return 40
	}
	w := (m.width - 10) / 2
	if w < 28 {
		w = 28
	}
	return w
}

func (m DashboardModel) renderGroups() string {
	var sb strings.Builder
	sb.WriteString(styles.SectionTitleStyle.Render("Your groups") + "\n")
	if !m.loaded {
		sb.WriteString(styles.MutedTextStyle.Render("Loading..."))
		return sb.String()
	}
	if len(m.groups()) == 0 {
		sb.WriteString(styles.MutedTextStyle.Render("You have not joined any groups yet. Press c to browse courses."))
		return sb.String()
	}
	for i, g := range m.groups() {
		line := fmt.Sprintf("%s  %s", g.Name, styles.ListItemMetaStyle.Render(g.CourseName()))
		if i == m.selectedIdx {
			sb.WriteString(styles.ListItemTitleSelectedStyle.Render("> "+g.Name) + "  " + styles.ListItemMetaStyle.Render(g.CourseName()) + "\n")
		} else {
			sb.WriteString("  " + line + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m DashboardModel) renderNotifications() string {
	var sb strings.Builder
	sb.WriteString(styles.SectionTitleStyle.Render("Latest notifications") + "\n")
	latest := state.Latest(m.bundle.Notifications, 3)
	if len(latest) == 0 {
		sb.WriteString(styles.MutedTextStyle.Render("You're all caught up."))
		return sb.String()
	}
	now := time.Now()
	for _, n := range latest {
		title := styles.ListItemTitleStyle
		if !n.IsRead {
			title = styles.ListItemUnreadStyle
		}
		sb.WriteString(title.Render(state.Truncate(n.Text(), 60)) + "\n")
		sb.WriteString("  " + styles.ListItemMetaStyle.Render(state.RelativeTime(n.Created(), now)) + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m DashboardModel) renderUpcoming() string {
	var sb strings.Builder
	sb.WriteString(styles.SectionTitleStyle.Render("Upcoming sessions") + "\n")
	if len(m.bundle.Upcoming) == 0 {
		sb.WriteString(styles.MutedTextStyle.Render("No upcoming sessions."))
		return sb.String()
	}
	for _, ev := range m.bundle.Upcoming {
		when := ev.StartTime.Local().Format("Mon Jan 2 15:04")
		sb.WriteString(styles.ListItemTitleStyle.Render(ev.Topic) + "\n")
		sb.WriteString("  " + styles.ListItemMetaStyle.Render(fmt.Sprintf("%s · %s · %s", when, orDash(ev.GroupName), ev.SessionType)) + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
