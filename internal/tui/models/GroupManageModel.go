package models

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	appmodels "github.com/Wal-20/studysphere-cli/internal/models"
	"github.com/Wal-20/studysphere-cli/internal/tui/client"
	"github.com/Wal-20/studysphere-cli/internal/tui/state"
	"github.com/Wal-20/studysphere-cli/internal/tui/styles"
)

const (
	manageMembers = iota
	manageRequests
)

// GroupManageModel is the admin view of a group: details, members and
// pending join requests.
type GroupManageModel struct {
	apiClient *client.APIClient
	groupID   int64
	returnTo  tea.Model

	group    appmodels.Group
	members  []appmodels.Member
	requests []appmodels.JoinRequest
	role     string
	loaded   bool

	pane   int
	cursor int
	status statusLine
	width  int
	height int
}

type (
	manageLoadedMsg struct {
		bundle client.ManageBundle
		err    error
	}
	// manageActionMsg reports any mutation made from the page; the page
	// always refetches afterwards.
	manageActionMsg struct {
		done string
		left bool
		err  error
	}
)

func NewGroupManageModel(apiClient *client.APIClient, groupID int64, returnTo tea.Model) GroupManageModel {
	m := GroupManageModel{apiClient: apiClient, groupID: groupID, returnTo: returnTo}
	m.status.info("Loading group...")
	return m
}

func (m GroupManageModel) Init() tea.Cmd {
	api, id := m.apiClient, m.groupID
	return func() tea.Msg {
		b, err := api.LoadManagement(id)
		return manageLoadedMsg{bundle: b, err: err}
	}
}

func (m GroupManageModel) canManage() bool {
	return state.CanManage(m.role)
}

func (m GroupManageModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case manageLoadedMsg:
		if msg.err != nil {
			m.status.failErr(msg.err)
			return m, checkAuth(msg.err)
		}
		m.group = msg.bundle.Group
		m.members = msg.bundle.Members
		m.requests = msg.bundle.Requests
		m.role = state.ManagementRole(m.members, m.apiClient.CurrentUser().ID)
		m.loaded = true
		m.cursor = clampIndex(m.cursor, m.listLen())
		if !m.canManage() {
			m.status.warn("Only group admins can make changes here.")
		}
		return m, nil

	case manageActionMsg:
		if msg.err != nil {
			m.status.failErr(msg.err)
			if cmd := checkAuth(msg.err); cmd != nil {
				return m, cmd
			}
			return m, m.Init()
		}
		if msg.left {
			dash := NewDashboardModel(m.apiClient)
			dash.status.success("You left the group")
			return dash, dash.Init()
		}
		m.status.success(msg.done)
		return m, m.Init()

	case groupUpdatedMsg:
		m.status.success("Group details updated")
		return m, m.Init()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m GroupManageModel) listLen() int {
	if m.pane == manageRequests {
		return len(m.requests)
	}
	return len(m.members)
}

func (m GroupManageModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		return m.returnTo, m.returnTo.Init()
	case "tab", "left", "right":
		m.pane = 1 - m.pane
		m.cursor = 0
		return m, nil
	case "up", "k":
		m.cursor = clampIndex(m.cursor-1, m.listLen())
		return m, nil
	case "down", "j":
		m.cursor = clampIndex(m.cursor+1, m.listLen())
		return m, nil
	case "r":
		return m, m.Init()
	}
	if !m.loaded || !m.canManage() {
		return m, nil
	}

	api, groupID := m.apiClient, m.groupID
	switch msg.String() {
	case "e":
		next := NewEditGroupModal(api, m.group, m)
		return next, next.Init()
	}

	if m.pane == manageMembers && len(m.members) > 0 {
		mem := m.members[clampIndex(m.cursor, len(m.members))]
		self := mem.UserID == api.CurrentUser().ID
		switch msg.String() {
		case "x":
			question := fmt.Sprintf("Remove %s from %s?", mem.Name, m.group.Name)
			if self {
				question = "Remove yourself from this group? You will leave it."
			}
			return NewConfirmModal("Remove member", question, m, func() tea.Msg {
				err := api.RemoveMember(groupID, mem.UserID)
				if self {
					return manageActionMsg{left: true, err: err}
				}
				return manageActionMsg{done: mem.Name + " was removed", err: err}
			}), nil
		case "p":
			if self {
				m.status.warn("You cannot change your own role.")
				return m, nil
			}
			next := NewChangeRoleModal(api, groupID, mem, m)
			return next, next.Init()
		}
	}

	if m.pane == manageRequests && len(m.requests) > 0 {
		req := m.requests[clampIndex(m.cursor, len(m.requests))]
		action, done := "", ""
		switch msg.String() {
		case "a":
			action, done = appmodels.RequestApproved, req.User.Name+" was approved"
		case "d":
			action, done = appmodels.RequestDenied, req.User.Name+" was denied"
		}
		if action != "" {
			return m, func() tea.Msg {
				return manageActionMsg{done: done, err: api.HandleJoinRequest(groupID, req.ID, action)}
			}
		}
	}
	return m, nil
}

func (m GroupManageModel) View() string {
	if !m.loaded {
		return renderPage(m.width, m.height, "Manage group", "", "", m.status, styles.RenderHelp(styles.RenderKeyBinding("Esc", "Back")))
	}

	paneWidth := 36
	if m.width > 0 {
		paneWidth = max((m.width-10)/2, 28)
	}

	var members strings.Builder
	members.WriteString(styles.SectionTitleStyle.Render(fmt.Sprintf("Members (%d)", len(m.members))) + "\n")
	for i, mem := range m.members {
		line := mem.Name + "  " + styles.RoleBadge(mem.Role)
		if m.pane == manageMembers && i == m.cursor {
			members.WriteString(styles.ListItemTitleSelectedStyle.Render("> ") + line + "\n")
		} else {
			members.WriteString("  " + line + "\n")
		}
	}

	var requests strings.Builder
	requests.WriteString(styles.SectionTitleStyle.Render(fmt.Sprintf("Join requests (%d)", len(m.requests))) + "\n")
	if len(m.requests) == 0 {
		requests.WriteString(styles.MutedTextStyle.Render("No pending requests."))
	}
	for i, r := range m.requests {
		line := r.User.Name
		if r.User.Email != "" {
			line += "  " + styles.ListItemMetaStyle.Render(r.User.Email)
		}
		if m.pane == manageRequests && i == m.cursor {
			requests.WriteString(styles.ListItemTitleSelectedStyle.Render("> ") + line + "\n")
		} else {
			requests.WriteString("  " + line + "\n")
		}
	}

	leftStyle, rightStyle := styles.PaneFocusedStyle, styles.PaneStyle
	if m.pane == manageRequests {
		leftStyle, rightStyle = styles.PaneStyle, styles.PaneFocusedStyle
	}
	details := styles.InputLabelStyle.Render("Description  ") + orDash(m.group.Description)
	body := lipgloss.JoinVertical(lipgloss.Left,
		details,
		"",
		lipgloss.JoinHorizontal(lipgloss.Top,
			leftStyle.Copy().Width(paneWidth).Render(strings.TrimRight(members.String(), "\n")),
			" ",
			rightStyle.Copy().Width(paneWidth).Render(strings.TrimRight(requests.String(), "\n")),
		),
	)

	bindings := []string{
		styles.RenderKeyBinding("Tab", "Switch pane"),
		styles.RenderKeyBinding("↑/↓", "Navigate"),
	}
	if m.canManage() {
		bindings = append(bindings,
			styles.RenderKeyBinding("e", "Edit details"),
			styles.RenderKeyBinding("x", "Remove"),
			styles.RenderKeyBinding("p", "Change role"),
			styles.RenderKeyBinding("a/d", "Approve/Deny"),
		)
	}
	bindings = append(bindings, styles.RenderKeyBinding("Esc", "Back"))

	subtitle := "Manage group"
	if badge := styles.RoleBadge(m.role); badge != "" {
		subtitle += "  " + badge
	}
	return renderPage(m.width, m.height, m.group.Name, subtitle, body, m.status, styles.RenderHelp(bindings...))
}
