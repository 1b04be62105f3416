package models

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	appmodels "github.com/Wal-20/studysphere-cli/internal/models"
	"github.com/Wal-20/studysphere-cli/internal/tui/client"
	"github.com/Wal-20/studysphere-cli/internal/tui/styles"
)

var assignableRoles = []string{appmodels.RoleAdmin, appmodels.RoleMember}

// ChangeRoleModal promotes a member to admin or demotes an admin.
type ChangeRoleModal struct {
	apiClient *client.APIClient
	groupID   int64
	member    appmodels.Member
	returnTo  tea.Model

	choice     int
	submitting bool
	width      int
	height     int
	status     statusLine
}

func NewChangeRoleModal(api *client.APIClient, groupID int64, member appmodels.Member, returnTo tea.Model) ChangeRoleModal {
	m := ChangeRoleModal{apiClient: api, groupID: groupID, member: member, returnTo: returnTo}
	if member.IsAdmin() {
		m.choice = 1
	}
	return m
}

func (m ChangeRoleModal) Init() tea.Cmd { return nil }

type roleChangedMsg struct {
	role string
	err  error
}

func (m ChangeRoleModal) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "esc", "q":
			return m.returnTo, nil
		case "left", "right", "up", "down", "tab":
			m.choice = 1 - m.choice
			return m, nil
		case "enter":
			role := assignableRoles[m.choice]
			if strings.EqualFold(role, m.member.Role) {
				m.status.warn(fmt.Sprintf("%s is already %s", m.member.Name, role))
				return m, nil
			}
			m.submitting = true
			m.status.info("Updating role...")
			return m, changeRoleCmd(m.apiClient, m.groupID, m.member.UserID, role)
		}
	case roleChangedMsg:
		m.submitting = false
		if msg.err != nil {
			if cmd := checkAuth(msg.err); cmd != nil {
				return m, cmd
			}
			m.status.failErr(msg.err)
			return m, nil
		}
		return m.returnTo, emit(manageActionMsg{done: fmt.Sprintf("%s is now %s", m.member.Name, msg.role)})
	}
	return m, nil
}

func (m ChangeRoleModal) View() string {
	options := make([]string, len(assignableRoles))
	for i, r := range assignableRoles {
		if i == m.choice {
			options[i] = styles.ActiveItemStyle.Render(r)
		} else {
			options[i] = styles.InactiveItemStyle.Render(r)
		}
	}
	help := styles.RenderHelp(
		styles.RenderKeyBinding("←/→", "Choose"),
		styles.RenderKeyBinding("Enter", "Apply"),
		styles.RenderKeyBinding("Esc", "Cancel"),
	)
	content := strings.Join([]string{
		styles.CardTitleStyle.Render("Change role"),
		styles.CardSubtitleStyle.Render(fmt.Sprintf("%s is currently %s", m.member.Name, orDash(m.member.Role))),
		strings.Join(options, " "),
		m.status.View(),
		help,
	}, "\n\n")
	return centered(m.width, m.height, styles.ModalStyle.Render(content))
}

func changeRoleCmd(api *client.APIClient, groupID, memberID int64, role string) tea.Cmd {
	return func() tea.Msg {
		return roleChangedMsg{role: role, err: api.ChangeMemberRole(groupID, memberID, role)}
	}
}
