package models

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	appmodels "github.com/Wal-20/studysphere-cli/internal/models"
	"github.com/Wal-20/studysphere-cli/internal/tui/client"
	"github.com/Wal-20/studysphere-cli/internal/tui/styles"
)

// JoinGroupModal asks for the passkey of a protected group.
type JoinGroupModal struct {
	apiClient *client.APIClient
	group     appmodels.Group
	returnTo  tea.Model

	input      textinput.Model
	submitting bool
	width      int
	height     int
	status     statusLine
}

func NewJoinGroupModal(api *client.APIClient, group appmodels.Group, returnTo tea.Model) JoinGroupModal {
	in := newInput("passkey", 64)
	in.EchoMode = textinput.EchoPassword
	in.EchoCharacter = '*'
	in.PromptStyle = styles.InputPromptFocusedStyle
	in.TextStyle = styles.InputTextFocusedStyle
	in.Focus()

	return JoinGroupModal{
		apiClient: api,
		group:     group,
		returnTo:  returnTo,
		input:     in,
	}
}

func (m JoinGroupModal) Init() tea.Cmd { return textinput.Blink }

func (m JoinGroupModal) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = fieldWidth(m.width)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			if m.submitting {
				return m, nil
			}
			return m.returnTo, nil
		case "enter":
			if m.submitting {
				return m, nil
			}
			passkey := strings.TrimSpace(m.input.Value())
			if passkey == "" {
				m.status.fail("This group needs a passkey")
				return m, nil
			}
			m.submitting = true
			m.status.info("Joining...")
			return m, joinGroupCmd(m.apiClient, m.group, passkey)
		}
	case groupJoinedMsg:
		m.submitting = false
		if msg.err != nil {
			if cmd := checkAuth(msg.err); cmd != nil {
				return m, cmd
			}
			m.status.failErr(msg.err)
			m.input.Reset()
			return m, nil
		}
		return m.returnTo, emit(msg)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m JoinGroupModal) View() string {
	help := styles.RenderHelp(
		styles.RenderKeyBinding("Enter", "Join"),
		styles.RenderKeyBinding("Esc", "Cancel"),
	)
	content := strings.Join([]string{
		styles.CardTitleStyle.Render("Join " + m.group.Name),
		styles.CardSubtitleStyle.Render("Enter the passkey shared by the group owner"),
		styles.InputFieldFocusedStyle.Render(m.input.View()),
		m.status.View(),
		help,
	}, "\n\n")
	return centered(m.width, m.height, styles.ModalStyle.Render(content))
}
