package models

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	appmodels "github.com/Wal-20/studysphere-cli/internal/models"
	"github.com/Wal-20/studysphere-cli/internal/tui/client"
	"github.com/Wal-20/studysphere-cli/internal/tui/styles"
)

// EditGroupModal edits a group's name and description. Both are required.
type EditGroupModal struct {
	apiClient *client.APIClient
	groupID   int64
	returnTo  tea.Model

	inputs     []textinput.Model
	focus      int
	submitting bool
	status     statusLine
	width      int
	height     int
}

type groupUpdatedMsg struct {
	group appmodels.Group
	err   error
}

func NewEditGroupModal(apiClient *client.APIClient, g appmodels.Group, returnTo tea.Model) EditGroupModal {
	name := newInput("Group name", 80)
	name.SetValue(g.Name)
	desc := newInput("Description", 300)
	desc.SetValue(g.Description)
	m := EditGroupModal{apiClient: apiClient, groupID: g.GroupID, returnTo: returnTo, inputs: []textinput.Model{name, desc}}
	focusInputs(m.inputs, 0)
	return m
}

func (m EditGroupModal) Init() tea.Cmd { return textinput.Blink }

func (m EditGroupModal) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		resizeInputs(m.inputs, msg.Width)
		return m, nil
	case groupUpdatedMsg:
		m.submitting = false
		if msg.err != nil {
			if cmd := checkAuth(msg.err); cmd != nil {
				return m, cmd
			}
			m.status.failErr(msg.err)
			return m, nil
		}
		return m.returnTo, emit(msg)
	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "esc":
			return m.returnTo, nil
		case "tab", "shift+tab", "up", "down":
			step := 1
			if s := msg.String(); s == "shift+tab" || s == "up" {
				step = len(m.inputs)
			}
			m.focus = (m.focus + step) % (len(m.inputs) + 1)
			return m, focusInputs(m.inputs, m.focus)
		case "enter":
			if m.focus < len(m.inputs) {
				m.focus++
				return m, focusInputs(m.inputs, m.focus)
			}
			req := appmodels.UpdateGroupRequest{
				Name:        strings.TrimSpace(m.inputs[0].Value()),
				Description: strings.TrimSpace(m.inputs[1].Value()),
			}
			if req.Name == "" || req.Description == "" {
				m.status.fail("Name and description are both required")
				return m, nil
			}
			m.submitting = true
			m.status.info("Saving...")
			api, id := m.apiClient, m.groupID
			return m, func() tea.Msg {
				g, err := api.UpdateGroup(id, req)
				return groupUpdatedMsg{group: g, err: err}
			}
		}
	}
	return m, updateInputs(m.inputs, msg)
}

func (m EditGroupModal) View() string {
	help := styles.RenderHelp(
		styles.RenderKeyBinding("Tab", "Next"),
		styles.RenderKeyBinding("Enter", "Save"),
		styles.RenderKeyBinding("Esc", "Cancel"),
	)
	content := strings.Join([]string{
		styles.CardTitleStyle.Render("Edit group details"),
		renderField("Name", m.inputs[0]) + "\n" + renderField("Description", m.inputs[1]),
		styles.RenderButton("Save", m.focus == len(m.inputs)),
		m.status.View(),
		help,
	}, "\n\n")
	return centered(m.width, m.height, styles.ModalStyle.Render(content))
}
