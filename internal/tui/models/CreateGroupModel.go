package models

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	appmodels "github.com/Wal-20/studysphere-cli/internal/models"
	"github.com/Wal-20/studysphere-cli/internal/tui/client"
	"github.com/Wal-20/studysphere-cli/internal/tui/styles"
)

const (
	cgName = iota
	cgDescription
	cgLimit
	cgPasskey
	cgPrivacy
	cgSubmit
)

// CreateGroupModel creates a study group under a course.
type CreateGroupModel struct {
	apiClient *client.APIClient
	course    appmodels.Course
	returnTo  tea.Model

	inputs    []textinput.Model
	focus     int
	isPrivate bool

	submitting bool
	status     statusLine
	width      int
	height     int
}

type createGroupResultMsg struct {
	group appmodels.Group
	err   error
}

func NewCreateGroupModel(apiClient *client.APIClient, course appmodels.Course, returnTo tea.Model) CreateGroupModel {
	limit := newInput("10", 4)
	passkey := newInput("optional, required to join when set", 64)
	inputs := []textinput.Model{
		newInput("Group name", 80),
		newInput("What will the group work on?", 300),
		limit,
		passkey,
	}
	m := CreateGroupModel{apiClient: apiClient, course: course, returnTo: returnTo, inputs: inputs}
	focusInputs(m.inputs, 0)
	return m
}

func (m CreateGroupModel) Init() tea.Cmd { return textinput.Blink }

func (m CreateGroupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		resizeInputs(m.inputs, msg.Width)
		return m, nil

	case createGroupResultMsg:
		m.submitting = false
		if msg.err != nil {
			if cmd := checkAuth(msg.err); cmd != nil {
				return m, cmd
			}
			m.status.failErr(msg.err)
			return m, nil
		}
		return m.returnTo, emit(groupCreatedMsg{group: msg.group})

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "esc":
			return m.returnTo, nil
		case "tab", "down":
			m.focus = (m.focus + 1) % (cgSubmit + 1)
			return m, focusInputs(m.inputs, m.focus)
		case "shift+tab", "up":
			m.focus = (m.focus + cgSubmit) % (cgSubmit + 1)
			return m, focusInputs(m.inputs, m.focus)
		case " ":
			if m.focus == cgPrivacy {
				m.isPrivate = !m.isPrivate
				return m, nil
			}
		case "enter":
			if m.focus == cgPrivacy {
				m.isPrivate = !m.isPrivate
				return m, nil
			}
			if m.focus != cgSubmit {
				m.focus++
				return m, focusInputs(m.inputs, m.focus)
			}
			return m.submit()
		}
	}
	return m, updateInputs(m.inputs, msg)
}

func (m CreateGroupModel) submit() (tea.Model, tea.Cmd) {
	req := appmodels.CreateGroupRequest{
		Name:               strings.TrimSpace(m.inputs[cgName].Value()),
		Description:        strings.TrimSpace(m.inputs[cgDescription].Value()),
		AssociatedCourseID: m.course.CourseID,
		Privacy:            appmodels.PrivacyPublic,
		Passkey:            strings.TrimSpace(m.inputs[cgPasskey].Value()),
		MemberLimit:        10,
	}
	if m.isPrivate {
		req.Privacy = appmodels.PrivacyPrivate
	}
	if req.Name == "" {
		m.status.fail("Group name is required")
		return m, nil
	}
	if s := strings.TrimSpace(m.inputs[cgLimit].Value()); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 2 {
			m.status.fail("Member limit must be a number of at least 2")
			return m, nil
		}
		req.MemberLimit = v
	}
	m.submitting = true
	m.status.info("Creating group...")
	api := m.apiClient
	return m, func() tea.Msg {
		g, err := api.CreateGroup(req)
		return createGroupResultMsg{group: g, err: err}
	}
}

func (m CreateGroupModel) View() string {
	privacy := "Public: anyone can join"
	if m.isPrivate {
		privacy = "Private: members are approved by an admin"
	}
	privacyLine := styles.InputLabelStyle.Render("Privacy") + "\n" + styles.StatusInfoStyle.Render("◀ "+privacy+" ▶")
	if m.focus == cgPrivacy {
		privacyLine = styles.InputPromptFocusedStyle.Render("Privacy") + "\n" + styles.ListItemTitleSelectedStyle.Render("◀ "+privacy+" ▶")
	}

	help := styles.RenderHelp(
		styles.RenderKeyBinding("Tab", "Next field"),
		styles.RenderKeyBinding("Space", "Toggle privacy"),
		styles.RenderKeyBinding("Enter", "Create"),
		styles.RenderKeyBinding("Esc", "Back"),
	)
	sections := []string{
		styles.CardTitleStyle.Render("New study group"),
		styles.CardSubtitleStyle.Render(m.course.CourseID + " " + m.course.CourseName),
		strings.Join([]string{
			renderField("Name", m.inputs[cgName]),
			renderField("Description", m.inputs[cgDescription]),
			renderField("Member limit", m.inputs[cgLimit]),
			renderField("Passkey", m.inputs[cgPasskey]),
		}, "\n"),
		privacyLine,
		styles.RenderButton("Create", m.focus == cgSubmit),
	}
	if s := m.status.View(); s != "" {
		sections = append(sections, s)
	}
	sections = append(sections, help)
	return centered(m.width, m.height, styles.CardStyle.Render(strings.Join(sections, "\n\n")))
}
