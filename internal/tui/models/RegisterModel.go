package models

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	appmodels "github.com/Wal-20/studysphere-cli/internal/models"
	"github.com/Wal-20/studysphere-cli/internal/tui/client"
	"github.com/Wal-20/studysphere-cli/internal/tui/styles"
	"github.com/Wal-20/studysphere-cli/internal/utils"
)

const (
	regName = iota
	regEmail
	regPassword
	regAbout
	regCourses
	regSubmit
)

// RegisterModel creates an account and enrolls it in the chosen courses.
type RegisterModel struct {
	apiClient *client.APIClient
	inputs    []textinput.Model
	focus     int

	courses      []appmodels.Course
	courseCursor int
	chosen       []string

	submitting bool
	status     statusLine
	width      int
	height     int
}

type (
	registerCoursesMsg struct {
		courses []appmodels.Course
		err     error
	}
	registeredMsg struct {
		email string
		err   error
	}
)

func NewRegisterModel(apiClient *client.APIClient) RegisterModel {
	password := newInput("At least 8 characters, letters and digits", 64)
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '*'

	inputs := []textinput.Model{
		newInput("Full name", 80),
		newInput("Email", 120),
		password,
		newInput("A line about you (optional)", 200),
	}
	m := RegisterModel{apiClient: apiClient, inputs: inputs}
	focusInputs(m.inputs, 0)
	m.status.info("Loading courses...")
	return m
}

func (m RegisterModel) Init() tea.Cmd {
	api := m.apiClient
	return tea.Batch(textinput.Blink, func() tea.Msg {
		courses, err := api.Courses()
		return registerCoursesMsg{courses: courses, err: err}
	})
}

func (m RegisterModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		resizeInputs(m.inputs, msg.Width)
		return m, nil

	case registerCoursesMsg:
		if msg.err != nil {
			m.status.fail("Could not load courses: " + client.ErrorText(msg.err))
			return m, nil
		}
		m.courses = msg.courses
		m.status = statusLine{}
		return m, nil

	case registeredMsg:
		m.submitting = false
		if msg.err != nil {
			m.status.failErr(msg.err)
			return m, nil
		}
		login := NewLoginModel(m.apiClient).withStatus("Account created. Sign in to continue.", styles.StatusSuccessStyle)
		login.inputs[0].SetValue(msg.email)
		login.focusIndex = 1
		focusInputs(login.inputs, 1)
		return login, login.Init()

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "esc":
			login := NewLoginModel(m.apiClient)
			return login, login.Init()
		case "tab", "shift+tab":
			if msg.String() == "tab" {
				m.focus = (m.focus + 1) % (regSubmit + 1)
			} else {
				m.focus = (m.focus + regSubmit) % (regSubmit + 1)
			}
			return m, focusInputs(m.inputs, m.focus)
		case "up", "down":
			if m.focus == regCourses && len(m.courses) > 0 {
				step := 1
				if msg.String() == "up" {
					step = -1
				}
				m.courseCursor = clampIndex(m.courseCursor+step, len(m.courses))
				return m, nil
			}
		case " ":
			if m.focus == regCourses && len(m.courses) > 0 {
				id := m.courses[m.courseCursor].CourseID
				if i := slices.Index(m.chosen, id); i >= 0 {
					m.chosen = slices.Delete(m.chosen, i, i+1)
				} else {
					m.chosen = append(m.chosen, id)
				}
				return m, nil
			}
		case "enter":
			if m.focus != regSubmit {
				m.focus++
				return m, focusInputs(m.inputs, m.focus)
			}
			return m.submit()
		}
	}

	return m, updateInputs(m.inputs, msg)
}

func (m RegisterModel) submit() (tea.Model, tea.Cmd) {
	req := appmodels.RegisterRequest{
		Name:      strings.TrimSpace(m.inputs[regName].Value()),
		Email:     strings.TrimSpace(m.inputs[regEmail].Value()),
		Password:  m.inputs[regPassword].Value(),
		AboutMe:   strings.TrimSpace(m.inputs[regAbout].Value()),
		CourseIDs: slices.Clone(m.chosen),
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		m.status.fail("Name, email and password are required.")
		return m, nil
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		m.status.failErr(err)
		return m, nil
	}
	m.submitting = true
	m.status.info("Creating account...")
	api := m.apiClient
	return m, func() tea.Msg {
		return registeredMsg{email: req.Email, err: api.Register(req)}
	}
}

func (m RegisterModel) View() string {
	fields := []string{
		renderField("Name", m.inputs[regName]),
		renderField("Email", m.inputs[regEmail]),
		renderField("Password", m.inputs[regPassword]),
		renderField("About", m.inputs[regAbout]),
	}

	var courseLines []string
	label := styles.InputLabelStyle.Render(fmt.Sprintf("Courses (%d selected)", len(m.chosen)))
	if m.focus == regCourses {
		label = styles.InputPromptFocusedStyle.Render(fmt.Sprintf("Courses (%d selected)", len(m.chosen)))
	}
	courseLines = append(courseLines, label)
	start := max(m.courseCursor-3, 0)
	end := min(start+6, len(m.courses))
	for i := start; i < end; i++ {
		c := m.courses[i]
		box := "[ ]"
		if slices.Contains(m.chosen, c.CourseID) {
			box = "[x]"
		}
		line := fmt.Sprintf("%s %s  %s", box, c.CourseID, c.CourseName)
		if m.focus == regCourses && i == m.courseCursor {
			line = styles.ListItemTitleSelectedStyle.Render("> " + line)
		} else {
			line = styles.ListItemTitleStyle.Render("  " + line)
		}
		courseLines = append(courseLines, line)
	}

	help := styles.RenderHelp(
		styles.RenderKeyBinding("Tab", "Next"),
		styles.RenderKeyBinding("Space", "Toggle course"),
		styles.RenderKeyBinding("Enter", "Submit"),
		styles.RenderKeyBinding("Esc", "Back to sign in"),
	)
	sections := []string{
		styles.CardTitleStyle.Render("Create your account"),
		strings.Join(fields, "\n"),
		strings.Join(courseLines, "\n"),
		styles.RenderButton("Register", m.focus == regSubmit),
	}
	if s := m.status.View(); s != "" {
		sections = append(sections, s)
	}
	sections = append(sections, help)
	return centered(m.width, m.height, styles.CardStyle.Render(strings.Join(sections, "\n\n")))
}
