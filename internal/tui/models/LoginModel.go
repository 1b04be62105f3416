package models

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Wal-20/studysphere-cli/internal/tui/client"
	"github.com/Wal-20/studysphere-cli/internal/tui/styles"
	"github.com/Wal-20/studysphere-cli/internal/utils"
)

type LoginModel struct {
	apiClient     *client.APIClient
	inputs        []textinput.Model
	cursorMode    cursor.Mode
	focusIndex    int
	width         int
	height        int
	submitting    bool
	statusMessage string
	statusStyle   lipgloss.Style
}

type loginResultMsg struct {
	session utils.Session
	err     error
}

func NewLoginModel(apiClient *client.APIClient) LoginModel {
	email := newInput("Email", 120)
	email.Focus()
	email.PromptStyle = styles.InputPromptFocusedStyle
	email.TextStyle = styles.InputTextFocusedStyle

	password := newInput("Password", 64)
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '*'

	return LoginModel{
		apiClient:     apiClient,
		inputs:        []textinput.Model{email, password},
		cursorMode:    cursor.CursorBlink,
		statusMessage: "Sign in to your StudySphere account.",
		statusStyle:   styles.StatusMessageStyle,
	}
}

// withStatus shows a message on the login card, used after a logout or an
// expired session.
func (m LoginModel) withStatus(text string, style lipgloss.Style) LoginModel {
	m.statusMessage = text
	m.statusStyle = style
	return m
}

func (m LoginModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		resizeInputs(m.inputs, msg.Width)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "ctrl+n":
			if m.submitting {
				return m, nil
			}
			reg := NewRegisterModel(m.apiClient)
			return reg, reg.Init()

		case "ctrl+r":
			if m.submitting {
				return m, nil
			}
			m.cursorMode++
			if m.cursorMode > cursor.CursorHide {
				m.cursorMode = cursor.CursorBlink
			}
			cmds := make([]tea.Cmd, len(m.inputs))
			for i := range m.inputs {
				cmds[i] = m.inputs[i].Cursor.SetMode(m.cursorMode)
			}
			m.statusMessage = fmt.Sprintf("Cursor mode: %s", m.cursorMode.String())
			m.statusStyle = styles.StatusInfoStyle
			return m, tea.Batch(cmds...)

		case "tab", "shift+tab", "enter", "up", "down":
			if m.submitting {
				return m, nil
			}

			s := msg.String()
			if s == "enter" && m.focusIndex == len(m.inputs) {
				email := strings.TrimSpace(m.inputs[0].Value())
				password := m.inputs[1].Value()
				if email == "" || password == "" {
					m.statusMessage = "Email and password are required."
					m.statusStyle = styles.StatusErrorStyle
					return m, nil
				}

				m.submitting = true
				m.statusMessage = "Signing in..."
				m.statusStyle = styles.StatusInfoStyle
				return m, tea.Batch(focusInputs(m.inputs, m.focusIndex), login(m.apiClient, email, password))
			}

			if s == "tab" || s == "enter" || s == "down" {
				m.focusIndex++
			} else {
				m.focusIndex--
			}

			if m.focusIndex < 0 {
				m.focusIndex = len(m.inputs)
			} else if m.focusIndex > len(m.inputs) {
				m.focusIndex = 0
			}

			return m, focusInputs(m.inputs, m.focusIndex)
		}

	case loginResultMsg:
		m.submitting = false
		if msg.err != nil {
			m.statusMessage = loginErrorText(msg.err)
			m.statusStyle = styles.StatusErrorStyle
			m.focusIndex = 0
			m.inputs[1].Reset()
			return m, focusInputs(m.inputs, m.focusIndex)
		}
		return m, emit(loggedInMsg{session: msg.session})
	}

	return m, updateInputs(m.inputs, msg)
}

func loginErrorText(err error) string {
	if client.IsAuthError(err) {
		return "Invalid email or password."
	}
	return client.ErrorText(err)
}

func (m LoginModel) View() string {
	fields := []string{
		renderField("Email", m.inputs[0]),
		renderField("Password", m.inputs[1]),
	}
	form := strings.Join(fields, "\n\n")
	button := styles.RenderButton("Sign in", m.focusIndex == len(m.inputs))

	status := ""
	if m.statusMessage != "" {
		status = m.statusStyle.Render(m.statusMessage)
	}

	help := styles.RenderHelp(
		styles.RenderKeyBinding("Tab", "Next field"),
		styles.RenderKeyBinding("Shift+Tab", "Previous"),
		styles.RenderKeyBinding("Enter", "Submit"),
		styles.RenderKeyBinding("Ctrl+N", "Create account"),
		styles.RenderKeyBinding("Ctrl+R", fmt.Sprintf("Cursor: %s", m.cursorMode.String())),
		styles.RenderKeyBinding("Ctrl+C", "Quit"),
	)

	sections := []string{
		styles.CardTitleStyle.Render("StudySphere"),
		styles.CardSubtitleStyle.Render("Study groups, sessions and chat from your terminal."),
		form,
		button,
	}
	if status != "" {
		sections = append(sections, status)
	}
	sections = append(sections, help)

	return centered(m.width, m.height, styles.CardStyle.Render(strings.Join(sections, "\n\n")))
}

func login(apiClient *client.APIClient, email, password string) tea.Cmd {
	return func() tea.Msg {
		s, err := apiClient.Login(email, password)
		return loginResultMsg{session: s, err: err}
	}
}
