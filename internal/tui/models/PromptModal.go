package models

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Wal-20/studysphere-cli/internal/tui/styles"
)

// PromptModal collects one line of text and hands it to submit.
type PromptModal struct {
	title    string
	subtitle string
	returnTo tea.Model
	submit   func(string) tea.Cmd

	input  textinput.Model
	status statusLine
	width  int
	height int
}

func NewPromptModal(title, subtitle, placeholder string, returnTo tea.Model, submit func(string) tea.Cmd) PromptModal {
	in := newInput(placeholder, 512)
	in.PromptStyle = styles.InputPromptFocusedStyle
	in.TextStyle = styles.InputTextFocusedStyle
	in.Focus()
	return PromptModal{title: title, subtitle: subtitle, returnTo: returnTo, submit: submit, input: in}
}

func (m PromptModal) Init() tea.Cmd { return textinput.Blink }

func (m PromptModal) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = fieldWidth(m.width)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m.returnTo, nil
		case "enter":
			value := strings.TrimSpace(m.input.Value())
			if value == "" {
				m.status.fail("A value is required")
				return m, nil
			}
			return m.returnTo, m.submit(value)
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m PromptModal) View() string {
	help := styles.RenderHelp(
		styles.RenderKeyBinding("Enter", "Submit"),
		styles.RenderKeyBinding("Esc", "Cancel"),
	)
	content := strings.Join([]string{
		styles.CardTitleStyle.Render(m.title),
		styles.CardSubtitleStyle.Render(m.subtitle),
		styles.InputFieldFocusedStyle.Render(m.input.View()),
		m.status.View(),
		help,
	}, "\n\n")
	return centered(m.width, m.height, styles.ModalStyle.Render(content))
}
