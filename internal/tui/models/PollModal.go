package models

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Wal-20/studysphere-cli/internal/tui/client"
	"github.com/Wal-20/studysphere-cli/internal/tui/styles"
)

const maxPollOptions = 6

// PollModal creates a poll in the chat it was opened from. The poll
// itself shows up when the broker broadcasts it.
type PollModal struct {
	api      *client.APIClient
	cs       *chatSession
	returnTo tea.Model

	inputs     []textinput.Model
	focusIndex int
	submitting bool
	status     statusLine
	width      int
	height     int
}

func NewPollModal(api *client.APIClient, cs *chatSession, returnTo tea.Model) PollModal {
	inputs := []textinput.Model{newInput("What should we review first?", 200)}
	for i := 0; i < 2; i++ {
		inputs = append(inputs, newInput(fmt.Sprintf("Option %d", i+1), 100))
	}
	m := PollModal{api: api, cs: cs, returnTo: returnTo, inputs: inputs}
	focusInputs(m.inputs, 0)
	return m
}

func (m PollModal) Init() tea.Cmd { return textinput.Blink }

type pollCreatedMsg struct{ err error }

func (m PollModal) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		resizeInputs(m.inputs, m.width)
		return m, nil

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "esc":
			return m.returnTo, nil
		case "ctrl+a":
			if len(m.inputs)-1 >= maxPollOptions {
				m.status.warn(fmt.Sprintf("At most %d options", maxPollOptions))
				return m, nil
			}
			m.inputs = append(m.inputs, newInput(fmt.Sprintf("Option %d", len(m.inputs)), 100))
			resizeInputs(m.inputs, m.width)
			m.focusIndex = len(m.inputs) - 1
			return m, focusInputs(m.inputs, m.focusIndex)
		case "tab", "down", "shift+tab", "up":
			if s := msg.String(); s == "tab" || s == "down" {
				m.focusIndex++
			} else {
				m.focusIndex--
			}
			if m.focusIndex > len(m.inputs) {
				m.focusIndex = 0
			} else if m.focusIndex < 0 {
				m.focusIndex = len(m.inputs)
			}
			return m, focusInputs(m.inputs, m.focusIndex)
		case "enter":
			if m.focusIndex < len(m.inputs) {
				m.focusIndex++
				return m, focusInputs(m.inputs, m.focusIndex)
			}
			question := m.inputs[0].Value()
			var options []string
			for _, in := range m.inputs[1:] {
				options = append(options, in.Value())
			}
			m.submitting = true
			m.status.info("Creating poll...")
			return m, createPollCmd(m.api, m.cs.room.GroupID, question, options)
		}

	case pollCreatedMsg:
		m.submitting = false
		if msg.err != nil {
			if cmd := checkAuth(msg.err); cmd != nil {
				return m, cmd
			}
			m.status.failErr(msg.err)
			return m, nil
		}
		return m.returnTo, emit(chatActionMsg{stream: m.cs.stream, done: "Poll created"})
	}

	return m, updateInputs(m.inputs, msg)
}

func createPollCmd(api *client.APIClient, groupID int64, question string, options []string) tea.Cmd {
	return func() tea.Msg {
		return pollCreatedMsg{err: api.CreatePoll(groupID, question, options)}
	}
}

func (m PollModal) View() string {
	fields := []string{renderField("Question", m.inputs[0])}
	for i, in := range m.inputs[1:] {
		fields = append(fields, renderField(fmt.Sprintf("Option %d", i+1), in))
	}
	help := styles.RenderHelp(
		styles.RenderKeyBinding("Tab", "Next"),
		styles.RenderKeyBinding("Ctrl+A", "Add option"),
		styles.RenderKeyBinding("Enter", "Create"),
		styles.RenderKeyBinding("Esc", "Cancel"),
	)
	content := strings.Join([]string{
		styles.CardTitleStyle.Render("New poll"),
		styles.CardSubtitleStyle.Render("Ask " + m.cs.room.GroupName),
		strings.Join(fields, "\n"),
		styles.RenderButton("Create poll", m.focusIndex == len(m.inputs)),
		m.status.View(),
		help,
	}, "\n\n")
	return centered(m.width, m.height, styles.ModalStyle.Render(content))
}
