package models

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	appmodels "github.com/Wal-20/studysphere-cli/internal/models"
	"github.com/Wal-20/studysphere-cli/internal/tui/client"
	"github.com/Wal-20/studysphere-cli/internal/tui/state"
	"github.com/Wal-20/studysphere-cli/internal/tui/styles"
)

const (
	sessTopic = iota
	sessDescription
	sessDate
	sessStart
	sessEnd
	sessLink
	sessPasscode
	sessLocation
	sessFieldCount
)

// Focus positions after the text inputs.
const (
	sessTypeRow = sessFieldCount + iota
	sessGroupRow
	sessSubmit
	sessFocusCount
)

var sessionLabels = [sessFieldCount]string{
	"Topic", "Description", "Date (YYYY-MM-DD)", "Start (HH:MM)", "End (HH:MM)",
	"Meeting link", "Passcode", "Location",
}

// SessionFormModel schedules a study session for one of the given groups.
type SessionFormModel struct {
	apiClient *client.APIClient
	groups    []appmodels.Group
	returnTo  tea.Model

	inputs     []textinput.Model
	kind       int
	group      int
	focus      int
	submitting bool
	status     statusLine
	width      int
	height     int
}

type sessionSavedMsg struct {
	event appmodels.CalendarEvent
	err   error
}

func NewSessionFormModel(apiClient *client.APIClient, groups []appmodels.Group, returnTo tea.Model) SessionFormModel {
	inputs := make([]textinput.Model, sessFieldCount)
	inputs[sessTopic] = newInput("Exam prep", 100)
	inputs[sessDescription] = newInput("What will you cover?", 300)
	inputs[sessDate] = newInput(time.Now().AddDate(0, 0, 1).Format("2006-01-02"), 10)
	inputs[sessStart] = newInput("14:00", 5)
	inputs[sessEnd] = newInput("15:00", 5)
	inputs[sessLink] = newInput("https://meet.example.com/room", 200)
	inputs[sessPasscode] = newInput("Optional", 40)
	inputs[sessLocation] = newInput("Library, room 2", 120)

	m := SessionFormModel{apiClient: apiClient, groups: groups, returnTo: returnTo, inputs: inputs}
	focusInputs(m.inputs, 0)
	if len(groups) == 0 {
		m.status.warn("Join a group before scheduling a session.")
	}
	return m
}

func (m SessionFormModel) Init() tea.Cmd { return textinput.Blink }

func (m SessionFormModel) sessionType() string {
	return appmodels.SessionTypes[m.kind]
}

// fieldVisible hides the link for offline sessions and the location for
// online ones.
func (m SessionFormModel) fieldVisible(i int) bool {
	switch i {
	case sessLink, sessPasscode:
		return m.sessionType() != appmodels.SessionOffline
	case sessLocation:
		return m.sessionType() != appmodels.SessionOnline
	}
	return true
}

func (m SessionFormModel) moveFocus(step int) SessionFormModel {
	for {
		m.focus = ((m.focus+step)%sessFocusCount + sessFocusCount) % sessFocusCount
		if m.focus >= sessFieldCount || m.fieldVisible(m.focus) {
			return m
		}
	}
}

func (m SessionFormModel) draft() state.SessionDraft {
	val := func(i int) string { return strings.TrimSpace(m.inputs[i].Value()) }
	d := state.SessionDraft{
		Topic:         val(sessTopic),
		Description:   val(sessDescription),
		Date:          val(sessDate),
		Start:         val(sessStart),
		End:           val(sessEnd),
		SessionType:   m.sessionType(),
		MeetingLink:   val(sessLink),
		Passcode:      val(sessPasscode),
		Location:      val(sessLocation),
		OrganizerName: m.apiClient.CurrentUser().Name,
	}
	if len(m.groups) > 0 {
		d.GroupID = m.groups[m.group].GroupID
	}
	return d
}

func (m SessionFormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		resizeInputs(m.inputs, msg.Width)
		return m, nil

	case sessionSavedMsg:
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
		case "tab", "down":
			m = m.moveFocus(1)
			return m, focusInputs(m.inputs, m.focus)
		case "shift+tab", "up":
			m = m.moveFocus(-1)
			return m, focusInputs(m.inputs, m.focus)
		case "left", "right":
			step := 1
			if msg.String() == "left" {
				step = -1
			}
			switch m.focus {
			case sessTypeRow:
				n := len(appmodels.SessionTypes)
				m.kind = ((m.kind+step)%n + n) % n
				return m, nil
			case sessGroupRow:
				if n := len(m.groups); n > 0 {
					m.group = ((m.group+step)%n + n) % n
				}
				return m, nil
			}
		case "enter":
			if m.focus != sessSubmit {
				m = m.moveFocus(1)
				return m, focusInputs(m.inputs, m.focus)
			}
			req, err := m.draft().Validate(time.Now(), time.Local)
			if err != nil {
				m.status.fail(err.Error())
				return m, nil
			}
			m.submitting = true
			m.status.info("Scheduling session...")
			api := m.apiClient
			return m, func() tea.Msg {
				ev, err := api.CreateEvent(req)
				return sessionSavedMsg{event: ev, err: err}
			}
		}
	}
	return m, updateInputs(m.inputs, msg)
}

func (m SessionFormModel) View() string {
	var fields []string
	for i := range m.inputs {
		if m.fieldVisible(i) {
			fields = append(fields, renderField(sessionLabels[i], m.inputs[i]))
		}
	}

	chooser := func(label string, options []string, selected int, focused bool) string {
		rendered := make([]string, len(options))
		for i, o := range options {
			if i == selected {
				rendered[i] = styles.ActiveItemStyle.Render(o)
			} else {
				rendered[i] = styles.InactiveItemStyle.Render(o)
			}
		}
		head := styles.InputLabelStyle.Render(label)
		if focused {
			head = styles.KeyStyle.Render("> ") + head
		}
		return head + "\n" + lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
	}

	groupNames := make([]string, len(m.groups))
	for i, g := range m.groups {
		groupNames[i] = g.Name
	}
	groupRow := chooser("Group", groupNames, m.group, m.focus == sessGroupRow)
	if len(m.groups) == 0 {
		groupRow = styles.InputLabelStyle.Render("Group") + "\n" + styles.MutedTextStyle.Render("No joined groups")
	}

	help := styles.RenderHelp(
		styles.RenderKeyBinding("Tab", "Next"),
		styles.RenderKeyBinding("←/→", "Choose"),
		styles.RenderKeyBinding("Enter", "Schedule"),
		styles.RenderKeyBinding("Esc", "Cancel"),
	)
	content := strings.Join([]string{
		styles.CardTitleStyle.Render("Schedule a study session"),
		strings.Join(fields, "\n"),
		chooser("Type", appmodels.SessionTypes, m.kind, m.focus == sessTypeRow),
		groupRow,
		styles.RenderButton("Schedule", m.focus == sessSubmit),
		m.status.View(),
		help,
	}, "\n\n")
	return centered(m.width, m.height, styles.ModalStyle.Render(content))
}
