package models

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	appmodels "github.com/Wal-20/studysphere-cli/internal/models"
	"github.com/Wal-20/studysphere-cli/internal/tui/client"
	"github.com/Wal-20/studysphere-cli/internal/tui/state"
	"github.com/Wal-20/studysphere-cli/internal/tui/styles"
)

// CalendarModel is the agenda of every session in the user's groups.
type CalendarModel struct {
	apiClient *client.APIClient
	returnTo  tea.Model

	events []appmodels.CalendarEvent
	days   []state.DayGroup
	groups []appmodels.Group
	loaded bool

	cursor int
	status statusLine
	width  int
	height int
}

type (
	calendarLoadedMsg struct {
		events []appmodels.CalendarEvent
		groups []appmodels.Group
		err    error
	}
	eventDeletedMsg struct {
		topic string
		err   error
	}
)

func NewCalendarModel(apiClient *client.APIClient, returnTo tea.Model) CalendarModel {
	m := CalendarModel{apiClient: apiClient, returnTo: returnTo}
	m.status.info("Loading calendar...")
	return m
}

// Init fetches events and joined groups side by side.
func (m CalendarModel) Init() tea.Cmd {
	api := m.apiClient
	return func() tea.Msg {
		var (
			wg       sync.WaitGroup
			events   []appmodels.CalendarEvent
			dash     appmodels.Dashboard
			evErr    error
			groupErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			events, evErr = api.AllEvents()
		}()
		go func() {
			defer wg.Done()
			dash, groupErr = api.Dashboard()
		}()
		wg.Wait()
		if evErr != nil {
			return calendarLoadedMsg{err: evErr}
		}
		// Groups only feed the session form; an empty list is tolerated.
		if groupErr != nil && client.IsAuthError(groupErr) {
			return calendarLoadedMsg{err: groupErr}
		}
		return calendarLoadedMsg{events: events, groups: dash.JoinedGroups}
	}
}

// flat lists the events in agenda order so the cursor can index them.
func (m CalendarModel) flat() []appmodels.CalendarEvent {
	var out []appmodels.CalendarEvent
	for _, d := range m.days {
		out = append(out, d.Events...)
	}
	return out
}

func (m CalendarModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case calendarLoadedMsg:
		if msg.err != nil {
			m.status.failErr(msg.err)
			return m, checkAuth(msg.err)
		}
		m.events = msg.events
		m.groups = msg.groups
		m.days = state.GroupByDay(m.events, time.Local)
		m.loaded = true
		m.cursor = clampIndex(m.cursor, len(m.events))
		if m.status.kind == styles.ToastInfo {
			m.status = statusLine{}
		}
		return m, nil

	case sessionSavedMsg:
		m.status.success("Session \"" + msg.event.Topic + "\" scheduled")
		return m, m.Init()

	case eventDeletedMsg:
		if msg.err != nil {
			m.status.failErr(msg.err)
			return m, checkAuth(msg.err)
		}
		m.status.success("Deleted \"" + msg.topic + "\"")
		return m, m.Init()

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "q":
			return m.returnTo, m.returnTo.Init()
		case "up", "k":
			m.cursor = clampIndex(m.cursor-1, len(m.events))
		case "down", "j":
			m.cursor = clampIndex(m.cursor+1, len(m.events))
		case "r":
			m.status.info("Refreshing...")
			return m, m.Init()
		case "n":
			next := NewSessionFormModel(m.apiClient, m.groups, m)
			return next, next.Init()
		case "x":
			events := m.flat()
			if len(events) == 0 {
				return m, nil
			}
			ev := events[clampIndex(m.cursor, len(events))]
			api := m.apiClient
			question := fmt.Sprintf("Delete the session \"%s\"?", ev.Topic)
			return NewConfirmModal("Delete session", question, m, func() tea.Msg {
				return eventDeletedMsg{topic: ev.Topic, err: api.DeleteEvent(ev.ID)}
			}), nil
		}
	}
	return m, nil
}

func (m CalendarModel) View() string {
	help := styles.RenderHelp(
		styles.RenderKeyBinding("↑/↓", "Navigate"),
		styles.RenderKeyBinding("n", "New session"),
		styles.RenderKeyBinding("x", "Delete"),
		styles.RenderKeyBinding("r", "Refresh"),
		styles.RenderKeyBinding("Esc", "Back"),
	)
	if !m.loaded {
		return renderPage(m.width, m.height, "Calendar", "", "", m.status, help)
	}

	var b strings.Builder
	if len(m.days) == 0 {
		b.WriteString(styles.MutedTextStyle.Render("No sessions scheduled. Press n to plan one."))
	}
	today := time.Now().Format("Mon, Jan 2 2006")
	idx := 0
	for _, day := range m.days {
		label := day.Label
		if label == today {
			label += " (today)"
		}
		b.WriteString(styles.SectionTitleStyle.Render(label) + "\n")
		for _, ev := range day.Events {
			title := ev.Topic
			if ev.GroupName != "" {
				title += styles.ListItemMetaStyle.Render("  " + ev.GroupName)
			}
			meta := styles.ListItemMetaStyle.Render(eventMeta(ev))
			if idx == m.cursor {
				b.WriteString(styles.KeyStyle.Render("> ") + styles.ListItemTitleSelectedStyle.Render(ev.Topic))
				if ev.GroupName != "" {
					b.WriteString(styles.ListItemMetaStyle.Render("  " + ev.GroupName))
				}
				b.WriteString("\n    " + meta + "\n")
				if ev.Description != "" {
					b.WriteString("    " + styles.MutedTextStyle.Render(state.Truncate(ev.Description, 80)) + "\n")
				}
			} else {
				b.WriteString("  " + title + "\n    " + meta + "\n")
			}
			idx++
		}
		b.WriteString("\n")
	}

	subtitle := fmt.Sprintf("%d session(s) across %d day(s)", len(m.events), len(m.days))
	return renderPage(m.width, m.height, "Calendar", subtitle, strings.TrimRight(b.String(), "\n"), m.status, help)
}
