package models

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	appmodels "github.com/Wal-20/studysphere-cli/internal/models"
	"github.com/Wal-20/studysphere-cli/internal/tui/client"
	"github.com/Wal-20/studysphere-cli/internal/tui/state"
	"github.com/Wal-20/studysphere-cli/internal/tui/styles"
)

// FindPeersModel lists classmates, either the suggested ones sharing a
// course or everyone.
type FindPeersModel struct {
	apiClient *client.APIClient
	returnTo  tea.Model

	finder *state.PeerFinder
	search textinput.Model
	loaded bool

	cursor int
	status statusLine
	width  int
	height int
}

type peersLoadedMsg struct {
	dashboard appmodels.Dashboard
	err       error
}

func NewFindPeersModel(apiClient *client.APIClient, returnTo tea.Model) FindPeersModel {
	search := newInput("Search by name", 60)
	search.Focus()
	m := FindPeersModel{
		apiClient: apiClient,
		returnTo:  returnTo,
		finder:    state.NewPeerFinder(appmodels.Dashboard{}),
		search:    search,
	}
	m.status.info("Loading peers...")
	return m
}

func (m FindPeersModel) Init() tea.Cmd {
	api := m.apiClient
	return tea.Batch(textinput.Blink, func() tea.Msg {
		d, err := api.Dashboard()
		return peersLoadedMsg{dashboard: d, err: err}
	})
}

// syncSearch stores the query for the active tab.
func (m FindPeersModel) syncSearch() {
	if m.finder.Tab == state.PeersAll {
		m.finder.AllSearch = m.search.Value()
		return
	}
	m.finder.Search = m.search.Value()
}

func (m FindPeersModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.search.Width = fieldWidth(msg.Width)
		return m, nil

	case peersLoadedMsg:
		if msg.err != nil {
			m.status.failErr(msg.err)
			return m, checkAuth(msg.err)
		}
		finder := state.NewPeerFinder(msg.dashboard)
		finder.Tab = m.finder.Tab
		finder.Search, finder.AllSearch = m.finder.Search, m.finder.AllSearch
		if slices.Contains(finder.Courses(), m.finder.Course) {
			finder.Course = m.finder.Course
		}
		m.finder = finder
		m.loaded = true
		m.status = statusLine{}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m.returnTo, m.returnTo.Init()
		case "tab":
			if m.finder.Tab == state.PeersSuggested {
				m.finder.Tab = state.PeersAll
				m.search.SetValue(m.finder.AllSearch)
			} else {
				m.finder.Tab = state.PeersSuggested
				m.search.SetValue(m.finder.Search)
			}
			m.cursor = 0
			return m, nil
		case "ctrl+n", "ctrl+b":
			if m.finder.Tab != state.PeersSuggested {
				return m, nil
			}
			step := 1
			if msg.String() == "ctrl+b" {
				step = -1
			}
			m.finder.CycleCourse(step)
			m.cursor = 0
			return m, nil
		case "up":
			m.cursor = clampIndex(m.cursor-1, len(m.finder.Visible()))
			return m, nil
		case "down":
			m.cursor = clampIndex(m.cursor+1, len(m.finder.Visible()))
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.syncSearch()
	m.cursor = clampIndex(m.cursor, len(m.finder.Visible()))
	return m, cmd
}

func (m FindPeersModel) View() string {
	tab := 0
	if m.finder.Tab == state.PeersAll {
		tab = 1
	}
	tabs := styles.RenderTabs([]string{
		fmt.Sprintf("Suggested (%d)", len(m.finder.Suggested)),
		fmt.Sprintf("All peers (%d)", len(m.finder.All)),
	}, tab)

	filters := renderField("Search", m.search)
	if m.finder.Tab == state.PeersSuggested {
		filters += "\n" + styles.InputLabelStyle.Render("Course  ") + styles.ActiveItemStyle.Render(m.finder.Course)
	}

	var b strings.Builder
	visible := m.finder.Visible()
	if m.loaded && len(visible) == 0 {
		b.WriteString(styles.MutedTextStyle.Render("No peers match."))
	}
	for i, peer := range visible {
		name := peer.User.Name
		if i == m.cursor {
			b.WriteString(styles.KeyStyle.Render("> ") + styles.ListItemTitleSelectedStyle.Render(name))
		} else {
			b.WriteString("  " + styles.ListItemTitleStyle.Render(name))
		}
		if peer.User.Email != "" {
			b.WriteString(styles.ListItemMetaStyle.Render("  " + peer.User.Email))
		}
		b.WriteString("\n")
		if peer.CommonCoursesCount > 0 {
			shared := fmt.Sprintf("%d shared: %s", peer.CommonCoursesCount, strings.Join(peer.CommonCourses, ", "))
			b.WriteString("    " + styles.ListItemMetaStyle.Render(shared) + "\n")
		}
		if i == m.cursor && peer.User.AboutMe != "" {
			b.WriteString("    " + styles.MutedTextStyle.Render(state.Truncate(peer.User.AboutMe, 80)) + "\n")
		}
	}

	body := lipgloss.JoinVertical(lipgloss.Left, tabs, "", filters, "", strings.TrimRight(b.String(), "\n"))
	bindings := []string{
		styles.RenderKeyBinding("Tab", "Suggested/All"),
		styles.RenderKeyBinding("↑/↓", "Navigate"),
	}
	if m.finder.Tab == state.PeersSuggested {
		bindings = append(bindings, styles.RenderKeyBinding("Ctrl+N/B", "Course filter"))
	}
	bindings = append(bindings, styles.RenderKeyBinding("Esc", "Back"))
	return renderPage(m.width, m.height, "Find peers", "Classmates who share your courses.", body, m.status, styles.RenderHelp(bindings...))
}
