package models

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Wal-20/studysphere-cli/internal/tui/client"
	"github.com/Wal-20/studysphere-cli/internal/tui/state"
	"github.com/Wal-20/studysphere-cli/internal/tui/styles"
)

// ServerDownModel shows a centered, friendly message when the API server is unreachable.
type ServerDownModel struct {
	apiClient *client.APIClient
	err       error
	checking  bool
	width     int
	height    int
}

func NewServerDownModel(apiClient *client.APIClient, err error) ServerDownModel {
	return ServerDownModel{apiClient: apiClient, err: err}
}

func (m ServerDownModel) Init() tea.Cmd { return nil }

// pingServer reports whether the backend answers.
func pingServer(api *client.APIClient) tea.Cmd {
	return func() tea.Msg {
		if err := api.Ping(); err != nil {
			return serverDownMsg{err: err}
		}
		return serverUpMsg{}
	}
}

func (m ServerDownModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case serverDownMsg:
		m.checking = false
		m.err = msg.err
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			if m.checking {
				return m, nil
			}
			m.checking = true
			return m, pingServer(m.apiClient)
		}
	}
	return m, nil
}

func (m ServerDownModel) View() string {
	// Content width capped for better readability
	cw := m.width - 8
	if cw > 64 {
		cw = 64
	}
	if cw < 32 {
		cw = m.width - 4
		if cw < 20 {
			cw = m.width
		}
	}

	title := styles.TitleStyle.Render("StudySphere")
	friendly := styles.MutedTextStyle.Render("We can't reach the StudySphere server right now.")
	detail := ""
	switch {
	case m.checking:
		detail = styles.StatusInfoStyle.Render("Checking...")
	case m.err != nil:
		detail = styles.StatusErrorStyle.Render(state.Truncate(client.ErrorText(m.err), max(cw, 20)))
	}

	titleLine := lipgloss.Place(cw, 1, lipgloss.Center, lipgloss.Center, title)
	bodyLine := lipgloss.PlaceHorizontal(cw, lipgloss.Center, friendly)
	detailLine := lipgloss.PlaceHorizontal(cw, lipgloss.Center, detail)

	help := styles.RenderHelp(
		styles.RenderKeyBinding("r", "Retry"),
		styles.RenderKeyBinding("q", "Quit"),
	)
	footer := lipgloss.PlaceHorizontal(cw, lipgloss.Center, help)

	card := styles.CardStyle.Copy().Width(cw).Render(strings.Join([]string{
		titleLine,
		"",
		bodyLine,
		detailLine,
		"",
		footer,
	}, "\n"))

	return centered(m.width, m.height, card)
}
