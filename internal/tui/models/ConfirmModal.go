package models

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Wal-20/studysphere-cli/internal/tui/styles"
)

// ConfirmModal asks a yes/no question. Confirming returns to the previous
// page and runs onConfirm; anything else just returns.
type ConfirmModal struct {
	title     string
	question  string
	returnTo  tea.Model
	onConfirm tea.Cmd
	yes       bool
	width     int
	height    int
}

func NewConfirmModal(title, question string, returnTo tea.Model, onConfirm tea.Cmd) ConfirmModal {
	return ConfirmModal{title: title, question: question, returnTo: returnTo, onConfirm: onConfirm}
}

func (m ConfirmModal) Init() tea.Cmd { return nil }

func (m ConfirmModal) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "y", "Y":
			return m.returnTo, m.onConfirm
		case "n", "N", "esc", "q":
			return m.returnTo, nil
		case "left", "right", "tab", "h", "l":
			m.yes = !m.yes
		case "enter":
			if m.yes {
				return m.returnTo, m.onConfirm
			}
			return m.returnTo, nil
		}
	}
	return m, nil
}

func (m ConfirmModal) View() string {
	buttons := styles.RenderButton("Cancel", !m.yes) + "  " + styles.RenderButton("Confirm", m.yes)
	help := styles.RenderHelp(
		styles.RenderKeyBinding("y", "Confirm"),
		styles.RenderKeyBinding("n/Esc", "Cancel"),
		styles.RenderKeyBinding("←/→", "Choose"),
	)
	content := strings.Join([]string{
		styles.CardTitleStyle.Render(m.title),
		m.question,
		buttons,
		help,
	}, "\n\n")
	return centered(m.width, m.height, styles.DangerModalStyle.Render(content))
}
