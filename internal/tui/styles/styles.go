package styles

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type color interface {
	Value() lipgloss.Color
}

type ColorType struct {
	value lipgloss.Color
}

func (c ColorType) Value() lipgloss.Color {
	return c.value
}

var _ color = ColorType{}

var (
	PrimaryColor   = ColorType{lipgloss.Color("#2563EB")}
	SecondaryColor = ColorType{lipgloss.Color("#7C3AED")}
	AccentColor    = ColorType{lipgloss.Color("#FFFFFF")}
	MutedColor     = ColorType{lipgloss.Color("#4A4A4A")}
	SubtleColor    = ColorType{lipgloss.Color("#71717A")}

	RedColor    = ColorType{lipgloss.Color("9")}
	AmberColor  = ColorType{lipgloss.Color("#F59E0B")}
	AquaColor   = ColorType{lipgloss.Color("86")}
	LimeColor   = ColorType{lipgloss.Color("#22C55E")}
	YellowColor = ColorType{lipgloss.Color("#FDE047")}

	AppStyle = lipgloss.NewStyle().Padding(1, 2)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor.Value())

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor.Value()).
			Italic(true)

	SectionTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(SecondaryColor.Value()).
				MarginBottom(1)

	MutedTextStyle = lipgloss.NewStyle().Foreground(SubtleColor.Value())

	// Cards and modals

	CardStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(SecondaryColor.Value()).
			Padding(1, 3)

	CardTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor.Value())

	CardSubtitleStyle = lipgloss.NewStyle().Foreground(SubtleColor.Value())

	ModalStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.DoubleBorder()).
			BorderForeground(PrimaryColor.Value()).
			Padding(1, 3)

	DangerModalStyle = ModalStyle.Copy().BorderForeground(RedColor.Value())

	PaneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(MutedColor.Value()).
			Padding(0, 1)

	PaneFocusedStyle = PaneStyle.Copy().BorderForeground(PrimaryColor.Value())

	StatCardStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(SecondaryColor.Value()).
			Padding(0, 2).
			MarginRight(1).
			Align(lipgloss.Center)

	StatValueStyle = lipgloss.NewStyle().Bold(true).Foreground(AccentColor.Value())

	// Lists

	ActiveItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(PrimaryColor.Value()).
			Bold(true).
			Padding(0, 1)

	InactiveItemStyle = lipgloss.NewStyle().Padding(0, 1)

	ListItemTitleStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	ListItemTitleSelectedStyle = lipgloss.NewStyle().Foreground(PrimaryColor.Value()).Bold(true)
	ListItemUnreadStyle        = lipgloss.NewStyle().Foreground(AccentColor.Value()).Bold(true)
	ListItemMetaStyle          = lipgloss.NewStyle().Foreground(SubtleColor.Value())

	TabStyle       = lipgloss.NewStyle().Foreground(SubtleColor.Value()).Padding(0, 1)
	ActiveTabStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor.Value()).
			Bold(true).
			Underline(true).
			Padding(0, 1)

	// Role badges

	OwnerBadgeStyle  = badge(LimeColor)
	AdminBadgeStyle  = badge(AquaColor)
	MemberBadgeStyle = badge(SubtleColor)

	// Inputs

	InputPromptStyle        = lipgloss.NewStyle().Foreground(SubtleColor.Value())
	InputPromptFocusedStyle = lipgloss.NewStyle().Foreground(PrimaryColor.Value()).Bold(true)
	InputTextStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	InputTextFocusedStyle   = lipgloss.NewStyle().Foreground(AccentColor.Value())
	InputPlaceholderStyle   = lipgloss.NewStyle().Foreground(MutedColor.Value())
	InputLabelStyle         = lipgloss.NewStyle().Foreground(SubtleColor.Value())

	InputFieldStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(MutedColor.Value()).
			Padding(0, 1)

	InputFieldFocusedStyle = InputFieldStyle.Copy().BorderForeground(PrimaryColor.Value())

	ButtonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Background(MutedColor.Value()).
			Padding(0, 3)

	ButtonFocusedStyle = ButtonStyle.Copy().
				Foreground(AccentColor.Value()).
				Background(PrimaryColor.Value()).
				Bold(true)

	// Status line

	KeyStyle  = lipgloss.NewStyle().Foreground(PrimaryColor.Value()).Bold(true)
	HelpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))

	StatusMessageStyle = lipgloss.NewStyle().Foreground(SubtleColor.Value())
	StatusInfoStyle    = lipgloss.NewStyle().Foreground(AquaColor.Value())
	StatusSuccessStyle = lipgloss.NewStyle().Foreground(LimeColor.Value())
	StatusErrorStyle   = lipgloss.NewStyle().Foreground(RedColor.Value())
	StatusWarnStyle    = lipgloss.NewStyle().Foreground(AmberColor.Value())

	StatusBarStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(MutedColor.Value()).
			PaddingTop(0)

	HeaderBarStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(MutedColor.Value()).
			MarginBottom(1)

	UnreadBadgeStyle = lipgloss.NewStyle().
				Foreground(AccentColor.Value()).
				Background(RedColor.Value()).
				Bold(true).
				Padding(0, 1)

	// Chat

	UsernameStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor.Value()).
			Bold(true)

	OwnUsernameStyle = lipgloss.NewStyle().
				Foreground(LimeColor.Value()).
				Bold(true)

	MessageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			PaddingLeft(2)

	EmojiMessageStyle = MessageStyle.Copy().Bold(true).PaddingLeft(4)

	SelectedMessageStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderLeft(true).
				BorderForeground(PrimaryColor.Value())

	ReplyQuoteStyle = lipgloss.NewStyle().
			Foreground(SubtleColor.Value()).
			Italic(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(SecondaryColor.Value()).
			PaddingLeft(1).
			MarginLeft(2)

	PinnedChipStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1F2937")).
			Background(YellowColor.Value()).
			Padding(0, 1).
			MarginRight(1)

	PollStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(AmberColor.Value()).
			Padding(0, 1).
			MarginLeft(2)

	DocumentStyle = lipgloss.NewStyle().
			Foreground(AquaColor.Value()).
			MarginLeft(2)

	TimestampStyle = lipgloss.NewStyle().Foreground(SubtleColor.Value()).Italic(true)

	DateSeparatorStyle = lipgloss.NewStyle().
				Foreground(SubtleColor.Value()).
				Align(lipgloss.Center)

	ChatInputStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(MutedColor.Value())

	DockTabStyle       = TabStyle.Copy()
	DockActiveTabStyle = ActiveTabStyle.Copy().Foreground(LimeColor.Value())

	NavStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF8800"))
)

func badge(c ColorType) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(c.Value()).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(c.Value()).
		BorderLeft(true).
		PaddingLeft(1)
}

// RenderKeyBinding renders "key description" for help bars.
func RenderKeyBinding(key, desc string) string {
	return KeyStyle.Render(key) + " " + HelpStyle.Render(desc)
}

// RenderHelp joins key bindings into one help line.
func RenderHelp(bindings ...string) string {
	return HelpStyle.Render(strings.Join(bindings, HelpStyle.Render("  ")))
}

func RenderButton(label string, focused bool) string {
	if focused {
		return ButtonFocusedStyle.Render(label)
	}
	return ButtonStyle.Render(label)
}

// RoleBadge renders the owner, admin or member tag.
func RoleBadge(role string) string {
	switch strings.ToLower(role) {
	case "owner":
		return OwnerBadgeStyle.Render("owner")
	case "admin":
		return AdminBadgeStyle.Render("admin")
	case "member":
		return MemberBadgeStyle.Render("member")
	}
	return ""
}

// Toast kinds for RenderStatus.
const (
	ToastInfo = iota
	ToastSuccess
	ToastWarn
	ToastError
)

// RenderStatus renders one status-line toast.
func RenderStatus(kind int, text string) string {
	if text == "" {
		return ""
	}
	switch kind {
	case ToastSuccess:
		return StatusSuccessStyle.Render(text)
	case ToastWarn:
		return StatusWarnStyle.Render(text)
	case ToastError:
		return StatusErrorStyle.Render(text)
	}
	return StatusInfoStyle.Render(text)
}

// RenderTabs renders a tab strip with the active tab highlighted.
func RenderTabs(tabs []string, active int) string {
	parts := make([]string, len(tabs))
	for i, t := range tabs {
		if i == active {
			parts[i] = ActiveTabStyle.Render(t)
		} else {
			parts[i] = TabStyle.Render(t)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// RenderStat renders one dashboard counter card.
func RenderStat(label string, value int) string {
	return StatCardStyle.Render(StatValueStyle.Render(fmt.Sprintf("%d", value)) + "\n" + MutedTextStyle.Render(label))
}
