package models

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	appmodels "github.com/Wal-20/studysphere-cli/internal/models"
	"github.com/Wal-20/studysphere-cli/internal/tui/client"
	"github.com/Wal-20/studysphere-cli/internal/tui/state"
	"github.com/Wal-20/studysphere-cli/internal/tui/styles"
)

var groupTabs = []string{"About", "Members", "Files", "Sessions"}

const (
	tabAbout = iota
	tabMembers
	tabFiles
	tabSessions
)

// GroupDetailModel shows one group to members and visitors alike.
type GroupDetailModel struct {
	apiClient *client.APIClient
	groupID   int64
	returnTo  tea.Model

	group   appmodels.Group
	members []appmodels.Member
	docs    []appmodels.Document
	events  []appmodels.CalendarEvent
	role    string
	loaded  bool

	tab    int
	cursor int
	status statusLine
	width  int
	height int
}

type (
	groupLoadedMsg struct {
		bundle client.GroupBundle
		err    error
	}
	groupDocsMsg struct {
		docs []appmodels.Document
		err  error
	}
	groupEventsMsg struct {
		events []appmodels.CalendarEvent
		err    error
	}
	groupLeftMsg struct{ err error }
	// groupFileMsg reports an upload or download from the Files tab.
	groupFileMsg struct {
		done   string
		reload bool
		err    error
	}
)

func NewGroupDetailModel(apiClient *client.APIClient, groupID int64, returnTo tea.Model) GroupDetailModel {
	m := GroupDetailModel{apiClient: apiClient, groupID: groupID, returnTo: returnTo}
	m.status.info("Loading group...")
	return m
}

func (m GroupDetailModel) Init() tea.Cmd {
	api, id := m.apiClient, m.groupID
	return func() tea.Msg {
		b, err := api.LoadGroup(id)
		return groupLoadedMsg{bundle: b, err: err}
	}
}

func loadGroupDocs(api *client.APIClient, groupID int64) tea.Cmd {
	return func() tea.Msg {
		docs, err := api.GroupDocuments(groupID)
		return groupDocsMsg{docs: docs, err: err}
	}
}

func loadGroupEvents(api *client.APIClient, groupID int64) tea.Cmd {
	return func() tea.Msg {
		events, err := api.GroupEvents(groupID)
		return groupEventsMsg{events: events, err: err}
	}
}

func (m GroupDetailModel) isMember() bool {
	return m.role == appmodels.RoleOwner || m.role == appmodels.RoleMember
}

func (m GroupDetailModel) listLen() int {
	switch m.tab {
	case tabMembers:
		return len(m.members)
	case tabFiles:
		return len(m.docs)
	case tabSessions:
		return len(m.events)
	}
	return 0
}

func (m GroupDetailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case groupLoadedMsg:
		if msg.err != nil {
			m.status.failErr(msg.err)
			return m, checkAuth(msg.err)
		}
		m.group = msg.bundle.Group
		m.members = msg.bundle.Members
		m.role = state.DetailRole(m.group, m.members, m.apiClient.CurrentUser().ID)
		m.loaded = true
		m.status = statusLine{}
		return m, m.loadTab()

	case groupDocsMsg:
		if msg.err != nil {
			m.status.failErr(msg.err)
			return m, checkAuth(msg.err)
		}
		m.docs = msg.docs
		return m, nil

	case groupEventsMsg:
		if msg.err != nil {
			m.status.failErr(msg.err)
			return m, checkAuth(msg.err)
		}
		m.events = msg.events
		return m, nil

	case groupJoinedMsg:
		if msg.err != nil {
			m.status.failErr(msg.err)
			return m, checkAuth(msg.err)
		}
		if strings.EqualFold(msg.result.Status, appmodels.RequestPending) {
			m.status.info(orDash(msg.result.Message))
		} else {
			m.status.success("You joined " + m.group.Name)
		}
		return m, m.Init()

	case groupLeftMsg:
		if msg.err != nil {
			m.status.failErr(msg.err)
			return m, checkAuth(msg.err)
		}
		return m.returnTo, m.returnTo.Init()

	case groupFileMsg:
		if msg.err != nil {
			m.status.failErr(msg.err)
			return m, checkAuth(msg.err)
		}
		m.status.success(msg.done)
		if msg.reload {
			return m, loadGroupDocs(m.apiClient, m.groupID)
		}
		return m, nil

	case sessionSavedMsg:
		m.status.success("Session scheduled")
		return m, loadGroupEvents(m.apiClient, m.groupID)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// loadTab fetches what the current tab shows, for members only.
func (m GroupDetailModel) loadTab() tea.Cmd {
	if !m.isMember() {
		return nil
	}
	switch m.tab {
	case tabFiles:
		return loadGroupDocs(m.apiClient, m.groupID)
	case tabSessions:
		return loadGroupEvents(m.apiClient, m.groupID)
	}
	return nil
}

func (m GroupDetailModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !m.loaded {
		if s := msg.String(); s == "esc" || s == "q" {
			return m.returnTo, m.returnTo.Init()
		}
		return m, nil
	}
	api := m.apiClient
	switch msg.String() {
	case "esc", "q":
		return m.returnTo, m.returnTo.Init()
	case "left", "h", "shift+tab":
		m.tab = (m.tab + len(groupTabs) - 1) % len(groupTabs)
		m.cursor = 0
		return m, m.loadTab()
	case "right", "l", "tab":
		m.tab = (m.tab + 1) % len(groupTabs)
		m.cursor = 0
		return m, m.loadTab()
	case "up", "k":
		m.cursor = clampIndex(m.cursor-1, m.listLen())
		return m, nil
	case "down", "j":
		m.cursor = clampIndex(m.cursor+1, m.listLen())
		return m, nil
	case "r":
		return m, m.Init()
	case "J":
		if m.isMember() {
			return m, nil
		}
		if m.group.HasPasskey {
			next := NewJoinGroupModal(api, m.group, m)
			return next, next.Init()
		}
		m.status.info("Joining...")
		return m, joinGroupCmd(api, m.group, "")
	}

	if !m.isMember() {
		return m, nil
	}
	switch msg.String() {
	case "c":
		cs := newChatSession(api, m.group.GroupID, m.group.Name)
		chat := NewGroupChatModel(api, cs, m)
		return chat, tea.Batch(registerChat(cs), chat.Init())
	case "o":
		return m, openDock(m.group.GroupID, m.group.Name)
	case "m":
		next := NewGroupManageModel(api, m.groupID, m)
		return next, next.Init()
	case "L":
		id := m.groupID
		warning := state.LeaveWarning(m.role, m.group, m.members, api.CurrentUser().ID)
		return NewConfirmModal("Leave "+m.group.Name, warning, m, func() tea.Msg {
			return groupLeftMsg{err: api.LeaveGroup(id)}
		}), nil
	case "u":
		if m.tab != tabFiles {
			return m, nil
		}
		id := m.groupID
		return NewPromptModal("Upload document", "Path of the file to share with "+m.group.Name, "~/notes.pdf", m, func(path string) tea.Cmd {
			return func() tea.Msg {
				path = expandHome(path)
				err := api.UploadDocument(id, path)
				return groupFileMsg{done: "Uploaded " + filepath.Base(path), reload: true, err: err}
			}
		}), nil
	case "enter", "d":
		if m.tab != tabFiles || len(m.docs) == 0 {
			return m, nil
		}
		doc := m.docs[clampIndex(m.cursor, len(m.docs))]
		m.status.info("Downloading " + doc.OriginalFilename + "...")
		return m, func() tea.Msg {
			path, err := api.DownloadDocument(fmt.Sprint(doc.MessageID), downloadsDir, doc.OriginalFilename)
			return groupFileMsg{done: "Saved to " + path, err: err}
		}
	case "n":
		if m.tab != tabSessions {
			return m, nil
		}
		groups := []appmodels.Group{m.group}
		next := NewSessionFormModel(api, groups, m)
		return next, next.Init()
	}
	return m, nil
}

func (m GroupDetailModel) View() string {
	if !m.loaded {
		return renderPage(m.width, m.height, "Group", "", "", m.status, styles.RenderHelp(styles.RenderKeyBinding("Esc", "Back")))
	}

	subtitle := m.group.CourseName()
	if badge := styles.RoleBadge(m.role); badge != "" {
		subtitle += "  " + badge
	}

	var body string
	if !m.isMember() && m.tab != tabAbout {
		body = styles.MutedTextStyle.Render("Join the group to see its members, files and sessions.")
	} else {
		switch m.tab {
		case tabAbout:
			body = m.renderAbout()
		case tabMembers:
			body = m.renderMembers()
		case tabFiles:
			body = m.renderFiles()
		case tabSessions:
			body = m.renderSessions()
		}
	}
	body = styles.RenderTabs(groupTabs, m.tab) + "\n\n" + body

	bindings := []string{styles.RenderKeyBinding("←/→", "Tabs")}
	if m.isMember() {
		bindings = append(bindings,
			styles.RenderKeyBinding("c", "Chat"),
			styles.RenderKeyBinding("o", "Chat in dock"),
			styles.RenderKeyBinding("m", "Manage"),
			styles.RenderKeyBinding("L", "Leave"),
		)
		switch m.tab {
		case tabFiles:
			bindings = append(bindings, styles.RenderKeyBinding("u", "Upload"), styles.RenderKeyBinding("Enter", "Download"))
		case tabSessions:
			bindings = append(bindings, styles.RenderKeyBinding("n", "New session"))
		}
	} else {
		bindings = append(bindings, styles.RenderKeyBinding("J", "Join"))
	}
	bindings = append(bindings, styles.RenderKeyBinding("r", "Refresh"), styles.RenderKeyBinding("Esc", "Back"))

	return renderPage(m.width, m.height, m.group.Name, subtitle, body, m.status, styles.RenderHelp(bindings...))
}

func (m GroupDetailModel) renderAbout() string {
	g := m.group
	owner := "-"
	if g.CreatedBy != nil {
		owner = g.CreatedBy.Name
	}
	privacy := strings.ToLower(orDash(g.Privacy))
	if g.HasPasskey {
		privacy += " · passkey required"
	}
	rows := []string{
		orDash(g.Description),
		"",
		styles.InputLabelStyle.Render("Course   ") + orDash(g.CourseName()),
		styles.InputLabelStyle.Render("Owner    ") + owner,
		styles.InputLabelStyle.Render("Privacy  ") + privacy,
		styles.InputLabelStyle.Render("Members  ") + fmt.Sprintf("%d / %d", len(m.members), g.MemberLimit),
	}
	return strings.Join(rows, "\n")
}

func (m GroupDetailModel) renderMembers() string {
	if len(m.members) == 0 {
		return styles.MutedTextStyle.Render("No members.")
	}
	var sb strings.Builder
	for i, mem := range m.members {
		role := mem.Role
		if mem.UserID == m.group.CreatorID() {
			role = appmodels.RoleOwner
		}
		line := fmt.Sprintf("%s  %s", mem.Name, styles.RoleBadge(role))
		if i == m.cursor {
			sb.WriteString(styles.ListItemTitleSelectedStyle.Render("> ") + line + "\n")
		} else {
			sb.WriteString("  " + line + "\n")
		}
		if !mem.JoinedAt.IsZero() {
			sb.WriteString("    " + styles.ListItemMetaStyle.Render("joined "+state.DayLabel(mem.JoinedAt.Time)) + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m GroupDetailModel) renderFiles() string {
	if len(m.docs) == 0 {
		return styles.MutedTextStyle.Render("No files shared yet. Press u to upload one.")
	}
	var sb strings.Builder
	now := time.Now()
	for i, d := range m.docs {
		name := "📎 " + d.OriginalFilename
		if i == m.cursor {
			sb.WriteString(styles.ListItemTitleSelectedStyle.Render("> "+name) + "\n")
		} else {
			sb.WriteString(styles.ListItemTitleStyle.Render("  "+name) + "\n")
		}
		meta := fmt.Sprintf("%s · %s · %s", appmodels.HumanSize(d.FileSize), orDash(d.SenderName), state.RelativeTime(d.UploadTime.Time, now))
		sb.WriteString("    " + styles.ListItemMetaStyle.Render(meta) + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m GroupDetailModel) renderSessions() string {
	if len(m.events) == 0 {
		return styles.MutedTextStyle.Render("No sessions scheduled. Press n to plan one.")
	}
	var sb strings.Builder
	for i, ev := range m.events {
		title := ev.Topic
		if i == m.cursor {
			sb.WriteString(styles.ListItemTitleSelectedStyle.Render("> "+title) + "\n")
		} else {
			sb.WriteString(styles.ListItemTitleStyle.Render("  "+title) + "\n")
		}
		sb.WriteString("    " + styles.ListItemMetaStyle.Render(eventMeta(ev)) + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// eventMeta is the one-line summary of a session used across pages.
func eventMeta(ev appmodels.CalendarEvent) string {
	start := ev.StartTime.Local()
	when := fmt.Sprintf("%s %s-%s", start.Format("Mon Jan 2"), start.Format("15:04"), ev.EndTime.Local().Format("15:04"))
	where := ev.Location
	if ev.IsOnline() && ev.MeetingLink != "" {
		where = ev.MeetingLink
	}
	parts := []string{when, strings.ToLower(ev.SessionType)}
	if where != "" {
		parts = append(parts, where)
	}
	if ev.Status != "" && ev.Status != appmodels.EventOngoing {
		parts = append(parts, strings.ToLower(ev.Status))
	}
	return strings.Join(parts, " · ")
}
