package models

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	appmodels "github.com/Wal-20/studysphere-cli/internal/models"
	"github.com/Wal-20/studysphere-cli/internal/tui/client"
	"github.com/Wal-20/studysphere-cli/internal/tui/styles"
)

// CoursesModel browses the course catalogue and the study groups of each
// course.
type CoursesModel struct {
	apiClient *client.APIClient
	returnTo  tea.Model

	courses   []appmodels.Course
	mine      map[string]bool
	onlyMine  bool
	courseIdx int

	groups     []appmodels.Group
	groupIdx   int
	groupsFor  string
	groupsPane bool

	loading bool
	status  statusLine
	width   int
	height  int
}

type (
	coursesLoadedMsg struct {
		courses []appmodels.Course
		mine    []appmodels.Course
		err     error
	}
	courseGroupsMsg struct {
		courseID string
		groups   []appmodels.Group
		err      error
	}
	groupJoinedMsg struct {
		group  appmodels.Group
		result client.JoinResult
		err    error
	}
	groupCreatedMsg struct {
		group appmodels.Group
	}
)

func NewCoursesModel(apiClient *client.APIClient, returnTo tea.Model) CoursesModel {
	m := CoursesModel{apiClient: apiClient, returnTo: returnTo, loading: true, mine: map[string]bool{}}
	m.status.info("Loading courses...")
	return m
}

func (m CoursesModel) Init() tea.Cmd {
	api := m.apiClient
	return func() tea.Msg {
		courses, err := api.Courses()
		if err != nil {
			return coursesLoadedMsg{err: err}
		}
		mine, _ := api.MyCourses()
		return coursesLoadedMsg{courses: courses, mine: mine}
	}
}

func (m CoursesModel) visibleCourses() []appmodels.Course {
	if !m.onlyMine {
		return m.courses
	}
	var out []appmodels.Course
	for _, c := range m.courses {
		if m.mine[c.CourseID] {
			out = append(out, c)
		}
	}
	return out
}

func (m CoursesModel) selectedCourse() (appmodels.Course, bool) {
	courses := m.visibleCourses()
	if len(courses) == 0 {
		return appmodels.Course{}, false
	}
	return courses[clampIndex(m.courseIdx, len(courses))], true
}

func loadCourseGroups(api *client.APIClient, courseID string) tea.Cmd {
	return func() tea.Msg {
		groups, err := api.GroupsForCourse(courseID)
		return courseGroupsMsg{courseID: courseID, groups: groups, err: err}
	}
}

func joinGroupCmd(api *client.APIClient, g appmodels.Group, passkey string) tea.Cmd {
	return func() tea.Msg {
		res, err := api.JoinGroup(g.GroupID, passkey)
		return groupJoinedMsg{group: g, result: res, err: err}
	}
}

func (m CoursesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case coursesLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.status.failErr(msg.err)
			return m, checkAuth(msg.err)
		}
		m.courses = msg.courses
		m.mine = map[string]bool{}
		for _, c := range msg.mine {
			m.mine[c.CourseID] = true
		}
		m.status = statusLine{}
		if c, ok := m.selectedCourse(); ok {
			return m, loadCourseGroups(m.apiClient, c.CourseID)
		}
		return m, nil

	case courseGroupsMsg:
		if msg.err != nil {
			m.status.failErr(msg.err)
			return m, checkAuth(msg.err)
		}
		if c, ok := m.selectedCourse(); ok && c.CourseID == msg.courseID {
			m.groups = msg.groups
			m.groupsFor = msg.courseID
			m.groupIdx = clampIndex(m.groupIdx, len(m.groups))
		}
		return m, nil

	case groupJoinedMsg:
		if msg.err != nil {
			m.status.failErr(msg.err)
			return m, checkAuth(msg.err)
		}
		text := msg.result.Message
		if text == "" {
			text = "Joined " + msg.group.Name
		}
		if strings.EqualFold(msg.result.Status, appmodels.RequestPending) {
			m.status.info(text)
		} else {
			m.status.success(text)
		}
		return m, loadCourseGroups(m.apiClient, m.groupsFor)

	case groupCreatedMsg:
		m.status.success("Created " + msg.group.Name)
		return m, loadCourseGroups(m.apiClient, m.groupsFor)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m CoursesModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		return m.returnTo, m.returnTo.Init()
	case "tab", "left", "right", "h", "l":
		m.groupsPane = !m.groupsPane
		return m, nil
	case "m":
		m.onlyMine = !m.onlyMine
		m.courseIdx = 0
		m.groups = nil
		if c, ok := m.selectedCourse(); ok {
			return m, loadCourseGroups(m.apiClient, c.CourseID)
		}
		return m, nil
	case "up", "k", "down", "j":
		step := 1
		if s := msg.String(); s == "up" || s == "k" {
			step = -1
		}
		if m.groupsPane {
			m.groupIdx = clampIndex(m.groupIdx+step, len(m.groups))
			return m, nil
		}
		prev := m.courseIdx
		m.courseIdx = clampIndex(m.courseIdx+step, len(m.visibleCourses()))
		if m.courseIdx != prev {
			m.groups = nil
			m.groupIdx = 0
			if c, ok := m.selectedCourse(); ok {
				return m, loadCourseGroups(m.apiClient, c.CourseID)
			}
		}
		return m, nil
	case "n":
		c, ok := m.selectedCourse()
		if !ok {
			return m, nil
		}
		next := NewCreateGroupModel(m.apiClient, c, m)
		return next, next.Init()
	}

	if !m.groupsPane || len(m.groups) == 0 {
		if msg.String() == "enter" {
			m.groupsPane = true
		}
		return m, nil
	}
	g := m.groups[clampIndex(m.groupIdx, len(m.groups))]
	switch msg.String() {
	case "enter":
		detail := NewGroupDetailModel(m.apiClient, g.GroupID, m)
		return detail, detail.Init()
	case "J":
		if g.HasPasskey {
			next := NewJoinGroupModal(m.apiClient, g, m)
			return next, next.Init()
		}
		m.status.info("Joining " + g.Name + "...")
		return m, joinGroupCmd(m.apiClient, g, "")
	}
	return m, nil
}

func (m CoursesModel) View() string {
	paneWidth := 36
	if m.width > 0 {
		paneWidth = max((m.width-10)/2, 28)
	}

	var left strings.Builder
	title := "All courses"
	if m.onlyMine {
		title = "My courses"
	}
	left.WriteString(styles.SectionTitleStyle.Render(title) + "\n")
	courses := m.visibleCourses()
	if m.loading {
		left.WriteString(styles.MutedTextStyle.Render("Loading..."))
	} else if len(courses) == 0 {
		left.WriteString(styles.MutedTextStyle.Render("No courses to show."))
	}
	for i, c := range courses {
		mark := "  "
		if m.mine[c.CourseID] {
			mark = styles.StatusSuccessStyle.Render("✓ ")
		}
		line := fmt.Sprintf("%s %s", c.CourseID, c.CourseName)
		if i == m.courseIdx {
			left.WriteString(mark + styles.ListItemTitleSelectedStyle.Render(line) + "\n")
		} else {
			left.WriteString(mark + styles.ListItemTitleStyle.Render(line) + "\n")
		}
	}

	var right strings.Builder
	right.WriteString(styles.SectionTitleStyle.Render("Study groups") + "\n")
	if c, ok := m.selectedCourse(); ok && c.Description != "" {
		right.WriteString(styles.MutedTextStyle.Render(c.Description) + "\n\n")
	}
	if len(m.groups) == 0 {
		right.WriteString(styles.MutedTextStyle.Render("No groups yet. Press n to create one."))
	}
	for i, g := range m.groups {
		lock := ""
		if g.HasPasskey {
			lock = " 🔒"
		}
		meta := fmt.Sprintf("%s · %d/%d members", strings.ToLower(g.Privacy), g.MemberCount, g.MemberLimit)
		name := g.Name + lock
		if m.groupsPane && i == m.groupIdx {
			right.WriteString(styles.ListItemTitleSelectedStyle.Render("> "+name) + "\n")
		} else {
			right.WriteString(styles.ListItemTitleStyle.Render("  "+name) + "\n")
		}
		right.WriteString("    " + styles.ListItemMetaStyle.Render(meta) + "\n")
	}

	leftStyle, rightStyle := styles.PaneFocusedStyle, styles.PaneStyle
	if m.groupsPane {
		leftStyle, rightStyle = styles.PaneStyle, styles.PaneFocusedStyle
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		leftStyle.Copy().Width(paneWidth).Render(strings.TrimRight(left.String(), "\n")),
		" ",
		rightStyle.Copy().Width(paneWidth).Render(strings.TrimRight(right.String(), "\n")),
	)

	help := styles.RenderHelp(
		styles.RenderKeyBinding("↑/↓", "Navigate"),
		styles.RenderKeyBinding("Tab", "Switch pane"),
		styles.RenderKeyBinding("Enter", "Open group"),
		styles.RenderKeyBinding("J", "Join"),
		styles.RenderKeyBinding("n", "New group"),
		styles.RenderKeyBinding("m", "My courses"),
		styles.RenderKeyBinding("Esc", "Back"),
	)
	return renderPage(m.width, m.height, "Courses", "Find a study group for any course.", body, m.status, help)
}
