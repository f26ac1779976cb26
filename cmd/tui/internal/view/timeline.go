package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dmcalde/sitework/internal/auth"
	"github.com/dmcalde/sitework/internal/progress"
	"github.com/dmcalde/sitework/internal/project"
)

// TimelineModel shows a project's daily progress entries oldest first.
type TimelineModel struct {
	CommonModel
	principal   auth.Principal
	projectSvc  *project.Service
	progressSvc *progress.Service

	state  timelineState
	picker projectPicker
	table  table.Model

	entries []*progress.Entry
	loading bool
	status  string
}

type timelineState int

const (
	timelineStateSelectProject timelineState = iota
	timelineStateBrowse
)

func NewTimelineModel(principal auth.Principal, projectSvc *project.Service, progressSvc *progress.Service) TimelineModel {
	columns := []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Stage", Width: 12},
		{Title: "Inc %", Width: 7},
		{Title: "Cum %", Width: 7},
		{Title: "Hours", Width: 7},
		{Title: "On Site", Width: 8},
		{Title: "Notes", Width: 40},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return TimelineModel{
		principal:   principal,
		projectSvc:  projectSvc,
		progressSvc: progressSvc,
		state:       timelineStateSelectProject,
		table:       t,
		loading:     true,
	}
}

func (m TimelineModel) Init() tea.Cmd {
	return m.loadProjectsForTimelineCmd()
}

func (m TimelineModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case timelineProjectsMsg:
		m.loading = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Error loading projects: %v", msg.err)
			break
		}

		m.picker.projects = msg.projects

	case timelineEntriesMsg:
		m.loading = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Error loading entries: %v", msg.err)
			break
		}

		m.entries = msg.entries
		m.status = ""
		m.refreshTable()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}

		switch m.state {
		case timelineStateSelectProject:
			switch msg.String() {
			case "esc":
				return m, Back
			case "up", "k":
				m.picker.moveUp()
			case "down", "j":
				m.picker.moveDown()
			case "enter":
				if m.picker.selected() == nil {
					return m, nil
				}

				m.state = timelineStateBrowse
				m.loading = true

				return m, m.loadEntriesCmd()
			}

			return m, nil

		case timelineStateBrowse:
			switch msg.String() {
			case "esc":
				m.state = timelineStateSelectProject
				return m, nil
			case "r":
				m.loading = true
				return m, m.loadEntriesCmd()
			}
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m TimelineModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading...")
	}

	if m.state == timelineStateSelectProject {
		return lipgloss.NewStyle().Padding(2).Render(m.picker.view())
	}

	header := "Progress Timeline"
	if proj := m.picker.selected(); proj != nil {
		header = fmt.Sprintf("Progress Timeline: %s", proj.Name)
	}

	if len(m.entries) > 0 {
		last := m.entries[len(m.entries)-1]
		header += fmt.Sprintf(" — %.1f%% complete as of %s", last.CumulativePct, FormatDate(last.Date))
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
		lipgloss.NewStyle().Faint(true).Render("(r: refresh, Esc: back)"),
	)

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *TimelineModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.entries))

	for _, e := range m.entries {
		onSite := "-"
		if e.HasLocation() {
			if e.LocationVerified {
				onSite = "yes"
			} else {
				onSite = "NO"
			}
		}

		rows = append(rows, table.Row{
			FormatDate(e.Date),
			string(e.Stage),
			fmt.Sprintf("%.1f", e.IncrementalPct),
			fmt.Sprintf("%.1f", e.CumulativePct),
			fmt.Sprintf("%.1f", e.WorkingHours),
			onSite,
			e.Notes,
		})
	}

	m.table.SetRows(rows)
}

type timelineProjectsMsg struct {
	projects []*project.Project
	err      error
}

func (m TimelineModel) loadProjectsForTimelineCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		projects, err := m.projectSvc.List(ctx, m.principal)

		return timelineProjectsMsg{projects: projects, err: err}
	}
}

type timelineEntriesMsg struct {
	entries []*progress.Entry
	err     error
}

func (m TimelineModel) loadEntriesCmd() tea.Cmd {
	proj := m.picker.selected()

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		entries, err := m.progressSvc.List(ctx, m.principal, proj.ID, progress.ListFilter{})

		return timelineEntriesMsg{entries: entries, err: err}
	}
}
