package main

import (
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/dmcalde/sitework/cmd/tui/internal/view"
	"github.com/dmcalde/sitework/internal/auth"
	"github.com/dmcalde/sitework/internal/config"
	"github.com/dmcalde/sitework/internal/database"
	"github.com/dmcalde/sitework/internal/notify"
	"github.com/dmcalde/sitework/internal/payment"
	paymentStore "github.com/dmcalde/sitework/internal/payment/store"
	"github.com/dmcalde/sitework/internal/progress"
	progressStore "github.com/dmcalde/sitework/internal/progress/store"
	"github.com/dmcalde/sitework/internal/project"
	projectStore "github.com/dmcalde/sitework/internal/project/store"
)

type model struct {
	principal   auth.Principal
	projectSvc  *project.Service
	progressSvc *progress.Service
	paymentSvc  *payment.Service

	currentView View

	reviewView   view.ReviewModel
	timelineView view.TimelineModel
}

type View int

const (
	ViewMenu     View = 0
	ViewReview   View = 1
	ViewTimeline View = 2
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	userID, err := uuid.Parse(cfg.TUI.UserID)
	if err != nil {
		slog.Error("TUI_USER_ID must be a valid uuid", "error", err)
		os.Exit(1)
	}

	principal := auth.Principal{UserID: userID, Role: auth.Role(cfg.TUI.Role)}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	var (
		projects = projectStore.New(db)
		entries  = progressStore.New(db)
		payments = paymentStore.New(db)
	)

	projectSvc := project.NewService(projects)
	progressSvc := progress.NewService(entries, projects, notify.LogNotifier{}, nil)
	paymentSvc := payment.NewService(payments, projects, entries, notify.LogNotifier{})

	return model{
		principal:    principal,
		projectSvc:   projectSvc,
		progressSvc:  progressSvc,
		paymentSvc:   paymentSvc,
		currentView:  ViewMenu,
		reviewView:   view.NewReviewModel(principal, projectSvc, paymentSvc, progressSvc),
		timelineView: view.NewTimelineModel(principal, projectSvc, progressSvc),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewReview
				m.reviewView = view.NewReviewModel(m.principal, m.projectSvc, m.paymentSvc, m.progressSvc)

				return m, m.reviewView.Init()
			case "2":
				m.currentView = ViewTimeline
				m.timelineView = view.NewTimelineModel(m.principal, m.projectSvc, m.progressSvc)

				return m, m.timelineView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewReview:
		var newModel tea.Model
		newModel, cmd = m.reviewView.Update(msg)
		m.reviewView = newModel.(view.ReviewModel)
	case ViewTimeline:
		var newModel tea.Model
		newModel, cmd = m.timelineView.Update(msg)
		m.timelineView = newModel.(view.TimelineModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"Sitework TUI\n\n" +
				"1. Review Payment Requests\n" +
				"2. Progress Timeline\n\n" +
				"q. Quit",
		)
	case ViewReview:
		return m.reviewView.View()
	case ViewTimeline:
		return m.timelineView.View()
	}

	return "Unknown View"
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
