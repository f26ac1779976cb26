package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/dmcalde/sitework/internal/auth"
	"github.com/dmcalde/sitework/internal/payment"
	"github.com/dmcalde/sitework/internal/progress"
	"github.com/dmcalde/sitework/internal/project"
)

// ReviewModel walks the homeowner through the pending payment requests of a
// project, one at a time, with approve and reject forms.
type ReviewModel struct {
	CommonModel
	principal   auth.Principal
	projectSvc  *project.Service
	paymentSvc  *payment.Service
	progressSvc *progress.Service

	state  reviewState
	picker projectPicker

	queue      []*payment.Request
	current    *payment.Request
	budget     *payment.BudgetSnapshot
	recorded   float64
	totalCount int

	form *huh.Form

	// Form bindings
	formAmount string
	formReason string

	status  string
	loading bool
}

type reviewState int

const (
	reviewStateSelectProject reviewState = iota
	reviewStateQueue
	reviewStateApprove
	reviewStateReject
)

func NewReviewModel(principal auth.Principal, projectSvc *project.Service, paymentSvc *payment.Service, progressSvc *progress.Service) ReviewModel {
	return ReviewModel{
		principal:   principal,
		projectSvc:  projectSvc,
		paymentSvc:  paymentSvc,
		progressSvc: progressSvc,
		state:       reviewStateSelectProject,
		loading:     true,
	}
}

func (m ReviewModel) Init() tea.Cmd {
	return m.loadProjectsCmd()
}

func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadProjectsMsg:
		m.loading = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Error loading projects: %v", msg.err)
			break
		}

		m.picker.projects = msg.projects

	case loadQueueMsg:
		m.loading = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Error loading requests: %v", msg.err)
			break
		}

		m.queue = msg.requests
		m.budget = msg.budget
		m.recorded = msg.recorded
		m.totalCount = len(m.queue)
		m.nextRequest()

	case decisionMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			m.state = reviewStateQueue
			m.form = nil

			break
		}

		m.state = reviewStateQueue
		m.form = nil
		m.budget = nil

		// Reload so the budget reflects the decision just made.
		m.loading = true

		return m, m.loadQueueCmd()

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}

		return m.handleKey(msg)
	}

	if m.form != nil {
		form, cmd := m.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.form = f
		}

		if m.form.State == huh.StateCompleted {
			return m.submitDecision()
		}

		return m, cmd
	}

	return m, nil
}

func (m ReviewModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.form != nil {
		if msg.Type == tea.KeyEsc {
			m.state = reviewStateQueue
			m.form = nil

			return m, nil
		}

		form, cmd := m.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.form = f
		}

		if m.form.State == huh.StateCompleted {
			return m.submitDecision()
		}

		return m, cmd
	}

	switch m.state {
	case reviewStateSelectProject:
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

			m.state = reviewStateQueue
			m.loading = true

			return m, m.loadQueueCmd()
		}

	case reviewStateQueue:
		switch msg.String() {
		case "esc":
			m.state = reviewStateSelectProject
			m.current = nil

			return m, nil
		case "a":
			if m.current != nil {
				return m.enterApprove()
			}
		case "r":
			if m.current != nil {
				return m.enterReject()
			}
		case "s":
			if m.current != nil {
				m.nextRequest()
			}
		}
	}

	return m, nil
}

func (m ReviewModel) enterApprove() (tea.Model, tea.Cmd) {
	m.formAmount = m.current.RequestedAmount.StringFixed(2)
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("amount").
				Title("Approved Amount").
				Description(fmt.Sprintf("Requested: %s", FormatMoney(m.current.RequestedAmount))).
				Value(&m.formAmount).
				Validate(func(s string) error {
					d, err := decimal.NewFromString(strings.TrimSpace(s))
					if err != nil {
						return fmt.Errorf("not a valid amount")
					}

					if !d.IsPositive() {
						return fmt.Errorf("amount must be positive")
					}

					if d.GreaterThan(m.current.RequestedAmount) {
						return fmt.Errorf("cannot exceed requested amount")
					}

					return nil
				}),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = reviewStateApprove

	return m, m.form.Init()
}

func (m ReviewModel) enterReject() (tea.Model, tea.Cmd) {
	m.formReason = ""
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("reason").
				Title("Rejection Reason").
				Value(&m.formReason).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("reason is required")
					}

					return nil
				}),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = reviewStateReject

	return m, m.form.Init()
}

func (m ReviewModel) submitDecision() (tea.Model, tea.Cmd) {
	switch m.state {
	case reviewStateApprove:
		return m, m.approveCmd(m.current, m.formAmount)
	case reviewStateReject:
		return m, m.rejectCmd(m.current, m.formReason)
	}

	return m, nil
}

func (m *ReviewModel) nextRequest() {
	if len(m.queue) == 0 {
		m.current = nil
		m.status = "No pending payment requests."

		return
	}

	m.current = m.queue[0]
	m.queue = m.queue[1:]

	idx := m.totalCount - len(m.queue)
	m.status = fmt.Sprintf("Reviewing %d/%d", idx, m.totalCount)
}

func (m ReviewModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading...")
	}

	if m.state == reviewStateSelectProject {
		return lipgloss.NewStyle().Padding(2).Render(m.picker.view())
	}

	content := m.status + "\n"

	if m.budget != nil {
		content += fmt.Sprintf(
			"\nBudget: %s | Paid: %s | Pending: %s | Remaining: %s\n",
			FormatMoney(m.budget.TotalBudget),
			FormatMoney(m.budget.TotalPaid),
			FormatMoney(m.budget.TotalPending),
			FormatMoney(m.budget.Remaining),
		)
	}

	if m.current != nil {
		claimNote := ""
		if m.current.CompletionPct > m.recorded {
			claimNote = fmt.Sprintf(" (ledger shows %.1f%%)", m.recorded)
		}

		content += fmt.Sprintf(
			"\nStage:     %s\nRequested: %s (%.1f%% of budget)\nClaimed:   %.1f%% complete%s\nFiled:     %s\n",
			m.current.Stage,
			FormatMoney(m.current.RequestedAmount),
			m.current.PctOfTotal,
			m.current.CompletionPct,
			claimNote,
			FormatDate(m.current.CreatedAt),
		)

		if m.current.Description != "" {
			content += fmt.Sprintf("Note:      %s\n", m.current.Description)
		}
	}

	if m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(m.form.View())

		return lipgloss.NewStyle().Padding(2).Render(content + "\n" + panel)
	}

	if m.current != nil {
		content += "\n(a: approve, r: reject, s: skip, Esc: back)"
	} else {
		content += "\n(Esc to back)"
	}

	return lipgloss.NewStyle().Padding(2).Render(content)
}

// Messages and commands

type loadProjectsMsg struct {
	projects []*project.Project
	err      error
}

func (m ReviewModel) loadProjectsCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		projects, err := m.projectSvc.List(ctx, m.principal)

		return loadProjectsMsg{projects: projects, err: err}
	}
}

type loadQueueMsg struct {
	requests []*payment.Request
	budget   *payment.BudgetSnapshot
	recorded float64
	err      error
}

func (m ReviewModel) loadQueueCmd() tea.Cmd {
	proj := m.picker.selected()

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		pending := payment.StatusPending

		requests, err := m.paymentSvc.List(ctx, m.principal, proj.ID, payment.ListFilter{Status: &pending})
		if err != nil {
			return loadQueueMsg{err: err}
		}

		budget, err := m.paymentSvc.Budget(ctx, m.principal, proj.ID)
		if err != nil {
			return loadQueueMsg{err: err}
		}

		recorded := 0.0

		if latest, err := m.progressSvc.Latest(ctx, m.principal, proj.ID); err == nil {
			recorded = latest.CumulativePct
		}

		return loadQueueMsg{requests: requests, budget: budget, recorded: recorded}
	}
}

type decisionMsg struct {
	err error
}

func (m ReviewModel) approveCmd(req *payment.Request, amount string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		d, err := decimal.NewFromString(strings.TrimSpace(amount))
		if err != nil {
			return decisionMsg{err: err}
		}

		_, err = m.paymentSvc.Approve(ctx, m.principal, req.ID, d)

		return decisionMsg{err: err}
	}
}

func (m ReviewModel) rejectCmd(req *payment.Request, reason string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		_, err := m.paymentSvc.Reject(ctx, m.principal, req.ID, strings.TrimSpace(reason))

		return decisionMsg{err: err}
	}
}
