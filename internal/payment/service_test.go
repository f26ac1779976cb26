package payment_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dmcalde/sitework/internal/auth"
	"github.com/dmcalde/sitework/internal/notify"
	"github.com/dmcalde/sitework/internal/payment"
	"github.com/dmcalde/sitework/internal/progress"
	"github.com/dmcalde/sitework/internal/project"
)

var (
	contractorID = uuid.New()
	homeownerID  = uuid.New()
	projectID    = uuid.New()

	contractor = auth.Principal{UserID: contractorID, Role: auth.RoleContractor}
	homeowner  = auth.Principal{UserID: homeownerID, Role: auth.RoleHomeowner}
)

func money(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func testProject() *project.Project {
	return &project.Project{
		ID:           projectID,
		ContractorID: contractorID,
		HomeownerID:  homeownerID,
		Name:         "Lakeside Villa",
		TotalBudget:  money(100000),
	}
}

type fixture struct {
	repo     *payment.MockRepository
	projects *payment.MockProjectReader
	ledger   *payment.MockProgressReader
	svc      *payment.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := &fixture{
		repo:     payment.NewMockRepository(ctrl),
		projects: payment.NewMockProjectReader(ctrl),
		ledger:   payment.NewMockProgressReader(ctrl),
	}
	f.svc = payment.NewService(f.repo, f.projects, f.ledger, notify.LogNotifier{})

	return f
}

func (f *fixture) expectSubmitTx(t *testing.T, setup func(tx *payment.MockSubmitTx)) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	tx := payment.NewMockSubmitTx(ctrl)
	tx.EXPECT().Rollback().Return(nil).AnyTimes()
	setup(tx)

	f.repo.EXPECT().BeginSubmit(gomock.Any(), projectID).Return(tx, nil)
}

func expectCreate(tx *payment.MockSubmitTx) {
	tx.EXPECT().
		CreateRequest(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r *payment.Request) error {
			r.ID = uuid.New()
			r.CreatedAt = time.Now()
			return nil
		})
	tx.EXPECT().Commit().Return(nil)
}

func TestService_Submit_BudgetScenario(t *testing.T) {
	// Project budget 100,000. Request A (foundation, 40,000) is accepted and
	// leaves 60,000. Request B (structure, 70,000) no longer fits.
	t.Run("RequestAWithinBudget", func(t *testing.T) {
		f := newFixture(t)
		f.expectSubmitTx(t, func(tx *payment.MockSubmitTx) {
			tx.EXPECT().Project(gomock.Any()).Return(testProject(), nil)
			tx.EXPECT().HasOutstanding(gomock.Any(), project.StageFoundation).Return(false, nil)
			tx.EXPECT().Totals(gomock.Any()).Return(decimal.Zero, decimal.Zero, nil)
			expectCreate(tx)
		})
		f.ledger.EXPECT().LatestEntry(gomock.Any(), projectID).
			Return(&progress.Entry{CumulativePct: 40}, nil)

		req, snapshot, err := f.svc.Submit(context.Background(), contractor, payment.SubmitParams{
			ProjectID:     projectID,
			Stage:         project.StageFoundation,
			Amount:        money(40000),
			CompletionPct: 40,
			Description:   "Foundation complete",
		})
		require.NoError(t, err)

		assert.Equal(t, payment.StatusPending, req.Status)
		assert.Equal(t, 40.0, req.PctOfTotal)
		assert.True(t, snapshot.Remaining.Equal(money(60000)),
			"remaining = %s", snapshot.Remaining)
	})

	t.Run("RequestBExceedsBudget", func(t *testing.T) {
		f := newFixture(t)
		f.expectSubmitTx(t, func(tx *payment.MockSubmitTx) {
			tx.EXPECT().Project(gomock.Any()).Return(testProject(), nil)
			tx.EXPECT().HasOutstanding(gomock.Any(), project.StageStructure).Return(false, nil)
			// Request A is still outstanding at 40,000.
			tx.EXPECT().Totals(gomock.Any()).Return(decimal.Zero, money(40000), nil)
		})

		_, _, err := f.svc.Submit(context.Background(), contractor, payment.SubmitParams{
			ProjectID:     projectID,
			Stage:         project.StageStructure,
			Amount:        money(70000),
			CompletionPct: 60,
		})
		assert.ErrorIs(t, err, payment.ErrBudgetExceeded)
	})
}

func TestService_Submit_OutstandingStage(t *testing.T) {
	f := newFixture(t)
	f.expectSubmitTx(t, func(tx *payment.MockSubmitTx) {
		tx.EXPECT().Project(gomock.Any()).Return(testProject(), nil)
		tx.EXPECT().HasOutstanding(gomock.Any(), project.StageFoundation).Return(true, nil)
	})

	_, _, err := f.svc.Submit(context.Background(), contractor, payment.SubmitParams{
		ProjectID:     projectID,
		Stage:         project.StageFoundation,
		Amount:        money(10000),
		CompletionPct: 10,
	})
	assert.ErrorIs(t, err, payment.ErrStageOutstanding)
}

func TestService_Submit_Forbidden(t *testing.T) {
	f := newFixture(t)
	f.expectSubmitTx(t, func(tx *payment.MockSubmitTx) {
		tx.EXPECT().Project(gomock.Any()).Return(testProject(), nil)
	})

	_, _, err := f.svc.Submit(context.Background(), homeowner, payment.SubmitParams{
		ProjectID:     projectID,
		Stage:         project.StageFoundation,
		Amount:        money(10000),
		CompletionPct: 10,
	})
	assert.ErrorIs(t, err, project.ErrForbidden)
}

func TestService_Submit_Validation(t *testing.T) {
	type testCase struct {
		name   string
		params payment.SubmitParams
	}

	tests := []testCase{
		{
			name: "UnknownStage",
			params: payment.SubmitParams{
				ProjectID: projectID, Stage: "landscaping", Amount: money(100),
			},
		},
		{
			name: "ZeroAmount",
			params: payment.SubmitParams{
				ProjectID: projectID, Stage: project.StageFoundation, Amount: decimal.Zero,
			},
		},
		{
			name: "NegativeAmount",
			params: payment.SubmitParams{
				ProjectID: projectID, Stage: project.StageFoundation, Amount: money(-5),
			},
		},
		{
			name: "CompletionOverHundred",
			params: payment.SubmitParams{
				ProjectID: projectID, Stage: project.StageFoundation,
				Amount: money(100), CompletionPct: 101,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, _, err := f.svc.Submit(context.Background(), contractor, tt.params)
			assert.ErrorIs(t, err, payment.ErrInvalidInput)
		})
	}
}

func pendingRequest() *payment.Request {
	return &payment.Request{
		ID:              uuid.New(),
		ProjectID:       projectID,
		ContractorID:    contractorID,
		Stage:           project.StageFoundation,
		RequestedAmount: money(40000),
		Status:          payment.StatusPending,
	}
}

func expectTransitionTx(t *testing.T, repo *payment.MockRepository, req *payment.Request, expectUpdate bool) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	tx := payment.NewMockTransitionTx(ctrl)
	tx.EXPECT().Rollback().Return(nil).AnyTimes()
	tx.EXPECT().Request(gomock.Any()).Return(req, nil)
	tx.EXPECT().Project(gomock.Any()).Return(testProject(), nil)

	if expectUpdate {
		tx.EXPECT().UpdateRequest(gomock.Any(), req).Return(nil)
		tx.EXPECT().Commit().Return(nil)
	}

	repo.EXPECT().BeginTransition(gomock.Any(), req.ID).Return(tx, nil)
}

func TestService_Approve(t *testing.T) {
	t.Run("ReducedAmount", func(t *testing.T) {
		f := newFixture(t)
		req := pendingRequest()
		expectTransitionTx(t, f.repo, req, true)

		got, err := f.svc.Approve(context.Background(), homeowner, req.ID, money(35000))
		require.NoError(t, err)

		assert.Equal(t, payment.StatusApproved, got.Status)
		require.NotNil(t, got.ApprovedAmount)
		assert.True(t, got.ApprovedAmount.Equal(money(35000)))
		assert.NotNil(t, got.RespondedAt)
	})

	t.Run("MoreThanRequested", func(t *testing.T) {
		f := newFixture(t)
		req := pendingRequest()
		expectTransitionTx(t, f.repo, req, false)

		_, err := f.svc.Approve(context.Background(), homeowner, req.ID, money(50000))
		assert.ErrorIs(t, err, payment.ErrInvalidInput)
	})

	t.Run("AlreadyApproved", func(t *testing.T) {
		f := newFixture(t)
		req := pendingRequest()
		req.Status = payment.StatusApproved
		expectTransitionTx(t, f.repo, req, false)

		_, err := f.svc.Approve(context.Background(), homeowner, req.ID, money(35000))
		assert.ErrorIs(t, err, payment.ErrInvalidTransition)
	})

	t.Run("ContractorCannotApprove", func(t *testing.T) {
		f := newFixture(t)
		req := pendingRequest()
		expectTransitionTx(t, f.repo, req, false)

		_, err := f.svc.Approve(context.Background(), contractor, req.ID, money(35000))
		assert.ErrorIs(t, err, project.ErrForbidden)
	})

	t.Run("NonPositiveAmount", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Approve(context.Background(), homeowner, uuid.New(), decimal.Zero)
		assert.ErrorIs(t, err, payment.ErrInvalidInput)
	})
}

func TestService_Reject(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newFixture(t)
		req := pendingRequest()
		expectTransitionTx(t, f.repo, req, true)

		got, err := f.svc.Reject(context.Background(), homeowner, req.ID, "quote does not match the work done")
		require.NoError(t, err)

		assert.Equal(t, payment.StatusRejected, got.Status)
		assert.Equal(t, "quote does not match the work done", got.RejectionReason)
	})

	t.Run("MissingReason", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Reject(context.Background(), homeowner, uuid.New(), "")
		assert.ErrorIs(t, err, payment.ErrInvalidInput)
	})

	t.Run("AlreadyRejected", func(t *testing.T) {
		f := newFixture(t)
		req := pendingRequest()
		req.Status = payment.StatusRejected
		expectTransitionTx(t, f.repo, req, false)

		_, err := f.svc.Reject(context.Background(), homeowner, req.ID, "duplicate")
		assert.ErrorIs(t, err, payment.ErrInvalidTransition)
	})
}

func TestService_MarkPaid(t *testing.T) {
	t.Run("FromApproved", func(t *testing.T) {
		f := newFixture(t)
		req := pendingRequest()
		req.Status = payment.StatusApproved
		approved := money(35000)
		req.ApprovedAmount = &approved
		expectTransitionTx(t, f.repo, req, true)

		got, err := f.svc.MarkPaid(context.Background(), homeowner, req.ID, "UTR-2025-061-889")
		require.NoError(t, err)

		assert.Equal(t, payment.StatusPaid, got.Status)
		assert.Equal(t, "UTR-2025-061-889", got.PaymentRef)
		assert.NotNil(t, got.PaidAt)
	})

	t.Run("FromPending", func(t *testing.T) {
		f := newFixture(t)
		req := pendingRequest()
		expectTransitionTx(t, f.repo, req, false)

		_, err := f.svc.MarkPaid(context.Background(), homeowner, req.ID, "UTR-2025-061-889")
		assert.ErrorIs(t, err, payment.ErrInvalidTransition)
	})

	t.Run("FromPaid", func(t *testing.T) {
		f := newFixture(t)
		req := pendingRequest()
		req.Status = payment.StatusPaid
		expectTransitionTx(t, f.repo, req, false)

		_, err := f.svc.MarkPaid(context.Background(), homeowner, req.ID, "UTR-2025-061-889")
		assert.ErrorIs(t, err, payment.ErrInvalidTransition)
	})
}

func TestService_Budget(t *testing.T) {
	// Approved at 35,000 of a 40,000 request, then paid: total_paid carries
	// the approved amount, not the requested one.
	f := newFixture(t)
	f.projects.EXPECT().GetProject(gomock.Any(), projectID).Return(testProject(), nil)
	f.repo.EXPECT().BudgetTotals(gomock.Any(), projectID).
		Return(money(35000), decimal.Zero, nil)

	snapshot, err := f.svc.Budget(context.Background(), homeowner, projectID)
	require.NoError(t, err)

	assert.True(t, snapshot.TotalPaid.Equal(money(35000)))
	assert.True(t, snapshot.Remaining.Equal(money(65000)))
}

func TestService_Budget_Forbidden(t *testing.T) {
	f := newFixture(t)
	f.projects.EXPECT().GetProject(gomock.Any(), projectID).Return(testProject(), nil)

	_, err := f.svc.Budget(context.Background(), auth.Principal{UserID: uuid.New()}, projectID)
	assert.ErrorIs(t, err, project.ErrForbidden)
}

func TestStatus_Outstanding(t *testing.T) {
	assert.True(t, payment.StatusPending.Outstanding())
	assert.True(t, payment.StatusApproved.Outstanding())
	assert.False(t, payment.StatusRejected.Outstanding())
	assert.False(t, payment.StatusPaid.Outstanding())
}
