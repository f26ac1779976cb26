package project_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dmcalde/sitework/internal/auth"
	"github.com/dmcalde/sitework/internal/project"
)

func ptr[T any](v T) *T { return &v }

func TestService_Create(t *testing.T) {
	contractorID := uuid.New()
	homeownerID := uuid.New()

	type testCase struct {
		name      string
		params    project.CreateParams
		setupMock func(m *project.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name: "Success",
			params: project.CreateParams{
				ContractorID: contractorID,
				HomeownerID:  homeownerID,
				Name:         "Lakeside Villa",
				TotalBudget:  decimal.NewFromInt(100000),
				SiteLat:      ptr(12.9716),
				SiteLon:      ptr(77.5946),
				StartDate:    time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			},
			setupMock: func(m *project.MockRepository) {
				m.EXPECT().
					CreateProject(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, p *project.Project) error {
						p.ID = uuid.New()
						p.CreatedAt = time.Now()
						return nil
					})
			},
		},
		{
			name: "MissingName",
			params: project.CreateParams{
				ContractorID: contractorID,
				HomeownerID:  homeownerID,
				TotalBudget:  decimal.NewFromInt(100000),
			},
			wantErr: project.ErrInvalidInput,
		},
		{
			name: "ZeroBudget",
			params: project.CreateParams{
				ContractorID: contractorID,
				HomeownerID:  homeownerID,
				Name:         "Lakeside Villa",
				TotalBudget:  decimal.Zero,
			},
			wantErr: project.ErrInvalidInput,
		},
		{
			name: "LatitudeWithoutLongitude",
			params: project.CreateParams{
				ContractorID: contractorID,
				HomeownerID:  homeownerID,
				Name:         "Lakeside Villa",
				TotalBudget:  decimal.NewFromInt(100000),
				SiteLat:      ptr(12.9716),
			},
			wantErr: project.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := project.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := project.NewService(repo)
			got, err := svc.Create(context.Background(), tt.params)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, got.ID)
			assert.Equal(t, project.StatusActive, got.Status)
		})
	}
}

func TestService_Get(t *testing.T) {
	contractorID := uuid.New()
	homeownerID := uuid.New()
	projectID := uuid.New()

	stored := &project.Project{
		ID:           projectID,
		ContractorID: contractorID,
		HomeownerID:  homeownerID,
		Name:         "Lakeside Villa",
		TotalBudget:  decimal.NewFromInt(100000),
	}

	type testCase struct {
		name      string
		principal auth.Principal
		setupMock func(m *project.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name:      "ContractorCanRead",
			principal: auth.Principal{UserID: contractorID, Role: auth.RoleContractor},
			setupMock: func(m *project.MockRepository) {
				m.EXPECT().GetProject(gomock.Any(), projectID).Return(stored, nil)
			},
		},
		{
			name:      "HomeownerCanRead",
			principal: auth.Principal{UserID: homeownerID, Role: auth.RoleHomeowner},
			setupMock: func(m *project.MockRepository) {
				m.EXPECT().GetProject(gomock.Any(), projectID).Return(stored, nil)
			},
		},
		{
			name:      "StrangerForbidden",
			principal: auth.Principal{UserID: uuid.New(), Role: auth.RoleContractor},
			setupMock: func(m *project.MockRepository) {
				m.EXPECT().GetProject(gomock.Any(), projectID).Return(stored, nil)
			},
			wantErr: project.ErrForbidden,
		},
		{
			name:      "NotFound",
			principal: auth.Principal{UserID: contractorID, Role: auth.RoleContractor},
			setupMock: func(m *project.MockRepository) {
				m.EXPECT().GetProject(gomock.Any(), projectID).Return(nil, project.ErrNotFound)
			},
			wantErr: project.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := project.NewMockRepository(ctrl)
			tt.setupMock(repo)

			svc := project.NewService(repo)
			got, err := svc.Get(context.Background(), tt.principal, projectID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, projectID, got.ID)
		})
	}
}

func TestStage_Valid(t *testing.T) {
	for _, s := range project.Stages {
		assert.True(t, s.Valid(), s)
	}

	assert.False(t, project.Stage("landscaping").Valid())
	assert.False(t, project.Stage("").Valid())
}

func TestProject_Fence(t *testing.T) {
	p := &project.Project{SiteLat: ptr(12.9716), SiteLon: ptr(77.5946), GeofenceRadiusM: 150}

	fence, ok := p.Fence()
	require.True(t, ok)
	assert.Equal(t, 150.0, fence.RadiusMeters)

	_, ok = (&project.Project{}).Fence()
	assert.False(t, ok)
}

func TestService_Create_RepoError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := project.NewMockRepository(ctrl)
	repo.EXPECT().
		CreateProject(gomock.Any(), gomock.Any()).
		Return(errors.New("db error"))

	svc := project.NewService(repo)
	got, err := svc.Create(context.Background(), project.CreateParams{
		ContractorID: uuid.New(),
		HomeownerID:  uuid.New(),
		Name:         "Lakeside Villa",
		TotalBudget:  decimal.NewFromInt(100000),
	})

	assert.Error(t, err)
	assert.Nil(t, got)
}
