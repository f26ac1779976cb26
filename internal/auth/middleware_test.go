package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmcalde/sitework/internal/auth"
)

const testSecret = "test-secret"

func signToken(t *testing.T, userID uuid.UUID, role string, expiresIn time.Duration) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID.String(),
		"role": role,
		"exp":  time.Now().Add(expiresIn).Unix(),
	})

	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	return signed
}

func TestRequireAuth(t *testing.T) {
	userID := uuid.New()

	type testCase struct {
		name       string
		header     string
		wantStatus int
		wantRole   auth.Role
	}

	tests := []testCase{
		{
			name:       "ValidContractorToken",
			header:     "Bearer " + signToken(t, userID, "contractor", time.Hour),
			wantStatus: http.StatusOK,
			wantRole:   auth.RoleContractor,
		},
		{
			name:       "ValidHomeownerToken",
			header:     "Bearer " + signToken(t, userID, "homeowner", time.Hour),
			wantStatus: http.StatusOK,
			wantRole:   auth.RoleHomeowner,
		},
		{
			name:       "MissingHeader",
			header:     "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "NotBearer",
			header:     "Basic abc",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "ExpiredToken",
			header:     "Bearer " + signToken(t, userID, "contractor", -time.Hour),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "UnknownRole",
			header:     "Bearer " + signToken(t, userID, "admin", time.Hour),
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPrincipal auth.Principal

			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				p, err := auth.FromContext(r.Context())
				require.NoError(t, err)
				gotPrincipal = p
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec := httptest.NewRecorder()
			auth.RequireAuth(testSecret)(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, userID, gotPrincipal.UserID)
				assert.Equal(t, tt.wantRole, gotPrincipal.Role)
			}
		})
	}
}

func TestFromContext_Missing(t *testing.T) {
	_, err := auth.FromContext(context.Background())
	assert.ErrorIs(t, err, auth.ErrNoPrincipal)
}
