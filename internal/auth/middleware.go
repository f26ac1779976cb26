package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// claims is the token shape issued by the platform's auth service.
// sub carries the user id; role is contractor or homeowner.
type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// RequireAuth validates the bearer token and stores the resulting principal
// in the request context. Requests without a valid token get a 401.
func RequireAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := principalFromHeader(r.Header.Get("Authorization"), secret)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

func principalFromHeader(header, secret string) (Principal, error) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return Principal{}, fmt.Errorf("missing bearer token")
	}

	return ParseToken(token, secret)
}

// ParseToken verifies an HS256 token and maps its claims to a Principal.
func ParseToken(tokenStr, secret string) (Principal, error) {
	var c claims

	token, err := jwt.ParseWithClaims(tokenStr, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return []byte(secret), nil
	})
	if err != nil {
		return Principal{}, fmt.Errorf("parsing token: %w", err)
	}

	if !token.Valid {
		return Principal{}, fmt.Errorf("invalid token")
	}

	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return Principal{}, fmt.Errorf("parsing subject: %w", err)
	}

	role := Role(c.Role)
	if role != RoleContractor && role != RoleHomeowner {
		return Principal{}, fmt.Errorf("unknown role %q", c.Role)
	}

	return Principal{UserID: userID, Role: role}, nil
}
