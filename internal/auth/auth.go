// Package auth carries the acting user through the request as an explicit
// principal value instead of ambient session state.
package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

type Role string

const (
	RoleContractor Role = "contractor"
	RoleHomeowner  Role = "homeowner"
)

var ErrNoPrincipal = errors.New("no principal in context")

// Principal identifies the authenticated user invoking an operation.
type Principal struct {
	UserID uuid.UUID
	Role   Role
}

func (p Principal) IsContractor() bool { return p.Role == RoleContractor }
func (p Principal) IsHomeowner() bool  { return p.Role == RoleHomeowner }

type contextKey struct{}

// WithPrincipal returns a context carrying the principal.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext extracts the principal set by the auth middleware.
func FromContext(ctx context.Context) (Principal, error) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	if !ok {
		return Principal{}, ErrNoPrincipal
	}

	return p, nil
}
