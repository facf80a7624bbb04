// Package auth turns bearer tokens into principals and guards routes by
// permission.
package auth

import (
	"context"
	"errors"
	"strings"

	"rbac-center/models"
)

var (
	ErrMalformedHeader = errors.New("invalid authorization header format")
	ErrUnknownSession  = errors.New("session user no longer exists")
)

// Principal is whoever is making the current request.
type Principal interface {
	GetID() string
	IsAuthenticated() bool
	IsActive() bool
	IsAnonymous() bool
	HasPermission(name string) bool
}

var _ Principal = (*models.User)(nil)

// AnonymousUser is the principal of requests that carry no token.
type AnonymousUser struct{}

func (AnonymousUser) GetID() string               { return "" }
func (AnonymousUser) IsAuthenticated() bool       { return false }
func (AnonymousUser) IsActive() bool              { return false }
func (AnonymousUser) IsAnonymous() bool           { return true }
func (AnonymousUser) HasPermission(_ string) bool { return false }

// SessionLoader resolves the identifier stored in a token into a user.
// Unknown or malformed identifiers report false.
type SessionLoader interface {
	LoadUser(ctx context.Context, id string) (*models.User, bool)
}

// Authenticator checks login credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, username, plain string) (*models.User, error)
}

type principalKey struct{}

func NewContext(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored in ctx, or AnonymousUser.
func FromContext(ctx context.Context) Principal {
	if p, ok := ctx.Value(principalKey{}).(Principal); ok && p != nil {
		return p
	}
	return AnonymousUser{}
}

// Resolve turns an Authorization header value into a principal. An empty
// header is an anonymous request, not an error.
func Resolve(ctx context.Context, header string, tokens *TokenIssuer, loader SessionLoader) (Principal, error) {
	if header == "" {
		return AnonymousUser{}, nil
	}

	// Check the token format (Bearer <token>).
	parts := strings.Split(header, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil, ErrMalformedHeader
	}

	claims, err := tokens.Parse(parts[1])
	if err != nil {
		return nil, err
	}

	user, ok := loader.LoadUser(ctx, claims.Subject)
	if !ok {
		return nil, ErrUnknownSession
	}
	return user, nil
}
