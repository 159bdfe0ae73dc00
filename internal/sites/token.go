package sites

import (
	"context"
	"errors"
)

// ErrNoToken is returned by a provider that has no credentials.
var ErrNoToken = errors.New("no token configured")

// TokenProvider supplies bearer tokens for authenticated sources.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed token. The empty token yields ErrNoToken.
type StaticToken string

// Token implements TokenProvider.
func (t StaticToken) Token(context.Context) (string, error) {
	if t == "" {
		return "", ErrNoToken
	}
	return string(t), nil
}
