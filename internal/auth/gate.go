// Package auth validates connection credentials before admission.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Sri-Express/Backend-sub004/internal/domain"
)

// Claims is the JWT claims structure carried by connection credentials.
// Only the registered subject is trusted; identity details come from the
// user store.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Gate verifies a credential's signature and expiry and resolves its
// subject against the external user store. It runs exactly once per
// connection attempt, before any registry mutation.
type Gate struct {
	secret  []byte
	users   domain.UserStore
	timeout time.Duration
}

func NewGate(secret string, users domain.UserStore, timeout time.Duration) *Gate {
	return &Gate{secret: []byte(secret), users: users, timeout: timeout}
}

// Validate returns the identity carried by the credential, or one of
// domain.ErrInvalidToken, domain.ErrExpiredToken, domain.ErrUserNotFound.
// Exceeding the gate's timeout is treated as an invalid token.
func (g *Gate) Validate(ctx context.Context, credential string) (domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if credential == "" {
		return domain.Identity{}, domain.ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(credential, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return g.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Identity{}, domain.ErrExpiredToken
		}
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return domain.Identity{}, domain.ErrInvalidToken
	}

	identity, err := g.users.FindIdentity(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.Identity{}, domain.ErrUserNotFound
		}
		if errors.Is(err, context.DeadlineExceeded) {
			slog.Warn("User lookup exceeded auth timeout", "subject", claims.Subject)
			return domain.Identity{}, domain.ErrInvalidToken
		}
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}

	return identity, nil
}
