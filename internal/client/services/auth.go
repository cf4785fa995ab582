package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/loandesk/internal/client/client"
	"github.com/dmitrijs2005/loandesk/internal/client/models"
	"github.com/dmitrijs2005/loandesk/internal/client/query"
	"github.com/dmitrijs2005/loandesk/internal/client/session"
	"github.com/dmitrijs2005/loandesk/internal/common"
	"github.com/dmitrijs2005/loandesk/internal/logging"
	"github.com/golang-jwt/jwt/v5"
)

// SessionStore is the part of session.Store the auth service drives.
type SessionStore interface {
	Get() session.Session
	Set(ctx context.Context, user models.User, token string) error
	Clear(ctx context.Context) error
}

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: validate credentials, authenticate against the API and store
//     the session.
//   - Logout: drop the session and every cached read.
//   - HandleUnauthorized: the API rejected our token; same as Logout when a
//     session exists.
//   - ExpireIfNeeded: log out when the token's exp claim has passed.
type AuthService interface {
	Login(ctx context.Context, identifier string, password []byte) (*models.User, error)
	Logout(ctx context.Context) error
	HandleUnauthorized(ctx context.Context)
	ExpireIfNeeded(ctx context.Context) (bool, error)
	Session() session.Session
}

type authService struct {
	api   client.Client
	store SessionStore
	cache *query.Cache
	log   logging.Logger
	now   func() time.Time
}

func NewAuthService(api client.Client, store SessionStore, cache *query.Cache, log logging.Logger) AuthService {
	return &authService{api: api, store: store, cache: cache, log: log, now: time.Now}
}

func (a *authService) Session() session.Session {
	return a.store.Get()
}

func (a *authService) Login(ctx context.Context, identifier string, password []byte) (*models.User, error) {
	form := models.LoginForm{Identifier: identifier, Password: string(password)}
	if err := form.Validate().Err(); err != nil {
		return nil, err
	}

	res, err := a.api.Login(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}

	// Reads cached for a previous identity must not leak into this one.
	a.cache.Clear()

	if err := a.store.Set(ctx, res.User, res.Token); err != nil {
		// A session that cannot be saved is not a login.
		if cerr := a.store.Clear(ctx); cerr != nil {
			a.log.Warn(ctx, "failed to reset unsaved session", "error", cerr)
		}
		return nil, fmt.Errorf("session saving error: %w", err)
	}

	a.log.Info(ctx, "logged in", "username", res.User.Username, "role", res.User.Role)
	user := res.User
	return &user, nil
}

func (a *authService) Logout(ctx context.Context) error {
	err := a.store.Clear(ctx)
	a.cache.Clear()
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (a *authService) HandleUnauthorized(ctx context.Context) {
	if !a.store.Get().IsAuthenticated {
		return
	}
	a.log.Warn(ctx, "session rejected by server, logging out")
	if err := a.Logout(ctx); err != nil {
		a.log.Error(ctx, "failed to clear session", "error", err)
	}
}

// ExpireIfNeeded reads the exp claim without verifying the signature (the
// server owns the key) and logs out when it has passed. Tokens without an
// exp claim never expire locally.
func (a *authService) ExpireIfNeeded(ctx context.Context) (bool, error) {
	token := a.store.Get().Token
	if token == "" {
		return false, nil
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false, fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return false, fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}
	if exp == nil || a.now().Before(exp.Time) {
		return false, nil
	}

	a.log.Info(ctx, "session token expired", "exp", exp.Time)
	if err := a.Logout(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// IsSessionError reports whether err means the user has to log in again.
func IsSessionError(err error) bool {
	return errors.Is(err, common.ErrUnauthorized) ||
		errors.Is(err, common.ErrTokenExpired) ||
		errors.Is(err, common.ErrNotLoggedIn)
}
