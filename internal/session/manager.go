// Package session runs the token lifecycle: login issues an access/refresh
// pair and persists the refresh token on the user row, refresh trades a
// stored refresh token for a new access token, and logout clears it.
//
// The refresh_token column is the only revocation mechanism. A refresh
// token is usable only while the row still holds exactly that value, so
// clearing or overwriting the column revokes it even though its signature
// stays valid until expiry.
package session

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vnxcius/accounts-back/internal/apperr"
	"github.com/vnxcius/accounts-back/internal/database/model"
	"github.com/vnxcius/accounts-back/internal/database/store"
	"github.com/vnxcius/accounts-back/internal/logging"
	"github.com/vnxcius/accounts-back/internal/metrics"
	"github.com/vnxcius/accounts-back/internal/token"
	"github.com/vnxcius/accounts-back/internal/util"
)

const (
	MsgInvalidCredentials = "Invalid email or password"
	MsgMissingToken       = "Refresh token not found"
	MsgInvalidToken       = "Invalid or expired refresh token"
)

// TokenIssuer is the part of token.Issuer the manager needs.
type TokenIssuer interface {
	IssueAccess(user model.SafeUser) (string, error)
	IssueRefresh(user model.SafeUser) (string, error)
	VerifyRefresh(tokenStr string) (*token.UserClaims, error)
}

type Manager struct {
	users     store.UserStore
	passwords util.PasswordHasher
	tokens    TokenIssuer
	audit     *logging.SessionLog
	metrics   *metrics.Metrics
}

type Option func(*Manager)

func WithAudit(l *logging.SessionLog) Option {
	return func(m *Manager) { m.audit = l }
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

func NewManager(users store.UserStore, passwords util.PasswordHasher, tokens TokenIssuer, opts ...Option) *Manager {
	m := &Manager{users: users, passwords: passwords, tokens: tokens}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type LoginResult struct {
	User         model.SafeUser
	AccessToken  string
	RefreshToken string
}

// Login never tells an unknown email apart from a wrong password.
func (m *Manager) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		m.metrics.AuthEvent(metrics.EventLogin, metrics.OutcomeRejected)
		return nil, apperr.New(apperr.KindValidation, "Email and password are required")
	}

	user, err := m.users.FindByField(ctx, store.FieldEmail, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, m.loginRejected(ctx, 0, email)
		}
		return nil, m.storageFailure(ctx, metrics.EventLogin, err)
	}

	if !m.passwords.Verify(password, user.Password) {
		return nil, m.loginRejected(ctx, user.ID, email)
	}

	safe := user.Sanitize()
	accessToken, err := m.tokens.IssueAccess(safe)
	if err != nil {
		m.metrics.AuthEvent(metrics.EventLogin, metrics.OutcomeError)
		return nil, apperr.Wrap(apperr.KindInternal, err, "Failed to issue access token")
	}
	refreshToken, err := m.tokens.IssueRefresh(safe)
	if err != nil {
		m.metrics.AuthEvent(metrics.EventLogin, metrics.OutcomeError)
		return nil, apperr.Wrap(apperr.KindInternal, err, "Failed to issue refresh token")
	}

	// Overwriting the column revokes whatever token this user held before.
	if _, err := m.users.Update(ctx, user.ID, map[string]any{store.FieldRefreshToken: refreshToken}); err != nil {
		return nil, m.storageFailure(ctx, metrics.EventLogin, err)
	}

	m.audit.Record(logging.SessionLogin, user.ID, user.Email)
	m.metrics.AuthEvent(metrics.EventLogin, metrics.OutcomeSuccess)
	slog.InfoContext(ctx, "User logged in", "userId", user.ID)

	return &LoginResult{User: safe, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

type RefreshResult struct {
	User        model.SafeUser
	AccessToken string
}

// Refresh mints a new access token from the stored user. The refresh
// token itself is not rotated.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	user, err := m.lookupSession(ctx, metrics.EventRefresh, refreshToken)
	if err != nil {
		return nil, err
	}

	claims, err := m.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		m.metrics.AuthEvent(metrics.EventRefresh, metrics.OutcomeRejected)
		slog.WarnContext(ctx, "Refresh token rejected", "userId", user.ID, "error", err)
		return nil, apperr.Wrap(apperr.KindInvalidToken, err, MsgInvalidToken)
	}
	if claims.ID != user.ID {
		m.metrics.AuthEvent(metrics.EventRefresh, metrics.OutcomeRejected)
		slog.WarnContext(ctx, "Refresh token subject mismatch", "userId", user.ID, "tokenUserId", claims.ID)
		return nil, apperr.New(apperr.KindInvalidToken, MsgInvalidToken)
	}

	safe := user.Sanitize()
	accessToken, err := m.tokens.IssueAccess(safe)
	if err != nil {
		m.metrics.AuthEvent(metrics.EventRefresh, metrics.OutcomeError)
		return nil, apperr.Wrap(apperr.KindInternal, err, "Failed to issue access token")
	}

	m.audit.Record(logging.SessionRefresh, user.ID, "")
	m.metrics.AuthEvent(metrics.EventRefresh, metrics.OutcomeSuccess)
	return &RefreshResult{User: safe, AccessToken: accessToken}, nil
}

// Logout clears the stored refresh token. A missing or unknown token is
// answered with MissingToken (401).
func (m *Manager) Logout(ctx context.Context, refreshToken string) error {
	user, err := m.lookupSession(ctx, metrics.EventLogout, refreshToken)
	if err != nil {
		return err
	}

	if _, err := m.users.Update(ctx, user.ID, map[string]any{store.FieldRefreshToken: nil}); err != nil {
		return m.storageFailure(ctx, metrics.EventLogout, err)
	}

	m.audit.Record(logging.SessionLogout, user.ID, "")
	m.metrics.AuthEvent(metrics.EventLogout, metrics.OutcomeSuccess)
	slog.InfoContext(ctx, "User logged out", "userId", user.ID)
	return nil
}

// lookupSession finds the user currently holding refreshToken.
func (m *Manager) lookupSession(ctx context.Context, event, refreshToken string) (*model.User, error) {
	if refreshToken == "" {
		m.metrics.AuthEvent(event, metrics.OutcomeRejected)
		return nil, apperr.New(apperr.KindMissingToken, MsgMissingToken)
	}

	user, err := m.users.FindByField(ctx, store.FieldRefreshToken, refreshToken)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			m.metrics.AuthEvent(event, metrics.OutcomeRejected)
			return nil, apperr.New(apperr.KindMissingToken, MsgMissingToken)
		}
		return nil, m.storageFailure(ctx, event, err)
	}
	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		m.metrics.AuthEvent(event, metrics.OutcomeRejected)
		return nil, apperr.New(apperr.KindMissingToken, MsgMissingToken)
	}
	return user, nil
}

func (m *Manager) loginRejected(ctx context.Context, userID uint, email string) error {
	m.audit.Record(logging.SessionLoginFailed, userID, email)
	m.metrics.AuthEvent(metrics.EventLogin, metrics.OutcomeRejected)
	slog.InfoContext(ctx, "Login rejected", "email", email)
	return apperr.New(apperr.KindInvalidCredentials, MsgInvalidCredentials)
}

func (m *Manager) storageFailure(ctx context.Context, event string, err error) error {
	m.metrics.AuthEvent(event, metrics.OutcomeError)
	slog.ErrorContext(ctx, "Session store failure", "event", event, "error", err)
	return apperr.Storage(err)
}
