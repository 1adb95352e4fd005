// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/carterperez-dev/medprep/internal/core"
	"github.com/carterperez-dev/medprep/internal/middleware"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailExists        = errors.New("email already exists")
)

type AccountInfo struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         string
	Plan         string
}

type AccountProvider interface {
	GetByEmail(ctx context.Context, email string) (*AccountInfo, error)
	GetByID(ctx context.Context, id string) (*AccountInfo, error)
	Create(
		ctx context.Context,
		email, passwordHash, name string,
	) (*AccountInfo, error)
	UpdatePassword(ctx context.Context, accountID, passwordHash string) error
}

type Service struct {
	store    SessionStore
	tokens   *TokenManager
	accounts AccountProvider
	ttl      time.Duration
	logger   *slog.Logger
}

func NewService(
	store SessionStore,
	tokens *TokenManager,
	accounts AccountProvider,
	ttl time.Duration,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		tokens:   tokens,
		accounts: accounts,
		ttl:      ttl,
		logger:   logger,
	}
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	account, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(
		req.Password,
		&account.PasswordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return nil, ErrInvalidCredentials
	}

	if newHash != "" {
		//nolint:errcheck // best-effort rehash upgrade
		_ = s.accounts.UpdatePassword(ctx, account.ID, newHash)
	}

	return s.openSession(ctx, account, userAgent, ipAddress)
}

func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account, err := s.accounts.Create(ctx, req.Email, passwordHash, req.Name)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.logger.InfoContext(ctx, "account registered", "account_id", account.ID)

	return s.openSession(ctx, account, userAgent, ipAddress)
}

// VerifySession resolves a cookie or bearer token into the current
// account. The account is reloaded so role and plan changes apply at once.
func (s *Service) VerifySession(
	ctx context.Context,
	token string,
) (*middleware.Principal, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	sess, err := s.store.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("verify session: %w", core.ErrSessionRevoked)
		}
		return nil, fmt.Errorf("verify session: %w", err)
	}

	if sess.AccountID != claims.AccountID {
		return nil, fmt.Errorf("verify session: %w", core.ErrSessionInvalid)
	}
	if sess.IsExpired() {
		return nil, fmt.Errorf("verify session: %w", core.ErrSessionExpired)
	}

	account, err := s.accounts.GetByID(ctx, sess.AccountID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("verify session: %w", core.ErrSessionRevoked)
		}
		return nil, fmt.Errorf("verify session: %w", err)
	}

	return &middleware.Principal{
		AccountID: account.ID,
		SessionID: sess.ID,
		Email:     account.Email,
		Role:      account.Role,
		Plan:      account.Plan,
	}, nil
}

func (s *Service) Logout(ctx context.Context, accountID, sessionID string) error {
	if err := s.store.Delete(ctx, accountID, sessionID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (s *Service) LogoutAll(ctx context.Context, accountID string) (int, error) {
	n, err := s.store.DeleteAllForAccount(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("logout all: %w", err)
	}
	return n, nil
}

// RevokeAllSessions is the admin entry point; it matches LogoutAll but logs
// who was affected.
func (s *Service) RevokeAllSessions(ctx context.Context, accountID string) (int, error) {
	n, err := s.LogoutAll(ctx, accountID)
	if err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "sessions revoked", "account_id", accountID, "count", n)
	return n, nil
}

func (s *Service) GetActiveSessions(
	ctx context.Context,
	accountID, currentSessionID string,
) ([]SessionInfo, error) {
	sessions, err := s.store.ListForAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("get sessions: %w", err)
	}

	out := make([]SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, SessionInfo{
			ID:        sess.ID,
			UserAgent: sess.UserAgent,
			IPAddress: sess.IPAddress,
			CreatedAt: sess.CreatedAt,
			ExpiresAt: sess.ExpiresAt,
			Current:   sess.ID == currentSessionID,
		})
	}

	return out, nil
}

// RevokeSession deletes one of the caller's sessions. Another account's
// session is reported as not found.
func (s *Service) RevokeSession(
	ctx context.Context,
	accountID, sessionID string,
) error {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("find session: %w", err)
	}

	if sess.AccountID != accountID {
		return fmt.Errorf("revoke session: %w", core.ErrNotFound)
	}

	return s.store.Delete(ctx, accountID, sessionID)
}

// ChangePassword updates the hash and ends every other session.
func (s *Service) ChangePassword(
	ctx context.Context,
	accountID, currentSessionID, currentPassword, newPassword string,
) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("get account: %w", err)
	}

	valid, _, err := core.VerifyPasswordWithRehash(
		currentPassword,
		account.PasswordHash,
	)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return ErrInvalidCredentials
	}

	newHash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.accounts.UpdatePassword(ctx, accountID, newHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	sessions, err := s.store.ListForAccount(ctx, accountID)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	for _, sess := range sessions {
		if sess.ID == currentSessionID {
			continue
		}
		if err := s.store.Delete(ctx, accountID, sess.ID); err != nil {
			return fmt.Errorf("revoke session: %w", err)
		}
	}

	return nil
}

func (s *Service) GetCurrentAccount(
	ctx context.Context,
	accountID string,
) (*AccountResponse, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	resp := toAccountResponse(account)
	return &resp, nil
}

func (s *Service) openSession(
	ctx context.Context,
	account *AccountInfo,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	id, err := core.GenerateSessionID()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	sess := &Session{
		ID:        id,
		AccountID: account.ID,
		UserAgent: userAgent,
		IPAddress: ipAddress,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	if err := s.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	token, err := s.tokens.Sign(sess)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}

	return &AuthResponse{
		Account:   toAccountResponse(account),
		Token:     token,
		ExpiresAt: sess.ExpiresAt,
	}, nil
}

func toAccountResponse(a *AccountInfo) AccountResponse {
	return AccountResponse{
		ID:    a.ID,
		Email: a.Email,
		Name:  a.Name,
		Role:  a.Role,
		Plan:  a.Plan,
	}
}

var _ middleware.SessionVerifier = (*Service)(nil)
