// AngelaMos | 2026
// token.go

package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/medprep/internal/config"
	"github.com/carterperez-dev/medprep/internal/core"
)

const sessionClaim = "sid"

// TokenManager signs the opaque cookie value that names a server-side
// session. The token carries no authority of its own: the session must
// still exist in the store.
type TokenManager struct {
	key    jwk.Key
	issuer string
}

type TokenClaims struct {
	SessionID string
	AccountID string
}

func NewTokenManager(cfg config.SessionConfig) (*TokenManager, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("session secret is empty")
	}

	key, err := jwk.Import([]byte(cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("import session key: %w", err)
	}

	return &TokenManager{key: key, issuer: cfg.Issuer}, nil
}

func (m *TokenManager) Sign(s *Session) (string, error) {
	token, err := jwt.NewBuilder().
		Issuer(m.issuer).
		Subject(s.AccountID).
		IssuedAt(s.CreatedAt).
		Expiration(s.ExpiresAt).
		Claim(sessionClaim, s.ID).
		Build()
	if err != nil {
		return "", fmt.Errorf("build session token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), m.key))
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}

	return string(signed), nil
}

func (m *TokenManager) Parse(tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.HS256(), m.key),
		jwt.WithValidate(true),
		jwt.WithIssuer(m.issuer),
		jwt.WithAcceptableSkew(30*time.Second),
	)
	if err != nil {
		if isTokenExpiredError(err) {
			return nil, fmt.Errorf("parse session token: %w", core.ErrSessionExpired)
		}
		return nil, fmt.Errorf("parse session token: %w", core.ErrSessionInvalid)
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return nil, fmt.Errorf(
			"parse session token: missing subject: %w",
			core.ErrSessionInvalid,
		)
	}

	var sessionID string
	if err := token.Get(sessionClaim, &sessionID); err != nil || sessionID == "" {
		return nil, fmt.Errorf(
			"parse session token: missing session id: %w",
			core.ErrSessionInvalid,
		)
	}

	return &TokenClaims{SessionID: sessionID, AccountID: subject}, nil
}

func isTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "exp") &&
		strings.Contains(errStr, "not satisfied")
}
