// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/carterperez-dev/medprep/internal/core"
)

const (
	principalKey contextKey = "principal"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Principal is the account a request acts for. It is resolved once per
// request from the session and passed explicitly to services by id.
type Principal struct {
	AccountID string
	SessionID string
	Email     string
	Role      string
	Plan      string
}

type SessionVerifier interface {
	VerifySession(ctx context.Context, token string) (*Principal, error)
}

func Authenticator(
	verifier SessionVerifier,
	cookieName string,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r, cookieName)

			if token == "" {
				core.JSONError(
					w,
					core.UnauthorizedError("authentication required"),
				)
				return
			}

			principal, err := verifier.VerifySession(r.Context(), token)
			if err != nil {
				handleAuthError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

func RequireRole(roles ...string) func(http.Handler) http.Handler {
	roleSet := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := GetPrincipal(r.Context())

			if p == nil {
				core.JSONError(
					w,
					core.UnauthorizedError("authentication required"),
				)
				return
			}

			if _, ok := roleSet[p.Role]; !ok {
				core.JSONError(
					w,
					core.ForbiddenError("insufficient permissions"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(RoleAdmin)(next)
}

// ExtractToken reads the session cookie, then a bearer header.
func ExtractToken(r *http.Request, cookieName string) string {
	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
			return c.Value
		}
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func handleAuthError(w http.ResponseWriter, err error) {
	if core.IsAppError(err) {
		core.JSONError(w, err)
		return
	}

	switch {
	case errors.Is(err, core.ErrSessionExpired):
		core.JSONError(w, core.SessionExpiredError())
	case errors.Is(err, core.ErrSessionRevoked):
		core.JSONError(w, core.SessionRevokedError())
	case errors.Is(err, core.ErrSessionInvalid),
		errors.Is(err, core.ErrNotFound),
		errors.Is(err, core.ErrUnauthorized):
		core.JSONError(w, core.SessionInvalidError())
	default:
		core.InternalServerError(w, err)
	}
}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func GetPrincipal(ctx context.Context) *Principal {
	if p, ok := ctx.Value(principalKey).(*Principal); ok {
		return p
	}
	return nil
}

func GetAccountID(ctx context.Context) string {
	if p := GetPrincipal(ctx); p != nil {
		return p.AccountID
	}
	return ""
}

func GetSessionID(ctx context.Context) string {
	if p := GetPrincipal(ctx); p != nil {
		return p.SessionID
	}
	return ""
}

func GetRole(ctx context.Context) string {
	if p := GetPrincipal(ctx); p != nil {
		return p.Role
	}
	return ""
}

func GetPlan(ctx context.Context) string {
	if p := GetPrincipal(ctx); p != nil {
		return p.Plan
	}
	return ""
}

func IsAdmin(ctx context.Context) bool {
	return GetRole(ctx) == RoleAdmin
}
