package auth

import (
	"context"
	"net/http"

	"guestlist/internal/logger"
	"guestlist/internal/models"
	"guestlist/internal/utils"
)

type contextKey string

const identityKey contextKey = "identity"

// IdentityFrom returns the caller identity attached by the middleware.
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	ident, ok := ctx.Value(identityKey).(models.Identity)
	return ident, ok
}

// WithIdentity returns a context carrying the given caller identity.
func WithIdentity(ctx context.Context, ident models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}

// Middleware decodes bearer tokens into an immutable Identity on the request
// context. Token failures are 401; role failures are 403.
type Middleware struct {
	Secret string
	Users  UserDBLayer
	Logger *logger.Logger
}

func NewMiddleware(secret string, users UserDBLayer, log *logger.Logger) *Middleware {
	return &Middleware{Secret: secret, Users: users, Logger: log}
}

// RequireAdmin accepts admin tokens of at least minRole.
func (m *Middleware) RequireAdmin(minRole models.AdminRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, ok := m.adminIdentity(w, r, minRole)
			if !ok {
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), ident)))
		})
	}
}

// RequireUserOrAdmin is the logical-OR guard: the caller is either an
// authenticated inviter (whose row must still exist) or an admin of at least
// minRole.
func (m *Middleware) RequireUserOrAdmin(minRole models.AdminRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := m.parseClaims(w, r)
			if !ok {
				return
			}

			ident := claims.Identity()
			if ident.IsAdmin() {
				if ident.Role > minRole {
					m.Logger.LogAuth("ROLE", "admin token with insufficient role")
					utils.WriteError(w, http.StatusForbidden, "Insufficient role")
					return
				}
			} else {
				exists, err := m.Users.UserExists(r.Context(), ident.ID)
				if err != nil || !exists {
					m.Logger.LogAuth("USER", "token for a user that no longer exists")
					utils.WriteError(w, http.StatusUnauthorized, "User not found")
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), ident)))
		})
	}
}

func (m *Middleware) adminIdentity(w http.ResponseWriter, r *http.Request, minRole models.AdminRole) (models.Identity, bool) {
	claims, ok := m.parseClaims(w, r)
	if !ok {
		return models.Identity{}, false
	}

	ident := claims.Identity()
	if !ident.IsAdmin() {
		m.Logger.LogAuth("TOKEN", "user token on an admin-only route")
		utils.WriteError(w, http.StatusForbidden, "Admin access required")
		return models.Identity{}, false
	}
	if ident.Role > minRole {
		m.Logger.LogAuth("ROLE", "admin token with insufficient role")
		utils.WriteError(w, http.StatusForbidden, "Insufficient role")
		return models.Identity{}, false
	}
	return ident, true
}

func (m *Middleware) parseClaims(w http.ResponseWriter, r *http.Request) (*TokenClaims, bool) {
	tokenString, err := ExtractTokenFromRequest(r)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, err.Error())
		return nil, false
	}

	claims, err := ParseToken(m.Secret, tokenString)
	if err != nil {
		m.Logger.LogAuth("TOKEN", "rejected invalid token")
		utils.WriteError(w, http.StatusUnauthorized, "Invalid token")
		return nil, false
	}
	return claims, true
}
