package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"guestlist/internal/models"
)

// TokenClaims is the payload of every token this service issues. Admin
// tokens carry a role; inviter tokens do not, which is how the two kinds are
// told apart. Tokens are signed HS256 and carry no expiry: this matches the
// operational model of a short-lived, trusted-staff tool.
type TokenClaims struct {
	ID      int64             `json:"id"`
	Role    *models.AdminRole `json:"role,omitempty"`
	EventID int64             `json:"eventId,omitempty"`
	jwt.RegisteredClaims
}

func (c *TokenClaims) Identity() models.Identity {
	if c.Role != nil {
		return models.Identity{
			Kind:    models.IdentityAdmin,
			ID:      c.ID,
			Role:    *c.Role,
			EventID: c.EventID,
		}
	}
	return models.Identity{
		Kind:    models.IdentityUser,
		ID:      c.ID,
		EventID: c.EventID,
	}
}

func IssueAdminToken(secret string, id int64, role models.AdminRole, eventID int64) (string, error) {
	claims := &TokenClaims{ID: id, Role: &role, EventID: eventID}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func IssueUserToken(secret string, id int64, eventID int64) (string, error) {
	claims := &TokenClaims{ID: id, EventID: eventID}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseToken(secret, tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid || claims.ID == 0 {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// ExtractTokenFromRequest extracts a bearer token from the Authorization header.
func ExtractTokenFromRequest(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header is missing")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("authorization header format must be 'Bearer {token}'")
	}

	return parts[1], nil
}
