package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Role is what a bearer may do. Operators are trusted back-office callers
// that can credit any wallet. Users act on their own wallet only.
type Role string

const (
	RoleUser     Role = "user"
	RoleOperator Role = "operator"
)

var ErrInvalidRole = errors.New("invalid role")

func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleOperator
}

// Principal is the authenticated caller.
type Principal struct {
	UserID uuid.UUID
	Role   Role
}

// CanActFor reports whether p may read or spend from userID's wallet.
func (p Principal) CanActFor(userID uuid.UUID) bool {
	return p.Role == RoleOperator || p.UserID == userID
}

type tokenClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func GenerateToken(p Principal, secret string, expiry time.Duration) (string, error) {
	if !p.Role.IsValid() {
		return "", fmt.Errorf("GenerateToken: %q: %w", p.Role, ErrInvalidRole)
	}

	now := time.Now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: p.UserID.String(),
		Role:   string(p.Role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("GenerateToken: %w", err)
	}
	return signed, nil
}

func ValidateToken(tokenString string, secret string) (*Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("ValidateToken: %w", err)
	}

	tc, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("ValidateToken: invalid token claims")
	}

	userID, err := uuid.Parse(tc.UserID)
	if err != nil {
		return nil, fmt.Errorf("ValidateToken: invalid user_id in token: %w", err)
	}

	role := Role(tc.Role)
	if !role.IsValid() {
		return nil, fmt.Errorf("ValidateToken: %q: %w", tc.Role, ErrInvalidRole)
	}

	return &Principal{UserID: userID, Role: role}, nil
}
