package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"doctrack/internal/config"
	"doctrack/internal/domain"
)

// Claims are the access token claims issued by the identity provider.
type Claims struct {
	jwt.RegisteredClaims
	UserID       int64           `json:"user_id"`
	Role         domain.UserRole `json:"role"`
	DepartmentID int64           `json:"department_id"`
}

// Actor returns the identity the claims describe.
func (c *Claims) Actor() domain.Actor {
	return domain.Actor{UserID: c.UserID, Role: c.Role, DepartmentID: c.DepartmentID}
}

// TokenVerifier turns a bearer token into an Actor. Tokens are issued elsewhere.
type TokenVerifier interface {
	Verify(tokenString string) (*Claims, error)
}

type tokenVerifier struct {
	cfg *config.JWTConfig
}

// NewTokenVerifier creates an HS256 TokenVerifier.
func NewTokenVerifier(cfg *config.JWTConfig) TokenVerifier {
	return &tokenVerifier{cfg: cfg}
}

func (v *tokenVerifier) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.cfg.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(v.cfg.Secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing token: %v", domain.ErrUnauthorized, err)
	}
	if !token.Valid {
		return nil, domain.ErrUnauthorized
	}
	if claims.UserID <= 0 || !domain.ValidRoles[claims.Role] {
		return nil, fmt.Errorf("%w: token is missing user or role", domain.ErrUnauthorized)
	}
	return claims, nil
}
