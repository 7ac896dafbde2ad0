package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/BradenHooton/supportportal/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// TokenIssuer identifies the organization that signs tokens
	TokenIssuer = "Get Lists, LLC"
	// TokenAudience identifies the application tokens are meant for
	TokenAudience = "User Management Portal"
	// TokenExpiry is the fixed validity window (432,000,000 ms)
	TokenExpiry = 5 * 24 * time.Hour
)

// TokenProvider issues and verifies HS512 bearer tokens. The secret is
// fixed at construction and only read afterwards.
type TokenProvider struct {
	secret []byte
	now    func() time.Time
}

// NewTokenProvider creates a TokenProvider. An unusable secret is a startup error.
func NewTokenProvider(secret string) (*TokenProvider, error) {
	if secret == "" {
		return nil, errors.New("token signing secret is required")
	}

	return &TokenProvider{
		secret: []byte(secret),
		now:    time.Now,
	}, nil
}

// Issue creates a signed token for subject carrying the given authorities
func (tp *TokenProvider) Issue(subject string, authorities []string) (string, error) {
	now := tp.now()

	claims := &models.TokenClaims{
		Authorities: append([]string{}, authorities...),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)

	tokenString, err := token.SignedString(tp.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Verify checks signature, algorithm, issuer and expiry before returning claims.
// Every failure is reported as models.ErrTokenInvalid.
func (tp *TokenProvider) Verify(tokenString string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return tp.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tp.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrTokenInvalid, err)
	}

	if !token.Valid {
		return nil, models.ErrTokenInvalid
	}

	return claims, nil
}

// IsValid reports whether subject is non-empty and the token verifies.
// Verify already requires an expiry strictly after now. subject is not
// compared to the token's own claim.
func (tp *TokenProvider) IsValid(subject, tokenString string) bool {
	if subject == "" {
		return false
	}

	_, err := tp.Verify(tokenString)
	return err == nil
}

// Subject returns the verified subject claim
func (tp *TokenProvider) Subject(tokenString string) (string, error) {
	claims, err := tp.Verify(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Authorities returns the verified authorities claim in issue order
func (tp *TokenProvider) Authorities(tokenString string) ([]string, error) {
	claims, err := tp.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	return claims.Authorities, nil
}
