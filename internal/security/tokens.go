package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is malformed, expired, or
	// signed with the wrong key or method.
	ErrInvalidToken = errors.New("invalid token")
)

// IdentityClaims holds the JWT claims for an access token: the standard set
// plus the identity's role and family. Downstream services authorize on the
// role claim; token issuance itself is the only authentication surface here.
type IdentityClaims struct {
	jwt.RegisteredClaims
	Role   string `json:"role"`
	Family string `json:"family"`
}

// TokenProvider issues and validates HS256 access tokens carrying a role claim.
type TokenProvider struct {
	secret    []byte
	issuer    string
	accessTTL time.Duration
}

// NewTokenProvider returns a TokenProvider signing with the given HMAC secret.
// issuer is set on claims and checked on validation.
func NewTokenProvider(secret []byte, issuer string, accessTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		secret:    secret,
		issuer:    issuer,
		accessTTL: accessTTL,
	}
}

// Issue issues an access JWT for the identity. subject is the record id,
// family names the identity family, role is the record's role discriminator.
// Returns the signed token and its expiration time.
func (p *TokenProvider) Issue(subject, family, role string) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(p.accessTTL)
	claims := IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role:   role,
		Family: family,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Validate parses and validates the token (signature, exp, iss) and returns
// its claims, or ErrInvalidToken.
func (p *TokenProvider) Validate(tokenString string) (*IdentityClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &IdentityClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return p.secret, nil
	}, jwt.WithIssuer(p.issuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*IdentityClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
