package model

import "time"

// TokenClass distinguishes access tokens from refresh tokens.
type TokenClass string

// Token classes.
const (
	TokenAccess  TokenClass = "access"
	TokenRefresh TokenClass = "refresh"
)

// IsValid returns true for a known token class.
func (c TokenClass) IsValid() bool {
	return c == TokenAccess || c == TokenRefresh
}

// TokenClaims holds the verified claims of a signed token.
type TokenClaims struct {
	UserID    int64
	JTI       string
	Class     TokenClass
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenPair bundles an access token with the refresh token it was issued or refreshed with.
type TokenPair struct {
	AccessToken   string
	RefreshToken  string
	AccessClaims  *TokenClaims
	RefreshClaims *TokenClaims
}
