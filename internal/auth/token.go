package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"

	"github.com/authcore/authcore/internal/model"
)

// Token errors. Expired tokens match both ErrInvalidToken and ErrTokenExpired.
var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrSigningFailure = errors.New("token signing failed")
)

// TokenConfig defines how tokens are signed and how long they live.
type TokenConfig struct {
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

// sessionClaims is the JWT payload. The class travels in the "typ" claim.
type sessionClaims struct {
	jwt.RegisteredClaims
	Class model.TokenClass `json:"typ"`
}

// TokenIssuer creates and verifies HS256-signed access and refresh tokens.
// It does not consult revocation state.
type TokenIssuer struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenIssuer validates cfg and returns a TokenIssuer.
func NewTokenIssuer(cfg TokenConfig) (*TokenIssuer, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token secret is required")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &TokenIssuer{
		secret:     cfg.Secret,
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        cfg.Now,
	}, nil
}

// AccessTTL returns the lifetime of access tokens.
func (i *TokenIssuer) AccessTTL() time.Duration {
	return i.accessTTL
}

// IssueAccessToken signs a short-lived access token for userID.
func (i *TokenIssuer) IssueAccessToken(userID int64) (string, *model.TokenClaims, error) {
	return i.issue(userID, model.TokenAccess, i.accessTTL)
}

// IssueRefreshToken signs a long-lived refresh token for userID.
func (i *TokenIssuer) IssueRefreshToken(userID int64) (string, *model.TokenClaims, error) {
	return i.issue(userID, model.TokenRefresh, i.refreshTTL)
}

func (i *TokenIssuer) issue(userID int64, class model.TokenClass, ttl time.Duration) (string, *model.TokenClaims, error) {
	// NumericDate has second precision.
	now := i.now().UTC().Truncate(time.Second)

	claims := &model.TokenClaims{
		UserID:    userID,
		JTI:       ulid.Make().String(),
		Class:     class,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        claims.JTI,
		},
		Class: class,
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrSigningFailure, err)
	}

	return signed, claims, nil
}

// Verify checks the signature, class and deadline of a token.
func (i *TokenIssuer) Verify(tokenString string, expected model.TokenClass) (*model.TokenClaims, error) {
	if tokenString == "" || !expected.IsValid() {
		return nil, ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(i.now),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	var parsed sessionClaims
	_, err := jwt.ParseWithClaims(tokenString, &parsed, func(*jwt.Token) (any, error) {
		return i.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidToken, ErrTokenExpired)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if parsed.Class != expected {
		return nil, fmt.Errorf("%w: expected %s token", ErrInvalidToken, expected)
	}
	if parsed.ID == "" {
		return nil, fmt.Errorf("%w: missing jti", ErrInvalidToken)
	}

	userID, err := strconv.ParseInt(parsed.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, fmt.Errorf("%w: invalid subject", ErrInvalidToken)
	}

	claims := &model.TokenClaims{
		UserID:    userID,
		JTI:       parsed.ID,
		Class:     parsed.Class,
		ExpiresAt: parsed.ExpiresAt.Time,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time
	}

	return claims, nil
}
