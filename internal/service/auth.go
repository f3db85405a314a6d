// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/authcore/authcore/internal/auth"
	"github.com/authcore/authcore/internal/metrics"
	"github.com/authcore/authcore/internal/model"
	"github.com/authcore/authcore/internal/repository"
	"github.com/authcore/authcore/internal/revocation"
)

const tracerName = "github.com/authcore/authcore/internal/service"

// dummyPassword is hashed once and verified against when a login names an
// unknown email, so both failure paths spend the same hashing time.
const dummyPassword = "authcore-timing-equalizer"

// AuthService handles registration, login, token refresh, logout and
// profile lookup. It holds no per-request state and is safe for
// concurrent use.
type AuthService struct {
	users   repository.UserStore
	hasher  *auth.PasswordHasher
	tokens  *auth.TokenIssuer
	revoked revocation.Registry
	metrics metrics.Recorder
	logger  *slog.Logger
	tracer  trace.Tracer

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	users repository.UserStore,
	hasher *auth.PasswordHasher,
	tokens *auth.TokenIssuer,
	revoked revocation.Registry,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *AuthService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		revoked: revoked,
		metrics: recorder,
		logger:  logger.With("component", "auth"),
		tracer:  otel.Tracer(tracerName),
	}
}

// AccessTokenTTL returns the lifetime of issued access tokens.
func (s *AuthService) AccessTokenTTL() time.Duration {
	return s.tokens.AccessTTL()
}

// RegisterUser validates input, hashes the password and stores a new user.
func (s *AuthService) RegisterUser(ctx context.Context, input RegisterInput) (user *model.User, err error) {
	ctx, span := s.startSpan(ctx, "AuthService.RegisterUser")
	defer func() { s.finish(span, s.metrics.IncRegistration, err) }()

	input = input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}

	if _, err := s.users.GetUserByEmail(ctx, input.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, storeError(err)
	}

	hash, err := s.hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user = &model.User{
		Email:        input.Email,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PhoneNo:      input.PhoneNo,
		Location:     input.Location,
		Country:      input.Country,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		// Another registration for the same email won the race.
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, storeError(err)
	}

	span.SetAttributes(attribute.Int64("user.id", user.ID))
	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// LoginUser verifies credentials and issues an access and refresh token.
// An unknown email yields ErrUserNotFound and a wrong password
// ErrInvalidCredentials; callers facing the public should not reveal
// which one occurred.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (pair *model.TokenPair, err error) {
	ctx, span := s.startSpan(ctx, "AuthService.LoginUser")
	defer func() { s.finish(span, s.metrics.IncLogin, err) }()

	email = strings.TrimSpace(email)
	if email == "" || isBlank(password) {
		return nil, ErrMissingFields
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.hasher.Verify(s.dummyPasswordHash(), password)
			s.logger.InfoContext(ctx, "login rejected", "reason", "unknown_email")
			return nil, ErrUserNotFound
		}
		return nil, storeError(err)
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		s.logger.InfoContext(ctx, "login rejected", "reason", "bad_password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	access, accessClaims, err := s.tokens.IssueAccessToken(user.ID)
	if err != nil {
		return nil, signingError(err)
	}
	refresh, refreshClaims, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, signingError(err)
	}

	span.SetAttributes(attribute.Int64("user.id", user.ID))
	s.logger.InfoContext(ctx, "user logged in",
		"user_id", user.ID,
		"access_jti", accessClaims.JTI,
		"refresh_jti", refreshClaims.JTI,
	)

	return &model.TokenPair{
		AccessToken:   access,
		RefreshToken:  refresh,
		AccessClaims:  accessClaims,
		RefreshClaims: refreshClaims,
	}, nil
}

// RefreshAccessToken exchanges a valid, unrevoked refresh token for a new
// access token. The refresh token itself is returned unchanged.
func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (pair *model.TokenPair, err error) {
	ctx, span := s.startSpan(ctx, "AuthService.RefreshAccessToken")
	defer func() { s.finish(span, s.metrics.IncRefresh, err) }()

	claims, err := s.verify(ctx, refreshToken, model.TokenRefresh)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int64("user.id", claims.UserID))

	access, accessClaims, err := s.tokens.IssueAccessToken(claims.UserID)
	if err != nil {
		return nil, signingError(err)
	}

	s.logger.InfoContext(ctx, "access token refreshed",
		"user_id", claims.UserID,
		"refresh_jti", claims.JTI,
		"access_jti", accessClaims.JTI,
	)

	return &model.TokenPair{
		AccessToken:   access,
		RefreshToken:  refreshToken,
		AccessClaims:  accessClaims,
		RefreshClaims: claims,
	}, nil
}

// LogoutUser revokes the token identified by jti. expiresAt is the token's
// own expiry; the revocation need not outlive it.
func (s *AuthService) LogoutUser(ctx context.Context, jti string, expiresAt time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "AuthService.LogoutUser")
	defer func() { s.finish(span, s.metrics.IncLogout, err) }()

	if jti == "" {
		return ErrInvalidToken
	}

	if err := s.revoked.Revoke(ctx, jti, expiresAt); err != nil {
		return storeError(err)
	}

	s.logger.InfoContext(ctx, "token revoked", "jti", jti)
	return nil
}

// RevokeRefreshToken revokes a refresh token presented at logout. The token
// must be valid and belong to userID. It is not counted as a separate logout.
func (s *AuthService) RevokeRefreshToken(ctx context.Context, userID int64, refreshToken string) (err error) {
	ctx, span := s.startSpan(ctx, "AuthService.RevokeRefreshToken")
	defer func() { s.finish(span, nil, err) }()

	claims, err := s.tokens.Verify(refreshToken, model.TokenRefresh)
	if err != nil {
		return tokenError(err)
	}
	if claims.UserID != userID {
		return ErrInvalidToken
	}
	span.SetAttributes(attribute.Int64("user.id", userID))

	if err := s.revoked.Revoke(ctx, claims.JTI, claims.ExpiresAt); err != nil {
		return storeError(err)
	}

	s.logger.InfoContext(ctx, "refresh token revoked", "user_id", userID, "jti", claims.JTI)
	return nil
}

// Authenticate verifies an access token and checks that it has not been
// revoked. It gates every operation that requires a logged-in user.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (claims *model.TokenClaims, err error) {
	ctx, span := s.startSpan(ctx, "AuthService.Authenticate")
	defer func() { s.finish(span, s.metrics.IncAuthentication, err) }()

	claims, err = s.verify(ctx, accessToken, model.TokenAccess)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int64("user.id", claims.UserID))
	return claims, nil
}

// GetUserProfile returns the stored user record for userID.
func (s *AuthService) GetUserProfile(ctx context.Context, userID int64) (user *model.User, err error) {
	ctx, span := s.startSpan(ctx, "AuthService.GetUserProfile")
	defer func() { s.finish(span, nil, err) }()

	span.SetAttributes(attribute.Int64("user.id", userID))

	user, err = s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storeError(err)
	}
	return user, nil
}

// verify checks signature, class and expiry, then consults the revocation
// registry.
func (s *AuthService) verify(ctx context.Context, token string, class model.TokenClass) (*model.TokenClaims, error) {
	claims, err := s.tokens.Verify(token, class)
	if err != nil {
		return nil, tokenError(err)
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.JTI)
	if err != nil {
		return nil, storeError(err)
	}
	if revoked {
		s.logger.InfoContext(ctx, "revoked token presented", "jti", claims.JTI, "user_id", claims.UserID)
		return nil, ErrRevoked
	}

	return claims, nil
}

func (s *AuthService) hashPassword(password string) (string, error) {
	start := time.Now()
	hash, err := s.hasher.Hash(password)
	s.metrics.ObservePasswordHashDuration(time.Since(start))
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

func (s *AuthService) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(dummyPassword)
		if err != nil {
			s.logger.Warn("failed to prepare dummy password hash", "error", err)
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *AuthService) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name)
}

// finish records err on span, counts the outcome, and ends the span.
func (s *AuthService) finish(span trace.Span, count func(metrics.Outcome), err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if count != nil {
		count(outcomeOf(err))
	}
	span.End()
}

func signingError(err error) error {
	return fmt.Errorf("%w: %w", ErrSigningFailure, err)
}

func tokenError(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidToken, err)
}
